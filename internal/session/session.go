// Package session drives the two survey flows: editing a definition and
// answering a survey. A session fetches what the flow needs, hands it to an
// editing or rendering collaborator, and persists the collaborator's state
// when the user asks for it. Failures end up as a single Notice to the user.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/ONSdigital/sdx-survey-sync/internal/client"
)

// State is a position in a flow's state machine.
type State int

// Editing flow: Idle, Loading, Editing, Saving, Saved, Failed.
// Answering flow: Idle, LoadingDefinition, LoadingAnswers, Rendering,
// Completing, Completed, Failed.
const (
	Idle State = iota
	Loading
	Editing
	Saving
	Saved
	LoadingDefinition
	LoadingAnswers
	Rendering
	Completing
	Completed
	Failed
)

var stateNames = map[State]string{
	Idle:              "idle",
	Loading:           "loading",
	Editing:           "editing",
	Saving:            "saving",
	Saved:             "saved",
	LoadingDefinition: "loading_definition",
	LoadingAnswers:    "loading_answers",
	Rendering:         "rendering",
	Completing:        "completing",
	Completed:         "completed",
	Failed:            "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var (
	// ErrStarted is returned by Start on a session that already ran.
	ErrStarted = errors.New("session already started")
	// ErrNotLoaded is returned when a save is requested before the flow has
	// loaded what it saves.
	ErrNotLoaded = errors.New("nothing loaded to save")
	// ErrBusy is returned when a save is requested while one is in flight.
	ErrBusy = errors.New("save already in progress")
)

// ParseError reports editor text that is not a valid JSON document. It is
// raised before any request is made.
type ParseError struct {
	Offset int64 // byte offset of the syntax error, when known
	Err    error
}

func (e *ParseError) Error() string {
	if e.Offset > 0 {
		return fmt.Sprintf("invalid survey definition at offset %d: %v", e.Offset, e.Err)
	}
	return fmt.Sprintf("invalid survey definition: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Store is the subset of the remote store client the sessions need.
type Store interface {
	FetchDefinition(ctx context.Context, surveyID string) (client.Definition, error)
	SaveDefinition(ctx context.Context, surveyID string, def client.Definition) error
	FetchAnswers(ctx context.Context, surveyID, answerID string) (client.AnswerSet, error)
	SaveAnswers(ctx context.Context, surveyID, answerID string, answers client.AnswerSet) error
}

// Editor is a text editor for a survey definition.
type Editor interface {
	// SetText replaces the editor content with the fetched definition.
	SetText(text string)
	// Text returns the current editor content.
	Text() string
	// OnSave registers the handler run when the user asks to save.
	OnSave(handler func())
}

// TextTransform converts display text, e.g. markdown to HTML.
type TextTransform func(text string) (string, error)

// Model is a rendered survey that a respondent fills in.
type Model interface {
	ApplyAnswer(key string, value interface{})
	// Data returns the answers currently held by the model.
	Data() client.AnswerSet
	// OnComplete registers the handler run when the respondent completes
	// the survey.
	OnComplete(handler func(client.AnswerSet))
	RegisterTextTransform(transform TextTransform)
}

// Renderer builds a Model from a definition.
type Renderer interface {
	NewModel(def client.Definition) (Model, error)
}

// NoticeKind classifies what the user is told.
type NoticeKind int

// Notice kinds.
const (
	NoticeSaved NoticeKind = iota
	NoticeSaveFailed
	NoticeLoadFailed
	NoticeInvalid
	NoticeMisconfigured
)

var noticeMessages = map[NoticeKind]string{
	NoticeSaved:         "saved",
	NoticeSaveFailed:    "failed to save",
	NoticeLoadFailed:    "failed to load",
	NoticeInvalid:       "invalid survey definition",
	NoticeMisconfigured: "missing survey parameters",
}

// Notice is a user-facing outcome.
type Notice struct {
	Kind NoticeKind
	Err  error
}

// Message is the short text shown to the user.
func (n Notice) Message() string {
	return noticeMessages[n.Kind]
}

func (n Notice) String() string {
	if n.Err != nil {
		return fmt.Sprintf("%s: %v", n.Message(), n.Err)
	}
	return n.Message()
}

// Notifier shows notices to the user.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notice) { f(n) }
