package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/tidwall/jsonc"
	"go.uber.org/zap"

	"github.com/ONSdigital/sdx-survey-sync/internal/client"
	"github.com/ONSdigital/sdx-survey-sync/internal/locator"
)

// EditingSession loads a survey definition into an Editor and saves the
// editor content back when the user asks for it.
type EditingSession struct {
	store    Store
	editor   Editor
	notifier Notifier
	loc      locator.Locator
	logger   *zap.Logger

	mu      sync.Mutex
	state   State
	loaded  bool
	lastErr error
}

// NewEditing creates an editing session for the survey named by loc.
func NewEditing(store Store, editor Editor, notifier Notifier, loc locator.Locator, logger *zap.Logger) *EditingSession {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EditingSession{
		store:    store,
		editor:   editor,
		notifier: notifier,
		loc:      loc,
		logger:   logger.With(zap.String("survey_id", loc.SurveyID)),
	}
}

// State returns the current state.
func (s *EditingSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error that caused the last failure, if any.
func (s *EditingSession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Start fetches the definition and hands it to the editor. The editor's
// save action is wired to Save using ctx.
func (s *EditingSession) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Idle {
		s.mu.Unlock()
		return ErrStarted
	}
	if s.loc.SurveyID == "" {
		err := &locator.ConfigurationError{Param: locator.ParamSurvey}
		s.failLocked(err)
		s.mu.Unlock()
		s.notify(Notice{Kind: NoticeMisconfigured, Err: err})
		return err
	}
	s.state = Loading
	s.mu.Unlock()

	s.logger.Info("Loading survey definition")
	def, err := s.store.FetchDefinition(ctx, s.loc.SurveyID)
	if err != nil {
		s.logger.Warn("Failed to load survey definition", zap.Error(err))
		s.mu.Lock()
		s.failLocked(err)
		s.mu.Unlock()
		s.notify(Notice{Kind: NoticeLoadFailed, Err: err})
		return err
	}

	s.editor.SetText(string(def))
	s.editor.OnSave(func() {
		_ = s.Save(ctx)
	})

	s.mu.Lock()
	s.state = Editing
	s.loaded = true
	s.mu.Unlock()
	s.logger.Info("Survey definition loaded into editor")
	return nil
}

// Save parses the editor content and replaces the stored definition with it.
// Malformed content fails with a *ParseError and nothing is sent.
func (s *EditingSession) Save(ctx context.Context) error {
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return ErrNotLoaded
	}
	if s.state == Saving {
		s.mu.Unlock()
		return ErrBusy
	}
	s.state = Saving
	s.mu.Unlock()

	def, err := ParseDefinition(s.editor.Text())
	if err != nil {
		s.logger.Warn("Editor content is not a valid definition", zap.Error(err))
		s.finishSave(err, Notice{Kind: NoticeInvalid, Err: err})
		return err
	}

	s.logger.Info("Saving survey definition", zap.Int("bytes", len(def)))
	if err := s.store.SaveDefinition(ctx, s.loc.SurveyID, def); err != nil {
		s.logger.Warn("Failed to save survey definition", zap.Error(err))
		s.finishSave(err, Notice{Kind: NoticeSaveFailed, Err: err})
		return err
	}

	s.logger.Info("Saved survey definition")
	s.finishSave(nil, Notice{Kind: NoticeSaved})
	return nil
}

func (s *EditingSession) finishSave(err error, n Notice) {
	s.mu.Lock()
	if err != nil {
		s.failLocked(err)
	} else {
		s.state = Saved
		s.lastErr = nil
	}
	s.mu.Unlock()
	s.notify(n)
}

func (s *EditingSession) failLocked(err error) {
	s.state = Failed
	s.lastErr = err
}

func (s *EditingSession) notify(n Notice) {
	if s.notifier != nil {
		s.notifier.Notify(n)
	}
}

// ParseDefinition turns editor text into a definition. Comments and trailing
// commas are tolerated and stripped; the result is compact JSON with the
// document's key order preserved.
func ParseDefinition(text string) (client.Definition, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ParseError{Err: errors.New("empty document")}
	}
	if at := unterminatedComment(text); at >= 0 {
		return nil, &ParseError{Offset: int64(at), Err: errors.New("unterminated block comment")}
	}
	stripped := jsonc.ToJSON([]byte(text))
	if !utf8.Valid(stripped) {
		return nil, &ParseError{Offset: int64(invalidUTF8(stripped)), Err: errors.New("invalid UTF-8")}
	}
	var doc interface{}
	if err := json.Unmarshal(stripped, &doc); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, &ParseError{Offset: syntaxErr.Offset, Err: err}
		}
		return nil, &ParseError{Err: err}
	}
	if _, ok := doc.(map[string]interface{}); !ok {
		return nil, &ParseError{Err: errors.New("definition must be a JSON object")}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, stripped); err != nil {
		return nil, &ParseError{Err: err}
	}
	return client.Definition(buf.Bytes()), nil
}

// unterminatedComment returns the offset of a /* that is never closed, or -1.
// Strings are skipped so a /* inside a value is left alone.
func unterminatedComment(text string) int {
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '"':
			for i++; i < len(text) && text[i] != '"'; i++ {
				if text[i] == '\\' {
					i++
				}
			}
		case '/':
			if i+1 >= len(text) {
				continue
			}
			switch text[i+1] {
			case '/':
				nl := strings.IndexByte(text[i:], '\n')
				if nl < 0 {
					return -1
				}
				i += nl
			case '*':
				end := strings.Index(text[i+2:], "*/")
				if end < 0 {
					return i
				}
				i += end + 3
			}
		}
	}
	return -1
}

func invalidUTF8(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return len(b)
}
