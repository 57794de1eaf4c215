package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/ONSdigital/sdx-survey-sync/internal/client"
)

// memStore is an in-memory Store that records the order of calls.
type memStore struct {
	mu      sync.Mutex
	defs    map[string]client.Definition
	answers map[string]client.AnswerSet
	calls   *callLog

	fetchDefErr     error
	fetchAnswersErr error
	saveDefErr      error
	saveAnswersErr  error

	savedDefs    []string
	savedAnswers []client.AnswerSet
}

func newMemStore(calls *callLog) *memStore {
	return &memStore{
		defs:    map[string]client.Definition{},
		answers: map[string]client.AnswerSet{},
		calls:   calls,
	}
}

func (m *memStore) FetchDefinition(_ context.Context, surveyID string) (client.Definition, error) {
	m.calls.add("fetch_definition")
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchDefErr != nil {
		return nil, m.fetchDefErr
	}
	def, ok := m.defs[surveyID]
	if !ok {
		return nil, notFound(client.ResourceDefinition, surveyID, "")
	}
	return def, nil
}

func (m *memStore) SaveDefinition(_ context.Context, surveyID string, def client.Definition) error {
	m.calls.add("save_definition")
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveDefErr != nil {
		return m.saveDefErr
	}
	m.defs[surveyID] = def
	m.savedDefs = append(m.savedDefs, string(def))
	return nil
}

func (m *memStore) FetchAnswers(_ context.Context, surveyID, answerID string) (client.AnswerSet, error) {
	m.calls.add("fetch_answers")
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchAnswersErr != nil {
		return nil, m.fetchAnswersErr
	}
	answers, ok := m.answers[surveyID+"/"+answerID]
	if !ok {
		return nil, notFound(client.ResourceAnswers, surveyID, answerID)
	}
	return answers, nil
}

func (m *memStore) SaveAnswers(_ context.Context, surveyID, answerID string, answers client.AnswerSet) error {
	m.calls.add("save_answers")
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveAnswersErr != nil {
		return m.saveAnswersErr
	}
	m.answers[surveyID+"/"+answerID] = answers
	m.savedAnswers = append(m.savedAnswers, answers)
	return nil
}

func notFound(resource client.Resource, surveyID, answerID string) error {
	return &client.FetchError{
		Resource:   resource,
		SurveyID:   surveyID,
		AnswerID:   answerID,
		StatusCode: http.StatusNotFound,
		Err:        &client.StatusError{Code: http.StatusNotFound, Status: "404 Not Found"},
	}
}

type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type fakeEditor struct {
	text   string
	onSave func()
}

func (e *fakeEditor) SetText(text string)   { e.text = text }
func (e *fakeEditor) Text() string          { return e.text }
func (e *fakeEditor) OnSave(handler func()) { e.onSave = handler }

// clickSave simulates the user pressing the editor's save button.
func (e *fakeEditor) clickSave() { e.onSave() }

type fakeModel struct {
	def        client.Definition
	data       client.AnswerSet
	applied    []string
	onComplete func(client.AnswerSet)
	transform  TextTransform
}

func (m *fakeModel) ApplyAnswer(key string, value interface{}) {
	m.applied = append(m.applied, key)
	m.data[key] = value
}

func (m *fakeModel) Data() client.AnswerSet { return m.data }

func (m *fakeModel) OnComplete(handler func(client.AnswerSet)) { m.onComplete = handler }

func (m *fakeModel) RegisterTextTransform(t TextTransform) { m.transform = t }

// complete simulates the respondent pressing the complete button.
func (m *fakeModel) complete() { m.onComplete(m.data) }

type fakeRenderer struct {
	calls *callLog
	model *fakeModel
	err   error
}

func (r *fakeRenderer) NewModel(def client.Definition) (Model, error) {
	r.calls.add("new_model")
	if r.err != nil {
		return nil, r.err
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(def, &doc); err != nil {
		return nil, fmt.Errorf("bad definition: %w", err)
	}
	r.model = &fakeModel{def: def, data: client.AnswerSet{}}
	return r.model, nil
}

type noticeRecorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *noticeRecorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *noticeRecorder) kinds() []NoticeKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]NoticeKind, 0, len(r.notices))
	for _, n := range r.notices {
		kinds = append(kinds, n.Kind)
	}
	return kinds
}

func (r *noticeRecorder) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := make([]string, 0, len(r.notices))
	for _, n := range r.notices {
		msgs = append(msgs, n.Message())
	}
	return msgs
}
