package session

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ONSdigital/sdx-survey-sync/internal/client"
	"github.com/ONSdigital/sdx-survey-sync/internal/locator"
)

// wireStore serves the store HTTP contract and records request bodies.
type wireStore struct {
	mu              sync.Mutex
	definitions     map[string]string
	answers         map[string]string
	puts            []string
	answerPutStatus int
}

func (w *wireStore) handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/surveys/{survey}", func(rw http.ResponseWriter, req *http.Request) {
		w.mu.Lock()
		defer w.mu.Unlock()
		doc, ok := w.definitions[mux.Vars(req)["survey"]]
		if !ok {
			http.Error(rw, "not found!", http.StatusNotFound)
			return
		}
		rw.Write([]byte(doc))
	}).Methods(http.MethodGet)
	r.HandleFunc("/surveys/{survey}", func(rw http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		w.mu.Lock()
		defer w.mu.Unlock()
		w.definitions[mux.Vars(req)["survey"]] = string(body)
		w.puts = append(w.puts, string(body))
		rw.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodPut)
	r.HandleFunc("/surveys/{survey}/answers/{answer}", func(rw http.ResponseWriter, req *http.Request) {
		w.mu.Lock()
		defer w.mu.Unlock()
		vars := mux.Vars(req)
		doc, ok := w.answers[vars["survey"]+"/"+vars["answer"]]
		if !ok {
			http.Error(rw, "answer not found!", http.StatusNotFound)
			return
		}
		rw.Write([]byte(doc))
	}).Methods(http.MethodGet)
	r.HandleFunc("/surveys/{survey}/answers/{answer}", func(rw http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		w.mu.Lock()
		defer w.mu.Unlock()
		w.puts = append(w.puts, string(body))
		if w.answerPutStatus != 0 {
			rw.WriteHeader(w.answerPutStatus)
			return
		}
		vars := mux.Vars(req)
		w.answers[vars["survey"]+"/"+vars["answer"]] = string(body)
		rw.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodPut)
	return r
}

func newWireClient(t *testing.T, w *wireStore) *client.Client {
	t.Helper()
	srv := httptest.NewServer(w.handler())
	t.Cleanup(srv.Close)
	c, err := client.New(srv.URL)
	require.NoError(t, err)
	return c
}

func TestScenarioEditAndSave(t *testing.T) {
	w := &wireStore{definitions: map[string]string{"s1": `{"title":"T"}`}, answers: map[string]string{}}
	c := newWireClient(t, w)
	loc, err := locator.Resolve(map[string][]string{"survey": {"s1"}})
	require.NoError(t, err)

	editor := &fakeEditor{}
	notices := &noticeRecorder{}
	s := NewEditing(c, editor, notices, loc, nil)
	require.NoError(t, s.Start(context.Background()))
	assert.JSONEq(t, `{"title":"T"}`, editor.text)

	editor.text = `{"title":"T2"}`
	editor.clickSave()

	w.mu.Lock()
	assert.Equal(t, []string{`{"title":"T2"}`}, w.puts)
	w.mu.Unlock()
	assert.Equal(t, []string{"saved"}, notices.messages())
	assert.Equal(t, Saved, s.State())
}

func TestScenarioAnswersNotFound(t *testing.T) {
	w := &wireStore{definitions: map[string]string{"s1": `{"title":"T"}`}, answers: map[string]string{}}
	c := newWireClient(t, w)
	loc, err := locator.Resolve(map[string][]string{"survey": {"s1"}, "answer": {"a1"}})
	require.NoError(t, err)

	calls := &callLog{}
	renderer := &fakeRenderer{calls: calls}
	s := NewAnswering(c, renderer, &noticeRecorder{}, nil, loc, nil)

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, Rendering, s.State())
	assert.Empty(t, renderer.model.data)
}

func TestScenarioAnswerSaveServerError(t *testing.T) {
	w := &wireStore{
		definitions:     map[string]string{"s1": `{"title":"T"}`},
		answers:         map[string]string{},
		answerPutStatus: http.StatusInternalServerError,
	}
	c := newWireClient(t, w)
	loc := locator.Locator{SurveyID: "s1", AnswerID: "a1"}

	renderer := &fakeRenderer{calls: &callLog{}}
	notices := &noticeRecorder{}
	s := NewAnswering(c, renderer, notices, nil, loc, nil)
	require.NoError(t, s.Start(context.Background()))

	renderer.model.ApplyAnswer("q1", "yes")
	renderer.model.complete()

	assert.Equal(t, []string{"failed to save"}, notices.messages())
	assert.Equal(t, Rendering, s.State())

	w.mu.Lock()
	w.answerPutStatus = 0
	w.mu.Unlock()
	renderer.model.complete()

	assert.Equal(t, []string{"failed to save", "saved"}, notices.messages())
	assert.Equal(t, Completed, s.State())
	w.mu.Lock()
	defer w.mu.Unlock()
	assert.JSONEq(t, `{"q1":"yes"}`, w.answers["s1/a1"])
}
