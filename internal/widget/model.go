package widget

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/ONSdigital/sdx-survey-sync/internal/client"
	"github.com/ONSdigital/sdx-survey-sync/internal/session"
)

// Renderer builds AnswerModels. It satisfies session.Renderer.
type Renderer struct{}

// NewModel builds a model from a definition, which must be a JSON object.
func (Renderer) NewModel(def client.Definition) (session.Model, error) {
	return NewAnswerModel(def)
}

// AnswerModel holds a respondent's answers for one survey. Only the survey
// title is read from the definition; everything else is opaque.
type AnswerModel struct {
	def   client.Definition
	title string

	mu         sync.Mutex
	data       client.AnswerSet
	onComplete func(client.AnswerSet)
	transform  session.TextTransform
}

// NewAnswerModel parses def into a model with no answers.
func NewAnswerModel(def client.Definition) (*AnswerModel, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(def, &doc); err != nil {
		return nil, fmt.Errorf("survey definition is not a JSON object: %w", err)
	}
	m := &AnswerModel{def: def, data: client.AnswerSet{}}
	if raw, ok := doc["title"]; ok {
		// Titles that are not plain strings (e.g. localised maps) are left out.
		_ = json.Unmarshal(raw, &m.title)
	}
	return m, nil
}

// ApplyAnswer sets the value of one question.
func (m *AnswerModel) ApplyAnswer(key string, value interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

// Set applies a command-line value: valid JSON is used as is, anything else
// is taken as a string.
func (m *AnswerModel) Set(key, raw string) {
	var value interface{}
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		value = raw
	}
	m.ApplyAnswer(key, value)
}

// Merge applies every answer in answers.
func (m *AnswerModel) Merge(answers client.AnswerSet) {
	for k, v := range answers {
		m.ApplyAnswer(k, v)
	}
}

// Data returns a copy of the current answers.
func (m *AnswerModel) Data() client.AnswerSet {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(client.AnswerSet, len(m.data))
	for k, v := range m.data {
		out[k] = v
	}
	return out
}

// OnComplete registers the handler run by Complete.
func (m *AnswerModel) OnComplete(handler func(client.AnswerSet)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onComplete = handler
}

// RegisterTextTransform sets the transform applied to display text.
func (m *AnswerModel) RegisterTextTransform(transform session.TextTransform) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transform = transform
}

// Complete hands the current answers to the completion handler.
func (m *AnswerModel) Complete() {
	m.mu.Lock()
	handler := m.onComplete
	m.mu.Unlock()
	if handler != nil {
		handler(m.Data())
	}
}

// Title returns the survey title passed through the text transform.
func (m *AnswerModel) Title() (string, error) {
	m.mu.Lock()
	transform := m.transform
	m.mu.Unlock()
	if transform == nil || m.title == "" {
		return m.title, nil
	}
	return transform(m.title)
}

// Render writes the title and the current answers to w.
func (m *AnswerModel) Render(w io.Writer) error {
	title, err := m.Title()
	if err != nil {
		return fmt.Errorf("render title: %w", err)
	}
	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}

	data := m.Data()
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		value, err := json.Marshal(data[k])
		if err != nil {
			return fmt.Errorf("render answer %q: %w", k, err)
		}
		if _, err := fmt.Fprintf(w, "  %s = %s\n", k, value); err != nil {
			return err
		}
	}
	return nil
}
