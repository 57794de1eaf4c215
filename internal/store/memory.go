package store

import (
	"context"
	"sort"
	"sync"
)

type answerKey struct {
	survey string
	answer string
}

// MemoryRepository keeps documents in process memory. It backs tests and
// services started without redis.
type MemoryRepository struct {
	mu      sync.RWMutex
	surveys map[string][]byte
	answers map[answerKey][]byte
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		surveys: make(map[string][]byte),
		answers: make(map[answerKey][]byte),
	}
}

// GetSurvey implements Repository.
func (m *MemoryRepository) GetSurvey(_ context.Context, surveyID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.surveys[surveyID]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(data), nil
}

// PutSurvey implements Repository.
func (m *MemoryRepository) PutSurvey(_ context.Context, surveyID string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.surveys[surveyID] = clone(data)
	return nil
}

// SurveyExists implements Repository.
func (m *MemoryRepository) SurveyExists(_ context.Context, surveyID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.surveys[surveyID]
	return ok, nil
}

// GetAnswers implements Repository.
func (m *MemoryRepository) GetAnswers(_ context.Context, surveyID, answerID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.answers[answerKey{surveyID, answerID}]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(data), nil
}

// PutAnswers implements Repository.
func (m *MemoryRepository) PutAnswers(_ context.Context, surveyID, answerID string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answers[answerKey{surveyID, answerID}] = clone(data)
	return nil
}

// ListSurveys implements Repository.
func (m *MemoryRepository) ListSurveys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.surveys))
	for id := range m.surveys {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// ListAnswers implements Repository.
func (m *MemoryRepository) ListAnswers(ctx context.Context, surveyID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := []string{}
	for k := range m.answers {
		if k.survey == surveyID {
			ids = append(ids, k.answer)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Ping implements Repository.
func (m *MemoryRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
