// Package store persists survey definitions and answer sets for the store
// service. Documents are stored as opaque bytes and replaced wholesale.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a survey or answer set does not exist.
var ErrNotFound = errors.New("not found")

// Repository holds survey definitions and the answer sets filed against them.
type Repository interface {
	GetSurvey(ctx context.Context, surveyID string) ([]byte, error)
	PutSurvey(ctx context.Context, surveyID string, data []byte) error
	SurveyExists(ctx context.Context, surveyID string) (bool, error)
	GetAnswers(ctx context.Context, surveyID, answerID string) ([]byte, error)
	PutAnswers(ctx context.Context, surveyID, answerID string, data []byte) error
	// ListSurveys returns every stored survey identifier in sorted order.
	ListSurveys(ctx context.Context) ([]string, error)
	// ListAnswers returns the answer set identifiers filed against a survey in
	// sorted order. An unknown survey has none.
	ListAnswers(ctx context.Context, surveyID string) ([]string, error)
	Ping(ctx context.Context) error
}
