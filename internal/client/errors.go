package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Resource names the kind of remote document a request addressed.
type Resource string

// Resource kinds.
const (
	ResourceDefinition Resource = "definition"
	ResourceAnswers    Resource = "answers"
	ResourceProperties Resource = "properties"
)

// StatusError is the cause of a failure when the store answered with a
// non-2xx status.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	if body := strings.TrimSpace(e.Body); body != "" {
		return fmt.Sprintf("bad response from store: %s: %s", e.Status, body)
	}
	return fmt.Sprintf("bad response from store: %s", e.Status)
}

// FetchError reports a failed read.
type FetchError struct {
	Resource   Resource
	SurveyID   string
	AnswerID   string
	StatusCode int // zero on transport failure
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s %s: %v", e.Resource, target(e.SurveyID, e.AnswerID), e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// SaveError reports a failed write.
type SaveError struct {
	Resource   Resource
	SurveyID   string
	AnswerID   string
	StatusCode int // zero on transport or encoding failure
	Err        error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("save %s %s: %v", e.Resource, target(e.SurveyID, e.AnswerID), e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a read the store answered with 404.
func IsNotFound(err error) bool {
	var fetchErr *FetchError
	return errors.As(err, &fetchErr) && fetchErr.StatusCode == http.StatusNotFound
}

func target(surveyID, answerID string) string {
	if answerID == "" {
		return fmt.Sprintf("survey=%q", surveyID)
	}
	return fmt.Sprintf("survey=%q answer=%q", surveyID, answerID)
}
