// Package locator derives the survey, answer set and access token a session
// works against from the navigation context (a link's query parameters).
package locator

import (
	"fmt"
	"net/url"
)

// Query parameter names understood by Resolve.
const (
	ParamSurvey      = "survey"
	ParamAnswer      = "answer"
	ParamAccessToken = "access_token"
)

// ConfigurationError reports an identifier missing from, or unusable in, the
// navigation context. It is raised before any network call is attempted.
type ConfigurationError struct {
	Param string
	// Reason is set when the parameter is present but cannot be used.
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid parameter %q: %s", e.Param, e.Reason)
	}
	return fmt.Sprintf("missing required parameter %q", e.Param)
}

// Locator identifies the resources a session operates on.
type Locator struct {
	SurveyID    string
	AnswerID    string
	AccessToken string
}

// Resolve extracts the identifiers from query parameters. Values are taken
// verbatim; only the survey identifier is mandatory. An identifier of "." or
// ".." is rejected since it would be cleaned out of the request path.
func Resolve(query url.Values) (Locator, error) {
	loc := Locator{
		SurveyID:    query.Get(ParamSurvey),
		AnswerID:    query.Get(ParamAnswer),
		AccessToken: query.Get(ParamAccessToken),
	}
	if loc.SurveyID == "" {
		return Locator{}, &ConfigurationError{Param: ParamSurvey}
	}
	if isDotSegment(loc.SurveyID) {
		return Locator{}, &ConfigurationError{Param: ParamSurvey, Reason: "dot segment"}
	}
	if isDotSegment(loc.AnswerID) {
		return Locator{}, &ConfigurationError{Param: ParamAnswer, Reason: "dot segment"}
	}
	return loc, nil
}

// FromURL resolves the query of a full link, e.g.
// https://host/survey?survey=s1&answer=a1.
func FromURL(raw string) (Locator, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Locator{}, fmt.Errorf("invalid link: %w", err)
	}
	return Resolve(u.Query())
}

// RequireAnswer checks the answer identifier needed by the answering flow.
func (l Locator) RequireAnswer() error {
	if l.AnswerID == "" {
		return &ConfigurationError{Param: ParamAnswer}
	}
	return nil
}

// HasToken reports whether requests should carry an access token.
func (l Locator) HasToken() bool {
	return l.AccessToken != ""
}

func isDotSegment(id string) bool {
	return id == "." || id == ".."
}
