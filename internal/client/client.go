// Package client talks to a survey store over HTTP. It reads and replaces
// survey definitions and answer sets as whole JSON documents; there is no
// partial update, no conditional write and no retry.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ContentType is declared on every write.
const ContentType = "application/json; charset=utf-8"

// RequestIDHeader carries a per-request identifier for log correlation.
const RequestIDHeader = "X-Request-ID"

const accessTokenParam = "access_token"

// Definition is an opaque survey definition. The raw bytes are kept so that
// saving an unmodified fetch sends back exactly what was received.
type Definition = json.RawMessage

// AnswerSet maps question keys to response values.
type AnswerSet map[string]interface{}

// Property describes an extra question property offered to the editor.
type Property struct {
	Key     string        `json:"key"`
	Type    string        `json:"type"`
	Choices []interface{} `json:"choices,omitempty"`
}

// Client is bound to one store and, optionally, one access token. All
// requests made through a Client carry the same token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	timeout    time.Duration
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithAccessToken attaches token as the access_token query parameter of
// every request. An empty token leaves requests untouched.
func WithAccessToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds each request. Zero, the default, means no bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a client for the store rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid store url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid store url %q: scheme and host required", baseURL)
	}
	u.RawQuery = ""
	u.Fragment = ""

	c := &Client{
		baseURL:    strings.TrimRight(u.String(), "/"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c, nil
}

// FetchDefinition reads the definition of surveyID.
func (c *Client) FetchDefinition(ctx context.Context, surveyID string) (Definition, error) {
	body, status, err := c.do(ctx, http.MethodGet, definitionPath(surveyID), nil, nil)
	if err != nil {
		return nil, &FetchError{Resource: ResourceDefinition, SurveyID: surveyID, StatusCode: status, Err: err}
	}
	if !json.Valid(body) {
		return nil, &FetchError{Resource: ResourceDefinition, SurveyID: surveyID, StatusCode: status, Err: errors.New("response is not valid JSON")}
	}
	return Definition(body), nil
}

// SaveDefinition replaces the stored definition of surveyID with def.
func (c *Client) SaveDefinition(ctx context.Context, surveyID string, def Definition) error {
	if !json.Valid(def) {
		return &SaveError{Resource: ResourceDefinition, SurveyID: surveyID, Err: errors.New("definition is not valid JSON")}
	}
	if _, status, err := c.do(ctx, http.MethodPut, definitionPath(surveyID), nil, def); err != nil {
		return &SaveError{Resource: ResourceDefinition, SurveyID: surveyID, StatusCode: status, Err: err}
	}
	return nil
}

// FetchAnswers reads the answer set answerID of surveyID.
func (c *Client) FetchAnswers(ctx context.Context, surveyID, answerID string) (AnswerSet, error) {
	body, status, err := c.do(ctx, http.MethodGet, answersPath(surveyID, answerID), nil, nil)
	if err != nil {
		return nil, &FetchError{Resource: ResourceAnswers, SurveyID: surveyID, AnswerID: answerID, StatusCode: status, Err: err}
	}
	answers := AnswerSet{}
	if err := json.Unmarshal(body, &answers); err != nil {
		return nil, &FetchError{Resource: ResourceAnswers, SurveyID: surveyID, AnswerID: answerID, StatusCode: status, Err: fmt.Errorf("decode answers: %w", err)}
	}
	if answers == nil {
		answers = AnswerSet{}
	}
	return answers, nil
}

// SaveAnswers replaces the stored answer set answerID of surveyID.
func (c *Client) SaveAnswers(ctx context.Context, surveyID, answerID string, answers AnswerSet) error {
	if answers == nil {
		answers = AnswerSet{}
	}
	payload, err := json.Marshal(answers)
	if err != nil {
		return &SaveError{Resource: ResourceAnswers, SurveyID: surveyID, AnswerID: answerID, Err: fmt.Errorf("encode answers: %w", err)}
	}
	if _, status, err := c.do(ctx, http.MethodPut, answersPath(surveyID, answerID), nil, payload); err != nil {
		return &SaveError{Resource: ResourceAnswers, SurveyID: surveyID, AnswerID: answerID, StatusCode: status, Err: err}
	}
	return nil
}

// FetchProperties reads the extra question properties available for surveyID.
func (c *Client) FetchProperties(ctx context.Context, surveyID string) ([]Property, error) {
	query := url.Values{"survey": {surveyID}}
	body, status, err := c.do(ctx, http.MethodGet, "/properties.json", query, nil)
	if err != nil {
		return nil, &FetchError{Resource: ResourceProperties, SurveyID: surveyID, StatusCode: status, Err: err}
	}
	var props []Property
	if err := json.Unmarshal(body, &props); err != nil {
		return nil, &FetchError{Resource: ResourceProperties, SurveyID: surveyID, StatusCode: status, Err: fmt.Errorf("decode properties: %w", err)}
	}
	return props, nil
}

// definitionPath escapes the identifier as one path segment. PathEscape keeps
// "." and "..", which the router would clean away; locator.Resolve rejects
// such identifiers.
func definitionPath(surveyID string) string {
	return "/surveys/" + url.PathEscape(surveyID)
}

func answersPath(surveyID, answerID string) string {
	return definitionPath(surveyID) + "/answers/" + url.PathEscape(answerID)
}

// do performs one request and returns the body of a 2xx response. The status
// code is returned whenever a response was received.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte) ([]byte, int, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if query == nil {
		query = url.Values{}
	}
	if c.token != "" {
		query.Set(accessTokenParam, c.token)
	}
	target := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		target += "?" + encoded
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, 0, err
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", ContentType)
	}

	log := c.logger.With(
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
	)
	log.Debug("Sending request to store")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug("Request to store failed", zap.Error(err))
		return nil, 0, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Debug("Bad response from store", zap.Int("status", resp.StatusCode))
		return nil, resp.StatusCode, &StatusError{Code: resp.StatusCode, Status: resp.Status, Body: string(payload)}
	}
	log.Debug("Store responded", zap.Int("status", resp.StatusCode))
	return payload, resp.StatusCode, nil
}
