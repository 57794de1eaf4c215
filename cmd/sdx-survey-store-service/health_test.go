package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func healthy(context.Context) error { return nil }

func TestGetHealth(t *testing.T) {

	// Empty health
	m := &healthMonitor{cache: healthy, logger: zap.NewNop()}
	_, err := m.getHealth()
	if err == nil {
		t.Error("Expected error when getting health with no health set")
	}

	// Health set
	m.updateHealth()
	h, err := m.getHealth()
	if err != nil {
		t.Error("Expected no error when getting health")
	}
	if h == nil {
		t.Error("Expected content returned when getting health")
	}
}

func TestUpdateHealthReportsDependencies(t *testing.T) {
	m := &healthMonitor{
		cache:  func(context.Context) error { return errors.New("connection refused") },
		queue:  func() bool { return true },
		logger: zap.NewNop(),
	}
	m.updateHealth()

	raw, err := m.getHealth()
	require.NoError(t, err)
	var h health
	require.NoError(t, json.Unmarshal(raw, &h))
	assert.Equal(t, health{Service: false, Dependencies: healthDependencies{Cache: false, Queue: true}}, h)

	m.cache = healthy
	m.queue = func() bool { return false }
	m.updateHealth()
	raw, err = m.getHealth()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &h))
	assert.False(t, h.Service)
	assert.True(t, h.Dependencies.Cache)
}

func TestHealthcheckHandler(t *testing.T) {
	m := &healthMonitor{cache: healthy, logger: zap.NewNop()}

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	m.updateHealth()
	rec = httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"service":true,"dependencies":{"cache":true,"queue":true}}`, rec.Body.String())
}

func TestStartHealthCheckingStops(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	m := &healthMonitor{cache: healthy, logger: zap.NewNop()}
	cancel, err := m.StartHealthChecking()
	require.NoError(t, err)

	h, err := m.getHealth()
	require.NoError(t, err)
	assert.NotEmpty(t, h)
	cancel()
}

func TestHealthcheckRoute(t *testing.T) {
	m := &healthMonitor{cache: healthy, logger: zap.NewNop()}
	m.updateHealth()
	s := &server{
		auth:       newTokenValidator("s3cret"),
		properties: &propertiesProxy{logger: zap.NewNop()},
		health:     m,
		logger:     zap.NewNop(),
	}

	rec := httptest.NewRecorder()
	s.router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
