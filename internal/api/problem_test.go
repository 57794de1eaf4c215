package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteProblemResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteProblemResponse(Problem{Title: "Survey not found", Status: http.StatusNotFound}, rec)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "en", rec.Header().Get("Content-Language"))

	var p Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, Problem{Title: "Survey not found", Status: http.StatusNotFound}, p)
}

func TestWriteProblemResponseDefaultsStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteProblemResponse(Problem{Title: "Oops"}, rec)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusOK, []byte(`{"title":"T"}`))
	assert.Equal(t, `{"title":"T"}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	WriteJSON(rec, http.StatusOK, map[string]bool{"service": true})
	assert.JSONEq(t, `{"service":true}`, rec.Body.String())
}

func TestWriteJSONEncodeFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusOK, map[string]interface{}{"bad": make(chan int)})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
