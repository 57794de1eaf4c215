// Package api holds helpers shared by the HTTP services.
package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Problem is an HTTP problem response as specified in RFC7807 -
// https://tools.ietf.org/html/rfc7807
type Problem struct {
	Type   string `json:"type,omitempty"`   // Link to a resource for the problem
	Title  string `json:"title,omitempty"`  // Short description of the issue
	Status int    `json:"status,omitempty"` // The http status code
	Detail string `json:"detail,omitempty"` // Further human-readable detail
}

// Logger is used to report responses that could not be written. It defaults
// to a no-op logger and is replaced by services at startup.
var Logger = zap.NewNop()

// WriteProblemResponse writes problem as an application/problem+json response
// with the problem's status code.
func WriteProblemResponse(problem Problem, rw http.ResponseWriter) {
	if problem.Status == 0 {
		problem.Status = http.StatusInternalServerError
	}
	pr, err := json.Marshal(&problem)
	if err != nil {
		Logger.Error("Error writing problem response", zap.Error(err))
		rw.WriteHeader(http.StatusInternalServerError)
		return
	}
	rw.Header().Set("Content-Type", "application/problem+json")
	rw.Header().Set("Content-Language", "en")
	rw.WriteHeader(problem.Status)
	rw.Write(pr)
}

// WriteJSON writes body as an application/json response. body is written
// verbatim when it is already encoded.
func WriteJSON(rw http.ResponseWriter, status int, body interface{}) {
	var payload []byte
	switch b := body.(type) {
	case []byte:
		payload = b
	case json.RawMessage:
		payload = b
	default:
		var err error
		if payload, err = json.Marshal(body); err != nil {
			Logger.Error("Error encoding response", zap.Error(err))
			WriteProblemResponse(Problem{Title: "Failed to encode response", Status: http.StatusInternalServerError}, rw)
			return
		}
	}
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	rw.Write(payload)
}
