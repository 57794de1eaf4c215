package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ONSdigital/sdx-survey-sync/internal/api"
)

// answersNotification is the body the store service publishes when an
// answer set is saved.
type answersNotification struct {
	Survey string `json:"survey"`
	Answer string `json:"answer"`
}

// receipt records one received notification.
type receipt struct {
	Survey   string    `json:"survey"`
	Answer   string    `json:"answer"`
	Received time.Time `json:"received"`
}

func decodeNotification(body []byte) (answersNotification, error) {
	var n answersNotification
	if err := json.Unmarshal(body, &n); err != nil {
		return n, fmt.Errorf("notification is not valid JSON: %w", err)
	}
	if n.Survey == "" || n.Answer == "" {
		return n, errors.New("notification missing survey or answer")
	}
	return n, nil
}

// receiptLog keeps the most recent receipts, newest last.
type receiptLog struct {
	limit  int
	logger *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	entries  []receipt
	rejected int
}

func newReceiptLog(limit int, logger *zap.Logger) *receiptLog {
	return &receiptLog{limit: limit, logger: logger, now: time.Now}
}

// handle is the consumer worker for answers-saved messages.
func (l *receiptLog) handle(body []byte) {
	n, err := decodeNotification(body)
	if err != nil {
		l.logger.Warn("Discarding notification", zap.ByteString("body", body), zap.Error(err))
		l.mu.Lock()
		l.rejected++
		l.mu.Unlock()
		return
	}

	r := receipt{Survey: n.Survey, Answer: n.Answer, Received: l.now().UTC()}
	l.mu.Lock()
	l.entries = append(l.entries, r)
	if len(l.entries) > l.limit {
		l.entries = append([]receipt(nil), l.entries[len(l.entries)-l.limit:]...)
	}
	l.mu.Unlock()

	l.logger.Info("Receipted answers", zap.String("survey_id", n.Survey), zap.String("answer_id", n.Answer))
}

func (l *receiptLog) recent() []receipt {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]receipt{}, l.entries...)
}

// ServeHTTP lists the recent receipts.
func (l *receiptLog) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	l.mu.Lock()
	rejected := l.rejected
	l.mu.Unlock()
	api.WriteJSON(rw, http.StatusOK, struct {
		Receipts []receipt `json:"receipts"`
		Rejected int       `json:"rejected"`
	}{l.recent(), rejected})
}
