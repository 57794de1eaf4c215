package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ONSdigital/sdx-survey-sync/internal/api"
)

type health struct {
	Service      bool               `json:"service"`
	Dependencies healthDependencies `json:"dependencies"`
}

type healthDependencies struct {
	Cache bool `json:"cache"` // Redis store
	Queue bool `json:"queue"` // Notification exchange
}

const (
	healthUpdateInterval = time.Second * 5
	healthCheckTimeout   = time.Second * 2
)

// healthMonitor keeps the current health of the service, refreshed at
// intervals by a background goroutine.
type healthMonitor struct {
	cache  func(context.Context) error
	queue  func() bool // nil when notifications are disabled
	logger *zap.Logger

	mu      sync.RWMutex
	current *health
}

// ServeHTTP responds to a healthcheck request with the current health of the
// service.
func (m *healthMonitor) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	h, err := m.getHealth()
	if err != nil {
		m.logger.Error("Error attempting to fetch health", zap.Error(err))
		api.WriteProblemResponse(api.Problem{
			Title:  "Problem when attempting to construct health",
			Status: http.StatusInternalServerError,
		}, rw)
		return
	}
	api.WriteJSON(rw, http.StatusOK, h)
}

// StartHealthChecking starts up a goroutine that monitors service health at
// intervals. Returns a cancel function to stop the goroutine.
func (m *healthMonitor) StartHealthChecking() (func(), error) {
	m.updateHealth()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	m.logger.Info("Starting healthcheck watcher")

	go func() {
		defer close(done)
		ticker := time.NewTicker(healthUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				m.logger.Info("Canceling healthchecking")
				return
			case <-ticker.C:
				m.updateHealth()
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}, nil
}

func (m *healthMonitor) updateHealth() {
	// Start optimistic
	cacheStatus := true
	queueStatus := true

	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()
	if err := m.cache(ctx); err != nil {
		m.logger.Warn("Cache unhealthy", zap.Error(err))
		cacheStatus = false
	}
	if m.queue != nil {
		queueStatus = m.queue()
	}

	m.mu.Lock()
	m.current = &health{
		Service: cacheStatus && queueStatus,
		Dependencies: healthDependencies{
			Cache: cacheStatus,
			Queue: queueStatus,
		},
	}
	m.mu.Unlock()
}

func (m *healthMonitor) getHealth() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil, errors.New("can't get health - no current health set")
	}
	return json.Marshal(m.current)
}
