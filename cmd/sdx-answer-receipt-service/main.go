package main

import (
	"fmt"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ONSdigital/sdx-survey-sync/cmd/sdx-answer-receipt-service/config"
	"github.com/ONSdigital/sdx-survey-sync/internal/api"
	"github.com/ONSdigital/sdx-survey-sync/internal/rabbit"
	"github.com/ONSdigital/sdx-survey-sync/internal/signals"
)

// answersTopic matches every answers-saved message, whatever the survey.
const answersTopic = "survey.answers.#"

var rabbitConn *amqp.Connection

func main() {
	if err := config.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start - %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(config.C["LOG_LEVEL"])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start - can't build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	api.Logger, rabbit.Logger = logger, logger

	cancelSigWatch := signals.HandleFunc(
		func(sig os.Signal) {
			logger.Info("Shutting down", zap.String("signal", sig.String()))
			if rabbitConn != nil {
				logger.Info("Closing rabbit connection")
				rabbitConn.Close()
			}
			logger.Info("Exiting")
			logger.Sync()
			os.Exit(0)
		},
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer cancelSigWatch()

	// Set up the connection to the RabbitMQ server
	rabbitConn = rabbit.ConnectWithRetry(config.C["RABBIT_URL"], time.Second*2)
	defer rabbitConn.Close()
	queueHealthy := rabbit.ConnectionWatcher(rabbitConn)

	receipts := newReceiptLog(config.Int("RECEIPT_HISTORY"), logger)

	// Start up the worker to consume from the queue
	cancel, err := rabbit.StartSimpleTopicConsumer(
		config.C["NOTIFICATION_EXCHANGE"],
		answersTopic,
		config.C["RECEIPT_QUEUE"],
		rabbitConn,
		receipts.handle,
	)
	if err != nil {
		logger.Fatal("Failed to start consumer", zap.Error(err))
	}
	defer cancel()

	addr := fmt.Sprintf(":%s", config.C["PORT"])
	logger.Info("Listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, router(receipts, queueHealthy)); err != nil {
		logger.Error("Server stopped", zap.Error(err))
	}
}

func router(receipts *receiptLog, queueHealthy func() bool) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthcheck", healthcheckHandler(queueHealthy)).Methods("GET")
	r.Handle("/receipts", receipts).Methods("GET")
	return r
}

// healthcheckHandler reports the service healthy while its rabbit
// connection is open.
func healthcheckHandler(queueHealthy func() bool) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		queue := queueHealthy()
		status := http.StatusOK
		if !queue {
			status = http.StatusServiceUnavailable
		}
		api.WriteJSON(rw, status, map[string]interface{}{
			"service":      queue,
			"dependencies": map[string]bool{"queue": queue},
		})
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
