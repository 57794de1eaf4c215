package main

import (
	"fmt"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ONSdigital/sdx-survey-sync/cmd/sdx-survey-store-service/config"
	"github.com/ONSdigital/sdx-survey-sync/internal/api"
	"github.com/ONSdigital/sdx-survey-sync/internal/rabbit"
	"github.com/ONSdigital/sdx-survey-sync/internal/redis"
	"github.com/ONSdigital/sdx-survey-sync/internal/signals"
	"github.com/ONSdigital/sdx-survey-sync/internal/store"
)

var (
	rabbitConn *amqp.Connection
	redisPool  *redis.Pool
)

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
	api.Logger, redis.Logger, rabbit.Logger = logger, logger, logger

	// Set up the signal handler to watch for SIGTERM and SIGINT signals so we
	// can at least attempt to gracefully shut down before the PaaS/docker etc
	// running us unceremoniously kills us with a SIGKILL.
	cancelSigWatch := signals.HandleFunc(
		func(sig os.Signal) {
			logger.Info("Shutting down", zap.String("signal", sig.String()))
			if rabbitConn != nil {
				logger.Info("Closing rabbit connection")
				rabbitConn.Close()
			}
			if redisPool != nil {
				logger.Info("Closing redis pool")
				redisPool.Close()
			}
			logger.Info("Exiting")
			logger.Sync()
			os.Exit(0)
		},
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer cancelSigWatch()

	// Store (Redis)
	var repo store.Repository
	if uri := config.C["REDIS_URL"]; uri != "" {
		redisPool = redis.NewPool(uri, 8)
		redis.ConnectWithRetry(redisPool, time.Second*2)
		defer redisPool.Close()
		repo = store.NewRedisRepository(redisPool)
	} else {
		logger.Warn("No REDIS_URL supplied - surveys are kept in memory")
		repo = store.NewMemoryRepository()
	}

	// Notifications (RabbitMQ)
	var notifier AnswerNotifier
	var queueHealthy func() bool
	if uri := config.C["RABBIT_URL"]; uri != "" {
		rabbitConn = rabbit.ConnectWithRetry(uri, time.Second*2)
		defer rabbitConn.Close()
		notifier = &rabbitNotifier{conn: rabbitConn, exchange: config.C["NOTIFICATION_EXCHANGE"], logger: logger}
		queueHealthy = rabbit.ConnectionWatcher(rabbitConn)
	} else {
		logger.Warn("No RABBIT_URL supplied - answer notifications are disabled")
	}

	if config.C["JWT_SECRET"] == "" {
		logger.Warn("No JWT_SECRET supplied - access tokens are not checked")
	}

	monitor := &healthMonitor{cache: repo.Ping, queue: queueHealthy, logger: logger}
	healthCheckCancel, err := monitor.StartHealthChecking()
	if err != nil {
		logger.Fatal("Failed to start - can't set health", zap.Error(err))
	}
	defer healthCheckCancel()

	query, err := graphqlHandler(repo)
	if err != nil {
		logger.Fatal("Failed to start - can't build query schema", zap.Error(err))
	}

	s := &server{
		repo:       repo,
		auth:       newTokenValidator(config.C["JWT_SECRET"]),
		notifier:   notifier,
		properties: &propertiesProxy{upstream: config.C["PROPERTIES_URL"], client: &http.Client{Timeout: 10 * time.Second}, logger: logger},
		query:      query,
		health:     monitor,
		logger:     logger,
	}

	addr := fmt.Sprintf(":%s", config.C["PORT"])
	logger.Info("Listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, s.router()); err != nil {
		logger.Error("Server stopped", zap.Error(err))
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
