package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/HFocko/Dashboard/internal/pkg/config"
	apperrors "github.com/HFocko/Dashboard/internal/pkg/errors"
)

// Queue names, highest priority first
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
)

// AsynqClient wraps the Asynq client for enqueuing warm-up tasks
type AsynqClient struct {
	client     *asynq.Client
	maxRetries int
	logger     *slog.Logger
}

// RedisOpt builds the Asynq connection options from config
func RedisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:         cfg.GetRedisURL(),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// NewAsynqClient creates a new Asynq client
func NewAsynqClient(cfg *config.Config, logger *slog.Logger) *AsynqClient {
	if logger == nil {
		logger = slog.Default()
	}

	client := asynq.NewClient(RedisOpt(cfg))

	logger.Info("asynq client created",
		slog.String("redis_addr", cfg.GetRedisURL()),
	)

	return &AsynqClient{
		client:     client,
		maxRetries: cfg.WorkerMaxRetries,
		logger:     logger,
	}
}

// Close closes the Asynq client
func (a *AsynqClient) Close() error {
	a.logger.Info("closing asynq client")
	return a.client.Close()
}

// EnqueueContext adds a task to the queue
func (a *AsynqClient) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	info, err := a.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		a.logger.Error("failed to enqueue task",
			slog.String("task_type", task.Type()),
			slog.Any("error", err),
		)
		return nil, apperrors.QueueError(err)
	}

	a.logger.Debug("task enqueued",
		slog.String("task_id", info.ID),
		slog.String("task_type", task.Type()),
		slog.String("queue", info.Queue),
	)

	return info, nil
}

// EnqueueWarm schedules a warm-up of one dataset's source document
func (a *AsynqClient) EnqueueWarm(ctx context.Context, datasetID string) (*asynq.TaskInfo, error) {
	task, err := NewWarmTask(datasetID)
	if err != nil {
		return nil, err
	}
	return a.EnqueueContext(ctx, task, WarmTaskOptions(a.maxRetries)...)
}

// AsynqServer wraps the Asynq server for processing tasks
type AsynqServer struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *slog.Logger
}

// NewAsynqServer creates a new Asynq server
func NewAsynqServer(cfg *config.Config, logger *slog.Logger) *AsynqServer {
	if logger == nil {
		logger = slog.Default()
	}

	server := asynq.NewServer(
		RedisOpt(cfg),
		asynq.Config{
			Concurrency: cfg.WorkerConcurrency,
			Queues: map[string]int{
				QueueCritical: 6,
				QueueDefault:  1,
			},

			// Exponential backoff: 2s, 4s, 8s, ...
			RetryDelayFunc: func(n int, e error, t *asynq.Task) time.Duration {
				return time.Duration(1<<uint(n)) * time.Second
			},

			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task processing failed",
					slog.String("task_type", task.Type()),
					slog.String("payload", string(task.Payload())),
					slog.Any("error", err),
				)
			}),

			HealthCheckFunc: func(e error) {
				if e != nil {
					logger.Error("health check failed", slog.Any("error", e))
				}
			},
			HealthCheckInterval: 20 * time.Second,

			ShutdownTimeout: 25 * time.Second,
		},
	)

	logger.Info("asynq server created",
		slog.String("redis_addr", cfg.GetRedisURL()),
		slog.Int("concurrency", cfg.WorkerConcurrency),
	)

	return &AsynqServer{
		server: server,
		mux:    asynq.NewServeMux(),
		logger: logger,
	}
}

// Handle registers a handler for a task type
func (a *AsynqServer) Handle(pattern string, handler asynq.Handler) {
	a.mux.Handle(pattern, handler)
	a.logger.Debug("handler registered", slog.String("pattern", pattern))
}

// Use adds a middleware to the mux
func (a *AsynqServer) Use(middleware func(asynq.Handler) asynq.Handler) {
	a.mux.Use(middleware)
}

// Start runs the server until it receives a termination signal
func (a *AsynqServer) Start() error {
	a.logger.Info("starting asynq server")
	if err := a.server.Run(a.mux); err != nil {
		return fmt.Errorf("failed to run asynq server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (a *AsynqServer) Shutdown() {
	a.logger.Info("shutting down asynq server")
	a.server.Shutdown()
}
