package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	apperrors "github.com/HFocko/Dashboard/internal/pkg/errors"
)

// TaskTypeDatasetWarm fetches and parses a dataset into the source cache
const TaskTypeDatasetWarm = "dataset:warm"

// WarmPayload is the JSON payload of a dataset:warm task
type WarmPayload struct {
	DatasetID string `json:"dataset_id"`
}

// NewWarmTask builds a dataset:warm task
func NewWarmTask(datasetID string) (*asynq.Task, error) {
	datasetID = strings.TrimSpace(datasetID)
	if datasetID == "" {
		return nil, apperrors.BadRequest("dataset id is required")
	}

	payload, err := json.Marshal(WarmPayload{DatasetID: datasetID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal warm payload: %w", err)
	}
	return asynq.NewTask(TaskTypeDatasetWarm, payload), nil
}

// WarmTaskOptions returns the enqueue options for warm-up tasks
func WarmTaskOptions(maxRetries int) []asynq.Option {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return []asynq.Option{
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(maxRetries),
		asynq.Timeout(2 * time.Minute),
	}
}

// DatasetWarmer warms one dataset by identifier
type DatasetWarmer interface {
	WarmDataset(ctx context.Context, datasetID string) error
}

// WarmHandler processes dataset:warm tasks
type WarmHandler struct {
	warmer DatasetWarmer
	logger *slog.Logger
}

// NewWarmHandler creates a handler backed by warmer
func NewWarmHandler(warmer DatasetWarmer, logger *slog.Logger) *WarmHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WarmHandler{warmer: warmer, logger: logger}
}

// ProcessTask implements asynq.Handler. Malformed payloads and unknown
// datasets are not retried.
func (h *WarmHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload WarmPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid warm payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.DatasetID == "" {
		return fmt.Errorf("warm payload missing dataset_id: %w", asynq.SkipRetry)
	}

	start := time.Now()
	if err := h.warmer.WarmDataset(ctx, payload.DatasetID); err != nil {
		if apperrors.CodeOf(err) == apperrors.ErrCodeUnknownDataset {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	h.logger.Info("dataset warmed",
		slog.String("dataset", payload.DatasetID),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}
