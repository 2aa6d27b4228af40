package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/finboard/finboard/internal/jobs"
)

// Invalidator bumps the dashboard cache version.
type Invalidator interface {
	Invalidate(ctx context.Context) (int64, error)
}

// CacheInvalidateJob drops every cached dashboard entry, typically after the
// snapshot tables were rebuilt outside the application.
type CacheInvalidateJob struct {
	Cache   Invalidator
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewCacheInvalidateJob wires dependencies for the invalidation handler.
func NewCacheInvalidateJob(cache Invalidator, logger *slog.Logger, metrics *jobmetrics.Metrics) *CacheInvalidateJob {
	return &CacheInvalidateJob{Cache: cache, Logger: logger, Metrics: metrics}
}

// Handle processes cache invalidation tasks.
func (j *CacheInvalidateJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Cache == nil {
		return errors.New("cache invalidate: handler not configured")
	}
	var payload CacheInvalidatePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	metrics := j.Metrics
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	tracker := metrics.Track(TaskCacheInvalidate)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	version, err := j.Cache.Invalidate(ctx)
	if err != nil {
		logger.Error("invalidate dashboard cache", slog.String("reason", payload.Reason), slog.Any("error", err))
		return err
	}
	logger.Info("dashboard cache invalidated", slog.String("reason", payload.Reason), slog.Int64("version", version))
	return nil
}
