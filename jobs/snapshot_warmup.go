package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/finboard/finboard/internal/finance"
	jobmetrics "github.com/finboard/finboard/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// SnapshotWarmer is the part of finance.Service the warmup job needs.
type SnapshotWarmer interface {
	RecentSnapshots(ctx context.Context, since time.Time, limit int) ([]finance.SnapshotRef, error)
	Warm(ctx context.Context, refs []finance.SnapshotRef) (int, error)
}

// SnapshotWarmupJob pre-populates the dashboard cache with snapshots that
// were written recently.
type SnapshotWarmupJob struct {
	Finance SnapshotWarmer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewSnapshotWarmupJob wires dependencies for the warmup handler.
func NewSnapshotWarmupJob(svc SnapshotWarmer, logger *slog.Logger, metrics *jobmetrics.Metrics) *SnapshotWarmupJob {
	return &SnapshotWarmupJob{
		Finance: svc,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes snapshot warmup tasks.
func (j *SnapshotWarmupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Finance == nil {
		return errors.New("snapshot warmup: handler not configured")
	}
	var payload SnapshotWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskSnapshotWarmup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	start := j.now()
	since := start.Add(-payload.Lookback())
	logger := j.logger().With(slog.Time("since", since), slog.Int("limit", payload.Limit))
	logger.Info("starting snapshot warmup")

	refs, err := j.Finance.RecentSnapshots(ctx, since, payload.Limit)
	if err != nil {
		logger.Error("load recent snapshots", slog.Any("error", err))
		return err
	}

	warmCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	warmed, err := j.Finance.Warm(warmCtx, refs)
	j.metrics().AddWarmed(TaskSnapshotWarmup, warmed)
	if err != nil {
		logger.Error("warm snapshots", slog.Int("warmed", warmed), slog.Any("error", err))
		return err
	}

	logger.Info("completed snapshot warmup",
		slog.Int("snapshots", len(refs)),
		slog.Int("warmed", warmed),
		slog.Duration("duration", j.now().Sub(start)))
	return nil
}

func (j *SnapshotWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskSnapshotWarmup))
	}
	return slog.Default().With(slog.String("job", TaskSnapshotWarmup))
}

func (j *SnapshotWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *SnapshotWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
