package jobs

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSnapshotWarmup reloads recently written snapshots into the cache.
	TaskSnapshotWarmup = "finance:snapshots_warmup"
	// TaskCacheInvalidate bumps the dashboard cache version.
	TaskCacheInvalidate = "finance:cache_invalidate"
)

// SnapshotWarmupPayload selects which snapshots to warm.
type SnapshotWarmupPayload struct {
	LookbackMinutes int `json:"lookback_minutes"`
	Limit           int `json:"limit"`
}

// Lookback returns the payload window, defaulting to a day.
func (p SnapshotWarmupPayload) Lookback() time.Duration {
	if p.LookbackMinutes <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(p.LookbackMinutes) * time.Minute
}

// NewSnapshotWarmupTask constructs an Asynq task.
func NewSnapshotWarmupTask(lookback time.Duration, limit int) (*asynq.Task, error) {
	data, err := json.Marshal(SnapshotWarmupPayload{
		LookbackMinutes: int(lookback / time.Minute),
		Limit:           limit,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSnapshotWarmup, data), nil
}

// CacheInvalidatePayload records why the cache is being dropped.
type CacheInvalidatePayload struct {
	Reason string `json:"reason"`
}

// NewCacheInvalidateTask constructs an Asynq task.
func NewCacheInvalidateTask(reason string) (*asynq.Task, error) {
	data, err := json.Marshal(CacheInvalidatePayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCacheInvalidate, data), nil
}

func sprint(args ...interface{}) string {
	return strings.TrimSpace(fmt.Sprint(args...))
}
