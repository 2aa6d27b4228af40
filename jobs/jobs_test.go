package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finboard/finboard/internal/finance"
	jobmetrics "github.com/finboard/finboard/internal/jobs"
)

type fakeWarmer struct {
	since   time.Time
	limit   int
	refs    []finance.SnapshotRef
	warmed  []finance.SnapshotRef
	listErr error
	warmErr error
}

func (f *fakeWarmer) RecentSnapshots(ctx context.Context, since time.Time, limit int) ([]finance.SnapshotRef, error) {
	f.since = since
	f.limit = limit
	return f.refs, f.listErr
}

func (f *fakeWarmer) Warm(ctx context.Context, refs []finance.SnapshotRef) (int, error) {
	f.warmed = refs
	if f.warmErr != nil {
		return 0, f.warmErr
	}
	return len(refs), nil
}

func newWarmupJob(w *fakeWarmer) *SnapshotWarmupJob {
	job := NewSnapshotWarmupJob(w, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	job.clock = func() time.Time { return time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC) }
	return job
}

func TestSnapshotWarmupTaskPayload(t *testing.T) {
	task, err := NewSnapshotWarmupTask(90*time.Minute, 50)
	require.NoError(t, err)
	assert.Equal(t, TaskSnapshotWarmup, task.Type())

	var payload SnapshotWarmupPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, 90, payload.LookbackMinutes)
	assert.Equal(t, 50, payload.Limit)
	assert.Equal(t, 90*time.Minute, payload.Lookback())
	assert.Equal(t, 24*time.Hour, SnapshotWarmupPayload{}.Lookback())
}

func TestSnapshotWarmupLoadsRecentSnapshots(t *testing.T) {
	day := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
	warmer := &fakeWarmer{refs: []finance.SnapshotRef{
		{UserID: 1, Period: finance.Period{From: day, To: day.AddDate(0, 0, 1)}},
		{UserID: 2, Period: finance.Period{From: day, To: day.AddDate(0, 0, 1)}},
	}}
	task, err := NewSnapshotWarmupTask(time.Hour, 10)
	require.NoError(t, err)

	require.NoError(t, newWarmupJob(warmer).Handle(context.Background(), task))
	assert.Equal(t, time.Date(2025, 3, 10, 5, 0, 0, 0, time.UTC), warmer.since)
	assert.Equal(t, 10, warmer.limit)
	assert.Len(t, warmer.warmed, 2)
}

func TestSnapshotWarmupPropagatesErrors(t *testing.T) {
	task, err := NewSnapshotWarmupTask(time.Hour, 10)
	require.NoError(t, err)

	listErr := errors.New("db down")
	err = newWarmupJob(&fakeWarmer{listErr: listErr}).Handle(context.Background(), task)
	assert.ErrorIs(t, err, listErr)

	warmErr := errors.New("redis down")
	err = newWarmupJob(&fakeWarmer{warmErr: warmErr}).Handle(context.Background(), task)
	assert.ErrorIs(t, err, warmErr)
}

func TestSnapshotWarmupSkipsRetryOnBadPayload(t *testing.T) {
	err := newWarmupJob(&fakeWarmer{}).Handle(context.Background(), asynq.NewTask(TaskSnapshotWarmup, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	var job *SnapshotWarmupJob
	assert.Error(t, job.Handle(context.Background(), asynq.NewTask(TaskSnapshotWarmup, nil)))
}

func TestCacheInvalidateBumpsVersion(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := finance.NewCache(client, time.Minute)

	job := NewCacheInvalidateJob(cache, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	task, err := NewCacheInvalidateTask("manual")
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.NoError(t, job.Handle(context.Background(), task))

	version, err := cache.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
}

func TestNewWorkerRequiresHandlers(t *testing.T) {
	_, err := NewWorker(WorkerConfig{RedisOpts: asynq.RedisClientOpt{Addr: "127.0.0.1:0"}})
	assert.Error(t, err)
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return s.info, s.err
}

func TestJobsHealth(t *testing.T) {
	cases := []struct {
		name      string
		inspector QueueInspector
		code      int
		pending   int
	}{
		{name: "no inspector", inspector: nil, code: http.StatusOK},
		{name: "queue info", inspector: stubInspector{info: &asynq.QueueInfo{Queue: QueueDefault, Pending: 3}}, code: http.StatusOK, pending: 3},
		{name: "redis down", inspector: stubInspector{err: errors.New("dial")}, code: http.StatusServiceUnavailable},
		{name: "paused", inspector: stubInspector{info: &asynq.QueueInfo{Queue: QueueDefault, Paused: true}}, code: http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := chi.NewRouter()
			router.Route("/jobs", NewHandler(tc.inspector, nil).MountRoutes)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
			require.Equal(t, tc.code, rr.Code)
			if tc.code != http.StatusOK {
				return
			}
			var body queueHealth
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, QueueDefault, body.Queue)
			assert.Equal(t, tc.pending, body.Pending)
		})
	}
}

func TestWithTimeoutBoundsHandler(t *testing.T) {
	slow := asynq.HandlerFunc(func(ctx context.Context, _ *asynq.Task) error {
		<-ctx.Done()
		return ctx.Err()
	})
	err := withTimeout(slow, 10*time.Millisecond).ProcessTask(context.Background(), asynq.NewTask(TaskSnapshotWarmup, nil))
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	fast := asynq.HandlerFunc(func(ctx context.Context, _ *asynq.Task) error {
		if _, ok := ctx.Deadline(); ok {
			return errors.New("unexpected deadline")
		}
		return nil
	})
	assert.NoError(t, withTimeout(fast, 0).ProcessTask(context.Background(), asynq.NewTask(TaskSnapshotWarmup, nil)))
}

func TestLogTasksPassesErrorThrough(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	boom := errors.New("boom")
	handler := logTasks(logger)(asynq.HandlerFunc(func(context.Context, *asynq.Task) error { return boom }))

	err := handler.ProcessTask(context.Background(), asynq.NewTask(TaskCacheInvalidate, nil))
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, buf.String(), "task failed")
	assert.Contains(t, buf.String(), TaskCacheInvalidate)
}
