package jobs

import (
	"context"
	"encoding/json"
	"errors"
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

	"github.com/lumethik/tablero/internal/data"
	jobmetrics "github.com/lumethik/tablero/internal/jobs"
)

type recordingStore struct {
	saved []data.Record
	err   error
}

func (s *recordingStore) Replace(_ context.Context, rec data.Record) error {
	s.saved = append(s.saved, rec)
	return s.err
}

type fakeWarmer struct {
	calls [][]string
	err   error
}

func (f *fakeWarmer) Warm(_ context.Context, categories ...string) (int, error) {
	f.calls = append(f.calls, categories)
	if f.err != nil {
		return 0, f.err
	}
	return len(categories), nil
}

func newJob(t *testing.T) (*SourceRefreshJob, *data.Cached, *recordingStore, *fakeWarmer) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cached := data.NewCached(data.NewFixed(), client, "test", time.Minute)
	store := &recordingStore{}
	sheet := &fakeWarmer{}
	job := &SourceRefreshJob{
		Versions: cached,
		Targets: []RefreshTarget{
			{Name: "directions", Cache: cached, Categories: []string{"juridica", "salud"}},
			{Name: "sheet", Cache: sheet, Categories: []string{""}},
		},
		Snapshot: &Snapshot{Source: data.NewFixed(), Store: store, Category: "administrativa"},
		Metrics:  jobmetrics.NewMetrics(prometheus.NewRegistry()),
	}
	return job, cached, store, sheet
}

func TestSourceRefreshBumpsAndWarms(t *testing.T) {
	job, cached, store, sheet := newJob(t)
	ctx := context.Background()
	before, err := cached.Version(ctx)
	require.NoError(t, err)

	require.NoError(t, job.Run(ctx, SourceRefreshPayload{}))

	after, err := cached.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, before+1, after)
	assert.Empty(t, store.saved)
	assert.Len(t, sheet.calls, 1)
}

func TestSourceRefreshSnapshot(t *testing.T) {
	job, _, store, _ := newJob(t)
	require.NoError(t, job.Run(context.Background(), SourceRefreshPayload{Snapshot: true}))
	require.Len(t, store.saved, 1)
	assert.Equal(t, "administrativa", store.saved[0].Category)
	assert.Len(t, store.saved[0].Rows, 5)
}

func TestSourceRefreshTargetFilterAndErrors(t *testing.T) {
	job, _, _, sheet := newJob(t)
	sheet.err = data.ErrDataUnavailable

	require.NoError(t, job.Run(context.Background(), SourceRefreshPayload{Targets: []string{"directions"}}))
	assert.Empty(t, sheet.calls)

	err := job.Run(context.Background(), SourceRefreshPayload{Targets: []string{"sheet"}})
	assert.ErrorIs(t, err, data.ErrDataUnavailable)
}

func TestSourceRefreshHandleRejectsBadPayload(t *testing.T) {
	job, _, _, _ := newJob(t)
	err := job.Handle(context.Background(), asynq.NewTask(TaskSourceRefresh, []byte("{")))
	assert.True(t, errors.Is(err, asynq.SkipRetry))

	task, err := NewSourceRefreshTask(SourceRefreshPayload{Snapshot: true})
	require.NoError(t, err)
	assert.Equal(t, TaskSourceRefresh, task.Type())
	require.NoError(t, job.Handle(context.Background(), task))
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) { return s.info, s.err }

func TestHealthEndpoint(t *testing.T) {
	cases := []struct {
		name      string
		inspector QueueInspector
		status    int
		pending   int
	}{
		{name: "no inspector", status: http.StatusOK},
		{name: "queue info", inspector: stubInspector{info: &asynq.QueueInfo{Queue: QueueDefault, Pending: 4}}, status: http.StatusOK, pending: 4},
		{name: "redis down", inspector: stubInspector{err: errors.New("dial")}, status: http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := chi.NewRouter()
			r.Route("/jobs", NewHandler(tc.inspector, nil).MountRoutes)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				var body queueHealth
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tc.pending, body.Pending)
			}
		})
	}
}
