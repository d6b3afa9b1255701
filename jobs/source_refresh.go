package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/hibiken/asynq"

	"github.com/lumethik/tablero/internal/data"
	jobmetrics "github.com/lumethik/tablero/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// Bumper invalidates every cached record.
type Bumper interface {
	Bump(ctx context.Context) error
}

// Warmer re-fetches categories into the cache.
type Warmer interface {
	Warm(ctx context.Context, categories ...string) (int, error)
}

// Snapshotter persists a record, replacing the previous copy.
type Snapshotter interface {
	Replace(ctx context.Context, rec data.Record) error
}

// RefreshTarget is one cached source and the categories to keep warm.
type RefreshTarget struct {
	Name       string
	Cache      Warmer
	Categories []string
}

// Snapshot copies one category of Source into Store on every run.
type Snapshot struct {
	Source   data.Provider
	Store    Snapshotter
	Category string
}

// SourceRefreshJob invalidates the data cache and refills it.
type SourceRefreshJob struct {
	Versions Bumper
	Targets  []RefreshTarget
	Snapshot *Snapshot
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	Timeout  time.Duration
}

// Handle processes TaskSourceRefresh tasks.
func (j *SourceRefreshJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("source refresh: handler not configured")
	}
	var payload SourceRefreshPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("source refresh: payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	return j.Run(ctx, payload)
}

// Run performs one refresh. Warm failures of individual categories are
// returned joined after every target was attempted.
func (j *SourceRefreshJob) Run(ctx context.Context, payload SourceRefreshPayload) (resultErr error) {
	tracker := j.metrics().Track(TaskSourceRefresh)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	timeout := j.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger := j.logger()
	start := time.Now()

	if payload.Snapshot && j.Snapshot != nil {
		if err := j.snapshot(ctx); err != nil {
			logger.Error("snapshot source", slog.Any("error", err))
			return err
		}
	}

	if j.Versions != nil {
		if err := j.Versions.Bump(ctx); err != nil {
			logger.Error("bump cache version", slog.Any("error", err))
			return err
		}
	}

	var errs []error
	for _, target := range j.Targets {
		if len(payload.Targets) > 0 && !slices.Contains(payload.Targets, target.Name) {
			continue
		}
		if target.Cache == nil {
			continue
		}
		warmed, err := target.Cache.Warm(ctx, target.Categories...)
		j.metrics().AddWarmed(target.Name, warmed)
		if err != nil {
			logger.Warn("warm target", slog.String("target", target.Name), slog.Any("error", err))
			errs = append(errs, fmt.Errorf("%s: %w", target.Name, err))
		}
	}

	logger.Info("completed source refresh", slog.Duration("duration", time.Since(start)))
	return errors.Join(errs...)
}

func (j *SourceRefreshJob) snapshot(ctx context.Context) error {
	s := j.Snapshot
	if s.Source == nil || s.Store == nil {
		return nil
	}
	rec, err := s.Source.Fetch(ctx, s.Category)
	if err != nil {
		return fmt.Errorf("fetch %q: %w", s.Category, err)
	}
	if rec.Category == "" {
		rec.Category = s.Category
	}
	return s.Store.Replace(ctx, rec)
}

func (j *SourceRefreshJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskSourceRefresh))
	}
	return slog.Default().With(slog.String("job", TaskSourceRefresh))
}

func (j *SourceRefreshJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
