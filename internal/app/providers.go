package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/lumethik/tablero/internal/dashboard"
	"github.com/lumethik/tablero/internal/data"
	"github.com/lumethik/tablero/internal/data/pgsource"
	"github.com/lumethik/tablero/internal/data/sheet"
	"github.com/lumethik/tablero/internal/platform/cache"
	"github.com/lumethik/tablero/internal/platform/db"
	"github.com/lumethik/tablero/jobs"
)

// Providers holds the data sources built from configuration together with
// the connections they own.
type Providers struct {
	Directions data.Provider
	Indicators data.Provider
	Sheet      data.Provider
	Talent     data.Provider
	Finance    data.Provider

	Redis *redis.Client
	Pool  *pgxpool.Pool

	caches   []*data.Cached
	targets  []jobs.RefreshTarget
	snapshot *jobs.Snapshot
}

// BuildProviders connects to the configured backends and wraps remote
// sources in the Redis cache.
func BuildProviders(ctx context.Context, cfg *Config, logger *slog.Logger) (*Providers, error) {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Providers{
		Indicators: data.NewSynthetic(cfg.IndicatorSeed),
		Talent:     data.NewTalent(cfg.SectionSeed),
		Finance:    data.NewFinance(cfg.SectionSeed),
	}

	if cfg.RedisAddr != "" && !InTestMode() {
		client, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr})
		if err != nil {
			return nil, err
		}
		p.Redis = client
	}

	var store *pgsource.Source
	if cfg.PGDSN != "" && !InTestMode() {
		pool, err := db.New(ctx, db.Options{DSN: cfg.PGDSN})
		if err != nil {
			p.Close()
			return nil, err
		}
		p.Pool = pool
		store = pgsource.New(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			p.Close()
			return nil, fmt.Errorf("app: ensure schema: %w", err)
		}
	}

	switch cfg.DirectionSource {
	case SourcePostgres:
		if store == nil {
			p.Close()
			return nil, errors.New("app: postgres direction source without PG_DSN")
		}
		p.Directions = p.cached("directions", store, directionKeys(), cfg)
	default:
		p.Directions = data.NewFixed()
	}

	if cfg.SheetConfigured() {
		var src data.Provider
		if cfg.SheetFile != "" {
			src = sheet.NewWorkbook(cfg.SheetFile, cfg.SheetWorksheet)
		} else {
			src = sheet.NewPublished(cfg.SheetID, cfg.SheetWorksheet, strings.ToLower(cfg.SheetFormat))
		}
		p.Sheet = p.cached("sheet", src, []string{cfg.SheetWorksheet}, cfg)
		if store != nil {
			p.snapshot = &jobs.Snapshot{Source: src, Store: store, Category: cfg.SheetWorksheet}
		}
	}

	logger.Info("data providers ready",
		slog.String("directions", cfg.DirectionSource),
		slog.Bool("sheet", p.Sheet != nil),
		slog.Bool("redis", p.Redis != nil),
		slog.Bool("postgres", p.Pool != nil),
	)
	return p, nil
}

// cached wraps remote sources. Local ones are returned as they are.
func (p *Providers) cached(name string, src data.Provider, categories []string, cfg *Config) data.Provider {
	if !src.Remote() {
		return src
	}
	c := data.NewCached(src, p.Redis, "tablero:"+name, cfg.CacheTTL)
	p.caches = append(p.caches, c)
	p.targets = append(p.targets, jobs.RefreshTarget{Name: name, Cache: c, Categories: categories})
	return c
}

// RefreshJob builds the source refresh job over the cached providers.
func (p *Providers) RefreshJob(logger *slog.Logger, cfg *Config) *jobs.SourceRefreshJob {
	job := &jobs.SourceRefreshJob{
		Targets:  p.targets,
		Snapshot: p.snapshot,
		Logger:   logger,
	}
	if len(p.caches) > 0 {
		job.Versions = p.caches[0]
	}
	if cfg != nil && cfg.AppRequestTimeout > 0 {
		job.Timeout = 2 * cfg.AppRequestTimeout
	}
	return job
}

// ListenForInvalidation follows version bumps published by the worker until
// ctx is done. The version key is shared, so one subscription serves every
// cache.
func (p *Providers) ListenForInvalidation(ctx context.Context, logger *slog.Logger) {
	if p.Redis == nil || len(p.caches) == 0 || InTestMode() {
		return
	}
	if err := p.caches[0].ListenForInvalidation(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("cache invalidation listener stopped", slog.Any("error", err))
	}
}

// Close releases the owned connections.
func (p *Providers) Close() {
	if p.Pool != nil {
		p.Pool.Close()
	}
	if p.Redis != nil {
		_ = p.Redis.Close()
	}
}

func directionKeys() []string {
	keys := make([]string, len(dashboard.Directions))
	for i, d := range dashboard.Directions {
		keys[i] = d.Key
	}
	return keys
}
