package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	cacheVersionKey = "tablero:data:version"
	bumpChannel     = "tablero.data.bump"

	// sharedFetchTimeout bounds an upstream call that no single caller owns.
	sharedFetchTimeout = 30 * time.Second
)

// Cached wraps a provider with a versioned Redis cache. Concurrent fetches
// of the same category share one upstream call. A nil client disables the
// Redis layer but keeps the de-duplication.
type Cached struct {
	inner  Provider
	client *redis.Client
	ttl    time.Duration
	prefix string
	group  singleflight.Group

	fetchTimeout time.Duration
}

// NewCached instantiates the cache helper.
func NewCached(inner Provider, client *redis.Client, prefix string, ttl time.Duration) *Cached {
	if prefix == "" {
		prefix = "tablero:data"
	}
	return &Cached{inner: inner, client: client, ttl: ttl, prefix: prefix, fetchTimeout: sharedFetchTimeout}
}

// Remote mirrors the wrapped provider.
func (c *Cached) Remote() bool {
	return c.inner.Remote()
}

// Fetch returns the cached record or loads it through the wrapped provider.
// Redis failures degrade to a direct fetch. The upstream call is shared by
// every concurrent caller and runs detached from their contexts; each caller
// only stops waiting when its own context ends.
func (c *Cached) Fetch(ctx context.Context, category string) (Record, error) {
	key, err := c.key(ctx, category)
	if err != nil {
		key = c.prefix + ":" + category + ":0"
	}
	if rec, ok := c.lookup(ctx, key); ok {
		return rec, nil
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()
		rec, err := c.inner.Fetch(shared, category)
		if err != nil {
			return Record{}, err
		}
		c.store(shared, key, rec)
		return rec, nil
	})
	select {
	case <-ctx.Done():
		return Record{}, fmt.Errorf("%w: %v", ErrDataUnavailable, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return Record{}, res.Err
		}
		return res.Val.(Record), nil
	}
}

// Version returns the current cache version, initialising when missing.
func (c *Cached) Version(ctx context.Context) (int64, error) {
	if c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.SetNX(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// Bump invalidates every cached record by moving to a new version and
// announcing it to other processes.
func (c *Cached) Bump(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	ver, err := c.client.Incr(ctx, cacheVersionKey).Result()
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, bumpChannel, strconv.FormatInt(ver, 10)).Err()
}

// Warm refetches categories under the current version, at most four at a
// time, and reports how many succeeded.
func (c *Cached) Warm(ctx context.Context, categories ...string) (int, error) {
	var (
		mu     sync.Mutex
		errs   []error
		warmed int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, category := range categories {
		category := category
		g.Go(func() error {
			_, err := c.Fetch(gctx, category)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", category, err))
				return nil
			}
			warmed++
			return nil
		})
	}
	_ = g.Wait()
	return warmed, errors.Join(errs...)
}

// ListenForInvalidation follows version bumps published by other processes
// until ctx is cancelled.
func (c *Cached) ListenForInvalidation(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	pubsub := c.client.Subscribe(ctx, bumpChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if ver, err := strconv.ParseInt(msg.Payload, 10, 64); err == nil {
					_ = c.client.Set(ctx, cacheVersionKey, ver, 0).Err()
				}
			}
		}
	}()
	return nil
}

func (c *Cached) key(ctx context.Context, category string) (string, error) {
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return strings.Join([]string{c.prefix, category, strconv.FormatInt(ver, 10)}, ":"), nil
}

func (c *Cached) lookup(ctx context.Context, key string) (Record, bool) {
	if c.client == nil {
		return Record{}, false
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return Record{}, false
	}
	var rec Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return Record{}, false
	}
	return rec, true
}

func (c *Cached) store(ctx context.Context, key string, rec Record) {
	if c.client == nil {
		return
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, key, raw, c.ttl).Err()
}
