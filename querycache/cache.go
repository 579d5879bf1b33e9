package querycache

import (
	"context"
	"sync"
	"time"

	"moviesearch/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Shared is an optional second tier consulted after an in-memory miss,
// typically shared between processes.
type Shared interface {
	GetJSON(ctx context.Context, key string, dst interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type Option func(*settings)

type settings struct {
	now      func() time.Time
	shared   Shared
	cacheErr func(error) bool
	logger   *zap.SugaredLogger
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		s.now = now
	}
}

func WithShared(shared Shared) Option {
	return func(s *settings) {
		s.shared = shared
	}
}

// WithErrorCaching keeps failed fetches for the freshness window when keep
// returns true for the error. By default errors are never cached.
func WithErrorCaching(keep func(error) bool) Option {
	return func(s *settings) {
		s.cacheErr = keep
	}
}

func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *settings) {
		s.logger = l
	}
}

type entry[V any] struct {
	value     V
	err       error
	fetchedAt time.Time
}

// Cache memoizes fetch results per key for a fixed freshness window. At most
// one fetch per key is in flight; concurrent callers share its result.
type Cache[V any] struct {
	name string
	ttl  time.Duration
	settings

	mu      sync.RWMutex
	entries map[string]entry[V]
	group   singleflight.Group
}

func New[V any](name string, ttl time.Duration, opts ...Option) *Cache[V] {
	s := settings{
		now:      time.Now,
		cacheErr: func(error) bool { return false },
		logger:   logger.NOOPLogger,
	}
	for _, fn := range opts {
		fn(&s)
	}

	return &Cache[V]{
		name:     name,
		ttl:      ttl,
		settings: s,
		entries:  make(map[string]entry[V]),
	}
}

// Get returns the fresh cached value for key, or runs fetch once and caches
// its result. Each caller stops waiting when its own ctx is done; the shared
// fetch itself is not cancelled by any single caller.
func (c *Cache[V]) Get(ctx context.Context, key string, fetch func(ctx context.Context) (V, error)) (V, error) {
	if v, err, ok := c.lookup(key); ok {
		return v, err
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		if v, err, ok := c.lookup(key); ok {
			return v, err
		}
		return c.load(context.WithoutCancel(ctx), key, fetch)
	})

	select {
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	case res := <-ch:
		v, _ := res.Val.(V)
		return v, res.Err
	}
}

func (c *Cache[V]) load(ctx context.Context, key string, fetch func(ctx context.Context) (V, error)) (V, error) {
	if c.shared != nil {
		var v V
		found, err := c.shared.GetJSON(ctx, c.sharedKey(key), &v)
		if err != nil {
			c.logger.Warnw("shared cache read failed", "cache", c.name, "key", key, "error", err)
		} else if found {
			c.store(key, v, nil)
			return v, nil
		}
	}

	v, err := fetch(ctx)
	if err != nil {
		if c.cacheErr(err) {
			c.store(key, v, err)
		}
		return v, err
	}

	c.store(key, v, nil)
	if c.shared != nil {
		if err := c.shared.SetJSON(ctx, c.sharedKey(key), v, c.ttl); err != nil {
			c.logger.Warnw("shared cache write failed", "cache", c.name, "key", key, "error", err)
		}
	}
	return v, nil
}

func (c *Cache[V]) lookup(key string) (V, error, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || !c.fresh(e) {
		var zero V
		return zero, nil, false
	}
	return e.value, e.err, true
}

func (c *Cache[V]) store(key string, v V, err error) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: v, err: err, fetchedAt: c.now()}
}

func (c *Cache[V]) fresh(e entry[V]) bool {
	return c.now().Sub(e.fetchedAt) < c.ttl
}

func (c *Cache[V]) sharedKey(key string) string {
	return c.name + ":" + key
}

// Sweep removes stale entries and returns how many were dropped.
func (c *Cache[V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for k, e := range c.entries {
		if !c.fresh(e) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// Len counts entries held in memory, fresh or not.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
