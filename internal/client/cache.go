package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/singleflight"

	"github.com/jobportal/apiserver/types"
)

const (
	DefaultStaleTime  = 5 * time.Minute
	DefaultGCTime     = 10 * time.Minute
	DefaultRetries    = 3
	DefaultRetryDelay = time.Second
	maxRetryDelay     = 30 * time.Second
)

// Cache keys. Invalidation matches on key prefix.
const (
	KeyApplications = "applications"
	KeyJobs         = "jobs"
)

func JobListKey(q JobQuery) string {
	return KeyJobs + "/list?" + q.Values().Encode()
}

func JobDetailKey(id string) string {
	return KeyJobs + "/detail/" + id
}

type cacheEntry struct {
	value     any
	fetchedAt time.Time
	usedAt    time.Time
}

// flight is one running fetch. A flight dropped by Invalidate finishes for
// its callers but does not write its result.
type flight struct {
	dropped bool
}

// QueryCache caches query results by key. Concurrent fetches of one key
// share a single request.
type QueryCache struct {
	staleTime  time.Duration
	gcTime     time.Duration
	retries    uint64
	retryDelay time.Duration
	now        func() time.Time

	group    singleflight.Group
	mu       sync.Mutex
	entries  map[string]*cacheEntry
	inflight map[string]*flight
}

type CacheOption func(*QueryCache)

func WithStaleTime(d time.Duration) CacheOption {
	return func(c *QueryCache) { c.staleTime = d }
}

func WithGCTime(d time.Duration) CacheOption {
	return func(c *QueryCache) { c.gcTime = d }
}

// WithRetry sets the retry count and the first backoff delay.
func WithRetry(retries uint64, delay time.Duration) CacheOption {
	return func(c *QueryCache) {
		c.retries = retries
		c.retryDelay = delay
	}
}

func NewQueryCache(opts ...CacheOption) *QueryCache {
	c := &QueryCache{
		staleTime:  DefaultStaleTime,
		gcTime:     DefaultGCTime,
		retries:    DefaultRetries,
		retryDelay: DefaultRetryDelay,
		now:        time.Now,
		entries:    make(map[string]*cacheEntry),
		inflight:   make(map[string]*flight),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the cached value for key while fresh, otherwise runs fetch.
func Fetch[T any](ctx context.Context, c *QueryCache, key string, fetch func(context.Context) (T, error)) (T, error) {
	if v, ok := c.lookup(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		f := c.begin(key)
		var out T
		err := retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
			v, err := fetch(ctx)
			if err != nil {
				if retryable(err) {
					return retry.RetryableError(err)
				}
				return err
			}
			out = v
			return nil
		})
		c.finish(key, f, out, err == nil)
		if err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache key %q holds %T", key, v)
	}
	return typed, nil
}

// Invalidate drops every entry whose key starts with prefix and returns
// how many were dropped. Fetches of those keys already running are not
// cached when they finish.
func (c *QueryCache) Invalidate(prefix string) int {
	return c.drop(func(key string) bool { return strings.HasPrefix(key, prefix) })
}

// Remove drops the entry for key only, and reports whether it existed.
func (c *QueryCache) Remove(key string) bool {
	return c.drop(func(k string) bool { return k == key }) > 0
}

// Collect drops entries unused for longer than the gc time.
func (c *QueryCache) Collect() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sweep(c.now())
}

// Len returns the number of live entries, stale ones included.
func (c *QueryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweep(c.now())
	return len(c.entries)
}

func (c *QueryCache) drop(match func(string) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for key := range c.entries {
		if match(key) {
			delete(c.entries, key)
			n++
		}
	}
	for key, f := range c.inflight {
		if match(key) {
			f.dropped = true
			delete(c.inflight, key)
			// later callers start a new request instead of joining this one
			c.group.Forget(key)
		}
	}
	return n
}

func (c *QueryCache) lookup(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	now := c.now()
	if now.Sub(e.usedAt) > c.gcTime {
		delete(c.entries, key)
		return nil, false
	}
	e.usedAt = now
	if now.Sub(e.fetchedAt) >= c.staleTime {
		return nil, false
	}
	return e.value, true
}

func (c *QueryCache) begin(key string) *flight {
	c.mu.Lock()
	defer c.mu.Unlock()
	f := &flight{}
	c.inflight[key] = f
	return f
}

func (c *QueryCache) finish(key string, f *flight, v any, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight[key] == f {
		delete(c.inflight, key)
	}
	if !ok || f.dropped {
		return
	}
	now := c.now()
	c.sweep(now)
	c.entries[key] = &cacheEntry{value: v, fetchedAt: now, usedAt: now}
}

// sweep must be called with mu held.
func (c *QueryCache) sweep(now time.Time) int {
	n := 0
	for key, e := range c.entries {
		if now.Sub(e.usedAt) > c.gcTime {
			delete(c.entries, key)
			n++
		}
	}
	return n
}

func (c *QueryCache) backoff() retry.Backoff {
	b := retry.NewExponential(c.retryDelay)
	b = retry.WithCappedDuration(maxRetryDelay, b)
	return retry.WithMaxRetries(c.retries, b)
}

// retryable reports whether err may succeed on a later attempt. Client
// errors other than timeouts and rate limits are final.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == http.StatusRequestTimeout, apiErr.Status == http.StatusTooManyRequests:
			return true
		case apiErr.Status < 500:
			return false
		}
	}
	return true
}

// Queries reads the API through a QueryCache and invalidates the affected
// keys after writes.
type Queries struct {
	api   *Client
	cache *QueryCache
}

func NewQueries(api *Client, cache *QueryCache) *Queries {
	return &Queries{api: api, cache: cache}
}

func (q *Queries) Jobs(ctx context.Context, query JobQuery) (types.Page[types.JobPosting], error) {
	return Fetch(ctx, q.cache, JobListKey(query), func(ctx context.Context) (types.Page[types.JobPosting], error) {
		return q.api.ListJobs(ctx, query)
	})
}

func (q *Queries) Job(ctx context.Context, id string) (types.JobPosting, error) {
	return Fetch(ctx, q.cache, JobDetailKey(id), func(ctx context.Context) (types.JobPosting, error) {
		return q.api.GetJob(ctx, id)
	})
}

func (q *Queries) Applications(ctx context.Context) ([]types.Application, error) {
	return Fetch(ctx, q.cache, KeyApplications, q.api.Applications)
}

// Apply submits an application, then invalidates the applicant's list and
// the job detail.
func (q *Queries) Apply(ctx context.Context, jobID string, in ApplyInput) (types.Application, error) {
	app, err := q.api.Apply(ctx, jobID, in)
	if err != nil {
		return app, err
	}
	q.cache.Invalidate(KeyApplications)
	q.cache.Remove(JobDetailKey(jobID))
	return app, nil
}

// Reset drops every entry and discards running fetches. Pass it to
// OnLogout so one user's data never outlives their session.
func (q *Queries) Reset() {
	q.cache.Invalidate("")
}
