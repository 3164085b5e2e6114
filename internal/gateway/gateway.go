// Package gateway puts a TTL cache and a rate-limited FIFO queue in front of
// every outbound provider call.
package gateway

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"TickerBoard/internal/metrics"
)

var (
	// ErrQueueFull is returned when the bounded queue has no room.
	ErrQueueFull = errors.New("rate limit queue is full")
	// ErrClosed is returned for calls made or still queued after Close.
	ErrClosed = errors.New("gateway closed")
)

const (
	DefaultTTL     = 5 * time.Minute
	DefaultSpacing = 12 * time.Second
)

// FetchFunc performs one outbound call.
type FetchFunc func(ctx context.Context) ([]byte, error)

type Config struct {
	TTL           time.Duration
	Spacing       time.Duration
	MaxQueue      int           // 0 means unbounded
	SweepInterval time.Duration // 0 disables the janitor
}

type result struct {
	data []byte
	err  error
}

type job struct {
	fetch FetchFunc
	done  chan result
}

// Gateway owns one cache and one dispatch queue. Instances share nothing.
type Gateway struct {
	cfg   Config
	cache Cache
	log   *zap.SugaredLogger
	now   func() time.Time
	group singleflight.Group

	mu       sync.Mutex
	queue    []*job
	started  bool
	closed   bool
	lastDone time.Time

	wake      chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New builds a gateway. A nil cache means an in-memory one.
func New(cfg Config, cache Cache, log *zap.SugaredLogger) *Gateway {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Spacing < 0 {
		cfg.Spacing = 0
	}
	if cache == nil {
		cache = NewMemoryCache()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Gateway{
		cfg:    cfg,
		cache:  cache,
		log:    log,
		now:    time.Now,
		wake:   make(chan struct{}, 1),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start launches the drain loop and, when configured, the cache janitor.
func (g *Gateway) Start() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.started || g.closed {
		return
	}
	g.started = true

	g.wg.Add(1)
	go g.drain()

	if p, ok := g.cache.(Purger); ok && g.cfg.SweepInterval > 0 {
		g.wg.Add(1)
		go g.janitor(p)
	}
	g.log.Infof("Gateway started: ttl=%s spacing=%s max_queue=%d", g.cfg.TTL, g.cfg.Spacing, g.cfg.MaxQueue)
}

// Close stops the loops and fails everything still queued. It is safe to
// call more than once.
func (g *Gateway) Close() {
	g.closeOnce.Do(func() {
		g.mu.Lock()
		g.closed = true
		pending := g.queue
		g.queue = nil
		g.mu.Unlock()

		g.cancel()
		g.wg.Wait()
		for _, j := range pending {
			j.done <- result{err: ErrClosed}
		}
		metrics.QueueDepth.Set(0)
		g.log.Infof("Gateway closed, %d queued calls dropped", len(pending))
	})
}

// GetOrFetch returns the cached response for key while it is fresh.
// Otherwise the fetch is queued; concurrent callers with the same key share
// one call. Only successful responses are cached. Callers may abandon the
// wait through ctx; the shared call itself continues.
func (g *Gateway) GetOrFetch(ctx context.Context, key string, fetch FetchFunc) ([]byte, error) {
	if e, ok := g.lookup(ctx, key); ok {
		metrics.CacheHits.Inc()
		return e.Data, nil
	}
	metrics.CacheMisses.Inc()

	ch := g.group.DoChan(key, func() (any, error) {
		// a concurrent flight may have filled the cache meanwhile
		if e, ok := g.lookup(g.ctx, key); ok {
			return e.Data, nil
		}
		data, err := g.enqueue(fetch)
		if err != nil {
			return nil, err
		}
		if err := g.cache.Set(g.ctx, key, Entry{Data: data, Timestamp: g.now()}, g.cfg.TTL); err != nil {
			g.log.Warnf("Cache write failed for %s: %v", key, err)
		}
		return data, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *Gateway) lookup(ctx context.Context, key string) (Entry, bool) {
	e, ok, err := g.cache.Get(ctx, key)
	if err != nil {
		g.log.Warnf("Cache read failed, treating as miss: %v", err)
		return Entry{}, false
	}
	if !ok || g.now().Sub(e.Timestamp) >= g.cfg.TTL {
		return Entry{}, false
	}
	return e, true
}

func (g *Gateway) enqueue(fetch FetchFunc) ([]byte, error) {
	j := &job{fetch: fetch, done: make(chan result, 1)}

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil, ErrClosed
	}
	if g.cfg.MaxQueue > 0 && len(g.queue) >= g.cfg.MaxQueue {
		g.mu.Unlock()
		return nil, ErrQueueFull
	}
	g.queue = append(g.queue, j)
	metrics.QueueDepth.Set(float64(len(g.queue)))
	g.mu.Unlock()

	select {
	case g.wake <- struct{}{}:
	default:
	}

	res := <-j.done
	return res.data, res.err
}

// Pending reports how many calls wait in the queue.
func (g *Gateway) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.queue)
}

func (g *Gateway) next() *job {
	for {
		g.mu.Lock()
		if len(g.queue) > 0 {
			j := g.queue[0]
			g.queue = g.queue[1:]
			metrics.QueueDepth.Set(float64(len(g.queue)))
			g.mu.Unlock()
			return j
		}
		g.mu.Unlock()

		select {
		case <-g.wake:
		case <-g.ctx.Done():
			return nil
		}
	}
}

// drain runs one call at a time and keeps Spacing between the end of one
// call and the start of the next.
func (g *Gateway) drain() {
	defer g.wg.Done()
	for {
		j := g.next()
		if j == nil {
			return
		}

		if !g.lastDone.IsZero() {
			if wait := g.cfg.Spacing - g.now().Sub(g.lastDone); wait > 0 {
				timer := time.NewTimer(wait)
				select {
				case <-timer.C:
				case <-g.ctx.Done():
					timer.Stop()
					j.done <- result{err: ErrClosed}
					return
				}
			}
		}

		data, err := j.fetch(g.ctx)
		g.lastDone = g.now()
		j.done <- result{data: data, err: err}
	}
}

func (g *Gateway) janitor(p Purger) {
	defer g.wg.Done()
	ticker := time.NewTicker(g.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := p.Purge(g.now().Add(-g.cfg.TTL)); n > 0 {
				g.log.Debugf("Purged %d stale cache entries", n)
			}
		case <-g.ctx.Done():
			return
		}
	}
}
