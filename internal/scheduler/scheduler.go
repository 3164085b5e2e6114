// Package scheduler keeps every widget's data fresh on its own interval.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"TickerBoard/internal/collector"
	"TickerBoard/internal/errs"
	"TickerBoard/internal/gateway"
	"TickerBoard/internal/logging"
	"TickerBoard/internal/metrics"
	"TickerBoard/internal/model"
	"TickerBoard/internal/normalizer"
	"TickerBoard/internal/provider"
	"TickerBoard/internal/store"
)

// ErrShutdown is returned by refresh requests made after Shutdown.
var ErrShutdown = errors.New("scheduler is shut down")

// every fires at a fixed distance from the previous activation.
type every time.Duration

func (e every) Next(t time.Time) time.Time { return t.Add(time.Duration(e)) }

// widgetTimer is the scheduling state of one widget. seq increases with
// every started cycle; only the cycle holding the current seq may write.
type widgetTimer struct {
	entry       cron.EntryID
	interval    time.Duration
	fingerprint string
	seq         uint64
	inFlight    bool
}

// Scheduler manages one cron entry per widget.
type Scheduler struct {
	store    *store.Store
	registry *provider.Registry
	gateway  *gateway.Gateway
	fetcher  collector.Fetcher
	log      *zap.SugaredLogger
	cron     *cron.Cron
	now      func() time.Time

	mu     sync.Mutex
	timers map[string]*widgetTimer
	closed bool

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New creates a Scheduler. Call Start to begin firing timers.
func New(st *store.Store, reg *provider.Registry, gw *gateway.Gateway, f collector.Fetcher, log *zap.SugaredLogger) *Scheduler {
	cl := logging.CronLogger{Log: log}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		store:    st,
		registry: reg,
		gateway:  gw,
		fetcher:  f,
		log:      log,
		cron:     cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl))),
		now:      time.Now,
		timers:   make(map[string]*widgetTimer),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start starts the cron loop.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started")
}

// Run reconciles against the store now and after every structural change
// until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	changes, cancel := s.store.Subscribe()
	defer cancel()

	s.Reconcile(s.store.List())
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.ctx.Done():
			return
		case <-changes:
			s.Reconcile(s.store.List())
		}
	}
}

// Reconcile brings the timers in line with widgets. New widgets get a timer
// and an immediate fetch, a changed interval restarts the timer, and
// vanished widgets lose theirs. A changed data source without an interval
// change triggers one immediate refresh and leaves the timer alone.
// Reconciling twice with the same widgets changes nothing.
func (s *Scheduler) Reconcile(widgets []model.Widget) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	seen := make(map[string]bool, len(widgets))
	var immediate []string
	for _, w := range widgets {
		seen[w.ID] = true
		interval := w.Config.RefreshInterval()
		fp := fingerprint(w)

		t, ok := s.timers[w.ID]
		switch {
		case !ok || t.entry == 0:
			if !ok {
				t = &widgetTimer{}
				s.timers[w.ID] = t
			}
			t.entry = s.schedule(w.ID, interval)
			t.interval, t.fingerprint = interval, fp
			immediate = append(immediate, w.ID)
			s.log.Debugf("timer started for widget %s every %s", w.ID, interval)
		case t.interval != interval:
			s.cron.Remove(t.entry)
			t.entry = s.schedule(w.ID, interval)
			t.interval, t.fingerprint = interval, fp
			immediate = append(immediate, w.ID)
			s.log.Debugf("timer restarted for widget %s every %s", w.ID, interval)
		case t.fingerprint != fp:
			t.fingerprint = fp
			immediate = append(immediate, w.ID)
			s.log.Debugf("data source of widget %s changed", w.ID)
		}
	}
	for id, t := range s.timers {
		if seen[id] {
			continue
		}
		if t.entry != 0 {
			s.cron.Remove(t.entry)
		}
		delete(s.timers, id)
		s.log.Debugf("timer cancelled for widget %s", id)
	}
	metrics.ActiveTimers.Set(float64(s.activeLocked()))

	for _, id := range immediate {
		s.spawnLocked(id, false)
	}
	s.mu.Unlock()
}

func fingerprint(w model.Widget) string {
	return string(w.Type) + "|" + w.Config.Fingerprint()
}

func (s *Scheduler) schedule(id string, interval time.Duration) cron.EntryID {
	return s.cron.Schedule(every(interval), cron.FuncJob(func() { s.tick(id) }))
}

// ActiveTimers reports how many widgets have a running timer.
func (s *Scheduler) ActiveTimers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeLocked()
}

func (s *Scheduler) activeLocked() int {
	n := 0
	for _, t := range s.timers {
		if t.entry != 0 {
			n++
		}
	}
	return n
}

// tick is a timer activation. It is skipped while the widget still has a
// cycle outstanding.
func (s *Scheduler) tick(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[id]; ok && t.inFlight {
		s.log.Debugf("skipping tick for widget %s, previous refresh still running", id)
		return
	}
	s.spawnLocked(id, true)
}

func (s *Scheduler) spawnLocked(id string, scheduled bool) {
	if s.closed {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.refresh(id, scheduled)
	}()
}

// RefreshOne runs a fetch cycle for one widget now and waits for it. Any
// older cycle for the widget is superseded. Fetch failures end up on the
// widget, not in the returned error.
func (s *Scheduler) RefreshOne(ctx context.Context, id string) error {
	if _, ok := s.store.Get(id); !ok {
		return errs.NewNotFoundError("widget " + id + " not found")
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrShutdown
	}
	s.wg.Add(1)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer s.wg.Done()
		defer close(done)
		s.refresh(id, false)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RefreshAll refreshes every widget concurrently. One widget failing does
// not affect the others.
func (s *Scheduler) RefreshAll(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, w := range s.store.List() {
		id := w.ID
		g.Go(func() error {
			err := s.RefreshOne(ctx, id)
			var nf *errs.NotFoundError
			if errors.As(err, &nf) {
				// removed while we were iterating
				return nil
			}
			return err
		})
	}
	return g.Wait()
}

// Shutdown cancels every timer and in-flight cycle. Nothing is written to
// the store afterwards. Later calls do nothing.
func (s *Scheduler) Shutdown() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		for id, t := range s.timers {
			if t.entry != 0 {
				s.cron.Remove(t.entry)
			}
			delete(s.timers, id)
		}
		metrics.ActiveTimers.Set(0)
		s.mu.Unlock()

		<-s.cron.Stop().Done()
		s.cancel()
		s.wg.Wait()
		s.log.Info("scheduler stopped")
	})
}

// begin claims a new cycle for id and marks the widget as loading.
func (s *Scheduler) begin(id string) (uint64, model.Widget, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, model.Widget{}, false
	}
	w, ok := s.store.Get(id)
	if !ok {
		return 0, model.Widget{}, false
	}
	t, ok := s.timers[id]
	if !ok {
		// refreshed before its first reconcile; Reconcile adds the timer
		t = &widgetTimer{interval: w.Config.RefreshInterval(), fingerprint: fingerprint(w)}
		s.timers[id] = t
	}
	t.seq++
	t.inFlight = true
	s.store.SetLoading(id)
	return t.seq, w, true
}

// finish writes the outcome if the cycle is still the latest one for a
// widget that still exists.
func (s *Scheduler) finish(id string, seq uint64, data model.Payload, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.timers[id]
	if s.closed || !ok || t.seq != seq {
		return false
	}
	t.inFlight = false
	return s.store.SetResult(id, data, err)
}

func (s *Scheduler) refresh(id string, scheduled bool) {
	seq, w, ok := s.begin(id)
	if !ok {
		return
	}
	start := time.Now()
	data, err := s.fetch(w)
	metrics.RefreshLatency.WithLabelValues(string(w.Type)).Observe(time.Since(start).Seconds())

	if !s.finish(id, seq, data, err) {
		metrics.Refreshes.WithLabelValues(string(w.Type), "dropped").Inc()
		s.log.Debugf("dropped stale result for widget %s (cycle %d)", id, seq)
		return
	}
	if err != nil {
		metrics.Refreshes.WithLabelValues(string(w.Type), "error").Inc()
		s.log.Warnf("refresh of widget %s (%s) failed: %v", id, w.Config.SymbolOrDefault(), err)
		return
	}
	metrics.Refreshes.WithLabelValues(string(w.Type), "ok").Inc()
	if scheduled {
		s.log.Debugf("widget %s refreshed on schedule", id)
	} else {
		s.log.Debugf("widget %s refreshed", id)
	}
}

// fetch resolves the provider, walks its operations for the widget and
// normalizes the first usable response.
func (s *Scheduler) fetch(w model.Widget) (model.Payload, error) {
	p, err := s.registry.Resolve(w.Config.APIProvider)
	if err != nil {
		return nil, err
	}
	strat := provider.StrategyFor(p.ID)
	now := s.now()

	var lastErr error
	for _, op := range strat.Operations(w) {
		req, err := provider.BuildRequest(p, op, w, now)
		if err != nil {
			lastErr = noEndpoint(p, op, err)
			if provider.CanFallBack(err) {
				continue
			}
			break
		}
		raw, err := s.call(p, w, req)
		if err != nil {
			lastErr = err
			if provider.CanFallBack(err) {
				s.log.Debugf("%s %s unavailable for widget %s, trying next: %v", p.ID, op, w.ID, err)
				continue
			}
			break
		}

		payload, err := strat.Normalize(raw, w, now)
		if err != nil {
			return nil, strat.Explain(err)
		}
		if ep, ok := payload.(*model.ErrorPayload); ok {
			return nil, strat.Explain(ep.Err())
		}
		return payload, nil
	}
	if lastErr == nil {
		lastErr = errs.Configuration("%s has no operation for %s widgets", p.Name, w.Type)
	}
	return nil, strat.Explain(lastErr)
}

func noEndpoint(p model.ProviderConfig, op string, err error) error {
	if !errors.Is(err, provider.ErrNoEndpoint) {
		return &errs.Error{Kind: errs.KindConfiguration, Provider: p.ID, Message: err.Error(), Err: err}
	}
	return &errs.Error{
		Kind:     errs.KindConfiguration,
		Provider: p.ID,
		Message:  fmt.Sprintf("%s has no %s endpoint configured", p.Name, op),
		Err:      err,
	}
}

// call goes through the cache and rate limiter. Responses carrying a
// provider error are returned as errors so they are never cached. Only
// calls that reach the provider and succeed count towards its stats.
func (s *Scheduler) call(p model.ProviderConfig, w model.Widget, req provider.Request) ([]byte, error) {
	parts := []string{p.ID, req.Operation}
	switch req.Operation {
	case provider.OpMovers:
		// market-wide, the symbol is not part of the request
	case provider.OpCustom:
		parts = append(parts, req.Symbol, w.Config.APIEndpoint)
	default:
		parts = append(parts, req.Symbol)
	}
	raw, err := s.gateway.GetOrFetch(s.ctx, gateway.Key(parts...), func(ctx context.Context) ([]byte, error) {
		raw, err := s.fetcher.Fetch(ctx, p.ID, req.URL)
		if err != nil {
			return nil, err
		}
		if ep := normalizer.DetectError(raw, p.ID); ep != nil {
			return nil, ep.Err()
		}
		s.registry.IncrementCalls(p.ID)
		return raw, nil
	})
	if errors.Is(err, gateway.ErrQueueFull) {
		return nil, &errs.Error{Kind: errs.KindRateLimit, Provider: p.ID, Message: "too many requests waiting for the rate limiter", Err: err}
	}
	return raw, err
}
