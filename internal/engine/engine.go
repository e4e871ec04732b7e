// Package engine drives pool surveillance: it owns the watch-list, polls
// watched pools, diffs snapshots into whale events and runs the periodic
// market-structure analysis sweep.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/rextempo/LiqPro-AI-sub004/internal/config"
	"github.com/rextempo/LiqPro-AI-sub004/internal/detector"
	"github.com/rextempo/LiqPro-AI-sub004/internal/emitter"
	"github.com/rextempo/LiqPro-AI-sub004/internal/provider"
	"github.com/rextempo/LiqPro-AI-sub004/internal/recorder"
	"github.com/rextempo/LiqPro-AI-sub004/internal/store"
)

// Clock abstracts wall-clock time so scheduler tests can run deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the real-time clock.
func SystemClock() Clock { return systemClock{} }

// Options configures an Engine. Invalid values are rejected at construction
// and nowhere else.
type Options struct {
	PollInterval         time.Duration
	TickInterval         time.Duration
	WhaleChangeThreshold float64
	TopBinChangeCount    int
	Risk                 detector.RiskThresholds
	HistoryLimit         int
	HistoryInterval      string
	AnalysisWorkers      int
	AnalysisCron         string
	SummaryCron          string
}

// OptionsFromConfig maps the configuration surface onto engine options.
func OptionsFromConfig(cfg *config.Config) Options {
	s := cfg.Surveillance
	return Options{
		PollInterval:         time.Duration(s.PollIntervalMs) * time.Millisecond,
		TickInterval:         time.Second,
		WhaleChangeThreshold: s.WhaleChangeThreshold,
		TopBinChangeCount:    s.TopBinChangeCount,
		Risk: detector.RiskThresholds{
			HighTotalChange:   s.HighRiskTotalChange,
			HighTopBin:        s.HighRiskTopBin,
			MediumTotalChange: s.MediumRiskTotalChange,
			MediumTopBin:      s.MediumRiskTopBin,
		},
		HistoryLimit:    s.HistoryLimit,
		HistoryInterval: "1h",
		AnalysisWorkers: s.AnalysisWorkers,
		AnalysisCron:    s.AnalysisCron,
		SummaryCron:     s.SummaryCron,
	}
}

// Deps are the engine's collaborators. Notifier and Peers are optional;
// without them the push path and the correlation analysis peer lookup are
// disabled.
type Deps struct {
	Provider provider.Provider
	Notifier provider.ChangeNotifier
	Peers    provider.PeerLister
	Recorder recorder.Recorder
	Registry *emitter.Registry
	Logger   *zap.Logger
	Clock    Clock
}

type watchEntry struct {
	address   string
	nextRunAt time.Time
	inFlight  bool
	sub       provider.Subscription
}

type counters struct {
	whaleEvents int
	highRisk    int
	mediumRisk  int
	lowRisk     int
	analyses    int
	errors      int
	since       time.Time
}

// Engine is the pool market surveillance engine. Each instance owns its
// store and watch-list; independent instances can run side by side.
type Engine struct {
	opts     Options
	provider provider.Provider
	notifier provider.ChangeNotifier
	peers    provider.PeerLister
	rec      recorder.Recorder
	registry *emitter.Registry
	logger   *zap.Logger
	clock    Clock

	store   *store.Store
	workers pond.Pool
	cron    *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	watches  map[string]*watchEntry
	loopStop chan struct{}
	loopDone chan struct{}
	started  bool

	statsMu sync.Mutex
	stats   counters
}

// New validates the options and assembles an engine. Configuration errors
// are fatal here and only here.
func New(opts Options, deps Deps) (*Engine, error) {
	if opts.PollInterval <= 0 {
		return nil, fmt.Errorf("config: poll interval must be positive")
	}
	if opts.WhaleChangeThreshold <= 0 || opts.WhaleChangeThreshold >= 1 {
		return nil, fmt.Errorf("config: whale change threshold must be in (0,1)")
	}
	if opts.TopBinChangeCount <= 0 {
		return nil, fmt.Errorf("config: top bin change count must be positive")
	}
	if opts.Risk.MediumTotalChange > opts.Risk.HighTotalChange || opts.Risk.MediumTopBin > opts.Risk.HighTopBin {
		return nil, fmt.Errorf("config: medium risk thresholds exceed high risk thresholds")
	}
	if opts.HistoryLimit < 2 {
		return nil, fmt.Errorf("config: history limit must be at least 2")
	}
	if deps.Provider == nil {
		return nil, fmt.Errorf("config: provider is required")
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.HistoryInterval == "" {
		opts.HistoryInterval = "1h"
	}
	if opts.AnalysisWorkers <= 0 {
		opts.AnalysisWorkers = 4
	}
	if deps.Registry == nil {
		deps.Registry = emitter.NewRegistry()
	}
	if deps.Recorder == nil {
		deps.Recorder = recorder.NewNoopRecorder()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = SystemClock()
	}

	return &Engine{
		opts:     opts,
		provider: deps.Provider,
		notifier: deps.Notifier,
		peers:    deps.Peers,
		rec:      deps.Recorder,
		registry: deps.Registry,
		logger:   deps.Logger,
		clock:    deps.Clock,
		store:    store.New(opts.HistoryLimit),
		watches:  make(map[string]*watchEntry),
	}, nil
}

// Registry exposes the alert subscription registry.
func (e *Engine) Registry() *emitter.Registry { return e.registry }

// Start brings up the worker pool and the cron jobs. It does not begin
// polling; polling starts when the watch-list becomes non-empty.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return nil
	}

	e.ctx, e.cancel = context.WithCancel(context.Background())
	e.workers = pond.NewPool(e.opts.AnalysisWorkers)

	e.cron = cron.New(cron.WithSeconds())
	if _, err := e.cron.AddFunc(e.opts.AnalysisCron, e.runAnalysisSweep); err != nil {
		return fmt.Errorf("register analysis sweep: %w", err)
	}
	if _, err := e.cron.AddFunc(e.opts.SummaryCron, e.runSummary); err != nil {
		return fmt.Errorf("register summary: %w", err)
	}
	e.cron.Start()

	e.stats = counters{since: e.clock.Now()}
	e.started = true
	e.logger.Info("engine started",
		zap.Duration("poll_interval", e.opts.PollInterval),
		zap.Float64("whale_threshold", e.opts.WhaleChangeThreshold))
	return nil
}

// Stop removes all pools, stops the scheduler and discards the store. It
// returns only after the polling goroutine has exited.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return
	}
	e.started = false
	addresses := make([]string, 0, len(e.watches))
	for addr := range e.watches {
		addresses = append(addresses, addr)
	}
	e.mu.Unlock()

	for _, addr := range addresses {
		e.RemovePool(addr)
	}

	e.mu.Lock()
	done := e.stopPollingLocked()
	e.mu.Unlock()
	if done != nil {
		<-done
	}

	e.cancel()
	e.cron.Stop()
	e.workers.StopAndWait()
	e.store.Close()
	e.logger.Info("engine stopped")
}

// AddPool registers a pool for surveillance. Idempotent. The first snapshot
// is fetched immediately as a baseline and never produces an event. The
// caller gets a synchronous acknowledgement; fetch failures surface through
// the error callback channel.
func (e *Engine) AddPool(address string) error {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return fmt.Errorf("engine not started")
	}
	if _, exists := e.watches[address]; exists {
		e.mu.Unlock()
		return nil
	}

	entry := &watchEntry{
		address:   address,
		nextRunAt: e.clock.Now().Add(e.opts.PollInterval),
		inFlight:  true, // baseline cycle dispatched below
	}
	e.watches[address] = entry
	if len(e.watches) == 1 {
		e.startPollingLocked()
	}
	e.mu.Unlock()

	if e.notifier != nil {
		sub, err := e.notifier.SubscribePoolChange(e.ctx, address, e.Recheck)
		if err != nil {
			e.logger.Warn("push subscription failed, polling only",
				zap.String("pool", address), zap.Error(err))
		} else {
			e.mu.Lock()
			if cur, ok := e.watches[address]; ok {
				cur.sub = sub
			} else {
				// Removed while we were subscribing.
				sub.Close()
			}
			e.mu.Unlock()
		}
	}

	go e.runCycle(address, detectBaseline)
	e.logger.Info("pool added to watch-list", zap.String("pool", address))
	return nil
}

// RemovePool unregisters a pool and discards all its state. Idempotent.
// An in-flight fetch completing afterwards is discarded by the membership
// check inside the cycle.
func (e *Engine) RemovePool(address string) error {
	e.mu.Lock()
	entry, exists := e.watches[address]
	if !exists {
		e.mu.Unlock()
		return nil
	}
	delete(e.watches, address)
	var done <-chan struct{}
	if len(e.watches) == 0 {
		done = e.stopPollingLocked()
	}
	e.mu.Unlock()
	if done != nil {
		<-done
	}

	if entry.sub != nil {
		entry.sub.Close()
	}
	e.store.Remove(address)
	e.logger.Info("pool removed from watch-list", zap.String("pool", address))
	return nil
}

// Recheck triggers an out-of-band poll cycle for a pool in response to a
// push notification. A re-check while a cycle is in flight for the same
// pool is dropped, not queued.
func (e *Engine) Recheck(address string) {
	e.mu.Lock()
	entry, ok := e.watches[address]
	if !ok || entry.inFlight {
		e.mu.Unlock()
		return
	}
	entry.inFlight = true
	entry.nextRunAt = e.clock.Now().Add(e.opts.PollInterval)
	e.mu.Unlock()

	go e.runCycle(address, detectPush)
}

// Watched reports whether a pool is currently on the watch-list.
func (e *Engine) Watched(address string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.watches[address]
	return ok
}

// WatchedPools returns the current watch-list.
func (e *Engine) WatchedPools() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.watches))
	for addr := range e.watches {
		out = append(out, addr)
	}
	return out
}

// ActiveHandles counts live timers and subscriptions, for leak checks.
func (e *Engine) ActiveHandles() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := len(e.watches)
	for _, entry := range e.watches {
		if entry.sub != nil {
			n++
		}
	}
	if e.loopStop != nil {
		n++
	}
	return n
}

func (e *Engine) startPollingLocked() {
	stop := make(chan struct{})
	done := make(chan struct{})
	e.loopStop = stop
	e.loopDone = done
	go e.pollLoop(stop, done)
	e.logger.Info("polling loop started")
}

// stopPollingLocked signals the polling goroutine to exit and returns its
// done channel so callers can wait outside the lock. Nil when no loop runs.
func (e *Engine) stopPollingLocked() <-chan struct{} {
	if e.loopStop == nil {
		return nil
	}
	close(e.loopStop)
	done := e.loopDone
	e.loopStop = nil
	e.loopDone = nil
	e.logger.Info("polling loop stopped")
	return done
}

// pollLoop drives the per-pool schedule off a single ticker. Each tick
// compares wall-clock time against every entry's nextRunAt.
func (e *Engine) pollLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(e.opts.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.Tick()
		}
	}
}

// Tick dispatches a poll cycle for every due pool. Exported so tests can
// drive the schedule with a fake clock instead of the ticker.
func (e *Engine) Tick() {
	now := e.clock.Now()

	e.mu.Lock()
	var due []string
	for addr, entry := range e.watches {
		if entry.inFlight || now.Before(entry.nextRunAt) {
			continue
		}
		entry.inFlight = true
		entry.nextRunAt = now.Add(e.opts.PollInterval)
		due = append(due, addr)
	}
	e.mu.Unlock()

	for _, addr := range due {
		go e.runCycle(addr, detectPoll)
	}
}

func (e *Engine) clearInFlight(address string) {
	e.mu.Lock()
	if entry, ok := e.watches[address]; ok {
		entry.inFlight = false
	}
	e.mu.Unlock()
}
