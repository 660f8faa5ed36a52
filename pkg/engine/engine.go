// Package engine owns the monitoring lifecycle: it builds the pattern
// registry, spawns one watcher per accessible source, runs the control
// loop that emits periodic summaries, and handles cooperative shutdown.
package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/logwarden/logwarden/pkg/export"
	"github.com/logwarden/logwarden/pkg/exporters/prometheus"
	"github.com/logwarden/logwarden/pkg/logger"
	"github.com/logwarden/logwarden/pkg/offsets"
	"github.com/logwarden/logwarden/pkg/patterns"
	"github.com/logwarden/logwarden/pkg/report"
	"github.com/logwarden/logwarden/pkg/stats"
	"github.com/logwarden/logwarden/pkg/store"
	"github.com/logwarden/logwarden/pkg/types"
	"github.com/logwarden/logwarden/pkg/watcher"
)

// controlTick is the cadence of the control loop. The summary interval
// is enforced by the report predicate, so this only bounds how promptly
// a due summary is noticed.
const controlTick = 1 * time.Second

// stopGrace is how much longer than one poll interval Stop waits for
// watchers to observe cancellation before giving up.
const stopGrace = 2 * time.Second

// Engine owns every component of the monitoring pipeline.
type Engine struct {
	config     *types.Config
	registry   *patterns.Registry
	classifier *patterns.Classifier
	stats      *stats.Aggregator
	store      *store.MatchStore
	prom       *prometheus.Exporter

	// SummaryWriter receives rendered summaries. Defaults to stdout.
	SummaryWriter io.Writer

	mu       sync.Mutex
	watchers []*watcher.Watcher
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	started  bool
	lastEmit time.Time
}

// New builds an engine from a validated configuration. An invalid
// pattern is fatal and surfaces as a *types.ConfigError.
func New(config *types.Config) (*Engine, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	registry, err := patterns.FromConfigs(config.Patterns)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		config:        config,
		registry:      registry,
		classifier:    patterns.NewClassifier(registry),
		stats:         stats.NewAggregator(),
		store:         store.NewMatchStore(config.Settings.MaxStoredMatches),
		SummaryWriter: os.Stdout,
	}

	if promCfg := config.Exporters.Prometheus; promCfg != nil && promCfg.Enabled {
		exporter, err := prometheus.NewExporter(promCfg, "dev")
		if err != nil {
			return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		e.prom = exporter
	}

	return e, nil
}

// Registry returns the engine's pattern registry.
func (e *Engine) Registry() *patterns.Registry {
	return e.registry
}

// Stats returns a snapshot of the aggregated statistics.
func (e *Engine) Stats() stats.Snapshot {
	return e.stats.Snapshot()
}

// Watchers returns the running watchers for advisory telemetry.
func (e *Engine) Watchers() []*watcher.Watcher {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*watcher.Watcher(nil), e.watchers...)
}

// Start spawns one watcher per accessible source and the control loop.
//
// A source counts as accessible only if it can be opened for reading
// right now; inaccessible sources are logged and skipped without
// affecting the rest. Zero accessible sources is fatal to the run and
// returns a *types.NoAccessibleSourcesError with no watchers spawned.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return fmt.Errorf("engine already started")
	}

	enabled := e.config.EnabledSources()
	accessible := make([]*types.Source, 0, len(enabled))
	for _, src := range enabled {
		if err := checkReadable(src.Path); err != nil {
			logger.WithError(&types.SourceAccessError{Path: src.Path, Err: err}).
				Warnf("skipping inaccessible source %s", src.Name)
			continue
		}
		accessible = append(accessible, src)
	}

	if len(accessible) == 0 {
		return &types.NoAccessibleSourcesError{Requested: len(enabled)}
	}

	resumed := e.loadOffsets()

	e.ctx, e.cancel = context.WithCancel(context.Background())

	// The watcher slice is rebuilt here and then left untouched until the
	// next Start, so the control loop may iterate it without locking.
	e.watchers = nil

	for _, src := range accessible {
		resume := int64(-1)
		if off, ok := resumed[src.Path]; ok {
			resume = off
		}

		w := watcher.New(watcher.Config{
			Source:       src,
			Classifier:   e.classifier,
			Stats:        e.stats,
			Store:        e.store,
			PollInterval: e.config.Settings.PollInterval,
			ResumeOffset: resume,
		})
		e.watchers = append(e.watchers, w)

		e.wg.Add(1)
		go func(w *watcher.Watcher) {
			defer e.wg.Done()
			w.Run(e.ctx)
		}(w)
	}

	if e.prom != nil {
		if err := e.prom.Start(); err != nil {
			e.cancel()
			e.watchers = nil
			return fmt.Errorf("failed to start prometheus exporter: %w", err)
		}
	}

	e.lastEmit = time.Now()
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.controlLoop()
	}()

	e.started = true
	logger.Infof("engine started with %d of %d sources, %d patterns",
		len(accessible), len(enabled), e.registry.Len())

	return nil
}

// Stop cancels every watcher cooperatively and waits for them to exit,
// bounded by roughly one poll interval. It then emits a final summary
// and flushes persisted offsets. Stop is safe to call more than once.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return nil
	}

	logger.Infof("stopping engine")
	e.cancel()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(e.config.Settings.PollInterval + stopGrace):
		logger.Warnf("timed out waiting for watchers to stop")
	}

	// Final flush always emits, regardless of the summary interval.
	e.emitSummary()

	e.flushOffsets()

	if e.prom != nil {
		if err := e.prom.Stop(); err != nil {
			logger.Warnf("error stopping prometheus exporter: %v", err)
		}
	}

	e.started = false
	logger.Infof("engine stopped")

	return nil
}

// Run starts the engine and blocks until the duration elapses (zero
// means until Stop is called from elsewhere), then stops it.
func (e *Engine) Run(duration time.Duration) error {
	if err := e.Start(); err != nil {
		return err
	}

	e.mu.Lock()
	ctx := e.ctx
	e.mu.Unlock()

	if duration > 0 {
		timer := time.NewTimer(duration)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
		}
	} else {
		<-ctx.Done()
	}

	return e.Stop()
}

// Export serializes the currently retained matches to destination.
func (e *Engine) Export(format, destination string) error {
	return export.Export(e.store.ToList(), format, destination)
}

// controlLoop drives summary emission and metrics refresh until the
// engine context is cancelled.
func (e *Engine) controlLoop() {
	ticker := time.NewTicker(controlTick)
	defer ticker.Stop()

	for {
		select {
		case <-e.ctx.Done():
			return
		case now := <-ticker.C:
			if report.ShouldEmit(now, e.lastEmit, e.config.Settings.SummaryInterval) {
				e.emitSummary()
				e.lastEmit = now
			}
			e.refreshMetrics()
		}
	}
}

// emitSummary renders a snapshot summary to the summary writer.
func (e *Engine) emitSummary() {
	snap := e.stats.Snapshot()
	recent := e.store.Last(5)
	text := report.Render(snap, recent, e.config.Settings.MaxLineLength)
	fmt.Fprintln(e.SummaryWriter, text)
}

// refreshMetrics feeds the prometheus exporter from current telemetry.
func (e *Engine) refreshMetrics() {
	if e.prom == nil {
		return
	}

	active := 0
	for _, w := range e.watchers {
		if w.State() == watcher.StateTailing {
			active++
		}
		e.prom.ObserveSource(w.Source())
	}
	e.prom.UpdateFrom(e.stats.Snapshot(), e.store.Len(), active)
}

// loadOffsets reads persisted per-source offsets when configured.
func (e *Engine) loadOffsets() map[string]int64 {
	path := e.config.Settings.OffsetStatePath
	if path == "" {
		return nil
	}

	resumed, err := offsets.Load(path)
	if err != nil {
		logger.Warnf("ignoring unreadable offset state %s: %v", path, err)
		return nil
	}
	if len(resumed) > 0 {
		logger.Infof("resuming %d persisted source offsets from %s", len(resumed), path)
	}
	return resumed
}

// flushOffsets persists the final read cursors when configured.
func (e *Engine) flushOffsets() {
	path := e.config.Settings.OffsetStatePath
	if path == "" {
		return
	}

	state := make(map[string]int64, len(e.watchers))
	for _, w := range e.watchers {
		src := w.Source()
		state[src.Path] = src.Offset
	}

	if err := offsets.Save(path, state); err != nil {
		logger.Warnf("failed to persist offsets to %s: %v", path, err)
		return
	}
	logger.Debugf("persisted %d source offsets to %s", len(state), path)
}

// checkReadable verifies the path can actually be opened for reading.
func checkReadable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}
