// Package prometheus exports Logwarden engine metrics over HTTP.
package prometheus

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/logwarden/logwarden/pkg/logger"
	"github.com/logwarden/logwarden/pkg/stats"
	"github.com/logwarden/logwarden/pkg/types"
)

// Exporter serves engine metrics on a dedicated HTTP endpoint. The
// engine's control loop feeds it from aggregator snapshots on each
// summary cadence tick.
type Exporter struct {
	config    *types.PrometheusExporterConfig
	registry  *prometheus.Registry
	metrics   *Metrics
	server    *http.Server
	startTime time.Time

	mu      sync.Mutex
	started bool
}

// NewExporter creates a Prometheus exporter from its configuration.
func NewExporter(config *types.PrometheusExporterConfig, version string) (*Exporter, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if !config.Enabled {
		return nil, fmt.Errorf("prometheus exporter is disabled")
	}

	registry := prometheus.NewRegistry()
	metrics := NewMetrics(config.Namespace)
	if err := metrics.Register(registry); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	metrics.Info.WithLabelValues(version, runtime.Version()).Set(1)

	return &Exporter{
		config:    config,
		registry:  registry,
		metrics:   metrics,
		startTime: time.Now(),
	}, nil
}

// Start brings up the metrics HTTP server.
func (e *Exporter) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return fmt.Errorf("prometheus exporter already started")
	}

	handler := promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})

	mux := http.NewServeMux()
	mux.Handle(e.config.Path, handler)

	addr := fmt.Sprintf(":%d", e.config.Port)
	e.server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Infof("prometheus metrics server listening on %s%s", addr, e.config.Path)
		if err := e.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("prometheus metrics server error: %v", err)
		}
	}()

	e.started = true
	return nil
}

// Stop gracefully shuts down the metrics HTTP server.
func (e *Exporter) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := e.server.Shutdown(ctx)
	e.started = false
	return err
}

// UpdateFrom refreshes the metric families from an aggregator snapshot
// plus store and watcher telemetry.
func (e *Exporter) UpdateFrom(snap stats.Snapshot, storedMatches, watchersActive int) {
	for source, bySource := range snap.PerSourcePattern {
		for pattern, count := range bySource {
			e.metrics.Matches.WithLabelValues(source, pattern).Set(float64(count))
		}
	}

	// Per-source line counts are watcher-owned; the aggregator only
	// carries the global total, exposed under the reserved source "all".
	e.metrics.LinesProcessed.WithLabelValues("all").Set(float64(snap.TotalLines))

	e.metrics.StoredMatches.Set(float64(storedMatches))
	e.metrics.WatchersActive.Set(float64(watchersActive))
	e.metrics.UptimeSeconds.Set(time.Since(e.startTime).Seconds())
}

// ObserveSource records one source's advisory line counter.
func (e *Exporter) ObserveSource(source *types.Source) {
	e.metrics.LinesProcessed.WithLabelValues(source.Name).Set(float64(source.LinesProcessed))
}
