package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all the Prometheus metrics exposed by Logwarden.
// The engine refreshes them from aggregator snapshots, so every metric is
// a gauge set to the current cumulative value rather than an
// incrementally bumped counter.
type Metrics struct {
	LinesProcessed *prometheus.GaugeVec
	Matches        *prometheus.GaugeVec
	StoredMatches  prometheus.Gauge
	WatchersActive prometheus.Gauge
	UptimeSeconds  prometheus.Gauge
	Info           *prometheus.GaugeVec
}

// NewMetrics creates the metric families under the given namespace.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "logwarden"
	}

	return &Metrics{
		LinesProcessed: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "lines_processed",
				Help:      "Cumulative number of log lines processed, by source",
			},
			[]string{"source"},
		),

		Matches: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "matches",
				Help:      "Cumulative number of pattern matches, by source and pattern",
			},
			[]string{"source", "pattern"},
		),

		StoredMatches: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "stored_matches",
				Help:      "Number of matches currently retained in the bounded store",
			},
		),

		WatchersActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "watchers_active",
				Help:      "Number of source watchers currently tailing",
			},
		),

		UptimeSeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "uptime_seconds",
				Help:      "Seconds since the engine started",
			},
		),

		Info: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "info",
				Help:      "Build information for the running Logwarden",
			},
			[]string{"version", "go_version"},
		),
	}
}

// Register registers all metric families with the given registry.
func (m *Metrics) Register(registry *prometheus.Registry) error {
	collectors := []prometheus.Collector{
		m.LinesProcessed,
		m.Matches,
		m.StoredMatches,
		m.WatchersActive,
		m.UptimeSeconds,
		m.Info,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}
