// Package stats provides thread-safe match statistics for the engine.
package stats

import (
	"sync"
	"time"

	"github.com/logwarden/logwarden/pkg/types"
)

// Aggregator tracks line and match counters across all watchers.
//
// Exactly two mutators exist, Update and IncrementLines, both guarded by
// a single mutex so concurrent watchers cannot corrupt the shared
// counters. Snapshot takes the same lock only long enough to copy state,
// so report rendering never blocks writers for the duration of rendering.
type Aggregator struct {
	mu               sync.Mutex
	totalLines       int64
	totalMatches     int64
	perPattern       map[string]int64
	perSourcePattern map[string]map[string]int64
	perSeverity      map[types.Severity]int64
	perCategory      map[string]int64
	startTime        time.Time
	lastUpdate       time.Time
}

// Snapshot is a point-in-time copy of the aggregator's state. All maps
// are deep copies owned by the caller.
type Snapshot struct {
	TotalLines       int64
	TotalMatches     int64
	PerPattern       map[string]int64
	PerSourcePattern map[string]map[string]int64
	PerSeverity      map[types.Severity]int64
	PerCategory      map[string]int64
	StartTime        time.Time
	LastUpdate       time.Time
}

// NewAggregator creates an aggregator with the current time as its start.
func NewAggregator() *Aggregator {
	return &Aggregator{
		perPattern:       make(map[string]int64),
		perSourcePattern: make(map[string]map[string]int64),
		perSeverity:      make(map[types.Severity]int64),
		perCategory:      make(map[string]int64),
		startTime:        time.Now(),
	}
}

// Update records one match from the given source and pattern.
func (a *Aggregator) Update(source, pattern string, severity types.Severity, category string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalMatches++
	a.perPattern[pattern]++
	a.perSeverity[severity]++
	if category != "" {
		a.perCategory[category]++
	}

	bySource := a.perSourcePattern[source]
	if bySource == nil {
		bySource = make(map[string]int64)
		a.perSourcePattern[source] = bySource
	}
	bySource[pattern]++

	a.lastUpdate = time.Now()
}

// IncrementLines adds count processed lines to the total.
func (a *Aggregator) IncrementLines(count int64) {
	if count <= 0 {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalLines += count
	a.lastUpdate = time.Now()
}

// Snapshot returns a deep copy of the current state. Two snapshots taken
// with no intervening updates are equal.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap := Snapshot{
		TotalLines:       a.totalLines,
		TotalMatches:     a.totalMatches,
		PerPattern:       make(map[string]int64, len(a.perPattern)),
		PerSourcePattern: make(map[string]map[string]int64, len(a.perSourcePattern)),
		PerSeverity:      make(map[types.Severity]int64, len(a.perSeverity)),
		PerCategory:      make(map[string]int64, len(a.perCategory)),
		StartTime:        a.startTime,
		LastUpdate:       a.lastUpdate,
	}

	for k, v := range a.perPattern {
		snap.PerPattern[k] = v
	}
	for severity, v := range a.perSeverity {
		snap.PerSeverity[severity] = v
	}
	for k, v := range a.perCategory {
		snap.PerCategory[k] = v
	}
	for source, bySource := range a.perSourcePattern {
		inner := make(map[string]int64, len(bySource))
		for pattern, v := range bySource {
			inner[pattern] = v
		}
		snap.PerSourcePattern[source] = inner
	}

	return snap
}

// Uptime returns how long the aggregator has been tracking.
func (s Snapshot) Uptime(now time.Time) time.Duration {
	return now.Sub(s.StartTime)
}
