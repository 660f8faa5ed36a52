// Package report decides when summaries are emitted and renders them.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/logwarden/logwarden/pkg/stats"
	"github.com/logwarden/logwarden/pkg/types"
)

// ShouldEmit reports whether a periodic summary is due. It is a stateless
// function of its arguments: the caller owns lastEmit. On the periodic
// path a summary is never emitted more than once per interval; forced or
// final flushes bypass this predicate entirely.
func ShouldEmit(now, lastEmit time.Time, interval time.Duration) bool {
	return now.Sub(lastEmit) >= interval
}

// Render produces a plain-text summary from a statistics snapshot and the
// most recent matches. Lines are truncated to maxLineLength for display;
// stored matches keep their full raw line.
func Render(snap stats.Snapshot, recent []types.Match, maxLineLength int) string {
	now := time.Now()
	var b strings.Builder

	fmt.Fprintf(&b, "=== Log Monitoring Summary ===\n")
	fmt.Fprintf(&b, "Uptime: %s\n", snap.Uptime(now).Round(time.Second))
	fmt.Fprintf(&b, "Lines processed: %d\n", snap.TotalLines)
	fmt.Fprintf(&b, "Matches: %d\n", snap.TotalMatches)

	if len(snap.PerSeverity) > 0 {
		b.WriteString("By severity:\n")
		for s := types.SeverityCritical; s <= types.SeverityNotice; s++ {
			if count, ok := snap.PerSeverity[s]; ok {
				fmt.Fprintf(&b, "  %-8s %d\n", s.String(), count)
			}
		}
	}

	if len(snap.PerCategory) > 0 {
		b.WriteString("By category:\n")
		for _, category := range sortedKeys(snap.PerCategory) {
			fmt.Fprintf(&b, "  %-12s %d\n", category, snap.PerCategory[category])
		}
	}

	if len(snap.PerPattern) > 0 {
		b.WriteString("Top patterns:\n")
		for _, pc := range topPatterns(snap.PerPattern, 10) {
			fmt.Fprintf(&b, "  %-20s %d\n", pc.name, pc.count)
		}
	}

	if len(recent) > 0 {
		b.WriteString("Recent matches:\n")
		for _, m := range recent {
			fmt.Fprintf(&b, "  %s [%s] %s/%s: %s\n",
				m.Timestamp.Format("15:04:05"),
				m.Severity.String(),
				m.Source,
				m.Pattern,
				Truncate(m.Line, maxLineLength))
		}
	}

	return b.String()
}

// Truncate shortens a line for display. Zero or negative max disables
// truncation.
func Truncate(line string, max int) string {
	if max <= 0 || len(line) <= max {
		return line
	}
	if max <= 3 {
		return line[:max]
	}
	return line[:max-3] + "..."
}

type patternCount struct {
	name  string
	count int64
}

// topPatterns returns up to n patterns ordered by descending count,
// with name as the tie-break so output is deterministic.
func topPatterns(perPattern map[string]int64, n int) []patternCount {
	counts := make([]patternCount, 0, len(perPattern))
	for name, count := range perPattern {
		counts = append(counts, patternCount{name: name, count: count})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].name < counts[j].name
	})
	if len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
