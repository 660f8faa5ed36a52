// Package watcher tails a single log source and feeds the classifier.
//
// Each watcher owns exactly one Source and runs as one goroutine. The
// polling loop is an explicit state machine (Initializing, Tailing,
// Stalled, Stopped) so cancellation latency stays bounded: the only
// suspension point per iteration is the poll sleep, and the shared
// context is observed at every poll boundary.
package watcher

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/logwarden/logwarden/pkg/logger"
	"github.com/logwarden/logwarden/pkg/patterns"
	"github.com/logwarden/logwarden/pkg/stats"
	"github.com/logwarden/logwarden/pkg/store"
	"github.com/logwarden/logwarden/pkg/types"
)

// State is the lifecycle state of a watcher, readable concurrently as
// advisory telemetry.
type State int32

const (
	// StateInitializing means the watcher has not verified its source yet.
	StateInitializing State = iota

	// StateTailing means the watcher is polling for new lines.
	StateTailing

	// StateStalled means the last poll hit a transient failure (such as a
	// mid-rotation rename); the watcher keeps retrying and returns to
	// Tailing on the next successful poll.
	StateStalled

	// StateStopped means the watcher has exited, either cooperatively or
	// after an unrecoverable per-source failure.
	StateStopped
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateTailing:
		return "tailing"
	case StateStalled:
		return "stalled"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Config carries the dependencies and tunables for one watcher.
type Config struct {
	// Source is the log file to tail. The watcher takes exclusive
	// ownership of its mutable fields.
	Source *types.Source

	// Classifier evaluates each complete line.
	Classifier *patterns.Classifier

	// Stats receives per-line and per-match counter updates.
	Stats *stats.Aggregator

	// Store retains produced matches.
	Store *store.MatchStore

	// PollInterval bounds the sleep between polls when no new data is
	// available.
	PollInterval time.Duration

	// ResumeOffset, when non-negative, is a persisted read cursor to
	// resume from instead of starting at end-of-file. Zero is a valid
	// cursor (an empty or freshly rotated file at last shutdown); a
	// negative value means no persisted cursor. It is clamped to the
	// current file size at initialization.
	ResumeOffset int64
}

// Watcher tails one file without ever blocking longer than the poll
// interval.
type Watcher struct {
	source       *types.Source
	classifier   *patterns.Classifier
	stats        *stats.Aggregator
	store        *store.MatchStore
	pollInterval time.Duration
	resumeOffset int64

	state atomic.Int32
}

// New creates a watcher for the given source. A negative ResumeOffset
// means no persisted cursor: the watcher starts at end-of-file.
func New(cfg Config) *Watcher {
	return &Watcher{
		source:       cfg.Source,
		classifier:   cfg.Classifier,
		stats:        cfg.Stats,
		store:        cfg.Store,
		pollInterval: cfg.PollInterval,
		resumeOffset: cfg.ResumeOffset,
	}
}

// State returns the watcher's current lifecycle state.
func (w *Watcher) State() State {
	return State(w.state.Load())
}

// Source returns the watched source for advisory reads. The counter
// fields are mutated only by this watcher; readers tolerate staleness.
func (w *Watcher) Source() *types.Source {
	return w.source
}

// Run tails the source until the context is cancelled or an
// unrecoverable per-source failure occurs. It blocks; the engine runs it
// in a dedicated goroutine. Run never returns an error that should abort
// the engine - all failures are source-local.
func (w *Watcher) Run(ctx context.Context) {
	defer w.state.Store(int32(StateStopped))

	if !w.initialize() {
		return
	}

	w.state.Store(int32(StateTailing))
	logger.WithField("source", w.source.Name).Debugf("watcher tailing %s from offset %d", w.source.Path, w.source.Offset)

	for {
		select {
		case <-ctx.Done():
			logger.WithField("source", w.source.Name).Debugf("watcher stopping")
			return
		default:
		}

		consumed, fatal := w.poll()
		if fatal {
			return
		}

		if consumed {
			// More data may already be available; poll again without
			// sleeping so a burst drains promptly.
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.pollInterval):
		}
	}
}

// initialize verifies the source is readable and sets the starting
// offset. Failure is reported per-source and leaves the engine unaffected.
func (w *Watcher) initialize() bool {
	f, err := os.Open(w.source.Path)
	if err != nil {
		accessErr := &types.SourceAccessError{Path: w.source.Path, Err: err}
		logger.WithError(accessErr).Warnf("skipping source %s", w.source.Name)
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		accessErr := &types.SourceAccessError{Path: w.source.Path, Err: err}
		logger.WithError(accessErr).Warnf("skipping source %s", w.source.Name)
		return false
	}

	// New monitoring sessions start at current end-of-file unless a
	// prior offset was explicitly resumed. A resumed cursor beyond the
	// current size means the file was replaced between runs; read it
	// from the start rather than reporting a spurious rotation.
	if w.resumeOffset >= 0 {
		if w.resumeOffset > info.Size() {
			w.source.Offset = 0
		} else {
			w.source.Offset = w.resumeOffset
		}
	} else {
		w.source.Offset = info.Size()
	}

	return true
}

// poll performs one tail cycle. It returns whether any complete lines
// were consumed and whether the failure was fatal to this watcher.
func (w *Watcher) poll() (consumed bool, fatal bool) {
	w.source.LastCheck = time.Now()

	info, err := os.Stat(w.source.Path)
	if err != nil {
		if os.IsPermission(err) {
			logger.WithError(&types.SourceAccessError{Path: w.source.Path, Err: err}).
				Warnf("watcher for %s lost access, stopping", w.source.Name)
			return false, true
		}
		// Missing or briefly unavailable (e.g. mid-rotation rename):
		// transient, retry next cycle.
		w.state.Store(int32(StateStalled))
		logger.WithError(&types.SourceIOError{Path: w.source.Path, Err: err}).
			Debugf("transient stat failure on %s", w.source.Name)
		return false, false
	}

	w.state.Store(int32(StateTailing))

	// Truncation or rotation: the cursor is past the end of the file.
	if info.Size() < w.source.Offset {
		logger.WithField("source", w.source.Name).
			Infof("source %s truncated or rotated (size %d < offset %d), resetting", w.source.Path, info.Size(), w.source.Offset)
		w.source.Offset = 0
	}

	if info.Size() == w.source.Offset {
		return false, false
	}

	f, err := os.Open(w.source.Path)
	if err != nil {
		if os.IsPermission(err) {
			logger.WithError(&types.SourceAccessError{Path: w.source.Path, Err: err}).
				Warnf("watcher for %s lost access, stopping", w.source.Name)
			return false, true
		}
		w.state.Store(int32(StateStalled))
		logger.WithError(&types.SourceIOError{Path: w.source.Path, Err: err}).
			Debugf("transient open failure on %s", w.source.Name)
		return false, false
	}
	defer f.Close()

	if _, err := f.Seek(w.source.Offset, io.SeekStart); err != nil {
		logger.WithError(&types.SourceIOError{Path: w.source.Path, Err: err}).
			Warnf("seek failure on %s", w.source.Name)
		return false, false
	}

	return w.consumeLines(f), false
}

// consumeLines reads every newly available complete line. A trailing
// partial line (no terminator yet) is left unconsumed: the offset and
// line counters advance only past fully terminated lines, so the next
// cycle re-reads the partial tail once it completes.
func (w *Watcher) consumeLines(f *os.File) bool {
	reader := bufio.NewReader(f)

	var advanced int64
	var lines int64
	var matched int64

	for {
		raw, err := reader.ReadString('\n')
		if err != nil {
			// Partial line (or genuine EOF): do not consume this cycle.
			break
		}

		advanced += int64(len(raw))
		lines++

		// Every complete line is classified, including ones empty after
		// trimming: a pattern like ^$ may legitimately match them.
		line := strings.TrimRight(raw, "\r\n")
		for _, match := range w.classifier.Classify(w.source.Name, line) {
			w.stats.Update(match.Source, match.Pattern, match.Severity, match.Category)
			w.store.Append(match)
			matched++
		}
	}

	if lines == 0 {
		return false
	}

	w.stats.IncrementLines(lines)
	w.source.Offset += advanced
	w.source.LinesProcessed += lines
	w.source.MatchesFound += matched
	return true
}
