// Package types defines the core data model for Logwarden: patterns,
// sources, matches, and the severity scale shared by every component.
package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Severity is the ordinal importance rank of a pattern or match.
// Lower is more severe: 1 (critical) through 4 (notice).
type Severity int

const (
	// SeverityCritical marks patterns whose matches need immediate attention.
	SeverityCritical Severity = 1

	// SeverityError marks failures that are serious but not service-ending.
	SeverityError Severity = 2

	// SeverityWarning marks conditions worth investigating.
	SeverityWarning Severity = 3

	// SeverityNotice marks informational matches.
	SeverityNotice Severity = 4
)

// String returns the lowercase name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityNotice:
		return "notice"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Valid reports whether the severity is within the defined 1..4 range.
func (s Severity) Valid() bool {
	return s >= SeverityCritical && s <= SeverityNotice
}

// ParseSeverity converts a configuration value into a Severity.
// It accepts the names critical, error, warning, notice (any case)
// as well as the ordinals "1".."4".
func ParseSeverity(value string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "critical":
		return SeverityCritical, nil
	case "error":
		return SeverityError, nil
	case "warning":
		return SeverityWarning, nil
	case "notice":
		return SeverityNotice, nil
	}

	if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
		s := Severity(n)
		if s.Valid() {
			return s, nil
		}
	}

	return 0, fmt.Errorf("invalid severity %q: must be critical, error, warning, notice, or 1-4", value)
}

// Source describes a single log file under continuous tail.
//
// A Source is exclusively owned and mutated by its watcher. Other
// components may read the counter fields for display, but those reads are
// advisory: they are performed without locking and may be slightly stale.
type Source struct {
	// Path is the filesystem path of the log file.
	Path string

	// Name is the display name for the source. Defaults to the base
	// name of Path when not configured.
	Name string

	// Category tags the source for reporting (e.g. "system", "auth").
	Category string

	// Enabled indicates whether the source should be watched.
	Enabled bool

	// Offset is the read cursor in bytes. It advances only after a
	// complete, newline-terminated line has been consumed.
	Offset int64

	// LinesProcessed counts complete lines read from this source.
	LinesProcessed int64

	// MatchesFound counts matches produced from this source.
	MatchesFound int64

	// LastCheck is when the watcher last polled the file.
	LastCheck time.Time
}

// Match is one detected occurrence of a pattern in one line from one
// source. Matches are immutable once created.
type Match struct {
	// Timestamp is the wall-clock detection time.
	Timestamp time.Time

	// Source is the display name of the source the line came from.
	Source string

	// Pattern is the name of the pattern that matched.
	Pattern string

	// Severity is the matched pattern's severity.
	Severity Severity

	// Category is the matched pattern's category tag.
	Category string

	// Line is the full raw line, untruncated. Truncation is a
	// display-only concern.
	Line string
}
