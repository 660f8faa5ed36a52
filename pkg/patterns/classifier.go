package patterns

import (
	"time"

	"github.com/logwarden/logwarden/pkg/types"
)

// Classifier evaluates lines against a registry and produces matches.
//
// Classify is a pure function of (line, registry contents, clock): it
// holds no mutable state of its own and is safe for concurrent use from
// any number of watchers. Cost is O(registered patterns) per line, which
// is adequate for registries of tens of patterns.
type Classifier struct {
	registry *Registry

	// now is the clock used for match timestamps. Replaceable in tests.
	now func() time.Time
}

// NewClassifier creates a classifier over the given registry.
func NewClassifier(registry *Registry) *Classifier {
	return &Classifier{
		registry: registry,
		now:      time.Now,
	}
}

// Classify returns one Match per registered pattern whose regex matches
// the line, in registration order. Matching is not mutually exclusive: a
// single line may produce zero, one, or several matches. The timestamp on
// each match is the wall-clock detection time.
func (c *Classifier) Classify(source, line string) []types.Match {
	matched := c.registry.MatchAll(line)
	if len(matched) == 0 {
		return nil
	}

	detected := c.now()
	matches := make([]types.Match, 0, len(matched))
	for _, p := range matched {
		matches = append(matches, types.Match{
			Timestamp: detected,
			Source:    source,
			Pattern:   p.Name,
			Severity:  p.Severity,
			Category:  p.Category,
			Line:      line,
		})
	}
	return matches
}
