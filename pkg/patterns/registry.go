// Package patterns provides the classification rule registry and the
// line classifier used by source watchers.
//
// Patterns self-describe with a severity and category; a registry compiles
// each rule once at construction time and is then safe for any number of
// concurrent readers. Classification is deliberately non-exclusive: one
// line can match any number of registered patterns, and MatchAll returns
// them in registration order so multi-match output is reproducible.
package patterns

import (
	"regexp"
	"sort"
	"sync"

	"github.com/logwarden/logwarden/pkg/types"
)

// Pattern is a compiled classification rule. Immutable once registered.
type Pattern struct {
	// Name is the unique identifier for this pattern.
	Name string

	// Description documents what the pattern detects.
	Description string

	// Severity is the importance rank of matches, 1 (critical) to 4 (notice).
	Severity types.Severity

	// Category tags matches for reporting.
	Category string

	// compiled is set once at registration and never modified, so it is
	// safe for concurrent use without further synchronization.
	compiled *regexp.Regexp
}

// Matches reports whether the pattern's regex matches the line. The match
// is a case-insensitive search, not a full-line anchor.
func (p *Pattern) Matches(line string) bool {
	return p.compiled.MatchString(line)
}

// Registry holds compiled classification rules in registration order.
//
// The registry uses a read-write mutex to optimize for the common case of
// many concurrent readers (watchers classifying lines) with writes only
// during construction.
type Registry struct {
	mu      sync.RWMutex
	ordered []*Pattern
	byName  map[string]*Pattern
}

// NewRegistry creates an empty pattern registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*Pattern),
	}
}

// Register compiles and adds a classification rule.
//
// The expression is compiled case-insensitive. Register returns a
// *types.ConfigError if the name is empty or already registered, or if
// the expression fails to compile.
func (r *Registry) Register(name, expr, description string, severity types.Severity, category string) error {
	if name == "" {
		return &types.ConfigError{Reason: "pattern name cannot be empty"}
	}
	if !severity.Valid() {
		return &types.ConfigError{Pattern: name, Reason: "severity must be between 1 (critical) and 4 (notice)"}
	}

	compiled, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		return &types.ConfigError{
			Pattern: name,
			Reason:  "regex failed to compile: " + err.Error(),
			Err:     err,
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[name]; exists {
		return &types.ConfigError{Pattern: name, Reason: "pattern name is already registered"}
	}

	p := &Pattern{
		Name:        name,
		Description: description,
		Severity:    severity,
		Category:    category,
		compiled:    compiled,
	}
	r.byName[name] = p
	r.ordered = append(r.ordered, p)
	return nil
}

// MatchAll returns every pattern whose regex matches the line, in
// registration order. A nil result means no pattern matched.
func (r *Registry) MatchAll(line string) []*Pattern {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*Pattern
	for _, p := range r.ordered {
		if p.compiled.MatchString(line) {
			matched = append(matched, p)
		}
	}
	return matched
}

// Get returns the pattern registered under name, or nil.
func (r *Registry) Get(name string) *Pattern {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[name]
}

// Len returns the number of registered patterns.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ordered)
}

// Names returns a sorted list of registered pattern names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.ordered))
	for _, p := range r.ordered {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}

// FromConfigs builds a registry from pattern configurations. It fails
// with a *types.ConfigError on the first invalid pattern.
func FromConfigs(configs []types.PatternConfig) (*Registry, error) {
	registry := NewRegistry()
	for _, pc := range configs {
		severity := types.SeverityWarning
		if pc.Severity != "" {
			parsed, err := types.ParseSeverity(pc.Severity)
			if err != nil {
				return nil, &types.ConfigError{Pattern: pc.Name, Reason: err.Error(), Err: err}
			}
			severity = parsed
		}
		if err := registry.Register(pc.Name, pc.Regex, pc.Description, severity, pc.Category); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
