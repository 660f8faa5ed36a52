// Package types defines configuration types for Logwarden.
package types

import (
	"fmt"
	"path/filepath"
	"time"
)

// Package-level defaults
const (
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
	DefaultLogOutput        = "stdout"
	DefaultPollInterval     = "500ms"
	DefaultSummaryInterval  = "30s"
	DefaultMaxLineLength    = 200
	DefaultMaxStoredMatches = 1000
	DefaultPrometheusPort   = 9200
	DefaultPrometheusPath   = "/metrics"

	MaxStoredMatchesLimit = 100000
)

// Minimum interval thresholds (conservative settings to keep the poll
// loops from busy-spinning).
var (
	MinPollInterval    = 10 * time.Millisecond
	MinSummaryInterval = 1 * time.Second
)

// Valid log settings
var (
	validLogLevels = map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	validLogFormats = map[string]bool{
		"json": true,
		"text": true,
	}

	validLogOutputs = map[string]bool{
		"stdout": true,
		"stderr": true,
		"file":   true,
	}
)

// Config is the top-level configuration structure.
type Config struct {
	// Settings contains global tunables and logging configuration.
	Settings Settings `json:"settings" yaml:"settings"`

	// Patterns contains the classification rules.
	Patterns []PatternConfig `json:"patterns" yaml:"patterns"`

	// Sources contains the log files to tail.
	Sources []SourceConfig `json:"sources" yaml:"sources"`

	// Exporters contains exporter configurations.
	Exporters ExporterConfigs `json:"exporters,omitempty" yaml:"exporters,omitempty"`
}

// Settings contains global configuration settings.
type Settings struct {
	// Logging configuration
	LogLevel  string `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`
	LogFormat string `json:"logFormat,omitempty" yaml:"logFormat,omitempty"`
	LogOutput string `json:"logOutput,omitempty" yaml:"logOutput,omitempty"`
	LogFile   string `json:"logFile,omitempty" yaml:"logFile,omitempty"`

	// Intervals (stored as strings, parsed to time.Duration)
	PollIntervalString    string `json:"pollInterval,omitempty" yaml:"pollInterval,omitempty"`
	SummaryIntervalString string `json:"summaryInterval,omitempty" yaml:"summaryInterval,omitempty"`

	// Parsed duration fields (not in JSON/YAML)
	PollInterval    time.Duration `json:"-" yaml:"-"`
	SummaryInterval time.Duration `json:"-" yaml:"-"`

	// MaxLineLength bounds line length in rendered summaries. Stored
	// matches always keep the full raw line.
	MaxLineLength int `json:"maxLineLength,omitempty" yaml:"maxLineLength,omitempty"`

	// MaxStoredMatches is the capacity of the bounded match store.
	MaxStoredMatches int `json:"maxStoredMatches,omitempty" yaml:"maxStoredMatches,omitempty"`

	// OffsetStatePath, when set, is the file where per-source read
	// offsets are persisted at clean shutdown and resumed from at the
	// next start. Empty disables offset persistence.
	OffsetStatePath string `json:"offsetStatePath,omitempty" yaml:"offsetStatePath,omitempty"`
}

// PatternConfig represents a single classification rule.
type PatternConfig struct {
	// Name is the unique identifier for this pattern.
	Name string `json:"name" yaml:"name"`

	// Regex is the (case-insensitive) expression matched against lines.
	Regex string `json:"regex" yaml:"regex"`

	// Description documents what the pattern detects.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Severity accepts critical, error, warning, notice, or 1-4.
	Severity string `json:"severity" yaml:"severity"`

	// Category tags the pattern for reporting.
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
}

// SourceConfig represents a single log file to tail.
type SourceConfig struct {
	// Path is the filesystem path of the log file.
	Path string `json:"path" yaml:"path"`

	// Name is an optional display name; defaults to the base name of Path.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Category tags the source for reporting.
	Category string `json:"category,omitempty" yaml:"category,omitempty"`

	// Enabled indicates whether this source is watched.
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// ExporterConfigs contains the configuration for all exporters.
type ExporterConfigs struct {
	Prometheus *PrometheusExporterConfig `json:"prometheus,omitempty" yaml:"prometheus,omitempty"`
}

// PrometheusExporterConfig configures the Prometheus metrics exporter.
type PrometheusExporterConfig struct {
	Enabled   bool   `json:"enabled" yaml:"enabled"`
	Port      int    `json:"port,omitempty" yaml:"port,omitempty"`
	Path      string `json:"path,omitempty" yaml:"path,omitempty"`
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// ApplyDefaults fills in defaults and parses the string duration fields.
func (c *Config) ApplyDefaults() error {
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = DefaultLogLevel
	}
	if c.Settings.LogFormat == "" {
		c.Settings.LogFormat = DefaultLogFormat
	}
	if c.Settings.LogOutput == "" {
		c.Settings.LogOutput = DefaultLogOutput
	}

	if c.Settings.PollIntervalString == "" {
		c.Settings.PollIntervalString = DefaultPollInterval
	}
	if c.Settings.SummaryIntervalString == "" {
		c.Settings.SummaryIntervalString = DefaultSummaryInterval
	}

	poll, err := time.ParseDuration(c.Settings.PollIntervalString)
	if err != nil {
		return fmt.Errorf("invalid pollInterval %q: %w", c.Settings.PollIntervalString, err)
	}
	c.Settings.PollInterval = poll

	summary, err := time.ParseDuration(c.Settings.SummaryIntervalString)
	if err != nil {
		return fmt.Errorf("invalid summaryInterval %q: %w", c.Settings.SummaryIntervalString, err)
	}
	c.Settings.SummaryInterval = summary

	if c.Settings.MaxLineLength == 0 {
		c.Settings.MaxLineLength = DefaultMaxLineLength
	}
	if c.Settings.MaxStoredMatches == 0 {
		c.Settings.MaxStoredMatches = DefaultMaxStoredMatches
	}

	// Source display names default to the file's base name.
	for i := range c.Sources {
		if c.Sources[i].Name == "" {
			c.Sources[i].Name = filepath.Base(c.Sources[i].Path)
		}
	}

	if c.Exporters.Prometheus != nil && c.Exporters.Prometheus.Enabled {
		if c.Exporters.Prometheus.Port == 0 {
			c.Exporters.Prometheus.Port = DefaultPrometheusPort
		}
		if c.Exporters.Prometheus.Path == "" {
			c.Exporters.Prometheus.Path = DefaultPrometheusPath
		}
	}

	return nil
}

// Validate checks the configuration for errors. ApplyDefaults must be
// called first so the duration fields are parsed.
func (c *Config) Validate() error {
	if !validLogLevels[c.Settings.LogLevel] {
		return fmt.Errorf("invalid logLevel %q", c.Settings.LogLevel)
	}
	if !validLogFormats[c.Settings.LogFormat] {
		return fmt.Errorf("invalid logFormat %q (must be json or text)", c.Settings.LogFormat)
	}
	if !validLogOutputs[c.Settings.LogOutput] {
		return fmt.Errorf("invalid logOutput %q (must be stdout, stderr, or file)", c.Settings.LogOutput)
	}
	if c.Settings.LogOutput == "file" && c.Settings.LogFile == "" {
		return fmt.Errorf("logFile must be set when logOutput is %q", "file")
	}

	if c.Settings.PollInterval < MinPollInterval {
		return fmt.Errorf("pollInterval %v is below the minimum %v", c.Settings.PollInterval, MinPollInterval)
	}
	if c.Settings.SummaryInterval < MinSummaryInterval {
		return fmt.Errorf("summaryInterval %v is below the minimum %v", c.Settings.SummaryInterval, MinSummaryInterval)
	}

	if c.Settings.MaxLineLength < 0 {
		return fmt.Errorf("maxLineLength must not be negative, got %d", c.Settings.MaxLineLength)
	}
	if c.Settings.MaxStoredMatches < 1 || c.Settings.MaxStoredMatches > MaxStoredMatchesLimit {
		return fmt.Errorf("maxStoredMatches must be between 1 and %d, got %d",
			MaxStoredMatchesLimit, c.Settings.MaxStoredMatches)
	}

	if len(c.Patterns) == 0 {
		return fmt.Errorf("at least one pattern must be configured")
	}
	seen := make(map[string]bool, len(c.Patterns))
	for i, p := range c.Patterns {
		if p.Name == "" {
			return fmt.Errorf("pattern %d: name is required", i)
		}
		if p.Regex == "" {
			return fmt.Errorf("pattern %q: regex is required", p.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("pattern %q: duplicate name", p.Name)
		}
		seen[p.Name] = true
		if p.Severity != "" {
			if _, err := ParseSeverity(p.Severity); err != nil {
				return fmt.Errorf("pattern %q: %w", p.Name, err)
			}
		}
	}

	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one source must be configured")
	}
	for i, s := range c.Sources {
		if s.Path == "" {
			return fmt.Errorf("source %d: path is required", i)
		}
	}

	if prom := c.Exporters.Prometheus; prom != nil && prom.Enabled {
		if prom.Port < 0 || prom.Port > 65535 {
			return fmt.Errorf("prometheus exporter: invalid port %d", prom.Port)
		}
		if prom.Path != "" && prom.Path[0] != '/' {
			return fmt.Errorf("prometheus exporter: path must start with '/'")
		}
	}

	return nil
}

// EnabledSources returns the sources marked enabled, converted to the
// runtime Source model.
func (c *Config) EnabledSources() []*Source {
	sources := make([]*Source, 0, len(c.Sources))
	for _, sc := range c.Sources {
		if !sc.Enabled {
			continue
		}
		sources = append(sources, &Source{
			Path:     sc.Path,
			Name:     sc.Name,
			Category: sc.Category,
			Enabled:  true,
		})
	}
	return sources
}
