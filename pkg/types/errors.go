package types

import "fmt"

// ConfigError reports an invalid pattern or regex at registration time.
// It is fatal to startup.
type ConfigError struct {
	// Pattern is the name of the offending pattern, when known.
	Pattern string

	// Reason describes what was wrong with the configuration.
	Reason string

	// Err is the underlying error, if any (e.g. a regex compile error).
	Err error
}

func (e *ConfigError) Error() string {
	if e.Pattern != "" {
		return fmt.Sprintf("config error for pattern %q: %s", e.Pattern, e.Reason)
	}
	return fmt.Sprintf("config error: %s", e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// SourceAccessError reports a source file that is missing or unreadable.
// The source is skipped (or stopped); other sources are unaffected.
type SourceAccessError struct {
	Path string
	Err  error
}

func (e *SourceAccessError) Error() string {
	return fmt.Sprintf("source %s is not accessible: %v", e.Path, e.Err)
}

func (e *SourceAccessError) Unwrap() error { return e.Err }

// SourceIOError reports a transient read failure on a source, such as a
// rotation or truncation. The watcher recovers and keeps tailing.
type SourceIOError struct {
	Path string
	Err  error
}

func (e *SourceIOError) Error() string {
	return fmt.Sprintf("source %s read failure: %v", e.Path, e.Err)
}

func (e *SourceIOError) Unwrap() error { return e.Err }

// ExportError reports a failed export: an unknown format or an unwritable
// destination. No partial output is left behind.
type ExportError struct {
	Format      string
	Destination string
	Err         error
}

func (e *ExportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("export to %s (format %q) failed: %v", e.Destination, e.Format, e.Err)
	}
	return fmt.Sprintf("export to %s (format %q) failed", e.Destination, e.Format)
}

func (e *ExportError) Unwrap() error { return e.Err }

// NoAccessibleSourcesError is returned by Engine.Start when none of the
// configured sources can be opened for reading. It is fatal to the run,
// not the process.
type NoAccessibleSourcesError struct {
	// Requested is the number of enabled sources that were configured.
	Requested int
}

func (e *NoAccessibleSourcesError) Error() string {
	return fmt.Sprintf("no accessible sources: none of the %d configured sources could be opened for reading", e.Requested)
}
