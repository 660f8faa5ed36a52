// Package export serializes retained matches to a file.
//
// Both formats write to a temporary file in the destination directory and
// rename it into place on success, so a failed export never leaves
// partial output behind.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/logwarden/logwarden/pkg/types"
)

// Supported export formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// record is the structured form of one exported match.
type record struct {
	Timestamp string `json:"timestamp"`
	Source    string `json:"source"`
	Pattern   string `json:"pattern"`
	Severity  int    `json:"severity"`
	Category  string `json:"category"`
	Line      string `json:"line"`
}

// csvHeader is the fixed column layout of the tabular format.
var csvHeader = []string{"Timestamp", "Source", "Pattern", "Severity", "Category", "Line"}

// Export writes the matches to destination in the given format.
// An unknown format or an unwritable destination yields a
// *types.ExportError; Export never panics and never leaves a partial
// file at the destination.
func Export(matches []types.Match, format, destination string) error {
	switch format {
	case FormatJSON, FormatCSV:
	default:
		return &types.ExportError{
			Format:      format,
			Destination: destination,
			Err:         fmt.Errorf("unknown format (supported: %s, %s)", FormatJSON, FormatCSV),
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(destination), ".logwarden-export-*")
	if err != nil {
		return &types.ExportError{Format: format, Destination: destination, Err: err}
	}
	tmpPath := tmp.Name()

	if err := write(tmp, matches, format); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &types.ExportError{Format: format, Destination: destination, Err: err}
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &types.ExportError{Format: format, Destination: destination, Err: err}
	}

	if err := os.Rename(tmpPath, destination); err != nil {
		os.Remove(tmpPath)
		return &types.ExportError{Format: format, Destination: destination, Err: err}
	}

	return nil
}

func write(f *os.File, matches []types.Match, format string) error {
	switch format {
	case FormatJSON:
		return writeJSON(f, matches)
	case FormatCSV:
		return writeCSV(f, matches)
	}
	return fmt.Errorf("unknown format %q", format)
}

// writeJSON emits an array of records, one per match.
func writeJSON(f *os.File, matches []types.Match) error {
	records := make([]record, 0, len(matches))
	for _, m := range matches {
		records = append(records, record{
			Timestamp: m.Timestamp.Format(time.RFC3339),
			Source:    m.Source,
			Pattern:   m.Pattern,
			Severity:  int(m.Severity),
			Category:  m.Category,
			Line:      m.Line,
		})
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// writeCSV emits a header row and one row per match. encoding/csv
// handles quoting of embedded delimiters and newlines in the line field.
func writeCSV(f *os.File, matches []types.Match) error {
	w := csv.NewWriter(f)

	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, m := range matches {
		row := []string{
			m.Timestamp.Format(time.RFC3339),
			m.Source,
			m.Pattern,
			strconv.Itoa(int(m.Severity)),
			m.Category,
			m.Line,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
