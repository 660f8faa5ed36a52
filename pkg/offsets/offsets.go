// Package offsets persists per-source read cursors across runs.
//
// The state file is a small JSON map of source path to last committed
// byte offset, written at clean shutdown and read at the next start so
// tailing resumes where it left off instead of restarting at
// end-of-file. A missing or corrupt state file degrades to the default
// start-at-end behavior and is never a startup failure.
package offsets

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Load reads the offset state file. A missing file yields an empty map
// and no error; a corrupt file yields an empty map and the parse error
// so the caller can log it and continue.
func Load(path string) (map[string]int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]int64{}, nil
		}
		return map[string]int64{}, err
	}

	offsets := make(map[string]int64)
	if err := json.Unmarshal(data, &offsets); err != nil {
		return map[string]int64{}, err
	}
	return offsets, nil
}

// Save writes the offset state file via a temporary file and rename so a
// crash mid-write cannot corrupt the previous state.
func Save(path string, offsets map[string]int64) error {
	data, err := json.MarshalIndent(offsets, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".logwarden-offsets-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	return os.Rename(tmpPath, path)
}
