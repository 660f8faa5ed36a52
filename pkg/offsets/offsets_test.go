package offsets

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "offsets.json")

	state := map[string]int64{
		"/var/log/syslog":   4096,
		"/var/log/auth.log": 0,
	}
	if err := Save(path, state); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != len(state) {
		t.Fatalf("loaded %d entries, want %d", len(loaded), len(state))
	}
	for path, offset := range state {
		if loaded[path] != offset {
			t.Errorf("loaded[%s] = %d, want %d", path, loaded[path], offset)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	loaded, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("missing state file should not be an error, got: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("loaded %d entries from missing file, want 0", len(loaded))
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "offsets.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	loaded, err := Load(path)
	if err == nil {
		t.Error("corrupt state file should surface the parse error")
	}
	if len(loaded) != 0 {
		t.Errorf("corrupt file yielded %d entries, want empty map", len(loaded))
	}
}

func TestSaveOverwritesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "offsets.json")

	if err := Save(path, map[string]int64{"/a": 1}); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	if err := Save(path, map[string]int64{"/a": 2, "/b": 3}); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded["/a"] != 2 || loaded["/b"] != 3 {
		t.Errorf("loaded = %v, want latest state", loaded)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("state directory has %d entries, want 1 (no temp leftovers)", len(entries))
	}
}
