package ledger

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFile(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "missing.tmp"))

	done, err := l.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(done) != 0 {
		t.Errorf("expected empty set, got %d entries", len(done))
	}
	if l.Exists() {
		t.Error("expected Exists to be false for missing file")
	}
}

func TestRecordAndLoad(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "run.tmp"))

	if err := l.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	for _, id := range []string{"AAAB01", "AAAC01", "AAAD02"} {
		if err := l.Record(id); err != nil {
			t.Fatalf("Record(%s): %v", id, err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	done, err := l.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(done) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(done))
	}
	for _, id := range []string{"AAAB01", "AAAC01", "AAAD02"} {
		if !done[id] {
			t.Errorf("expected %s to be recorded", id)
		}
	}
}

func TestRecordAppendsAcrossRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.tmp")

	l := New(path)
	if err := l.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := l.Record("AAAB01"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	l.Close()

	// Second run appends without clobbering the first entry.
	l = New(path)
	if err := l.Open(); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := l.Record("AAAC01"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	l.Close()

	done, err := l.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !done["AAAB01"] || !done["AAAC01"] {
		t.Errorf("expected both runs' entries, got %v", done)
	}
}

func TestRecordWithoutOpen(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "run.tmp"))
	if err := l.Record("AAAB01"); err == nil {
		t.Error("expected error when recording without Open")
	}
}

func TestClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.tmp")
	if err := os.WriteFile(path, []byte("AAAB01\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	l := New(path)
	if !l.Exists() {
		t.Fatal("expected ledger to exist")
	}
	if err := l.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if l.Exists() {
		t.Error("expected ledger to be gone after Clear")
	}

	// Clearing a missing ledger is fine.
	if err := l.Clear(); err != nil {
		t.Errorf("Clear on missing file: %v", err)
	}
}

func TestRemoveMissingFileFails(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "missing.tmp"))
	if err := l.Remove(); err == nil {
		t.Error("expected error removing missing ledger")
	}
}

func TestLoadSkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.tmp")
	if err := os.WriteFile(path, []byte("AAAB01\n\n  \nAAAC01\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	done, err := New(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(done) != 2 {
		t.Errorf("expected 2 entries, got %d", len(done))
	}
}
