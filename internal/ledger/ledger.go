// Package ledger persists which WGS projects have been fully processed,
// one project id per line, so an interrupted run can resume without
// re-fetching completed work.
package ledger

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// Ledger is an append-only record of completed project ids. Entries become
// durable before Record returns; a crash after Record must not lose them.
type Ledger struct {
	path string
	f    *os.File
}

// New returns a ledger backed by the file at path. The file is not touched
// until Open, Record or Clear is called.
func New(path string) *Ledger {
	return &Ledger{path: path}
}

// Path returns the backing file path.
func (l *Ledger) Path() string { return l.path }

// Exists reports whether the ledger file is present on disk.
func (l *Ledger) Exists() bool {
	_, err := os.Stat(l.path)
	return err == nil
}

// Load returns the set of previously completed project ids. A missing
// ledger file yields an empty set.
func (l *Ledger) Load() (map[string]bool, error) {
	done := make(map[string]bool)

	data, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return done, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: read %s: %w", l.path, err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		if id := strings.TrimSpace(line); id != "" {
			done[id] = true
		}
	}
	return done, nil
}

// Open opens the ledger file for appending, creating it if needed.
func (l *Ledger) Open() error {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("ledger: open %s: %w", l.path, err)
	}
	l.f = f
	return nil
}

// Record appends id and forces it to durable storage before returning.
func (l *Ledger) Record(id string) error {
	if l.f == nil {
		return errors.New("ledger: not open")
	}
	if _, err := fmt.Fprintln(l.f, id); err != nil {
		return fmt.Errorf("ledger: append %s: %w", id, err)
	}
	if err := l.f.Sync(); err != nil {
		return fmt.Errorf("ledger: sync: %w", err)
	}
	return nil
}

// Close closes the append handle if one is open.
func (l *Ledger) Close() error {
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}

// Clear removes the ledger file. A missing file is not an error.
func (l *Ledger) Clear() error {
	l.Close()
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("ledger: remove %s: %w", l.path, err)
	}
	return nil
}

// Remove deletes the ledger file after a fully successful run.
func (l *Ledger) Remove() error {
	l.Close()
	if err := os.Remove(l.path); err != nil {
		return fmt.Errorf("ledger: remove %s: %w", l.path, err)
	}
	return nil
}
