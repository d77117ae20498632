// Package history keeps a bounded, persisted log of executed commands.
package history

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultCapacity is the number of entries kept when no capacity is configured
	DefaultCapacity = 50

	// OutputLimit is the number of output characters stored per entry
	OutputLimit = 200
)

// Entry is one executed command
type Entry struct {
	Command   string    `yaml:"command"`
	Timestamp time.Time `yaml:"timestamp"`
	Success   bool      `yaml:"success"`
	Output    string    `yaml:"output"`
}

// NewEntry builds an entry, keeping only the first OutputLimit characters of output
func NewEntry(command string, success bool, output string, at time.Time) Entry {
	return Entry{
		Command:   command,
		Timestamp: at.UTC(),
		Success:   success,
		Output:    truncateRunes(output, OutputLimit),
	}
}

// truncateRunes cuts s to at most n runes
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Store is a newest-first ring buffer mirrored to a YAML file.
// It is safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	path     string
	capacity int
	entries  []Entry
}

// historyFile is the on-disk document
type historyFile struct {
	Entries []Entry `yaml:"entries"`
}

// NewStore returns an empty store persisting to path.
// An empty path keeps history in memory only.
func NewStore(path string, capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if path != "" {
		path = filepath.Clean(path)
	}
	return &Store{path: path, capacity: capacity}
}

// Load reads history from path, returning an empty store if the file is missing.
// A corrupt file is reported but the returned store is still usable.
func Load(path string, capacity int) (*Store, error) {
	s := NewStore(path, capacity)
	if s.path == "" {
		return s, nil
	}

	data, err := os.ReadFile(s.path) //nolint:gosec // path from config dir
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("read history: %w", err)
	}

	var doc historyFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return s, fmt.Errorf("parse history: %w", err)
	}
	if len(doc.Entries) > s.capacity {
		doc.Entries = doc.Entries[:s.capacity]
	}
	s.entries = doc.Entries
	return s, nil
}

// Add prepends an entry, evicts the oldest beyond capacity and persists
func (s *Store) Add(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]Entry, 0, min(len(s.entries)+1, s.capacity))
	entries = append(entries, e)
	for _, old := range s.entries {
		if len(entries) == s.capacity {
			break
		}
		entries = append(entries, old)
	}
	s.entries = entries
	return s.save()
}

// Clear removes every entry, in memory and on disk
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	return s.save()
}

// Entries returns a copy of the entries, newest first
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of entries
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// save writes the whole file through a temp file and rename.
// Must be called with s.mu held.
func (s *Store) save() error {
	if s.path == "" {
		return nil
	}

	b, err := yaml.Marshal(historyFile{Entries: s.entries})
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close history: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace history: %w", err)
	}
	return nil
}

// Summary returns a one-line description of an entry for list rendering
func (e Entry) Summary() string {
	status := "ok"
	if !e.Success {
		status = "failed"
	}
	return fmt.Sprintf("%s  %-6s  %s", e.Timestamp.Local().Format("01-02 15:04:05"), status, e.Command)
}
