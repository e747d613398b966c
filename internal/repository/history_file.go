package repository

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"FairVal/internal/domain/models"
	drepo "FairVal/internal/domain/repository"
)

// FileHistoryStore keeps the recent-search history in a JSONL flat file:
// one entry per line, most recent first. The whole file is rewritten on
// every append; at ten entries that is cheaper than being clever.
type FileHistoryStore struct {
	path  string
	limit int

	mu      sync.Mutex
	entries []models.HistoryEntry
}

// NewFileHistoryStore creates a history store persisting at path, keeping at
// most limit entries.
func NewFileHistoryStore(path string, limit int) drepo.HistoryStore {
	return &FileHistoryStore{path: path, limit: limit}
}

// Load reads the persisted history. A missing file is an empty history, not
// an error; corrupt lines are skipped so one bad write cannot brick startup.
func (s *FileHistoryStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.entries = nil
			return nil
		}
		return fmt.Errorf("open history %s: %w", s.path, err)
	}
	defer f.Close()

	var entries []models.HistoryEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var e models.HistoryEntry
		if err := json.Unmarshal([]byte(line), &e); err != nil || e.Ticker == "" {
			continue
		}
		entries = append(entries, e)
		if len(entries) == s.limit {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read history %s: %w", s.path, err)
	}
	s.entries = entries
	return nil
}

// Append records a lookup: an existing entry for the same ticker moves to
// the front with the new timestamp, and the oldest entry falls off past the
// limit. The file is rewritten atomically via a temp-file rename.
func (s *FileHistoryStore) Append(entry models.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]models.HistoryEntry, 0, len(s.entries)+1)
	next = append(next, entry)
	for _, e := range s.entries {
		if e.Ticker == entry.Ticker {
			continue
		}
		next = append(next, e)
	}
	if len(next) > s.limit {
		next = next[:s.limit]
	}

	if err := s.persist(next); err != nil {
		return err
	}
	s.entries = next
	return nil
}

// List returns the history most-recent-first. The slice is a copy.
func (s *FileHistoryStore) List() []models.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.HistoryEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *FileHistoryStore) persist(entries []models.HistoryEntry) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create history dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".history-*")
	if err != nil {
		return fmt.Errorf("create temp history: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			tmp.Close()
			return fmt.Errorf("encode history entry: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp history: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace history %s: %w", s.path, err)
	}
	return nil
}
