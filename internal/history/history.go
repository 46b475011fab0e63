// Package history keeps the lines entered during a session and answers
// prefix queries for history based autosuggestion.
package history

import (
	"strings"
	"sync"
	"time"
)

// DefaultCapacity is the number of entries kept when none is configured.
const DefaultCapacity = 500

// Entry is one accepted line.
type Entry struct {
	Line string
	Time time.Time
}

// Store is a fixed-capacity, thread-safe circular buffer of entries.
// When the store is full, the oldest entry is dropped.
type Store struct {
	mu    sync.Mutex
	items []Entry
	head  int // index of oldest entry
	count int
	gen   uint64
	now   func() time.Time
}

// NewStore creates a Store holding up to capacity entries.
// If capacity is <= 0, DefaultCapacity is used.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{items: make([]Entry, capacity), now: time.Now}
}

// Add records line. Blank lines, lines starting with a space and repeats
// of the previous entry are ignored. It reports whether line was stored.
func (s *Store) Add(line string) bool {
	if strings.TrimSpace(line) == "" || strings.HasPrefix(line, " ") {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count > 0 && s.items[s.index(s.count-1)].Line == line {
		return false
	}
	s.push(Entry{Line: line, Time: s.now()})
	return true
}

// Import appends entries read from another source, oldest first.
func (s *Store) Import(entries []ImportEntry) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range entries {
		if strings.TrimSpace(e.Command) == "" {
			continue
		}
		ts := e.Timestamp
		if ts.IsZero() {
			ts = s.now()
		}
		s.push(Entry{Line: e.Command, Time: ts})
		n++
	}
	return n
}

func (s *Store) push(e Entry) {
	s.gen++
	s.items[s.index(s.count)] = e
	if s.count == len(s.items) {
		s.head = (s.head + 1) % len(s.items)
	} else {
		s.count++
	}
}

func (s *Store) index(i int) int {
	return (s.head + i) % len(s.items)
}

// Entries returns the stored entries, oldest first.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, s.count)
	for i := range out {
		out[i] = s.items[s.index(i)]
	}
	return out
}

// Lines returns the stored lines, oldest first.
func (s *Store) Lines() []string {
	entries := s.Entries()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Line
	}
	return out
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Cap returns the capacity of the store.
func (s *Store) Cap() int {
	return len(s.items)
}

// Clear removes every entry.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.items)
	s.head = 0
	s.count = 0
	s.gen++
}

// Generation changes whenever the stored entries change.
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Suggestion finds the most recent entry starting with prefix.
// Returns empty string if no match found.
func (s *Store) Suggestion(prefix string) string {
	if out := s.Suggestions(prefix, 1); len(out) > 0 {
		return out[0]
	}
	return ""
}

// Suggestions finds up to limit unique entries that extend prefix,
// most recent first.
func (s *Store) Suggestions(prefix string, limit int) []string {
	if prefix == "" || limit <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool)
	var results []string
	for i := s.count - 1; i >= 0 && len(results) < limit; i-- {
		line := s.items[s.index(i)].Line
		if strings.HasPrefix(line, prefix) && line != prefix && !seen[line] {
			seen[line] = true
			results = append(results, line)
		}
	}
	return results
}

// Search returns up to limit unique entries containing query, most recent
// first, skipping the first offset matches. An empty query matches all.
func (s *Store) Search(query string, offset, limit int) (items []string, atEnd bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := strings.ToLower(query)
	seen := make(map[string]bool)
	skipped := 0
	for i := s.count - 1; i >= 0; i-- {
		line := s.items[s.index(i)].Line
		if seen[line] || !strings.Contains(strings.ToLower(line), q) {
			continue
		}
		seen[line] = true
		if skipped < offset {
			skipped++
			continue
		}
		if limit > 0 && len(items) == limit {
			return items, false
		}
		items = append(items, line)
	}
	return items, true
}
