package audit

import (
	"context"
	"slices"
	"sync"
)

// MemorySink collects entries in memory. Intended for tests; Entries
// returns a snapshot safe to inspect while recording continues.
type MemorySink struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Record appends the entry.
func (s *MemorySink) Record(ctx context.Context, entry Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.entries = append(s.entries, entry)
	s.mu.Unlock()
	return nil
}

// Entries returns a copy of everything recorded so far.
func (s *MemorySink) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.entries)
}

// NoopSink discards every entry. Useful when auditing is handled elsewhere.
type NoopSink struct{}

// Record drops the entry.
func (NoopSink) Record(ctx context.Context, entry Entry) error { return nil }
