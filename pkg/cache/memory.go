package cache

import (
	"context"
	"slices"
	"sync"
	"time"
)

// DefaultCleanupInterval is how often the in-memory backend sweeps expired
// entries.
const DefaultCleanupInterval = time.Minute

// MemoryBackend is an in-process Backend storing values with per-entry
// expiry timestamps. Expired entries are dropped lazily on read and swept by
// a background janitor. Suitable for single-process deployments and tests.
type MemoryBackend struct {
	mu     sync.RWMutex
	items  map[string]memoryItem
	stop   chan struct{}
	done   chan struct{}
	closed bool
}

type memoryItem struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// NewMemoryBackend creates an in-memory backend with a background janitor
// sweeping at DefaultCleanupInterval.
func NewMemoryBackend() *MemoryBackend {
	b := &MemoryBackend{
		items: make(map[string]memoryItem),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go b.janitor(DefaultCleanupInterval)
	return b
}

// Get returns the value for key, treating expired entries as misses.
func (b *MemoryBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b.mu.RLock()
	item, ok := b.items[key]
	b.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if !item.expiresAt.IsZero() && time.Now().After(item.expiresAt) {
		b.mu.Lock()
		// Re-check under the write lock; another writer may have refreshed it.
		if cur, still := b.items[key]; still && !cur.expiresAt.IsZero() && time.Now().After(cur.expiresAt) {
			delete(b.items, key)
		}
		b.mu.Unlock()
		return nil, false, nil
	}
	return slices.Clone(item.value), true, nil
}

// Set stores value under key. Last writer wins.
func (b *MemoryBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	item := memoryItem{value: slices.Clone(value)}
	if ttl > 0 {
		item.expiresAt = time.Now().Add(ttl)
	}
	b.mu.Lock()
	b.items[key] = item
	b.mu.Unlock()
	return nil
}

// Delete removes key.
func (b *MemoryBackend) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	delete(b.items, key)
	b.mu.Unlock()
	return nil
}

// Close stops the janitor goroutine. Safe to call more than once.
func (b *MemoryBackend) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	close(b.stop)
	<-b.done
	return nil
}

func (b *MemoryBackend) janitor(interval time.Duration) {
	defer close(b.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
			now := time.Now()
			b.mu.Lock()
			for key, item := range b.items {
				if !item.expiresAt.IsZero() && now.After(item.expiresAt) {
					delete(b.items, key)
				}
			}
			b.mu.Unlock()
		}
	}
}
