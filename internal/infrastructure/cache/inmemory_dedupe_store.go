package cache

import (
	"context"
	"sync"
	"time"
)

type dedupeEntry struct {
	expiresAt time.Time
}

// InMemoryDedupeStore implements DedupeStore with an in-memory map.
// Suitable for single-instance deployments and testing.
type InMemoryDedupeStore struct {
	mu        sync.RWMutex
	entries   map[string]dedupeEntry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryDedupeStore creates an in-memory dedupe store and starts its
// background cleanup goroutine.
func NewInMemoryDedupeStore() *InMemoryDedupeStore {
	store := &InMemoryDedupeStore{
		entries:  make(map[string]dedupeEntry),
		stopChan: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.cleanupLoop()

	return store
}

// MarkProcessed records a delivery ID with a TTL. Returns true when the ID
// was newly recorded, false when a live entry already exists.
func (s *InMemoryDedupeStore) MarkProcessed(ctx context.Context, deliveryID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, exists := s.entries[deliveryID]; exists {
		if time.Now().Before(e.expiresAt) {
			return false, nil
		}
		// Expired entry, overwrite below
	}

	s.entries[deliveryID] = dedupeEntry{
		expiresAt: time.Now().Add(ttl),
	}
	return true, nil
}

// IsProcessed reports whether a delivery ID has a live entry
func (s *InMemoryDedupeStore) IsProcessed(ctx context.Context, deliveryID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[deliveryID]
	if !exists {
		return false, nil
	}
	if time.Now().After(e.expiresAt) {
		return false, nil
	}
	return true, nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (s *InMemoryDedupeStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryDedupeStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *InMemoryDedupeStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for deliveryID, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, deliveryID)
		}
	}
}

// Size returns the number of entries in the store (for testing/monitoring)
func (s *InMemoryDedupeStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

var _ DedupeStore = (*InMemoryDedupeStore)(nil)
