// Package cache holds the process-wide store of consolidated player
// records. Entries are keyed strictly by identity; there is no fuzzy
// matching. Mutations are atomic per identity so a concurrent Lookup
// never observes a partially written record.
package cache

import (
	"sync"

	"r6-tracker/internal/domain"
	"r6-tracker/internal/metrics"
)

type entry struct {
	record *domain.ConsolidatedRecord
	// ephemeral marks enemy entries, which only live as long as the
	// current match roster references them.
	ephemeral bool
}

type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
}

func New() *Store {
	return &Store{entries: make(map[string]entry)}
}

// Lookup returns a copy of the cached record for the identity, or nil.
func (s *Store) Lookup(id domain.PlayerIdentity) *domain.ConsolidatedRecord {
	s.mu.RLock()
	e, ok := s.entries[id.Key()]
	s.mu.RUnlock()

	if !ok {
		metrics.CacheMisses.Inc()
		return nil
	}
	metrics.CacheHits.Inc()
	return e.record.Clone()
}

// Store caches a finalized record. The record is copied on the way in so
// later mutation by the caller cannot tear a concurrent read.
func (s *Store) Store(id domain.PlayerIdentity, rec *domain.ConsolidatedRecord, ephemeral bool) {
	cp := rec.Clone()
	s.mu.Lock()
	s.entries[id.Key()] = entry{record: cp, ephemeral: ephemeral}
	s.mu.Unlock()
}

func (s *Store) Invalidate(id domain.PlayerIdentity) {
	s.mu.Lock()
	delete(s.entries, id.Key())
	s.mu.Unlock()
}

func (s *Store) Clear() {
	s.mu.Lock()
	s.entries = make(map[string]entry)
	s.mu.Unlock()
}

// RetainEphemeral drops every ephemeral (enemy) entry whose identity is
// not in keep. Called when the enemy roster changes so a vacated slot
// never serves a stale player.
func (s *Store) RetainEphemeral(keep []domain.PlayerIdentity) {
	keys := make(map[string]bool, len(keep))
	for _, id := range keep {
		keys[id.Key()] = true
	}

	s.mu.Lock()
	for k, e := range s.entries {
		if e.ephemeral && !keys[k] {
			delete(s.entries, k)
		}
	}
	s.mu.Unlock()
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
