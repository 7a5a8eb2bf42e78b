package storage

import (
	"sync"

	"receipts/internal/core"
)

// RateStore owns the current rate table. The default table is immutable and
// only reachable through Reset.
type RateStore struct {
	mu      sync.RWMutex
	current core.RateTable
}

// NewRateStore starts from the hardcoded defaults.
func NewRateStore() *RateStore {
	return &RateStore{current: core.DefaultRates()}
}

// NewRateStoreFrom starts from a seed table, e.g. one loaded from a rates file.
func NewRateStoreFrom(seed core.RateTable) *RateStore {
	return &RateStore{current: seed.Clone()}
}

// ReplaceAll stores a copy of t. Callers run edits through
// core.RateTable.WithEdit before getting here.
func (s *RateStore) ReplaceAll(t core.RateTable) {
	next := t.Clone()
	s.mu.Lock()
	s.current = next
	s.mu.Unlock()
}

// Update replaces the table with apply's result while holding the lock, so
// concurrent edits never read the same old table. It returns a copy of the
// stored table.
func (s *RateStore) Update(apply func(core.RateTable) core.RateTable) core.RateTable {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = apply(s.current.Clone()).Clone()
	return s.current.Clone()
}

// Reset restores the hardcoded default table.
func (s *RateStore) Reset() {
	next := core.DefaultRates()
	s.mu.Lock()
	s.current = next
	s.mu.Unlock()
}

// Current returns a copy of the current table.
func (s *RateStore) Current() core.RateTable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}
