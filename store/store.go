// Package store persists fund snapshots.
package store

import (
	"maps"
	"sync"

	"github.com/bitfsorg/libfund-go/fund"
)

// Store saves and loads the committed state of one fund.
type Store interface {
	// Save replaces the stored state.
	Save(state *fund.State) error

	// Load returns the stored state, or ErrNotFound.
	Load() (*fund.State, error)
}

// Compile-time interface checks.
var (
	_ Store      = (*MemStore)(nil)
	_ Store      = (*BoltStore)(nil)
	_ fund.Store = Store(nil)
)

// MemStore is an in-memory Store for testing.
type MemStore struct {
	mu    sync.RWMutex
	state *fund.State
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// Save implements Store.
func (s *MemStore) Save(state *fund.State) error {
	if state == nil {
		return ErrNilState
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = cloneState(state)
	return nil
}

// Load implements Store.
func (s *MemStore) Load() (*fund.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return nil, ErrNotFound
	}
	return cloneState(s.state), nil
}

func cloneState(s *fund.State) *fund.State {
	out := *s
	out.Balances = maps.Clone(s.Balances)
	out.Allowances = maps.Clone(s.Allowances)
	out.Watermarks = maps.Clone(s.Watermarks)
	out.Dividends = append([]fund.DividendEvent(nil), s.Dividends...)
	return &out
}
