// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package relyingparty

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrStateNotFound is returned by a StateStore for an unknown token.
var ErrStateNotFound = errors.New("openid state not found")

// State is what a begun verification records for the callback to check.
type State struct {
	// Identifier is the normalized identifier the user entered.
	Identifier string
	// ClaimedID is the claimed identifier discovery produced. It is empty
	// when the user entered an OP identifier.
	ClaimedID string
	// ReturnTo is the exact return target sent to the provider.
	ReturnTo  string
	ExpiresAt time.Time
}

// StateStore keeps in-flight verification state between the redirect to the
// provider and its callback, which may reach a different process.
type StateStore interface {
	Put(ctx context.Context, token string, st State) error
	// Get returns ErrStateNotFound for unknown tokens. Expired states may
	// still be returned.
	Get(ctx context.Context, token string) (State, error)
	// Delete is a no-op for unknown tokens.
	Delete(ctx context.Context, token string) error
}

// MemoryStateStore is a process-local StateStore.
type MemoryStateStore struct {
	mu     sync.Mutex
	states map[string]State
}

// NewMemoryStateStore returns an empty MemoryStateStore.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: make(map[string]State)}
}

// Put implements StateStore.
func (m *MemoryStateStore) Put(_ context.Context, token string, st State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[token] = st
	return nil
}

// Get implements StateStore.
func (m *MemoryStateStore) Get(_ context.Context, token string) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[token]
	if !ok {
		return State{}, ErrStateNotFound
	}
	return st, nil
}

// Delete implements StateStore.
func (m *MemoryStateStore) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, token)
	return nil
}

// DeleteExpired drops states that expired at or before t.
func (m *MemoryStateStore) DeleteExpired(_ context.Context, t time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for token, st := range m.states {
		if !t.Before(st.ExpiresAt) {
			delete(m.states, token)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored states.
func (m *MemoryStateStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.states)
}

var _ StateStore = (*MemoryStateStore)(nil)
