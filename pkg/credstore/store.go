// Package credstore holds the current access/refresh token pair.
//
// The store is a dumb key-value surface: it performs no validation of
// token shape, and the newest write always wins.
package credstore

import "sync"

type Pair struct {
	AccessToken  string
	RefreshToken string
}

// Store is read by every outgoing request and written by login and by
// refresh, so implementations must be safe for concurrent use.
type Store interface {
	// Get returns the stored pair; the second result reports whether
	// any pair is stored.
	Get() (Pair, bool)
	// Set overwrites both tokens.
	Set(pair Pair) error
	// SetAccessToken overwrites only the access token, preserving the
	// stored refresh token.
	SetAccessToken(token string) error
	// Clear removes both tokens.
	Clear() error
}

// Memory keeps the pair in process memory. Useful for tests and for
// hosts that manage persistence themselves.
type Memory struct {
	mu   sync.Mutex
	pair Pair
	ok   bool
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Get() (Pair, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pair, m.ok
}

func (m *Memory) Set(pair Pair) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pair = pair
	m.ok = true
	return nil
}

func (m *Memory) SetAccessToken(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pair.AccessToken = token
	m.ok = true
	return nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pair = Pair{}
	m.ok = false
	return nil
}
