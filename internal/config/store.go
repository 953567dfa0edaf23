package config

import (
	"sync"
	"sync/atomic"
)

// Store holds the current configuration, swaps it atomically and notifies
// subscribers after each swap.
type Store struct {
	v atomic.Pointer[Config]

	mu   sync.Mutex
	subs []func(*Config)
}

// NewStore creates a Store with the initial configuration.
func NewStore(cfg *Config) *Store {
	s := &Store{}
	s.v.Store(cfg)
	return s
}

// Current returns the current configuration.
func (s *Store) Current() *Config {
	return s.v.Load()
}

// Subscribe registers fn to run after every Update. Callbacks run on the
// updating goroutine, in registration order.
func (s *Store) Subscribe(fn func(*Config)) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// Update replaces the current configuration.
func (s *Store) Update(cfg *Config) {
	s.v.Store(cfg)

	s.mu.Lock()
	subs := append([]func(*Config){}, s.subs...)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(cfg)
	}
}
