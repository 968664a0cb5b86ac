package syncer

import (
	"context"
	"sync"

	"github.com/saulo-duarte/course-progress-agent/internal/cache"
)

// State owns the in-memory envelope every component reads and mutates. Each
// mutation is written through to the cache store.
type State struct {
	mu    sync.RWMutex
	env   *cache.Envelope
	store *cache.Store

	listenersMu sync.RWMutex
	listeners   []func()
}

func NewState(store *cache.Store) *State {
	return &State{store: store, env: &cache.Envelope{}}
}

// Load seeds the state from the cache and reports whether anything was found.
func (s *State) Load(ctx context.Context) bool {
	env := s.store.Load(ctx)
	if env == nil {
		return false
	}
	s.mu.Lock()
	s.env = env
	s.mu.Unlock()
	s.notify()
	return true
}

func (s *State) Snapshot() *cache.Envelope {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.env.Clone()
}

// Update applies fn under the lock. When fn reports a change the envelope is
// persisted and listeners are told.
func (s *State) Update(ctx context.Context, fn func(env *cache.Envelope) bool) error {
	s.mu.Lock()
	if !fn(s.env) {
		s.mu.Unlock()
		return nil
	}
	snapshot := s.env.Clone()
	s.mu.Unlock()

	err := s.store.Save(ctx, snapshot)
	s.notify()
	return err
}

func (s *State) Replace(ctx context.Context, env *cache.Envelope) error {
	return s.Update(ctx, func(cur *cache.Envelope) bool {
		*cur = *env.Clone()
		return true
	})
}

// Reset drops the in-memory envelope and the cached copy.
func (s *State) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.env = &cache.Envelope{}
	s.mu.Unlock()
	err := s.store.Clear(ctx)
	s.notify()
	return err
}

func (s *State) OnChange(fn func()) {
	s.listenersMu.Lock()
	s.listeners = append(s.listeners, fn)
	s.listenersMu.Unlock()
}

func (s *State) notify() {
	s.listenersMu.RLock()
	listeners := append([]func(){}, s.listeners...)
	s.listenersMu.RUnlock()
	for _, fn := range listeners {
		fn()
	}
}
