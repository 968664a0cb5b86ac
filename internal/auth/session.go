package auth

import (
	"strings"
	"sync"
)

// Session holds identity handed to the agent by the page for this process only.
type Session struct {
	mu    sync.RWMutex
	email string
	token string
}

func NewSession() *Session {
	return &Session{}
}

func (s *Session) Email() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.email, s.email != ""
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) Set(email, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if email = strings.TrimSpace(email); email != "" {
		s.email = email
	}
	if token = strings.TrimSpace(token); token != "" {
		s.token = token
	}
}

func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.email = ""
	s.token = ""
}
