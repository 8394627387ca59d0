package app

import (
	"sync"

	"github.com/CrestNiraj12/whispernet/domain"
)

// Session is the process-scoped identity and preference state.
//
// It is created once at startup, filled by the wiring code (token file, the
// current-user request, the persisted UI state) and injected into every
// component that needs it. Readers may run on command goroutines, so every
// accessor is synchronized. SignOut clears identity and token but keeps
// preferences.
type Session struct {
	mu        sync.RWMutex
	profile   *domain.Profile
	token     string
	incognito bool
}

// NewSession creates an anonymous session.
func NewSession() *Session {
	return &Session{}
}

// Identity returns the active profile, if any.
func (s *Session) Identity() (domain.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return domain.Profile{}, false
	}
	return *s.profile, true
}

// RequireIdentity returns the active profile or a validation failure when anonymous.
func (s *Session) RequireIdentity() (domain.Profile, error) {
	p, ok := s.Identity()
	if !ok {
		return domain.Profile{}, domain.ErrNoIdentity
	}
	return p, nil
}

// SetIdentity installs the signed-in profile.
func (s *Session) SetIdentity(p domain.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = &p
}

// SetToken stores the bearer token used by the REST client.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// AccessToken implements auth.TokenProvider. An empty token means anonymous requests.
func (s *Session) AccessToken() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

// Incognito reports whether unhinged whispers are shown and posted.
func (s *Session) Incognito() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.incognito
}

// SetIncognito switches incognito mode.
func (s *Session) SetIncognito(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.incognito = on
}

// SignOut drops identity and token.
func (s *Session) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = nil
	s.token = ""
}
