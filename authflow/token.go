package authflow

import (
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// TokenStore holds the session credentials: access token, refresh token and
// the absolute expiry of the access token. It is the single shared mutable
// state of a session; every mutation replaces all fields at once, so a
// reader can never observe a new access token paired with a stale expiry.
//
// The store is an explicitly-owned value injected into a Session rather
// than a package global, so tests (and multi-tenant callers) can run any
// number of independent sessions side by side.
type TokenStore struct {
	mu  sync.RWMutex
	tok *oauth2.Token
}

// NewTokenStore returns an empty store (unauthenticated state).
func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// Token returns a copy of the current token, or nil when unauthenticated.
func (s *TokenStore) Token() *oauth2.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tok == nil {
		return nil
	}
	cp := *s.tok
	return &cp
}

// AccessToken returns the current access token, or "" when unauthenticated.
func (s *TokenStore) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tok == nil {
		return ""
	}
	return s.tok.AccessToken
}

// RefreshToken returns the current refresh token, or "".
func (s *TokenStore) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tok == nil {
		return ""
	}
	return s.tok.RefreshToken
}

// ExpiringWithin reports whether the stored access token expires within d.
// It is false when no token is stored at all: a missing token is dispatched
// bare and handled reactively on the 401. A stored token with an unknown
// expiry counts as expiring.
func (s *TokenStore) ExpiringWithin(d time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tok == nil || s.tok.AccessToken == "" {
		return false
	}
	if s.tok.Expiry.IsZero() {
		return true
	}
	return !time.Now().Add(d).Before(s.tok.Expiry)
}

// Update atomically replaces the stored token.
func (s *TokenStore) Update(tok *oauth2.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok == nil {
		s.tok = nil
		return
	}
	cp := *tok
	s.tok = &cp
}

// Clear resets the store to the unauthenticated state.
func (s *TokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tok = nil
}
