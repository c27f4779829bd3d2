// Package authflow wraps an http.Client with the OpenReg session
// lifecycle: bearer injection, proactive refresh ahead of expiry,
// single-flight coordination of the refresh call, and a single replay of
// requests rejected with 401. Callers use the wrapped client like any
// other *http.Client; expired credentials surface as ErrSessionExpired or
// ErrRefreshFailed, at which point a new Login is required.
package authflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// Backend auth endpoints. Login and refresh are never intercepted by the
// session transport (no bearer header, no proactive refresh), which keeps
// the authentication path free of recursion.
const (
	loginPath   = "/auth/login"
	refreshPath = "/auth/refresh"
	logoutPath  = "/auth/logout"
)

// DefaultRefreshSkew is how long before expiry an access token counts as
// expiring and gets refreshed proactively, ahead of the 401.
const DefaultRefreshSkew = 60 * time.Second

// Timeout configuration for the session's own calls
const (
	loginTimeout   = 10 * time.Second
	refreshTimeout = 10 * time.Second
	logoutTimeout  = 5 * time.Second
)

// Options configures a Session.
type Options struct {
	// ServerURL is the backend base URL, e.g. https://openreg.example.com.
	ServerURL string

	// Base performs the actual network calls, for intercepted requests and
	// for the session's own login/refresh/logout calls alike. Wrap it with
	// a retrying transport to handle transient network errors; the session
	// layer itself never retries those. Defaults to http.DefaultTransport.
	Base http.RoundTripper

	// Store holds the credentials. Defaults to a fresh empty store.
	Store *TokenStore

	// File, when non-nil, persists the credentials across restarts.
	// Persistence is best effort: a failed save never fails the request
	// that triggered it.
	File *SessionFile

	// RefreshSkew overrides DefaultRefreshSkew when positive.
	RefreshSkew time.Duration

	// OnLogout is invoked whenever the session terminally loses its
	// credentials: failed refresh, 401 after the replay, or an explicit
	// Logout. Fired once per failure, not once per waiting caller. The
	// console reacts by returning the user to the login prompt.
	OnLogout func()

	// OnRefresh, when non-nil, is invoked after every settled refresh
	// flight with its outcome. Purely informational.
	OnRefresh func(err error)
}

// Session owns the token lifecycle against one backend. All methods are
// safe for concurrent use.
type Session struct {
	serverURL string
	base      http.RoundTripper
	store     *TokenStore
	file      *SessionFile
	skew      time.Duration
	onLogout  func()
	onRefresh func(err error)

	// group collapses concurrent refresh triggers into one network call;
	// everyone who joins a flight receives that flight's outcome.
	group singleflight.Group
}

// NewSession creates a Session. When a session file is configured and the
// store is empty, previously persisted credentials for ServerURL are
// restored; their expiry is not validated here but on the first request.
func NewSession(opts Options) (*Session, error) {
	if opts.ServerURL == "" {
		return nil, errors.New("authflow: ServerURL is required")
	}
	s := &Session{
		serverURL: opts.ServerURL,
		base:      opts.Base,
		store:     opts.Store,
		file:      opts.File,
		skew:      opts.RefreshSkew,
		onLogout:  opts.OnLogout,
		onRefresh: opts.OnRefresh,
	}
	if s.base == nil {
		s.base = http.DefaultTransport
	}
	if s.store == nil {
		s.store = NewTokenStore()
	}
	if s.skew <= 0 {
		s.skew = DefaultRefreshSkew
	}
	if s.file != nil && s.store.AccessToken() == "" && s.store.RefreshToken() == "" {
		if tok, err := s.file.Load(s.serverURL); err == nil && tok != nil {
			s.store.Update(tok)
		}
	}
	return s, nil
}

// Store exposes the session's token store, mainly for tests and status
// display.
func (s *Session) Store() *TokenStore {
	return s.store
}

// Authenticated reports whether any credentials are present. The access
// token may still be expired; the transport handles that transparently.
func (s *Session) Authenticated() bool {
	return s.store.AccessToken() != "" || s.store.RefreshToken() != ""
}

// Client returns an *http.Client routing every request through the session
// transport.
func (s *Session) Client() *http.Client {
	return &http.Client{Transport: s.Transport()}
}

// Transport returns the interceptor chain as an http.RoundTripper, for
// callers that compose their own client.
func (s *Session) Transport() http.RoundTripper {
	return &Transport{session: s, next: s.base}
}

// ErrorResponse is the backend's error envelope for auth endpoints.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// tokenResponse is the payload of /auth/login and /auth/refresh.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// validateTokenResponse validates a token payload before it is trusted.
func validateTokenResponse(accessToken, tokenType string, expiresIn int) error {
	if accessToken == "" {
		return errors.New("access_token is empty")
	}

	if len(accessToken) < 10 {
		return fmt.Errorf("access_token is too short (length: %d)", len(accessToken))
	}

	if expiresIn <= 0 {
		return fmt.Errorf("expires_in must be positive, got: %d", expiresIn)
	}

	// Token type is optional, but if present, should be "Bearer"
	if tokenType != "" && tokenType != "Bearer" {
		return fmt.Errorf("unexpected token_type: %s (expected Bearer)", tokenType)
	}

	return nil
}

// token converts a validated token payload into the stored form.
// prevRefresh covers refresh-token rotation modes: servers running in
// fixed mode omit refresh_token from the response, in which case the
// previous one stays valid and is preserved.
func (tr tokenResponse) token(prevRefresh string) *oauth2.Token {
	refresh := tr.RefreshToken
	if refresh == "" {
		refresh = prevRefresh
	}
	return &oauth2.Token{
		AccessToken:  tr.AccessToken,
		RefreshToken: refresh,
		TokenType:    tr.TokenType,
		Expiry:       time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second),
	}
}

// Login authenticates with email and password and installs the resulting
// credentials. Concurrent logins are not coordinated; the last writer
// wins, which is harmless because every issued token pair is valid.
func (s *Session) Login(ctx context.Context, email, password string) error {
	reqCtx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	payload, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return fmt.Errorf("failed to encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		reqCtx,
		http.MethodPost,
		s.serverURL+loginPath,
		bytes.NewReader(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	tok, err := s.tokenCall(req, "")
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	s.store.Update(tok)
	s.persist(tok)
	return nil
}

// Logout revokes the session server side (best effort) and always clears
// the local credentials. The OnLogout callback fires exactly once.
func (s *Session) Logout(ctx context.Context) error {
	if access := s.store.AccessToken(); access != "" {
		reqCtx, cancel := context.WithTimeout(ctx, logoutTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(
			reqCtx, http.MethodPost, s.serverURL+logoutPath, nil,
		)
		if err == nil {
			req.Header.Set("Authorization", "Bearer "+access)
			if resp, doErr := s.base.RoundTrip(req); doErr == nil {
				resp.Body.Close()
			}
		}
	}
	s.expire()
	return nil
}

// freshToken returns a currently valid access token, performing at most
// one refresh network call no matter how many callers need a token at the
// same time. Callers arriving while a refresh is in flight join it and
// receive the same token (or the same failure); callers arriving after it
// settled start a new flight.
func (s *Session) freshToken() (string, error) {
	v, err, _ := s.group.Do(refreshPath, func() (interface{}, error) {
		refresh := s.store.RefreshToken()
		if refresh == "" {
			// Nothing to exchange; fail without a network call.
			s.expire()
			s.notifyRefresh(ErrNoRefreshToken)
			return nil, ErrNoRefreshToken
		}

		// The refresh call is detached from any single caller's context:
		// its outcome is shared by every waiter, so one canceled caller
		// must not poison the flight for the others.
		tok, err := s.refreshAccessToken(context.Background(), refresh)
		if err != nil {
			s.expire()
			wrapped := fmt.Errorf("%w: %w", ErrRefreshFailed, err)
			s.notifyRefresh(wrapped)
			return nil, wrapped
		}

		s.store.Update(tok)
		s.persist(tok)
		s.notifyRefresh(nil)
		return tok.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// refreshAccessToken exchanges the refresh token for a new token pair.
func (s *Session) refreshAccessToken(
	ctx context.Context,
	refreshToken string,
) (*oauth2.Token, error) {
	reqCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	payload, err := json.Marshal(map[string]string{
		"refresh_token": refreshToken,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		reqCtx,
		http.MethodPost,
		s.serverURL+refreshPath,
		bytes.NewReader(payload),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return s.tokenCall(req, refreshToken)
}

// tokenCall executes an auth-endpoint request on the base transport and
// parses the token payload. prevRefresh is preserved when the server
// rotates in fixed mode.
func (s *Session) tokenCall(req *http.Request, prevRefresh string) (*oauth2.Token, error) {
	resp, err := s.base.RoundTrip(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if jsonErr := json.Unmarshal(body, &errResp); jsonErr == nil && errResp.Error != "" {
			return nil, fmt.Errorf("%s: %s", errResp.Error, errResp.ErrorDescription)
		}
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}

	if err := validateTokenResponse(
		tokenResp.AccessToken,
		tokenResp.TokenType,
		tokenResp.ExpiresIn,
	); err != nil {
		return nil, fmt.Errorf("invalid token response: %w", err)
	}

	return tokenResp.token(prevRefresh), nil
}

// expire drops the credentials locally and fires the logout callback. The
// single-flight group guarantees a failed refresh reaches this exactly
// once regardless of how many callers were waiting on it.
func (s *Session) expire() {
	s.store.Clear()
	s.persist(nil)
	if s.onLogout != nil {
		s.onLogout()
	}
}

// persist mirrors the store into the session file, when one is configured.
// A nil token removes the entry. Best effort by design: the in-memory
// session keeps working even when the disk write fails.
func (s *Session) persist(tok *oauth2.Token) {
	if s.file == nil {
		return
	}
	if tok == nil {
		_ = s.file.Delete(s.serverURL)
		return
	}
	_ = s.file.Save(s.serverURL, tok)
}

func (s *Session) notifyRefresh(err error) {
	if s.onRefresh != nil {
		s.onRefresh(err)
	}
}
