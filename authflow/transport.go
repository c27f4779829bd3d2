package authflow

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
)

// Transport is the interceptor chain of a Session, expressed the way Go
// HTTP clients compose middleware: as an http.RoundTripper.
//
// Pre-flight, for every non-auth request: read the stored access token,
// refresh it proactively when it is about to expire, and attach it as a
// bearer header. Post-flight: a 401 triggers one refresh (joining any
// in-flight one) and exactly one replay of the original request. A 401 on
// the replay is terminal and surfaces as ErrSessionExpired.
type Transport struct {
	session *Session
	next    http.RoundTripper
}

// isAuthPath reports whether p is a login or refresh endpoint. Those pass
// through untouched; intercepting them would recurse into the very calls
// that mint tokens.
func isAuthPath(p string) bool {
	return p == loginPath || p == refreshPath
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if isAuthPath(req.URL.Path) {
		return t.next.RoundTrip(req)
	}

	// Buffer the body up front: the request may be dispatched twice.
	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to buffer request body: %w", err)
		}
	}

	access := t.session.store.AccessToken()
	if access != "" && t.session.store.ExpiringWithin(t.session.skew) {
		fresh, err := t.session.freshToken()
		if err != nil {
			return nil, err
		}
		access = fresh
	}

	resp, err := t.send(req, body, access)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	resp.Body.Close()

	// Reactive path: the server rejected the credential. Refresh (or join
	// the refresh already in flight) and replay once.
	fresh, err := t.session.freshToken()
	if err != nil {
		return nil, err
	}

	resp, err = t.send(req, body, fresh)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		// Fresh token, still rejected. No further retries.
		resp.Body.Close()
		t.session.expire()
		return nil, ErrSessionExpired
	}
	return resp, nil
}

// send dispatches a clone of req with the buffered body and, when a token
// is present, the bearer header. A missing token is sent bare so the
// server's 401 drives the reactive path.
func (t *Transport) send(req *http.Request, body []byte, access string) (*http.Response, error) {
	out := req.Clone(req.Context())
	if body != nil {
		out.Body = io.NopCloser(bytes.NewReader(body))
		out.ContentLength = int64(len(body))
		out.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
	}
	if access != "" {
		out.Header.Set("Authorization", "Bearer "+access)
	}
	return t.next.RoundTrip(out)
}
