package authflow

import (
	"errors"
	"fmt"
)

// ErrRefreshFailed indicates the refresh endpoint rejected the stored
// refresh token or the refresh call itself failed. Terminal for the
// session: the token store is cleared and a new login is required.
var ErrRefreshFailed = errors.New("token refresh failed")

// ErrNoRefreshToken is reported when a refresh is needed but no refresh
// token is stored. Treated exactly like a failed refresh.
var ErrNoRefreshToken = fmt.Errorf("%w: no refresh token stored", ErrRefreshFailed)

// ErrSessionExpired indicates a request was rejected with 401 even after
// the single post-refresh replay. The session cannot recover on its own.
var ErrSessionExpired = errors.New("session expired, login required")

// IsAuthFailure reports whether err means the session terminally lost its
// credentials and the caller must log in again. Transient network and API
// errors return false.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrRefreshFailed) || errors.Is(err, ErrSessionExpired)
}
