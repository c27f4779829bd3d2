package tui

// MsgBanner signals that the banner/title should be displayed.
type MsgBanner struct{ ServerURL string }

// MsgSessionFound signals that a saved session was restored from disk.
type MsgSessionFound struct{}

// MsgSessionNotFound signals that no saved session exists (fresh login).
type MsgSessionNotFound struct{}

// MsgRefreshOK signals that the access token was refreshed.
type MsgRefreshOK struct{}

// MsgRefreshFailed signals that a token refresh failed.
type MsgRefreshFailed struct{ Err error }

// MsgLoggedOut signals that the session ended and credentials were cleared.
type MsgLoggedOut struct{}

// MsgLoginRequired signals that a login is needed before continuing.
type MsgLoginRequired struct{}

// MsgLoggingIn signals that a login attempt has started.
type MsgLoggingIn struct{ Email string }

// MsgLoginOK signals that the login succeeded.
type MsgLoginOK struct{}

// MsgLoginFailed signals that the login was rejected.
type MsgLoginFailed struct{ Err error }

// MsgFetching signals that a dashboard fetch is in progress.
type MsgFetching struct{ What string }

// MsgReportsLoaded signals that report definitions were loaded.
type MsgReportsLoaded struct{ Count int }

// MsgRunsLoaded signals that recent runs were loaded.
type MsgRunsLoaded struct {
	Total  int
	Active int
}

// MsgUsersLoaded signals that console users were loaded.
type MsgUsersLoaded struct {
	Total  int
	Active int
}

// MsgDone signals that the dashboard loaded completely.
type MsgDone struct {
	Reports int
	Runs    int
	Users   int
}

// MsgFatal signals a fatal error that should terminate the session.
type MsgFatal struct{ Err error }
