package tui

import (
	"fmt"
	"io"

	tea "charm.land/bubbletea/v2"
)

// Displayer abstracts all output of a console session.
type Displayer interface {
	Banner(serverURL string)
	SessionFound()
	SessionNotFound()
	RefreshOK()
	RefreshFailed(err error)
	LoggedOut()
	LoginRequired()
	LoggingIn(email string)
	LoginOK()
	LoginFailed(err error)
	FetchingReports()
	ReportsLoaded(n int)
	FetchingRuns()
	RunsLoaded(total, active int)
	FetchingUsers()
	UsersLoaded(total, active int)
	Done(reports, runs, users int)
	Fatal(err error)
}

// PlainDisplayer writes plain text output to w.
// Used when stdout is not a TTY (pipes, CI, SSH without pty).
type PlainDisplayer struct {
	w io.Writer
}

// NewPlainDisplayer creates a PlainDisplayer that writes to w.
func NewPlainDisplayer(w io.Writer) *PlainDisplayer {
	return &PlainDisplayer{w: w}
}

func (p *PlainDisplayer) Banner(serverURL string) {
	fmt.Fprintf(p.w, "=== OpenReg Admin Console — %s ===\n", serverURL)
	fmt.Fprintln(p.w)
}

func (p *PlainDisplayer) SessionFound() {
	fmt.Fprintln(p.w, "Found saved session, resuming...")
}

func (p *PlainDisplayer) SessionNotFound() {
	fmt.Fprintln(p.w, "No saved session found")
}

func (p *PlainDisplayer) RefreshOK() {
	fmt.Fprintln(p.w, "Access token refreshed")
}

func (p *PlainDisplayer) RefreshFailed(err error) {
	fmt.Fprintf(p.w, "Token refresh failed: %v\n", err)
}

func (p *PlainDisplayer) LoggedOut() {
	fmt.Fprintln(p.w, "Session ended, login required")
}

func (p *PlainDisplayer) LoginRequired() {
	fmt.Fprintln(p.w, "Authentication required, logging in...")
}

func (p *PlainDisplayer) LoggingIn(email string) {
	fmt.Fprintf(p.w, "Logging in as %s...\n", email)
}

func (p *PlainDisplayer) LoginOK() {
	fmt.Fprintln(p.w, "Login successful!")
}

func (p *PlainDisplayer) LoginFailed(err error) {
	fmt.Fprintf(p.w, "Login failed: %v\n", err)
}

func (p *PlainDisplayer) FetchingReports() {
	fmt.Fprintln(p.w, "Fetching report definitions...")
}

func (p *PlainDisplayer) ReportsLoaded(n int) {
	fmt.Fprintf(p.w, "Loaded %d report definitions\n", n)
}

func (p *PlainDisplayer) FetchingRuns() {
	fmt.Fprintln(p.w, "Fetching recent runs...")
}

func (p *PlainDisplayer) RunsLoaded(total, active int) {
	fmt.Fprintf(p.w, "Loaded %d runs (%d active)\n", total, active)
}

func (p *PlainDisplayer) FetchingUsers() {
	fmt.Fprintln(p.w, "Fetching users...")
}

func (p *PlainDisplayer) UsersLoaded(total, active int) {
	fmt.Fprintf(p.w, "Loaded %d users (%d active)\n", total, active)
}

func (p *PlainDisplayer) Done(reports, runs, users int) {
	fmt.Fprintln(p.w, "\n========================================")
	fmt.Fprintln(p.w, "Dashboard:")
	fmt.Fprintf(p.w, "Reports: %d\n", reports)
	fmt.Fprintf(p.w, "Runs:    %d\n", runs)
	fmt.Fprintf(p.w, "Users:   %d\n", users)
	fmt.Fprintln(p.w, "========================================")
}

func (p *PlainDisplayer) Fatal(err error) {
	fmt.Fprintf(p.w, "Error: %v\n", err)
}

// NoopDisplayer is a no-op implementation used in tests.
type NoopDisplayer struct{}

func (NoopDisplayer) Banner(_ string)       {}
func (NoopDisplayer) SessionFound()         {}
func (NoopDisplayer) SessionNotFound()      {}
func (NoopDisplayer) RefreshOK()            {}
func (NoopDisplayer) RefreshFailed(_ error) {}
func (NoopDisplayer) LoggedOut()            {}
func (NoopDisplayer) LoginRequired()        {}
func (NoopDisplayer) LoggingIn(_ string)    {}
func (NoopDisplayer) LoginOK()              {}
func (NoopDisplayer) LoginFailed(_ error)   {}
func (NoopDisplayer) FetchingReports()      {}
func (NoopDisplayer) ReportsLoaded(_ int)   {}
func (NoopDisplayer) FetchingRuns()         {}
func (NoopDisplayer) RunsLoaded(_, _ int)   {}
func (NoopDisplayer) FetchingUsers()        {}
func (NoopDisplayer) UsersLoaded(_, _ int)  {}
func (NoopDisplayer) Done(_, _, _ int)      {}
func (NoopDisplayer) Fatal(_ error)         {}

// ProgramDisplayer sends BubbleTea messages to a running tea.Program.
type ProgramDisplayer struct {
	p *tea.Program
}

// NewProgramDisplayer creates a ProgramDisplayer that sends messages to p.
func NewProgramDisplayer(p *tea.Program) *ProgramDisplayer {
	return &ProgramDisplayer{p: p}
}

func (t *ProgramDisplayer) Banner(serverURL string) {
	t.p.Send(MsgBanner{ServerURL: serverURL})
}

func (t *ProgramDisplayer) SessionFound() {
	t.p.Send(MsgSessionFound{})
}

func (t *ProgramDisplayer) SessionNotFound() {
	t.p.Send(MsgSessionNotFound{})
}

func (t *ProgramDisplayer) RefreshOK() {
	t.p.Send(MsgRefreshOK{})
}

func (t *ProgramDisplayer) RefreshFailed(err error) {
	t.p.Send(MsgRefreshFailed{Err: err})
}

func (t *ProgramDisplayer) LoggedOut() {
	t.p.Send(MsgLoggedOut{})
}

func (t *ProgramDisplayer) LoginRequired() {
	t.p.Send(MsgLoginRequired{})
}

func (t *ProgramDisplayer) LoggingIn(email string) {
	t.p.Send(MsgLoggingIn{Email: email})
}

func (t *ProgramDisplayer) LoginOK() {
	t.p.Send(MsgLoginOK{})
}

func (t *ProgramDisplayer) LoginFailed(err error) {
	t.p.Send(MsgLoginFailed{Err: err})
}

func (t *ProgramDisplayer) FetchingReports() {
	t.p.Send(MsgFetching{What: "report definitions"})
}

func (t *ProgramDisplayer) ReportsLoaded(n int) {
	t.p.Send(MsgReportsLoaded{Count: n})
}

func (t *ProgramDisplayer) FetchingRuns() {
	t.p.Send(MsgFetching{What: "recent runs"})
}

func (t *ProgramDisplayer) RunsLoaded(total, active int) {
	t.p.Send(MsgRunsLoaded{Total: total, Active: active})
}

func (t *ProgramDisplayer) FetchingUsers() {
	t.p.Send(MsgFetching{What: "users"})
}

func (t *ProgramDisplayer) UsersLoaded(total, active int) {
	t.p.Send(MsgUsersLoaded{Total: total, Active: active})
}

func (t *ProgramDisplayer) Done(reports, runs, users int) {
	t.p.Send(MsgDone{Reports: reports, Runs: runs, Users: users})
}

func (t *ProgramDisplayer) Fatal(err error) {
	t.p.Send(MsgFatal{Err: err})
}
