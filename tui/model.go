package tui

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

// state represents the current phase of the console session.
type state int

const (
	stateInit    state = iota
	stateLogin         // waiting for the login call
	stateLoading       // dashboard fetches in flight
	stateSuccess       // dashboard rendered
	stateError         // fatal error
)

// statusKind distinguishes line types in the status log.
type statusKind int

const (
	statusOK   statusKind = iota
	statusWarn            // warning / non-fatal
	statusInfo            // neutral info
)

// statusLine is one row in the scrolling status log.
type statusLine struct {
	kind statusKind
	text string
}

// Model is the BubbleTea model for the console dashboard TUI.
type Model struct {
	state   state
	spinner spinner.Model
	width   int
	height  int

	serverURL string
	email     string
	activity  string // what the spinner is currently waiting on

	// Dashboard counts shown on success
	reports int
	runs    int
	users   int
	errMsg  string

	// Scrolling status log shown below the main panel
	statusLines []statusLine
}

// Lipgloss styles — defined once at package level.
var (
	styleTitleBox = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("99")).
			Padding(0, 2)

	styleCountBox = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("228")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("228")).
			Padding(0, 2)

	styleOK   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleWarn = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	styleErr  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	styleDim  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	styleBold = lipgloss.NewStyle().Bold(true)
)

// NewModel creates the initial TUI model.
func NewModel() Model {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))),
	)
	return Model{
		state:    stateInit,
		spinner:  s,
		activity: "Initializing",
	}
}

// Init starts the spinner animation.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil

	// ── Session messages ─────────────────────────────────────────────────────

	case MsgBanner:
		m.serverURL = msg.ServerURL
		return m, nil

	case MsgSessionFound:
		m.addStatus(statusOK, "Found saved session")
		return m, nil

	case MsgSessionNotFound:
		m.addStatus(statusInfo, "No saved session found")
		return m, nil

	case MsgRefreshOK:
		m.addStatus(statusOK, "Access token refreshed")
		return m, nil

	case MsgRefreshFailed:
		m.addStatus(statusWarn, fmt.Sprintf("Token refresh failed: %v", msg.Err))
		return m, nil

	case MsgLoggedOut:
		m.addStatus(statusWarn, "Session ended, login required")
		return m, nil

	case MsgLoginRequired:
		m.state = stateLogin
		m.activity = "Authenticating"
		return m, nil

	case MsgLoggingIn:
		m.email = msg.Email
		m.state = stateLogin
		m.activity = "Logging in as " + msg.Email
		return m, nil

	case MsgLoginOK:
		m.addStatus(statusOK, "Login successful")
		return m, nil

	case MsgLoginFailed:
		m.addStatus(statusWarn, fmt.Sprintf("Login failed: %v", msg.Err))
		return m, nil

	case MsgFetching:
		m.state = stateLoading
		m.activity = "Fetching " + msg.What
		return m, nil

	case MsgReportsLoaded:
		m.addStatus(statusOK, fmt.Sprintf("Loaded %d report definitions", msg.Count))
		return m, nil

	case MsgRunsLoaded:
		m.addStatus(statusOK, fmt.Sprintf("Loaded %d runs (%d active)", msg.Total, msg.Active))
		return m, nil

	case MsgUsersLoaded:
		m.addStatus(statusOK, fmt.Sprintf("Loaded %d users (%d active)", msg.Total, msg.Active))
		return m, nil

	case MsgDone:
		m.reports = msg.Reports
		m.runs = msg.Runs
		m.users = msg.Users
		m.state = stateSuccess
		return m, nil

	case MsgFatal:
		m.errMsg = msg.Err.Error()
		m.state = stateError
		return m, nil
	}

	return m, nil
}

// View renders the TUI.
func (m Model) View() tea.View {
	switch m.state {
	case stateSuccess:
		return tea.NewView(m.viewSuccess())
	case stateError:
		return tea.NewView(m.viewError())
	default:
		return tea.NewView(m.viewMain())
	}
}

// viewMain is shown during init, login, and dashboard loading.
func (m Model) viewMain() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(styleTitleBox.Render("  OpenReg Admin Console  "))
	b.WriteString("\n")
	if m.serverURL != "" {
		b.WriteString(styleDim.Render("  " + m.serverURL))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(m.spinner.View())
	b.WriteString(" " + m.activity + "...\n")

	b.WriteString(m.viewStatusLog())
	return b.String()
}

// viewSuccess is shown once the dashboard is fully loaded.
func (m Model) viewSuccess() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(styleOK.Render("  ✓ Dashboard loaded"))
	b.WriteString("\n\n")

	counts := fmt.Sprintf(
		"  Reports %d   Runs %d   Users %d  ",
		m.reports, m.runs, m.users,
	)
	b.WriteString(styleCountBox.Render(counts))
	b.WriteString("\n\n")

	if m.email != "" {
		b.WriteString(styleBold.Render("Signed in as: "))
		b.WriteString(m.email + "\n")
	}
	if m.serverURL != "" {
		b.WriteString(styleBold.Render("Server:       "))
		b.WriteString(m.serverURL + "\n")
	}

	b.WriteString(m.viewStatusLog())
	return b.String()
}

// viewError is shown when a fatal error occurs.
func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(styleErr.Render("  ✗ Console session failed"))
	b.WriteString("\n\n")
	b.WriteString(styleDim.Render("  " + m.errMsg))
	b.WriteString("\n")

	b.WriteString(m.viewStatusLog())
	return b.String()
}

// viewStatusLog renders the scrolling status log.
func (m Model) viewStatusLog() string {
	if len(m.statusLines) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n")

	for _, line := range m.statusLines {
		switch line.kind {
		case statusOK:
			b.WriteString(styleOK.Render("  ✓ " + line.text))
		case statusWarn:
			b.WriteString(styleWarn.Render("  ⚠ " + line.text))
		default:
			b.WriteString(styleDim.Render("  · " + line.text))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// addStatus appends a line to the status log.
func (m *Model) addStatus(kind statusKind, text string) {
	m.statusLines = append(m.statusLines, statusLine{kind: kind, text: text})
}
