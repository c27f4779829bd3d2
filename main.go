package main

import (
	"context"
	"crypto/tls"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	retry "github.com/appleboy/go-httpretry"
	"github.com/joho/godotenv"

	tea "charm.land/bubbletea/v2"
	"github.com/Hansie91/OpenReg-sub002/authflow"
	"github.com/Hansie91/OpenReg-sub002/console"
	"github.com/Hansie91/OpenReg-sub002/tui"
)

var (
	serverURL         string
	email             string
	password          string
	tokenFile         string
	flagServerURL     *string
	flagEmail         *string
	flagTokenFile     *string
	configInitialized bool
	retryClient       *retry.Client
)

// runLimit caps how many recent runs the dashboard fetches.
const runLimit = 50

func init() {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	// Define flags (but don't parse yet to avoid conflicts with test flags)
	flagServerURL = flag.String(
		"server-url",
		"",
		"OpenReg backend URL (default: http://localhost:8080 or SERVER_URL env)",
	)
	flagEmail = flag.String("email", "", "Console account email (or set OPENREG_EMAIL env)")
	flagTokenFile = flag.String(
		"token-file",
		"",
		"Session storage file (default: .openreg-session.json or TOKEN_FILE env)",
	)
}

// initConfig parses flags and initializes configuration
// Separated from init() to avoid conflicts with test flag parsing
func initConfig() {
	if configInitialized {
		return
	}
	configInitialized = true

	flag.Parse()

	// Priority: flag > env > default
	serverURL = getConfig(*flagServerURL, "SERVER_URL", "http://localhost:8080")
	email = getConfig(*flagEmail, "OPENREG_EMAIL", "")
	password = getEnv("OPENREG_PASSWORD", "")
	tokenFile = getConfig(*flagTokenFile, "TOKEN_FILE", ".openreg-session.json")

	// Validate SERVER_URL format
	if err := validateServerURL(serverURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Invalid SERVER_URL: %v\n", err)
		os.Exit(1)
	}

	// Warn if using HTTP instead of HTTPS
	if strings.HasPrefix(strings.ToLower(serverURL), "http://") {
		fmt.Fprintln(
			os.Stderr,
			"⚠️  WARNING: Using HTTP instead of HTTPS. Tokens will be transmitted in plaintext!",
		)
		fmt.Fprintln(
			os.Stderr,
			"⚠️  This is only safe for local development. Use HTTPS in production.",
		)
		fmt.Fprintln(os.Stderr)
	}

	// Initialize HTTP client with retry support
	baseHTTPClient := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			DisableKeepAlives:   false,
		},
	}

	// Wrap with retry logic using go-httpretry
	var err error
	retryClient, err = retry.NewBackgroundClient(
		retry.WithHTTPClient(baseHTTPClient),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to create retry client: %v", err))
	}
}

// getConfig returns value with priority: flag > env > default
func getConfig(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return getEnv(envKey, defaultValue)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// validateServerURL validates that the server URL is properly formatted
func validateServerURL(rawURL string) error {
	if rawURL == "" {
		return errors.New("server URL cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got: %s", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("URL must include a host")
	}

	return nil
}

// retryTransport adapts the retry client to http.RoundTripper so it can
// sit below the session transport. Transient network errors are retried
// here; auth handling happens one layer up.
type retryTransport struct {
	c *retry.Client
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.c.DoWithContext(req.Context(), req)
}

// isTTY reports whether stderr is a character device (interactive terminal).
// We check stderr because the TUI renders to stderr, allowing stdout to be piped.
func isTTY() bool {
	fi, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

func main() {
	initConfig()

	if isTTY() {
		// Run TUI program on stderr so stdout pipes are not corrupted
		m := tui.NewModel()
		// WithInput(nil): disable stdin/keyboard input so BubbleTea skips terminal
		// capability queries (?2026/?2027). Ctrl+C is handled by signal.NotifyContext.
		p := tea.NewProgram(m, tea.WithOutput(os.Stderr), tea.WithInput(nil))

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Run(); err != nil {
				fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
			}
		}()

		d := tui.NewProgramDisplayer(p)
		d.Banner(serverURL)
		runErr := run(d)
		p.Quit() // let BubbleTea drain terminal query responses before exiting
		wg.Wait()
		if runErr != nil {
			os.Exit(1)
		}
	} else {
		d := tui.NewPlainDisplayer(os.Stderr)
		d.Banner(serverURL)
		if err := run(d); err != nil {
			os.Exit(1)
		}
	}
}

func run(d tui.Displayer) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session, err := authflow.NewSession(authflow.Options{
		ServerURL: serverURL,
		Base:      &retryTransport{c: retryClient},
		File:      authflow.NewSessionFile(tokenFile),
		OnLogout:  d.LoggedOut,
		OnRefresh: func(err error) {
			if err != nil {
				d.RefreshFailed(err)
			} else {
				d.RefreshOK()
			}
		},
	})
	if err != nil {
		d.Fatal(err)
		return err
	}

	if session.Authenticated() {
		d.SessionFound()
	} else {
		d.SessionNotFound()
	}

	client := console.New(serverURL, session.Client())

	// First attempt rides the saved session; the transport refreshes an
	// expiring token on its own. An auth failure here means the session
	// is gone for good and a fresh login is needed.
	counts, err := loadDashboard(ctx, client, d)
	if err != nil {
		if !authflow.IsAuthFailure(err) {
			d.Fatal(err)
			return err
		}

		d.LoginRequired()
		if err := login(ctx, session, d); err != nil {
			d.Fatal(err)
			return err
		}

		counts, err = loadDashboard(ctx, client, d)
		if err != nil {
			d.Fatal(err)
			return err
		}
	}

	d.Done(counts.reports, counts.runs, counts.users)
	return nil
}

// login authenticates with the configured credentials.
func login(ctx context.Context, session *authflow.Session, d tui.Displayer) error {
	if email == "" || password == "" {
		return errors.New(
			"no credentials configured: set OPENREG_EMAIL and OPENREG_PASSWORD (env or .env file)",
		)
	}

	d.LoggingIn(email)
	if err := session.Login(ctx, email, password); err != nil {
		d.LoginFailed(err)
		return err
	}
	d.LoginOK()
	return nil
}

// dashboardCounts are the headline numbers of the admin dashboard.
type dashboardCounts struct {
	reports int
	runs    int
	users   int
}

// loadDashboard fetches the dashboard data sets in order. The first auth
// failure aborts the whole load; partial dashboards are not shown.
func loadDashboard(
	ctx context.Context,
	client *console.Client,
	d tui.Displayer,
) (dashboardCounts, error) {
	var counts dashboardCounts

	d.FetchingReports()
	reports, err := client.ListReports(ctx, console.ReportFilter{})
	if err != nil {
		return counts, fmt.Errorf("loading reports: %w", err)
	}
	counts.reports = len(reports)
	d.ReportsLoaded(len(reports))

	d.FetchingRuns()
	runs, err := client.ListRuns(ctx, console.RunFilter{Limit: runLimit})
	if err != nil {
		return counts, fmt.Errorf("loading runs: %w", err)
	}
	counts.runs = len(runs)
	activeRuns := 0
	for _, r := range runs {
		if r.State.Active() {
			activeRuns++
		}
	}
	d.RunsLoaded(len(runs), activeRuns)

	d.FetchingUsers()
	users, err := client.ListUsers(ctx)
	if err != nil {
		return counts, fmt.Errorf("loading users: %w", err)
	}
	counts.users = len(users)
	activeUsers := 0
	for _, u := range users {
		if u.Active {
			activeUsers++
		}
	}
	d.UsersLoaded(len(users), activeUsers)

	return counts, nil
}
