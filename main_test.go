package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	retry "github.com/appleboy/go-httpretry"

	"github.com/Hansie91/OpenReg-sub002/console"
	"github.com/Hansie91/OpenReg-sub002/tui"
)

func init() {
	// Set default values for tests (don't call initConfig to avoid flag parsing)
	if serverURL == "" {
		serverURL = "http://localhost:8080"
	}
	if tokenFile == "" {
		tokenFile = ".openreg-session.json"
	}
	// Initialize retryClient for tests
	if retryClient == nil {
		var err error
		retryClient, err = retry.NewClient()
		if err != nil {
			panic(fmt.Sprintf("failed to create retry client: %v", err))
		}
	}
}

func TestValidateServerURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "valid https", url: "https://openreg.example.com", wantErr: false},
		{name: "valid http with port", url: "http://localhost:8080", wantErr: false},
		{name: "empty", url: "", wantErr: true},
		{name: "unsupported scheme", url: "ftp://openreg.example.com", wantErr: true},
		{name: "missing host", url: "http://", wantErr: true},
		{name: "not a url", url: "://broken", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateServerURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateServerURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestGetConfig_Priority(t *testing.T) {
	const envKey = "OPENREG_TEST_CONFIG"

	t.Setenv(envKey, "from-env")
	if got := getConfig("from-flag", envKey, "default"); got != "from-flag" {
		t.Errorf("flag should win, got %q", got)
	}
	if got := getConfig("", envKey, "default"); got != "from-env" {
		t.Errorf("env should win over default, got %q", got)
	}

	t.Setenv(envKey, "")
	if got := getConfig("", envKey, "default"); got != "default" {
		t.Errorf("default should apply, got %q", got)
	}
}

func TestRetryTransport_RetriesTransientErrors(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	rt := &retryTransport{c: retryClient}
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip() error = %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if got := attempts.Load(); got != 2 {
		t.Errorf("expected 2 attempts (1 retry), got %d", got)
	}
}

func TestLoadDashboard_Counts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/reports":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"reports": []map[string]interface{}{
					{"name": "EMIR daily trades", "regime": "EMIR", "status": "active"},
					{"name": "SFTR weekly", "regime": "SFTR", "status": "draft"},
				},
			})
		case "/api/runs":
			if got := r.URL.Query().Get("limit"); got != "50" {
				t.Errorf("runs limit query = %q, want 50", got)
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"runs": []map[string]interface{}{
					{"state": "running"},
					{"state": "succeeded"},
					{"state": "failed"},
				},
			})
		case "/api/users":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"users": []map[string]interface{}{
					{"email": "ops@example.com", "active": true},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := console.New(server.URL, server.Client())
	counts, err := loadDashboard(context.Background(), client, tui.NoopDisplayer{})
	if err != nil {
		t.Fatalf("loadDashboard() error = %v", err)
	}

	if counts.reports != 2 {
		t.Errorf("reports = %d, want 2", counts.reports)
	}
	if counts.runs != 3 {
		t.Errorf("runs = %d, want 3", counts.runs)
	}
	if counts.users != 1 {
		t.Errorf("users = %d, want 1", counts.users)
	}
}

func TestLoadDashboard_StopsOnFirstError(t *testing.T) {
	var sawRuns atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/reports":
			http.Error(w, `{"code":"forbidden","message":"insufficient role"}`, http.StatusForbidden)
		case "/api/runs":
			sawRuns.Store(true)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := console.New(server.URL, server.Client())
	if _, err := loadDashboard(context.Background(), client, tui.NoopDisplayer{}); err == nil {
		t.Fatal("expected error when reports fetch fails")
	}
	if sawRuns.Load() {
		t.Error("runs were fetched after the reports fetch already failed")
	}
}
