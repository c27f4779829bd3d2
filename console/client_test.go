package console

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestClient_ListReports(t *testing.T) {
	reportID := uuid.New()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/reports" {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Errorf("missing X-Request-ID header")
		}
		if _, err := uuid.Parse(r.Header.Get("X-Request-ID")); err != nil {
			t.Errorf("X-Request-ID is not a UUID: %v", err)
		}
		if got := r.URL.Query().Get("regime"); got != "EMIR" {
			t.Errorf("regime query = %q, want EMIR", got)
		}
		if got := r.URL.Query().Get("limit"); got != "25" {
			t.Errorf("limit query = %q, want 25", got)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"reports": []map[string]interface{}{
				{
					"id":     reportID.String(),
					"name":   "EMIR daily trades",
					"regime": "EMIR",
					"status": "active",
				},
			},
		})
	}))
	defer server.Close()

	client := New(server.URL, server.Client())
	reports, err := client.ListReports(context.Background(), ReportFilter{Regime: "EMIR", Limit: 25})
	if err != nil {
		t.Fatalf("ListReports() error = %v", err)
	}

	if len(reports) != 1 {
		t.Fatalf("got %d reports, want 1", len(reports))
	}
	if reports[0].ID != reportID {
		t.Errorf("report ID = %s, want %s", reports[0].ID, reportID)
	}
	if reports[0].Status != ReportActive {
		t.Errorf("report status = %q, want active", reports[0].Status)
	}
}

func TestClient_TriggerRun(t *testing.T) {
	reportID := uuid.New()
	runID := uuid.New()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wantPath := "/api/reports/" + reportID.String() + "/runs"
		if r.URL.Path != wantPath {
			t.Errorf("path = %s, want %s", r.URL.Path, wantPath)
		}
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":        runID.String(),
			"report_id": reportID.String(),
			"state":     "queued",
		})
	}))
	defer server.Close()

	client := New(server.URL, server.Client())
	run, err := client.TriggerRun(context.Background(), reportID)
	if err != nil {
		t.Fatalf("TriggerRun() error = %v", err)
	}

	if run.ID != runID {
		t.Errorf("run ID = %s, want %s", run.ID, runID)
	}
	if !run.State.Active() {
		t.Errorf("freshly queued run should count as active, state = %q", run.State)
	}
}

func TestClient_SaveMappings(t *testing.T) {
	reportID := uuid.New()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q", got)
		}

		var payload struct {
			Mappings []FieldMapping `json:"mappings"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("invalid mappings body: %v", err)
		}
		if len(payload.Mappings) != 2 {
			t.Errorf("got %d mappings, want 2", len(payload.Mappings))
		}
		if payload.Mappings[0].CDMPath != "trade.counterparty.lei" {
			t.Errorf("first mapping = %+v", payload.Mappings[0])
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := New(server.URL, server.Client())
	err := client.SaveMappings(context.Background(), reportID, []FieldMapping{
		{SourceField: "cpty_lei", CDMPath: "trade.counterparty.lei"},
		{SourceField: "trade_dt", CDMPath: "trade.execution.timestamp", Transform: "to_utc"},
	})
	if err != nil {
		t.Fatalf("SaveMappings() error = %v", err)
	}
}

func TestClient_APIErrorMapping(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantCode    string
		wantMessage string
	}{
		{
			name:        "structured error envelope",
			status:      http.StatusUnprocessableEntity,
			body:        `{"code":"invalid_mapping","message":"unknown CDM path"}`,
			wantCode:    "invalid_mapping",
			wantMessage: "unknown CDM path",
		},
		{
			name:        "plain text error",
			status:      http.StatusBadGateway,
			body:        "upstream unavailable",
			wantCode:    "",
			wantMessage: "upstream unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tt.status)
					w.Write([]byte(tt.body))
				}),
			)
			defer server.Close()

			client := New(server.URL, server.Client())
			_, err := client.ListUsers(context.Background())
			if err == nil {
				t.Fatalf("expected error for status %d", tt.status)
			}

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error is not *APIError: %v", err)
			}
			if apiErr.Status != tt.status {
				t.Errorf("Status = %d, want %d", apiErr.Status, tt.status)
			}
			if apiErr.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", apiErr.Code, tt.wantCode)
			}
			if apiErr.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", apiErr.Message, tt.wantMessage)
			}
		})
	}
}

func TestClient_PassesThroughProvidedClient(t *testing.T) {
	// The console client must not manage credentials itself; it sends
	// whatever the provided http.Client's transport injects.
	var sawAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"users": []interface{}{}})
	}))
	defer server.Close()

	client := New(server.URL, server.Client())
	if _, err := client.ListUsers(context.Background()); err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if sawAuth != "" {
		t.Errorf("console client injected Authorization header %q on its own", sawAuth)
	}
}
