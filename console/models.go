package console

import (
	"time"

	"github.com/google/uuid"
)

// ReportStatus is the lifecycle state of a report definition.
type ReportStatus string

const (
	ReportDraft   ReportStatus = "draft"
	ReportActive  ReportStatus = "active"
	ReportRetired ReportStatus = "retired"
)

// Report is a configured regulatory report definition.
type Report struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Regime      string       `json:"regime"` // e.g. EMIR, MiFIR, SFTR
	Template    string       `json:"template"`
	Status      ReportStatus `json:"status"`
	OutputForm  string       `json:"output_format"`
	Description string       `json:"description,omitempty"`
	CreatedBy   string       `json:"created_by"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// ReportSpec is the writable subset of a report definition.
type ReportSpec struct {
	Name        string `json:"name"`
	Regime      string `json:"regime"`
	Template    string `json:"template"`
	OutputForm  string `json:"output_format"`
	Description string `json:"description,omitempty"`
}

// ReportFilter narrows ListReports.
type ReportFilter struct {
	Regime string
	Status ReportStatus
	Search string
	Limit  int
}

// RunState is the execution state of a report run.
type RunState string

const (
	RunQueued    RunState = "queued"
	RunRunning   RunState = "running"
	RunSucceeded RunState = "succeeded"
	RunFailed    RunState = "failed"
	RunCancelled RunState = "cancelled"
)

// Active reports whether the run is still in flight.
func (s RunState) Active() bool {
	return s == RunQueued || s == RunRunning
}

// ReportRun is one execution of a report definition.
type ReportRun struct {
	ID          uuid.UUID `json:"id"`
	ReportID    uuid.UUID `json:"report_id"`
	ReportName  string    `json:"report_name"`
	State       RunState  `json:"state"`
	RecordCount int       `json:"record_count"`
	ErrorCount  int       `json:"error_count"`
	TriggeredBy string    `json:"triggered_by"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at,omitzero"`
}

// RunFilter narrows ListRuns.
type RunFilter struct {
	ReportID uuid.UUID
	State    RunState
	Limit    int
}

// CDMField is one entry of the common-data-model dictionary: a canonical
// field reports can map source data onto.
type CDMField struct {
	Path     string `json:"path"` // dotted, e.g. trade.counterparty.lei
	Label    string `json:"label"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
	Notes    string `json:"notes,omitempty"`
}

// FieldMapping binds a source field of a report's input data to a CDM
// dictionary path, optionally through a named transform.
type FieldMapping struct {
	SourceField string `json:"source_field"`
	CDMPath     string `json:"cdm_path"`
	Transform   string `json:"transform,omitempty"`
}

// User is an administrative console account.
type User struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
	Roles    []string  `json:"roles"`
	Active   bool      `json:"active"`
	LastSeen time.Time `json:"last_seen,omitzero"`
}

// UserSpec is the writable subset of a user account.
type UserSpec struct {
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	Roles    []string `json:"roles"`
}

// Role describes a grantable role and its permissions.
type Role struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}
