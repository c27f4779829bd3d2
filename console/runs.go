package console

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
)

// ListRuns returns report runs matching the filter, newest first.
func (c *Client) ListRuns(ctx context.Context, filter RunFilter) ([]ReportRun, error) {
	query := url.Values{}
	if filter.ReportID != uuid.Nil {
		query.Set("report_id", filter.ReportID.String())
	}
	if filter.State != "" {
		query.Set("state", string(filter.State))
	}
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}

	var result struct {
		Runs []ReportRun `json:"runs"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/runs", query, nil, &result); err != nil {
		return nil, err
	}
	return result.Runs, nil
}

// GetRun returns one report run.
func (c *Client) GetRun(ctx context.Context, id uuid.UUID) (*ReportRun, error) {
	var run ReportRun
	if err := c.do(ctx, http.MethodGet, "/api/runs/"+id.String(), nil, nil, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// TriggerRun queues a new execution of a report definition and returns
// the created run.
func (c *Client) TriggerRun(ctx context.Context, reportID uuid.UUID) (*ReportRun, error) {
	var run ReportRun
	path := "/api/reports/" + reportID.String() + "/runs"
	if err := c.do(ctx, http.MethodPost, path, nil, nil, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// CancelRun requests cancellation of a queued or running execution.
func (c *Client) CancelRun(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodPost, "/api/runs/"+id.String()+"/cancel", nil, nil, nil)
}
