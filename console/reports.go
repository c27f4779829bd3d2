package console

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
)

// ListReports returns report definitions matching the filter.
func (c *Client) ListReports(ctx context.Context, filter ReportFilter) ([]Report, error) {
	query := url.Values{}
	if filter.Regime != "" {
		query.Set("regime", filter.Regime)
	}
	if filter.Status != "" {
		query.Set("status", string(filter.Status))
	}
	if filter.Search != "" {
		query.Set("search", filter.Search)
	}
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}

	var result struct {
		Reports []Report `json:"reports"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/reports", query, nil, &result); err != nil {
		return nil, err
	}
	return result.Reports, nil
}

// GetReport returns one report definition.
func (c *Client) GetReport(ctx context.Context, id uuid.UUID) (*Report, error) {
	var report Report
	if err := c.do(ctx, http.MethodGet, "/api/reports/"+id.String(), nil, nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// CreateReport creates a new report definition in draft state.
func (c *Client) CreateReport(ctx context.Context, spec ReportSpec) (*Report, error) {
	var report Report
	if err := c.do(ctx, http.MethodPost, "/api/reports", nil, spec, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// UpdateReport replaces the writable fields of a report definition.
func (c *Client) UpdateReport(ctx context.Context, id uuid.UUID, spec ReportSpec) (*Report, error) {
	var report Report
	if err := c.do(ctx, http.MethodPut, "/api/reports/"+id.String(), nil, spec, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// DeleteReport removes a report definition. The backend rejects deletion
// of reports with active runs.
func (c *Client) DeleteReport(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/reports/"+id.String(), nil, nil, nil)
}
