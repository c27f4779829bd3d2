package console

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// CDMFields returns the common-data-model dictionary the mapping screens
// browse. The dictionary is server-controlled and read-only.
func (c *Client) CDMFields(ctx context.Context) ([]CDMField, error) {
	var result struct {
		Fields []CDMField `json:"fields"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/cdm/fields", nil, nil, &result); err != nil {
		return nil, err
	}
	return result.Fields, nil
}

// ReportMappings returns the field mappings configured for a report.
func (c *Client) ReportMappings(ctx context.Context, reportID uuid.UUID) ([]FieldMapping, error) {
	var result struct {
		Mappings []FieldMapping `json:"mappings"`
	}
	path := "/api/reports/" + reportID.String() + "/mappings"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &result); err != nil {
		return nil, err
	}
	return result.Mappings, nil
}

// SaveMappings replaces a report's field mappings wholesale. The backend
// validates CDM paths against the dictionary and rejects unknown ones.
func (c *Client) SaveMappings(ctx context.Context, reportID uuid.UUID, mappings []FieldMapping) error {
	payload := struct {
		Mappings []FieldMapping `json:"mappings"`
	}{Mappings: mappings}
	path := "/api/reports/" + reportID.String() + "/mappings"
	return c.do(ctx, http.MethodPut, path, nil, payload, nil)
}
