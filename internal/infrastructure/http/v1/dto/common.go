// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"time"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/domain"
)

// dateLayout is accepted next to RFC 3339 in query parameters.
const dateLayout = "2006-01-02"

// --- List Response ---

// ListResponse wraps list results with pagination.
type ListResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// NewListResponse wraps a domain list result.
func NewListResponse[T any](r domain.ListResult[T]) ListResponse {
	items := r.Items
	if items == nil {
		items = []T{}
	}
	return ListResponse{
		Items:      items,
		TotalCount: r.TotalCount,
		Limit:      r.Limit,
		Offset:     r.Offset,
	}
}

// --- Common Filters ---

// ListQuery contains common query parameters of list endpoints.
type ListQuery struct {
	Search   string `form:"search"`
	OrderBy  string `form:"orderBy"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset   int    `form:"offset" binding:"omitempty,min=0"`
	DateFrom string `form:"dateFrom"`
	DateTo   string `form:"dateTo"`
}

// ToFilter converts query parameters to a domain filter.
// defaultOrder is used when the client gives none.
func (q ListQuery) ToFilter(defaultOrder string) (domain.ListFilter, error) {
	filter := domain.DefaultListFilter()
	filter.Search = q.Search
	filter.OrderBy = defaultOrder
	if q.OrderBy != "" {
		filter.OrderBy = q.OrderBy
	}
	if q.Limit > 0 {
		filter.Limit = q.Limit
	}
	filter.Offset = q.Offset

	var err error
	if filter.DateFrom, err = parseDate("dateFrom", q.DateFrom, false); err != nil {
		return filter, err
	}
	if filter.DateTo, err = parseDate("dateTo", q.DateTo, true); err != nil {
		return filter, err
	}
	return filter, nil
}

// parseDate accepts RFC 3339 or a bare date. A bare upper bound covers the whole day.
func parseDate(field, raw string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, apperror.NewFieldValidation(field, "expected RFC 3339 timestamp or YYYY-MM-DD")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// ParsePartyID parses an optional party filter such as customerId.
func ParsePartyID(field, raw string) (*id.ID, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := id.Parse(raw)
	if err != nil {
		return nil, apperror.NewFieldValidation(field, "invalid id format")
	}
	return &v, nil
}

// --- ID Response ---

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
