// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import "commissionflow/internal/core/types"

// --- Pagination ---

// ListQuery contains list pagination parameters.
type ListQuery struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// Defaults sets default pagination values.
func (q *ListQuery) Defaults() {
	if q.Limit == 0 {
		q.Limit = 50
	}
}

// ListResponse wraps list results with pagination metadata.
type ListResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// --- Shared requests ---

// SubmitPricesRequest carries per-SKU unit prices. Used by the expected
// and actual price submission endpoints of both order types.
type SubmitPricesRequest struct {
	Prices map[string]types.Money `json:"prices" binding:"required,min=1"`
}

// --- Generic responses ---

// IDResponse contains created entity ID.
type IDResponse struct {
	ID string `json:"id"`
}

// SuccessResponse is a generic success response.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse is a generic error response (produced by middleware).
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
