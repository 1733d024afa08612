package http

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vicabt/library/internal/auth"
	"github.com/vicabt/library/internal/loans"
)

// principalFrom builds the loan-core principal from the auth context.
func principalFrom(c *gin.Context) loans.Principal {
	return loans.Principal{
		UserID: auth.GetUserID(c),
		Role:   auth.GetUserRole(c),
	}
}

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Details any    `json:"details,omitempty"` // additional context
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// PaginatedResponse wraps paginated data with metadata.
type PaginatedResponse struct {
	Data       any   `json:"data"`
	Total      int64 `json:"total"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
	HasMore    bool  `json:"has_more"`
	TotalPages int   `json:"total_pages,omitempty"`
}

// --- Error Response Helpers ---

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found"})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

// respondServiceError translates loan-core errors into HTTP responses.
func respondServiceError(c *gin.Context, err error, context string) {
	var (
		validation  *loans.ValidationError
		notFound    *loans.NotFoundError
		unavailable *loans.CopyUnavailableError
		conflict    *loans.ConflictError
		forbidden   *loans.ForbiddenError
	)
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: validation.Error(), Code: "validation_error"})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: notFound.Error(), Code: "not_found"})
	case errors.As(err, &unavailable):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   unavailable.Error(),
			Code:    "copy_unavailable",
			Details: gin.H{"copy_id": unavailable.CopyID, "state": unavailable.State},
		})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: conflict.Error(), Code: "conflict"})
	case errors.As(err, &forbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: forbidden.Error(), Code: "forbidden"})
	default:
		respondInternalError(c, err, context)
	}
}

// --- Success Response Helpers ---

func respondSuccess(c *gin.Context, message string) {
	c.JSON(http.StatusOK, SuccessResponse{Message: message})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// respondAccepted sends a 202 Accepted response (for async operations).
func respondAccepted(c *gin.Context, message string, data any) {
	c.JSON(http.StatusAccepted, SuccessResponse{Message: message, Data: data})
}

// --- Parameter Parsing ---

// bindOptionalJSON binds a JSON body when one is sent. An empty body, with
// or without a Content-Length, leaves obj untouched.
func bindOptionalJSON(c *gin.Context, obj any) error {
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// parsePagination reads limit/offset query parameters, clamping limit to
// [1, maxLimit] and defaulting it to defaultLimit.
func parsePagination(c *gin.Context, defaultLimit, maxLimit int) (limit, offset int) {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset, err = strconv.Atoi(c.Query("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

func newPaginatedResponse(data any, total int64, limit, offset int) PaginatedResponse {
	return PaginatedResponse{
		Data:       data,
		Total:      total,
		Limit:      limit,
		Offset:     offset,
		HasMore:    int64(offset+limit) < total,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}
}

// parseDate accepts YYYY-MM-DD (midnight in loc, UTC when nil) or RFC 3339.
func parseDate(field, value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	value = strings.TrimSpace(value)
	if t, err := time.ParseInLocation(time.DateOnly, value, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Time{}, loans.NewValidationError("%s must be a date (YYYY-MM-DD) or an RFC 3339 timestamp", field)
}

// parseOptionalDate parses value when present. A nil pointer means the field
// was absent.
func parseOptionalDate(field string, value *string, loc *time.Location) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	t, err := parseDate(field, *value, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
