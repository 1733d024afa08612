package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vicabt/library/internal/entities"
	"github.com/vicabt/library/internal/loans"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRespondServiceError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", loans.NewValidationError("due_date is required"), http.StatusBadRequest, "validation_error"},
		{"not found", loans.NewNotFoundError("loan", "x"), http.StatusNotFound, "not_found"},
		{"unavailable", &loans.CopyUnavailableError{CopyID: "c1", State: entities.CopyStateLoaned}, http.StatusBadRequest, "copy_unavailable"},
		{"conflict", loans.NewConflictError("copy", "c1", "busy"), http.StatusConflict, "conflict"},
		{"forbidden", &loans.ForbiddenError{Action: "approve loans"}, http.StatusForbidden, "forbidden"},
		{"wrapped not found", errors.Join(errors.New("ctx"), loans.NewNotFoundError("copy", "c9")), http.StatusNotFound, "not_found"},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondServiceError(c, tt.err, "test")

			assert.Equal(t, tt.status, w.Code)
			resp := decodeError(t, w)
			assert.Equal(t, tt.code, resp.Code)
			if tt.status == http.StatusInternalServerError {
				assert.Equal(t, "internal server error", resp.Error)
			}
		})
	}
}

func TestRespondServiceError_UnavailableDetails(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondServiceError(c, &loans.CopyUnavailableError{CopyID: "c1", State: entities.CopyStateDamaged}, "test")

	var resp struct {
		Details map[string]string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "c1", resp.Details["copy_id"])
	assert.Equal(t, "damaged", resp.Details["state"])
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query          string
		expectedLimit  int
		expectedOffset int
	}{
		{"", 25, 0},
		{"?limit=10&offset=20", 10, 20},
		{"?limit=500", 100, 0},
		{"?limit=0&offset=-3", 25, 0},
		{"?limit=abc&offset=xyz", 25, 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("GET", "/"+tt.query, nil)

			limit, offset := parsePagination(c, 25, 100)

			assert.Equal(t, tt.expectedLimit, limit)
			assert.Equal(t, tt.expectedOffset, offset)
		})
	}
}

func TestNewPaginatedResponse(t *testing.T) {
	resp := newPaginatedResponse([]int{1, 2}, 45, 20, 20)

	assert.Equal(t, int64(45), resp.Total)
	assert.True(t, resp.HasMore)
	assert.Equal(t, 3, resp.TotalPages)

	last := newPaginatedResponse([]int{1}, 45, 20, 40)
	assert.False(t, last.HasMore)
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("due_date", "2026-04-01", nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), d)

	bogota := time.FixedZone("COT", -5*3600)
	d, err = parseDate("due_date", "2026-04-01", bogota)
	require.NoError(t, err)
	assert.True(t, time.Date(2026, 4, 1, 5, 0, 0, 0, time.UTC).Equal(d))

	d, err = parseDate("due_date", " 2026-04-01T15:30:00Z ", bogota)
	require.NoError(t, err)
	assert.Equal(t, 15, d.Hour())

	_, err = parseDate("due_date", "01/04/2026", time.UTC)
	var validation *loans.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, err.Error(), "due_date")
}

func TestParseOptionalDate(t *testing.T) {
	d, err := parseOptionalDate("loan_date", nil, time.UTC)
	require.NoError(t, err)
	assert.Nil(t, d)

	value := "2026-05-10"
	d, err = parseOptionalDate("loan_date", &value, time.UTC)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, time.May, d.Month())

	bad := "soon"
	_, err = parseOptionalDate("loan_date", &bad, time.UTC)
	assert.Error(t, err)
}
