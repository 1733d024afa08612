package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vicabt/library/internal/auth"
	"github.com/vicabt/library/internal/entities"
	"github.com/vicabt/library/internal/loans"
)

// fakeLoanService records the last call and returns canned results.
type fakeLoanService struct {
	principal    loans.Principal
	requestInput loans.RequestLoanInput
	updateID     string
	updateInput  loans.UpdateLoanInput
	copyState    entities.CopyState

	loan          *entities.Loan
	list          []entities.Loan
	updateResult  *loans.UpdateResult
	stateChange   *loans.StateChange
	discrepancies []loans.Discrepancy
	err           error
}

func (f *fakeLoanService) RequestLoan(ctx context.Context, p loans.Principal, in loans.RequestLoanInput) (*entities.Loan, error) {
	f.principal, f.requestInput = p, in
	return f.loan, f.err
}

func (f *fakeLoanService) UpdateLoan(ctx context.Context, p loans.Principal, id string, in loans.UpdateLoanInput) (*loans.UpdateResult, error) {
	f.principal, f.updateID, f.updateInput = p, id, in
	return f.updateResult, f.err
}

func (f *fakeLoanService) DeleteLoan(ctx context.Context, p loans.Principal, id string) error {
	f.principal, f.updateID = p, id
	return f.err
}

func (f *fakeLoanService) GetLoan(ctx context.Context, p loans.Principal, id string) (*entities.Loan, error) {
	f.principal = p
	return f.loan, f.err
}

func (f *fakeLoanService) ListLoans(ctx context.Context, p loans.Principal) ([]entities.Loan, error) {
	f.principal = p
	return f.list, f.err
}

func (f *fakeLoanService) ListUserLoans(ctx context.Context, p loans.Principal) ([]entities.Loan, error) {
	f.principal = p
	return f.list, f.err
}

func (f *fakeLoanService) SetCopyState(ctx context.Context, p loans.Principal, copyID string, state entities.CopyState) (*loans.StateChange, error) {
	f.principal, f.copyState = p, state
	return f.stateChange, f.err
}

func (f *fakeLoanService) ReconcileCopies(ctx context.Context) ([]loans.Discrepancy, error) {
	return f.discrepancies, f.err
}

// asUser injects an authenticated principal the way auth.Middleware does.
func asUser(id, document string, role entities.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(auth.ContextKeyUserID, id)
		c.Set(auth.ContextKeyDocument, document)
		c.Set(auth.ContextKeyRole, role)
		c.Set(auth.ContextKeyAuthType, auth.AuthTypeBearer)
		c.Next()
	}
}

func setupLoansRouter(svc LoanService, who gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(who)
	NewLoansController(svc, nil).RegisterRoutes(router)
	return router
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestLoansController_RequestLoan(t *testing.T) {
	t.Run("defaults the document number to the caller", func(t *testing.T) {
		svc := &fakeLoanService{loan: &entities.Loan{ID: "l1", Status: entities.LoanStatusRequested}}
		router := setupLoansRouter(svc, asUser("u1", "1001ABCD", entities.UserRoleMember))

		w := doJSON(router, "POST", "/api/loans/request", gin.H{
			"copy_id":  "c1",
			"due_date": "2026-04-01",
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "1001ABCD", svc.requestInput.DocumentNumber)
		assert.Equal(t, "c1", svc.requestInput.CopyID)
		assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), svc.requestInput.DueDate)
		assert.Equal(t, loans.Principal{UserID: "u1", Role: entities.UserRoleMember}, svc.principal)

		var resp struct {
			Loan entities.Loan `json:"loan"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "l1", resp.Loan.ID)
	})

	t.Run("keeps an explicit document number", func(t *testing.T) {
		svc := &fakeLoanService{loan: &entities.Loan{ID: "l1"}}
		router := setupLoansRouter(svc, asUser("lib", "LIB0001", entities.UserRoleLibrarian))

		w := doJSON(router, "POST", "/api/loans/request", gin.H{
			"copy_id":         "c1",
			"document_number": "MEMBER01",
			"due_date":        "2026-04-01",
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "MEMBER01", svc.requestInput.DocumentNumber)
	})

	t.Run("rejects a malformed due date without calling the service", func(t *testing.T) {
		svc := &fakeLoanService{}
		router := setupLoansRouter(svc, asUser("u1", "1001ABCD", entities.UserRoleMember))

		w := doJSON(router, "POST", "/api/loans/request", gin.H{
			"copy_id":  "c1",
			"due_date": "next week",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "validation_error", decodeError(t, w).Code)
		assert.Empty(t, svc.requestInput.CopyID)
	})

	t.Run("maps an unavailable copy to 400", func(t *testing.T) {
		svc := &fakeLoanService{err: &loans.CopyUnavailableError{CopyID: "c1", State: entities.CopyStateLoaned}}
		router := setupLoansRouter(svc, asUser("u1", "1001ABCD", entities.UserRoleMember))

		w := doJSON(router, "POST", "/api/loans/request", gin.H{"copy_id": "c1", "due_date": "2026-04-01"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "copy_unavailable", decodeError(t, w).Code)
	})

	t.Run("rejects invalid JSON", func(t *testing.T) {
		router := setupLoansRouter(&fakeLoanService{}, asUser("u1", "1001ABCD", entities.UserRoleMember))

		req := httptest.NewRequest("POST", "/api/loans/request", bytes.NewBufferString("{not json"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLoansController_UpdateLoan(t *testing.T) {
	staff := asUser("lib", "LIB0001", entities.UserRoleLibrarian)

	t.Run("passes status and dates through", func(t *testing.T) {
		svc := &fakeLoanService{updateResult: &loans.UpdateResult{Loan: &entities.Loan{ID: "l1"}}}
		router := setupLoansRouter(svc, staff)

		w := doJSON(router, "PUT", "/api/loans/l1", gin.H{
			"status":   "approved",
			"due_date": "2026-05-01",
		})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "l1", svc.updateID)
		require.NotNil(t, svc.updateInput.Status)
		assert.Equal(t, entities.LoanStatusApproved, *svc.updateInput.Status)
		require.NotNil(t, svc.updateInput.DueDate)
		assert.Nil(t, svc.updateInput.LoanDate)
		assert.NotContains(t, w.Body.String(), "warning")
	})

	t.Run("status route behaves like the plain update", func(t *testing.T) {
		svc := &fakeLoanService{updateResult: &loans.UpdateResult{Loan: &entities.Loan{ID: "l1"}}}
		router := setupLoansRouter(svc, staff)

		w := doJSON(router, "PUT", "/api/loans/l1/status", gin.H{"status": "rejected"})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, entities.LoanStatusRejected, *svc.updateInput.Status)
	})

	t.Run("return route defaults to returned with an empty body", func(t *testing.T) {
		svc := &fakeLoanService{updateResult: &loans.UpdateResult{Loan: &entities.Loan{ID: "l1"}}}
		router := setupLoansRouter(svc, staff)

		w := doJSON(router, "PUT", "/api/loans/l1/return", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, svc.updateInput.Status)
		assert.Equal(t, entities.LoanStatusReturned, *svc.updateInput.Status)
	})

	t.Run("return route accepts an empty chunked body", func(t *testing.T) {
		svc := &fakeLoanService{updateResult: &loans.UpdateResult{Loan: &entities.Loan{ID: "l1"}}}
		router := setupLoansRouter(svc, staff)

		req := httptest.NewRequest("PUT", "/api/loans/l1/return", bytes.NewReader(nil))
		req.ContentLength = -1
		req.TransferEncoding = []string{"chunked"}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, svc.updateInput.Status)
		assert.Equal(t, entities.LoanStatusReturned, *svc.updateInput.Status)
	})

	t.Run("malformed body is still rejected", func(t *testing.T) {
		svc := &fakeLoanService{updateResult: &loans.UpdateResult{Loan: &entities.Loan{ID: "l1"}}}
		router := setupLoansRouter(svc, staff)

		req := httptest.NewRequest("PUT", "/api/loans/l1/return", bytes.NewReader([]byte(`{"status":`)))
		req.ContentLength = -1
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("includes the reconciliation warning", func(t *testing.T) {
		svc := &fakeLoanService{updateResult: &loans.UpdateResult{
			Loan: &entities.Loan{ID: "l1", Status: entities.LoanStatusReturned},
			Warning: &loans.ReconciliationWarning{
				LoanID: "l1",
				CopyID: "c1",
				Err:    loans.NewConflictError("copy", "c1", "expected state loaned, found lost"),
			},
		}}
		router := setupLoansRouter(svc, staff)

		w := doJSON(router, "PUT", "/api/loans/l1/return", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp UpdateLoanResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "l1", resp.Loan.ID)
		assert.NotEmpty(t, resp.Warning)
	})

	t.Run("maps forbidden to 403", func(t *testing.T) {
		svc := &fakeLoanService{err: &loans.ForbiddenError{Action: "approve loans"}}
		router := setupLoansRouter(svc, asUser("u1", "1001ABCD", entities.UserRoleMember))

		w := doJSON(router, "PUT", "/api/loans/l1/status", gin.H{"status": "approved"})

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("maps conflict to 409", func(t *testing.T) {
		svc := &fakeLoanService{err: loans.NewConflictError("copy", "c1", "copy already has an open loan")}
		router := setupLoansRouter(svc, staff)

		w := doJSON(router, "PUT", "/api/loans/l1/status", gin.H{"status": "approved"})

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("rejects a malformed loan date", func(t *testing.T) {
		svc := &fakeLoanService{}
		router := setupLoansRouter(svc, staff)

		w := doJSON(router, "PUT", "/api/loans/l1", gin.H{"loan_date": "yesterday"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, svc.updateID)
	})
}

func TestLoansController_DeleteAndRead(t *testing.T) {
	staff := asUser("lib", "LIB0001", entities.UserRoleLibrarian)

	t.Run("delete", func(t *testing.T) {
		svc := &fakeLoanService{}
		w := doJSON(setupLoansRouter(svc, staff), "DELETE", "/api/loans/l1", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "l1", svc.updateID)
		assert.Contains(t, w.Body.String(), "loan l1 deleted")
	})

	t.Run("get missing loan", func(t *testing.T) {
		svc := &fakeLoanService{err: loans.NewNotFoundError("loan", "nope")}
		w := doJSON(setupLoansRouter(svc, staff), "GET", "/api/loans/nope", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("list returns an empty array rather than null", func(t *testing.T) {
		svc := &fakeLoanService{}
		w := doJSON(setupLoansRouter(svc, staff), "GET", "/api/loans", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"loans":[],"count":0}`, w.Body.String())
	})

	t.Run("mine uses the caller", func(t *testing.T) {
		svc := &fakeLoanService{list: []entities.Loan{{ID: "l1"}, {ID: "l2"}}}
		w := doJSON(setupLoansRouter(svc, asUser("u1", "1001ABCD", entities.UserRoleMember)), "GET", "/api/loans/mine", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "u1", svc.principal.UserID)
		assert.Contains(t, w.Body.String(), `"count":2`)
	})

	t.Run("internal errors are hidden", func(t *testing.T) {
		svc := &fakeLoanService{err: errors.New("database is locked")}
		w := doJSON(setupLoansRouter(svc, staff), "GET", "/api/loans", nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "locked")
	})
}
