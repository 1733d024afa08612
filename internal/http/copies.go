package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vicabt/library/internal/database/copies"
	"github.com/vicabt/library/internal/entities"
	"github.com/vicabt/library/internal/loans"
)

// CopiesController handles single-copy endpoints and the reconciliation report.
type CopiesController struct {
	copies   CopyStore
	loans    LoanService
	activity ActivityLog
}

func NewCopiesController(copies CopyStore, loanService LoanService, activity ActivityLog) *CopiesController {
	return &CopiesController{
		copies:   copies,
		loans:    loanService,
		activity: activity,
	}
}

// GetCopy handles GET /api/copies/:id
func (cc *CopiesController) GetCopy(c *gin.Context) {
	cp, err := cc.copies.GetCopy(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "get copy")
		return
	}
	c.JSON(http.StatusOK, cp)
}

type copyStateBody struct {
	State string `json:"state"`
}

// SetState handles PATCH /api/copies/:id/state
func (cc *CopiesController) SetState(c *gin.Context) {
	var body copyStateBody
	if err := c.ShouldBindJSON(&body); err != nil || body.State == "" {
		respondBadRequest(c, "state is required")
		return
	}

	p := principalFrom(c)
	change, err := cc.loans.SetCopyState(c.Request.Context(), p, c.Param("id"), entities.CopyState(body.State))
	if err != nil {
		respondServiceError(c, err, "set copy state")
		return
	}

	if cc.activity != nil && change.From != change.Copy.State {
		cc.activity.LogStateChange(p.UserID, change.Copy.ID, change.From, change.Copy.State)
	}
	c.JSON(http.StatusOK, change.Copy)
}

type updateCopyBody struct {
	Code     *string `json:"code"`
	Location *string `json:"location"`
	State    *string `json:"state"`
}

// UpdateCopy handles PUT /api/copies/:id. Staff only; edits the code and
// shelf location. State changes go through PATCH /api/copies/:id/state.
func (cc *CopiesController) UpdateCopy(c *gin.Context) {
	p := principalFrom(c)
	if !p.IsStaff() {
		respondServiceError(c, &loans.ForbiddenError{Action: "edit copies"}, "update copy")
		return
	}

	var body updateCopyBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if body.State != nil {
		respondBadRequest(c, "state cannot be changed here; use PATCH /api/copies/:id/state")
		return
	}

	id := c.Param("id")
	cp, err := cc.copies.UpdateCopy(c.Request.Context(), id, copies.CopyDetails{
		Code:     body.Code,
		Location: body.Location,
	})
	if err != nil {
		respondServiceError(c, err, "update copy")
		return
	}
	if cc.activity != nil {
		cc.activity.Record(p.UserID, entities.ActivityUpdate, "copy", id, "Copy "+cp.Code+" updated")
	}
	c.JSON(http.StatusOK, cp)
}

// DeleteCopy handles DELETE /api/copies/:id. Staff only; loaned copies
// cannot be removed.
func (cc *CopiesController) DeleteCopy(c *gin.Context) {
	p := principalFrom(c)
	if !p.IsStaff() {
		respondServiceError(c, &loans.ForbiddenError{Action: "delete copies"}, "delete copy")
		return
	}

	id := c.Param("id")
	if err := cc.copies.DeleteCopy(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "delete copy")
		return
	}
	if cc.activity != nil {
		cc.activity.Record(p.UserID, entities.ActivityDelete, "copy", id, "Copy "+id+" deleted")
	}
	respondSuccess(c, "copy "+id+" deleted")
}

// Reconciliation handles GET /api/copies/reconciliation
func (cc *CopiesController) Reconciliation(c *gin.Context) {
	found, err := cc.loans.ReconcileCopies(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "reconcile copies")
		return
	}
	if found == nil {
		found = []loans.Discrepancy{}
	}
	c.JSON(http.StatusOK, gin.H{
		"discrepancies": found,
		"count":         len(found),
	})
}
