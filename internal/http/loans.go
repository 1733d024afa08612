package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vicabt/library/internal/auth"
	"github.com/vicabt/library/internal/entities"
	"github.com/vicabt/library/internal/loans"
)

// LoansController exposes the loan lifecycle.
type LoansController struct {
	service LoanService
	loc     *time.Location
}

// NewLoansController reads date-only values as midnight in loc. A nil loc
// means UTC.
func NewLoansController(service LoanService, loc *time.Location) *LoansController {
	if loc == nil {
		loc = time.UTC
	}
	return &LoansController{service: service, loc: loc}
}

func (lc *LoansController) RegisterRoutes(router gin.IRouter) {
	group := router.Group("/api/loans")
	group.POST("/request", lc.RequestLoan)
	group.GET("", lc.ListLoans)
	group.GET("/mine", lc.ListMyLoans)
	group.GET("/:id", lc.GetLoan)
	group.PUT("/:id", lc.UpdateLoan)
	group.PUT("/:id/status", lc.UpdateLoan)
	group.PUT("/:id/return", lc.ReturnLoan)
	group.DELETE("/:id", lc.DeleteLoan)
}

type requestLoanBody struct {
	CopyID         string `json:"copy_id"`
	DocumentNumber string `json:"document_number"`
	DueDate        string `json:"due_date"`
}

type updateLoanBody struct {
	DueDate  *string `json:"due_date"`
	LoanDate *string `json:"loan_date"`
	Status   *string `json:"status"`
}

// UpdateLoanResponse carries the updated loan and, when the copy could not be
// released, a warning for the operator.
type UpdateLoanResponse struct {
	Loan    *entities.Loan `json:"loan"`
	Warning string         `json:"warning,omitempty"`
}

// RequestLoan handles POST /api/loans/request
func (lc *LoansController) RequestLoan(c *gin.Context) {
	var body requestLoanBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	in := loans.RequestLoanInput{
		CopyID:         body.CopyID,
		DocumentNumber: body.DocumentNumber,
	}
	// Members may omit their own document number.
	if in.DocumentNumber == "" {
		in.DocumentNumber = auth.GetDocumentNumber(c)
	}
	if body.DueDate != "" {
		due, err := parseDate("due_date", body.DueDate, lc.loc)
		if err != nil {
			respondServiceError(c, err, "request loan")
			return
		}
		in.DueDate = due
	}

	loan, err := lc.service.RequestLoan(c.Request.Context(), principalFrom(c), in)
	if err != nil {
		respondServiceError(c, err, "request loan")
		return
	}
	respondCreated(c, gin.H{"loan": loan})
}

// UpdateLoan handles PUT /api/loans/:id and PUT /api/loans/:id/status
func (lc *LoansController) UpdateLoan(c *gin.Context) {
	lc.update(c, nil)
}

// ReturnLoan handles PUT /api/loans/:id/return. The status defaults to
// returned when the body does not name one.
func (lc *LoansController) ReturnLoan(c *gin.Context) {
	returned := string(entities.LoanStatusReturned)
	lc.update(c, &returned)
}

func (lc *LoansController) update(c *gin.Context, defaultStatus *string) {
	var body updateLoanBody
	if err := bindOptionalJSON(c, &body); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if body.Status == nil {
		body.Status = defaultStatus
	}

	in, err := body.toInput(lc.loc)
	if err != nil {
		respondServiceError(c, err, "update loan")
		return
	}

	result, err := lc.service.UpdateLoan(c.Request.Context(), principalFrom(c), c.Param("id"), in)
	if err != nil {
		respondServiceError(c, err, "update loan")
		return
	}

	resp := UpdateLoanResponse{Loan: result.Loan}
	if result.Warning != nil {
		resp.Warning = result.Warning.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (b updateLoanBody) toInput(loc *time.Location) (loans.UpdateLoanInput, error) {
	var in loans.UpdateLoanInput
	var err error
	if in.DueDate, err = parseOptionalDate("due_date", b.DueDate, loc); err != nil {
		return in, err
	}
	if in.LoanDate, err = parseOptionalDate("loan_date", b.LoanDate, loc); err != nil {
		return in, err
	}
	if b.Status != nil {
		status := entities.LoanStatus(*b.Status)
		in.Status = &status
	}
	return in, nil
}

// DeleteLoan handles DELETE /api/loans/:id
func (lc *LoansController) DeleteLoan(c *gin.Context) {
	id := c.Param("id")
	if err := lc.service.DeleteLoan(c.Request.Context(), principalFrom(c), id); err != nil {
		respondServiceError(c, err, "delete loan")
		return
	}
	respondSuccess(c, "loan "+id+" deleted")
}

// GetLoan handles GET /api/loans/:id
func (lc *LoansController) GetLoan(c *gin.Context) {
	loan, err := lc.service.GetLoan(c.Request.Context(), principalFrom(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "get loan")
		return
	}
	c.JSON(http.StatusOK, gin.H{"loan": loan})
}

// ListLoans handles GET /api/loans
func (lc *LoansController) ListLoans(c *gin.Context) {
	list, err := lc.service.ListLoans(c.Request.Context(), principalFrom(c))
	if err != nil {
		respondServiceError(c, err, "list loans")
		return
	}
	respondLoanList(c, list)
}

// ListMyLoans handles GET /api/loans/mine
func (lc *LoansController) ListMyLoans(c *gin.Context) {
	list, err := lc.service.ListUserLoans(c.Request.Context(), principalFrom(c))
	if err != nil {
		respondServiceError(c, err, "list user loans")
		return
	}
	respondLoanList(c, list)
}

func respondLoanList(c *gin.Context, list []entities.Loan) {
	if list == nil {
		list = []entities.Loan{}
	}
	c.JSON(http.StatusOK, gin.H{
		"loans": list,
		"count": len(list),
	})
}
