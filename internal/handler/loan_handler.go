package handler

import (
	"net/http"
	"time"

	"github.com/dafibh/lunas/lunas-backend/internal/domain"
	"github.com/dafibh/lunas/lunas-backend/internal/middleware"
	"github.com/dafibh/lunas/lunas-backend/internal/service"
	"github.com/dafibh/lunas/lunas-backend/internal/util"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// LoanHandler handles loan-related HTTP requests
type LoanHandler struct {
	loanService      *service.LoanService
	repaymentService *service.RepaymentService
}

// NewLoanHandler creates a new LoanHandler
func NewLoanHandler(loanService *service.LoanService, repaymentService *service.RepaymentService) *LoanHandler {
	return &LoanHandler{loanService: loanService, repaymentService: repaymentService}
}

// LoanTermsRequest represents loan terms in request bodies
type LoanTermsRequest struct {
	Principal        Amount  `json:"principal" swaggertype:"integer"`
	Plan             string  `json:"plan" enums:"single,installment,open"`
	InstallmentCount *int    `json:"installmentCount,omitempty"`
	DisbursementDate string  `json:"disbursementDate" example:"2026-01-31"`
	DueDate          *string `json:"dueDate,omitempty" example:"2026-06-30"`
}

// CreateLoanRequest represents the create loan request body
type CreateLoanRequest struct {
	Title string `json:"title"`
	LoanTermsRequest
}

// LoanResponse represents a loan in API responses
type LoanResponse struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	Principal        int64   `json:"principal"`
	Plan             string  `json:"plan"`
	InstallmentCount *int    `json:"installmentCount,omitempty"`
	DisbursementDate string  `json:"disbursementDate"`
	DueDate          *string `json:"dueDate,omitempty"`
	LedgerVersion    int64   `json:"ledgerVersion"`
	CreatedAt        string  `json:"createdAt"`
	UpdatedAt        string  `json:"updatedAt"`
}

// ScheduleResponse represents a generated installment schedule
type ScheduleResponse struct {
	Installments []domain.InstallmentSlot `json:"installments"`
	Total        int64                    `json:"total"`
}

// toTermsInput parses the wire form of loan terms, collecting field errors
func (r LoanTermsRequest) toTermsInput() (service.LoanTermsInput, []ValidationError) {
	var errs []ValidationError

	disbursement, err := util.ParseDate(r.DisbursementDate)
	if err != nil {
		errs = append(errs, ValidationError{Field: "disbursementDate", Message: "Must be in YYYY-MM-DD format"})
	}

	var dueDate *util.Date
	if r.DueDate != nil && *r.DueDate != "" {
		d, err := util.ParseDate(*r.DueDate)
		if err != nil {
			errs = append(errs, ValidationError{Field: "dueDate", Message: "Must be in YYYY-MM-DD format"})
		} else {
			dueDate = &d
		}
	}

	return service.LoanTermsInput{
		Principal:        int64(r.Principal),
		Plan:             r.Plan,
		InstallmentCount: r.InstallmentCount,
		DisbursementDate: disbursement,
		DueDate:          dueDate,
	}, errs
}

// CreateLoan handles POST /api/v1/loans
// @Summary Create a loan
// @Description Record the static terms of a loan. Terms are immutable once created.
// @Tags loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param loan body CreateLoanRequest true "Loan terms"
// @Success 201 {object} LoanResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 500 {object} ProblemDetails
// @Router /loans [post]
func (h *LoanHandler) CreateLoan(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req CreateLoanRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input, errs := req.toTermsInput()
	if len(errs) > 0 {
		return NewValidationError(c, "Validation failed", errs)
	}

	loan, err := h.loanService.CreateLoan(c.Request().Context(), ownerID, service.CreateLoanInput{
		Title:          req.Title,
		LoanTermsInput: input,
	})
	if err != nil {
		return handleServiceError(c, err, "Failed to create loan")
	}

	return c.JSON(http.StatusCreated, toLoanResponse(loan))
}

// ListLoans handles GET /api/v1/loans
// @Summary List loans
// @Tags loans
// @Produce json
// @Security BearerAuth
// @Success 200 {array} LoanResponse
// @Failure 401 {object} ProblemDetails
// @Failure 500 {object} ProblemDetails
// @Router /loans [get]
func (h *LoanHandler) ListLoans(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	loans, err := h.loanService.ListLoans(c.Request().Context(), ownerID)
	if err != nil {
		return handleServiceError(c, err, "Failed to list loans")
	}

	response := make([]LoanResponse, len(loans))
	for i, loan := range loans {
		response[i] = toLoanResponse(loan)
	}
	return c.JSON(http.StatusOK, response)
}

// GetLoan handles GET /api/v1/loans/:loanId
// @Summary Get a loan
// @Tags loans
// @Produce json
// @Security BearerAuth
// @Param loanId path string true "Loan ID"
// @Success 200 {object} LoanResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /loans/{loanId} [get]
func (h *LoanHandler) GetLoan(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	loanID, err := uuid.Parse(c.Param("loanId"))
	if err != nil {
		return invalidLoanIDError(c)
	}

	loan, err := h.loanService.GetLoan(c.Request().Context(), ownerID, loanID)
	if err != nil {
		return handleServiceError(c, err, "Failed to get loan")
	}
	return c.JSON(http.StatusOK, toLoanResponse(loan))
}

// PreviewSchedule handles POST /api/v1/loans/schedule-preview
// @Summary Preview an installment schedule
// @Description Generate the schedule for unsaved installment terms
// @Tags loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param terms body LoanTermsRequest true "Loan terms"
// @Success 200 {object} ScheduleResponse
// @Failure 400 {object} ProblemDetails
// @Router /loans/schedule-preview [post]
func (h *LoanHandler) PreviewSchedule(c echo.Context) error {
	var req LoanTermsRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input, errs := req.toTermsInput()
	if len(errs) > 0 {
		return NewValidationError(c, "Validation failed", errs)
	}

	slots, err := h.loanService.PreviewSchedule(input)
	if err != nil {
		return handleServiceError(c, err, "Failed to generate schedule")
	}

	var total int64
	for _, slot := range slots {
		total += slot.Amount
	}
	return c.JSON(http.StatusOK, ScheduleResponse{Installments: slots, Total: total})
}

// GetReconciliation handles GET /api/v1/loans/:loanId/reconciliation
// @Summary Reconcile a loan
// @Description Point-in-time view of what is owed, what is paid and what is overdue
// @Tags loans
// @Produce json
// @Security BearerAuth
// @Param loanId path string true "Loan ID"
// @Param at query string false "Reconciliation date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} domain.ReconciledView
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 500 {object} ProblemDetails
// @Router /loans/{loanId}/reconciliation [get]
func (h *LoanHandler) GetReconciliation(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	loanID, err := uuid.Parse(c.Param("loanId"))
	if err != nil {
		return invalidLoanIDError(c)
	}

	var at *util.Date
	if raw := c.QueryParam("at"); raw != "" {
		d, err := util.ParseDate(raw)
		if err != nil {
			return NewValidationError(c, "Invalid date", []ValidationError{
				{Field: "at", Message: "Must be in YYYY-MM-DD format"},
			})
		}
		at = &d
	}

	view, err := h.repaymentService.Reconcile(c.Request().Context(), ownerID, loanID, at)
	if err != nil {
		return handleServiceError(c, err, "Failed to reconcile loan")
	}
	return c.JSON(http.StatusOK, view)
}

func invalidLoanIDError(c echo.Context) error {
	return NewValidationError(c, "Invalid loan ID", []ValidationError{
		{Field: "loanId", Message: "Must be a valid UUID"},
	})
}

func toLoanResponse(loan *domain.Loan) LoanResponse {
	resp := LoanResponse{
		ID:               loan.ID.String(),
		Title:            loan.Title,
		Principal:        loan.Terms.Principal,
		Plan:             string(loan.Terms.Plan.Kind()),
		InstallmentCount: domain.InstallmentCountOf(loan.Terms.Plan),
		DisbursementDate: loan.Terms.DisbursementDate.String(),
		LedgerVersion:    loan.LedgerVersion,
		CreatedAt:        loan.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        loan.UpdatedAt.Format(time.RFC3339),
	}
	if loan.Terms.DueDate != nil {
		s := loan.Terms.DueDate.String()
		resp.DueDate = &s
	}
	return resp
}
