package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/dafibh/lunas/lunas-backend/internal/domain"
	"github.com/dafibh/lunas/lunas-backend/internal/middleware"
	"github.com/dafibh/lunas/lunas-backend/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// LoanPaymentHandler handles payment submission and proof access
type LoanPaymentHandler struct {
	repaymentService *service.RepaymentService
}

// NewLoanPaymentHandler creates a new LoanPaymentHandler
func NewLoanPaymentHandler(repaymentService *service.RepaymentService) *LoanPaymentHandler {
	return &LoanPaymentHandler{repaymentService: repaymentService}
}

// SubmitPaymentResponse represents an accepted payment submission
type SubmitPaymentResponse struct {
	Accepted       bool                   `json:"accepted"`
	LedgerVersion  int64                  `json:"ledgerVersion"`
	Entry          domain.LedgerEntry     `json:"entry"`
	Reconciliation *domain.ReconciledView `json:"reconciliation"`
}

// SubmitPayment handles POST /api/v1/loans/:loanId/payments
// @Summary Submit a payment
// @Description Attach a proof to a payment. Installment loans require slotNumber; amount 0 or omitted means the scheduled amount.
// @Tags payments
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param loanId path string true "Loan ID"
// @Param proof formData file true "Payment proof image (JPEG or PNG)"
// @Param amount formData string false "Amount in minor units"
// @Param slotNumber formData int false "Installment slot number"
// @Param expectedVersion formData int false "Ledger version the client reconciled against"
// @Param note formData string false "Note (open plans)"
// @Success 201 {object} SubmitPaymentResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Failure 422 {object} ProblemDetails
// @Failure 429 {object} ProblemDetails
// @Router /loans/{loanId}/payments [post]
func (h *LoanPaymentHandler) SubmitPayment(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	loanID, err := uuid.Parse(c.Param("loanId"))
	if err != nil {
		return invalidLoanIDError(c)
	}

	input, errs := parseSubmitForm(c)
	if len(errs) > 0 {
		return NewValidationError(c, "Validation failed", errs)
	}

	proof, err := readProof(c)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read uploaded proof")
		return NewInternalError(c, "Failed to read file")
	}
	input.Proof = proof

	outcome, err := h.repaymentService.SubmitPayment(c.Request().Context(), ownerID, loanID, input)
	if err != nil {
		return handleServiceError(c, err, "Failed to submit payment")
	}

	return c.JSON(http.StatusCreated, SubmitPaymentResponse{
		Accepted:       true,
		LedgerVersion:  outcome.Ledger.Version,
		Entry:          outcome.Entry,
		Reconciliation: outcome.View,
	})
}

// GetProofURL handles GET /api/v1/loans/:loanId/proofs/url
// @Summary Get presigned proof URLs
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param loanId path string true "Loan ID"
// @Param ref query string true "Proof reference"
// @Success 200 {object} service.ProofURLs
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 503 {object} ProblemDetails
// @Router /loans/{loanId}/proofs/url [get]
func (h *LoanPaymentHandler) GetProofURL(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	loanID, err := uuid.Parse(c.Param("loanId"))
	if err != nil {
		return invalidLoanIDError(c)
	}

	ref := c.QueryParam("ref")
	if ref == "" {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "ref", Message: "Proof reference is required"},
		})
	}

	urls, err := h.repaymentService.ProofURLs(c.Request().Context(), ownerID, loanID, ref)
	if err != nil {
		return handleServiceError(c, err, "Failed to generate proof URL")
	}
	return c.JSON(http.StatusOK, urls)
}

func parseSubmitForm(c echo.Context) (service.SubmitPaymentInput, []ValidationError) {
	var input service.SubmitPaymentInput
	var errs []ValidationError

	if raw := strings.TrimSpace(c.FormValue("amount")); raw != "" {
		amount, err := parseAmount(raw)
		if err != nil {
			errs = append(errs, ValidationError{Field: "amount", Message: "Amount " + err.Error()})
		}
		input.Amount = amount
	}

	if raw := strings.TrimSpace(c.FormValue("slotNumber")); raw != "" {
		slot, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, ValidationError{Field: "slotNumber", Message: "Must be an integer"})
		} else {
			input.SlotNumber = &slot
		}
	}

	if raw := strings.TrimSpace(c.FormValue("expectedVersion")); raw != "" {
		version, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			errs = append(errs, ValidationError{Field: "expectedVersion", Message: "Must be an integer"})
		} else {
			input.ExpectedVersion = &version
		}
	}

	if note := c.FormValue("note"); note != "" {
		input.Note = &note
	}

	return input, errs
}

// readProof returns the uploaded proof, or nil when none was sent
func readProof(c echo.Context) (*service.ProofUpload, error) {
	file, err := c.FormFile("proof")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}

	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	// One byte over the limit is enough for validation to reject it
	data, err := io.ReadAll(io.LimitReader(src, service.MaxProofSize+1))
	if err != nil {
		return nil, err
	}
	return &service.ProofUpload{Data: data, Filename: file.Filename}, nil
}
