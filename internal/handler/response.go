package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dafibh/lunas/lunas-backend/internal/domain"
	"github.com/dafibh/lunas/lunas-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Accepted *bool             `json:"accepted,omitempty"` // false on payment rejections
	Reason   string            `json:"reason,omitempty"`   // rejection sub-kind, e.g. SLOT_ALREADY_PAID
	Errors   []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error types
const (
	ErrorTypeValidation   = "https://lunas.app/errors/validation"
	ErrorTypeNotFound     = "https://lunas.app/errors/not-found"
	ErrorTypeUnauthorized = "https://lunas.app/errors/unauthorized"
	ErrorTypeForbidden    = "https://lunas.app/errors/forbidden"
	ErrorTypeConflict     = "https://lunas.app/errors/conflict"
	ErrorTypeInternal     = "https://lunas.app/errors/internal"
	ErrorTypeRejected     = "https://lunas.app/errors/payment-rejected"
	ErrorTypeUnavailable  = "https://lunas.app/errors/service-unavailable"
)

// NewValidationError creates a validation error response
func NewValidationError(c echo.Context, detail string, errors []ValidationError) error {
	return c.JSON(http.StatusBadRequest, ProblemDetails{
		Type:     ErrorTypeValidation,
		Title:    "Validation Error",
		Status:   http.StatusBadRequest,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   errors,
	})
}

// NewNotFoundError creates a not found error response
func NewNotFoundError(c echo.Context, detail string) error {
	return c.JSON(http.StatusNotFound, ProblemDetails{
		Type:     ErrorTypeNotFound,
		Title:    "Not Found",
		Status:   http.StatusNotFound,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewUnauthorizedError creates an unauthorized error response
func NewUnauthorizedError(c echo.Context, detail string) error {
	return c.JSON(http.StatusUnauthorized, ProblemDetails{
		Type:     ErrorTypeUnauthorized,
		Title:    "Unauthorized",
		Status:   http.StatusUnauthorized,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewForbiddenError creates a forbidden error response
func NewForbiddenError(c echo.Context, detail string) error {
	return c.JSON(http.StatusForbidden, ProblemDetails{
		Type:     ErrorTypeForbidden,
		Title:    "Forbidden",
		Status:   http.StatusForbidden,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewConflictError creates a conflict error response
func NewConflictError(c echo.Context, detail string) error {
	return c.JSON(http.StatusConflict, ProblemDetails{
		Type:     ErrorTypeConflict,
		Title:    "Conflict",
		Status:   http.StatusConflict,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewInternalError creates an internal error response
func NewInternalError(c echo.Context, detail string) error {
	return c.JSON(http.StatusInternalServerError, ProblemDetails{
		Type:     ErrorTypeInternal,
		Title:    "Internal Server Error",
		Status:   http.StatusInternalServerError,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewServiceUnavailableError creates a service unavailable error response
func NewServiceUnavailableError(c echo.Context, detail string) error {
	return c.JSON(http.StatusServiceUnavailable, ProblemDetails{
		Type:     ErrorTypeUnavailable,
		Title:    "Service Unavailable",
		Status:   http.StatusServiceUnavailable,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewRejectionError creates a payment rejection response. Rejections caused by
// the ledger having moved on are conflicts; the rest are unprocessable input.
func NewRejectionError(c echo.Context, rejection *domain.RejectionError) error {
	status := http.StatusUnprocessableEntity
	switch rejection.Reason {
	case domain.ReasonStaleLedger, domain.ReasonSlotAlreadyPaid, domain.ReasonAlreadyPaid:
		status = http.StatusConflict
	}
	accepted := false
	return c.JSON(status, ProblemDetails{
		Type:     ErrorTypeRejected,
		Title:    "Payment Rejected",
		Status:   status,
		Detail:   rejection.Error(),
		Instance: c.Request().URL.Path,
		Accepted: &accepted,
		Reason:   string(rejection.Reason),
	})
}

// handleServiceError maps service and domain errors to problem responses
func handleServiceError(c echo.Context, err error, msg string) error {
	var rejection *domain.RejectionError
	switch {
	case errors.As(err, &rejection):
		return NewRejectionError(c, rejection)
	case errors.Is(err, domain.ErrLoanNotFound):
		return NewNotFoundError(c, "Loan not found")
	case errors.Is(err, domain.ErrProofNotFound):
		return NewNotFoundError(c, "Proof not found")
	case errors.Is(err, domain.ErrInvalidLoanTerms):
		return NewValidationError(c, err.Error(), nil)
	case errors.Is(err, domain.ErrLoanTitleEmpty):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "title", Message: "Title is required"},
		})
	case errors.Is(err, domain.ErrLoanTitleTooLong):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "title", Message: "Title must be 200 characters or less"},
		})
	case errors.Is(err, domain.ErrPaymentNoteTooLong):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "note", Message: fmt.Sprintf("Note must be %d characters or less", domain.MaxPaymentNoteLength)},
		})
	case errors.Is(err, service.ErrProofTooLarge),
		errors.Is(err, service.ErrInvalidProofFormat),
		errors.Is(err, service.ErrProofTooSmall),
		errors.Is(err, service.ErrInvalidProofData):
		return NewValidationError(c, "Invalid proof", []ValidationError{
			{Field: "proof", Message: err.Error()},
		})
	case errors.Is(err, service.ErrProofStorageNotConfigured):
		return NewServiceUnavailableError(c, "Proof storage is not configured")
	case errors.Is(err, domain.ErrLedgerInconsistency):
		log.Error().Err(err).Str("path", c.Request().URL.Path).Msg(msg)
		return NewInternalError(c, "Loan ledger is inconsistent")
	}

	log.Error().Err(err).Str("path", c.Request().URL.Path).Msg(msg)
	return NewInternalError(c, msg)
}
