package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrNotFound         = errors.New("resource not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrInternalError    = errors.New("internal error")
	ErrInvalidLoanTerms = errors.New("invalid loan terms")

	// ErrLedgerInconsistency means persisted ledger state violates an invariant
	// the reconciliation relies on. It is surfaced, never patched.
	ErrLedgerInconsistency = errors.New("ledger inconsistency")

	// ErrSubmissionRejected matches every *RejectionError via errors.Is
	ErrSubmissionRejected = errors.New("payment submission rejected")
)

// RejectionReason is the sub-kind of a rejected payment submission
type RejectionReason string

const (
	ReasonAlreadyPaid              RejectionReason = "ALREADY_PAID"
	ReasonAmountMismatch           RejectionReason = "AMOUNT_MISMATCH"
	ReasonInvalidSlot              RejectionReason = "INVALID_SLOT"
	ReasonSlotAlreadyPaid          RejectionReason = "SLOT_ALREADY_PAID"
	ReasonAmountExceedsOutstanding RejectionReason = "AMOUNT_EXCEEDS_OUTSTANDING"
	ReasonInvalidAmount            RejectionReason = "INVALID_AMOUNT"
	ReasonStaleLedger              RejectionReason = "STALE_LEDGER"
	ReasonProofMissing             RejectionReason = "PROOF_MISSING"
)

// RejectionError is a recoverable refusal of a payment submission. The caller
// may correct its input or, for STALE_LEDGER, re-read the ledger and retry.
type RejectionError struct {
	Reason  RejectionReason
	Message string
}

func (e *RejectionError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("payment submission rejected: %s", e.Reason)
	}
	return fmt.Sprintf("payment submission rejected: %s: %s", e.Reason, e.Message)
}

// Is matches ErrSubmissionRejected and any RejectionError with the same reason
func (e *RejectionError) Is(target error) bool {
	if target == ErrSubmissionRejected {
		return true
	}
	var other *RejectionError
	if errors.As(target, &other) {
		return other.Reason == e.Reason
	}
	return false
}

// Reject builds a RejectionError with a formatted message
func Reject(reason RejectionReason, format string, args ...any) *RejectionError {
	return &RejectionError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// Sentinel rejections for use with errors.Is
var (
	ErrStaleLedger  = &RejectionError{Reason: ReasonStaleLedger}
	ErrProofMissing = &RejectionError{Reason: ReasonProofMissing}
)

// RejectionReasonOf extracts the rejection reason from err, if any
func RejectionReasonOf(err error) (RejectionReason, bool) {
	var rejection *RejectionError
	if errors.As(err, &rejection) {
		return rejection.Reason, true
	}
	return "", false
}

func invalidTerms(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidLoanTerms, fmt.Sprintf(format, args...))
}

// LedgerInconsistency wraps ErrLedgerInconsistency with detail
func LedgerInconsistency(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrLedgerInconsistency, fmt.Sprintf(format, args...))
}

// Loan errors
var (
	ErrLoanNotFound     = errors.New("loan not found")
	ErrLoanTitleEmpty   = errors.New("loan title is required")
	ErrLoanTitleTooLong = errors.New("loan title must be 200 characters or less")
	ErrProofNotFound    = errors.New("proof not found")

	ErrPaymentNoteTooLong = fmt.Errorf("payment note must be %d characters or less", MaxPaymentNoteLength)
)
