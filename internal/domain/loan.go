package domain

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/dafibh/lunas/lunas-backend/internal/util"
	"github.com/google/uuid"
)

const (
	MaxLoanTitleLength   = 200
	MaxPaymentNoteLength = 500
)

// LoanTerms are the static terms of a loan. They never change once the loan
// is created.
type LoanTerms struct {
	Principal        int64 // minor currency units
	Plan             RepaymentPlan
	DisbursementDate util.Date
	DueDate          *util.Date // single and open plans only
}

// Validate checks the terms are well formed. It does not look at the clock;
// use ValidateForCreation when accepting new terms.
func (t LoanTerms) Validate() error {
	if t.Principal <= 0 {
		return invalidTerms("principal must be a positive integer")
	}
	if t.DisbursementDate.IsZero() {
		return invalidTerms("disbursementDate is required")
	}
	switch plan := t.Plan.(type) {
	case SinglePayment, OpenPayment:
	case Installment:
		if err := plan.validate(); err != nil {
			return err
		}
		if int64(plan.Count) > t.Principal {
			return invalidTerms("installment count must not exceed the principal")
		}
		if t.DueDate != nil {
			return invalidTerms("dueDate is not allowed for installment plans")
		}
	case nil:
		return invalidTerms("repayment plan is required")
	default:
		return invalidTerms("unsupported repayment plan %T", plan)
	}
	if t.DueDate != nil && t.DueDate.Before(t.DisbursementDate) {
		return invalidTerms("dueDate must not be before disbursementDate")
	}
	return nil
}

// ValidateForCreation validates the terms and additionally requires the due
// date, when present, to be today or later.
func (t LoanTerms) ValidateForCreation(today util.Date) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if t.DueDate != nil && t.DueDate.Before(today) {
		return invalidTerms("dueDate must be today or later")
	}
	return nil
}

type Loan struct {
	ID            uuid.UUID
	OwnerID       string
	Title         string
	Terms         LoanTerms
	LedgerVersion int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (l *Loan) Validate() error {
	if l.Title == "" {
		return ErrLoanTitleEmpty
	}
	if utf8.RuneCountInString(l.Title) > MaxLoanTitleLength {
		return ErrLoanTitleTooLong
	}
	return l.Terms.Validate()
}

// LoanRepository persists loan terms. Lookups are always scoped to the owner.
type LoanRepository interface {
	Create(ctx context.Context, loan *Loan) (*Loan, error)
	GetByID(ctx context.Context, ownerID string, id uuid.UUID) (*Loan, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Loan, error)
}
