package domain

import (
	"context"
	"time"

	"github.com/dafibh/lunas/lunas-backend/internal/util"
	"github.com/google/uuid"
)

// PaymentStatus of an installment slot or a single payment. A unit flips
// from unpaid to paid exactly once.
type PaymentStatus string

const (
	StatusUnpaid PaymentStatus = "unpaid"
	StatusPaid   PaymentStatus = "paid"
)

// InstallmentSlot is one scheduled installment. Generated slots are unpaid;
// a slot is persisted once a payment is recorded against it and the persisted
// values take precedence over regeneration from then on.
type InstallmentSlot struct {
	Number   int           `json:"number"`
	Amount   int64         `json:"amount"`
	DueDate  util.Date     `json:"dueDate"`
	Status   PaymentStatus `json:"status"`
	ProofRef string        `json:"proofRef,omitempty"`
	PaidAt   *time.Time    `json:"paidAt,omitempty"`
	Overdue  bool          `json:"overdue"`
}

func (s InstallmentSlot) IsPaid() bool {
	return s.Status == StatusPaid
}

// SinglePaymentRecord is the at most one lump-sum payment of a single plan loan
type SinglePaymentRecord struct {
	Amount   int64         `json:"amount"`
	Status   PaymentStatus `json:"status"`
	ProofRef string        `json:"proofRef,omitempty"`
	PaidAt   *time.Time    `json:"paidAt,omitempty"`
}

// OpenPaymentRecord is one entry of an open plan's append-only payment list
type OpenPaymentRecord struct {
	ID                  uuid.UUID `json:"id"`
	Amount              int64     `json:"amount"`
	RunningBalanceAfter int64     `json:"runningBalanceAfter"`
	ProofRef            string    `json:"proofRef"`
	Note                *string   `json:"note,omitempty"`
	PaidAt              time.Time `json:"paidAt"`
}

// Ledger is a snapshot of every payment recorded for a loan. Version is the
// optimistic concurrency token: each accepted submission increments it by one.
// Only the records matching the loan's plan may be populated.
type Ledger struct {
	LoanID       uuid.UUID
	Version      int64
	Installments map[int]InstallmentSlot
	Single       *SinglePaymentRecord
	OpenPayments []OpenPaymentRecord
}

// NewLedger returns an empty ledger at version 0
func NewLedger(loanID uuid.UUID) *Ledger {
	return &Ledger{
		LoanID:       loanID,
		Installments: map[int]InstallmentSlot{},
	}
}

// Clone returns a deep copy so callers can derive a new ledger without
// touching the snapshot they were given
func (l *Ledger) Clone() *Ledger {
	clone := &Ledger{
		LoanID:       l.LoanID,
		Version:      l.Version,
		Installments: make(map[int]InstallmentSlot, len(l.Installments)),
	}
	for k, v := range l.Installments {
		clone.Installments[k] = v
	}
	if l.Single != nil {
		single := *l.Single
		clone.Single = &single
	}
	if len(l.OpenPayments) > 0 {
		clone.OpenPayments = make([]OpenPaymentRecord, len(l.OpenPayments))
		copy(clone.OpenPayments, l.OpenPayments)
	}
	return clone
}

// ProofRefs lists every proof reference recorded in the ledger
func (l *Ledger) ProofRefs() []string {
	var refs []string
	for _, slot := range l.Installments {
		if slot.ProofRef != "" {
			refs = append(refs, slot.ProofRef)
		}
	}
	if l.Single != nil && l.Single.ProofRef != "" {
		refs = append(refs, l.Single.ProofRef)
	}
	for _, p := range l.OpenPayments {
		if p.ProofRef != "" {
			refs = append(refs, p.ProofRef)
		}
	}
	return refs
}

// LedgerEntry is the single record appended by an accepted submission.
// Exactly one of Slot, Single or Open is set.
type LedgerEntry struct {
	Slot   *InstallmentSlot
	Single *SinglePaymentRecord
	Open   *OpenPaymentRecord
}

// PaymentRequest is a payment submission against a ledger snapshot
type PaymentRequest struct {
	// Amount in minor units. Zero means "the fixed amount" for single and
	// installment plans.
	Amount          int64
	SlotNumber      *int
	ProofRef        string
	Note            *string
	ExpectedVersion *int64
}

// SubmitOutcome is the result of an accepted submission: the new ledger
// (the input snapshot is left untouched), the appended entry and the view
// recomputed from the new ledger.
type SubmitOutcome struct {
	Ledger *Ledger
	Entry  LedgerEntry
	View   *ReconciledView
}

// LedgerRepository persists ledgers. Append applies an entry only when the
// stored version still equals expectedVersion and returns ErrStaleLedger
// otherwise; it never applies a partial entry.
type LedgerRepository interface {
	GetByLoanID(ctx context.Context, loanID uuid.UUID) (*Ledger, error)
	Append(ctx context.Context, loanID uuid.UUID, expectedVersion int64, entry LedgerEntry) error
}
