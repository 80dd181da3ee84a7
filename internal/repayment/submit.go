package repayment

import (
	"strings"
	"time"

	"github.com/dafibh/lunas/lunas-backend/internal/domain"
	"github.com/google/uuid"
)

// Validate reports whether req would be accepted against the ledger snapshot,
// returning the same error Submit would. It lets callers reject a submission
// before doing expensive work such as storing the proof.
func Validate(terms domain.LoanTerms, ledger *domain.Ledger, req domain.PaymentRequest, now time.Time) error {
	_, err := Submit(terms, ledger, req, now)
	return err
}

// Submit validates req against the current reconciliation of the ledger and,
// when accepted, returns a new ledger with the entry appended and the version
// incremented. The given ledger is never modified. Rejections are
// *domain.RejectionError values; the caller persists the returned entry with
// a compare-and-swap on the snapshot's version.
func Submit(terms domain.LoanTerms, ledger *domain.Ledger, req domain.PaymentRequest, now time.Time) (*domain.SubmitOutcome, error) {
	if ledger == nil {
		ledger = &domain.Ledger{}
	}
	view, err := Reconcile(terms, ledger, now)
	if err != nil {
		return nil, err
	}

	if req.ExpectedVersion != nil && *req.ExpectedVersion != ledger.Version {
		return nil, domain.Reject(domain.ReasonStaleLedger,
			"expected ledger version %d but it is at %d", *req.ExpectedVersion, ledger.Version)
	}
	if req.SlotNumber != nil && terms.Plan.Kind() != domain.PlanInstallment {
		return nil, domain.Reject(domain.ReasonInvalidSlot,
			"slotNumber is only accepted for installment loans")
	}

	paidAt := now.UTC()
	next := ledger.Clone()
	var entry domain.LedgerEntry

	switch plan := terms.Plan.(type) {
	case domain.SinglePayment:
		record, err := acceptSingle(terms, view, req, paidAt)
		if err != nil {
			return nil, err
		}
		next.Single = record
		entry.Single = record
	case domain.Installment:
		slot, err := acceptInstallment(plan, view, req, paidAt)
		if err != nil {
			return nil, err
		}
		next.Installments[slot.Number] = *slot
		entry.Slot = slot
	case domain.OpenPayment:
		record, err := acceptOpen(view, req, paidAt)
		if err != nil {
			return nil, err
		}
		next.OpenPayments = append(next.OpenPayments, *record)
		entry.Open = record
	}
	next.Version++

	updated, err := Reconcile(terms, next, now)
	if err != nil {
		return nil, err
	}
	return &domain.SubmitOutcome{Ledger: next, Entry: entry, View: updated}, nil
}

func acceptSingle(terms domain.LoanTerms, view *domain.ReconciledView, req domain.PaymentRequest, paidAt time.Time) (*domain.SinglePaymentRecord, error) {
	if view.SinglePayment != nil && view.SinglePayment.Status == domain.StatusPaid {
		return nil, domain.Reject(domain.ReasonAlreadyPaid, "loan is already paid in full")
	}
	amount := req.Amount
	if amount == 0 {
		amount = terms.Principal
	}
	if amount != terms.Principal {
		return nil, domain.Reject(domain.ReasonAmountMismatch,
			"amount %d must equal the principal %d", amount, terms.Principal)
	}
	return &domain.SinglePaymentRecord{
		Amount:   terms.Principal,
		Status:   domain.StatusPaid,
		ProofRef: req.ProofRef,
		PaidAt:   &paidAt,
	}, nil
}

func acceptInstallment(plan domain.Installment, view *domain.ReconciledView, req domain.PaymentRequest, paidAt time.Time) (*domain.InstallmentSlot, error) {
	if req.SlotNumber == nil {
		return nil, domain.Reject(domain.ReasonInvalidSlot, "slotNumber is required for installment loans")
	}
	number := *req.SlotNumber
	if number < 1 || number > plan.Count {
		return nil, domain.Reject(domain.ReasonInvalidSlot, "slot %d is outside 1..%d", number, plan.Count)
	}

	current := view.Installments[number-1]
	if current.IsPaid() {
		return nil, domain.Reject(domain.ReasonSlotAlreadyPaid, "slot %d is already paid", number)
	}
	amount := req.Amount
	if amount == 0 {
		amount = current.Amount
	}
	if amount != current.Amount {
		return nil, domain.Reject(domain.ReasonAmountMismatch,
			"amount %d must equal the installment amount %d", amount, current.Amount)
	}

	return &domain.InstallmentSlot{
		Number:   number,
		Amount:   current.Amount,
		DueDate:  current.DueDate,
		Status:   domain.StatusPaid,
		ProofRef: req.ProofRef,
		PaidAt:   &paidAt,
	}, nil
}

func acceptOpen(view *domain.ReconciledView, req domain.PaymentRequest, paidAt time.Time) (*domain.OpenPaymentRecord, error) {
	if req.Amount <= 0 {
		return nil, domain.Reject(domain.ReasonInvalidAmount, "amount must be a positive integer")
	}
	if view.RemainingBalance == 0 {
		return nil, domain.Reject(domain.ReasonAlreadyPaid, "loan is already paid in full")
	}
	if req.Amount > view.RemainingBalance {
		return nil, domain.Reject(domain.ReasonAmountExceedsOutstanding,
			"amount %d exceeds the outstanding balance %d", req.Amount, view.RemainingBalance)
	}

	var note *string
	if req.Note != nil {
		if trimmed := strings.TrimSpace(*req.Note); trimmed != "" {
			note = &trimmed
		}
	}
	return &domain.OpenPaymentRecord{
		ID:                  uuid.New(),
		Amount:              req.Amount,
		RunningBalanceAfter: view.RemainingBalance - req.Amount,
		ProofRef:            req.ProofRef,
		Note:                note,
		PaidAt:              paidAt,
	}, nil
}
