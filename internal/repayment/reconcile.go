package repayment

import (
	"fmt"
	"time"

	"github.com/dafibh/lunas/lunas-backend/internal/domain"
	"github.com/dafibh/lunas/lunas-backend/internal/util"
)

// Reconcile computes the view of a loan as of now. Malformed terms fail with
// ErrInvalidLoanTerms before anything else is looked at; a ledger that breaks
// an invariant fails with ErrLedgerInconsistency. A nil ledger is treated as
// empty.
func Reconcile(terms domain.LoanTerms, ledger *domain.Ledger, now time.Time) (*domain.ReconciledView, error) {
	if err := terms.Validate(); err != nil {
		return nil, err
	}
	if ledger == nil {
		ledger = &domain.Ledger{}
	}

	view := &domain.ReconciledView{
		Plan:          terms.Plan.Kind(),
		Principal:     terms.Principal,
		AsOf:          util.DateOf(now),
		LedgerVersion: ledger.Version,
		DueDate:       terms.DueDate,
	}

	var err error
	switch plan := terms.Plan.(type) {
	case domain.SinglePayment:
		err = reconcileSingle(terms, ledger, view)
	case domain.Installment:
		err = reconcileInstallments(terms, plan, ledger, view)
	case domain.OpenPayment:
		err = reconcileOpen(terms, ledger, view)
	default:
		err = fmt.Errorf("%w: unsupported repayment plan %T", domain.ErrInvalidLoanTerms, plan)
	}
	if err != nil {
		return nil, err
	}

	view.CompletionPercentage = util.CompletionPercentage(view.TotalPaid, view.RemainingBalance)
	if terms.DueDate != nil && view.RemainingBalance > 0 && terms.DueDate.Before(view.AsOf) {
		view.Overdue = true
	}
	return view, nil
}

func reconcileSingle(terms domain.LoanTerms, ledger *domain.Ledger, view *domain.ReconciledView) error {
	if len(ledger.Installments) > 0 || len(ledger.OpenPayments) > 0 {
		return domain.LedgerInconsistency("single payment loan has installment or open payment records")
	}

	record := ledger.Single
	if record == nil {
		view.SinglePayment = &domain.SinglePaymentRecord{Amount: terms.Principal, Status: domain.StatusUnpaid}
		view.RemainingBalance = terms.Principal
		return nil
	}
	if record.Amount != terms.Principal {
		return domain.LedgerInconsistency("single payment amount %d does not equal principal %d", record.Amount, terms.Principal)
	}

	single := *record
	view.SinglePayment = &single
	switch record.Status {
	case domain.StatusPaid:
		view.TotalPaid = terms.Principal
	case domain.StatusUnpaid:
		view.RemainingBalance = terms.Principal
	default:
		return domain.LedgerInconsistency("single payment has unknown status %q", record.Status)
	}
	return nil
}

func reconcileInstallments(terms domain.LoanTerms, plan domain.Installment, ledger *domain.Ledger, view *domain.ReconciledView) error {
	if ledger.Single != nil || len(ledger.OpenPayments) > 0 {
		return domain.LedgerInconsistency("installment loan has single or open payment records")
	}
	for number, slot := range ledger.Installments {
		if number < 1 || number > plan.Count {
			return domain.LedgerInconsistency("slot %d is outside 1..%d", number, plan.Count)
		}
		if slot.Number != number {
			return domain.LedgerInconsistency("slot stored under %d claims number %d", number, slot.Number)
		}
		if slot.Amount <= 0 {
			return domain.LedgerInconsistency("slot %d has non-positive amount %d", number, slot.Amount)
		}
		if slot.Status != domain.StatusPaid && slot.Status != domain.StatusUnpaid {
			return domain.LedgerInconsistency("slot %d has unknown status %q", number, slot.Status)
		}
	}

	skeleton, err := GenerateSchedule(terms)
	if err != nil {
		return err
	}
	slots, warnings := MergeSchedule(skeleton, ledger.Installments)

	for i := range slots {
		if slots[i].IsPaid() {
			view.TotalPaid += slots[i].Amount
			continue
		}
		view.RemainingBalance += slots[i].Amount
		if IsOverdue(slots[i], view.AsOf) {
			slots[i].Overdue = true
			view.Overdue = true
		}
	}
	view.Installments = slots
	view.Warnings = warnings
	return nil
}

func reconcileOpen(terms domain.LoanTerms, ledger *domain.Ledger, view *domain.ReconciledView) error {
	if ledger.Single != nil || len(ledger.Installments) > 0 {
		return domain.LedgerInconsistency("open payment loan has single or installment records")
	}

	var paid int64
	for i, record := range ledger.OpenPayments {
		if record.Amount <= 0 {
			return domain.LedgerInconsistency("open payment %d has non-positive amount %d", i+1, record.Amount)
		}
		paid += record.Amount
		expected := max(terms.Principal-paid, 0)
		if record.RunningBalanceAfter != expected {
			return domain.LedgerInconsistency("open payment %d records running balance %d, expected %d",
				i+1, record.RunningBalanceAfter, expected)
		}
	}

	if paid > terms.Principal {
		view.Warnings = append(view.Warnings, fmt.Sprintf(
			"open payments total %d exceeds principal %d", paid, terms.Principal))
	}
	view.TotalPaid = paid
	view.RemainingBalance = max(terms.Principal-paid, 0)
	view.OpenPayments = append([]domain.OpenPaymentRecord(nil), ledger.OpenPayments...)
	return nil
}
