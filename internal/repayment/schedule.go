package repayment

import (
	"fmt"

	"github.com/dafibh/lunas/lunas-backend/internal/domain"
	"github.com/dafibh/lunas/lunas-backend/internal/util"
)

// GenerateSchedule returns the ideal schedule for an installment loan: count
// unpaid slots of floor(principal/count), the last slot absorbing the
// remainder, slot i due i months after disbursement.
func GenerateSchedule(terms domain.LoanTerms) ([]domain.InstallmentSlot, error) {
	if err := terms.Validate(); err != nil {
		return nil, err
	}
	plan, ok := terms.Plan.(domain.Installment)
	if !ok {
		return nil, fmt.Errorf("%w: %s plans have no installment schedule", domain.ErrInvalidLoanTerms, terms.Plan.Kind())
	}

	amounts := util.SplitEvenly(terms.Principal, plan.Count)
	slots := make([]domain.InstallmentSlot, plan.Count)
	for i, amount := range amounts {
		slots[i] = domain.InstallmentSlot{
			Number:  i + 1,
			Amount:  amount,
			DueDate: util.AddMonths(terms.DisbursementDate, i+1),
			Status:  domain.StatusUnpaid,
		}
	}
	return slots, nil
}

// IsOverdue reports whether an unpaid slot's due date is strictly before asOf
func IsOverdue(slot domain.InstallmentSlot, asOf util.Date) bool {
	return !slot.IsPaid() && slot.DueDate.Before(asOf)
}
