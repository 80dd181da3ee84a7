package domain

import "github.com/dafibh/lunas/lunas-backend/internal/util"

// ReconciledView is the point-in-time state of a loan derived from its terms
// and ledger. It is computed on demand and never persisted.
type ReconciledView struct {
	Plan                 PlanKind             `json:"plan"`
	Principal            int64                `json:"principal"`
	TotalPaid            int64                `json:"totalPaid"`
	RemainingBalance     int64                `json:"remainingBalance"`
	CompletionPercentage int                  `json:"completionPercentage"`
	Overdue              bool                 `json:"overdue"`
	AsOf                 util.Date            `json:"asOf"`
	LedgerVersion        int64                `json:"ledgerVersion"`
	Installments         []InstallmentSlot    `json:"installments,omitempty"`
	OpenPayments         []OpenPaymentRecord  `json:"openPayments,omitempty"`
	SinglePayment        *SinglePaymentRecord `json:"singlePayment,omitempty"`
	DueDate              *util.Date           `json:"dueDate,omitempty"`
	Warnings             []string             `json:"warnings,omitempty"`
}

// IsComplete reports whether nothing remains to be paid
func (v *ReconciledView) IsComplete() bool {
	return v.RemainingBalance == 0 && v.TotalPaid > 0
}
