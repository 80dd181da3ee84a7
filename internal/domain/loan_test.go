package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/dafibh/lunas/lunas-backend/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, s string) util.Date {
	t.Helper()
	d, err := util.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestLoanTerms_Validate(t *testing.T) {
	due := date(t, "2024-06-01")
	early := date(t, "2023-12-01")

	tests := []struct {
		name    string
		terms   LoanTerms
		wantErr bool
	}{
		{"valid single", LoanTerms{Principal: 100, Plan: SinglePayment{}, DisbursementDate: date(t, "2024-01-01"), DueDate: &due}, false},
		{"valid open without due date", LoanTerms{Principal: 100, Plan: OpenPayment{}, DisbursementDate: date(t, "2024-01-01")}, false},
		{"valid installment", LoanTerms{Principal: 100, Plan: Installment{Count: 12}, DisbursementDate: date(t, "2024-01-01")}, false},
		{"zero principal", LoanTerms{Principal: 0, Plan: SinglePayment{}, DisbursementDate: date(t, "2024-01-01")}, true},
		{"missing plan", LoanTerms{Principal: 100, DisbursementDate: date(t, "2024-01-01")}, true},
		{"missing disbursement", LoanTerms{Principal: 100, Plan: OpenPayment{}}, true},
		{"installment count zero", LoanTerms{Principal: 100, Plan: Installment{Count: 0}, DisbursementDate: date(t, "2024-01-01")}, true},
		{"installment count too large", LoanTerms{Principal: 100000, Plan: Installment{Count: MaxInstallmentCount + 1}, DisbursementDate: date(t, "2024-01-01")}, true},
		{"installment count above principal", LoanTerms{Principal: 2, Plan: Installment{Count: 3}, DisbursementDate: date(t, "2024-01-01")}, true},
		{"installment with due date", LoanTerms{Principal: 100, Plan: Installment{Count: 2}, DisbursementDate: date(t, "2024-01-01"), DueDate: &due}, true},
		{"due date before disbursement", LoanTerms{Principal: 100, Plan: SinglePayment{}, DisbursementDate: date(t, "2024-01-01"), DueDate: &early}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.terms.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidLoanTerms)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoanTerms_ValidateForCreation_DueDateNotInPast(t *testing.T) {
	due := date(t, "2024-03-01")
	terms := LoanTerms{Principal: 100, Plan: SinglePayment{}, DisbursementDate: date(t, "2024-01-01"), DueDate: &due}

	assert.NoError(t, terms.ValidateForCreation(date(t, "2024-02-15")))
	assert.NoError(t, terms.ValidateForCreation(date(t, "2024-03-01")))
	assert.ErrorIs(t, terms.ValidateForCreation(date(t, "2024-03-02")), ErrInvalidLoanTerms)

	// the same terms stay valid for reconciliation once the due date passes
	assert.NoError(t, terms.Validate())
}

func TestLoan_Validate(t *testing.T) {
	terms := LoanTerms{Principal: 100, Plan: SinglePayment{}, DisbursementDate: date(t, "2024-01-01")}

	loan := &Loan{Title: "Car repair", Terms: terms}
	assert.NoError(t, loan.Validate())

	loan.Title = ""
	assert.ErrorIs(t, loan.Validate(), ErrLoanTitleEmpty)

	loan.Title = strings.Repeat("a", MaxLoanTitleLength+1)
	assert.ErrorIs(t, loan.Validate(), ErrLoanTitleTooLong)

	loan.Title = strings.Repeat("é", MaxLoanTitleLength)
	assert.NoError(t, loan.Validate(), "length is counted in characters")
}

func TestNewRepaymentPlan(t *testing.T) {
	count := 6

	plan, err := NewRepaymentPlan("installment", &count)
	require.NoError(t, err)
	assert.Equal(t, Installment{Count: 6}, plan)
	assert.Equal(t, &count, InstallmentCountOf(plan))

	plan, err = NewRepaymentPlan("single", nil)
	require.NoError(t, err)
	assert.Equal(t, PlanSingle, plan.Kind())
	assert.Nil(t, InstallmentCountOf(plan))

	plan, err = NewRepaymentPlan("open", nil)
	require.NoError(t, err)
	assert.Equal(t, PlanOpen, plan.Kind())

	_, err = NewRepaymentPlan("installment", nil)
	assert.ErrorIs(t, err, ErrInvalidLoanTerms)

	_, err = NewRepaymentPlan("single", &count)
	assert.ErrorIs(t, err, ErrInvalidLoanTerms)

	_, err = NewRepaymentPlan("weekly", nil)
	assert.ErrorIs(t, err, ErrInvalidLoanTerms)
}

func TestRejectionError_Is(t *testing.T) {
	err := Reject(ReasonStaleLedger, "expected %d", 3)

	assert.True(t, errors.Is(err, ErrSubmissionRejected))
	assert.True(t, errors.Is(err, ErrStaleLedger))
	assert.False(t, errors.Is(err, ErrProofMissing))
	assert.False(t, errors.Is(err, ErrLedgerInconsistency))
	assert.Contains(t, err.Error(), "STALE_LEDGER")

	wrapped := errors.Join(errors.New("append failed"), err)
	reason, ok := RejectionReasonOf(wrapped)
	assert.True(t, ok)
	assert.Equal(t, ReasonStaleLedger, reason)

	_, ok = RejectionReasonOf(errors.New("boom"))
	assert.False(t, ok)
}

func TestLedger_CloneIsDeep(t *testing.T) {
	ledger := &Ledger{
		Version:      2,
		Installments: map[int]InstallmentSlot{1: {Number: 1, Amount: 10, Status: StatusPaid, ProofRef: "a"}},
		Single:       &SinglePaymentRecord{Amount: 5, Status: StatusPaid, ProofRef: "b"},
		OpenPayments: []OpenPaymentRecord{{Amount: 1, ProofRef: "c"}},
	}

	clone := ledger.Clone()
	clone.Installments[2] = InstallmentSlot{Number: 2}
	clone.Single.Amount = 99
	clone.OpenPayments[0].Amount = 99
	clone.Version++

	assert.Len(t, ledger.Installments, 1)
	assert.Equal(t, int64(5), ledger.Single.Amount)
	assert.Equal(t, int64(1), ledger.OpenPayments[0].Amount)
	assert.Equal(t, int64(2), ledger.Version)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, ledger.ProofRefs())
}
