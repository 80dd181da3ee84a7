package repayment

import (
	"testing"
	"time"

	"github.com/dafibh/lunas/lunas-backend/internal/domain"
	"github.com/dafibh/lunas/lunas-backend/internal/util"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) util.Date {
	t.Helper()
	d, err := util.ParseDate(s)
	require.NoError(t, err)
	return d
}

func at(t *testing.T, s string) time.Time {
	t.Helper()
	return mustDate(t, s).Time().Add(12 * time.Hour)
}

func installmentTerms(t *testing.T, principal int64, count int, disbursed string) domain.LoanTerms {
	return domain.LoanTerms{
		Principal:        principal,
		Plan:             domain.Installment{Count: count},
		DisbursementDate: mustDate(t, disbursed),
	}
}

func slotPtr(n int) *int {
	return &n
}

func versionPtr(v int64) *int64 {
	return &v
}
