package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dafibh/lunas/lunas-backend/internal/domain"
	"github.com/dafibh/lunas/lunas-backend/internal/testutil"
	"github.com/dafibh/lunas/lunas-backend/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoanService() (*LoanService, *testutil.MockLoanRepository, *testutil.RecordingPublisher) {
	repo := testutil.NewMockLoanRepository()
	publisher := &testutil.RecordingPublisher{}
	svc := NewLoanService(repo)
	svc.SetEventPublisher(publisher)
	svc.SetClock(func() time.Time { return testNow })
	return svc, repo, publisher
}

func TestCreateLoan_Installment(t *testing.T) {
	svc, _, publisher := newTestLoanService()

	loan, err := svc.CreateLoan(context.Background(), testOwner, CreateLoanInput{
		Title: "  Laptop  ",
		LoanTermsInput: LoanTermsInput{
			Principal:        1000000,
			Plan:             "installment",
			InstallmentCount: intPtr(12),
			DisbursementDate: util.NewDate(2026, time.March, 1),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Laptop", loan.Title)
	assert.Equal(t, testOwner, loan.OwnerID)
	assert.Equal(t, domain.Installment{Count: 12}, loan.Terms.Plan)

	events := publisher.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "loan.created", events[0].Event.Type)
}

func TestCreateLoan_Validation(t *testing.T) {
	past := util.NewDate(2026, time.March, 14)
	today := util.NewDate(2026, time.March, 15)
	disbursed := util.NewDate(2026, time.January, 1)

	tests := []struct {
		name    string
		input   CreateLoanInput
		wantErr error
	}{
		{
			name:    "empty title",
			input:   CreateLoanInput{Title: "   ", LoanTermsInput: LoanTermsInput{Principal: 100, Plan: "open", DisbursementDate: disbursed}},
			wantErr: domain.ErrLoanTitleEmpty,
		},
		{
			name:    "title too long",
			input:   CreateLoanInput{Title: strings.Repeat("a", 201), LoanTermsInput: LoanTermsInput{Principal: 100, Plan: "open", DisbursementDate: disbursed}},
			wantErr: domain.ErrLoanTitleTooLong,
		},
		{
			name:    "unknown plan",
			input:   CreateLoanInput{Title: "x", LoanTermsInput: LoanTermsInput{Principal: 100, Plan: "weekly", DisbursementDate: disbursed}},
			wantErr: domain.ErrInvalidLoanTerms,
		},
		{
			name:    "zero principal",
			input:   CreateLoanInput{Title: "x", LoanTermsInput: LoanTermsInput{Principal: 0, Plan: "single", DisbursementDate: disbursed}},
			wantErr: domain.ErrInvalidLoanTerms,
		},
		{
			name:    "installment without count",
			input:   CreateLoanInput{Title: "x", LoanTermsInput: LoanTermsInput{Principal: 100, Plan: "installment", DisbursementDate: disbursed}},
			wantErr: domain.ErrInvalidLoanTerms,
		},
		{
			name:    "due date in the past",
			input:   CreateLoanInput{Title: "x", LoanTermsInput: LoanTermsInput{Principal: 100, Plan: "single", DisbursementDate: disbursed, DueDate: &past}},
			wantErr: domain.ErrInvalidLoanTerms,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTestLoanService()
			_, err := svc.CreateLoan(context.Background(), testOwner, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, repo.Loans)
		})
	}

	t.Run("due date today is accepted", func(t *testing.T) {
		svc, _, _ := newTestLoanService()
		_, err := svc.CreateLoan(context.Background(), testOwner, CreateLoanInput{
			Title:          "x",
			LoanTermsInput: LoanTermsInput{Principal: 100, Plan: "single", DisbursementDate: disbursed, DueDate: &today},
		})
		assert.NoError(t, err)
	})
}

func TestGetAndListLoans_ScopedToOwner(t *testing.T) {
	svc, _, _ := newTestLoanService()
	input := CreateLoanInput{
		Title:          "Phone",
		LoanTermsInput: LoanTermsInput{Principal: 50000, Plan: "open", DisbursementDate: util.NewDate(2026, time.March, 1)},
	}

	mine, err := svc.CreateLoan(context.Background(), testOwner, input)
	require.NoError(t, err)
	_, err = svc.CreateLoan(context.Background(), "auth0|other", input)
	require.NoError(t, err)

	loans, err := svc.ListLoans(context.Background(), testOwner)
	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.Equal(t, mine.ID, loans[0].ID)

	_, err = svc.GetLoan(context.Background(), "auth0|other", mine.ID)
	assert.ErrorIs(t, err, domain.ErrLoanNotFound)
}

func TestPreviewSchedule(t *testing.T) {
	svc, repo, _ := newTestLoanService()

	slots, err := svc.PreviewSchedule(LoanTermsInput{
		Principal:        1000,
		Plan:             "installment",
		InstallmentCount: intPtr(3),
		DisbursementDate: util.NewDate(2026, time.January, 31),
	})
	require.NoError(t, err)
	require.Len(t, slots, 3)

	assert.Equal(t, int64(333), slots[0].Amount)
	assert.Equal(t, int64(334), slots[2].Amount)
	assert.Equal(t, "2026-02-28", slots[0].DueDate.String())
	assert.Equal(t, "2026-03-31", slots[1].DueDate.String())
	assert.Empty(t, repo.Loans)

	_, err = svc.PreviewSchedule(LoanTermsInput{Principal: 1000, Plan: "open", DisbursementDate: util.NewDate(2026, time.January, 31)})
	assert.Error(t, err)
}
