package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dafibh/lunas/lunas-backend/internal/domain"
	"github.com/dafibh/lunas/lunas-backend/internal/testutil"
	"github.com/dafibh/lunas/lunas-backend/internal/util"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOwner = "auth0|borrower"

var testNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

type repaymentFixture struct {
	loans     *testutil.MockLoanRepository
	ledgers   *testutil.MockLedgerRepository
	proofs    *testutil.MockProofRepository
	publisher *testutil.RecordingPublisher
	svc       *RepaymentService
}

func newRepaymentFixture() *repaymentFixture {
	f := &repaymentFixture{
		loans:     testutil.NewMockLoanRepository(),
		ledgers:   testutil.NewMockLedgerRepository(),
		proofs:    testutil.NewMockProofRepository(),
		publisher: &testutil.RecordingPublisher{},
	}
	f.svc = NewRepaymentService(f.loans, f.ledgers, NewProofService(f.proofs, time.Minute))
	f.svc.SetEventPublisher(f.publisher)
	f.svc.SetClock(func() time.Time { return testNow })
	return f
}

func (f *repaymentFixture) addLoan(terms domain.LoanTerms) uuid.UUID {
	loan := &domain.Loan{ID: uuid.New(), OwnerID: testOwner, Title: "Motorbike", Terms: terms}
	f.loans.AddLoan(loan)
	return loan.ID
}

func installmentLoanTerms(principal int64, count int) domain.LoanTerms {
	return domain.LoanTerms{
		Principal:        principal,
		Plan:             domain.Installment{Count: count},
		DisbursementDate: util.NewDate(2026, time.January, 10),
	}
}

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

func validProof() *ProofUpload {
	p := createTestProof(200, 200, "jpeg")
	return &p
}

func TestSubmitPayment_InstallmentSuccess(t *testing.T) {
	f := newRepaymentFixture()
	loanID := f.addLoan(installmentLoanTerms(300000, 3))

	outcome, err := f.svc.SubmitPayment(context.Background(), testOwner, loanID, SubmitPaymentInput{
		SlotNumber: intPtr(1),
		Proof:      validProof(),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), outcome.Ledger.Version)
	require.NotNil(t, outcome.Entry.Slot)
	assert.Equal(t, int64(100000), outcome.Entry.Slot.Amount)
	assert.Equal(t, int64(100000), outcome.View.TotalPaid)
	assert.Equal(t, int64(200000), outcome.View.RemainingBalance)
	assert.Equal(t, 33, outcome.View.CompletionPercentage)

	stored, err := f.ledgers.GetByLoanID(context.Background(), loanID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Version)
	assert.Equal(t, outcome.Entry.Slot.ProofRef, stored.Installments[1].ProofRef)
	assert.Equal(t, 2, f.proofs.ObjectCount())

	events := f.publisher.Events()
	require.Len(t, events, 1)
	assert.Equal(t, testOwner, events[0].OwnerID)
	assert.Equal(t, "payment.submitted", events[0].Event.Type)
}

func TestSubmitPayment_ProofMissing(t *testing.T) {
	f := newRepaymentFixture()
	loanID := f.addLoan(installmentLoanTerms(300000, 3))

	_, err := f.svc.SubmitPayment(context.Background(), testOwner, loanID, SubmitPaymentInput{SlotNumber: intPtr(1)})
	assert.ErrorIs(t, err, domain.ErrProofMissing)
	assert.ErrorIs(t, err, domain.ErrSubmissionRejected)
	assert.Equal(t, 0, f.ledgers.AppendCalls)
}

func TestSubmitPayment_InvalidProof(t *testing.T) {
	f := newRepaymentFixture()
	loanID := f.addLoan(installmentLoanTerms(300000, 3))

	_, err := f.svc.SubmitPayment(context.Background(), testOwner, loanID, SubmitPaymentInput{
		SlotNumber: intPtr(1),
		Proof:      &ProofUpload{Data: []byte("not an image"), Filename: "receipt.txt"},
	})
	assert.ErrorIs(t, err, ErrInvalidProofFormat)
	assert.Equal(t, 0, f.proofs.ObjectCount())
}

func TestSubmitPayment_OtherOwnersLoan(t *testing.T) {
	f := newRepaymentFixture()
	loanID := f.addLoan(installmentLoanTerms(300000, 3))

	_, err := f.svc.SubmitPayment(context.Background(), "auth0|someone-else", loanID, SubmitPaymentInput{
		SlotNumber: intPtr(1),
		Proof:      validProof(),
	})
	assert.ErrorIs(t, err, domain.ErrLoanNotFound)
}

func TestSubmitPayment_RejectedBeforeProofIsStored(t *testing.T) {
	f := newRepaymentFixture()
	loanID := f.addLoan(installmentLoanTerms(300000, 3))

	tests := []struct {
		name   string
		input  SubmitPaymentInput
		reason domain.RejectionReason
	}{
		{"slot out of range", SubmitPaymentInput{SlotNumber: intPtr(4)}, domain.ReasonInvalidSlot},
		{"slot missing", SubmitPaymentInput{}, domain.ReasonInvalidSlot},
		{"amount differs from slot", SubmitPaymentInput{SlotNumber: intPtr(2), Amount: 99999}, domain.ReasonAmountMismatch},
		{"stale expected version", SubmitPaymentInput{SlotNumber: intPtr(2), ExpectedVersion: int64Ptr(3)}, domain.ReasonStaleLedger},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.input.Proof = validProof()
			_, err := f.svc.SubmitPayment(context.Background(), testOwner, loanID, tt.input)

			reason, ok := domain.RejectionReasonOf(err)
			require.True(t, ok, "expected a rejection, got %v", err)
			assert.Equal(t, tt.reason, reason)
			assert.Equal(t, 0, f.proofs.ObjectCount())
			assert.Equal(t, 0, f.ledgers.AppendCalls)
		})
	}
}

func TestSubmitPayment_SlotAlreadyPaid(t *testing.T) {
	f := newRepaymentFixture()
	loanID := f.addLoan(installmentLoanTerms(300000, 3))

	_, err := f.svc.SubmitPayment(context.Background(), testOwner, loanID, SubmitPaymentInput{SlotNumber: intPtr(2), Proof: validProof()})
	require.NoError(t, err)

	_, err = f.svc.SubmitPayment(context.Background(), testOwner, loanID, SubmitPaymentInput{SlotNumber: intPtr(2), Proof: validProof()})
	reason, _ := domain.RejectionReasonOf(err)
	assert.Equal(t, domain.ReasonSlotAlreadyPaid, reason)
	assert.Equal(t, 2, f.proofs.ObjectCount())
}

func TestSubmitPayment_AppendFailureRemovesProof(t *testing.T) {
	f := newRepaymentFixture()
	loanID := f.addLoan(installmentLoanTerms(300000, 3))
	f.ledgers.AppendFn = func(ctx context.Context, id uuid.UUID, expectedVersion int64, entry domain.LedgerEntry) error {
		return domain.Reject(domain.ReasonStaleLedger, "ledger moved")
	}

	_, err := f.svc.SubmitPayment(context.Background(), testOwner, loanID, SubmitPaymentInput{SlotNumber: intPtr(1), Proof: validProof()})
	assert.ErrorIs(t, err, domain.ErrStaleLedger)
	assert.Equal(t, 0, f.proofs.ObjectCount())
	assert.Len(t, f.proofs.Deleted, 2)
	assert.Empty(t, f.publisher.Events())
}

func TestSubmitPayment_SinglePaymentCompletesLoan(t *testing.T) {
	f := newRepaymentFixture()
	due := util.NewDate(2026, time.June, 1)
	loanID := f.addLoan(domain.LoanTerms{
		Principal:        500000,
		Plan:             domain.SinglePayment{},
		DisbursementDate: util.NewDate(2026, time.January, 1),
		DueDate:          &due,
	})

	_, err := f.svc.SubmitPayment(context.Background(), testOwner, loanID, SubmitPaymentInput{Amount: 400000, Proof: validProof()})
	reason, _ := domain.RejectionReasonOf(err)
	assert.Equal(t, domain.ReasonAmountMismatch, reason)

	outcome, err := f.svc.SubmitPayment(context.Background(), testOwner, loanID, SubmitPaymentInput{Amount: 500000, Proof: validProof()})
	require.NoError(t, err)
	assert.Equal(t, 100, outcome.View.CompletionPercentage)

	events := f.publisher.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "payment.submitted", events[0].Event.Type)
	assert.Equal(t, "loan.completed", events[1].Event.Type)

	_, err = f.svc.SubmitPayment(context.Background(), testOwner, loanID, SubmitPaymentInput{Proof: validProof()})
	reason, _ = domain.RejectionReasonOf(err)
	assert.Equal(t, domain.ReasonAlreadyPaid, reason)
}

func TestSubmitPayment_OpenPlanNoteAndBalance(t *testing.T) {
	f := newRepaymentFixture()
	loanID := f.addLoan(domain.LoanTerms{
		Principal:        1000000,
		Plan:             domain.OpenPayment{},
		DisbursementDate: util.NewDate(2026, time.February, 1),
	})

	note := "  first transfer "
	outcome, err := f.svc.SubmitPayment(context.Background(), testOwner, loanID, SubmitPaymentInput{
		Amount: 250000,
		Note:   &note,
		Proof:  validProof(),
	})
	require.NoError(t, err)
	require.NotNil(t, outcome.Entry.Open)
	assert.Equal(t, int64(750000), outcome.Entry.Open.RunningBalanceAfter)
	require.NotNil(t, outcome.Entry.Open.Note)
	assert.Equal(t, "first transfer", *outcome.Entry.Open.Note)

	_, err = f.svc.SubmitPayment(context.Background(), testOwner, loanID, SubmitPaymentInput{Amount: 750001, Proof: validProof()})
	reason, _ := domain.RejectionReasonOf(err)
	assert.Equal(t, domain.ReasonAmountExceedsOutstanding, reason)
}

func TestSubmitPayment_NoteLength(t *testing.T) {
	f := newRepaymentFixture()
	loanID := f.addLoan(domain.LoanTerms{
		Principal:        1000000,
		Plan:             domain.OpenPayment{},
		DisbursementDate: util.NewDate(2026, time.February, 1),
	})

	tooLong := strings.Repeat("é", domain.MaxPaymentNoteLength+1)
	_, err := f.svc.SubmitPayment(context.Background(), testOwner, loanID, SubmitPaymentInput{
		Amount: 1000,
		Note:   &tooLong,
		Proof:  validProof(),
	})
	assert.ErrorIs(t, err, domain.ErrPaymentNoteTooLong)
	assert.Equal(t, 0, f.proofs.ObjectCount())
	assert.Equal(t, 0, f.ledgers.AppendCalls)

	atLimit := strings.Repeat("é", domain.MaxPaymentNoteLength)
	outcome, err := f.svc.SubmitPayment(context.Background(), testOwner, loanID, SubmitPaymentInput{
		Amount: 1000,
		Note:   &atLimit,
		Proof:  validProof(),
	})
	require.NoError(t, err)
	require.NotNil(t, outcome.Entry.Open.Note)
	assert.Equal(t, atLimit, *outcome.Entry.Open.Note)
}

func TestSubmitPayment_ConcurrentOpenPaymentsOneWins(t *testing.T) {
	f := newRepaymentFixture()
	loanID := f.addLoan(domain.LoanTerms{
		Principal:        1000,
		Plan:             domain.OpenPayment{},
		DisbursementDate: util.NewDate(2026, time.February, 1),
	})

	// Both submissions read the same snapshot before either appends
	backing := testutil.NewMockLedgerRepository()
	var readers sync.WaitGroup
	readers.Add(2)
	f.ledgers.GetFn = func(ctx context.Context, id uuid.UUID) (*domain.Ledger, error) {
		ledger, err := backing.GetByLoanID(ctx, id)
		readers.Done()
		readers.Wait()
		return ledger, err
	}
	f.ledgers.AppendFn = backing.Append

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.SubmitPayment(context.Background(), testOwner, loanID, SubmitPaymentInput{Amount: 600, Proof: validProof()})
		}(i)
	}
	wg.Wait()

	accepted, stale := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			accepted++
		case errors.Is(err, domain.ErrStaleLedger):
			stale++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, accepted)
	assert.Equal(t, 1, stale)

	final, err := backing.GetByLoanID(context.Background(), loanID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), final.Version)
	require.Len(t, final.OpenPayments, 1)
	assert.Equal(t, int64(400), final.OpenPayments[0].RunningBalanceAfter)
	assert.Equal(t, 2, f.proofs.ObjectCount())
}

func TestReconcile_AsOfDate(t *testing.T) {
	f := newRepaymentFixture()
	loanID := f.addLoan(installmentLoanTerms(300000, 3))

	// Slot 1 is due 2026-02-10
	before := util.NewDate(2026, time.February, 10)
	view, err := f.svc.Reconcile(context.Background(), testOwner, loanID, &before)
	require.NoError(t, err)
	assert.False(t, view.Overdue)
	assert.Equal(t, before, view.AsOf)

	after := util.NewDate(2026, time.February, 11)
	view, err = f.svc.Reconcile(context.Background(), testOwner, loanID, &after)
	require.NoError(t, err)
	assert.True(t, view.Overdue)
	assert.True(t, view.Installments[0].Overdue)
	assert.False(t, view.Installments[1].Overdue)
}

func TestReconcile_LedgerInconsistency(t *testing.T) {
	f := newRepaymentFixture()
	loanID := f.addLoan(installmentLoanTerms(300000, 3))

	ledger := domain.NewLedger(loanID)
	ledger.Version = 1
	ledger.Installments[5] = domain.InstallmentSlot{Number: 5, Amount: 100000, Status: domain.StatusPaid}
	f.ledgers.SetLedger(ledger)

	_, err := f.svc.Reconcile(context.Background(), testOwner, loanID, nil)
	assert.ErrorIs(t, err, domain.ErrLedgerInconsistency)
}

func TestProofURLs(t *testing.T) {
	f := newRepaymentFixture()
	loanID := f.addLoan(installmentLoanTerms(300000, 3))

	outcome, err := f.svc.SubmitPayment(context.Background(), testOwner, loanID, SubmitPaymentInput{SlotNumber: intPtr(1), Proof: validProof()})
	require.NoError(t, err)

	urls, err := f.svc.ProofURLs(context.Background(), testOwner, loanID, outcome.Entry.Slot.ProofRef)
	require.NoError(t, err)
	assert.NotEmpty(t, urls.OriginalURL)

	_, err = f.svc.ProofURLs(context.Background(), testOwner, loanID, "proofs/"+loanID.String()+"/other/original.jpg")
	assert.ErrorIs(t, err, domain.ErrProofNotFound)

	_, err = f.svc.ProofURLs(context.Background(), "auth0|someone-else", loanID, outcome.Entry.Slot.ProofRef)
	assert.ErrorIs(t, err, domain.ErrLoanNotFound)
}
