package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dafibh/lunas/lunas-backend/internal/domain"
	"github.com/dafibh/lunas/lunas-backend/internal/repayment"
	"github.com/dafibh/lunas/lunas-backend/internal/util"
	"github.com/dafibh/lunas/lunas-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// RepaymentService coordinates payment submission: it validates against the
// current reconciliation, stores the proof, and appends to the ledger with a
// compare-and-swap on the ledger version.
type RepaymentService struct {
	loanRepo       domain.LoanRepository
	ledgerRepo     domain.LedgerRepository
	proofs         *ProofService
	eventPublisher websocket.EventPublisher
	now            func() time.Time
}

// NewRepaymentService creates a new RepaymentService
func NewRepaymentService(loanRepo domain.LoanRepository, ledgerRepo domain.LedgerRepository, proofs *ProofService) *RepaymentService {
	return &RepaymentService{
		loanRepo:   loanRepo,
		ledgerRepo: ledgerRepo,
		proofs:     proofs,
		now:        time.Now,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *RepaymentService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// SetClock overrides the time source
func (s *RepaymentService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *RepaymentService) publishEvent(ownerID string, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(ownerID, event)
	}
}

// SubmitPaymentInput contains input for a payment submission
type SubmitPaymentInput struct {
	Amount          int64
	SlotNumber      *int
	ExpectedVersion *int64
	Note            *string
	Proof           *ProofUpload
}

// PaymentSubmittedPayload is the payload of payment.submitted events
type PaymentSubmittedPayload struct {
	LoanID         uuid.UUID              `json:"loanId"`
	Entry          domain.LedgerEntry     `json:"entry"`
	Reconciliation *domain.ReconciledView `json:"reconciliation"`
}

// SubmitPayment validates and records a payment against the owner's loan
func (s *RepaymentService) SubmitPayment(ctx context.Context, ownerID string, loanID uuid.UUID, input SubmitPaymentInput) (*domain.SubmitOutcome, error) {
	loan, err := s.loanRepo.GetByID(ctx, ownerID, loanID)
	if err != nil {
		return nil, err
	}

	if input.Note != nil && utf8.RuneCountInString(strings.TrimSpace(*input.Note)) > domain.MaxPaymentNoteLength {
		return nil, domain.ErrPaymentNoteTooLong
	}

	if input.Proof == nil || len(input.Proof.Data) == 0 {
		return nil, domain.Reject(domain.ReasonProofMissing, "a payment proof file is required")
	}
	if err := s.proofs.ValidateProof(*input.Proof); err != nil {
		return nil, err
	}

	ledger, err := s.ledgerRepo.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	req := domain.PaymentRequest{
		Amount:          input.Amount,
		SlotNumber:      input.SlotNumber,
		Note:            input.Note,
		ExpectedVersion: input.ExpectedVersion,
	}

	// Reject before storing anything
	if err := repayment.Validate(loan.Terms, ledger, req, now); err != nil {
		s.logSubmitError(err, ownerID, loanID)
		return nil, err
	}

	ref, err := s.proofs.Store(ctx, loanID, *input.Proof)
	if err != nil {
		return nil, err
	}
	req.ProofRef = ref

	outcome, err := repayment.Submit(loan.Terms, ledger, req, now)
	if err != nil {
		s.proofs.Delete(ctx, ref)
		s.logSubmitError(err, ownerID, loanID)
		return nil, err
	}

	if err := s.ledgerRepo.Append(ctx, loanID, ledger.Version, outcome.Entry); err != nil {
		s.proofs.Delete(ctx, ref)
		s.logSubmitError(err, ownerID, loanID)
		return nil, err
	}

	for _, w := range outcome.View.Warnings {
		log.Warn().Str("loan_id", loanID.String()).Str("warning", w).Msg("Ledger integrity warning")
	}

	log.Info().
		Str("loan_id", loanID.String()).
		Str("owner_id", ownerID).
		Int64("ledger_version", outcome.Ledger.Version).
		Int64("remaining", outcome.View.RemainingBalance).
		Msg("Payment recorded")

	s.publishEvent(ownerID, websocket.PaymentSubmitted(PaymentSubmittedPayload{
		LoanID:         loanID,
		Entry:          outcome.Entry,
		Reconciliation: outcome.View,
	}))
	if outcome.View.IsComplete() {
		s.publishEvent(ownerID, websocket.LoanCompleted(LoanEventPayload{LoanID: loan.ID, Title: loan.Title, Reconciliation: outcome.View}))
	}

	return outcome, nil
}

// Reconcile returns the owner's loan reconciled as of at, or as of now when at is nil
func (s *RepaymentService) Reconcile(ctx context.Context, ownerID string, loanID uuid.UUID, at *util.Date) (*domain.ReconciledView, error) {
	loan, err := s.loanRepo.GetByID(ctx, ownerID, loanID)
	if err != nil {
		return nil, err
	}

	ledger, err := s.ledgerRepo.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if at != nil {
		now = at.Time()
	}

	view, err := repayment.Reconcile(loan.Terms, ledger, now)
	if err != nil {
		if errors.Is(err, domain.ErrLedgerInconsistency) {
			log.Error().Err(err).Str("loan_id", loanID.String()).Msg("Ledger is inconsistent")
		}
		return nil, err
	}

	for _, w := range view.Warnings {
		log.Warn().Str("loan_id", loanID.String()).Str("warning", w).Msg("Ledger integrity warning")
	}
	return view, nil
}

// ProofURLs returns presigned URLs for a proof attached to the owner's loan
func (s *RepaymentService) ProofURLs(ctx context.Context, ownerID string, loanID uuid.UUID, ref string) (*ProofURLs, error) {
	if _, err := s.loanRepo.GetByID(ctx, ownerID, loanID); err != nil {
		return nil, err
	}

	ledger, err := s.ledgerRepo.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	known := false
	for _, r := range ledger.ProofRefs() {
		if r == ref {
			known = true
			break
		}
	}
	if !known {
		return nil, domain.ErrProofNotFound
	}

	return s.proofs.PresignedURLs(ctx, loanID, ref)
}

func (s *RepaymentService) logSubmitError(err error, ownerID string, loanID uuid.UUID) {
	if reason, ok := domain.RejectionReasonOf(err); ok {
		log.Info().
			Str("loan_id", loanID.String()).
			Str("owner_id", ownerID).
			Str("reason", string(reason)).
			Msg("Payment rejected")
		return
	}
	if errors.Is(err, domain.ErrLedgerInconsistency) {
		log.Error().Err(err).Str("loan_id", loanID.String()).Msg("Ledger is inconsistent")
		return
	}
	log.Error().Err(err).Str("loan_id", loanID.String()).Msg("Payment submission failed")
}
