package service

import (
	"context"
	"strings"
	"time"

	"github.com/dafibh/lunas/lunas-backend/internal/domain"
	"github.com/dafibh/lunas/lunas-backend/internal/repayment"
	"github.com/dafibh/lunas/lunas-backend/internal/util"
	"github.com/dafibh/lunas/lunas-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// LoanService handles loan terms
type LoanService struct {
	loanRepo       domain.LoanRepository
	eventPublisher websocket.EventPublisher
	now            func() time.Time
}

// NewLoanService creates a new LoanService
func NewLoanService(loanRepo domain.LoanRepository) *LoanService {
	return &LoanService{
		loanRepo: loanRepo,
		now:      time.Now,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *LoanService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// SetClock overrides the time source
func (s *LoanService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *LoanService) publishEvent(ownerID string, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(ownerID, event)
	}
}

// LoanTermsInput is loan terms in their wire form
type LoanTermsInput struct {
	Principal        int64
	Plan             string
	InstallmentCount *int
	DisbursementDate util.Date
	DueDate          *util.Date
}

// Terms builds and validates domain terms from the input
func (in LoanTermsInput) Terms() (domain.LoanTerms, error) {
	plan, err := domain.NewRepaymentPlan(in.Plan, in.InstallmentCount)
	if err != nil {
		return domain.LoanTerms{}, err
	}
	terms := domain.LoanTerms{
		Principal:        in.Principal,
		Plan:             plan,
		DisbursementDate: in.DisbursementDate,
		DueDate:          in.DueDate,
	}
	if err := terms.Validate(); err != nil {
		return domain.LoanTerms{}, err
	}
	return terms, nil
}

// CreateLoanInput contains input for creating a loan
type CreateLoanInput struct {
	Title string
	LoanTermsInput
}

// LoanEventPayload is the payload of loan events
type LoanEventPayload struct {
	LoanID         uuid.UUID              `json:"loanId"`
	Title          string                 `json:"title"`
	Reconciliation *domain.ReconciledView `json:"reconciliation,omitempty"`
}

// CreateLoan validates and stores new loan terms for the owner
func (s *LoanService) CreateLoan(ctx context.Context, ownerID string, input CreateLoanInput) (*domain.Loan, error) {
	title := strings.TrimSpace(input.Title)

	terms, err := input.Terms()
	if err != nil {
		return nil, err
	}
	if err := terms.ValidateForCreation(util.DateOf(s.now())); err != nil {
		return nil, err
	}

	loan := &domain.Loan{
		OwnerID: ownerID,
		Title:   title,
		Terms:   terms,
	}
	if err := loan.Validate(); err != nil {
		return nil, err
	}

	created, err := s.loanRepo.Create(ctx, loan)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("loan_id", created.ID.String()).
		Str("owner_id", ownerID).
		Str("plan", string(terms.Plan.Kind())).
		Msg("Loan created")

	s.publishEvent(ownerID, websocket.LoanCreated(LoanEventPayload{LoanID: created.ID, Title: created.Title}))
	return created, nil
}

// GetLoan retrieves one of the owner's loans
func (s *LoanService) GetLoan(ctx context.Context, ownerID string, id uuid.UUID) (*domain.Loan, error) {
	return s.loanRepo.GetByID(ctx, ownerID, id)
}

// ListLoans lists the owner's loans
func (s *LoanService) ListLoans(ctx context.Context, ownerID string) ([]*domain.Loan, error) {
	return s.loanRepo.ListByOwner(ctx, ownerID)
}

// PreviewSchedule generates the installment schedule for unsaved terms
func (s *LoanService) PreviewSchedule(input LoanTermsInput) ([]domain.InstallmentSlot, error) {
	terms, err := input.Terms()
	if err != nil {
		return nil, err
	}
	return repayment.GenerateSchedule(terms)
}
