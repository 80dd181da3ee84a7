package postgres

import (
	"context"
	"errors"

	"github.com/dafibh/lunas/lunas-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LoanRepository implements domain.LoanRepository using PostgreSQL
type LoanRepository struct {
	pool    *pgxpool.Pool
	queries *Queries
}

// NewLoanRepository creates a new LoanRepository
func NewLoanRepository(pool *pgxpool.Pool) *LoanRepository {
	return &LoanRepository{
		pool:    pool,
		queries: NewQueries(pool),
	}
}

// Create inserts the loan terms and returns the stored loan
func (r *LoanRepository) Create(ctx context.Context, loan *domain.Loan) (*domain.Loan, error) {
	var count pgtype.Int4
	if c := domain.InstallmentCountOf(loan.Terms.Plan); c != nil {
		count = pgtype.Int4{Int32: int32(*c), Valid: true}
	}

	created, err := r.queries.CreateLoan(ctx, createLoanParams{
		OwnerID:          loan.OwnerID,
		Title:            loan.Title,
		Principal:        loan.Terms.Principal,
		Plan:             string(loan.Terms.Plan.Kind()),
		InstallmentCount: count,
		DisbursementDate: pgDate(loan.Terms.DisbursementDate),
		DueDate:          pgDatePtr(loan.Terms.DueDate),
	})
	if err != nil {
		return nil, err
	}
	return loanRowToDomain(created)
}

// GetByID retrieves a loan owned by ownerID
func (r *LoanRepository) GetByID(ctx context.Context, ownerID string, id uuid.UUID) (*domain.Loan, error) {
	row, err := r.queries.GetLoanByID(ctx, ownerID, pgUUID(id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	return loanRowToDomain(row)
}

// ListByOwner retrieves all loans of an owner, newest first
func (r *LoanRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Loan, error) {
	rows, err := r.queries.ListLoansByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	loans := make([]*domain.Loan, 0, len(rows))
	for _, row := range rows {
		loan, err := loanRowToDomain(row)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	return loans, nil
}
