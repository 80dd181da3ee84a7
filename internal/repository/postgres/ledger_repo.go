package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dafibh/lunas/lunas-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// LedgerRepository implements domain.LedgerRepository over the append-only
// payment tables, using loans.ledger_version as the concurrency token.
type LedgerRepository struct {
	pool    *pgxpool.Pool
	queries *Queries
}

// NewLedgerRepository creates a new LedgerRepository
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{
		pool:    pool,
		queries: NewQueries(pool),
	}
}

// GetByLoanID loads a consistent snapshot of every record of the loan. All
// three record tables are read regardless of the plan so that misplaced
// records reach reconciliation and are reported there.
func (r *LedgerRepository) GetByLoanID(ctx context.Context, loanID uuid.UUID) (*domain.Ledger, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	qtx := r.queries.WithTx(tx)
	id := pgUUID(loanID)

	version, err := qtx.GetLedgerVersion(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}

	ledger := domain.NewLedger(loanID)
	ledger.Version = version

	slots, err := qtx.ListInstallmentPayments(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load installment payments: %w", err)
	}
	for _, s := range slots {
		ledger.Installments[int(s.SlotNumber)] = domain.InstallmentSlot{
			Number:   int(s.SlotNumber),
			Amount:   s.Amount,
			DueDate:  dateFromPg(s.DueDate),
			Status:   domain.PaymentStatus(s.Status),
			ProofRef: s.ProofRef,
			PaidAt:   timePtrFromPg(s.PaidAt),
		}
	}

	single, err := qtx.GetSinglePayment(ctx, id)
	switch {
	case err == nil:
		ledger.Single = &domain.SinglePaymentRecord{
			Amount:   single.Amount,
			Status:   domain.PaymentStatus(single.Status),
			ProofRef: single.ProofRef,
			PaidAt:   timePtrFromPg(single.PaidAt),
		}
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, fmt.Errorf("failed to load single payment: %w", err)
	}

	open, err := qtx.ListOpenPayments(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load open payments: %w", err)
	}
	for _, o := range open {
		var note *string
		if o.Note.Valid {
			n := o.Note.String
			note = &n
		}
		ledger.OpenPayments = append(ledger.OpenPayments, domain.OpenPaymentRecord{
			ID:                  uuid.UUID(o.ID.Bytes),
			Amount:              o.Amount,
			RunningBalanceAfter: o.RunningBalanceAfter,
			ProofRef:            o.ProofRef,
			Note:                note,
			PaidAt:              o.PaidAt.Time,
		})
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ledger, nil
}

// Append bumps the ledger version from expectedVersion and inserts the entry
// in one transaction. A version mismatch returns domain.ErrStaleLedger and a
// second payment for the same slot surfaces as SLOT_ALREADY_PAID.
func (r *LedgerRepository) Append(ctx context.Context, loanID uuid.UUID, expectedVersion int64, entry domain.LedgerEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	qtx := r.queries.WithTx(tx)
	id := pgUUID(loanID)

	affected, err := qtx.BumpLedgerVersion(ctx, id, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to bump ledger version: %w", err)
	}
	if affected == 0 {
		return domain.Reject(domain.ReasonStaleLedger, "ledger moved past version %d", expectedVersion)
	}

	switch {
	case entry.Slot != nil:
		err = qtx.InsertInstallmentPayment(ctx, id, installmentPaymentRow{
			SlotNumber: int32(entry.Slot.Number),
			Amount:     entry.Slot.Amount,
			DueDate:    pgDate(entry.Slot.DueDate),
			Status:     string(entry.Slot.Status),
			ProofRef:   entry.Slot.ProofRef,
			PaidAt:     pgTimestamptz(entry.Slot.PaidAt),
		})
		if isUniqueViolation(err) {
			return domain.Reject(domain.ReasonSlotAlreadyPaid, "slot %d is already paid", entry.Slot.Number)
		}
	case entry.Single != nil:
		err = qtx.InsertSinglePayment(ctx, id, singlePaymentRow{
			Amount:   entry.Single.Amount,
			Status:   string(entry.Single.Status),
			ProofRef: entry.Single.ProofRef,
			PaidAt:   pgTimestamptz(entry.Single.PaidAt),
		})
		if isUniqueViolation(err) {
			return domain.Reject(domain.ReasonAlreadyPaid, "loan is already paid in full")
		}
	case entry.Open != nil:
		paidAt := entry.Open.PaidAt
		err = qtx.InsertOpenPayment(ctx, id, openPaymentRow{
			ID:                  pgtype.UUID{Bytes: entry.Open.ID, Valid: true},
			Amount:              entry.Open.Amount,
			RunningBalanceAfter: entry.Open.RunningBalanceAfter,
			ProofRef:            entry.Open.ProofRef,
			Note:                pgText(entry.Open.Note),
			PaidAt:              pgTimestamptz(&paidAt),
		})
	default:
		return fmt.Errorf("empty ledger entry for loan %s", loanID)
	}
	if err != nil {
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	return tx.Commit(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
