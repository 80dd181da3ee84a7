package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Queries wraps the SQL used by the repositories so the same statements run
// against the pool or inside a transaction.
type Queries struct {
	db DBTX
}

func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

type loanRow struct {
	ID               pgtype.UUID
	OwnerID          string
	Title            string
	Principal        int64
	Plan             string
	InstallmentCount pgtype.Int4
	DisbursementDate pgtype.Date
	DueDate          pgtype.Date
	LedgerVersion    int64
	CreatedAt        pgtype.Timestamptz
	UpdatedAt        pgtype.Timestamptz
}

const loanColumns = `id, owner_id, title, principal, plan, installment_count,
	disbursement_date, due_date, ledger_version, created_at, updated_at`

func scanLoan(row pgx.Row) (loanRow, error) {
	var l loanRow
	err := row.Scan(
		&l.ID, &l.OwnerID, &l.Title, &l.Principal, &l.Plan, &l.InstallmentCount,
		&l.DisbursementDate, &l.DueDate, &l.LedgerVersion, &l.CreatedAt, &l.UpdatedAt,
	)
	return l, err
}

type createLoanParams struct {
	OwnerID          string
	Title            string
	Principal        int64
	Plan             string
	InstallmentCount pgtype.Int4
	DisbursementDate pgtype.Date
	DueDate          pgtype.Date
}

const createLoan = `INSERT INTO loans (owner_id, title, principal, plan, installment_count, disbursement_date, due_date)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + loanColumns

func (q *Queries) CreateLoan(ctx context.Context, arg createLoanParams) (loanRow, error) {
	return scanLoan(q.db.QueryRow(ctx, createLoan,
		arg.OwnerID, arg.Title, arg.Principal, arg.Plan, arg.InstallmentCount, arg.DisbursementDate, arg.DueDate))
}

const getLoanByID = `SELECT ` + loanColumns + ` FROM loans WHERE owner_id = $1 AND id = $2`

func (q *Queries) GetLoanByID(ctx context.Context, ownerID string, id pgtype.UUID) (loanRow, error) {
	return scanLoan(q.db.QueryRow(ctx, getLoanByID, ownerID, id))
}

const listLoansByOwner = `SELECT ` + loanColumns + ` FROM loans WHERE owner_id = $1 ORDER BY created_at DESC, id`

func (q *Queries) ListLoansByOwner(ctx context.Context, ownerID string) ([]loanRow, error) {
	rows, err := q.db.Query(ctx, listLoansByOwner, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []loanRow
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

const getLedgerVersion = `SELECT ledger_version FROM loans WHERE id = $1`

func (q *Queries) GetLedgerVersion(ctx context.Context, loanID pgtype.UUID) (int64, error) {
	var version int64
	err := q.db.QueryRow(ctx, getLedgerVersion, loanID).Scan(&version)
	return version, err
}

// bumpLedgerVersion is the compare-and-swap guarding every ledger append
const bumpLedgerVersion = `UPDATE loans
SET ledger_version = ledger_version + 1, updated_at = NOW()
WHERE id = $1 AND ledger_version = $2`

func (q *Queries) BumpLedgerVersion(ctx context.Context, loanID pgtype.UUID, expectedVersion int64) (int64, error) {
	tag, err := q.db.Exec(ctx, bumpLedgerVersion, loanID, expectedVersion)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type installmentPaymentRow struct {
	SlotNumber int32
	Amount     int64
	DueDate    pgtype.Date
	Status     string
	ProofRef   string
	PaidAt     pgtype.Timestamptz
}

const listInstallmentPayments = `SELECT slot_number, amount, due_date, status, proof_ref, paid_at
FROM installment_payments WHERE loan_id = $1 ORDER BY slot_number`

func (q *Queries) ListInstallmentPayments(ctx context.Context, loanID pgtype.UUID) ([]installmentPaymentRow, error) {
	rows, err := q.db.Query(ctx, listInstallmentPayments, loanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []installmentPaymentRow
	for rows.Next() {
		var i installmentPaymentRow
		if err := rows.Scan(&i.SlotNumber, &i.Amount, &i.DueDate, &i.Status, &i.ProofRef, &i.PaidAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const insertInstallmentPayment = `INSERT INTO installment_payments (loan_id, slot_number, amount, due_date, status, proof_ref, paid_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

func (q *Queries) InsertInstallmentPayment(ctx context.Context, loanID pgtype.UUID, p installmentPaymentRow) error {
	_, err := q.db.Exec(ctx, insertInstallmentPayment,
		loanID, p.SlotNumber, p.Amount, p.DueDate, p.Status, p.ProofRef, p.PaidAt)
	return err
}

type singlePaymentRow struct {
	Amount   int64
	Status   string
	ProofRef string
	PaidAt   pgtype.Timestamptz
}

const getSinglePayment = `SELECT amount, status, proof_ref, paid_at FROM single_payments WHERE loan_id = $1`

func (q *Queries) GetSinglePayment(ctx context.Context, loanID pgtype.UUID) (singlePaymentRow, error) {
	var s singlePaymentRow
	err := q.db.QueryRow(ctx, getSinglePayment, loanID).Scan(&s.Amount, &s.Status, &s.ProofRef, &s.PaidAt)
	return s, err
}

const insertSinglePayment = `INSERT INTO single_payments (loan_id, amount, status, proof_ref, paid_at)
VALUES ($1, $2, $3, $4, $5)`

func (q *Queries) InsertSinglePayment(ctx context.Context, loanID pgtype.UUID, p singlePaymentRow) error {
	_, err := q.db.Exec(ctx, insertSinglePayment, loanID, p.Amount, p.Status, p.ProofRef, p.PaidAt)
	return err
}

type openPaymentRow struct {
	ID                  pgtype.UUID
	Amount              int64
	RunningBalanceAfter int64
	ProofRef            string
	Note                pgtype.Text
	PaidAt              pgtype.Timestamptz
}

const listOpenPayments = `SELECT id, amount, running_balance_after, proof_ref, note, paid_at
FROM open_payments WHERE loan_id = $1 ORDER BY seq`

func (q *Queries) ListOpenPayments(ctx context.Context, loanID pgtype.UUID) ([]openPaymentRow, error) {
	rows, err := q.db.Query(ctx, listOpenPayments, loanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []openPaymentRow
	for rows.Next() {
		var o openPaymentRow
		if err := rows.Scan(&o.ID, &o.Amount, &o.RunningBalanceAfter, &o.ProofRef, &o.Note, &o.PaidAt); err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	return items, rows.Err()
}

const insertOpenPayment = `INSERT INTO open_payments (id, loan_id, seq, amount, running_balance_after, proof_ref, note, paid_at)
VALUES ($1, $2, (SELECT COALESCE(MAX(seq), 0) + 1 FROM open_payments WHERE loan_id = $2), $3, $4, $5, $6, $7)`

func (q *Queries) InsertOpenPayment(ctx context.Context, loanID pgtype.UUID, p openPaymentRow) error {
	_, err := q.db.Exec(ctx, insertOpenPayment,
		p.ID, loanID, p.Amount, p.RunningBalanceAfter, p.ProofRef, p.Note, p.PaidAt)
	return err
}
