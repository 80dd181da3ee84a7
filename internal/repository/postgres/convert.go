package postgres

import (
	"fmt"
	"time"

	"github.com/dafibh/lunas/lunas-backend/internal/domain"
	"github.com/dafibh/lunas/lunas-backend/internal/util"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func pgDate(d util.Date) pgtype.Date {
	return pgtype.Date{Time: d.Time(), Valid: true}
}

func pgDatePtr(d *util.Date) pgtype.Date {
	if d == nil {
		return pgtype.Date{}
	}
	return pgDate(*d)
}

func pgTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}

func pgText(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func dateFromPg(d pgtype.Date) util.Date {
	return util.DateOf(d.Time)
}

func timePtrFromPg(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time
	return &t
}

func loanRowToDomain(row loanRow) (*domain.Loan, error) {
	var count *int
	if row.InstallmentCount.Valid {
		c := int(row.InstallmentCount.Int32)
		count = &c
	}
	plan, err := domain.NewRepaymentPlan(row.Plan, count)
	if err != nil {
		return nil, fmt.Errorf("loan %s: %w", uuid.UUID(row.ID.Bytes), err)
	}

	var dueDate *util.Date
	if row.DueDate.Valid {
		d := dateFromPg(row.DueDate)
		dueDate = &d
	}

	return &domain.Loan{
		ID:      uuid.UUID(row.ID.Bytes),
		OwnerID: row.OwnerID,
		Title:   row.Title,
		Terms: domain.LoanTerms{
			Principal:        row.Principal,
			Plan:             plan,
			DisbursementDate: dateFromPg(row.DisbursementDate),
			DueDate:          dueDate,
		},
		LedgerVersion: row.LedgerVersion,
		CreatedAt:     row.CreatedAt.Time,
		UpdatedAt:     row.UpdatedAt.Time,
	}, nil
}
