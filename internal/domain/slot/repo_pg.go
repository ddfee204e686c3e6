package slot

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medbook/bookd/internal/domain/grid"
	"github.com/medbook/bookd/internal/platform/apperror"
	"github.com/medbook/bookd/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const slotCols = `id, doctor_id, pack_id, start_idx, end_idx, price, active, created_at, updated_at`

// scanSlot rebuilds the owner union and the grid interval from the
// persisted columns.
func scanSlot(row pgx.Row) (*TimeSlot, error) {
	var (
		s                TimeSlot
		doctorID, packID *uuid.UUID
		startIdx, endIdx int
	)
	err := row.Scan(&s.ID, &doctorID, &packID, &startIdx, &endIdx,
		&s.Price, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.E(apperror.NotFound, "time slot not found")
	}
	if err != nil {
		return nil, err
	}
	owner, err := NewOwner(doctorID, packID)
	if err != nil {
		return nil, err
	}
	start, err := grid.MarkByIndex(startIdx)
	if err != nil {
		return nil, err
	}
	end, err := grid.MarkByIndex(endIdx)
	if err != nil {
		return nil, err
	}
	s.Owner = owner
	s.Interval, err = grid.NewInterval(start, end)
	return &s, err
}

func (r *repoPG) Create(ctx context.Context, s *TimeSlot) error {
	s.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO time_slot (id, doctor_id, pack_id, start_idx, end_idx, price, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		s.ID, s.Owner.DoctorID(), s.Owner.PackID(),
		s.Interval.Start.Index, s.Interval.End.Index, s.Price, s.Active)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*TimeSlot, error) {
	return scanSlot(r.conn(ctx).QueryRow(ctx, `SELECT `+slotCols+` FROM time_slot WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, s *TimeSlot) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE time_slot SET start_idx=$2, end_idx=$3, price=$4, updated_at=NOW()
		WHERE id = $1`,
		s.ID, s.Interval.Start.Index, s.Interval.End.Index, s.Price)
	return err
}

func (r *repoPG) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE time_slot SET active=$2, updated_at=NOW() WHERE id = $1`, id, active)
	return err
}

func (r *repoPG) ListByOwner(ctx context.Context, owner Owner, activeOnly bool) ([]*TimeSlot, error) {
	query := `SELECT ` + slotCols + ` FROM time_slot WHERE `
	switch owner.Kind {
	case OwnerDoctor:
		query += `doctor_id = $1`
	case OwnerPack:
		query += `pack_id = $1`
	default:
		return nil, apperror.Errorf(apperror.BadRequest, "unknown owner kind: %s", owner.Kind)
	}
	if activeOnly {
		query += ` AND active`
	}
	query += ` ORDER BY start_idx`

	rows, err := r.conn(ctx).Query(ctx, query, owner.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*TimeSlot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, nil
}
