package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medbook/bookd/internal/domain/slot"
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

const orderCols = `id, customer_id, slot_id, booking_date, status, price, address, symptom, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.CustomerID, &o.SlotID, &o.BookingDate, &o.Status,
		&o.Price, &o.Address, &o.Symptom, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.E(apperror.NotFound, "booking not found")
	}
	return &o, err
}

// isUniqueViolation detects SQLSTATE 23505, raised by the partial
// unique index on approved (slot_id, booking_date) pairs and by the
// one-diagnosis-per-booking constraint.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *repoPG) Create(ctx context.Context, o *Order) error {
	o.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO booking (id, customer_id, slot_id, booking_date, status, price, address, symptom)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		o.ID, o.CustomerID, o.SlotID, o.BookingDate, o.Status, o.Price, o.Address, o.Symptom)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	return scanOrder(r.conn(ctx).QueryRow(ctx, `SELECT `+orderCols+` FROM booking WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, o *Order) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE booking SET slot_id=$2, booking_date=$3, status=$4, price=$5, address=$6, symptom=$7, updated_at=NOW()
		WHERE id = $1`,
		o.ID, o.SlotID, o.BookingDate, o.Status, o.Price, o.Address, o.Symptom)
	return err
}

func (r *repoPG) SetStatus(ctx context.Context, id uuid.UUID, status Status) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE booking SET status=$2, updated_at=NOW() WHERE id = $1`, id, status)
	if isUniqueViolation(err) {
		return apperror.E(apperror.AlreadyExists, "slot already has an approved booking for that date")
	}
	return err
}

func (r *repoPG) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*Order, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM booking WHERE customer_id = $1`, customerID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+orderCols+` FROM booking
		WHERE customer_id = $1
		ORDER BY booking_date DESC, created_at DESC
		LIMIT $2 OFFSET $3`, customerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collect(rows, total)
}

func (r *repoPG) ListByOwner(ctx context.Context, owner slot.Owner, status Status, limit, offset int) ([]*Order, int, error) {
	ownerCol := "ts.doctor_id"
	if owner.Kind == slot.OwnerPack {
		ownerCol = "ts.pack_id"
	}
	where := ` FROM booking b JOIN time_slot ts ON ts.id = b.slot_id WHERE ` + ownerCol + ` = $1`
	args := []interface{}{owner.ID}
	if status != "" {
		where += ` AND b.status = $2`
		args = append(args, status)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*)`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	cols := `b.id, b.customer_id, b.slot_id, b.booking_date, b.status, b.price, b.address, b.symptom, b.created_at, b.updated_at`
	query := `SELECT ` + cols + where + ` ORDER BY b.booking_date DESC, b.created_at DESC`
	if status != "" {
		query += ` LIMIT $3 OFFSET $4`
	} else {
		query += ` LIMIT $2 OFFSET $3`
	}
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collect(rows, total)
}

func (r *repoPG) ListPendingForSlot(ctx context.Context, slotID uuid.UUID, date time.Time, excludeID uuid.UUID) ([]*Order, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+orderCols+` FROM booking
		WHERE slot_id = $1 AND booking_date = $2 AND status = $3 AND id <> $4
		ORDER BY created_at`, slotID, date, StatusPending, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items, _, err := collect(rows, 0)
	return items, err
}

func (r *repoPG) HasApprovedBooking(ctx context.Context, slotID uuid.UUID, date time.Time) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM booking WHERE slot_id = $1 AND booking_date = $2 AND status = $3)`,
		slotID, date, StatusApproved).Scan(&exists)
	return exists, err
}

func (r *repoPG) RejectStalePending(ctx context.Context, before time.Time) ([]*Order, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		UPDATE booking SET status = $1, updated_at = NOW()
		WHERE status = $2 AND booking_date < $3
		RETURNING `+orderCols, StatusRejected, StatusPending, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items, _, err := collect(rows, 0)
	return items, err
}

const diagnosisCols = `id, booking_id, description, created_at, updated_at`

func scanDiagnosis(row pgx.Row) (*Diagnosis, error) {
	var d Diagnosis
	err := row.Scan(&d.ID, &d.OrderID, &d.Description, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.E(apperror.NotFound, "diagnosis not found")
	}
	return &d, err
}

func (r *repoPG) CreateDiagnosis(ctx context.Context, d *Diagnosis) error {
	d.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO diagnosis (id, booking_id, description)
		VALUES ($1,$2,$3)`, d.ID, d.OrderID, d.Description)
	if isUniqueViolation(err) {
		return apperror.E(apperror.AlreadyExists, "booking already has a diagnosis")
	}
	return err
}

func (r *repoPG) GetDiagnosisByOrder(ctx context.Context, orderID uuid.UUID) (*Diagnosis, error) {
	return scanDiagnosis(r.conn(ctx).QueryRow(ctx,
		`SELECT `+diagnosisCols+` FROM diagnosis WHERE booking_id = $1`, orderID))
}

func collect(rows pgx.Rows, total int) ([]*Order, int, error) {
	var items []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, o)
	}
	return items, total, nil
}
