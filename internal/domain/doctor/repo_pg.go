package doctor

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

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

const doctorCols = `id, hospital_id, department_id, name, email, phone, degree, specialty,
	description, star, active, created_at, updated_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.HospitalID, &d.DepartmentID, &d.Name, &d.Email, &d.Phone,
		&d.Degree, &d.Specialty, &d.Description, &d.Star, &d.Active, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.E(apperror.NotFound, "doctor not found")
	}
	return &d, err
}

func (r *repoPG) Create(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO doctor (id, hospital_id, department_id, name, email, phone, degree, specialty, description, star, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		d.ID, d.HospitalID, d.DepartmentID, d.Name, d.Email, d.Phone,
		d.Degree, d.Specialty, d.Description, d.Star, d.Active)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return scanDoctor(r.conn(ctx).QueryRow(ctx, `SELECT `+doctorCols+` FROM doctor WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, d *Doctor) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE doctor SET department_id=$2, name=$3, email=$4, phone=$5, degree=$6,
			specialty=$7, description=$8, updated_at=NOW()
		WHERE id = $1`,
		d.ID, d.DepartmentID, d.Name, d.Email, d.Phone, d.Degree, d.Specialty, d.Description)
	return err
}

func (r *repoPG) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE doctor SET active=$2, updated_at=NOW() WHERE id = $1`, id, active)
	return err
}

func (r *repoPG) SetStar(ctx context.Context, id uuid.UUID, star float64) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE doctor SET star=$2, updated_at=NOW() WHERE id = $1`, id, star)
	return err
}

func (r *repoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Doctor, int, error) {
	query := `SELECT ` + doctorCols + ` FROM doctor WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM doctor WHERE 1=1`
	var args []interface{}
	idx := 1

	if p, ok := params["hospital_id"]; ok {
		query += fmt.Sprintf(` AND hospital_id = $%d`, idx)
		countQuery += fmt.Sprintf(` AND hospital_id = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["department_id"]; ok {
		query += fmt.Sprintf(` AND department_id = $%d`, idx)
		countQuery += fmt.Sprintf(` AND department_id = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["keyword"]; ok {
		query += fmt.Sprintf(` AND (name ILIKE $%d OR specialty ILIKE $%d)`, idx, idx)
		countQuery += fmt.Sprintf(` AND (name ILIKE $%d OR specialty ILIKE $%d)`, idx, idx)
		args = append(args, "%"+p+"%")
		idx++
	}
	if p, ok := params["active"]; ok {
		query += fmt.Sprintf(` AND active = $%d`, idx)
		countQuery += fmt.Sprintf(` AND active = $%d`, idx)
		args = append(args, p)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY name LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, nil
}

func (r *repoPG) ListMostBooked(ctx context.Context, limit int) ([]*Doctor, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+doctorCols+` FROM doctor d
		WHERE d.active
		ORDER BY (SELECT COUNT(*) FROM booking b
			JOIN time_slot ts ON ts.id = b.slot_id
			WHERE ts.doctor_id = d.id AND b.status = 'APPROVED') DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, nil
}

func (r *repoPG) ListMostStarred(ctx context.Context, limit int) ([]*Doctor, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+doctorCols+` FROM doctor WHERE active ORDER BY star DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, nil
}
