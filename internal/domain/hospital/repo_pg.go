package hospital

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

// =========== Hospital Repository ===========

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const hospitalCols = `id, name, address, email, phone, description, active, created_at, updated_at`

func scanHospital(row pgx.Row) (*Hospital, error) {
	var h Hospital
	err := row.Scan(&h.ID, &h.Name, &h.Address, &h.Email, &h.Phone, &h.Description,
		&h.Active, &h.CreatedAt, &h.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.E(apperror.NotFound, "hospital not found")
	}
	return &h, err
}

func (r *repoPG) Create(ctx context.Context, h *Hospital) error {
	h.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO hospital (id, name, address, email, phone, description, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		h.ID, h.Name, h.Address, h.Email, h.Phone, h.Description, h.Active)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	return scanHospital(r.conn(ctx).QueryRow(ctx, `SELECT `+hospitalCols+` FROM hospital WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, h *Hospital) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE hospital SET name=$2, address=$3, email=$4, phone=$5, description=$6, updated_at=NOW()
		WHERE id = $1`,
		h.ID, h.Name, h.Address, h.Email, h.Phone, h.Description)
	return err
}

func (r *repoPG) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE hospital SET active=$2, updated_at=NOW() WHERE id = $1`, id, active)
	return err
}

func (r *repoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Hospital, int, error) {
	query := `SELECT ` + hospitalCols + ` FROM hospital WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM hospital WHERE 1=1`
	var args []interface{}
	idx := 1

	if p, ok := params["keyword"]; ok {
		query += fmt.Sprintf(` AND (name ILIKE $%d OR address ILIKE $%d)`, idx, idx)
		countQuery += fmt.Sprintf(` AND (name ILIKE $%d OR address ILIKE $%d)`, idx, idx)
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
	var items []*Hospital
	for rows.Next() {
		h, err := scanHospital(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, h)
	}
	return items, total, nil
}

// =========== Department Repository ===========

type departmentRepoPG struct{ pool *pgxpool.Pool }

func NewDepartmentRepoPG(pool *pgxpool.Pool) DepartmentRepository {
	return &departmentRepoPG{pool: pool}
}

func (r *departmentRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const departmentCols = `id, hospital_id, name, description, active, created_at, updated_at`

func scanDepartment(row pgx.Row) (*Department, error) {
	var d Department
	err := row.Scan(&d.ID, &d.HospitalID, &d.Name, &d.Description, &d.Active, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.E(apperror.NotFound, "department not found")
	}
	return &d, err
}

func (r *departmentRepoPG) Create(ctx context.Context, d *Department) error {
	d.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO department (id, hospital_id, name, description, active)
		VALUES ($1,$2,$3,$4,$5)`,
		d.ID, d.HospitalID, d.Name, d.Description, d.Active)
	return err
}

func (r *departmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Department, error) {
	return scanDepartment(r.conn(ctx).QueryRow(ctx, `SELECT `+departmentCols+` FROM department WHERE id = $1`, id))
}

func (r *departmentRepoPG) Update(ctx context.Context, d *Department) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE department SET name=$2, description=$3, updated_at=NOW()
		WHERE id = $1`,
		d.ID, d.Name, d.Description)
	return err
}

func (r *departmentRepoPG) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE department SET active=$2, updated_at=NOW() WHERE id = $1`, id, active)
	return err
}

func (r *departmentRepoPG) ListByHospital(ctx context.Context, hospitalID uuid.UUID, limit, offset int) ([]*Department, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM department WHERE hospital_id = $1`, hospitalID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+departmentCols+` FROM department WHERE hospital_id = $1 ORDER BY name LIMIT $2 OFFSET $3`, hospitalID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Department
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, nil
}
