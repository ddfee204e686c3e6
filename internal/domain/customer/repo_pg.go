package customer

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

const customerCols = `id, user_id, name, email, phone, address, gender, date_of_birth, created_at, updated_at`

func scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Email, &c.Phone, &c.Address,
		&c.Gender, &c.DateOfBirth, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.E(apperror.NotFound, "customer not found")
	}
	return &c, err
}

func (r *repoPG) Create(ctx context.Context, c *Customer) error {
	c.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO customer (id, user_id, name, email, phone, address, gender, date_of_birth)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		c.ID, c.UserID, c.Name, c.Email, c.Phone, c.Address, c.Gender, c.DateOfBirth)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Customer, error) {
	return scanCustomer(r.conn(ctx).QueryRow(ctx, `SELECT `+customerCols+` FROM customer WHERE id = $1`, id))
}

func (r *repoPG) GetByUserID(ctx context.Context, userID uuid.UUID) (*Customer, error) {
	return scanCustomer(r.conn(ctx).QueryRow(ctx, `SELECT `+customerCols+` FROM customer WHERE user_id = $1`, userID))
}

func (r *repoPG) Update(ctx context.Context, c *Customer) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE customer SET name=$2, email=$3, phone=$4, address=$5, gender=$6, date_of_birth=$7, updated_at=NOW()
		WHERE id = $1`,
		c.ID, c.Name, c.Email, c.Phone, c.Address, c.Gender, c.DateOfBirth)
	return err
}

func (r *repoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Customer, int, error) {
	query := `SELECT ` + customerCols + ` FROM customer WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM customer WHERE 1=1`
	var args []interface{}
	idx := 1

	if p, ok := params["keyword"]; ok {
		query += fmt.Sprintf(` AND (name ILIKE $%d OR email ILIKE $%d OR phone ILIKE $%d)`, idx, idx, idx)
		countQuery += fmt.Sprintf(` AND (name ILIKE $%d OR email ILIKE $%d OR phone ILIKE $%d)`, idx, idx, idx)
		args = append(args, "%"+p+"%")
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
	var items []*Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, nil
}
