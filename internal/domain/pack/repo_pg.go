package pack

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

const packCols = `id, hospital_id, name, description, price, active, created_at, updated_at`

func scanPack(row pgx.Row) (*Pack, error) {
	var p Pack
	err := row.Scan(&p.ID, &p.HospitalID, &p.Name, &p.Description, &p.Price, &p.Active,
		&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.E(apperror.NotFound, "pack not found")
	}
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Pack) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO pack (id, hospital_id, name, description, price, active)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, p.HospitalID, p.Name, p.Description, p.Price, p.Active)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Pack, error) {
	return scanPack(r.conn(ctx).QueryRow(ctx, `SELECT `+packCols+` FROM pack WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, p *Pack) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE pack SET name=$2, description=$3, price=$4, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Name, p.Description, p.Price)
	return err
}

func (r *repoPG) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE pack SET active=$2, updated_at=NOW() WHERE id = $1`, id, active)
	return err
}

func (r *repoPG) ExistsByName(ctx context.Context, hospitalID uuid.UUID, name string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM pack WHERE hospital_id = $1 AND lower(name) = lower($2) AND id <> $3)`,
		hospitalID, name, excludeID).Scan(&exists)
	return exists, err
}

func (r *repoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Pack, int, error) {
	query := `SELECT ` + packCols + ` FROM pack WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM pack WHERE 1=1`
	var args []interface{}
	idx := 1

	if p, ok := params["hospital_id"]; ok {
		query += fmt.Sprintf(` AND hospital_id = $%d`, idx)
		countQuery += fmt.Sprintf(` AND hospital_id = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["keyword"]; ok {
		query += fmt.Sprintf(` AND name ILIKE $%d`, idx)
		countQuery += fmt.Sprintf(` AND name ILIKE $%d`, idx)
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
	var items []*Pack
	for rows.Next() {
		p, err := scanPack(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, nil
}
