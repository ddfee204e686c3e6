package image

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

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

const imageCols = `id, owner_type, owner_id, kind, path, created_at`

func (r *repoPG) Create(ctx context.Context, img *Image) error {
	img.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO image (id, owner_type, owner_id, kind, path)
		VALUES ($1,$2,$3,$4,$5)`,
		img.ID, img.OwnerType, img.OwnerID, img.Kind, img.Path)
	return err
}

func (r *repoPG) ListByOwner(ctx context.Context, ownerType string, ownerID uuid.UUID) ([]*Image, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+imageCols+` FROM image
		WHERE owner_type = $1 AND owner_id = $2
		ORDER BY created_at`, ownerType, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Image
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.ID, &img.OwnerType, &img.OwnerID, &img.Kind, &img.Path, &img.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &img)
	}
	return items, nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM image WHERE id = $1`, id)
	return err
}
