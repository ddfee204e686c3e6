package account

import (
	"context"
	"errors"
	"time"

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

const userCols = `id, login, password_hash, name, roles, activated, activation_key, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Login, &u.PasswordHash, &u.Name, &u.Roles,
		&u.Activated, &u.ActivationKey, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.E(apperror.NotFound, "user not found")
	}
	return &u, err
}

func (r *repoPG) Create(ctx context.Context, u *User) error {
	u.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO app_user (id, login, password_hash, name, roles, activated, activation_key)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		u.ID, u.Login, u.PasswordHash, u.Name, u.Roles, u.Activated, u.ActivationKey)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return apperror.E(apperror.AlreadyExists, "login already registered")
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM app_user WHERE id = $1`, id))
}

func (r *repoPG) GetByLogin(ctx context.Context, login string) (*User, error) {
	return scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM app_user WHERE lower(login) = lower($1)`, login))
}

func (r *repoPG) GetByActivationKey(ctx context.Context, key string) (*User, error) {
	return scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM app_user WHERE activation_key = $1`, key))
}

func (r *repoPG) Activate(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE app_user SET activated = TRUE, activation_key = NULL, updated_at = NOW()
		WHERE id = $1`, id)
	return err
}

func (r *repoPG) DeleteNotActivated(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		DELETE FROM app_user WHERE NOT activated AND activation_key IS NOT NULL AND created_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
