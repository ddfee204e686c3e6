package notify

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

const notificationCols = `id, recipient, subject, body, status, attempts, last_error, created_at, sent_at`

func scanNotification(row pgx.Row) (*Notification, error) {
	var n Notification
	err := row.Scan(&n.ID, &n.Recipient, &n.Subject, &n.Body, &n.Status,
		&n.Attempts, &n.LastError, &n.CreatedAt, &n.SentAt)
	return &n, err
}

func (r *repoPG) Create(ctx context.Context, n *Notification) error {
	n.ID = uuid.New()
	n.Status = StatusPending
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO notification_outbox (id, recipient, subject, body, status)
		VALUES ($1,$2,$3,$4,$5)`,
		n.ID, n.Recipient, n.Subject, n.Body, n.Status)
	return err
}

func (r *repoPG) NextPending(ctx context.Context, limit int) ([]*Notification, error) {
	// FOR UPDATE SKIP LOCKED lets multiple workers drain the outbox
	// without handing the same row to two of them.
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+notificationCols+` FROM notification_outbox
		WHERE status = $1
		ORDER BY created_at
		LIMIT $2
		FOR UPDATE SKIP LOCKED`, StatusPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, nil
}

func (r *repoPG) MarkSent(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE notification_outbox
		SET status = $2, attempts = attempts + 1, sent_at = NOW()
		WHERE id = $1`, id, StatusSent)
	return err
}

func (r *repoPG) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE notification_outbox
		SET status = $2, attempts = attempts + 1, last_error = $3
		WHERE id = $1`, id, StatusFailed, reason)
	return err
}
