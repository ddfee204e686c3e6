package notify

import (
	"context"

	"github.com/google/uuid"
)

// Repository abstracts the notification outbox.
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	// NextPending returns up to limit undelivered rows, oldest first.
	NextPending(ctx context.Context, limit int) ([]*Notification, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}
