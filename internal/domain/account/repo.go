package account

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository abstracts user account persistence.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByLogin(ctx context.Context, login string) (*User, error)
	GetByActivationKey(ctx context.Context, key string) (*User, error)
	Activate(ctx context.Context, id uuid.UUID) error
	// DeleteNotActivated removes accounts that never activated and were
	// created before the cutoff. Returns how many rows were removed.
	DeleteNotActivated(ctx context.Context, before time.Time) (int64, error)
}
