package customer

import (
	"context"

	"github.com/google/uuid"
)

// Repository abstracts customer persistence.
type Repository interface {
	Create(ctx context.Context, c *Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Customer, error)
	Update(ctx context.Context, c *Customer) error
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Customer, int, error)
}
