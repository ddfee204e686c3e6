package doctor

import (
	"context"

	"github.com/google/uuid"
)

// Repository abstracts doctor persistence.
type Repository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	SetStar(ctx context.Context, id uuid.UUID, star float64) error
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Doctor, int, error)
	ListMostBooked(ctx context.Context, limit int) ([]*Doctor, error)
	ListMostStarred(ctx context.Context, limit int) ([]*Doctor, error)
}
