package pack

import (
	"context"

	"github.com/google/uuid"
)

// Repository abstracts pack persistence.
type Repository interface {
	Create(ctx context.Context, p *Pack) error
	GetByID(ctx context.Context, id uuid.UUID) (*Pack, error)
	Update(ctx context.Context, p *Pack) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	ExistsByName(ctx context.Context, hospitalID uuid.UUID, name string, excludeID uuid.UUID) (bool, error)
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Pack, int, error)
}
