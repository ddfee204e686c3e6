package image

import (
	"context"

	"github.com/google/uuid"
)

// Repository abstracts image metadata persistence.
type Repository interface {
	Create(ctx context.Context, img *Image) error
	ListByOwner(ctx context.Context, ownerType string, ownerID uuid.UUID) ([]*Image, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
