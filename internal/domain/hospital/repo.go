package hospital

import (
	"context"

	"github.com/google/uuid"
)

// Repository abstracts hospital persistence.
type Repository interface {
	Create(ctx context.Context, h *Hospital) error
	GetByID(ctx context.Context, id uuid.UUID) (*Hospital, error)
	Update(ctx context.Context, h *Hospital) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Hospital, int, error)
}

// DepartmentRepository abstracts department persistence.
type DepartmentRepository interface {
	Create(ctx context.Context, d *Department) error
	GetByID(ctx context.Context, id uuid.UUID) (*Department, error)
	Update(ctx context.Context, d *Department) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	ListByHospital(ctx context.Context, hospitalID uuid.UUID, limit, offset int) ([]*Department, int, error)
}
