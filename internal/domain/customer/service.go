package customer

import (
	"context"

	"github.com/google/uuid"

	"github.com/medbook/bookd/internal/platform/apperror"
)

type Service struct {
	customers Repository
}

func NewService(customers Repository) *Service {
	return &Service{customers: customers}
}

func (s *Service) Create(ctx context.Context, c *Customer) error {
	if c.Name == "" {
		return apperror.E(apperror.BadRequest, "name is required")
	}
	if c.UserID == uuid.Nil {
		return apperror.E(apperror.BadRequest, "user_id is required")
	}
	if _, err := s.customers.GetByUserID(ctx, c.UserID); err == nil {
		return apperror.E(apperror.AlreadyExists, "customer profile already exists for this user")
	} else if apperror.KindOf(err) != apperror.NotFound {
		return err
	}
	return s.customers.Create(ctx, c)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Customer, error) {
	return s.customers.GetByID(ctx, id)
}

func (s *Service) GetByUser(ctx context.Context, userID uuid.UUID) (*Customer, error) {
	return s.customers.GetByUserID(ctx, userID)
}

// UpdateOwn lets a user edit their own profile. The profile is looked
// up by user id so a caller can never address someone else's row.
func (s *Service) UpdateOwn(ctx context.Context, userID uuid.UUID, upd *Customer) (*Customer, error) {
	existing, err := s.customers.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if upd.Name != "" {
		existing.Name = upd.Name
	}
	if upd.Email != nil {
		existing.Email = upd.Email
	}
	if upd.Phone != nil {
		existing.Phone = upd.Phone
	}
	if upd.Address != nil {
		existing.Address = upd.Address
	}
	if upd.Gender != nil {
		existing.Gender = upd.Gender
	}
	if upd.DateOfBirth != nil {
		existing.DateOfBirth = upd.DateOfBirth
	}
	if err := s.customers.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Customer, int, error) {
	return s.customers.Search(ctx, params, limit, offset)
}
