package pack

import (
	"context"

	"github.com/google/uuid"

	"github.com/medbook/bookd/internal/platform/apperror"
)

// HospitalDirectory is the slice of the hospital domain this service
// needs.
type HospitalDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type Service struct {
	packs     Repository
	hospitals HospitalDirectory
}

func NewService(packs Repository, hospitals HospitalDirectory) *Service {
	return &Service{packs: packs, hospitals: hospitals}
}

func (s *Service) Create(ctx context.Context, p *Pack) error {
	if p.Name == "" {
		return apperror.E(apperror.BadRequest, "name is required")
	}
	if p.HospitalID == uuid.Nil {
		return apperror.E(apperror.BadRequest, "hospital_id is required")
	}
	if p.Price < 0 {
		return apperror.E(apperror.BadRequest, "price cannot be negative")
	}
	ok, err := s.hospitals.Exists(ctx, p.HospitalID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.E(apperror.NotFound, "hospital not found")
	}
	taken, err := s.packs.ExistsByName(ctx, p.HospitalID, p.Name, uuid.Nil)
	if err != nil {
		return err
	}
	if taken {
		return apperror.Errorf(apperror.AlreadyExists, "pack %q already exists in this hospital", p.Name)
	}
	p.Active = true
	return s.packs.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Pack, error) {
	return s.packs.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, p *Pack) error {
	existing, err := s.packs.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	if p.Name == "" {
		p.Name = existing.Name
	}
	if p.Price < 0 {
		return apperror.E(apperror.BadRequest, "price cannot be negative")
	}
	taken, err := s.packs.ExistsByName(ctx, existing.HospitalID, p.Name, p.ID)
	if err != nil {
		return err
	}
	if taken {
		return apperror.Errorf(apperror.AlreadyExists, "pack %q already exists in this hospital", p.Name)
	}
	return s.packs.Update(ctx, p)
}

func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if _, err := s.packs.GetByID(ctx, id); err != nil {
		return err
	}
	return s.packs.SetActive(ctx, id, active)
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Pack, int, error) {
	return s.packs.Search(ctx, params, limit, offset)
}
