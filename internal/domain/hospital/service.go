package hospital

import (
	"context"

	"github.com/google/uuid"

	"github.com/medbook/bookd/internal/platform/apperror"
)

type Service struct {
	hospitals   Repository
	departments DepartmentRepository
}

func NewService(hospitals Repository, departments DepartmentRepository) *Service {
	return &Service{hospitals: hospitals, departments: departments}
}

// -- Hospital --

func (s *Service) Create(ctx context.Context, h *Hospital) error {
	if h.Name == "" {
		return apperror.E(apperror.BadRequest, "name is required")
	}
	if h.Address == "" {
		return apperror.E(apperror.BadRequest, "address is required")
	}
	h.Active = true
	return s.hospitals.Create(ctx, h)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	return s.hospitals.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, h *Hospital) error {
	existing, err := s.hospitals.GetByID(ctx, h.ID)
	if err != nil {
		return err
	}
	if h.Name == "" {
		h.Name = existing.Name
	}
	if h.Address == "" {
		h.Address = existing.Address
	}
	return s.hospitals.Update(ctx, h)
}

func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if _, err := s.hospitals.GetByID(ctx, id); err != nil {
		return err
	}
	return s.hospitals.SetActive(ctx, id, active)
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Hospital, int, error) {
	return s.hospitals.Search(ctx, params, limit, offset)
}

// -- Department --

func (s *Service) CreateDepartment(ctx context.Context, d *Department) error {
	if d.Name == "" {
		return apperror.E(apperror.BadRequest, "name is required")
	}
	if _, err := s.hospitals.GetByID(ctx, d.HospitalID); err != nil {
		return err
	}
	d.Active = true
	return s.departments.Create(ctx, d)
}

func (s *Service) GetDepartment(ctx context.Context, id uuid.UUID) (*Department, error) {
	return s.departments.GetByID(ctx, id)
}

func (s *Service) UpdateDepartment(ctx context.Context, d *Department) error {
	existing, err := s.departments.GetByID(ctx, d.ID)
	if err != nil {
		return err
	}
	if d.Name == "" {
		d.Name = existing.Name
	}
	return s.departments.Update(ctx, d)
}

func (s *Service) SetDepartmentActive(ctx context.Context, id uuid.UUID, active bool) error {
	if _, err := s.departments.GetByID(ctx, id); err != nil {
		return err
	}
	return s.departments.SetActive(ctx, id, active)
}

func (s *Service) ListDepartments(ctx context.Context, hospitalID uuid.UUID, limit, offset int) ([]*Department, int, error) {
	if _, err := s.hospitals.GetByID(ctx, hospitalID); err != nil {
		return nil, 0, err
	}
	return s.departments.ListByHospital(ctx, hospitalID, limit, offset)
}
