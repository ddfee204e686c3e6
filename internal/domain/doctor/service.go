package doctor

import (
	"context"

	"github.com/google/uuid"

	"github.com/medbook/bookd/internal/platform/apperror"
)

// HospitalDirectory is the slice of the hospital domain this service
// needs: existence checks when attaching a doctor.
type HospitalDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type Service struct {
	doctors   Repository
	hospitals HospitalDirectory
}

func NewService(doctors Repository, hospitals HospitalDirectory) *Service {
	return &Service{doctors: doctors, hospitals: hospitals}
}

func (s *Service) Create(ctx context.Context, d *Doctor) error {
	if d.Name == "" {
		return apperror.E(apperror.BadRequest, "name is required")
	}
	if d.HospitalID == uuid.Nil {
		return apperror.E(apperror.BadRequest, "hospital_id is required")
	}
	ok, err := s.hospitals.Exists(ctx, d.HospitalID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.E(apperror.NotFound, "hospital not found")
	}
	d.Star = 0
	d.Active = true
	return s.doctors.Create(ctx, d)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.doctors.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, d *Doctor) error {
	existing, err := s.doctors.GetByID(ctx, d.ID)
	if err != nil {
		return err
	}
	if d.Name == "" {
		d.Name = existing.Name
	}
	if d.DepartmentID == nil {
		d.DepartmentID = existing.DepartmentID
	}
	return s.doctors.Update(ctx, d)
}

func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if _, err := s.doctors.GetByID(ctx, id); err != nil {
		return err
	}
	return s.doctors.SetActive(ctx, id, active)
}

// Rate records a star rating between 0 and 5.
func (s *Service) Rate(ctx context.Context, id uuid.UUID, star float64) error {
	if star < 0 || star > 5 {
		return apperror.E(apperror.BadRequest, "star must be between 0 and 5")
	}
	if _, err := s.doctors.GetByID(ctx, id); err != nil {
		return err
	}
	return s.doctors.SetStar(ctx, id, star)
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Doctor, int, error) {
	return s.doctors.Search(ctx, params, limit, offset)
}

func (s *Service) MostBooked(ctx context.Context, limit int) ([]*Doctor, error) {
	return s.doctors.ListMostBooked(ctx, limit)
}

func (s *Service) MostStarred(ctx context.Context, limit int) ([]*Doctor, error) {
	return s.doctors.ListMostStarred(ctx, limit)
}
