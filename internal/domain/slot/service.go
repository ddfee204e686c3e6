package slot

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medbook/bookd/internal/domain/grid"
	"github.com/medbook/bookd/internal/platform/apperror"
)

type Service struct {
	slots    Repository
	owners   OwnerDirectory
	bookings BookingChecker
	logger   zerolog.Logger
}

func NewService(slots Repository, owners OwnerDirectory, bookings BookingChecker, logger zerolog.Logger) *Service {
	return &Service{slots: slots, owners: owners, bookings: bookings, logger: logger}
}

// CreateInput carries a slot definition from the boundary layer.
type CreateInput struct {
	DoctorID *uuid.UUID `json:"doctor_id,omitempty"`
	PackID   *uuid.UUID `json:"pack_id,omitempty"`
	Start    string     `json:"start_time"`
	End      string     `json:"end_time"`
	Price    float64    `json:"price"`
}

// Create validates a slot definition and persists it. The new slot must
// target exactly one owner and must not overlap any of the owner's
// active slots.
func (s *Service) Create(ctx context.Context, in CreateInput) (*TimeSlot, error) {
	owner, err := NewOwner(in.DoctorID, in.PackID)
	if err != nil {
		return nil, err
	}
	iv, err := grid.ParseInterval(in.Start, in.End)
	if err != nil {
		return nil, err
	}
	if in.Price < 0 {
		return nil, apperror.E(apperror.BadRequest, "price cannot be negative")
	}
	if err := s.ownerMustExist(ctx, owner); err != nil {
		return nil, err
	}
	if err := s.checkConflict(ctx, owner, iv, uuid.Nil); err != nil {
		return nil, err
	}
	sl := &TimeSlot{Owner: owner, Interval: iv, Price: in.Price, Active: true}
	if err := s.slots.Create(ctx, sl); err != nil {
		return nil, err
	}
	return sl, nil
}

// UpdateInput carries the editable fields of a slot. The owner of a
// slot is fixed for its lifetime.
type UpdateInput struct {
	Start string   `json:"start_time"`
	End   string   `json:"end_time"`
	Price *float64 `json:"price,omitempty"`
}

// Update moves or reprices an existing slot. The slot's own id is
// excluded from the conflict scan so an unchanged interval never
// reports a self-conflict.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*TimeSlot, error) {
	sl, err := s.slots.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	iv := sl.Interval
	switch {
	case in.Start != "" && in.End == "":
		return nil, apperror.E(apperror.BadRequest, "end_time is required when start_time is set")
	case in.End != "" && in.Start == "":
		return nil, apperror.E(apperror.BadRequest, "start_time is required when end_time is set")
	case in.Start != "":
		iv, err = grid.ParseInterval(in.Start, in.End)
		if err != nil {
			return nil, err
		}
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return nil, apperror.E(apperror.BadRequest, "price cannot be negative")
		}
		sl.Price = *in.Price
	}
	if err := s.checkConflict(ctx, sl.Owner, iv, sl.ID); err != nil {
		return nil, err
	}
	sl.Interval = iv
	if err := s.slots.Update(ctx, sl); err != nil {
		return nil, err
	}
	return sl, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*TimeSlot, error) {
	return s.slots.GetByID(ctx, id)
}

// List returns the owner's slots, optionally restricted to active ones.
func (s *Service) List(ctx context.Context, owner Owner, activeOnly bool) ([]*TimeSlot, error) {
	if err := s.ownerMustExist(ctx, owner); err != nil {
		return nil, err
	}
	return s.slots.ListByOwner(ctx, owner, activeOnly)
}

// Activate re-enables a soft-deleted slot. The slot may have started
// conflicting while it was inactive, so the overlap check runs again
// against the owner's other active slots.
func (s *Service) Activate(ctx context.Context, id uuid.UUID) error {
	sl, err := s.slots.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if sl.Active {
		return nil
	}
	if err := s.checkConflict(ctx, sl.Owner, sl.Interval, sl.ID); err != nil {
		return err
	}
	return s.slots.SetActive(ctx, id, true)
}

// Deactivate soft-deletes a slot, removing it from availability without
// touching its booking history.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if _, err := s.slots.GetByID(ctx, id); err != nil {
		return err
	}
	return s.slots.SetActive(ctx, id, false)
}

// FreeSlots returns the owner's active slots with no approved booking
// on the given date.
func (s *Service) FreeSlots(ctx context.Context, owner Owner, date time.Time) ([]*TimeSlot, error) {
	if err := s.ownerMustExist(ctx, owner); err != nil {
		return nil, err
	}
	slots, err := s.slots.ListByOwner(ctx, owner, true)
	if err != nil {
		return nil, err
	}
	free := make([]*TimeSlot, 0, len(slots))
	for _, sl := range slots {
		booked, err := s.bookings.HasApprovedBooking(ctx, sl.ID, date)
		if err != nil {
			s.logger.Error().Err(err).
				Str("slot_id", sl.ID.String()).
				Time("date", date).
				Msg("booking lookup failed during availability query")
			return nil, err
		}
		if !booked {
			free = append(free, sl)
		}
	}
	return free, nil
}

// checkConflict scans every active slot of the owner, skipping
// excludeID, and fails when any overlaps the candidate interval.
func (s *Service) checkConflict(ctx context.Context, owner Owner, iv grid.Interval, excludeID uuid.UUID) error {
	existing, err := s.slots.ListByOwner(ctx, owner, true)
	if err != nil {
		return err
	}
	for _, other := range existing {
		if other.ID == excludeID {
			continue
		}
		if iv.Overlaps(other.Interval) {
			return apperror.Errorf(apperror.BadRequest,
				"time period %s conflicts with existing period %s", iv.Label(), other.Interval.Label())
		}
	}
	return nil
}

func (s *Service) ownerMustExist(ctx context.Context, owner Owner) error {
	var (
		ok  bool
		err error
	)
	switch owner.Kind {
	case OwnerDoctor:
		ok, err = s.owners.DoctorExists(ctx, owner.ID)
	case OwnerPack:
		ok, err = s.owners.PackExists(ctx, owner.ID)
	default:
		return apperror.Errorf(apperror.BadRequest, "unknown owner kind: %s", owner.Kind)
	}
	if err != nil {
		return err
	}
	if !ok {
		return apperror.Errorf(apperror.NotFound, "%s not found", owner.Kind)
	}
	return nil
}
