package slot

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository abstracts time slot persistence.
type Repository interface {
	Create(ctx context.Context, s *TimeSlot) error
	GetByID(ctx context.Context, id uuid.UUID) (*TimeSlot, error)
	Update(ctx context.Context, s *TimeSlot) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	// ListByOwner returns the owner's slots ordered by start mark.
	// With activeOnly set, soft-deleted slots are excluded.
	ListByOwner(ctx context.Context, owner Owner, activeOnly bool) ([]*TimeSlot, error)
}

// BookingChecker is the slice of the order domain the availability
// query needs: whether a slot already has an approved booking on a day.
type BookingChecker interface {
	HasApprovedBooking(ctx context.Context, slotID uuid.UUID, date time.Time) (bool, error)
}

// OwnerDirectory resolves whether the entity a slot is being attached
// to actually exists.
type OwnerDirectory interface {
	DoctorExists(ctx context.Context, id uuid.UUID) (bool, error)
	PackExists(ctx context.Context, id uuid.UUID) (bool, error)
}
