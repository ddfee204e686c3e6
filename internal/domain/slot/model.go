package slot

import (
	"time"

	"github.com/google/uuid"

	"github.com/medbook/bookd/internal/domain/grid"
	"github.com/medbook/bookd/internal/platform/apperror"
)

// OwnerKind tags the kind of entity a slot belongs to.
type OwnerKind string

const (
	OwnerDoctor OwnerKind = "doctor"
	OwnerPack   OwnerKind = "pack"
)

// Owner identifies the single entity a time slot belongs to. A slot is
// owned by a doctor or by a pack, never both and never neither.
type Owner struct {
	Kind OwnerKind `json:"kind"`
	ID   uuid.UUID `json:"id"`
}

// NewOwner builds an Owner from the two optional ids of a request,
// enforcing the doctor-XOR-pack rule.
func NewOwner(doctorID, packID *uuid.UUID) (Owner, error) {
	switch {
	case doctorID != nil && packID != nil:
		return Owner{}, apperror.E(apperror.BadRequest, "a time slot cannot belong to both a doctor and a pack")
	case doctorID != nil:
		return Owner{Kind: OwnerDoctor, ID: *doctorID}, nil
	case packID != nil:
		return Owner{Kind: OwnerPack, ID: *packID}, nil
	default:
		return Owner{}, apperror.E(apperror.BadRequest, "a time slot must belong to a doctor or a pack")
	}
}

// DoctorID returns the owning doctor id, or nil for pack-owned slots.
func (o Owner) DoctorID() *uuid.UUID {
	if o.Kind == OwnerDoctor {
		id := o.ID
		return &id
	}
	return nil
}

// PackID returns the owning pack id, or nil for doctor-owned slots.
func (o Owner) PackID() *uuid.UUID {
	if o.Kind == OwnerPack {
		id := o.ID
		return &id
	}
	return nil
}

// TimeSlot maps to the time_slot table.
type TimeSlot struct {
	ID        uuid.UUID     `json:"id"`
	Owner     Owner         `json:"owner"`
	Interval  grid.Interval `json:"interval"`
	Price     float64       `json:"price"`
	Active    bool          `json:"active"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Conflicts reports whether two slots of the same owner collide on the
// day grid.
func (s *TimeSlot) Conflicts(other *TimeSlot) bool {
	return s.Interval.Overlaps(other.Interval)
}
