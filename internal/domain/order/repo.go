package order

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medbook/bookd/internal/domain/slot"
)

// Repository abstracts booking persistence.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	Update(ctx context.Context, o *Order) error
	SetStatus(ctx context.Context, id uuid.UUID, status Status) error
	ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*Order, int, error)
	ListByOwner(ctx context.Context, owner slot.Owner, status Status, limit, offset int) ([]*Order, int, error)
	// ListPendingForSlot returns the pending bookings competing for the
	// same slot and date, excluding excludeID.
	ListPendingForSlot(ctx context.Context, slotID uuid.UUID, date time.Time, excludeID uuid.UUID) ([]*Order, error)
	HasApprovedBooking(ctx context.Context, slotID uuid.UUID, date time.Time) (bool, error)
	// RejectStalePending flips pending bookings whose date has passed to
	// REJECTED and returns the swept rows so their customers can be told.
	RejectStalePending(ctx context.Context, before time.Time) ([]*Order, error)
	CreateDiagnosis(ctx context.Context, d *Diagnosis) error
	GetDiagnosisByOrder(ctx context.Context, orderID uuid.UUID) (*Diagnosis, error)
}

// TxRunner runs a function inside one database transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// SlotCatalog is the slice of the slot domain this service needs.
type SlotCatalog interface {
	GetByID(ctx context.Context, id uuid.UUID) (*slot.TimeSlot, error)
}

// CustomerDirectory resolves the booking customer from the
// authenticated user.
type CustomerDirectory interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Customer, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Customer, error)
}

// Customer is the projection of a customer profile the booking flow
// needs.
type Customer struct {
	ID    uuid.UUID
	Email string
	Name  string
}

// AddressResolver finds the hospital address behind a slot owner for
// the booking snapshot.
type AddressResolver interface {
	OwnerAddress(ctx context.Context, owner slot.Owner) (string, error)
}

// Notifier enqueues a message for asynchronous delivery.
type Notifier interface {
	Enqueue(ctx context.Context, recipient, subject, body string) error
}
