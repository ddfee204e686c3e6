package order

import (
	"time"

	"github.com/google/uuid"

	"github.com/medbook/bookd/internal/platform/apperror"
)

// Status is the lifecycle state of a booking.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
	StatusComplete Status = "COMPLETE"
	StatusCanceled Status = "CANCELED"
)

// validTransitions encodes the status machine. REJECTED, COMPLETE and
// CANCELED are terminal.
var validTransitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected, StatusCanceled},
	StatusApproved: {StatusComplete, StatusCanceled},
}

// CanTransition reports whether moving from s to next is allowed.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s Status) validate() error {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusComplete, StatusCanceled:
		return nil
	}
	return apperror.Errorf(apperror.BadRequest, "unknown booking status: %s", s)
}

// Diagnosis is the doctor's note recorded against a visit. A booking
// carries at most one.
type Diagnosis struct {
	ID          uuid.UUID `db:"id" json:"id"`
	OrderID     uuid.UUID `db:"booking_id" json:"order_id"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Order maps to the booking table. Price and address are snapshots
// taken at booking time so later edits to the slot or hospital do not
// rewrite history.
type Order struct {
	ID          uuid.UUID `db:"id" json:"id"`
	CustomerID  uuid.UUID `db:"customer_id" json:"customer_id"`
	SlotID      uuid.UUID `db:"slot_id" json:"slot_id"`
	BookingDate time.Time `db:"booking_date" json:"booking_date"`
	Status      Status    `db:"status" json:"status"`
	Price       float64   `db:"price" json:"price"`
	Address     *string   `db:"address" json:"address,omitempty"`
	Symptom     *string   `db:"symptom" json:"symptom,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
