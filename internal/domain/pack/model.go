package pack

import (
	"time"

	"github.com/google/uuid"
)

// Pack maps to the pack table. A pack is a fixed-price bundle of
// examinations sold by a hospital, booked the same way a doctor is.
type Pack struct {
	ID          uuid.UUID `db:"id" json:"id"`
	HospitalID  uuid.UUID `db:"hospital_id" json:"hospital_id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	Price       float64   `db:"price" json:"price"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
