package customer

import (
	"time"

	"github.com/google/uuid"
)

// Customer maps to the customer table. Every customer belongs to one
// user account; bookings are placed against the customer profile.
type Customer struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	UserID      uuid.UUID  `db:"user_id" json:"user_id"`
	Name        string     `db:"name" json:"name"`
	Email       *string    `db:"email" json:"email,omitempty"`
	Phone       *string    `db:"phone" json:"phone,omitempty"`
	Address     *string    `db:"address" json:"address,omitempty"`
	Gender      *string    `db:"gender" json:"gender,omitempty"`
	DateOfBirth *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}
