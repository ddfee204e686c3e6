package hospital

import (
	"time"

	"github.com/google/uuid"
)

// Hospital maps to the hospital table.
type Hospital struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Address     string    `db:"address" json:"address"`
	Email       *string   `db:"email" json:"email,omitempty"`
	Phone       *string   `db:"phone" json:"phone,omitempty"`
	Description *string   `db:"description" json:"description,omitempty"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Department maps to the department table. A department always belongs
// to exactly one hospital.
type Department struct {
	ID          uuid.UUID `db:"id" json:"id"`
	HospitalID  uuid.UUID `db:"hospital_id" json:"hospital_id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
