package doctor

import (
	"time"

	"github.com/google/uuid"
)

// Doctor maps to the doctor table.
type Doctor struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	HospitalID   uuid.UUID  `db:"hospital_id" json:"hospital_id"`
	DepartmentID *uuid.UUID `db:"department_id" json:"department_id,omitempty"`
	Name         string     `db:"name" json:"name"`
	Email        *string    `db:"email" json:"email,omitempty"`
	Phone        *string    `db:"phone" json:"phone,omitempty"`
	Degree       *string    `db:"degree" json:"degree,omitempty"`
	Specialty    *string    `db:"specialty" json:"specialty,omitempty"`
	Description  *string    `db:"description" json:"description,omitempty"`
	Star         float64    `db:"star" json:"star"`
	Active       bool       `db:"active" json:"active"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}
