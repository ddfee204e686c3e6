package account

import (
	"time"

	"github.com/google/uuid"
)

// User maps to the app_user table.
type User struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Login         string    `db:"login" json:"login"`
	PasswordHash  string    `db:"password_hash" json:"-"`
	Name          string    `db:"name" json:"name"`
	Roles         []string  `db:"roles" json:"roles"`
	Activated     bool      `db:"activated" json:"activated"`
	ActivationKey *string   `db:"activation_key" json:"-"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
