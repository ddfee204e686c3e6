package image

import (
	"time"

	"github.com/google/uuid"
)

// Image maps to the image table. Path points into the blob store, the
// row only records ownership.
type Image struct {
	ID        uuid.UUID `db:"id" json:"id"`
	OwnerType string    `db:"owner_type" json:"owner_type"`
	OwnerID   uuid.UUID `db:"owner_id" json:"owner_id"`
	Kind      string    `db:"kind" json:"kind"`
	Path      string    `db:"path" json:"path"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Entities an image can hang off.
var ownerTypes = map[string]bool{
	"hospital":   true,
	"department": true,
	"doctor":     true,
	"pack":       true,
}

// Image roles.
var kinds = map[string]bool{
	"logo":       true,
	"avatar":     true,
	"background": true,
	"gallery":    true,
}
