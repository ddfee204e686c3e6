package notify

import (
	"time"

	"github.com/google/uuid"
)

// Delivery states of an outbox row.
const (
	StatusPending = "PENDING"
	StatusSent    = "SENT"
	StatusFailed  = "FAILED"
)

// Notification is one outbox row. Rows are written in the same
// transaction as the domain change and delivered asynchronously by the
// worker.
type Notification struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	Recipient string     `db:"recipient" json:"recipient"`
	Subject   string     `db:"subject" json:"subject"`
	Body      string     `db:"body" json:"body"`
	Status    string     `db:"status" json:"status"`
	Attempts  int        `db:"attempts" json:"attempts"`
	LastError *string    `db:"last_error" json:"last_error,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	SentAt    *time.Time `db:"sent_at" json:"sent_at,omitempty"`
}
