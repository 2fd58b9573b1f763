package taskqueue

import (
	"time"

	"github.com/hoangtran-dev/subkeeper/internal/pkg/renewal"
)

const (
	// DefaultMaxAttempts is the retry budget before a task is parked.
	DefaultMaxAttempts = 5
)

// Renewer runs one renewal attempt for an order code. Implemented by the
// renewal service; faked in tests.
type Renewer interface {
	Renew(orderCode string, force bool) (*renewal.Result, error)
}

// Task tracks the (renew, notify) pipeline for one order code. Tasks live
// only in process memory; durability comes from re-deriving eligibility from
// the database on every attempt, not from persisting the task.
type Task struct {
	OrderCode   string    `json:"order_code"`
	RenewalDone bool      `json:"renewal_done"`
	NotifyDone  bool      `json:"notify_done"`
	Attempts    int       `json:"attempts"`
	MaxAttempts int       `json:"max_attempts"`
	Parked      bool      `json:"parked"`
	LastError   string    `json:"last_error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// message is built from the renewal result so a notify-only retry does
	// not recompute or re-renew anything.
	message string
}

// Stats summarizes queue state for the admin endpoint.
type Stats struct {
	Total       int `json:"total"`
	RenewalDone int `json:"renewal_done"`
	NotifyDone  int `json:"notify_done"`
	Parked      int `json:"parked"`
}
