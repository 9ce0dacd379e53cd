package appointment

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no appointment has the requested id.
	ErrNotFound = errors.New("appointment not found")
	// ErrInvalidTime is returned when a date expression cannot be resolved.
	ErrInvalidTime = errors.New("invalid date format")
)

// Repository is the durable appointment table. Every method is atomic for a
// single appointment; none spans several rows.
type Repository interface {
	// Create inserts a pending appointment and returns its new id.
	Create(ctx context.Context, a NewAppointment) (int64, error)
	// ListActive returns non-cancelled appointments ordered by scheduled time.
	ListActive(ctx context.Context, filter ContactFilter) ([]Appointment, error)
	// ListPending returns every pending appointment in no particular order.
	ListPending(ctx context.Context) ([]Appointment, error)
	// MarkSent moves a pending appointment to sent and reports whether it did.
	// Missing ids and appointments that are no longer pending are left alone.
	MarkSent(ctx context.Context, id int64) (bool, error)
	// Cancel marks the appointment cancelled whatever its state and returns
	// the record as it was before.
	Cancel(ctx context.Context, id int64) (*Appointment, error)
	// Update replaces subject and time and resets the status to pending.
	Update(ctx context.Context, id int64, subject string, at time.Time) error
	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
}
