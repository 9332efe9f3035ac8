package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	// ErrSerialTaken means another booking already holds (date, serial).
	ErrSerialTaken = errors.New("serial number already taken for date")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	// Serial allocation
	CountGeneral(ctx context.Context, day time.Time) (int, error)
	Insert(ctx context.Context, appt Appointment) (*Appointment, error)

	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListByDate(ctx context.Context, day time.Time) ([]Appointment, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Appointment, error)

	// Stale sweep
	FindStalePending(ctx context.Context, before time.Time) ([]Appointment, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}
