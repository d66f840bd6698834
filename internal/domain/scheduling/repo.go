package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("scheduling: appointment not found")

// Repository is the persistence boundary for appointments.
type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// UpcomingByPatient returns upcoming and confirmed appointments on or
	// after from, soonest first.
	UpcomingByPatient(ctx context.Context, patientID uuid.UUID, from time.Time, limit int) ([]*UpcomingRow, error)
	// ScheduleForDoctor returns the doctor's appointments, soonest first.
	// An empty status matches all; a non-zero day narrows to that calendar
	// day.
	ScheduleForDoctor(ctx context.Context, doctorID uuid.UUID, status string, day time.Time) ([]*ScheduleItem, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	CountByPatient(ctx context.Context, patientID uuid.UUID) (int, error)
	// RecentByPatient returns the newest rows for the activity feed.
	RecentByPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*ActivityRow, error)
}
