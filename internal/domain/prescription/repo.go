package prescription

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("prescription: not found")

// Repository is the persistence boundary for prescriptions.
type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	// Detail returns the full view with prescriber and pharmacy resolved.
	Detail(ctx context.Context, id uuid.UUID) (*Detail, error)
	// ListByPatient returns rows newest-first; status narrows unless empty or
	// "all".
	ListByPatient(ctx context.Context, patientID uuid.UUID, status string) ([]*ListItem, error)
	// ListByDoctor returns the prescriber's history; search matches patient
	// name or medication.
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, status, search string) ([]*HistoryItem, error)
	// ActiveByPatient returns active prescriptions for the dashboard.
	ActiveByPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*ActiveItem, error)
	CountByPatient(ctx context.Context, patientID uuid.UUID, status string) (int, error)
	// RecentByPatient returns the newest rows for the activity feed.
	RecentByPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*ActivityRow, error)
	// DistinctDoctorCount counts the different doctors who have prescribed
	// for the patient.
	DistinctDoctorCount(ctx context.Context, patientID uuid.UUID) (int, error)
}

// PharmacyRepository is the persistence boundary for pharmacies.
type PharmacyRepository interface {
	Create(ctx context.Context, p *Pharmacy) error
	List(ctx context.Context, search string) ([]*Pharmacy, error)
}
