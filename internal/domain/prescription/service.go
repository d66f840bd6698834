package prescription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound = errors.New("prescription: patient not found")
	ErrDoctorNotFound  = errors.New("prescription: doctor profile not found")
	ErrAccessDenied    = errors.New("prescription: access denied")
	ErrInvalidInput    = errors.New("prescription: invalid prescription")
)

// Directory resolves accounts to role profiles.
type Directory interface {
	PatientIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
	DoctorIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
	PatientExists(ctx context.Context, patientID uuid.UUID) (bool, error)
	// UserIDForPatient maps a patient profile back to its account, for
	// addressing notifications.
	UserIDForPatient(ctx context.Context, patientID uuid.UUID) (uuid.UUID, error)
}

// Notifier delivers an in-app notification. Delivery is best effort; a
// failed notification never fails the prescription write.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind, title, description string) error
}

// Service manages prescriptions and the pharmacy directory.
type Service struct {
	repo       Repository
	pharmacies PharmacyRepository
	dir        Directory
	notifier   Notifier
	now        func() time.Time
}

func NewService(repo Repository, pharmacies PharmacyRepository, dir Directory, notifier Notifier) *Service {
	return &Service{repo: repo, pharmacies: pharmacies, dir: dir, notifier: notifier, now: time.Now}
}

// ListForPatientUser returns the calling patient's prescriptions, optionally
// narrowed by status.
func (s *Service) ListForPatientUser(ctx context.Context, userID uuid.UUID, status string) ([]*ListItem, error) {
	if status != "" && status != "all" && !validStatus(status) {
		return nil, ErrInvalidInput
	}
	patientID, err := s.dir.PatientIDForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListByPatient(ctx, patientID, status)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*ListItem{}
	}
	return items, nil
}

// DetailForPatientUser returns one prescription, enforcing that it belongs
// to the calling patient.
func (s *Service) DetailForPatientUser(ctx context.Context, userID, prescriptionID uuid.UUID) (*Detail, error) {
	patientID, err := s.dir.PatientIDForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	d, err := s.repo.Detail(ctx, prescriptionID)
	if err != nil {
		return nil, err
	}
	if d.PatientID != patientID {
		return nil, ErrAccessDenied
	}
	return d, nil
}

// Create writes a prescription on behalf of the calling doctor and notifies
// the patient.
func (s *Service) Create(ctx context.Context, doctorUserID uuid.UUID, in CreateInput) (*Prescription, error) {
	doctorID, err := s.dir.DoctorIDForUser(ctx, doctorUserID)
	if err != nil {
		return nil, err
	}
	ok, err := s.dir.PatientExists(ctx, in.PatientID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPatientNotFound
	}
	if in.Medication == "" || in.Dosage == "" || in.Frequency == "" || in.Duration == "" {
		return nil, ErrInvalidInput
	}
	if in.Refills < 0 {
		return nil, ErrInvalidInput
	}

	p := &Prescription{
		PatientID:        in.PatientID,
		DoctorID:         doctorID,
		Medication:       in.Medication,
		GenericName:      in.GenericName,
		Dosage:           in.Dosage,
		Frequency:        in.Frequency,
		Duration:         in.Duration,
		PrescribedDate:   s.now().UTC(),
		ExpiryDate:       in.ExpiryDate,
		Status:           "active",
		Instructions:     in.Instructions,
		Notes:            in.Notes,
		Refills:          in.Refills,
		RefillsRemaining: in.Refills,
		PharmacyName:     in.PharmacyName,
		PharmacyAddress:  in.PharmacyAddress,
		PharmacyPhone:    in.PharmacyPhone,
		Warnings:         in.Warnings,
		SideEffects:      in.SideEffects,
		Interactions:     in.Interactions,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if userID, err := s.dir.UserIDForPatient(ctx, in.PatientID); err == nil {
			_ = s.notifier.Notify(ctx, userID, "prescription", "New prescription added",
				fmt.Sprintf("%s %s has been prescribed for you", p.Medication, p.Dosage))
		}
	}
	return p, nil
}

// HistoryForDoctorUser returns the calling doctor's prescribing history.
func (s *Service) HistoryForDoctorUser(ctx context.Context, userID uuid.UUID, status, search string) ([]*HistoryItem, error) {
	if status != "" && status != "all" && !validStatus(status) {
		return nil, ErrInvalidInput
	}
	doctorID, err := s.dir.DoctorIDForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListByDoctor(ctx, doctorID, status, search)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*HistoryItem{}
	}
	return items, nil
}

// ListForPatient is the doctor-facing view of one patient's prescriptions.
func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*ListItem, error) {
	ok, err := s.dir.PatientExists(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPatientNotFound
	}
	items, err := s.repo.ListByPatient(ctx, patientID, "")
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*ListItem{}
	}
	return items, nil
}

// ActiveForPatient, CountForPatient, RecentForPatient and DoctorCount feed
// the dashboard.

func (s *Service) ActiveForPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*ActiveItem, error) {
	return s.repo.ActiveByPatient(ctx, patientID, limit)
}

func (s *Service) CountForPatient(ctx context.Context, patientID uuid.UUID, status string) (int, error) {
	return s.repo.CountByPatient(ctx, patientID, status)
}

func (s *Service) RecentForPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*ActivityRow, error) {
	return s.repo.RecentByPatient(ctx, patientID, limit)
}

func (s *Service) DoctorCount(ctx context.Context, patientID uuid.UUID) (int, error) {
	return s.repo.DistinctDoctorCount(ctx, patientID)
}

// Pharmacies lists the pharmacy directory.
func (s *Service) Pharmacies(ctx context.Context, search string) ([]*Pharmacy, error) {
	items, err := s.pharmacies.List(ctx, search)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*Pharmacy{}
	}
	return items, nil
}

// AddPharmacy registers a pharmacy. Used by seeding and administration.
func (s *Service) AddPharmacy(ctx context.Context, p *Pharmacy) error {
	if p.Name == "" || p.Address == "" {
		return ErrInvalidInput
	}
	return s.pharmacies.Create(ctx, p)
}
