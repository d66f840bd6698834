package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound = errors.New("scheduling: patient not found")
	ErrDoctorNotFound  = errors.New("scheduling: doctor not found")
	ErrAccessDenied    = errors.New("scheduling: access denied")
	ErrInvalidInput    = errors.New("scheduling: invalid appointment")
)

// Directory resolves accounts to role profiles.
type Directory interface {
	PatientIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
	DoctorIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
	DoctorExists(ctx context.Context, doctorID uuid.UUID) (bool, error)
}

// Notifier delivers an in-app notification. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind, title, description string) error
}

// Service manages appointments.
type Service struct {
	repo     Repository
	dir      Directory
	notifier Notifier
	now      func() time.Time
}

func NewService(repo Repository, dir Directory, notifier Notifier) *Service {
	return &Service{repo: repo, dir: dir, notifier: notifier, now: time.Now}
}

// UpcomingForUser returns the calling patient's upcoming appointments.
func (s *Service) UpcomingForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*AppointmentView, error) {
	patientID, err := s.dir.PatientIDForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.UpcomingForPatient(ctx, patientID, limit)
}

// UpcomingForPatient is the dashboard view of a patient's next
// appointments.
func (s *Service) UpcomingForPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*AppointmentView, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.repo.UpcomingByPatient(ctx, patientID, s.now().UTC(), limit)
	if err != nil {
		return nil, err
	}
	views := make([]*AppointmentView, 0, len(rows))
	for _, r := range rows {
		views = append(views, formatView(r))
	}
	return views, nil
}

func formatView(r *UpcomingRow) *AppointmentView {
	return &AppointmentView{
		ID:        r.ID,
		Doctor:    r.Doctor,
		Specialty: r.Specialty,
		Date:      r.Date.Format(time.RFC3339),
		Time:      r.Date.Format("03:04 PM"),
		Type:      r.Type,
		Status:    r.Status,
	}
}

// Book creates an appointment for the calling patient and notifies them.
func (s *Service) Book(ctx context.Context, userID uuid.UUID, in BookInput) (*Appointment, error) {
	patientID, err := s.dir.PatientIDForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ok, err := s.dir.DoctorExists(ctx, in.DoctorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrDoctorNotFound
	}
	if in.Type == "" || in.Date.IsZero() {
		return nil, ErrInvalidInput
	}
	if in.Date.Before(s.now()) {
		return nil, ErrInvalidInput
	}
	if in.DurationMinutes < 0 {
		return nil, ErrInvalidInput
	}
	if in.DurationMinutes == 0 {
		in.DurationMinutes = 30
	}

	a := &Appointment{
		PatientID:       patientID,
		DoctorID:        in.DoctorID,
		Date:            in.Date.UTC(),
		Type:            in.Type,
		Status:          "upcoming",
		Notes:           in.Notes,
		DurationMinutes: in.DurationMinutes,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		_ = s.notifier.Notify(ctx, userID, "appointment", "Appointment booked",
			fmt.Sprintf("%s appointment scheduled for %s", a.Type,
				a.Date.Format("Jan 2, 2006 at 03:04 PM")))
	}
	return a, nil
}

// ScheduleForDoctorUser returns the calling doctor's schedule, optionally
// narrowed by status or calendar day.
func (s *Service) ScheduleForDoctorUser(ctx context.Context, userID uuid.UUID, status, day string) ([]*ScheduleItem, error) {
	if status != "" && status != "all" && !validStatus(status) {
		return nil, ErrInvalidInput
	}
	if status == "all" {
		status = ""
	}
	var dayStart time.Time
	if day != "" {
		parsed, err := time.Parse("2006-01-02", day)
		if err != nil {
			return nil, ErrInvalidInput
		}
		dayStart = parsed.UTC()
	}
	doctorID, err := s.dir.DoctorIDForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ScheduleForDoctor(ctx, doctorID, status, dayStart)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*ScheduleItem{}
	}
	return items, nil
}

// UpdateStatus transitions an appointment on behalf of the calling doctor.
func (s *Service) UpdateStatus(ctx context.Context, doctorUserID, appointmentID uuid.UUID, status string) error {
	if !validStatus(status) {
		return ErrInvalidInput
	}
	doctorID, err := s.dir.DoctorIDForUser(ctx, doctorUserID)
	if err != nil {
		return err
	}
	a, err := s.repo.GetByID(ctx, appointmentID)
	if err != nil {
		return err
	}
	if a.DoctorID != doctorID {
		return ErrAccessDenied
	}
	return s.repo.UpdateStatus(ctx, appointmentID, status)
}

// CountForPatient and RecentForPatient feed the dashboard.

func (s *Service) CountForPatient(ctx context.Context, patientID uuid.UUID) (int, error) {
	return s.repo.CountByPatient(ctx, patientID)
}

func (s *Service) RecentForPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*ActivityRow, error) {
	return s.repo.RecentByPatient(ctx, patientID, limit)
}
