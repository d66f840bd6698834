package portal

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/prescribeme/api/internal/domain/identity"
	"github.com/prescribeme/api/internal/domain/prescription"
	"github.com/prescribeme/api/internal/domain/scheduling"
)

// The portal aggregates views over the other domains. Each source
// interface is satisfied by the corresponding domain service.

type IdentitySource interface {
	PatientIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
	GetPatient(ctx context.Context, id uuid.UUID) (*identity.PatientProfile, error)
	GetUser(ctx context.Context, id uuid.UUID) (*identity.User, error)
	ListPatients(ctx context.Context, search string, limit, offset int) ([]*identity.PatientListing, int, error)
}

type PrescriptionSource interface {
	ActiveForPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*prescription.ActiveItem, error)
	CountForPatient(ctx context.Context, patientID uuid.UUID, status string) (int, error)
	RecentForPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*prescription.ActivityRow, error)
	DoctorCount(ctx context.Context, patientID uuid.UUID) (int, error)
}

type ScheduleSource interface {
	UpcomingForPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*scheduling.AppointmentView, error)
	CountForPatient(ctx context.Context, patientID uuid.UUID) (int, error)
	RecentForPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*scheduling.ActivityRow, error)
}

type ClinicalSource interface {
	ActiveConditionNames(ctx context.Context, patientID uuid.UUID) ([]string, error)
	LabResultCount(ctx context.Context, patientID uuid.UUID) (int, error)
}

// Service builds the patient dashboard and the doctor-facing patient
// views.
type Service struct {
	identities    IdentitySource
	prescriptions PrescriptionSource
	schedule      ScheduleSource
	clinical      ClinicalSource
	now           func() time.Time
}

func NewService(identities IdentitySource, prescriptions PrescriptionSource, schedule ScheduleSource, clinical ClinicalSource) *Service {
	return &Service{
		identities:    identities,
		prescriptions: prescriptions,
		schedule:      schedule,
		clinical:      clinical,
		now:           time.Now,
	}
}

// DashboardForUser assembles the calling patient's home view.
func (s *Service) DashboardForUser(ctx context.Context, userID uuid.UUID) (*Dashboard, error) {
	patientID, err := s.identities.PatientIDForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	active, err := s.prescriptions.ActiveForPatient(ctx, patientID, 10)
	if err != nil {
		return nil, err
	}
	if active == nil {
		active = []*prescription.ActiveItem{}
	}

	upcoming, err := s.schedule.UpcomingForPatient(ctx, patientID, 10)
	if err != nil {
		return nil, err
	}
	if upcoming == nil {
		upcoming = []*scheduling.AppointmentView{}
	}

	activity, err := s.recentActivity(ctx, patientID)
	if err != nil {
		return nil, err
	}

	stats, err := s.stats(ctx, patientID)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		ActivePrescriptions:  active,
		UpcomingAppointments: upcoming,
		RecentActivity:       activity,
		Stats:                stats,
	}, nil
}

func (s *Service) recentActivity(ctx context.Context, patientID uuid.UUID) ([]*Activity, error) {
	now := s.now().UTC()
	activity := []*Activity{}

	prescRows, err := s.prescriptions.RecentForPatient(ctx, patientID, 3)
	if err != nil {
		return nil, err
	}
	for _, r := range prescRows {
		activity = append(activity, &Activity{
			ID:          "presc_" + r.ID.String(),
			Type:        "prescription",
			Title:       "New prescription added",
			Description: fmt.Sprintf("%s %s prescribed by %s", r.Medication, r.Dosage, r.Doctor),
			Timestamp:   daysAgo(now, r.CreatedAt),
			Icon:        "prescription",
			occurredAt:  r.CreatedAt,
		})
	}

	apptRows, err := s.schedule.RecentForPatient(ctx, patientID, 2)
	if err != nil {
		return nil, err
	}
	for _, r := range apptRows {
		activity = append(activity, &Activity{
			ID:          "appt_" + r.ID.String(),
			Type:        "appointment",
			Title:       "Appointment confirmed",
			Description: fmt.Sprintf("%s with %s on %s", r.Type, r.Doctor, r.Date.Format("Jan 2")),
			Timestamp:   daysAgo(now, r.CreatedAt),
			Icon:        "calendar",
			occurredAt:  r.CreatedAt,
		})
	}

	sort.Slice(activity, func(i, j int) bool {
		return activity[i].occurredAt.After(activity[j].occurredAt)
	})
	if len(activity) > 5 {
		activity = activity[:5]
	}
	return activity, nil
}

func (s *Service) stats(ctx context.Context, patientID uuid.UUID) (Stats, error) {
	var st Stats
	var err error
	if st.ActivePrescriptions, err = s.prescriptions.CountForPatient(ctx, patientID, "active"); err != nil {
		return st, err
	}
	if st.Appointments, err = s.schedule.CountForPatient(ctx, patientID); err != nil {
		return st, err
	}
	if st.Doctors, err = s.prescriptions.DoctorCount(ctx, patientID); err != nil {
		return st, err
	}
	if st.LabResults, err = s.clinical.LabResultCount(ctx, patientID); err != nil {
		return st, err
	}
	return st, nil
}

func daysAgo(now, ts time.Time) string {
	days := int(now.Sub(ts).Hours() / 24)
	if days <= 0 {
		return "Today"
	}
	if days == 1 {
		return "1 day ago"
	}
	return fmt.Sprintf("%d days ago", days)
}

// Roster lists patients for a doctor, each with their active conditions.
func (s *Service) Roster(ctx context.Context, search string, limit, offset int) ([]*RosterItem, int, error) {
	listings, total, err := s.identities.ListPatients(ctx, search, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items := make([]*RosterItem, 0, len(listings))
	for _, l := range listings {
		conditions, err := s.clinical.ActiveConditionNames(ctx, l.ID)
		if err != nil {
			return nil, 0, err
		}
		if conditions == nil {
			conditions = []string{}
		}
		items = append(items, &RosterItem{PatientListing: *l, Conditions: conditions})
	}
	return items, total, nil
}

// PatientDetail returns one patient joined with their account.
func (s *Service) PatientDetail(ctx context.Context, patientID uuid.UUID) (*PatientDetail, error) {
	p, err := s.identities.GetPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	u, err := s.identities.GetUser(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	var lastVisit *string
	if p.LastVisit != nil {
		v := p.LastVisit.Format(time.RFC3339)
		lastVisit = &v
	}
	return &PatientDetail{
		ID:        p.ID,
		Name:      u.FullName,
		Age:       p.Age,
		Gender:    p.Gender,
		Email:     u.Email,
		Phone:     p.Phone,
		Address:   p.Address,
		BloodType: p.BloodType,
		Height:    p.Height,
		Weight:    p.Weight,
		LastVisit: lastVisit,
		Status:    p.Status,
	}, nil
}
