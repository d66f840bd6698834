package portal

import (
	"time"

	"github.com/google/uuid"

	"github.com/prescribeme/api/internal/domain/identity"
	"github.com/prescribeme/api/internal/domain/prescription"
	"github.com/prescribeme/api/internal/domain/scheduling"
)

// Activity is one entry on the dashboard's recent-activity feed. The ID
// carries a source prefix so the feed can mix record types.
type Activity struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
	Icon        string `json:"icon"`

	occurredAt time.Time
}

// Stats is the dashboard counter block.
type Stats struct {
	ActivePrescriptions int `json:"activePrescriptions"`
	Appointments        int `json:"appointments"`
	Doctors             int `json:"doctors"`
	LabResults          int `json:"labResults"`
}

// Dashboard is the patient home view.
type Dashboard struct {
	ActivePrescriptions  []*prescription.ActiveItem    `json:"activePrescriptions"`
	UpcomingAppointments []*scheduling.AppointmentView `json:"upcomingAppointments"`
	RecentActivity       []*Activity                   `json:"recentActivity"`
	Stats                Stats                         `json:"stats"`
}

// RosterItem is a roster row enriched with the patient's active
// conditions.
type RosterItem struct {
	identity.PatientListing
	Conditions []string `json:"conditions"`
}

// PatientDetail is the doctor-facing view of one patient.
type PatientDetail struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Age       *int      `json:"age,omitempty"`
	Gender    *string   `json:"gender,omitempty"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone,omitempty"`
	Address   *string   `json:"address,omitempty"`
	BloodType *string   `json:"bloodType,omitempty"`
	Height    *string   `json:"height,omitempty"`
	Weight    *string   `json:"weight,omitempty"`
	LastVisit *string   `json:"lastVisit,omitempty"`
	Status    string    `json:"status"`
}
