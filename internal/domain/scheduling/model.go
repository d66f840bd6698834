package scheduling

import (
	"time"

	"github.com/google/uuid"
)

// Appointment maps to the appointments table.
type Appointment struct {
	ID              uuid.UUID `db:"id" json:"id"`
	PatientID       uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID        uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Date            time.Time `db:"date" json:"date"`
	Type            string    `db:"type" json:"type"`
	Status          string    `db:"status" json:"status"`
	Notes           *string   `db:"notes" json:"notes,omitempty"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// UpcomingRow is what the repository returns for a patient's upcoming
// appointments; the service formats it into an AppointmentView.
type UpcomingRow struct {
	ID        uuid.UUID
	Doctor    string
	Specialty string
	Date      time.Time
	Type      string
	Status    string
}

// AppointmentView is a patient-facing appointment with the date split
// into a timestamp and a display time.
type AppointmentView struct {
	ID        uuid.UUID `json:"id"`
	Doctor    string    `json:"doctor"`
	Specialty string    `json:"specialty"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
}

// ScheduleItem is a row on the doctor's schedule.
type ScheduleItem struct {
	ID              uuid.UUID `json:"id"`
	PatientName     string    `json:"patientName"`
	PatientID       uuid.UUID `json:"patientId"`
	Date            time.Time `json:"date"`
	Type            string    `json:"type"`
	Status          string    `json:"status"`
	DurationMinutes int       `json:"durationMinutes"`
	Notes           *string   `json:"notes,omitempty"`
}

// ActivityRow feeds the dashboard's recent-activity feed.
type ActivityRow struct {
	ID        uuid.UUID
	Type      string
	Doctor    string
	Date      time.Time
	Status    string
	CreatedAt time.Time
}

// BookInput is the payload a patient submits to book an appointment.
type BookInput struct {
	DoctorID        uuid.UUID `json:"doctor_id"`
	Date            time.Time `json:"date"`
	Type            string    `json:"type"`
	Notes           *string   `json:"notes"`
	DurationMinutes int       `json:"duration_minutes"`
}

func validStatus(s string) bool {
	switch s {
	case "upcoming", "confirmed", "completed", "cancelled":
		return true
	}
	return false
}
