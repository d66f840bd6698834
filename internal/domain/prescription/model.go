package prescription

import (
	"time"

	"github.com/google/uuid"
)

// Prescription maps to the prescriptions table. Pharmacy details are
// denormalized onto the row: the prescription keeps the pharmacy as written
// even if the pharmacy record later changes.
type Prescription struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	PatientID        uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID         uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	Medication       string     `db:"medication" json:"medication"`
	GenericName      *string    `db:"generic_name" json:"generic_name,omitempty"`
	Dosage           string     `db:"dosage" json:"dosage"`
	Frequency        string     `db:"frequency" json:"frequency"`
	Duration         string     `db:"duration" json:"duration"`
	PrescribedDate   time.Time  `db:"prescribed_date" json:"prescribed_date"`
	ExpiryDate       *time.Time `db:"expiry_date" json:"expiry_date,omitempty"`
	Status           string     `db:"status" json:"status"`
	Instructions     *string    `db:"instructions" json:"instructions,omitempty"`
	Notes            *string    `db:"notes" json:"-"`
	Refills          int        `db:"refills" json:"refills"`
	RefillsRemaining int        `db:"refills_remaining" json:"refills_remaining"`
	PharmacyName     *string    `db:"pharmacy_name" json:"pharmacy_name,omitempty"`
	PharmacyAddress  *string    `db:"pharmacy_address" json:"pharmacy_address,omitempty"`
	PharmacyPhone    *string    `db:"pharmacy_phone" json:"pharmacy_phone,omitempty"`
	Warnings         []string   `db:"warnings" json:"warnings"`
	SideEffects      []string   `db:"side_effects" json:"side_effects"`
	Interactions     []string   `db:"interactions" json:"interactions"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// Pharmacy maps to the pharmacies table.
type Pharmacy struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Address   string    `db:"address" json:"address"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Hours     *string   `db:"hours" json:"hours,omitempty"`
	Latitude  *float64  `db:"latitude" json:"latitude,omitempty"`
	Longitude *float64  `db:"longitude" json:"longitude,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ListItem is a prescription row in the patient-facing list.
type ListItem struct {
	ID               uuid.UUID  `json:"id"`
	Medication       string     `json:"medication"`
	Dosage           string     `json:"dosage"`
	Frequency        string     `json:"frequency"`
	Doctor           string     `json:"doctor"`
	PrescribedDate   time.Time  `json:"prescribedDate"`
	ExpiryDate       *time.Time `json:"expiryDate,omitempty"`
	Status           string     `json:"status"`
	RefillsRemaining int        `json:"refillsRemaining"`
	Pharmacy         string     `json:"pharmacy"`
}

// DoctorInfo is the prescriber block on the detail view.
type DoctorInfo struct {
	Name      string  `json:"name"`
	Specialty string  `json:"specialty"`
	Phone     *string `json:"phone,omitempty"`
	Email     string  `json:"email"`
}

// PharmacyInfo is the pharmacy block on the detail view.
type PharmacyInfo struct {
	Name    string  `json:"name"`
	Address *string `json:"address,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Hours   *string `json:"hours,omitempty"`
}

// Detail is the full patient-facing prescription view.
type Detail struct {
	ID               uuid.UUID    `json:"id"`
	PatientID        uuid.UUID    `json:"-"`
	Medication       string       `json:"medication"`
	GenericName      *string      `json:"genericName,omitempty"`
	Dosage           string       `json:"dosage"`
	Frequency        string       `json:"frequency"`
	Duration         string       `json:"duration"`
	PrescribedDate   time.Time    `json:"prescribedDate"`
	ExpiryDate       *time.Time   `json:"expiryDate,omitempty"`
	Status           string       `json:"status"`
	RefillsRemaining int          `json:"refillsRemaining"`
	TotalRefills     int          `json:"totalRefills"`
	Instructions     *string      `json:"instructions,omitempty"`
	Warnings         []string     `json:"warnings"`
	SideEffects      []string     `json:"sideEffects"`
	Interactions     []string     `json:"interactions"`
	Doctor           DoctorInfo   `json:"doctor"`
	Pharmacy         PharmacyInfo `json:"pharmacy"`
}

// HistoryItem is a prescription row in the doctor-facing history.
type HistoryItem struct {
	ID             uuid.UUID `json:"id"`
	PatientName    string    `json:"patientName"`
	PatientID      uuid.UUID `json:"patientId"`
	Medication     string    `json:"medication"`
	Dosage         string    `json:"dosage"`
	Frequency      string    `json:"frequency"`
	Duration       string    `json:"duration"`
	PrescribedDate time.Time `json:"prescribedDate"`
	Status         string    `json:"status"`
	PrescribedBy   string    `json:"prescribedBy"`
}

// ActiveItem is an active prescription on the patient dashboard.
type ActiveItem struct {
	ID            uuid.UUID `json:"id"`
	Medication    string    `json:"medication"`
	Dosage        string    `json:"dosage"`
	Frequency     string    `json:"frequency"`
	Doctor        string    `json:"doctor"`
	DaysRemaining int       `json:"daysRemaining"`
	NextDose      string    `json:"nextDose"`
}

// ActivityRow feeds the dashboard's recent-activity feed.
type ActivityRow struct {
	ID         uuid.UUID
	Medication string
	Dosage     string
	Doctor     string
	CreatedAt  time.Time
}

// CreateInput is the payload a doctor submits to write a prescription.
type CreateInput struct {
	PatientID       uuid.UUID  `json:"patient_id"`
	Medication      string     `json:"medication"`
	GenericName     *string    `json:"generic_name"`
	Dosage          string     `json:"dosage"`
	Frequency       string     `json:"frequency"`
	Duration        string     `json:"duration"`
	ExpiryDate      *time.Time `json:"expiry_date"`
	Instructions    *string    `json:"instructions"`
	Notes           *string    `json:"notes"`
	Refills         int        `json:"refills"`
	PharmacyName    *string    `json:"pharmacy_name"`
	PharmacyAddress *string    `json:"pharmacy_address"`
	PharmacyPhone   *string    `json:"pharmacy_phone"`
	Warnings        []string   `json:"warnings"`
	SideEffects     []string   `json:"side_effects"`
	Interactions    []string   `json:"interactions"`
}

func validStatus(s string) bool {
	switch s {
	case "active", "completed", "discontinued", "expired", "pending":
		return true
	}
	return false
}
