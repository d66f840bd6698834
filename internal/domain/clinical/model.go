package clinical

import (
	"time"

	"github.com/google/uuid"
)

// Condition maps to the conditions table. A condition is diagnosed by a
// doctor; allergies, surgeries and immunizations carry no diagnosing doctor.
type Condition struct {
	ID            uuid.UUID `db:"id" json:"id"`
	PatientID     uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID      uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Name          string    `db:"name" json:"name"`
	DiagnosedDate time.Time `db:"diagnosed_date" json:"diagnosed_date"`
	Status        string    `db:"status" json:"status"`
	Severity      string    `db:"severity" json:"severity"`
	Notes         *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Allergy maps to the allergies table.
type Allergy struct {
	ID            uuid.UUID `db:"id" json:"id"`
	PatientID     uuid.UUID `db:"patient_id" json:"patient_id"`
	Allergen      string    `db:"allergen" json:"allergen"`
	Reaction      string    `db:"reaction" json:"reaction"`
	Severity      string    `db:"severity" json:"severity"`
	DiagnosedDate time.Time `db:"diagnosed_date" json:"diagnosed_date"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Surgery maps to the surgeries table.
type Surgery struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	Procedure string    `db:"procedure" json:"procedure"`
	Date      time.Time `db:"date" json:"date"`
	Hospital  string    `db:"hospital" json:"hospital"`
	Surgeon   string    `db:"surgeon" json:"surgeon"`
	Notes     *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Immunization maps to the immunizations table.
type Immunization struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	PatientID uuid.UUID  `db:"patient_id" json:"patient_id"`
	Vaccine   string     `db:"vaccine" json:"vaccine"`
	Date      time.Time  `db:"date" json:"date"`
	NextDue   *time.Time `db:"next_due" json:"next_due,omitempty"`
	Provider  string     `db:"provider" json:"provider"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// LabResult maps to the lab_results table.
type LabResult struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	OrderedBy uuid.UUID `db:"ordered_by" json:"ordered_by"`
	Test      string    `db:"test" json:"test"`
	Date      time.Time `db:"date" json:"date"`
	Result    string    `db:"result" json:"result"`
	Status    string    `db:"status" json:"status"`
	ReportURL *string   `db:"report_url" json:"report_url,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// View types join record data with the names the API surfaces. Field casing
// follows the client contract.

type ConditionView struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	DiagnosedDate time.Time `json:"diagnosedDate"`
	Status        string    `json:"status"`
	Severity      string    `json:"severity"`
	Doctor        string    `json:"doctor"`
	Notes         *string   `json:"notes,omitempty"`
}

type AllergyView struct {
	ID            uuid.UUID `json:"id"`
	Allergen      string    `json:"allergen"`
	Reaction      string    `json:"reaction"`
	Severity      string    `json:"severity"`
	DiagnosedDate time.Time `json:"diagnosedDate"`
}

type SurgeryView struct {
	ID        uuid.UUID `json:"id"`
	Procedure string    `json:"procedure"`
	Date      time.Time `json:"date"`
	Hospital  string    `json:"hospital"`
	Surgeon   string    `json:"surgeon"`
	Notes     *string   `json:"notes,omitempty"`
}

type ImmunizationView struct {
	ID       uuid.UUID  `json:"id"`
	Vaccine  string     `json:"vaccine"`
	Date     time.Time  `json:"date"`
	NextDue  *time.Time `json:"nextDue,omitempty"`
	Provider string     `json:"provider"`
}

type LabResultView struct {
	ID        uuid.UUID `json:"id"`
	Test      string    `json:"test"`
	Date      time.Time `json:"date"`
	Result    string    `json:"result"`
	Status    string    `json:"status"`
	OrderedBy string    `json:"orderedBy"`
}

// MedicalHistory is the aggregate a patient sees on the history page.
type MedicalHistory struct {
	Conditions    []*ConditionView    `json:"conditions"`
	Allergies     []*AllergyView      `json:"allergies"`
	Surgeries     []*SurgeryView      `json:"surgeries"`
	Immunizations []*ImmunizationView `json:"immunizations"`
	LabResults    []*LabResultView    `json:"labResults"`
}

// Inputs accepted on the doctor-facing create endpoints.

type ConditionInput struct {
	Name          string    `json:"name"`
	DiagnosedDate time.Time `json:"diagnosed_date"`
	Status        string    `json:"status"`
	Severity      string    `json:"severity"`
	Notes         *string   `json:"notes"`
}

type AllergyInput struct {
	Allergen      string    `json:"allergen"`
	Reaction      string    `json:"reaction"`
	Severity      string    `json:"severity"`
	DiagnosedDate time.Time `json:"diagnosed_date"`
}

type SurgeryInput struct {
	Procedure string    `json:"procedure"`
	Date      time.Time `json:"date"`
	Hospital  string    `json:"hospital"`
	Surgeon   string    `json:"surgeon"`
	Notes     *string   `json:"notes"`
}

type ImmunizationInput struct {
	Vaccine  string     `json:"vaccine"`
	Date     time.Time  `json:"date"`
	NextDue  *time.Time `json:"next_due"`
	Provider string     `json:"provider"`
}

type LabResultInput struct {
	Test      string    `json:"test"`
	Date      time.Time `json:"date"`
	Result    string    `json:"result"`
	Status    string    `json:"status"`
	ReportURL *string   `json:"report_url"`
}

func validSeverity(s string) bool {
	switch s {
	case "mild", "moderate", "severe":
		return true
	}
	return false
}

func validConditionStatus(s string) bool {
	switch s {
	case "active", "resolved":
		return true
	}
	return false
}

func validLabStatus(s string) bool {
	switch s {
	case "normal", "abnormal", "pending":
		return true
	}
	return false
}
