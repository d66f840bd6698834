package clinical

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound = errors.New("clinical: patient not found")
	ErrDoctorNotFound  = errors.New("clinical: doctor profile not found")
	ErrInvalidRecord   = errors.New("clinical: invalid record")
)

// Directory resolves accounts to role profiles. Implementations signal a
// missing profile with ErrPatientNotFound / ErrDoctorNotFound.
type Directory interface {
	PatientIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
	DoctorIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
	PatientExists(ctx context.Context, patientID uuid.UUID) (bool, error)
}

// Service reads and writes the clinical record: conditions, allergies,
// surgeries, immunizations and lab results.
type Service struct {
	conditions    ConditionRepository
	allergies     AllergyRepository
	surgeries     SurgeryRepository
	immunizations ImmunizationRepository
	labs          LabResultRepository
	dir           Directory
}

func NewService(conditions ConditionRepository, allergies AllergyRepository,
	surgeries SurgeryRepository, immunizations ImmunizationRepository,
	labs LabResultRepository, dir Directory) *Service {
	return &Service{
		conditions:    conditions,
		allergies:     allergies,
		surgeries:     surgeries,
		immunizations: immunizations,
		labs:          labs,
		dir:           dir,
	}
}

// HistoryForUser assembles the full medical history for the calling patient.
func (s *Service) HistoryForUser(ctx context.Context, userID uuid.UUID) (*MedicalHistory, error) {
	patientID, err := s.dir.PatientIDForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	conditions, err := s.conditions.ListByPatient(ctx, patientID, false)
	if err != nil {
		return nil, err
	}
	allergies, err := s.allergies.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	surgeries, err := s.surgeries.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	immunizations, err := s.immunizations.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	labs, err := s.labs.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	h := &MedicalHistory{
		Conditions:    conditions,
		Allergies:     allergies,
		Surgeries:     surgeries,
		Immunizations: immunizations,
		LabResults:    labs,
	}
	// Empty sections serialize as [] rather than null.
	if h.Conditions == nil {
		h.Conditions = []*ConditionView{}
	}
	if h.Allergies == nil {
		h.Allergies = []*AllergyView{}
	}
	if h.Surgeries == nil {
		h.Surgeries = []*SurgeryView{}
	}
	if h.Immunizations == nil {
		h.Immunizations = []*ImmunizationView{}
	}
	if h.LabResults == nil {
		h.LabResults = []*LabResultView{}
	}
	return h, nil
}

// ConditionsForPatient is the doctor-facing view of one patient's conditions.
func (s *Service) ConditionsForPatient(ctx context.Context, patientID uuid.UUID) ([]*ConditionView, error) {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}
	return s.conditions.ListByPatient(ctx, patientID, false)
}

// AllergiesForPatient is the doctor-facing view of one patient's allergies.
func (s *Service) AllergiesForPatient(ctx context.Context, patientID uuid.UUID) ([]*AllergyView, error) {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}
	return s.allergies.ListByPatient(ctx, patientID)
}

// ActiveConditionNames lists the names of a patient's active conditions.
func (s *Service) ActiveConditionNames(ctx context.Context, patientID uuid.UUID) ([]string, error) {
	return s.conditions.ActiveNamesByPatient(ctx, patientID)
}

// LabResultCount returns how many lab results a patient has on file.
func (s *Service) LabResultCount(ctx context.Context, patientID uuid.UUID) (int, error) {
	return s.labs.CountByPatient(ctx, patientID)
}

// AddCondition records a diagnosis made by the calling doctor.
func (s *Service) AddCondition(ctx context.Context, doctorUserID, patientID uuid.UUID, in ConditionInput) (*Condition, error) {
	doctorID, err := s.dir.DoctorIDForUser(ctx, doctorUserID)
	if err != nil {
		return nil, err
	}
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}
	if in.Name == "" || in.DiagnosedDate.IsZero() {
		return nil, ErrInvalidRecord
	}
	if in.Status == "" {
		in.Status = "active"
	}
	if in.Severity == "" {
		in.Severity = "mild"
	}
	if !validConditionStatus(in.Status) || !validSeverity(in.Severity) {
		return nil, ErrInvalidRecord
	}

	c := &Condition{
		PatientID:     patientID,
		DoctorID:      doctorID,
		Name:          in.Name,
		DiagnosedDate: in.DiagnosedDate,
		Status:        in.Status,
		Severity:      in.Severity,
		Notes:         in.Notes,
	}
	if err := s.conditions.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// AddAllergy records an allergy for a patient.
func (s *Service) AddAllergy(ctx context.Context, patientID uuid.UUID, in AllergyInput) (*Allergy, error) {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}
	if in.Allergen == "" || in.Reaction == "" || in.DiagnosedDate.IsZero() {
		return nil, ErrInvalidRecord
	}
	if in.Severity == "" {
		in.Severity = "mild"
	}
	if !validSeverity(in.Severity) {
		return nil, ErrInvalidRecord
	}

	a := &Allergy{
		PatientID:     patientID,
		Allergen:      in.Allergen,
		Reaction:      in.Reaction,
		Severity:      in.Severity,
		DiagnosedDate: in.DiagnosedDate,
	}
	if err := s.allergies.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// AddSurgery records a surgical procedure for a patient.
func (s *Service) AddSurgery(ctx context.Context, patientID uuid.UUID, in SurgeryInput) (*Surgery, error) {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}
	if in.Procedure == "" || in.Date.IsZero() {
		return nil, ErrInvalidRecord
	}

	sg := &Surgery{
		PatientID: patientID,
		Procedure: in.Procedure,
		Date:      in.Date,
		Hospital:  in.Hospital,
		Surgeon:   in.Surgeon,
		Notes:     in.Notes,
	}
	if err := s.surgeries.Create(ctx, sg); err != nil {
		return nil, err
	}
	return sg, nil
}

// AddImmunization records a vaccination for a patient.
func (s *Service) AddImmunization(ctx context.Context, patientID uuid.UUID, in ImmunizationInput) (*Immunization, error) {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}
	if in.Vaccine == "" || in.Date.IsZero() {
		return nil, ErrInvalidRecord
	}

	im := &Immunization{
		PatientID: patientID,
		Vaccine:   in.Vaccine,
		Date:      in.Date,
		NextDue:   in.NextDue,
		Provider:  in.Provider,
	}
	if err := s.immunizations.Create(ctx, im); err != nil {
		return nil, err
	}
	return im, nil
}

// AddLabResult records a lab test ordered by the calling doctor.
func (s *Service) AddLabResult(ctx context.Context, doctorUserID, patientID uuid.UUID, in LabResultInput) (*LabResult, error) {
	doctorID, err := s.dir.DoctorIDForUser(ctx, doctorUserID)
	if err != nil {
		return nil, err
	}
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}
	if in.Test == "" || in.Date.IsZero() {
		return nil, ErrInvalidRecord
	}
	if in.Status == "" {
		in.Status = "pending"
	}
	if !validLabStatus(in.Status) {
		return nil, ErrInvalidRecord
	}

	lr := &LabResult{
		PatientID: patientID,
		OrderedBy: doctorID,
		Test:      in.Test,
		Date:      in.Date,
		Result:    in.Result,
		Status:    in.Status,
		ReportURL: in.ReportURL,
	}
	if err := s.labs.Create(ctx, lr); err != nil {
		return nil, err
	}
	return lr, nil
}

func (s *Service) requirePatient(ctx context.Context, patientID uuid.UUID) error {
	ok, err := s.dir.PatientExists(ctx, patientID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPatientNotFound
	}
	return nil
}
