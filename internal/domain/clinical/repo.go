package clinical

import (
	"context"

	"github.com/google/uuid"
)

// ConditionRepository is the persistence boundary for diagnosed conditions.
type ConditionRepository interface {
	Create(ctx context.Context, c *Condition) error
	// ListByPatient returns conditions newest-diagnosis-first with the
	// diagnosing doctor's name resolved. onlyActive narrows to status=active.
	ListByPatient(ctx context.Context, patientID uuid.UUID, onlyActive bool) ([]*ConditionView, error)
	// ActiveNamesByPatient returns just the names of active conditions, used
	// by roster views.
	ActiveNamesByPatient(ctx context.Context, patientID uuid.UUID) ([]string, error)
}

type AllergyRepository interface {
	Create(ctx context.Context, a *Allergy) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*AllergyView, error)
}

type SurgeryRepository interface {
	Create(ctx context.Context, s *Surgery) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*SurgeryView, error)
}

type ImmunizationRepository interface {
	Create(ctx context.Context, im *Immunization) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*ImmunizationView, error)
}

type LabResultRepository interface {
	Create(ctx context.Context, lr *LabResult) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*LabResultView, error)
	CountByPatient(ctx context.Context, patientID uuid.UUID) (int, error)
}
