package clinical

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

// =========== Mocks ===========

type mockDirectory struct {
	patients map[uuid.UUID]uuid.UUID // userID -> patientID
	doctors  map[uuid.UUID]uuid.UUID // userID -> doctorID
}

func newMockDirectory() *mockDirectory {
	return &mockDirectory{
		patients: make(map[uuid.UUID]uuid.UUID),
		doctors:  make(map[uuid.UUID]uuid.UUID),
	}
}

func (m *mockDirectory) PatientIDForUser(_ context.Context, userID uuid.UUID) (uuid.UUID, error) {
	id, ok := m.patients[userID]
	if !ok {
		return uuid.Nil, ErrPatientNotFound
	}
	return id, nil
}

func (m *mockDirectory) DoctorIDForUser(_ context.Context, userID uuid.UUID) (uuid.UUID, error) {
	id, ok := m.doctors[userID]
	if !ok {
		return uuid.Nil, ErrDoctorNotFound
	}
	return id, nil
}

func (m *mockDirectory) PatientExists(_ context.Context, patientID uuid.UUID) (bool, error) {
	for _, id := range m.patients {
		if id == patientID {
			return true, nil
		}
	}
	return false, nil
}

type mockConditionRepo struct {
	store map[uuid.UUID]*Condition
}

func newMockConditionRepo() *mockConditionRepo {
	return &mockConditionRepo{store: make(map[uuid.UUID]*Condition)}
}

func (m *mockConditionRepo) Create(_ context.Context, c *Condition) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	m.store[c.ID] = c
	return nil
}

func (m *mockConditionRepo) ListByPatient(_ context.Context, patientID uuid.UUID, onlyActive bool) ([]*ConditionView, error) {
	var result []*ConditionView
	for _, c := range m.store {
		if c.PatientID != patientID {
			continue
		}
		if onlyActive && c.Status != "active" {
			continue
		}
		result = append(result, &ConditionView{
			ID: c.ID, Name: c.Name, DiagnosedDate: c.DiagnosedDate,
			Status: c.Status, Severity: c.Severity, Notes: c.Notes,
		})
	}
	return result, nil
}

func (m *mockConditionRepo) ActiveNamesByPatient(_ context.Context, patientID uuid.UUID) ([]string, error) {
	var names []string
	for _, c := range m.store {
		if c.PatientID == patientID && c.Status == "active" {
			names = append(names, c.Name)
		}
	}
	return names, nil
}

type mockAllergyRepo struct {
	store map[uuid.UUID]*Allergy
}

func newMockAllergyRepo() *mockAllergyRepo {
	return &mockAllergyRepo{store: make(map[uuid.UUID]*Allergy)}
}

func (m *mockAllergyRepo) Create(_ context.Context, a *Allergy) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	m.store[a.ID] = a
	return nil
}

func (m *mockAllergyRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*AllergyView, error) {
	var result []*AllergyView
	for _, a := range m.store {
		if a.PatientID == patientID {
			result = append(result, &AllergyView{
				ID: a.ID, Allergen: a.Allergen, Reaction: a.Reaction,
				Severity: a.Severity, DiagnosedDate: a.DiagnosedDate,
			})
		}
	}
	return result, nil
}

type mockSurgeryRepo struct {
	store map[uuid.UUID]*Surgery
}

func newMockSurgeryRepo() *mockSurgeryRepo {
	return &mockSurgeryRepo{store: make(map[uuid.UUID]*Surgery)}
}

func (m *mockSurgeryRepo) Create(_ context.Context, s *Surgery) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	m.store[s.ID] = s
	return nil
}

func (m *mockSurgeryRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*SurgeryView, error) {
	var result []*SurgeryView
	for _, s := range m.store {
		if s.PatientID == patientID {
			result = append(result, &SurgeryView{ID: s.ID, Procedure: s.Procedure, Date: s.Date})
		}
	}
	return result, nil
}

type mockImmunizationRepo struct {
	store map[uuid.UUID]*Immunization
}

func newMockImmunizationRepo() *mockImmunizationRepo {
	return &mockImmunizationRepo{store: make(map[uuid.UUID]*Immunization)}
}

func (m *mockImmunizationRepo) Create(_ context.Context, im *Immunization) error {
	if im.ID == uuid.Nil {
		im.ID = uuid.New()
	}
	m.store[im.ID] = im
	return nil
}

func (m *mockImmunizationRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*ImmunizationView, error) {
	var result []*ImmunizationView
	for _, im := range m.store {
		if im.PatientID == patientID {
			result = append(result, &ImmunizationView{ID: im.ID, Vaccine: im.Vaccine, Date: im.Date})
		}
	}
	return result, nil
}

type mockLabResultRepo struct {
	store map[uuid.UUID]*LabResult
}

func newMockLabResultRepo() *mockLabResultRepo {
	return &mockLabResultRepo{store: make(map[uuid.UUID]*LabResult)}
}

func (m *mockLabResultRepo) Create(_ context.Context, lr *LabResult) error {
	if lr.ID == uuid.Nil {
		lr.ID = uuid.New()
	}
	m.store[lr.ID] = lr
	return nil
}

func (m *mockLabResultRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*LabResultView, error) {
	var result []*LabResultView
	for _, lr := range m.store {
		if lr.PatientID == patientID {
			result = append(result, &LabResultView{ID: lr.ID, Test: lr.Test, Status: lr.Status})
		}
	}
	return result, nil
}

func (m *mockLabResultRepo) CountByPatient(_ context.Context, patientID uuid.UUID) (int, error) {
	n := 0
	for _, lr := range m.store {
		if lr.PatientID == patientID {
			n++
		}
	}
	return n, nil
}

// =========== Helpers ===========

type fixture struct {
	svc           *Service
	dir           *mockDirectory
	conditions    *mockConditionRepo
	allergies     *mockAllergyRepo
	surgeries     *mockSurgeryRepo
	immunizations *mockImmunizationRepo
	labs          *mockLabResultRepo

	patientUserID uuid.UUID
	patientID     uuid.UUID
	doctorUserID  uuid.UUID
	doctorID      uuid.UUID
}

func newFixture() *fixture {
	f := &fixture{
		dir:           newMockDirectory(),
		conditions:    newMockConditionRepo(),
		allergies:     newMockAllergyRepo(),
		surgeries:     newMockSurgeryRepo(),
		immunizations: newMockImmunizationRepo(),
		labs:          newMockLabResultRepo(),
		patientUserID: uuid.New(),
		patientID:     uuid.New(),
		doctorUserID:  uuid.New(),
		doctorID:      uuid.New(),
	}
	f.dir.patients[f.patientUserID] = f.patientID
	f.dir.doctors[f.doctorUserID] = f.doctorID
	f.svc = NewService(f.conditions, f.allergies, f.surgeries, f.immunizations, f.labs, f.dir)
	return f
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// =========== Tests ===========

func TestHistoryForUser_AggregatesAllSections(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.conditions.Create(ctx, &Condition{PatientID: f.patientID, DoctorID: f.doctorID,
		Name: "Hypertension", DiagnosedDate: date(2023, 5, 1), Status: "active", Severity: "moderate"})
	f.allergies.Create(ctx, &Allergy{PatientID: f.patientID, Allergen: "Penicillin",
		Reaction: "Rash", Severity: "severe", DiagnosedDate: date(2020, 1, 15)})
	f.labs.Create(ctx, &LabResult{PatientID: f.patientID, OrderedBy: f.doctorID,
		Test: "CBC", Date: date(2024, 3, 3), Result: "Normal", Status: "normal"})

	h, err := f.svc.HistoryForUser(ctx, f.patientUserID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(h.Conditions) != 1 || h.Conditions[0].Name != "Hypertension" {
		t.Errorf("unexpected conditions: %+v", h.Conditions)
	}
	if len(h.Allergies) != 1 || h.Allergies[0].Allergen != "Penicillin" {
		t.Errorf("unexpected allergies: %+v", h.Allergies)
	}
	if len(h.LabResults) != 1 {
		t.Errorf("unexpected lab results: %+v", h.LabResults)
	}
	// Sections with no records must be empty slices, not nil.
	if h.Surgeries == nil || h.Immunizations == nil {
		t.Error("expected empty sections to be non-nil")
	}
}

func TestHistoryForUser_NoPatientProfile(t *testing.T) {
	f := newFixture()
	if _, err := f.svc.HistoryForUser(context.Background(), uuid.New()); !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("expected ErrPatientNotFound, got %v", err)
	}
}

func TestConditionsForPatient_UnknownPatient(t *testing.T) {
	f := newFixture()
	if _, err := f.svc.ConditionsForPatient(context.Background(), uuid.New()); !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("expected ErrPatientNotFound, got %v", err)
	}
}

func TestAddCondition_DefaultsAndDoctorAttribution(t *testing.T) {
	f := newFixture()

	cond, err := f.svc.AddCondition(context.Background(), f.doctorUserID, f.patientID,
		ConditionInput{Name: "Asthma", DiagnosedDate: date(2024, 2, 2)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cond.Status != "active" || cond.Severity != "mild" {
		t.Errorf("expected defaults active/mild, got %s/%s", cond.Status, cond.Severity)
	}
	if cond.DoctorID != f.doctorID {
		t.Errorf("expected diagnosis attributed to doctor %s, got %s", f.doctorID, cond.DoctorID)
	}
}

func TestAddCondition_Rejections(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.svc.AddCondition(ctx, f.doctorUserID, f.patientID,
		ConditionInput{DiagnosedDate: date(2024, 2, 2)}); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("expected ErrInvalidRecord for missing name, got %v", err)
	}
	if _, err := f.svc.AddCondition(ctx, f.doctorUserID, f.patientID,
		ConditionInput{Name: "X", DiagnosedDate: date(2024, 2, 2), Severity: "critical"}); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("expected ErrInvalidRecord for bad severity, got %v", err)
	}
	if _, err := f.svc.AddCondition(ctx, uuid.New(), f.patientID,
		ConditionInput{Name: "X", DiagnosedDate: date(2024, 2, 2)}); !errors.Is(err, ErrDoctorNotFound) {
		t.Errorf("expected ErrDoctorNotFound, got %v", err)
	}
	if _, err := f.svc.AddCondition(ctx, f.doctorUserID, uuid.New(),
		ConditionInput{Name: "X", DiagnosedDate: date(2024, 2, 2)}); !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("expected ErrPatientNotFound, got %v", err)
	}
}

func TestAddLabResult_DefaultsToPending(t *testing.T) {
	f := newFixture()

	lr, err := f.svc.AddLabResult(context.Background(), f.doctorUserID, f.patientID,
		LabResultInput{Test: "Lipid Panel", Date: date(2024, 6, 1), Result: "Awaiting"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lr.Status != "pending" {
		t.Errorf("expected pending status, got %q", lr.Status)
	}
	if lr.OrderedBy != f.doctorID {
		t.Errorf("expected ordering doctor %s, got %s", f.doctorID, lr.OrderedBy)
	}
}

func TestActiveConditionNames(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.conditions.Create(ctx, &Condition{PatientID: f.patientID, Name: "Hypertension",
		DiagnosedDate: date(2023, 1, 1), Status: "active"})
	f.conditions.Create(ctx, &Condition{PatientID: f.patientID, Name: "Fracture",
		DiagnosedDate: date(2019, 1, 1), Status: "resolved"})

	names, err := f.svc.ActiveConditionNames(ctx, f.patientID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) != 1 || names[0] != "Hypertension" {
		t.Errorf("expected only the active condition, got %v", names)
	}
}

func TestAddAllergy_Validation(t *testing.T) {
	f := newFixture()

	a, err := f.svc.AddAllergy(context.Background(), f.patientID,
		AllergyInput{Allergen: "Shellfish", Reaction: "Hives", DiagnosedDate: date(2022, 7, 7)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Severity != "mild" {
		t.Errorf("expected default severity mild, got %q", a.Severity)
	}

	if _, err := f.svc.AddAllergy(context.Background(), f.patientID,
		AllergyInput{Allergen: "Shellfish", DiagnosedDate: date(2022, 7, 7)}); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("expected ErrInvalidRecord for missing reaction, got %v", err)
	}
}
