package prescription

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

// =========== Mocks ===========

type mockRepo struct {
	store map[uuid.UUID]*Prescription
}

func newMockRepo() *mockRepo {
	return &mockRepo{store: make(map[uuid.UUID]*Prescription)}
}

func (m *mockRepo) Create(_ context.Context, p *Prescription) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now().UTC()
	m.store[p.ID] = p
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Prescription, error) {
	p, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (m *mockRepo) Detail(_ context.Context, id uuid.UUID) (*Detail, error) {
	p, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &Detail{
		ID:               p.ID,
		PatientID:        p.PatientID,
		Medication:       p.Medication,
		Dosage:           p.Dosage,
		Status:           p.Status,
		RefillsRemaining: p.RefillsRemaining,
		TotalRefills:     p.Refills + p.RefillsRemaining,
	}, nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, status string) ([]*ListItem, error) {
	if status == "all" {
		status = ""
	}
	var items []*ListItem
	for _, p := range m.store {
		if p.PatientID != patientID {
			continue
		}
		if status != "" && p.Status != status {
			continue
		}
		items = append(items, &ListItem{ID: p.ID, Medication: p.Medication, Status: p.Status})
	}
	return items, nil
}

func (m *mockRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, status, search string) ([]*HistoryItem, error) {
	if status == "all" {
		status = ""
	}
	var items []*HistoryItem
	for _, p := range m.store {
		if p.DoctorID != doctorID {
			continue
		}
		if status != "" && p.Status != status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Medication), strings.ToLower(search)) {
			continue
		}
		items = append(items, &HistoryItem{ID: p.ID, Medication: p.Medication, Status: p.Status, PatientID: p.PatientID})
	}
	return items, nil
}

func (m *mockRepo) ActiveByPatient(_ context.Context, patientID uuid.UUID, limit int) ([]*ActiveItem, error) {
	var items []*ActiveItem
	for _, p := range m.store {
		if p.PatientID == patientID && p.Status == "active" && len(items) < limit {
			items = append(items, &ActiveItem{ID: p.ID, Medication: p.Medication})
		}
	}
	return items, nil
}

func (m *mockRepo) CountByPatient(_ context.Context, patientID uuid.UUID, status string) (int, error) {
	n := 0
	for _, p := range m.store {
		if p.PatientID == patientID && (status == "" || p.Status == status) {
			n++
		}
	}
	return n, nil
}

func (m *mockRepo) RecentByPatient(_ context.Context, patientID uuid.UUID, limit int) ([]*ActivityRow, error) {
	var items []*ActivityRow
	for _, p := range m.store {
		if p.PatientID == patientID && len(items) < limit {
			items = append(items, &ActivityRow{ID: p.ID, Medication: p.Medication, CreatedAt: p.CreatedAt})
		}
	}
	return items, nil
}

func (m *mockRepo) DistinctDoctorCount(_ context.Context, patientID uuid.UUID) (int, error) {
	seen := make(map[uuid.UUID]bool)
	for _, p := range m.store {
		if p.PatientID == patientID {
			seen[p.DoctorID] = true
		}
	}
	return len(seen), nil
}

type mockPharmacyRepo struct {
	store []*Pharmacy
}

func (m *mockPharmacyRepo) Create(_ context.Context, p *Pharmacy) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.store = append(m.store, p)
	return nil
}

func (m *mockPharmacyRepo) List(_ context.Context, search string) ([]*Pharmacy, error) {
	var items []*Pharmacy
	for _, p := range m.store {
		if search == "" || strings.Contains(strings.ToLower(p.Name), strings.ToLower(search)) {
			items = append(items, p)
		}
	}
	return items, nil
}

type mockDirectory struct {
	patients     map[uuid.UUID]uuid.UUID // userID -> patientID
	doctors      map[uuid.UUID]uuid.UUID // userID -> doctorID
	patientUsers map[uuid.UUID]uuid.UUID // patientID -> userID
}

func newMockDirectory() *mockDirectory {
	return &mockDirectory{
		patients:     make(map[uuid.UUID]uuid.UUID),
		doctors:      make(map[uuid.UUID]uuid.UUID),
		patientUsers: make(map[uuid.UUID]uuid.UUID),
	}
}

func (m *mockDirectory) addPatient() (userID, patientID uuid.UUID) {
	userID, patientID = uuid.New(), uuid.New()
	m.patients[userID] = patientID
	m.patientUsers[patientID] = userID
	return userID, patientID
}

func (m *mockDirectory) addDoctor() (userID, doctorID uuid.UUID) {
	userID, doctorID = uuid.New(), uuid.New()
	m.doctors[userID] = doctorID
	return userID, doctorID
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
	_, ok := m.patientUsers[patientID]
	return ok, nil
}

func (m *mockDirectory) UserIDForPatient(_ context.Context, patientID uuid.UUID) (uuid.UUID, error) {
	id, ok := m.patientUsers[patientID]
	if !ok {
		return uuid.Nil, ErrPatientNotFound
	}
	return id, nil
}

type mockNotifier struct {
	delivered []string
	fail      bool
}

func (m *mockNotifier) Notify(_ context.Context, userID uuid.UUID, kind, title, description string) error {
	if m.fail {
		return errors.New("delivery failed")
	}
	m.delivered = append(m.delivered, kind+": "+title)
	return nil
}

// =========== Tests ===========

func newTestService() (*Service, *mockRepo, *mockDirectory, *mockNotifier) {
	repo := newMockRepo()
	dir := newMockDirectory()
	notifier := &mockNotifier{}
	svc := NewService(repo, &mockPharmacyRepo{}, dir, notifier)
	return svc, repo, dir, notifier
}

func TestCreate_SetsDefaultsAndNotifies(t *testing.T) {
	svc, _, dir, notifier := newTestService()
	doctorUserID, doctorID := dir.addDoctor()
	_, patientID := dir.addPatient()

	p, err := svc.Create(context.Background(), doctorUserID, CreateInput{
		PatientID:  patientID,
		Medication: "Lisinopril",
		Dosage:     "10mg",
		Frequency:  "Once daily",
		Duration:   "90 days",
		Refills:    3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Status != "active" {
		t.Errorf("expected active status, got %q", p.Status)
	}
	if p.RefillsRemaining != 3 {
		t.Errorf("expected refills_remaining to start at 3, got %d", p.RefillsRemaining)
	}
	if p.DoctorID != doctorID {
		t.Errorf("expected prescriber %s, got %s", doctorID, p.DoctorID)
	}
	if len(notifier.delivered) != 1 {
		t.Errorf("expected one notification, got %v", notifier.delivered)
	}
}

func TestCreate_NotificationFailureDoesNotFailWrite(t *testing.T) {
	svc, repo, dir, notifier := newTestService()
	notifier.fail = true
	doctorUserID, _ := dir.addDoctor()
	_, patientID := dir.addPatient()

	p, err := svc.Create(context.Background(), doctorUserID, CreateInput{
		PatientID: patientID, Medication: "Metformin", Dosage: "500mg",
		Frequency: "Twice daily", Duration: "30 days",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := repo.GetByID(context.Background(), p.ID); err != nil {
		t.Errorf("prescription not persisted: %v", err)
	}
}

func TestCreate_Rejections(t *testing.T) {
	svc, _, dir, _ := newTestService()
	doctorUserID, _ := dir.addDoctor()
	_, patientID := dir.addPatient()

	base := CreateInput{PatientID: patientID, Medication: "X", Dosage: "1mg",
		Frequency: "Once daily", Duration: "7 days"}

	in := base
	in.Medication = ""
	if _, err := svc.Create(context.Background(), doctorUserID, in); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for missing medication, got %v", err)
	}

	in = base
	in.Refills = -1
	if _, err := svc.Create(context.Background(), doctorUserID, in); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for negative refills, got %v", err)
	}

	in = base
	in.PatientID = uuid.New()
	if _, err := svc.Create(context.Background(), doctorUserID, in); !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("expected ErrPatientNotFound, got %v", err)
	}

	if _, err := svc.Create(context.Background(), uuid.New(), base); !errors.Is(err, ErrDoctorNotFound) {
		t.Errorf("expected ErrDoctorNotFound, got %v", err)
	}
}

func TestDetailForPatientUser_OwnershipEnforced(t *testing.T) {
	svc, repo, dir, _ := newTestService()
	ownerUserID, ownerPatientID := dir.addPatient()
	otherUserID, _ := dir.addPatient()

	p := &Prescription{PatientID: ownerPatientID, DoctorID: uuid.New(),
		Medication: "Atorvastatin", Dosage: "20mg", Status: "active"}
	repo.Create(context.Background(), p)

	if _, err := svc.DetailForPatientUser(context.Background(), ownerUserID, p.ID); err != nil {
		t.Fatalf("owner should see the prescription: %v", err)
	}
	if _, err := svc.DetailForPatientUser(context.Background(), otherUserID, p.ID); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("expected ErrAccessDenied for another patient, got %v", err)
	}
	if _, err := svc.DetailForPatientUser(context.Background(), ownerUserID, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing prescription, got %v", err)
	}
}

func TestListForPatientUser_StatusFilter(t *testing.T) {
	svc, repo, dir, _ := newTestService()
	userID, patientID := dir.addPatient()

	repo.Create(context.Background(), &Prescription{PatientID: patientID, Medication: "A", Status: "active"})
	repo.Create(context.Background(), &Prescription{PatientID: patientID, Medication: "B", Status: "completed"})

	all, err := svc.ListForPatientUser(context.Background(), userID, "all")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 prescriptions, got %d", len(all))
	}

	active, err := svc.ListForPatientUser(context.Background(), userID, "active")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(active) != 1 || active[0].Medication != "A" {
		t.Errorf("unexpected active list: %+v", active)
	}

	empty, err := svc.ListForPatientUser(context.Background(), userID, "discontinued")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", empty)
	}
}

func TestHistoryForDoctorUser(t *testing.T) {
	svc, repo, dir, _ := newTestService()
	doctorUserID, doctorID := dir.addDoctor()
	_, patientID := dir.addPatient()

	repo.Create(context.Background(), &Prescription{PatientID: patientID, DoctorID: doctorID,
		Medication: "Lisinopril", Status: "active"})
	repo.Create(context.Background(), &Prescription{PatientID: patientID, DoctorID: uuid.New(),
		Medication: "Metformin", Status: "active"})

	items, err := svc.HistoryForDoctorUser(context.Background(), doctorUserID, "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].Medication != "Lisinopril" {
		t.Errorf("expected only this doctor's prescriptions, got %+v", items)
	}

	items, err = svc.HistoryForDoctorUser(context.Background(), doctorUserID, "", "lisino")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("expected search hit, got %+v", items)
	}
}

func TestListForPatient_UnknownPatient(t *testing.T) {
	svc, _, _, _ := newTestService()
	if _, err := svc.ListForPatient(context.Background(), uuid.New()); !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("expected ErrPatientNotFound, got %v", err)
	}
}

func TestAddPharmacy_Validation(t *testing.T) {
	svc, _, _, _ := newTestService()

	if err := svc.AddPharmacy(context.Background(), &Pharmacy{Name: "CVS Pharmacy"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for missing address, got %v", err)
	}
	if err := svc.AddPharmacy(context.Background(), &Pharmacy{Name: "CVS Pharmacy", Address: "1 Main St"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	items, err := svc.Pharmacies(context.Background(), "cvs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("expected pharmacy in directory, got %+v", items)
	}
}
