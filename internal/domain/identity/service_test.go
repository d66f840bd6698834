package identity

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/prescribeme/api/internal/platform/auth"
)

// =========== Mock Repositories ===========

type mockUserRepo struct {
	store     map[uuid.UUID]*User
	createErr error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{store: make(map[uuid.UUID]*User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *User) error {
	if m.createErr != nil {
		return m.createErr
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	for _, other := range m.store {
		if strings.EqualFold(other.Email, u.Email) || strings.EqualFold(other.Username, u.Username) {
			return ErrDuplicate
		}
	}
	u.CreatedAt = time.Now().UTC()
	m.store[u.ID] = u
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range m.store {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*User, error) {
	for _, u := range m.store {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

type mockDoctorRepo struct {
	store map[uuid.UUID]*DoctorProfile
}

func newMockDoctorRepo() *mockDoctorRepo {
	return &mockDoctorRepo{store: make(map[uuid.UUID]*DoctorProfile)}
}

func (m *mockDoctorRepo) Create(_ context.Context, p *DoctorProfile) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.store[p.ID] = p
	return nil
}

func (m *mockDoctorRepo) GetByID(_ context.Context, id uuid.UUID) (*DoctorProfile, error) {
	p, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (m *mockDoctorRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*DoctorProfile, error) {
	for _, p := range m.store {
		if p.UserID == userID {
			return p, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockDoctorRepo) List(_ context.Context, specialty string, acceptingOnly bool, limit, offset int) ([]*DoctorListing, int, error) {
	var result []*DoctorListing
	for _, p := range m.store {
		if specialty != "" && !strings.EqualFold(p.Specialty, specialty) {
			continue
		}
		if acceptingOnly && !p.AcceptingNewPatients {
			continue
		}
		result = append(result, &DoctorListing{ID: p.ID, Specialty: p.Specialty})
	}
	return result, len(result), nil
}

type mockPatientRepo struct {
	store map[uuid.UUID]*PatientProfile
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{store: make(map[uuid.UUID]*PatientProfile)}
}

func (m *mockPatientRepo) Create(_ context.Context, p *PatientProfile) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.store[p.ID] = p
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*PatientProfile, error) {
	p, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (m *mockPatientRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*PatientProfile, error) {
	for _, p := range m.store {
		if p.UserID == userID {
			return p, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockPatientRepo) List(_ context.Context, search string, limit, offset int) ([]*PatientListing, int, error) {
	var result []*PatientListing
	for _, p := range m.store {
		result = append(result, &PatientListing{ID: p.ID, Status: p.Status})
	}
	return result, len(result), nil
}

type memSessionRepo struct {
	store map[string]*auth.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{store: make(map[string]*auth.Session)}
}

func (m *memSessionRepo) Create(_ context.Context, s *auth.Session) error {
	m.store[s.TokenHash] = s
	return nil
}

func (m *memSessionRepo) Consume(_ context.Context, tokenHash string, now time.Time) (uuid.UUID, bool, error) {
	s, ok := m.store[tokenHash]
	if !ok || !s.Valid(now) {
		return uuid.Nil, false, nil
	}
	s.Revoked = true
	s.LastUsedAt = &now
	return s.UserID, true, nil
}

func (m *memSessionRepo) Revoke(_ context.Context, tokenHash string) error {
	if s, ok := m.store[tokenHash]; ok {
		s.Revoked = true
	}
	return nil
}

func (m *memSessionRepo) GetByHash(_ context.Context, tokenHash string) (*auth.Session, error) {
	s, ok := m.store[tokenHash]
	if !ok {
		return nil, errors.New("not found")
	}
	return s, nil
}

// =========== Helpers ===========

func newTestService() (*Service, *mockUserRepo, *mockDoctorRepo, *mockPatientRepo) {
	users := newMockUserRepo()
	doctors := newMockDoctorRepo()
	patients := newMockPatientRepo()
	codec := auth.NewTokenCodec("test-secret", 30*time.Minute)
	sessions := auth.NewSessionStore(newMemSessionRepo(), 7*24*time.Hour)
	svc := NewService(users, doctors, patients, codec, sessions, nil)
	return svc, users, doctors, patients
}

func validSignup() SignupInput {
	return SignupInput{
		Email:    "jane@example.com",
		Username: "jane",
		FullName: "Jane Roe",
		Password: "correct-horse",
		Role:     "patient",
	}
}

// =========== Signup ===========

func TestSignup_CreatesPatientWithProfile(t *testing.T) {
	svc, users, _, patients := newTestService()

	resp, refresh, err := svc.Signup(context.Background(), validSignup(), auth.SessionMetadata{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.TokenType != "bearer" {
		t.Errorf("expected bearer token type, got %q", resp.TokenType)
	}
	if resp.ExpiresIn != 1800 {
		t.Errorf("expected expires_in 1800, got %d", resp.ExpiresIn)
	}
	if resp.AccessToken == "" || refresh == "" {
		t.Error("expected both tokens to be issued")
	}
	if resp.User == nil || resp.User.Role != "patient" || !resp.User.IsActive {
		t.Errorf("unexpected user projection: %+v", resp.User)
	}

	u, err := users.GetByEmail(context.Background(), "jane@example.com")
	if err != nil {
		t.Fatalf("user not persisted: %v", err)
	}
	if u.PasswordHash == "correct-horse" {
		t.Error("password stored in plaintext")
	}
	if !auth.VerifyPassword("correct-horse", u.PasswordHash) {
		t.Error("stored hash does not verify the original password")
	}
	if _, err := patients.GetByUserID(context.Background(), u.ID); err != nil {
		t.Errorf("patient profile not created: %v", err)
	}
}

func TestSignup_CreatesDoctorProfile(t *testing.T) {
	svc, users, doctors, _ := newTestService()

	in := validSignup()
	in.Role = "doctor"
	if _, _, err := svc.Signup(context.Background(), in, auth.SessionMetadata{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	u, _ := users.GetByEmail(context.Background(), in.Email)
	if _, err := doctors.GetByUserID(context.Background(), u.ID); err != nil {
		t.Errorf("doctor profile not created: %v", err)
	}
}

func TestSignup_NormalizesEmail(t *testing.T) {
	svc, users, _, _ := newTestService()

	in := validSignup()
	in.Email = "  Jane@Example.COM "
	if _, _, err := svc.Signup(context.Background(), in, auth.SessionMetadata{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := users.GetByEmail(context.Background(), "jane@example.com"); err != nil {
		t.Error("expected email to be stored lowercased and trimmed")
	}
}

func TestSignup_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*SignupInput)
		want   error
	}{
		{"bad email", func(in *SignupInput) { in.Email = "not-an-email" }, ErrInvalidEmail},
		{"short password", func(in *SignupInput) { in.Password = "short" }, ErrWeakPassword},
		{"admin role", func(in *SignupInput) { in.Role = "admin" }, ErrInvalidRole},
		{"unknown role", func(in *SignupInput) { in.Role = "nurse" }, ErrInvalidRole},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, _, _ := newTestService()
			in := validSignup()
			tc.mutate(&in)
			_, _, err := svc.Signup(context.Background(), in, auth.SessionMetadata{})
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestSignup_DuplicateEmailAndUsername(t *testing.T) {
	svc, _, _, _ := newTestService()
	if _, _, err := svc.Signup(context.Background(), validSignup(), auth.SessionMetadata{}); err != nil {
		t.Fatalf("first signup failed: %v", err)
	}

	in := validSignup()
	in.Username = "janet"
	if _, _, err := svc.Signup(context.Background(), in, auth.SessionMetadata{}); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}

	in = validSignup()
	in.Email = "janet@example.com"
	if _, _, err := svc.Signup(context.Background(), in, auth.SessionMetadata{}); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("expected ErrUsernameTaken, got %v", err)
	}
}

// A concurrent signup can slip past the pre-insert checks; the unique
// index that fires decides which field is reported as taken.
func TestSignup_InsertRaceReportsViolatedField(t *testing.T) {
	cases := []struct {
		name      string
		insertErr error
		want      error
	}{
		{"username index", ErrDuplicateUsername, ErrUsernameTaken},
		{"email index", ErrDuplicateEmail, ErrEmailTaken},
		{"unnamed constraint", ErrDuplicate, ErrEmailTaken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, users, _, _ := newTestService()
			users.createErr = tc.insertErr
			_, _, err := svc.Signup(context.Background(), validSignup(), auth.SessionMetadata{})
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

// =========== Login ===========

func TestLogin_Success(t *testing.T) {
	svc, _, _, _ := newTestService()
	if _, _, err := svc.Signup(context.Background(), validSignup(), auth.SessionMetadata{}); err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	resp, refresh, err := svc.Login(context.Background(),
		LoginInput{Email: "jane@example.com", Password: "correct-horse"}, auth.SessionMetadata{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.AccessToken == "" || refresh == "" {
		t.Error("expected both tokens")
	}
	if resp.User.Email != "jane@example.com" {
		t.Errorf("unexpected user: %+v", resp.User)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _, _, _ := newTestService()
	svc.Signup(context.Background(), validSignup(), auth.SessionMetadata{})

	_, _, err := svc.Login(context.Background(),
		LoginInput{Email: "jane@example.com", Password: "wrong-horse"}, auth.SessionMetadata{})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, _, err := svc.Login(context.Background(),
		LoginInput{Email: "nobody@example.com", Password: "whatever-pw"}, auth.SessionMetadata{})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_InactiveAccount(t *testing.T) {
	svc, users, _, _ := newTestService()
	svc.Signup(context.Background(), validSignup(), auth.SessionMetadata{})

	u, _ := users.GetByEmail(context.Background(), "jane@example.com")
	u.IsActive = false

	_, _, err := svc.Login(context.Background(),
		LoginInput{Email: "jane@example.com", Password: "correct-horse"}, auth.SessionMetadata{})
	if !errors.Is(err, ErrAccountInactive) {
		t.Errorf("expected ErrAccountInactive, got %v", err)
	}
}

// =========== Refresh / Logout ===========

func TestRefresh_RotatesToken(t *testing.T) {
	svc, _, _, _ := newTestService()
	_, refresh, err := svc.Signup(context.Background(), validSignup(), auth.SessionMetadata{})
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	resp, next, err := svc.Refresh(context.Background(), refresh, auth.SessionMetadata{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next == refresh {
		t.Error("expected a different refresh token after rotation")
	}
	if resp.AccessToken == "" {
		t.Error("expected a fresh access token")
	}

	// The consumed token must be dead.
	if _, _, err := svc.Refresh(context.Background(), refresh, auth.SessionMetadata{}); !errors.Is(err, auth.ErrInvalidSession) {
		t.Errorf("expected replay to fail with ErrInvalidSession, got %v", err)
	}
}

func TestRefresh_GarbageToken(t *testing.T) {
	svc, _, _, _ := newTestService()
	if _, _, err := svc.Refresh(context.Background(), "no-such-token", auth.SessionMetadata{}); !errors.Is(err, auth.ErrInvalidSession) {
		t.Errorf("expected ErrInvalidSession, got %v", err)
	}
}

func TestRefresh_DeactivatedUser(t *testing.T) {
	svc, users, _, _ := newTestService()
	_, refresh, _ := svc.Signup(context.Background(), validSignup(), auth.SessionMetadata{})

	u, _ := users.GetByEmail(context.Background(), "jane@example.com")
	u.IsActive = false

	if _, _, err := svc.Refresh(context.Background(), refresh, auth.SessionMetadata{}); !errors.Is(err, ErrAccountInactive) {
		t.Errorf("expected ErrAccountInactive, got %v", err)
	}
}

func TestLogout_AlwaysSucceeds(t *testing.T) {
	svc, _, _, _ := newTestService()
	if err := svc.Logout(context.Background(), "never-issued"); err != nil {
		t.Errorf("expected logout of unknown token to succeed, got %v", err)
	}
	if err := svc.Logout(context.Background(), ""); err != nil {
		t.Errorf("expected logout with empty token to succeed, got %v", err)
	}

	_, refresh, _ := svc.Signup(context.Background(), validSignup(), auth.SessionMetadata{})
	if err := svc.Logout(context.Background(), refresh); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := svc.Refresh(context.Background(), refresh, auth.SessionMetadata{}); !errors.Is(err, auth.ErrInvalidSession) {
		t.Errorf("expected revoked token to be rejected, got %v", err)
	}
}

// =========== VerifyUser ===========

func TestVerifyUser(t *testing.T) {
	svc, users, _, _ := newTestService()
	svc.Signup(context.Background(), validSignup(), auth.SessionMetadata{})
	u, _ := users.GetByEmail(context.Background(), "jane@example.com")

	got, err := svc.VerifyUser(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != u.ID || got.Role != auth.RolePatient {
		t.Errorf("unexpected auth user: %+v", got)
	}

	if _, err := svc.VerifyUser(context.Background(), uuid.New()); !errors.Is(err, auth.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}

	u.IsActive = false
	if _, err := svc.VerifyUser(context.Background(), u.ID); !errors.Is(err, auth.ErrUserInactive) {
		t.Errorf("expected ErrUserInactive, got %v", err)
	}
}

func TestProfileResolvers(t *testing.T) {
	svc, users, _, patients := newTestService()
	svc.Signup(context.Background(), validSignup(), auth.SessionMetadata{})
	u, _ := users.GetByEmail(context.Background(), "jane@example.com")
	p, _ := patients.GetByUserID(context.Background(), u.ID)

	id, err := svc.PatientIDForUser(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != p.ID {
		t.Errorf("expected patient id %s, got %s", p.ID, id)
	}

	if _, err := svc.DoctorIDForUser(context.Background(), u.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for patient account, got %v", err)
	}
}
