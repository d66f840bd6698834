package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/prescribeme/api/internal/platform/auth"
)

var (
	ErrEmailTaken         = errors.New("identity: email already registered")
	ErrUsernameTaken      = errors.New("identity: username already taken")
	ErrInvalidEmail       = errors.New("identity: invalid email address")
	ErrInvalidRole        = errors.New("identity: role must be patient or doctor")
	ErrWeakPassword       = errors.New("identity: password must be at least 8 characters")
	ErrInvalidCredentials = errors.New("identity: incorrect email or password")
	ErrAccountInactive    = errors.New("identity: account is inactive")
)

// TxRunner executes fn atomically. Repository calls made inside fn share one
// transaction.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// dummySecret keeps password verification on the login path even when the
// email is unknown, so response timing does not reveal which field failed.
var dummySecret = func() string {
	s, _ := auth.HashPassword("timing-equalizer")
	return s
}()

// Service implements account lifecycle and session management.
type Service struct {
	users    UserRepository
	doctors  DoctorProfileRepository
	patients PatientProfileRepository
	codec    *auth.TokenCodec
	sessions *auth.SessionStore
	inTx     TxRunner
}

func NewService(users UserRepository, doctors DoctorProfileRepository, patients PatientProfileRepository,
	codec *auth.TokenCodec, sessions *auth.SessionStore, inTx TxRunner) *Service {
	if inTx == nil {
		inTx = func(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
	}
	return &Service{users: users, doctors: doctors, patients: patients,
		codec: codec, sessions: sessions, inTx: inTx}
}

// Signup registers a new account with its role profile and opens a session.
// The returned string is the raw refresh token for the session cookie.
func (s *Service) Signup(ctx context.Context, in SignupInput, meta auth.SessionMetadata) (*TokenResponse, string, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)

	if _, err := mail.ParseAddress(email); err != nil {
		return nil, "", ErrInvalidEmail
	}
	if len(in.Password) < 8 {
		return nil, "", ErrWeakPassword
	}
	role, ok := auth.ParseRole(in.Role)
	if !ok || (role != auth.RolePatient && role != auth.RoleDoctor) {
		return nil, "", ErrInvalidRole
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, "", err
	}
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, "", ErrUsernameTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, "", err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		Email:        email,
		Username:     username,
		FullName:     strings.TrimSpace(in.FullName),
		PasswordHash: hash,
		IsActive:     true,
		IsVerified:   false,
		Role:         role,
	}

	// The account and its role profile are created together or not at all.
	err = s.inTx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, user); err != nil {
			return err
		}
		switch role {
		case auth.RoleDoctor:
			return s.doctors.Create(ctx, &DoctorProfile{UserID: user.ID, Languages: []string{}})
		default:
			return s.patients.Create(ctx, &PatientProfile{UserID: user.ID, Status: "active"})
		}
	})
	if err != nil {
		// The pre-insert checks above can lose a race; the unique index
		// that fired says which field to report.
		switch {
		case errors.Is(err, ErrDuplicateUsername):
			return nil, "", ErrUsernameTaken
		case errors.Is(err, ErrDuplicate):
			return nil, "", ErrEmailTaken
		}
		return nil, "", err
	}

	return s.openSession(ctx, user, meta)
}

// Login authenticates by email and password and opens a session.
func (s *Service) Login(ctx context.Context, in LoginInput, meta auth.SessionMetadata) (*TokenResponse, string, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		// Burn a hash comparison anyway so unknown emails cost the same as
		// wrong passwords.
		auth.VerifyPassword(in.Password, dummySecret)
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}

	if !auth.VerifyPassword(in.Password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, "", ErrAccountInactive
	}

	return s.openSession(ctx, user, meta)
}

// Refresh rotates a refresh token and issues a new access token. The
// presented token is revoked whether or not rotation succeeds.
func (s *Service) Refresh(ctx context.Context, rawRefresh string, meta auth.SessionMetadata) (*TokenResponse, string, error) {
	userID, next, err := s.sessions.ValidateAndRotate(ctx, rawRefresh, meta)
	if err != nil {
		return nil, "", err
	}

	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, "", auth.ErrInvalidSession
	}
	if err != nil {
		return nil, "", err
	}
	if !user.IsActive {
		return nil, "", ErrAccountInactive
	}

	resp, err := s.tokenResponse(user)
	if err != nil {
		return nil, "", err
	}
	return resp, next, nil
}

// Logout revokes the presented refresh token. Unknown or already-revoked
// tokens are not an error; logout always succeeds.
func (s *Service) Logout(ctx context.Context, rawRefresh string) error {
	if rawRefresh == "" {
		return nil
	}
	return s.sessions.Revoke(ctx, rawRefresh)
}

// VerifyUser resolves an access-token subject to a live account. It backs the
// request authentication middleware.
func (s *Service) VerifyUser(ctx context.Context, id uuid.UUID) (*auth.AuthUser, error) {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, auth.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, auth.ErrUserInactive
	}
	return user.AuthUser(), nil
}

// GetUser returns the account for the given id.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

// DoctorProfileForUser returns the doctor profile owned by the given account.
func (s *Service) DoctorProfileForUser(ctx context.Context, userID uuid.UUID) (*DoctorProfile, error) {
	return s.doctors.GetByUserID(ctx, userID)
}

// PatientProfileForUser returns the patient profile owned by the given account.
func (s *Service) PatientProfileForUser(ctx context.Context, userID uuid.UUID) (*PatientProfile, error) {
	return s.patients.GetByUserID(ctx, userID)
}

// PatientIDForUser resolves an account to its patient profile id. Other
// domains use it to scope queries to the calling patient.
func (s *Service) PatientIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	p, err := s.patients.GetByUserID(ctx, userID)
	if err != nil {
		return uuid.Nil, err
	}
	return p.ID, nil
}

// DoctorIDForUser resolves an account to its doctor profile id.
func (s *Service) DoctorIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	p, err := s.doctors.GetByUserID(ctx, userID)
	if err != nil {
		return uuid.Nil, err
	}
	return p.ID, nil
}

// GetPatient returns one patient profile by id.
func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*PatientProfile, error) {
	return s.patients.GetByID(ctx, id)
}

// GetDoctor returns one doctor profile by id.
func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*DoctorProfile, error) {
	return s.doctors.GetByID(ctx, id)
}

// ListDoctors returns the patient-facing doctor directory.
func (s *Service) ListDoctors(ctx context.Context, specialty string, acceptingOnly bool, limit, offset int) ([]*DoctorListing, int, error) {
	return s.doctors.List(ctx, specialty, acceptingOnly, limit, offset)
}

// ListPatients returns the doctor-facing patient roster.
func (s *Service) ListPatients(ctx context.Context, search string, limit, offset int) ([]*PatientListing, int, error) {
	return s.patients.List(ctx, search, limit, offset)
}

func (s *Service) openSession(ctx context.Context, user *User, meta auth.SessionMetadata) (*TokenResponse, string, error) {
	resp, err := s.tokenResponse(user)
	if err != nil {
		return nil, "", err
	}
	refresh, err := s.sessions.Issue(ctx, user.ID, meta)
	if err != nil {
		return nil, "", err
	}
	return resp, refresh, nil
}

func (s *Service) tokenResponse(user *User) (*TokenResponse, error) {
	access, err := s.codec.Issue(user.ID, user.Email, user.Username, user.Role.String())
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	return &TokenResponse{
		AccessToken: access,
		TokenType:   "bearer",
		ExpiresIn:   int(s.codec.TTL().Seconds()),
		User:        user.Public(),
	}, nil
}
