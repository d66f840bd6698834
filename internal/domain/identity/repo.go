package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned by repositories when a row does not exist.
var ErrNotFound = errors.New("identity: not found")

// UserRepository is the persistence boundary for accounts.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
}

// DoctorProfileRepository is the persistence boundary for doctor profiles.
type DoctorProfileRepository interface {
	Create(ctx context.Context, p *DoctorProfile) error
	GetByID(ctx context.Context, id uuid.UUID) (*DoctorProfile, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*DoctorProfile, error)
	// List returns directory entries, optionally filtered by specialty and by
	// whether the doctor is accepting new patients.
	List(ctx context.Context, specialty string, acceptingOnly bool, limit, offset int) ([]*DoctorListing, int, error)
}

// PatientProfileRepository is the persistence boundary for patient profiles.
type PatientProfileRepository interface {
	Create(ctx context.Context, p *PatientProfile) error
	GetByID(ctx context.Context, id uuid.UUID) (*PatientProfile, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*PatientProfile, error)
	// List returns roster entries, optionally filtered by a name/email search
	// term.
	List(ctx context.Context, search string, limit, offset int) ([]*PatientListing, int, error)
}
