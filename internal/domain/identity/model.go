package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/prescribeme/api/internal/platform/auth"
)

// User maps to the users table. Accounts are never hard-deleted; deactivation
// happens through the is_active flag.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Username     string    `db:"username" json:"username"`
	FullName     string    `db:"full_name" json:"full_name"`
	PasswordHash string    `db:"password_hash" json:"-"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	IsVerified   bool      `db:"is_verified" json:"is_verified"`
	Role         auth.Role `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// PublicUser is the projection of a User exposed through the API.
type PublicUser struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	Username   string    `json:"username"`
	FullName   string    `json:"full_name"`
	Role       string    `json:"role"`
	IsActive   bool      `json:"is_active"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
}

func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:         u.ID,
		Email:      u.Email,
		Username:   u.Username,
		FullName:   u.FullName,
		Role:       u.Role.String(),
		IsActive:   u.IsActive,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
	}
}

// AuthUser converts to the identity shape the auth middleware attaches to
// requests.
func (u *User) AuthUser() *auth.AuthUser {
	return &auth.AuthUser{
		ID:         u.ID,
		Email:      u.Email,
		Username:   u.Username,
		FullName:   u.FullName,
		Role:       u.Role,
		IsActive:   u.IsActive,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
	}
}

// DoctorProfile maps to the doctor_profiles table.
type DoctorProfile struct {
	ID                   uuid.UUID `db:"id" json:"id"`
	UserID               uuid.UUID `db:"user_id" json:"user_id"`
	Specialty            string    `db:"specialty" json:"specialty"`
	Hospital             string    `db:"hospital" json:"hospital"`
	ExperienceYears      int       `db:"experience_years" json:"experience_years"`
	LicenseNumber        *string   `db:"license_number" json:"license_number,omitempty"`
	AcceptingNewPatients bool      `db:"accepting_new_patients" json:"accepting_new_patients"`
	Availability         *string   `db:"availability" json:"availability,omitempty"`
	Languages            []string  `db:"languages" json:"languages"`
	Rating               float64   `db:"rating" json:"rating"`
	ReviewCount          int       `db:"review_count" json:"review_count"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

// PatientProfile maps to the patient_profiles table.
type PatientProfile struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	UserID    uuid.UUID  `db:"user_id" json:"user_id"`
	Age       *int       `db:"age" json:"age,omitempty"`
	Gender    *string    `db:"gender" json:"gender,omitempty"`
	Phone     *string    `db:"phone" json:"phone,omitempty"`
	Address   *string    `db:"address" json:"address,omitempty"`
	BloodType *string    `db:"blood_type" json:"blood_type,omitempty"`
	Height    *string    `db:"height" json:"height,omitempty"`
	Weight    *string    `db:"weight" json:"weight,omitempty"`
	Status    string     `db:"status" json:"status"`
	LastVisit *time.Time `db:"last_visit" json:"last_visit,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// DoctorListing is a doctor profile joined with its account, as shown in the
// patient-facing directory.
type DoctorListing struct {
	ID                   uuid.UUID `json:"id"`
	FullName             string    `json:"name"`
	Email                string    `json:"email"`
	Specialty            string    `json:"specialty"`
	Hospital             string    `json:"hospital"`
	ExperienceYears      int       `json:"experience"`
	AcceptingNewPatients bool      `json:"accepting_new_patients"`
	Availability         *string   `json:"availability,omitempty"`
	Languages            []string  `json:"languages"`
	Rating               float64   `json:"rating"`
	ReviewCount          int       `json:"review_count"`
}

// PatientListing is a patient profile joined with its account, as shown in
// the doctor-facing roster.
type PatientListing struct {
	ID        uuid.UUID  `json:"id"`
	FullName  string     `json:"name"`
	Email     string     `json:"email"`
	Age       *int       `json:"age,omitempty"`
	Gender    *string    `json:"gender,omitempty"`
	Phone     *string    `json:"phone,omitempty"`
	Status    string     `json:"status"`
	LastVisit *time.Time `json:"last_visit,omitempty"`
}

// SignupInput is the payload accepted by the signup endpoint.
type SignupInput struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoginInput is the payload accepted by the login endpoint.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is the payload returned by signup, login and refresh.
type TokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int         `json:"expires_in"`
	User        *PublicUser `json:"user"`
}
