package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prescribeme/api/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// ErrDuplicate is returned when an insert violates a unique constraint.
// The email and username variants wrap it so callers can tell which
// field collided when a pre-insert check lost a race.
var (
	ErrDuplicate         = errors.New("identity: duplicate value")
	ErrDuplicateEmail    = fmt.Errorf("%w: email", ErrDuplicate)
	ErrDuplicateUsername = fmt.Errorf("%w: username", ErrDuplicate)
)

func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case "idx_users_email":
			return ErrDuplicateEmail
		case "idx_users_username":
			return ErrDuplicateUsername
		}
		return ErrDuplicate
	}
	return err
}

// =========== User Repository ===========

type userRepoPG struct{ pool *pgxpool.Pool }

func NewUserRepoPG(pool *pgxpool.Pool) UserRepository {
	return &userRepoPG{pool: pool}
}

func (r *userRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const userCols = `id, email, username, full_name, password_hash,
	is_active, is_verified, role, created_at, updated_at`

func (r *userRepoPG) scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.FullName, &u.PasswordHash,
		&u.IsActive, &u.IsVerified, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, mapPgError(err)
	}
	return &u, nil
}

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO users (id, email, username, full_name, password_hash,
			is_active, is_verified, role, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		u.ID, u.Email, u.Username, u.FullName, u.PasswordHash,
		u.IsActive, u.IsVerified, u.Role, u.CreatedAt, u.UpdatedAt)
	return mapPgError(err)
}

func (r *userRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

func (r *userRepoPG) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE lower(email) = lower($1)`, email))
}

func (r *userRepoPG) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE lower(username) = lower($1)`, username))
}

// =========== Doctor Profile Repository ===========

type doctorRepoPG struct{ pool *pgxpool.Pool }

func NewDoctorRepoPG(pool *pgxpool.Pool) DoctorProfileRepository {
	return &doctorRepoPG{pool: pool}
}

func (r *doctorRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const doctorCols = `id, user_id, specialty, hospital, experience_years,
	license_number, accepting_new_patients, availability, languages,
	rating, review_count, created_at, updated_at`

func (r *doctorRepoPG) scanDoctor(row pgx.Row) (*DoctorProfile, error) {
	var p DoctorProfile
	err := row.Scan(&p.ID, &p.UserID, &p.Specialty, &p.Hospital, &p.ExperienceYears,
		&p.LicenseNumber, &p.AcceptingNewPatients, &p.Availability, &p.Languages,
		&p.Rating, &p.ReviewCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapPgError(err)
	}
	return &p, nil
}

func (r *doctorRepoPG) Create(ctx context.Context, p *DoctorProfile) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Languages == nil {
		p.Languages = []string{}
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO doctor_profiles (id, user_id, specialty, hospital, experience_years,
			license_number, accepting_new_patients, availability, languages,
			rating, review_count, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		p.ID, p.UserID, p.Specialty, p.Hospital, p.ExperienceYears,
		p.LicenseNumber, p.AcceptingNewPatients, p.Availability, p.Languages,
		p.Rating, p.ReviewCount, p.CreatedAt, p.UpdatedAt)
	return mapPgError(err)
}

func (r *doctorRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*DoctorProfile, error) {
	return r.scanDoctor(r.conn(ctx).QueryRow(ctx, `SELECT `+doctorCols+` FROM doctor_profiles WHERE id = $1`, id))
}

func (r *doctorRepoPG) GetByUserID(ctx context.Context, userID uuid.UUID) (*DoctorProfile, error) {
	return r.scanDoctor(r.conn(ctx).QueryRow(ctx, `SELECT `+doctorCols+` FROM doctor_profiles WHERE user_id = $1`, userID))
}

func (r *doctorRepoPG) List(ctx context.Context, specialty string, acceptingOnly bool, limit, offset int) ([]*DoctorListing, int, error) {
	where := `WHERE u.is_active
		AND ($1 = '' OR lower(d.specialty) = lower($1))
		AND (NOT $2::boolean OR d.accepting_new_patients)`

	var total int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM doctor_profiles d JOIN users u ON u.id = d.user_id `+where,
		specialty, acceptingOnly).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT d.id, u.full_name, u.email, d.specialty, d.hospital, d.experience_years,
			d.accepting_new_patients, d.availability, d.languages, d.rating, d.review_count
		FROM doctor_profiles d
		JOIN users u ON u.id = d.user_id `+where+`
		ORDER BY d.rating DESC, u.full_name
		LIMIT $3 OFFSET $4`,
		specialty, acceptingOnly, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*DoctorListing
	for rows.Next() {
		var d DoctorListing
		if err := rows.Scan(&d.ID, &d.FullName, &d.Email, &d.Specialty, &d.Hospital,
			&d.ExperienceYears, &d.AcceptingNewPatients, &d.Availability, &d.Languages,
			&d.Rating, &d.ReviewCount); err != nil {
			return nil, 0, err
		}
		items = append(items, &d)
	}
	return items, total, rows.Err()
}

// =========== Patient Profile Repository ===========

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientProfileRepository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const patientCols = `id, user_id, age, gender, phone, address, blood_type,
	height, weight, status, last_visit, created_at, updated_at`

func (r *patientRepoPG) scanPatient(row pgx.Row) (*PatientProfile, error) {
	var p PatientProfile
	err := row.Scan(&p.ID, &p.UserID, &p.Age, &p.Gender, &p.Phone, &p.Address,
		&p.BloodType, &p.Height, &p.Weight, &p.Status, &p.LastVisit,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapPgError(err)
	}
	return &p, nil
}

func (r *patientRepoPG) Create(ctx context.Context, p *PatientProfile) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = "active"
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient_profiles (id, user_id, age, gender, phone, address,
			blood_type, height, weight, status, last_visit, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		p.ID, p.UserID, p.Age, p.Gender, p.Phone, p.Address,
		p.BloodType, p.Height, p.Weight, p.Status, p.LastVisit,
		p.CreatedAt, p.UpdatedAt)
	return mapPgError(err)
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*PatientProfile, error) {
	return r.scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patient_profiles WHERE id = $1`, id))
}

func (r *patientRepoPG) GetByUserID(ctx context.Context, userID uuid.UUID) (*PatientProfile, error) {
	return r.scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patient_profiles WHERE user_id = $1`, userID))
}

func (r *patientRepoPG) List(ctx context.Context, search string, limit, offset int) ([]*PatientListing, int, error) {
	where := `WHERE u.is_active
		AND ($1 = '' OR u.full_name ILIKE '%' || $1 || '%' OR u.email ILIKE '%' || $1 || '%')`

	var total int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM patient_profiles p JOIN users u ON u.id = p.user_id `+where,
		search).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT p.id, u.full_name, u.email, p.age, p.gender, p.phone, p.status, p.last_visit
		FROM patient_profiles p
		JOIN users u ON u.id = p.user_id `+where+`
		ORDER BY u.full_name
		LIMIT $2 OFFSET $3`,
		search, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*PatientListing
	for rows.Next() {
		var p PatientListing
		if err := rows.Scan(&p.ID, &p.FullName, &p.Email, &p.Age, &p.Gender,
			&p.Phone, &p.Status, &p.LastVisit); err != nil {
			return nil, 0, err
		}
		items = append(items, &p)
	}
	return items, total, rows.Err()
}
