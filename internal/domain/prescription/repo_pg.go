package prescription

import (
	"context"
	"errors"
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

func conn(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return pool
}

// =========== Prescription Repository ===========

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const prescriptionCols = `id, patient_id, doctor_id, medication, generic_name,
	dosage, frequency, duration, prescribed_date, expiry_date, status,
	instructions, notes, refills, refills_remaining,
	pharmacy_name, pharmacy_address, pharmacy_phone,
	warnings, side_effects, interactions, created_at, updated_at`

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.PatientID, &p.DoctorID, &p.Medication, &p.GenericName,
		&p.Dosage, &p.Frequency, &p.Duration, &p.PrescribedDate, &p.ExpiryDate, &p.Status,
		&p.Instructions, &p.Notes, &p.Refills, &p.RefillsRemaining,
		&p.PharmacyName, &p.PharmacyAddress, &p.PharmacyPhone,
		&p.Warnings, &p.SideEffects, &p.Interactions, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Prescription) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Warnings == nil {
		p.Warnings = []string{}
	}
	if p.SideEffects == nil {
		p.SideEffects = []string{}
	}
	if p.Interactions == nil {
		p.Interactions = []string{}
	}
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO prescriptions (id, patient_id, doctor_id, medication, generic_name,
			dosage, frequency, duration, prescribed_date, expiry_date, status,
			instructions, notes, refills, refills_remaining,
			pharmacy_name, pharmacy_address, pharmacy_phone,
			warnings, side_effects, interactions, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)`,
		p.ID, p.PatientID, p.DoctorID, p.Medication, p.GenericName,
		p.Dosage, p.Frequency, p.Duration, p.PrescribedDate, p.ExpiryDate, p.Status,
		p.Instructions, p.Notes, p.Refills, p.RefillsRemaining,
		p.PharmacyName, p.PharmacyAddress, p.PharmacyPhone,
		p.Warnings, p.SideEffects, p.Interactions, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return scanPrescription(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+prescriptionCols+` FROM prescriptions WHERE id = $1`, id))
}

func (r *repoPG) Detail(ctx context.Context, id uuid.UUID) (*Detail, error) {
	var d Detail
	var pharmacyName *string
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT p.id, p.patient_id, p.medication, p.generic_name, p.dosage, p.frequency,
			p.duration, p.prescribed_date, p.expiry_date, p.status,
			p.refills_remaining, p.refills + p.refills_remaining,
			p.instructions, p.warnings, p.side_effects, p.interactions,
			u.full_name, d.specialty, u.email,
			p.pharmacy_name, p.pharmacy_address, p.pharmacy_phone
		FROM prescriptions p
		JOIN doctor_profiles d ON d.id = p.doctor_id
		JOIN users u ON u.id = d.user_id
		WHERE p.id = $1`, id).Scan(
		&d.ID, &d.PatientID, &d.Medication, &d.GenericName, &d.Dosage, &d.Frequency,
		&d.Duration, &d.PrescribedDate, &d.ExpiryDate, &d.Status,
		&d.RefillsRemaining, &d.TotalRefills,
		&d.Instructions, &d.Warnings, &d.SideEffects, &d.Interactions,
		&d.Doctor.Name, &d.Doctor.Specialty, &d.Doctor.Email,
		&pharmacyName, &d.Pharmacy.Address, &d.Pharmacy.Phone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if pharmacyName != nil {
		d.Pharmacy.Name = *pharmacyName
	} else {
		d.Pharmacy.Name = "Not specified"
	}
	return &d, nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, status string) ([]*ListItem, error) {
	if status == "all" {
		status = ""
	}
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT p.id, p.medication, p.dosage, p.frequency, u.full_name,
			p.prescribed_date, p.expiry_date, p.status, p.refills_remaining,
			COALESCE(p.pharmacy_name, 'Not specified')
		FROM prescriptions p
		JOIN doctor_profiles d ON d.id = p.doctor_id
		JOIN users u ON u.id = d.user_id
		WHERE p.patient_id = $1 AND ($2 = '' OR p.status = $2)
		ORDER BY p.prescribed_date DESC`, patientID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*ListItem
	for rows.Next() {
		var it ListItem
		if err := rows.Scan(&it.ID, &it.Medication, &it.Dosage, &it.Frequency, &it.Doctor,
			&it.PrescribedDate, &it.ExpiryDate, &it.Status, &it.RefillsRemaining, &it.Pharmacy); err != nil {
			return nil, err
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, status, search string) ([]*HistoryItem, error) {
	if status == "all" {
		status = ""
	}
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT p.id, pu.full_name, p.patient_id, p.medication, p.dosage, p.frequency,
			p.duration, p.prescribed_date, p.status, du.full_name
		FROM prescriptions p
		JOIN patient_profiles pp ON pp.id = p.patient_id
		JOIN users pu ON pu.id = pp.user_id
		JOIN doctor_profiles dp ON dp.id = p.doctor_id
		JOIN users du ON du.id = dp.user_id
		WHERE p.doctor_id = $1
			AND ($2 = '' OR p.status = $2)
			AND ($3 = '' OR pu.full_name ILIKE '%' || $3 || '%' OR p.medication ILIKE '%' || $3 || '%')
		ORDER BY p.prescribed_date DESC`, doctorID, status, search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*HistoryItem
	for rows.Next() {
		var it HistoryItem
		if err := rows.Scan(&it.ID, &it.PatientName, &it.PatientID, &it.Medication, &it.Dosage,
			&it.Frequency, &it.Duration, &it.PrescribedDate, &it.Status, &it.PrescribedBy); err != nil {
			return nil, err
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

func (r *repoPG) ActiveByPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*ActiveItem, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT p.id, p.medication, p.dosage, p.frequency, u.full_name,
			GREATEST(0, COALESCE(EXTRACT(DAY FROM p.expiry_date - NOW()), 0))::int
		FROM prescriptions p
		JOIN doctor_profiles d ON d.id = p.doctor_id
		JOIN users u ON u.id = d.user_id
		WHERE p.patient_id = $1 AND p.status = 'active'
		ORDER BY p.prescribed_date DESC
		LIMIT $2`, patientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*ActiveItem
	for rows.Next() {
		var it ActiveItem
		if err := rows.Scan(&it.ID, &it.Medication, &it.Dosage, &it.Frequency, &it.Doctor, &it.DaysRemaining); err != nil {
			return nil, err
		}
		it.NextDose = nextDose(it.Frequency)
		items = append(items, &it)
	}
	return items, rows.Err()
}

// nextDose derives a display hint from the dosing frequency.
func nextDose(frequency string) string {
	if frequency == "Twice daily" {
		return "8:00 AM, 8:00 PM"
	}
	return "8:00 AM"
}

func (r *repoPG) CountByPatient(ctx context.Context, patientID uuid.UUID, status string) (int, error) {
	var total int
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT COUNT(*) FROM prescriptions
		WHERE patient_id = $1 AND ($2 = '' OR status = $2)`, patientID, status).Scan(&total)
	return total, err
}

func (r *repoPG) RecentByPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*ActivityRow, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT p.id, p.medication, p.dosage, u.full_name, p.created_at
		FROM prescriptions p
		JOIN doctor_profiles d ON d.id = p.doctor_id
		JOIN users u ON u.id = d.user_id
		WHERE p.patient_id = $1
		ORDER BY p.created_at DESC
		LIMIT $2`, patientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*ActivityRow
	for rows.Next() {
		var it ActivityRow
		if err := rows.Scan(&it.ID, &it.Medication, &it.Dosage, &it.Doctor, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

func (r *repoPG) DistinctDoctorCount(ctx context.Context, patientID uuid.UUID) (int, error) {
	var total int
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(DISTINCT doctor_id) FROM prescriptions WHERE patient_id = $1`, patientID).Scan(&total)
	return total, err
}

// =========== Pharmacy Repository ===========

type pharmacyRepoPG struct{ pool *pgxpool.Pool }

func NewPharmacyRepoPG(pool *pgxpool.Pool) PharmacyRepository {
	return &pharmacyRepoPG{pool: pool}
}

func (r *pharmacyRepoPG) Create(ctx context.Context, p *Pharmacy) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO pharmacies (id, name, address, phone, hours, latitude, longitude, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		p.ID, p.Name, p.Address, p.Phone, p.Hours, p.Latitude, p.Longitude, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *pharmacyRepoPG) List(ctx context.Context, search string) ([]*Pharmacy, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, name, address, phone, hours, latitude, longitude, created_at, updated_at
		FROM pharmacies
		WHERE $1 = '' OR name ILIKE '%' || $1 || '%' OR address ILIKE '%' || $1 || '%'
		ORDER BY name`, search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Pharmacy
	for rows.Next() {
		var p Pharmacy
		if err := rows.Scan(&p.ID, &p.Name, &p.Address, &p.Phone, &p.Hours,
			&p.Latitude, &p.Longitude, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, &p)
	}
	return items, rows.Err()
}
