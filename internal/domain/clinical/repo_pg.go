package clinical

import (
	"context"
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

// =========== Condition Repository ===========

type conditionRepoPG struct{ pool *pgxpool.Pool }

func NewConditionRepoPG(pool *pgxpool.Pool) ConditionRepository {
	return &conditionRepoPG{pool: pool}
}

func (r *conditionRepoPG) Create(ctx context.Context, c *Condition) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO conditions (id, patient_id, doctor_id, name, diagnosed_date,
			status, severity, notes, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		c.ID, c.PatientID, c.DoctorID, c.Name, c.DiagnosedDate,
		c.Status, c.Severity, c.Notes, c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *conditionRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, onlyActive bool) ([]*ConditionView, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT c.id, c.name, c.diagnosed_date, c.status, c.severity, u.full_name, c.notes
		FROM conditions c
		JOIN doctor_profiles d ON d.id = c.doctor_id
		JOIN users u ON u.id = d.user_id
		WHERE c.patient_id = $1 AND (NOT $2::boolean OR c.status = 'active')
		ORDER BY c.diagnosed_date DESC`,
		patientID, onlyActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*ConditionView
	for rows.Next() {
		var v ConditionView
		if err := rows.Scan(&v.ID, &v.Name, &v.DiagnosedDate, &v.Status, &v.Severity, &v.Doctor, &v.Notes); err != nil {
			return nil, err
		}
		items = append(items, &v)
	}
	return items, rows.Err()
}

func (r *conditionRepoPG) ActiveNamesByPatient(ctx context.Context, patientID uuid.UUID) ([]string, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT name FROM conditions
		WHERE patient_id = $1 AND status = 'active'
		ORDER BY diagnosed_date DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// =========== Allergy Repository ===========

type allergyRepoPG struct{ pool *pgxpool.Pool }

func NewAllergyRepoPG(pool *pgxpool.Pool) AllergyRepository {
	return &allergyRepoPG{pool: pool}
}

func (r *allergyRepoPG) Create(ctx context.Context, a *Allergy) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO allergies (id, patient_id, allergen, reaction, severity,
			diagnosed_date, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		a.ID, a.PatientID, a.Allergen, a.Reaction, a.Severity,
		a.DiagnosedDate, a.CreatedAt, a.UpdatedAt)
	return err
}

func (r *allergyRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*AllergyView, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, allergen, reaction, severity, diagnosed_date
		FROM allergies WHERE patient_id = $1
		ORDER BY diagnosed_date DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*AllergyView
	for rows.Next() {
		var v AllergyView
		if err := rows.Scan(&v.ID, &v.Allergen, &v.Reaction, &v.Severity, &v.DiagnosedDate); err != nil {
			return nil, err
		}
		items = append(items, &v)
	}
	return items, rows.Err()
}

// =========== Surgery Repository ===========

type surgeryRepoPG struct{ pool *pgxpool.Pool }

func NewSurgeryRepoPG(pool *pgxpool.Pool) SurgeryRepository {
	return &surgeryRepoPG{pool: pool}
}

func (r *surgeryRepoPG) Create(ctx context.Context, s *Surgery) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO surgeries (id, patient_id, procedure, date, hospital,
			surgeon, notes, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		s.ID, s.PatientID, s.Procedure, s.Date, s.Hospital,
		s.Surgeon, s.Notes, s.CreatedAt, s.UpdatedAt)
	return err
}

func (r *surgeryRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*SurgeryView, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, procedure, date, hospital, surgeon, notes
		FROM surgeries WHERE patient_id = $1
		ORDER BY date DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*SurgeryView
	for rows.Next() {
		var v SurgeryView
		if err := rows.Scan(&v.ID, &v.Procedure, &v.Date, &v.Hospital, &v.Surgeon, &v.Notes); err != nil {
			return nil, err
		}
		items = append(items, &v)
	}
	return items, rows.Err()
}

// =========== Immunization Repository ===========

type immunizationRepoPG struct{ pool *pgxpool.Pool }

func NewImmunizationRepoPG(pool *pgxpool.Pool) ImmunizationRepository {
	return &immunizationRepoPG{pool: pool}
}

func (r *immunizationRepoPG) Create(ctx context.Context, im *Immunization) error {
	if im.ID == uuid.Nil {
		im.ID = uuid.New()
	}
	now := time.Now().UTC()
	im.CreatedAt = now
	im.UpdatedAt = now
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO immunizations (id, patient_id, vaccine, date, next_due,
			provider, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		im.ID, im.PatientID, im.Vaccine, im.Date, im.NextDue,
		im.Provider, im.CreatedAt, im.UpdatedAt)
	return err
}

func (r *immunizationRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*ImmunizationView, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, vaccine, date, next_due, provider
		FROM immunizations WHERE patient_id = $1
		ORDER BY date DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*ImmunizationView
	for rows.Next() {
		var v ImmunizationView
		if err := rows.Scan(&v.ID, &v.Vaccine, &v.Date, &v.NextDue, &v.Provider); err != nil {
			return nil, err
		}
		items = append(items, &v)
	}
	return items, rows.Err()
}

// =========== Lab Result Repository ===========

type labResultRepoPG struct{ pool *pgxpool.Pool }

func NewLabResultRepoPG(pool *pgxpool.Pool) LabResultRepository {
	return &labResultRepoPG{pool: pool}
}

func (r *labResultRepoPG) Create(ctx context.Context, lr *LabResult) error {
	if lr.ID == uuid.Nil {
		lr.ID = uuid.New()
	}
	now := time.Now().UTC()
	lr.CreatedAt = now
	lr.UpdatedAt = now
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO lab_results (id, patient_id, ordered_by, test, date, result,
			status, report_url, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		lr.ID, lr.PatientID, lr.OrderedBy, lr.Test, lr.Date, lr.Result,
		lr.Status, lr.ReportURL, lr.CreatedAt, lr.UpdatedAt)
	return err
}

func (r *labResultRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*LabResultView, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT l.id, l.test, l.date, l.result, l.status, u.full_name
		FROM lab_results l
		JOIN doctor_profiles d ON d.id = l.ordered_by
		JOIN users u ON u.id = d.user_id
		WHERE l.patient_id = $1
		ORDER BY l.date DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*LabResultView
	for rows.Next() {
		var v LabResultView
		if err := rows.Scan(&v.ID, &v.Test, &v.Date, &v.Result, &v.Status, &v.OrderedBy); err != nil {
			return nil, err
		}
		items = append(items, &v)
	}
	return items, rows.Err()
}

func (r *labResultRepoPG) CountByPatient(ctx context.Context, patientID uuid.UUID) (int, error) {
	var total int
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM lab_results WHERE patient_id = $1`, patientID).Scan(&total)
	return total, err
}
