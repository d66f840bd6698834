package scheduling

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

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, date, type, status,
			notes, duration_minutes, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		a.ID, a.PatientID, a.DoctorID, a.Date, a.Type, a.Status,
		a.Notes, a.DurationMinutes, a.CreatedAt, a.UpdatedAt)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	var a Appointment
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, patient_id, doctor_id, date, type, status, notes,
			duration_minutes, created_at, updated_at
		FROM appointments WHERE id = $1`, id).
		Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.Date, &a.Type, &a.Status,
			&a.Notes, &a.DurationMinutes, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repoPG) UpcomingByPatient(ctx context.Context, patientID uuid.UUID, from time.Time, limit int) ([]*UpcomingRow, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT a.id, u.full_name, d.specialty, a.date, a.type, a.status
		FROM appointments a
		JOIN doctor_profiles d ON d.id = a.doctor_id
		JOIN users u ON u.id = d.user_id
		WHERE a.patient_id = $1
			AND a.status IN ('upcoming', 'confirmed')
			AND a.date >= $2
		ORDER BY a.date ASC
		LIMIT $3`,
		patientID, from, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*UpcomingRow
	for rows.Next() {
		var v UpcomingRow
		if err := rows.Scan(&v.ID, &v.Doctor, &v.Specialty, &v.Date, &v.Type, &v.Status); err != nil {
			return nil, err
		}
		items = append(items, &v)
	}
	return items, rows.Err()
}

func (r *repoPG) ScheduleForDoctor(ctx context.Context, doctorID uuid.UUID, status string, day time.Time) ([]*ScheduleItem, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT a.id, u.full_name, a.patient_id, a.date, a.type, a.status,
			a.duration_minutes, a.notes
		FROM appointments a
		JOIN patient_profiles p ON p.id = a.patient_id
		JOIN users u ON u.id = p.user_id
		WHERE a.doctor_id = $1
			AND ($2 = '' OR a.status = $2)
			AND ($3::timestamptz = 'epoch'::timestamptz
				OR (a.date >= $3 AND a.date < $3 + INTERVAL '1 day'))
		ORDER BY a.date ASC`,
		doctorID, status, dayOrEpoch(day))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*ScheduleItem
	for rows.Next() {
		var v ScheduleItem
		if err := rows.Scan(&v.ID, &v.PatientName, &v.PatientID, &v.Date, &v.Type, &v.Status,
			&v.DurationMinutes, &v.Notes); err != nil {
			return nil, err
		}
		items = append(items, &v)
	}
	return items, rows.Err()
}

// dayOrEpoch turns the zero time into the epoch so the SQL day filter can
// use a plain comparison instead of a NULL check.
func dayOrEpoch(day time.Time) time.Time {
	if day.IsZero() {
		return time.Unix(0, 0).UTC()
	}
	return day
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE appointments SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) CountByPatient(ctx context.Context, patientID uuid.UUID) (int, error) {
	var n int
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointments WHERE patient_id = $1`, patientID).Scan(&n)
	return n, err
}

func (r *repoPG) RecentByPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*ActivityRow, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT a.id, a.type, u.full_name, a.date, a.status, a.created_at
		FROM appointments a
		JOIN doctor_profiles d ON d.id = a.doctor_id
		JOIN users u ON u.id = d.user_id
		WHERE a.patient_id = $1
		ORDER BY a.created_at DESC
		LIMIT $2`, patientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*ActivityRow
	for rows.Next() {
		var v ActivityRow
		if err := rows.Scan(&v.ID, &v.Type, &v.Doctor, &v.Date, &v.Status, &v.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &v)
	}
	return items, rows.Err()
}
