package notification

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

const notificationCols = `id, user_id, type, title, description, read, priority,
	action_url, action_label, timestamp, created_at, updated_at`

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) Create(ctx context.Context, n *Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	now := time.Now().UTC()
	if n.Timestamp.IsZero() {
		n.Timestamp = now
	}
	n.CreatedAt = now
	n.UpdatedAt = now
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO notifications (id, user_id, type, title, description, read,
			priority, action_url, action_label, timestamp, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		n.ID, n.UserID, n.Type, n.Title, n.Description, n.Read,
		n.Priority, n.ActionURL, n.ActionLabel, n.Timestamp, n.CreatedAt, n.UpdatedAt)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Notification, error) {
	var n Notification
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+notificationCols+` FROM notifications WHERE id = $1`, id).
		Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Description, &n.Read, &n.Priority,
			&n.ActionURL, &n.ActionLabel, &n.Timestamp, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *repoPG) ListByUser(ctx context.Context, userID uuid.UUID, typeFilter string, unreadOnly bool) ([]*Notification, error) {
	if typeFilter == "all" {
		typeFilter = ""
	}
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT `+notificationCols+`
		FROM notifications
		WHERE user_id = $1
			AND ($2 = '' OR type = $2)
			AND (NOT $3::boolean OR NOT read)
		ORDER BY timestamp DESC`,
		userID, typeFilter, unreadOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Description, &n.Read,
			&n.Priority, &n.ActionURL, &n.ActionLabel, &n.Timestamp, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, &n)
	}
	return items, rows.Err()
}

func (r *repoPG) MarkRead(ctx context.Context, id uuid.UUID) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE notifications SET read = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) UnreadCountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT read`, userID).Scan(&n)
	return n, err
}
