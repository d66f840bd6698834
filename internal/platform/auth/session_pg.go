package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type sessionRepoPG struct{ pool *pgxpool.Pool }

func NewSessionRepoPG(pool *pgxpool.Pool) SessionRepository {
	return &sessionRepoPG{pool: pool}
}

const sessionCols = `id, user_id, token_hash, expires_at, revoked,
	ip_address, device_info, created_at, last_used_at`

func (r *sessionRepoPG) Create(ctx context.Context, s *Session) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, revoked, ip_address, device_info, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		s.ID, s.UserID, s.TokenHash, s.ExpiresAt, s.Revoked, s.IPAddress, s.DeviceInfo, s.CreatedAt)
	return err
}

// Consume revokes the session iff it is currently valid, in one conditional
// update. Concurrent calls racing on the same hash get at most one row back.
func (r *sessionRepoPG) Consume(ctx context.Context, tokenHash string, now time.Time) (uuid.UUID, bool, error) {
	var userID uuid.UUID
	err := r.pool.QueryRow(ctx, `
		UPDATE refresh_tokens
		SET revoked = TRUE, last_used_at = $2
		WHERE token_hash = $1 AND NOT revoked AND expires_at > $2
		RETURNING user_id`,
		tokenHash, now).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	return userID, true, nil
}

func (r *sessionRepoPG) Revoke(ctx context.Context, tokenHash string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE refresh_tokens SET revoked = TRUE WHERE token_hash = $1 AND NOT revoked`,
		tokenHash)
	return err
}

func (r *sessionRepoPG) GetByHash(ctx context.Context, tokenHash string) (*Session, error) {
	var s Session
	err := r.pool.QueryRow(ctx, `SELECT `+sessionCols+` FROM refresh_tokens WHERE token_hash = $1`, tokenHash).
		Scan(&s.ID, &s.UserID, &s.TokenHash, &s.ExpiresAt, &s.Revoked,
			&s.IPAddress, &s.DeviceInfo, &s.CreatedAt, &s.LastUsedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
