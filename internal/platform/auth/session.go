package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidSession is returned when a presented refresh token does not map
// to a currently valid session: unknown, revoked or expired. Callers convert
// it to an HTTP 401; any other error is an infrastructure failure.
var ErrInvalidSession = errors.New("invalid session")

// Session is a persisted refresh-token record. Only the SHA-256 of the raw
// secret is stored; the raw value lives solely in the client's cookie and is
// never retrievable after issuance. Records are revoked, never deleted.
type Session struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	UserID     uuid.UUID  `db:"user_id" json:"user_id"`
	TokenHash  string     `db:"token_hash" json:"-"`
	ExpiresAt  time.Time  `db:"expires_at" json:"expires_at"`
	Revoked    bool       `db:"revoked" json:"revoked"`
	IPAddress  *string    `db:"ip_address" json:"ip_address,omitempty"`
	DeviceInfo *string    `db:"device_info" json:"device_info,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	LastUsedAt *time.Time `db:"last_used_at" json:"last_used_at,omitempty"`
}

// Valid reports whether the session can still be exchanged.
func (s *Session) Valid(now time.Time) bool {
	return !s.Revoked && now.Before(s.ExpiresAt)
}

// SessionMetadata is client information recorded alongside a session.
type SessionMetadata struct {
	IPAddress  string
	DeviceInfo string
}

// SessionRepository is the persistence contract for refresh-token sessions.
type SessionRepository interface {
	Create(ctx context.Context, s *Session) error
	// Consume atomically revokes the valid session with the given token hash
	// and stamps last_used_at. The conditional update must be a single
	// statement so two concurrent exchanges of the same token cannot both
	// observe it as valid. Returns the owning user id; consumed=false when no
	// valid session matched.
	Consume(ctx context.Context, tokenHash string, now time.Time) (userID uuid.UUID, consumed bool, err error)
	// Revoke marks the session with the given token hash revoked. Unknown or
	// already-revoked hashes are not an error.
	Revoke(ctx context.Context, tokenHash string) error
	GetByHash(ctx context.Context, tokenHash string) (*Session, error)
}

// SessionStore issues, rotates and revokes refresh tokens.
type SessionStore struct {
	repo SessionRepository
	ttl  time.Duration
	now  func() time.Time
}

func NewSessionStore(repo SessionRepository, ttl time.Duration) *SessionStore {
	return &SessionStore{repo: repo, ttl: ttl, now: time.Now}
}

// TTL returns the configured refresh-token lifetime.
func (s *SessionStore) TTL() time.Duration { return s.ttl }

// Issue creates a new session for the identity and returns the raw token for
// delivery to the client.
func (s *SessionStore) Issue(ctx context.Context, userID uuid.UUID, meta SessionMetadata) (string, error) {
	raw, err := newRawToken()
	if err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}

	sess := &Session{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: HashToken(raw),
		ExpiresAt: s.now().Add(s.ttl),
		CreatedAt: s.now(),
	}
	if meta.IPAddress != "" {
		sess.IPAddress = &meta.IPAddress
	}
	if meta.DeviceInfo != "" {
		sess.DeviceInfo = &meta.DeviceInfo
	}

	if err := s.repo.Create(ctx, sess); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return raw, nil
}

// ValidateAndRotate exchanges a raw refresh token for a fresh one belonging
// to the same identity. The old session is revoked before the replacement is
// created: a crash in between strands the client with no token, which is
// recoverable, whereas the reverse order could leave two tokens valid.
// Returns ErrInvalidSession when the token is unknown, revoked or expired.
func (s *SessionStore) ValidateAndRotate(ctx context.Context, raw string, meta SessionMetadata) (uuid.UUID, string, error) {
	userID, consumed, err := s.repo.Consume(ctx, HashToken(raw), s.now())
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("consume session: %w", err)
	}
	if !consumed {
		return uuid.Nil, "", ErrInvalidSession
	}

	next, err := s.Issue(ctx, userID, meta)
	if err != nil {
		return uuid.Nil, "", err
	}
	return userID, next, nil
}

// Revoke invalidates the session for the given raw token. Revoking an
// unknown or already-revoked token succeeds silently.
func (s *SessionStore) Revoke(ctx context.Context, raw string) error {
	return s.repo.Revoke(ctx, HashToken(raw))
}

// HashToken maps a raw refresh token to its storage hash.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// newRawToken returns a 256-bit random opaque string, URL-safe for cookies.
func newRawToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
