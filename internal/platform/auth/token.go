package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// tokenTypeAccess marks tokens issued for API access. Decode rejects any
// token carrying a different purpose even when the signature checks out.
const tokenTypeAccess = "access"

// Claims are the identity claims carried by an access token.
type Claims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Type     string `json:"type"`
}

// TokenCodec issues and validates signed access tokens. The signing secret
// and lifetime are fixed at construction; the clock is injectable for tests.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	return &TokenCodec{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL returns the declared access-token lifetime.
func (c *TokenCodec) TTL() time.Duration { return c.ttl }

// Issue signs an access token for the given identity.
func (c *TokenCodec) Issue(userID uuid.UUID, email, username, role string) (string, error) {
	now := c.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
		Email:    email,
		Username: username,
		Role:     role,
		Type:     tokenTypeAccess,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Decode verifies signature, expiry and token type. It returns nil for any
// invalid input — bad signature, expired, malformed, wrong type — and never
// panics on attacker-controlled token strings.
func (c *TokenCodec) Decode(tokenStr string) *Claims {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !token.Valid {
		return nil
	}
	if claims.Type != tokenTypeAccess {
		return nil
	}
	return claims
}
