package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const userKey contextKey = "auth_user"

// Errors a UserVerifier reports for subjects that decode fine but no longer
// map to a usable account.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserInactive = errors.New("user inactive")
)

// AuthUser is the verified identity attached to a request.
type AuthUser struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	Username   string    `json:"username"`
	FullName   string    `json:"full_name"`
	Role       Role      `json:"role"`
	IsActive   bool      `json:"is_active"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
}

// UserVerifier loads the identity a token subject refers to, confirming it
// still exists and is active. Implemented by the identity service.
type UserVerifier interface {
	VerifyUser(ctx context.Context, id uuid.UUID) (*AuthUser, error)
}

// Middleware authenticates requests via the Authorization bearer token.
// A missing, malformed, expired or mistyped token is 401. A token whose
// subject resolves to an inactive account is 403: the caller proved who they
// are, the account just cannot be used.
func Middleware(codec *TokenCodec, users UserVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims := codec.Decode(parts[1])
			if claims == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			subject, err := uuid.Parse(claims.Subject)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token payload")
			}

			user, err := users.VerifyUser(c.Request().Context(), subject)
			switch {
			case errors.Is(err, ErrUserInactive):
				return echo.NewHTTPError(http.StatusForbidden, "account is inactive")
			case err != nil:
				return echo.NewHTTPError(http.StatusUnauthorized, "user not found")
			}

			c.SetRequest(c.Request().WithContext(WithUser(c.Request().Context(), user)))
			return next(c)
		}
	}
}

// RequireRole gates a route to the given roles. Role mismatch is 403, not
// 401: the identity is verified, it just isn't allowed here.
func RequireRole(roles ...Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := UserFromContext(c.Request().Context())
			if user == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			for _, allowed := range roles {
				if user.Role == allowed {
					return next(c)
				}
			}
			names := make([]string, len(roles))
			for i, r := range roles {
				names[i] = r.String()
			}
			return echo.NewHTTPError(http.StatusForbidden,
				"access restricted to: "+strings.Join(names, ", "))
		}
	}
}

// WithUser returns a context carrying the verified identity.
func WithUser(ctx context.Context, user *AuthUser) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the verified identity, or nil outside an
// authenticated request.
func UserFromContext(ctx context.Context) *AuthUser {
	user, _ := ctx.Value(userKey).(*AuthUser)
	return user
}
