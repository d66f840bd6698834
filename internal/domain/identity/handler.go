package identity

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/prescribeme/api/internal/platform/auth"
	"github.com/prescribeme/api/pkg/pagination"
)

const refreshCookieName = "refresh_token"

type Handler struct {
	svc *Service
	// secureCookies controls the Secure flag on the refresh cookie. Off in
	// local development so the cookie survives plain http.
	secureCookies bool
	refreshMaxAge int
}

func NewHandler(svc *Service, secureCookies bool, refreshMaxAge int) *Handler {
	return &Handler{svc: svc, secureCookies: secureCookies, refreshMaxAge: refreshMaxAge}
}

func (h *Handler) RegisterRoutes(api *echo.Group, authn echo.MiddlewareFunc) {
	api.POST("/auth/signup", h.Signup)
	api.POST("/auth/login", h.Login)
	api.POST("/auth/refresh", h.Refresh)
	api.POST("/auth/logout", h.Logout)

	api.GET("/auth/me", h.Me, authn)
	api.GET("/shared/profile", h.Me, authn)
	api.GET("/shared/settings", h.Settings, authn, auth.RequireRole(auth.RolePatient, auth.RoleDoctor))

	patients := api.Group("/patients", authn, auth.RequireRole(auth.RolePatient))
	patients.GET("/me", h.PatientProfile)
	patients.GET("/doctors", h.ListDoctors)

	doctors := api.Group("/doctors", authn, auth.RequireRole(auth.RoleDoctor))
	doctors.GET("/me", h.DoctorProfile)
}

func (h *Handler) Signup(c echo.Context) error {
	var in SignupInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	resp, refresh, err := h.svc.Signup(c.Request().Context(), in, sessionMeta(c))
	if err != nil {
		return h.mapError(c, err)
	}
	h.setRefreshCookie(c, refresh)
	return c.JSON(http.StatusCreated, resp)
}

func (h *Handler) Login(c echo.Context) error {
	var in LoginInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	resp, refresh, err := h.svc.Login(c.Request().Context(), in, sessionMeta(c))
	if err != nil {
		return h.mapError(c, err)
	}
	h.setRefreshCookie(c, refresh)
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) Refresh(c echo.Context) error {
	cookie, err := c.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
	}
	resp, next, err := h.svc.Refresh(c.Request().Context(), cookie.Value, sessionMeta(c))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidSession) {
			h.clearRefreshCookie(c)
		}
		return h.mapError(c, err)
	}
	h.setRefreshCookie(c, next)
	return c.JSON(http.StatusOK, resp)
}

// Logout revokes the session and clears the cookie. It returns 200 even when
// no valid session was presented.
func (h *Handler) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(refreshCookieName); err == nil {
		_ = h.svc.Logout(c.Request().Context(), cookie.Value)
	}
	h.clearRefreshCookie(c)
	return c.JSON(http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *Handler) Me(c echo.Context) error {
	user := auth.UserFromContext(c.Request().Context())
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	u, err := h.svc.GetUser(c.Request().Context(), user.ID)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, u.Public())
}

// Settings is a placeholder until per-user settings are stored.
func (h *Handler) Settings(c echo.Context) error {
	user := auth.UserFromContext(c.Request().Context())
	return c.JSON(http.StatusOK, map[string]interface{}{
		"user_id":  user.ID,
		"role":     user.Role,
		"settings": map[string]interface{}{},
	})
}

func (h *Handler) PatientProfile(c echo.Context) error {
	user := auth.UserFromContext(c.Request().Context())
	p, err := h.svc.PatientProfileForUser(c.Request().Context(), user.ID)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DoctorProfile(c echo.Context) error {
	user := auth.UserFromContext(c.Request().Context())
	p, err := h.svc.DoctorProfileForUser(c.Request().Context(), user.ID)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListDoctors(c echo.Context) error {
	pg := pagination.FromContext(c)
	accepting := c.QueryParam("accepting") == "true"
	items, total, err := h.svc.ListDoctors(c.Request().Context(), c.QueryParam("specialty"), accepting, pg.Limit, pg.Offset)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) mapError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ErrInvalidEmail), errors.Is(err, ErrWeakPassword),
		errors.Is(err, ErrInvalidRole), errors.Is(err, ErrEmailTaken),
		errors.Is(err, ErrUsernameTaken):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, "incorrect email or password")
	case errors.Is(err, auth.ErrInvalidSession):
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired refresh token")
	case errors.Is(err, ErrAccountInactive):
		return echo.NewHTTPError(http.StatusForbidden, "account is inactive")
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) setRefreshCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   h.refreshMaxAge,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func sessionMeta(c echo.Context) auth.SessionMetadata {
	return auth.SessionMetadata{
		IPAddress:  c.RealIP(),
		DeviceInfo: c.Request().UserAgent(),
	}
}
