package portal

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/prescribeme/api/internal/domain/identity"
	"github.com/prescribeme/api/internal/platform/auth"
	"github.com/prescribeme/api/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group, authn echo.MiddlewareFunc) {
	patients := api.Group("/patients", authn, auth.RequireRole(auth.RolePatient))
	patients.GET("/dashboard", h.Dashboard)

	doctors := api.Group("/doctors", authn, auth.RequireRole(auth.RoleDoctor))
	doctors.GET("/patients", h.Roster)
	doctors.GET("/patients/:id", h.PatientDetail)
}

func (h *Handler) Dashboard(c echo.Context) error {
	user := auth.UserFromContext(c.Request().Context())
	d, err := h.svc.DashboardForUser(c.Request().Context(), user.ID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Roster(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.Roster(c.Request().Context(), c.QueryParam("search"), pg.Limit, pg.Offset)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) PatientDetail(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	d, err := h.svc.PatientDetail(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func mapError(err error) error {
	if errors.Is(err, identity.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}
