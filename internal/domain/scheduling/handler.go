package scheduling

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/prescribeme/api/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group, authn echo.MiddlewareFunc) {
	patients := api.Group("/patients", authn, auth.RequireRole(auth.RolePatient))
	patients.GET("/appointments", h.Upcoming)
	patients.POST("/appointments", h.Book)

	doctors := api.Group("/doctors", authn, auth.RequireRole(auth.RoleDoctor))
	doctors.GET("/appointments", h.Schedule)
	doctors.PUT("/appointments/:id/status", h.UpdateStatus)
}

func (h *Handler) Upcoming(c echo.Context) error {
	user := auth.UserFromContext(c.Request().Context())
	items, err := h.svc.UpcomingForUser(c.Request().Context(), user.ID, 0)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Book(c echo.Context) error {
	var in BookInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	user := auth.UserFromContext(c.Request().Context())
	a, err := h.svc.Book(c.Request().Context(), user.ID, in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Schedule(c echo.Context) error {
	user := auth.UserFromContext(c.Request().Context())
	items, err := h.svc.ScheduleForDoctorUser(c.Request().Context(), user.ID,
		c.QueryParam("status"), c.QueryParam("date"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	}
	var in struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	user := auth.UserFromContext(c.Request().Context())
	if err := h.svc.UpdateStatus(c.Request().Context(), user.ID, id, in.Status); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "appointment updated"})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrAccessDenied):
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrPatientNotFound), errors.Is(err, ErrDoctorNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
