package prescription

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
	patients.GET("/prescriptions", h.ListMine)
	patients.GET("/prescriptions/:id", h.GetMine)

	doctors := api.Group("/doctors", authn, auth.RequireRole(auth.RoleDoctor))
	doctors.GET("/prescriptions", h.History)
	doctors.POST("/prescriptions", h.Create)
	doctors.GET("/patients/:id/prescriptions", h.ListForPatient)

	shared := api.Group("/shared", authn, auth.RequireRole(auth.RolePatient, auth.RoleDoctor))
	shared.GET("/pharmacies", h.Pharmacies)
}

func (h *Handler) ListMine(c echo.Context) error {
	user := auth.UserFromContext(c.Request().Context())
	items, err := h.svc.ListForPatientUser(c.Request().Context(), user.ID, c.QueryParam("status"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetMine(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "prescription not found")
	}
	user := auth.UserFromContext(c.Request().Context())
	d, err := h.svc.DetailForPatientUser(c.Request().Context(), user.ID, id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	user := auth.UserFromContext(c.Request().Context())
	p, err := h.svc.Create(c.Request().Context(), user.ID, in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) History(c echo.Context) error {
	user := auth.UserFromContext(c.Request().Context())
	items, err := h.svc.HistoryForDoctorUser(c.Request().Context(), user.ID,
		c.QueryParam("status"), c.QueryParam("search"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListForPatient(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	items, err := h.svc.ListForPatient(c.Request().Context(), patientID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Pharmacies(c echo.Context) error {
	items, err := h.svc.Pharmacies(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, items)
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
