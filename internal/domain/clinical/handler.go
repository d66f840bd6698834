package clinical

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
	patients.GET("/medical-history", h.MedicalHistory)

	doctors := api.Group("/doctors", authn, auth.RequireRole(auth.RoleDoctor))
	doctors.GET("/patients/:id/conditions", h.PatientConditions)
	doctors.GET("/patients/:id/allergies", h.PatientAllergies)
	doctors.POST("/patients/:id/conditions", h.CreateCondition)
	doctors.POST("/patients/:id/allergies", h.CreateAllergy)
	doctors.POST("/patients/:id/surgeries", h.CreateSurgery)
	doctors.POST("/patients/:id/immunizations", h.CreateImmunization)
	doctors.POST("/patients/:id/lab-results", h.CreateLabResult)
}

func (h *Handler) MedicalHistory(c echo.Context) error {
	user := auth.UserFromContext(c.Request().Context())
	history, err := h.svc.HistoryForUser(c.Request().Context(), user.ID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, history)
}

func (h *Handler) PatientConditions(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	items, err := h.svc.ConditionsForPatient(c.Request().Context(), patientID)
	if err != nil {
		return mapError(err)
	}
	if items == nil {
		items = []*ConditionView{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) PatientAllergies(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	items, err := h.svc.AllergiesForPatient(c.Request().Context(), patientID)
	if err != nil {
		return mapError(err)
	}
	if items == nil {
		items = []*AllergyView{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) CreateCondition(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	var in ConditionInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	user := auth.UserFromContext(c.Request().Context())
	cond, err := h.svc.AddCondition(c.Request().Context(), user.ID, patientID, in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, cond)
}

func (h *Handler) CreateAllergy(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	var in AllergyInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.svc.AddAllergy(c.Request().Context(), patientID, in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) CreateSurgery(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	var in SurgeryInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sg, err := h.svc.AddSurgery(c.Request().Context(), patientID, in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, sg)
}

func (h *Handler) CreateImmunization(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	var in ImmunizationInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	im, err := h.svc.AddImmunization(c.Request().Context(), patientID, in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, im)
}

func (h *Handler) CreateLabResult(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	var in LabResultInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	user := auth.UserFromContext(c.Request().Context())
	lr, err := h.svc.AddLabResult(c.Request().Context(), user.ID, patientID, in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, lr)
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrPatientNotFound), errors.Is(err, ErrDoctorNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidRecord):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
