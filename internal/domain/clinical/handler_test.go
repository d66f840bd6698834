package clinical

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/prescribeme/api/internal/platform/auth"
)

func invoke(t *testing.T, h echo.HandlerFunc, user *auth.AuthUser, method, path, paramID, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if user != nil {
		req = req.WithContext(auth.WithUser(req.Context(), user))
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if paramID != "" {
		c.SetParamNames("id")
		c.SetParamValues(paramID)
	}
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestMedicalHistoryHandler(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	f.conditions.Create(context.Background(), &Condition{PatientID: f.patientID, Name: "Asthma",
		DiagnosedDate: date(2021, 4, 4), Status: "active", Severity: "mild"})

	user := &auth.AuthUser{ID: f.patientUserID, Role: auth.RolePatient}
	rec := invoke(t, h.MedicalHistory, user, http.MethodGet, "/api/v1/patients/medical-history", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var got MedicalHistory
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if len(got.Conditions) != 1 || got.Conditions[0].Name != "Asthma" {
		t.Errorf("unexpected conditions: %+v", got.Conditions)
	}
	if got.Allergies == nil || got.LabResults == nil {
		t.Error("expected empty sections to serialize as arrays")
	}
}

func TestPatientConditionsHandler_UnknownPatient(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	user := &auth.AuthUser{ID: f.doctorUserID, Role: auth.RoleDoctor}

	rec := invoke(t, h.PatientConditions, user, http.MethodGet,
		"/api/v1/doctors/patients/x/conditions", uuid.NewString(), "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}

	// A malformed id behaves like a missing record, not a server error.
	rec = invoke(t, h.PatientConditions, user, http.MethodGet,
		"/api/v1/doctors/patients/x/conditions", "not-a-uuid", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for malformed id, got %d", rec.Code)
	}
}

func TestCreateConditionHandler(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	user := &auth.AuthUser{ID: f.doctorUserID, Role: auth.RoleDoctor}

	rec := invoke(t, h.CreateCondition, user, http.MethodPost,
		"/api/v1/doctors/patients/x/conditions", f.patientID.String(),
		`{"name":"Type 2 Diabetes","diagnosed_date":"2024-01-10T00:00:00Z","severity":"moderate"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var got Condition
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if got.Status != "active" || got.DoctorID != f.doctorID {
		t.Errorf("unexpected condition: %+v", got)
	}
}

func TestCreateConditionHandler_BadPayload(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	user := &auth.AuthUser{ID: f.doctorUserID, Role: auth.RoleDoctor}

	rec := invoke(t, h.CreateCondition, user, http.MethodPost,
		"/api/v1/doctors/patients/x/conditions", f.patientID.String(),
		`{"diagnosed_date":"2024-01-10T00:00:00Z"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
