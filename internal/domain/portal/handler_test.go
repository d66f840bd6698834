package portal

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/prescribeme/api/internal/platform/auth"
)

func invoke(t *testing.T, h echo.HandlerFunc, user *auth.AuthUser, method, path, paramID string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
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

func TestDashboardHandler(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)

	user := &auth.AuthUser{ID: f.userID, Role: auth.RolePatient}
	rec := invoke(t, h.Dashboard, user, http.MethodGet, "/api/v1/patients/dashboard", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var got map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	for _, key := range []string{"activePrescriptions", "upcomingAppointments", "recentActivity", "stats"} {
		if _, ok := got[key]; !ok {
			t.Errorf("missing %q in dashboard response", key)
		}
	}
}

func TestDashboardHandler_NoProfile(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)

	user := &auth.AuthUser{ID: uuid.New(), Role: auth.RolePatient}
	rec := invoke(t, h.Dashboard, user, http.MethodGet, "/api/v1/patients/dashboard", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestPatientDetailHandler_MalformedID(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)

	user := &auth.AuthUser{ID: uuid.New(), Role: auth.RoleDoctor}
	rec := invoke(t, h.PatientDetail, user, http.MethodGet,
		"/api/v1/doctors/patients/x", "not-a-uuid")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for malformed id, got %d", rec.Code)
	}
}
