package identity

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/medbook/medbook/internal/platform/auth"
)

func newTestHandler() (*Handler, *echo.Echo) {
	svc := newTestService()
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	h := NewHandler(svc, issuer)
	e := echo.New()
	return h, e
}

func postJSON(e *echo.Echo, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_RegisterPatient(t *testing.T) {
	h, e := newTestHandler()
	body := `{"first_name":"Asha","last_name":"Rao","email":"asha@example.com","phone":"5550100","password":"s3cret-pw"}`
	c, rec := postJSON(e, body)

	if err := h.RegisterPatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var resp map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if _, ok := resp["access_token"]; !ok {
		t.Error("expected access_token in response")
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Error("response must not leak password material")
	}
}

func TestHandler_RegisterPatient_MissingField(t *testing.T) {
	h, e := newTestHandler()
	c, _ := postJSON(e, `{"first_name":"Asha"}`)

	err := h.RegisterPatient(c)
	if err == nil {
		t.Fatal("expected error for missing fields")
	}
	var httpErr *echo.HTTPError
	if !asHTTPError(err, &httpErr) || httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func asHTTPError(err error, target **echo.HTTPError) bool {
	he, ok := err.(*echo.HTTPError)
	if ok {
		*target = he
	}
	return ok
}

func TestHandler_LoginPatient(t *testing.T) {
	h, e := newTestHandler()
	reg := `{"first_name":"Asha","last_name":"Rao","email":"asha@example.com","phone":"5550100","password":"s3cret-pw"}`
	c, _ := postJSON(e, reg)
	if err := h.RegisterPatient(c); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	c, rec := postJSON(e, `{"email":"asha@example.com","password":"s3cret-pw"}`)
	if err := h.LoginPatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_LoginPatient_BadCredentials(t *testing.T) {
	h, e := newTestHandler()
	c, _ := postJSON(e, `{"email":"ghost@example.com","password":"pw"}`)

	err := h.LoginPatient(c)
	var httpErr *echo.HTTPError
	if !asHTTPError(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestHandler_RegisterDoctor(t *testing.T) {
	h, e := newTestHandler()
	body := `{"first_name":"Meera","last_name":"Iyer","email":"meera@example.com","phone":"5550200",
		"password":"s3cret-pw","specialization":"Cardiology","license_number":"LIC-1001"}`
	c, rec := postJSON(e, body)

	if err := h.RegisterDoctor(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"consultation_fee":500`) {
		t.Errorf("expected default consultation fee in response: %s", rec.Body.String())
	}
}

func TestHandler_RegisterDoctor_DuplicateLicense(t *testing.T) {
	h, e := newTestHandler()
	body := `{"first_name":"Meera","last_name":"Iyer","email":"meera@example.com","phone":"5550200",
		"password":"s3cret-pw","specialization":"Cardiology","license_number":"LIC-1001"}`
	c, _ := postJSON(e, body)
	if err := h.RegisterDoctor(c); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	body = strings.Replace(body, "meera@example.com", "other@example.com", 1)
	c, _ = postJSON(e, body)
	err := h.RegisterDoctor(c)
	var httpErr *echo.HTTPError
	if !asHTTPError(err, &httpErr) || httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_ListDoctors(t *testing.T) {
	h, e := newTestHandler()
	body := `{"first_name":"Meera","last_name":"Iyer","email":"meera@example.com","phone":"5550200",
		"password":"s3cret-pw","specialization":"Cardiology","license_number":"LIC-1001"}`
	c, _ := postJSON(e, body)
	if err := h.RegisterDoctor(c); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/?specialization=cardiology", nil)
	rec := httptest.NewRecorder()
	c = e.NewContext(req, rec)
	if err := h.ListDoctors(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Doctors []*Doctor `json:"doctors"`
		Count   int       `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Count != 1 || len(resp.Doctors) != 1 {
		t.Errorf("expected 1 doctor, got count=%d len=%d", resp.Count, len(resp.Doctors))
	}
}

func TestHandler_GetDoctor_NotFound(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("2c5ec1f0-65bb-44f8-a2a4-2f1c06489f1c")

	err := h.GetDoctor(c)
	var httpErr *echo.HTTPError
	if !asHTTPError(err, &httpErr) || httpErr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestHandler_GetDoctor_BadID(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	err := h.GetDoctor(c)
	var httpErr *echo.HTTPError
	if !asHTTPError(err, &httpErr) || httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}
