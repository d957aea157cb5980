package review

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/medbook/medbook/internal/platform/auth"
)

func newTestHandler() (*Handler, *fixture, *echo.Echo) {
	f := newFixture()
	return NewHandler(f.svc), f, echo.New()
}

func patientRequest(e *echo.Echo, f *fixture, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	ident := &auth.Identity{Subject: f.patientID.String(), Role: auth.RolePatient}
	req = req.WithContext(auth.WithIdentity(req.Context(), ident))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(f.doctorID.String())
	return c, rec
}

func TestHandler_AddReview(t *testing.T) {
	h, f, e := newTestHandler()
	c, rec := patientRequest(e, f, `{"rating":5,"comment":"very thorough"}`)

	if err := h.AddReview(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if got := f.doctors.doctors[f.doctorID].RatingAverage; got != 5.0 {
		t.Errorf("expected rating average 5.0, got %v", got)
	}
}

func TestHandler_AddReview_BadRating(t *testing.T) {
	h, f, e := newTestHandler()
	c, _ := patientRequest(e, f, `{"rating":9}`)

	err := h.AddReview(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_AddReview_NoIdentity(t *testing.T) {
	h, f, e := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"rating":4}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(f.doctorID.String())

	err := h.AddReview(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestHandler_ListReviews(t *testing.T) {
	h, f, e := newTestHandler()
	f.add(t, 4)
	f.add(t, 3)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(f.doctorID.String())

	if err := h.ListReviews(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp struct {
		Reviews []*Review `json:"reviews"`
		Count   int       `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Count != 2 || len(resp.Reviews) != 2 {
		t.Errorf("expected 2 reviews, got count=%d", resp.Count)
	}
}
