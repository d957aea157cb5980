package identity

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medbook/medbook/internal/domain/derr"
	"github.com/medbook/medbook/internal/platform/auth"
	"github.com/medbook/medbook/pkg/pagination"
)

// Handler exposes the auth and doctor-discovery endpoints.
type Handler struct {
	svc    *Service
	issuer *auth.TokenIssuer
}

func NewHandler(svc *Service, issuer *auth.TokenIssuer) *Handler {
	return &Handler{svc: svc, issuer: issuer}
}

// RegisterRoutes mounts the identity endpoints. Registration, login and
// doctor discovery are all public.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/auth/patient-register", h.RegisterPatient)
	g.POST("/auth/patient-login", h.LoginPatient)
	g.POST("/auth/doctor-register", h.RegisterDoctor)
	g.POST("/auth/doctor-login", h.LoginDoctor)

	g.GET("/doctors", h.ListDoctors)
	g.GET("/doctors/:id", h.GetDoctor)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) RegisterPatient(c echo.Context) error {
	var in RegisterPatientInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	p, err := h.svc.RegisterPatient(c.Request().Context(), in)
	if err != nil {
		return echo.NewHTTPError(derr.HTTPStatus(err), err.Error())
	}

	token, err := h.issuer.Issue(p.ID.String(), auth.RolePatient)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to issue token")
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message":      "patient registered successfully",
		"access_token": token,
		"patient":      p,
	})
}

func (h *Handler) LoginPatient(c echo.Context) error {
	var in loginRequest
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	p, err := h.svc.AuthenticatePatient(c.Request().Context(), in.Email, in.Password)
	if err != nil {
		return echo.NewHTTPError(derr.HTTPStatus(err), err.Error())
	}

	token, err := h.issuer.Issue(p.ID.String(), auth.RolePatient)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to issue token")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":      "login successful",
		"access_token": token,
		"patient":      p,
	})
}

func (h *Handler) RegisterDoctor(c echo.Context) error {
	var in RegisterDoctorInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	d, err := h.svc.RegisterDoctor(c.Request().Context(), in)
	if err != nil {
		return echo.NewHTTPError(derr.HTTPStatus(err), err.Error())
	}

	token, err := h.issuer.Issue(d.ID.String(), auth.RoleDoctor)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to issue token")
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message":      "doctor registered successfully",
		"access_token": token,
		"doctor":       d,
	})
}

func (h *Handler) LoginDoctor(c echo.Context) error {
	var in loginRequest
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	d, err := h.svc.AuthenticateDoctor(c.Request().Context(), in.Email, in.Password)
	if err != nil {
		return echo.NewHTTPError(derr.HTTPStatus(err), err.Error())
	}

	token, err := h.issuer.Issue(d.ID.String(), auth.RoleDoctor)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to issue token")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":      "login successful",
		"access_token": token,
		"doctor":       d,
	})
}

func (h *Handler) ListDoctors(c echo.Context) error {
	params := pagination.FromContext(c)
	doctors, total, err := h.svc.ListDoctors(c.Request().Context(),
		c.QueryParam("specialization"), params.Limit, params.Offset)
	if err != nil {
		return echo.NewHTTPError(derr.HTTPStatus(err), err.Error())
	}
	if doctors == nil {
		doctors = []*Doctor{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"doctors": doctors,
		"count":   total,
	})
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}

	d, err := h.svc.GetDoctor(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(derr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, d)
}
