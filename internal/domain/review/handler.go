package review

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medbook/medbook/internal/domain/derr"
	"github.com/medbook/medbook/internal/platform/auth"
	"github.com/medbook/medbook/pkg/pagination"
)

// Handler exposes the review endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// RegisterRoutes mounts the review endpoints. Posting a review requires a
// patient token; reading a doctor's reviews is public.
func (h *Handler) RegisterRoutes(g *echo.Group, requireToken echo.MiddlewareFunc) {
	g.POST("/doctors/:id/reviews", h.AddReview, requireToken, auth.RequireRole(auth.RolePatient))
	g.GET("/doctors/:id/reviews", h.ListReviews)
}

func (h *Handler) AddReview(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}

	ident := auth.IdentityFromContext(c.Request().Context())
	if ident == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	patientID, err := uuid.Parse(ident.Subject)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
	}

	var in AddInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	in.DoctorID = doctorID

	rv, err := h.svc.Add(c.Request().Context(), patientID, in)
	if err != nil {
		return echo.NewHTTPError(derr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "review added",
		"review":  rv,
	})
}

func (h *Handler) ListReviews(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}

	params := pagination.FromContext(c)
	reviews, total, err := h.svc.ListByDoctor(c.Request().Context(), doctorID, params.Limit, params.Offset)
	if err != nil {
		return echo.NewHTTPError(derr.HTTPStatus(err), err.Error())
	}
	if reviews == nil {
		reviews = []*Review{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"reviews": reviews,
		"count":   total,
	})
}
