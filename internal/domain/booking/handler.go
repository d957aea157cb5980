package booking

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medbook/medbook/internal/domain/derr"
	"github.com/medbook/medbook/internal/platform/auth"
	"github.com/medbook/medbook/pkg/pagination"
)

// Handler exposes the slot and appointment endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// RegisterRoutes mounts the booking endpoints. requireToken is the bearer
// token middleware; role checks sit on top of it per route.
func (h *Handler) RegisterRoutes(g *echo.Group, requireToken echo.MiddlewareFunc) {
	g.POST("/doctors/:id/add-slots", h.PublishSlot, requireToken, auth.RequireRole(auth.RoleDoctor))
	g.GET("/doctors/:id/available-slots", h.AvailableSlots)

	g.POST("/appointments", h.Book, requireToken, auth.RequireRole(auth.RolePatient))
	g.GET("/appointments/:id", h.GetAppointment)
	g.PUT("/appointments/:id/confirm", h.Confirm, requireToken, auth.RequireRole(auth.RoleDoctor))
	g.PUT("/appointments/:id/complete", h.Complete, requireToken, auth.RequireRole(auth.RoleDoctor))
	g.PUT("/appointments/:id/reject", h.Reject, requireToken, auth.RequireRole(auth.RoleDoctor))
	g.PUT("/appointments/:id/cancel", h.Cancel, requireToken)
	g.GET("/appointments/patient/:id", h.ListByPatient, requireToken)
	g.GET("/appointments/doctor/:id", h.ListByDoctor, requireToken)
}

func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func callerID(c echo.Context) (uuid.UUID, string, error) {
	ident := auth.IdentityFromContext(c.Request().Context())
	if ident == nil {
		return uuid.Nil, "", echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	id, err := uuid.Parse(ident.Subject)
	if err != nil {
		return uuid.Nil, "", echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
	}
	return id, ident.Role, nil
}

func (h *Handler) PublishSlot(c echo.Context) error {
	doctorID, err := pathID(c)
	if err != nil {
		return err
	}
	caller, _, err := callerID(c)
	if err != nil {
		return err
	}
	if caller != doctorID {
		return echo.NewHTTPError(http.StatusForbidden, "cannot publish slots for another doctor")
	}

	var in PublishSlotInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	slot, err := h.svc.PublishSlot(c.Request().Context(), doctorID, in)
	if err != nil {
		return echo.NewHTTPError(derr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "time slot published",
		"slot":    slot,
	})
}

func (h *Handler) AvailableSlots(c echo.Context) error {
	doctorID, err := pathID(c)
	if err != nil {
		return err
	}

	slots, err := h.svc.AvailableSlots(c.Request().Context(), doctorID, c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(derr.HTTPStatus(err), err.Error())
	}
	if slots == nil {
		slots = []*TimeSlot{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"slots": slots,
		"count": len(slots),
	})
}

func (h *Handler) Book(c echo.Context) error {
	patientID, _, err := callerID(c)
	if err != nil {
		return err
	}

	var in BookInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	appt, err := h.svc.Book(c.Request().Context(), patientID, in)
	if err != nil {
		return echo.NewHTTPError(derr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message":     "appointment booked",
		"appointment": appt,
	})
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	appt, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(derr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, appt)
}

func (h *Handler) Confirm(c echo.Context) error {
	return h.doctorTransition(c, func(doctorID, apptID uuid.UUID) (*Appointment, error) {
		return h.svc.Confirm(c.Request().Context(), doctorID, apptID)
	}, "appointment confirmed")
}

func (h *Handler) Complete(c echo.Context) error {
	var body struct {
		ConsultationNotes *string `json:"consultation_notes"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return h.doctorTransition(c, func(doctorID, apptID uuid.UUID) (*Appointment, error) {
		return h.svc.Complete(c.Request().Context(), doctorID, apptID, body.ConsultationNotes)
	}, "appointment completed")
}

func (h *Handler) Reject(c echo.Context) error {
	return h.doctorTransition(c, func(doctorID, apptID uuid.UUID) (*Appointment, error) {
		return h.svc.Reject(c.Request().Context(), doctorID, apptID)
	}, "appointment rejected")
}

func (h *Handler) doctorTransition(c echo.Context, fn func(doctorID, apptID uuid.UUID) (*Appointment, error), message string) error {
	apptID, err := pathID(c)
	if err != nil {
		return err
	}
	doctorID, _, err := callerID(c)
	if err != nil {
		return err
	}

	appt, err := fn(doctorID, apptID)
	if err != nil {
		return echo.NewHTTPError(derr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":     message,
		"appointment": appt,
	})
}

func (h *Handler) Cancel(c echo.Context) error {
	apptID, err := pathID(c)
	if err != nil {
		return err
	}
	actorID, role, err := callerID(c)
	if err != nil {
		return err
	}

	appt, err := h.svc.Cancel(c.Request().Context(), actorID, role, apptID)
	if err != nil {
		return echo.NewHTTPError(derr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":     "appointment cancelled",
		"appointment": appt,
	})
}

func (h *Handler) ListByPatient(c echo.Context) error {
	patientID, err := pathID(c)
	if err != nil {
		return err
	}
	actorID, role, err := callerID(c)
	if err != nil {
		return err
	}
	if role == auth.RolePatient && actorID != patientID {
		return echo.NewHTTPError(http.StatusForbidden, "cannot view another patient's appointments")
	}

	params := pagination.FromContext(c)
	appts, total, err := h.svc.ListByPatient(c.Request().Context(), patientID,
		c.QueryParam("status"), params.Limit, params.Offset)
	if err != nil {
		return echo.NewHTTPError(derr.HTTPStatus(err), err.Error())
	}
	return appointmentList(c, appts, total)
}

func (h *Handler) ListByDoctor(c echo.Context) error {
	doctorID, err := pathID(c)
	if err != nil {
		return err
	}
	actorID, role, err := callerID(c)
	if err != nil {
		return err
	}
	if role == auth.RoleDoctor && actorID != doctorID {
		return echo.NewHTTPError(http.StatusForbidden, "cannot view another doctor's appointments")
	}

	params := pagination.FromContext(c)
	appts, total, err := h.svc.ListByDoctor(c.Request().Context(), doctorID,
		c.QueryParam("status"), params.Limit, params.Offset)
	if err != nil {
		return echo.NewHTTPError(derr.HTTPStatus(err), err.Error())
	}
	return appointmentList(c, appts, total)
}

func appointmentList(c echo.Context, appts []*Appointment, total int) error {
	if appts == nil {
		appts = []*Appointment{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"appointments": appts,
		"count":        total,
	})
}
