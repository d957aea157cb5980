package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medbook/medbook/internal/domain/derr"
	"github.com/medbook/medbook/internal/domain/identity"
	"github.com/medbook/medbook/internal/platform/auth"
	"github.com/medbook/medbook/internal/platform/db"
)

var validStatuses = map[string]bool{
	StatusPending:   true,
	StatusConfirmed: true,
	StatusCompleted: true,
	StatusCancelled: true,
	StatusRejected:  true,
}

// Recommender produces preparation advice for an upcoming appointment.
// Recommendations are best-effort: failures never block a booking.
type Recommender interface {
	Enabled() bool
	Recommend(ctx context.Context, specialization, notes string) (string, error)
}

// Service implements slot publication and the appointment lifecycle.
type Service struct {
	slots    SlotRepository
	appts    AppointmentRepository
	patients identity.PatientRepository
	doctors  identity.DoctorRepository
	tx       db.TxRunner
	rec      Recommender
	logger   zerolog.Logger
}

func NewService(slots SlotRepository, appts AppointmentRepository,
	patients identity.PatientRepository, doctors identity.DoctorRepository,
	tx db.TxRunner, rec Recommender, logger zerolog.Logger) *Service {
	return &Service{
		slots:    slots,
		appts:    appts,
		patients: patients,
		doctors:  doctors,
		tx:       tx,
		rec:      rec,
		logger:   logger,
	}
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", derr.ErrValidation)
	}
	return d, nil
}

func parseClock(s string) (time.Time, error) {
	c, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: time must be HH:MM", derr.ErrValidation)
	}
	return c, nil
}

// PublishSlotInput describes a new bookable window. Capacity defaults to one
// seat when omitted.
type PublishSlotInput struct {
	Date      string `json:"slot_date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Capacity  int    `json:"capacity"`
}

// PublishSlot creates a bookable window for the doctor.
func (s *Service) PublishSlot(ctx context.Context, doctorID uuid.UUID, in PublishSlotInput) (*TimeSlot, error) {
	if _, err := s.doctors.GetByID(ctx, doctorID); err != nil {
		return nil, err
	}

	date, err := parseDate(in.Date)
	if err != nil {
		return nil, err
	}
	start, err := parseClock(in.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := parseClock(in.EndTime)
	if err != nil {
		return nil, err
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("%w: start_time must be before end_time", derr.ErrValidation)
	}

	capacity := in.Capacity
	if capacity == 0 {
		capacity = 1
	}
	if capacity < 1 {
		return nil, fmt.Errorf("%w: capacity must be at least 1", derr.ErrValidation)
	}

	slot := &TimeSlot{
		DoctorID:  doctorID,
		SlotDate:  date,
		StartTime: start.Format("15:04"),
		EndTime:   end.Format("15:04"),
		Capacity:  capacity,
	}
	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

// AvailableSlots lists the doctor's slots that still have room, optionally
// restricted to one date.
func (s *Service) AvailableSlots(ctx context.Context, doctorID uuid.UUID, dateStr string) ([]*TimeSlot, error) {
	if _, err := s.doctors.GetByID(ctx, doctorID); err != nil {
		return nil, err
	}

	var date *time.Time
	if strings.TrimSpace(dateStr) != "" {
		d, err := parseDate(dateStr)
		if err != nil {
			return nil, err
		}
		date = &d
	}
	return s.slots.ListAvailable(ctx, doctorID, date)
}

// BookInput describes a booking request.
type BookInput struct {
	DoctorID uuid.UUID `json:"doctor_id"`
	Date     string    `json:"appointment_date"`
	Time     string    `json:"appointment_time"`
	Notes    *string   `json:"consultation_notes"`
}

// Book creates a PENDING appointment for the patient. When the doctor
// published a slot covering the requested date and time, a seat is reserved
// in the same transaction that stores the appointment; otherwise the
// appointment is stored without a slot link.
func (s *Service) Book(ctx context.Context, patientID uuid.UUID, in BookInput) (*Appointment, error) {
	if in.DoctorID == uuid.Nil {
		return nil, fmt.Errorf("%w: doctor_id is required", derr.ErrValidation)
	}
	date, err := parseDate(in.Date)
	if err != nil {
		return nil, err
	}
	start, err := parseClock(in.Time)
	if err != nil {
		return nil, err
	}

	if _, err := s.patients.GetByID(ctx, patientID); err != nil {
		return nil, err
	}
	doctor, err := s.doctors.GetByID(ctx, in.DoctorID)
	if err != nil {
		return nil, err
	}

	appt := &Appointment{
		PatientID:         patientID,
		DoctorID:          in.DoctorID,
		AppointmentDate:   date,
		AppointmentTime:   start.Format("15:04"),
		Status:            StatusPending,
		ConsultationNotes: in.Notes,
	}

	if rc := s.recommend(ctx, doctor, in.Notes); rc != "" {
		appt.AIRecommendation = &rc
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		slot, err := s.slots.FindForBooking(ctx, in.DoctorID, date, appt.AppointmentTime)
		switch {
		case err == nil:
			if err := s.slots.Reserve(ctx, slot.ID); err != nil {
				return err
			}
			appt.SlotID = &slot.ID
		case !errors.Is(err, derr.ErrNotFound):
			return err
		}
		return s.appts.Create(ctx, appt)
	})
	if err != nil {
		return nil, err
	}
	return appt, nil
}

func (s *Service) recommend(ctx context.Context, doctor *identity.Doctor, notes *string) string {
	if s.rec == nil || !s.rec.Enabled() {
		return ""
	}
	n := ""
	if notes != nil {
		n = *notes
	}
	rc, err := s.rec.Recommend(ctx, doctor.Specialization, n)
	if err != nil {
		s.logger.Warn().Err(err).Msg("recommendation unavailable, booking proceeds without it")
		return ""
	}
	return rc
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appts.GetByID(ctx, id)
}

// Confirm moves a PENDING appointment to CONFIRMED. Only the appointment's
// doctor may confirm it.
func (s *Service) Confirm(ctx context.Context, doctorID, apptID uuid.UUID) (*Appointment, error) {
	appt, err := s.ownedByDoctor(ctx, doctorID, apptID)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, appt, StatusConfirmed); err != nil {
		return nil, err
	}
	return appt, nil
}

// Complete moves a CONFIRMED appointment to COMPLETED, optionally attaching
// the doctor's consultation notes.
func (s *Service) Complete(ctx context.Context, doctorID, apptID uuid.UUID, notes *string) (*Appointment, error) {
	appt, err := s.ownedByDoctor(ctx, doctorID, apptID)
	if err != nil {
		return nil, err
	}
	if notes != nil {
		appt.ConsultationNotes = notes
	}
	if err := s.transition(ctx, appt, StatusCompleted); err != nil {
		return nil, err
	}
	return appt, nil
}

// Reject moves a PENDING appointment to REJECTED and frees the reserved seat,
// both in one transaction.
func (s *Service) Reject(ctx context.Context, doctorID, apptID uuid.UUID) (*Appointment, error) {
	appt, err := s.ownedByDoctor(ctx, doctorID, apptID)
	if err != nil {
		return nil, err
	}
	if err := s.transitionAndRelease(ctx, appt, StatusRejected); err != nil {
		return nil, err
	}
	return appt, nil
}

// Cancel moves an appointment to CANCELLED and frees the reserved seat. The
// appointment's patient and doctor may both cancel.
func (s *Service) Cancel(ctx context.Context, actorID uuid.UUID, actorRole string, apptID uuid.UUID) (*Appointment, error) {
	appt, err := s.appts.GetByID(ctx, apptID)
	if err != nil {
		return nil, err
	}
	switch actorRole {
	case auth.RolePatient:
		if appt.PatientID != actorID {
			return nil, fmt.Errorf("%w: appointment belongs to another patient", derr.ErrForbidden)
		}
	case auth.RoleDoctor:
		if appt.DoctorID != actorID {
			return nil, fmt.Errorf("%w: appointment belongs to another doctor", derr.ErrForbidden)
		}
	default:
		return nil, fmt.Errorf("%w: unknown role", derr.ErrForbidden)
	}
	if err := s.transitionAndRelease(ctx, appt, StatusCancelled); err != nil {
		return nil, err
	}
	return appt, nil
}

func (s *Service) ownedByDoctor(ctx context.Context, doctorID, apptID uuid.UUID) (*Appointment, error) {
	appt, err := s.appts.GetByID(ctx, apptID)
	if err != nil {
		return nil, err
	}
	if appt.DoctorID != doctorID {
		return nil, fmt.Errorf("%w: appointment belongs to another doctor", derr.ErrForbidden)
	}
	return appt, nil
}

func (s *Service) transition(ctx context.Context, appt *Appointment, to string) error {
	if !appt.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", derr.ErrInvalidTransition, appt.Status, to)
	}
	from := appt.Status
	appt.Status = to
	return s.appts.UpdateStatus(ctx, appt, from)
}

func (s *Service) transitionAndRelease(ctx context.Context, appt *Appointment, to string) error {
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.transition(ctx, appt, to); err != nil {
			return err
		}
		if appt.SlotID != nil {
			return s.slots.Release(ctx, *appt.SlotID)
		}
		return nil
	})
}

// ListByPatient returns the patient's appointments, optionally filtered by
// status, newest first.
func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, status string, limit, offset int) ([]*Appointment, int, error) {
	if status != "" && !validStatuses[status] {
		return nil, 0, fmt.Errorf("%w: unknown status %q", derr.ErrValidation, status)
	}
	return s.appts.ListByPatient(ctx, patientID, status, limit, offset)
}

// ListByDoctor returns the doctor's appointments, optionally filtered by
// status, newest first.
func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, status string, limit, offset int) ([]*Appointment, int, error) {
	if status != "" && !validStatuses[status] {
		return nil, 0, fmt.Errorf("%w: unknown status %q", derr.ErrValidation, status)
	}
	return s.appts.ListByDoctor(ctx, doctorID, status, limit, offset)
}
