package review

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/medbook/medbook/internal/domain/booking"
	"github.com/medbook/medbook/internal/domain/derr"
	"github.com/medbook/medbook/internal/domain/identity"
	"github.com/medbook/medbook/internal/platform/db"
)

// Service implements review creation and the doctor rating aggregate.
type Service struct {
	reviews  Repository
	patients identity.PatientRepository
	doctors  identity.DoctorRepository
	appts    booking.AppointmentRepository
	tx       db.TxRunner
}

func NewService(reviews Repository, patients identity.PatientRepository,
	doctors identity.DoctorRepository, appts booking.AppointmentRepository,
	tx db.TxRunner) *Service {
	return &Service{
		reviews:  reviews,
		patients: patients,
		doctors:  doctors,
		appts:    appts,
		tx:       tx,
	}
}

// AddInput describes a new review. AppointmentID, when set, must reference a
// completed appointment between the same patient and doctor.
type AddInput struct {
	DoctorID      uuid.UUID  `json:"doctor_id"`
	AppointmentID *uuid.UUID `json:"appointment_id"`
	Rating        int        `json:"rating"`
	Comment       *string    `json:"comment"`
}

// Add stores the review and recomputes the doctor's rating average, rounded
// to two decimals, in the same transaction.
func (s *Service) Add(ctx context.Context, patientID uuid.UUID, in AddInput) (*Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", derr.ErrValidation)
	}
	if in.DoctorID == uuid.Nil {
		return nil, fmt.Errorf("%w: doctor_id is required", derr.ErrValidation)
	}

	if _, err := s.patients.GetByID(ctx, patientID); err != nil {
		return nil, err
	}
	if _, err := s.doctors.GetByID(ctx, in.DoctorID); err != nil {
		return nil, err
	}

	if in.AppointmentID != nil {
		appt, err := s.appts.GetByID(ctx, *in.AppointmentID)
		if err != nil {
			return nil, err
		}
		if appt.PatientID != patientID || appt.DoctorID != in.DoctorID {
			return nil, fmt.Errorf("%w: appointment belongs to a different patient or doctor", derr.ErrForbidden)
		}
		if appt.Status != booking.StatusCompleted {
			return nil, fmt.Errorf("%w: appointment is not completed", derr.ErrValidation)
		}
	}

	rv := &Review{
		PatientID:     patientID,
		DoctorID:      in.DoctorID,
		AppointmentID: in.AppointmentID,
		Rating:        in.Rating,
		Comment:       in.Comment,
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.reviews.Create(ctx, rv); err != nil {
			return err
		}
		avg, err := s.reviews.AverageForDoctor(ctx, rv.DoctorID)
		if err != nil {
			return err
		}
		return s.doctors.UpdateRating(ctx, rv.DoctorID, math.Round(avg*100)/100)
	})
	if err != nil {
		return nil, err
	}
	return rv, nil
}

// ListByDoctor returns the doctor's reviews, newest first.
func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Review, int, error) {
	if _, err := s.doctors.GetByID(ctx, doctorID); err != nil {
		return nil, 0, err
	}
	return s.reviews.ListByDoctor(ctx, doctorID, limit, offset)
}
