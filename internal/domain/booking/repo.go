package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SlotRepository persists published time slots.
type SlotRepository interface {
	Create(ctx context.Context, s *TimeSlot) error
	GetByID(ctx context.Context, id uuid.UUID) (*TimeSlot, error)
	// FindForBooking returns the doctor's slot covering the given date and
	// start time, if one was published.
	FindForBooking(ctx context.Context, doctorID uuid.UUID, date time.Time, startTime string) (*TimeSlot, error)
	// ListAvailable returns the doctor's slots that still have room,
	// optionally restricted to one date.
	ListAvailable(ctx context.Context, doctorID uuid.UUID, date *time.Time) ([]*TimeSlot, error)
	// Reserve increments booked_count if the slot has room. Returns
	// ErrSlotFull when it is at capacity and ErrNotFound when it does not
	// exist; the slot is left untouched in both cases.
	Reserve(ctx context.Context, id uuid.UUID) error
	// Release decrements booked_count, never below zero.
	Release(ctx context.Context, id uuid.UUID) error
}

// AppointmentRepository persists appointments.
type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	UpdateStatus(ctx context.Context, a *Appointment, from string) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, status string, limit, offset int) ([]*Appointment, int, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, status string, limit, offset int) ([]*Appointment, int, error)
}
