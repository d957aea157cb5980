// Package booking covers doctor time slots and the appointment lifecycle.
//
// A slot holds a capacity and a booked count; an appointment moves through a
// small state machine: PENDING may become CONFIRMED, CANCELLED or REJECTED,
// and CONFIRMED may become COMPLETED or CANCELLED. COMPLETED, CANCELLED and
// REJECTED are terminal.
package booking

import (
	"time"

	"github.com/google/uuid"
)

// Appointment statuses.
const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusCompleted = "COMPLETED"
	StatusCancelled = "CANCELLED"
	StatusRejected  = "REJECTED"
)

// validTransitions maps a status to the statuses it may move to.
var validTransitions = map[string]map[string]bool{
	StatusPending:   {StatusConfirmed: true, StatusCancelled: true, StatusRejected: true},
	StatusConfirmed: {StatusCompleted: true, StatusCancelled: true},
}

// TimeSlot is a bookable window published by a doctor. BookedCount never
// exceeds Capacity.
type TimeSlot struct {
	ID          uuid.UUID `db:"id" json:"id"`
	DoctorID    uuid.UUID `db:"doctor_id" json:"doctor_id"`
	SlotDate    time.Time `db:"slot_date" json:"slot_date"`
	StartTime   string    `db:"start_time" json:"start_time"`
	EndTime     string    `db:"end_time" json:"end_time"`
	Capacity    int       `db:"capacity" json:"capacity"`
	BookedCount int       `db:"booked_count" json:"booked_count"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// IsAvailable reports whether the slot still has room.
func (s *TimeSlot) IsAvailable() bool { return s.BookedCount < s.Capacity }

// Appointment is a patient's booking with a doctor. SlotID is set when the
// booking matched a published slot.
type Appointment struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	PatientID         uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID          uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	SlotID            *uuid.UUID `db:"slot_id" json:"slot_id,omitempty"`
	AppointmentDate   time.Time  `db:"appointment_date" json:"appointment_date"`
	AppointmentTime   string     `db:"appointment_time" json:"appointment_time"`
	Status            string     `db:"status" json:"status"`
	ConsultationNotes *string    `db:"consultation_notes" json:"consultation_notes,omitempty"`
	AIRecommendation  *string    `db:"ai_recommendation" json:"ai_recommendation,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// IsTerminal reports whether the appointment can no longer change status.
func (a *Appointment) IsTerminal() bool {
	return len(validTransitions[a.Status]) == 0
}

// CanTransition reports whether the appointment may move to the given status.
func (a *Appointment) CanTransition(to string) bool {
	return validTransitions[a.Status][to]
}
