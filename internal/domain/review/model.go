// Package review records post-appointment ratings and keeps each doctor's
// rating average in step with them.
package review

import (
	"time"

	"github.com/google/uuid"
)

// Review is a patient's rating of a doctor, optionally tied to a completed
// appointment.
type Review struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID      uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	AppointmentID *uuid.UUID `db:"appointment_id" json:"appointment_id,omitempty"`
	Rating        int        `db:"rating" json:"rating"`
	Comment       *string    `db:"comment" json:"comment,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}
