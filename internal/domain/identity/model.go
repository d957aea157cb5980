// Package identity manages patient and doctor accounts: registration,
// credential verification and doctor discovery.
package identity

import (
	"time"

	"github.com/google/uuid"
)

// Patient is a registered patient account.
type Patient struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	FirstName      string     `db:"first_name" json:"first_name"`
	LastName       string     `db:"last_name" json:"last_name"`
	Email          string     `db:"email" json:"email"`
	Phone          string     `db:"phone" json:"phone"`
	PasswordHash   string     `db:"password_hash" json:"-"`
	DateOfBirth    *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Address        *string    `db:"address" json:"address,omitempty"`
	BloodGroup     *string    `db:"blood_group" json:"blood_group,omitempty"`
	MedicalHistory *string    `db:"medical_history" json:"medical_history,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// Doctor is a registered doctor account. RatingAverage is maintained by the
// review domain whenever a new review lands.
type Doctor struct {
	ID              uuid.UUID `db:"id" json:"id"`
	FirstName       string    `db:"first_name" json:"first_name"`
	LastName        string    `db:"last_name" json:"last_name"`
	Email           string    `db:"email" json:"email"`
	Phone           string    `db:"phone" json:"phone"`
	PasswordHash    string    `db:"password_hash" json:"-"`
	Specialization  string    `db:"specialization" json:"specialization"`
	LicenseNumber   string    `db:"license_number" json:"license_number"`
	ConsultationFee float64   `db:"consultation_fee" json:"consultation_fee"`
	ExperienceYears int       `db:"experience_years" json:"experience_years"`
	Bio             *string   `db:"bio" json:"bio,omitempty"`
	RatingAverage   float64   `db:"rating_average" json:"rating_average"`
	IsAvailable     bool      `db:"is_available" json:"is_available"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
