package identity

import (
	"context"

	"github.com/google/uuid"
)

// PatientRepository persists patient accounts.
type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByEmail(ctx context.Context, email string) (*Patient, error)
}

// DoctorRepository persists doctor accounts.
type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetByEmail(ctx context.Context, email string) (*Doctor, error)
	GetByLicense(ctx context.Context, license string) (*Doctor, error)
	// List returns available doctors, optionally filtered by specialization
	// (case-insensitive), together with the total match count.
	List(ctx context.Context, specialization string, limit, offset int) ([]*Doctor, int, error)
	UpdateRating(ctx context.Context, id uuid.UUID, rating float64) error
}
