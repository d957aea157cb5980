package review

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists reviews.
type Repository interface {
	Create(ctx context.Context, r *Review) error
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Review, int, error)
	// AverageForDoctor returns the unrounded mean rating across all of the
	// doctor's reviews, zero when there are none.
	AverageForDoctor(ctx context.Context, doctorID uuid.UUID) (float64, error)
}
