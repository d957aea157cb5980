package review

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medbook/medbook/internal/domain/derr"
	"github.com/medbook/medbook/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const reviewCols = `id, patient_id, doctor_id, appointment_id, rating, comment, created_at`

func (r *repoPG) scanReview(row pgx.Row) (*Review, error) {
	var rv Review
	err := row.Scan(&rv.ID, &rv.PatientID, &rv.DoctorID, &rv.AppointmentID,
		&rv.Rating, &rv.Comment, &rv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: review", derr.ErrNotFound)
	}
	return &rv, err
}

func (r *repoPG) Create(ctx context.Context, rv *Review) error {
	rv.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO reviews (id, patient_id, doctor_id, appointment_id, rating, comment)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		rv.ID, rv.PatientID, rv.DoctorID, rv.AppointmentID, rv.Rating, rv.Comment)
	return err
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Review, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM reviews WHERE doctor_id = $1`, doctorID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+reviewCols+` FROM reviews
		WHERE doctor_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, doctorID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var reviews []*Review
	for rows.Next() {
		rv, err := r.scanReview(rows)
		if err != nil {
			return nil, 0, err
		}
		reviews = append(reviews, rv)
	}
	return reviews, total, rows.Err()
}

func (r *repoPG) AverageForDoctor(ctx context.Context, doctorID uuid.UUID) (float64, error) {
	var avg float64
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COALESCE(AVG(rating), 0) FROM reviews WHERE doctor_id = $1`, doctorID).Scan(&avg)
	return avg, err
}
