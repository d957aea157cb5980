package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

// uniqueViolation is the Postgres error code for a unique constraint breach.
const uniqueViolation = "23505"

// translateInsertErr maps a unique constraint violation to
// derr.ErrDuplicateIdentity. Two registrations racing past the lookup
// pre-check both reach the INSERT, and the loser must surface as a
// duplicate rather than a storage failure.
func translateInsertErr(err error, detail string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", derr.ErrDuplicateIdentity, detail)
	}
	return err
}

// =========== Patient Repository ===========

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository { return &patientRepoPG{pool: pool} }

func (r *patientRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const patientCols = `id, first_name, last_name, email, phone, password_hash,
	date_of_birth, address, blood_group, medical_history, created_at`

func (r *patientRepoPG) scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.Phone, &p.PasswordHash,
		&p.DateOfBirth, &p.Address, &p.BloodGroup, &p.MedicalHistory, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: patient", derr.ErrNotFound)
	}
	return &p, err
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patients (id, first_name, last_name, email, phone, password_hash,
			date_of_birth, address, blood_group, medical_history)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		p.ID, p.FirstName, p.LastName, p.Email, p.Phone, p.PasswordHash,
		p.DateOfBirth, p.Address, p.BloodGroup, p.MedicalHistory)
	return translateInsertErr(err, "email already registered")
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return r.scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
}

func (r *patientRepoPG) GetByEmail(ctx context.Context, email string) (*Patient, error) {
	return r.scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE lower(email) = lower($1)`, email))
}

// =========== Doctor Repository ===========

type doctorRepoPG struct{ pool *pgxpool.Pool }

func NewDoctorRepoPG(pool *pgxpool.Pool) DoctorRepository { return &doctorRepoPG{pool: pool} }

func (r *doctorRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const doctorCols = `id, first_name, last_name, email, phone, password_hash,
	specialization, license_number, consultation_fee, experience_years, bio,
	rating_average, is_available, created_at`

func (r *doctorRepoPG) scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.FirstName, &d.LastName, &d.Email, &d.Phone, &d.PasswordHash,
		&d.Specialization, &d.LicenseNumber, &d.ConsultationFee, &d.ExperienceYears, &d.Bio,
		&d.RatingAverage, &d.IsAvailable, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: doctor", derr.ErrNotFound)
	}
	return &d, err
}

func (r *doctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO doctors (id, first_name, last_name, email, phone, password_hash,
			specialization, license_number, consultation_fee, experience_years, bio, is_available)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		d.ID, d.FirstName, d.LastName, d.Email, d.Phone, d.PasswordHash,
		d.Specialization, d.LicenseNumber, d.ConsultationFee, d.ExperienceYears, d.Bio, d.IsAvailable)
	return translateInsertErr(err, "email or license number already registered")
}

func (r *doctorRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return r.scanDoctor(r.conn(ctx).QueryRow(ctx, `SELECT `+doctorCols+` FROM doctors WHERE id = $1`, id))
}

func (r *doctorRepoPG) GetByEmail(ctx context.Context, email string) (*Doctor, error) {
	return r.scanDoctor(r.conn(ctx).QueryRow(ctx,
		`SELECT `+doctorCols+` FROM doctors WHERE lower(email) = lower($1)`, email))
}

func (r *doctorRepoPG) GetByLicense(ctx context.Context, license string) (*Doctor, error) {
	return r.scanDoctor(r.conn(ctx).QueryRow(ctx,
		`SELECT `+doctorCols+` FROM doctors WHERE license_number = $1`, license))
}

func (r *doctorRepoPG) List(ctx context.Context, specialization string, limit, offset int) ([]*Doctor, int, error) {
	where := `WHERE is_available = TRUE`
	args := []interface{}{}
	if s := strings.TrimSpace(specialization); s != "" {
		where += ` AND lower(specialization) = lower($1)`
		args = append(args, s)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM doctors `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM doctors %s ORDER BY rating_average DESC, created_at
		LIMIT $%d OFFSET $%d`, doctorCols, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var doctors []*Doctor
	for rows.Next() {
		d, err := r.scanDoctor(rows)
		if err != nil {
			return nil, 0, err
		}
		doctors = append(doctors, d)
	}
	return doctors, total, rows.Err()
}

func (r *doctorRepoPG) UpdateRating(ctx context.Context, id uuid.UUID, rating float64) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE doctors SET rating_average = $2 WHERE id = $1`, id, rating)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: doctor", derr.ErrNotFound)
	}
	return nil
}
