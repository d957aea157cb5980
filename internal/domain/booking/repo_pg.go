package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

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

// =========== Slot Repository ===========

type slotRepoPG struct{ pool *pgxpool.Pool }

func NewSlotRepoPG(pool *pgxpool.Pool) SlotRepository { return &slotRepoPG{pool: pool} }

func (r *slotRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const slotCols = `id, doctor_id, slot_date, start_time, end_time, capacity, booked_count, created_at`

func (r *slotRepoPG) scanSlot(row pgx.Row) (*TimeSlot, error) {
	var s TimeSlot
	err := row.Scan(&s.ID, &s.DoctorID, &s.SlotDate, &s.StartTime, &s.EndTime,
		&s.Capacity, &s.BookedCount, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: time slot", derr.ErrNotFound)
	}
	return &s, err
}

func (r *slotRepoPG) Create(ctx context.Context, s *TimeSlot) error {
	s.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO time_slots (id, doctor_id, slot_date, start_time, end_time, capacity, booked_count)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		s.ID, s.DoctorID, s.SlotDate, s.StartTime, s.EndTime, s.Capacity, s.BookedCount)
	return err
}

func (r *slotRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*TimeSlot, error) {
	return r.scanSlot(r.conn(ctx).QueryRow(ctx, `SELECT `+slotCols+` FROM time_slots WHERE id = $1`, id))
}

func (r *slotRepoPG) FindForBooking(ctx context.Context, doctorID uuid.UUID, date time.Time, startTime string) (*TimeSlot, error) {
	return r.scanSlot(r.conn(ctx).QueryRow(ctx, `
		SELECT `+slotCols+` FROM time_slots
		WHERE doctor_id = $1 AND slot_date = $2 AND start_time = $3`,
		doctorID, date, startTime))
}

func (r *slotRepoPG) ListAvailable(ctx context.Context, doctorID uuid.UUID, date *time.Time) ([]*TimeSlot, error) {
	query := `SELECT ` + slotCols + ` FROM time_slots
		WHERE doctor_id = $1 AND booked_count < capacity`
	args := []interface{}{doctorID}
	if date != nil {
		query += ` AND slot_date = $2`
		args = append(args, *date)
	}
	query += ` ORDER BY slot_date, start_time`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []*TimeSlot
	for rows.Next() {
		s, err := r.scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// Reserve takes a seat atomically: the guarded UPDATE only matches while the
// slot has room, so concurrent bookings cannot push booked_count past
// capacity.
func (r *slotRepoPG) Reserve(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE time_slots SET booked_count = booked_count + 1
		WHERE id = $1 AND booked_count < capacity`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM time_slots WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: time slot", derr.ErrNotFound)
	}
	return fmt.Errorf("%w: slot %s", derr.ErrSlotFull, id)
}

func (r *slotRepoPG) Release(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE time_slots SET booked_count = GREATEST(booked_count - 1, 0)
		WHERE id = $1`, id)
	return err
}

// =========== Appointment Repository ===========

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const apptCols = `id, patient_id, doctor_id, slot_id, appointment_date, appointment_time,
	status, consultation_notes, ai_recommendation, created_at, updated_at`

func (r *appointmentRepoPG) scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.SlotID, &a.AppointmentDate, &a.AppointmentTime,
		&a.Status, &a.ConsultationNotes, &a.AIRecommendation, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: appointment", derr.ErrNotFound)
	}
	return &a, err
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, slot_id, appointment_date,
			appointment_time, status, consultation_notes, ai_recommendation)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		a.ID, a.PatientID, a.DoctorID, a.SlotID, a.AppointmentDate,
		a.AppointmentTime, a.Status, a.ConsultationNotes, a.AIRecommendation)
	return err
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return r.scanAppointment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointments WHERE id = $1`, id))
}

// UpdateStatus moves the appointment out of the expected current status.
// The status predicate makes the transition atomic: a concurrent writer that
// got there first leaves zero rows affected instead of being overwritten.
func (r *appointmentRepoPG) UpdateStatus(ctx context.Context, a *Appointment, from string) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments SET status = $2, consultation_notes = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4`,
		a.ID, a.Status, a.ConsultationNotes, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.conn(ctx).QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM appointments WHERE id = $1)`, a.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: appointment", derr.ErrNotFound)
		}
		return fmt.Errorf("%w: appointment is no longer %s", derr.ErrInvalidTransition, from)
	}
	return nil
}

func (r *appointmentRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, status string, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, `patient_id`, patientID, status, limit, offset)
}

func (r *appointmentRepoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, status string, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, `doctor_id`, doctorID, status, limit, offset)
}

func (r *appointmentRepoPG) list(ctx context.Context, ownerCol string, ownerID uuid.UUID, status string, limit, offset int) ([]*Appointment, int, error) {
	where := `WHERE ` + ownerCol + ` = $1`
	args := []interface{}{ownerID}
	if status != "" {
		where += ` AND status = $2`
		args = append(args, status)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointments `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM appointments %s
		ORDER BY appointment_date DESC, appointment_time DESC
		LIMIT $%d OFFSET $%d`, apptCols, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var appts []*Appointment
	for rows.Next() {
		a, err := r.scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		appts = append(appts, a)
	}
	return appts, total, rows.Err()
}
