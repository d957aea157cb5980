package review

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/medbook/medbook/internal/domain/booking"
	"github.com/medbook/medbook/internal/domain/derr"
	"github.com/medbook/medbook/internal/domain/identity"
)

// -- Mock Repositories --

type mockReviewRepo struct {
	reviews []*Review
}

func (m *mockReviewRepo) Create(_ context.Context, r *Review) error {
	r.ID = uuid.New()
	r.CreatedAt = time.Now()
	m.reviews = append(m.reviews, r)
	return nil
}

func (m *mockReviewRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, limit, offset int) ([]*Review, int, error) {
	var result []*Review
	for _, r := range m.reviews {
		if r.DoctorID == doctorID {
			result = append(result, r)
		}
	}
	return result, len(result), nil
}

func (m *mockReviewRepo) AverageForDoctor(_ context.Context, doctorID uuid.UUID) (float64, error) {
	sum, n := 0, 0
	for _, r := range m.reviews {
		if r.DoctorID == doctorID {
			sum += r.Rating
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return float64(sum) / float64(n), nil
}

type mockPatientRepo struct {
	patients map[uuid.UUID]*identity.Patient
}

func (m *mockPatientRepo) Create(_ context.Context, p *identity.Patient) error {
	m.patients[p.ID] = p
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*identity.Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, fmt.Errorf("%w: patient", derr.ErrNotFound)
	}
	return p, nil
}

func (m *mockPatientRepo) GetByEmail(_ context.Context, email string) (*identity.Patient, error) {
	return nil, fmt.Errorf("%w: patient", derr.ErrNotFound)
}

type mockDoctorRepo struct {
	doctors map[uuid.UUID]*identity.Doctor
}

func (m *mockDoctorRepo) Create(_ context.Context, d *identity.Doctor) error {
	m.doctors[d.ID] = d
	return nil
}

func (m *mockDoctorRepo) GetByID(_ context.Context, id uuid.UUID) (*identity.Doctor, error) {
	d, ok := m.doctors[id]
	if !ok {
		return nil, fmt.Errorf("%w: doctor", derr.ErrNotFound)
	}
	return d, nil
}

func (m *mockDoctorRepo) GetByEmail(_ context.Context, email string) (*identity.Doctor, error) {
	return nil, fmt.Errorf("%w: doctor", derr.ErrNotFound)
}

func (m *mockDoctorRepo) GetByLicense(_ context.Context, license string) (*identity.Doctor, error) {
	return nil, fmt.Errorf("%w: doctor", derr.ErrNotFound)
}

func (m *mockDoctorRepo) List(_ context.Context, specialization string, limit, offset int) ([]*identity.Doctor, int, error) {
	return nil, 0, nil
}

func (m *mockDoctorRepo) UpdateRating(_ context.Context, id uuid.UUID, rating float64) error {
	d, ok := m.doctors[id]
	if !ok {
		return fmt.Errorf("%w: doctor", derr.ErrNotFound)
	}
	d.RatingAverage = rating
	return nil
}

type mockApptRepo struct {
	appts map[uuid.UUID]*booking.Appointment
}

func (m *mockApptRepo) Create(_ context.Context, a *booking.Appointment) error {
	m.appts[a.ID] = a
	return nil
}

func (m *mockApptRepo) GetByID(_ context.Context, id uuid.UUID) (*booking.Appointment, error) {
	a, ok := m.appts[id]
	if !ok {
		return nil, fmt.Errorf("%w: appointment", derr.ErrNotFound)
	}
	return a, nil
}

func (m *mockApptRepo) UpdateStatus(_ context.Context, a *booking.Appointment, _ string) error {
	m.appts[a.ID] = a
	return nil
}

func (m *mockApptRepo) ListByPatient(_ context.Context, patientID uuid.UUID, status string, limit, offset int) ([]*booking.Appointment, int, error) {
	return nil, 0, nil
}

func (m *mockApptRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, status string, limit, offset int) ([]*booking.Appointment, int, error) {
	return nil, 0, nil
}

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// -- Fixture --

type fixture struct {
	svc     *Service
	reviews *mockReviewRepo
	doctors *mockDoctorRepo
	appts   *mockApptRepo

	patientID uuid.UUID
	doctorID  uuid.UUID
}

func newFixture() *fixture {
	f := &fixture{
		reviews: &mockReviewRepo{},
		doctors: &mockDoctorRepo{doctors: make(map[uuid.UUID]*identity.Doctor)},
		appts:   &mockApptRepo{appts: make(map[uuid.UUID]*booking.Appointment)},
	}
	patients := &mockPatientRepo{patients: make(map[uuid.UUID]*identity.Patient)}

	f.patientID = uuid.New()
	patients.patients[f.patientID] = &identity.Patient{ID: f.patientID}
	f.doctorID = uuid.New()
	f.doctors.doctors[f.doctorID] = &identity.Doctor{ID: f.doctorID}

	f.svc = NewService(f.reviews, patients, f.doctors, f.appts, stubTx{})
	return f
}

func (f *fixture) add(t *testing.T, rating int) *Review {
	t.Helper()
	rv, err := f.svc.Add(context.Background(), f.patientID, AddInput{
		DoctorID: f.doctorID,
		Rating:   rating,
	})
	if err != nil {
		t.Fatalf("add review: %v", err)
	}
	return rv
}

// -- Tests --

func TestAdd_RecomputesAverage(t *testing.T) {
	f := newFixture()
	for _, rating := range []int{4, 5, 3} {
		f.add(t, rating)
	}

	if got := f.doctors.doctors[f.doctorID].RatingAverage; got != 4.0 {
		t.Errorf("expected rating average 4.0, got %v", got)
	}
}

func TestAdd_RoundsToTwoDecimals(t *testing.T) {
	f := newFixture()
	for _, rating := range []int{3, 4, 4} {
		f.add(t, rating)
	}

	if got := f.doctors.doctors[f.doctorID].RatingAverage; got != 3.67 {
		t.Errorf("expected rating average 3.67, got %v", got)
	}
}

func TestAdd_RatingBounds(t *testing.T) {
	f := newFixture()
	for _, rating := range []int{0, 6, -1} {
		_, err := f.svc.Add(context.Background(), f.patientID, AddInput{
			DoctorID: f.doctorID,
			Rating:   rating,
		})
		if !errors.Is(err, derr.ErrValidation) {
			t.Errorf("rating %d: expected validation error, got %v", rating, err)
		}
	}
	if len(f.reviews.reviews) != 0 {
		t.Errorf("rejected reviews must not be stored, got %d", len(f.reviews.reviews))
	}
}

func TestAdd_UnknownDoctor(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Add(context.Background(), f.patientID, AddInput{
		DoctorID: uuid.New(),
		Rating:   5,
	})
	if !errors.Is(err, derr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestAdd_AppointmentMustBeCompleted(t *testing.T) {
	f := newFixture()
	apptID := uuid.New()
	f.appts.appts[apptID] = &booking.Appointment{
		ID:        apptID,
		PatientID: f.patientID,
		DoctorID:  f.doctorID,
		Status:    booking.StatusPending,
	}

	_, err := f.svc.Add(context.Background(), f.patientID, AddInput{
		DoctorID:      f.doctorID,
		AppointmentID: &apptID,
		Rating:        5,
	})
	if !errors.Is(err, derr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestAdd_AppointmentOwnership(t *testing.T) {
	f := newFixture()
	apptID := uuid.New()
	f.appts.appts[apptID] = &booking.Appointment{
		ID:        apptID,
		PatientID: uuid.New(),
		DoctorID:  f.doctorID,
		Status:    booking.StatusCompleted,
	}

	_, err := f.svc.Add(context.Background(), f.patientID, AddInput{
		DoctorID:      f.doctorID,
		AppointmentID: &apptID,
		Rating:        5,
	})
	if !errors.Is(err, derr.ErrForbidden) {
		t.Errorf("expected forbidden, got %v", err)
	}
}

func TestAdd_WithCompletedAppointment(t *testing.T) {
	f := newFixture()
	apptID := uuid.New()
	f.appts.appts[apptID] = &booking.Appointment{
		ID:        apptID,
		PatientID: f.patientID,
		DoctorID:  f.doctorID,
		Status:    booking.StatusCompleted,
	}

	rv, err := f.svc.Add(context.Background(), f.patientID, AddInput{
		DoctorID:      f.doctorID,
		AppointmentID: &apptID,
		Rating:        5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rv.AppointmentID == nil || *rv.AppointmentID != apptID {
		t.Error("expected review linked to appointment")
	}
}

func TestListByDoctor(t *testing.T) {
	f := newFixture()
	f.add(t, 4)
	f.add(t, 5)

	reviews, total, err := f.svc.ListByDoctor(context.Background(), f.doctorID, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 || len(reviews) != 2 {
		t.Errorf("expected 2 reviews, got %d", total)
	}
}

func TestListByDoctor_UnknownDoctor(t *testing.T) {
	f := newFixture()
	if _, _, err := f.svc.ListByDoctor(context.Background(), uuid.New(), 20, 0); !errors.Is(err, derr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
