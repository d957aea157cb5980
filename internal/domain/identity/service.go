package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/medbook/medbook/internal/domain/derr"
)

const defaultConsultationFee = 500.0

// Service implements account registration, login and doctor discovery.
type Service struct {
	patients PatientRepository
	doctors  DoctorRepository
}

func NewService(patients PatientRepository, doctors DoctorRepository) *Service {
	return &Service{patients: patients, doctors: doctors}
}

// RegisterPatientInput carries the fields required to open a patient account.
type RegisterPatientInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
}

// RegisterDoctorInput carries the fields required to open a doctor account.
type RegisterDoctorInput struct {
	FirstName       string   `json:"first_name"`
	LastName        string   `json:"last_name"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	Password        string   `json:"password"`
	Specialization  string   `json:"specialization"`
	LicenseNumber   string   `json:"license_number"`
	ConsultationFee *float64 `json:"consultation_fee"`
	ExperienceYears int      `json:"experience_years"`
	Bio             *string  `json:"bio"`
}

func requireFields(fields map[string]string) error {
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%w: %s is required", derr.ErrValidation, name)
		}
	}
	return nil
}

func hashPassword(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// RegisterPatient creates a patient account. The email must not already be
// registered.
func (s *Service) RegisterPatient(ctx context.Context, in RegisterPatientInput) (*Patient, error) {
	if err := requireFields(map[string]string{
		"first_name": in.FirstName,
		"last_name":  in.LastName,
		"email":      in.Email,
		"phone":      in.Phone,
		"password":   in.Password,
	}); err != nil {
		return nil, err
	}

	if _, err := s.patients.GetByEmail(ctx, in.Email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", derr.ErrDuplicateIdentity)
	} else if !errors.Is(err, derr.ErrNotFound) {
		return nil, err
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	p := &Patient{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: hash,
	}
	if err := s.patients.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// RegisterDoctor creates a doctor account. Both the email and the license
// number must be unique. New doctors start available with no rating.
func (s *Service) RegisterDoctor(ctx context.Context, in RegisterDoctorInput) (*Doctor, error) {
	if err := requireFields(map[string]string{
		"first_name":     in.FirstName,
		"last_name":      in.LastName,
		"email":          in.Email,
		"phone":          in.Phone,
		"password":       in.Password,
		"specialization": in.Specialization,
		"license_number": in.LicenseNumber,
	}); err != nil {
		return nil, err
	}
	if in.ExperienceYears < 0 {
		return nil, fmt.Errorf("%w: experience_years must not be negative", derr.ErrValidation)
	}

	if _, err := s.doctors.GetByEmail(ctx, in.Email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", derr.ErrDuplicateIdentity)
	} else if !errors.Is(err, derr.ErrNotFound) {
		return nil, err
	}
	if _, err := s.doctors.GetByLicense(ctx, in.LicenseNumber); err == nil {
		return nil, fmt.Errorf("%w: license number already registered", derr.ErrDuplicateIdentity)
	} else if !errors.Is(err, derr.ErrNotFound) {
		return nil, err
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	fee := defaultConsultationFee
	if in.ConsultationFee != nil {
		if *in.ConsultationFee < 0 {
			return nil, fmt.Errorf("%w: consultation_fee must not be negative", derr.ErrValidation)
		}
		fee = *in.ConsultationFee
	}

	d := &Doctor{
		FirstName:       strings.TrimSpace(in.FirstName),
		LastName:        strings.TrimSpace(in.LastName),
		Email:           strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:           strings.TrimSpace(in.Phone),
		PasswordHash:    hash,
		Specialization:  strings.TrimSpace(in.Specialization),
		LicenseNumber:   strings.TrimSpace(in.LicenseNumber),
		ConsultationFee: fee,
		ExperienceYears: in.ExperienceYears,
		Bio:             in.Bio,
		IsAvailable:     true,
	}
	if err := s.doctors.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// AuthenticatePatient verifies patient credentials. An unknown email and a
// wrong password are indistinguishable to the caller.
func (s *Service) AuthenticatePatient(ctx context.Context, email, password string) (*Patient, error) {
	if err := requireFields(map[string]string{"email": email, "password": password}); err != nil {
		return nil, err
	}
	p, err := s.patients.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, derr.ErrNotFound) {
			return nil, derr.ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)) != nil {
		return nil, derr.ErrInvalidCredentials
	}
	return p, nil
}

// AuthenticateDoctor verifies doctor credentials.
func (s *Service) AuthenticateDoctor(ctx context.Context, email, password string) (*Doctor, error) {
	if err := requireFields(map[string]string{"email": email, "password": password}); err != nil {
		return nil, err
	}
	d, err := s.doctors.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, derr.ErrNotFound) {
			return nil, derr.ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(d.PasswordHash), []byte(password)) != nil {
		return nil, derr.ErrInvalidCredentials
	}
	return d, nil
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.doctors.GetByID(ctx, id)
}

// ListDoctors returns available doctors, optionally filtered by
// specialization, best-rated first.
func (s *Service) ListDoctors(ctx context.Context, specialization string, limit, offset int) ([]*Doctor, int, error) {
	return s.doctors.List(ctx, specialization, limit, offset)
}
