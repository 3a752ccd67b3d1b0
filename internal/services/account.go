package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/jobportal/apiserver/internal/store"
	"github.com/jobportal/apiserver/types"
)

const minPasswordLength = 8

// AccountRepository defines persistence operations for accounts.
type AccountRepository interface {
	GetByID(ctx context.Context, id string) (types.Account, error)
	GetByEmail(ctx context.Context, email string) (types.Account, error)
	Create(ctx context.Context, account types.Account) (types.Account, error)
	CreateJobSeeker(ctx context.Context, account types.Account, profile types.JobSeekerProfile) (types.Account, types.JobSeekerProfile, error)
	CreateEmployer(ctx context.Context, account types.Account, profile types.EmployerProfile) (types.Account, types.EmployerProfile, error)
	SetActive(ctx context.Context, id string, active bool) error
}

// Hasher turns a plaintext password into a storable hash.
type Hasher interface {
	Hash(password string) (string, error)
}

// AccountService encapsulates registration and account administration.
type AccountService struct {
	repo   AccountRepository
	hasher Hasher
}

func NewAccountService(repo AccountRepository, hasher Hasher) *AccountService {
	return &AccountService{repo: repo, hasher: hasher}
}

type JobSeekerRegistration struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Phone     *string `json:"phone_number,omitempty"`
	Location  *string `json:"location,omitempty"`
}

type EmployerRegistration struct {
	Email        string             `json:"email"`
	Password     string             `json:"password"`
	CompanyName  string             `json:"company_name"`
	Industry     *string            `json:"industry,omitempty"`
	CompanySize  *types.CompanySize `json:"company_size,omitempty"`
	Website      *string            `json:"website,omitempty"`
	Headquarters *string            `json:"headquarters_location,omitempty"`
}

func (s *AccountService) GetByID(ctx context.Context, id string) (types.Account, error) {
	return s.repo.GetByID(ctx, id)
}

// RegisterJobSeeker creates a JOB_SEEKER account and its profile atomically.
func (s *AccountService) RegisterJobSeeker(ctx context.Context, req JobSeekerRegistration) (types.Account, types.JobSeekerProfile, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if req.FirstName == "" || req.LastName == "" {
		return types.Account{}, types.JobSeekerProfile{}, fmt.Errorf("%w: first and last name are required", ErrValidation)
	}

	account, err := s.newAccount(req.Email, req.Password, types.KindJobSeeker)
	if err != nil {
		return types.Account{}, types.JobSeekerProfile{}, err
	}

	profile := types.JobSeekerProfile{
		ID:                uuid.NewString(),
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Phone:             trimmed(req.Phone),
		Location:          trimmed(req.Location),
		PublicProfileSlug: profileSlug(req.FirstName + " " + req.LastName),
		Visibility:        types.VisibilityPublic,
		Availability:      types.AvailabilityActivelyLooking,
	}

	created, createdProfile, err := s.repo.CreateJobSeeker(ctx, account, profile)
	if err != nil {
		return types.Account{}, types.JobSeekerProfile{}, mapConflict(err)
	}
	return created, createdProfile, nil
}

// RegisterEmployer creates an EMPLOYER account and its company profile atomically.
func (s *AccountService) RegisterEmployer(ctx context.Context, req EmployerRegistration) (types.Account, types.EmployerProfile, error) {
	req.CompanyName = strings.TrimSpace(req.CompanyName)
	if req.CompanyName == "" {
		return types.Account{}, types.EmployerProfile{}, fmt.Errorf("%w: company name is required", ErrValidation)
	}

	account, err := s.newAccount(req.Email, req.Password, types.KindEmployer)
	if err != nil {
		return types.Account{}, types.EmployerProfile{}, err
	}

	profile := types.EmployerProfile{
		ID:           uuid.NewString(),
		CompanyName:  req.CompanyName,
		Industry:     trimmed(req.Industry),
		CompanySize:  req.CompanySize,
		Website:      trimmed(req.Website),
		Headquarters: trimmed(req.Headquarters),
	}

	created, createdProfile, err := s.repo.CreateEmployer(ctx, account, profile)
	if err != nil {
		return types.Account{}, types.EmployerProfile{}, mapConflict(err)
	}
	return created, createdProfile, nil
}

// CreateAdmin creates an ADMIN account, which never has a profile.
func (s *AccountService) CreateAdmin(ctx context.Context, email, password string) (types.Account, error) {
	account, err := s.newAccount(email, password, types.KindAdmin)
	if err != nil {
		return types.Account{}, err
	}
	created, err := s.repo.Create(ctx, account)
	if err != nil {
		return types.Account{}, mapConflict(err)
	}
	return created, nil
}

// Deactivate blocks future logins for the account. Sessions already issued
// keep reading until they expire or are revoked.
func (s *AccountService) Deactivate(ctx context.Context, id string) error {
	return s.repo.SetActive(ctx, id, false)
}

func (s *AccountService) newAccount(email, password string, kind types.AccountKind) (types.Account, error) {
	email = types.NormalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return types.Account{}, fmt.Errorf("%w: a valid email is required", ErrValidation)
	}
	if len(password) < minPasswordLength {
		return types.Account{}, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return types.Account{}, fmt.Errorf("hash password: %w", err)
	}

	return types.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Kind:         kind,
		IsActive:     true,
	}, nil
}

func mapConflict(err error) error {
	if errors.Is(err, store.ErrConflict) {
		return ErrEmailTaken
	}
	return err
}

func profileSlug(name string) string {
	base := slug.Make(name)
	if base == "" {
		base = "profile"
	}
	return base + "-" + uuid.NewString()[:8]
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
