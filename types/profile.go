package types

import (
	"strings"
	"time"
)

type ProfileVisibility string

const (
	VisibilityPublic        ProfileVisibility = "PUBLIC"
	VisibilityPrivate       ProfileVisibility = "PRIVATE"
	VisibilityEmployersOnly ProfileVisibility = "EMPLOYERS_ONLY"
)

type AvailabilityStatus string

const (
	AvailabilityActivelyLooking AvailabilityStatus = "ACTIVELY_LOOKING"
	AvailabilityOpenToOffers    AvailabilityStatus = "OPEN_TO_OFFERS"
	AvailabilityNotLooking      AvailabilityStatus = "NOT_LOOKING"
)

type CompanySize string

const (
	CompanySizeStartup    CompanySize = "STARTUP"
	CompanySizeSmall      CompanySize = "SMALL"
	CompanySizeMedium     CompanySize = "MEDIUM"
	CompanySizeLarge      CompanySize = "LARGE"
	CompanySizeEnterprise CompanySize = "ENTERPRISE"
)

// JobSeekerProfile holds the kind-specific data of a JOB_SEEKER account.
type JobSeekerProfile struct {
	// ID is the unique identifier of the profile row.
	ID string `json:"id" db:"id"`

	// AccountID references the owning account; at most one profile per account.
	AccountID string `json:"user_id" db:"user_id"`

	FirstName string  `json:"first_name" db:"first_name"`
	LastName  string  `json:"last_name" db:"last_name"`
	Phone     *string `json:"phone_number,omitempty" db:"phone_number"`
	Location  *string `json:"location,omitempty" db:"location"`
	Bio       *string `json:"bio,omitempty" db:"bio"`

	// PublicProfileSlug is the shareable path segment of the public profile.
	PublicProfileSlug string `json:"public_profile_url" db:"public_profile_url"`

	Visibility   ProfileVisibility  `json:"profile_visibility" db:"profile_visibility"`
	Availability AvailabilityStatus `json:"availability_status" db:"availability_status"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// EmployerProfile holds the kind-specific data of an EMPLOYER account.
type EmployerProfile struct {
	// ID is the unique identifier of the profile row.
	ID string `json:"id" db:"id"`

	// AccountID references the owning account; at most one profile per account.
	AccountID string `json:"user_id" db:"user_id"`

	// CompanyName is required.
	CompanyName  string       `json:"company_name" db:"company_name"`
	Industry     *string      `json:"industry,omitempty" db:"industry"`
	CompanySize  *CompanySize `json:"company_size,omitempty" db:"company_size"`
	Website      *string      `json:"website,omitempty" db:"website"`
	Description  *string      `json:"company_description,omitempty" db:"company_description"`
	Headquarters *string      `json:"headquarters_location,omitempty" db:"headquarters_location"`
	IsVerified   bool         `json:"is_verified" db:"is_verified"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Profile is the kind-specific data attached to an account.
// Exactly one of JobSeeker and Employer is set, matching Kind.
type Profile struct {
	Kind      AccountKind       `json:"kind"`
	JobSeeker *JobSeekerProfile `json:"job_seeker,omitempty"`
	Employer  *EmployerProfile  `json:"employer,omitempty"`
}

func NewJobSeekerProfile(p JobSeekerProfile) *Profile {
	return &Profile{Kind: KindJobSeeker, JobSeeker: &p}
}

func NewEmployerProfile(p EmployerProfile) *Profile {
	return &Profile{Kind: KindEmployer, Employer: &p}
}

// DisplayName returns the human-readable name of the profile owner,
// or "" when the profile carries no usable name.
func (p *Profile) DisplayName() string {
	if p == nil {
		return ""
	}
	switch p.Kind {
	case KindJobSeeker:
		if p.JobSeeker != nil {
			return strings.TrimSpace(p.JobSeeker.FirstName + " " + p.JobSeeker.LastName)
		}
	case KindEmployer:
		if p.Employer != nil {
			return p.Employer.CompanyName
		}
	}
	return ""
}
