package types

import "time"

type EmploymentType string

const (
	EmploymentFullTime   EmploymentType = "FULL_TIME"
	EmploymentPartTime   EmploymentType = "PART_TIME"
	EmploymentContract   EmploymentType = "CONTRACT"
	EmploymentInternship EmploymentType = "INTERNSHIP"
	EmploymentFreelance  EmploymentType = "FREELANCE"
)

type ExperienceLevel string

const (
	ExperienceEntry     ExperienceLevel = "ENTRY"
	ExperienceJunior    ExperienceLevel = "JUNIOR"
	ExperienceMid       ExperienceLevel = "MID"
	ExperienceSenior    ExperienceLevel = "SENIOR"
	ExperienceLead      ExperienceLevel = "LEAD"
	ExperienceExecutive ExperienceLevel = "EXECUTIVE"
)

type RemoteType string

const (
	RemoteOnSite RemoteType = "ON_SITE"
	RemoteHybrid RemoteType = "HYBRID"
	RemoteFull   RemoteType = "REMOTE"
)

type JobStatus string

const (
	JobStatusDraft     JobStatus = "DRAFT"
	JobStatusPublished JobStatus = "PUBLISHED"
	JobStatusPaused    JobStatus = "PAUSED"
	JobStatusExpired   JobStatus = "EXPIRED"
	JobStatusClosed    JobStatus = "CLOSED"
)

// EmployerSummary is the employer data embedded in job listings.
type EmployerSummary struct {
	ID          string       `json:"id"`
	CompanyName string       `json:"company_name"`
	CompanySize *CompanySize `json:"company_size,omitempty"`
	Industry    *string      `json:"industry,omitempty"`
	IsVerified  bool         `json:"is_verified"`
}

// JobPosting is a job listing published by an employer.
type JobPosting struct {
	// ID is the unique identifier of the posting.
	ID string `json:"id" db:"id"`

	// EmployerID references the employer profile that owns the posting.
	EmployerID string `json:"employer_id" db:"employer_id"`

	Title            string  `json:"title" db:"title"`
	Slug             string  `json:"slug" db:"slug"`
	Description      string  `json:"description" db:"description"`
	Requirements     *string `json:"requirements,omitempty" db:"requirements"`
	Responsibilities *string `json:"responsibilities,omitempty" db:"responsibilities"`

	EmploymentType  EmploymentType  `json:"employment_type" db:"employment_type"`
	ExperienceLevel ExperienceLevel `json:"experience_level" db:"experience_level"`

	// SalaryMin and SalaryMax are whole currency units.
	SalaryMin      *int    `json:"salary_min,omitempty" db:"salary_min"`
	SalaryMax      *int    `json:"salary_max,omitempty" db:"salary_max"`
	SalaryCurrency *string `json:"salary_currency,omitempty" db:"salary_currency"`

	Location   *string    `json:"location,omitempty" db:"location"`
	IsRemote   bool       `json:"is_remote" db:"is_remote"`
	RemoteType RemoteType `json:"remote_type" db:"remote_type"`

	Status           JobStatus `json:"status" db:"status"`
	ViewCount        int       `json:"view_count" db:"view_count"`
	ApplicationCount int       `json:"application_count" db:"application_count"`

	// Employer and RequiredSkills are populated on reads, not stored on the row.
	Employer       *EmployerSummary `json:"employer,omitempty" db:"-"`
	RequiredSkills []string         `json:"required_skills" db:"-"`

	PublishedAt *time.Time `json:"published_at,omitempty" db:"published_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// JobFilter narrows a job listing query. Zero values mean "any".
type JobFilter struct {
	Keywords        string
	Location        string
	RemoteOnly      bool
	EmploymentType  EmploymentType
	ExperienceLevel ExperienceLevel
	EmployerID      string
	Status          JobStatus
	Offset          int
	Limit           int
}

// Page is a slice of results with the total count before pagination.
type Page[T any] struct {
	Items  []T `json:"items"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Total  int `json:"total"`
}
