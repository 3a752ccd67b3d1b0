package types

import "time"

type ApplicationStatus string

const (
	ApplicationSubmitted   ApplicationStatus = "SUBMITTED"
	ApplicationReviewing   ApplicationStatus = "UNDER_REVIEW"
	ApplicationInterviewed ApplicationStatus = "INTERVIEWED"
	ApplicationOffered     ApplicationStatus = "OFFERED"
	ApplicationHired       ApplicationStatus = "HIRED"
	ApplicationRejected    ApplicationStatus = "REJECTED"
	ApplicationWithdrawn   ApplicationStatus = "WITHDRAWN"
)

// Valid reports whether s is a known application status.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationSubmitted, ApplicationReviewing, ApplicationInterviewed,
		ApplicationOffered, ApplicationHired, ApplicationRejected, ApplicationWithdrawn:
		return true
	}
	return false
}

// Application is a job seeker's application to a posting.
type Application struct {
	// ID is the unique identifier of the application.
	ID string `json:"id" db:"id"`

	// JobSeekerID references the applicant's job-seeker profile.
	JobSeekerID string `json:"job_seeker_id" db:"job_seeker_id"`

	// JobPostingID references the posting applied to.
	JobPostingID string `json:"job_posting_id" db:"job_posting_id"`

	CoverLetter       *string `json:"cover_letter,omitempty" db:"cover_letter"`
	SalaryExpectation *int    `json:"salary_expectation,omitempty" db:"salary_expectation"`

	// ResumeKey is the object storage key of an uploaded resume.
	ResumeKey *string `json:"resume_key,omitempty" db:"resume_key"`

	Status    ApplicationStatus `json:"status" db:"status"`
	AppliedAt time.Time         `json:"applied_at" db:"applied_at"`
	UpdatedAt time.Time         `json:"updated_at" db:"updated_at"`

	// JobPosting is populated on job-seeker reads.
	JobPosting *JobPosting `json:"job_posting,omitempty" db:"-"`
}

// ApplicationFilter narrows application listings. Zero values mean "any".
type ApplicationFilter struct {
	Status       ApplicationStatus
	JobPostingID string
}
