package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/jobportal/apiserver/internal/events"
	"github.com/jobportal/apiserver/internal/logging"
	"github.com/jobportal/apiserver/internal/storage"
	"github.com/jobportal/apiserver/internal/store"
	"github.com/jobportal/apiserver/types"
)

var resumeExtensions = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// ApplicationRepository defines persistence operations for applications.
type ApplicationRepository interface {
	Create(ctx context.Context, app types.Application) (types.Application, error)
	ListByJobSeeker(ctx context.Context, jobSeekerID string, filter types.ApplicationFilter) ([]types.Application, error)
	ListByJobPosting(ctx context.Context, jobPostingID string, filter types.ApplicationFilter) ([]types.Application, error)
}

// ResumeStore persists uploaded resumes.
type ResumeStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// EventPublisher announces submitted applications.
type EventPublisher interface {
	ApplicationSubmitted(ctx context.Context, evt events.ApplicationSubmitted) (string, error)
}

// ApplicationService encapsulates job application use-cases.
type ApplicationService struct {
	repo     ApplicationRepository
	jobs     *JobService
	profiles ProfileRepository
	resumes  ResumeStore
	events   EventPublisher
	log      logging.Logger
}

// NewApplicationService wires the service. resumes and publisher may be nil,
// which disables uploads and events respectively.
func NewApplicationService(
	repo ApplicationRepository,
	jobs *JobService,
	profiles ProfileRepository,
	resumes ResumeStore,
	publisher EventPublisher,
	log logging.Logger,
) *ApplicationService {
	return &ApplicationService{
		repo:     repo,
		jobs:     jobs,
		profiles: profiles,
		resumes:  resumes,
		events:   publisher,
		log:      log,
	}
}

// Resume is an uploaded resume file.
type Resume struct {
	Filename string
	Size     int64
	Body     io.Reader
}

type ApplyRequest struct {
	CoverLetter       *string `json:"cover_letter,omitempty"`
	SalaryExpectation *int    `json:"salary_expectation,omitempty"`
	Resume            *Resume `json:"-"`
}

// Apply submits the job seeker in claim to the published posting jobID.
func (s *ApplicationService) Apply(ctx context.Context, claim *types.SessionClaim, jobID string, req ApplyRequest) (types.Application, error) {
	seeker, err := s.jobSeekerFor(ctx, claim)
	if err != nil {
		return types.Application{}, err
	}
	jp, err := s.jobs.Get(ctx, jobID, nil)
	if err != nil {
		return types.Application{}, err
	}
	if req.SalaryExpectation != nil && *req.SalaryExpectation < 0 {
		return types.Application{}, fmt.Errorf("%w: salary expectation must not be negative", ErrValidation)
	}

	app := types.Application{
		ID:                uuid.NewString(),
		JobSeekerID:       seeker.ID,
		JobPostingID:      jp.ID,
		CoverLetter:       trimmed(req.CoverLetter),
		SalaryExpectation: req.SalaryExpectation,
		Status:            types.ApplicationSubmitted,
	}

	if req.Resume != nil {
		key, err := s.storeResume(ctx, seeker.ID, *req.Resume)
		if err != nil {
			return types.Application{}, err
		}
		app.ResumeKey = &key
	}

	created, err := s.repo.Create(ctx, app)
	if err != nil {
		if app.ResumeKey != nil {
			if delErr := s.resumes.Delete(ctx, *app.ResumeKey); delErr != nil {
				s.log.Warn(ctx, "failed to remove orphaned resume", "key", *app.ResumeKey, "error", delErr)
			}
		}
		if errors.Is(err, store.ErrConflict) {
			return types.Application{}, ErrAlreadyApplied
		}
		return types.Application{}, err
	}

	if s.events != nil {
		if _, err := s.events.ApplicationSubmitted(ctx, events.NewApplicationSubmitted(created, jp)); err != nil {
			s.log.Warn(ctx, "failed to publish application event", "application_id", created.ID, "error", err)
		}
	}
	return created, nil
}

// ListMine returns the applications of the job seeker in claim.
func (s *ApplicationService) ListMine(ctx context.Context, claim *types.SessionClaim, status types.ApplicationStatus) ([]types.Application, error) {
	seeker, err := s.jobSeekerFor(ctx, claim)
	if errors.Is(err, ErrProfileIncomplete) {
		return []types.Application{}, nil
	}
	if err != nil {
		return nil, err
	}
	return s.repo.ListByJobSeeker(ctx, seeker.ID, types.ApplicationFilter{Status: status})
}

// ListForPosting returns applications to jobID; only the owning employer may list them.
func (s *ApplicationService) ListForPosting(ctx context.Context, claim *types.SessionClaim, jobID string, status types.ApplicationStatus) ([]types.Application, error) {
	employer, err := s.jobs.employerFor(ctx, claim)
	if err != nil {
		return nil, err
	}
	jp, err := s.jobs.repo.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if jp.EmployerID != employer.ID {
		return nil, ErrForbidden
	}
	return s.repo.ListByJobPosting(ctx, jobID, types.ApplicationFilter{Status: status})
}

// ResumeFile is a stored resume opened for download. The caller closes Body.
type ResumeFile struct {
	Name        string
	ContentType string
	Body        io.ReadCloser
}

// OpenResume opens the resume attached to application appID on jobID. Only
// the employer owning the posting may read it.
func (s *ApplicationService) OpenResume(ctx context.Context, claim *types.SessionClaim, jobID, appID string) (ResumeFile, error) {
	apps, err := s.ListForPosting(ctx, claim, jobID, "")
	if err != nil {
		return ResumeFile{}, err
	}
	for _, app := range apps {
		if app.ID != appID {
			continue
		}
		if app.ResumeKey == nil || s.resumes == nil {
			return ResumeFile{}, store.ErrNotFound
		}
		body, err := s.resumes.Get(ctx, *app.ResumeKey)
		if errors.Is(err, storage.ErrObjectNotFound) {
			return ResumeFile{}, store.ErrNotFound
		}
		if err != nil {
			return ResumeFile{}, fmt.Errorf("open resume: %w", err)
		}
		ext := strings.ToLower(path.Ext(*app.ResumeKey))
		return ResumeFile{
			Name:        "resume-" + app.ID + ext,
			ContentType: resumeExtensions[ext],
			Body:        body,
		}, nil
	}
	return ResumeFile{}, store.ErrNotFound
}

func (s *ApplicationService) storeResume(ctx context.Context, seekerID string, resume Resume) (string, error) {
	if s.resumes == nil {
		return "", ErrUploadsDisabled
	}
	ext := strings.ToLower(path.Ext(resume.Filename))
	contentType, ok := resumeExtensions[ext]
	if !ok {
		return "", fmt.Errorf("%w: resume must be a PDF or Word document", ErrValidation)
	}
	key := path.Join("resumes", seekerID, uuid.NewString()+ext)
	if err := s.resumes.Put(ctx, key, resume.Body, resume.Size, contentType); err != nil {
		return "", fmt.Errorf("store resume: %w", err)
	}
	return key, nil
}

func (s *ApplicationService) jobSeekerFor(ctx context.Context, claim *types.SessionClaim) (types.JobSeekerProfile, error) {
	if claim == nil || claim.Kind != types.KindJobSeeker {
		return types.JobSeekerProfile{}, ErrForbidden
	}
	seeker, err := s.profiles.JobSeekerByAccountID(ctx, claim.AccountID)
	if errors.Is(err, store.ErrNotFound) {
		return types.JobSeekerProfile{}, ErrProfileIncomplete
	}
	return seeker, err
}
