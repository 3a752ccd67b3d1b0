package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/jobportal/apiserver/internal/store"
	"github.com/jobportal/apiserver/types"
)

const (
	defaultJobLimit  = 10
	maxJobLimit      = 50
	employerJobLimit = 200
)

// JobPostingRepository defines persistence operations for job postings.
type JobPostingRepository interface {
	List(ctx context.Context, filter types.JobFilter) ([]types.JobPosting, int, error)
	Get(ctx context.Context, id string) (types.JobPosting, error)
	Create(ctx context.Context, jp types.JobPosting) (types.JobPosting, error)
}

// JobService encapsulates job posting use-cases.
type JobService struct {
	repo     JobPostingRepository
	profiles ProfileRepository
}

func NewJobService(repo JobPostingRepository, profiles ProfileRepository) *JobService {
	return &JobService{repo: repo, profiles: profiles}
}

// NewJobPosting is the employer-supplied part of a posting.
type NewJobPosting struct {
	Title            string                `json:"title"`
	Description      string                `json:"description"`
	Requirements     *string               `json:"requirements,omitempty"`
	Responsibilities *string               `json:"responsibilities,omitempty"`
	EmploymentType   types.EmploymentType  `json:"employment_type"`
	ExperienceLevel  types.ExperienceLevel `json:"experience_level"`
	SalaryMin        *int                  `json:"salary_min,omitempty"`
	SalaryMax        *int                  `json:"salary_max,omitempty"`
	SalaryCurrency   *string               `json:"salary_currency,omitempty"`
	Location         *string               `json:"location,omitempty"`
	RemoteType       types.RemoteType      `json:"remote_type"`
	RequiredSkills   []string              `json:"required_skills"`
	// Draft keeps the posting out of public listings.
	Draft bool `json:"draft"`
}

// List returns one page of published postings.
func (s *JobService) List(ctx context.Context, filter types.JobFilter) (types.Page[types.JobPosting], error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultJobLimit
	}
	if filter.Limit > maxJobLimit {
		filter.Limit = maxJobLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	filter.Status = types.JobStatusPublished
	filter.EmployerID = ""

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return types.Page[types.JobPosting]{}, err
	}
	return types.Page[types.JobPosting]{
		Items:  items,
		Offset: filter.Offset,
		Limit:  filter.Limit,
		Total:  total,
	}, nil
}

// Get returns a posting. Unpublished postings are visible only to the
// employer that owns them; everyone else gets store.ErrNotFound.
func (s *JobService) Get(ctx context.Context, id string, viewer *types.SessionClaim) (types.JobPosting, error) {
	jp, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.JobPosting{}, err
	}
	if jp.Status == types.JobStatusPublished {
		return jp, nil
	}
	if viewer != nil && viewer.Kind == types.KindEmployer {
		employer, err := s.profiles.EmployerByAccountID(ctx, viewer.AccountID)
		if err == nil && employer.ID == jp.EmployerID {
			return jp, nil
		}
	}
	return types.JobPosting{}, store.ErrNotFound
}

// Create publishes a posting on behalf of the employer in claim.
func (s *JobService) Create(ctx context.Context, claim *types.SessionClaim, req NewJobPosting) (types.JobPosting, error) {
	employer, err := s.employerFor(ctx, claim)
	if err != nil {
		return types.JobPosting{}, err
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if req.Title == "" || req.Description == "" {
		return types.JobPosting{}, fmt.Errorf("%w: title and description are required", ErrValidation)
	}
	if req.SalaryMin != nil && req.SalaryMax != nil && *req.SalaryMin > *req.SalaryMax {
		return types.JobPosting{}, fmt.Errorf("%w: salary_min exceeds salary_max", ErrValidation)
	}
	if req.EmploymentType == "" {
		req.EmploymentType = types.EmploymentFullTime
	}
	if req.ExperienceLevel == "" {
		req.ExperienceLevel = types.ExperienceMid
	}
	if req.RemoteType == "" {
		req.RemoteType = types.RemoteOnSite
	}

	status := types.JobStatusPublished
	if req.Draft {
		status = types.JobStatusDraft
	}

	id := uuid.NewString()
	jp := types.JobPosting{
		ID:               id,
		EmployerID:       employer.ID,
		Title:            req.Title,
		Slug:             slug.Make(req.Title) + "-" + id[:8],
		Description:      req.Description,
		Requirements:     trimmed(req.Requirements),
		Responsibilities: trimmed(req.Responsibilities),
		EmploymentType:   req.EmploymentType,
		ExperienceLevel:  req.ExperienceLevel,
		SalaryMin:        req.SalaryMin,
		SalaryMax:        req.SalaryMax,
		SalaryCurrency:   trimmed(req.SalaryCurrency),
		Location:         trimmed(req.Location),
		IsRemote:         req.RemoteType == types.RemoteFull,
		RemoteType:       req.RemoteType,
		Status:           status,
		RequiredSkills:   normalizeSkills(req.RequiredSkills),
	}
	return s.repo.Create(ctx, jp)
}

// ListForEmployer returns every posting owned by the employer in claim,
// whatever its status.
func (s *JobService) ListForEmployer(ctx context.Context, claim *types.SessionClaim) ([]types.JobPosting, error) {
	employer, err := s.employerFor(ctx, claim)
	if err != nil {
		return nil, err
	}
	items, _, err := s.repo.List(ctx, types.JobFilter{EmployerID: employer.ID, Limit: employerJobLimit})
	return items, err
}

func (s *JobService) employerFor(ctx context.Context, claim *types.SessionClaim) (types.EmployerProfile, error) {
	if claim == nil || claim.Kind != types.KindEmployer {
		return types.EmployerProfile{}, ErrForbidden
	}
	employer, err := s.profiles.EmployerByAccountID(ctx, claim.AccountID)
	if errors.Is(err, store.ErrNotFound) {
		return types.EmployerProfile{}, ErrProfileIncomplete
	}
	return employer, err
}

func normalizeSkills(skills []string) []string {
	seen := make(map[string]struct{}, len(skills))
	out := make([]string, 0, len(skills))
	for _, skill := range skills {
		skill = strings.TrimSpace(skill)
		key := strings.ToLower(skill)
		if skill == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, skill)
	}
	return out
}
