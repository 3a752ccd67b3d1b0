// Package memory is an in-process store backend used for development and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jobportal/apiserver/internal/store"
	"github.com/jobportal/apiserver/types"
)

// Store holds every table behind one lock.
type Store struct {
	mu sync.RWMutex

	accounts     map[string]types.Account
	emails       map[string]string
	jobSeekers   map[string]types.JobSeekerProfile
	employers    map[string]types.EmployerProfile
	postings     map[string]types.JobPosting
	applications map[string]types.Application

	now func() time.Time
}

func New() *Store {
	return &Store{
		accounts:     make(map[string]types.Account),
		emails:       make(map[string]string),
		jobSeekers:   make(map[string]types.JobSeekerProfile),
		employers:    make(map[string]types.EmployerProfile),
		postings:     make(map[string]types.JobPosting),
		applications: make(map[string]types.Application),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Accounts() *AccountRepository { return &AccountRepository{s: s} }

func (s *Store) Profiles() *ProfileRepository { return &ProfileRepository{s: s} }

func (s *Store) JobPostings() *JobPostingRepository { return &JobPostingRepository{s: s} }

func (s *Store) Applications() *ApplicationRepository { return &ApplicationRepository{s: s} }

type AccountRepository struct{ s *Store }

func (r *AccountRepository) GetByID(_ context.Context, id string) (types.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	account, ok := r.s.accounts[id]
	if !ok {
		return types.Account{}, store.ErrNotFound
	}
	return account, nil
}

func (r *AccountRepository) GetByEmail(_ context.Context, email string) (types.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.emails[types.NormalizeEmail(email)]
	if !ok {
		return types.Account{}, store.ErrNotFound
	}
	return r.s.accounts[id], nil
}

func (r *AccountRepository) Create(_ context.Context, account types.Account) (types.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.insertAccountLocked(account)
}

func (r *AccountRepository) CreateJobSeeker(_ context.Context, account types.Account, profile types.JobSeekerProfile) (types.Account, types.JobSeekerProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.jobSeekers {
		if existing.PublicProfileSlug == profile.PublicProfileSlug || existing.ID == profile.ID {
			return types.Account{}, types.JobSeekerProfile{}, store.ErrConflict
		}
	}
	created, err := r.s.insertAccountLocked(account)
	if err != nil {
		return types.Account{}, types.JobSeekerProfile{}, err
	}
	profile.AccountID = created.ID
	profile.CreatedAt = created.CreatedAt
	profile.UpdatedAt = created.CreatedAt
	r.s.jobSeekers[created.ID] = profile
	return created, profile, nil
}

func (r *AccountRepository) CreateEmployer(_ context.Context, account types.Account, profile types.EmployerProfile) (types.Account, types.EmployerProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.employers {
		if existing.ID == profile.ID {
			return types.Account{}, types.EmployerProfile{}, store.ErrConflict
		}
	}
	created, err := r.s.insertAccountLocked(account)
	if err != nil {
		return types.Account{}, types.EmployerProfile{}, err
	}
	profile.AccountID = created.ID
	profile.CreatedAt = created.CreatedAt
	profile.UpdatedAt = created.CreatedAt
	r.s.employers[created.ID] = profile
	return created, profile, nil
}

func (r *AccountRepository) SetActive(_ context.Context, id string, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	account, ok := r.s.accounts[id]
	if !ok {
		return store.ErrNotFound
	}
	account.IsActive = active
	account.UpdatedAt = r.s.now()
	r.s.accounts[id] = account
	return nil
}

func (s *Store) insertAccountLocked(account types.Account) (types.Account, error) {
	key := types.NormalizeEmail(account.Email)
	if _, taken := s.emails[key]; taken {
		return types.Account{}, store.ErrConflict
	}
	if _, taken := s.accounts[account.ID]; taken {
		return types.Account{}, store.ErrConflict
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = s.now()
	}
	account.UpdatedAt = account.CreatedAt
	s.accounts[account.ID] = account
	s.emails[key] = account.ID
	return account, nil
}

// ProfileRepository indexes profiles by owning account id.
type ProfileRepository struct{ s *Store }

func (r *ProfileRepository) JobSeekerByAccountID(_ context.Context, accountID string) (types.JobSeekerProfile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.jobSeekers[accountID]
	if !ok {
		return types.JobSeekerProfile{}, store.ErrNotFound
	}
	return p, nil
}

func (r *ProfileRepository) EmployerByAccountID(_ context.Context, accountID string) (types.EmployerProfile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.employers[accountID]
	if !ok {
		return types.EmployerProfile{}, store.ErrNotFound
	}
	return p, nil
}

type JobPostingRepository struct{ s *Store }

func (r *JobPostingRepository) List(_ context.Context, filter types.JobFilter) ([]types.JobPosting, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []types.JobPosting
	for _, jp := range r.s.postings {
		if matchesJobFilter(jp, filter) {
			matched = append(matched, r.s.decoratePostingLocked(jp))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := min(filter.Offset, total)
	end := total
	if filter.Limit > 0 {
		end = min(start+filter.Limit, total)
	}
	page := append([]types.JobPosting{}, matched[start:end]...)
	return page, total, nil
}

func (r *JobPostingRepository) Get(_ context.Context, id string) (types.JobPosting, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	jp, ok := r.s.postings[id]
	if !ok {
		return types.JobPosting{}, store.ErrNotFound
	}
	return r.s.decoratePostingLocked(jp), nil
}

func (r *JobPostingRepository) Create(_ context.Context, jp types.JobPosting) (types.JobPosting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, taken := r.s.postings[jp.ID]; taken {
		return types.JobPosting{}, store.ErrConflict
	}
	for _, existing := range r.s.postings {
		if existing.Slug == jp.Slug {
			return types.JobPosting{}, store.ErrConflict
		}
	}
	if r.s.employerByIDLocked(jp.EmployerID) == nil {
		return types.JobPosting{}, store.ErrNotFound
	}
	if jp.CreatedAt.IsZero() {
		jp.CreatedAt = r.s.now()
	}
	jp.UpdatedAt = jp.CreatedAt
	if jp.Status == types.JobStatusPublished && jp.PublishedAt == nil {
		published := jp.CreatedAt
		jp.PublishedAt = &published
	}
	jp.RequiredSkills = append([]string{}, jp.RequiredSkills...)
	sort.Strings(jp.RequiredSkills)
	jp.Employer = nil
	r.s.postings[jp.ID] = jp
	return r.s.decoratePostingLocked(jp), nil
}

func (s *Store) employerByIDLocked(id string) *types.EmployerProfile {
	for _, e := range s.employers {
		if e.ID == id {
			return &e
		}
	}
	return nil
}

func (s *Store) decoratePostingLocked(jp types.JobPosting) types.JobPosting {
	if e := s.employerByIDLocked(jp.EmployerID); e != nil {
		jp.Employer = &types.EmployerSummary{
			ID:          e.ID,
			CompanyName: e.CompanyName,
			CompanySize: e.CompanySize,
			Industry:    e.Industry,
			IsVerified:  e.IsVerified,
		}
	}
	jp.RequiredSkills = append([]string{}, jp.RequiredSkills...)
	return jp
}

func matchesJobFilter(jp types.JobPosting, f types.JobFilter) bool {
	if f.Status != "" && jp.Status != f.Status {
		return false
	}
	if f.EmployerID != "" && jp.EmployerID != f.EmployerID {
		return false
	}
	if kw := strings.ToLower(strings.TrimSpace(f.Keywords)); kw != "" {
		if !strings.Contains(strings.ToLower(jp.Title), kw) && !strings.Contains(strings.ToLower(jp.Description), kw) {
			return false
		}
	}
	if loc := strings.ToLower(strings.TrimSpace(f.Location)); loc != "" {
		if jp.Location == nil || !strings.Contains(strings.ToLower(*jp.Location), loc) {
			return false
		}
	}
	if f.RemoteOnly && !jp.IsRemote {
		return false
	}
	if f.EmploymentType != "" && jp.EmploymentType != f.EmploymentType {
		return false
	}
	if f.ExperienceLevel != "" && jp.ExperienceLevel != f.ExperienceLevel {
		return false
	}
	return true
}

type ApplicationRepository struct{ s *Store }

func (r *ApplicationRepository) Create(_ context.Context, app types.Application) (types.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	jp, ok := r.s.postings[app.JobPostingID]
	if !ok {
		return types.Application{}, store.ErrNotFound
	}
	for _, existing := range r.s.applications {
		if existing.ID == app.ID ||
			(existing.JobSeekerID == app.JobSeekerID && existing.JobPostingID == app.JobPostingID) {
			return types.Application{}, store.ErrConflict
		}
	}
	if app.AppliedAt.IsZero() {
		app.AppliedAt = r.s.now()
	}
	app.UpdatedAt = app.AppliedAt
	if app.Status == "" {
		app.Status = types.ApplicationSubmitted
	}
	app.JobPosting = nil
	r.s.applications[app.ID] = app

	jp.ApplicationCount++
	r.s.postings[jp.ID] = jp
	return app, nil
}

func (r *ApplicationRepository) ListByJobSeeker(_ context.Context, jobSeekerID string, filter types.ApplicationFilter) ([]types.Application, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	apps := []types.Application{}
	for _, app := range r.s.applications {
		if app.JobSeekerID != jobSeekerID || !matchesApplicationFilter(app, filter) {
			continue
		}
		if jp, ok := r.s.postings[app.JobPostingID]; ok {
			decorated := r.s.decoratePostingLocked(jp)
			app.JobPosting = &decorated
		}
		apps = append(apps, app)
	}
	sortApplications(apps)
	return apps, nil
}

func (r *ApplicationRepository) ListByJobPosting(_ context.Context, jobPostingID string, filter types.ApplicationFilter) ([]types.Application, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	apps := []types.Application{}
	for _, app := range r.s.applications {
		if app.JobPostingID == jobPostingID && matchesApplicationFilter(app, filter) {
			apps = append(apps, app)
		}
	}
	sortApplications(apps)
	return apps, nil
}

func matchesApplicationFilter(app types.Application, f types.ApplicationFilter) bool {
	if f.Status != "" && app.Status != f.Status {
		return false
	}
	if f.JobPostingID != "" && app.JobPostingID != f.JobPostingID {
		return false
	}
	return true
}

func sortApplications(apps []types.Application) {
	sort.Slice(apps, func(i, j int) bool {
		if apps[i].AppliedAt.Equal(apps[j].AppliedAt) {
			return apps[i].ID < apps[j].ID
		}
		return apps[i].AppliedAt.After(apps[j].AppliedAt)
	})
}
