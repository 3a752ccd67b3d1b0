package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jobportal/apiserver/internal/auth"
	"github.com/jobportal/apiserver/internal/guard"
	"github.com/jobportal/apiserver/internal/logging"
	"github.com/jobportal/apiserver/internal/services"
	"github.com/jobportal/apiserver/types"
)

const homeJobCount = 6

var kindLabels = map[types.AccountKind]string{
	types.KindJobSeeker: "Job Seeker",
	types.KindEmployer:  "Employer",
	types.KindAdmin:     "Administrator",
}

// PageHandler serves the data behind each page. Rendering happens client-side;
// every response is the page's view model as JSON.
type PageHandler struct {
	sessions     *auth.SessionManager
	accounts     *services.AccountService
	profiles     *ProfileHandler
	jobs         *services.JobService
	applications *services.ApplicationService
	log          logging.Logger
}

func NewPageHandler(
	sessions *auth.SessionManager,
	accounts *services.AccountService,
	profiles *ProfileHandler,
	jobs *services.JobService,
	applications *services.ApplicationService,
	log logging.Logger,
) *PageHandler {
	return &PageHandler{
		sessions:     sessions,
		accounts:     accounts,
		profiles:     profiles,
		jobs:         jobs,
		applications: applications,
		log:          log,
	}
}

// PageRouter registers page routes. The caller mounts the route guard in front.
func PageRouter(r chi.Router, handler *PageHandler) {
	r.Get("/", handler.Home)
	r.Get("/login", handler.Login)
	r.Get("/register", handler.Register)
	r.Get("/dashboard", handler.Dashboard)
	r.Get("/profile", handler.Profile)
	r.Get("/settings", handler.Settings)
	r.Get("/jobs/create", handler.CreateJob)
	r.Get("/applications", handler.Applications)
	r.Get("/jobs/{jobID}", handler.Job)
}

type HomePage struct {
	Session *types.SessionClaim `json:"session"`
	Jobs    []types.JobPosting  `json:"jobs"`
	Total   int                 `json:"total"`
}

type LoginPage struct {
	Redirect string `json:"redirect"`
}

type RegisterPage struct {
	Kinds []types.AccountKind `json:"kinds"`
}

type DashboardPage struct {
	ProfileResponse
	KindLabel         string                          `json:"kind_label"`
	Applications      []types.Application             `json:"applications,omitempty"`
	StatusCounts      map[types.ApplicationStatus]int `json:"status_counts,omitempty"`
	Postings          []types.JobPosting              `json:"postings,omitempty"`
	TotalApplications int                             `json:"total_applications"`
}

type ProfilePage struct {
	ProfileResponse
	DisplayName string `json:"display_name"`
	// NeedsProfile is set when the kind has a profile but none exists yet.
	NeedsProfile bool `json:"needs_profile"`
}

type SettingsPage struct {
	Session *types.SessionClaim `json:"session"`
	Account types.Account       `json:"account"`
}

type CreateJobPage struct {
	ProfileResponse
	EmploymentTypes  []types.EmploymentType  `json:"employment_types"`
	ExperienceLevels []types.ExperienceLevel `json:"experience_levels"`
	RemoteTypes      []types.RemoteType      `json:"remote_types"`
}

type ApplicationsPage struct {
	Session      *types.SessionClaim             `json:"session"`
	Items        []types.Application             `json:"items"`
	StatusCounts map[types.ApplicationStatus]int `json:"status_counts"`
}

type JobPage struct {
	Session    *types.SessionClaim `json:"session"`
	Job        types.JobPosting    `json:"job"`
	HasApplied bool                `json:"has_applied"`
}

func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	claim, _ := auth.ClaimFromContext(r.Context())
	page, err := h.jobs.List(r.Context(), types.JobFilter{Limit: homeJobCount})
	if err != nil {
		h.log.Error(r.Context(), "failed to list recent jobs", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, HomePage{Session: claim, Jobs: page.Items, Total: page.Total})
}

func (h *PageHandler) Login(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LoginPage{Redirect: guard.SafeRedirect(r.URL.Query().Get("redirect"))})
}

func (h *PageHandler) Register(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, RegisterPage{Kinds: []types.AccountKind{types.KindJobSeeker, types.KindEmployer}})
}

func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	claim, ok := h.requireClaim(w, r)
	if !ok {
		return
	}

	page := DashboardPage{
		ProfileResponse: h.profiles.resolve(r, claim),
		KindLabel:       kindLabels[claim.Kind],
	}
	if page.KindLabel == "" {
		page.KindLabel = "User"
	}

	switch claim.Kind {
	case types.KindJobSeeker:
		apps, err := h.applications.ListMine(r.Context(), claim, "")
		if err != nil {
			h.log.Warn(r.Context(), "dashboard applications unavailable", "error", err)
			break
		}
		page.Applications = apps
		page.StatusCounts = countByStatus(apps)
		page.TotalApplications = len(apps)
	case types.KindEmployer:
		if page.Profile == nil {
			break
		}
		postings, err := h.jobs.ListForEmployer(r.Context(), claim)
		if err != nil {
			h.log.Warn(r.Context(), "dashboard postings unavailable", "error", err)
			break
		}
		page.Postings = postings
		for _, jp := range postings {
			page.TotalApplications += jp.ApplicationCount
		}
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *PageHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claim, ok := h.requireClaim(w, r)
	if !ok {
		return
	}
	resp := h.profiles.resolve(r, claim)
	writeJSON(w, http.StatusOK, ProfilePage{
		ProfileResponse: resp,
		DisplayName:     resp.Profile.DisplayName(),
		NeedsProfile: resp.Profile == nil && resp.ProfileError == "" &&
			(claim.Kind == types.KindJobSeeker || claim.Kind == types.KindEmployer),
	})
}

func (h *PageHandler) Settings(w http.ResponseWriter, r *http.Request) {
	claim, ok := h.requireClaim(w, r)
	if !ok {
		return
	}
	account, err := h.accounts.GetByID(r.Context(), claim.AccountID)
	if err != nil {
		h.log.Error(r.Context(), "failed to load account", "account_id", claim.AccountID, "error", err)
		writeServiceError(w, err, "account not found")
		return
	}
	writeJSON(w, http.StatusOK, SettingsPage{Session: claim, Account: account})
}

func (h *PageHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	claim, ok := h.requireClaim(w, r)
	if !ok {
		return
	}
	if claim.Kind != types.KindEmployer {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	writeJSON(w, http.StatusOK, CreateJobPage{
		ProfileResponse: h.profiles.resolve(r, claim),
		EmploymentTypes: []types.EmploymentType{
			types.EmploymentFullTime, types.EmploymentPartTime, types.EmploymentContract,
			types.EmploymentInternship, types.EmploymentFreelance,
		},
		ExperienceLevels: []types.ExperienceLevel{
			types.ExperienceEntry, types.ExperienceJunior, types.ExperienceMid,
			types.ExperienceSenior, types.ExperienceLead, types.ExperienceExecutive,
		},
		RemoteTypes: []types.RemoteType{types.RemoteOnSite, types.RemoteHybrid, types.RemoteFull},
	})
}

func (h *PageHandler) Applications(w http.ResponseWriter, r *http.Request) {
	claim, ok := h.requireClaim(w, r)
	if !ok {
		return
	}
	status, err := parseApplicationStatus(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	apps, err := h.applications.ListMine(r.Context(), claim, status)
	if err != nil {
		writeServiceError(w, err, "not found")
		return
	}
	writeJSON(w, http.StatusOK, ApplicationsPage{Session: claim, Items: apps, StatusCounts: countByStatus(apps)})
}

func (h *PageHandler) Job(w http.ResponseWriter, r *http.Request) {
	claim, _ := auth.ClaimFromContext(r.Context())
	jp, err := h.jobs.Get(r.Context(), chi.URLParam(r, "jobID"), claim)
	if err != nil {
		writeServiceError(w, err, jobNotFound)
		return
	}

	page := JobPage{Session: claim, Job: jp}
	if claim != nil && claim.Kind == types.KindJobSeeker {
		apps, err := h.applications.ListMine(r.Context(), claim, "")
		if err == nil {
			for _, app := range apps {
				if app.JobPostingID == jp.ID {
					page.HasApplied = true
					break
				}
			}
		}
	}
	writeJSON(w, http.StatusOK, page)
}

// requireClaim redirects to login when a protected page is reached with a
// cookie that does not decode. The stale cookie is cleared so the login page
// is reachable again.
func (h *PageHandler) requireClaim(w http.ResponseWriter, r *http.Request) (*types.SessionClaim, bool) {
	if claim, ok := auth.ClaimFromContext(r.Context()); ok {
		return claim, true
	}
	h.sessions.ClearCookie(w)
	http.Redirect(w, r, guard.LoginRedirect(r.URL.Path), http.StatusTemporaryRedirect)
	return nil, false
}

func countByStatus(apps []types.Application) map[types.ApplicationStatus]int {
	counts := make(map[types.ApplicationStatus]int)
	for _, app := range apps {
		counts[app.Status]++
	}
	return counts
}
