package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jobportal/apiserver/internal/auth"
	"github.com/jobportal/apiserver/internal/logging"
	"github.com/jobportal/apiserver/internal/services"
	"github.com/jobportal/apiserver/internal/store"
	"github.com/jobportal/apiserver/types"
)

const (
	maxResumeBytes     = 5 << 20
	maxMultipartMemory = 1 << 20
	formFieldResume    = "resume"
	formFieldCover     = "cover_letter"
	formFieldSalary    = "salary_expectation"
	jobNotFound        = "job not found"
)

// JobHandler provides HTTP handlers for job postings and applications to them.
type JobHandler struct {
	jobs         *services.JobService
	applications *services.ApplicationService
	log          logging.Logger
}

func NewJobHandler(jobs *services.JobService, applications *services.ApplicationService, log logging.Logger) *JobHandler {
	return &JobHandler{jobs: jobs, applications: applications, log: log}
}

// JobRouter registers job routes on the given router.
func JobRouter(r chi.Router, handler *JobHandler) {
	employerOnly := RequireKind(types.KindEmployer)
	jobSeekerOnly := RequireKind(types.KindJobSeeker)

	r.Get("/", handler.ListJobs)
	r.With(RequireSession, employerOnly).Post("/", handler.CreateJob)
	r.Route("/{jobID}", func(r chi.Router) {
		r.Get("/", handler.GetJob)
		r.With(RequireSession, jobSeekerOnly).Post("/apply", handler.Apply)
		r.With(RequireSession, employerOnly).Get("/applications", handler.ListPostingApplications)
		r.With(RequireSession, employerOnly).Get("/applications/{applicationID}/resume", handler.DownloadResume)
	})
}

// ApplicationRouter registers the job seeker's application routes.
func ApplicationRouter(r chi.Router, handler *JobHandler) {
	r.Use(RequireSession, RequireKind(types.KindJobSeeker))
	r.Get("/", handler.ListMyApplications)
}

func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	filter, err := parseJobFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.jobs.List(r.Context(), filter)
	if err != nil {
		h.log.Error(r.Context(), "failed to list jobs", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	claim, _ := auth.ClaimFromContext(r.Context())
	jp, err := h.jobs.Get(r.Context(), chi.URLParam(r, "jobID"), claim)
	if err != nil {
		h.logUnexpected(r, "failed to fetch job", err)
		writeServiceError(w, err, jobNotFound)
		return
	}
	writeJSON(w, http.StatusOK, jp)
}

func (h *JobHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req services.NewJobPosting
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	claim, _ := auth.ClaimFromContext(r.Context())
	jp, err := h.jobs.Create(r.Context(), claim, req)
	if err != nil {
		h.logUnexpected(r, "failed to create job", err)
		writeServiceError(w, err, jobNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, jp)
}

// Apply accepts either a JSON body or a multipart form with an optional resume file.
func (h *JobHandler) Apply(w http.ResponseWriter, r *http.Request) {
	req, cleanup, err := parseApplyRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer cleanup()

	claim, _ := auth.ClaimFromContext(r.Context())
	app, err := h.applications.Apply(r.Context(), claim, chi.URLParam(r, "jobID"), req)
	if err != nil {
		h.logUnexpected(r, "failed to apply", err)
		writeServiceError(w, err, jobNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

func (h *JobHandler) ListPostingApplications(w http.ResponseWriter, r *http.Request) {
	status, err := parseApplicationStatus(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	claim, _ := auth.ClaimFromContext(r.Context())
	apps, err := h.applications.ListForPosting(r.Context(), claim, chi.URLParam(r, "jobID"), status)
	if err != nil {
		h.logUnexpected(r, "failed to list posting applications", err)
		writeServiceError(w, err, jobNotFound)
		return
	}
	writeJSON(w, http.StatusOK, ApplicationListResponse{Items: apps})
}

// DownloadResume streams an applicant's resume to the employer owning the posting.
func (h *JobHandler) DownloadResume(w http.ResponseWriter, r *http.Request) {
	claim, _ := auth.ClaimFromContext(r.Context())
	file, err := h.applications.OpenResume(r.Context(), claim, chi.URLParam(r, "jobID"), chi.URLParam(r, "applicationID"))
	if err != nil {
		h.logUnexpected(r, "failed to open resume", err)
		writeServiceError(w, err, "resume not found")
		return
	}
	defer file.Body.Close()

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, file.Body); err != nil {
		h.log.Warn(r.Context(), "resume download interrupted", "error", err)
	}
}

func (h *JobHandler) ListMyApplications(w http.ResponseWriter, r *http.Request) {
	status, err := parseApplicationStatus(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	claim, _ := auth.ClaimFromContext(r.Context())
	apps, err := h.applications.ListMine(r.Context(), claim, status)
	if err != nil {
		h.logUnexpected(r, "failed to list applications", err)
		writeServiceError(w, err, "not found")
		return
	}
	writeJSON(w, http.StatusOK, ApplicationListResponse{Items: apps})
}

func (h *JobHandler) logUnexpected(r *http.Request, msg string, err error) {
	if errors.Is(err, store.ErrNotFound) ||
		errors.Is(err, services.ErrValidation) ||
		errors.Is(err, services.ErrForbidden) ||
		errors.Is(err, services.ErrProfileIncomplete) ||
		errors.Is(err, services.ErrAlreadyApplied) ||
		errors.Is(err, services.ErrUploadsDisabled) {
		return
	}
	h.log.Error(r.Context(), msg, "error", err)
}

type ApplicationListResponse struct {
	Items []types.Application `json:"items"`
}

func parseJobFilter(r *http.Request) (types.JobFilter, error) {
	q := r.URL.Query()
	filter := types.JobFilter{
		Keywords:        strings.TrimSpace(q.Get("keywords")),
		Location:        strings.TrimSpace(q.Get("location")),
		RemoteOnly:      parseBool(q.Get("remote")),
		EmploymentType:  types.EmploymentType(strings.ToUpper(strings.TrimSpace(q.Get("employment_type")))),
		ExperienceLevel: types.ExperienceLevel(strings.ToUpper(strings.TrimSpace(q.Get("experience_level")))),
	}

	if raw := strings.TrimSpace(q.Get("offset")); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return types.JobFilter{}, errors.New("invalid offset")
		}
		filter.Offset = offset
	}
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return types.JobFilter{}, errors.New("invalid limit")
		}
		filter.Limit = limit
	}
	return filter, nil
}

func parseApplicationStatus(r *http.Request) (types.ApplicationStatus, error) {
	raw := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status")))
	if raw == "" {
		return "", nil
	}
	status := types.ApplicationStatus(raw)
	if !status.Valid() {
		return "", errors.New("invalid status")
	}
	return status, nil
}

func parseApplyRequest(w http.ResponseWriter, r *http.Request) (services.ApplyRequest, func(), error) {
	noop := func() {}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var req services.ApplyRequest
		if r.ContentLength == 0 {
			return req, noop, nil
		}
		if err := decodeJSON(w, r, &req); err != nil {
			return services.ApplyRequest{}, noop, errors.New("invalid request")
		}
		return req, noop, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxResumeBytes+maxMultipartMemory)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return services.ApplyRequest{}, noop, errors.New("invalid multipart form")
	}
	cleanup := func() { _ = r.MultipartForm.RemoveAll() }

	salary, err := parseOptionalInt(r.FormValue(formFieldSalary))
	if err != nil {
		cleanup()
		return services.ApplyRequest{}, noop, errors.New("invalid salary expectation")
	}
	req := services.ApplyRequest{
		CoverLetter:       optionalString(r.FormValue(formFieldCover)),
		SalaryExpectation: salary,
	}

	files := r.MultipartForm.File[formFieldResume]
	switch len(files) {
	case 0:
		return req, cleanup, nil
	case 1:
	default:
		cleanup()
		return services.ApplyRequest{}, noop, errors.New("only one resume file is allowed")
	}

	header := files[0]
	if header.Size > maxResumeBytes {
		cleanup()
		return services.ApplyRequest{}, noop, fmt.Errorf("resume exceeds %d bytes", maxResumeBytes)
	}
	file, err := header.Open()
	if err != nil {
		cleanup()
		return services.ApplyRequest{}, noop, errors.New("failed to read resume file")
	}
	req.Resume = &services.Resume{Filename: header.Filename, Size: header.Size, Body: file}
	return req, func() {
		_ = file.Close()
		cleanup()
	}, nil
}
