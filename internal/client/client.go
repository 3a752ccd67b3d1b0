// Package client is a typed HTTP client for the job portal API together with
// the client-side session store and query cache built on top of it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"

	"github.com/jobportal/apiserver/internal/services"
	"github.com/jobportal/apiserver/types"
)

// ErrProfileUnavailable is returned when the server could not resolve the
// profile of an otherwise valid session.
var ErrProfileUnavailable = errors.New("profile unavailable")

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Client talks to the API with a cookie jar holding the session cookie.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a Client for baseURL. A nil httpClient gets a fresh one; a
// client without a jar is copied and given one.
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		copied := *httpClient
		copied.Jar = jar
		httpClient = &copied
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}, nil
}

// Jar returns the cookie jar holding the session cookie.
func (c *Client) Jar() http.CookieJar {
	return c.http.Jar
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Session *types.SessionClaim `json:"session"`
}

type profileResponse struct {
	Session      *types.SessionClaim `json:"session"`
	Profile      *types.Profile      `json:"profile"`
	ProfileError string              `json:"profile_error"`
}

type registerResponse struct {
	Account types.Account  `json:"account"`
	Profile *types.Profile `json:"profile"`
}

type applicationList struct {
	Items []types.Application `json:"items"`
}

// Login submits credentials; on success the jar holds the session cookie.
func (c *Client) Login(ctx context.Context, email, password string) error {
	return c.do(ctx, http.MethodPost, "/api/login", jsonBody(loginRequest{Email: email, Password: password}), nil)
}

// RegisterJobSeeker creates a job seeker account. It does not log in.
func (c *Client) RegisterJobSeeker(ctx context.Context, req services.JobSeekerRegistration) (types.Account, *types.Profile, error) {
	var resp registerResponse
	err := c.do(ctx, http.MethodPost, "/api/register/jobseeker", jsonBody(req), &resp)
	return resp.Account, resp.Profile, err
}

// RegisterEmployer creates an employer account. It does not log in.
func (c *Client) RegisterEmployer(ctx context.Context, req services.EmployerRegistration) (types.Account, *types.Profile, error) {
	var resp registerResponse
	err := c.do(ctx, http.MethodPost, "/api/register/employer", jsonBody(req), &resp)
	return resp.Account, resp.Profile, err
}

// Logout ends the session on the server and clears the cookie.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/logout", nil, nil)
}

// Session returns the current claim, or nil when there is no valid session.
func (c *Client) Session(ctx context.Context) (*types.SessionClaim, error) {
	var resp sessionResponse
	if err := c.do(ctx, http.MethodGet, "/api/session", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Session, nil
}

// Profile returns the profile of the current session. It is nil without a
// session or for kinds that carry no profile.
func (c *Client) Profile(ctx context.Context) (*types.Profile, error) {
	return c.profile(ctx, http.MethodGet, "/api/profile")
}

// ReloadProfile re-resolves the profile on the server.
func (c *Client) ReloadProfile(ctx context.Context) (*types.Profile, error) {
	return c.profile(ctx, http.MethodPost, "/api/profile/reload")
}

func (c *Client) profile(ctx context.Context, method, path string) (*types.Profile, error) {
	var resp profileResponse
	err := c.do(ctx, method, path, nil, &resp)
	if IsStatus(err, http.StatusUnauthorized) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if resp.ProfileError != "" {
		return nil, ErrProfileUnavailable
	}
	return resp.Profile, nil
}

// JobQuery filters the public job listing.
type JobQuery struct {
	Keywords        string
	Location        string
	RemoteOnly      bool
	EmploymentType  types.EmploymentType
	ExperienceLevel types.ExperienceLevel
	Offset          int
	Limit           int
}

// Values encodes q as listing query parameters.
func (q JobQuery) Values() url.Values {
	v := url.Values{}
	if q.Keywords != "" {
		v.Set("keywords", q.Keywords)
	}
	if q.Location != "" {
		v.Set("location", q.Location)
	}
	if q.RemoteOnly {
		v.Set("remote", "true")
	}
	if q.EmploymentType != "" {
		v.Set("employment_type", string(q.EmploymentType))
	}
	if q.ExperienceLevel != "" {
		v.Set("experience_level", string(q.ExperienceLevel))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

func (c *Client) ListJobs(ctx context.Context, q JobQuery) (types.Page[types.JobPosting], error) {
	var page types.Page[types.JobPosting]
	path := "/api/jobs"
	if encoded := q.Values().Encode(); encoded != "" {
		path += "?" + encoded
	}
	err := c.do(ctx, http.MethodGet, path, nil, &page)
	return page, err
}

func (c *Client) GetJob(ctx context.Context, id string) (types.JobPosting, error) {
	var jp types.JobPosting
	err := c.do(ctx, http.MethodGet, "/api/jobs/"+url.PathEscape(id), nil, &jp)
	return jp, err
}

// CreateJob publishes a posting as the signed-in employer.
func (c *Client) CreateJob(ctx context.Context, req services.NewJobPosting) (types.JobPosting, error) {
	var jp types.JobPosting
	err := c.do(ctx, http.MethodPost, "/api/jobs", jsonBody(req), &jp)
	return jp, err
}

// ApplyInput is an application. Resume, when set, is sent as a multipart upload.
type ApplyInput struct {
	CoverLetter       string
	SalaryExpectation *int
	ResumeName        string
	Resume            io.Reader
}

func (c *Client) Apply(ctx context.Context, jobID string, in ApplyInput) (types.Application, error) {
	var (
		app  types.Application
		body requestBody
		err  error
	)
	if in.Resume != nil {
		body, err = multipartBody(in)
		if err != nil {
			return app, err
		}
	} else {
		payload := map[string]any{}
		if in.CoverLetter != "" {
			payload["cover_letter"] = in.CoverLetter
		}
		if in.SalaryExpectation != nil {
			payload["salary_expectation"] = *in.SalaryExpectation
		}
		body = jsonBody(payload)
	}
	err = c.do(ctx, http.MethodPost, "/api/jobs/"+url.PathEscape(jobID)+"/apply", body, &app)
	return app, err
}

// Applications lists the applications of the signed-in job seeker.
func (c *Client) Applications(ctx context.Context) ([]types.Application, error) {
	var list applicationList
	if err := c.do(ctx, http.MethodGet, "/api/applications", nil, &list); err != nil {
		return nil, err
	}
	return list.Items, nil
}

type requestBody func() (io.Reader, string, error)

func jsonBody(v any) requestBody {
	return func() (io.Reader, string, error) {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(raw), "application/json", nil
	}
}

func multipartBody(in ApplyInput) (requestBody, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if in.CoverLetter != "" {
		if err := mw.WriteField("cover_letter", in.CoverLetter); err != nil {
			return nil, err
		}
	}
	if in.SalaryExpectation != nil {
		if err := mw.WriteField("salary_expectation", strconv.Itoa(*in.SalaryExpectation)); err != nil {
			return nil, err
		}
	}
	name := in.ResumeName
	if name == "" {
		name = "resume.pdf"
	}
	part, err := mw.CreateFormFile("resume", name)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, in.Resume); err != nil {
		return nil, fmt.Errorf("read resume: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	raw, contentType := buf.Bytes(), mw.FormDataContentType()
	return func() (io.Reader, string, error) {
		return bytes.NewReader(raw), contentType, nil
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body requestBody, out any) error {
	var (
		reader      io.Reader
		contentType string
	)
	if body != nil {
		var err error
		if reader, contentType, err = body(); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&apiErr)
		return &APIError{Status: resp.StatusCode, Message: apiErr.Error}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
