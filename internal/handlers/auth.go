package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jobportal/apiserver/internal/auth"
	"github.com/jobportal/apiserver/internal/logging"
	"github.com/jobportal/apiserver/internal/services"
	"github.com/jobportal/apiserver/types"
)

// AuthHandler provides login, logout, session and registration endpoints.
type AuthHandler struct {
	verifier *auth.Verifier
	sessions *auth.SessionManager
	accounts *services.AccountService
	log      logging.Logger
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(
	verifier *auth.Verifier,
	sessions *auth.SessionManager,
	accounts *services.AccountService,
	log logging.Logger,
) *AuthHandler {
	return &AuthHandler{
		verifier: verifier,
		sessions: sessions,
		accounts: accounts,
		log:      log,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, handler *AuthHandler) {
	r.Post("/login", handler.Login)
	r.Post("/logout", handler.Logout)
	r.Get("/session", handler.Session)
	r.Post("/register/jobseeker", handler.RegisterJobSeeker)
	r.Post("/register/employer", handler.RegisterEmployer)
}

// RequireSession answers 401 when the request carries no session claim.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.ClaimFromContext(r.Context()); !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireKind answers 403 unless the session belongs to one of kinds.
// It must run after RequireSession.
func RequireKind(kinds ...types.AccountKind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claim, _ := auth.ClaimFromContext(r.Context())
			if !auth.HasKind(claim, kinds...) {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Login verifies credentials and sets the session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	account, err := h.verifier.Verify(r.Context(), req.Email, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrNoCredentials):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, auth.ErrInvalidLogin):
		h.log.Info(r.Context(), "login rejected", "reason", auth.FailureReason(err))
		writeError(w, http.StatusUnauthorized, auth.ErrInvalidLogin.Error())
		return
	default:
		h.log.Error(r.Context(), "login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	token, _, err := h.sessions.Issue(r.Context(), account)
	if err != nil {
		h.log.Error(r.Context(), "failed to issue session", "account_id", account.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.sessions.SetCookie(w, token)
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

// Logout revokes the current session, if any, and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Revoke(r.Context(), h.sessions.TokenFromRequest(r))
	h.sessions.ClearCookie(w)
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

// Session returns the current claim, or null.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	claim, _ := auth.ClaimFromContext(r.Context())
	writeJSON(w, http.StatusOK, SessionResponse{Session: claim})
}

func (h *AuthHandler) RegisterJobSeeker(w http.ResponseWriter, r *http.Request) {
	var req services.JobSeekerRegistration
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	account, profile, err := h.accounts.RegisterJobSeeker(r.Context(), req)
	if err != nil {
		h.registrationFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, RegisterResponse{Account: account, Profile: types.NewJobSeekerProfile(profile)})
}

func (h *AuthHandler) RegisterEmployer(w http.ResponseWriter, r *http.Request) {
	var req services.EmployerRegistration
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	account, profile, err := h.accounts.RegisterEmployer(r.Context(), req)
	if err != nil {
		h.registrationFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, RegisterResponse{Account: account, Profile: types.NewEmployerProfile(profile)})
}

func (h *AuthHandler) registrationFailed(w http.ResponseWriter, r *http.Request, err error) {
	if !errors.Is(err, services.ErrValidation) && !errors.Is(err, services.ErrEmailTaken) {
		h.log.Error(r.Context(), "registration failed", "error", err)
	}
	writeServiceError(w, err, "not found")
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SessionResponse struct {
	Session *types.SessionClaim `json:"session"`
}

type RegisterResponse struct {
	Account types.Account  `json:"account"`
	Profile *types.Profile `json:"profile"`
}
