package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jobportal/apiserver/internal/auth"
	"github.com/jobportal/apiserver/internal/logging"
	"github.com/jobportal/apiserver/internal/services"
	"github.com/jobportal/apiserver/types"
)

const profileUnavailable = "profile unavailable"

// ProfileHandler serves the current session's profile.
type ProfileHandler struct {
	resolver *services.ProfileResolver
	log      logging.Logger
}

func NewProfileHandler(resolver *services.ProfileResolver, log logging.Logger) *ProfileHandler {
	return &ProfileHandler{resolver: resolver, log: log}
}

// ProfileRouter registers profile routes; both require a session.
func ProfileRouter(r chi.Router, handler *ProfileHandler) {
	r.Use(RequireSession)
	r.Get("/", handler.GetProfile)
	r.Post("/reload", handler.GetProfile)
}

// GetProfile resolves the profile on every call. A failed lookup still
// answers 200 with a null profile so the page can render its empty state.
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claim, _ := auth.ClaimFromContext(r.Context())
	writeJSON(w, http.StatusOK, h.resolve(r, claim))
}

func (h *ProfileHandler) resolve(r *http.Request, claim *types.SessionClaim) ProfileResponse {
	resp := ProfileResponse{Session: claim}
	if claim == nil {
		return resp
	}
	profile, err := h.resolver.Resolve(r.Context(), claim.AccountID, claim.Kind)
	if err != nil {
		h.log.Warn(r.Context(), "profile lookup failed", "account_id", claim.AccountID, "error", err)
		resp.ProfileError = profileUnavailable
		return resp
	}
	resp.Profile = profile
	return resp
}

type ProfileResponse struct {
	Session      *types.SessionClaim `json:"session"`
	Profile      *types.Profile      `json:"profile"`
	ProfileError string              `json:"profile_error,omitempty"`
}
