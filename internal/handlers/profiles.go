package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"marketplace/internal/service"
	"marketplace/internal/validation"
)

// GetProfileHandler обрабатывает GET /api/profile/{userId}/
func (h *Handler) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	profile, err := h.Service.GetProfile(r.Context(), principal(r), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProfileView(profile))
}

// UpdateProfileHandler обрабатывает PATCH /api/profile/{userId}/
func (h *Handler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, ok := authenticated(w, r)
	if !ok {
		return
	}
	var input service.ProfilePatch
	if err := validation.Decode(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	profile, err := h.Service.UpdateProfile(r.Context(), p, userID, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProfileView(profile))
}

// ListProfilesHandler обрабатывает GET /api/profiles/{type}/
func (h *Handler) ListProfilesHandler(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.Service.ListProfiles(r.Context(), principal(r), chi.URLParam(r, "profileType"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]profileView, 0, len(profiles))
	for i := range profiles {
		views = append(views, newProfileView(&profiles[i]))
	}
	writeJSON(w, http.StatusOK, views)
}
