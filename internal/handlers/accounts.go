package handlers

import (
	"net/http"

	"marketplace/internal/service"
	"marketplace/internal/validation"
)

// RegistrationHandler обрабатывает POST /api/registration/
func (h *Handler) RegistrationHandler(w http.ResponseWriter, r *http.Request) {
	var input service.RegistrationInput
	if err := validation.Decode(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.Service.Register(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// LoginHandler обрабатывает POST /api/login/
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var input service.LoginInput
	if err := validation.Decode(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.Service.Login(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
