package api

import (
	"fmt"
	"net/http"

	"github.com/tahcohcat/questagram/internal/models"
)

// POST /api/auth/signup - Create an adventurer and sign them in
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if !decode(w, r, &req) {
		return
	}

	user, err := h.svc.Users.Signup(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.sessions.Start(w, r, user.ID); err != nil {
		h.writeError(w, r, fmt.Errorf("failed to start session: %w", err))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":      user.ID,
		"message": fmt.Sprintf("Welcome, %s the %s!", user.Username, user.Class),
	})
}

// POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decode(w, r, &req) {
		return
	}

	user, err := h.svc.Users.Login(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.sessions.Start(w, r, user.ID); err != nil {
		h.writeError(w, r, fmt.Errorf("failed to start session: %w", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":      user.ID,
		"class":   user.Class,
		"message": fmt.Sprintf("Welcome back, %s!", user.Username),
	})
}

// POST /api/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.End(w, r); err != nil {
		h.writeError(w, r, fmt.Errorf("failed to end session: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Farewell, adventurer"})
}
