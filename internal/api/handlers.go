package api

import (
	"net/http"

	"github.com/tahcohcat/questagram/internal/auth"
	"github.com/tahcohcat/questagram/internal/logger"
	"github.com/tahcohcat/questagram/internal/services"
	"github.com/tahcohcat/questagram/internal/zones"
)

// Services bundles the domain services the HTTP layer calls into.
type Services struct {
	Users       *services.UserService
	Progress    *services.ProgressService
	Quests      *services.QuestService
	Posts       *services.PostService
	Leaderboard *services.LeaderboardService
}

type Handler struct {
	svc      Services
	sessions *auth.Manager
	log      *logger.Log
}

func NewHandler(svc Services, sessions *auth.Manager) *Handler {
	return &Handler{svc: svc, sessions: sessions, log: logger.Named("api")}
}

// currentUser returns the ID placed on the request by auth.Middleware.
func currentUser(r *http.Request) int {
	id, _ := auth.UserID(r.Context())
	return id
}

// GET /api/v1/me - Profile, progress and rank of the signed-in user
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	profile, err := h.svc.Users.Profile(r.Context(), currentUser(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// POST /api/v1/me/train - Grant the base training experience
func (h *Handler) Train(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.svc.Progress.Train(r.Context(), currentUser(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// GET /api/v1/zones - Every zone in the catalogue
func (h *Handler) ListZones(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"zones": zones.All()})
}

// GET /api/v1/zones/available - Zones unlocked at the user's level
func (h *Handler) AvailableZones(w http.ResponseWriter, r *http.Request) {
	progress, err := h.svc.Progress.Progress(r.Context(), currentUser(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"level": progress.Level,
		"zones": zones.Available(progress.Level),
	})
}

// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
