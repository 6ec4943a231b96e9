package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/tahcohcat/questagram/internal/models"
	"github.com/tahcohcat/questagram/internal/services"
)

// GET /api/v1/leaderboard?limit=
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, services.DefaultTopLimit)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	entries, err := h.svc.Leaderboard.Top(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": nonNil(entries)})
}

// GET /api/v1/leaderboard/class/{class}?limit=
func (h *Handler) ClassLeaderboard(w http.ResponseWriter, r *http.Request) {
	class, err := models.ParseClass(mux.Vars(r)["class"])
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	limit, err := queryLimit(r, services.DefaultClassTopLimit)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	entries, err := h.svc.Leaderboard.TopByClass(r.Context(), class, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"class": class, "entries": nonNil(entries)})
}

// GET /api/v1/leaderboard/rank - The signed-in user's rank
func (h *Handler) Rank(w http.ResponseWriter, r *http.Request) {
	rank, err := h.svc.Leaderboard.UserRank(r.Context(), currentUser(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rank)
}

// GET /api/v1/leaderboard/search?q=
func (h *Handler) SearchLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, services.DefaultTopLimit)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	entries, err := h.svc.Leaderboard.Search(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": nonNil(entries)})
}

// POST /api/v1/leaderboard/refresh - Recompute every rank
func (h *Handler) RefreshLeaderboard(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Leaderboard.Refresh(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.Leaderboard(w, r)
}
