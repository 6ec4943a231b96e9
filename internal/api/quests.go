package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/tahcohcat/questagram/internal/models"
)

// GET /api/v1/quests - The user's quests, with expired dailies rotated
func (h *Handler) ListQuests(w http.ResponseWriter, r *http.Request) {
	quests, err := h.svc.Quests.List(r.Context(), currentUser(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"quests": nonNil(quests)})
}

// POST /api/v1/quests/{id}/complete
func (h *Handler) CompleteQuest(w http.ResponseWriter, r *http.Request) {
	completion, err := h.svc.Quests.Complete(r.Context(), currentUser(r), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, completion)
}

// PUT /api/v1/quests/{id}/progress
func (h *Handler) QuestProgress(w http.ResponseWriter, r *http.Request) {
	var req models.ProgressRequest
	if !decode(w, r, &req) {
		return
	}
	completion, err := h.svc.Quests.UpdateProgress(r.Context(), currentUser(r), mux.Vars(r)["id"], req.Progress)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, completion)
}

// POST /api/v1/quests/refresh
func (h *Handler) RefreshQuests(w http.ResponseWriter, r *http.Request) {
	userID := currentUser(r)
	if err := h.svc.Quests.Refresh(r.Context(), userID); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ListQuests(w, r)
}
