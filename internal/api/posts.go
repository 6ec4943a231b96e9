package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/tahcohcat/questagram/internal/models"
	"github.com/tahcohcat/questagram/internal/services"
)

// GET /api/v1/posts?limit= - Newest posts across all zones
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, services.DefaultPostLimit)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	posts, err := h.svc.Posts.List(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": nonNil(posts)})
}

// GET /api/v1/zones/{zone}/posts
func (h *Handler) ZonePosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.Posts.ByZone(r.Context(), mux.Vars(r)["zone"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": nonNil(posts)})
}

// POST /api/v1/posts - Share a post and collect the posting reward
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePostRequest
	if !decode(w, r, &req) {
		return
	}
	result, err := h.svc.Posts.Create(r.Context(), currentUser(r), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// POST /api/v1/posts/{id}/like
func (h *Handler) LikePost(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Posts.Like(r.Context(), currentUser(r), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// POST /api/v1/posts/{id}/comments
func (h *Handler) CommentPost(w http.ResponseWriter, r *http.Request) {
	var req models.CommentRequest
	if !decode(w, r, &req) {
		return
	}
	result, err := h.svc.Posts.Comment(r.Context(), currentUser(r), mux.Vars(r)["id"], req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
