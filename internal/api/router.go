package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter wires every route. ws serves the live event stream and, like the
// /api/v1 routes, requires a session.
func NewRouter(h *Handler, ws http.Handler, allowedOrigins []string) http.Handler {
	r := mux.NewRouter()

	// Public routes (no authentication required)
	r.HandleFunc("/healthz", h.Health).Methods("GET")
	authAPI := r.PathPrefix("/api/auth").Subrouter()
	authAPI.HandleFunc("/signup", h.Signup).Methods("POST")
	authAPI.HandleFunc("/login", h.Login).Methods("POST")
	authAPI.HandleFunc("/logout", h.Logout).Methods("POST")

	// Authenticated routes
	private := r.NewRoute().Subrouter()
	private.Use(h.sessions.Middleware)
	if ws != nil {
		private.Handle("/ws", ws).Methods("GET")
	}

	v1 := private.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/me", h.Me).Methods("GET")
	v1.HandleFunc("/me/train", h.Train).Methods("POST")

	v1.HandleFunc("/zones", h.ListZones).Methods("GET")
	v1.HandleFunc("/zones/available", h.AvailableZones).Methods("GET")
	v1.HandleFunc("/zones/{zone}/posts", h.ZonePosts).Methods("GET")

	v1.HandleFunc("/posts", h.ListPosts).Methods("GET")
	v1.HandleFunc("/posts", h.CreatePost).Methods("POST")
	v1.HandleFunc("/posts/{id}/like", h.LikePost).Methods("POST")
	v1.HandleFunc("/posts/{id}/comments", h.CommentPost).Methods("POST")

	v1.HandleFunc("/quests", h.ListQuests).Methods("GET")
	v1.HandleFunc("/quests/refresh", h.RefreshQuests).Methods("POST")
	v1.HandleFunc("/quests/{id}/complete", h.CompleteQuest).Methods("POST")
	v1.HandleFunc("/quests/{id}/progress", h.QuestProgress).Methods("PUT")

	v1.HandleFunc("/leaderboard", h.Leaderboard).Methods("GET")
	v1.HandleFunc("/leaderboard/class/{class}", h.ClassLeaderboard).Methods("GET")
	v1.HandleFunc("/leaderboard/rank", h.Rank).Methods("GET")
	v1.HandleFunc("/leaderboard/search", h.SearchLeaderboard).Methods("GET")
	v1.HandleFunc("/leaderboard/refresh", h.RefreshLeaderboard).Methods("POST")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}
