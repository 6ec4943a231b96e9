package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/tahcohcat/questagram/config"
	"github.com/tahcohcat/questagram/internal/api"
	"github.com/tahcohcat/questagram/internal/auth"
	"github.com/tahcohcat/questagram/internal/database"
	"github.com/tahcohcat/questagram/internal/llm"
	"github.com/tahcohcat/questagram/internal/logger"
	"github.com/tahcohcat/questagram/internal/models"
	"github.com/tahcohcat/questagram/internal/narrator"
	"github.com/tahcohcat/questagram/internal/scheduler"
	"github.com/tahcohcat/questagram/internal/services"
	"github.com/tahcohcat/questagram/internal/websocket"
)

const jobTimeout = 5 * time.Minute

type app struct {
	db        *database.DB
	hub       *websocket.Hub
	router    http.Handler
	scheduler *scheduler.Scheduler
	log       *logger.Log
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	l := logger.Named("questagram")

	if cfg.Auth.BcryptCost > 0 {
		models.PasswordCost = cfg.Auth.BcryptCost
	}

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	hub := websocket.NewHub(originChecker(cfg.Server.AllowedOrigins))

	leaderboard, err := services.NewLeaderboardService(db, cfg.Progression, cfg.Leaderboard.CacheSize, hub)
	if err != nil {
		db.Close()
		return nil, err
	}
	progress := services.NewProgressService(db, leaderboard, cfg.Progression)
	quests := services.NewQuestService(db, progress, newNarrator(ctx, cfg, l))
	users := services.NewUserService(db, progress, quests)
	posts := services.NewPostService(db, progress, quests)

	if err := quests.SeedDefinitions(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if cfg.Seed.Demo {
		seeded, err := users.SeedDemo(ctx)
		if err != nil {
			db.Close()
			return nil, err
		}
		if seeded {
			l.Info("Installed demo adventurers")
		}
	}

	handler := api.NewHandler(api.Services{
		Users:       users,
		Progress:    progress,
		Quests:      quests,
		Posts:       posts,
		Leaderboard: leaderboard,
	}, auth.NewManager(cfg.Auth.SessionSecret, cfg.Auth.SecureCookie))

	sched := scheduler.New(jobTimeout)
	err = sched.Add("quest-refresh", cfg.Quests.RefreshCron, func(ctx context.Context) error {
		n, err := quests.RefreshAll(ctx)
		if err == nil && n > 0 {
			l.Info(fmt.Sprintf("Issued fresh quests to %d adventurers", n))
		}
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := sched.Add("leaderboard-refresh", cfg.Leaderboard.RefreshCron, leaderboard.Refresh); err != nil {
		db.Close()
		return nil, err
	}

	return &app{
		db:        db,
		hub:       hub,
		router:    api.NewRouter(handler, hub, cfg.Server.AllowedOrigins),
		scheduler: sched,
		log:       l,
	}, nil
}

// newNarrator returns nil when narration is off or the provider cannot be
// built; quests then keep their static descriptions.
func newNarrator(ctx context.Context, cfg *config.Config, l *logger.Log) services.Narrator {
	if !cfg.LLM.Enabled {
		return nil
	}
	model, err := llm.NewClient(cfg)
	if err != nil {
		l.WithError(err).Warn("Quest narration disabled")
		return nil
	}
	if err := model.IsModelAvailable(ctx); err != nil {
		l.WithError(err).Warn("Narration model unavailable, falling back to static text when calls fail")
	}
	return narrator.New(model, time.Duration(cfg.LLM.Timeout)*time.Second)
}

// originChecker accepts websocket upgrades from the configured origins and
// from the server's own host.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || slices.Contains(allowed, "*") || slices.Contains(allowed, origin) {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}
