package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/jmoiron/sqlx"
	"github.com/sahilm/fuzzy"
	"github.com/tahcohcat/questagram/internal/database"
	"github.com/tahcohcat/questagram/internal/logger"
	"github.com/tahcohcat/questagram/internal/models"
	"github.com/tahcohcat/questagram/internal/progression"
	"github.com/tahcohcat/questagram/internal/ranking"
)

const (
	DefaultTopLimit      = 10
	DefaultClassTopLimit = 5

	rankedCacheKey = "ranked"
)

// Notifier receives events after the change they describe is committed.
type Notifier interface {
	Publish(event models.Event)
}

type nopNotifier struct{}

func (nopNotifier) Publish(models.Event) {}

const entrySelect = `
	SELECT p.user_id, u.username, u.class, p.level, p.xp, p.total_xp, p.gold, p.gems,
		p.posts_count, p.quests_completed, p.rank, p.class_rank, p.updated_at
	FROM user_progress p
	JOIN users u ON u.id = p.user_id`

type LeaderboardService struct {
	db       *database.DB
	rules    progression.Rules
	cache    *lru.Cache
	notifier Notifier
	log      *logger.Log
}

func NewLeaderboardService(db *database.DB, rules progression.Rules, cacheSize int, notifier Notifier) (*LeaderboardService, error) {
	if cacheSize <= 0 {
		cacheSize = 1
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create leaderboard cache: %w", err)
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &LeaderboardService{
		db:       db,
		rules:    rules,
		cache:    cache,
		notifier: notifier,
		log:      logger.Named("leaderboard"),
	}, nil
}

func loadEntries(ctx context.Context, q sqlx.QueryerContext) ([]models.LeaderboardEntry, error) {
	var entries []models.LeaderboardEntry
	if err := sqlx.SelectContext(ctx, q, &entries, entrySelect+` ORDER BY p.user_id`); err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	return entries, nil
}

func loadEntry(ctx context.Context, q sqlx.QueryerContext, userID int) (models.LeaderboardEntry, error) {
	var e models.LeaderboardEntry
	err := sqlx.GetContext(ctx, q, &e, entrySelect+` WHERE p.user_id = ?`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return e, ErrUserNotFound
	} else if err != nil {
		return e, fmt.Errorf("failed to load progress: %w", err)
	}
	return e, nil
}

func saveEntry(ctx context.Context, q sqlx.ExecerContext, e models.LeaderboardEntry, now time.Time) error {
	_, err := q.ExecContext(ctx, `
		UPDATE user_progress
		SET level = ?, xp = ?, total_xp = ?, gold = ?, gems = ?, posts_count = ?, quests_completed = ?, updated_at = ?
		WHERE user_id = ?`,
		e.Level, e.XP, e.TotalXP, e.Gold, e.Gems, e.PostsCount, e.QuestsCompleted, now, e.UserID)
	if err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	return nil
}

// rerank recomputes every rank inside tx and persists the ones that moved.
func (s *LeaderboardService) rerank(ctx context.Context, tx *sqlx.Tx) ([]ranking.Change, error) {
	entries, err := loadEntries(ctx, tx)
	if err != nil {
		return nil, err
	}

	changes := ranking.Diff(entries, ranking.Assign(entries))
	for _, c := range changes {
		_, err := tx.ExecContext(ctx, `UPDATE user_progress SET rank = ?, class_rank = ? WHERE user_id = ?`,
			c.NewRank, c.NewClassRank, c.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to store rank: %w", err)
		}
	}
	return changes, nil
}

// committed drops cached reads and announces rank moves. Call it only
// after the transaction that produced changes has committed.
func (s *LeaderboardService) committed(changes []ranking.Change) {
	s.cache.Purge()
	for _, c := range changes {
		s.notifier.Publish(models.Event{Type: models.EventRankUpdate, UserID: c.UserID, Payload: c})
	}
	if len(changes) > 0 {
		s.log.Debug(fmt.Sprintf("%d rank changes", len(changes)))
	}
}

// UpdateUserStats applies a partial stats update. When level or xp change
// TotalXP is recomputed; ranks are recomputed for everyone either way.
func (s *LeaderboardService) UpdateUserStats(ctx context.Context, userID int, upd models.StatsUpdate) (models.LeaderboardEntry, error) {
	if err := validateStats(upd); err != nil {
		return models.LeaderboardEntry{}, err
	}

	var (
		updated models.LeaderboardEntry
		changes []ranking.Change
	)
	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		e, err := loadEntry(ctx, tx, userID)
		if err != nil {
			return err
		}

		if upd.Level != nil {
			e.Level = *upd.Level
		}
		if upd.XP != nil {
			e.XP = *upd.XP
		}
		if upd.Level != nil || upd.XP != nil {
			e.TotalXP = s.rules.TotalXP(e.Level, e.XP)
		}
		if upd.Gold != nil {
			e.Gold = *upd.Gold
		}
		if upd.Gems != nil {
			e.Gems = *upd.Gems
		}
		if upd.PostsCount != nil {
			e.PostsCount = *upd.PostsCount
		}
		if upd.QuestsCompleted != nil {
			e.QuestsCompleted = *upd.QuestsCompleted
		}

		if err := saveEntry(ctx, tx, e, time.Now().UTC()); err != nil {
			return err
		}
		if changes, err = s.rerank(ctx, tx); err != nil {
			return err
		}
		updated, err = loadEntry(ctx, tx, userID)
		return err
	})
	if err != nil {
		return models.LeaderboardEntry{}, err
	}

	s.committed(changes)
	return updated, nil
}

func validateStats(upd models.StatsUpdate) error {
	if upd.Level != nil && *upd.Level < 1 {
		return validationError("level must be at least 1")
	}
	for name, v := range map[string]*int{
		"xp":               upd.XP,
		"gold":             upd.Gold,
		"gems":             upd.Gems,
		"posts_count":      upd.PostsCount,
		"quests_completed": upd.QuestsCompleted,
	} {
		if v != nil && *v < 0 {
			return validationError("%s must not be negative", name)
		}
	}
	return nil
}

// Refresh recomputes and stores every rank.
func (s *LeaderboardService) Refresh(ctx context.Context) error {
	var changes []ranking.Change
	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		changes, err = s.rerank(ctx, tx)
		return err
	})
	if err != nil {
		return err
	}
	s.committed(changes)
	return nil
}

// ranked returns every entry in rank order, served from cache when possible.
func (s *LeaderboardService) ranked(ctx context.Context) ([]models.LeaderboardEntry, error) {
	if v, ok := s.cache.Get(rankedCacheKey); ok {
		return v.([]models.LeaderboardEntry), nil
	}

	entries, err := loadEntries(ctx, s.db)
	if err != nil {
		return nil, err
	}
	ranked := ranking.Assign(entries)
	s.cache.Add(rankedCacheKey, ranked)
	return ranked, nil
}

// Users returns the full leaderboard in rank order.
func (s *LeaderboardService) Users(ctx context.Context) ([]models.LeaderboardEntry, error) {
	ranked, err := s.ranked(ctx)
	if err != nil {
		return nil, err
	}
	return slices.Clone(ranked), nil
}

// Top returns the best limit users overall; limit <= 0 means DefaultTopLimit.
func (s *LeaderboardService) Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	ranked, err := s.ranked(ctx)
	if err != nil {
		return nil, err
	}
	return slices.Clone(ranking.Top(ranked, limit)), nil
}

// ByClass returns every user of class in rank order.
func (s *LeaderboardService) ByClass(ctx context.Context, class models.Class) ([]models.LeaderboardEntry, error) {
	ranked, err := s.ranked(ctx)
	if err != nil {
		return nil, err
	}
	return ranking.ByClass(ranked, class), nil
}

// TopByClass returns the best limit users of class; limit <= 0 means DefaultClassTopLimit.
func (s *LeaderboardService) TopByClass(ctx context.Context, class models.Class, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultClassTopLimit
	}
	ranked, err := s.ranked(ctx)
	if err != nil {
		return nil, err
	}
	return ranking.TopByClass(ranked, class, limit), nil
}

// Entry returns a single user's leaderboard entry.
func (s *LeaderboardService) Entry(ctx context.Context, userID int) (models.LeaderboardEntry, error) {
	ranked, err := s.ranked(ctx)
	if err != nil {
		return models.LeaderboardEntry{}, err
	}
	for _, e := range ranked {
		if e.UserID == userID {
			return e, nil
		}
	}
	return models.LeaderboardEntry{}, ErrUserNotFound
}

// UserRank returns a user's overall and class rank.
func (s *LeaderboardService) UserRank(ctx context.Context, userID int) (models.UserRank, error) {
	e, err := s.Entry(ctx, userID)
	if err != nil {
		return models.UserRank{}, err
	}
	return models.UserRank{Overall: e.Rank, Class: e.ClassRank}, nil
}

type entrySource []models.LeaderboardEntry

func (e entrySource) String(i int) string { return e[i].Username }
func (e entrySource) Len() int            { return len(e) }

// Search fuzzy-matches usernames, best match first.
func (s *LeaderboardService) Search(ctx context.Context, query string, limit int) ([]models.LeaderboardEntry, error) {
	if query == "" {
		return nil, validationError("search query is required")
	}
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	ranked, err := s.ranked(ctx)
	if err != nil {
		return nil, err
	}

	matches := fuzzy.FindFrom(query, entrySource(ranked))
	out := make([]models.LeaderboardEntry, 0, min(limit, len(matches)))
	for _, m := range matches {
		if len(out) == limit {
			break
		}
		out = append(out, ranked[m.Index])
	}
	return out, nil
}
