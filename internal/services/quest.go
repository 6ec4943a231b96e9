package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/tahcohcat/questagram/internal/database"
	"github.com/tahcohcat/questagram/internal/logger"
	"github.com/tahcohcat/questagram/internal/models"
	"github.com/tahcohcat/questagram/internal/ranking"
)

const (
	day  = 24 * 60 * 60
	week = 7 * day
)

// DefaultQuests is the catalogue every adventurer draws from.
var DefaultQuests = []models.QuestDefinition{
	{
		ID: "daily_post", Title: "Share Your Adventure", Description: "Post a photo or video to share your journey",
		Type: models.QuestDaily, Difficulty: models.DifficultyEasy, XPReward: 50, GoldReward: 25,
		Requirements: models.StringList{"Create 1 post"}, MaxProgress: 1, TTLSeconds: day,
	},
	{
		ID: "daily_interact", Title: "Spread Kindness", Description: "Like and comment on other adventurers' posts",
		Type: models.QuestDaily, Difficulty: models.DifficultyEasy, XPReward: 30, GoldReward: 15,
		Requirements: models.StringList{"Like 5 posts", "Comment on 3 posts"}, MaxProgress: 8, TTLSeconds: day,
	},
	{
		ID: "daily_login", Title: "Daily Devotion", Description: "Log in to Questagram every day this week",
		Type: models.QuestDaily, Difficulty: models.DifficultyEasy, XPReward: 20, GoldReward: 10, GemReward: 1,
		Requirements: models.StringList{"Log in for 1 day"}, MaxProgress: 1, TTLSeconds: day, CompleteOnIssue: true,
	},
	{
		ID: "weekly_warrior", Title: "Warrior's Challenge", Description: "Complete fitness-related activities",
		Type: models.QuestWeekly, Difficulty: models.DifficultyMedium, XPReward: 200, GoldReward: 100, GemReward: 5,
		Requirements: models.StringList{"Post 3 fitness photos", "Get 50 likes on fitness content"},
		MaxProgress: 53, ClassBonus: models.ClassList{models.ClassWarrior}, TTLSeconds: week,
	},
	{
		ID: "weekly_mage", Title: "Scholar's Pursuit", Description: "Share knowledge and creativity",
		Type: models.QuestWeekly, Difficulty: models.DifficultyMedium, XPReward: 200, GoldReward: 100, GemReward: 5,
		Requirements: models.StringList{"Post 3 educational/art content", "Help 10 people with comments"},
		MaxProgress: 13, ClassBonus: models.ClassList{models.ClassMage}, TTLSeconds: week,
	},
}

// Narrator rewrites a quest description. Implementations fall back to the
// definition's own text when they cannot produce one.
type Narrator interface {
	Narrate(ctx context.Context, def models.QuestDefinition) (string, error)
}

type QuestService struct {
	db       *database.DB
	progress *ProgressService
	narrator Narrator
	now      func() time.Time
	log      *logger.Log
}

func NewQuestService(db *database.DB, progress *ProgressService, narrator Narrator) *QuestService {
	return &QuestService{
		db:       db,
		progress: progress,
		narrator: narrator,
		now:      time.Now,
		log:      logger.Named("quests"),
	}
}

// SetClock replaces the time source used for issue and expiry.
func (s *QuestService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *QuestService) clock() time.Time {
	return s.now().UTC()
}

// SeedDefinitions installs the default catalogue, leaving existing rows alone.
func (s *QuestService) SeedDefinitions(ctx context.Context) error {
	for _, d := range DefaultQuests {
		query := `
			INSERT OR IGNORE INTO quest_definitions
				(id, title, description, type, difficulty, xp_reward, gold_reward, gem_reward,
				 requirements, max_progress, class_bonus, ttl_seconds, complete_on_issue)
			VALUES (:id, :title, :description, :type, :difficulty, :xp_reward, :gold_reward, :gem_reward,
				 :requirements, :max_progress, :class_bonus, :ttl_seconds, :complete_on_issue)
		`
		if _, err := s.db.NamedExecContext(ctx, query, d); err != nil {
			return fmt.Errorf("failed to seed quest %s: %w", d.ID, err)
		}
	}
	return nil
}

func (s *QuestService) definitions(ctx context.Context, q sqlx.QueryerContext, types ...models.QuestType) ([]models.QuestDefinition, error) {
	query, args, err := sqlx.In(`SELECT * FROM quest_definitions WHERE type IN (?) ORDER BY rowid`, types)
	if err != nil {
		return nil, err
	}
	var defs []models.QuestDefinition
	if err := sqlx.SelectContext(ctx, q, &defs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to load quest definitions: %w", err)
	}
	return defs, nil
}

// issueTx hands the user a fresh copy of every definition of the given types.
func (s *QuestService) issueTx(ctx context.Context, tx *sqlx.Tx, userID int, now time.Time, types ...models.QuestType) ([]models.QuestDefinition, error) {
	defs, err := s.definitions(ctx, tx, types...)
	if err != nil {
		return nil, err
	}

	for _, d := range defs {
		var (
			expiresAt   *time.Time
			completedAt *time.Time
			progress    int
		)
		if d.TTLSeconds > 0 {
			t := now.Add(d.TTL())
			expiresAt = &t
		}
		if d.CompleteOnIssue {
			progress = d.MaxProgress
			completedAt = &now
		}

		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO user_quests (user_id, quest_id, progress, completed, completed_at, issued_at, expires_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			userID, d.ID, progress, d.CompleteOnIssue, completedAt, now, expiresAt)
		if err != nil {
			return nil, fmt.Errorf("failed to issue quest %s: %w", d.ID, err)
		}
	}
	return defs, nil
}

// narrate stores LLM flavour text for freshly issued quests. Failures keep
// the static description.
func (s *QuestService) narrate(ctx context.Context, userID int, defs []models.QuestDefinition) {
	if s.narrator == nil {
		return
	}
	for _, d := range defs {
		if d.CompleteOnIssue {
			continue
		}
		text, err := s.narrator.Narrate(ctx, d)
		if err != nil {
			s.log.WithError(err).Warn(fmt.Sprintf("Narration failed for quest %s", d.ID))
			continue
		}
		if text == "" || text == d.Description {
			continue
		}
		_, err = s.db.ExecContext(ctx, `UPDATE user_quests SET description = ? WHERE user_id = ? AND quest_id = ?`, text, userID, d.ID)
		if err != nil {
			s.log.WithError(err).Warn(fmt.Sprintf("Failed to store narration for quest %s", d.ID))
		}
	}
}

const userQuestSelect = `
	SELECT d.id, d.title, COALESCE(NULLIF(uq.description, ''), d.description) AS description,
		d.type, d.difficulty, d.xp_reward, d.gold_reward, d.gem_reward, d.requirements,
		d.max_progress, d.class_bonus, d.ttl_seconds, d.complete_on_issue,
		uq.user_id, uq.progress, uq.completed, uq.completed_at, uq.issued_at, uq.expires_at
	FROM user_quests uq
	JOIN quest_definitions d ON d.id = uq.quest_id`

func (s *QuestService) userQuests(ctx context.Context, q sqlx.QueryerContext, userID int) ([]models.UserQuest, error) {
	var quests []models.UserQuest
	err := sqlx.SelectContext(ctx, q, &quests, userQuestSelect+`
		WHERE uq.user_id = ?
		ORDER BY CASE d.type WHEN 'daily' THEN 0 WHEN 'weekly' THEN 1 ELSE 2 END, d.rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load quests: %w", err)
	}
	return quests, nil
}

func (s *QuestService) userQuest(ctx context.Context, q sqlx.QueryerContext, userID int, questID string) (models.UserQuest, error) {
	var uq models.UserQuest
	err := sqlx.GetContext(ctx, q, &uq, userQuestSelect+` WHERE uq.user_id = ? AND uq.quest_id = ?`, userID, questID)
	if errors.Is(err, sql.ErrNoRows) {
		return uq, ErrQuestNotFound
	} else if err != nil {
		return uq, fmt.Errorf("failed to load quest: %w", err)
	}
	return uq, nil
}

// refreshTx drops expired daily quests and issues a new daily set when none
// remain. A user holding no quests at all gets the weekly set as well.
func (s *QuestService) refreshTx(ctx context.Context, tx *sqlx.Tx, userID int, now time.Time) ([]models.QuestDefinition, error) {
	held, err := s.userQuests(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	dailies := 0
	for _, q := range held {
		if q.Type != models.QuestDaily {
			continue
		}
		if q.Expired(now) {
			if _, err := tx.ExecContext(ctx, `DELETE FROM user_quests WHERE user_id = ? AND quest_id = ?`, userID, q.ID); err != nil {
				return nil, fmt.Errorf("failed to drop expired quest %s: %w", q.ID, err)
			}
			continue
		}
		dailies++
	}

	switch {
	case len(held) == 0:
		return s.issueTx(ctx, tx, userID, now, models.QuestDaily, models.QuestWeekly)
	case dailies == 0:
		return s.issueTx(ctx, tx, userID, now, models.QuestDaily)
	}
	return nil, nil
}

// Refresh rotates the user's expired daily quests.
func (s *QuestService) Refresh(ctx context.Context, userID int) error {
	_, err := s.refresh(ctx, userID)
	return err
}

func (s *QuestService) refresh(ctx context.Context, userID int) (bool, error) {
	var issued []models.QuestDefinition
	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		issued, err = s.refreshTx(ctx, tx, userID, s.clock())
		return err
	})
	if err != nil {
		return false, err
	}
	s.narrate(ctx, userID, issued)
	return len(issued) > 0, nil
}

// RefreshAll refreshes every active user and returns how many received new
// quests. A failing user is logged and skipped.
func (s *QuestService) RefreshAll(ctx context.Context) (int, error) {
	var ids []int
	if err := s.db.SelectContext(ctx, &ids, `SELECT id FROM users WHERE is_active = TRUE ORDER BY id`); err != nil {
		return 0, fmt.Errorf("failed to list users: %w", err)
	}

	refreshed := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return refreshed, err
		}
		issued, err := s.refresh(ctx, id)
		if err != nil {
			s.log.WithError(err).Warn(fmt.Sprintf("Failed to refresh quests for user %d", id))
			continue
		}
		if issued {
			refreshed++
		}
	}
	return refreshed, nil
}

// List returns the user's quests after rotating expired dailies.
func (s *QuestService) List(ctx context.Context, userID int) ([]models.UserQuest, error) {
	if err := s.Refresh(ctx, userID); err != nil {
		return nil, err
	}
	return s.userQuests(ctx, s.db, userID)
}

// setProgressTx stores progress for q, capped at its maximum. Reaching the
// maximum completes the quest and pays its reward once.
func (s *QuestService) setProgressTx(ctx context.Context, tx *sqlx.Tx, q models.UserQuest, progress int, now time.Time) (*models.QuestCompletion, error) {
	if progress > q.MaxProgress {
		progress = q.MaxProgress
	}

	if progress < q.MaxProgress {
		_, err := tx.ExecContext(ctx, `UPDATE user_quests SET progress = ? WHERE user_id = ? AND quest_id = ?`, progress, q.UserID, q.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to update quest progress: %w", err)
		}
		q.Progress = progress
		return &models.QuestCompletion{Quest: q}, nil
	}

	_, err := tx.ExecContext(ctx, `
		UPDATE user_quests SET progress = ?, completed = TRUE, completed_at = ?
		WHERE user_id = ? AND quest_id = ?`,
		q.MaxProgress, now, q.UserID, q.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to complete quest: %w", err)
	}
	q.Progress = q.MaxProgress
	q.Completed = true
	q.CompletedAt = &now

	holder, err := loadEntry(ctx, tx, q.UserID)
	if err != nil {
		return nil, err
	}
	base := models.Reward{XP: q.XPReward, Gold: q.GoldReward, Gems: q.GemReward}
	reward := s.progress.Rules().BonusReward(base, holder.Class, q.ClassBonus)

	outcome, err := s.progress.grantTx(ctx, tx, q.UserID, reward, func(e *models.LeaderboardEntry) {
		e.QuestsCompleted++
	}, now)
	if err != nil {
		return nil, err
	}
	return &models.QuestCompletion{Quest: q, Outcome: outcome}, nil
}

// activeQuest loads a quest that can still change state.
func (s *QuestService) activeQuest(ctx context.Context, tx *sqlx.Tx, userID int, questID string, now time.Time) (models.UserQuest, error) {
	q, err := s.userQuest(ctx, tx, userID, questID)
	if err != nil {
		return q, err
	}
	if q.Completed {
		return q, ErrQuestCompleted
	}
	if q.Expired(now) {
		return q, ErrQuestExpired
	}
	return q, nil
}

// Complete finishes a quest outright and pays its reward.
func (s *QuestService) Complete(ctx context.Context, userID int, questID string) (*models.QuestCompletion, error) {
	return s.update(ctx, userID, questID, func(q models.UserQuest) int { return q.MaxProgress })
}

// UpdateProgress sets a quest's progress counter.
func (s *QuestService) UpdateProgress(ctx context.Context, userID int, questID string, progress int) (*models.QuestCompletion, error) {
	if progress < 0 {
		return nil, validationError("progress must not be negative")
	}
	return s.update(ctx, userID, questID, func(models.UserQuest) int { return progress })
}

func (s *QuestService) update(ctx context.Context, userID int, questID string, target func(models.UserQuest) int) (*models.QuestCompletion, error) {
	now := s.clock()

	var (
		completion *models.QuestCompletion
		changes    []ranking.Change
	)
	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		q, err := s.activeQuest(ctx, tx, userID, questID, now)
		if err != nil {
			return err
		}
		if completion, err = s.setProgressTx(ctx, tx, q, target(q), now); err != nil {
			return err
		}
		if completion.Outcome == nil {
			return nil
		}
		changes, err = s.progress.settleTx(ctx, tx, completion.Outcome)
		return err
	})
	if err != nil {
		return nil, err
	}

	if completion.Outcome != nil {
		s.progress.announce(changes, completion.Outcome)
		s.log.Reward(completion.Outcome.Progress.Username, fmt.Sprintf("completed quest %q", completion.Quest.Title))
	}
	return completion, nil
}

// advanceTx moves an active quest forward by delta. Quests the user does
// not hold, or that are finished or expired, are left alone and yield nil.
func (s *QuestService) advanceTx(ctx context.Context, tx *sqlx.Tx, userID int, questID string, delta int, now time.Time) (*models.QuestCompletion, error) {
	q, err := s.activeQuest(ctx, tx, userID, questID, now)
	switch {
	case errors.Is(err, ErrQuestNotFound), errors.Is(err, ErrQuestCompleted), errors.Is(err, ErrQuestExpired):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return s.setProgressTx(ctx, tx, q, q.Progress+delta, now)
}

// questAdvance names a quest and the user whose copy moves.
type questAdvance struct {
	userID  int
	questID string
}

// advanceAllTx applies one step to each listed quest and returns the
// completions that paid out.
func (s *QuestService) advanceAllTx(ctx context.Context, tx *sqlx.Tx, now time.Time, steps ...questAdvance) ([]models.QuestCompletion, error) {
	var paid []models.QuestCompletion
	for _, step := range steps {
		c, err := s.advanceTx(ctx, tx, step.userID, step.questID, 1, now)
		if err != nil {
			return nil, err
		}
		if c != nil && c.Outcome != nil {
			paid = append(paid, *c)
		}
	}
	return paid, nil
}

func completionOutcomes(paid []models.QuestCompletion) []*models.Outcome {
	out := make([]*models.Outcome, 0, len(paid))
	for i := range paid {
		out = append(out, paid[i].Outcome)
	}
	return out
}
