package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/tahcohcat/questagram/internal/database"
	"github.com/tahcohcat/questagram/internal/logger"
	"github.com/tahcohcat/questagram/internal/models"
	"github.com/tahcohcat/questagram/internal/progression"
	"github.com/tahcohcat/questagram/internal/ranking"
)

// Starting balances of a new adventurer.
const (
	StartingGold = 100
	StartingGems = 10
)

type ProgressService struct {
	db          *database.DB
	leaderboard *LeaderboardService
	rules       progression.Rules
	log         *logger.Log
}

func NewProgressService(db *database.DB, leaderboard *LeaderboardService, rules progression.Rules) *ProgressService {
	return &ProgressService{
		db:          db,
		leaderboard: leaderboard,
		rules:       rules,
		log:         logger.Named("progress"),
	}
}

func (s *ProgressService) Rules() progression.Rules {
	return s.rules
}

// initTx creates the progression record of a freshly signed up user.
func (s *ProgressService) initTx(ctx context.Context, tx *sqlx.Tx, userID int, now time.Time) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO user_progress (user_id, level, xp, total_xp, gold, gems, updated_at)
		VALUES (?, 1, 0, 0, ?, ?, ?)`,
		userID, StartingGold, StartingGems, now)
	if err != nil {
		return fmt.Errorf("failed to initialize progress: %w", err)
	}
	return nil
}

// grantTx applies reward to the user's stored progression inside tx. bump,
// when set, adjusts activity counters on the new record before it is saved.
// Ranks are not touched; callers settle them once per transaction.
func (s *ProgressService) grantTx(ctx context.Context, tx *sqlx.Tx, userID int, reward models.Reward, bump func(*models.LeaderboardEntry), now time.Time) (*models.Outcome, error) {
	current, err := loadEntry(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if err := progression.Validate(current, reward); err != nil {
		if errors.Is(err, progression.ErrInvalidProgress) {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return nil, err
	}

	next, up := s.rules.Apply(current, reward)
	if bump != nil {
		bump(&next)
	}
	if err := saveEntry(ctx, tx, next, now); err != nil {
		return nil, err
	}
	return &models.Outcome{Granted: reward, LevelUp: up, Progress: next}, nil
}

// settleTx recomputes ranks and copies the new positions into outcomes.
func (s *ProgressService) settleTx(ctx context.Context, tx *sqlx.Tx, outcomes ...*models.Outcome) ([]ranking.Change, error) {
	changes, err := s.leaderboard.rerank(ctx, tx)
	if err != nil {
		return nil, err
	}
	for _, o := range outcomes {
		if o == nil {
			continue
		}
		e, err := loadEntry(ctx, tx, o.Progress.UserID)
		if err != nil {
			return nil, err
		}
		o.Progress.Rank = e.Rank
		o.Progress.ClassRank = e.ClassRank
	}
	return changes, nil
}

// announce publishes committed rank changes and level-ups.
func (s *ProgressService) announce(changes []ranking.Change, outcomes ...*models.Outcome) {
	s.leaderboard.committed(changes)
	for _, o := range outcomes {
		if o == nil || o.LevelUp == nil {
			continue
		}
		s.leaderboard.notifier.Publish(models.Event{Type: models.EventLevelUp, UserID: o.Progress.UserID, Payload: o.LevelUp})
		s.log.Reward(o.Progress.Username, fmt.Sprintf("reached level %d", o.LevelUp.To))
	}
}

// Progress returns the user's current progression record with ranks.
func (s *ProgressService) Progress(ctx context.Context, userID int) (models.LeaderboardEntry, error) {
	return s.leaderboard.Entry(ctx, userID)
}

// Train grants the flat training reward. No class bonus applies.
func (s *ProgressService) Train(ctx context.Context, userID int) (*models.Outcome, error) {
	var (
		outcome *models.Outcome
		changes []ranking.Change
	)
	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		outcome, err = s.grantTx(ctx, tx, userID, models.Reward{XP: s.rules.TrainXP}, nil, time.Now().UTC())
		if err != nil {
			return err
		}
		changes, err = s.settleTx(ctx, tx, outcome)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.announce(changes, outcome)
	return outcome, nil
}
