package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/tahcohcat/questagram/internal/database"
	"github.com/tahcohcat/questagram/internal/logger"
	"github.com/tahcohcat/questagram/internal/models"
	"github.com/tahcohcat/questagram/internal/ranking"
)

const MinPasswordLength = 6

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

type UserService struct {
	db          *database.DB
	progress    *ProgressService
	quests      *QuestService
	leaderboard *LeaderboardService
	log         *logger.Log
}

func NewUserService(db *database.DB, progress *ProgressService, quests *QuestService) *UserService {
	return &UserService{
		db:          db,
		progress:    progress,
		quests:      quests,
		leaderboard: progress.leaderboard,
		log:         logger.Named("users"),
	}
}

// Signup creates an account together with its progression record, its
// leaderboard position and its starting quests.
func (s *UserService) Signup(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	if !usernamePattern.MatchString(username) {
		return nil, validationError("username must be 3-20 letters, digits or underscores")
	}
	if len(req.Password) < MinPasswordLength {
		return nil, validationError("password must be at least %d characters", MinPasswordLength)
	}
	class, err := models.ParseClass(req.Class)
	if err != nil {
		return nil, validationError("%v", err)
	}

	if exists, err := s.UsernameExists(ctx, username); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrDuplicateUser
	}

	now := time.Now().UTC()
	user := &models.User{
		Username:  username,
		Class:     class,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var (
		issued  []models.QuestDefinition
		changes []ranking.Change
	)
	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO users (username, password_hash, class, created_at, updated_at, is_active)
			VALUES (:username, :password_hash, :class, :created_at, :updated_at, :is_active)
		`
		result, err := tx.NamedExecContext(ctx, query, user)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateUser
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get user ID: %w", err)
		}
		user.ID = int(id)

		if err := s.progress.initTx(ctx, tx, user.ID, now); err != nil {
			return err
		}
		if issued, err = s.quests.issueTx(ctx, tx, user.ID, s.quests.clock(), models.QuestDaily, models.QuestWeekly); err != nil {
			return err
		}
		changes, err = s.leaderboard.rerank(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.leaderboard.committed(changes)
	s.quests.narrate(ctx, user.ID, issued)
	s.log.Info(fmt.Sprintf("New %s joined: %s", user.Class, user.Username))
	return user, nil
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}

// Login validates credentials and returns the user. Unknown users and wrong
// passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, req models.LoginRequest) (*models.User, error) {
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return nil, validationError("username and password are required")
	}

	user, err := s.GetUserByUsername(ctx, strings.TrimSpace(req.Username))
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	} else if err != nil {
		return nil, err
	}

	if !user.CheckPassword(req.Password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	// Non-fatal
	if err := s.UpdateLastLogin(ctx, user.ID); err != nil {
		s.log.WithError(err).Warn(fmt.Sprintf("Failed to update last login for user %d", user.ID))
	}

	return user, nil
}

// GetUserByID retrieves a user by their ID
func (s *UserService) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	var user models.User
	query := `SELECT id, username, class, created_at, updated_at, last_login_at, is_active
			  FROM users WHERE id = ?`

	err := s.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// GetUserByUsername retrieves a user, password hash included. Matching
// ignores case.
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	query := `SELECT id, username, password_hash, class, created_at, updated_at, last_login_at, is_active
			  FROM users WHERE username = ?`

	err := s.db.GetContext(ctx, &user, query, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// UsernameExists checks if a username is already taken
func (s *UserService) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users WHERE username = ?`, username)
	return count > 0, err
}

// UpdateLastLogin updates the user's last login timestamp
func (s *UserService) UpdateLastLogin(ctx context.Context, userID int) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET last_login_at = ? WHERE id = ?`, time.Now().UTC(), userID)
	return err
}

// Profile returns the user with their ranked progression.
func (s *UserService) Profile(ctx context.Context, userID int) (*models.Profile, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	progress, err := s.progress.Progress(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.Profile{
		User:     user,
		Progress: progress,
		NextXP:   s.progress.Rules().Threshold(progress.Level),
	}, nil
}
