package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/tahcohcat/questagram/internal/database"
	"github.com/tahcohcat/questagram/internal/logger"
	"github.com/tahcohcat/questagram/internal/models"
	"github.com/tahcohcat/questagram/internal/ranking"
	"github.com/tahcohcat/questagram/internal/zones"
)

const (
	MaxPostLength    = 2000
	MaxCommentLength = 500
	MaxImageURI      = 2048
	DefaultPostLimit = 50
)

type PostService struct {
	db       *database.DB
	progress *ProgressService
	quests   *QuestService
	now      func() time.Time
	log      *logger.Log
}

func NewPostService(db *database.DB, progress *ProgressService, quests *QuestService) *PostService {
	return &PostService{
		db:       db,
		progress: progress,
		quests:   quests,
		now:      time.Now,
		log:      logger.Named("posts"),
	}
}

// SetClock replaces the time source used for timestamps.
func (s *PostService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *PostService) clock() time.Time {
	return s.now().UTC()
}

func checkText(field, text string, max int) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", validationError("%s is required", field)
	}
	if utf8.RuneCountInString(text) > max {
		return "", validationError("%s must be at most %d characters", field, max)
	}
	return text, nil
}

// Create files a post under a zone and pays the author's posting reward,
// with the zone's class bonus when it applies.
func (s *PostService) Create(ctx context.Context, userID int, req models.CreatePostRequest) (*models.PostResult, error) {
	content, err := checkText("content", req.Content, MaxPostLength)
	if err != nil {
		return nil, err
	}
	imageURI := strings.TrimSpace(req.ImageURI)
	if len(imageURI) > MaxImageURI {
		return nil, validationError("image_uri is too long")
	}
	zone, err := zones.Get(req.Zone)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	rules := s.progress.Rules()

	var (
		result  = &models.PostResult{}
		changes []ranking.Change
	)
	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		author, err := loadEntry(ctx, tx, userID)
		if err != nil {
			return err
		}
		if author.Level < zone.RequiredLevel {
			return fmt.Errorf("%w: %s requires level %d", ErrZoneLocked, zone.Name, zone.RequiredLevel)
		}

		post := models.Post{
			ID:        uuid.NewString(),
			UserID:    userID,
			Username:  author.Username,
			UserClass: author.Class,
			Content:   content,
			ImageURI:  imageURI,
			Zone:      zone.ID,
			Comments:  []models.Comment{},
			CreatedAt: now,
			XPEarned:  rules.GrantedReward(rules.PostXP, author.Class, zone.ClassBonus),
		}
		query := `
			INSERT INTO posts (id, user_id, username, user_class, content, image_uri, zone, likes, xp_earned, created_at)
			VALUES (:id, :user_id, :username, :user_class, :content, :image_uri, :zone, :likes, :xp_earned, :created_at)
		`
		if _, err := tx.NamedExecContext(ctx, query, post); err != nil {
			return fmt.Errorf("failed to create post: %w", err)
		}
		result.Post = post

		result.Outcome, err = s.progress.grantTx(ctx, tx, userID, models.Reward{XP: post.XPEarned}, func(e *models.LeaderboardEntry) {
			e.PostsCount++
		}, now)
		if err != nil {
			return err
		}

		steps := []questAdvance{{userID, "daily_post"}}
		if zone.ClassBonus.Contains(models.ClassWarrior) {
			steps = append(steps, questAdvance{userID, "weekly_warrior"})
		}
		if zone.ClassBonus.Contains(models.ClassMage) {
			steps = append(steps, questAdvance{userID, "weekly_mage"})
		}
		if result.QuestRewards, err = s.quests.advanceAllTx(ctx, tx, now, steps...); err != nil {
			return err
		}

		changes, err = s.progress.settleTx(ctx, tx, append([]*models.Outcome{result.Outcome}, completionOutcomes(result.QuestRewards)...)...)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.progress.announce(changes, append([]*models.Outcome{result.Outcome}, completionOutcomes(result.QuestRewards)...)...)
	s.progress.leaderboard.notifier.Publish(models.Event{Type: models.EventNewPost, UserID: userID, Payload: result.Post})
	s.log.Reward(result.Post.Username, fmt.Sprintf("posted in %s for %d xp", zone.Name, result.Post.XPEarned))
	return result, nil
}

// Like adds a like to a post. The liker's interaction quest moves, and so
// does the author's fitness quest when the post sits in a warrior zone.
func (s *PostService) Like(ctx context.Context, userID int, postID string) (*models.PostResult, error) {
	now := s.clock()

	var (
		result  = &models.PostResult{}
		changes []ranking.Change
	)
	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE posts SET likes = likes + 1 WHERE id = ?`, postID)
		if err != nil {
			return fmt.Errorf("failed to like post: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrPostNotFound
		}

		post, err := s.get(ctx, tx, postID)
		if err != nil {
			return err
		}
		result.Post = *post

		steps := []questAdvance{{userID, "daily_interact"}}
		if zone, err := zones.Get(post.Zone); err == nil && post.UserID != userID && zone.ClassBonus.Contains(models.ClassWarrior) {
			steps = append(steps, questAdvance{post.UserID, "weekly_warrior"})
		}
		if result.QuestRewards, err = s.quests.advanceAllTx(ctx, tx, now, steps...); err != nil {
			return err
		}
		if len(result.QuestRewards) > 0 {
			changes, err = s.progress.settleTx(ctx, tx, completionOutcomes(result.QuestRewards)...)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	if len(result.QuestRewards) > 0 {
		s.progress.announce(changes, completionOutcomes(result.QuestRewards)...)
	}
	return result, nil
}

// Comment appends a comment to a post.
func (s *PostService) Comment(ctx context.Context, userID int, postID string, req models.CommentRequest) (*models.CommentResult, error) {
	content, err := checkText("content", req.Content, MaxCommentLength)
	if err != nil {
		return nil, err
	}
	now := s.clock()

	var (
		result  = &models.CommentResult{}
		changes []ranking.Change
	)
	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM posts WHERE id = ?)`, postID); err != nil {
			return fmt.Errorf("failed to load post: %w", err)
		}
		if !exists {
			return ErrPostNotFound
		}
		author, err := loadEntry(ctx, tx, userID)
		if err != nil {
			return err
		}

		comment := models.Comment{
			ID:        uuid.NewString(),
			PostID:    postID,
			UserID:    userID,
			Username:  author.Username,
			Content:   content,
			CreatedAt: now,
		}
		query := `
			INSERT INTO post_comments (id, post_id, user_id, username, content, created_at)
			VALUES (:id, :post_id, :user_id, :username, :content, :created_at)
		`
		if _, err := tx.NamedExecContext(ctx, query, comment); err != nil {
			return fmt.Errorf("failed to add comment: %w", err)
		}
		result.Comment = comment

		result.QuestRewards, err = s.quests.advanceAllTx(ctx, tx, now,
			questAdvance{userID, "daily_interact"},
			questAdvance{userID, "weekly_mage"},
		)
		if err != nil {
			return err
		}
		if len(result.QuestRewards) > 0 {
			changes, err = s.progress.settleTx(ctx, tx, completionOutcomes(result.QuestRewards)...)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	if len(result.QuestRewards) > 0 {
		s.progress.announce(changes, completionOutcomes(result.QuestRewards)...)
	}
	return result, nil
}

// Get returns a post with its comments.
func (s *PostService) Get(ctx context.Context, id string) (*models.Post, error) {
	return s.get(ctx, s.db, id)
}

func (s *PostService) get(ctx context.Context, q sqlx.QueryerContext, id string) (*models.Post, error) {
	var post models.Post
	err := sqlx.GetContext(ctx, q, &post, `SELECT * FROM posts WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPostNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	posts := []models.Post{post}
	if err := attachComments(ctx, q, posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

// List returns the newest posts across all zones.
func (s *PostService) List(ctx context.Context, limit int) ([]models.Post, error) {
	if limit <= 0 {
		limit = DefaultPostLimit
	}
	var posts []models.Post
	err := s.db.SelectContext(ctx, &posts, `SELECT * FROM posts ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, attachComments(ctx, s.db, posts)
}

// ByZone returns the posts filed under a zone, newest first.
func (s *PostService) ByZone(ctx context.Context, zoneID string) ([]models.Post, error) {
	zone, err := zones.Get(zoneID)
	if err != nil {
		return nil, err
	}
	var posts []models.Post
	err = s.db.SelectContext(ctx, &posts, `SELECT * FROM posts WHERE zone = ? ORDER BY created_at DESC, rowid DESC`, zone.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, attachComments(ctx, s.db, posts)
}

// attachComments fills each post's comments in creation order.
func attachComments(ctx context.Context, q sqlx.QueryerContext, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]string, len(posts))
	byID := make(map[string]*models.Post, len(posts))
	for i := range posts {
		posts[i].Comments = []models.Comment{}
		ids[i] = posts[i].ID
		byID[posts[i].ID] = &posts[i]
	}

	query, args, err := sqlx.In(`SELECT * FROM post_comments WHERE post_id IN (?) ORDER BY created_at, rowid`, ids)
	if err != nil {
		return err
	}
	var comments []models.Comment
	if err := sqlx.SelectContext(ctx, q, &comments, query, args...); err != nil {
		return fmt.Errorf("failed to load comments: %w", err)
	}
	for _, c := range comments {
		if p, ok := byID[c.PostID]; ok {
			p.Comments = append(p.Comments, c)
		}
	}
	return nil
}
