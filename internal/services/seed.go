package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/tahcohcat/questagram/internal/models"
	"github.com/tahcohcat/questagram/internal/ranking"
)

// unusablePassword is never produced by bcrypt, so demo accounts cannot log in.
const unusablePassword = "!"

type demoAdventurer struct {
	username      string
	class         models.Class
	level, xp     int
	gold, gems    int
	posts, quests int
}

var demoAdventurers = []demoAdventurer{
	{"DragonSlayer", models.ClassWarrior, 15, 450, 2500, 45, 23, 18},
	{"ArcaneWisdom", models.ClassMage, 12, 780, 1800, 52, 31, 15},
	{"ShadowTrickster", models.ClassRogue, 13, 120, 2100, 38, 45, 12},
	{"HolyHealer", models.ClassCleric, 11, 650, 1200, 41, 19, 22},
	{"IronFist", models.ClassWarrior, 10, 890, 1900, 28, 17, 14},
	{"MysticScholar", models.ClassMage, 9, 340, 1400, 35, 28, 11},
	{"StealthMaster", models.ClassRogue, 8, 720, 1600, 22, 38, 9},
	{"DivineBless", models.ClassCleric, 8, 450, 1100, 33, 15, 16},
}

type demoComment struct {
	author  string
	content string
	age     time.Duration
}

type demoPost struct {
	author   string
	content  string
	zone     string
	likes    int
	xp       int
	age      time.Duration
	comments []demoComment
}

var demoPosts = []demoPost{
	{
		author: "ArcaneWisdom", zone: "artisan_valley", likes: 15, xp: 40, age: 4 * time.Hour,
		content:  "Just finished this digital painting! Magic flows through every pixel ✨",
		comments: []demoComment{{"HolyHealer", "Amazing work! Your talent is inspiring 🎨", 2 * time.Hour}},
	},
	{
		author: "DragonSlayer", zone: "training_grounds", likes: 23, xp: 35, age: 6 * time.Hour,
		content: "Conquered my morning workout! 💪 Nothing beats the feeling of pushing your limits!",
	},
	{
		author: "ShadowTrickster", zone: "arena_trends", likes: 42, xp: 50, age: 8 * time.Hour,
		content:  "When you realize Monday is just Tuesday's evil twin 😈 #MondayMood",
		comments: []demoComment{{"DivineBless", "Haha, this made my day! 😂", 1 * time.Hour}},
	},
}

// SeedDemo installs the sample adventurers and their posts into an empty
// database. It reports whether anything was written.
func (s *UserService) SeedDemo(ctx context.Context) (bool, error) {
	var users int
	if err := s.db.GetContext(ctx, &users, `SELECT COUNT(*) FROM users`); err != nil {
		return false, fmt.Errorf("failed to count users: %w", err)
	}
	if users > 0 {
		return false, nil
	}

	now := time.Now().UTC()
	rules := s.progress.Rules()

	var changes []ranking.Change
	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		ids := make(map[string]int, len(demoAdventurers))
		classes := make(map[string]models.Class, len(demoAdventurers))

		for _, a := range demoAdventurers {
			res, err := tx.ExecContext(ctx, `
				INSERT INTO users (username, password_hash, class, created_at, updated_at, is_active)
				VALUES (?, ?, ?, ?, ?, FALSE)`,
				a.username, unusablePassword, a.class, now, now)
			if err != nil {
				return fmt.Errorf("failed to seed user %s: %w", a.username, err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			ids[a.username] = int(id)
			classes[a.username] = a.class

			_, err = tx.ExecContext(ctx, `
				INSERT INTO user_progress (user_id, level, xp, total_xp, gold, gems, posts_count, quests_completed, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				id, a.level, a.xp, rules.TotalXP(a.level, a.xp), a.gold, a.gems, a.posts, a.quests, now)
			if err != nil {
				return fmt.Errorf("failed to seed progress for %s: %w", a.username, err)
			}
		}

		for _, p := range demoPosts {
			postID := uuid.NewString()
			_, err := tx.ExecContext(ctx, `
				INSERT INTO posts (id, user_id, username, user_class, content, zone, likes, xp_earned, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				postID, ids[p.author], p.author, classes[p.author], p.content, p.zone, p.likes, p.xp, now.Add(-p.age))
			if err != nil {
				return fmt.Errorf("failed to seed post: %w", err)
			}
			for _, c := range p.comments {
				_, err := tx.ExecContext(ctx, `
					INSERT INTO post_comments (id, post_id, user_id, username, content, created_at)
					VALUES (?, ?, ?, ?, ?, ?)`,
					uuid.NewString(), postID, ids[c.author], c.author, c.content, now.Add(-c.age))
				if err != nil {
					return fmt.Errorf("failed to seed comment: %w", err)
				}
			}
		}

		var err error
		changes, err = s.leaderboard.rerank(ctx, tx)
		return err
	})
	if err != nil {
		return false, err
	}

	s.leaderboard.committed(changes)
	s.log.Info(fmt.Sprintf("Seeded %d demo adventurers and %d posts", len(demoAdventurers), len(demoPosts)))
	return true, nil
}
