package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tahcohcat/questagram/internal/database"
	"github.com/tahcohcat/questagram/internal/models"
	"github.com/tahcohcat/questagram/internal/progression"
	"golang.org/x/crypto/bcrypt"
)

type recorder struct {
	mu     sync.Mutex
	events []models.Event
}

func (r *recorder) Publish(e models.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) ofType(eventType string) []models.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Event
	for _, e := range r.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	ctx         context.Context
	db          *database.DB
	events      *recorder
	leaderboard *LeaderboardService
	progress    *ProgressService
	quests      *QuestService
	posts       *PostService
	users       *UserService
}

func newFixture(t *testing.T, narrator Narrator) *fixture {
	t.Helper()
	models.PasswordCost = bcrypt.MinCost

	db, err := database.NewDB(filepath.Join(t.TempDir(), "questagram.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	events := &recorder{}
	leaderboard, err := NewLeaderboardService(db, progression.DefaultRules, 16, events)
	require.NoError(t, err)

	progress := NewProgressService(db, leaderboard, progression.DefaultRules)
	quests := NewQuestService(db, progress, narrator)
	require.NoError(t, quests.SeedDefinitions(context.Background()))

	return &fixture{
		ctx:         context.Background(),
		db:          db,
		events:      events,
		leaderboard: leaderboard,
		progress:    progress,
		quests:      quests,
		posts:       NewPostService(db, progress, quests),
		users:       NewUserService(db, progress, quests),
	}
}

func (f *fixture) signup(t *testing.T, username string, class models.Class) *models.User {
	t.Helper()
	u, err := f.users.Signup(f.ctx, models.SignupRequest{Username: username, Password: "secret123", Class: string(class)})
	require.NoError(t, err)
	return u
}

func (f *fixture) entry(t *testing.T, userID int) models.LeaderboardEntry {
	t.Helper()
	e, err := f.leaderboard.Entry(f.ctx, userID)
	require.NoError(t, err)
	return e
}

func (f *fixture) quest(t *testing.T, userID int, questID string) models.UserQuest {
	t.Helper()
	q, err := f.quests.userQuest(f.ctx, f.db, userID, questID)
	require.NoError(t, err)
	return q
}
