package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tahcohcat/questagram/internal/models"
)

func TestSignupStartsAdventurer(t *testing.T) {
	f := newFixture(t, nil)

	u := f.signup(t, "Merlin_01", models.ClassMage)
	assert.NotZero(t, u.ID)
	assert.Equal(t, models.ClassMage, u.Class)
	assert.NotEqual(t, "secret123", u.Password)

	e := f.entry(t, u.ID)
	assert.Equal(t, 1, e.Level)
	assert.Equal(t, 0, e.XP)
	assert.Equal(t, 0, e.TotalXP)
	assert.Equal(t, StartingGold, e.Gold)
	assert.Equal(t, StartingGems, e.Gems)
	assert.Equal(t, 1, e.Rank)
	assert.Equal(t, 1, e.ClassRank)

	quests, err := f.quests.List(f.ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, quests, len(DefaultQuests))
	for _, q := range quests {
		assert.Equal(t, q.ID == "daily_login", q.Completed, q.ID)
		require.NotNil(t, q.ExpiresAt, q.ID)
	}
	assert.Len(t, f.events.ofType(models.EventRankUpdate), 1)
}

func TestSignupValidation(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name string
		req  models.SignupRequest
	}{
		{"short username", models.SignupRequest{Username: "ab", Password: "secret123", Class: "mage"}},
		{"long username", models.SignupRequest{Username: "abcdefghijklmnopqrstu", Password: "secret123", Class: "mage"}},
		{"bad characters", models.SignupRequest{Username: "bad name!", Password: "secret123", Class: "mage"}},
		{"short password", models.SignupRequest{Username: "valid", Password: "12345", Class: "mage"}},
		{"unknown class", models.SignupRequest{Username: "valid", Password: "secret123", Class: "bard"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.users.Signup(f.ctx, tt.req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestSignupRejectsDuplicateIgnoringCase(t *testing.T) {
	f := newFixture(t, nil)
	f.signup(t, "Gandalf", models.ClassMage)

	_, err := f.users.Signup(f.ctx, models.SignupRequest{Username: "gandalf", Password: "secret123", Class: "cleric"})
	assert.ErrorIs(t, err, ErrDuplicateUser)
}

func TestLogin(t *testing.T) {
	f := newFixture(t, nil)
	u := f.signup(t, "Aragorn", models.ClassWarrior)

	tests := []struct {
		name    string
		req     models.LoginRequest
		wantErr error
	}{
		{"valid", models.LoginRequest{Username: "Aragorn", Password: "secret123"}, nil},
		{"case insensitive username", models.LoginRequest{Username: "aragorn", Password: "secret123"}, nil},
		{"wrong password", models.LoginRequest{Username: "Aragorn", Password: "nope123"}, ErrInvalidCredentials},
		{"unknown user", models.LoginRequest{Username: "Boromir", Password: "secret123"}, ErrInvalidCredentials},
		{"missing fields", models.LoginRequest{Username: "", Password: ""}, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.users.Login(f.ctx, tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, u.ID, got.ID)
			assert.Equal(t, models.ClassWarrior, got.Class)
		})
	}

	again, err := f.users.GetUserByID(f.ctx, u.ID)
	require.NoError(t, err)
	assert.NotNil(t, again.LastLoginAt)
}

func TestProfile(t *testing.T) {
	f := newFixture(t, nil)
	u := f.signup(t, "Frodo", models.ClassRogue)

	p, err := f.users.Profile(f.ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Frodo", p.User.Username)
	assert.Equal(t, 100, p.NextXP)
	assert.Equal(t, 1, p.Progress.Rank)

	_, err = f.users.Profile(f.ctx, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSeedDemo(t *testing.T) {
	f := newFixture(t, nil)

	seeded, err := f.users.SeedDemo(f.ctx)
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = f.users.SeedDemo(f.ctx)
	require.NoError(t, err)
	assert.False(t, seeded)

	all, err := f.leaderboard.Users(f.ctx)
	require.NoError(t, err)
	require.Len(t, all, len(demoAdventurers))

	want := []string{"ArcaneWisdom", "DragonSlayer", "IronFist", "HolyHealer", "StealthMaster", "ShadowTrickster", "DivineBless", "MysticScholar"}
	for i, e := range all {
		assert.Equal(t, want[i], e.Username)
		assert.Equal(t, i+1, e.Rank)
		assert.Equal(t, (e.Level-1)*100+e.XP, e.TotalXP)
	}

	posts, err := f.posts.List(f.ctx, 0)
	require.NoError(t, err)
	require.Len(t, posts, len(demoPosts))
	assert.Equal(t, "ArcaneWisdom", posts[0].Username)
	require.Len(t, posts[0].Comments, 1)
	assert.Equal(t, "HolyHealer", posts[0].Comments[0].Username)

	_, err = f.users.Login(f.ctx, models.LoginRequest{Username: "DragonSlayer", Password: "!"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
