package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tahcohcat/questagram/internal/models"
	"github.com/tahcohcat/questagram/internal/zones"
)

func TestCreatePostAppliesZoneBonus(t *testing.T) {
	f := newFixture(t, nil)
	mage := f.signup(t, "Painter", models.ClassMage)

	res, err := f.posts.Create(f.ctx, mage.ID, models.CreatePostRequest{Content: "  A fresh canvas  ", Zone: "artisan_valley"})
	require.NoError(t, err)

	assert.NotEmpty(t, res.Post.ID)
	assert.Equal(t, "A fresh canvas", res.Post.Content)
	assert.Equal(t, "Painter", res.Post.Username)
	assert.Equal(t, models.ClassMage, res.Post.UserClass)
	assert.Equal(t, 37, res.Post.XPEarned)

	require.NotNil(t, res.Outcome)
	assert.Equal(t, 37, res.Outcome.Granted.XP)
	assert.Equal(t, 37, res.Outcome.Progress.XP)
	assert.Equal(t, 1, res.Outcome.Progress.Level)
	assert.Nil(t, res.Outcome.LevelUp)
	assert.Equal(t, 1, res.Outcome.Progress.PostsCount)

	// the first post of the day also finishes daily_post
	require.Len(t, res.QuestRewards, 1)
	assert.Equal(t, "daily_post", res.QuestRewards[0].Quest.ID)

	e := f.entry(t, mage.ID)
	assert.Equal(t, 37+50, e.XP)
	assert.Equal(t, StartingGold+25, e.Gold)
	assert.Equal(t, 1, e.QuestsCompleted)
	assert.Equal(t, 1, f.quest(t, mage.ID, "weekly_mage").Progress)
	assert.Zero(t, f.quest(t, mage.ID, "weekly_warrior").Progress)

	assert.Len(t, f.events.ofType(models.EventNewPost), 1)
}

func TestCreatePostWithoutBonus(t *testing.T) {
	f := newFixture(t, nil)
	w := f.signup(t, "Brute", models.ClassWarrior)

	res, err := f.posts.Create(f.ctx, w.ID, models.CreatePostRequest{Content: "I made a vase", Zone: "artisan_valley"})
	require.NoError(t, err)
	assert.Equal(t, 25, res.Post.XPEarned)

	res, err = f.posts.Create(f.ctx, w.ID, models.CreatePostRequest{Content: "Leg day", Zone: "training_grounds"})
	require.NoError(t, err)
	assert.Equal(t, 37, res.Post.XPEarned)
	assert.Empty(t, res.QuestRewards)
	assert.Equal(t, 1, f.quest(t, w.ID, "weekly_warrior").Progress)
}

func TestCreatePostRejections(t *testing.T) {
	f := newFixture(t, nil)
	u := f.signup(t, "Novice", models.ClassMage)

	tests := []struct {
		name    string
		req     models.CreatePostRequest
		wantErr error
	}{
		{"empty content", models.CreatePostRequest{Content: "   ", Zone: "the_library"}, ErrValidation},
		{"too long", models.CreatePostRequest{Content: strings.Repeat("x", MaxPostLength+1), Zone: "the_library"}, ErrValidation},
		{"unknown zone", models.CreatePostRequest{Content: "hi", Zone: "atlantis"}, zones.ErrZoneNotFound},
		{"locked zone", models.CreatePostRequest{Content: "hi", Zone: "mystic_realm"}, ErrZoneLocked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.posts.Create(f.ctx, u.ID, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := f.posts.Create(f.ctx, u.ID, models.CreatePostRequest{Content: "hi", Zone: "artisan_valey"})
	var nf *zones.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "artisan_valley", nf.Suggestion)

	e := f.entry(t, u.ID)
	assert.Zero(t, e.PostsCount)
	assert.Zero(t, e.XP)
}

func TestLockedZoneOpensWithLevel(t *testing.T) {
	f := newFixture(t, nil)
	u := f.signup(t, "Climber", models.ClassMage)

	_, err := f.leaderboard.UpdateUserStats(f.ctx, u.ID, models.StatsUpdate{Level: intPtr(5)})
	require.NoError(t, err)

	res, err := f.posts.Create(f.ctx, u.ID, models.CreatePostRequest{Content: "Arcane secrets", Zone: "mystic_realm"})
	require.NoError(t, err)
	assert.Equal(t, 37, res.Post.XPEarned)
}

func TestLikeAndComment(t *testing.T) {
	f := newFixture(t, nil)
	author := f.signup(t, "Lifter", models.ClassWarrior)
	fan := f.signup(t, "Cheerer", models.ClassCleric)

	created, err := f.posts.Create(f.ctx, author.ID, models.CreatePostRequest{Content: "New PR!", Zone: "training_grounds"})
	require.NoError(t, err)
	postID := created.Post.ID

	liked, err := f.posts.Like(f.ctx, fan.ID, postID)
	require.NoError(t, err)
	assert.Equal(t, 1, liked.Post.Likes)
	assert.Equal(t, 1, f.quest(t, fan.ID, "daily_interact").Progress)
	assert.Equal(t, 2, f.quest(t, author.ID, "weekly_warrior").Progress)

	first, err := f.posts.Comment(f.ctx, fan.ID, postID, models.CommentRequest{Content: "Strong!"})
	require.NoError(t, err)
	assert.Equal(t, "Cheerer", first.Comment.Username)
	_, err = f.posts.Comment(f.ctx, author.ID, postID, models.CommentRequest{Content: "Thanks"})
	require.NoError(t, err)
	assert.Equal(t, 2, f.quest(t, fan.ID, "daily_interact").Progress)

	got, err := f.posts.Get(f.ctx, postID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Likes)
	assert.Equal(t, 37, got.XPEarned)
	require.Len(t, got.Comments, 2)
	assert.Equal(t, "Strong!", got.Comments[0].Content)
	assert.Equal(t, "Thanks", got.Comments[1].Content)

	_, err = f.posts.Like(f.ctx, fan.ID, "missing")
	assert.ErrorIs(t, err, ErrPostNotFound)
	_, err = f.posts.Comment(f.ctx, fan.ID, "missing", models.CommentRequest{Content: "hello"})
	assert.ErrorIs(t, err, ErrPostNotFound)
	_, err = f.posts.Comment(f.ctx, fan.ID, postID, models.CommentRequest{Content: ""})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.posts.Get(f.ctx, "missing")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestInteractionQuestPaysOutOnce(t *testing.T) {
	f := newFixture(t, nil)
	author := f.signup(t, "Poster", models.ClassRogue)
	fan := f.signup(t, "Superfan", models.ClassRogue)

	created, err := f.posts.Create(f.ctx, author.ID, models.CreatePostRequest{Content: "trend", Zone: "arena_trends"})
	require.NoError(t, err)

	var paid int
	for range 10 {
		res, err := f.posts.Like(f.ctx, fan.ID, created.Post.ID)
		require.NoError(t, err)
		paid += len(res.QuestRewards)
	}
	assert.Equal(t, 1, paid)
	assert.True(t, f.quest(t, fan.ID, "daily_interact").Completed)
	assert.Equal(t, 30, f.entry(t, fan.ID).XP)
}

func TestListAndByZone(t *testing.T) {
	f := newFixture(t, nil)
	u := f.signup(t, "Scribe", models.ClassMage)

	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, zone := range []string{"the_library", "artisan_valley", "the_library"} {
		at := base.Add(time.Duration(i) * time.Minute)
		f.posts.SetClock(func() time.Time { return at })
		_, err := f.posts.Create(f.ctx, u.ID, models.CreatePostRequest{Content: zone, Zone: zone})
		require.NoError(t, err)
	}

	all, err := f.posts.List(f.ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].CreatedAt.Equal(base.Add(2*time.Minute)))
	assert.True(t, all[2].CreatedAt.Equal(base))

	limited, err := f.posts.List(f.ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	library, err := f.posts.ByZone(f.ctx, "the_library")
	require.NoError(t, err)
	require.Len(t, library, 2)
	for _, p := range library {
		assert.Equal(t, "the_library", p.Zone)
		assert.NotNil(t, p.Comments)
	}

	empty, err := f.posts.ByZone(f.ctx, "sanctuary")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = f.posts.ByZone(f.ctx, "nowhere")
	assert.ErrorIs(t, err, zones.ErrZoneNotFound)
}
