package models

import "time"

// LeaderboardEntry is a user's progression record joined with the account
// fields the leaderboard shows. Rank and ClassRank are derived; they are
// recomputed on every write and never treated as ground truth.
type LeaderboardEntry struct {
	UserID          int       `json:"id" db:"user_id"`
	Username        string    `json:"username" db:"username"`
	Class           Class     `json:"class" db:"class"`
	Level           int       `json:"level" db:"level"`
	XP              int       `json:"xp" db:"xp"`
	TotalXP         int       `json:"total_xp" db:"total_xp"`
	Gold            int       `json:"gold" db:"gold"`
	Gems            int       `json:"gems" db:"gems"`
	PostsCount      int       `json:"posts_count" db:"posts_count"`
	QuestsCompleted int       `json:"quests_completed" db:"quests_completed"`
	Rank            int       `json:"rank" db:"rank"`
	ClassRank       int       `json:"class_rank" db:"class_rank"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// StatsUpdate is a partial update of a user's leaderboard stats. Nil fields
// are left untouched.
type StatsUpdate struct {
	Level           *int `json:"level,omitempty"`
	XP              *int `json:"xp,omitempty"`
	Gold            *int `json:"gold,omitempty"`
	Gems            *int `json:"gems,omitempty"`
	PostsCount      *int `json:"posts_count,omitempty"`
	QuestsCompleted *int `json:"quests_completed,omitempty"`
}

// UserRank is a user's position overall and within their class.
type UserRank struct {
	Overall int `json:"overall"`
	Class   int `json:"class"`
}

// Reward is an amount of experience and currency granted in one action.
type Reward struct {
	XP   int `json:"xp"`
	Gold int `json:"gold"`
	Gems int `json:"gems"`
}

// LevelUp describes a level threshold crossed by a single grant.
type LevelUp struct {
	From      int `json:"from"`
	To        int `json:"to"`
	BonusGold int `json:"bonus_gold"`
	BonusGems int `json:"bonus_gems"`
}

// Outcome is the result of applying a reward to a user's progression.
type Outcome struct {
	Granted  Reward           `json:"granted"`
	LevelUp  *LevelUp         `json:"level_up,omitempty"`
	Progress LeaderboardEntry `json:"progress"`
}
