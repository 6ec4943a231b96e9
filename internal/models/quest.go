package models

import (
	"time"
)

type QuestType string

const (
	QuestDaily   QuestType = "daily"
	QuestWeekly  QuestType = "weekly"
	QuestSpecial QuestType = "special"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// QuestDefinition is a quest template shared by all users.
type QuestDefinition struct {
	ID              string     `json:"id" db:"id"`
	Title           string     `json:"title" db:"title"`
	Description     string     `json:"description" db:"description"`
	Type            QuestType  `json:"type" db:"type"`
	Difficulty      Difficulty `json:"difficulty" db:"difficulty"`
	XPReward        int        `json:"xp_reward" db:"xp_reward"`
	GoldReward      int        `json:"gold_reward" db:"gold_reward"`
	GemReward       int        `json:"gem_reward" db:"gem_reward"`
	Requirements    StringList `json:"requirements" db:"requirements"`
	MaxProgress     int        `json:"max_progress" db:"max_progress"`
	ClassBonus      ClassList  `json:"class_bonus,omitempty" db:"class_bonus"`
	TTLSeconds      int        `json:"-" db:"ttl_seconds"` // 0 = never expires
	CompleteOnIssue bool       `json:"-" db:"complete_on_issue"`
}

// TTL is how long an issued copy of the quest stays active.
func (d QuestDefinition) TTL() time.Duration {
	return time.Duration(d.TTLSeconds) * time.Second
}

// UserQuest is a quest issued to a user together with their progress.
type UserQuest struct {
	QuestDefinition
	UserID      int        `json:"user_id" db:"user_id"`
	Progress    int        `json:"progress" db:"progress"`
	Completed   bool       `json:"completed" db:"completed"`
	CompletedAt *time.Time `json:"completed_at" db:"completed_at"`
	IssuedAt    time.Time  `json:"issued_at" db:"issued_at"`
	ExpiresAt   *time.Time `json:"expires_at" db:"expires_at"`
}

// Expired reports whether the quest's expiry lies strictly before now.
func (q UserQuest) Expired(now time.Time) bool {
	return q.ExpiresAt != nil && q.ExpiresAt.Before(now)
}

// QuestCompletion is returned when a quest's reward has been paid out.
type QuestCompletion struct {
	Quest   UserQuest `json:"quest"`
	Outcome *Outcome  `json:"outcome,omitempty"`
}

// ProgressRequest sets a quest's progress counter.
type ProgressRequest struct {
	Progress int `json:"progress"`
}
