package models

import "time"

// Post is a piece of content filed under a zone. Only Likes and Comments
// change after creation.
type Post struct {
	ID        string    `json:"id" db:"id"`
	UserID    int       `json:"user_id" db:"user_id"`
	Username  string    `json:"username" db:"username"`
	UserClass Class     `json:"user_class" db:"user_class"`
	Content   string    `json:"content" db:"content"`
	ImageURI  string    `json:"image_uri,omitempty" db:"image_uri"`
	Zone      string    `json:"zone" db:"zone"`
	Likes     int       `json:"likes" db:"likes"`
	Comments  []Comment `json:"comments" db:"-"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	XPEarned  int       `json:"xp_earned" db:"xp_earned"`
}

// Comment is appended to a post's ordered comment list.
type Comment struct {
	ID        string    `json:"id" db:"id"`
	PostID    string    `json:"post_id" db:"post_id"`
	UserID    int       `json:"user_id" db:"user_id"`
	Username  string    `json:"username" db:"username"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CreatePostRequest represents a new post submission
type CreatePostRequest struct {
	Content  string `json:"content"`
	Zone     string `json:"zone"`
	ImageURI string `json:"image_uri,omitempty"`
}

// CommentRequest represents a new comment submission
type CommentRequest struct {
	Content string `json:"content"`
}

// PostResult is returned after creating or liking a post. Outcome is set
// only for the author's posting reward.
type PostResult struct {
	Post         Post              `json:"post"`
	Outcome      *Outcome          `json:"outcome,omitempty"`
	QuestRewards []QuestCompletion `json:"quest_rewards,omitempty"`
}

// CommentResult is returned after commenting on a post.
type CommentResult struct {
	Comment      Comment           `json:"comment"`
	QuestRewards []QuestCompletion `json:"quest_rewards,omitempty"`
}

// Event is pushed to live clients after a committed change.
type Event struct {
	Type    string `json:"type"`
	UserID  int    `json:"user_id"`
	Payload any    `json:"payload,omitempty"`
}

const (
	EventRankUpdate = "rank_update"
	EventLevelUp    = "level_up"
	EventNewPost    = "new_post"
)
