package models

import "time"

// CommentUser is the author snippet embedded in a comment.
type CommentUser struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// Comment represents a comment on a post. The list order is
// server-insertion order, newest first.
type Comment struct {
	ID        uint        `json:"id"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"createdAt"`
	User      CommentUser `json:"user"`
}
