// Package models contains data structures for the client's view of the
// Doggo Diary domain, as served by the remote API.
package models

// Role values as returned by the remote API.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// Role wraps the role name. The API nests it one level deep.
type Role struct {
	Role string `json:"role"`
}

// UserProfile is the cached view of the logged-in user, refreshed
// opportunistically from /users/stats.
type UserProfile struct {
	UserID       uint   `json:"userId"`
	Username     string `json:"username"`
	Role         Role   `json:"role"`
	AvatarURL    string `json:"avatarUrl"`
	CommentCount int    `json:"commentCount"`
	LikeCount    int    `json:"likeCount"`
}

// IsAdmin reports whether the profile carries the admin role.
func (u *UserProfile) IsAdmin() bool {
	return u != nil && u.Role.Role == RoleAdmin
}
