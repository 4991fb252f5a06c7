// Package comments implements the comment panel for one post:
// loading the thread, sending with optimistic insertion, and deletion
// gated by an ownership affordance.
package comments

import (
	"context"
	"strings"
	"sync"

	"doggodiary/internal/models"
	"doggodiary/internal/observability"
)

// AnonymousNotice is shown instead of sending when nobody is logged in.
const AnonymousNotice = "Log in to post a message"

// CommentAPI is the slice of the remote API the panel needs.
type CommentAPI interface {
	ListComments(ctx context.Context, postID uint) ([]models.Comment, error)
	CreateComment(ctx context.Context, content string, postID uint) (*models.Comment, error)
	DeleteComment(ctx context.Context, commentID uint) error
}

// SessionInfo answers the identity questions the panel asks.
type SessionInfo interface {
	IsAuthenticated() bool
	CurrentUser() *models.UserProfile
	CanDeleteComment(c models.Comment) bool
}

// Panel is the comment thread of one post. The list stays newest
// first; successful sends prepend.
type Panel struct {
	client CommentAPI
	sess   SessionInfo
	log    *observability.Logger
	postID uint

	mu       sync.Mutex
	comments []models.Comment
	notice   string
}

// NewPanel creates a panel bound to one post.
func NewPanel(client CommentAPI, sess SessionInfo, postID uint) *Panel {
	return &Panel{
		client: client,
		sess:   sess,
		log:    observability.Component("comments"),
		postID: postID,
	}
}

// Load fetches the thread in server order, newest first.
func (p *Panel) Load(ctx context.Context) error {
	comments, err := p.client.ListComments(ctx, p.postID)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.comments = comments
	p.mu.Unlock()
	return nil
}

// Comments returns a copy of the thread.
func (p *Panel) Comments() []models.Comment {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.Comment(nil), p.comments...)
}

// Notice returns and clears the transient panel message.
func (p *Panel) Notice() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := p.notice
	p.notice = ""
	return n
}

// CanDelete reports whether the deletion affordance should show for a
// comment.
func (p *Panel) CanDelete(c models.Comment) bool {
	return p.sess.CanDeleteComment(c)
}

// Send posts a comment. An anonymous caller gets the transient notice
// and no request is made. On success the server-acknowledged comment
// is prepended with the session user attached; a failed send adds
// nothing.
func (p *Panel) Send(ctx context.Context, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.NewValidationError("Comment cannot be empty")
	}
	if !p.sess.IsAuthenticated() {
		p.mu.Lock()
		p.notice = AnonymousNotice
		p.mu.Unlock()
		return nil
	}

	created, err := p.client.CreateComment(ctx, content, p.postID)
	if err != nil {
		if models.IsSessionExpired(err) {
			p.mu.Lock()
			p.notice = AnonymousNotice
			p.mu.Unlock()
		}
		return err
	}

	comment := *created
	if comment.User.Username == "" {
		if user := p.sess.CurrentUser(); user != nil {
			comment.User = models.CommentUser{ID: user.UserID, Username: user.Username}
		}
	}

	p.mu.Lock()
	p.comments = append([]models.Comment{comment}, p.comments...)
	p.mu.Unlock()
	return nil
}

// Delete removes a comment optimistically: the local entry disappears
// first and comes back if the server refuses.
func (p *Panel) Delete(ctx context.Context, commentID uint) error {
	p.mu.Lock()
	index := -1
	for i, c := range p.comments {
		if c.ID == commentID {
			index = i
			break
		}
	}
	if index < 0 {
		p.mu.Unlock()
		return models.NewValidationError("Comment not found")
	}
	removed := p.comments[index]
	if !p.sess.CanDeleteComment(removed) {
		p.mu.Unlock()
		return models.NewAuthorizationError("You can only delete your own comments")
	}
	p.comments = append(p.comments[:index], p.comments[index+1:]...)
	p.mu.Unlock()

	if err := p.client.DeleteComment(ctx, commentID); err != nil {
		p.mu.Lock()
		if index > len(p.comments) {
			index = len(p.comments)
		}
		p.comments = append(p.comments[:index],
			append([]models.Comment{removed}, p.comments[index:]...)...)
		p.mu.Unlock()
		p.log.Warn("comment deletion failed, restoring entry",
			"commentId", commentID, "error", err)
		return err
	}
	return nil
}
