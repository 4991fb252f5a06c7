// Package viewer drives the reading experience: loading articles,
// paging through one, toggling likes, and publication control.
package viewer

import (
	"context"
	"sync"

	"doggodiary/internal/api"
	"doggodiary/internal/models"
	"doggodiary/internal/observability"
)

// ViewerAPI is the slice of the remote API the viewer needs.
type ViewerAPI interface {
	FetchPosts(ctx context.Context) ([]models.Post, error)
	FetchUnpublishedPosts(ctx context.Context) ([]models.Post, error)
	ToggleLike(ctx context.Context, postID uint) (*api.LikeResult, error)
	SetPublication(ctx context.Context, postID uint) (bool, error)
}

// SessionInfo answers the identity questions the viewer asks.
type SessionInfo interface {
	IsAuthenticated() bool
	IsAdmin() bool
	UserID() uint
}

// ArticleViewer holds the loaded posts, the selected article, and the
// page cursor within it.
type ArticleViewer struct {
	client ViewerAPI
	sess   SessionInfo
	log    *observability.Logger

	mu      sync.Mutex
	posts   []models.Post
	current int // index into posts, -1 when nothing selected
	page    int
	// totals carries the server's authoritative like counts after a
	// toggle; Likes slices only track the viewer's own entry reliably.
	totals map[uint]int
}

// NewArticleViewer returns a viewer with nothing loaded.
func NewArticleViewer(client ViewerAPI, sess SessionInfo) *ArticleViewer {
	return &ArticleViewer{
		client:  client,
		sess:    sess,
		log:     observability.Component("viewer"),
		current: -1,
		totals:  map[uint]int{},
	}
}

// LoadPublished fetches all published posts and selects the newest one.
func (v *ArticleViewer) LoadPublished(ctx context.Context) error {
	posts, err := v.client.FetchPosts(ctx)
	if err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.posts = posts
	v.totals = map[uint]int{}
	v.current = newestIndex(posts)
	v.page = 0
	return nil
}

// LoadUnpublished fetches the unpublished queue. Admin only; the
// server enforces it too.
func (v *ArticleViewer) LoadUnpublished(ctx context.Context) error {
	if !v.sess.IsAdmin() {
		return models.NewAuthorizationError("Only admins can view unpublished posts")
	}
	posts, err := v.client.FetchUnpublishedPosts(ctx)
	if err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.posts = posts
	v.totals = map[uint]int{}
	v.current = newestIndex(posts)
	v.page = 0
	return nil
}

// Posts returns a copy of the loaded post list.
func (v *ArticleViewer) Posts() []models.Post {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]models.Post(nil), v.posts...)
}

// Select switches the viewer to the post with the given ID and resets
// the page cursor.
func (v *ArticleViewer) Select(postID uint) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.posts {
		if v.posts[i].ID == postID {
			v.current = i
			v.page = 0
			return nil
		}
	}
	return models.NewValidationError("Post not found")
}

// Current returns the selected post, if any.
func (v *ArticleViewer) Current() (models.Post, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.current < 0 || v.current >= len(v.posts) {
		return models.Post{}, false
	}
	return v.posts[v.current], true
}

// CurrentPage returns the page under the cursor.
func (v *ArticleViewer) CurrentPage() (models.Page, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.current < 0 || v.current >= len(v.posts) {
		return models.Page{}, false
	}
	pages := v.posts[v.current].Pages
	if v.page < 0 || v.page >= len(pages) {
		return models.Page{}, false
	}
	return pages[v.page], true
}

// PageCursor returns the zero-based page index and the page count.
func (v *ArticleViewer) PageCursor() (int, int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.current < 0 || v.current >= len(v.posts) {
		return 0, 0
	}
	return v.page, len(v.posts[v.current].Pages)
}

// NextPage advances the cursor, reporting whether it moved.
func (v *ArticleViewer) NextPage() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.current < 0 || v.page+1 >= len(v.posts[v.current].Pages) {
		return false
	}
	v.page++
	return true
}

// PrevPage steps the cursor back, reporting whether it moved.
func (v *ArticleViewer) PrevPage() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.current < 0 || v.page == 0 {
		return false
	}
	v.page--
	return true
}

// Liked reports whether the current user has liked the selected post.
func (v *ArticleViewer) Liked() bool {
	post, ok := v.Current()
	if !ok || !v.sess.IsAuthenticated() {
		return false
	}
	return post.LikedBy(v.sess.UserID())
}

// LikeCount returns the like count of the selected post, preferring
// the server's total from the last toggle.
func (v *ArticleViewer) LikeCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.current < 0 || v.current >= len(v.posts) {
		return 0
	}
	post := &v.posts[v.current]
	if total, ok := v.totals[post.ID]; ok {
		return total
	}
	return post.LikeCount()
}

// ToggleLike flips the current user's like on the selected post and
// applies the server's authoritative state. Anonymous toggles are
// ignored without a request.
func (v *ArticleViewer) ToggleLike(ctx context.Context) error {
	if !v.sess.IsAuthenticated() {
		return nil
	}
	post, ok := v.Current()
	if !ok {
		return models.NewValidationError("No post selected")
	}

	res, err := v.client.ToggleLike(ctx, post.ID)
	if err != nil {
		return err
	}

	userID := v.sess.UserID()
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.posts {
		if v.posts[i].ID != post.ID {
			continue
		}
		p := &v.posts[i]
		p.Likes = withoutLike(p.Likes, userID)
		if res.Liked {
			p.Likes = append(p.Likes, models.Like{UserID: userID})
		}
		v.totals[p.ID] = res.TotalLikes
		break
	}
	return nil
}

// Publish toggles the selected post's publication flag. Admin only.
func (v *ArticleViewer) Publish(ctx context.Context) (bool, error) {
	if !v.sess.IsAdmin() {
		return false, models.NewAuthorizationError("Only admins can change publication")
	}
	post, ok := v.Current()
	if !ok {
		return false, models.NewValidationError("No post selected")
	}

	published, err := v.client.SetPublication(ctx, post.ID)
	if err != nil {
		return false, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.posts {
		if v.posts[i].ID == post.ID {
			v.posts[i].Published = published
			break
		}
	}
	return published, nil
}

func newestIndex(posts []models.Post) int {
	if len(posts) == 0 {
		return -1
	}
	newest := 0
	for i := 1; i < len(posts); i++ {
		if posts[i].CreatedAt.After(posts[newest].CreatedAt) {
			newest = i
		}
	}
	return newest
}

func withoutLike(likes []models.Like, userID uint) []models.Like {
	kept := likes[:0]
	for _, l := range likes {
		if l.UserID != userID {
			kept = append(kept, l)
		}
	}
	return kept
}
