package models

import "time"

// Page layouts understood by the renderer.
const (
	LayoutTitlePage       = "titlePage"
	LayoutHorizontalImage = "horizontalImage"
)

// Thumbnail is the cover image of a post.
type Thumbnail struct {
	URL     string `json:"url"`
	AltText string `json:"altText"`
}

// Tag is a post tag.
type Tag struct {
	Name string `json:"name"`
}

// PageImage is an image placed on a post page, ordered within the page.
type PageImage struct {
	ID      uint   `json:"id"`
	URL     string `json:"url"`
	Caption string `json:"caption"`
	AltText string `json:"altText"`
	Order   int    `json:"order"`
}

// Page is one page of a multi-page post.
type Page struct {
	ID       uint        `json:"id"`
	PageNum  int         `json:"pageNum"`
	Subtitle string      `json:"subtitle"`
	Heading  string      `json:"heading"`
	Content  string      `json:"content"`
	Layout   string      `json:"layout"`
	Images   []PageImage `json:"images"`
}

// Like records that a user liked a post.
type Like struct {
	UserID uint `json:"userId"`
}

// Post is a server-owned article. The client never assigns IDs; they
// are returned by the API after create.
type Post struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	Published bool      `json:"published"`
	Thumbnail Thumbnail `json:"thumbnail"`
	Tags      []Tag     `json:"tags"`
	Pages     []Page    `json:"pages"`
	Likes     []Like    `json:"likes"`
	Comments  []Comment `json:"comments"`
}

// LikeCount returns the number of likes on the post.
func (p *Post) LikeCount() int {
	return len(p.Likes)
}

// LikedBy reports whether the given user has liked the post.
func (p *Post) LikedBy(userID uint) bool {
	for _, l := range p.Likes {
		if l.UserID == userID {
			return true
		}
	}
	return false
}

// TagNames returns the post's tag names in order.
func (p *Post) TagNames() []string {
	names := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		names = append(names, t.Name)
	}
	return names
}
