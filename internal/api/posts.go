package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"doggodiary/internal/models"
)

// ImageInput is one resolved image in a post-creation payload.
type ImageInput struct {
	URL     string `json:"url"`
	Caption string `json:"caption"`
	AltText string `json:"altText"`
	Order   int    `json:"order"`
}

// PageInput is one page in a post-creation payload.
type PageInput struct {
	PageNum  int          `json:"pageNum"`
	Subtitle string       `json:"subtitle"`
	Heading  string       `json:"heading"`
	Content  string       `json:"content"`
	Layout   string       `json:"layout"`
	Images   []ImageInput `json:"images"`
}

// CreatePostInput is the single atomic post-creation payload. Image
// URLs must already be resolved through the temporary-upload
// endpoints.
type CreatePostInput struct {
	Title        string      `json:"title"`
	AuthorID     uint        `json:"authorId"`
	Published    bool        `json:"published"`
	Content      string      `json:"content"`
	Tags         []string    `json:"tags"`
	ThumbnailURL string      `json:"thumbnailUrl"`
	Pages        []PageInput `json:"pages"`
}

// PageContentInput updates one page's textual content.
type PageContentInput struct {
	Heading  string `json:"heading"`
	Subtitle string `json:"subtitle"`
	Content  string `json:"content"`
}

// PostMetaInput updates post-level metadata.
type PostMetaInput struct {
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	Tags      []string  `json:"tags"`
}

// LikeResult is the server's authoritative like state after a toggle.
type LikeResult struct {
	Liked      bool `json:"liked"`
	TotalLikes int  `json:"totalLikes"`
}

type tempUploadResponse struct {
	URL       string `json:"url"`
	SecureURL string `json:"secure_url"`
}

type publicationResponse struct {
	Published bool `json:"published"`
}

type thumbnailResponse struct {
	Thumbnail models.Thumbnail `json:"thumbnail"`
}

type pageImageResponse struct {
	Image models.PageImage `json:"image"`
}

// FetchPosts returns all published posts.
func (c *Client) FetchPosts(ctx context.Context) ([]models.Post, error) {
	var out []models.Post
	if err := c.doJSON(ctx, "fetch_posts", http.MethodGet, "/posts", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchUnpublishedPosts returns unpublished posts; the server enforces
// the admin requirement.
func (c *Client) FetchUnpublishedPosts(ctx context.Context) ([]models.Post, error) {
	var out []models.Post
	if err := c.doJSON(ctx, "fetch_unpublished", http.MethodGet, "/posts/unpublished", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreatePost submits the assembled creation payload. The server
// assigns and returns the post ID.
func (c *Client) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	var out models.Post
	if err := c.doJSON(ctx, "create_post", http.MethodPost, "/posts", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePage replaces one page's heading, subtitle, and content.
func (c *Client) UpdatePage(ctx context.Context, postID, pageID uint, in PageContentInput) (*models.Page, error) {
	var out models.Page
	path := fmt.Sprintf("/posts/%d/pages/%d", postID, pageID)
	if err := c.doJSON(ctx, "update_page", http.MethodPut, path, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePostMeta replaces post-level metadata.
func (c *Client) UpdatePostMeta(ctx context.Context, postID uint, in PostMetaInput) (*models.Post, error) {
	var out models.Post
	path := fmt.Sprintf("/posts/%d/meta", postID)
	if err := c.doJSON(ctx, "update_meta", http.MethodPut, path, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetPublication toggles the post's published flag and returns the new
// value.
func (c *Client) SetPublication(ctx context.Context, postID uint) (bool, error) {
	var out publicationResponse
	path := fmt.Sprintf("/posts/%d/publication", postID)
	if err := c.doJSON(ctx, "set_publication", http.MethodPut, path, nil, &out); err != nil {
		return false, err
	}
	return out.Published, nil
}

// UpdateThumbnail replaces an existing post's thumbnail file.
func (c *Client) UpdateThumbnail(ctx context.Context, postID uint, filename string, content []byte) (*models.Thumbnail, error) {
	var out thumbnailResponse
	path := fmt.Sprintf("/posts/%d/thumbnail", postID)
	if err := c.doMultipart(ctx, "update_thumbnail", http.MethodPut, path, "file", filename, content, &out); err != nil {
		return nil, err
	}
	return &out.Thumbnail, nil
}

// UpdatePageImage replaces an existing page image file.
func (c *Client) UpdatePageImage(ctx context.Context, imageID uint, filename string, content []byte) (*models.PageImage, error) {
	var out pageImageResponse
	path := fmt.Sprintf("/posts/page-images/%d", imageID)
	if err := c.doMultipart(ctx, "update_page_image", http.MethodPut, path, "file", filename, content, &out); err != nil {
		return nil, err
	}
	return &out.Image, nil
}

// TempUploadThumbnail stages a thumbnail file before the owning post
// exists, returning the hosted URL.
func (c *Client) TempUploadThumbnail(ctx context.Context, filename string, content []byte) (string, error) {
	return c.tempUpload(ctx, "temp_upload_thumbnail", "/posts/temp-upload/thumbnail", filename, content)
}

// TempUploadPageImage stages a page image file before the owning post
// exists, returning the hosted URL.
func (c *Client) TempUploadPageImage(ctx context.Context, filename string, content []byte) (string, error) {
	return c.tempUpload(ctx, "temp_upload_page_image", "/posts/temp-upload/page-image", filename, content)
}

func (c *Client) tempUpload(ctx context.Context, operation, path, filename string, content []byte) (string, error) {
	var out tempUploadResponse
	if err := c.doMultipart(ctx, operation, http.MethodPost, path, "file", filename, content, &out); err != nil {
		return "", err
	}
	url := firstNonEmpty(out.SecureURL, out.URL)
	if url == "" {
		return "", models.NewRequestFailedError("upload response missing url", 0, nil)
	}
	return url, nil
}

// ToggleLike flips the caller's like on the post and returns the
// server's authoritative state.
func (c *Client) ToggleLike(ctx context.Context, postID uint) (*LikeResult, error) {
	var out LikeResult
	path := fmt.Sprintf("/posts/%d/like", postID)
	if err := c.doJSON(ctx, "toggle_like", http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
