package api

import (
	"context"
	"fmt"
	"net/http"

	"doggodiary/internal/models"
)

type createCommentInput struct {
	Content string `json:"content"`
	PostID  uint   `json:"postId"`
}

// ListComments returns the comments for a post in server order
// (newest first).
func (c *Client) ListComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	var out []models.Comment
	path := fmt.Sprintf("/comments/post/%d", postID)
	if err := c.doJSON(ctx, "list_comments", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateComment posts a comment and returns the server-acknowledged
// record.
func (c *Client) CreateComment(ctx context.Context, content string, postID uint) (*models.Comment, error) {
	var out models.Comment
	in := createCommentInput{Content: content, PostID: postID}
	if err := c.doJSON(ctx, "create_comment", http.MethodPost, "/comments", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteComment removes a comment. The server is the authority on
// whether the caller may do so.
func (c *Client) DeleteComment(ctx context.Context, commentID uint) error {
	path := fmt.Sprintf("/comments/%d", commentID)
	return c.doJSON(ctx, "delete_comment", http.MethodDelete, path, nil, nil)
}
