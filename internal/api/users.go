package api

import (
	"context"
	"net/http"

	"doggodiary/internal/models"
)

// FetchUserStats returns the current user's profile and activity
// counters.
func (c *Client) FetchUserStats(ctx context.Context) (*models.UserProfile, error) {
	var out models.UserProfile
	if err := c.doJSON(ctx, "fetch_user_stats", http.MethodGet, "/users/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
