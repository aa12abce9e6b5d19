package realworld

import (
	"context"
	"net/http"

	"github.com/ternarybob/realworld-e2e/internal/models"
)

// FollowUser calls POST /profiles/{username}/follow
func (c *Client) FollowUser(ctx context.Context, username string) (*models.Profile, error) {
	return c.follow(ctx, http.MethodPost, username)
}

// UnfollowUser calls DELETE /profiles/{username}/follow
func (c *Client) UnfollowUser(ctx context.Context, username string) (*models.Profile, error) {
	return c.follow(ctx, http.MethodDelete, username)
}

// GetProfile calls GET /profiles/{username}; Following is relative to the session user
func (c *Client) GetProfile(ctx context.Context, username string) (*models.Profile, error) {
	var out models.ProfileEnvelope
	_, err := c.do(ctx, call{
		method: http.MethodGet,
		path:   "/profiles/" + pathEscape(username),
		auth:   authOptional,
		expect: []int{http.StatusOK},
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out.Profile, nil
}

func (c *Client) follow(ctx context.Context, method, username string) (*models.Profile, error) {
	var out models.ProfileEnvelope
	_, err := c.do(ctx, call{
		method: method,
		path:   "/profiles/" + pathEscape(username) + "/follow",
		auth:   authRequired,
		expect: []int{http.StatusOK},
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out.Profile, nil
}
