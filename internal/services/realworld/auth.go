package realworld

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/ternarybob/realworld-e2e/internal/models"
)

// Authenticate logs in with email/password. When the server rejects the login
// (a 4xx response, not a transport error) the account is registered with the
// same credentials and that registration becomes the session. Calling it again
// with the same credentials converges on the same account.
func (c *Client) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	return c.AuthenticateAs(ctx, models.Credentials{
		Email:    email,
		Username: c.username,
		Password: password,
	})
}

// AuthenticateAs is Authenticate with an explicit username for the registration fallback
func (c *Client) AuthenticateAs(ctx context.Context, creds models.Credentials) (*models.User, error) {
	user, err := c.Login(ctx, creds.Email, creds.Password)
	if err == nil {
		return user, nil
	}
	if !isRejection(err) {
		return nil, err
	}

	if c.logger != nil {
		c.logger.Info().
			Str("email", creds.Email).
			Msg("Login failed, attempting to register user")
	}

	username := creds.Username
	if username == "" {
		username = usernameFromEmail(creds.Email)
	}

	user, regErr := c.Register(ctx, username, creds.Email, creds.Password)
	if regErr != nil {
		return nil, fmt.Errorf("login rejected (%v) and registration failed: %w", err, regErr)
	}
	return user, nil
}

// Login calls POST /users/login and stores the returned token
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	var out models.UserEnvelope
	_, err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/users/login",
		auth:   anonymous,
		body:   models.LoginEnvelope{User: models.LoginPayload{Email: email, Password: password}},
		expect: []int{http.StatusOK},
		out:    &out,
	})
	if err != nil {
		return nil, err
	}

	c.setSession(&out.User)
	return &out.User, nil
}

// Register calls POST /users and stores the returned token
func (c *Client) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	var out models.UserEnvelope
	_, err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/users",
		auth:   anonymous,
		body: models.RegisterEnvelope{User: models.RegisterPayload{
			Username: username,
			Email:    email,
			Password: password,
		}},
		// Some backends answer 200 instead of 201
		expect: []int{http.StatusCreated, http.StatusOK},
		out:    &out,
	})
	if err != nil {
		return nil, err
	}

	c.setSession(&out.User)
	if c.logger != nil {
		c.logger.Info().Str("email", email).Str("username", username).Msg("Successfully registered user")
	}
	return &out.User, nil
}

// CurrentUser calls GET /user
func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	var out models.UserEnvelope
	_, err := c.do(ctx, call{
		method: http.MethodGet,
		path:   "/user",
		auth:   authRequired,
		expect: []int{http.StatusOK},
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out.User, nil
}

func usernameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
