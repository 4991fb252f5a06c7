package api

import (
	"context"
	"errors"
	"net/http"

	"doggodiary/internal/models"
)

// Credentials is the login request body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult is the successful login response.
type LoginResult struct {
	AccessToken string             `json:"accessToken"`
	User        models.UserProfile `json:"user"`
}

// SignupInput is the signup request body.
type SignupInput struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Avatar          string `json:"avatar,omitempty"`
}

type signupResponse struct {
	Message string `json:"message"`
}

// Login authenticates with the remote API. Any 4xx response is
// reported as InvalidCredentials with the server's message when one
// was provided.
func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	var out LoginResult
	err := c.doJSON(ctx, "login", http.MethodPost, "/auth/login", creds, &out)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Status >= 400 && appErr.Status < 500 {
			return nil, models.NewInvalidCredentialsError(serverMessage(appErr))
		}
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, models.NewRequestFailedError("login response missing access token", 0, nil)
	}
	return &out, nil
}

// Signup registers a new account. Field-level validation errors from
// the API are surfaced verbatim; signup never authenticates the new
// user.
func (c *Client) Signup(ctx context.Context, in SignupInput) (string, error) {
	var out signupResponse
	err := c.doJSON(ctx, "signup", http.MethodPost, "/auth/signup", in, &out)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Status >= 400 && appErr.Status < 500 {
			if len(appErr.Fields) > 0 {
				return "", models.NewValidationError("Signup failed", appErr.Fields...)
			}
			msg := serverMessage(appErr)
			if msg == "" {
				msg = "Signup failed. Please try again."
			}
			return "", models.NewValidationError(msg)
		}
		return "", err
	}
	return out.Message, nil
}

// Logout invalidates the server-side session. Callers treat this as
// best effort; local state is cleared regardless of the outcome.
func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, "logout", http.MethodPost, "/auth/logout", nil, nil)
}

// serverMessage returns the message the server actually sent, dropping
// the client-generated fallback.
func serverMessage(appErr *models.AppError) string {
	if appErr == nil {
		return ""
	}
	switch appErr.Message {
	case "", "login failed", "signup failed":
		return ""
	}
	return appErr.Message
}
