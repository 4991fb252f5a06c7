package api

import (
	"context"
	"net/http"
	"testing"

	"doggodiary/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin_Success(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)
		_, _ = w.Write([]byte(`{"accessToken":"tok","user":{"userId":3,"username":"rex","role":{"role":"ADMIN"}}}`))
	})

	res, err := client.Login(context.Background(), Credentials{Username: "rex", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "tok", res.AccessToken)
	assert.True(t, res.User.IsAdmin())
}

func TestLogin_BadCredentials(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Invalid username or password"}`))
	})

	_, err := client.Login(context.Background(), Credentials{Username: "rex", Password: "nope"})
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeInvalidCredentials))
	assert.Contains(t, err.Error(), "Invalid username or password")
}

func TestLogin_MissingToken(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"user":{"userId":3}}`))
	})

	_, err := client.Login(context.Background(), Credentials{Username: "rex", Password: "pw"})
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeRequestFailed))
}

func TestSignup_FieldErrorsVerbatim(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"errors":[{"msg":"Username must be at least 3 characters"},{"msg":"Passwords do not match"}]}`))
	})

	_, err := client.Signup(context.Background(), SignupInput{Username: "r"})
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeValidation, appErr.Code)
	assert.Equal(t, []string{
		"Username must be at least 3 characters",
		"Passwords do not match",
	}, appErr.Fields)
}

func TestSignup_Success(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"Account created"}`))
	})

	msg, err := client.Signup(context.Background(), SignupInput{Username: "rex", Password: "pw", ConfirmPassword: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "Account created", msg)
}
