package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"doggodiary/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(server.URL, opts...)
}

func TestDo_DecodesSuccess(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/posts", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		_ = json.NewEncoder(w).Encode([]models.Post{{ID: 7, Title: "Beach day"}})
	})

	posts, err := client.FetchPosts(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, uint(7), posts[0].ID)
}

func TestDo_SessionExpiredFiresHookOnce(t *testing.T) {
	t.Parallel()

	var hooks atomic.Int32
	client := newTestClient(t,
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusUnauthorized)
		},
		WithTokenSource(func() string { return "tok" }),
		WithSessionExpiredHook(func() { hooks.Add(1) }),
	)

	_, err := client.FetchUserStats(context.Background())
	require.Error(t, err)
	assert.True(t, models.IsSessionExpired(err))
	assert.Equal(t, int32(1), hooks.Load())
}

func TestDo_UnauthorizedWithoutTokenIsNotExpiry(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Invalid username or password"}`))
	})

	_, err := client.FetchPosts(context.Background())
	require.Error(t, err)
	assert.False(t, models.IsSessionExpired(err))
	assert.True(t, models.HasCode(err, models.CodeRequestFailed))
	assert.Equal(t, http.StatusUnauthorized, StatusOf(err))
	assert.Contains(t, err.Error(), "Invalid username or password")
}

func TestDo_ServerMessagePreferred(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"Title already taken"}`))
	})

	_, err := client.CreatePost(context.Background(), CreatePostInput{Title: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Title already taken")
}

func TestTempUpload_PrefersSecureURL(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "dog.png", header.Filename)
		_, _ = w.Write([]byte(`{"url":"http://cdn/a","secure_url":"https://cdn/a"}`))
	})

	url, err := client.TempUploadThumbnail(context.Background(), "dog.png", []byte("bytes"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/a", url)
}

func TestTempUpload_MissingURL(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := client.TempUploadPageImage(context.Background(), "dog.png", []byte("bytes"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload response missing url")
}
