package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"doggodiary/internal/fixtures"
	"doggodiary/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynchronizer_PicksUpExternalWrite(t *testing.T) {
	t.Parallel()

	user := fixtures.User(models.RoleUser)
	stub := &stubAuthAPI{statsRes: &user}
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewStore(stub, path)
	require.NoError(t, store.Load(context.Background()))
	require.False(t, store.IsAuthenticated())

	sync, err := NewSynchronizer(store)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sync.Start(ctx)
	defer func() { _ = sync.Close() }()

	// Simulate another process logging in: write the session file the
	// same way a store would, via temp file and rename.
	raw, err := json.Marshal(fileState{AccessToken: "tok", User: &user})
	require.NoError(t, err)
	tmp := filepath.Join(filepath.Dir(path), ".session-ext")
	require.NoError(t, os.WriteFile(tmp, raw, 0o600))
	require.NoError(t, os.Rename(tmp, path))

	assert.Eventually(t, store.IsAuthenticated, 3*time.Second, 25*time.Millisecond,
		"store should reconcile after the file changed")
}

func TestSynchronizer_CloseWithoutStart(t *testing.T) {
	t.Parallel()

	store := NewStore(&stubAuthAPI{}, filepath.Join(t.TempDir(), "session.json"))
	sync, err := NewSynchronizer(store)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- sync.Close() }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Close must not block when the watch loop never started")
	}
}

func TestSynchronizer_PicksUpExternalLogout(t *testing.T) {
	t.Parallel()

	user := fixtures.User(models.RoleUser)
	stub := &stubAuthAPI{statsRes: &user}
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewStore(stub, path)

	raw, err := json.Marshal(fileState{AccessToken: "tok", User: &user})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o600))
	require.NoError(t, store.Load(context.Background()))
	require.True(t, store.IsAuthenticated())

	sync, err := NewSynchronizer(store)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sync.Start(ctx)
	defer func() { _ = sync.Close() }()

	empty, err := json.Marshal(fileState{})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, empty, 0o600))

	assert.Eventually(t, func() bool { return !store.IsAuthenticated() },
		3*time.Second, 25*time.Millisecond,
		"store should drop the session after an external logout")
}
