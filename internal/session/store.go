// Package session maintains one consistent view of "who is logged in"
// across the whole application, including across concurrently running
// processes sharing the same session file.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"doggodiary/internal/api"
	"doggodiary/internal/models"
	"doggodiary/internal/observability"

	"github.com/golang-jwt/jwt/v5"
)

// One-shot flag names persisted alongside the token. They are consumed
// and deleted on first read, surviving process restarts.
const (
	FlagLoginSuccess  = "loginSuccess"
	FlagSignupSuccess = "signupSuccess"
)

// AuthAPI is the slice of the remote API the store depends on.
type AuthAPI interface {
	Login(ctx context.Context, creds api.Credentials) (*api.LoginResult, error)
	Signup(ctx context.Context, in api.SignupInput) (string, error)
	Logout(ctx context.Context) error
	FetchUserStats(ctx context.Context) (*models.UserProfile, error)
}

// fileState is the JSON shape persisted to the session file. The file
// is the only resource shared with other processes; the store is its
// single writer.
type fileState struct {
	AccessToken string              `json:"accessToken,omitempty"`
	User        *models.UserProfile `json:"user,omitempty"`
	Flags       map[string]string   `json:"flags,omitempty"`
}

// Store owns the session state. All mutations go through it; readers
// learn about changes through Subscribe.
type Store struct {
	api  AuthAPI
	path string
	log  *observability.Logger

	mu    sync.RWMutex
	sess  models.Session
	flags map[string]string

	subMu   sync.Mutex
	subs    map[uint64]func()
	nextSub uint64
}

// NewStore creates a Store persisting to the given session file. The
// store starts in the loading state; call Load to derive the real one.
func NewStore(authAPI AuthAPI, path string) *Store {
	return &Store{
		api:   authAPI,
		path:  path,
		log:   observability.Component("session"),
		sess:  models.Session{Status: models.SessionLoading},
		flags: map[string]string{},
		subs:  map[uint64]func(){},
	}
}

// Path returns the session file path.
func (s *Store) Path() string {
	return s.path
}

// Session returns a copy of the current session.
func (s *Store) Session() models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess := s.sess
	if sess.User != nil {
		u := *sess.User
		sess.User = &u
	}
	return sess
}

// IsAuthenticated reports whether a user is currently logged in.
func (s *Store) IsAuthenticated() bool {
	return s.Session().IsAuthenticated()
}

// IsAdmin reports whether the current user carries the admin role.
// Role checks live here so callers do not grow divergent copies.
func (s *Store) IsAdmin() bool {
	sess := s.Session()
	return sess.IsAuthenticated() && sess.User.IsAdmin()
}

// UserID returns the current user's ID, or 0 when anonymous.
func (s *Store) UserID() uint {
	sess := s.Session()
	if sess.User == nil {
		return 0
	}
	return sess.User.UserID
}

// CurrentUser returns a copy of the cached profile, or nil.
func (s *Store) CurrentUser() *models.UserProfile {
	return s.Session().User
}

// CanDeleteComment reports whether the current user may delete the
// comment: its author, or any admin. Always false for an anonymous
// caller. This is a UI affordance; the server re-checks.
func (s *Store) CanDeleteComment(c models.Comment) bool {
	sess := s.Session()
	if !sess.IsAuthenticated() {
		return false
	}
	return sess.User.IsAdmin() || sess.User.UserID == c.User.ID
}

// Token returns the current access token, usable as an api.TokenSource.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sess.Token
}

// Subscribe registers a listener called after every session mutation.
// The listener must re-derive its state from the store; no payload is
// delivered.
func (s *Store) Subscribe(fn func()) uint64 {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.nextSub++
	id := s.nextSub
	s.subs[id] = fn
	return id
}

// Unsubscribe removes a listener.
func (s *Store) Unsubscribe(id uint64) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	delete(s.subs, id)
}

func (s *Store) publish() {
	s.subMu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Load derives the session from the persisted file: no token means
// anonymous; a token with a cached profile means authenticated, with
// an opportunistic profile refresh that falls back to the cache.
func (s *Store) Load(ctx context.Context) error {
	state, err := s.readFile()
	if err != nil {
		s.log.Warn("failed to read session file, treating as anonymous", "error", err)
		state = fileState{}
	}

	s.mu.Lock()
	s.flags = state.Flags
	if s.flags == nil {
		s.flags = map[string]string{}
	}
	if state.AccessToken != "" && state.User != nil && !tokenExpired(state.AccessToken) {
		s.sess = models.Session{
			Token:  state.AccessToken,
			User:   state.User,
			Status: models.SessionAuthenticated,
		}
	} else {
		s.sess = models.Session{Status: models.SessionAnonymous}
	}
	status := s.sess.Status
	s.mu.Unlock()

	observability.RecordSessionTransition(string(status))
	s.publish()

	if status == models.SessionAuthenticated {
		return s.RefreshProfile(ctx)
	}
	return nil
}

// Reload is the idempotent "reconcile from persisted session" routine
// invoked by the synchronizer and by components after a mutation
// signal.
func (s *Store) Reload(ctx context.Context) error {
	return s.Load(ctx)
}

// Login authenticates against the remote API and persists the
// resulting token and profile. A one-shot login flag is set for UI
// banners, then all listeners are signalled.
func (s *Store) Login(ctx context.Context, username, password string) error {
	res, err := s.api.Login(ctx, api.Credentials{Username: username, Password: password})
	if err != nil {
		return err
	}

	user := res.User
	s.mu.Lock()
	s.sess = models.Session{
		Token:  res.AccessToken,
		User:   &user,
		Status: models.SessionAuthenticated,
	}
	s.flags[FlagLoginSuccess] = "true"
	persistErr := s.persistLocked()
	s.mu.Unlock()

	if persistErr != nil {
		s.log.Error("failed to persist session after login", "error", persistErr)
	}
	observability.RecordSessionTransition(string(models.SessionAuthenticated))
	s.publish()
	return nil
}

// Signup registers a new account. It does not authenticate the new
// user; it only records the one-shot signup flag and signals
// listeners. Field-level API validation errors pass through verbatim.
func (s *Store) Signup(ctx context.Context, in api.SignupInput) (string, error) {
	msg, err := s.api.Signup(ctx, in)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.flags[FlagSignupSuccess] = "true"
	persistErr := s.persistLocked()
	s.mu.Unlock()

	if persistErr != nil {
		s.log.Error("failed to persist session after signup", "error", persistErr)
	}
	s.publish()
	return msg, nil
}

// Logout invalidates the server-side session on a best-effort basis,
// then clears local state regardless of the call's outcome.
func (s *Store) Logout(ctx context.Context) error {
	if err := s.api.Logout(ctx); err != nil {
		s.log.Warn("logout API call failed, clearing local session anyway", "error", err)
	}
	s.ForceAnonymous()
	return nil
}

// ForceAnonymous drops the local session. It is idempotent and safe to
// use as the API client's session-expired hook.
func (s *Store) ForceAnonymous() {
	s.mu.Lock()
	if s.sess.Status == models.SessionAnonymous {
		s.mu.Unlock()
		return
	}
	s.sess = models.Session{Status: models.SessionAnonymous}
	persistErr := s.persistLocked()
	s.mu.Unlock()

	if persistErr != nil {
		s.log.Error("failed to persist session after clearing", "error", persistErr)
	}
	observability.RecordSessionTransition(string(models.SessionAnonymous))
	s.publish()
}

// RefreshProfile fetches fresh user stats. A transient failure keeps
// the cached profile; only a detected session expiry forces the
// anonymous transition.
func (s *Store) RefreshProfile(ctx context.Context) error {
	if !s.IsAuthenticated() {
		return nil
	}

	user, err := s.api.FetchUserStats(ctx)
	if err != nil {
		if models.IsSessionExpired(err) {
			s.ForceAnonymous()
			return err
		}
		s.log.Warn("profile refresh failed, keeping cached profile", "error", err)
		return nil
	}

	s.mu.Lock()
	if s.sess.Status != models.SessionAuthenticated {
		// Session was torn down while the request was in flight.
		s.mu.Unlock()
		return nil
	}
	s.sess.User = user
	persistErr := s.persistLocked()
	s.mu.Unlock()

	if persistErr != nil {
		s.log.Error("failed to persist refreshed profile", "error", persistErr)
	}
	s.publish()
	return nil
}

// ConsumeFlag reads and deletes a one-shot flag, reporting whether it
// was set.
func (s *Store) ConsumeFlag(name string) bool {
	s.mu.Lock()
	set := s.flags[name] == "true"
	if set {
		delete(s.flags, name)
		if err := s.persistLocked(); err != nil {
			s.log.Error("failed to persist consumed flag", "flag", name, "error", err)
		}
	}
	s.mu.Unlock()
	return set
}

func (s *Store) readFile() (fileState, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileState{}, nil
		}
		return fileState{}, err
	}
	var state fileState
	if err := json.Unmarshal(raw, &state); err != nil {
		return fileState{}, err
	}
	return state, nil
}

// persistLocked writes the session file atomically. Callers hold s.mu.
func (s *Store) persistLocked() error {
	state := fileState{
		AccessToken: s.sess.Token,
		User:        s.sess.User,
		Flags:       s.flags,
	}
	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// tokenExpired inspects a JWT's exp claim without verifying the
// signature; the client has no signing secret. Opaque tokens are
// treated as live and left for the server to reject.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
