package models

// SessionStatus is the client's belief about the current login state.
type SessionStatus string

const (
	SessionLoading       SessionStatus = "loading"
	SessionAuthenticated SessionStatus = "authenticated"
	SessionAnonymous     SessionStatus = "anonymous"
)

// Session holds the authentication token and cached user profile.
// Invariant: Status is SessionAuthenticated iff both Token and User are
// present.
type Session struct {
	Token  string
	User   *UserProfile
	Status SessionStatus
}

// IsAuthenticated reports whether the session is authenticated.
func (s Session) IsAuthenticated() bool {
	return s.Status == SessionAuthenticated && s.Token != "" && s.User != nil
}
