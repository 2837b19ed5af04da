package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrAuthRequired is returned when an operation needs a token and the
// session is anonymous. Callers should prompt for login instead of sending
// a request the server would reject anyway.
var ErrAuthRequired = errors.New("not logged in")

// Session holds the process-wide auth state: a bearer token and the
// canonical username the server returned for it. The pair lives in memory
// plus a session-scoped file so that separate CLI invocations within the
// same login session share it; it is never written to the durable cache.
type Session struct {
	mu       sync.Mutex
	token    string
	username string

	path string
}

type sessionFile struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// DefaultPath is the per-user session file location. TempDir is cleared on
// reboot, which is as close to "tab lifetime" as a CLI gets.
func DefaultPath() string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("milepost-session-%d.json", os.Getuid()))
}

// New returns an anonymous session backed by the given file path.
// Pass "" to use DefaultPath.
func New(path string) *Session {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath()
	}
	return &Session{path: path}
}

// Restore attempts to re-enter the authenticated state from the session
// file. A missing or unreadable file leaves the session anonymous; that is
// not an error.
func (s *Session) Restore() {
	b, err := os.ReadFile(s.path)
	if err != nil || len(b) == 0 {
		return
	}
	var f sessionFile
	if err := json.Unmarshal(b, &f); err != nil {
		return
	}
	if strings.TrimSpace(f.Token) == "" || strings.TrimSpace(f.Username) == "" {
		return
	}
	s.mu.Lock()
	s.token = f.Token
	s.username = f.Username
	s.mu.Unlock()
}

// Establish enters the authenticated state with a fresh credential pair and
// persists it to the session file (best-effort; a write failure still
// leaves the in-memory session authenticated).
func (s *Session) Establish(token, username string) error {
	token = strings.TrimSpace(token)
	username = strings.TrimSpace(username)
	if token == "" || username == "" {
		return errors.New("empty token or username")
	}
	s.mu.Lock()
	s.token = token
	s.username = username
	s.mu.Unlock()

	b, err := json.Marshal(sessionFile{Token: token, Username: username})
	if err != nil {
		return nil
	}
	_ = os.WriteFile(s.path, b, 0o600)
	return nil
}

// Logout clears the in-memory credentials and removes the session file.
func (s *Session) Logout() {
	s.mu.Lock()
	s.token = ""
	s.username = ""
	s.mu.Unlock()
	_ = os.Remove(s.path)
}

// ForceLogout is the implicit logout performed when the server rejects the
// token (401). Same effect as Logout; kept separate so call sites read as
// what they are.
func (s *Session) ForceLogout() {
	s.Logout()
}

// Authenticated reports whether a token is present.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != ""
}

// Username returns the canonical username, or "" when anonymous.
func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

// AuthHeaderValue returns the Authorization header value for the live
// token. ok is false when anonymous. Callers must read this at call time,
// not cache it: a forced logout can happen between calls.
func (s *Session) AuthHeaderValue() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return "", false
	}
	return "Bearer " + s.token, true
}
