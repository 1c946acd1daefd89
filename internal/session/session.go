package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/focusnest/study-tracker/internal/platform/auth"
)

// Session is the identity the service uses against the store. Ready is closed once the identity is
// established; a failed bootstrap leaves it open and the service stays read-only.
type Session struct {
	ready chan struct{}
	once  sync.Once

	mu        sync.RWMutex
	userID    string
	anonymous bool
	err       error
}

// New returns a session that is not ready yet.
func New() *Session {
	return &Session{ready: make(chan struct{})}
}

// Ready is closed once the session is established.
func (s *Session) Ready() <-chan struct{} {
	return s.ready
}

// UserID returns the established identity, empty until ready.
func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// Anonymous reports whether the identity was created without a token.
func (s *Session) Anonymous() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.anonymous
}

// Err returns the bootstrap failure, if any.
func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *Session) establish(userID string, anonymous bool) {
	s.mu.Lock()
	s.userID = userID
	s.anonymous = anonymous
	s.mu.Unlock()
	s.once.Do(func() { close(s.ready) })
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Bootstrap establishes the session from an optional pre-authenticated token. Without a token a
// new anonymous identity is created. A token that fails verification is logged and leaves the
// session not ready; it never stops the process.
func Bootstrap(ctx context.Context, verifier auth.Verifier, token string, logger *slog.Logger) *Session {
	s := New()

	if token == "" {
		id := "anon-" + uuid.NewString()
		s.establish(id, true)
		logger.Info("anonymous session started", "user_id", id)
		return s
	}

	if verifier == nil {
		err := errors.New("no verifier configured for session token")
		s.fail(err)
		logger.Error("session bootstrap failed, running read-only", "error", err)
		return s
	}

	user, err := verifier.Verify(ctx, token)
	if err != nil {
		s.fail(err)
		logger.Error("session bootstrap failed, running read-only", "error", err)
		return s
	}

	s.establish(user.UserID, false)
	logger.Info("session established", "user_id", user.UserID)
	return s
}
