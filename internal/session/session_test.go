package session

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focusnest/study-tracker/internal/platform/auth"
	"github.com/focusnest/study-tracker/internal/platform/logging"
)

type verifierFunc func(context.Context, string) (auth.AuthenticatedUser, error)

func (f verifierFunc) Verify(ctx context.Context, token string) (auth.AuthenticatedUser, error) {
	return f(ctx, token)
}

func isReady(s *Session) bool {
	select {
	case <-s.Ready():
		return true
	default:
		return false
	}
}

func TestBootstrap_AnonymousWithoutToken(t *testing.T) {
	s := Bootstrap(context.Background(), nil, "", logging.Discard())

	require.True(t, isReady(s))
	assert.True(t, s.Anonymous())
	assert.True(t, strings.HasPrefix(s.UserID(), "anon-"))
	assert.NoError(t, s.Err())
}

func TestBootstrap_VerifiedToken(t *testing.T) {
	verifier := verifierFunc(func(_ context.Context, token string) (auth.AuthenticatedUser, error) {
		assert.Equal(t, "tok", token)
		return auth.AuthenticatedUser{UserID: "parent-1"}, nil
	})

	s := Bootstrap(context.Background(), verifier, "tok", logging.Discard())

	require.True(t, isReady(s))
	assert.False(t, s.Anonymous())
	assert.Equal(t, "parent-1", s.UserID())
}

func TestBootstrap_FailureStaysNotReady(t *testing.T) {
	verifier := verifierFunc(func(context.Context, string) (auth.AuthenticatedUser, error) {
		return auth.AuthenticatedUser{}, errors.New("expired")
	})

	s := Bootstrap(context.Background(), verifier, "tok", logging.Discard())

	assert.False(t, isReady(s))
	assert.Empty(t, s.UserID())
	assert.EqualError(t, s.Err(), "expired")
}

func TestBootstrap_TokenWithoutVerifier(t *testing.T) {
	s := Bootstrap(context.Background(), nil, "tok", logging.Discard())
	assert.False(t, isReady(s))
	assert.Error(t, s.Err())
}
