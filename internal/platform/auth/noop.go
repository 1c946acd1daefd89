package auth

import (
	"context"
	"errors"
	"strings"
)

var errEmptyNoopToken = errors.New("noop auth: bearer token is used as the user id and must not be blank")

// noopVerifier trusts the bearer token as the user id. It backs AUTH_MODE=noop for local runs
// and tests, where each token value is its own study tracker user with its own spinner and
// write budget.
type noopVerifier struct{}

func newNoopVerifier(_ Config) Verifier {
	return noopVerifier{}
}

func (noopVerifier) Verify(_ context.Context, token string) (AuthenticatedUser, error) {
	userID := strings.TrimSpace(token)
	if userID == "" {
		return AuthenticatedUser{}, errEmptyNoopToken
	}
	return AuthenticatedUser{UserID: userID, SessionID: "noop:" + userID, Token: token}, nil
}
