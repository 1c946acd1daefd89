package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("test-secret")

func hmacKeyFunc(*jwt.Token) (any, error) { return testKey, nil }

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testKey)
	require.NoError(t, err)
	return token
}

func TestVerifyClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	token := signed(t, jwt.MapClaims{"sub": "user-1", "sid": "sess-1", "exp": exp})

	user, err := verifyClaims(token, hmacKeyFunc)
	require.NoError(t, err)
	assert.Equal(t, AuthenticatedUser{UserID: "user-1", SessionID: "sess-1", ExpiresAt: exp, Token: token}, user)
}

func TestVerifyClaims_Rejects(t *testing.T) {
	expired := signed(t, jwt.MapClaims{"sub": "user-1", "exp": time.Now().Add(-time.Hour).Unix()})
	_, err := verifyClaims(expired, hmacKeyFunc)
	assert.Error(t, err)

	noSubject := signed(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	_, err = verifyClaims(noSubject, hmacKeyFunc)
	assert.ErrorIs(t, err, errMissingSubject)

	wrongAudience := signed(t, jwt.MapClaims{"sub": "u", "aud": "other"})
	_, err = verifyClaims(wrongAudience, hmacKeyFunc, jwt.WithAudience("study-tracker"))
	assert.Error(t, err)
}

func TestNewVerifier(t *testing.T) {
	_, err := NewVerifier(Config{Mode: "magic"})
	assert.Error(t, err)

	_, err = NewVerifier(Config{Mode: ModeClerk})
	assert.Error(t, err, "clerk mode needs a JWKS URL")

	v, err := NewVerifier(Config{Mode: ModeNoop})
	require.NoError(t, err)
	user, err := v.Verify(context.Background(), "kid-1")
	require.NoError(t, err)
	assert.Equal(t, "kid-1", user.UserID)
}

func TestNoopVerifier(t *testing.T) {
	v := newNoopVerifier(Config{})

	user, err := v.Verify(context.Background(), " parent ")
	require.NoError(t, err)
	assert.Equal(t, "parent", user.UserID)
	assert.Equal(t, "noop:parent", user.SessionID)

	_, err = v.Verify(context.Background(), "   ")
	assert.ErrorIs(t, err, errEmptyNoopToken)
}

func TestMiddleware(t *testing.T) {
	v, err := NewVerifier(Config{Mode: ModeNoop})
	require.NoError(t, err)

	var seen AuthenticatedUser
	h := Middleware(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserFromContext(r.Context())
	}))

	cases := []struct {
		header string
		status int
	}{
		{"", http.StatusUnauthorized},
		{"Basic abc", http.StatusUnauthorized},
		{"Bearer  ", http.StatusUnauthorized},
		{"Bearer parent", http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, tc.status, rec.Code, "header %q", tc.header)
	}
	assert.Equal(t, "parent", seen.UserID)
}
