package auth

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwaspark/pwagen/internal/errors"
	"github.com/pwaspark/pwagen/internal/logger"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestVerifier(t *testing.T) *Verifier {
	t.Helper()
	v, err := NewVerifier(testSecret, "pwagen", "pwagen-api")
	require.NoError(t, err)
	return v
}

func TestNewVerifier_ShortSecret(t *testing.T) {
	t.Parallel()

	_, err := NewVerifier("short", "", "")
	require.Error(t, err)
	assert.Equal(t, errors.CategoryConfiguration, errors.CategoryOf(err))
}

func TestVerifier_RoundTrip(t *testing.T) {
	t.Parallel()

	v := newTestVerifier(t)
	token, err := v.Issue("alice", time.Hour)
	require.NoError(t, err)

	u, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.ID)
}

func TestVerifier_Rejects(t *testing.T) {
	t.Parallel()

	v := newTestVerifier(t)

	expired := newTestVerifier(t)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, err := expired.Issue("alice", time.Hour)
	require.NoError(t, err)

	otherAudience, err := NewVerifier(testSecret, "pwagen", "someone-else")
	require.NoError(t, err)
	wrongAudToken, err := otherAudience.Issue("alice", time.Hour)
	require.NoError(t, err)

	otherSecret, err := NewVerifier("ffffffffffffffffffffffffffffffff", "pwagen", "pwagen-api")
	require.NoError(t, err)
	forgedToken, err := otherSecret.Issue("alice", time.Hour)
	require.NoError(t, err)

	noSubject, err := v.Issue("", time.Hour)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "alice"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"expired":        expiredToken,
		"wrong audience": wrongAudToken,
		"forged":         forgedToken,
		"no subject":     noSubject,
		"alg none":       none,
		"garbage":        "not.a.token",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := v.Verify(token)
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestUserFromContext(t *testing.T) {
	t.Parallel()

	_, ok := UserFromContext(t.Context())
	assert.False(t, ok)

	_, ok = UserFromContext(WithUser(t.Context(), User{}))
	assert.False(t, ok, "empty ID is anonymous")

	u, ok := UserFromContext(WithUser(t.Context(), User{ID: "bob"}))
	require.True(t, ok)
	assert.Equal(t, "bob", u.ID)
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	v := newTestVerifier(t)
	good, err := v.Issue("alice", time.Hour)
	require.NoError(t, err)

	log := logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil)
	e := echo.New()
	e.Use(Middleware(v, log))
	e.GET("/whoami", func(c echo.Context) error {
		u, ok := UserFromContext(c.Request().Context())
		if !ok {
			return c.String(http.StatusOK, "anonymous")
		}
		return c.String(http.StatusOK, u.ID)
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"anonymous", "", http.StatusOK, "anonymous"},
		{"basic auth ignored", "Basic Zm9vOmJhcg==", http.StatusOK, "anonymous"},
		{"valid token", "Bearer " + good, http.StatusOK, "alice"},
		{"lowercase scheme", "bearer " + good, http.StatusOK, "alice"},
		{"invalid token", "Bearer nope", http.StatusUnauthorized, "invalid or expired token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/whoami", http.NoBody)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestMiddleware_NilVerifier(t *testing.T) {
	t.Parallel()

	e := echo.New()
	e.Use(Middleware(nil, nil))
	e.GET("/", func(c echo.Context) error {
		_, ok := UserFromContext(c.Request().Context())
		assert.False(t, ok)
		return c.NoContent(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set(echo.HeaderAuthorization, "Bearer whatever")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
