package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidtube/internal/model"
	"vidtube/internal/token"
)

func testIssuer(t *testing.T) (*token.Issuer, string) {
	t.Helper()
	issuer := token.NewIssuer("access-secret", "refresh-secret", time.Hour, 240*time.Hour)
	access, err := issuer.IssueAccess(model.User{
		ID:       "user-1",
		Email:    "neo@x.com",
		Username: "neo",
		FullName: "Neo",
	})
	require.NoError(t, err)
	return issuer, access
}

func identityProbe(t *testing.T, captured **Identity) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identity, ok := IdentityFromContext(r.Context()); ok {
			*captured = identity
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth(t *testing.T) {
	issuer, access := testIssuer(t)
	mw := NewAuthMiddleware(issuer)

	t.Run("bearer header", func(t *testing.T) {
		var got *Identity
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+access)
		rec := httptest.NewRecorder()

		mw.RequireAuth(identityProbe(t, &got)).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, got)
		assert.Equal(t, "user-1", got.UserID)
		assert.Equal(t, "neo", got.Username)
		assert.Equal(t, "neo@x.com", got.Email)
	})

	t.Run("accessToken cookie", func(t *testing.T) {
		var got *Identity
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.AddCookie(&http.Cookie{Name: "accessToken", Value: access})
		rec := httptest.NewRecorder()

		mw.RequireAuth(identityProbe(t, &got)).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, got)
		assert.Equal(t, "user-1", got.UserID)
	})

	t.Run("no credentials", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		rec := httptest.NewRecorder()

		mw.RequireAuth(identityProbe(t, new(*Identity))).ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)

		var body model.APIResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, http.StatusUnauthorized, body.StatusCode)
		assert.False(t, body.Success)
		assert.Equal(t, "unauthorized request", body.Message)
		assert.NotNil(t, body.Errors)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer nope.nope.nope")
		rec := httptest.NewRecorder()

		mw.RequireAuth(identityProbe(t, new(*Identity))).ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)

		var body model.APIResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "invalid access token", body.Message)
	})

	t.Run("refresh token is not an access token", func(t *testing.T) {
		refresh, err := issuer.IssueRefresh("user-1")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+refresh)
		rec := httptest.NewRecorder()

		mw.RequireAuth(identityProbe(t, new(*Identity))).ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		expiredIssuer := token.NewIssuer("access-secret", "refresh-secret", -time.Minute, time.Hour)
		expired, err := expiredIssuer.IssueAccess(model.User{ID: "user-1"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+expired)
		rec := httptest.NewRecorder()

		mw.RequireAuth(identityProbe(t, new(*Identity))).ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestOptionalAuth(t *testing.T) {
	issuer, access := testIssuer(t)
	mw := NewAuthMiddleware(issuer)

	t.Run("anonymous passes through", func(t *testing.T) {
		var got *Identity
		req := httptest.NewRequest(http.MethodGet, "/c/neo", nil)
		rec := httptest.NewRecorder()

		mw.OptionalAuth(identityProbe(t, &got)).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, got)
	})

	t.Run("valid token attaches identity", func(t *testing.T) {
		var got *Identity
		req := httptest.NewRequest(http.MethodGet, "/c/neo", nil)
		req.Header.Set("Authorization", "Bearer "+access)
		rec := httptest.NewRecorder()

		mw.OptionalAuth(identityProbe(t, &got)).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, got)
		assert.Equal(t, "user-1", got.UserID)
	})

	t.Run("invalid token is treated as anonymous", func(t *testing.T) {
		var got *Identity
		req := httptest.NewRequest(http.MethodGet, "/c/neo", nil)
		req.Header.Set("Authorization", "Bearer broken")
		rec := httptest.NewRecorder()

		mw.OptionalAuth(identityProbe(t, &got)).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, got)
	})
}
