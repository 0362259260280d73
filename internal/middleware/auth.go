package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"vidtube/internal/model"
	"vidtube/internal/token"
)

type accessVerifier interface {
	ParseAccess(tokenString string) (*token.AccessClaims, error)
}

// Identity is the authenticated caller extracted from a verified access
// token. The denormalized profile fields come straight from the claims,
// not from the store.
type Identity struct {
	UserID   string
	Email    string
	Username string
	FullName string
}

type contextKey string

const identityContextKey contextKey = "auth_identity"

type AuthMiddleware struct {
	verifier accessVerifier
}

func NewAuthMiddleware(verifier accessVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// RequireAuth accepts the access token either as a Bearer header or as
// the accessToken cookie, matching the dual delivery on login.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := extractAccessToken(r)
		if raw == "" {
			writeUnauthorized(w, "unauthorized request")
			return
		}

		claims, err := m.verifier.ParseAccess(raw)
		if err != nil {
			writeUnauthorized(w, "invalid access token")
			return
		}

		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), claims)))
	})
}

// OptionalAuth attaches the caller identity when a valid access token is
// present and lets the request through anonymously otherwise. Channel
// profiles use this for the isSubscribed flag.
func (m *AuthMiddleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := extractAccessToken(r); raw != "" {
			if claims, err := m.verifier.ParseAccess(raw); err == nil {
				r = r.WithContext(withIdentity(r.Context(), claims))
			}
		}

		next.ServeHTTP(w, r)
	})
}

func extractAccessToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}

	if cookie, err := r.Cookie("accessToken"); err == nil {
		return strings.TrimSpace(cookie.Value)
	}

	return ""
}

func withIdentity(ctx context.Context, claims *token.AccessClaims) context.Context {
	return context.WithValue(ctx, identityContextKey, &Identity{
		UserID:   claims.Subject,
		Email:    claims.Email,
		Username: claims.Username,
		FullName: claims.FullName,
	})
}

func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(*Identity)
	return identity, ok
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		StatusCode: http.StatusUnauthorized,
		Message:    message,
		Success:    false,
		Errors:     []string{},
	})
}
