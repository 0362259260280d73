package handler

import (
	"net/http"
	"time"
)

const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

// CookiePolicy controls the attributes of the auth cookies. Both cookies
// are always httpOnly; Secure is configuration so local development over
// plain HTTP stays possible.
type CookiePolicy struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func setAuthCookies(w http.ResponseWriter, policy CookiePolicy, accessToken string, refreshToken string) {
	setTokenCookie(w, policy, accessTokenCookie, accessToken, policy.AccessTTL)
	setTokenCookie(w, policy, refreshTokenCookie, refreshToken, policy.RefreshTTL)
}

func clearAuthCookies(w http.ResponseWriter, policy CookiePolicy) {
	expireTokenCookie(w, policy, accessTokenCookie)
	expireTokenCookie(w, policy, refreshTokenCookie)
}

func setTokenCookie(w http.ResponseWriter, policy CookiePolicy, name string, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(ttl).UTC(),
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   policy.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func expireTokenCookie(w http.ResponseWriter, policy CookiePolicy, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   policy.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}
