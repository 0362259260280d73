package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"vidtube/internal/middleware"
	"vidtube/internal/model"
	"vidtube/internal/service"
	"vidtube/pkg/apierror"
)

type AuthHandler struct {
	service       *service.AuthService
	cookies       CookiePolicy
	tempDir       string
	maxUploadSize int64
}

func NewAuthHandler(service *service.AuthService, cookies CookiePolicy, tempDir string, maxUploadSize int64) *AuthHandler {
	return &AuthHandler{
		service:       service,
		cookies:       cookies,
		tempDir:       tempDir,
		maxUploadSize: maxUploadSize,
	}
}

// Register handles multipart/form-data: the four text fields plus a
// required avatar file and an optional coverImage file. Temp files are
// removed on every exit path, success or failure.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		writeError(w, apierror.BadRequest("invalid multipart form"))
		return
	}

	avatarPath, err := saveFormFile(r, "avatar", h.tempDir)
	if err != nil {
		writeError(w, err)
		return
	}
	defer removeTempFile(avatarPath)

	coverPath, err := saveFormFile(r, "coverImage", h.tempDir)
	if err != nil {
		writeError(w, err)
		return
	}
	defer removeTempFile(coverPath)

	user, err := h.service.Register(r.Context(), service.RegisterInput{
		FullName:   r.FormValue("fullName"),
		Email:      r.FormValue("email"),
		Username:   r.FormValue("username"),
		Password:   r.FormValue("password"),
		AvatarPath: avatarPath,
		CoverPath:  coverPath,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, user, "User registered successfully")
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body"))
		return
	}
	if err := validateBody(payload); err != nil {
		writeError(w, err)
		return
	}

	identifier := payload.Email
	if identifier == "" {
		identifier = payload.Username
	}

	result, err := h.service.Login(r.Context(), identifier, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	// Tokens travel both as httpOnly cookies and in the body: clients
	// without cookie storage need the raw values.
	setAuthCookies(w, h.cookies, result.AccessToken, result.RefreshToken)
	writeSuccess(w, http.StatusOK, result, "User logged in successfully")
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("unauthorized request"))
		return
	}

	if err := h.service.Logout(r.Context(), identity.UserID); err != nil {
		writeError(w, err)
		return
	}

	clearAuthCookies(w, h.cookies)
	writeSuccess(w, http.StatusOK, nil, "User logged out")
}

// Refresh accepts the refresh token from the cookie or, for cookie-less
// clients, from the JSON body.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	presented := ""
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
		presented = strings.TrimSpace(cookie.Value)
	}
	if presented == "" {
		var payload model.RefreshRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err == nil {
			presented = strings.TrimSpace(payload.RefreshToken)
		}
	}

	pair, err := h.service.Refresh(r.Context(), presented)
	if err != nil {
		writeError(w, err)
		return
	}

	setAuthCookies(w, h.cookies, pair.AccessToken, pair.RefreshToken)
	writeSuccess(w, http.StatusOK, pair, "Access token refreshed")
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("unauthorized request"))
		return
	}

	var payload model.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body"))
		return
	}
	if err := validateBody(payload); err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.ChangePassword(r.Context(), identity.UserID, payload.OldPassword, payload.NewPassword); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, nil, "Password changed successfully")
}
