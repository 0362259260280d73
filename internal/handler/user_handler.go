package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vidtube/internal/middleware"
	"vidtube/internal/model"
	"vidtube/internal/service"
	"vidtube/pkg/apierror"
)

type UserHandler struct {
	auth          *service.AuthService
	profiles      *service.ProfileService
	tempDir       string
	maxUploadSize int64
}

func NewUserHandler(auth *service.AuthService, profiles *service.ProfileService, tempDir string, maxUploadSize int64) *UserHandler {
	return &UserHandler{
		auth:          auth,
		profiles:      profiles,
		tempDir:       tempDir,
		maxUploadSize: maxUploadSize,
	}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("unauthorized request"))
		return
	}

	user, err := h.auth.CurrentUser(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, "Current user fetched successfully")
}

func (h *UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("unauthorized request"))
		return
	}

	var payload model.UpdateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body"))
		return
	}
	if err := validateBody(payload); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.auth.UpdateAccount(r.Context(), identity.UserID, payload.FullName, payload.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, "Account details updated successfully")
}

func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", h.auth.UpdateAvatar, "Avatar updated successfully")
}

func (h *UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage", h.auth.UpdateCoverImage, "Cover image updated successfully")
}

func (h *UserHandler) updateImage(
	w http.ResponseWriter,
	r *http.Request,
	field string,
	update func(ctx context.Context, userID string, localPath string) (model.PublicUser, error),
	message string,
) {
	defer r.Body.Close()

	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("unauthorized request"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		writeError(w, apierror.BadRequest("invalid multipart form"))
		return
	}

	path, err := saveFormFile(r, field, h.tempDir)
	if err != nil {
		writeError(w, err)
		return
	}
	defer removeTempFile(path)

	user, err := update(r.Context(), identity.UserID, path)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, message)
}

// ChannelProfile answers anonymously too; the viewer identity, when
// present, only feeds the isSubscribed flag.
func (h *UserHandler) ChannelProfile(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	viewerID := ""
	if identity, ok := middleware.IdentityFromContext(r.Context()); ok {
		viewerID = identity.UserID
	}

	profile, err := h.profiles.GetChannelProfile(r.Context(), viewerID, username)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, profile, "Channel profile fetched successfully")
}

func (h *UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("unauthorized request"))
		return
	}

	history, err := h.profiles.GetWatchHistory(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, history, "Watch history fetched successfully")
}
