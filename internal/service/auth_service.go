package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"vidtube/internal/hash"
	"vidtube/internal/media"
	"vidtube/internal/model"
	"vidtube/internal/token"
	"vidtube/pkg/apierror"
)

// UserStore is the credential-store surface the session flows need.
type UserStore interface {
	Create(ctx context.Context, u model.User) error
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByEmailOrUsername(ctx context.Context, identifier string) (model.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username string, email string) (bool, error)
	UpdateRefreshToken(ctx context.Context, userID string, refreshToken string) error
	RotateRefreshToken(ctx context.Context, userID string, current string, next string) (bool, error)
	ClearRefreshToken(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID string, passwordHash string) error
	UpdateAccountDetails(ctx context.Context, userID string, fullName string, email string) error
	UpdateAvatar(ctx context.Context, userID string, avatarURL string) error
	UpdateCoverImage(ctx context.Context, userID string, coverURL string) error
}

type AuthService struct {
	users    UserStore
	uploader media.Uploader
	tokens   *token.Issuer
}

func NewAuthService(users UserStore, uploader media.Uploader, tokens *token.Issuer) *AuthService {
	return &AuthService{users: users, uploader: uploader, tokens: tokens}
}

func (s *AuthService) Tokens() *token.Issuer { return s.tokens }

type RegisterInput struct {
	FullName string
	Email    string
	Username string
	Password string

	// Local temp-file paths produced by the multipart layer. The caller
	// owns their cleanup; this service only reads them.
	AvatarPath string
	CoverPath  string
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (model.PublicUser, error) {
	missing := missingFields(map[string]string{
		"fullName": in.FullName,
		"email":    in.Email,
		"username": in.Username,
		"password": in.Password,
	})
	if len(missing) > 0 {
		return model.PublicUser{}, apierror.BadRequest("all fields are required", missing...)
	}

	exists, err := s.users.ExistsByUsernameOrEmail(ctx, in.Username, in.Email)
	if err != nil {
		return model.PublicUser{}, err
	}
	if exists {
		return model.PublicUser{}, apierror.Conflict("user with email or username already exists")
	}

	if strings.TrimSpace(in.AvatarPath) == "" {
		return model.PublicUser{}, apierror.BadRequest("avatar file is required")
	}

	// Uploads run before the record is written so the slow external call
	// never overlaps the store mutation.
	avatarURL, err := s.uploader.Upload(ctx, in.AvatarPath)
	if err != nil || avatarURL == "" {
		slog.Warn("avatar upload failed", "error", err)
		return model.PublicUser{}, apierror.BadRequest("failed to upload avatar")
	}

	coverURL := ""
	if strings.TrimSpace(in.CoverPath) != "" {
		coverURL, err = s.uploader.Upload(ctx, in.CoverPath)
		if err != nil {
			// The cover image is optional: a failed upload degrades to an
			// empty value rather than aborting registration.
			slog.Warn("cover image upload failed; continuing without it", "error", err)
			coverURL = ""
		}
	}

	passwordHash, err := hash.Password(in.Password)
	if err != nil {
		return model.PublicUser{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Username:     strings.ToLower(strings.TrimSpace(in.Username)),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		FullName:     strings.TrimSpace(in.FullName),
		Avatar:       avatarURL,
		CoverImage:   coverURL,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return model.PublicUser{}, err
	}

	created, err := s.users.FindByID(ctx, user.ID)
	if err != nil {
		return model.PublicUser{}, apierror.Internal("something went wrong while registering the user")
	}

	return created.Public(), nil
}

func (s *AuthService) Login(ctx context.Context, identifier string, password string) (model.LoginResult, error) {
	if strings.TrimSpace(identifier) == "" {
		return model.LoginResult{}, apierror.BadRequest("username or email is required")
	}
	if password == "" {
		return model.LoginResult{}, apierror.BadRequest("password is required")
	}

	user, err := s.users.FindByEmailOrUsername(ctx, identifier)
	if err != nil {
		return model.LoginResult{}, err
	}

	if !hash.Verify(password, user.PasswordHash) {
		return model.LoginResult{}, apierror.Unauthorized("invalid user credentials")
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return model.LoginResult{}, err
	}

	// Overwriting the stored refresh token is the sole revocation
	// mechanism for any earlier session.
	if err := s.users.UpdateRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return model.LoginResult{}, err
	}

	return model.LoginResult{
		User:         user.Public(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.users.ClearRefreshToken(ctx, userID)
}

// Refresh rotates the single active refresh token. Every failure
// surfaces as 401 with a generic message; the log lines distinguish the
// actual causes.
func (s *AuthService) Refresh(ctx context.Context, presented string) (model.TokenPair, error) {
	if strings.TrimSpace(presented) == "" {
		return model.TokenPair{}, apierror.Unauthorized("unauthorized request")
	}

	userID, err := s.tokens.ParseRefresh(presented)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			slog.Warn("refresh rejected: token expired")
		} else {
			slog.Warn("refresh rejected: token invalid", "error", err)
		}
		return model.TokenPair{}, apierror.Unauthorized("invalid refresh token")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		slog.Warn("refresh rejected: subject not found", "user_id", userID)
		return model.TokenPair{}, apierror.Unauthorized("invalid refresh token")
	}

	if user.RefreshToken == "" || user.RefreshToken != presented {
		slog.Warn("refresh rejected: token reused or superseded", "user_id", userID)
		return model.TokenPair{}, apierror.Unauthorized("refresh token reused or superseded")
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return model.TokenPair{}, err
	}

	rotated, err := s.users.RotateRefreshToken(ctx, user.ID, presented, pair.RefreshToken)
	if err != nil {
		return model.TokenPair{}, err
	}
	if !rotated {
		// A concurrent refresh won the compare-and-overwrite.
		slog.Warn("refresh rejected: token reused or superseded", "user_id", userID)
		return model.TokenPair{}, apierror.Unauthorized("refresh token reused or superseded")
	}

	return pair, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID string, oldPassword string, newPassword string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	// Verification is bound to this user's stored hash, nothing else.
	if !hash.Verify(oldPassword, user.PasswordHash) {
		return apierror.Unauthorized("invalid old password")
	}

	newHash, err := hash.Password(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.users.UpdatePassword(ctx, userID, newHash)
}

func (s *AuthService) CurrentUser(ctx context.Context, userID string) (model.PublicUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return model.PublicUser{}, err
	}
	return user.Public(), nil
}

func (s *AuthService) UpdateAccount(ctx context.Context, userID string, fullName string, email string) (model.PublicUser, error) {
	if strings.TrimSpace(fullName) == "" || strings.TrimSpace(email) == "" {
		return model.PublicUser{}, apierror.BadRequest("all fields are required")
	}

	if err := s.users.UpdateAccountDetails(ctx, userID, strings.TrimSpace(fullName), strings.TrimSpace(email)); err != nil {
		return model.PublicUser{}, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return model.PublicUser{}, err
	}
	return user.Public(), nil
}

// UpdateAvatar replaces the hosted avatar URL. The previous remote asset
// is intentionally left in place; see the orphaning note in DESIGN.md.
func (s *AuthService) UpdateAvatar(ctx context.Context, userID string, localPath string) (model.PublicUser, error) {
	url, err := s.uploadRequired(ctx, localPath, "avatar")
	if err != nil {
		return model.PublicUser{}, err
	}

	if err := s.users.UpdateAvatar(ctx, userID, url); err != nil {
		return model.PublicUser{}, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return model.PublicUser{}, err
	}
	return user.Public(), nil
}

func (s *AuthService) UpdateCoverImage(ctx context.Context, userID string, localPath string) (model.PublicUser, error) {
	url, err := s.uploadRequired(ctx, localPath, "cover image")
	if err != nil {
		return model.PublicUser{}, err
	}

	if err := s.users.UpdateCoverImage(ctx, userID, url); err != nil {
		return model.PublicUser{}, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return model.PublicUser{}, err
	}
	return user.Public(), nil
}

func (s *AuthService) uploadRequired(ctx context.Context, localPath string, kind string) (string, error) {
	if strings.TrimSpace(localPath) == "" {
		return "", apierror.BadRequest(kind + " file is missing")
	}

	url, err := s.uploader.Upload(ctx, localPath)
	if err != nil || url == "" {
		slog.Warn("media upload failed", "kind", kind, "error", err)
		return "", apierror.BadRequest("failed to upload " + kind)
	}
	return url, nil
}

func missingFields(fields map[string]string) []string {
	missing := make([]string, 0)
	for _, name := range []string{"fullName", "email", "username", "password"} {
		if strings.TrimSpace(fields[name]) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}
