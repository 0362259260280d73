package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"vidtube/internal/hash"
	"vidtube/internal/testsupport"
	"vidtube/internal/token"
	"vidtube/pkg/apierror"
)

type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, localPath string) (string, error) {
	args := m.Called(ctx, localPath)
	return args.String(0), args.Error(1)
}

func newTestIssuer() *token.Issuer {
	return token.NewIssuer("access-secret", "refresh-secret", time.Hour, 240*time.Hour)
}

func registerInput() RegisterInput {
	return RegisterInput{
		FullName:   "Neo",
		Email:      "neo@x.com",
		Username:   "Neo",
		Password:   "p@ss1234",
		AvatarPath: "/tmp/avatar.png",
		CoverPath:  "/tmp/cover.png",
	}
}

func newAuthFixture() (*AuthService, *testsupport.MemStore, *testsupport.FakeUploader) {
	store := testsupport.NewMemStore()
	uploader := &testsupport.FakeUploader{}
	svc := NewAuthService(store, uploader, newTestIssuer())
	return svc, store, uploader
}

func requireStatus(t *testing.T, err error, status int) *apierror.APIError {
	t.Helper()
	var apiErr *apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, status, apiErr.StatusCode)
	return apiErr
}

func TestAuthService_Register(t *testing.T) {
	t.Run("missing fields rejected, nothing created", func(t *testing.T) {
		svc, store, _ := newAuthFixture()

		in := registerInput()
		in.Email = "   "
		in.Password = ""

		_, err := svc.Register(context.Background(), in)
		apiErr := requireStatus(t, err, 400)
		assert.ElementsMatch(t, []string{"email", "password"}, apiErr.Errors)
		assert.Equal(t, 0, store.UserCount())
	})

	t.Run("missing avatar file rejected before any upload", func(t *testing.T) {
		store := testsupport.NewMemStore()
		uploader := new(MockUploader)
		svc := NewAuthService(store, uploader, newTestIssuer())

		in := registerInput()
		in.AvatarPath = ""

		_, err := svc.Register(context.Background(), in)
		requireStatus(t, err, 400)
		uploader.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
		assert.Equal(t, 0, store.UserCount())
	})

	t.Run("success lowercases identity and hides credentials", func(t *testing.T) {
		svc, store, _ := newAuthFixture()

		user, err := svc.Register(context.Background(), registerInput())
		require.NoError(t, err)
		assert.Equal(t, "neo", user.Username)
		assert.Equal(t, "neo@x.com", user.Email)
		assert.Equal(t, "https://media.test/avatar.png", user.Avatar)
		assert.Equal(t, "https://media.test/cover.png", user.CoverImage)

		stored, ok := store.UserByID(user.ID)
		require.True(t, ok)
		assert.NotEqual(t, "p@ss1234", stored.PasswordHash)
		assert.True(t, hash.Verify("p@ss1234", stored.PasswordHash))

		// The projection must never leak the hash or the refresh token.
		encoded, err := json.Marshal(user)
		require.NoError(t, err)
		assert.NotContains(t, string(encoded), "password")
		assert.NotContains(t, string(encoded), "refreshToken")
	})

	t.Run("duplicate username or email conflicts, store grows by one", func(t *testing.T) {
		svc, store, _ := newAuthFixture()

		_, err := svc.Register(context.Background(), registerInput())
		require.NoError(t, err)

		dup := registerInput()
		dup.Email = "other@x.com" // same username, different email
		_, err = svc.Register(context.Background(), dup)
		requireStatus(t, err, 409)

		dup = registerInput()
		dup.Username = "someoneelse" // same email, different username
		_, err = svc.Register(context.Background(), dup)
		requireStatus(t, err, 409)

		assert.Equal(t, 1, store.UserCount())
	})

	t.Run("avatar upload failure is terminal", func(t *testing.T) {
		store := testsupport.NewMemStore()
		uploader := new(MockUploader)
		uploader.On("Upload", mock.Anything, "/tmp/avatar.png").Return("", errors.New("host down"))
		svc := NewAuthService(store, uploader, newTestIssuer())

		_, err := svc.Register(context.Background(), registerInput())
		apiErr := requireStatus(t, err, 400)
		assert.Equal(t, "failed to upload avatar", apiErr.Message)
		assert.Equal(t, 0, store.UserCount())
	})

	t.Run("cover upload failure degrades to empty cover", func(t *testing.T) {
		store := testsupport.NewMemStore()
		uploader := new(MockUploader)
		uploader.On("Upload", mock.Anything, "/tmp/avatar.png").Return("https://media.test/a.png", nil)
		uploader.On("Upload", mock.Anything, "/tmp/cover.png").Return("", errors.New("host down"))
		svc := NewAuthService(store, uploader, newTestIssuer())

		user, err := svc.Register(context.Background(), registerInput())
		require.NoError(t, err)
		assert.Equal(t, "https://media.test/a.png", user.Avatar)
		assert.Empty(t, user.CoverImage)
	})
}

func TestAuthService_Login(t *testing.T) {
	svc, store, _ := newAuthFixture()
	registered, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	t.Run("by email", func(t *testing.T) {
		result, err := svc.Login(context.Background(), "neo@x.com", "p@ss1234")
		require.NoError(t, err)
		assert.NotEmpty(t, result.AccessToken)
		assert.NotEmpty(t, result.RefreshToken)
		assert.Equal(t, "neo", result.User.Username)

		stored, _ := store.UserByID(registered.ID)
		assert.Equal(t, result.RefreshToken, stored.RefreshToken)
	})

	t.Run("by username", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "NEO", "p@ss1234")
		require.NoError(t, err)
	})

	t.Run("unknown identifier", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "trinity", "p@ss1234")
		requireStatus(t, err, 404)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "neo@x.com", "wrong")
		requireStatus(t, err, 401)
	})

	t.Run("missing identifier", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "  ", "p@ss1234")
		requireStatus(t, err, 400)
	})
}

func TestAuthService_RefreshRotation(t *testing.T) {
	svc, _, _ := newAuthFixture()
	_, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	result, err := svc.Login(context.Background(), "neo@x.com", "p@ss1234")
	require.NoError(t, err)
	first := result.RefreshToken

	pair, err := svc.Refresh(context.Background(), first)
	require.NoError(t, err)
	require.NotEmpty(t, pair.RefreshToken)

	// The rotated-out token must be dead even though its signature and
	// expiry are still valid.
	_, err = svc.Refresh(context.Background(), first)
	apiErr := requireStatus(t, err, 401)
	assert.Equal(t, "refresh token reused or superseded", apiErr.Message)

	// The freshly rotated token keeps working.
	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
}

func TestAuthService_RefreshRejections(t *testing.T) {
	svc, _, _ := newAuthFixture()

	t.Run("empty token", func(t *testing.T) {
		_, err := svc.Refresh(context.Background(), "")
		requireStatus(t, err, 401)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.Refresh(context.Background(), "not.a.token")
		requireStatus(t, err, 401)
	})

	t.Run("expired token", func(t *testing.T) {
		expiredIssuer := token.NewIssuer("access-secret", "refresh-secret", -time.Minute, -time.Minute)
		expired, err := expiredIssuer.IssueRefresh("someone")
		require.NoError(t, err)

		_, err = svc.Refresh(context.Background(), expired)
		requireStatus(t, err, 401)
	})

	t.Run("valid signature but unknown subject", func(t *testing.T) {
		orphan, err := newTestIssuer().IssueRefresh("no-such-user")
		require.NoError(t, err)

		_, err = svc.Refresh(context.Background(), orphan)
		requireStatus(t, err, 401)
	})
}

func TestAuthService_LogoutRevokesRefresh(t *testing.T) {
	svc, store, _ := newAuthFixture()
	registered, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	result, err := svc.Login(context.Background(), "neo@x.com", "p@ss1234")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), registered.ID))

	stored, _ := store.UserByID(registered.ID)
	assert.Empty(t, stored.RefreshToken)

	_, err = svc.Refresh(context.Background(), result.RefreshToken)
	requireStatus(t, err, 401)
}

func TestAuthService_ChangePassword(t *testing.T) {
	svc, store, _ := newAuthFixture()
	registered, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	t.Run("wrong old password leaves hash untouched", func(t *testing.T) {
		before, _ := store.UserByID(registered.ID)

		err := svc.ChangePassword(context.Background(), registered.ID, "wrong", "newpass123")
		requireStatus(t, err, 401)

		after, _ := store.UserByID(registered.ID)
		assert.Equal(t, before.PasswordHash, after.PasswordHash)
	})

	t.Run("correct old password re-hashes", func(t *testing.T) {
		err := svc.ChangePassword(context.Background(), registered.ID, "p@ss1234", "newpass123")
		require.NoError(t, err)

		after, _ := store.UserByID(registered.ID)
		assert.True(t, hash.Verify("newpass123", after.PasswordHash))
		assert.False(t, hash.Verify("p@ss1234", after.PasswordHash))
	})
}

func TestAuthService_UpdateProfile(t *testing.T) {
	svc, _, _ := newAuthFixture()
	registered, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	t.Run("account details", func(t *testing.T) {
		user, err := svc.UpdateAccount(context.Background(), registered.ID, "Thomas Anderson", "Anderson@x.com")
		require.NoError(t, err)
		assert.Equal(t, "Thomas Anderson", user.FullName)
		assert.Equal(t, "anderson@x.com", user.Email)
	})

	t.Run("account details require both fields", func(t *testing.T) {
		_, err := svc.UpdateAccount(context.Background(), registered.ID, "", "neo@x.com")
		requireStatus(t, err, 400)
	})

	t.Run("avatar replacement", func(t *testing.T) {
		user, err := svc.UpdateAvatar(context.Background(), registered.ID, "/tmp/new-avatar.png")
		require.NoError(t, err)
		assert.Equal(t, "https://media.test/new-avatar.png", user.Avatar)
	})

	t.Run("avatar upload failure", func(t *testing.T) {
		store := testsupport.NewMemStore()
		uploader := new(MockUploader)
		uploader.On("Upload", mock.Anything, mock.Anything).Return("", errors.New("host down"))
		failing := NewAuthService(store, uploader, newTestIssuer())

		_, err := failing.UpdateAvatar(context.Background(), registered.ID, "/tmp/new-avatar.png")
		requireStatus(t, err, 400)
	})

	t.Run("missing file path", func(t *testing.T) {
		_, err := svc.UpdateCoverImage(context.Background(), registered.ID, "")
		requireStatus(t, err, 400)
	})
}
