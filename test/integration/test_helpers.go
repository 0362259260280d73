//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vidtube/internal/config"
	"vidtube/internal/handler"
	"vidtube/internal/middleware"
	"vidtube/internal/router"
	"vidtube/internal/service"
	"vidtube/internal/testsupport"
	"vidtube/internal/token"
)

type testEnv struct {
	server   *httptest.Server
	store    *testsupport.MemStore
	uploader *testsupport.FakeUploader
	tempDir  string
}

func newTestServer(t *testing.T) *testEnv {
	t.Helper()

	store := testsupport.NewMemStore()
	uploader := &testsupport.FakeUploader{}
	tempDir := t.TempDir()

	issuer := token.NewIssuer("test-access-secret", "test-refresh-secret", 15*time.Minute, 24*time.Hour)
	authService := service.NewAuthService(store, uploader, issuer)
	profileService := service.NewProfileService(store, store, store)
	authMiddleware := middleware.NewAuthMiddleware(issuer)

	policy := handler.CookiePolicy{Secure: false, AccessTTL: 15 * time.Minute, RefreshTTL: 24 * time.Hour}
	authHandler := handler.NewAuthHandler(authService, policy, tempDir, 16*1024*1024)
	userHandler := handler.NewUserHandler(authService, profileService, tempDir, 16*1024*1024)

	cfg := &config.Config{
		ServerPort:       "8080",
		RequestTimeout:   30 * time.Second,
		CORSOrigins:      []string{"*"},
		RateLimitRPM:     10000,
		AuthRateLimitRPM: 10000,
		MaxUploadSize:    16 * 1024 * 1024,
	}

	server := httptest.NewServer(router.New(cfg, authMiddleware, router.Handlers{
		Auth: authHandler,
		User: userHandler,
	}))
	t.Cleanup(server.Close)

	return &testEnv{server: server, store: store, uploader: uploader, tempDir: tempDir}
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
	Errors     []string        `json:"errors"`
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()

	var body envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func registerForm(t *testing.T, fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	buf := &bytes.Buffer{}
	form := multipart.NewWriter(buf)
	for name, value := range fields {
		require.NoError(t, form.WriteField(name, value))
	}
	for field, filename := range files {
		part, err := form.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = io.Copy(part, strings.NewReader("fake image bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, form.Close())
	return buf, form.FormDataContentType()
}

func registerUser(t *testing.T, env *testEnv, username string) envelope {
	t.Helper()

	body, contentType := registerForm(t, map[string]string{
		"fullName": "User " + username,
		"email":    username + "@x.com",
		"username": username,
		"password": "p@ss1234",
	}, map[string]string{
		"avatar":     username + "-avatar.png",
		"coverImage": username + "-cover.png",
	})

	resp, err := http.Post(env.server.URL+"/api/v1/users/register", contentType, body)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeEnvelope(t, resp)
}

type session struct {
	accessToken  string
	refreshToken string
	cookies      []*http.Cookie
}

func login(t *testing.T, env *testEnv, identifier string, password string) (session, *http.Response) {
	t.Helper()

	payload, err := json.Marshal(map[string]string{"email": identifier, "password": password})
	require.NoError(t, err)

	resp, err := http.Post(env.server.URL+"/api/v1/users/login", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cookies := resp.Cookies()
	body := decodeEnvelope(t, resp)

	var data struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &data))
	require.NotEmpty(t, data.AccessToken)
	require.NotEmpty(t, data.RefreshToken)

	return session{accessToken: data.AccessToken, refreshToken: data.RefreshToken, cookies: cookies}, resp
}

func authedRequest(t *testing.T, method string, url string, body []byte, accessToken string) *http.Request {
	t.Helper()

	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func doRequest(t *testing.T, req *http.Request) *http.Response {
	t.Helper()

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func cookieNamed(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}
