//go:build integration

package integration

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidtube/internal/model"
)

func registeredID(t *testing.T, body envelope) string {
	t.Helper()

	var data struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &data))
	require.NotEmpty(t, data.ID)
	return data.ID
}

func TestChannelProfileEndpoint(t *testing.T) {
	env := newTestServer(t)

	channelID := registeredID(t, registerUser(t, env, "channel"))
	fanID := registeredID(t, registerUser(t, env, "fan"))
	registerUser(t, env, "bystander")

	env.store.AddSubscription(fanID, channelID)

	fetch := func(username string, sess *session) envelope {
		req, err := http.NewRequest(http.MethodGet, env.server.URL+"/api/v1/users/c/"+username, nil)
		require.NoError(t, err)
		if sess != nil {
			req.Header.Set("Authorization", "Bearer "+sess.accessToken)
		}
		resp := doRequest(t, req)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		return decodeEnvelope(t, resp)
	}

	type channelData struct {
		Username          string `json:"username"`
		SubscriberCount   int64  `json:"subscriberCount"`
		SubscribedToCount int64  `json:"subscribedToCount"`
		IsSubscribed      bool   `json:"isSubscribed"`
	}

	t.Run("anonymous viewer", func(t *testing.T) {
		body := fetch("channel", nil)

		var data channelData
		require.NoError(t, json.Unmarshal(body.Data, &data))
		assert.Equal(t, "channel", data.Username)
		assert.Equal(t, int64(1), data.SubscriberCount)
		assert.False(t, data.IsSubscribed)
	})

	t.Run("subscribed viewer", func(t *testing.T) {
		sess, _ := login(t, env, "fan@x.com", "p@ss1234")
		body := fetch("channel", &sess)

		var data channelData
		require.NoError(t, json.Unmarshal(body.Data, &data))
		assert.True(t, data.IsSubscribed)
	})

	t.Run("unsubscribed viewer", func(t *testing.T) {
		sess, _ := login(t, env, "bystander@x.com", "p@ss1234")
		body := fetch("channel", &sess)

		var data channelData
		require.NoError(t, json.Unmarshal(body.Data, &data))
		assert.False(t, data.IsSubscribed)
	})

	t.Run("unknown channel", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, env.server.URL+"/api/v1/users/c/ghost", nil)
		require.NoError(t, err)
		resp := doRequest(t, req)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		body := decodeEnvelope(t, resp)
		assert.False(t, body.Success)
	})
}

func TestWatchHistoryEndpoint(t *testing.T) {
	env := newTestServer(t)

	viewerID := registeredID(t, registerUser(t, env, "viewer"))
	creatorID := registeredID(t, registerUser(t, env, "creator"))

	first := model.Video{ID: uuid.NewString(), OwnerID: creatorID, Title: "first"}
	second := model.Video{ID: uuid.NewString(), OwnerID: creatorID, Title: "second"}
	env.store.AddVideo(first)
	env.store.AddVideo(second)
	env.store.AddWatchEntry(viewerID, first.ID)
	env.store.AddWatchEntry(viewerID, second.ID)
	env.store.AddWatchEntry(viewerID, first.ID)

	sess, _ := login(t, env, "viewer@x.com", "p@ss1234")
	resp := doRequest(t, authedRequest(t, http.MethodGet, env.server.URL+"/api/v1/users/history", nil, sess.accessToken))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeEnvelope(t, resp)

	var history []struct {
		Title string `json:"title"`
		Owner struct {
			Username string `json:"username"`
			FullName string `json:"fullName"`
		} `json:"owner"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &history))
	require.Len(t, history, 3)

	assert.Equal(t, "first", history[0].Title)
	assert.Equal(t, "second", history[1].Title)
	assert.Equal(t, "first", history[2].Title)
	for _, entry := range history {
		assert.Equal(t, "creator", entry.Owner.Username)
	}
}

func TestUpdateAccountEndpoint(t *testing.T) {
	env := newTestServer(t)
	registerUser(t, env, "neo")
	sess, _ := login(t, env, "neo@x.com", "p@ss1234")

	payload, err := json.Marshal(map[string]string{"fullName": "Thomas Anderson", "email": "anderson@x.com"})
	require.NoError(t, err)

	resp := doRequest(t, authedRequest(t, http.MethodPatch, env.server.URL+"/api/v1/users/update-account", payload, sess.accessToken))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeEnvelope(t, resp)

	var data struct {
		FullName string `json:"fullName"`
		Email    string `json:"email"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &data))
	assert.Equal(t, "Thomas Anderson", data.FullName)
	assert.Equal(t, "anderson@x.com", data.Email)

	t.Run("invalid email rejected", func(t *testing.T) {
		bad, err := json.Marshal(map[string]string{"fullName": "Neo", "email": "not-an-email"})
		require.NoError(t, err)

		resp := doRequest(t, authedRequest(t, http.MethodPatch, env.server.URL+"/api/v1/users/update-account", bad, sess.accessToken))
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestUpdateAvatarEndpoint(t *testing.T) {
	env := newTestServer(t)
	registerUser(t, env, "neo")
	sess, _ := login(t, env, "neo@x.com", "p@ss1234")

	form, contentType := registerForm(t, nil, map[string]string{"avatar": "fresh.png"})

	req, err := http.NewRequest(http.MethodPatch, env.server.URL+"/api/v1/users/avatar", form)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+sess.accessToken)
	req.Header.Set("Content-Type", contentType)

	resp := doRequest(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeEnvelope(t, resp)

	var data struct {
		Avatar string `json:"avatar"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &data))
	assert.Contains(t, data.Avatar, "https://media.test/")

	t.Run("missing file", func(t *testing.T) {
		empty, contentType := registerForm(t, map[string]string{"unused": "1"}, nil)

		req, err := http.NewRequest(http.MethodPatch, env.server.URL+"/api/v1/users/avatar", empty)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+sess.accessToken)
		req.Header.Set("Content-Type", contentType)

		resp := doRequest(t, req)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})
}
