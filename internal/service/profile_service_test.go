package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidtube/internal/model"
	"vidtube/internal/testsupport"
)

func seedUser(t *testing.T, store *testsupport.MemStore, username string) model.User {
	t.Helper()
	u := model.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@x.com",
		FullName:     "User " + username,
		Avatar:       "https://media.test/" + username + ".png",
		PasswordHash: "$2a$10$irrelevantirrelevantirrelevantirrelevantirrelevantirr",
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	require.NoError(t, store.Create(context.Background(), u))
	return u
}

func TestProfileService_GetChannelProfile(t *testing.T) {
	store := testsupport.NewMemStore()
	svc := NewProfileService(store, store, store)

	channel := seedUser(t, store, "channel")
	fanA := seedUser(t, store, "fana")
	fanB := seedUser(t, store, "fanb")
	bystander := seedUser(t, store, "bystander")

	store.AddSubscription(fanA.ID, channel.ID)
	store.AddSubscription(fanB.ID, channel.ID)
	store.AddSubscription(channel.ID, fanA.ID) // the channel follows someone back

	t.Run("blank username", func(t *testing.T) {
		_, err := svc.GetChannelProfile(context.Background(), "", "  ")
		requireStatus(t, err, 400)
	})

	t.Run("unknown channel", func(t *testing.T) {
		_, err := svc.GetChannelProfile(context.Background(), "", "ghost")
		requireStatus(t, err, 404)
	})

	t.Run("anonymous viewer gets counts, never subscribed", func(t *testing.T) {
		profile, err := svc.GetChannelProfile(context.Background(), "", "channel")
		require.NoError(t, err)
		assert.Equal(t, int64(2), profile.SubscriberCount)
		assert.Equal(t, int64(1), profile.SubscribedToCount)
		assert.False(t, profile.IsSubscribed)
		assert.Equal(t, channel.Username, profile.Username)
		assert.Equal(t, channel.Avatar, profile.Avatar)
	})

	t.Run("subscribed viewer", func(t *testing.T) {
		profile, err := svc.GetChannelProfile(context.Background(), fanA.ID, "channel")
		require.NoError(t, err)
		assert.True(t, profile.IsSubscribed)
	})

	t.Run("unsubscribed viewer", func(t *testing.T) {
		profile, err := svc.GetChannelProfile(context.Background(), bystander.ID, "channel")
		require.NoError(t, err)
		assert.False(t, profile.IsSubscribed)
	})

	t.Run("lookup is case-insensitive", func(t *testing.T) {
		profile, err := svc.GetChannelProfile(context.Background(), "", "CHANNEL")
		require.NoError(t, err)
		assert.Equal(t, channel.ID, profile.ID)
	})

	t.Run("fresh channel has zero counts", func(t *testing.T) {
		seedUser(t, store, "newcomer")
		profile, err := svc.GetChannelProfile(context.Background(), "", "newcomer")
		require.NoError(t, err)
		assert.Zero(t, profile.SubscriberCount)
		assert.Zero(t, profile.SubscribedToCount)
	})
}

func TestProfileService_GetWatchHistory(t *testing.T) {
	store := testsupport.NewMemStore()
	svc := NewProfileService(store, store, store)

	viewer := seedUser(t, store, "viewer")
	creator := seedUser(t, store, "creator")

	first := model.Video{ID: uuid.NewString(), OwnerID: creator.ID, Title: "first", Duration: 12.5}
	second := model.Video{ID: uuid.NewString(), OwnerID: creator.ID, Title: "second", Duration: 40}
	store.AddVideo(first)
	store.AddVideo(second)

	store.AddWatchEntry(viewer.ID, first.ID)
	store.AddWatchEntry(viewer.ID, second.ID)
	store.AddWatchEntry(viewer.ID, first.ID) // re-watch

	t.Run("preserves order and duplicates", func(t *testing.T) {
		history, err := svc.GetWatchHistory(context.Background(), viewer.ID)
		require.NoError(t, err)
		require.Len(t, history, 3)
		assert.Equal(t, "first", history[0].Title)
		assert.Equal(t, "second", history[1].Title)
		assert.Equal(t, "first", history[2].Title)
	})

	t.Run("entries carry the owner projection", func(t *testing.T) {
		history, err := svc.GetWatchHistory(context.Background(), viewer.ID)
		require.NoError(t, err)
		for _, entry := range history {
			assert.Equal(t, creator.Username, entry.Owner.Username)
			assert.Equal(t, creator.FullName, entry.Owner.FullName)
			assert.Equal(t, creator.Avatar, entry.Owner.Avatar)
		}
	})

	t.Run("empty history is an empty slice", func(t *testing.T) {
		history, err := svc.GetWatchHistory(context.Background(), creator.ID)
		require.NoError(t, err)
		require.NotNil(t, history)
		assert.Empty(t, history)
	})
}
