package service

import (
	"context"
	"strings"

	"vidtube/internal/model"
	"vidtube/pkg/apierror"
)

type ChannelUserStore interface {
	FindByUsername(ctx context.Context, username string) (model.User, error)
}

type SubscriptionStore interface {
	CountSubscribers(ctx context.Context, channelID string) (int64, error)
	CountSubscriptions(ctx context.Context, subscriberID string) (int64, error)
	IsSubscribed(ctx context.Context, subscriberID string, channelID string) (bool, error)
}

type VideoStore interface {
	WatchHistory(ctx context.Context, userID string) ([]model.WatchVideo, error)
}

// ProfileService computes the read-only social projections: channel
// aggregates and enriched watch history. It never mutates the store.
type ProfileService struct {
	users         ChannelUserStore
	subscriptions SubscriptionStore
	videos        VideoStore
}

func NewProfileService(users ChannelUserStore, subscriptions SubscriptionStore, videos VideoStore) *ProfileService {
	return &ProfileService{users: users, subscriptions: subscriptions, videos: videos}
}

// GetChannelProfile resolves the channel by username (case-insensitive)
// and derives subscriber/subscription counts plus whether the viewer is
// subscribed. viewerID may be empty for anonymous viewers.
func (s *ProfileService) GetChannelProfile(ctx context.Context, viewerID string, username string) (model.ChannelProfile, error) {
	if strings.TrimSpace(username) == "" {
		return model.ChannelProfile{}, apierror.BadRequest("username is missing")
	}

	channel, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return model.ChannelProfile{}, apierror.NotFound("channel does not exist")
	}

	subscribers, err := s.subscriptions.CountSubscribers(ctx, channel.ID)
	if err != nil {
		return model.ChannelProfile{}, err
	}

	subscribedTo, err := s.subscriptions.CountSubscriptions(ctx, channel.ID)
	if err != nil {
		return model.ChannelProfile{}, err
	}

	isSubscribed := false
	if viewerID != "" {
		isSubscribed, err = s.subscriptions.IsSubscribed(ctx, viewerID, channel.ID)
		if err != nil {
			return model.ChannelProfile{}, err
		}
	}

	return model.ChannelProfile{
		ID:                channel.ID,
		Username:          channel.Username,
		Email:             channel.Email,
		FullName:          channel.FullName,
		Avatar:            channel.Avatar,
		CoverImage:        channel.CoverImage,
		SubscriberCount:   subscribers,
		SubscribedToCount: subscribedTo,
		IsSubscribed:      isSubscribed,
	}, nil
}

// GetWatchHistory preserves the stored viewing order, repeats included.
func (s *ProfileService) GetWatchHistory(ctx context.Context, userID string) ([]model.WatchVideo, error) {
	return s.videos.WatchHistory(ctx, userID)
}
