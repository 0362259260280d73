// Package testsupport provides in-memory collaborators for tests: a
// store with the same semantics as the SQL repositories and a fake media
// uploader. Not imported by production code.
package testsupport

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"vidtube/internal/model"
	"vidtube/pkg/apierror"
)

type MemStore struct {
	mu      sync.Mutex
	users   map[string]model.User
	subs    []model.Subscription
	videos  map[string]model.Video
	history map[string][]string
}

func NewMemStore() *MemStore {
	return &MemStore{
		users:   map[string]model.User{},
		videos:  map[string]model.Video{},
		history: map[string][]string{},
	}
}

func (s *MemStore) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// UserByID returns the raw stored record, hash and refresh token
// included, for assertions that need them.
func (s *MemStore) UserByID(id string) (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	return u, ok
}

func (s *MemStore) Create(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

func (s *MemStore) FindByID(_ context.Context, id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, apierror.NotFound("user not found")
	}
	return u, nil
}

func (s *MemStore) FindByUsername(_ context.Context, username string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Username, strings.TrimSpace(username)) {
			return u, nil
		}
	}
	return model.User{}, apierror.NotFound("user not found")
}

func (s *MemStore) FindByEmailOrUsername(_ context.Context, identifier string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	trimmed := strings.TrimSpace(identifier)
	for _, u := range s.users {
		if strings.EqualFold(u.Email, trimmed) || strings.EqualFold(u.Username, trimmed) {
			return u, nil
		}
	}
	return model.User{}, apierror.NotFound("user does not exist")
}

func (s *MemStore) ExistsByUsernameOrEmail(_ context.Context, username string, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Username, strings.TrimSpace(username)) ||
			strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemStore) UpdateRefreshToken(_ context.Context, userID string, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return apierror.NotFound("user not found")
	}
	u.RefreshToken = refreshToken
	s.users[userID] = u
	return nil
}

func (s *MemStore) RotateRefreshToken(_ context.Context, userID string, current string, next string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok || u.RefreshToken != current {
		return false, nil
	}
	u.RefreshToken = next
	s.users[userID] = u
	return true, nil
}

func (s *MemStore) ClearRefreshToken(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil
	}
	u.RefreshToken = ""
	s.users[userID] = u
	return nil
}

func (s *MemStore) UpdatePassword(_ context.Context, userID string, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return apierror.NotFound("user not found")
	}
	u.PasswordHash = passwordHash
	s.users[userID] = u
	return nil
}

func (s *MemStore) UpdateAccountDetails(_ context.Context, userID string, fullName string, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return apierror.NotFound("user not found")
	}
	u.FullName = fullName
	u.Email = strings.ToLower(email)
	s.users[userID] = u
	return nil
}

func (s *MemStore) UpdateAvatar(_ context.Context, userID string, avatarURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return apierror.NotFound("user not found")
	}
	u.Avatar = avatarURL
	s.users[userID] = u
	return nil
}

func (s *MemStore) UpdateCoverImage(_ context.Context, userID string, coverURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return apierror.NotFound("user not found")
	}
	u.CoverImage = coverURL
	s.users[userID] = u
	return nil
}

func (s *MemStore) AddSubscription(subscriberID string, channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, model.Subscription{SubscriberID: subscriberID, ChannelID: channelID})
}

func (s *MemStore) CountSubscribers(_ context.Context, channelID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, sub := range s.subs {
		if sub.ChannelID == channelID {
			count++
		}
	}
	return count, nil
}

func (s *MemStore) CountSubscriptions(_ context.Context, subscriberID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, sub := range s.subs {
		if sub.SubscriberID == subscriberID {
			count++
		}
	}
	return count, nil
}

func (s *MemStore) IsSubscribed(_ context.Context, subscriberID string, channelID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.SubscriberID == subscriberID && sub.ChannelID == channelID {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemStore) AddVideo(v model.Video) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.videos[v.ID] = v
}

func (s *MemStore) AddWatchEntry(userID string, videoID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[userID] = append(s.history[userID], videoID)
}

func (s *MemStore) WatchHistory(_ context.Context, userID string) ([]model.WatchVideo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := make([]model.WatchVideo, 0, len(s.history[userID]))
	for _, videoID := range s.history[userID] {
		video, ok := s.videos[videoID]
		if !ok {
			continue
		}
		owner := s.users[video.OwnerID]
		history = append(history, model.WatchVideo{
			Video: video,
			Owner: model.VideoOwner{
				FullName: owner.FullName,
				Username: owner.Username,
				Avatar:   owner.Avatar,
			},
		})
	}
	return history, nil
}

// FakeUploader maps any local path to a stable hosted URL, or fails with
// Err when set.
type FakeUploader struct {
	mu      sync.Mutex
	BaseURL string
	Err     error
	Uploads []string
}

func (f *FakeUploader) Upload(_ context.Context, localPath string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return "", f.Err
	}
	f.Uploads = append(f.Uploads, localPath)

	base := f.BaseURL
	if base == "" {
		base = "https://media.test"
	}
	return base + "/" + filepath.Base(localPath), nil
}
