// Package identity holds the user roster and the locally active user.
package identity

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/giftem/giftem/internal/bus"
	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

// ErrUnknownUser is returned by operations that need an existing user record.
var ErrUnknownUser = errors.New("unknown user")

// namespace seeds deterministic ids so sample users keep the same id across runs.
var namespace = uuid.MustParse("6f1c7a52-4d0e-4b8e-9a57-6a3c1f0d2b11")

// User is an immutable identity record. Mutations replace it wholesale.
type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Bio         string `json:"bio,omitempty"`
	Followers   int    `json:"followers"`
	Following   int    `json:"following"`
	Posts       int    `json:"posts"`
	Verified    bool   `json:"verified"`
}

// UserID returns the stable id derived from a username.
func UserID(username string) string {
	return uuid.NewSHA1(namespace, []byte(strings.ToLower(username))).String()
}

// FollowEvent is the payload of user.followed.
type FollowEvent struct {
	FollowerID string `json:"follower_id"`
	TargetID   string `json:"target_id"`
}

// Store is the in-memory roster.
type Store struct {
	mu      sync.RWMutex
	users   []User
	current string
	bus     *bus.Bus
	logger  *zap.Logger
}

// NewStore creates a roster from users with currentID as the active user.
// An empty currentID leaves no user signed in.
func NewStore(users []User, currentID string, b *bus.Bus, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		users:   append([]User(nil), users...),
		current: currentID,
		bus:     b,
		logger:  logger,
	}
}

// CurrentUserID returns the active user id, or false when nobody is signed in.
func (s *Store) CurrentUserID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.current != ""
}

// CurrentUser returns the active user's record.
func (s *Store) CurrentUser() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == "" {
		return User{}, false
	}
	return s.lookup(s.current)
}

// SetCurrentUser switches the active user. Unknown ids are ignored.
func (s *Store) SetCurrentUser(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lookup(id); !ok {
		return false
	}
	s.current = id
	return true
}

// User returns the record for id.
func (s *Store) User(id string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookup(id)
}

// UserByUsername resolves a username, case-insensitively.
func (s *Store) UserByUsername(username string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			return u, true
		}
	}
	return User{}, false
}

// Users returns a copy of the roster in seed order.
func (s *Store) Users() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]User(nil), s.users...)
}

// Search matches query against usernames and display names, ignoring case.
// A blank query returns the whole roster.
func (s *Store) Search(query string) []User {
	q := strings.ToLower(strings.TrimSpace(query))
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []User
	for _, u := range s.users {
		if q == "" ||
			strings.Contains(strings.ToLower(u.Username), q) ||
			strings.Contains(strings.ToLower(u.DisplayName), q) {
			out = append(out, u)
		}
	}
	return out
}

// Follow makes the current user follow targetID, replacing both records with
// incremented counters. Following yourself or an unknown user does nothing.
func (s *Store) Follow(targetID string) bool {
	s.mu.Lock()
	if s.current == "" || targetID == s.current {
		s.mu.Unlock()
		return false
	}
	ti, ci := s.index(targetID), s.index(s.current)
	if ti < 0 || ci < 0 {
		s.mu.Unlock()
		return false
	}
	target := s.users[ti]
	target.Followers++
	s.users[ti] = target

	me := s.users[ci]
	me.Following++
	s.users[ci] = me

	s.mu.Unlock()

	s.logger.Info("followed user", zap.String("user_id", me.ID), zap.String("target_id", target.ID))
	s.bus.Emit(bus.UserFollowed, FollowEvent{FollowerID: me.ID, TargetID: target.ID})
	return true
}

// AdjustPosts replaces a user's record with its post counter moved by delta,
// never below zero. Unknown users are ignored.
func (s *Store) AdjustPosts(userID string, delta int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(userID)
	if i < 0 {
		return false
	}
	u := s.users[i]
	u.Posts = max(u.Posts+delta, 0)
	s.users[i] = u
	return true
}

// ProfileLink is the deep link encoded in a user's profile QR code.
func ProfileLink(u User) string {
	return "giftem://user/" + u.Username
}

// ProfileQR renders a PNG QR code of the user's profile link.
func (s *Store) ProfileQR(id string, size int) ([]byte, error) {
	u, ok := s.User(id)
	if !ok {
		return nil, fmt.Errorf("profile qr %q: %w", id, ErrUnknownUser)
	}
	if size <= 0 {
		size = 256
	}
	png, err := qrcode.Encode(ProfileLink(u), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

func (s *Store) lookup(id string) (User, bool) {
	if i := s.index(id); i >= 0 {
		return s.users[i], true
	}
	return User{}, false
}

func (s *Store) index(id string) int {
	for i, u := range s.users {
		if u.ID == id {
			return i
		}
	}
	return -1
}
