// Package notify keeps the in-app notification list and turns bus activity
// into notifications for the local user.
package notify

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/giftem/giftem/internal/bus"
	"github.com/giftem/giftem/internal/identity"
	"github.com/giftem/giftem/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const notificationsKey = "notifications"

// Kind classifies a notification.
type Kind string

const (
	KindFollow  Kind = "follow"
	KindLike    Kind = "like"
	KindComment Kind = "comment"
	KindMessage Kind = "message"
)

// Notification is a single in-app alert.
type Notification struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	ActorID   string    `json:"actor_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	Read      bool      `json:"read"`
}

// Store holds notifications newest first.
type Store struct {
	mu     sync.RWMutex
	items  []Notification
	mirror store.Mirror
	bus    *bus.Bus
	logger *zap.Logger
	now    func() time.Time
}

// New restores notifications from mirror, seeding a sample of each kind the
// first time.
func New(mirror store.Mirror, b *bus.Bus, logger *zap.Logger) *Store {
	if mirror == nil {
		mirror = store.NopMirror{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{mirror: mirror, bus: b, logger: logger, now: time.Now}
	found, err := mirror.Get(notificationsKey, &s.items)
	if err != nil {
		logger.Warn("failed to load notifications, reseeding", zap.Error(err))
	}
	if err != nil || !found {
		s.items = sampleNotifications(s.now())
		s.save()
	}
	return s
}

// Notifications returns every notification, newest first.
func (s *Store) Notifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Notification(nil), s.items...)
}

// Add records an unread notification at the top of the list.
func (s *Store) Add(kind Kind, actorID, text string) Notification {
	n := Notification{
		ID:        uuid.NewString(),
		Kind:      kind,
		ActorID:   actorID,
		Text:      strings.TrimSpace(text),
		CreatedAt: s.now(),
	}
	s.mu.Lock()
	s.items = append([]Notification{n}, s.items...)
	s.mu.Unlock()
	s.save()
	s.bus.Emit(bus.NotificationAdded, n)
	return n
}

// MarkRead marks one notification as read.
func (s *Store) MarkRead(id string) {
	s.mu.Lock()
	i := slices.IndexFunc(s.items, func(n Notification) bool { return n.ID == id })
	if i < 0 || s.items[i].Read {
		s.mu.Unlock()
		return
	}
	s.items[i].Read = true
	s.mu.Unlock()
	s.save()
}

// MarkAllRead marks every notification as read.
func (s *Store) MarkAllRead() {
	s.mu.Lock()
	for i := range s.items {
		s.items[i].Read = true
	}
	s.mu.Unlock()
	s.save()
}

// UnreadCount is the number of unread notifications.
func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, it := range s.items {
		if !it.Read {
			n++
		}
	}
	return n
}

func (s *Store) save() {
	if err := s.mirror.Put(notificationsKey, s.Notifications()); err != nil {
		s.logger.Error("failed to mirror notifications", zap.Error(err))
	}
}

func sampleNotifications(now time.Time) []Notification {
	return []Notification{
		{ID: "note-like", Kind: KindLike, ActorID: identity.UserID("sarahm"), Text: "Sarah Miller liked your post", CreatedAt: now.Add(-10 * time.Minute)},
		{ID: "note-follow", Kind: KindFollow, ActorID: identity.UserID("mikechen"), Text: "Mike Chen started following you", CreatedAt: now.Add(-time.Hour)},
		{ID: "note-comment", Kind: KindComment, ActorID: identity.UserID("emmaw"), Text: "Emma Wilson commented: Where did you find this?", CreatedAt: now.Add(-3 * time.Hour), Read: true},
		{ID: "note-message", Kind: KindMessage, ActorID: identity.UserID("davidk"), Text: "David Kim: Thanks for the recommendation!", CreatedAt: now.Add(-26 * time.Hour), Read: true},
	}
}
