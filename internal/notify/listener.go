package notify

import (
	"context"
	"fmt"

	"github.com/giftem/giftem/internal/bus"
	"github.com/giftem/giftem/internal/feed"
	"github.com/giftem/giftem/internal/identity"
	"github.com/giftem/giftem/internal/messaging"
	"go.uber.org/zap"
)

// Directory resolves the people named in notifications.
type Directory interface {
	CurrentUserID() (string, bool)
	User(id string) (identity.User, bool)
}

// Listener converts incoming messages, new followers and feed activity on
// the local user's posts into notifications.
type Listener struct {
	store  *Store
	bus    *bus.Bus
	dir    Directory
	logger *zap.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

// NewListener creates a listener; call Start to begin consuming events.
func NewListener(s *Store, b *bus.Bus, dir Directory, logger *zap.Logger) *Listener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Listener{store: s, bus: b, dir: dir, logger: logger}
}

// Start subscribes to the bus and handles events until Stop or ctx ends.
func (l *Listener) Start(ctx context.Context) {
	ctx, l.cancel = context.WithCancel(ctx)
	l.done = make(chan struct{})
	msgs, unsubMsgs := l.bus.Subscribe("message.", 64)
	acts, unsubFeed := l.bus.Subscribe("feed.", 64)
	follows, unsubUsers := l.bus.Subscribe("user.", 16)

	go func() {
		defer close(l.done)
		defer unsubMsgs()
		defer unsubFeed()
		defer unsubUsers()
		for {
			select {
			case evt := <-msgs:
				l.Handle(evt)
			case evt := <-acts:
				l.Handle(evt)
			case evt := <-follows:
				l.Handle(evt)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends the listener and waits for it to exit.
func (l *Listener) Stop() {
	if l.cancel == nil {
		return
	}
	l.cancel()
	<-l.done
}

// Handle turns one bus event into a notification when it concerns the local user.
func (l *Listener) Handle(evt bus.Event) {
	me, ok := l.dir.CurrentUserID()
	if !ok {
		return
	}
	switch evt.Kind {
	case bus.MessageReceived:
		p, ok := evt.Payload.(messaging.Event)
		if !ok || p.SenderID == me {
			return
		}
		l.store.Add(KindMessage, p.SenderID, fmt.Sprintf("%s: %s", l.name(p.SenderID), p.Text))
	case bus.UserFollowed:
		p, ok := evt.Payload.(identity.FollowEvent)
		if !ok || p.TargetID != me || p.FollowerID == me {
			return
		}
		l.store.Add(KindFollow, p.FollowerID, l.name(p.FollowerID)+" started following you")
	case bus.PostLiked:
		p, ok := evt.Payload.(feed.Activity)
		if !ok || p.AuthorID != me || p.ActorID == me {
			return
		}
		l.store.Add(KindLike, p.ActorID, l.name(p.ActorID)+" liked your post")
	case bus.PostCommented:
		p, ok := evt.Payload.(feed.Activity)
		if !ok || p.AuthorID != me || p.ActorID == me {
			return
		}
		l.store.Add(KindComment, p.ActorID, fmt.Sprintf("%s commented: %s", l.name(p.ActorID), p.Text))
	default:
		return
	}
	l.logger.Debug("notification created", zap.String("kind", evt.Kind))
}

func (l *Listener) name(userID string) string {
	if u, ok := l.dir.User(userID); ok {
		return u.DisplayName
	}
	return "Someone"
}
