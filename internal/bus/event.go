package bus

import "time"

// Event kinds published by the stores. Subscribers filter on a prefix, so
// "message." receives both MessageSent and MessageReceived.
const (
	ConversationCreated = "conversation.created"
	ConversationRead    = "conversation.read"
	ConversationDeleted = "conversation.deleted"
	MessageSent         = "message.sent"
	MessageReceived     = "message.received"
	PostLiked           = "feed.liked"
	PostCommented       = "feed.commented"
	UserFollowed        = "user.followed"
	NotificationAdded   = "notification.added"
	StatusChanged       = "daemon.status_changed"
)

// Event is a domain event carried on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
