package messaging

import (
	"time"

	"github.com/giftem/giftem/internal/identity"
)

// MessageType tags the payload of a message. Only TypeText is produced today.
type MessageType string

const (
	TypeText    MessageType = "text"
	TypeImage   MessageType = "image"
	TypeProduct MessageType = "product"
)

// Message is a single immutable entry in a conversation.
type Message struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversation_id"`
	SenderID       string      `json:"sender_id"`
	Text           string      `json:"text"`
	CreatedAt      time.Time   `json:"created_at"`
	IsRead         bool        `json:"is_read"`
	Type           MessageType `json:"type"`
}

// Conversation is a two-party thread. LastMessage caches the newest entry of
// the thread and UnreadCount counts incoming messages not yet read.
type Conversation struct {
	ID            string    `json:"id"`
	Participants  [2]string `json:"participants"`
	LastMessage   *Message  `json:"last_message,omitempty"`
	LastMessageAt time.Time `json:"last_message_at"`
	UnreadCount   int       `json:"unread_count"`
}

// Involves reports whether the participant pair is {a, b} in either order.
func (c Conversation) Involves(a, b string) bool {
	p := c.Participants
	return (p[0] == a && p[1] == b) || (p[0] == b && p[1] == a)
}

// Other returns the participant that is not userID.
func (c Conversation) Other(userID string) string {
	if c.Participants[0] == userID {
		return c.Participants[1]
	}
	return c.Participants[0]
}

// Directory is the read-only identity provider the manager consults.
type Directory interface {
	CurrentUserID() (string, bool)
	User(id string) (identity.User, bool)
}

// Event is the payload of the conversation.* and message.* bus events.
type Event struct {
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id,omitempty"`
	SenderID       string `json:"sender_id,omitempty"`
	Text           string `json:"text,omitempty"`
}
