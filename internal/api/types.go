package api

import (
	"time"

	"github.com/giftem/giftem/internal/cart"
	"github.com/giftem/giftem/internal/catalog"
	"github.com/giftem/giftem/internal/feed"
	"github.com/giftem/giftem/internal/identity"
	"github.com/giftem/giftem/internal/messaging"
	"github.com/giftem/giftem/internal/notify"
	"github.com/giftem/giftem/internal/quotes"
	"github.com/giftem/giftem/internal/workout"
)

// Service names.
const (
	MessagingService = "giftem.v1.Messaging"
	DirectoryService = "giftem.v1.Directory"
)

// Empty is the request or response of calls that carry nothing.
type Empty struct{}

// ConversationView is a conversation with the other participant resolved.
type ConversationView struct {
	messaging.Conversation
	With identity.User `json:"with"`
}

type ListConversationsResponse struct {
	Conversations []ConversationView `json:"conversations"`
	UnreadTotal   int                `json:"unread_total"`
}

type ConversationRequest struct {
	ConversationID string `json:"conversation_id"`
}

type GetMessagesResponse struct {
	Messages []messaging.Message `json:"messages"`
}

type OpenConversationRequest struct {
	Username string `json:"username"`
}

type OpenConversationResponse struct {
	Conversation ConversationView `json:"conversation"`
}

type SendMessageRequest struct {
	ConversationID string `json:"conversation_id"`
	Text           string `json:"text"`
}

// SendMessageResponse reports Accepted=false when the text was blank or the
// conversation no longer exists.
type SendMessageResponse struct {
	Accepted bool               `json:"accepted"`
	Message  *messaging.Message `json:"message,omitempty"`
}

type UnreadCountResponse struct {
	Count int `json:"count"`
}

type WatchEventsRequest struct {
	// Prefix filters event kinds, e.g. "message.". Empty watches everything.
	Prefix string `json:"prefix"`
}

// EventEnvelope is one streamed bus event.
type EventEnvelope struct {
	EventID    string    `json:"event_id"`
	Kind       string    `json:"kind"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload,omitempty"`
}

type StatusResponse struct {
	Profile             string        `json:"profile"`
	State               string        `json:"state"`
	UptimeMs            int64         `json:"uptime_ms"`
	CurrentUser         identity.User `json:"current_user"`
	Conversations       int           `json:"conversations"`
	UnreadMessages      int           `json:"unread_messages"`
	UnreadNotifications int           `json:"unread_notifications"`
	CartItems           int           `json:"cart_items"`
	CartTotalCents      int64         `json:"cart_total_cents"`
}

type SearchRequest struct {
	Query string `json:"query"`
}

type UsersResponse struct {
	Users []identity.User `json:"users"`
}

type FollowRequest struct {
	Username string `json:"username"`
}

type FollowResponse struct {
	Followed bool          `json:"followed"`
	User     identity.User `json:"user"`
}

type ProductSearchRequest struct {
	Query    string `json:"query"`
	Category string `json:"category"`
}

type ProductsResponse struct {
	Products []catalog.Product `json:"products"`
}

type NotificationsRequest struct {
	MarkAllRead bool `json:"mark_all_read"`
}

type NotificationsResponse struct {
	Notifications []notify.Notification `json:"notifications"`
	Unread        int                   `json:"unread"`
}

const SocialService = "giftem.v1.Social"

type PostsResponse struct {
	Posts []feed.Post `json:"posts"`
}

type PostRequest struct {
	PostID string `json:"post_id"`
}

type PostResponse struct {
	Post feed.Post `json:"post"`
}

type CommentRequest struct {
	PostID string `json:"post_id"`
	Body   string `json:"body"`
}

type CommentResponse struct {
	Comment feed.Comment `json:"comment"`
}

// QuoteView is a quote with its body rendered to HTML.
type QuoteView struct {
	quotes.Quote
	HTML string `json:"html"`
}

type QuotesResponse struct {
	Quotes []QuoteView `json:"quotes"`
}

type PostQuoteRequest struct {
	Body string `json:"body"`
}

type QuoteResponse struct {
	Quote QuoteView `json:"quote"`
}

type WorkoutsResponse struct {
	Workouts []workout.Workout `json:"workouts"`
	Stats    workout.Stats     `json:"stats"`
}

type AddToCartRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type CartResponse struct {
	Items      []cart.Item `json:"items"`
	Count      int         `json:"count"`
	TotalCents int64       `json:"total_cents"`
}

type UserRequest struct {
	Username string `json:"username"`
}

type ProfileQRRequest struct {
	Username string `json:"username"`
	Size     int    `json:"size"`
}

// ProfileQRResponse carries the encoded profile link and its QR code as PNG.
type ProfileQRResponse struct {
	Link string `json:"link"`
	PNG  []byte `json:"png"`
}

type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

type NotificationRequest struct {
	NotificationID string `json:"notification_id"`
}

type AddPostRequest struct {
	Caption   string `json:"caption"`
	ProductID string `json:"product_id,omitempty"`
}

type CommentIDRequest struct {
	CommentID string `json:"comment_id"`
}

type CommentsResponse struct {
	Comments []feed.Comment `json:"comments"`
}

type QuoteRequest struct {
	QuoteID string `json:"quote_id"`
}

type AddWorkoutRequest struct {
	Kind string `json:"kind"`
	// Duration uses time.ParseDuration syntax, e.g. "45m".
	Duration string `json:"duration"`
	Calories int    `json:"calories"`
	Notes    string `json:"notes,omitempty"`
}

type WorkoutRequest struct {
	WorkoutID string `json:"workout_id"`
}

type WorkoutResponse struct {
	Workout workout.Workout `json:"workout"`
	Stats   workout.Stats   `json:"stats"`
}

type CartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}
