package messaging

import (
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/giftem/giftem/internal/bus"
	"github.com/giftem/giftem/internal/schedule"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultReplyDelay is how long the simulated participant takes to answer.
const DefaultReplyDelay = 2 * time.Second

// DefaultReplies are the canned auto-reply phrases.
var DefaultReplies = []string{
	"Thanks for your message!",
	"Sounds good to me.",
	"Let me check and get back to you.",
	"Yes, it's still available!",
	"Great choice, you'll love it.",
	"I can ship it tomorrow.",
	"Could you send me more details?",
}

// Options configures a Manager. Zero values select the defaults.
type Options struct {
	Clock      schedule.Clock
	ReplyDelay time.Duration
	Replies    []string
	// Pick returns an index in [0, n). Defaults to math/rand.
	Pick   func(n int) int
	Bus    *bus.Bus
	Logger *zap.Logger
}

// Manager owns every conversation and message list. All state sits behind a
// single mutex so an auto-reply firing on the clock's goroutine applies its
// append-and-reorder atomically with respect to user calls.
type Manager struct {
	dir     Directory
	clock   schedule.Clock
	delay   time.Duration
	replies []string
	pick    func(int) int
	bus     *bus.Bus
	logger  *zap.Logger

	mu            sync.Mutex
	conversations []Conversation // most recent first
	messages      map[string][]Message
	pending       map[string]map[int]schedule.Task
	nextTask      int
}

// NewManager creates an empty manager reading identities from dir.
func NewManager(dir Directory, opts Options) *Manager {
	m := &Manager{
		dir:      dir,
		clock:    opts.Clock,
		delay:    opts.ReplyDelay,
		replies:  opts.Replies,
		pick:     opts.Pick,
		bus:      opts.Bus,
		logger:   opts.Logger,
		messages: make(map[string][]Message),
		pending:  make(map[string]map[int]schedule.Task),
	}
	if m.clock == nil {
		m.clock = schedule.Real()
	}
	if m.delay <= 0 {
		m.delay = DefaultReplyDelay
	}
	if len(m.replies) == 0 {
		m.replies = DefaultReplies
	}
	if m.pick == nil {
		m.pick = rand.IntN
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	return m
}

// Conversations returns a snapshot of every conversation, most recent first.
func (m *Manager) Conversations() []Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Conversation(nil), m.conversations...)
}

// Conversation returns the conversation with the given id.
func (m *Manager) Conversation(id string) (Conversation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.indexOf(id); i >= 0 {
		return m.conversations[i], true
	}
	return Conversation{}, false
}

// FindConversation returns the conversation between the current user and withUserID.
func (m *Manager) FindConversation(withUserID string) (Conversation, bool) {
	me, ok := m.dir.CurrentUserID()
	if !ok {
		return Conversation{}, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.indexOfPair(me, withUserID); i >= 0 {
		return m.conversations[i], true
	}
	return Conversation{}, false
}

// GetOrCreateConversation returns the conversation between the current user
// and withUserID, creating an empty one at the front of the list if none
// exists. The lookup and insert happen under one lock, so concurrent callers
// for the same pair share a single conversation.
//
// Preconditions, enforced by panicking: a user is signed in, and withUserID
// names another user known to the directory. A thread with yourself would
// credit the auto-reply to the sender.
func (m *Manager) GetOrCreateConversation(withUserID string) Conversation {
	me, ok := m.dir.CurrentUserID()
	if !ok {
		panic("messaging: GetOrCreateConversation called without a current user")
	}
	if withUserID == me {
		panic("messaging: GetOrCreateConversation called with the current user")
	}
	if _, ok := m.dir.User(withUserID); !ok {
		panic("messaging: GetOrCreateConversation called with unknown user " + withUserID)
	}

	m.mu.Lock()
	if i := m.indexOfPair(me, withUserID); i >= 0 {
		c := m.conversations[i]
		m.mu.Unlock()
		return c
	}
	c := Conversation{
		ID:            uuid.NewString(),
		Participants:  [2]string{me, withUserID},
		LastMessageAt: m.clock.Now(),
	}
	m.conversations = append([]Conversation{c}, m.conversations...)
	m.messages[c.ID] = []Message{}
	m.mu.Unlock()

	m.logger.Info("conversation created", zap.String("conversation_id", c.ID), zap.String("with", withUserID))
	m.bus.Emit(bus.ConversationCreated, Event{ConversationID: c.ID})
	return c
}

// Messages returns the messages of a conversation in send order. Unknown ids
// yield an empty slice.
func (m *Manager) Messages(conversationID string) []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message{}, m.messages[conversationID]...)
}

// TotalUnreadCount sums the unread counters of every conversation.
func (m *Manager) TotalUnreadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, c := range m.conversations {
		total += c.UnreadCount
	}
	return total
}

// SendMessage appends text from the current user, moves the conversation to
// the front and schedules the other participant's auto-reply. Blank text, a
// missing current user or an unknown conversation make it a no-op; ok
// reports whether a message was sent.
func (m *Manager) SendMessage(conversationID, text string) (msg Message, ok bool) {
	me, signedIn := m.dir.CurrentUserID()
	text = strings.TrimSpace(text)
	if !signedIn || text == "" {
		return Message{}, false
	}

	m.mu.Lock()
	i := m.indexOf(conversationID)
	if i < 0 {
		m.mu.Unlock()
		return Message{}, false
	}
	msg = Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       me,
		Text:           text,
		CreatedAt:      m.clock.Now(),
		Type:           TypeText,
	}
	m.messages[conversationID] = append(m.messages[conversationID], msg)

	c := m.conversations[i]
	c.LastMessage = &msg
	c.LastMessageAt = msg.CreatedAt
	c.UnreadCount = 0
	m.conversations[i] = c
	m.moveToFront(i)
	m.scheduleReply(conversationID, me)
	m.mu.Unlock()

	m.logger.Debug("message sent", zap.String("conversation_id", conversationID), zap.String("message_id", msg.ID))
	m.bus.Emit(bus.MessageSent, Event{ConversationID: conversationID, MessageID: msg.ID, SenderID: me, Text: text})
	return msg, true
}

// MarkConversationAsRead clears the unread counter and marks every stored
// message as read. Unknown ids are ignored.
func (m *Manager) MarkConversationAsRead(conversationID string) {
	m.mu.Lock()
	i := m.indexOf(conversationID)
	if i < 0 {
		m.mu.Unlock()
		return
	}
	msgs := m.messages[conversationID]
	read := make([]Message, len(msgs))
	for j, msg := range msgs {
		msg.IsRead = true
		read[j] = msg
	}
	m.messages[conversationID] = read

	c := m.conversations[i]
	c.UnreadCount = 0
	if n := len(read); n > 0 {
		last := read[n-1]
		c.LastMessage = &last
	}
	m.conversations[i] = c
	m.mu.Unlock()

	m.bus.Emit(bus.ConversationRead, Event{ConversationID: conversationID})
}

// DeleteConversation drops a conversation with its messages and cancels any
// auto-reply still pending for it. Unknown ids are ignored.
func (m *Manager) DeleteConversation(conversationID string) {
	m.mu.Lock()
	i := m.indexOf(conversationID)
	if i < 0 {
		m.mu.Unlock()
		return
	}
	m.conversations = append(m.conversations[:i], m.conversations[i+1:]...)
	delete(m.messages, conversationID)
	cancelled := 0
	for _, task := range m.pending[conversationID] {
		if task.Cancel() {
			cancelled++
		}
	}
	delete(m.pending, conversationID)
	m.mu.Unlock()

	m.logger.Info("conversation deleted", zap.String("conversation_id", conversationID), zap.Int("cancelled_replies", cancelled))
	m.bus.Emit(bus.ConversationDeleted, Event{ConversationID: conversationID})
}

// Close cancels every pending auto-reply.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, tasks := range m.pending {
		for _, task := range tasks {
			task.Cancel()
		}
		delete(m.pending, id)
	}
}

// scheduleReply arms the auto-reply for a message sent by senderID.
// Caller holds m.mu.
func (m *Manager) scheduleReply(conversationID, senderID string) {
	m.nextTask++
	id := m.nextTask
	task := m.clock.AfterFunc(m.delay, func() {
		m.deliverReply(conversationID, senderID, id)
	})
	if m.pending[conversationID] == nil {
		m.pending[conversationID] = make(map[int]schedule.Task)
	}
	m.pending[conversationID][id] = task
}

// deliverReply runs on the clock. The conversation is looked up again since
// it may have been deleted while the reply was pending.
func (m *Manager) deliverReply(conversationID, senderID string, taskID int) {
	m.mu.Lock()
	if tasks := m.pending[conversationID]; tasks != nil {
		delete(tasks, taskID)
		if len(tasks) == 0 {
			delete(m.pending, conversationID)
		}
	}
	i := m.indexOf(conversationID)
	if i < 0 {
		m.mu.Unlock()
		m.logger.Debug("auto-reply dropped, conversation gone", zap.String("conversation_id", conversationID))
		return
	}
	c := m.conversations[i]
	msg := Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       c.Other(senderID),
		Text:           m.replies[m.pick(len(m.replies))],
		CreatedAt:      m.clock.Now(),
		Type:           TypeText,
	}
	m.messages[conversationID] = append(m.messages[conversationID], msg)
	c.LastMessage = &msg
	c.LastMessageAt = msg.CreatedAt
	c.UnreadCount++
	m.conversations[i] = c
	m.moveToFront(i)
	m.mu.Unlock()

	m.bus.Emit(bus.MessageReceived, Event{ConversationID: conversationID, MessageID: msg.ID, SenderID: msg.SenderID, Text: msg.Text})
}

// moveToFront shifts conversation i to index 0. Caller holds m.mu.
func (m *Manager) moveToFront(i int) {
	if i <= 0 {
		return
	}
	c := m.conversations[i]
	copy(m.conversations[1:i+1], m.conversations[:i])
	m.conversations[0] = c
}

func (m *Manager) indexOf(id string) int {
	for i, c := range m.conversations {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) indexOfPair(a, b string) int {
	for i, c := range m.conversations {
		if c.Involves(a, b) {
			return i
		}
	}
	return -1
}
