package messaging

import (
	"slices"
	"time"

	"github.com/giftem/giftem/internal/identity"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type scriptLine struct {
	fromMe bool
	text   string
	ago    time.Duration
}

type sampleThread struct {
	with   string // username
	unread int    // trailing incoming messages left unread
	lines  []scriptLine
}

var sampleThreads = []sampleThread{
	{
		with:   "sarahm",
		unread: 2,
		lines: []scriptLine{
			{true, "Hi! Is the rose gold necklace still available?", 3 * time.Hour},
			{false, "Yes it is! Would you like it gift wrapped?", 2*time.Hour + 50*time.Minute},
			{true, "That would be perfect, it's for my sister's birthday.", 2*time.Hour + 45*time.Minute},
			{false, "Lovely! I'll add a handwritten card too.", 20 * time.Minute},
			{false, "It ships tomorrow morning.", 15 * time.Minute},
		},
	},
	{
		with:   "mikechen",
		unread: 0,
		lines: []scriptLine{
			{false, "Thanks for the follow! Did you see the new earbuds review?", 26 * time.Hour},
			{true, "Just watched it, ordering a pair now.", 25 * time.Hour},
		},
	},
	{
		with:   "oliviab",
		unread: 1,
		lines: []scriptLine{
			{true, "Loved today's quote about consistency.", 5 * time.Hour},
			{false, "Thank you! Keep showing up every day.", 4 * time.Hour},
		},
	},
}

// LoadSamples seeds the scripted threads the app starts with. Threads whose
// participant is not in the directory are skipped, and nothing is seeded
// without a current user.
func (m *Manager) LoadSamples() {
	me, ok := m.dir.CurrentUserID()
	if !ok {
		m.logger.Warn("no current user, skipping sample conversations")
		return
	}
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()
	seeded := 0
	for _, th := range sampleThreads {
		other := identity.UserID(th.with)
		if _, ok := m.dir.User(other); !ok || other == me || m.indexOfPair(me, other) >= 0 {
			continue
		}
		c := Conversation{ID: uuid.NewString(), Participants: [2]string{me, other}}
		msgs := make([]Message, 0, len(th.lines))
		for j, line := range th.lines {
			sender := other
			if line.fromMe {
				sender = me
			}
			msgs = append(msgs, Message{
				ID:             uuid.NewString(),
				ConversationID: c.ID,
				SenderID:       sender,
				Text:           line.text,
				CreatedAt:      now.Add(-line.ago),
				IsRead:         j < len(th.lines)-th.unread,
				Type:           TypeText,
			})
		}
		last := msgs[len(msgs)-1]
		c.LastMessage = &last
		c.LastMessageAt = last.CreatedAt
		c.UnreadCount = th.unread
		m.conversations = append(m.conversations, c)
		m.messages[c.ID] = msgs
		seeded++
	}
	slices.SortStableFunc(m.conversations, func(a, b Conversation) int {
		return b.LastMessageAt.Compare(a.LastMessageAt)
	})
	m.logger.Info("sample conversations loaded", zap.Int("count", seeded))
}
