// Package quotes implements the quotes micro-blog.
package quotes

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/giftem/giftem/internal/identity"
	"github.com/giftem/giftem/internal/store"
	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"go.uber.org/zap"
)

const quotesKey = "quotes"

// MaxLength bounds a quote body, in runes.
const MaxLength = 280

// Quote is a short Markdown post.
type Quote struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	Likes     int       `json:"likes"`
	Liked     bool      `json:"liked"`
	CreatedAt time.Time `json:"created_at"`
}

// Board holds quotes newest first.
type Board struct {
	mu     sync.RWMutex
	quotes []Quote
	md     goldmark.Markdown
	mirror store.Mirror
	logger *zap.Logger
	now    func() time.Time
}

// New restores the board from mirror, seeding sample quotes the first time.
func New(mirror store.Mirror, logger *zap.Logger) *Board {
	if mirror == nil {
		mirror = store.NopMirror{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Board{md: goldmark.New(), mirror: mirror, logger: logger, now: time.Now}
	found, err := mirror.Get(quotesKey, &b.quotes)
	if err != nil {
		logger.Warn("failed to load quotes, reseeding", zap.Error(err))
	}
	if err != nil || !found {
		b.quotes = sampleQuotes(b.now())
		b.save()
	}
	return b
}

// Quotes returns every quote, newest first.
func (b *Board) Quotes() []Quote {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Quote(nil), b.quotes...)
}

// Quote looks up a quote by id.
func (b *Board) Quote(id string) (Quote, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if i := b.index(id); i >= 0 {
		return b.quotes[i], true
	}
	return Quote{}, false
}

// Post publishes a quote. Blank or over-long bodies are rejected.
func (b *Board) Post(authorID, body string) (Quote, bool) {
	body = strings.TrimSpace(body)
	if authorID == "" || body == "" || len([]rune(body)) > MaxLength {
		return Quote{}, false
	}
	q := Quote{ID: uuid.NewString(), AuthorID: authorID, Body: body, CreatedAt: b.now()}
	b.mu.Lock()
	b.quotes = append([]Quote{q}, b.quotes...)
	b.mu.Unlock()
	b.save()
	return q, true
}

// ToggleLike flips the local user's like.
func (b *Board) ToggleLike(id string) (Quote, bool) {
	b.mu.Lock()
	i := b.index(id)
	if i < 0 {
		b.mu.Unlock()
		return Quote{}, false
	}
	q := b.quotes[i]
	q.Liked = !q.Liked
	if q.Liked {
		q.Likes++
	} else if q.Likes > 0 {
		q.Likes--
	}
	b.quotes[i] = q
	b.mu.Unlock()
	b.save()
	return q, true
}

// Delete removes a quote.
func (b *Board) Delete(id string) {
	b.mu.Lock()
	i := b.index(id)
	if i < 0 {
		b.mu.Unlock()
		return
	}
	b.quotes = slices.Delete(b.quotes, i, i+1)
	b.mu.Unlock()
	b.save()
}

// HTML renders a quote's Markdown body.
func (b *Board) HTML(id string) (string, bool) {
	q, ok := b.Quote(id)
	if !ok {
		return "", false
	}
	html, err := b.Render(q.Body)
	if err != nil {
		b.logger.Error("failed to render quote", zap.String("quote_id", id), zap.Error(err))
		return "", false
	}
	return html, true
}

// Render converts Markdown to HTML.
func (b *Board) Render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := b.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

func (b *Board) index(id string) int {
	return slices.IndexFunc(b.quotes, func(q Quote) bool { return q.ID == id })
}

func (b *Board) save() {
	if err := b.mirror.Put(quotesKey, b.Quotes()); err != nil {
		b.logger.Error("failed to mirror quotes", zap.Error(err))
	}
}

func sampleQuotes(now time.Time) []Quote {
	olivia := identity.UserID("oliviab")
	return []Quote{
		{ID: "quote-consistency", AuthorID: olivia, Body: "**Consistency** beats intensity. Show up, even on the slow days.", Likes: 842, CreatedAt: now.Add(-5 * time.Hour)},
		{ID: "quote-gift", AuthorID: identity.UserID("sarahm"), Body: "The best gifts are the ones that say *I was listening*.", Likes: 311, CreatedAt: now.Add(-30 * time.Hour)},
		{ID: "quote-rest", AuthorID: olivia, Body: "Rest is part of the program.", Likes: 506, CreatedAt: now.Add(-54 * time.Hour)},
	}
}
