package quotes

import (
	"strings"
	"testing"

	"github.com/giftem/giftem/internal/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var me = identity.UserID("alexj")

func TestPost(t *testing.T) {
	b := New(nil, nil)
	q, ok := b.Post(me, "  Gratitude turns what we have into enough. ")
	require.True(t, ok)
	assert.Equal(t, "Gratitude turns what we have into enough.", q.Body)
	assert.Equal(t, q.ID, b.Quotes()[0].ID)

	_, ok = b.Post(me, "  ")
	assert.False(t, ok)
	_, ok = b.Post(me, strings.Repeat("a", MaxLength+1))
	assert.False(t, ok)
	_, ok = b.Post(me, strings.Repeat("é", MaxLength))
	assert.True(t, ok, "length is counted in runes")
}

func TestToggleLike(t *testing.T) {
	b := New(nil, nil)
	q, ok := b.ToggleLike("quote-rest")
	require.True(t, ok)
	assert.Equal(t, 507, q.Likes)
	q, _ = b.ToggleLike("quote-rest")
	assert.Equal(t, 506, q.Likes)
	_, ok = b.ToggleLike("missing")
	assert.False(t, ok)
}

func TestDelete(t *testing.T) {
	b := New(nil, nil)
	b.Delete("quote-gift")
	b.Delete("missing")
	_, ok := b.Quote("quote-gift")
	assert.False(t, ok)
	assert.Len(t, b.Quotes(), 2)
}

func TestHTML(t *testing.T) {
	b := New(nil, nil)
	html, ok := b.HTML("quote-consistency")
	require.True(t, ok)
	assert.Contains(t, html, "<strong>Consistency</strong>")
	assert.True(t, strings.HasPrefix(html, "<p>"))

	html, ok = b.HTML("quote-gift")
	require.True(t, ok)
	assert.Contains(t, html, "<em>I was listening</em>")

	_, ok = b.HTML("missing")
	assert.False(t, ok)
}
