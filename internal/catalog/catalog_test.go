package catalog

import (
	"testing"

	"github.com/giftem/giftem/internal/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	s := NewStore(SampleProducts())
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"name match", "necklace", []string{"prod-necklace"}},
		{"case insensitive", "VINYL", []string{"prod-vinyl"}},
		{"description match", "wireless", []string{"prod-earbuds"}},
		{"blank returns all", "  ", nil},
		{"no match", "submarine", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Search(tt.query)
			if tt.want == nil {
				assert.Len(t, got, len(SampleProducts()))
				return
			}
			ids := []string{}
			for _, p := range got {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestByCategory(t *testing.T) {
	s := NewStore(SampleProducts())
	assert.Len(t, s.ByCategory("home"), 3)
	assert.Len(t, s.ByCategory("electronics"), 2)
	assert.Len(t, s.ByCategory(CategoryAll), 8)
	assert.Len(t, s.ByCategory(""), 8)
	assert.Empty(t, s.ByCategory("toys"))
}

func TestCategories(t *testing.T) {
	s := NewStore(SampleProducts())
	assert.Equal(t, []string{"electronics", "food", "home", "jewelry", "music"}, s.Categories())
}

func TestProductLookup(t *testing.T) {
	s := NewStore(SampleProducts())
	p, ok := s.Product("prod-watch")
	require.True(t, ok)
	assert.False(t, p.InStock)

	_, ok = s.Product("missing")
	assert.False(t, ok)
}

func TestBySeller(t *testing.T) {
	s := NewStore(SampleProducts())
	got := s.BySeller(identity.UserID("davidk"))
	require.Len(t, got, 2)
	assert.Equal(t, "prod-coffee", got[0].ID)
}
