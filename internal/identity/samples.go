package identity

import (
	"github.com/giftem/giftem/internal/bus"
	"go.uber.org/zap"
)

func sample(username, name, bio string, followers, following, posts int, verified bool) User {
	return User{
		ID:          UserID(username),
		Username:    username,
		DisplayName: name,
		AvatarURL:   "avatar_" + username,
		Bio:         bio,
		Followers:   followers,
		Following:   following,
		Posts:       posts,
		Verified:    verified,
	}
}

// SampleUsers is the roster the app starts with. The first entry is the local user.
func SampleUsers() []User {
	return []User{
		sample("alexj", "Alex Johnson", "Gift hunter and weekend runner", 1284, 312, 48, false),
		sample("sarahm", "Sarah Miller", "Handmade jewelry & candles", 8921, 201, 156, true),
		sample("mikechen", "Mike Chen", "Tech gadgets reviewer", 15320, 410, 289, true),
		sample("emmaw", "Emma Wilson", "Minimalist home decor", 3412, 598, 97, false),
		sample("davidk", "David Kim", "Coffee, books, and vinyl", 742, 233, 31, false),
		sample("oliviab", "Olivia Brown", "Fitness coach | quotes daily", 22104, 150, 412, true),
	}
}

// NewSampleStore returns a roster seeded with SampleUsers, signed in as the first.
func NewSampleStore(b *bus.Bus, logger *zap.Logger) *Store {
	users := SampleUsers()
	return NewStore(users, users[0].ID, b, logger)
}
