package feed

import (
	"time"

	"github.com/giftem/giftem/internal/identity"
)

func samplePosts(now time.Time) ([]Post, []Comment) {
	posts := []Post{
		{ID: "post-necklace", AuthorID: identity.UserID("sarahm"), ProductID: "prod-necklace", Caption: "New batch of rose gold necklaces just dropped ✨", ImageURL: "necklace", Likes: 234, Comments: 2, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "post-earbuds", AuthorID: identity.UserID("mikechen"), ProductID: "prod-earbuds", Caption: "Two weeks with these earbuds: the best gift I bought this year", ImageURL: "earbuds", Likes: 512, Comments: 1, CreatedAt: now.Add(-6 * time.Hour)},
		{ID: "post-vase", AuthorID: identity.UserID("emmaw"), ProductID: "prod-vase", Caption: "Less is more. Sunday styling with the bud vase.", ImageURL: "vase", Likes: 98, CreatedAt: now.Add(-26 * time.Hour)},
	}
	comments := []Comment{
		{ID: "comment-1", PostID: "post-necklace", AuthorID: identity.UserID("emmaw"), Body: "Gorgeous! Do you ship internationally?", CreatedAt: now.Add(-90 * time.Minute)},
		{ID: "comment-2", PostID: "post-necklace", AuthorID: identity.UserID("alexj"), Body: "Ordered one for my sister 🎁", CreatedAt: now.Add(-80 * time.Minute)},
		{ID: "comment-3", PostID: "post-earbuds", AuthorID: identity.UserID("davidk"), Body: "How's the battery life?", CreatedAt: now.Add(-5 * time.Hour)},
	}
	return posts, comments
}
