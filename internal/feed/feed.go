// Package feed holds the social feed posts and their comment threads.
package feed

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/giftem/giftem/internal/bus"
	"github.com/giftem/giftem/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	postsKey    = "feed.posts"
	commentsKey = "feed.comments"
)

// Post is a feed entry, optionally showcasing a product.
type Post struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	ProductID string    `json:"product_id,omitempty"`
	Caption   string    `json:"caption"`
	ImageURL  string    `json:"image_url,omitempty"`
	Likes     int       `json:"likes"`
	Liked     bool      `json:"liked"`
	Comments  int       `json:"comments"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment is a reply under a post.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Activity is the payload of feed.* bus events.
type Activity struct {
	PostID   string `json:"post_id"`
	AuthorID string `json:"author_id"`
	ActorID  string `json:"actor_id"`
	Text     string `json:"text,omitempty"`
}

// PostCounter keeps a user's post counter in step with the feed.
type PostCounter interface {
	AdjustPosts(userID string, delta int) bool
}

// Store keeps posts newest first and comments oldest first, mirroring both
// after every change.
type Store struct {
	mu       sync.RWMutex
	posts    []Post
	comments []Comment
	viewer   func() (string, bool)
	counter  PostCounter
	mirror   store.Mirror
	bus      *bus.Bus
	logger   *zap.Logger
	now      func() time.Time
}

// New loads the feed from mirror, seeding the sample posts the first time.
// viewer resolves the current user, who is the actor of likes.
func New(mirror store.Mirror, viewer func() (string, bool), b *bus.Bus, logger *zap.Logger) *Store {
	if mirror == nil {
		mirror = store.NopMirror{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if viewer == nil {
		viewer = func() (string, bool) { return "", false }
	}
	s := &Store{viewer: viewer, mirror: mirror, bus: b, logger: logger, now: time.Now}

	foundPosts, err := mirror.Get(postsKey, &s.posts)
	if err != nil {
		logger.Warn("failed to load feed posts, reseeding", zap.Error(err))
		foundPosts = false
	}
	foundComments, err := mirror.Get(commentsKey, &s.comments)
	if err != nil {
		logger.Warn("failed to load feed comments", zap.Error(err))
	}
	if !foundPosts {
		s.posts, s.comments = samplePosts(s.now())
		s.save()
	} else if !foundComments {
		s.comments = nil
	}
	return s
}

// CountPostsIn makes AddPost and DeletePost move the author's counter in c.
func (s *Store) CountPostsIn(c PostCounter) {
	s.mu.Lock()
	s.counter = c
	s.mu.Unlock()
}

// Posts returns every post, newest first.
func (s *Store) Posts() []Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Post(nil), s.posts...)
}

// Post looks up a post by id.
func (s *Store) Post(id string) (Post, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.postIndex(id); i >= 0 {
		return s.posts[i], true
	}
	return Post{}, false
}

// PostsBy returns a user's posts, newest first.
func (s *Store) PostsBy(userID string) []Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Post
	for _, p := range s.posts {
		if p.AuthorID == userID {
			out = append(out, p)
		}
	}
	return out
}

// AddPost publishes a post at the top of the feed. Blank captions are rejected.
func (s *Store) AddPost(authorID, caption, productID string) (Post, bool) {
	caption = strings.TrimSpace(caption)
	if authorID == "" || caption == "" {
		return Post{}, false
	}
	p := Post{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		ProductID: productID,
		Caption:   caption,
		CreatedAt: s.now(),
	}
	s.mu.Lock()
	s.posts = append([]Post{p}, s.posts...)
	counter := s.counter
	s.mu.Unlock()
	s.save()
	if counter != nil {
		counter.AdjustPosts(authorID, 1)
	}
	return p, true
}

// ToggleLike flips the viewer's like on a post and adjusts its counter.
func (s *Store) ToggleLike(postID string) (Post, bool) {
	s.mu.Lock()
	i := s.postIndex(postID)
	if i < 0 {
		s.mu.Unlock()
		return Post{}, false
	}
	p := s.posts[i]
	p.Liked = !p.Liked
	if p.Liked {
		p.Likes++
	} else if p.Likes > 0 {
		p.Likes--
	}
	s.posts[i] = p
	s.mu.Unlock()
	s.save()

	if p.Liked {
		if actor, ok := s.viewer(); ok {
			s.bus.Emit(bus.PostLiked, Activity{PostID: p.ID, AuthorID: p.AuthorID, ActorID: actor})
		}
	}
	return p, true
}

// DeletePost removes a post together with its comments.
func (s *Store) DeletePost(postID string) {
	s.mu.Lock()
	i := s.postIndex(postID)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	authorID := s.posts[i].AuthorID
	s.posts = slices.Delete(s.posts, i, i+1)
	s.comments = slices.DeleteFunc(s.comments, func(c Comment) bool { return c.PostID == postID })
	counter := s.counter
	s.mu.Unlock()
	s.save()
	if counter != nil {
		counter.AdjustPosts(authorID, -1)
	}
}

// Comments returns a post's comments, oldest first.
func (s *Store) Comments(postID string) []Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Comment
	for _, c := range s.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	return out
}

// AddComment appends a comment and bumps the post's comment counter. Blank
// bodies and unknown posts are rejected.
func (s *Store) AddComment(postID, authorID, body string) (Comment, bool) {
	body = strings.TrimSpace(body)
	if body == "" || authorID == "" {
		return Comment{}, false
	}
	s.mu.Lock()
	i := s.postIndex(postID)
	if i < 0 {
		s.mu.Unlock()
		return Comment{}, false
	}
	c := Comment{ID: uuid.NewString(), PostID: postID, AuthorID: authorID, Body: body, CreatedAt: s.now()}
	s.comments = append(s.comments, c)
	p := s.posts[i]
	p.Comments++
	s.posts[i] = p
	s.mu.Unlock()
	s.save()

	s.bus.Emit(bus.PostCommented, Activity{PostID: postID, AuthorID: p.AuthorID, ActorID: authorID, Text: body})
	return c, true
}

// DeleteComment removes a comment and decrements its post's counter.
func (s *Store) DeleteComment(commentID string) {
	s.mu.Lock()
	ci := slices.IndexFunc(s.comments, func(c Comment) bool { return c.ID == commentID })
	if ci < 0 {
		s.mu.Unlock()
		return
	}
	postID := s.comments[ci].PostID
	s.comments = slices.Delete(s.comments, ci, ci+1)
	if i := s.postIndex(postID); i >= 0 && s.posts[i].Comments > 0 {
		s.posts[i].Comments--
	}
	s.mu.Unlock()
	s.save()
}

func (s *Store) postIndex(id string) int {
	return slices.IndexFunc(s.posts, func(p Post) bool { return p.ID == id })
}

func (s *Store) save() {
	s.mu.RLock()
	posts := append([]Post(nil), s.posts...)
	comments := append([]Comment(nil), s.comments...)
	s.mu.RUnlock()
	if err := s.mirror.Put(postsKey, posts); err != nil {
		s.logger.Error("failed to mirror feed posts", zap.Error(err))
	}
	if err := s.mirror.Put(commentsKey, comments); err != nil {
		s.logger.Error("failed to mirror feed comments", zap.Error(err))
	}
}
