package daemon

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/giftem/giftem/internal/api"
	"github.com/giftem/giftem/internal/bus"
	"github.com/giftem/giftem/internal/cart"
	"github.com/giftem/giftem/internal/catalog"
	"github.com/giftem/giftem/internal/client"
	"github.com/giftem/giftem/internal/config"
	"github.com/giftem/giftem/internal/feed"
	"github.com/giftem/giftem/internal/identity"
	"github.com/giftem/giftem/internal/messaging"
	"github.com/giftem/giftem/internal/notify"
	"github.com/giftem/giftem/internal/quotes"
	"github.com/giftem/giftem/internal/schedule"
	"github.com/giftem/giftem/internal/status"
	"github.com/giftem/giftem/internal/store"
	"github.com/giftem/giftem/internal/workout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

// shortTempDir keeps socket paths under the 104-char Unix socket limit on macOS.
func shortTempDir(t *testing.T, pattern string) string {
	t.Helper()
	dir, err := os.MkdirTemp("/tmp", pattern)
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return dir
}

type harness struct {
	clock   *schedule.Fake
	users   *identity.Store
	manager *messaging.Manager
	notes   *notify.Store
	machine *status.Machine
	client  *client.Client
}

// newHarness serves every service over a Unix socket with a fake clock
// driving the auto-replies.
func newHarness(t *testing.T) *harness {
	t.Helper()
	socketPath := filepath.Join(shortTempDir(t, "giftem-e2e-*"), "d.sock")

	b := bus.New()
	clock := schedule.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	users := identity.NewSampleStore(b, nil)
	products := catalog.NewStore(catalog.SampleProducts())
	mgr := messaging.NewManager(users, messaging.Options{
		Clock: clock,
		Pick:  func(int) int { return 0 },
		Bus:   b,
	})
	mgr.LoadSamples()
	notes := notify.New(nil, b, nil)
	listener := notify.NewListener(notes, b, users, nil)
	listener.Start(context.Background())
	t.Cleanup(listener.Stop)
	machine := status.NewMachine(b)
	crt := cart.New(nil, nil)
	posts := feed.New(nil, users.CurrentUserID, b, nil)
	posts.CountPostsIn(users)

	grpcSrv := grpc.NewServer(grpc.UnaryInterceptor(api.LoggingInterceptor(zap.NewNop())))
	api.NewMessagingServer(mgr, users, b, nil).Register(grpcSrv)
	api.NewDirectoryServer(api.DirectoryDeps{
		Profile:       "test",
		Machine:       machine,
		Users:         users,
		Catalog:       products,
		Notifications: notes,
		Chats:         mgr,
		Cart:          crt,
	}).Register(grpcSrv)
	api.NewSocialServer(api.SocialDeps{
		Users:    users,
		Catalog:  products,
		Feed:     posts,
		Quotes:   quotes.New(nil, nil),
		Workouts: workout.New(nil, nil),
		Cart:     crt,
	}).Register(grpcSrv)

	lis, err := net.Listen("unix", socketPath)
	require.NoError(t, err)
	go func() { _ = grpcSrv.Serve(lis) }()
	t.Cleanup(grpcSrv.Stop)

	c, err := client.New(socketPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return &harness{clock: clock, users: users, manager: mgr, notes: notes, machine: machine, client: c}
}

func TestConversationRoundTrip(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	list, err := h.client.ListConversations(ctx)
	require.NoError(t, err)
	require.Len(t, list.Conversations, 3)
	assert.Equal(t, 3, list.UnreadTotal)
	assert.Equal(t, "sarahm", list.Conversations[0].With.Username)

	opened, err := h.client.OpenConversation(ctx, "emmaw")
	require.NoError(t, err)
	conv := opened.Conversation
	assert.Equal(t, "emmaw", conv.With.Username)
	assert.Zero(t, conv.UnreadCount)

	list, err = h.client.ListConversations(ctx)
	require.NoError(t, err)
	require.Len(t, list.Conversations, 4)
	assert.Equal(t, conv.ID, list.Conversations[0].ID)

	// Opening again returns the same thread.
	again, err := h.client.OpenConversation(ctx, "EmmaW")
	require.NoError(t, err)
	assert.Equal(t, conv.ID, again.Conversation.ID)

	blank, err := h.client.SendMessage(ctx, conv.ID, "   ")
	require.NoError(t, err)
	assert.False(t, blank.Accepted)
	assert.Nil(t, blank.Message)

	sent, err := h.client.SendMessage(ctx, conv.ID, "  Do you have this in blue?  ")
	require.NoError(t, err)
	require.True(t, sent.Accepted)
	assert.Equal(t, "Do you have this in blue?", sent.Message.Text)
	assert.Equal(t, messaging.TypeText, sent.Message.Type)

	h.clock.Advance(messaging.DefaultReplyDelay)

	msgs, err := h.client.GetMessages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs.Messages, 2)
	assert.Equal(t, identity.UserID("emmaw"), msgs.Messages[1].SenderID)
	assert.Equal(t, messaging.DefaultReplies[0], msgs.Messages[1].Text)

	unread, err := h.client.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, unread)

	require.NoError(t, h.client.MarkRead(ctx, conv.ID))
	unread, err = h.client.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, unread)

	require.NoError(t, h.client.DeleteConversation(ctx, conv.ID))
	list, err = h.client.ListConversations(ctx)
	require.NoError(t, err)
	assert.Len(t, list.Conversations, 3)

	msgs, err = h.client.GetMessages(ctx, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs.Messages)
}

func TestReplyAfterDeleteIsDropped(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	opened, err := h.client.OpenConversation(ctx, "davidk")
	require.NoError(t, err)
	_, err = h.client.SendMessage(ctx, opened.Conversation.ID, "hello")
	require.NoError(t, err)
	require.NoError(t, h.client.DeleteConversation(ctx, opened.Conversation.ID))

	h.clock.Advance(time.Minute)

	list, err := h.client.ListConversations(ctx)
	require.NoError(t, err)
	assert.Len(t, list.Conversations, 3)
	assert.Zero(t, h.clock.Pending())
}

func TestOpenConversationErrors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tests := []struct {
		username string
		want     codes.Code
	}{
		{"nobody", codes.NotFound},
		{"alexj", codes.InvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			_, err := h.client.OpenConversation(ctx, tt.username)
			require.Error(t, err)
			assert.Equal(t, tt.want, grpcstatus.Code(err))
		})
	}
}

func TestDirectory(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.machine.Transition(status.Seeding))
	require.NoError(t, h.machine.Transition(status.Ready))

	st, err := h.client.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "test", st.Profile)
	assert.Equal(t, string(status.Ready), st.State)
	assert.Equal(t, "alexj", st.CurrentUser.Username)
	assert.Equal(t, 3, st.Conversations)
	assert.Equal(t, 3, st.UnreadMessages)

	users, err := h.client.ListUsers(ctx, "mi")
	require.NoError(t, err)
	assert.Len(t, users.Users, 2)

	before, _ := h.users.UserByUsername("sarahm")
	followed, err := h.client.Follow(ctx, "sarahm")
	require.NoError(t, err)
	assert.True(t, followed.Followed)
	assert.Equal(t, before.Followers+1, followed.User.Followers)

	_, err = h.client.Follow(ctx, "ghost")
	assert.Equal(t, codes.NotFound, grpcstatus.Code(err))

	all, err := h.client.SearchProducts(ctx, "", "")
	require.NoError(t, err)
	assert.NotEmpty(t, all.Products)

	cats := catalog.NewStore(catalog.SampleProducts()).Categories()
	require.NotEmpty(t, cats)
	byCat, err := h.client.SearchProducts(ctx, "", cats[0])
	require.NoError(t, err)
	require.NotEmpty(t, byCat.Products)
	for _, p := range byCat.Products {
		assert.Equal(t, cats[0], p.Category)
	}
}

func TestReplyRaisesNotification(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	seeded, err := h.client.Notifications(ctx, false)
	require.NoError(t, err)

	opened, err := h.client.OpenConversation(ctx, "mikechen")
	require.NoError(t, err)
	_, err = h.client.SendMessage(ctx, opened.Conversation.ID, "Still in stock?")
	require.NoError(t, err)
	h.clock.Advance(messaging.DefaultReplyDelay)

	require.Eventually(t, func() bool { return h.notes.UnreadCount() == seeded.Unread+1 }, 2*time.Second, 10*time.Millisecond)

	resp, err := h.client.Notifications(ctx, true)
	require.NoError(t, err)
	require.Len(t, resp.Notifications, len(seeded.Notifications)+1)
	assert.Equal(t, notify.KindMessage, resp.Notifications[0].Kind)
	assert.Equal(t, identity.UserID("mikechen"), resp.Notifications[0].ActorID)
	assert.Zero(t, resp.Unread)

	resp, err = h.client.Notifications(ctx, false)
	require.NoError(t, err)
	for _, n := range resp.Notifications {
		assert.True(t, n.Read, n.ID)
	}
}

func TestWatchEvents(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opened, err := h.client.OpenConversation(ctx, "oliviab")
	require.NoError(t, err)

	events := make(chan api.EventEnvelope, 16)
	go func() {
		_ = h.client.WatchEvents(ctx, "message.", func(env api.EventEnvelope) error {
			events <- env
			return nil
		})
	}()

	// The subscription is registered asynchronously, so keep sending until
	// the first event arrives.
	var got api.EventEnvelope
	require.Eventually(t, func() bool {
		if _, err := h.client.SendMessage(ctx, opened.Conversation.ID, "ping"); err != nil {
			return false
		}
		select {
		case got = <-events:
			return true
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, bus.MessageSent, got.Kind)
	assert.NotEmpty(t, got.EventID)
	payload, ok := got.Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, opened.Conversation.ID, payload["conversation_id"])
}

func TestSocialRoundTrip(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	posts, err := h.client.ListPosts(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, posts.Posts)
	first := posts.Posts[0]

	liked, err := h.client.LikePost(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, !first.Liked, liked.Post.Liked)

	comment, err := h.client.AddComment(ctx, first.ID, "Gorgeous!")
	require.NoError(t, err)
	assert.Equal(t, "Gorgeous!", comment.Comment.Body)

	_, err = h.client.AddComment(ctx, first.ID, " ")
	assert.Equal(t, codes.InvalidArgument, grpcstatus.Code(err))

	q, err := h.client.PostQuote(ctx, "Gifts are **memories**")
	require.NoError(t, err)
	assert.Contains(t, q.Quote.HTML, "<strong>memories</strong>")

	ws, err := h.client.Workouts(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(ws.Workouts), ws.Stats.Count)

	products, err := h.client.SearchProducts(ctx, "", "")
	require.NoError(t, err)
	var inStock catalog.Product
	for _, p := range products.Products {
		if p.InStock {
			inStock = p
			break
		}
	}
	require.NotEmpty(t, inStock.ID)

	c, err := h.client.AddToCart(ctx, inStock.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Count)
	assert.Equal(t, 2*inStock.PriceCents, c.TotalCents)

	_, err = h.client.AddToCart(ctx, "prod-missing", 1)
	assert.Equal(t, codes.NotFound, grpcstatus.Code(err))
}

// TestFxModule starts the real fx graph twice against the same profile and
// checks that the cart survives the restart through the blob mirror.
func TestFxModule(t *testing.T) {
	t.Setenv("GIFTEM_HOME", shortTempDir(t, "giftem-fx-*"))
	cfg := &config.Config{AutoReplyDelay: config.Duration{Duration: time.Hour}}
	ctx := context.Background()

	run := func(fn func(c *client.Client)) {
		app := fx.New(Module(Params{ProfileName: "fxtest", Config: cfg}), fx.NopLogger)
		require.NoError(t, app.Start(ctx))
		defer func() { require.NoError(t, app.Stop(ctx)) }()

		c, err := client.New(filepath.Join(os.Getenv("GIFTEM_HOME"), "profiles", "fxtest", "giftemd.sock"))
		require.NoError(t, err)
		defer func() { _ = c.Close() }()
		fn(c)
	}

	products := catalog.SampleProducts()
	var productID string
	for _, p := range products {
		if p.InStock {
			productID = p.ID
			break
		}
	}

	run(func(c *client.Client) {
		st, err := c.Status(ctx)
		require.NoError(t, err)
		assert.Equal(t, string(status.Ready), st.State)
		assert.Equal(t, "fxtest", st.Profile)
		assert.Equal(t, 3, st.Conversations)

		_, err = c.AddToCart(ctx, productID, 3)
		require.NoError(t, err)
	})

	run(func(c *client.Client) {
		cartResp, err := c.GetCart(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, cartResp.Count)
	})
}

func TestLockHeldByRunningDaemon(t *testing.T) {
	t.Setenv("GIFTEM_HOME", shortTempDir(t, "giftem-lk-*"))
	cfg := &config.Config{Ephemeral: true}
	ctx := context.Background()

	first := fx.New(Module(Params{ProfileName: "dup", Config: cfg}), fx.NopLogger)
	require.NoError(t, first.Start(ctx))
	defer func() { _ = first.Stop(ctx) }()

	second := fx.New(Module(Params{ProfileName: "dup", Config: cfg}), fx.NopLogger)
	require.Error(t, second.Err())

	// The running daemon keeps its socket.
	c, err := client.New(filepath.Join(os.Getenv("GIFTEM_HOME"), "profiles", "dup", "giftemd.sock"))
	require.NoError(t, err)
	defer func() { _ = c.Close() }()
	_, err = c.Status(ctx)
	require.NoError(t, err)
}

func TestMirrorIsDatabaseUnlessEphemeral(t *testing.T) {
	t.Setenv("GIFTEM_HOME", shortTempDir(t, "giftem-mr-*"))
	var m store.Mirror
	app := fx.New(Module(Params{ProfileName: "mirror"}), fx.NopLogger, fx.Populate(&m))
	require.NoError(t, app.Err())
	ctx := context.Background()
	require.NoError(t, app.Start(ctx))
	defer func() { require.NoError(t, app.Stop(ctx)) }()

	_, ok := m.(*store.DB)
	assert.True(t, ok)
}

func TestDirectoryCatalogAndQR(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	cats, err := h.client.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"electronics", "food", "home", "jewelry", "music"}, cats.Categories)

	home, err := h.client.SearchProducts(ctx, "hand", "home")
	require.NoError(t, err)
	require.Len(t, home.Products, 1)
	assert.Equal(t, "prod-candle", home.Products[0].ID)

	everywhere, err := h.client.SearchProducts(ctx, "hand", catalog.CategoryAll)
	require.NoError(t, err)
	assert.Len(t, everywhere.Products, 2)

	bySeller, err := h.client.ProductsBy(ctx, "sarahm")
	require.NoError(t, err)
	assert.Len(t, bySeller.Products, 2)
	_, err = h.client.ProductsBy(ctx, "ghost")
	assert.Equal(t, codes.NotFound, grpcstatus.Code(err))

	qr, err := h.client.ProfileQR(ctx, "emmaw", 128)
	require.NoError(t, err)
	assert.Equal(t, "giftem://user/emmaw", qr.Link)
	require.Greater(t, len(qr.PNG), 8)
	assert.Equal(t, []byte("\x89PNG"), qr.PNG[:4])

	mine, err := h.client.ProfileQR(ctx, "", 0)
	require.NoError(t, err)
	assert.Equal(t, "giftem://user/alexj", mine.Link)

	_, err = h.client.ProfileQR(ctx, "ghost", 0)
	assert.Equal(t, codes.NotFound, grpcstatus.Code(err))
}

func TestMarkNotificationRead(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	before, err := h.client.Notifications(ctx, false)
	require.NoError(t, err)
	var unread string
	for _, n := range before.Notifications {
		if !n.Read {
			unread = n.ID
			break
		}
	}
	require.NotEmpty(t, unread)

	after, err := h.client.MarkNotificationRead(ctx, unread)
	require.NoError(t, err)
	assert.Equal(t, before.Unread-1, after.Unread)

	_, err = h.client.MarkNotificationRead(ctx, "missing")
	assert.Equal(t, codes.NotFound, grpcstatus.Code(err))
}

func TestPostLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	me, _ := h.users.UserByUsername("alexj")

	post, err := h.client.AddPost(ctx, "Wrapped and ready", "prod-vinyl")
	require.NoError(t, err)
	assert.Equal(t, me.ID, post.Post.AuthorID)
	u, _ := h.users.User(me.ID)
	assert.Equal(t, me.Posts+1, u.Posts)

	_, err = h.client.AddPost(ctx, "  ", "")
	assert.Equal(t, codes.InvalidArgument, grpcstatus.Code(err))
	_, err = h.client.AddPost(ctx, "Nope", "prod-missing")
	assert.Equal(t, codes.NotFound, grpcstatus.Code(err))

	mine, err := h.client.PostsBy(ctx, "alexj")
	require.NoError(t, err)
	require.Len(t, mine.Posts, 1)
	assert.Equal(t, post.Post.ID, mine.Posts[0].ID)

	comments, err := h.client.ListComments(ctx, "post-necklace")
	require.NoError(t, err)
	require.Len(t, comments.Comments, 2)
	require.NoError(t, h.client.DeleteComment(ctx, comments.Comments[0].ID))
	comments, err = h.client.ListComments(ctx, "post-necklace")
	require.NoError(t, err)
	assert.Len(t, comments.Comments, 1)
	_, err = h.client.ListComments(ctx, "post-missing")
	assert.Equal(t, codes.NotFound, grpcstatus.Code(err))

	err = h.client.DeletePost(ctx, "post-vase")
	assert.Equal(t, codes.PermissionDenied, grpcstatus.Code(err))
	require.NoError(t, h.client.DeletePost(ctx, post.Post.ID))
	u, _ = h.users.User(me.ID)
	assert.Equal(t, me.Posts, u.Posts)
	err = h.client.DeletePost(ctx, post.Post.ID)
	assert.Equal(t, codes.NotFound, grpcstatus.Code(err))
}

func TestQuoteManagement(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	q, err := h.client.GetQuote(ctx, "quote-consistency")
	require.NoError(t, err)
	assert.Contains(t, q.Quote.HTML, "<strong>Consistency</strong>")

	liked, err := h.client.LikeQuote(ctx, "quote-consistency")
	require.NoError(t, err)
	assert.True(t, liked.Quote.Liked)
	assert.Equal(t, q.Quote.Likes+1, liked.Quote.Likes)

	require.NoError(t, h.client.DeleteQuote(ctx, "quote-rest"))
	_, err = h.client.GetQuote(ctx, "quote-rest")
	assert.Equal(t, codes.NotFound, grpcstatus.Code(err))
	assert.Equal(t, codes.NotFound, grpcstatus.Code(h.client.DeleteQuote(ctx, "quote-rest")))
	_, err = h.client.LikeQuote(ctx, "quote-rest")
	assert.Equal(t, codes.NotFound, grpcstatus.Code(err))
}

func TestWorkoutManagement(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	before, err := h.client.Workouts(ctx)
	require.NoError(t, err)

	added, err := h.client.AddWorkout(ctx, api.AddWorkoutRequest{Kind: "Cycling", Duration: "40m", Calories: 410})
	require.NoError(t, err)
	assert.Equal(t, 40*time.Minute, added.Workout.Duration)
	assert.Equal(t, before.Stats.Count+1, added.Stats.Count)

	_, err = h.client.AddWorkout(ctx, api.AddWorkoutRequest{Kind: "Cycling", Duration: "soon"})
	assert.Equal(t, codes.InvalidArgument, grpcstatus.Code(err))
	_, err = h.client.AddWorkout(ctx, api.AddWorkoutRequest{Kind: " ", Duration: "5m"})
	assert.Equal(t, codes.InvalidArgument, grpcstatus.Code(err))

	after, err := h.client.DeleteWorkout(ctx, added.Workout.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Stats.Count, after.Stats.Count)
	_, err = h.client.DeleteWorkout(ctx, added.Workout.ID)
	assert.Equal(t, codes.NotFound, grpcstatus.Code(err))
}

func TestCartManagement(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.client.AddToCart(ctx, "prod-candle", 1)
	require.NoError(t, err)
	_, err = h.client.AddToCart(ctx, "prod-vinyl", 1)
	require.NoError(t, err)

	c, err := h.client.UpdateCartQuantity(ctx, "prod-candle", 4)
	require.NoError(t, err)
	assert.Equal(t, 5, c.Count)
	assert.Equal(t, int64(4*2499+3499), c.TotalCents)

	c, err = h.client.RemoveFromCart(ctx, "prod-vinyl")
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, "prod-candle", c.Items[0].ProductID)

	_, err = h.client.RemoveFromCart(ctx, "prod-vinyl")
	assert.Equal(t, codes.NotFound, grpcstatus.Code(err))
	_, err = h.client.UpdateCartQuantity(ctx, "prod-vinyl", 2)
	assert.Equal(t, codes.NotFound, grpcstatus.Code(err))

	c, err = h.client.UpdateCartQuantity(ctx, "prod-candle", 0)
	require.NoError(t, err)
	assert.Empty(t, c.Items)

	_, err = h.client.AddToCart(ctx, "prod-coffee", 2)
	require.NoError(t, err)
	c, err = h.client.ClearCart(ctx)
	require.NoError(t, err)
	assert.Zero(t, c.Count)
	assert.Zero(t, c.TotalCents)
}
