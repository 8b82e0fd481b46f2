package api

import (
	"context"
	"slices"
	"time"

	"github.com/giftem/giftem/internal/cart"
	"github.com/giftem/giftem/internal/catalog"
	"github.com/giftem/giftem/internal/feed"
	"github.com/giftem/giftem/internal/identity"
	"github.com/giftem/giftem/internal/quotes"
	"github.com/giftem/giftem/internal/workout"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

// SocialServer implements the giftem.v1.Social service: the feed, the quotes
// board, the workout log and the cart.
type SocialServer struct {
	users    *identity.Store
	catalog  *catalog.Store
	feed     *feed.Store
	quotes   *quotes.Board
	workouts *workout.Log
	cart     *cart.Cart
}

// SocialDeps groups the stores behind the social service.
type SocialDeps struct {
	Users    *identity.Store
	Catalog  *catalog.Store
	Feed     *feed.Store
	Quotes   *quotes.Board
	Workouts *workout.Log
	Cart     *cart.Cart
}

func NewSocialServer(d SocialDeps) *SocialServer {
	return &SocialServer{
		users:    d.Users,
		catalog:  d.Catalog,
		feed:     d.Feed,
		quotes:   d.Quotes,
		workouts: d.Workouts,
		cart:     d.Cart,
	}
}

// Register attaches the service to a gRPC server.
func (s *SocialServer) Register(srv grpc.ServiceRegistrar) {
	srv.RegisterService(serviceDesc(SocialService, map[string]unaryFunc{
		"ListPosts":          handle(s.ListPosts),
		"PostsBy":            handle(s.PostsBy),
		"AddPost":            handle(s.AddPost),
		"DeletePost":         handle(s.DeletePost),
		"LikePost":           handle(s.LikePost),
		"ListComments":       handle(s.ListComments),
		"AddComment":         handle(s.AddComment),
		"DeleteComment":      handle(s.DeleteComment),
		"ListQuotes":         handle(s.ListQuotes),
		"GetQuote":           handle(s.GetQuote),
		"PostQuote":          handle(s.PostQuote),
		"LikeQuote":          handle(s.LikeQuote),
		"DeleteQuote":        handle(s.DeleteQuote),
		"Workouts":           handle(s.Workouts),
		"AddWorkout":         handle(s.AddWorkout),
		"DeleteWorkout":      handle(s.DeleteWorkout),
		"AddToCart":          handle(s.AddToCart),
		"UpdateCartQuantity": handle(s.UpdateCartQuantity),
		"RemoveFromCart":     handle(s.RemoveFromCart),
		"ClearCart":          handle(s.ClearCart),
		"GetCart":            handle(s.GetCart),
	}), s)
}

func (s *SocialServer) ListPosts(_ context.Context, _ *Empty) (*PostsResponse, error) {
	return &PostsResponse{Posts: s.feed.Posts()}, nil
}

func (s *SocialServer) PostsBy(_ context.Context, req *UserRequest) (*PostsResponse, error) {
	u, ok := s.users.UserByUsername(req.Username)
	if !ok {
		return nil, grpcstatus.Errorf(codes.NotFound, "user %q not found", req.Username)
	}
	return &PostsResponse{Posts: s.feed.PostsBy(u.ID)}, nil
}

func (s *SocialServer) AddPost(_ context.Context, req *AddPostRequest) (*PostResponse, error) {
	me, ok := s.users.CurrentUserID()
	if !ok {
		return nil, grpcstatus.Error(codes.FailedPrecondition, "no user signed in")
	}
	if req.ProductID != "" {
		if _, ok := s.catalog.Product(req.ProductID); !ok {
			return nil, grpcstatus.Errorf(codes.NotFound, "product %q not found", req.ProductID)
		}
	}
	p, ok := s.feed.AddPost(me, req.Caption, req.ProductID)
	if !ok {
		return nil, grpcstatus.Error(codes.InvalidArgument, "caption is empty")
	}
	return &PostResponse{Post: p}, nil
}

// DeletePost removes one of the signed-in user's posts.
func (s *SocialServer) DeletePost(_ context.Context, req *PostRequest) (*Empty, error) {
	p, ok := s.feed.Post(req.PostID)
	if !ok {
		return nil, grpcstatus.Errorf(codes.NotFound, "post %q not found", req.PostID)
	}
	if me, _ := s.users.CurrentUserID(); p.AuthorID != me {
		return nil, grpcstatus.Errorf(codes.PermissionDenied, "post %q belongs to another user", req.PostID)
	}
	s.feed.DeletePost(p.ID)
	return &Empty{}, nil
}

func (s *SocialServer) LikePost(_ context.Context, req *PostRequest) (*PostResponse, error) {
	p, ok := s.feed.ToggleLike(req.PostID)
	if !ok {
		return nil, grpcstatus.Errorf(codes.NotFound, "post %q not found", req.PostID)
	}
	return &PostResponse{Post: p}, nil
}

func (s *SocialServer) ListComments(_ context.Context, req *PostRequest) (*CommentsResponse, error) {
	if _, ok := s.feed.Post(req.PostID); !ok {
		return nil, grpcstatus.Errorf(codes.NotFound, "post %q not found", req.PostID)
	}
	return &CommentsResponse{Comments: s.feed.Comments(req.PostID)}, nil
}

func (s *SocialServer) AddComment(_ context.Context, req *CommentRequest) (*CommentResponse, error) {
	me, ok := s.users.CurrentUserID()
	if !ok {
		return nil, grpcstatus.Error(codes.FailedPrecondition, "no user signed in")
	}
	if _, ok := s.feed.Post(req.PostID); !ok {
		return nil, grpcstatus.Errorf(codes.NotFound, "post %q not found", req.PostID)
	}
	c, ok := s.feed.AddComment(req.PostID, me, req.Body)
	if !ok {
		return nil, grpcstatus.Error(codes.InvalidArgument, "comment body is empty")
	}
	return &CommentResponse{Comment: c}, nil
}

// DeleteComment removes a comment; unknown ids are ignored.
func (s *SocialServer) DeleteComment(_ context.Context, req *CommentIDRequest) (*Empty, error) {
	s.feed.DeleteComment(req.CommentID)
	return &Empty{}, nil
}

func (s *SocialServer) ListQuotes(_ context.Context, _ *Empty) (*QuotesResponse, error) {
	qs := s.quotes.Quotes()
	resp := &QuotesResponse{Quotes: make([]QuoteView, 0, len(qs))}
	for _, q := range qs {
		resp.Quotes = append(resp.Quotes, s.quoteView(q))
	}
	return resp, nil
}

func (s *SocialServer) PostQuote(_ context.Context, req *PostQuoteRequest) (*QuoteResponse, error) {
	me, ok := s.users.CurrentUserID()
	if !ok {
		return nil, grpcstatus.Error(codes.FailedPrecondition, "no user signed in")
	}
	q, ok := s.quotes.Post(me, req.Body)
	if !ok {
		return nil, grpcstatus.Errorf(codes.InvalidArgument, "quote must be 1-%d characters", quotes.MaxLength)
	}
	return &QuoteResponse{Quote: s.quoteView(q)}, nil
}

func (s *SocialServer) GetQuote(_ context.Context, req *QuoteRequest) (*QuoteResponse, error) {
	q, ok := s.quotes.Quote(req.QuoteID)
	if !ok {
		return nil, grpcstatus.Errorf(codes.NotFound, "quote %q not found", req.QuoteID)
	}
	html, ok := s.quotes.HTML(q.ID)
	if !ok {
		return nil, grpcstatus.Errorf(codes.Internal, "render quote %q", req.QuoteID)
	}
	return &QuoteResponse{Quote: QuoteView{Quote: q, HTML: html}}, nil
}

func (s *SocialServer) LikeQuote(_ context.Context, req *QuoteRequest) (*QuoteResponse, error) {
	q, ok := s.quotes.ToggleLike(req.QuoteID)
	if !ok {
		return nil, grpcstatus.Errorf(codes.NotFound, "quote %q not found", req.QuoteID)
	}
	return &QuoteResponse{Quote: s.quoteView(q)}, nil
}

func (s *SocialServer) DeleteQuote(_ context.Context, req *QuoteRequest) (*Empty, error) {
	if _, ok := s.quotes.Quote(req.QuoteID); !ok {
		return nil, grpcstatus.Errorf(codes.NotFound, "quote %q not found", req.QuoteID)
	}
	s.quotes.Delete(req.QuoteID)
	return &Empty{}, nil
}

func (s *SocialServer) Workouts(_ context.Context, _ *Empty) (*WorkoutsResponse, error) {
	return &WorkoutsResponse{Workouts: s.workouts.Workouts(), Stats: s.workouts.Stats()}, nil
}

func (s *SocialServer) AddWorkout(_ context.Context, req *AddWorkoutRequest) (*WorkoutResponse, error) {
	d, err := time.ParseDuration(req.Duration)
	if err != nil {
		return nil, grpcstatus.Errorf(codes.InvalidArgument, "duration: %v", err)
	}
	w, ok := s.workouts.Add(req.Kind, d, req.Calories, req.Notes)
	if !ok {
		return nil, grpcstatus.Error(codes.InvalidArgument, "workout needs a kind, a positive duration and non-negative calories")
	}
	return &WorkoutResponse{Workout: w, Stats: s.workouts.Stats()}, nil
}

func (s *SocialServer) DeleteWorkout(ctx context.Context, req *WorkoutRequest) (*WorkoutsResponse, error) {
	if !slices.ContainsFunc(s.workouts.Workouts(), func(w workout.Workout) bool { return w.ID == req.WorkoutID }) {
		return nil, grpcstatus.Errorf(codes.NotFound, "workout %q not found", req.WorkoutID)
	}
	s.workouts.Delete(req.WorkoutID)
	return s.Workouts(ctx, &Empty{})
}

func (s *SocialServer) AddToCart(ctx context.Context, req *AddToCartRequest) (*CartResponse, error) {
	p, ok := s.catalog.Product(req.ProductID)
	if !ok {
		return nil, grpcstatus.Errorf(codes.NotFound, "product %q not found", req.ProductID)
	}
	qty := req.Quantity
	if qty == 0 {
		qty = 1
	}
	if !s.cart.Add(p, qty) {
		return nil, grpcstatus.Errorf(codes.FailedPrecondition, "cannot add %d x %q", qty, p.Name)
	}
	return s.GetCart(ctx, &Empty{})
}

// UpdateCartQuantity sets a line's quantity; zero or less removes it.
func (s *SocialServer) UpdateCartQuantity(ctx context.Context, req *CartItemRequest) (*CartResponse, error) {
	if !s.inCart(req.ProductID) {
		return nil, grpcstatus.Errorf(codes.NotFound, "product %q is not in the cart", req.ProductID)
	}
	s.cart.UpdateQuantity(req.ProductID, req.Quantity)
	return s.GetCart(ctx, &Empty{})
}

func (s *SocialServer) RemoveFromCart(ctx context.Context, req *CartItemRequest) (*CartResponse, error) {
	if !s.inCart(req.ProductID) {
		return nil, grpcstatus.Errorf(codes.NotFound, "product %q is not in the cart", req.ProductID)
	}
	s.cart.Remove(req.ProductID)
	return s.GetCart(ctx, &Empty{})
}

func (s *SocialServer) ClearCart(ctx context.Context, _ *Empty) (*CartResponse, error) {
	s.cart.Clear()
	return s.GetCart(ctx, &Empty{})
}

func (s *SocialServer) GetCart(_ context.Context, _ *Empty) (*CartResponse, error) {
	return &CartResponse{Items: s.cart.Items(), Count: s.cart.Count(), TotalCents: s.cart.Total()}, nil
}

func (s *SocialServer) quoteView(q quotes.Quote) QuoteView {
	html, _ := s.quotes.Render(q.Body)
	return QuoteView{Quote: q, HTML: html}
}

func (s *SocialServer) inCart(productID string) bool {
	return slices.ContainsFunc(s.cart.Items(), func(it cart.Item) bool { return it.ProductID == productID })
}
