package client

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/giftem/giftem/internal/api"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client wraps the gRPC connection to the daemon.
type Client struct {
	conn *grpc.ClientConn
}

// New dials the daemon's Unix domain socket.
func New(socketPath string) (*Client, error) {
	conn, err := grpc.NewClient(
		"unix://"+socketPath,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("dial daemon: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the gRPC connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) call(ctx context.Context, service, method string, req, resp any) error {
	in, err := api.ToStruct(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, api.MethodPath(service, method), in, out); err != nil {
		return err
	}
	return api.FromStruct(out, resp)
}

func (c *Client) ListConversations(ctx context.Context) (*api.ListConversationsResponse, error) {
	resp := new(api.ListConversationsResponse)
	return resp, c.call(ctx, api.MessagingService, "ListConversations", api.Empty{}, resp)
}

func (c *Client) GetMessages(ctx context.Context, conversationID string) (*api.GetMessagesResponse, error) {
	resp := new(api.GetMessagesResponse)
	return resp, c.call(ctx, api.MessagingService, "GetMessages", api.ConversationRequest{ConversationID: conversationID}, resp)
}

func (c *Client) OpenConversation(ctx context.Context, username string) (*api.OpenConversationResponse, error) {
	resp := new(api.OpenConversationResponse)
	return resp, c.call(ctx, api.MessagingService, "OpenConversation", api.OpenConversationRequest{Username: username}, resp)
}

func (c *Client) SendMessage(ctx context.Context, conversationID, text string) (*api.SendMessageResponse, error) {
	resp := new(api.SendMessageResponse)
	req := api.SendMessageRequest{ConversationID: conversationID, Text: text}
	return resp, c.call(ctx, api.MessagingService, "SendMessage", req, resp)
}

func (c *Client) MarkRead(ctx context.Context, conversationID string) error {
	return c.call(ctx, api.MessagingService, "MarkRead", api.ConversationRequest{ConversationID: conversationID}, &api.Empty{})
}

func (c *Client) DeleteConversation(ctx context.Context, conversationID string) error {
	return c.call(ctx, api.MessagingService, "DeleteConversation", api.ConversationRequest{ConversationID: conversationID}, &api.Empty{})
}

func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var resp api.UnreadCountResponse
	if err := c.call(ctx, api.MessagingService, "UnreadCount", api.Empty{}, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (c *Client) Status(ctx context.Context) (*api.StatusResponse, error) {
	resp := new(api.StatusResponse)
	return resp, c.call(ctx, api.DirectoryService, "Status", api.Empty{}, resp)
}

func (c *Client) ListUsers(ctx context.Context, query string) (*api.UsersResponse, error) {
	resp := new(api.UsersResponse)
	return resp, c.call(ctx, api.DirectoryService, "ListUsers", api.SearchRequest{Query: query}, resp)
}

func (c *Client) Follow(ctx context.Context, username string) (*api.FollowResponse, error) {
	resp := new(api.FollowResponse)
	return resp, c.call(ctx, api.DirectoryService, "Follow", api.FollowRequest{Username: username}, resp)
}

func (c *Client) SearchProducts(ctx context.Context, query, category string) (*api.ProductsResponse, error) {
	resp := new(api.ProductsResponse)
	req := api.ProductSearchRequest{Query: query, Category: category}
	return resp, c.call(ctx, api.DirectoryService, "SearchProducts", req, resp)
}

func (c *Client) Notifications(ctx context.Context, markAllRead bool) (*api.NotificationsResponse, error) {
	resp := new(api.NotificationsResponse)
	return resp, c.call(ctx, api.DirectoryService, "Notifications", api.NotificationsRequest{MarkAllRead: markAllRead}, resp)
}

// WatchEvents streams daemon events whose kind starts with prefix, calling fn
// for each one until ctx is cancelled, the stream ends or fn returns an error.
func (c *Client) WatchEvents(ctx context.Context, prefix string, fn func(api.EventEnvelope) error) error {
	desc := &grpc.StreamDesc{StreamName: "WatchEvents", ServerStreams: true}
	stream, err := c.conn.NewStream(ctx, desc, api.MethodPath(api.MessagingService, "WatchEvents"))
	if err != nil {
		return err
	}
	in, err := api.ToStruct(api.WatchEventsRequest{Prefix: prefix})
	if err != nil {
		return err
	}
	if err := stream.SendMsg(in); err != nil {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}
	for {
		out := new(structpb.Struct)
		if err := stream.RecvMsg(out); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		var env api.EventEnvelope
		if err := api.FromStruct(out, &env); err != nil {
			return err
		}
		if err := fn(env); err != nil {
			return err
		}
	}
}

func (c *Client) ListPosts(ctx context.Context) (*api.PostsResponse, error) {
	resp := new(api.PostsResponse)
	return resp, c.call(ctx, api.SocialService, "ListPosts", api.Empty{}, resp)
}

func (c *Client) LikePost(ctx context.Context, postID string) (*api.PostResponse, error) {
	resp := new(api.PostResponse)
	return resp, c.call(ctx, api.SocialService, "LikePost", api.PostRequest{PostID: postID}, resp)
}

func (c *Client) AddComment(ctx context.Context, postID, body string) (*api.CommentResponse, error) {
	resp := new(api.CommentResponse)
	return resp, c.call(ctx, api.SocialService, "AddComment", api.CommentRequest{PostID: postID, Body: body}, resp)
}

func (c *Client) ListQuotes(ctx context.Context) (*api.QuotesResponse, error) {
	resp := new(api.QuotesResponse)
	return resp, c.call(ctx, api.SocialService, "ListQuotes", api.Empty{}, resp)
}

func (c *Client) PostQuote(ctx context.Context, body string) (*api.QuoteResponse, error) {
	resp := new(api.QuoteResponse)
	return resp, c.call(ctx, api.SocialService, "PostQuote", api.PostQuoteRequest{Body: body}, resp)
}

func (c *Client) Workouts(ctx context.Context) (*api.WorkoutsResponse, error) {
	resp := new(api.WorkoutsResponse)
	return resp, c.call(ctx, api.SocialService, "Workouts", api.Empty{}, resp)
}

func (c *Client) AddToCart(ctx context.Context, productID string, qty int) (*api.CartResponse, error) {
	resp := new(api.CartResponse)
	return resp, c.call(ctx, api.SocialService, "AddToCart", api.AddToCartRequest{ProductID: productID, Quantity: qty}, resp)
}

func (c *Client) GetCart(ctx context.Context) (*api.CartResponse, error) {
	resp := new(api.CartResponse)
	return resp, c.call(ctx, api.SocialService, "GetCart", api.Empty{}, resp)
}

func (c *Client) ProfileQR(ctx context.Context, username string, size int) (*api.ProfileQRResponse, error) {
	resp := new(api.ProfileQRResponse)
	return resp, c.call(ctx, api.DirectoryService, "ProfileQR", api.ProfileQRRequest{Username: username, Size: size}, resp)
}

func (c *Client) Categories(ctx context.Context) (*api.CategoriesResponse, error) {
	resp := new(api.CategoriesResponse)
	return resp, c.call(ctx, api.DirectoryService, "Categories", api.Empty{}, resp)
}

func (c *Client) ProductsBy(ctx context.Context, username string) (*api.ProductsResponse, error) {
	resp := new(api.ProductsResponse)
	return resp, c.call(ctx, api.DirectoryService, "ProductsBy", api.UserRequest{Username: username}, resp)
}

func (c *Client) MarkNotificationRead(ctx context.Context, id string) (*api.NotificationsResponse, error) {
	resp := new(api.NotificationsResponse)
	return resp, c.call(ctx, api.DirectoryService, "MarkNotificationRead", api.NotificationRequest{NotificationID: id}, resp)
}

func (c *Client) PostsBy(ctx context.Context, username string) (*api.PostsResponse, error) {
	resp := new(api.PostsResponse)
	return resp, c.call(ctx, api.SocialService, "PostsBy", api.UserRequest{Username: username}, resp)
}

func (c *Client) AddPost(ctx context.Context, caption, productID string) (*api.PostResponse, error) {
	resp := new(api.PostResponse)
	return resp, c.call(ctx, api.SocialService, "AddPost", api.AddPostRequest{Caption: caption, ProductID: productID}, resp)
}

func (c *Client) DeletePost(ctx context.Context, postID string) error {
	return c.call(ctx, api.SocialService, "DeletePost", api.PostRequest{PostID: postID}, &api.Empty{})
}

func (c *Client) ListComments(ctx context.Context, postID string) (*api.CommentsResponse, error) {
	resp := new(api.CommentsResponse)
	return resp, c.call(ctx, api.SocialService, "ListComments", api.PostRequest{PostID: postID}, resp)
}

func (c *Client) DeleteComment(ctx context.Context, commentID string) error {
	return c.call(ctx, api.SocialService, "DeleteComment", api.CommentIDRequest{CommentID: commentID}, &api.Empty{})
}

func (c *Client) GetQuote(ctx context.Context, quoteID string) (*api.QuoteResponse, error) {
	resp := new(api.QuoteResponse)
	return resp, c.call(ctx, api.SocialService, "GetQuote", api.QuoteRequest{QuoteID: quoteID}, resp)
}

func (c *Client) LikeQuote(ctx context.Context, quoteID string) (*api.QuoteResponse, error) {
	resp := new(api.QuoteResponse)
	return resp, c.call(ctx, api.SocialService, "LikeQuote", api.QuoteRequest{QuoteID: quoteID}, resp)
}

func (c *Client) DeleteQuote(ctx context.Context, quoteID string) error {
	return c.call(ctx, api.SocialService, "DeleteQuote", api.QuoteRequest{QuoteID: quoteID}, &api.Empty{})
}

func (c *Client) AddWorkout(ctx context.Context, req api.AddWorkoutRequest) (*api.WorkoutResponse, error) {
	resp := new(api.WorkoutResponse)
	return resp, c.call(ctx, api.SocialService, "AddWorkout", req, resp)
}

func (c *Client) DeleteWorkout(ctx context.Context, workoutID string) (*api.WorkoutsResponse, error) {
	resp := new(api.WorkoutsResponse)
	return resp, c.call(ctx, api.SocialService, "DeleteWorkout", api.WorkoutRequest{WorkoutID: workoutID}, resp)
}

func (c *Client) UpdateCartQuantity(ctx context.Context, productID string, qty int) (*api.CartResponse, error) {
	resp := new(api.CartResponse)
	return resp, c.call(ctx, api.SocialService, "UpdateCartQuantity", api.CartItemRequest{ProductID: productID, Quantity: qty}, resp)
}

func (c *Client) RemoveFromCart(ctx context.Context, productID string) (*api.CartResponse, error) {
	resp := new(api.CartResponse)
	return resp, c.call(ctx, api.SocialService, "RemoveFromCart", api.CartItemRequest{ProductID: productID}, resp)
}

func (c *Client) ClearCart(ctx context.Context) (*api.CartResponse, error) {
	resp := new(api.CartResponse)
	return resp, c.call(ctx, api.SocialService, "ClearCart", api.Empty{}, resp)
}
