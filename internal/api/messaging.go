package api

import (
	"context"

	"github.com/giftem/giftem/internal/bus"
	"github.com/giftem/giftem/internal/identity"
	"github.com/giftem/giftem/internal/messaging"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// MessagingServer implements the giftem.v1.Messaging service over the
// conversation manager.
type MessagingServer struct {
	mgr    *messaging.Manager
	users  *identity.Store
	bus    *bus.Bus
	logger *zap.Logger
}

// NewMessagingServer creates a messaging service.
func NewMessagingServer(mgr *messaging.Manager, users *identity.Store, b *bus.Bus, logger *zap.Logger) *MessagingServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessagingServer{mgr: mgr, users: users, bus: b, logger: logger}
}

// Register attaches the service to a gRPC server.
func (s *MessagingServer) Register(srv grpc.ServiceRegistrar) {
	srv.RegisterService(serviceDesc(MessagingService, map[string]unaryFunc{
		"ListConversations":  handle(s.ListConversations),
		"GetMessages":        handle(s.GetMessages),
		"OpenConversation":   handle(s.OpenConversation),
		"SendMessage":        handle(s.SendMessage),
		"MarkRead":           handle(s.MarkRead),
		"DeleteConversation": handle(s.DeleteConversation),
		"UnreadCount":        handle(s.UnreadCount),
	}, grpc.StreamDesc{
		StreamName:    "WatchEvents",
		ServerStreams: true,
		Handler: func(_ any, stream grpc.ServerStream) error {
			in := new(structpb.Struct)
			if err := stream.RecvMsg(in); err != nil {
				return err
			}
			var req WatchEventsRequest
			if err := FromStruct(in, &req); err != nil {
				return grpcstatus.Errorf(codes.InvalidArgument, "decode request: %v", err)
			}
			return s.WatchEvents(&req, stream)
		},
	}), s)
}

func (s *MessagingServer) ListConversations(_ context.Context, _ *Empty) (*ListConversationsResponse, error) {
	convs := s.mgr.Conversations()
	resp := &ListConversationsResponse{
		Conversations: make([]ConversationView, 0, len(convs)),
		UnreadTotal:   s.mgr.TotalUnreadCount(),
	}
	for _, c := range convs {
		resp.Conversations = append(resp.Conversations, s.view(c))
	}
	return resp, nil
}

func (s *MessagingServer) GetMessages(_ context.Context, req *ConversationRequest) (*GetMessagesResponse, error) {
	if req.ConversationID == "" {
		return nil, grpcstatus.Error(codes.InvalidArgument, "conversation_id is required")
	}
	return &GetMessagesResponse{Messages: s.mgr.Messages(req.ConversationID)}, nil
}

func (s *MessagingServer) OpenConversation(_ context.Context, req *OpenConversationRequest) (*OpenConversationResponse, error) {
	current, ok := s.users.CurrentUserID()
	if !ok {
		return nil, grpcstatus.Error(codes.FailedPrecondition, "no user signed in")
	}
	u, ok := s.users.UserByUsername(req.Username)
	if !ok {
		return nil, grpcstatus.Errorf(codes.NotFound, "user %q not found", req.Username)
	}
	if u.ID == current {
		return nil, grpcstatus.Error(codes.InvalidArgument, "cannot open a conversation with yourself")
	}
	conv := s.mgr.GetOrCreateConversation(u.ID)
	return &OpenConversationResponse{Conversation: s.view(conv)}, nil
}

func (s *MessagingServer) SendMessage(_ context.Context, req *SendMessageRequest) (*SendMessageResponse, error) {
	msg, ok := s.mgr.SendMessage(req.ConversationID, req.Text)
	if !ok {
		return &SendMessageResponse{Accepted: false}, nil
	}
	return &SendMessageResponse{Accepted: true, Message: &msg}, nil
}

func (s *MessagingServer) MarkRead(_ context.Context, req *ConversationRequest) (*Empty, error) {
	s.mgr.MarkConversationAsRead(req.ConversationID)
	return &Empty{}, nil
}

func (s *MessagingServer) DeleteConversation(_ context.Context, req *ConversationRequest) (*Empty, error) {
	s.mgr.DeleteConversation(req.ConversationID)
	return &Empty{}, nil
}

func (s *MessagingServer) UnreadCount(_ context.Context, _ *Empty) (*UnreadCountResponse, error) {
	return &UnreadCountResponse{Count: s.mgr.TotalUnreadCount()}, nil
}

// WatchEvents streams bus events until the client goes away.
func (s *MessagingServer) WatchEvents(req *WatchEventsRequest, stream grpc.ServerStream) error {
	ch, unsub := s.bus.Subscribe(req.Prefix, 64)
	defer unsub()

	for {
		select {
		case evt := <-ch:
			out, err := ToStruct(EventEnvelope{
				EventID:    uuid.NewString(),
				Kind:       evt.Kind,
				OccurredAt: evt.Timestamp,
				Payload:    evt.Payload,
			})
			if err != nil {
				s.logger.Warn("dropping unencodable event", zap.String("kind", evt.Kind), zap.Error(err))
				continue
			}
			if err := stream.SendMsg(out); err != nil {
				return err
			}
		case <-stream.Context().Done():
			return nil
		}
	}
}

func (s *MessagingServer) view(c messaging.Conversation) ConversationView {
	v := ConversationView{Conversation: c}
	if current, ok := s.users.CurrentUserID(); ok {
		if u, ok := s.users.User(c.Other(current)); ok {
			v.With = u
		}
	}
	return v
}
