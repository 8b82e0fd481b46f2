package api

import (
	"context"
	"slices"

	"github.com/giftem/giftem/internal/cart"
	"github.com/giftem/giftem/internal/catalog"
	"github.com/giftem/giftem/internal/identity"
	"github.com/giftem/giftem/internal/messaging"
	"github.com/giftem/giftem/internal/notify"
	"github.com/giftem/giftem/internal/status"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

// DirectoryServer implements the giftem.v1.Directory service: daemon status,
// the user roster, the product catalog and notifications.
type DirectoryServer struct {
	profile string
	machine *status.Machine
	users   *identity.Store
	catalog *catalog.Store
	notes   *notify.Store
	chats   *messaging.Manager
	cart    *cart.Cart
}

// DirectoryDeps groups the stores the directory service reads from.
type DirectoryDeps struct {
	Profile       string
	Machine       *status.Machine
	Users         *identity.Store
	Catalog       *catalog.Store
	Notifications *notify.Store
	Chats         *messaging.Manager
	Cart          *cart.Cart
}

// NewDirectoryServer creates a directory service.
func NewDirectoryServer(d DirectoryDeps) *DirectoryServer {
	return &DirectoryServer{
		profile: d.Profile,
		machine: d.Machine,
		users:   d.Users,
		catalog: d.Catalog,
		notes:   d.Notifications,
		chats:   d.Chats,
		cart:    d.Cart,
	}
}

// Register attaches the service to a gRPC server.
func (s *DirectoryServer) Register(srv grpc.ServiceRegistrar) {
	srv.RegisterService(serviceDesc(DirectoryService, map[string]unaryFunc{
		"Status":               handle(s.Status),
		"ListUsers":            handle(s.ListUsers),
		"Follow":               handle(s.Follow),
		"SearchProducts":       handle(s.SearchProducts),
		"Notifications":        handle(s.Notifications),
		"ProfileQR":            handle(s.ProfileQR),
		"Categories":           handle(s.Categories),
		"ProductsBy":           handle(s.ProductsBy),
		"MarkNotificationRead": handle(s.MarkNotificationRead),
	}), s)
}

func (s *DirectoryServer) Status(_ context.Context, _ *Empty) (*StatusResponse, error) {
	resp := &StatusResponse{Profile: s.profile}
	if s.machine != nil {
		resp.State = string(s.machine.Current())
		resp.UptimeMs = s.machine.Uptime().Milliseconds()
	}
	if u, ok := s.users.CurrentUser(); ok {
		resp.CurrentUser = u
	}
	if s.chats != nil {
		resp.Conversations = len(s.chats.Conversations())
		resp.UnreadMessages = s.chats.TotalUnreadCount()
	}
	if s.notes != nil {
		resp.UnreadNotifications = s.notes.UnreadCount()
	}
	if s.cart != nil {
		resp.CartItems = s.cart.Count()
		resp.CartTotalCents = s.cart.Total()
	}
	return resp, nil
}

func (s *DirectoryServer) ListUsers(_ context.Context, req *SearchRequest) (*UsersResponse, error) {
	return &UsersResponse{Users: s.users.Search(req.Query)}, nil
}

func (s *DirectoryServer) Follow(_ context.Context, req *FollowRequest) (*FollowResponse, error) {
	u, ok := s.users.UserByUsername(req.Username)
	if !ok {
		return nil, grpcstatus.Errorf(codes.NotFound, "user %q not found", req.Username)
	}
	followed := s.users.Follow(u.ID)
	if updated, ok := s.users.User(u.ID); ok {
		u = updated
	}
	return &FollowResponse{Followed: followed, User: u}, nil
}

// SearchProducts matches the query within a category; a blank or "all"
// category searches the whole catalog.
func (s *DirectoryServer) SearchProducts(_ context.Context, req *ProductSearchRequest) (*ProductsResponse, error) {
	inCategory := make(map[string]bool)
	for _, p := range s.catalog.ByCategory(req.Category) {
		inCategory[p.ID] = true
	}
	var products []catalog.Product
	for _, p := range s.catalog.Search(req.Query) {
		if inCategory[p.ID] {
			products = append(products, p)
		}
	}
	return &ProductsResponse{Products: products}, nil
}

func (s *DirectoryServer) Categories(_ context.Context, _ *Empty) (*CategoriesResponse, error) {
	return &CategoriesResponse{Categories: s.catalog.Categories()}, nil
}

func (s *DirectoryServer) ProductsBy(_ context.Context, req *UserRequest) (*ProductsResponse, error) {
	u, ok := s.users.UserByUsername(req.Username)
	if !ok {
		return nil, grpcstatus.Errorf(codes.NotFound, "user %q not found", req.Username)
	}
	return &ProductsResponse{Products: s.catalog.BySeller(u.ID)}, nil
}

// ProfileQR renders a user's profile link as a QR code. A blank username
// means the signed-in user.
func (s *DirectoryServer) ProfileQR(_ context.Context, req *ProfileQRRequest) (*ProfileQRResponse, error) {
	var (
		u  identity.User
		ok bool
	)
	if req.Username == "" {
		u, ok = s.users.CurrentUser()
	} else {
		u, ok = s.users.UserByUsername(req.Username)
	}
	if !ok {
		return nil, grpcstatus.Errorf(codes.NotFound, "user %q not found", req.Username)
	}
	png, err := s.users.ProfileQR(u.ID, req.Size)
	if err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "render qr: %v", err)
	}
	return &ProfileQRResponse{Link: identity.ProfileLink(u), PNG: png}, nil
}

func (s *DirectoryServer) Notifications(_ context.Context, req *NotificationsRequest) (*NotificationsResponse, error) {
	if req.MarkAllRead {
		s.notes.MarkAllRead()
	}
	return &NotificationsResponse{
		Notifications: s.notes.Notifications(),
		Unread:        s.notes.UnreadCount(),
	}, nil
}

func (s *DirectoryServer) MarkNotificationRead(ctx context.Context, req *NotificationRequest) (*NotificationsResponse, error) {
	if !slices.ContainsFunc(s.notes.Notifications(), func(n notify.Notification) bool { return n.ID == req.NotificationID }) {
		return nil, grpcstatus.Errorf(codes.NotFound, "notification %q not found", req.NotificationID)
	}
	s.notes.MarkRead(req.NotificationID)
	return s.Notifications(ctx, &NotificationsRequest{})
}
