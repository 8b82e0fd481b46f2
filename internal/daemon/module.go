package daemon

import (
	"context"

	"github.com/giftem/giftem/internal/api"
	"github.com/giftem/giftem/internal/bus"
	"github.com/giftem/giftem/internal/cart"
	"github.com/giftem/giftem/internal/catalog"
	"github.com/giftem/giftem/internal/config"
	"github.com/giftem/giftem/internal/feed"
	"github.com/giftem/giftem/internal/identity"
	"github.com/giftem/giftem/internal/lock"
	"github.com/giftem/giftem/internal/logging"
	"github.com/giftem/giftem/internal/messaging"
	"github.com/giftem/giftem/internal/notify"
	"github.com/giftem/giftem/internal/profile"
	"github.com/giftem/giftem/internal/quotes"
	"github.com/giftem/giftem/internal/schedule"
	"github.com/giftem/giftem/internal/status"
	"github.com/giftem/giftem/internal/store"
	"github.com/giftem/giftem/internal/workout"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Params holds the resolved profile configuration passed to the fx module.
type Params struct {
	ProfileName string
	Config      *config.Config
	SocketPath  string // optional override for testing; empty = use default
	LogLevel    zapcore.Level
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	if p.Config == nil {
		p.Config = &config.Config{}
	}
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideMirror,
			provideIdentity,
			provideCatalog,
			provideFeed,
			provideCart,
			provideWorkouts,
			provideQuotes,
			provideNotifications,
			provideListener,
			provideManager,
			provideMessagingServer,
			provideDirectoryServer,
			provideSocialServer,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(profile.LogPath(p.ProfileName), p.ProfileName, p.LogLevel)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := profile.EnsureDir(p.ProfileName); err != nil {
		return nil, err
	}
	logger.Info("acquiring profile lock", zap.String("profile", p.ProfileName))
	l, err := lock.Acquire(profile.Dir(p.ProfileName))
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired")
	return l, nil
}

// provideMirror opens the profile database, or keeps everything in memory
// when the config asks for an ephemeral run.
func provideMirror(lc fx.Lifecycle, p Params, _ *lock.Lock, logger *zap.Logger) (store.Mirror, error) {
	if p.Config.Ephemeral {
		logger.Info("ephemeral profile, stores are not mirrored")
		return store.NopMirror{}, nil
	}
	dbPath := profile.DBPath(p.ProfileName)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	lc.Append(fx.StopHook(db.Close))
	return db, nil
}

func provideIdentity(p Params, b *bus.Bus, logger *zap.Logger) *identity.Store {
	users := identity.NewSampleStore(b, logger.Named("identity"))
	if name := p.Config.CurrentUser; name != "" {
		u, ok := users.UserByUsername(name)
		if !ok {
			logger.Warn("configured current user not found, keeping default", zap.String("username", name))
			return users
		}
		users.SetCurrentUser(u.ID)
	}
	return users
}

func provideCatalog() *catalog.Store {
	return catalog.NewStore(catalog.SampleProducts())
}

func provideFeed(m store.Mirror, users *identity.Store, b *bus.Bus, logger *zap.Logger) *feed.Store {
	f := feed.New(m, users.CurrentUserID, b, logger.Named("feed"))
	f.CountPostsIn(users)
	return f
}

func provideCart(m store.Mirror, logger *zap.Logger) *cart.Cart {
	return cart.New(m, logger.Named("cart"))
}

func provideWorkouts(m store.Mirror, logger *zap.Logger) *workout.Log {
	return workout.New(m, logger.Named("workout"))
}

func provideQuotes(m store.Mirror, logger *zap.Logger) *quotes.Board {
	return quotes.New(m, logger.Named("quotes"))
}

func provideNotifications(m store.Mirror, b *bus.Bus, logger *zap.Logger) *notify.Store {
	return notify.New(m, b, logger.Named("notify"))
}

func provideListener(s *notify.Store, b *bus.Bus, users *identity.Store, logger *zap.Logger) *notify.Listener {
	return notify.NewListener(s, b, users, logger.Named("notify"))
}

func provideManager(p Params, users *identity.Store, b *bus.Bus, logger *zap.Logger) *messaging.Manager {
	return messaging.NewManager(users, messaging.Options{
		Clock:      schedule.Real(),
		ReplyDelay: p.Config.ReplyDelay(),
		Bus:        b,
		Logger:     logger.Named("messaging"),
	})
}

func provideMessagingServer(mgr *messaging.Manager, users *identity.Store, b *bus.Bus, logger *zap.Logger) *api.MessagingServer {
	return api.NewMessagingServer(mgr, users, b, logger)
}

func provideDirectoryServer(p Params, m *status.Machine, users *identity.Store, c *catalog.Store, n *notify.Store, mgr *messaging.Manager, crt *cart.Cart) *api.DirectoryServer {
	return api.NewDirectoryServer(api.DirectoryDeps{
		Profile:       p.ProfileName,
		Machine:       m,
		Users:         users,
		Catalog:       c,
		Notifications: n,
		Chats:         mgr,
		Cart:          crt,
	})
}

func provideSocialServer(users *identity.Store, c *catalog.Store, f *feed.Store, q *quotes.Board, w *workout.Log, crt *cart.Cart) *api.SocialServer {
	return api.NewSocialServer(api.SocialDeps{
		Users:    users,
		Catalog:  c,
		Feed:     f,
		Quotes:   q,
		Workouts: w,
		Cart:     crt,
	})
}

func registerLifecycle(lc fx.Lifecycle, srv *Server, lk *lock.Lock, mgr *messaging.Manager, listener *notify.Listener, machine *status.Machine, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			if err := machine.Transition(status.Seeding); err != nil {
				return err
			}
			listener.Start(context.Background())
			mgr.LoadSamples()

			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("gRPC server error", zap.Error(err))
					_ = machine.Transition(status.Error)
				}
			}()

			return machine.Transition(status.Ready)
		},
		OnStop: func(ctx context.Context) error {
			_ = machine.Transition(status.Stopping)
			srv.Stop(ctx)
			mgr.Close()
			listener.Stop()
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}
