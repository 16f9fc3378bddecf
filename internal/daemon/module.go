package daemon

import (
	"context"

	"github.com/matheus3301/quill/internal/api"
	"github.com/matheus3301/quill/internal/bus"
	"github.com/matheus3301/quill/internal/command"
	"github.com/matheus3301/quill/internal/config"
	"github.com/matheus3301/quill/internal/emoji"
	"github.com/matheus3301/quill/internal/history"
	"github.com/matheus3301/quill/internal/lock"
	"github.com/matheus3301/quill/internal/logging"
	"github.com/matheus3301/quill/internal/outbox"
	"github.com/matheus3301/quill/internal/post"
	"github.com/matheus3301/quill/internal/session"
	"github.com/matheus3301/quill/internal/status"
	"github.com/matheus3301/quill/internal/store"
	intsync "github.com/matheus3301/quill/internal/sync"
	"github.com/matheus3301/quill/internal/wa"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved session configuration passed to the fx module.
type Params struct {
	SessionName string
	SocketPath  string // optional override for testing; empty = use default
	ConfigPath  string // optional override; empty = ~/.quill/config.toml
}

// Services groups the gRPC services the server registers.
type Services struct {
	fx.In

	Session    *api.SessionService
	Sync       *api.SyncService
	Channel    *api.ChannelService
	User       *api.UserService
	Preference *api.PreferenceService
	Post       *api.PostService
	Draft      *api.DraftService
	File       *api.FileService
	Command    *api.CommandService
	History    *api.HistoryService
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideStore,
			provideAdapter,
			provideEmoji,
			provideEventHandler,
			provideReconciler,
			provideSyncEngine,
			provideSender,
			providePostService,
			provideExecutor,
			provideHistory,
			provideDevice,
			provideSessionService,
			api.NewSyncService,
			api.NewChannelService,
			api.NewUserService,
			api.NewPreferenceService,
			api.NewPostService,
			api.NewDraftService,
			provideFileService,
			api.NewCommandService,
			api.NewHistoryService,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig(p Params) (*config.Config, error) {
	path := p.ConfigPath
	if path == "" {
		path = session.ConfigPath()
	}
	return config.LoadOrDefault(path)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(session.DaemonLogPath(p.SessionName), p.SessionName)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := session.EnsureDir(p.SessionName); err != nil {
		return nil, err
	}
	logger.Info("acquiring session lock", zap.String("session", p.SessionName))
	l, err := lock.Acquire(session.Dir(p.SessionName))
	if err != nil {
		return nil, err
	}
	logger.Info("session lock acquired")
	return l, nil
}

// provideStore takes the lock so no second daemon opens the database.
func provideStore(p Params, _ *lock.Lock, logger *zap.Logger) (*store.DB, error) {
	dbPath := session.AppDBPath(p.SessionName)
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
	return db, nil
}

func provideAdapter(p Params, _ *lock.Lock, logger *zap.Logger) (*wa.Adapter, error) {
	return wa.NewAdapter(context.Background(), p.SessionName, logger.Named("wa"))
}

func provideEmoji(db *store.DB, logger *zap.Logger) *emoji.Set {
	set := emoji.NewSet()
	names, err := db.CustomEmojiNames()
	if err != nil {
		logger.Warn("failed to load custom emoji", zap.Error(err))
		return set
	}
	set.AddCustom(names...)
	return set
}

func provideEventHandler(b *bus.Bus, m *status.Machine, adapter *wa.Adapter, logger *zap.Logger) *wa.EventHandler {
	return wa.NewEventHandler(b, m, adapter, logger.Named("wa"))
}

func provideReconciler(db *store.DB, adapter *wa.Adapter, b *bus.Bus, logger *zap.Logger) *intsync.Reconciler {
	return intsync.NewReconciler(db, adapter, b, logger.Named("sync"))
}

func provideSyncEngine(db *store.DB, b *bus.Bus, emojis *emoji.Set, r *intsync.Reconciler, logger *zap.Logger) *intsync.Engine {
	return intsync.NewEngine(db, b, emojis, r, logger.Named("sync"))
}

func provideSender(db *store.DB, adapter *wa.Adapter, b *bus.Bus, m *status.Machine, emojis *emoji.Set, cfg *config.Config, logger *zap.Logger) *outbox.Sender {
	return outbox.NewSender(db, adapter, b, m, emojis, cfg.Outbox, logger.Named("outbox"))
}

func providePostService(db *store.DB, b *bus.Bus, cfg *config.Config, logger *zap.Logger) *post.Service {
	return post.NewService(db, b, cfg.Composer.MaxMessageLength, logger)
}

func provideExecutor(db *store.DB, posts *post.Service, b *bus.Bus, cfg *config.Config, logger *zap.Logger) *command.Executor {
	e := command.NewExecutor(db, posts, b, logger.Named("command"))
	e.SendUnknown = cfg.Composer.SendUnknownCommands
	return e
}

func provideHistory(db *store.DB, cfg *config.Config) (*history.Log, error) {
	return history.New(db, cfg.Composer.HistorySize, nil)
}

func provideDevice(a *wa.Adapter) api.Device {
	return a
}

func provideSessionService(p Params, m *status.Machine, device api.Device, b *bus.Bus) *api.SessionService {
	return api.NewSessionService(p.SessionName, m, device, b)
}

func provideFileService(p Params, db *store.DB, cfg *config.Config, b *bus.Bus, logger *zap.Logger) *api.FileService {
	return api.NewFileService(db, session.FilesDir(p.SessionName), cfg.Uploads.MaxFileSize, b, logger)
}

func registerLifecycle(lc fx.Lifecycle, srv *Server, b *bus.Bus, lk *lock.Lock, db *store.DB, adapter *wa.Adapter, handler *wa.EventHandler, engine *intsync.Engine, sender *outbox.Sender, machine *status.Machine, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// Start sync engine (subscribes to wa.* bus events).
			engine.Start(context.Background())

			adapter.RegisterEventHandler(handler.Handle)

			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("gRPC server error", zap.Error(err))
				}
			}()

			sender.Start(context.Background())

			if adapter.IsLoggedIn() {
				_ = machine.Transition(status.Connecting)
				go func() {
					if err := adapter.Connect(); err != nil {
						logger.Error("auto-connect failed", zap.Error(err))
						_ = machine.Transition(status.Error)
					}
				}()
			} else {
				logger.Info("no credentials found, auth required")
				_ = machine.Transition(status.AuthRequired)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			sender.Stop()
			engine.Stop()
			adapter.Disconnect()
			srv.Stop(ctx)
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped", zap.Uint64("bus_dropped", b.Dropped()))
			return nil
		},
	})
}
