package client

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/MKhiriev/go-push-sync/internal/adapter"
	"github.com/MKhiriev/go-push-sync/internal/config"
	"github.com/MKhiriev/go-push-sync/internal/crypto"
	"github.com/MKhiriev/go-push-sync/internal/handler"
	"github.com/MKhiriev/go-push-sync/internal/logger"
	"github.com/MKhiriev/go-push-sync/internal/reachability"
	"github.com/MKhiriev/go-push-sync/internal/server"
	"github.com/MKhiriev/go-push-sync/internal/service"
	"github.com/MKhiriev/go-push-sync/internal/store"
	"github.com/MKhiriev/go-push-sync/internal/stub"
	"github.com/MKhiriev/go-push-sync/internal/subservice"
	"github.com/MKhiriev/go-push-sync/internal/utils"
	"github.com/MKhiriev/go-push-sync/internal/workers"
	"github.com/MKhiriev/go-push-sync/models"
)

// SDKVersion is reported as system data.
const SDKVersion = "1.0.0"

// App runs the synchronization engine in a process: storage, transport,
// subservices and background workers, plus an optional stub backend.
type App struct {
	engine  *service.Engine
	db      *store.DB
	workers *workers.Workers
	stub    server.Server

	Messages   *subservice.MessageStore
	Geofencing *subservice.Geofencing
	Chat       *subservice.Chat
	Sessions   *subservice.SessionTracker

	foreground chan struct{}
	logger     *logger.Logger
}

// NewApp wires every component from cfg. Nothing runs until [App.Run].
func NewApp(ctx context.Context, cfg *config.EngineConfig, log *logger.Logger) (*App, error) {
	clock := clockwork.NewRealClock()

	a := &App{
		foreground: make(chan struct{}, 1),
		logger:     log,
	}

	if cfg.Stub.Enabled {
		srv, err := newStubServer(cfg, log)
		if err != nil {
			return nil, fmt.Errorf("create stub backend: %w", err)
		}
		a.stub = srv
	}

	sealer, err := crypto.NewSealer(cfg.Storage.Secret, crypto.StorageLabel, crypto.DefaultKeyParams)
	if err != nil {
		return nil, fmt.Errorf("create sealer: %w", err)
	}

	db, err := store.NewConnectSQLite(ctx, cfg.Storage.ArchiveDSN, log)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	a.db = db

	keychain, err := store.NewFileKeychain(cfg.Storage.KeychainPath, sealer)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open keychain: %w", err)
	}

	adapterOpts := []adapter.Opt{adapter.WithUserAgent("go-push-sync/" + SDKVersion)}
	if cfg.App.JWT != "" {
		adapterOpts = append(adapterOpts, adapter.WithJWTSupplier(adapter.StaticJWT(cfg.App.JWT)))
	}
	remote, err := adapter.NewHTTPRemoteAPI(cfg.Adapter, log, adapterOpts...)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create adapter: %w", err)
	}

	monitor := reachability.NewMonitor(true, log)
	prober := reachability.NewProber(utils.NewHTTPClient(cfg.Adapter.BaseURL, cfg.Adapter.RequestTimeout), monitor, log)

	archive := store.NewSQLiteArchive(db, sealer, clock, log)
	a.engine = service.NewEngine(*cfg, service.Dependencies{
		Store:        store.NewProfileStore(archive, log),
		Keychain:     keychain,
		Remote:       remote,
		Reachability: monitor,
		SystemData:   systemData(cfg.App.Version),
		Clock:        clock,
	}, log)

	status := a.engine.Installation()
	a.Messages = subservice.NewMessageStore(db, status, clock, log)
	a.Geofencing = subservice.NewGeofencing(status, clock, log)
	a.Chat = subservice.NewChat(status, clock, log)
	a.Sessions = subservice.NewSessionTracker(archive, status, clock, log)
	for _, sub := range []service.Subservice{a.Messages, a.Geofencing, a.Chat, a.Sessions} {
		a.engine.Subservices().Register(sub)
	}

	a.workers = workers.New(log,
		workers.NewSyncWorker(cfg.Workers.SyncInterval, clock, log, a.engine, a.engine.User()),
		workers.NewProbeWorker(cfg.Workers.ProbeInterval, clock, prober),
		workers.NewForegroundWorker(a.foreground, a.engine, log),
	)

	return a, nil
}

// Engine returns the synchronization engine.
func (a *App) Engine() *service.Engine {
	return a.engine
}

// EnterForeground signals that the host application came to the
// foreground. Signals are coalesced while one is pending.
func (a *App) EnterForeground() {
	select {
	case a.foreground <- struct{}{}:
	default:
	}
}

// Run starts the engine and blocks until ctx is done or the process gets
// SIGTERM, SIGINT or SIGQUIT. SIGUSR1 is treated as a foreground event.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	if a.stub != nil {
		go a.stub.RunServer()
	}
	defer a.shutdown()

	if err := a.engine.Start(ctx); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	a.workers.Start(ctx)

	// first sync right away, the periodic worker takes over afterwards
	a.engine.SyncWithServer(ctx, false, a.logFailure("installation sync"))
	a.engine.User().SyncWithServer(ctx, false, a.logFailure("user sync"))

	usr1 := make(chan os.Signal, 1)
	signal.Notify(usr1, syscall.SIGUSR1)
	defer signal.Stop(usr1)

	a.logger.Info().Msg("push sync engine started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-usr1:
			a.EnterForeground()
		}
	}
}

func (a *App) shutdown() {
	a.workers.Stop()
	a.engine.CancelAllOperations()
	a.engine.Close()

	if err := a.db.Close(); err != nil {
		a.logger.Err(err).Str("func", "App.shutdown").Msg("error closing archive")
	}
	if a.stub != nil {
		a.stub.Shutdown()
	}
	a.logger.Info().Msg("push sync engine stopped")
}

func (a *App) logFailure(op string) func(error) {
	return func(err error) {
		if err != nil {
			a.logger.Warn().Err(err).Str("func", "App.Run").Msg(op + " failed")
		}
	}
}

func newStubServer(cfg *config.EngineConfig, log *logger.Logger) (server.Server, error) {
	stubLog := log.GetChildLogger()
	stubLog.UpdateContext(func(c zerolog.Context) zerolog.Context {
		return c.Str("component", "stub")
	})

	handlers, err := handler.NewHandlers(stub.New(stubLog, stubOpts(cfg.Stub)...), cfg.Stub, stubLog)
	if err != nil {
		return nil, err
	}
	return server.NewServer(handlers, cfg.Stub, stubLog)
}

// StubJWTIssuer is the issuer the stub backend expects in JWT claims.
const StubJWTIssuer = "push-backend"

func stubOpts(cfg config.EngineStub) []stub.Opt {
	if cfg.JWTKey == "" {
		return nil
	}
	return []stub.Opt{stub.WithJWTKey(cfg.JWTKey, StubJWTIssuer)}
}

// systemData reports the host facts known to the process.
func systemData(appVersion string) service.SystemDataProvider {
	return service.SystemDataFunc(func(context.Context) (models.SystemData, error) {
		host, _ := os.Hostname()
		zone, _ := time.Now().Zone()
		return models.SystemData{
			SDKVersion: SDKVersion,
			AppVersion: appVersion,
			OS:         runtime.GOOS,
			DeviceName: host,
			Language:   os.Getenv("LANG"),
			Timezone:   zone,
		}, nil
	})
}
