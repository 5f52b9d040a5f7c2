// Package container provides dependency injection using Uber FX
package container

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	aiapp "github.com/holidaytable/planner/internal/application/ai"
	chatapp "github.com/holidaytable/planner/internal/application/chat"
	app "github.com/holidaytable/planner/internal/application/planner"
	"github.com/holidaytable/planner/internal/domain/shared"
	aiinfra "github.com/holidaytable/planner/internal/infrastructure/ai"
	"github.com/holidaytable/planner/internal/infrastructure/config"
	"github.com/holidaytable/planner/internal/infrastructure/http/handlers"
	"github.com/holidaytable/planner/internal/infrastructure/http/webserver"
	"github.com/holidaytable/planner/internal/infrastructure/monitoring"
	"github.com/holidaytable/planner/internal/infrastructure/persistence"
	redisrepo "github.com/holidaytable/planner/internal/infrastructure/persistence/redis"
	"github.com/holidaytable/planner/internal/ports/inbound"
	"github.com/holidaytable/planner/internal/ports/outbound"
	"github.com/holidaytable/planner/pkg/healthcheck"
	"github.com/holidaytable/planner/pkg/logger"
)

// ConfigPath is the config file named on the command line, empty for
// the default search path
type ConfigPath string

// Mode tells the container which front end is running
type Mode string

const (
	ModeServer   Mode = "server"
	ModeTerminal Mode = "terminal"
	ModeBatch    Mode = "batch"
)

// sessionCleanupInterval is how often expired web sessions are dropped
const sessionCleanupInterval = 10 * time.Minute

// CoreModule provides everything the planner needs except a front end
var CoreModule = fx.Options(
	ConfigModule,
	LoggerModule,
	MonitoringModule,
	PersistenceModule,
	AIModule,
	ServiceModule,
)

// Module is the full web application
var Module = fx.Options(
	CoreModule,
	HTTPModule,
	LifecycleModule,
)

// Options returns the fx options shared by every command
func Options(path string, mode Mode, modules ...fx.Option) fx.Option {
	return fx.Options(
		fx.Supply(ConfigPath(path), mode),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		fx.Options(modules...),
	)
}

// ConfigModule provides configuration
var ConfigModule = fx.Provide(
	func(path ConfigPath) (*config.Config, error) {
		return config.Load(string(path))
	},
)

// LoggerModule provides logging. The level can be changed at runtime by
// editing log_level in the config file.
var LoggerModule = fx.Options(
	fx.Provide(
		func() zap.AtomicLevel { return zap.NewAtomicLevel() },
		func(cfg *config.Config, mode Mode, level zap.AtomicLevel) (*zap.Logger, error) {
			var outputs []string
			if mode == ModeTerminal {
				outputs = []string{cfg.App.LogFile}
			}
			return logger.New(logger.Config{
				Level:       cfg.App.LogLevel,
				Format:      cfg.App.LogFormat,
				Development: cfg.App.Debug,
				OutputPaths: outputs,
				AtomicLevel: &level,
			})
		},
	),
	fx.Invoke(WatchConfig),
)

// WatchConfig applies log level changes from the config file
func WatchConfig(lc fx.Lifecycle, path ConfigPath, level zap.AtomicLevel, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return config.Watch(string(path), log, func(cfg *config.Config) {
				next := logger.ParseLevel(cfg.App.LogLevel)
				if next != level.Level() {
					log.Info("Log level changed", zap.Stringer("level", next))
					level.SetLevel(next)
				}
			})
		},
	})
}

// MonitoringModule provides metrics and tracing
var MonitoringModule = fx.Provide(
	monitoring.NewMetricsCollector,
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
		tp, err := monitoring.NewTracingProvider(context.Background(), monitoring.TracingConfig{
			ServiceName:    cfg.Monitoring.ServiceName,
			ServiceVersion: cfg.App.Version,
			Environment:    cfg.App.Environment,
			Endpoint:       cfg.Monitoring.TracingEndpoint,
			SamplingRate:   cfg.Monitoring.SamplingRate,
		}, log)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{OnStop: tp.Shutdown})
		return tp, nil
	},
)

// PersistenceModule provides the state store
var PersistenceModule = fx.Provide(
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*persistence.Store, error) {
		store, err := persistence.Open(context.Background(), StoreConfig(cfg), log)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{OnStop: func(context.Context) error { return store.Close() }})
		return store, nil
	},
	func(store *persistence.Store) outbound.StateRepository { return store.Repository },
)

// StoreConfig maps the storage, database and redis sections onto the
// backend factory
func StoreConfig(cfg *config.Config) persistence.Config {
	pc := persistence.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		DSN:         cfg.Database.DSN,
		LogLevel:    cfg.Database.LogLevel,
		RedisPrefix: cfg.Redis.KeyPrefix,
		Redis: redisrepo.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			Database:     cfg.Redis.Database,
			ClusterNodes: cfg.Redis.ClusterNodes,
			PoolSize:     cfg.Redis.PoolSize,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		},
	}
	if pc.Driver == persistence.DriverSQLite {
		pc.Path = cfg.Database.Path
	}
	return pc
}

// AIModule provides the provider client, the gateway and its health check
var AIModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) outbound.TextGenerator {
		return aiinfra.NewTextGenerator(aiinfra.ProviderConfig{
			Provider:  cfg.AI.Provider,
			APIKey:    cfg.AI.APIKey,
			BaseURL:   cfg.AI.BaseURL,
			Timeout:   cfg.AI.Timeout,
			Transport: monitoring.InstrumentedTransport(http.DefaultTransport),
		}, log)
	},
	func(gen outbound.TextGenerator, cfg *config.Config, log *zap.Logger, metrics *monitoring.MetricsCollector, tp *monitoring.TracingProvider) outbound.AIGateway {
		return aiapp.NewGateway(gen, cfg.AI.Models, log,
			aiapp.WithRecorder(metrics),
			aiapp.WithTracer(tp.Tracer()),
		)
	},
	aiinfra.NewHealthChecker,
	func(cfg *config.Config, log *zap.Logger, store *persistence.Store, ai *aiinfra.HealthChecker) *healthcheck.HealthCheck {
		hc := healthcheck.New(cfg.App.Version, log)
		hc.Register("storage", healthcheck.NewPingChecker(store, map[string]string{"driver": store.Driver}))
		hc.Register("ai", ai)
		return hc
	},
)

// ServiceModule provides the planner and chat services. Every domain event
// is counted by the metrics collector.
var ServiceModule = fx.Provide(
	func(metrics *monitoring.MetricsCollector) *shared.Dispatcher {
		d := shared.NewDispatcher()
		d.Subscribe(metrics.HandleEvent)
		return d
	},
	func(repo outbound.StateRepository, gateway outbound.AIGateway, events *shared.Dispatcher, cfg *config.Config, log *zap.Logger, metrics *monitoring.MetricsCollector) *app.Service {
		return app.NewService(context.Background(), repo, gateway, events, log,
			app.WithStorageKey(cfg.Storage.Key),
			app.WithSaveRecorder(metrics),
		)
	},
	func(s *app.Service) inbound.PlannerService { return s },
	func(s *app.Service, gateway outbound.AIGateway, cfg *config.Config, log *zap.Logger, metrics *monitoring.MetricsCollector) inbound.ChatService {
		return chatapp.NewService(s, gateway, log,
			chatapp.WithTTL(cfg.Chat.SessionTTL),
			chatapp.WithTurnRecorder(metrics),
		)
	},
)

// HTTPModule provides the web server and its handlers
var HTTPModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) *webserver.SessionStore {
		return webserver.NewSessionStore(cfg.Chat.SessionTTL, cfg.Server.SecureCookies, log)
	},
	handlers.NewAPIHandlers,
	webserver.NewWebServer,
)

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterLifecycleHooks,
)

// RegisterLifecycleHooks starts the web server and the session janitor
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg *config.Config,
	log *zap.Logger,
	server *webserver.WebServer,
	sessions *webserver.SessionStore,
) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info("Starting Holiday Table",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
				zap.String("storage", cfg.Storage.Driver),
				zap.String("ai_provider", cfg.AI.Provider),
			)

			go sessions.Cleanup(ctx, sessionCleanupInterval)
			go func() {
				if err := server.Start(); err != nil {
					log.Error("HTTP server failed", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			log.Info("Shutting down Holiday Table")
			cancel()

			shutdownCtx, done := context.WithTimeout(stopCtx, cfg.Server.ShutdownTimeout)
			defer done()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Error("Failed to shutdown HTTP server", zap.Error(err))
			}

			_ = log.Sync()
			return nil
		},
	})
}
