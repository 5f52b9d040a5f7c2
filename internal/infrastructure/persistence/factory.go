// Package persistence selects the state store backend
package persistence

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/holidaytable/planner/internal/infrastructure/persistence/file"
	gormrepo "github.com/holidaytable/planner/internal/infrastructure/persistence/gorm"
	"github.com/holidaytable/planner/internal/infrastructure/persistence/memory"
	"github.com/holidaytable/planner/internal/infrastructure/persistence/postgres"
	redisrepo "github.com/holidaytable/planner/internal/infrastructure/persistence/redis"
	"github.com/holidaytable/planner/internal/infrastructure/persistence/sqlite"
	"github.com/holidaytable/planner/internal/ports/outbound"
)

// Supported drivers
const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

// Config selects and configures a backend
type Config struct {
	Driver string
	// Path is the state directory for file and the database file for sqlite
	Path     string
	DSN      string
	LogLevel string
	Redis    redisrepo.Config
	// RedisPrefix is prepended to every Redis key
	RedisPrefix string
}

// Store is an opened backend
type Store struct {
	Driver     string
	Repository outbound.StateRepository
	close      func() error
}

// Ping reports the backend health when the repository supports it
func (s *Store) Ping(ctx context.Context) error {
	if hc, ok := s.Repository.(outbound.HealthChecker); ok {
		return hc.Ping(ctx)
	}
	return nil
}

// Close releases connections held by the backend
func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Open creates the repository for cfg.Driver. An empty driver means file.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = DriverFile
	}
	logger = logger.Named("persistence")

	switch driver {
	case DriverFile:
		repo, err := file.NewStateRepository(cfg.Path)
		if err != nil {
			return nil, err
		}
		logger.Info("Using file state store", zap.String("path", cfg.Path))
		return &Store{Driver: driver, Repository: repo}, nil

	case DriverSQLite:
		db, err := sqlite.SetupDatabase(cfg.Path, gormLogLevel(cfg.LogLevel))
		if err != nil {
			return nil, err
		}
		logger.Info("Using SQLite state store", zap.String("path", cfg.Path))
		return &Store{
			Driver:     driver,
			Repository: gormrepo.NewStateRepository(db),
			close:      sqlCloser(db),
		}, nil

	case DriverPostgres:
		pgCfg := postgres.DefaultConnectionConfig()
		pgCfg.DSN = cfg.DSN
		if cfg.LogLevel != "" {
			pgCfg.LogLevel = cfg.LogLevel
		}
		db, err := postgres.Connect(ctx, pgCfg, logger)
		if err != nil {
			return nil, err
		}
		return &Store{
			Driver:     driver,
			Repository: gormrepo.NewStateRepository(db),
			close:      sqlCloser(db),
		}, nil

	case DriverRedis:
		client, err := redisrepo.NewClient(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, err
		}
		return &Store{
			Driver:     driver,
			Repository: redisrepo.NewStateRepository(client, cfg.RedisPrefix, logger),
			close:      client.Close,
		}, nil

	case DriverMemory:
		logger.Warn("Using in-memory state store, state is lost on exit")
		return &Store{Driver: driver, Repository: memory.NewStateRepository()}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

func sqlCloser(db *gorm.DB) func() error {
	return func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
}
