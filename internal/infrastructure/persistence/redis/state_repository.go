package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/holidaytable/planner/internal/ports/outbound"
)

// StateRepository stores each blob as a plain string value without expiry
type StateRepository struct {
	client redis.UniversalClient
	prefix string
	logger *zap.Logger
}

var _ outbound.StateRepository = (*StateRepository)(nil)

// NewStateRepository creates a new Redis state repository. Keys are
// stored as prefix+key.
func NewStateRepository(client redis.UniversalClient, prefix string, logger *zap.Logger) *StateRepository {
	return &StateRepository{
		client: client,
		prefix: prefix,
		logger: logger.Named("redis-state"),
	}
}

// Load returns the blob stored under key
func (r *StateRepository) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, outbound.ErrStateNotFound
		}
		r.logger.Debug("State get failed", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("load state %s: %w", key, err)
	}
	return data, nil
}

// Save replaces the blob stored under key
func (r *StateRepository) Save(ctx context.Context, key string, blob []byte) error {
	if err := r.client.Set(ctx, r.prefix+key, blob, 0).Err(); err != nil {
		r.logger.Error("State set failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("save state %s: %w", key, err)
	}
	return nil
}

// Ping implements outbound.HealthChecker
func (r *StateRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
