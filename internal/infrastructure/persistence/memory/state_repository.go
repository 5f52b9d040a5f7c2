// Package memory provides an in-memory state repository
package memory

import (
	"context"
	"sync"

	"github.com/holidaytable/planner/internal/ports/outbound"
)

// StateRepository keeps blobs in a map; contents are lost on exit
type StateRepository struct {
	data  map[string][]byte
	mutex sync.RWMutex
}

var _ outbound.StateRepository = (*StateRepository)(nil)

// NewStateRepository creates a new in-memory state repository
func NewStateRepository() *StateRepository {
	return &StateRepository{data: make(map[string][]byte)}
}

// Load returns a copy of the blob stored under key
func (r *StateRepository) Load(ctx context.Context, key string) ([]byte, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	blob, exists := r.data[key]
	if !exists {
		return nil, outbound.ErrStateNotFound
	}
	return append([]byte(nil), blob...), nil
}

// Save stores a copy of blob under key
func (r *StateRepository) Save(ctx context.Context, key string, blob []byte) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.data[key] = append([]byte(nil), blob...)
	return nil
}

// Ping implements outbound.HealthChecker
func (r *StateRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}
