// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application needs from the infrastructure
package outbound

import (
	"context"
	"errors"
)

// ErrStateNotFound is returned by StateRepository.Load when the slot is empty
var ErrStateNotFound = errors.New("state not found")

// StateRepository stores opaque state blobs under string keys.
// Implementations keep exactly one value per key and overwrite on Save.
type StateRepository interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, blob []byte) error
}

// HealthChecker is implemented by adapters that can report their own health
type HealthChecker interface {
	Ping(ctx context.Context) error
}
