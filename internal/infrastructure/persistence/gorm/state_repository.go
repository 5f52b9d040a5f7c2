package gorm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/holidaytable/planner/internal/ports/outbound"
)

// StateRepository implements outbound.StateRepository using GORM
type StateRepository struct {
	db *gorm.DB
}

var _ outbound.StateRepository = (*StateRepository)(nil)

// NewStateRepository creates a new state repository
func NewStateRepository(db *gorm.DB) *StateRepository {
	return &StateRepository{db: db}
}

// Load returns the blob stored under key
func (r *StateRepository) Load(ctx context.Context, key string) ([]byte, error) {
	var model StateBlobModel
	result := r.db.WithContext(ctx).Where("state_key = ?", key).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, outbound.ErrStateNotFound
		}
		return nil, fmt.Errorf("load state %s: %w", key, result.Error)
	}
	return []byte(model.Value), nil
}

// Save inserts or replaces the blob stored under key
func (r *StateRepository) Save(ctx context.Context, key string, blob []byte) error {
	model := StateBlobModel{
		Key:       key,
		Value:     string(blob),
		UpdatedAt: time.Now(),
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "state_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&model)
	if result.Error != nil {
		return fmt.Errorf("save state %s: %w", key, result.Error)
	}
	return nil
}

// Ping implements outbound.HealthChecker
func (r *StateRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
