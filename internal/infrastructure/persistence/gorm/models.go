// Package gorm provides the GORM-backed state repository shared by the SQL drivers
package gorm

import (
	"time"

	"gorm.io/gorm"
)

// StateBlobModel stores one serialized planner state per key
type StateBlobModel struct {
	Key       string `gorm:"column:state_key;type:varchar(128);primaryKey"`
	Value     string `gorm:"type:text;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides the default pluralized table name
func (StateBlobModel) TableName() string {
	return "state_blobs"
}

// Migrate creates or updates the tables this package owns
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&StateBlobModel{})
}
