package aicache

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Entry stores a decoded, well-formed extractor payload keyed by prompt cache key.
type Entry struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CacheKey  string         `gorm:"column:cache_key;not null;uniqueIndex:idx_ai_cache_key" json:"cache_key"`
	Model     string         `gorm:"column:model" json:"model,omitempty"`
	Payload   datatypes.JSON `gorm:"column:payload;not null" json:"payload"`
	ExpiresAt *time.Time     `gorm:"column:expires_at;index" json:"expires_at,omitempty"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

func (Entry) TableName() string { return "ai_cache" }
