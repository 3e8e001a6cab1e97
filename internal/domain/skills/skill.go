package skills

import (
	"time"

	"github.com/google/uuid"
)

const (
	CategoryTechnical = "Technical"
	CategorySoft      = "Soft"
	CategoryDomain    = "Domain"
)

type Skill struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	// Key is the canonical (trimmed, whitespace-collapsed, case-folded) name.
	Key         string    `gorm:"column:key;not null;uniqueIndex:idx_skill_key" json:"key"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Category    string    `gorm:"column:category;not null;index" json:"category"`
	Description string    `gorm:"column:description;type:text" json:"description,omitempty"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (Skill) TableName() string { return "skill" }
