package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Module is immutable once ingested apart from the processed flag.
type Module struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProgrammeID uuid.UUID  `gorm:"type:uuid;column:programme_id;not null;uniqueIndex:idx_module_programme_code,priority:1" json:"programme_id"`
	Code        string     `gorm:"column:code;not null;uniqueIndex:idx_module_programme_code,priority:2;index" json:"code"`
	Title       string     `gorm:"column:title;not null" json:"title"`
	YearLevel   int        `gorm:"column:year_level;not null;default:0" json:"year_level"`
	Description string     `gorm:"column:description;type:text" json:"description,omitempty"`
	IsProcessed bool       `gorm:"column:is_processed;not null;default:false;index" json:"is_processed"`
	ProcessedAt *time.Time `gorm:"column:processed_at" json:"processed_at,omitempty"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
}

func (Module) TableName() string { return "module" }
