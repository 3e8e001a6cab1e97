package catalog

import (
	"time"

	"github.com/google/uuid"
)

type Programme struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Code        string    `gorm:"column:code;not null;uniqueIndex:idx_programme_code" json:"code"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Faculty     string    `gorm:"column:faculty;index" json:"faculty,omitempty"`
	URL         string    `gorm:"column:url" json:"url,omitempty"`
	Description string    `gorm:"column:description;type:text" json:"description,omitempty"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (Programme) TableName() string { return "programme" }
