package skills

import (
	"time"

	"github.com/google/uuid"
)

// ModuleSkill is the relational copy of a TEACHES edge.
type ModuleSkill struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ModuleID   uuid.UUID `gorm:"type:uuid;column:module_id;not null;uniqueIndex:idx_module_skill,priority:1" json:"module_id"`
	SkillID    uuid.UUID `gorm:"type:uuid;column:skill_id;not null;uniqueIndex:idx_module_skill,priority:2;index" json:"skill_id"`
	Confidence float64   `gorm:"column:confidence;not null;default:0" json:"confidence"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}

func (ModuleSkill) TableName() string { return "module_skill" }
