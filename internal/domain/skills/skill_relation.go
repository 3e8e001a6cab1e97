package skills

import (
	"time"

	"github.com/google/uuid"
)

const (
	RelationRequires    = "requires"
	RelationBuildsOn    = "builds_on"
	RelationComplements = "complements"
)

// SkillRelation is a typed, model-proposed edge. At most one row exists per ordered
// (source, target) pair.
type SkillRelation struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProgrammeID   *uuid.UUID `gorm:"type:uuid;column:programme_id;index" json:"programme_id,omitempty"`
	SourceSkillID uuid.UUID  `gorm:"type:uuid;column:source_skill_id;not null;uniqueIndex:idx_skill_relation_pair,priority:1" json:"source_skill_id"`
	TargetSkillID uuid.UUID  `gorm:"type:uuid;column:target_skill_id;not null;uniqueIndex:idx_skill_relation_pair,priority:2;index" json:"target_skill_id"`
	Relation      string     `gorm:"column:relation;not null" json:"relation"`
	Confidence    float64    `gorm:"column:confidence;not null;default:0" json:"confidence"`
	CreatedAt     time.Time  `gorm:"not null" json:"created_at"`
}

func (SkillRelation) TableName() string { return "skill_relation" }
