package degrees

import (
	"time"

	"github.com/google/uuid"
)

type Degree struct {
	ID           uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string              `gorm:"column:name;not null;uniqueIndex:idx_degree_name" json:"name"`
	Faculty      string              `gorm:"column:faculty;not null;index" json:"faculty"`
	Description  string              `gorm:"column:description;type:text" json:"description,omitempty"`
	Requirements []CourseRequirement `gorm:"foreignKey:DegreeID;constraint:OnDelete:CASCADE" json:"requirements,omitempty"`
	CreatedAt    time.Time           `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time           `gorm:"not null" json:"updated_at"`
}

func (Degree) TableName() string { return "degree" }

// CourseRequirement is a minimum mark (percent) in one school subject.
type CourseRequirement struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DegreeID    uuid.UUID `gorm:"type:uuid;column:degree_id;not null;uniqueIndex:idx_course_requirement,priority:1" json:"degree_id"`
	Subject     string    `gorm:"column:subject;not null;uniqueIndex:idx_course_requirement,priority:2" json:"subject"`
	MinimumMark float64   `gorm:"column:minimum_mark;not null;default:0" json:"minimum_mark"`
}

func (CourseRequirement) TableName() string { return "course_requirement" }
