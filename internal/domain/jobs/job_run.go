package jobs

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	TypeProcessModules    = "process_modules"
	TypeRebuildGraph      = "rebuild_graph"
	TypeGenerateRelations = "generate_relations"

	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// JobRun records one batch invocation and the report it produced.
type JobRun struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	JobType    string         `gorm:"column:job_type;not null;index" json:"job_type"`
	Trigger    string         `gorm:"column:triggered_by;not null;default:''" json:"trigger,omitempty"`
	Status     string         `gorm:"column:status;not null;index" json:"status"`
	Error      string         `gorm:"column:error" json:"error,omitempty"`
	Payload    datatypes.JSON `gorm:"column:payload" json:"payload,omitempty"`
	Result     datatypes.JSON `gorm:"column:result" json:"result,omitempty"`
	StartedAt  time.Time      `gorm:"column:started_at;not null;index" json:"started_at"`
	FinishedAt *time.Time     `gorm:"column:finished_at" json:"finished_at,omitempty"`
	CreatedAt  time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null" json:"updated_at"`
}

func (JobRun) TableName() string { return "job_run" }

func (j *JobRun) Finished() bool { return j != nil && j.FinishedAt != nil }
