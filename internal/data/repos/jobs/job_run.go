package jobs

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/skillbridge-backend/internal/domain"
	"github.com/yungbote/skillbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/skillbridge-backend/internal/platform/logger"
)

type JobRunRepo interface {
	Create(dbc dbctx.Context, run *types.JobRun) (*types.JobRun, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.JobRun, error)
	ListRecent(dbc dbctx.Context, jobType string, limit int) ([]*types.JobRun, error)
	// Finish moves a running job to a terminal status. It reports false when the
	// job was already finished.
	Finish(dbc dbctx.Context, id uuid.UUID, status string, result datatypes.JSON, errMsg string) (bool, error)
}

type jobRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
	now func() time.Time
}

func NewJobRunRepo(db *gorm.DB, baseLog *logger.Logger) JobRunRepo {
	return &jobRunRepo{
		db:  db,
		log: baseLog.With("repo", "JobRunRepo"),
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (r *jobRunRepo) Create(dbc dbctx.Context, run *types.JobRun) (*types.JobRun, error) {
	if run == nil || run.JobType == "" {
		return nil, errors.New("job type required")
	}
	now := r.now()
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.Status == "" {
		run.Status = types.JobStatusRunning
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = now
	}
	run.CreatedAt = now
	run.UpdatedAt = now
	if err := dbc.DB(r.db).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

func (r *jobRunRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.JobRun, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var run types.JobRun
	err := dbc.DB(r.db).Where("id = ?", id).Take(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *jobRunRepo) ListRecent(dbc dbctx.Context, jobType string, limit int) ([]*types.JobRun, error) {
	if limit <= 0 {
		limit = 20
	}
	q := dbc.DB(r.db).Order("started_at DESC").Limit(limit)
	if jobType != "" {
		q = q.Where("job_type = ?", jobType)
	}
	out := []*types.JobRun{}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *jobRunRepo) Finish(dbc dbctx.Context, id uuid.UUID, status string, result datatypes.JSON, errMsg string) (bool, error) {
	if id == uuid.Nil {
		return false, nil
	}
	now := r.now()
	updates := map[string]interface{}{
		"status":      status,
		"error":       errMsg,
		"finished_at": now,
		"updated_at":  now,
	}
	if len(result) > 0 {
		updates["result"] = result
	}
	res := dbc.DB(r.db).
		Model(&types.JobRun{}).
		Where("id = ? AND status = ?", id, types.JobStatusRunning).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
