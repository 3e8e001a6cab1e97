package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/skillbridge-backend/internal/data/repos"
	types "github.com/yungbote/skillbridge-backend/internal/domain"
	"github.com/yungbote/skillbridge-backend/internal/platform/apierr"
	"github.com/yungbote/skillbridge-backend/internal/platform/ctxutil"
	"github.com/yungbote/skillbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/skillbridge-backend/internal/platform/logger"
)

// JobFunc runs one batch and returns the report to store with the run.
type JobFunc func(ctx context.Context) (any, error)

type JobService interface {
	// Track records a run around fn. Bookkeeping failures are logged and never
	// mask fn's own error; the returned run is nil when it could not be recorded.
	Track(ctx context.Context, jobType, trigger string, payload any, fn JobFunc) (*types.JobRun, error)
	Get(ctx context.Context, id uuid.UUID) (*types.JobRun, error)
	List(ctx context.Context, jobType string, limit int) ([]*types.JobRun, error)
}

type jobService struct {
	log  *logger.Logger
	runs repos.JobRunRepo
}

func NewJobService(baseLog *logger.Logger, runs repos.JobRunRepo) JobService {
	return &jobService{log: baseLog.With("service", "JobService"), runs: runs}
}

func (s *jobService) Track(ctx context.Context, jobType, trigger string, payload any, fn JobFunc) (*types.JobRun, error) {
	run, err := s.runs.Create(dbctx.New(ctx), &types.JobRun{
		JobType: jobType,
		Trigger: trigger,
		Payload: toJSON(payload),
	})
	if err != nil {
		s.log.Warn("job run not recorded", "job_type", jobType, "error", err)
	} else {
		ctx = ctxutil.WithJobID(ctx, run.ID.String())
	}

	result, runErr := fn(ctx)
	if run == nil {
		return nil, runErr
	}

	status, msg := types.JobStatusSucceeded, ""
	if runErr != nil {
		status, msg = types.JobStatusFailed, runErr.Error()
	}
	// The request context may already be cancelled; the terminal status still has to land.
	dbc := dbctx.New(context.WithoutCancel(ctx))
	if _, err := s.runs.Finish(dbc, run.ID, status, toJSON(result), msg); err != nil {
		s.log.Warn("job run not finalized", "job_id", run.ID, "job_type", jobType, "error", err)
		return run, runErr
	}
	if fresh, err := s.runs.GetByID(dbc, run.ID); err == nil && fresh != nil {
		run = fresh
	}
	s.log.Info("job finished", append([]interface{}{"job_type", jobType, "status", status}, ctxutil.LogFields(ctx)...)...)
	return run, runErr
}

func (s *jobService) Get(ctx context.Context, id uuid.UUID) (*types.JobRun, error) {
	run, err := s.runs.GetByID(dbctx.New(ctx), id)
	if err != nil {
		return nil, fmt.Errorf("get job run: %w", err)
	}
	if run == nil {
		return nil, apierr.NotFound("job_not_found", fmt.Errorf("job %s not found", id))
	}
	return run, nil
}

func (s *jobService) List(ctx context.Context, jobType string, limit int) ([]*types.JobRun, error) {
	out, err := s.runs.ListRecent(dbctx.New(ctx), strings.TrimSpace(jobType), limit)
	if err != nil {
		return nil, fmt.Errorf("list job runs: %w", err)
	}
	return out, nil
}

func toJSON(v any) datatypes.JSON {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return nil
	}
	return datatypes.JSON(b)
}
