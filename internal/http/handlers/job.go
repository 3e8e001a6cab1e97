package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/skillbridge-backend/internal/domain"
	"github.com/yungbote/skillbridge-backend/internal/http/response"
	"github.com/yungbote/skillbridge-backend/internal/pipeline"
	"github.com/yungbote/skillbridge-backend/internal/services"
)

const jobIDHeader = "X-Job-Id"

// ModuleProcessor runs one batch of the module-processing pipeline.
type ModuleProcessor interface {
	Run(ctx context.Context, limit int) (pipeline.Report, error)
}

type JobHandler struct {
	processor ModuleProcessor
	jobs      services.JobService
}

func NewJobHandler(processor ModuleProcessor, jobs services.JobService) *JobHandler {
	return &JobHandler{processor: processor, jobs: jobs}
}

type processModulesRequest struct {
	Limit int `json:"limit" binding:"gte=0"`
}

// POST /api/jobs/process-modules
func (h *JobHandler) ProcessModules(c *gin.Context) {
	var req processModulesRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	var rep pipeline.Report
	run, err := h.jobs.Track(c.Request.Context(), types.JobTypeProcessModules, "http", req, func(ctx context.Context) (any, error) {
		var err error
		rep, err = h.processor.Run(ctx, req.Limit)
		return rep, err
	})
	setJobID(c, run)
	if err != nil {
		respondErr(c, err, "process_modules_failed")
		return
	}
	response.RespondOK(c, rep)
}

// GET /api/jobs
func (h *JobHandler) ListJobs(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.RespondError(c, http.StatusBadRequest, "invalid_limit", errors.New("limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	runs, err := h.jobs.List(c.Request.Context(), c.Query("type"), limit)
	if err != nil {
		respondErr(c, err, "list_jobs_failed")
		return
	}
	response.RespondOK(c, gin.H{"jobs": runs})
}

// GET /api/jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return
	}
	run, err := h.jobs.Get(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err, "get_job_failed")
		return
	}
	response.RespondOK(c, gin.H{"job": run})
}

func setJobID(c *gin.Context, run *types.JobRun) {
	if run != nil {
		c.Header(jobIDHeader, run.ID.String())
	}
}
