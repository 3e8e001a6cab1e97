package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/skillbridge-backend/internal/domain"
	"github.com/yungbote/skillbridge-backend/internal/http/response"
	"github.com/yungbote/skillbridge-backend/internal/services"
)

type GraphHandler struct {
	graph        services.GraphService
	jobs         services.JobService
	defaultLimit int
}

func NewGraphHandler(graph services.GraphService, jobs services.JobService, defaultLimit int) *GraphHandler {
	return &GraphHandler{graph: graph, jobs: jobs, defaultLimit: defaultLimit}
}

type suggestRequest struct {
	Skills []string `json:"skills"`
	Limit  *int     `json:"limit"`
}

// POST /api/skills/suggestions
func (h *GraphHandler) Suggest(c *gin.Context) {
	var req suggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	limit := h.defaultLimit
	if req.Limit != nil {
		limit = *req.Limit
	}
	payload, err := h.graph.Suggest(c.Request.Context(), req.Skills, limit)
	if err != nil {
		respondErr(c, err, "suggest_failed")
		return
	}
	response.RespondOK(c, payload)
}

// POST /api/graph/rebuild
func (h *GraphHandler) Rebuild(c *gin.Context) {
	var rep *services.RebuildReport
	run, err := h.jobs.Track(c.Request.Context(), types.JobTypeRebuildGraph, "http", nil, func(ctx context.Context) (any, error) {
		var err error
		rep, err = h.graph.Rebuild(ctx)
		return rep, err
	})
	setJobID(c, run)
	if err != nil {
		respondErr(c, err, "rebuild_failed")
		return
	}
	response.RespondOK(c, rep)
}
