package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/skillbridge-backend/internal/http/response"
	"github.com/yungbote/skillbridge-backend/internal/matching"
	"github.com/yungbote/skillbridge-backend/internal/services"
)

type DegreeHandler struct {
	degrees services.DegreeService
}

func NewDegreeHandler(degrees services.DegreeService) *DegreeHandler {
	return &DegreeHandler{degrees: degrees}
}

type matchRequest struct {
	Subjects  map[string]float64 `json:"subjects" binding:"required"`
	Threshold *float64           `json:"threshold" binding:"omitempty,gte=0,lte=1"`
}

// GET /api/degrees
func (h *DegreeHandler) List(c *gin.Context) {
	out, err := h.degrees.List(c.Request.Context())
	if err != nil {
		respondErr(c, err, "list_degrees_failed")
		return
	}
	response.RespondOK(c, gin.H{"degrees": out})
}

// POST /api/match-degrees
func (h *DegreeHandler) Match(c *gin.Context) {
	var req matchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	threshold := matching.DefaultThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	res, err := h.degrees.Match(c.Request.Context(), req.Subjects, threshold)
	if err != nil {
		respondErr(c, err, "match_degrees_failed")
		return
	}
	response.RespondOK(c, res)
}

// POST /api/recommend-course
func (h *DegreeHandler) Recommend(c *gin.Context) {
	var req matchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	names, err := h.degrees.Qualify(c.Request.Context(), req.Subjects)
	if err != nil {
		respondErr(c, err, "recommend_course_failed")
		return
	}
	response.RespondOK(c, gin.H{"qualified_courses": names})
}
