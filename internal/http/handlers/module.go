package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/skillbridge-backend/internal/http/response"
	"github.com/yungbote/skillbridge-backend/internal/services"
)

type ModuleHandler struct {
	catalog    services.CatalogService
	generation services.GenerationService
}

func NewModuleHandler(catalog services.CatalogService, generation services.GenerationService) *ModuleHandler {
	return &ModuleHandler{catalog: catalog, generation: generation}
}

// GET /api/modules/:id
func (h *ModuleHandler) GetModule(c *gin.Context) {
	id, ok := parseID(c, "invalid_module_id")
	if !ok {
		return
	}
	m, err := h.catalog.GetModule(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err, "get_module_failed")
		return
	}
	response.RespondOK(c, gin.H{"module": m})
}

// POST /api/modules/:id/generate-skills
func (h *ModuleHandler) GenerateSkills(c *gin.Context) {
	id, ok := parseID(c, "invalid_module_id")
	if !ok {
		return
	}
	res, err := h.generation.GenerateModuleSkills(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err, "generate_skills_failed")
		return
	}
	response.RespondOK(c, res)
}
