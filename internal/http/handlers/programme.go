package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/skillbridge-backend/internal/http/response"
	"github.com/yungbote/skillbridge-backend/internal/services"
)

type ProgrammeHandler struct {
	catalog    services.CatalogService
	generation services.GenerationService
	graph      services.GraphService
}

func NewProgrammeHandler(catalog services.CatalogService, generation services.GenerationService, graph services.GraphService) *ProgrammeHandler {
	return &ProgrammeHandler{catalog: catalog, generation: generation, graph: graph}
}

// GET /api/programmes
func (h *ProgrammeHandler) ListProgrammes(c *gin.Context) {
	progs, err := h.catalog.ListProgrammes(c.Request.Context())
	if err != nil {
		respondErr(c, err, "list_programmes_failed")
		return
	}
	response.RespondOK(c, gin.H{"programmes": progs})
}

// GET /api/programmes/:id
func (h *ProgrammeHandler) GetProgramme(c *gin.Context) {
	id, ok := parseID(c, "invalid_programme_id")
	if !ok {
		return
	}
	p, err := h.catalog.GetProgramme(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err, "get_programme_failed")
		return
	}
	response.RespondOK(c, gin.H{"programme": p})
}

// GET /api/programmes/:id/modules
func (h *ProgrammeHandler) ListModules(c *gin.Context) {
	id, ok := parseID(c, "invalid_programme_id")
	if !ok {
		return
	}
	mods, err := h.catalog.ListModules(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err, "list_modules_failed")
		return
	}
	response.RespondOK(c, gin.H{"modules": mods})
}

// POST /api/programmes/:id/generate-relations
func (h *ProgrammeHandler) GenerateRelations(c *gin.Context) {
	id, ok := parseID(c, "invalid_programme_id")
	if !ok {
		return
	}
	rep, err := h.generation.GenerateProgrammeRelations(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err, "generate_relations_failed")
		return
	}
	response.RespondOK(c, rep)
}

// GET /api/programmes/:id/knowledge-graph
func (h *ProgrammeHandler) KnowledgeGraph(c *gin.Context) {
	id, ok := parseID(c, "invalid_programme_id")
	if !ok {
		return
	}
	kg, err := h.graph.KnowledgeGraph(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err, "knowledge_graph_failed")
		return
	}
	response.RespondOK(c, kg)
}

func parseID(c *gin.Context, code string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, code, err)
		return uuid.Nil, false
	}
	return id, true
}
