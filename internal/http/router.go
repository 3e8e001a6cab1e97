package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/skillbridge-backend/internal/http/handlers"
	httpMW "github.com/yungbote/skillbridge-backend/internal/http/middleware"
	"github.com/yungbote/skillbridge-backend/internal/observability"
	"github.com/yungbote/skillbridge-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	ServiceName string
	CORSOrigins []string
	Tracing     bool

	ProgrammeHandler *httpH.ProgrammeHandler
	ModuleHandler    *httpH.ModuleHandler
	GraphHandler     *httpH.GraphHandler
	JobHandler       *httpH.JobHandler
	DegreeHandler    *httpH.DegreeHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Tracing {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		// Programmes
		if cfg.ProgrammeHandler != nil {
			api.GET("/programmes", cfg.ProgrammeHandler.ListProgrammes)
			api.GET("/programmes/:id", cfg.ProgrammeHandler.GetProgramme)
			api.GET("/programmes/:id/modules", cfg.ProgrammeHandler.ListModules)
			api.GET("/programmes/:id/knowledge-graph", cfg.ProgrammeHandler.KnowledgeGraph)
			api.POST("/programmes/:id/generate-relations", cfg.ProgrammeHandler.GenerateRelations)
		}

		// Modules
		if cfg.ModuleHandler != nil {
			api.GET("/modules/:id", cfg.ModuleHandler.GetModule)
			api.POST("/modules/:id/generate-skills", cfg.ModuleHandler.GenerateSkills)
		}

		// Graph
		if cfg.GraphHandler != nil {
			api.POST("/skills/suggestions", cfg.GraphHandler.Suggest)
			api.POST("/graph/rebuild", cfg.GraphHandler.Rebuild)
		}

		// Jobs
		if cfg.JobHandler != nil {
			api.POST("/jobs/process-modules", cfg.JobHandler.ProcessModules)
			api.GET("/jobs", cfg.JobHandler.ListJobs)
			api.GET("/jobs/:id", cfg.JobHandler.GetJob)
		}

		// Degrees
		if cfg.DegreeHandler != nil {
			api.GET("/degrees", cfg.DegreeHandler.List)
			api.POST("/match-degrees", cfg.DegreeHandler.Match)
			api.POST("/recommend-course", cfg.DegreeHandler.Recommend)
		}
	}

	return r
}
