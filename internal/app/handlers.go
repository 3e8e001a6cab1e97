package app

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/skillbridge-backend/internal/http"
	httpH "github.com/yungbote/skillbridge-backend/internal/http/handlers"
	"github.com/yungbote/skillbridge-backend/internal/observability"
	"github.com/yungbote/skillbridge-backend/internal/platform/logger"
)

type Handlers struct {
	Health    *httpH.HealthHandler
	Programme *httpH.ProgrammeHandler
	Module    *httpH.ModuleHandler
	Graph     *httpH.GraphHandler
	Job       *httpH.JobHandler
	Degree    *httpH.DegreeHandler
}

func wireHandlers(log *logger.Logger, cfg Config, clients Clients, svc Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:    httpH.NewHealthHandler(readinessChecks(clients)),
		Programme: httpH.NewProgrammeHandler(svc.Catalog, svc.Generation, svc.Graph),
		Module:    httpH.NewModuleHandler(svc.Catalog, svc.Generation),
		Graph:     httpH.NewGraphHandler(svc.Graph, svc.Jobs, cfg.SuggestDefaultLimit),
		Job:       httpH.NewJobHandler(svc.Processor, svc.Jobs),
		Degree:    httpH.NewDegreeHandler(svc.Degrees),
	}
}

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers) *gin.Engine {
	return http.NewRouter(http.RouterConfig{
		Log:              log,
		Metrics:          observability.Current(),
		ServiceName:      cfg.Otel.ServiceName,
		CORSOrigins:      cfg.CORSOrigins,
		Tracing:          cfg.Otel.Enabled,
		HealthHandler:    handlers.Health,
		ProgrammeHandler: handlers.Programme,
		ModuleHandler:    handlers.Module,
		GraphHandler:     handlers.Graph,
		JobHandler:       handlers.Job,
		DegreeHandler:    handlers.Degree,
	})
}

func readinessChecks(c Clients) map[string]httpH.Pinger {
	checks := map[string]httpH.Pinger{}
	if c.DB != nil {
		checks["database"] = func(ctx context.Context) error {
			sqlDB, err := c.DB.DB().DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}
	if c.Neo4j != nil {
		checks["neo4j"] = func(ctx context.Context) error {
			if c.Neo4j.Driver == nil {
				return errors.New("driver closed")
			}
			return c.Neo4j.Driver.VerifyConnectivity(ctx)
		}
	}
	if c.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return c.Redis.Ping(ctx).Err() }
	}
	return checks
}
