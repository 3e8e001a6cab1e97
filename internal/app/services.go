package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/skillbridge-backend/internal/data/repos"
	"github.com/yungbote/skillbridge-backend/internal/extraction"
	"github.com/yungbote/skillbridge-backend/internal/matching"
	"github.com/yungbote/skillbridge-backend/internal/pipeline"
	"github.com/yungbote/skillbridge-backend/internal/platform/logger"
	"github.com/yungbote/skillbridge-backend/internal/services"
	"github.com/yungbote/skillbridge-backend/internal/skillgraph"
)

type Services struct {
	Catalog    services.CatalogService
	Generation services.GenerationService
	Graph      services.GraphService
	Degrees    services.DegreeService
	Jobs       services.JobService

	Extractor *extraction.Extractor
	Processor *pipeline.Processor
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, clients Clients, reposet repos.Set) (Services, error) {
	log.Info("Wiring services...")

	subjects := matching.NewSubjectMap(nil)
	if cfg.SubjectMapPath != "" {
		m, err := matching.LoadSubjectMap(cfg.SubjectMapPath)
		if err != nil {
			return Services{}, fmt.Errorf("load subject map: %w", err)
		}
		subjects = m
	}

	cache := extraction.NewCache(log, clients.Redis, reposet.AICache, cfg.ExtractionCacheTTL)
	extractor := extraction.NewExtractor(log, clients.LLM, cache)

	builder := skillgraph.NewBuilder(clients.Graph, log)
	engine := skillgraph.NewEngine(clients.Graph, log)

	generation := services.NewGenerationService(db, log, reposet, builder, clients.Graph, extractor)
	return Services{
		Catalog:    services.NewCatalogService(db, log, reposet.Programmes, reposet.Modules),
		Generation: generation,
		Graph:      services.NewGraphService(log, reposet, clients.Graph, builder, engine),
		Degrees:    services.NewDegreeService(log, reposet.Degrees, subjects),
		Jobs:       services.NewJobService(log, reposet.JobRuns),
		Extractor:  extractor,
		Processor:  pipeline.NewProcessor(log, reposet.Modules, extractor, generation, cfg.Pipeline),
	}, nil
}
