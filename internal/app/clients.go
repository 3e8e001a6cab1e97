package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/skillbridge-backend/internal/data/db"
	"github.com/yungbote/skillbridge-backend/internal/data/graph"
	"github.com/yungbote/skillbridge-backend/internal/platform/logger"
	"github.com/yungbote/skillbridge-backend/internal/platform/neo4jdb"
	"github.com/yungbote/skillbridge-backend/internal/platform/openai"
	"github.com/yungbote/skillbridge-backend/internal/platform/redisdb"
)

type Clients struct {
	DB    *db.Service
	Neo4j *neo4jdb.Client
	Redis *goredis.Client
	LLM   openai.Client
	Graph graph.Store
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var c Clients

	dbs, err := db.NewService(log, cfg.DB)
	if err != nil {
		return c, fmt.Errorf("init database: %w", err)
	}
	c.DB = dbs
	if err := dbs.Migrate(); err != nil {
		c.Close(ctx)
		return Clients{}, fmt.Errorf("database migrate: %w", err)
	}

	// Neo4j (optional; falls back to the in-process graph)
	nc, err := neo4jdb.New(ctx, log, cfg.Neo4j)
	if err != nil {
		c.Close(ctx)
		return Clients{}, fmt.Errorf("init neo4j: %w", err)
	}
	c.Neo4j = nc
	if nc != nil {
		store, err := graph.NewNeo4jStore(nc, log)
		if err != nil {
			c.Close(ctx)
			return Clients{}, err
		}
		c.Graph = store
	} else {
		log.Warn("NEO4J_URI not set; using in-memory graph store (run rebuild-graph after restart)")
		c.Graph = graph.NewMemoryStore()
	}

	// Redis (optional cache tier)
	rdb, err := redisdb.New(ctx, log, cfg.Redis)
	if err != nil {
		c.Close(ctx)
		return Clients{}, fmt.Errorf("init redis: %w", err)
	}
	c.Redis = rdb

	// OpenAI
	if cfg.OpenAI.APIKey == "" {
		log.Warn("OPENAI_API_KEY not set; extraction endpoints will return 503")
		c.LLM = openai.Unconfigured()
	} else {
		llm, err := openai.NewClient(log, cfg.OpenAI)
		if err != nil {
			c.Close(ctx)
			return Clients{}, fmt.Errorf("init openai client: %w", err)
		}
		c.LLM = llm
	}
	return c, nil
}

func (c *Clients) Close(ctx context.Context) {
	if c == nil {
		return
	}
	if c.Graph != nil {
		_ = c.Graph.Close(ctx)
	}
	if c.Neo4j != nil {
		_ = c.Neo4j.Close(ctx)
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.DB != nil {
		_ = c.DB.Close()
	}
}
