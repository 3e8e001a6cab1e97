package app

import (
	"time"

	"github.com/yungbote/skillbridge-backend/internal/data/db"
	"github.com/yungbote/skillbridge-backend/internal/observability"
	"github.com/yungbote/skillbridge-backend/internal/pipeline"
	"github.com/yungbote/skillbridge-backend/internal/platform/envutil"
	"github.com/yungbote/skillbridge-backend/internal/platform/neo4jdb"
	"github.com/yungbote/skillbridge-backend/internal/platform/openai"
	"github.com/yungbote/skillbridge-backend/internal/platform/redisdb"
	"github.com/yungbote/skillbridge-backend/internal/skillgraph"
)

type Config struct {
	Port    string
	LogMode string

	DB       db.Config
	Neo4j    neo4jdb.Config
	Redis    redisdb.Config
	OpenAI   openai.Config
	Pipeline pipeline.Config
	Otel     observability.OtelConfig

	SuggestDefaultLimit int
	ExtractionCacheTTL  time.Duration
	SubjectMapPath      string
	GCSCredentialsFile  string
	MetricsEnabled      bool
	CORSOrigins         []string
}

func LoadConfig() Config {
	return Config{
		Port:    envutil.String("PORT", "8080"),
		LogMode: envutil.String("LOG_MODE", "development"),
		DB: db.Config{
			Driver:   envutil.String("DATABASE_DRIVER", db.DriverPostgres),
			DSN:      envutil.String("DATABASE_DSN", ""),
			Host:     envutil.String("POSTGRES_HOST", "localhost"),
			Port:     envutil.String("POSTGRES_PORT", "5432"),
			User:     envutil.String("POSTGRES_USER", "postgres"),
			Password: envutil.String("POSTGRES_PASSWORD", ""),
			Name:     envutil.String("POSTGRES_NAME", "skillbridge"),
		},
		Neo4j: neo4jdb.Config{
			URI:         envutil.String("NEO4J_URI", ""),
			User:        envutil.String("NEO4J_USER", "neo4j"),
			Password:    envutil.String("NEO4J_PASSWORD", ""),
			Database:    envutil.String("NEO4J_DATABASE", ""),
			Timeout:     time.Duration(envutil.Int("NEO4J_TIMEOUT_SECONDS", 10)) * time.Second,
			MaxPoolSize: envutil.Int("NEO4J_MAX_POOL_SIZE", 50),
		},
		Redis: redisdb.Config{
			Addr:     envutil.String("REDIS_ADDR", ""),
			Password: envutil.String("REDIS_PASSWORD", ""),
			DB:       envutil.Int("REDIS_DB", 0),
		},
		OpenAI: openai.Config{
			APIKey:     envutil.String("OPENAI_API_KEY", ""),
			BaseURL:    envutil.String("OPENAI_BASE_URL", ""),
			Model:      envutil.String("OPENAI_MODEL", ""),
			Timeout:    time.Duration(envutil.Int("OPENAI_TIMEOUT_SECONDS", 60)) * time.Second,
			MaxRetries: envutil.Int("OPENAI_MAX_RETRIES", 3),
			RPS:        envutil.Float("OPENAI_RPS", 2),
			Burst:      envutil.Int("OPENAI_BURST", 2),
		},
		Pipeline: pipeline.Config{
			Concurrency: envutil.Int("PIPELINE_CONCURRENCY", pipeline.DefaultConcurrency),
			BatchLimit:  envutil.Int("PIPELINE_BATCH_LIMIT", pipeline.DefaultBatchLimit),
			UnitTimeout: envutil.Duration("PIPELINE_UNIT_TIMEOUT", pipeline.DefaultUnitTimeout),
		},
		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", "skillbridge"),
			Environment: envutil.String("APP_ENV", "development"),
			Version:     envutil.String("APP_VERSION", ""),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
			Headers:     observability.ParseHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "")),
			SampleRatio: envutil.Float("OTEL_SAMPLE_RATIO", 1),
		},
		SuggestDefaultLimit: envutil.Int("SUGGEST_DEFAULT_LIMIT", skillgraph.DefaultSuggestLimit),
		ExtractionCacheTTL:  envutil.Duration("EXTRACTION_CACHE_TTL", 30*24*time.Hour),
		SubjectMapPath:      envutil.String("SUBJECT_MAP_PATH", ""),
		GCSCredentialsFile:  envutil.String("GOOGLE_APPLICATION_CREDENTIALS", ""),
		MetricsEnabled:      envutil.Bool("METRICS_ENABLED", false),
		CORSOrigins:         envutil.List("CORS_ALLOWED_ORIGINS", nil),
	}
}
