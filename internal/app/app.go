package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/skillbridge-backend/internal/data/repos"
	"github.com/yungbote/skillbridge-backend/internal/http"
	"github.com/yungbote/skillbridge-backend/internal/ingestion"
	"github.com/yungbote/skillbridge-backend/internal/observability"
	"github.com/yungbote/skillbridge-backend/internal/platform/gcs"
	"github.com/yungbote/skillbridge-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Clients  Clients
	Repos    repos.Set
	Services Services

	server       *http.Server
	objects      *gcs.Reader
	otelShutdown func(context.Context) error
}

func New(ctx context.Context, cfg Config) (*App, error) {
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	observability.Init(cfg.MetricsEnabled)
	otelShutdown := observability.InitOTel(ctx, log, cfg.Otel)

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}
	theDB := clients.DB.DB()

	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(theDB, log, cfg, clients, reposet)
	if err != nil {
		clients.Close(ctx)
		log.Sync()
		return nil, err
	}

	return &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Clients:      clients,
		Repos:        reposet,
		Services:     serviceset,
		otelShutdown: otelShutdown,
	}, nil
}

// Start wires the HTTP surface; commands that only run a job never call it.
func (a *App) Start() {
	if a == nil || a.Router != nil {
		return
	}
	handlerset := wireHandlers(a.Log, a.Cfg, a.Clients, a.Services)
	a.Router = wireRouter(a.Log, a.Cfg, handlerset)
	a.server = http.NewServerWithEngine(a.Router)
}

func (a *App) Run(addr string) error {
	if a == nil || a.server == nil {
		return fmt.Errorf("app not started")
	}
	a.Log.Info("HTTP server listening", "addr", addr)
	return a.server.Run(addr)
}

func (a *App) Shutdown(ctx context.Context) error {
	if a == nil || a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}

// Objects lazily opens the Cloud Storage reader used for gs:// ingestion sources.
func (a *App) Objects(ctx context.Context) (ingestion.ObjectReader, error) {
	if a.objects == nil {
		r, err := gcs.NewReader(ctx, a.Log, a.Cfg.GCSCredentialsFile)
		if err != nil {
			return nil, err
		}
		a.objects = r
	}
	return a.objects, nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if a.objects != nil {
		_ = a.objects.Close()
	}
	a.Clients.Close(ctx)
	if a.otelShutdown != nil {
		_ = a.otelShutdown(ctx)
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
