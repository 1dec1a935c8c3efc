package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/barista-backend/internal/data/db"
	"github.com/yungbote/barista-backend/internal/data/seed"
	types "github.com/yungbote/barista-backend/internal/domain"
	apphttp "github.com/yungbote/barista-backend/internal/http"
	"github.com/yungbote/barista-backend/internal/observability"
	"github.com/yungbote/barista-backend/internal/platform/dbctx"
	"github.com/yungbote/barista-backend/internal/platform/envutil"
	"github.com/yungbote/barista-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Metrics  *observability.Metrics
	Repos    Repos
	Clients  Clients
	Services Services

	dbService    *db.Service
	otelShutdown func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	log, err := logger.New(bootstrapLogMode())
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading configuration...")
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	metrics := observability.Init(log)
	otelShutdown := observability.InitOTel(ctx, log, cfg.Otel)

	dbService, err := db.NewService(cfg.DB, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrateAll(dbService.DB()); err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	theDB := dbService.DB()

	reposet := wireRepos(theDB, log)

	clients, err := wireClients(ctx, log, cfg, metrics)
	if err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, err
	}

	serviceset, err := wireServices(log, cfg, reposet, clients, metrics)
	if err != nil {
		clients.Close()
		_ = dbService.Close()
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(log, theDB, serviceset)
	router := wireRouter(log, cfg, handlerset, metrics)

	return &App{
		Log:          log,
		DB:           theDB,
		Router:       router,
		Cfg:          cfg,
		Metrics:      metrics,
		Repos:        reposet,
		Clients:      clients,
		Services:     serviceset,
		dbService:    dbService,
		otelShutdown: otelShutdown,
	}, nil
}

// SeedMenu upserts the configured menu file, or the embedded default menu.
func (a *App) SeedMenu(ctx context.Context) (int, error) {
	var (
		drinks []*types.Drink
		err    error
	)
	if a.Cfg.Menu.SeedFile != "" {
		drinks, err = seed.LoadFile(a.Cfg.Menu.SeedFile)
	} else {
		drinks, err = seed.Default()
	}
	if err != nil {
		return 0, fmt.Errorf("load menu: %w", err)
	}
	saved, err := a.Repos.Drink.Upsert(dbctx.New(ctx), drinks)
	if err != nil {
		return 0, fmt.Errorf("seed menu: %w", err)
	}
	a.Services.Menu.Invalidate()
	a.Log.Info("Menu seeded", "drinks", len(saved))
	return len(saved), nil
}

// IndexMenu embeds the catalog into the vector store.
func (a *App) IndexMenu(ctx context.Context) (int, error) {
	return a.Services.Indexer.IndexAll(ctx)
}

// Run serves HTTP and metrics until ctx is done. Menu seeding runs first when
// enabled; indexing runs alongside the server and only logs failures, since
// semantic search degrades to empty candidates without it.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	if a.Cfg.Menu.SeedOnStart {
		if _, err := a.SeedMenu(ctx); err != nil {
			return err
		}
	}

	a.Metrics.StartServer(ctx, a.Log, a.Cfg.HTTP.MetricsAddr)

	g, gctx := errgroup.WithContext(ctx)
	if a.Cfg.Vector.IndexOnStart {
		g.Go(func() error {
			if _, err := a.IndexMenu(gctx); err != nil {
				a.Log.Warn("Menu indexing failed; semantic search will return no candidates", "error", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		srv := &apphttp.Server{Engine: a.Router, Log: a.Log}
		return srv.Run(gctx, a.Cfg.HTTP.Addr)
	})
	return g.Wait()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.otelShutdown != nil {
		if err := a.otelShutdown(context.Background()); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	if a.dbService != nil {
		_ = a.dbService.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}

// bootstrapLogMode reads LOG_MODE before the config is loaded so config loading can log.
func bootstrapLogMode() string {
	return envutil.String("LOG_MODE", "development")
}
