package app

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/careerpath-backend/internal/data/db"
	"github.com/yungbote/careerpath-backend/internal/data/repos"
	apphttp "github.com/yungbote/careerpath-backend/internal/http"
	httpH "github.com/yungbote/careerpath-backend/internal/http/handlers"
	httpMW "github.com/yungbote/careerpath-backend/internal/http/middleware"
	"github.com/yungbote/careerpath-backend/internal/observability"
	"github.com/yungbote/careerpath-backend/internal/platform/cacheinv"
	"github.com/yungbote/careerpath-backend/internal/platform/logger"
	"github.com/yungbote/careerpath-backend/internal/services"
)

type App struct {
	Log     *logger.Logger
	Cfg     Config
	DB      *gorm.DB
	Repos   repos.Set
	Metrics *observability.Metrics

	Invalidator  cacheinv.Invalidator
	RoadmapCache *services.RoadmapCache

	Roadmap  services.CareerRoadmapService
	Progress services.CareerProgressService
	Seeder   *services.CatalogSeeder
	Auth     services.AuthService

	Server *apphttp.Server

	store        *db.PostgresService
	shutdownOtel func(context.Context) error
	cancel       context.CancelFunc
}

// New wires storage, services and the HTTP server. Nothing listens until Run.
func New(ctx context.Context, cfg Config) (*App, error) {
	log, err := logger.NewWithOptions(cfg.LogMode, logger.Options{Level: cfg.LogLevel, Redact: true})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if cfg.UsesDefaultSecret() {
		log.Warn("JWT_SECRET_KEY is unset; using the development secret")
	}

	a := &App{Log: log, Cfg: cfg}
	a.shutdownOtel = observability.InitOTel(ctx, log, cfg.Otel)

	store, err := db.NewPostgresService(cfg.DB, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	a.store = store
	a.DB = store.DB()
	if cfg.AutoMigrate {
		if err := store.AutoMigrateAll(); err != nil {
			a.Close()
			return nil, fmt.Errorf("automigrate: %w", err)
		}
	}
	sqlDB, err := a.DB.DB()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	if cfg.MetricsEnabled {
		m, err := observability.New(log)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init metrics: %w", err)
		}
		if err := m.RegisterDBStats(sqlDB); err != nil {
			log.Warn("db stats collector not registered", "error", err)
		}
		a.Metrics = m
	}

	a.Invalidator = wireInvalidator(log, cfg.Redis)

	a.RoadmapCache, err = services.NewRoadmapCache(cfg.RoadmapCacheSize, a.Metrics)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Repos = repos.NewSet(a.DB, log)
	a.Roadmap = services.NewCareerRoadmapService(log, a.Repos, a.Invalidator, a.Metrics, a.RoadmapCache)
	a.Seeder = services.NewCatalogSeeder(log, a.Repos, a.Roadmap)

	var bootstrap services.CareerBootstrapper
	if cfg.Career.BootstrapEnabled {
		bootstrap = a.Seeder
	}
	a.Progress = services.NewCareerProgressService(log, a.Repos, a.Invalidator, a.Metrics, a.RoadmapCache, bootstrap, cfg.Career)
	a.Auth = services.NewAuthService(log, cfg.JWTSecretKey)

	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.ServiceName
	}
	a.Server = apphttp.NewServer(apphttp.RouterConfig{
		Log:                log,
		ServiceName:        serviceName,
		CORSOrigins:        cfg.CORSOrigins,
		Metrics:            a.Metrics,
		AuthMiddleware:     httpMW.NewAuthMiddleware(log, a.Auth),
		CareerHandler:      httpH.NewCareerHandler(log, a.Progress),
		AdminCareerHandler: httpH.NewAdminCareerHandler(log, a.Roadmap),
		HealthHandler:      httpH.NewHealthHandler(sqlDB),
	})
	return a, nil
}

func wireInvalidator(log *logger.Logger, cfg cacheinv.Config) cacheinv.Invalidator {
	if cfg.Addr == "" {
		log.Info("REDIS_ADDR unset; cache invalidation is local only")
		return cacheinv.NewNoop()
	}
	inv, err := cacheinv.NewRedisInvalidator(log, cfg)
	if err != nil {
		log.Warn("redis invalidator unavailable; cache invalidation is local only", "addr", cfg.Addr, "error", err)
		return cacheinv.NewNoop()
	}
	return inv
}

// Start subscribes the roadmap cache to invalidations published by other instances.
func (a *App) Start(ctx context.Context) {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	if err := a.Invalidator.Subscribe(ctx, a.RoadmapCache.HandleTag); err != nil {
		a.Log.Warn("cache invalidation subscribe failed", "error", err)
	}
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Start(ctx)
	a.Log.Info("http server listening", "addr", a.Cfg.HTTPAddr)
	return a.Server.Run(ctx, a.Cfg.HTTPAddr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	var errs []error
	if a.Invalidator != nil {
		errs = append(errs, a.Invalidator.Close())
	}
	if a.shutdownOtel != nil {
		errs = append(errs, a.shutdownOtel(context.Background()))
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if err := errors.Join(errs...); err != nil && a.Log != nil {
		a.Log.Warn("shutdown completed with errors", "error", err)
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
