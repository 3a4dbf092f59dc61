package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/univ-archive/api/swagger"
	"github.com/noah-isme/univ-archive/internal/handler"
	"github.com/noah-isme/univ-archive/internal/repository"
	"github.com/noah-isme/univ-archive/internal/service"
	"github.com/noah-isme/univ-archive/pkg/cache"
	"github.com/noah-isme/univ-archive/pkg/config"
	"github.com/noah-isme/univ-archive/pkg/database"
	"github.com/noah-isme/univ-archive/pkg/jobs"
	"github.com/noah-isme/univ-archive/pkg/logger"
	"github.com/noah-isme/univ-archive/pkg/storage"
)

// @title University Archive API
// @version 1.0.0
// @description Browse and administer the university document archive
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	metrics := service.NewMetricsService()

	var cacheRepo *repository.CacheRepository
	var cachePinger service.Pinger
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, catalog cache disabled", zap.Error(err))
		} else {
			defer client.Close()
			cacheRepo = repository.NewCacheRepository(client)
			cachePinger = cacheRepo
		}
	}
	var cacheRepoIface service.CacheRepository
	if cacheRepo != nil {
		cacheRepoIface = cacheRepo
	}
	cacheSvc := service.NewCacheService(cacheRepoIface, metrics, cfg.Cache.CatalogTTL, logr, cacheRepo != nil)

	providers, err := buildStorage(cfg.Storage, logr)
	if err != nil {
		return err
	}

	catalogRepo := repository.NewCatalogRepository(db)
	fileRepo := repository.NewFileRepository(db)
	validate := validator.New()

	authSvc, err := service.NewAuthService(validate, logr, service.AuthConfig{
		PasswordHash: cfg.Admin.PasswordHash,
		Password:     cfg.Admin.Password,
		TokenSecret:  cfg.Admin.JWTSecret,
		TokenTTL:     cfg.Admin.TokenTTL,
	})
	if err != nil {
		return err
	}

	catalogSvc := service.NewCatalogService(catalogRepo, cacheSvc, cfg.Cache.CatalogTTL, logr)
	router := jobs.NewRouter()
	cleanup := jobs.NewQueue("blob-cleanup", router.Dispatch, jobs.QueueConfig{
		Workers:    cfg.Cleanup.Workers,
		MaxRetries: cfg.Cleanup.Retries,
		RetryDelay: cfg.Cleanup.RetryDelay,
		Logger:     logr,
	})
	fileSvc := service.NewFileService(fileRepo, catalogSvc, providers, storage.NewShareSigner(cfg.Share.Secret, cfg.Share.TTL), cleanup, metrics, validate, logr, service.FileServiceConfig{
		MaxFileSize: cfg.Uploads.MaxFileSizeBytes,
		APIPrefix:   cfg.APIPrefix,
	})
	router.Handle(service.JobBlobDelete, fileSvc.HandleBlobDelete)
	statsSvc := service.NewStatsService(fileRepo, metrics, logr)
	healthSvc := service.NewHealthService(catalogRepo, cachePinger, providers.Active().Name(), logr)

	cleanup.Start(context.Background())
	defer cleanup.Stop()

	engine := handler.NewRouter(handler.RouterConfig{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
	}, logr, metrics, handler.Handlers{
		Catalog: handler.NewCatalogHandler(catalogSvc),
		Files:   handler.NewFileHandler(fileSvc, cfg.Uploads.MaxFileSizeBytes),
		Admin:   handler.NewAdminHandler(authSvc, statsSvc),
		Metrics: handler.NewMetricsHandler(metrics, healthSvc),
		Auth:    authSvc,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("storage", providers.Active().Name()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func buildStorage(cfg config.StorageConfig, logr *zap.Logger) (*storage.Registry, error) {
	local, err := storage.NewLocalStorage(cfg.Dir)
	if err != nil {
		return nil, err
	}
	var supabase *storage.SupabaseStorage
	if cfg.SupabaseURL != "" && cfg.SupabaseKey != "" {
		supabase, err = storage.NewSupabaseStorage(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseBucket)
		if err != nil {
			return nil, err
		}
	}

	if cfg.Provider == config.StorageProviderSupabase {
		if supabase == nil {
			return nil, fmt.Errorf("supabase storage selected but SUPABASE_URL/SUPABASE_KEY are missing")
		}
		logr.Info("storage provider", zap.String("active", storage.ProviderSupabase))
		return storage.NewRegistry(supabase, local), nil
	}
	logr.Info("storage provider", zap.String("active", storage.ProviderLocal))
	if supabase != nil {
		return storage.NewRegistry(local, supabase), nil
	}
	return storage.NewRegistry(local), nil
}
