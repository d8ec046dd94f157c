package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/findmyteacher-api/api/swagger"
	"github.com/noah-isme/findmyteacher-api/internal/handler"
	"github.com/noah-isme/findmyteacher-api/internal/repository"
	"github.com/noah-isme/findmyteacher-api/internal/repository/seed"
	"github.com/noah-isme/findmyteacher-api/internal/router"
	"github.com/noah-isme/findmyteacher-api/internal/service"
	"github.com/noah-isme/findmyteacher-api/pkg/cache"
	"github.com/noah-isme/findmyteacher-api/pkg/config"
	"github.com/noah-isme/findmyteacher-api/pkg/database"
	"github.com/noah-isme/findmyteacher-api/pkg/logger"
)

// @title FindMyTeacher API
// @version 1.0.0
// @description Teacher marketplace listing and in-session chat
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	validate := validator.New()
	metrics := service.NewMetricsService()
	checks := map[string]handler.ReadinessCheck{}

	source, closeSource, err := teacherSource(ctx, cfg, logr, checks)
	if err != nil {
		return err
	}
	defer closeSource()

	redisClient := facetCacheClient(ctx, cfg, logr, checks)
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.FacetsTTL, logr, cfg.Cache.Enabled && redisClient != nil)

	listings := service.NewListingService(source, cacheSvc, metrics, validate, logr, service.ListingServiceConfig{
		Prices:    service.PriceDefaults{Min: cfg.Catalog.PriceMinDefault, Max: cfg.Catalog.PriceMaxDefault},
		FacetsTTL: cfg.Cache.FacetsTTL,
	})
	if err := listings.Load(ctx); err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	if err := cacheSvc.Invalidate(ctx, "listing:*"); err != nil {
		logr.Warn("stale facet cache not cleared", zap.Error(err))
	}

	chatRaw, err := repository.SeedBytes(cfg.Chat.SeedFile, seed.Chats)
	if err != nil {
		return err
	}
	chatSeed, err := repository.NewChatSeedRepository(chatRaw, validate)
	if err != nil {
		return err
	}

	sessions := service.NewSessionService(chatSeed, validate, logr, metrics, service.SessionConfig{
		Secret: cfg.Session.Secret,
		TTL:    cfg.Session.TTL,
	})
	chats := service.NewChatService(sessions, metrics, logr)

	engine := router.New(router.Dependencies{
		Config:       cfg,
		Logger:       logr,
		Metrics:      metrics,
		Sessions:     sessions,
		Listings:     handler.NewListingHandler(listings),
		SessionsHTTP: handler.NewSessionHandler(sessions),
		Chats:        handler.NewChatHandler(chats),
		Ops:          handler.NewMetricsHandler(metrics, checks),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", server.Addr), zap.String("env", cfg.Env), zap.String("catalog", cfg.Catalog.Source))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func teacherSource(ctx context.Context, cfg *config.Config, logr *zap.Logger, checks map[string]handler.ReadinessCheck) (service.TeacherSource, func(), error) {
	if cfg.Catalog.Source == config.CatalogSourcePostgres {
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		checks["postgres"] = db.PingContext
		logr.Info("teacher catalog backed by postgres", zap.String("db", cfg.Database.Name))
		return repository.NewTeacherRepository(db), func() { _ = db.Close() }, nil
	}

	raw, err := repository.SeedBytes(cfg.Catalog.SeedFile, seed.Teachers)
	if err != nil {
		return nil, nil, err
	}
	repo, err := repository.NewSeedTeacherRepository(raw)
	if err != nil {
		return nil, nil, err
	}
	return repo, func() {}, nil
}

// facetCacheClient connects to Redis when caching is enabled. A failed
// connection degrades to running without the cache.
func facetCacheClient(ctx context.Context, cfg *config.Config, logr *zap.Logger, checks map[string]handler.ReadinessCheck) *redis.Client {
	if !cfg.Cache.Enabled {
		return nil
	}
	client, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("facet cache disabled", zap.Error(err))
		return nil
	}
	checks["redis"] = cache.Ping(client)
	return client
}
