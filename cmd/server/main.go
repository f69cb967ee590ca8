package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lasvegasedge/adtrack-clean-project-sub002/internal/delivery"
	"github.com/lasvegasedge/adtrack-clean-project-sub002/internal/domain"
	"github.com/lasvegasedge/adtrack-clean-project-sub002/internal/infrastructure"
	"github.com/lasvegasedge/adtrack-clean-project-sub002/internal/usecase"
	"github.com/lasvegasedge/adtrack-clean-project-sub002/pkg/clock"
	"github.com/lasvegasedge/adtrack-clean-project-sub002/pkg/config"
	"github.com/lasvegasedge/adtrack-clean-project-sub002/pkg/logger"
	"github.com/lasvegasedge/adtrack-clean-project-sub002/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)
	log.Info("Starting server")

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("Server stopped with error")
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	campaignRepo, businessRepo, closeDB, err := openRepositories(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeDB()

	cache, closeCache, err := openCache(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeCache()

	client := infrastructure.NewHTTPClient(infrastructure.HTTPClientConfig{
		CampaignsURL:       cfg.External.CampaignsAPIURL,
		BusinessesURL:      cfg.External.BusinessesAPIURL,
		SinkURL:            cfg.External.SinkURL,
		SinkSecret:         cfg.External.SinkSecret,
		Timeout:            cfg.Ingest.RequestTimeout,
		MaxRetries:         cfg.Ingest.MaxRetries,
		RetryBackoff:       cfg.Ingest.RetryBackoff,
		RateLimitPerSecond: cfg.Ingest.RateLimitPerSecond,
	}, log, m)

	ingestService := usecase.NewIngestService(campaignRepo, businessRepo, cache, client, log, m, cfg.Ingest.WorkerPoolSize)
	rankingService := usecase.NewRankingService(campaignRepo, businessRepo, cache, exportClient(cfg.External, client), clock.Real{}, log, m,
		usecase.RankingDefaults{
			TimeBasis: domain.TimeBasis(cfg.Ranking.DefaultTimeBasis),
			Normalize: cfg.Ranking.DefaultNormalize,
		})

	catalogService := usecase.NewCatalogService(campaignRepo, clock.Real{}, log)

	gin.SetMode(gin.ReleaseMode)
	handlers := delivery.NewHTTPHandlers(ingestService, rankingService, catalogService, log)
	router := delivery.NewHTTPRouter(handlers, log, m, nil, cfg.Server.RequestTimeout)

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router.SetupRoutes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.RequestTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Server.Port).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	case <-ctx.Done():
		log.Info("Shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

// nil without SINK_URL so exports are refused before any ranking is computed
func exportClient(cfg config.ExternalConfig, client *infrastructure.HTTPClient) domain.ExportClient {
	if cfg.SinkURL == "" {
		return nil
	}
	return client
}

// Postgres when DATABASE_URL is set, in-memory otherwise
func openRepositories(ctx context.Context, cfg *config.Config, log *logger.Logger) (domain.CampaignRepository, domain.BusinessRepository, func(), error) {
	if cfg.Database.URL == "" {
		log.Info("DATABASE_URL not set, using in-memory repositories")
		return infrastructure.NewCampaignRepository(log), infrastructure.NewBusinessRepository(log), func() {}, nil
	}

	db, err := infrastructure.OpenPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := infrastructure.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, nil, nil, err
	}

	log.Info("Using postgres repositories")
	closeDB := func() {
		if err := db.Close(); err != nil {
			log.WithError(err).Warn("Failed to close database")
		}
	}
	return infrastructure.NewPostgresCampaignRepository(db, log), infrastructure.NewPostgresBusinessRepository(db, log), closeDB, nil
}

// Redis when REDIS_ADDR is set, caching disabled otherwise
func openCache(ctx context.Context, cfg *config.Config, log *logger.Logger) (domain.RankingCache, func(), error) {
	if cfg.Redis.Addr == "" {
		log.Info("REDIS_ADDR not set, ranking cache disabled")
		return infrastructure.NoopRankingCache{}, func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.WithField("ttl", cfg.Redis.CacheTTL).Info("Using redis ranking cache")
	return infrastructure.NewRedisRankingCache(client, cfg.Redis.CacheTTL, log), func() { client.Close() }, nil
}
