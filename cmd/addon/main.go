package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/Belphemur/AnimeSub/internal/archive"
	"github.com/Belphemur/AnimeSub/internal/cache"
	"github.com/Belphemur/AnimeSub/internal/client"
	"github.com/Belphemur/AnimeSub/internal/config"
	"github.com/Belphemur/AnimeSub/internal/metadata"
	"github.com/Belphemur/AnimeSub/internal/metrics"
	"github.com/Belphemur/AnimeSub/internal/server"
	"github.com/Belphemur/AnimeSub/internal/services"
)

// cacheLogger adapts the zerolog logger to the cache package's Logger interface.
type cacheLogger struct{}

func (cacheLogger) Error(msg string, err error) {
	logger := config.GetLogger()
	logger.Error().Err(err).Msg(msg)
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		logger := config.GetLogger()
		logger.Warn().Str("duration", value).Msg("Invalid duration, using default")
		return fallback
	}
	return d
}

func newCache(cfg *config.Config, group string, ttl time.Duration) cache.Cache {
	logger := config.GetLogger()
	store, err := cache.New(cfg.Cache.Provider, cache.ProviderConfig{
		Size:          cfg.Cache.Size,
		DefaultTTL:    ttl,
		Logger:        cacheLogger{},
		RedisAddress:  cfg.Cache.Redis.Address,
		RedisPassword: cfg.Cache.Redis.Password,
		RedisDB:       cfg.Cache.Redis.DB,
		Group:         group,
	})
	if err != nil {
		logger.Fatal().Err(err).Str("provider", cfg.Cache.Provider).Str("group", group).Msg("Failed to create cache")
	}
	return store
}

func main() {
	cfg := config.GetConfig()
	logger := config.GetLogger()

	logger.Info().
		Str("animesub_domain", cfg.AnimeSubDomain).
		Str("public_base_url", cfg.PublicBaseURL).
		Int("server_port", cfg.Server.Port).
		Str("cache_provider", cfg.Cache.Provider).
		Msg("Application started with configuration")

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN}); err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Sentry, continuing without error reporting")
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	searchTTL := parseDuration(cfg.Cache.SearchTTL, 30*time.Minute)
	metaTTL := parseDuration(cfg.Cache.MetaTTL, time.Hour)

	searchCache := newCache(cfg, "search", searchTTL)
	metaCache := newCache(cfg, "metadata", metaTTL)
	defer func() {
		if err := metaCache.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close metadata cache")
		}
	}()

	// The client owns (and closes) the search cache.
	siteClient := client.NewClient(cfg, searchCache)
	defer func() {
		if err := siteClient.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close client")
		}
	}()

	resolver := metadata.NewResolver(siteClient.HTTPClient(), metaCache, metaTTL, "", "")

	sevenZip := archive.NewSevenZip(
		cfg.Archive.SevenZipPath,
		parseDuration(cfg.Archive.SevenZipTimeout, 10*time.Second),
	)
	extractor := archive.NewExtractor(sevenZip)

	discovery := services.NewDiscoveryService(
		siteClient,
		resolver,
		parseDuration(cfg.Search.StrategyTimeout, 5*time.Second),
		parseDuration(cfg.Search.DiscoveryDeadline, 8*time.Second),
	)
	downloader := services.NewDownloadService(siteClient, extractor)

	// Start Prometheus metrics HTTP server
	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewHTTPServer(cfg.Server.Address, cfg.Metrics.Port)
		go func() {
			logger.Info().Str("address", metricsServer.Addr).Msg("Starting Prometheus metrics HTTP server")
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatal().Err(err).Msg("Failed to serve metrics")
			}
		}()
		defer func() {
			if err := metricsServer.Shutdown(context.Background()); err != nil {
				logger.Error().Err(err).Msg("Failed to shutdown metrics server")
			}
		}()
	}

	srv := server.NewHTTPServer(server.NewServer(discovery, downloader, cfg.PublicBaseURL), cfg)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Failed to shutdown HTTP server")
		}
	}()

	logger.Info().Str("address", srv.Addr).Msg("Starting addon HTTP server")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("Failed to serve HTTP")
	}

	logger.Info().Msg("Server stopped gracefully")
}
