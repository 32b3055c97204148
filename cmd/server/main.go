package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"currency-conversion-service/internal/adapter/cache"
	httpRouter "currency-conversion-service/internal/adapter/http"
	"currency-conversion-service/internal/adapter/ratelimit"
	"currency-conversion-service/internal/adapter/repository"
	"currency-conversion-service/internal/adapter/store"
	"currency-conversion-service/internal/config"
	"currency-conversion-service/internal/domain/model"
	"currency-conversion-service/internal/domain/ports"
	"currency-conversion-service/internal/metrics"
	"currency-conversion-service/internal/service"
	"currency-conversion-service/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "currency conversion service: %v\n", err)
		os.Exit(1)
	}
}

// run serves until ctx is cancelled or the server fails. Every resource it
// opens is released before it returns.
func run(ctx context.Context) error {
	log := logger.NewLogger(os.Getenv("LOG_LEVEL"))
	log.Info("Starting currency conversion service")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Error("Failed to load configuration", "error", err)
		return err
	}
	log = logger.NewLogger(cfg.LogLevel)

	var redisClient *redis.Client
	if cfg.RedisEnabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancelPing()
		if err != nil {
			log.Error("Failed to connect to redis", "addr", cfg.Redis.Addr, "error", err)
			return fmt.Errorf("connecting to redis at %s: %w", cfg.Redis.Addr, err)
		}
		log.Info("Connected to redis", "addr", cfg.Redis.Addr)
	}

	appMetrics := metrics.NewMetrics(prometheus.DefaultRegisterer)

	rateCache := cache.NewRateCache(log,
		cache.WithTTL[model.ExchangeRateData](cfg.Cache.RateTTL),
		cache.WithMaxSize[model.ExchangeRateData](cfg.Cache.RateSize),
	)
	countryCache := cache.NewCountryCache(log,
		cache.WithTTL[model.CountryInfo](cfg.Cache.CountryTTL),
		cache.WithMaxSize[model.CountryInfo](cfg.Cache.CountrySize),
	)
	appMetrics.RegisterCache("exchange_rates", rateCache.Stats)
	appMetrics.RegisterCache("countries", countryCache.Stats)

	countryRepo := repository.NewCountriesAPI(cfg.CountryAPI.BaseURL, cfg.CountryAPI.Timeout, appMetrics, log)
	rateRepo := repository.NewExchangeAPI(
		cfg.ExchangeAPI.BaseURL,
		cfg.ExchangeAPI.APIKey,
		cfg.ExchangeAPI.Timeout,
		appMetrics,
		log,
	)

	catalogOpts := []service.CatalogOption{
		service.WithReferenceBase(cfg.ExchangeAPI.ReferenceBase),
		service.WithCatalogMetrics(appMetrics),
	}
	if redisClient != nil {
		catalogOpts = append(catalogOpts, service.WithCatalogStore(store.NewRedisCatalogStore(redisClient, cfg.Catalog.SnapshotKey)))
	}
	catalog := service.NewCurrencyCatalog(countryRepo, rateRepo, log, catalogOpts...)
	appMetrics.RegisterCatalog(catalog.Len)

	conversionService := service.NewConversionService(countryRepo, rateRepo, catalog, rateCache, countryCache, appMetrics, log)
	handler := httpRouter.NewHandler(conversionService, catalog, log)

	var routerOpts []httpRouter.RouterOption
	if limiter := newRateLimiter(cfg, redisClient, log); limiter != nil {
		routerOpts = append(routerOpts, httpRouter.WithRateLimiter(limiter))
	}
	router := httpRouter.NewRouter(handler, log, appMetrics, routerOpts...)
	routes := router.SetupRoutes()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      routes,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	jobsCtx, cancelJobs := context.WithCancel(ctx)
	defer cancelJobs()
	var jobs sync.WaitGroup
	jobs.Add(2)
	go func() {
		defer jobs.Done()
		refreshCatalog(jobsCtx, catalog, cfg.Catalog.RefreshInterval, log)
	}()
	go func() {
		defer jobs.Done()
		sweepCaches(jobsCtx, cfg.Cache.CleanupInterval, log, rateCache, countryCache)
	}()

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down server...")
	case err := <-serverErr:
		log.Error("HTTP server error", "error", err)
		runErr = fmt.Errorf("http server: %w", err)
	}

	cancelJobs()
	jobs.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		return errors.Join(runErr, fmt.Errorf("shutting down: %w", err))
	}

	log.Info("Server exited")
	return runErr
}

func newRateLimiter(cfg *config.Config, client *redis.Client, log *logger.Logger) ports.RateLimiter {
	if !cfg.RateLimit.Enabled {
		log.Info("Rate limiting disabled")
		return nil
	}
	if cfg.RateLimit.Backend == config.RateLimitRedis && client != nil {
		log.Info("Using redis rate limiter", "limit", cfg.RateLimit.DailyLimit, "window", cfg.RateLimit.Window)
		return ratelimit.NewRedisLimiter(client, cfg.RateLimit.DailyLimit, cfg.RateLimit.Window)
	}
	log.Info("Using in-memory rate limiter", "daily_limit", cfg.RateLimit.DailyLimit)
	return ratelimit.NewMemoryLimiter(cfg.RateLimit.DailyLimit, log)
}

// refreshCatalog warms the catalog from the last snapshot, then rebuilds it
// from the upstream directory at startup and on every tick.
func refreshCatalog(ctx context.Context, catalog *service.CurrencyCatalog, interval time.Duration, log *logger.Logger) {
	if found, err := catalog.Load(ctx); err != nil {
		log.Warn("Failed to load catalog snapshot", "error", err)
	} else if found {
		log.Info("Catalog loaded from snapshot", "countries", catalog.Len())
	}

	if err := catalog.Refresh(ctx); err != nil {
		log.Error("Failed to refresh currency catalog at startup", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := catalog.Refresh(ctx); err != nil {
				log.Error("Failed to refresh currency catalog", "error", err)
			}
		case <-ctx.Done():
			log.Info("Stopping catalog refresh goroutine")
			return
		}
	}
}

type expiringCache interface {
	ClearExpired() int
}

func sweepCaches(ctx context.Context, interval time.Duration, log *logger.Logger, caches ...expiringCache) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, c := range caches {
				c.ClearExpired()
			}
		case <-ctx.Done():
			log.Info("Stopping cache sweep goroutine")
			return
		}
	}
}
