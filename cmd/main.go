package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"storefront-service/internal/api"
	"storefront-service/internal/config"
	"storefront-service/internal/consumer"
	"storefront-service/internal/repository"
	"storefront-service/internal/service"
	"storefront-service/internal/sharding"
	"storefront-service/internal/validation"
	"storefront-service/migrations"
)

func connectDBEnv(cfg *config.Config) (*sql.DB, error) {
	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open("mysql", cfg.DSN())
		if err == nil {
			err = db.Ping()
			if err == nil {
				log.Info().Msgf("Connected to DB %s", cfg.DBName)
				return db, nil
			}
		}
		log.Warn().Msgf("Retry %d: Failed to connect to DB %s (%s:%s): %v", i+1, cfg.DBName, cfg.DBHost, cfg.DBPort, err)
		time.Sleep(3 * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to DB %s at %s:%s after retries: %v", cfg.DBName, cfg.DBHost, cfg.DBPort, err)
}

func connectRedis(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	return rdb, nil
}

func main() {
	adminToken := flag.String("admin-token", "", "print an admin API token for the given name and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	if *adminToken != "" {
		token, err := api.SignAdminToken(cfg.JWTSecret, *adminToken, 24*time.Hour)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to sign admin token")
		}
		fmt.Println(token)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	seed, err := repository.LoadSeed(cfg.CatalogSeedFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load catalog seed")
	}

	var (
		catalogRepo repository.CatalogRepository
		orderRepo   repository.OrderRepository
	)
	switch cfg.Backend {
	case config.BackendMySQL:
		db, err := connectDBEnv(cfg)
		if err != nil {
			panic(err)
		}
		defer db.Close()

		if err := migrations.AutoMigrate(3, db); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate tables")
		}
		dbx := sqlx.NewDb(db, "mysql")
		seeded, err := migrations.SeedCatalog(ctx, dbx, seed)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to seed catalog")
		}
		if seeded {
			log.Info().Msgf("Seeded %d categories and %d products", len(seed.Categories), len(seed.Products))
		}

		catalogRepo = repository.NewMySQLCatalogRepository(dbx)
		orderRepo = repository.NewMySQLOrderRepository(db)
	default:
		router := sharding.NewShardRouter(cfg.LockShards)
		catalogRepo = repository.NewMemoryCatalogRepository(seed, sharding.NewKeyedLocker(router))
		orderRepo = repository.NewMemoryOrderRepository()
	}
	cartRepo := repository.NewMemoryCartRepository()

	var (
		rdb            *redis.Client
		idempotency    repository.IdempotencyStore    = repository.NewMemoryIdempotencyStore()
		abTestRepo     repository.ABTestRepository     = repository.NewMemoryABTestRepository()
		newsletterRepo repository.NewsletterRepository = repository.NewMemoryNewsletterRepository()
	)
	if cfg.RedisAddr != "" {
		rdb, err = connectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatal().Err(err).Msgf("Failed to connect to redis at %s", cfg.RedisAddr)
		}
		defer rdb.Close()

		idempotency = repository.NewRedisIdempotencyStore(rdb)
		abTestRepo = repository.NewRedisABTestRepository(rdb)
		newsletterRepo = repository.NewRedisNewsletterRepository(rdb)
	}

	catalogService := service.NewCatalogService(catalogRepo, rdb)

	var publisher service.EventPublisher
	if cfg.KafkaEnabled {
		kafkaWriter := config.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaOrderTopic)
		defer kafkaWriter.Close()
		publisher = service.NewKafkaPublisher(kafkaWriter)

		// Evicts cache entries for orders placed by other instances.
		if rdb != nil {
			reader := config.NewKafkaReader(cfg.KafkaBrokers, cfg.KafkaOrderTopic, cfg.KafkaGroupID)
			go func() {
				if err := consumer.NewConsumer(reader, catalogService).Run(ctx); err != nil {
					log.Error().Err(err).Msg("Order event consumer stopped")
				}
			}()
		}
	}

	handlers := api.Handlers{
		Product:    api.NewProductHandler(catalogService),
		Cart:       api.NewCartHandler(service.NewCartService(cartRepo, catalogRepo)),
		Order:      api.NewOrderHandler(service.NewOrderService(orderRepo, catalogRepo, cartRepo, idempotency, publisher, catalogService)),
		ABTest:     api.NewABTestHandler(service.NewABTestService(abTestRepo)),
		Newsletter: api.NewNewsletterHandler(service.NewNewsletterService(newsletterRepo)),
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = validation.New()

	limiterConfig := middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(cfg.RateLimit),
				Burst:     cfg.RateBurst,
				ExpiresIn: 3 * time.Minute,
			}),
		IdentifierExtractor: func(context echo.Context) (string, error) {
			return context.RealIP(), nil
		},
		ErrorHandler: func(context echo.Context, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
		DenyHandler: func(context echo.Context, identifier string, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
	}

	// Middleware
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RateLimiterWithConfig(limiterConfig))

	api.RegisterRoutes(e, handlers, cfg.JWTSecret)

	go func() {
		if err := e.Start(":" + cfg.HTTPPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server stopped")
		}
	}()
	log.Info().Msgf("storefront-service (%s, %s backend) listening on :%s", cfg.AppEnv, cfg.Backend, cfg.HTTPPort)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error shutting down server")
	}
}
