package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/Vansh1811/INBoxit-sub000/adapter/out/llm"
	"github.com/Vansh1811/INBoxit-sub000/adapter/out/mongodb"
	"github.com/Vansh1811/INBoxit-sub000/adapter/out/persistence"
	"github.com/Vansh1811/INBoxit-sub000/adapter/out/provider"
	"github.com/Vansh1811/INBoxit-sub000/config"
	"github.com/Vansh1811/INBoxit-sub000/core/port/out"
	"github.com/Vansh1811/INBoxit-sub000/core/service/auth"
	"github.com/Vansh1811/INBoxit-sub000/core/service/classification"
	"github.com/Vansh1811/INBoxit-sub000/core/service/scan"
	"github.com/Vansh1811/INBoxit-sub000/infra/database"
	"github.com/Vansh1811/INBoxit-sub000/pkg/cache"
	"github.com/Vansh1811/INBoxit-sub000/pkg/crypto"
	"github.com/Vansh1811/INBoxit-sub000/pkg/logger"
	"github.com/Vansh1811/INBoxit-sub000/pkg/metrics"
	"github.com/Vansh1811/INBoxit-sub000/pkg/resilience"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	redisCachePrefix = "signup:"
	latencyWindow    = 1000
)

// Dependencies holds every long-lived collaborator of the service.
type Dependencies struct {
	Config *config.Config

	// Stores
	DB    *pgxpool.Pool
	SQLDB *sqlx.DB
	Redis *redis.Client
	Mongo *mongo.Client

	// Cache; MemoryCache is nil when the Redis backend is selected.
	Cache       out.Cache
	MemoryCache *cache.MemoryCache

	Latency *metrics.LatencyRegistry

	// Adapters
	UserStore    *persistence.UserAdapter
	ServiceStore *mongodb.ServiceAdapter
	Gmail        *provider.GmailClientFactory

	// Services
	TokenManager *auth.TokenManager
	ScanService  *scan.Service
}

func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	deps, err := buildDependencies(ctx, cfg, &cleanups)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return deps, cleanup, nil
}

func buildDependencies(ctx context.Context, cfg *config.Config, cleanups *[]func()) (*Dependencies, error) {
	deps := &Dependencies{
		Config:  cfg,
		Latency: metrics.NewLatencyRegistry(latencyWindow),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	// Database (pgx pool for health checks)
	db, err := database.NewPostgres(ctx, cfg.DatabaseURL, nil)
	if err != nil {
		return nil, err
	}
	deps.DB = db
	*cleanups = append(*cleanups, db.Close)

	// Database (sqlx for adapters)
	sqlDB, err := database.NewSQLX(ctx, cfg.DatabaseURL, 10)
	if err != nil {
		return nil, err
	}
	deps.SQLDB = sqlDB
	*cleanups = append(*cleanups, func() { sqlDB.Close() })
	logger.Info("Postgres connected")

	// Redis (optional unless it backs the cache)
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedis(ctx, cfg.RedisURL, nil)
		if err != nil {
			if cfg.CacheBackend == config.CacheBackendRedis {
				return nil, err
			}
			logger.WithError(err).Warn("Redis unavailable, continuing without it")
		} else {
			deps.Redis = redisClient
			*cleanups = append(*cleanups, func() { redisClient.Close() })
			logger.Info("Redis connected")
		}
	}

	// MongoDB (optional result sink)
	if cfg.MongoDBURL != "" {
		mongoClient, err := mongodb.NewClient(ctx, cfg.MongoDBURL)
		if err != nil {
			logger.WithError(err).Warn("MongoDB unavailable, detected services will not be persisted")
		} else {
			deps.Mongo = mongoClient
			*cleanups = append(*cleanups, func() {
				if err := mongoClient.Disconnect(context.Background()); err != nil {
					logger.WithError(err).Warn("MongoDB disconnect failed")
				}
			})

			store := mongodb.NewServiceAdapter(mongoClient.Database(cfg.MongoDBName))
			if err := store.EnsureIndexes(ctx); err != nil {
				logger.WithError(err).Warn("Failed to ensure MongoDB indexes")
			}
			deps.ServiceStore = store
			logger.Info("MongoDB connected (database=%s)", cfg.MongoDBName)
		}
	}

	// Cache
	switch cfg.CacheBackend {
	case config.CacheBackendRedis:
		deps.Cache = cache.NewRedisCache(deps.Redis, redisCachePrefix)
	default:
		ttl := cache.NewTTLCache(&cache.TTLConfig{SweepInterval: cfg.CacheSweepInterval})
		*cleanups = append(*cleanups, ttl.Close)
		deps.MemoryCache = cache.NewMemoryCache(ttl)
		deps.Cache = deps.MemoryCache
	}
	logger.Info("Cache backend: %s", cfg.CacheBackend)

	// User store
	var enc *crypto.Encryptor
	if cfg.EncryptionKey != "" {
		enc, err = crypto.NewEncryptor([]byte(cfg.EncryptionKey))
		if err != nil {
			return nil, fmt.Errorf("init encryptor: %w", err)
		}
	} else {
		logger.Warn("ENCRYPTION_KEY not set, tokens are stored in plaintext")
	}
	deps.UserStore = persistence.NewUserAdapter(sqlDB, enc)
	if err := deps.UserStore.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	// Gmail
	gmailCfg := &provider.GmailConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Latency:      deps.Latency,
	}
	deps.Gmail = provider.NewGmailClientFactory(gmailCfg)
	refresher := provider.NewGoogleTokenRefresher(gmailCfg.OAuthConfig(), nil)

	deps.TokenManager = auth.NewTokenManager(deps.UserStore, refresher, deps.Gmail, auth.TokenManagerConfig{
		RefreshThreshold: cfg.TokenRefreshThreshold,
		Latency:          deps.Latency,
	})

	// Scan pipeline
	opts := []scan.Option{
		scan.WithRetryPolicy(&resilience.RetryPolicy{
			MaxRetries:  cfg.RetryMaxRetries,
			BaseDelay:   cfg.RetryBaseDelay,
			IsRetryable: out.IsRetryable,
		}),
	}
	if cfg.OpenAIAPIKey != "" {
		opts = append(opts, scan.WithEnricher(llm.NewLabelEnricher(llm.Config{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.LLMModel,
		})))
		logger.Info("Label enrichment enabled (model=%s)", cfg.LLMModel)
	}

	deps.ScanService = scan.NewService(
		deps.TokenManager,
		classification.NewPlatformClassifier(nil),
		deps.Cache,
		ScanConfig(cfg),
		opts...,
	)

	return deps, nil
}

// ScanConfig maps environment settings onto the pipeline configuration.
func ScanConfig(cfg *config.Config) scan.Config {
	sc := scan.DefaultConfig()
	sc.ServerBatchSize = cfg.ScanServerBatchSize
	sc.ChunkSize = cfg.ScanChunkSize
	sc.PageDelay = cfg.ScanPageDelay
	sc.ChunkDelay = cfg.ScanChunkDelay
	sc.DefaultMaxMessages = cfg.ScanDefaultMaxMessages
	sc.CacheTTL = cfg.ScanCacheTTL
	if cfg.ScanExcludedDomains != nil {
		sc.ExcludedDomains = cfg.ScanExcludedDomains
	}
	return sc
}
