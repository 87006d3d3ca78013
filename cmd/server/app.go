package main

import (
	"context"
	"fmt"
	"time"

	"github.com/graph-gophers/graphql-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/jacklvd/NEU-scheduler/internal/auth"
	"github.com/jacklvd/NEU-scheduler/internal/config"
	"github.com/jacklvd/NEU-scheduler/internal/database"
	"github.com/jacklvd/NEU-scheduler/internal/graph"
	"github.com/jacklvd/NEU-scheduler/internal/ratelimit"
	"github.com/jacklvd/NEU-scheduler/internal/repository/challenge"
	"github.com/jacklvd/NEU-scheduler/internal/repository/user"
	"github.com/jacklvd/NEU-scheduler/internal/services"
	"github.com/jacklvd/NEU-scheduler/internal/services/ai"
	"github.com/jacklvd/NEU-scheduler/internal/services/catalog"
	"github.com/jacklvd/NEU-scheduler/internal/services/plan"
	"github.com/jacklvd/NEU-scheduler/internal/services/user_services"
)

const (
	janitorInterval      = time.Minute
	catalogCacheInterval = 10 * time.Minute
	redisPingTimeout     = 5 * time.Second
)

// application aggregates everything the HTTP layer needs.
type application struct {
	Config     *config.Config
	Logger     services.Logger
	Schema     *graphql.Schema
	APILimiter *ratelimit.MemoryRateLimiter
	Proxies    ratelimit.TrustedProxies
}

// buildApplication wires repositories, services and the schema. The returned
// cleanup releases background workers and connections in reverse order.
func buildApplication(cfg *config.Config, logger services.Logger) (*application, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*application, func(), error) {
		cleanup()
		return nil, nil, err
	}

	// --- Persistence ---
	db, err := database.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, func() {
		if err := database.Close(db); err != nil {
			logger.Warn("closing database failed", "error", err)
		}
	})

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = newRedisClient(cfg.RedisURL)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func() { _ = rdb.Close() })
	}

	store, err := newChallengeStore(cfg, db, rdb)
	if err != nil {
		return fail(err)
	}
	// redis expires challenges on its own; the other stores need a sweeper
	if cfg.OTPStore != "redis" {
		janitor := challenge.StartJanitor(store, janitorInterval, cfg.OTPRetention, logger)
		closers = append(closers, janitor.Close)
	}

	hasher, err := challenge.NewCodeHasher(cfg.OTPHashKey)
	if err != nil {
		return fail(err)
	}
	tokens, err := auth.NewTokenManager(cfg.JWTSecretKey, cfg.JWTIssuer, cfg.SessionTTL, cfg.SessionMaxLifetime)
	if err != nil {
		return fail(err)
	}
	userRepo := user.NewGormUserRepository(db)

	// --- Email ---
	emailConfig := services.EmailConfigFromApp(cfg)
	emailProvider, err := services.NewEmailProvider(emailConfig, logger)
	if err != nil {
		return fail(err)
	}
	emailService := services.NewEmailService(emailProvider, emailConfig, logger)

	// --- Catalog ---
	catalogConfig := services.CatalogConfigFromApp(cfg)
	if err := catalogConfig.Validate(); err != nil {
		return fail(fmt.Errorf("catalog config: %w", err))
	}
	var cache catalog.Cache
	if rdb != nil {
		cache = catalog.NewRedisCache(rdb)
	} else {
		cache = catalog.NewMemoryCache(catalogCacheInterval)
	}
	catalogService := services.NewCatalogService(catalog.NewBannerClient(catalogConfig), cache, catalogConfig, logger)

	// --- Planning ---
	aiConfig := services.AIConfigFromApp(cfg)
	planConfig := plan.DefaultConfig()
	planConfig.Subjects = cfg.PlanSubjects
	planConfig.Model = cfg.OpenAIModel
	planConfig.Timeout = cfg.LLMTimeout

	var model plan.Model
	if aiService := services.NewAIService(ai.NewOpenAIProvider(aiConfig), aiConfig, logger); aiService != nil {
		model = aiService
	}
	planner := plan.NewService(catalogService, model, planConfig, logger)

	// --- Accounts ---
	otpLimiter := ratelimit.NewMemoryRateLimiter(ratelimit.OTPRequestConfig(cfg.OTPRequestsPerWindow, cfg.OTPRequestWindow))
	closers = append(closers, otpLimiter.Close)
	otpService := user_services.NewOTPService(store, hasher, emailService, otpLimiter,
		user_services.OTPConfig{TTL: cfg.OTPTTL, MaxAttempts: cfg.OTPMaxAttempts}, logger)
	verifier := user_services.NewVerificationService(store, hasher, userRepo, tokens, logger)
	sessions := user_services.NewSessionService(userRepo, tokens, logger)

	// --- GraphQL ---
	schema, err := graph.NewSchema(&graph.Resolver{
		OTP:          otpService,
		Verifier:     verifier,
		Sessions:     sessions,
		Catalog:      catalogService,
		Planner:      planner,
		StoreBackend: cfg.OTPStore,
		Logger:       logger,
	}, !cfg.IsProduction())
	if err != nil {
		return fail(fmt.Errorf("parse schema: %w", err))
	}

	proxies, err := ratelimit.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return fail(fmt.Errorf("parse TRUSTED_PROXIES: %w", err))
	}

	apiLimiter := ratelimit.NewMemoryRateLimiter(ratelimit.APIConfig())
	closers = append(closers, apiLimiter.Close)

	logger.Info("application wired",
		"otp_store", cfg.OTPStore,
		"db_driver", cfg.DBDriver,
		"email_provider", emailProvider.Name(),
		"catalog_cache", cache.Name(),
		"llm_enabled", model != nil,
	)

	return &application{
		Config:     cfg,
		Logger:     logger,
		Schema:     schema,
		APILimiter: apiLimiter,
		Proxies:    proxies,
	}, cleanup, nil
}

func newRedisClient(rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

func newChallengeStore(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (challenge.Store, error) {
	switch cfg.OTPStore {
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("OTP_STORE=redis requires REDIS_URL")
		}
		return challenge.NewRedisStore(rdb, cfg.OTPRetention), nil
	case "sql":
		return challenge.NewGormStore(db), nil
	default:
		return challenge.NewMemoryStore(), nil
	}
}
