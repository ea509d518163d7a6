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

	"cloud.google.com/go/firestore"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/will-chou/capstone-community/handlers"
	"github.com/will-chou/capstone-community/internal/config"
	"github.com/will-chou/capstone-community/internal/database"
	"github.com/will-chou/capstone-community/internal/events"
	"github.com/will-chou/capstone-community/internal/identity"
	"github.com/will-chou/capstone-community/internal/ratelimit"
	"github.com/will-chou/capstone-community/internal/sms"
	"github.com/will-chou/capstone-community/internal/twofactor"
	"github.com/will-chou/capstone-community/internal/users"
	"github.com/will-chou/capstone-community/pkg/logger"
	"github.com/will-chou/capstone-community/pkg/metrics"
	"github.com/will-chou/capstone-community/pkg/middleware"
)

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	if os.Getenv("SERVER_ENVIRONMENT") == "production" {
		logger.InitProduction(os.Getenv("LOG_LEVEL"))
	} else {
		logger.Init(os.Getenv("LOG_LEVEL"))
	}
	defer logger.Sync()
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: env=%s store=%s twofac=%s sms=%s", cfg.Server.Environment, cfg.Store.Backend, cfg.TwoFactor.Store, cfg.SMS.Provider)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1, syscall.SIGUSR2)
	defer stop()

	rdb, err := database.ConnectRedis(ctx, cfg.Redis, 5*time.Second)
	if err != nil {
		logger.Fatalf("failed to connect to Redis: %v", err)
	}
	defer func() { _ = rdb.Close() }()
	logger.Infof("connected to Redis at %s", cfg.Redis.Addr())

	checks := map[string]handlers.Check{
		"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}

	var mongoClient *mongo.Client
	if cfg.MongoDB.URI != "" {
		mongoClient, err = connectMongoWithRetry(ctx, cfg.MongoDB)
		if err != nil {
			logger.Fatalf("%v", err)
		}
		defer func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mongoClient.Disconnect(dctx)
		}()
		checks["mongo"] = func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) }
	}

	var (
		userRepo  users.UserRepository
		eventRepo events.Repository
	)
	switch cfg.Store.Backend {
	case "firestore":
		var fs *firestore.Client
		fs, err = database.ConnectFirestore(ctx, cfg.Firestore.ProjectID)
		if err != nil {
			logger.Fatalf("failed to open Firestore: %v", err)
		}
		defer func() { _ = fs.Close() }()
		userRepo = users.NewFirestoreUserRepository(fs)
		eventRepo = events.NewFirestoreRepo(fs)
		logger.Infof("using Firestore project %s", cfg.Firestore.ProjectID)
	default:
		db := mongoClient.Database(cfg.MongoDB.Database)
		userRepo = users.NewMongoUserRepository(db.Collection(database.UsersCollection))
		eventRepo = events.NewMongoRepo(db)
		logger.Infof("using MongoDB database %s", cfg.MongoDB.Database)
	}

	userSvc := users.NewService(userRepo)
	eventSvc := events.NewService(eventRepo, userSvc)

	revocations := identity.NewRevocationList(rdb, identity.DefaultRevocationTTL)
	verifier, err := buildVerifier(ctx, cfg.Identity)
	if err != nil {
		logger.Fatalf("failed to initialize identity verifier: %v", err)
	}
	verifier = identity.NewRevocationCheckingVerifier(verifier, revocations)

	var upstream identity.AccountDeleter
	if cfg.KeycloakAdminEnabled() {
		i := cfg.Identity
		upstream = identity.NewKeycloakAdmin(i.KeycloakURL, i.KeycloakRealm, i.AdminClientID, i.AdminClientSecret)
	} else {
		logger.Warnf("Keycloak admin not configured: rejected registrations are only revoked locally")
	}
	deleter := identity.NewRevokingDeleter(upstream, revocations)

	sender, err := sms.New(ctx, cfg.SMS)
	if err != nil {
		logger.Fatalf("failed to initialize SMS provider: %v", err)
	}

	var tfRepo twofactor.Repository
	if cfg.TwoFactor.Store == "mongo" {
		tfRepo = twofactor.NewMongoRepository(mongoClient.Database(cfg.MongoDB.Database).Collection(database.TwoFactorCollection))
	} else {
		tfRepo = twofactor.NewRedisRepository(rdb, "")
	}
	tfSvc := twofactor.NewService(tfRepo, userSvc, sender, twofactor.Config{
		CodeTTL:     cfg.TwoFactor.CodeTTL,
		SessionTTL:  cfg.TwoFactor.SessionTTL,
		MaxAttempts: cfg.TwoFactor.MaxAttempts,
	})

	userLimiter, err := newLimiter(rdb, cfg.RateLimit)
	if err != nil {
		logger.Fatalf("failed to initialize rate limiter: %v", err)
	}
	var ipLimiter middleware.Checker
	if cfg.RateLimit.IPEnabled {
		if ipLimiter, err = newLimiter(rdb, cfg.RateLimit); err != nil {
			logger.Fatalf("failed to initialize IP rate limiter: %v", err)
		}
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery(), middleware.CORS())

	handlers.RegisterHealth(r, checks)
	handlers.RegisterSwagger(r)
	handlers.RegisterAPI(r, handlers.API{
		Verifier:    verifier,
		TwoFactor:   tfSvc,
		Users:       userSvc,
		Events:      eventSvc,
		Deleter:     deleter,
		UserLimiter: userLimiter,
		IPLimiter:   ipLimiter,
		Nearby:      cfg.Nearby,
	})

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("starting community service on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("graceful shutdown failed: %v", err)
	}
}

// connectMongoWithRetry tolerates the database starting after the service.
func connectMongoWithRetry(ctx context.Context, cfg config.MongoDBConfig) (*mongo.Client, error) {
	const maxAttempts = 5
	backoff := time.Second
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		client, err := database.ConnectMongo(ctx, cfg)
		if err == nil {
			return client, nil
		}
		lastErr = err
		logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, err)
		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}
	return nil, fmt.Errorf("could not connect to MongoDB after %d attempts: %w", maxAttempts, lastErr)
}

func buildVerifier(ctx context.Context, cfg config.IdentityConfig) (identity.Verifier, error) {
	if cfg.Issuer != "" && cfg.ClientID != "" {
		return identity.NewOIDCVerifier(ctx, cfg.Issuer, cfg.ClientID)
	}
	if cfg.AllowInsecureToken {
		logger.Warn("enabling insecure identity verifier (integration mode)")
		return identity.NewInsecureVerifier(), nil
	}
	return nil, errors.New("no identity provider configured")
}

func newLimiter(rdb *redis.Client, cfg config.RateLimitConfig) (*ratelimit.Limiter, error) {
	return ratelimit.New(rdb, cfg.Limit, cfg.Window, cfg.Bucket)
}
