package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/upb/estimate-api/azuread"
	"github.com/upb/estimate-api/config"
	"github.com/upb/estimate-api/internal/observability"
	"github.com/upb/estimate-api/middleware"
	"github.com/upb/estimate-api/repositories"
	"github.com/upb/estimate-api/repositories/postgres"
	"github.com/upb/estimate-api/services/estimate"
	"github.com/upb/estimate-api/session"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config  *config.Config
	DB      *postgres.DB
	Logger  *zap.Logger
	Metrics *observability.Metrics

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Estimates repositories.EstimateRepository
	TxManager repositories.TransactionManager

	// Auth
	Keys     *azuread.KeyDirectory
	Verifier *azuread.Verifier
	Sessions *session.Manager
	AuthGate *middleware.AuthGate

	// Services
	EstimateService *estimate.Service

	redis *redis.Client
}

// NewDependencies opens the database and wires up all application dependencies.
// Failing to fetch the signing keys is fatal: no request can be authorized without them.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps, err := NewDependenciesFromFactory(ctx, cfg, logger, factory)
	if err != nil {
		_ = factory.Close()
		return nil, err
	}
	return deps, nil
}

// NewDependenciesFromFactory wires dependencies over an already opened database.
func NewDependenciesFromFactory(ctx context.Context, cfg *config.Config, logger *zap.Logger, factory *postgres.RepositoryFactory) (*Dependencies, error) {
	deps := &Dependencies{
		Config:      cfg,
		Logger:      logger,
		Metrics:     observability.NewMetrics(),
		RepoFactory: factory,
		DB:          factory.GetDB(),
	}

	repos := factory.NewRepositories()
	deps.Estimates = repos.Estimates
	deps.TxManager = factory.GetTransactionManager()

	if err := deps.initAuth(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}

	store, err := deps.initSessionStore(ctx, cfg, repos)
	if err != nil {
		deps.closeRedis()
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}

	deps.Sessions, err = session.NewManager(store, cfg.Session.Secret, session.ManagerConfig{
		CookieName: cfg.Session.CookieName,
		Secure:     cfg.Session.CookieSecure,
	}, logger.Named("session"))
	if err != nil {
		deps.closeRedis()
		return nil, fmt.Errorf("failed to initialize session manager: %w", err)
	}

	deps.AuthGate = middleware.NewAuthGate(deps.Verifier, deps.Sessions, middleware.AuthConfig{
		TenantID:        cfg.Auth.TenantID,
		AdminGroupID:    cfg.Auth.AdminGroupID,
		TimecardGroupID: cfg.Auth.TimecardGroupID,
	}, deps.Metrics, logger.Named("auth"))

	deps.EstimateService = estimate.NewService(deps.Estimates, deps.TxManager, estimate.Config{
		ResultLimit: cfg.Estimate.ResultLimit,
	}, logger.Named("estimate"))

	logger.Info("all dependencies initialized successfully",
		zap.Int("signing_keys", deps.Keys.Len()),
		zap.String("session_store", cfg.Session.Store))
	return deps, nil
}

// initAuth fetches the tenant's signing keys once and builds the verifier
func (d *Dependencies) initAuth(ctx context.Context, cfg *config.Config) error {
	keys, err := azuread.FetchKeys(ctx, cfg.Auth.TenantID, azuread.FetchOptions{
		BaseURL: cfg.Auth.KeysBaseURL,
		Timeout: cfg.Auth.KeysTimeout,
	})
	if err != nil {
		return err
	}

	d.Keys = keys
	d.Verifier = azuread.NewVerifier(keys, azuread.VerifierConfig{
		AppID:    cfg.Auth.AppID,
		TenantID: cfg.Auth.TenantID,
	}, d.Logger.Named("azuread"))

	d.Logger.Info("signing keys loaded", zap.Strings("kids", keys.KeyIDs()))
	return nil
}

// initSessionStore selects the identity cache backend
func (d *Dependencies) initSessionStore(ctx context.Context, cfg *config.Config, repos *repositories.Repositories) (session.Store, error) {
	switch cfg.Session.Store {
	case config.SessionStoreRedis:
		opts, err := redis.ParseURL(cfg.Session.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		d.redis = redis.NewClient(opts)
		if err := d.redis.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping failed: %w", err)
		}
		return session.NewRedisStore(d.redis, cfg.Session.KeyPrefix), nil

	case config.SessionStoreMemory:
		d.Logger.Warn("using in-memory session store; sessions are lost on restart")
		return session.NewMemoryStore(), nil

	default:
		if err := d.DB.InitSessionSchema(ctx); err != nil {
			return nil, err
		}
		return repos.Sessions, nil
	}
}

func (d *Dependencies) closeRedis() error {
	if d.redis == nil {
		return nil
	}
	err := d.redis.Close()
	d.redis = nil
	return err
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if err := d.closeRedis(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
	}

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
		d.RepoFactory = nil
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
