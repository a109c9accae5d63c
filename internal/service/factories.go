package service

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/davidleathers/laborboard/internal/domain/errors"
	"github.com/davidleathers/laborboard/internal/domain/moderation"
	"github.com/davidleathers/laborboard/internal/infrastructure/cache"
	"github.com/davidleathers/laborboard/internal/infrastructure/config"
	"github.com/davidleathers/laborboard/internal/infrastructure/database"
	"github.com/davidleathers/laborboard/internal/metrics"
	moderationsvc "github.com/davidleathers/laborboard/internal/service/moderation"
	"github.com/davidleathers/laborboard/internal/service/notification"
	"github.com/davidleathers/laborboard/internal/service/settings"
)

// Repositories holds every PostgreSQL repository
type Repositories struct {
	Orders    *database.OrderRepository
	Users     *database.UserRepository
	Patterns  *database.PatternRepository
	Whitelist *database.WhitelistRepository
	Logs      *database.ModerationLogRepository
	Decisions *database.DecisionRepository
	Settings  *database.SettingsRepository
}

// NewRepositories creates all repositories on one pool
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Orders:    database.NewOrderRepository(pool),
		Users:     database.NewUserRepository(pool),
		Patterns:  database.NewPatternRepository(pool),
		Whitelist: database.NewWhitelistRepository(pool),
		Logs:      database.NewModerationLogRepository(pool),
		Decisions: database.NewDecisionRepository(pool),
		Settings:  database.NewSettingsRepository(pool),
	}
}

// Options carries the optional edges of the service graph.
type Options struct {
	// Sender delivers alerts; without it nothing is dispatched.
	Sender notification.Sender
	// Publisher announces evaluations; without it nothing is published.
	Publisher moderationsvc.EventPublisher
	// Cache enables the reference snapshot cache and alert lookups.
	Cache   cache.Cache
	Metrics *metrics.Registry
}

// Services is the wired application
type Services struct {
	Repositories   *Repositories
	Reference      moderation.ReferenceSource
	ReferenceCache *cache.ReferenceCache
	Alerts         *cache.AlertStore
	Dispatcher     *notification.Dispatcher
	Settings       settings.Service
	Moderation     moderationsvc.Service
}

// NewServices wires repositories, caches and services
func NewServices(cfg *config.Config, pool *pgxpool.Pool, opts Options, logger *zap.Logger) (*Services, error) {
	if cfg == nil || pool == nil {
		return nil, errors.NewValidationError("MISSING_DEPENDENCY", "config and database pool are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	repos := NewRepositories(pool)
	s := &Services{Repositories: repos}

	var reference moderation.ReferenceSource = database.NewReferenceSource(repos.Patterns, repos.Whitelist)
	if opts.Cache != nil {
		s.ReferenceCache = cache.NewReferenceCache(opts.Cache, reference, cfg.Moderation.SnapshotTTL, opts.Metrics, logger.Named("reference"))
		s.Alerts = cache.NewAlertStore(opts.Cache, cfg.Moderation.AlertTTL)
		reference = s.ReferenceCache
	}
	s.Reference = reference

	s.Settings = settings.NewService(repos.Settings, nil, logger.Named("settings"), opts.Metrics)

	deps := moderationsvc.Dependencies{
		Orders:      repos.Orders,
		Users:       repos.Users,
		Sensitivity: s.Settings,
		Reference:   reference,
		Logs:        repos.Logs,
		Decisions:   repos.Decisions,
		Publisher:   opts.Publisher,
		Metrics:     opts.Metrics,
		Logger:      logger.Named("moderation"),
	}
	if s.Alerts != nil {
		deps.Alerts = s.Alerts
	}

	if opts.Sender != nil {
		limiter := rate.NewLimiter(rate.Limit(cfg.Telegram.SendRate), cfg.Telegram.SendBurst)
		var store notification.AlertStore
		if s.Alerts != nil {
			store = s.Alerts
		}
		s.Dispatcher = notification.NewDispatcher(repos.Users, opts.Sender, store, limiter,
			cfg.Moderation.PreviewLength, logger.Named("notification"))
		deps.Dispatcher = s.Dispatcher
	}

	svc, err := moderationsvc.NewService(deps)
	if err != nil {
		return nil, err
	}
	s.Moderation = svc

	return s, nil
}

// InvalidateReference drops the cached snapshot after a table edit.
func (s *Services) InvalidateReference(ctx context.Context) error {
	if s.ReferenceCache == nil {
		return nil
	}
	return s.ReferenceCache.Invalidate(ctx)
}
