package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/davidleathers/laborboard/internal/infrastructure/cache"
	"github.com/davidleathers/laborboard/internal/infrastructure/config"
	"github.com/davidleathers/laborboard/internal/infrastructure/database"
	"github.com/davidleathers/laborboard/internal/infrastructure/telemetry"
	"github.com/davidleathers/laborboard/internal/service"
)

// app holds the connections shared by every subcommand.
type app struct {
	configPath  string
	databaseURL string
	redisURL    string
	noCache     bool
	verbose     bool

	cfg      *config.Config
	logger   *zap.Logger
	pool     *pgxpool.Pool
	cache    cache.Cache
	services *service.Services
}

func newApp() *app {
	return &app{configPath: config.DefaultConfigPath}
}

func (a *app) open(ctx context.Context) error {
	cfg, err := config.LoadFile(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.databaseURL != "" {
		cfg.Database.URL = a.databaseURL
	}
	if a.redisURL != "" {
		cfg.Redis.URL = a.redisURL
	}
	a.cfg = cfg

	level := "warn"
	if a.verbose {
		level = "debug"
	}
	if a.logger, err = telemetry.NewLogger(level, "development"); err != nil {
		return err
	}

	if a.pool, err = database.NewPool(ctx, &cfg.Database, a.logger.Named("database")); err != nil {
		return err
	}

	// Without Redis, edits still land in PostgreSQL and the running
	// moderator picks them up when its snapshot expires.
	if !a.noCache && cfg.Redis.URL != "" {
		c, err := cache.NewRedisCache(&cfg.Redis, a.logger.Named("redis"))
		if err != nil {
			a.logger.Warn("redis unavailable, reference cache will not be invalidated", zap.Error(err))
		} else {
			a.cache = c
		}
	}

	a.services, err = service.NewServices(cfg, a.pool, service.Options{Cache: a.cache}, a.logger)
	return err
}

func (a *app) close() {
	if a.cache != nil {
		_ = a.cache.Close()
		a.cache = nil
	}
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// invalidate drops the cached reference snapshot after a table edit.
func (a *app) invalidate(ctx context.Context) {
	if err := a.services.InvalidateReference(ctx); err != nil {
		a.logger.Warn("failed to invalidate reference cache", zap.Error(err))
	}
}
