package cache

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/davidleathers/laborboard/internal/domain/moderation"
	"github.com/davidleathers/laborboard/internal/metrics"
)

var _ moderation.ReferenceSource = (*ReferenceCache)(nil)

// ReferenceCache is a read-through cache of the reference tables in front of
// the database loader. Cache failures fall through to the loader so that a
// Redis outage never blocks moderation.
type ReferenceCache struct {
	cache   Cache
	loader  moderation.ReferenceSource
	ttl     time.Duration
	metrics *metrics.Registry
	logger  *zap.Logger
}

func NewReferenceCache(c Cache, loader moderation.ReferenceSource, ttl time.Duration, m *metrics.Registry, logger *zap.Logger) *ReferenceCache {
	if ttl <= 0 {
		ttl = ReferenceTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferenceCache{cache: c, loader: loader, ttl: ttl, metrics: m, logger: logger}
}

func (r *ReferenceCache) LoadSnapshot(ctx context.Context) (moderation.ReferenceSnapshot, error) {
	var snapshot moderation.ReferenceSnapshot
	err := r.cache.GetJSON(ctx, ReferenceKey, &snapshot)
	if err == nil {
		r.metrics.CacheLookup(true)
		return snapshot, nil
	}

	r.metrics.CacheLookup(false)
	var notFound ErrCacheKeyNotFound
	if !errors.As(err, &notFound) {
		r.logger.Warn("reference cache read failed, loading from database", zap.Error(err))
	}

	snapshot, err = r.loader.LoadSnapshot(ctx)
	if err != nil {
		return moderation.ReferenceSnapshot{}, err
	}

	if err := r.cache.SetJSON(ctx, ReferenceKey, snapshot, r.ttl); err != nil {
		r.logger.Warn("reference cache write failed", zap.Error(err))
	}
	return snapshot, nil
}

// Invalidate drops the cached snapshot so the next evaluation sees operator
// edits immediately.
func (r *ReferenceCache) Invalidate(ctx context.Context) error {
	return r.cache.Delete(ctx, ReferenceKey)
}
