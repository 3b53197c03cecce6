package usecase

import (
	"context"
	"sync/atomic"

	"github.com/DRSN-tech/catalog-backend/pkg/logger"
)

// cacheGuard помнит неудачную инвалидацию списка. Пока она не повторена успешно,
// закэшированный список считается устаревшим и не читается и не пишется.
type cacheGuard struct {
	name       string
	invalidate func(ctx context.Context) error
	logger     logger.Logger
	stale      atomic.Bool
}

func newCacheGuard(name string, invalidate func(ctx context.Context) error, logger logger.Logger) *cacheGuard {
	return &cacheGuard{name: name, invalidate: invalidate, logger: logger}
}

// Invalidate вызывается после коммита каждой записи.
func (g *cacheGuard) Invalidate(ctx context.Context) {
	if err := g.invalidate(ctx); err != nil {
		g.stale.Store(true)
		g.logger.Warnf("Failed to invalidate %s cache, bypassing it until retry succeeds: %v", g.name, err)
		return
	}

	g.stale.Store(false)
}

// Usable сообщает, можно ли обращаться к кэшу. После сбоя сначала повторяет инвалидацию.
func (g *cacheGuard) Usable(ctx context.Context) bool {
	if !g.stale.Load() {
		return true
	}

	g.Invalidate(ctx)
	return !g.stale.Load()
}
