package service

import (
	"context"
	"log/slog"
	"time"
)

type expiringCache interface {
	CleanExpired(ctx context.Context) (int64, error)
}

// Janitor periodically deletes expired idempotency cache rows.
type Janitor struct {
	cache    expiringCache
	logger   *slog.Logger
	interval time.Duration
}

func NewJanitor(cache expiringCache, logger *slog.Logger, interval time.Duration) *Janitor {
	return &Janitor{
		cache:    cache,
		logger:   logger,
		interval: interval,
	}
}

// Start blocks until ctx is cancelled.
func (j *Janitor) Start(ctx context.Context) {
	if j.interval <= 0 {
		j.logger.Info("idempotency janitor disabled")
		return
	}
	j.logger.Info("idempotency janitor started", "interval", j.interval)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("idempotency janitor stopped")
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *Janitor) sweep(ctx context.Context) {
	n, err := j.cache.CleanExpired(ctx)
	if err != nil {
		j.logger.Error("failed to clean expired idempotency entries", "error", err)
		return
	}
	if n > 0 {
		j.logger.Info("cleaned expired idempotency entries", "count", n)
	}
}
