package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/ashureev/skripsi-cepat/internal/store"
)

// StartExpirySweep runs a background goroutine that periodically marks
// overdue active subscriptions as expired. The read path performs the same
// check lazily, so a missed sweep never grants access past expiry.
func StartExpirySweep(ctx context.Context, repo store.Repository, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("Subscription expiry sweep started", "interval", interval)

		for {
			select {
			case <-ticker.C:
				sweepOnce(ctx, repo)
			case <-ctx.Done():
				slog.Info("Subscription expiry sweep shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func sweepOnce(ctx context.Context, repo store.Repository) {
	expired, err := repo.ExpireOverdueSubscriptions(ctx, time.Now())
	if err != nil {
		slog.Error("Expiry sweep failed", "error", err)
		return
	}
	if expired > 0 {
		slog.Info("Expiry sweep marked subscriptions expired", "count", expired)
	}
}
