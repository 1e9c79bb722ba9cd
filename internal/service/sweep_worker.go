package service

import (
	"context"
	"fmt"
	"time"

	"tanishuv/internal/logger"
	"tanishuv/internal/storage"
)

// DefaultPendingMaxAge is how long an unpaid invoice's pending
// transaction is kept before being swept to failed.
const DefaultPendingMaxAge = 24

// SweepWorker expires abandoned pending purchase transactions in the
// background. A payment arriving after the sweep still settles through
// the webhook's prefix-match fallback.
type SweepWorker struct {
	ctx         context.Context
	cancel      context.CancelFunc
	ticker      *time.Ticker
	maxAgeHours int
}

// NewSweepWorker creates a sweep worker. Interval and max age are
// minutes and hours respectively; non-positive values get defaults.
func NewSweepWorker(intervalMinutes, maxAgeHours int) *SweepWorker {
	if intervalMinutes <= 0 {
		intervalMinutes = 10
	}
	if maxAgeHours <= 0 {
		maxAgeHours = DefaultPendingMaxAge
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &SweepWorker{
		ctx:         ctx,
		cancel:      cancel,
		ticker:      time.NewTicker(time.Duration(intervalMinutes) * time.Minute),
		maxAgeHours: maxAgeHours,
	}
}

// Start begins the background worker
func (w *SweepWorker) Start() {
	logger.Debug("", "sweep_worker_started", fmt.Sprintf("max_age=%dh", w.maxAgeHours))

	// Run immediately on start
	w.sweep()

	go func() {
		for {
			select {
			case <-w.ticker.C:
				w.sweep()
			case <-w.ctx.Done():
				logger.Debug("", "sweep_worker_stopped", "")
				return
			}
		}
	}()
}

// Stop stops the background worker
func (w *SweepWorker) Stop() {
	w.ticker.Stop()
	w.cancel()
}

func (w *SweepWorker) sweep() {
	swept, err := storage.ExpirePendingPurchases(w.maxAgeHours)
	if err != nil {
		logger.Error("", "sweep_failed", err.Error())
		return
	}
	if swept > 0 {
		logger.Debug("", "pending_purchases_swept", fmt.Sprintf("count=%d", swept))
	}
}
