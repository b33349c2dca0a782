package worker

// reorder_sweep.go
// Background goroutine that periodically re-signals every record still at or
// below its reorder point. Signals lost between commit and enqueue are picked
// up here; the dispatcher's dedupe window keeps purchasing from being spammed.

import (
	"context"
	"time"

	"retailworks/internal/dto"
	"retailworks/internal/repository"

	"github.com/rs/zerolog/log"
)

const reorderSweepInterval = 15 * time.Minute

type ReorderSweepConfig struct {
	Inventory repository.InventoryRepository
	Notifier  interface {
		NotifyReorder(ctx context.Context, signal dto.ReorderSignal) error
	}
	Interval time.Duration
}

// StartReorderSweep launches the sweep goroutine. It respects ctx for shutdown.
func StartReorderSweep(ctx context.Context, cfg ReorderSweepConfig) {
	interval := cfg.Interval
	if interval <= 0 {
		interval = reorderSweepInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Info().Dur("interval", interval).Msg("reorder_sweep: started")
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("reorder_sweep: shutting down")
				return
			case <-ticker.C:
				SweepReorders(ctx, cfg)
			}
		}
	}()
}

// SweepReorders signals every record needing reorder once.
func SweepReorders(ctx context.Context, cfg ReorderSweepConfig) int {
	recs, err := cfg.Inventory.ListReorderAlerts(ctx)
	if err != nil {
		log.Error().Err(err).Msg("reorder_sweep: failed to list alerts")
		return 0
	}
	now := time.Now().UTC().Format(time.RFC3339)
	sent := 0
	for _, r := range recs {
		signal := dto.ReorderSignal{
			ProductID:       r.ProductID.String(),
			LocationCode:    r.LocationCode,
			QuantityOnHand:  r.QuantityOnHand,
			ReorderPoint:    r.ReorderPoint,
			ReorderQuantity: r.ReorderQuantity,
			EmittedAt:       now,
		}
		if err := cfg.Notifier.NotifyReorder(ctx, signal); err != nil {
			log.Warn().Err(err).Str("product_id", signal.ProductID).Msg("reorder_sweep: signal failed")
			continue
		}
		sent++
	}
	if len(recs) > 0 {
		log.Info().Int("below_reorder_point", len(recs)).Msg("reorder_sweep: tick complete")
	}
	return sent
}
