// Package app is the composition root shared by the HTTP server and retailctl.
package app

import (
	"fmt"
	"time"

	"retailworks/internal/calendar"
	"retailworks/internal/config"
	"retailworks/internal/infra"
	"retailworks/internal/repository"
	"retailworks/internal/service"
	"retailworks/internal/worker"

	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Container holds every wired service.
// Dependency graph: Service ← Repository ← DB/Redis
type Container struct {
	Config     *config.Config
	DB         *gorm.DB
	Redis      *redis.Client // nil when running without Redis
	Mailer     *infra.Mailer
	Dispatcher *worker.Dispatcher

	InventoryRepo repository.InventoryRepository

	Inventory   service.InventoryService
	Orders      service.OrderService
	Commissions service.CommissionService
	Calendar    service.CalendarService
	Dimensions  service.DimensionService
	Facts       service.FactService
	Quality     service.QualityService
	Etl         service.EtlService
}

// New wires repositories and services. rdb may be nil: reorder signals and
// statement emails are then disabled.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*Container, error) {
	ids, err := snowflake.NewNode(cfg.IDNode)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", cfg.IDNode, err)
	}
	fiscalStart := time.Month(cfg.FiscalYearStartMonth)
	if fiscalStart < time.January || fiscalStart > time.December {
		fiscalStart = calendar.DefaultFiscalStartMonth
	}

	c := &Container{Config: cfg, DB: db, Redis: rdb, Mailer: infra.NewMailer(cfg)}

	// ── Repositories ─────────────────────────────────────────────────────────
	refRepo := repository.NewReferenceRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	c.InventoryRepo = repository.NewInventoryRepository(db)
	commissionRepo := repository.NewCommissionRepository(db)
	dateRepo := repository.NewDateDimRepository(db)
	factRepo := repository.NewFactRepository(db)
	qualityRepo := repository.NewQualityRepository(db)
	runRepo := repository.NewEtlRunRepository(db)

	// ── Async side effects ───────────────────────────────────────────────────
	var notifier service.ReorderNotifier
	var emails service.EmailQueue
	if rdb != nil {
		c.Dispatcher = worker.NewDispatcher(rdb, cfg.ReorderAlertTTL())
		notifier = c.Dispatcher
		emails = c.Dispatcher
	}

	// ── Services ─────────────────────────────────────────────────────────────
	c.Inventory = service.NewInventoryService(c.InventoryRepo, notifier, service.InventorySettings{
		DefaultReorderPoint: cfg.DefaultReorderPoint,
		MaxRetries:          cfg.ConflictMaxRetries,
	})
	c.Orders = service.NewOrderService(orderRepo, refRepo, c.Inventory, ids, service.OrderSettings{
		TaxRate:         cfg.TaxRateDecimal(),
		DefaultLocation: cfg.DefaultLocationCode,
		MaxRetries:      cfg.ConflictMaxRetries,
	})
	c.Commissions = service.NewCommissionService(commissionRepo, orderRepo, refRepo, emails,
		cfg.StatementStoragePath, cfg.ConflictMaxRetries)
	c.Calendar = service.NewCalendarService(dateRepo, fiscalStart)
	c.Dimensions = service.NewDimensionService(db, refRepo, cfg.ConflictMaxRetries)
	c.Facts = service.NewFactService(factRepo, orderRepo)
	c.Quality = service.NewQualityService(qualityRepo)
	c.Etl = service.NewEtlService(c.Calendar, c.Dimensions, c.Facts, c.Quality, runRepo, ids)
	return c, nil
}

// WorkerHandlers maps each job type to its processor.
func (c *Container) WorkerHandlers() map[string]worker.Handler {
	var sender worker.Sender
	if c.Mailer.Configured() {
		sender = c.Mailer
	}
	return map[string]worker.Handler{
		worker.JobReorder: worker.NewReorderWorker(sender, c.Config.PurchasingEmail).Process,
		worker.JobEmail:   worker.NewEmailWorker(sender).Process,
	}
}

// ReorderSweep returns the sweep configuration backed by this container.
func (c *Container) ReorderSweep() worker.ReorderSweepConfig {
	return worker.ReorderSweepConfig{Inventory: c.InventoryRepo, Notifier: c.Dispatcher}
}
