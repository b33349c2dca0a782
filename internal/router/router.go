package router

import (
	"time"

	"retailworks/internal/app"
	"retailworks/internal/handler"
	"retailworks/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// New registers middleware and routes on a Gin engine.
// Dependency graph: Handler ← Service (app.Container) ← Repository ← DB/Redis
func New(c *app.Container) *gin.Engine {
	cfg := c.Config
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(middleware.ErrorHandler())

	// ── Handlers ─────────────────────────────────────────────────────────────
	ordersH := handler.NewOrdersHandler(c.Orders)
	inventoryH := handler.NewInventoryHandler(c.Inventory)
	commissionsH := handler.NewCommissionsHandler(c.Commissions)
	warehouseH := handler.NewWarehouseHandler(c.Calendar, c.Etl, c.Facts)
	qualityH := handler.NewQualityHandler(c.Quality)
	adminH := handler.NewAdminHandler(c.Redis)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(c.DB, c.Redis, c.Mailer))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Protected routes
	v1 := r.Group("/v1",
		middleware.RateLimiter(c.Redis, cfg.RateLimit, time.Minute),
		middleware.JWTAuth(cfg.JWTSecret),
	)
	{
		operator := middleware.RequireRole(middleware.RoleOperator)
		analyst := middleware.RequireRole(middleware.RoleAnalyst)
		anyRole := middleware.RequireRole(middleware.RoleOperator, middleware.RoleAnalyst)

		orders := v1.Group("/orders")
		{
			orders.POST("", operator, ordersH.Submit)
			orders.GET("", anyRole, ordersH.List)
			orders.GET("/:id", anyRole, ordersH.Get)
			orders.POST("/:id/status", operator, ordersH.AdvanceStatus)
		}

		inv := v1.Group("/inventory")
		{
			inv.POST("/transactions", operator, inventoryH.ApplyTransaction)
			inv.GET("/alerts", anyRole, inventoryH.Alerts)
			inv.GET("/:product_id", anyRole, inventoryH.GetRecords)
			inv.GET("/:product_id/movements", anyRole, inventoryH.Movements)
		}

		comm := v1.Group("/commissions", analyst)
		{
			comm.POST("", commissionsH.Calculate)
			comm.GET("/:id/statement", commissionsH.Statement)
			comm.POST("/:id/statement/email", commissionsH.EmailStatement)
		}

		v1.POST("/calendar", analyst, warehouseH.BuildCalendar)
		v1.GET("/calendar", anyRole, warehouseH.ListCalendar)
		v1.POST("/etl/runs", analyst, warehouseH.RunEtl)
		v1.GET("/etl/runs", analyst, warehouseH.ListEtlRuns)
		v1.GET("/warehouse/sales", analyst, warehouseH.ListSales)

		dq := v1.Group("/data-quality", analyst)
		{
			dq.POST("/runs", qualityH.Run)
			dq.GET("/issues", qualityH.ListIssues)
			dq.POST("/issues/:id/resolve", qualityH.Resolve)
		}

		if c.Redis != nil {
			v1.GET("/admin/dlq/:queue", middleware.RequireRole(middleware.RoleAdmin), adminH.DeadLetters)
		}
	}

	return r
}
