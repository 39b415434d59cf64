package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	portssvc "github.com/dnbasta/ynab-split-budget/internal/core/ports/services"
	"github.com/dnbasta/ynab-split-budget/internal/middleware"
	"github.com/dnbasta/ynab-split-budget/pkg/config"
)

// RegisterRoutes wires the serve-mode API onto the gin engine.
func RegisterRoutes(r *gin.Engine, cfg *config.Config, reconciler portssvc.ReconcilerSvc, logger *slog.Logger) {
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.Default())

	// reconcile cycles hit the upstream ledger API; keep the surface slow
	rate, _ := limiter.NewRateFromFormatted("30-M")
	rateLimiter := limiter.New(memory.NewStore(), rate)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handler := NewReconcileHandler(reconciler)

	v1 := r.Group("/api/v1", middleware.RateLimit(rateLimiter), middleware.AuthMiddleware(cfg.APISecret))
	v1.POST("/reconcile", handler.Process)
	v1.GET("/charges", handler.Fetch)
	v1.GET("/balance", handler.Balance)
	v1.POST("/sync", handler.SyncKnowledge)
}
