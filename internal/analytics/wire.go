package analytics

import (
	"database/sql"

	"go.uber.org/zap"

	"comanda/internal/analytics/controller"
	"comanda/internal/analytics/repository"
	"comanda/internal/analytics/service"
	"comanda/internal/config"
	"comanda/internal/infrastructure/redis"
	menurepo "comanda/internal/menu/repository"
)

// NewModule wires the revenue aggregator. cache may be nil when the
// dashboard cache is not configured.
func NewModule(db *sql.DB, cfg *config.Config, cache redis.Cache, logger *zap.Logger) *controller.AnalyticsController {
	revenueRepo := repository.NewMySQLRevenueRepository(db)
	menuRepo := menurepo.NewMySQLMenuItemRepository(db)

	aggregator := service.NewAggregatorService(revenueRepo, menuRepo, logger)

	return controller.NewAnalyticsController(aggregator, cache, cfg.Analytics.CacheTTL, logger)
}
