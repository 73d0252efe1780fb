package order

import (
	"database/sql"

	"go.uber.org/zap"

	"comanda/internal/config"
	menurepo "comanda/internal/menu/repository"
	"comanda/internal/order/controller"
	orderrepo "comanda/internal/order/repository"
	"comanda/internal/order/service"
	restaurantrepo "comanda/internal/restaurant/repository"
	tablerepo "comanda/internal/table/repository"
)

// NewModule wires the order lifecycle. receipts may be nil when delivery
// is not configured.
func NewModule(db *sql.DB, cfg *config.Config, receipts service.ReceiptDelivery, logger *zap.Logger) *controller.OrderController {
	orderRepo := orderrepo.NewMySQLOrderRepository(db)
	counterRepo := orderrepo.NewMySQLCounterRepository(db)
	tableRepo := tablerepo.NewMySQLTableRepository(db)
	menuRepo := menurepo.NewMySQLMenuItemRepository(db)
	restaurantRepo := restaurantrepo.NewMySQLRestaurantRepository(db)

	sequencer := service.NewSequencer(counterRepo, logger)

	lifecycle := service.NewLifecycleService(
		orderRepo,
		tableRepo,
		menuRepo,
		restaurantRepo,
		sequencer,
		receipts,
		cfg.Receipt.Timeout,
		logger,
	)

	return controller.NewOrderController(lifecycle, tableRepo, logger)
}
