package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"comanda/internal/domain"
	"comanda/internal/dto"
	apperrors "comanda/internal/errors"
	"comanda/internal/order/repository"
)

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	FindByID(ctx context.Context, id uint64) (*domain.Order, error)
	AddLine(ctx context.Context, orderID uint64, line domain.OrderLine) (*domain.Order, error)
	UpdateStatus(ctx context.Context, orderID uint64, newStatus string) (*domain.Order, error)
	Checkout(ctx context.Context, orderID uint64, now time.Time) (*domain.Order, error)
	List(ctx context.Context, restaurantID uint64, filter dto.OrderListFilter) ([]domain.Order, error)
}

type TableRepository interface {
	FindByID(ctx context.Context, id uint64) (*domain.Table, error)
}

type MenuItemRepository interface {
	FindByIDAndRestaurant(ctx context.Context, id, restaurantID uint64) (*domain.MenuItem, error)
}

type RestaurantRepository interface {
	FindByID(ctx context.Context, id uint64) (*domain.Restaurant, error)
}

type OrderNumberSource interface {
	Next(ctx context.Context, now time.Time) string
}

// ReceiptDelivery is the best-effort receipt collaborator. May be nil when
// delivery is not configured.
type ReceiptDelivery interface {
	Send(ctx context.Context, order *domain.Order, destination string) error
}

type LifecycleService struct {
	orders         OrderRepository
	tables         TableRepository
	menu           MenuItemRepository
	restaurants    RestaurantRepository
	sequencer      OrderNumberSource
	receipts       ReceiptDelivery
	receiptTimeout time.Duration
	logger         *zap.Logger
}

func NewLifecycleService(
	orders OrderRepository,
	tables TableRepository,
	menu MenuItemRepository,
	restaurants RestaurantRepository,
	sequencer OrderNumberSource,
	receipts ReceiptDelivery,
	receiptTimeout time.Duration,
	logger *zap.Logger,
) *LifecycleService {
	return &LifecycleService{
		orders:         orders,
		tables:         tables,
		menu:           menu,
		restaurants:    restaurants,
		sequencer:      sequencer,
		receipts:       receipts,
		receiptTimeout: receiptTimeout,
		logger:         logger,
	}
}

// CreateOrder opens a pending order bound to a free table. The store's
// uniqueness constraint decides the race between concurrent creators on
// the same table; this method only pre-validates and maps the outcome.
func (s *LifecycleService) CreateOrder(ctx context.Context, restaurantID uint64, req dto.CreateOrderRequest) (*domain.Order, error) {
	restaurant, err := s.restaurants.FindByID(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if !restaurant.Active {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("restaurant %d is not active", restaurantID))
	}

	table, err := s.tables.FindByID(ctx, req.TableID)
	if err != nil {
		return nil, err
	}
	if table.RestaurantID != restaurantID {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("table %d does not belong to restaurant %d", req.TableID, restaurantID))
	}
	if !table.Active {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("table %d is not active", req.TableID))
	}

	now := time.Now().UTC()
	order := &domain.Order{
		OrderNumber:   s.sequencer.Next(ctx, now),
		RestaurantID:  restaurantID,
		TableID:       req.TableID,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Status:        domain.OrderStatusPending,
		Notes:         req.Notes,
		CreatedAt:     now,
	}

	created, err := s.orders.Create(ctx, order)
	if errors.Is(err, repository.ErrOrderNumberTaken) {
		// Only the timestamp fallback can collide; one fresh number is
		// its retry budget.
		s.logger.Warn("order number collision, retrying with fresh number",
			zap.String("orderNumber", order.OrderNumber))
		order.OrderNumber = s.sequencer.Next(ctx, time.Now().UTC())
		created, err = s.orders.Create(ctx, order)
		if errors.Is(err, repository.ErrOrderNumberTaken) {
			return nil, apperrors.NewConflictError("could not allocate a unique order number")
		}
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("order created",
		zap.Uint64("orderId", created.ID),
		zap.String("orderNumber", created.OrderNumber),
		zap.Uint64("tableId", created.TableID))
	return created, nil
}

// AddItem merges a menu item into an editable order, snapshotting name,
// price and category so later menu edits never touch historical orders.
func (s *LifecycleService) AddItem(ctx context.Context, orderID, menuItemID uint64, quantity int) (*domain.Order, error) {
	if quantity < 1 {
		return nil, apperrors.NewValidationError("validation failed", apperrors.ValidationDetail{
			Field:   "quantity",
			Message: "quantity must be at least 1",
		})
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !domain.CanModifyItems(order.Status) {
		return nil, apperrors.NewInvalidStateError(
			fmt.Sprintf("items cannot be added to an order in status %s", order.Status))
	}

	item, err := s.menu.FindByIDAndRestaurant(ctx, menuItemID, order.RestaurantID)
	if err != nil {
		return nil, err
	}
	if !item.Available {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("menu item %d is not available", menuItemID))
	}

	line := domain.OrderLine{
		MenuItemID:        item.ID,
		NameSnapshot:      item.Name,
		UnitPriceSnapshot: item.Price,
		CategorySnapshot:  item.Category,
		Quantity:          quantity,
	}

	updated, err := s.orders.AddLine(ctx, orderID, line)
	if err != nil {
		return nil, err
	}

	s.logger.Info("item added to order",
		zap.Uint64("orderId", orderID),
		zap.Uint64("menuItemId", menuItemID),
		zap.Int("quantity", quantity),
		zap.Float64("totalAmount", updated.TotalAmount))
	return updated, nil
}

func (s *LifecycleService) SetStatus(ctx context.Context, orderID uint64, status string) (*domain.Order, error) {
	if !domain.ValidStatus(status) {
		return nil, apperrors.NewValidationError("validation failed", apperrors.ValidationDetail{
			Field:   "status",
			Message: fmt.Sprintf("unknown status %q", status),
		})
	}
	if status == domain.OrderStatusCompleted {
		return nil, apperrors.NewInvalidStateError("order completion goes through checkout")
	}

	updated, err := s.orders.UpdateStatus(ctx, orderID, status)
	if err != nil {
		return nil, err
	}

	s.logger.Info("order status changed",
		zap.Uint64("orderId", orderID),
		zap.String("status", status))
	return updated, nil
}

// Checkout completes the order and frees its table, then attempts receipt
// delivery. The checkout is the durable fact: a delivery failure comes
// back as a warning next to the completed order, never as an error.
func (s *LifecycleService) Checkout(ctx context.Context, orderID uint64, receiptAddress string) (*domain.Order, string, error) {
	completed, err := s.orders.Checkout(ctx, orderID, time.Now().UTC())
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("order checked out",
		zap.Uint64("orderId", completed.ID),
		zap.String("orderNumber", completed.OrderNumber),
		zap.Float64("totalAmount", completed.TotalAmount))

	warning := ""
	if s.receipts != nil && receiptAddress != "" {
		sendCtx, cancel := context.WithTimeout(ctx, s.receiptTimeout)
		defer cancel()

		if err := s.receipts.Send(sendCtx, completed, receiptAddress); err != nil {
			warning = "order completed but receipt delivery failed"
			s.logger.Warn("receipt delivery failed",
				zap.Uint64("orderId", completed.ID),
				zap.String("destination", receiptAddress),
				zap.Error(err))
		}
	}

	return completed, warning, nil
}

func (s *LifecycleService) ListOrders(ctx context.Context, restaurantID uint64, filter dto.OrderListFilter) ([]domain.Order, error) {
	if filter.Status != "" && !domain.ValidStatus(filter.Status) {
		return nil, apperrors.NewValidationError("validation failed", apperrors.ValidationDetail{
			Field:   "status",
			Message: fmt.Sprintf("unknown status %q", filter.Status),
		})
	}
	return s.orders.List(ctx, restaurantID, filter)
}
