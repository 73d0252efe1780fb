package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"comanda/internal/domain"
	"comanda/internal/dto"
	apperrors "comanda/internal/errors"
	"comanda/internal/order/repository"
)

type mockOrderRepository struct {
	CreateFunc       func(ctx context.Context, order *domain.Order) (*domain.Order, error)
	FindByIDFunc     func(ctx context.Context, id uint64) (*domain.Order, error)
	AddLineFunc      func(ctx context.Context, orderID uint64, line domain.OrderLine) (*domain.Order, error)
	UpdateStatusFunc func(ctx context.Context, orderID uint64, newStatus string) (*domain.Order, error)
	CheckoutFunc     func(ctx context.Context, orderID uint64, now time.Time) (*domain.Order, error)
	ListFunc         func(ctx context.Context, restaurantID uint64, filter dto.OrderListFilter) ([]domain.Order, error)
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	return m.CreateFunc(ctx, order)
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id uint64) (*domain.Order, error) {
	return m.FindByIDFunc(ctx, id)
}

func (m *mockOrderRepository) AddLine(ctx context.Context, orderID uint64, line domain.OrderLine) (*domain.Order, error) {
	return m.AddLineFunc(ctx, orderID, line)
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, orderID uint64, newStatus string) (*domain.Order, error) {
	return m.UpdateStatusFunc(ctx, orderID, newStatus)
}

func (m *mockOrderRepository) Checkout(ctx context.Context, orderID uint64, now time.Time) (*domain.Order, error) {
	return m.CheckoutFunc(ctx, orderID, now)
}

func (m *mockOrderRepository) List(ctx context.Context, restaurantID uint64, filter dto.OrderListFilter) ([]domain.Order, error) {
	return m.ListFunc(ctx, restaurantID, filter)
}

type mockTableRepository struct {
	FindByIDFunc func(ctx context.Context, id uint64) (*domain.Table, error)
}

func (m *mockTableRepository) FindByID(ctx context.Context, id uint64) (*domain.Table, error) {
	return m.FindByIDFunc(ctx, id)
}

type mockMenuItemRepository struct {
	FindByIDAndRestaurantFunc func(ctx context.Context, id, restaurantID uint64) (*domain.MenuItem, error)
}

func (m *mockMenuItemRepository) FindByIDAndRestaurant(ctx context.Context, id, restaurantID uint64) (*domain.MenuItem, error) {
	return m.FindByIDAndRestaurantFunc(ctx, id, restaurantID)
}

type mockRestaurantRepository struct {
	FindByIDFunc func(ctx context.Context, id uint64) (*domain.Restaurant, error)
}

func (m *mockRestaurantRepository) FindByID(ctx context.Context, id uint64) (*domain.Restaurant, error) {
	return m.FindByIDFunc(ctx, id)
}

type mockSequencer struct {
	NextFunc func(ctx context.Context, now time.Time) string
}

func (m *mockSequencer) Next(ctx context.Context, now time.Time) string {
	return m.NextFunc(ctx, now)
}

type mockReceiptDelivery struct {
	SendFunc func(ctx context.Context, order *domain.Order, destination string) error
}

func (m *mockReceiptDelivery) Send(ctx context.Context, order *domain.Order, destination string) error {
	return m.SendFunc(ctx, order, destination)
}

func activeRestaurant(id uint64) *mockRestaurantRepository {
	return &mockRestaurantRepository{
		FindByIDFunc: func(ctx context.Context, restaurantID uint64) (*domain.Restaurant, error) {
			return &domain.Restaurant{ID: id, OwnerID: 1, Name: "Casa Prueba", Active: true}, nil
		},
	}
}

func freeTable(id, restaurantID uint64) *mockTableRepository {
	return &mockTableRepository{
		FindByIDFunc: func(ctx context.Context, tableID uint64) (*domain.Table, error) {
			return &domain.Table{ID: id, RestaurantID: restaurantID, Name: "T1", Capacity: 4, Active: true}, nil
		},
	}
}

func fixedSequencer(number string) *mockSequencer {
	return &mockSequencer{
		NextFunc: func(ctx context.Context, now time.Time) string { return number },
	}
}

func newTestLifecycle(
	orders OrderRepository,
	tables TableRepository,
	menu MenuItemRepository,
	restaurants RestaurantRepository,
	sequencer OrderNumberSource,
	receipts ReceiptDelivery,
) *LifecycleService {
	return NewLifecycleService(orders, tables, menu, restaurants, sequencer, receipts, time.Second, zap.NewNop())
}

func TestCreateOrder_Success(t *testing.T) {
	var inserted *domain.Order
	orders := &mockOrderRepository{
		CreateFunc: func(ctx context.Context, order *domain.Order) (*domain.Order, error) {
			inserted = order
			created := *order
			created.ID = 42
			return &created, nil
		},
	}

	svc := newTestLifecycle(orders, freeTable(5, 10), nil, activeRestaurant(10), fixedSequencer("ORD250114001"), nil)

	order, err := svc.CreateOrder(context.Background(), 10, dto.CreateOrderRequest{TableID: 5, Notes: "window seat"})

	assert.NoError(t, err)
	assert.Equal(t, uint64(42), order.ID)
	assert.Equal(t, "ORD250114001", order.OrderNumber)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, uint64(5), inserted.TableID)
	assert.Equal(t, "window seat", inserted.Notes)
	assert.Equal(t, 0.0, inserted.TotalAmount)
}

func TestCreateOrder_TableBelongsToOtherRestaurant(t *testing.T) {
	tables := &mockTableRepository{
		FindByIDFunc: func(ctx context.Context, id uint64) (*domain.Table, error) {
			return &domain.Table{ID: id, RestaurantID: 99, Active: true}, nil
		},
	}

	svc := newTestLifecycle(nil, tables, nil, activeRestaurant(10), nil, nil)

	_, err := svc.CreateOrder(context.Background(), 10, dto.CreateOrderRequest{TableID: 5})

	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestCreateOrder_InactiveTable(t *testing.T) {
	tables := &mockTableRepository{
		FindByIDFunc: func(ctx context.Context, id uint64) (*domain.Table, error) {
			return &domain.Table{ID: id, RestaurantID: 10, Active: false}, nil
		},
	}

	svc := newTestLifecycle(nil, tables, nil, activeRestaurant(10), nil, nil)

	_, err := svc.CreateOrder(context.Background(), 10, dto.CreateOrderRequest{TableID: 5})

	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestCreateOrder_OccupiedTableConflictNamesExistingOrder(t *testing.T) {
	orders := &mockOrderRepository{
		CreateFunc: func(ctx context.Context, order *domain.Order) (*domain.Order, error) {
			return nil, apperrors.NewConflictErrorWithID("table 5 already has active order 17", "17")
		},
	}

	svc := newTestLifecycle(orders, freeTable(5, 10), nil, activeRestaurant(10), fixedSequencer("ORD250114002"), nil)

	_, err := svc.CreateOrder(context.Background(), 10, dto.CreateOrderRequest{TableID: 5})

	ce, ok := apperrors.IsConflictError(err)
	assert.True(t, ok)
	assert.Equal(t, "17", ce.ConflictingID)
}

func TestCreateOrder_RetriesOnceOnNumberCollision(t *testing.T) {
	attempts := 0
	orders := &mockOrderRepository{
		CreateFunc: func(ctx context.Context, order *domain.Order) (*domain.Order, error) {
			attempts++
			if attempts == 1 {
				return nil, repository.ErrOrderNumberTaken
			}
			created := *order
			created.ID = 43
			return &created, nil
		},
	}

	numbers := []string{"ORD250114001", "ORD250114002"}
	calls := 0
	sequencer := &mockSequencer{
		NextFunc: func(ctx context.Context, now time.Time) string {
			n := numbers[calls]
			calls++
			return n
		},
	}

	svc := newTestLifecycle(orders, freeTable(5, 10), nil, activeRestaurant(10), sequencer, nil)

	order, err := svc.CreateOrder(context.Background(), 10, dto.CreateOrderRequest{TableID: 5})

	assert.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, "ORD250114002", order.OrderNumber)
}

func TestCreateOrder_NumberCollisionExhaustsRetry(t *testing.T) {
	orders := &mockOrderRepository{
		CreateFunc: func(ctx context.Context, order *domain.Order) (*domain.Order, error) {
			return nil, repository.ErrOrderNumberTaken
		},
	}

	svc := newTestLifecycle(orders, freeTable(5, 10), nil, activeRestaurant(10), fixedSequencer("ORD250114001"), nil)

	_, err := svc.CreateOrder(context.Background(), 10, dto.CreateOrderRequest{TableID: 5})

	_, ok := apperrors.IsConflictError(err)
	assert.True(t, ok)
}

func TestAddItem_RejectsNonPositiveQuantity(t *testing.T) {
	svc := newTestLifecycle(nil, nil, nil, nil, nil, nil)

	for _, qty := range []int{0, -3} {
		_, err := svc.AddItem(context.Background(), 1, 7, qty)
		ve, ok := apperrors.IsValidationError(err)
		assert.True(t, ok)
		assert.Equal(t, "quantity", ve.Details[0].Field)
	}
}

func TestAddItem_RejectsNonEditableOrder(t *testing.T) {
	orders := &mockOrderRepository{
		FindByIDFunc: func(ctx context.Context, id uint64) (*domain.Order, error) {
			return &domain.Order{ID: id, Status: domain.OrderStatusPreparing}, nil
		},
	}

	svc := newTestLifecycle(orders, nil, nil, nil, nil, nil)

	_, err := svc.AddItem(context.Background(), 1, 7, 2)

	_, ok := apperrors.IsInvalidStateError(err)
	assert.True(t, ok)
}

func TestAddItem_RejectsUnavailableItem(t *testing.T) {
	orders := &mockOrderRepository{
		FindByIDFunc: func(ctx context.Context, id uint64) (*domain.Order, error) {
			return &domain.Order{ID: id, RestaurantID: 10, Status: domain.OrderStatusPending}, nil
		},
	}
	menu := &mockMenuItemRepository{
		FindByIDAndRestaurantFunc: func(ctx context.Context, id, restaurantID uint64) (*domain.MenuItem, error) {
			return &domain.MenuItem{ID: id, RestaurantID: restaurantID, Available: false}, nil
		},
	}

	svc := newTestLifecycle(orders, nil, menu, nil, nil, nil)

	_, err := svc.AddItem(context.Background(), 1, 7, 2)

	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestAddItem_SnapshotsMenuItemState(t *testing.T) {
	var captured domain.OrderLine
	orders := &mockOrderRepository{
		FindByIDFunc: func(ctx context.Context, id uint64) (*domain.Order, error) {
			return &domain.Order{ID: id, RestaurantID: 10, Status: domain.OrderStatusConfirmed}, nil
		},
		AddLineFunc: func(ctx context.Context, orderID uint64, line domain.OrderLine) (*domain.Order, error) {
			captured = line
			return &domain.Order{ID: orderID}, nil
		},
	}
	menu := &mockMenuItemRepository{
		FindByIDAndRestaurantFunc: func(ctx context.Context, id, restaurantID uint64) (*domain.MenuItem, error) {
			return &domain.MenuItem{
				ID: id, RestaurantID: restaurantID,
				Name: "Paneer Tikka", Category: "starters", Price: 220, Available: true,
			}, nil
		},
	}

	svc := newTestLifecycle(orders, nil, menu, nil, nil, nil)

	_, err := svc.AddItem(context.Background(), 1, 7, 2)

	assert.NoError(t, err)
	assert.Equal(t, "Paneer Tikka", captured.NameSnapshot)
	assert.Equal(t, 220.0, captured.UnitPriceSnapshot)
	assert.Equal(t, "starters", captured.CategorySnapshot)
	assert.Equal(t, 2, captured.Quantity)
}

func TestSetStatus_RejectsUnknownStatus(t *testing.T) {
	svc := newTestLifecycle(nil, nil, nil, nil, nil, nil)

	_, err := svc.SetStatus(context.Background(), 1, "shipped")

	_, ok := apperrors.IsValidationError(err)
	assert.True(t, ok)
}

func TestSetStatus_RejectsCompleted(t *testing.T) {
	svc := newTestLifecycle(nil, nil, nil, nil, nil, nil)

	_, err := svc.SetStatus(context.Background(), 1, domain.OrderStatusCompleted)

	_, ok := apperrors.IsInvalidStateError(err)
	assert.True(t, ok)
}

func TestCheckout_EmptyOrderFailsValidation(t *testing.T) {
	orders := &mockOrderRepository{
		CheckoutFunc: func(ctx context.Context, orderID uint64, now time.Time) (*domain.Order, error) {
			return nil, apperrors.NewValidationError("cannot checkout an empty order")
		},
	}

	svc := newTestLifecycle(orders, nil, nil, nil, nil, nil)

	_, _, err := svc.Checkout(context.Background(), 1, "")

	_, ok := apperrors.IsValidationError(err)
	assert.True(t, ok)
}

func TestCheckout_ReceiptFailureIsWarningNotError(t *testing.T) {
	completedAt := time.Now().UTC()
	orders := &mockOrderRepository{
		CheckoutFunc: func(ctx context.Context, orderID uint64, now time.Time) (*domain.Order, error) {
			return &domain.Order{
				ID: orderID, Status: domain.OrderStatusCompleted,
				TotalAmount: 660, CompletedAt: &completedAt,
			}, nil
		},
	}
	receipts := &mockReceiptDelivery{
		SendFunc: func(ctx context.Context, order *domain.Order, destination string) error {
			return errors.New("broker unreachable")
		},
	}

	svc := newTestLifecycle(orders, nil, nil, nil, nil, receipts)

	order, warning, err := svc.Checkout(context.Background(), 1, "guest@example.com")

	assert.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCompleted, order.Status)
	assert.NotEmpty(t, warning)
}

func TestCheckout_ReceiptSuccessNoWarning(t *testing.T) {
	orders := &mockOrderRepository{
		CheckoutFunc: func(ctx context.Context, orderID uint64, now time.Time) (*domain.Order, error) {
			return &domain.Order{ID: orderID, Status: domain.OrderStatusCompleted}, nil
		},
	}
	var sentTo string
	receipts := &mockReceiptDelivery{
		SendFunc: func(ctx context.Context, order *domain.Order, destination string) error {
			sentTo = destination
			return nil
		},
	}

	svc := newTestLifecycle(orders, nil, nil, nil, nil, receipts)

	_, warning, err := svc.Checkout(context.Background(), 1, "guest@example.com")

	assert.NoError(t, err)
	assert.Empty(t, warning)
	assert.Equal(t, "guest@example.com", sentTo)
}

func TestCheckout_NoReceiptConfigured(t *testing.T) {
	orders := &mockOrderRepository{
		CheckoutFunc: func(ctx context.Context, orderID uint64, now time.Time) (*domain.Order, error) {
			return &domain.Order{ID: orderID, Status: domain.OrderStatusCompleted}, nil
		},
	}

	svc := newTestLifecycle(orders, nil, nil, nil, nil, nil)

	_, warning, err := svc.Checkout(context.Background(), 1, "guest@example.com")

	assert.NoError(t, err)
	assert.Empty(t, warning)
}

func TestListOrders_RejectsUnknownStatusFilter(t *testing.T) {
	svc := newTestLifecycle(nil, nil, nil, nil, nil, nil)

	_, err := svc.ListOrders(context.Background(), 10, dto.OrderListFilter{Status: "paid"})

	_, ok := apperrors.IsValidationError(err)
	assert.True(t, ok)
}

// Scenario from the floor: open a table, order Paneer Tikka twice, check
// out. The second add merges into one line and the table frees up.
func TestLifecycle_TableScenario(t *testing.T) {
	table := &domain.Table{ID: 5, RestaurantID: 10, Name: "T1", Capacity: 4, Active: true}
	var state *domain.Order

	orders := &mockOrderRepository{
		CreateFunc: func(ctx context.Context, order *domain.Order) (*domain.Order, error) {
			created := *order
			created.ID = 1
			state = &created
			table.Occupied = true
			return state, nil
		},
		FindByIDFunc: func(ctx context.Context, id uint64) (*domain.Order, error) {
			return state, nil
		},
		AddLineFunc: func(ctx context.Context, orderID uint64, line domain.OrderLine) (*domain.Order, error) {
			state.MergeLine(line)
			return state, nil
		},
		CheckoutFunc: func(ctx context.Context, orderID uint64, now time.Time) (*domain.Order, error) {
			if state.TotalItemCount == 0 {
				return nil, apperrors.NewValidationError("cannot checkout an empty order")
			}
			state.Status = domain.OrderStatusCompleted
			state.CompletedAt = &now
			table.Occupied = false
			return state, nil
		},
	}

	tables := &mockTableRepository{
		FindByIDFunc: func(ctx context.Context, id uint64) (*domain.Table, error) { return table, nil },
	}
	menu := &mockMenuItemRepository{
		FindByIDAndRestaurantFunc: func(ctx context.Context, id, restaurantID uint64) (*domain.MenuItem, error) {
			return &domain.MenuItem{ID: 7, RestaurantID: 10, Name: "Paneer Tikka", Category: "starters", Price: 220, Available: true}, nil
		},
	}

	svc := newTestLifecycle(orders, tables, menu, activeRestaurant(10), fixedSequencer("ORD250114001"), nil)

	order, err := svc.CreateOrder(context.Background(), 10, dto.CreateOrderRequest{TableID: 5})
	assert.NoError(t, err)
	assert.True(t, table.Occupied)

	_, err = svc.AddItem(context.Background(), order.ID, 7, 2)
	assert.NoError(t, err)

	updated, err := svc.AddItem(context.Background(), order.ID, 7, 1)
	assert.NoError(t, err)
	assert.Len(t, updated.Lines, 1)
	assert.Equal(t, 3, updated.Lines[0].Quantity)
	assert.Equal(t, 660.0, updated.Lines[0].Subtotal)
	assert.Equal(t, 660.0, updated.TotalAmount)

	completed, _, err := svc.Checkout(context.Background(), order.ID, "")
	assert.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCompleted, completed.Status)
	assert.NotNil(t, completed.CompletedAt)
	assert.False(t, table.Occupied)
}
