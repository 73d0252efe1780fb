package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"comanda/internal/domain"
	"comanda/internal/dto"
	apperrors "comanda/internal/errors"
)

// ErrOrderNumberTaken reports a collision on the order number uniqueness
// constraint. The lifecycle service retries once with a fresh number
// before giving up.
var ErrOrderNumberTaken = errors.New("order number already taken")

const txTimeout = 5 * time.Second

type MySQLOrderRepository struct {
	db *sql.DB
}

func NewMySQLOrderRepository(db *sql.DB) *MySQLOrderRepository {
	return &MySQLOrderRepository{db: db}
}

const orderColumns = `
	o.id, o.order_number, o.restaurant_id, o.table_id, t.name,
	o.customer_name, o.customer_phone, o.status, o.notes,
	o.total_amount, o.total_item_count, o.created_at, o.completed_at`

// Create inserts the order and marks its table occupied in one transaction.
// The one-active-order-per-table invariant is carried by the unique index
// on active_table_id: concurrent creators race on a single conditional
// insert, and the loser gets a ConflictError naming the winner.
func (r *MySQLOrderRepository) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	txCtx, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(txCtx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO orders
			(order_number, restaurant_id, table_id, active_table_id,
			 customer_name, customer_phone, status, notes,
			 total_amount, total_item_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, 0, ?)
	`

	result, err := tx.ExecContext(txCtx, query,
		order.OrderNumber, order.RestaurantID, order.TableID, order.TableID,
		order.CustomerName, order.CustomerPhone, order.Status, order.Notes,
		order.CreatedAt,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			if strings.Contains(mysqlErr.Message, "uq_orders_active_table") {
				return nil, r.activeTableConflict(ctx, order.TableID)
			}
			if strings.Contains(mysqlErr.Message, "uq_orders_number") {
				return nil, ErrOrderNumberTaken
			}
		}
		return nil, fmt.Errorf("inserting order: %w", err)
	}

	orderID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting last insert id: %w", err)
	}

	_, err = tx.ExecContext(txCtx, `UPDATE restaurant_tables SET occupied = 1 WHERE id = ?`, order.TableID)
	if err != nil {
		return nil, fmt.Errorf("marking table occupied: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing order creation: %w", err)
	}

	return r.FindByID(ctx, uint64(orderID))
}

func (r *MySQLOrderRepository) activeTableConflict(ctx context.Context, tableID uint64) error {
	existing, err := r.FindActiveByTable(ctx, tableID)
	if err != nil {
		return apperrors.NewConflictError(fmt.Sprintf("table %d already has an active order", tableID))
	}
	return apperrors.NewConflictErrorWithID(
		fmt.Sprintf("table %d already has active order %d", tableID, existing.ID),
		fmt.Sprintf("%d", existing.ID),
	)
}

func (r *MySQLOrderRepository) FindByID(ctx context.Context, id uint64) (*domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders o
		JOIN restaurant_tables t ON t.id = o.table_id
		WHERE o.id = ?
	`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("order with id %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying order by id: %w", err)
	}

	if err := r.attachLines(ctx, []*domain.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *MySQLOrderRepository) FindActiveByTable(ctx context.Context, tableID uint64) (*domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders o
		JOIN restaurant_tables t ON t.id = o.table_id
		WHERE o.active_table_id = ?
	`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, tableID))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no active order for table %d", tableID))
	}
	if err != nil {
		return nil, fmt.Errorf("querying active order by table: %w", err)
	}
	return order, nil
}

// AddLine merges a line into the order and recomputes totals, all inside a
// single transaction. The status gate is re-checked under row lock so a
// concurrent checkout cannot interleave, and the merge itself is one
// upsert so concurrent adds of the same item never lose an update.
func (r *MySQLOrderRepository) AddLine(ctx context.Context, orderID uint64, line domain.OrderLine) (*domain.Order, error) {
	txCtx, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(txCtx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(txCtx, `SELECT status FROM orders WHERE id = ? FOR UPDATE`, orderID).Scan(&status)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("order with id %d not found", orderID))
	}
	if err != nil {
		return nil, fmt.Errorf("locking order row: %w", err)
	}

	if !domain.CanModifyItems(status) {
		return nil, apperrors.NewInvalidStateError(
			fmt.Sprintf("items cannot be added to an order in status %s", status))
	}

	// Assignments run left to right, so subtotal sees the merged quantity.
	upsert := `
		INSERT INTO order_lines
			(order_id, menu_item_id, name_snapshot, unit_price_snapshot,
			 category_snapshot, quantity, subtotal)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			quantity = quantity + VALUES(quantity),
			subtotal = quantity * unit_price_snapshot
	`
	_, err = tx.ExecContext(txCtx, upsert,
		orderID, line.MenuItemID, line.NameSnapshot, line.UnitPriceSnapshot,
		line.CategorySnapshot, line.Quantity, line.UnitPriceSnapshot*float64(line.Quantity),
	)
	if err != nil {
		return nil, fmt.Errorf("upserting order line: %w", err)
	}

	if err := recomputeTotals(txCtx, tx, orderID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing line addition: %w", err)
	}

	return r.FindByID(ctx, orderID)
}

func recomputeTotals(ctx context.Context, tx *sql.Tx, orderID uint64) error {
	query := `
		UPDATE orders SET
			total_amount = (SELECT COALESCE(SUM(subtotal), 0) FROM order_lines WHERE order_id = ?),
			total_item_count = (SELECT COALESCE(SUM(quantity), 0) FROM order_lines WHERE order_id = ?)
		WHERE id = ?
	`
	if _, err := tx.ExecContext(ctx, query, orderID, orderID, orderID); err != nil {
		return fmt.Errorf("recomputing order totals: %w", err)
	}
	return nil
}

// UpdateStatus applies a forward transition or a cancellation under row
// lock. Cancellation releases the bound table in the same transaction.
func (r *MySQLOrderRepository) UpdateStatus(ctx context.Context, orderID uint64, newStatus string) (*domain.Order, error) {
	txCtx, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(txCtx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var status string
	var tableID uint64
	err = tx.QueryRowContext(txCtx, `SELECT status, table_id FROM orders WHERE id = ? FOR UPDATE`, orderID).
		Scan(&status, &tableID)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("order with id %d not found", orderID))
	}
	if err != nil {
		return nil, fmt.Errorf("locking order row: %w", err)
	}

	if !domain.CanTransition(status, newStatus) {
		return nil, apperrors.NewInvalidStateError(
			fmt.Sprintf("cannot transition order from %s to %s", status, newStatus))
	}

	if newStatus == domain.OrderStatusCancelled {
		_, err = tx.ExecContext(txCtx,
			`UPDATE orders SET status = ?, active_table_id = NULL WHERE id = ?`, newStatus, orderID)
		if err == nil {
			_, err = tx.ExecContext(txCtx, `UPDATE restaurant_tables SET occupied = 0 WHERE id = ?`, tableID)
		}
	} else {
		_, err = tx.ExecContext(txCtx, `UPDATE orders SET status = ? WHERE id = ?`, newStatus, orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("updating order status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing status update: %w", err)
	}

	return r.FindByID(ctx, orderID)
}

// Checkout completes the order and frees its table. The empty-order check
// runs under the same lock as the write, so checkout never succeeds twice
// and never succeeds on an order whose lines were all still pending.
func (r *MySQLOrderRepository) Checkout(ctx context.Context, orderID uint64, now time.Time) (*domain.Order, error) {
	txCtx, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(txCtx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var status string
	var tableID uint64
	var itemCount int
	err = tx.QueryRowContext(txCtx,
		`SELECT status, table_id, total_item_count FROM orders WHERE id = ? FOR UPDATE`, orderID).
		Scan(&status, &tableID, &itemCount)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("order with id %d not found", orderID))
	}
	if err != nil {
		return nil, fmt.Errorf("locking order row: %w", err)
	}

	if domain.IsTerminalStatus(status) {
		return nil, apperrors.NewInvalidStateError(fmt.Sprintf("order is already %s", status))
	}
	if itemCount == 0 {
		return nil, apperrors.NewValidationError("cannot checkout an empty order")
	}

	_, err = tx.ExecContext(txCtx,
		`UPDATE orders SET status = ?, completed_at = ?, active_table_id = NULL WHERE id = ?`,
		domain.OrderStatusCompleted, now, orderID)
	if err != nil {
		return nil, fmt.Errorf("completing order: %w", err)
	}

	_, err = tx.ExecContext(txCtx, `UPDATE restaurant_tables SET occupied = 0 WHERE id = ?`, tableID)
	if err != nil {
		return nil, fmt.Errorf("freeing table: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing checkout: %w", err)
	}

	return r.FindByID(ctx, orderID)
}

func (r *MySQLOrderRepository) List(ctx context.Context, restaurantID uint64, filter dto.OrderListFilter) ([]domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders o
		JOIN restaurant_tables t ON t.id = o.table_id
		WHERE o.restaurant_id = ?
	`
	args := []interface{}{restaurantID}

	if filter.Status != "" {
		query += " AND o.status = ?"
		args = append(args, filter.Status)
	}
	if filter.Date != nil {
		query += " AND DATE(o.created_at) = DATE(?)"
		args = append(args, *filter.Date)
	}
	query += " ORDER BY o.created_at DESC, o.id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order rows: %w", err)
	}

	if err := r.attachLines(ctx, orders); err != nil {
		return nil, err
	}

	result := make([]domain.Order, len(orders))
	for i, o := range orders {
		result[i] = *o
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	err := row.Scan(
		&order.ID, &order.OrderNumber, &order.RestaurantID, &order.TableID, &order.TableName,
		&order.CustomerName, &order.CustomerPhone, &order.Status, &order.Notes,
		&order.TotalAmount, &order.TotalItemCount, &order.CreatedAt, &order.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *MySQLOrderRepository) attachLines(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[uint64]*domain.Order, len(orders))
	placeholders := make([]string, 0, len(orders))
	args := make([]interface{}, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		placeholders = append(placeholders, "?")
		args = append(args, o.ID)
	}

	query := fmt.Sprintf(`
		SELECT order_id, menu_item_id, name_snapshot, unit_price_snapshot,
		       category_snapshot, quantity, subtotal
		FROM order_lines
		WHERE order_id IN (%s)
		ORDER BY order_id, id`,
		strings.Join(placeholders, ", "),
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("querying order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID uint64
		var line domain.OrderLine
		err := rows.Scan(
			&orderID, &line.MenuItemID, &line.NameSnapshot, &line.UnitPriceSnapshot,
			&line.CategorySnapshot, &line.Quantity, &line.Subtotal,
		)
		if err != nil {
			return fmt.Errorf("scanning order line row: %w", err)
		}
		if order, ok := byID[orderID]; ok {
			order.Lines = append(order.Lines, line)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating order line rows: %w", err)
	}
	return nil
}
