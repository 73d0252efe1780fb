package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"comanda/internal/domain"
	"comanda/internal/dto"
)

// MySQLRevenueRepository is the read side of the analytics engine. It only
// fetches; every aggregate is derived in the service so sub-window results
// combine additively.
type MySQLRevenueRepository struct {
	db *sql.DB
}

func NewMySQLRevenueRepository(db *sql.DB) *MySQLRevenueRepository {
	return &MySQLRevenueRepository{db: db}
}

// ListCompletedInWindow returns completed orders with their lines for a
// restaurant, windowed on completion time as [start, end).
func (r *MySQLRevenueRepository) ListCompletedInWindow(ctx context.Context, restaurantID uint64, start, end time.Time) ([]domain.Order, error) {
	query := `
		SELECT o.id, o.order_number, o.restaurant_id, o.table_id, t.name,
		       o.customer_name, o.customer_phone, o.status, o.notes,
		       o.total_amount, o.total_item_count, o.created_at, o.completed_at
		FROM orders o
		JOIN restaurant_tables t ON t.id = o.table_id
		WHERE o.restaurant_id = ?
		  AND o.status = ?
		  AND o.completed_at >= ?
		  AND o.completed_at < ?
		ORDER BY o.completed_at, o.id
	`

	rows, err := r.db.QueryContext(ctx, query, restaurantID, domain.OrderStatusCompleted, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying completed orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		var o domain.Order
		err := rows.Scan(
			&o.ID, &o.OrderNumber, &o.RestaurantID, &o.TableID, &o.TableName,
			&o.CustomerName, &o.CustomerPhone, &o.Status, &o.Notes,
			&o.TotalAmount, &o.TotalItemCount, &o.CreatedAt, &o.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning completed order row: %w", err)
		}
		orders = append(orders, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating completed order rows: %w", err)
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

func (r *MySQLRevenueRepository) attachLines(ctx context.Context, orders []*domain.Order) error {
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

// SalesRows returns the export view over all orders created in [start, end),
// regardless of status.
func (r *MySQLRevenueRepository) SalesRows(ctx context.Context, restaurantID uint64, start, end time.Time) ([]dto.SalesRow, error) {
	query := `
		SELECT o.order_number, o.created_at, t.name, o.total_amount, o.status
		FROM orders o
		JOIN restaurant_tables t ON t.id = o.table_id
		WHERE o.restaurant_id = ?
		  AND o.created_at >= ?
		  AND o.created_at < ?
		ORDER BY o.created_at, o.id
	`

	rows, err := r.db.QueryContext(ctx, query, restaurantID, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying sales rows: %w", err)
	}
	defer rows.Close()

	var result []dto.SalesRow
	for rows.Next() {
		var row dto.SalesRow
		if err := rows.Scan(&row.OrderNumber, &row.Date, &row.TableName, &row.Total, &row.Status); err != nil {
			return nil, fmt.Errorf("scanning sales row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sales rows: %w", err)
	}

	return result, nil
}
