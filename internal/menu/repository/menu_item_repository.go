package repository

import (
	"context"
	"database/sql"
	"fmt"

	"comanda/internal/domain"
	"comanda/internal/errors"
)

// MySQLMenuItemRepository is the read-only adapter over the menu catalog.
// Order lines snapshot what they need from it at add-time; only the
// category report reads it live.
type MySQLMenuItemRepository struct {
	db *sql.DB
}

func NewMySQLMenuItemRepository(db *sql.DB) *MySQLMenuItemRepository {
	return &MySQLMenuItemRepository{db: db}
}

func (r *MySQLMenuItemRepository) FindByIDAndRestaurant(ctx context.Context, id, restaurantID uint64) (*domain.MenuItem, error) {
	query := `
		SELECT id, restaurant_id, name, category, price, available, created_at, updated_at
		FROM menu_items
		WHERE id = ? AND restaurant_id = ?
	`

	var item domain.MenuItem
	err := r.db.QueryRowContext(ctx, query, id, restaurantID).Scan(
		&item.ID, &item.RestaurantID, &item.Name, &item.Category,
		&item.Price, &item.Available, &item.CreatedAt, &item.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("menu item with id %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying menu item by id: %w", err)
	}

	return &item, nil
}

// CategoriesByRestaurant returns the live menu item id to category map
// used by the category breakdown report.
func (r *MySQLMenuItemRepository) CategoriesByRestaurant(ctx context.Context, restaurantID uint64) (map[uint64]string, error) {
	query := `SELECT id, category FROM menu_items WHERE restaurant_id = ?`

	rows, err := r.db.QueryContext(ctx, query, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("querying menu categories: %w", err)
	}
	defer rows.Close()

	categories := make(map[uint64]string)
	for rows.Next() {
		var id uint64
		var category string
		if err := rows.Scan(&id, &category); err != nil {
			return nil, fmt.Errorf("scanning menu category row: %w", err)
		}
		categories[id] = category
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating menu category rows: %w", err)
	}

	return categories, nil
}
