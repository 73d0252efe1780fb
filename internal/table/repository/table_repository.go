package repository

import (
	"context"
	"database/sql"
	"fmt"

	"comanda/internal/domain"
	"comanda/internal/errors"
)

// MySQLTableRepository reads tables. Occupancy writes live inside the
// order repository's transactions so the flag can never drift from the
// active-order invariant.
type MySQLTableRepository struct {
	db *sql.DB
}

func NewMySQLTableRepository(db *sql.DB) *MySQLTableRepository {
	return &MySQLTableRepository{db: db}
}

func (r *MySQLTableRepository) FindByID(ctx context.Context, id uint64) (*domain.Table, error) {
	query := `
		SELECT id, restaurant_id, name, capacity, occupied, active, created_at, updated_at
		FROM restaurant_tables
		WHERE id = ?
	`

	var table domain.Table
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&table.ID, &table.RestaurantID, &table.Name, &table.Capacity,
		&table.Occupied, &table.Active, &table.CreatedAt, &table.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("table with id %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying table by id: %w", err)
	}

	return &table, nil
}

func (r *MySQLTableRepository) ListByRestaurant(ctx context.Context, restaurantID uint64) ([]domain.Table, error) {
	query := `
		SELECT id, restaurant_id, name, capacity, occupied, active, created_at, updated_at
		FROM restaurant_tables
		WHERE restaurant_id = ? AND active = 1
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("querying tables: %w", err)
	}
	defer rows.Close()

	var tables []domain.Table
	for rows.Next() {
		var t domain.Table
		err := rows.Scan(
			&t.ID, &t.RestaurantID, &t.Name, &t.Capacity,
			&t.Occupied, &t.Active, &t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning table row: %w", err)
		}
		tables = append(tables, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating table rows: %w", err)
	}

	return tables, nil
}
