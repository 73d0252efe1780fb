package repository

import (
	"context"
	"database/sql"
	"fmt"

	"comanda/internal/domain"
	"comanda/internal/errors"
)

type MySQLRestaurantRepository struct {
	db *sql.DB
}

func NewMySQLRestaurantRepository(db *sql.DB) *MySQLRestaurantRepository {
	return &MySQLRestaurantRepository{db: db}
}

func (r *MySQLRestaurantRepository) FindByID(ctx context.Context, id uint64) (*domain.Restaurant, error) {
	query := `
		SELECT id, owner_id, name, active, created_at, updated_at
		FROM restaurants
		WHERE id = ?
	`

	var restaurant domain.Restaurant
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&restaurant.ID, &restaurant.OwnerID, &restaurant.Name,
		&restaurant.Active, &restaurant.CreatedAt, &restaurant.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("restaurant with id %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying restaurant by id: %w", err)
	}

	return &restaurant, nil
}

func (r *MySQLRestaurantRepository) FindByOwner(ctx context.Context, ownerID uint64) (*domain.Restaurant, error) {
	query := `
		SELECT id, owner_id, name, active, created_at, updated_at
		FROM restaurants
		WHERE owner_id = ?
	`

	var restaurant domain.Restaurant
	err := r.db.QueryRowContext(ctx, query, ownerID).Scan(
		&restaurant.ID, &restaurant.OwnerID, &restaurant.Name,
		&restaurant.Active, &restaurant.CreatedAt, &restaurant.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("restaurant for owner %d not found", ownerID))
	}
	if err != nil {
		return nil, fmt.Errorf("querying restaurant by owner: %w", err)
	}

	return &restaurant, nil
}
