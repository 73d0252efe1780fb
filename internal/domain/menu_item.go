package domain

import "time"

type MenuItem struct {
	ID           uint64
	RestaurantID uint64
	Name         string
	Category     string
	Price        float64
	Available    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
