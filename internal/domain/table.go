package domain

import "time"

type Table struct {
	ID           uint64
	RestaurantID uint64
	Name         string
	Capacity     int
	Occupied     bool
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
