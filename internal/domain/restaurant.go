package domain

import "time"

type Restaurant struct {
	ID        uint64
	OwnerID   uint64
	Name      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
