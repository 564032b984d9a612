package domain

import "time"

// Location is a place where stores operate.
type Location struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Store owns one balance account and any number of stock items.
type Store struct {
	ID         string
	Name       string
	LocationID string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
