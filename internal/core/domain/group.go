package domain

import "time"

// InventoryGroup is a shared inventory namespace. Members join with a
// short code; the creator owns the group's lifecycle.
type InventoryGroup struct {
	ID        int64
	Name      string
	JoinCode  string
	CreatedBy int64
	Members   []int64
	Items     []InventoryItem // populated only by snapshot reads
	CreatedAt time.Time
}

type User struct {
	ID        int64
	Subject   string
	Email     string
	Name      string
	CreatedAt time.Time
}
