package model

import (
	"time"
)

type ItemStatus string

const (
	ItemStatusWorking     ItemStatus = "Working"
	ItemStatusMaintenance ItemStatus = "Maintenance"
	ItemStatusBroken      ItemStatus = "Broken"
	ItemStatusIdle        ItemStatus = "Idle"
)

func ItemStatuses() []string {
	return []string{
		string(ItemStatusWorking),
		string(ItemStatusMaintenance),
		string(ItemStatusBroken),
		string(ItemStatusIdle),
	}
}

// Item is a physical thing on the shop floor carrying a printed QR code.
// ItemID is the human-assigned slug encoded in the QR URL; ID is the
// internal database key.
type Item struct {
	ID        string     `db:"id" json:"id"`
	ItemID    string     `db:"item_id" json:"itemId"`
	Name      string     `db:"name" json:"name"`
	Location  string     `db:"location" json:"location"`
	Status    ItemStatus `db:"status" json:"status"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
}

type CreateItemParams struct {
	ItemID   string
	Name     string
	Location string
	Status   ItemStatus
}
