package models

import "time"

// ItemType names the shared object classes a tombstone may target.
type ItemType string

const (
	ItemTypeRequest      ItemType = "REQUEST"
	ItemTypeNotification ItemType = "NOTIFICATION"
)

// Valid returns true when the item type is a supported value.
func (t ItemType) Valid() bool {
	switch t {
	case ItemTypeRequest, ItemTypeNotification:
		return true
	default:
		return false
	}
}

// Tombstone hides a shared item from one user's view without touching the
// underlying record, so the counterparty's view is unaffected.
type Tombstone struct {
	UserID   string    `db:"user_id" json:"user_id"`
	ItemID   string    `db:"item_id" json:"item_id"`
	ItemType ItemType  `db:"item_type" json:"item_type"`
	HiddenAt time.Time `db:"hidden_at" json:"hidden_at"`
}
