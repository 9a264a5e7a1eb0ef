package dto

import (
	"time"

	"github.com/noah-isme/sma-faculty-api/internal/models"
)

// OutboxStatus summarises the queued actions awaiting replay.
type OutboxStatus struct {
	Online   bool                  `json:"online"`
	Flushing bool                  `json:"flushing"`
	Pending  int                   `json:"pending"`
	Actions  []models.QueuedAction `json:"actions,omitempty"`
}

// FlushReport summarises a completed flush pass.
type FlushReport struct {
	StartedAt time.Time `json:"started_at"`
	Applied   int       `json:"applied"`
	Dropped   int       `json:"dropped"`
	Deferred  int       `json:"deferred"`
}

// Queued-action payload envelopes. The outbox stores these as opaque JSON;
// the registered executors decode them back on replay.

// UpdatePermissionAction replays a permission patch.
type UpdatePermissionAction struct {
	ID    string                  `json:"id"`
	Patch UpdatePermissionRequest `json:"patch"`
}

// RevokePermissionAction replays a permission revoke.
type RevokePermissionAction struct {
	ID string `json:"id"`
}

// RespondRequestAction replays a receiver decision.
type RespondRequestAction struct {
	ID      string              `json:"id"`
	Request RespondCoverRequest `json:"request"`
}

// CancelRequestAction replays a sender cancellation.
type CancelRequestAction struct {
	ID string `json:"id"`
}

// HideItemAction replays a tombstone upsert.
type HideItemAction struct {
	ItemID   string          `json:"item_id"`
	ItemType models.ItemType `json:"item_type"`
}
