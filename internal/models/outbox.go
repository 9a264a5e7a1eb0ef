package models

import (
	"encoding/json"
	"time"
)

// ActionType tags a queued action so replay can dispatch it uniformly.
type ActionType string

const (
	ActionGrantPermission  ActionType = "GRANT_PERMISSION"
	ActionUpdatePermission ActionType = "UPDATE_PERMISSION"
	ActionRevokePermission ActionType = "REVOKE_PERMISSION"
	ActionCreateRequest    ActionType = "CREATE_REQUEST"
	ActionRespondRequest   ActionType = "RESPOND_REQUEST"
	ActionCancelRequest    ActionType = "CANCEL_REQUEST"
	ActionHideItem         ActionType = "HIDE_ITEM"
)

// QueuedAction is a replayable unit of work captured while the backing store
// was unreachable. Actions replay strictly in enqueue order.
type QueuedAction struct {
	ID          string          `json:"id"`
	Type        ActionType      `json:"type"`
	Description string          `json:"description"`
	ActorID     string          `json:"actor_id"`
	Payload     json.RawMessage `json:"payload"`
	EnqueuedAt  time.Time       `json:"enqueued_at"`
}
