package models

import (
	"encoding/json"
	"time"
)

// NotificationKind classifies persisted notifications.
type NotificationKind string

const (
	NotificationKindRequestCreated  NotificationKind = "REQUEST_CREATED"
	NotificationKindRequestResolved NotificationKind = "REQUEST_RESOLVED"
	NotificationKindPermission      NotificationKind = "PERMISSION_GRANTED"
)

// Notification is a per-recipient message. Wholly owned by the recipient, so
// unlike requests it may be hard deleted.
type Notification struct {
	ID          string           `db:"id" json:"id"`
	RecipientID string           `db:"recipient_id" json:"recipient_id"`
	Kind        NotificationKind `db:"kind" json:"kind"`
	Title       string           `db:"title" json:"title"`
	Body        string           `db:"body" json:"body"`
	Payload     json.RawMessage  `db:"payload" json:"payload,omitempty"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
}
