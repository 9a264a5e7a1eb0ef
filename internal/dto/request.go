package dto

import (
	"time"

	"github.com/noah-isme/sma-faculty-api/internal/models"
)

// CreateCoverRequest is the payload for a substitution or swap request.
type CreateCoverRequest struct {
	Kind           models.RequestKind `json:"kind" validate:"required,oneof=SUBSTITUTION SWAP"`
	ReceiverID     string             `json:"receiver_id" validate:"required"`
	Date           time.Time          `json:"date" validate:"required"`
	SlotID         *string            `json:"slot_id,omitempty"`
	SenderSlotID   *string            `json:"sender_slot_id,omitempty"`
	ReceiverSlotID *string            `json:"receiver_slot_id,omitempty"`
	Reason         *string            `json:"reason,omitempty"`
}

// RespondCoverRequest carries the receiver's decision. Override accepts even
// when the responder already has a session at the target slot.
type RespondCoverRequest struct {
	Action   models.RespondAction `json:"action" validate:"required,oneof=ACCEPT DECLINE"`
	Override bool                 `json:"override"`
}

// RespondOutcome reports the result of a respond call. Exactly one of the
// terminal Status or Conflict is meaningful: when Conflict is set the request
// is still pending and the caller may retry with Override.
type RespondOutcome struct {
	Request  *models.CoverRequest          `json:"request"`
	Conflict *models.ScheduleConflictError `json:"conflict,omitempty"`
}

// CoverRequestQuery carries list filters from the HTTP layer.
type CoverRequestQuery struct {
	Kind     models.RequestKind
	Status   []models.RequestStatus
	Box      string // "inbox" (received) or "outbox" (sent); empty means both
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
	Offset   int
}
