package models

import (
	"fmt"
	"time"
)

// RequestKind separates one-way substitutions from two-way swaps.
type RequestKind string

const (
	RequestKindSubstitution RequestKind = "SUBSTITUTION"
	RequestKindSwap         RequestKind = "SWAP"
)

// Valid returns true when the kind is a supported value.
func (k RequestKind) Valid() bool {
	switch k {
	case RequestKindSubstitution, RequestKindSwap:
		return true
	default:
		return false
	}
}

// RequestStatus captures the lifecycle of a cover request.
// A request leaves PENDING at most once and never re-enters it.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "PENDING"
	RequestStatusAccepted RequestStatus = "ACCEPTED"
	RequestStatusDeclined RequestStatus = "DECLINED"
)

// Terminal reports whether the status permits no further transitions.
func (s RequestStatus) Terminal() bool {
	return s == RequestStatusAccepted || s == RequestStatusDeclined
}

// RespondAction is the receiver's decision on a pending request.
type RespondAction string

const (
	RespondActionAccept  RespondAction = "ACCEPT"
	RespondActionDecline RespondAction = "DECLINE"
)

// CoverRequest asks another faculty member to cover a slot (substitution) or
// to exchange slots (swap). SlotID is set for substitutions; SenderSlotID and
// ReceiverSlotID are set for swaps.
type CoverRequest struct {
	ID             string        `db:"id" json:"id"`
	Kind           RequestKind   `db:"kind" json:"kind"`
	SenderID       string        `db:"sender_id" json:"sender_id"`
	ReceiverID     string        `db:"receiver_id" json:"receiver_id"`
	Date           time.Time     `db:"date" json:"date"`
	SlotID         *string       `db:"slot_id" json:"slot_id,omitempty"`
	SenderSlotID   *string       `db:"sender_slot_id" json:"sender_slot_id,omitempty"`
	ReceiverSlotID *string       `db:"receiver_slot_id" json:"receiver_slot_id,omitempty"`
	Reason         *string       `db:"reason" json:"reason,omitempty"`
	Status         RequestStatus `db:"status" json:"status"`
	RequestedAt    time.Time     `db:"requested_at" json:"requested_at"`
	RespondedAt    *time.Time    `db:"responded_at" json:"responded_at,omitempty"`
}

// TargetSlot is the slot the receiver takes over by accepting: the request's
// own slot for a substitution, the sender's slot for a swap.
func (r *CoverRequest) TargetSlot() string {
	switch r.Kind {
	case RequestKindSwap:
		if r.SenderSlotID != nil {
			return *r.SenderSlotID
		}
	default:
		if r.SlotID != nil {
			return *r.SlotID
		}
	}
	return ""
}

// CoverRequestFilter constrains listing queries.
type CoverRequestFilter struct {
	UserID     string
	Role       string
	Kind       RequestKind
	Status     []RequestStatus
	DateFrom   *time.Time
	DateTo     *time.Time
	Limit      int
	Offset     int
}

// ScheduleConflictError reports that the responder already holds a session at
// the request's target date and slot. The caller may retry with an explicit
// override to accept regardless.
type ScheduleConflictError struct {
	RequestID string            `json:"request_id"`
	Session   AttendanceSession `json:"session"`
}

// Error implements the error interface.
func (e *ScheduleConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("faculty %s already has a session on %s slot %s",
		e.Session.FacultyID,
		e.Session.Date.Format("2006-01-02"),
		e.Session.SlotID,
	)
}
