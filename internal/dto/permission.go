package dto

import (
	"time"

	"github.com/noah-isme/sma-faculty-api/internal/models"
)

// GrantPermissionRequest is the payload for granting a leave or OD permission.
type GrantPermissionRequest struct {
	StudentID string                `json:"student_id" validate:"required"`
	Type      models.PermissionType `json:"type" validate:"required,oneof=LEAVE OD"`
	Category  *models.ODCategory    `json:"category,omitempty"`
	Reason    string                `json:"reason"`
	StartDate time.Time             `json:"start_date" validate:"required"`
	EndDate   time.Time             `json:"end_date" validate:"required"`
	StartTime *string               `json:"start_time,omitempty"`
	EndTime   *string               `json:"end_time,omitempty"`
}

// UpdatePermissionRequest patches an active permission. Nil fields are left
// untouched; date changes re-run the overlap check.
type UpdatePermissionRequest struct {
	StartDate *time.Time         `json:"start_date,omitempty"`
	EndDate   *time.Time         `json:"end_date,omitempty"`
	StartTime *string            `json:"start_time,omitempty"`
	EndTime   *string            `json:"end_time,omitempty"`
	Reason    *string            `json:"reason,omitempty"`
	Category  *models.ODCategory `json:"category,omitempty"`
}

// PermissionQuery carries list filters from the HTTP layer.
type PermissionQuery struct {
	StudentID  string
	Type       models.PermissionType
	ActiveOnly bool
	DateFrom   *time.Time
	DateTo     *time.Time
	Limit      int
	Offset     int
}
