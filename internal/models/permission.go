package models

import (
	"fmt"
	"time"
)

// PermissionType distinguishes leave from on-duty exemptions.
type PermissionType string

const (
	PermissionTypeLeave  PermissionType = "LEAVE"
	PermissionTypeOnDuty PermissionType = "OD"
)

// Valid returns true when the type is a supported value.
func (t PermissionType) Valid() bool {
	switch t {
	case PermissionTypeLeave, PermissionTypeOnDuty:
		return true
	default:
		return false
	}
}

// ODCategory classifies on-duty permissions.
type ODCategory string

const (
	ODCategorySports   ODCategory = "SPORTS"
	ODCategoryCultural ODCategory = "CULTURAL"
	ODCategorySymposium ODCategory = "SYMPOSIUM"
	ODCategoryOther    ODCategory = "OTHER"
)

// Permission is a time-bounded attendance exemption granted to a student.
// For a fixed (student, type) no two active permissions may overlap in dates.
type Permission struct {
	ID        string         `db:"id" json:"id"`
	StudentID string         `db:"student_id" json:"student_id"`
	Type      PermissionType `db:"type" json:"type"`
	Category  *ODCategory    `db:"category" json:"category,omitempty"`
	Reason    *string        `db:"reason" json:"reason,omitempty"`
	StartDate time.Time      `db:"start_date" json:"start_date"`
	EndDate   time.Time      `db:"end_date" json:"end_date"`
	StartTime *string        `db:"start_time" json:"start_time,omitempty"`
	EndTime   *string        `db:"end_time" json:"end_time,omitempty"`
	GrantedBy string         `db:"granted_by" json:"granted_by"`
	IsActive  bool           `db:"is_active" json:"is_active"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

// PermissionFilter constrains listing queries.
type PermissionFilter struct {
	StudentID  string
	Type       PermissionType
	ActiveOnly bool
	DateFrom   *time.Time
	DateTo     *time.Time
	Limit      int
	Offset     int
}

// OverlapConflictError is returned when a grant or update would overlap an
// existing active permission of the same student and type.
type OverlapConflictError struct {
	StudentID string         `json:"student_id"`
	Type      PermissionType `json:"type"`
	Conflict  Permission     `json:"conflict"`
}

// Error implements the error interface.
func (e *OverlapConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("student %s already has an active %s permission from %s to %s",
		e.StudentID, e.Type,
		e.Conflict.StartDate.Format("2006-01-02"),
		e.Conflict.EndDate.Format("2006-01-02"),
	)
}
