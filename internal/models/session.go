package models

import "time"

// AttendanceSession is a class period a faculty member has already taken or
// is scheduled to take. Read-only substrate for double-booking checks.
type AttendanceSession struct {
	ID        string    `db:"id" json:"id"`
	FacultyID string    `db:"faculty_id" json:"faculty_id"`
	Date      time.Time `db:"date" json:"date"`
	SlotID    string    `db:"slot_id" json:"slot_id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	Subject   *string   `db:"subject" json:"subject,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AttendanceSessionFilter constrains listing queries.
type AttendanceSessionFilter struct {
	FacultyID string
	DateFrom  *time.Time
	DateTo    *time.Time
	Limit     int
	Offset    int
}
