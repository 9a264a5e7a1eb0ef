package models

import "time"

// CriticalStudent is a watchlist row: a student whose absences within the
// reporting window crossed the configured threshold.
type CriticalStudent struct {
	StudentID    string     `db:"student_id" json:"student_id"`
	StudentName  string     `db:"student_name" json:"student_name"`
	ClassID      string     `db:"class_id" json:"class_id"`
	AbsenceCount int        `db:"absence_count" json:"absence_count"`
	LastAbsence  *time.Time `db:"last_absence" json:"last_absence,omitempty"`
}

// Watchlist bundles the computed rows with the window they cover.
type Watchlist struct {
	GeneratedAt time.Time         `json:"generated_at"`
	WindowDays  int               `json:"window_days"`
	Threshold   int               `json:"threshold"`
	Students    []CriticalStudent `json:"students"`
}
