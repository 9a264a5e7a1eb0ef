package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-faculty-api/internal/models"
)

// WatchlistRepository aggregates attendance records into critical-student
// rows for incharge monitoring.
type WatchlistRepository struct {
	db *sqlx.DB
}

// NewWatchlistRepository constructs the repository.
func NewWatchlistRepository(db *sqlx.DB) *WatchlistRepository {
	return &WatchlistRepository{db: db}
}

// CriticalStudents returns students whose absence count since the cutoff date
// meets the threshold, worst offenders first.
func (r *WatchlistRepository) CriticalStudents(ctx context.Context, since time.Time, threshold int) ([]models.CriticalStudent, error) {
	if threshold <= 0 {
		threshold = 1
	}
	const query = `SELECT s.id AS student_id, s.full_name AS student_name, s.class_id,
	COUNT(a.id) AS absence_count, MAX(a.date) AS last_absence
	FROM students s
	JOIN attendance_records a ON a.student_id = s.id AND a.status = 'ABSENT' AND a.date >= $1
	GROUP BY s.id, s.full_name, s.class_id
	HAVING COUNT(a.id) >= $2
	ORDER BY absence_count DESC, student_name`
	var students []models.CriticalStudent
	if err := r.db.SelectContext(ctx, &students, query, since, threshold); err != nil {
		return nil, fmt.Errorf("list critical students: %w", err)
	}
	return students, nil
}
