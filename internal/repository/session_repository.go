package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-faculty-api/internal/models"
)

// SessionRepository reads attendance sessions. This service never writes
// sessions; they are owned by the attendance marking flow.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, faculty_id, date, slot_id, class_id, subject, created_at`

// FindAt returns the session a faculty member holds at the given date and
// slot, or sql.ErrNoRows when the slot is free.
func (r *SessionRepository) FindAt(ctx context.Context, facultyID string, date time.Time, slotID string) (*models.AttendanceSession, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance_sessions
	WHERE faculty_id = $1 AND date = $2 AND slot_id = $3`, sessionColumns)
	var session models.AttendanceSession
	if err := r.db.GetContext(ctx, &session, query, facultyID, date, slotID); err != nil {
		return nil, err
	}
	return &session, nil
}

// List returns sessions matching the filter ordered by date and slot.
func (r *SessionRepository) List(ctx context.Context, filter models.AttendanceSessionFilter) ([]models.AttendanceSession, error) {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("SELECT %s FROM attendance_sessions", sessionColumns))
	args := make([]interface{}, 0, 3)

	conditions := make([]string, 0, 3)
	if filter.FacultyID != "" {
		args = append(args, filter.FacultyID)
		conditions = append(conditions, fmt.Sprintf("faculty_id = $%d", len(args)))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		conditions = append(conditions, fmt.Sprintf("date <= $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY date, slot_id")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var sessions []models.AttendanceSession
	if err := r.db.SelectContext(ctx, &sessions, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list attendance sessions: %w", err)
	}
	return sessions, nil
}
