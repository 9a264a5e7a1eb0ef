package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-faculty-api/internal/models"
)

// CoverRequestRepository persists substitution and swap requests.
type CoverRequestRepository struct {
	db *sqlx.DB
}

// NewCoverRequestRepository constructs the repository.
func NewCoverRequestRepository(db *sqlx.DB) *CoverRequestRepository {
	return &CoverRequestRepository{db: db}
}

const coverRequestColumns = `id, kind, sender_id, receiver_id, date, slot_id, sender_slot_id, receiver_slot_id, reason, status, requested_at, responded_at`

// Create inserts a new pending request.
func (r *CoverRequestRepository) Create(ctx context.Context, request *models.CoverRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.Status == "" {
		request.Status = models.RequestStatusPending
	}
	if request.RequestedAt.IsZero() {
		request.RequestedAt = time.Now().UTC()
	}
	const query = `INSERT INTO cover_requests
	(id, kind, sender_id, receiver_id, date, slot_id, sender_slot_id, receiver_slot_id, reason, status, requested_at, responded_at)
	VALUES (:id, :kind, :sender_id, :receiver_id, :date, :slot_id, :sender_slot_id, :receiver_slot_id, :reason, :status, :requested_at, :responded_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create cover request: %w", err)
	}
	return nil
}

// GetByID fetches a request by identifier.
func (r *CoverRequestRepository) GetByID(ctx context.Context, id string) (*models.CoverRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM cover_requests WHERE id = $1`, coverRequestColumns)
	var request models.CoverRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// List returns requests matching the filter (latest first).
func (r *CoverRequestRepository) List(ctx context.Context, filter models.CoverRequestFilter) ([]models.CoverRequest, error) {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("SELECT %s FROM cover_requests", coverRequestColumns))
	args := make([]interface{}, 0, 6)

	conditions := make([]string, 0, 5)
	switch filter.Role {
	case "sender":
		args = append(args, filter.UserID)
		conditions = append(conditions, fmt.Sprintf("sender_id = $%d", len(args)))
	case "receiver":
		args = append(args, filter.UserID)
		conditions = append(conditions, fmt.Sprintf("receiver_id = $%d", len(args)))
	default:
		if filter.UserID != "" {
			args = append(args, filter.UserID)
			conditions = append(conditions, fmt.Sprintf("(sender_id = $%d OR receiver_id = $%d)", len(args), len(args)))
		}
	}
	if filter.Kind != "" {
		args = append(args, filter.Kind)
		conditions = append(conditions, fmt.Sprintf("kind = $%d", len(args)))
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
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
	builder.WriteString(" ORDER BY requested_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var requests []models.CoverRequest
	if err := r.db.SelectContext(ctx, &requests, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list cover requests: %w", err)
	}
	return requests, nil
}

// TransitionIfPending writes the terminal status with an optimistic guard:
// only a row still in PENDING is updated. Zero rows means the request was
// missing or already terminal; the caller disambiguates with GetByID and
// reports sql.ErrNoRows here.
func (r *CoverRequestRepository) TransitionIfPending(ctx context.Context, id string, status models.RequestStatus, respondedAt time.Time) error {
	query := fmt.Sprintf(`UPDATE cover_requests SET status = $1, responded_at = $2
	WHERE id = $3 AND status = '%s'`, models.RequestStatusPending)
	result, err := r.db.ExecContext(ctx, query, status, respondedAt, id)
	if err != nil {
		return fmt.Errorf("transition cover request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check cover request transition rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
