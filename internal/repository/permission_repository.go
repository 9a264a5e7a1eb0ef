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

// PermissionRepository persists student attendance permissions.
type PermissionRepository struct {
	db *sqlx.DB
}

// NewPermissionRepository constructs the repository.
func NewPermissionRepository(db *sqlx.DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

const permissionColumns = `id, student_id, type, category, reason, start_date, end_date, start_time, end_time, granted_by, is_active, created_at`

// Create inserts a new permission row.
func (r *PermissionRepository) Create(ctx context.Context, permission *models.Permission) error {
	if permission.ID == "" {
		permission.ID = uuid.NewString()
	}
	if permission.CreatedAt.IsZero() {
		permission.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO permissions
	(id, student_id, type, category, reason, start_date, end_date, start_time, end_time, granted_by, is_active, created_at)
	VALUES (:id, :student_id, :type, :category, :reason, :start_date, :end_date, :start_time, :end_time, :granted_by, :is_active, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, permission); err != nil {
		return fmt.Errorf("create permission: %w", err)
	}
	return nil
}

// GetByID fetches a permission by identifier.
func (r *PermissionRepository) GetByID(ctx context.Context, id string) (*models.Permission, error) {
	query := fmt.Sprintf(`SELECT %s FROM permissions WHERE id = $1`, permissionColumns)
	var permission models.Permission
	if err := r.db.GetContext(ctx, &permission, query, id); err != nil {
		return nil, err
	}
	return &permission, nil
}

// ListActive returns all active permissions of one student and type, excluding
// the given id when non-empty. Always hits the store so overlap checks never
// act on stale reads.
func (r *PermissionRepository) ListActive(ctx context.Context, studentID string, permType models.PermissionType, excludeID string) ([]models.Permission, error) {
	query := fmt.Sprintf(`SELECT %s FROM permissions
	WHERE student_id = $1 AND type = $2 AND is_active = TRUE`, permissionColumns)
	args := []interface{}{studentID, permType}
	if excludeID != "" {
		args = append(args, excludeID)
		query += fmt.Sprintf(" AND id <> $%d", len(args))
	}
	query += " ORDER BY start_date"

	var permissions []models.Permission
	if err := r.db.SelectContext(ctx, &permissions, query, args...); err != nil {
		return nil, fmt.Errorf("list active permissions: %w", err)
	}
	return permissions, nil
}

// List returns permissions matching the filter (newest grants first).
func (r *PermissionRepository) List(ctx context.Context, filter models.PermissionFilter) ([]models.Permission, error) {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("SELECT %s FROM permissions", permissionColumns))
	args := make([]interface{}, 0, 5)

	conditions := make([]string, 0, 5)
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.ActiveOnly {
		conditions = append(conditions, "is_active = TRUE")
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		conditions = append(conditions, fmt.Sprintf("end_date >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		conditions = append(conditions, fmt.Sprintf("start_date <= $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var permissions []models.Permission
	if err := r.db.SelectContext(ctx, &permissions, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	return permissions, nil
}

// Update rewrites the mutable columns of an active permission. Inactive rows
// are never touched. Returns sql.ErrNoRows when no active row matched.
func (r *PermissionRepository) Update(ctx context.Context, permission *models.Permission) error {
	const query = `UPDATE permissions SET
	category = :category, reason = :reason,
	start_date = :start_date, end_date = :end_date,
	start_time = :start_time, end_time = :end_time
	WHERE id = :id AND is_active = TRUE`
	result, err := r.db.NamedExecContext(ctx, query, permission)
	if err != nil {
		return fmt.Errorf("update permission: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check permission update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete permanently removes a permission. Returns the number of rows removed
// so the caller can treat a missing id as an idempotent no-op.
func (r *PermissionRepository) Delete(ctx context.Context, id string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM permissions WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete permission: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check permission delete rows: %w", err)
	}
	return rows, nil
}
