package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-faculty-api/internal/dto"
	"github.com/noah-isme/sma-faculty-api/internal/models"
	appErrors "github.com/noah-isme/sma-faculty-api/pkg/errors"
)

type permissionStore interface {
	Create(ctx context.Context, permission *models.Permission) error
	GetByID(ctx context.Context, id string) (*models.Permission, error)
	ListActive(ctx context.Context, studentID string, permType models.PermissionType, excludeID string) ([]models.Permission, error)
	List(ctx context.Context, filter models.PermissionFilter) ([]models.Permission, error)
	Update(ctx context.Context, permission *models.Permission) error
	Delete(ctx context.Context, id string) (int64, error)
}

// PermissionService grants, updates and revokes student attendance
// permissions while enforcing the per-(student, type) no-overlap invariant.
type PermissionService struct {
	repo      permissionStore
	notifier  notificationEmitter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPermissionService constructs the service.
func NewPermissionService(repo permissionStore, notifier notificationEmitter, validate *validator.Validate, logger *zap.Logger) *PermissionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = noopEmitter{}
	}
	return &PermissionService{repo: repo, notifier: notifier, validator: validate, logger: logger}
}

// CheckOverlap re-reads the student's active permissions of the same type and
// returns the first one overlapping the proposed range, excluding excludeID
// (pass "" for grants). The re-read happens on every call so a concurrent
// grant cannot hide behind a stale snapshot.
func (s *PermissionService) CheckOverlap(ctx context.Context, studentID string, permType models.PermissionType, start, end time.Time, excludeID string) (*models.Permission, error) {
	return s.findOverlap(ctx, studentID, permType, start, end, excludeID)
}

func (s *PermissionService) findOverlap(ctx context.Context, studentID string, permType models.PermissionType, start, end time.Time, excludeID string) (*models.Permission, error) {
	active, err := s.repo.ListActive(ctx, studentID, permType, excludeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check permission overlap")
	}
	for i := range active {
		if Overlaps(start, end, active[i].StartDate, active[i].EndDate) {
			return &active[i], nil
		}
	}
	return nil, nil
}

// Grant validates the payload, runs the overlap check, and inserts the
// permission as active. An overlap aborts before any write.
func (s *PermissionService) Grant(ctx context.Context, req dto.GrantPermissionRequest, grantedBy string) (*models.Permission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid permission payload")
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must not precede start_date")
	}
	if req.Type == models.PermissionTypeLeave && req.Category != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "category applies to OD permissions only")
	}
	if req.Type == models.PermissionTypeOnDuty && req.Category != nil && *req.Category == models.ODCategoryOther && strings.TrimSpace(req.Reason) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "reason is required when category is OTHER")
	}

	conflict, err := s.findOverlap(ctx, req.StudentID, req.Type, req.StartDate, req.EndDate, "")
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		return nil, &models.OverlapConflictError{StudentID: req.StudentID, Type: req.Type, Conflict: *conflict}
	}

	permission := &models.Permission{
		StudentID: req.StudentID,
		Type:      req.Type,
		Category:  req.Category,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		GrantedBy: grantedBy,
		IsActive:  true,
	}
	if reason := strings.TrimSpace(req.Reason); reason != "" {
		permission.Reason = &reason
	}
	if err := s.repo.Create(ctx, permission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create permission")
	}

	s.notifier.PermissionGranted(ctx, permission)
	return permission, nil
}

// Update patches an active permission. Date changes re-run the overlap check
// excluding the permission itself; on conflict nothing is written.
func (s *PermissionService) Update(ctx context.Context, id string, req dto.UpdatePermissionRequest) (*models.Permission, error) {
	permission, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "permission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load permission")
	}
	if !permission.IsActive {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "permission is no longer active")
	}

	updated := *permission
	datesChanged := false
	if req.StartDate != nil {
		updated.StartDate = *req.StartDate
		datesChanged = true
	}
	if req.EndDate != nil {
		updated.EndDate = *req.EndDate
		datesChanged = true
	}
	if req.StartTime != nil {
		updated.StartTime = req.StartTime
	}
	if req.EndTime != nil {
		updated.EndTime = req.EndTime
	}
	if req.Reason != nil {
		reason := strings.TrimSpace(*req.Reason)
		if reason == "" {
			updated.Reason = nil
		} else {
			updated.Reason = &reason
		}
	}
	if req.Category != nil {
		if updated.Type != models.PermissionTypeOnDuty {
			return nil, appErrors.Clone(appErrors.ErrValidation, "category applies to OD permissions only")
		}
		updated.Category = req.Category
	}
	if updated.EndDate.Before(updated.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must not precede start_date")
	}

	if datesChanged {
		conflict, err := s.findOverlap(ctx, updated.StudentID, updated.Type, updated.StartDate, updated.EndDate, updated.ID)
		if err != nil {
			return nil, err
		}
		if conflict != nil {
			return nil, &models.OverlapConflictError{StudentID: updated.StudentID, Type: updated.Type, Conflict: *conflict}
		}
	}

	if err := s.repo.Update(ctx, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "permission is no longer active")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update permission")
	}
	return &updated, nil
}

// Revoke permanently removes a permission. Revoking a missing or already
// revoked id is a successful no-op so retries stay idempotent.
func (s *PermissionService) Revoke(ctx context.Context, id string) error {
	rows, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke permission")
	}
	if rows == 0 {
		s.logger.Debug("revoke of missing permission ignored", zap.String("permission_id", id))
	}
	return nil
}

// List returns permissions matching the query.
func (s *PermissionService) List(ctx context.Context, query dto.PermissionQuery) ([]models.Permission, error) {
	permissions, err := s.repo.List(ctx, models.PermissionFilter{
		StudentID:  query.StudentID,
		Type:       query.Type,
		ActiveOnly: query.ActiveOnly,
		DateFrom:   query.DateFrom,
		DateTo:     query.DateTo,
		Limit:      query.Limit,
		Offset:     query.Offset,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list permissions")
	}
	return permissions, nil
}
