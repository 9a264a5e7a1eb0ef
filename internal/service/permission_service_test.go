package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-faculty-api/internal/dto"
	"github.com/noah-isme/sma-faculty-api/internal/models"
)

type permissionRepoStub struct {
	permissions map[string]*models.Permission
	nextID      int
	listErr     error
}

func newPermissionRepoStub() *permissionRepoStub {
	return &permissionRepoStub{permissions: make(map[string]*models.Permission)}
}

func (p *permissionRepoStub) Create(ctx context.Context, permission *models.Permission) error {
	p.nextID++
	permission.ID = "perm-" + strconv.Itoa(p.nextID)
	permission.CreatedAt = time.Now().UTC()
	copy := *permission
	p.permissions[permission.ID] = &copy
	return nil
}

func (p *permissionRepoStub) GetByID(ctx context.Context, id string) (*models.Permission, error) {
	if perm, ok := p.permissions[id]; ok {
		copy := *perm
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (p *permissionRepoStub) ListActive(ctx context.Context, studentID string, permType models.PermissionType, excludeID string) ([]models.Permission, error) {
	if p.listErr != nil {
		return nil, p.listErr
	}
	var result []models.Permission
	for _, perm := range p.permissions {
		if !perm.IsActive || perm.StudentID != studentID || perm.Type != permType {
			continue
		}
		if excludeID != "" && perm.ID == excludeID {
			continue
		}
		result = append(result, *perm)
	}
	return result, nil
}

func (p *permissionRepoStub) List(ctx context.Context, filter models.PermissionFilter) ([]models.Permission, error) {
	result := make([]models.Permission, 0, len(p.permissions))
	for _, perm := range p.permissions {
		result = append(result, *perm)
	}
	return result, nil
}

func (p *permissionRepoStub) Update(ctx context.Context, permission *models.Permission) error {
	existing, ok := p.permissions[permission.ID]
	if !ok || !existing.IsActive {
		return sql.ErrNoRows
	}
	copy := *permission
	p.permissions[permission.ID] = &copy
	return nil
}

func (p *permissionRepoStub) Delete(ctx context.Context, id string) (int64, error) {
	if _, ok := p.permissions[id]; !ok {
		return 0, nil
	}
	delete(p.permissions, id)
	return 1, nil
}

type emitterStub struct {
	created  []*models.CoverRequest
	resolved []*models.CoverRequest
	granted  []*models.Permission
}

func (e *emitterStub) RequestCreated(ctx context.Context, request *models.CoverRequest) {
	e.created = append(e.created, request)
}

func (e *emitterStub) RequestResolved(ctx context.Context, request *models.CoverRequest) {
	e.resolved = append(e.resolved, request)
}

func (e *emitterStub) PermissionGranted(ctx context.Context, permission *models.Permission) {
	e.granted = append(e.granted, permission)
}

func grantReq(studentID string, permType models.PermissionType, start, end string) dto.GrantPermissionRequest {
	return dto.GrantPermissionRequest{
		StudentID: studentID,
		Type:      permType,
		StartDate: day(start),
		EndDate:   day(end),
	}
}

func TestPermissionServiceGrant(t *testing.T) {
	repo := newPermissionRepoStub()
	emitter := &emitterStub{}
	svc := NewPermissionService(repo, emitter, nil, nil)

	permission, err := svc.Grant(context.Background(), grantReq("student-1", models.PermissionTypeLeave, "2026-03-02", "2026-03-04"), "incharge-1")
	require.NoError(t, err)
	require.True(t, permission.IsActive)
	require.Equal(t, "incharge-1", permission.GrantedBy)
	require.Len(t, emitter.granted, 1)
}

func TestPermissionServiceGrantRejectsOverlap(t *testing.T) {
	repo := newPermissionRepoStub()
	svc := NewPermissionService(repo, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Grant(ctx, grantReq("student-1", models.PermissionTypeLeave, "2026-03-02", "2026-03-04"), "incharge-1")
	require.NoError(t, err)

	_, err = svc.Grant(ctx, grantReq("student-1", models.PermissionTypeLeave, "2026-03-04", "2026-03-06"), "incharge-1")
	var conflict *models.OverlapConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, "student-1", conflict.StudentID)
	require.Len(t, repo.permissions, 1)
}

func TestPermissionServiceGrantDifferentTypesDoNotConflict(t *testing.T) {
	repo := newPermissionRepoStub()
	svc := NewPermissionService(repo, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Grant(ctx, grantReq("student-1", models.PermissionTypeLeave, "2026-03-02", "2026-03-04"), "incharge-1")
	require.NoError(t, err)

	od := grantReq("student-1", models.PermissionTypeOnDuty, "2026-03-03", "2026-03-05")
	category := models.ODCategorySports
	od.Category = &category
	_, err = svc.Grant(ctx, od, "incharge-1")
	require.NoError(t, err)
	require.Len(t, repo.permissions, 2)
}

func TestPermissionServiceGrantValidation(t *testing.T) {
	svc := NewPermissionService(newPermissionRepoStub(), nil, nil, nil)
	ctx := context.Background()

	t.Run("end before start", func(t *testing.T) {
		_, err := svc.Grant(ctx, grantReq("student-1", models.PermissionTypeLeave, "2026-03-05", "2026-03-02"), "incharge-1")
		require.Error(t, err)
	})

	t.Run("category on leave", func(t *testing.T) {
		req := grantReq("student-1", models.PermissionTypeLeave, "2026-03-02", "2026-03-04")
		category := models.ODCategorySports
		req.Category = &category
		_, err := svc.Grant(ctx, req, "incharge-1")
		require.Error(t, err)
	})

	t.Run("other category requires reason", func(t *testing.T) {
		req := grantReq("student-1", models.PermissionTypeOnDuty, "2026-03-02", "2026-03-04")
		category := models.ODCategoryOther
		req.Category = &category
		_, err := svc.Grant(ctx, req, "incharge-1")
		require.Error(t, err)

		req.Reason = "district debate finals"
		_, err = svc.Grant(ctx, req, "incharge-1")
		require.NoError(t, err)
	})
}

func TestPermissionServiceUpdateExcludesSelfFromOverlap(t *testing.T) {
	repo := newPermissionRepoStub()
	svc := NewPermissionService(repo, nil, nil, nil)
	ctx := context.Background()

	permission, err := svc.Grant(ctx, grantReq("student-1", models.PermissionTypeLeave, "2026-03-02", "2026-03-04"), "incharge-1")
	require.NoError(t, err)

	// Extending the same permission must not collide with itself.
	newEnd := day("2026-03-06")
	updated, err := svc.Update(ctx, permission.ID, dto.UpdatePermissionRequest{EndDate: &newEnd})
	require.NoError(t, err)
	require.Equal(t, newEnd, updated.EndDate)
}

func TestPermissionServiceUpdateRejectsOverlapWithOther(t *testing.T) {
	repo := newPermissionRepoStub()
	svc := NewPermissionService(repo, nil, nil, nil)
	ctx := context.Background()

	first, err := svc.Grant(ctx, grantReq("student-1", models.PermissionTypeLeave, "2026-03-02", "2026-03-04"), "incharge-1")
	require.NoError(t, err)
	_, err = svc.Grant(ctx, grantReq("student-1", models.PermissionTypeLeave, "2026-03-08", "2026-03-10"), "incharge-1")
	require.NoError(t, err)

	newEnd := day("2026-03-08")
	_, err = svc.Update(ctx, first.ID, dto.UpdatePermissionRequest{EndDate: &newEnd})
	var conflict *models.OverlapConflictError
	require.ErrorAs(t, err, &conflict)

	// Conflicting update must leave the stored range untouched.
	stored, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, day("2026-03-04"), stored.EndDate)
}

func TestPermissionServiceRevokeIdempotent(t *testing.T) {
	repo := newPermissionRepoStub()
	svc := NewPermissionService(repo, nil, nil, nil)
	ctx := context.Background()

	permission, err := svc.Grant(ctx, grantReq("student-1", models.PermissionTypeLeave, "2026-03-02", "2026-03-04"), "incharge-1")
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, permission.ID))
	require.NoError(t, svc.Revoke(ctx, permission.ID))
	require.NoError(t, svc.Revoke(ctx, "never-existed"))
}

func TestPermissionServiceOverlapCheckSurfacesStoreError(t *testing.T) {
	repo := newPermissionRepoStub()
	repo.listErr = errors.New("connection refused")
	svc := NewPermissionService(repo, nil, nil, nil)

	_, err := svc.Grant(context.Background(), grantReq("student-1", models.PermissionTypeLeave, "2026-03-02", "2026-03-04"), "incharge-1")
	require.Error(t, err)
	require.Empty(t, repo.permissions)
}
