package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-faculty-api/internal/dto"
	"github.com/noah-isme/sma-faculty-api/internal/models"
	appErrors "github.com/noah-isme/sma-faculty-api/pkg/errors"
	"github.com/noah-isme/sma-faculty-api/pkg/response"
)

type permissionService interface {
	Grant(ctx context.Context, req dto.GrantPermissionRequest, grantedBy string) (*models.Permission, error)
	Update(ctx context.Context, id string, req dto.UpdatePermissionRequest) (*models.Permission, error)
	Revoke(ctx context.Context, id string) error
	List(ctx context.Context, query dto.PermissionQuery) ([]models.Permission, error)
}

// PermissionHandler exposes REST endpoints for leave/OD permissions. Writes
// attempted while the backing store is unreachable are deferred to the
// outbox and acknowledged with 202.
type PermissionHandler struct {
	service permissionService
	outbox  actionQueuer
}

// NewPermissionHandler constructs the handler.
func NewPermissionHandler(service permissionService, outbox actionQueuer) *PermissionHandler {
	return &PermissionHandler{service: service, outbox: outbox}
}

// Grant godoc
// @Summary Grant a leave or OD permission
// @Tags Permissions
// @Accept json
// @Produce json
// @Param payload body dto.GrantPermissionRequest true "Permission payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /permissions [post]
func (h *PermissionHandler) Grant(c *gin.Context) {
	var req dto.GrantPermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid permission payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	permission, err := h.service.Grant(c.Request.Context(), req, claims.UserID)
	if err != nil {
		if overlap, ok := asOverlapConflict(err); ok {
			conflictResponse(c, overlap)
			return
		}
		if deferToOutbox(c, h.outbox, err, models.ActionGrantPermission, "grant permission", claims.UserID, req) {
			return
		}
		response.Error(c, err)
		return
	}
	response.Created(c, permission)
}

// Update godoc
// @Summary Patch an active permission
// @Tags Permissions
// @Accept json
// @Produce json
// @Param id path string true "Permission ID"
// @Param payload body dto.UpdatePermissionRequest true "Patch payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /permissions/{id} [put]
func (h *PermissionHandler) Update(c *gin.Context) {
	var req dto.UpdatePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid patch payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id := c.Param("id")
	permission, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		if overlap, ok := asOverlapConflict(err); ok {
			conflictResponse(c, overlap)
			return
		}
		if deferToOutbox(c, h.outbox, err, models.ActionUpdatePermission, "update permission", claims.UserID, dto.UpdatePermissionAction{ID: id, Patch: req}) {
			return
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, permission, nil)
}

// Revoke godoc
// @Summary Revoke a permission
// @Tags Permissions
// @Produce json
// @Param id path string true "Permission ID"
// @Success 204
// @Router /permissions/{id} [delete]
func (h *PermissionHandler) Revoke(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id := c.Param("id")
	if err := h.service.Revoke(c.Request.Context(), id); err != nil {
		if deferToOutbox(c, h.outbox, err, models.ActionRevokePermission, "revoke permission", claims.UserID, dto.RevokePermissionAction{ID: id}) {
			return
		}
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// List godoc
// @Summary List permissions
// @Tags Permissions
// @Produce json
// @Param student_id query string false "Student ID"
// @Param type query string false "LEAVE or OD"
// @Param active query bool false "Active only"
// @Success 200 {object} response.Envelope
// @Router /permissions [get]
func (h *PermissionHandler) List(c *gin.Context) {
	query := dto.PermissionQuery{
		StudentID: strings.TrimSpace(c.Query("student_id")),
	}
	if rawType := c.Query("type"); rawType != "" {
		query.Type = models.PermissionType(strings.ToUpper(rawType))
	}
	if raw := c.Query("active"); raw != "" {
		query.ActiveOnly, _ = strconv.ParseBool(raw)
	}
	if from, ok := parseDateQuery(c, "date_from"); ok {
		query.DateFrom = from
	}
	if to, ok := parseDateQuery(c, "date_to"); ok {
		query.DateTo = to
	}
	query.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	query.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	permissions, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, permissions, nil)
}

func parseDateQuery(c *gin.Context, key string) (*time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, false
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, false
	}
	return &parsed, true
}
