package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-faculty-api/internal/dto"
	"github.com/noah-isme/sma-faculty-api/internal/models"
	appErrors "github.com/noah-isme/sma-faculty-api/pkg/errors"
	"github.com/noah-isme/sma-faculty-api/pkg/response"
)

type notificationService interface {
	ListVisible(ctx context.Context, recipientID string, limit, offset int) ([]models.Notification, error)
	Delete(ctx context.Context, id, recipientID string) error
}

type notificationVisibility interface {
	Hide(ctx context.Context, userID, itemID string, itemType models.ItemType) error
}

// NotificationHandler exposes the notification feed endpoints.
type NotificationHandler struct {
	service    notificationService
	visibility notificationVisibility
	outbox     actionQueuer
}

// NewNotificationHandler constructs the handler.
func NewNotificationHandler(service notificationService, visibility notificationVisibility, outbox actionQueuer) *NotificationHandler {
	return &NotificationHandler{service: service, visibility: visibility, outbox: outbox}
}

// List godoc
// @Summary List the caller's notifications
// @Tags Notifications
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	notifications, err := h.service.ListVisible(c.Request.Context(), claims.UserID, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notifications, nil)
}

// Delete godoc
// @Summary Delete one of the caller's notifications
// @Tags Notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 204
// @Router /notifications/{id} [delete]
func (h *NotificationHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Hide godoc
// @Summary Hide a notification from the caller's view
// @Tags Notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 204
// @Router /notifications/{id}/hide [post]
func (h *NotificationHandler) Hide(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id := c.Param("id")
	if err := h.visibility.Hide(c.Request.Context(), claims.UserID, id, models.ItemTypeNotification); err != nil {
		if deferToOutbox(c, h.outbox, err, models.ActionHideItem, "hide notification", claims.UserID, dto.HideItemAction{ItemID: id, ItemType: models.ItemTypeNotification}) {
			return
		}
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
