package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-faculty-api/internal/models"
	appErrors "github.com/noah-isme/sma-faculty-api/pkg/errors"
	"github.com/noah-isme/sma-faculty-api/pkg/response"
)

type actionQueuer interface {
	Enqueue(ctx context.Context, actionType models.ActionType, description, actorID string, payload interface{}) (*models.QueuedAction, error)
}

// deferToOutbox queues the intent when the failure was transient (store
// unreachable, timeout) and acknowledges with 202. Business errors are never
// deferred; they return false so the caller surfaces them directly.
func deferToOutbox(c *gin.Context, outbox actionQueuer, cause error, actionType models.ActionType, description, actorID string, payload interface{}) bool {
	if outbox == nil || !appErrors.IsTransient(cause) {
		return false
	}
	action, err := outbox.Enqueue(c.Request.Context(), actionType, description, actorID, payload)
	if err != nil {
		response.Error(c, err)
		return true
	}
	response.Accepted(c, action)
	return true
}

func asOverlapConflict(err error) (*models.OverlapConflictError, bool) {
	var overlap *models.OverlapConflictError
	if errors.As(err, &overlap) {
		return overlap, true
	}
	return nil, false
}

func conflictResponse(c *gin.Context, overlap *models.OverlapConflictError) {
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusConflict, response.Envelope{
		Error: appErrors.Clone(appErrors.ErrConflict, overlap.Error()),
		Data:  overlap,
	})
}
