package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-faculty-api/internal/dto"
	appErrors "github.com/noah-isme/sma-faculty-api/pkg/errors"
	"github.com/noah-isme/sma-faculty-api/pkg/response"
)

type outboxService interface {
	Status(ctx context.Context, includeActions bool) (*dto.OutboxStatus, error)
	Flush(ctx context.Context) (*dto.FlushReport, error)
}

// OutboxHandler exposes the queued-action status and a manual flush trigger.
type OutboxHandler struct {
	service outboxService
}

// NewOutboxHandler constructs the handler.
func NewOutboxHandler(service outboxService) *OutboxHandler {
	return &OutboxHandler{service: service}
}

// Status godoc
// @Summary Report queued actions awaiting replay
// @Tags Outbox
// @Produce json
// @Param include_actions query bool false "Include the queued action payloads"
// @Success 200 {object} response.Envelope
// @Router /outbox [get]
func (h *OutboxHandler) Status(c *gin.Context) {
	includeActions := c.Query("include_actions") == "true"
	status, err := h.service.Status(c.Request.Context(), includeActions)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Flush godoc
// @Summary Replay queued actions now
// @Tags Outbox
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /outbox/flush [post]
func (h *OutboxHandler) Flush(c *gin.Context) {
	report, err := h.service.Flush(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if report == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrConflict, "a flush is already in progress"))
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
