package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-faculty-api/internal/dto"
	"github.com/noah-isme/sma-faculty-api/internal/models"
	appErrors "github.com/noah-isme/sma-faculty-api/pkg/errors"
	"github.com/noah-isme/sma-faculty-api/pkg/response"
)

type coverRequestService interface {
	Create(ctx context.Context, req dto.CreateCoverRequest, senderID string) (*models.CoverRequest, error)
	Respond(ctx context.Context, id string, req dto.RespondCoverRequest, actorID string) (*dto.RespondOutcome, error)
	Cancel(ctx context.Context, id, actorID string) (*dto.RespondOutcome, error)
	List(ctx context.Context, query dto.CoverRequestQuery, actorID string) ([]models.CoverRequest, error)
}

type requestVisibility interface {
	Hide(ctx context.Context, userID, itemID string, itemType models.ItemType) error
	FilterRequests(ctx context.Context, userID string, requests []models.CoverRequest) ([]models.CoverRequest, error)
}

// CoverRequestHandler exposes REST endpoints for substitution/swap requests.
type CoverRequestHandler struct {
	service    coverRequestService
	visibility requestVisibility
	outbox     actionQueuer
}

// NewCoverRequestHandler constructs the handler.
func NewCoverRequestHandler(service coverRequestService, visibility requestVisibility, outbox actionQueuer) *CoverRequestHandler {
	return &CoverRequestHandler{service: service, visibility: visibility, outbox: outbox}
}

// Create godoc
// @Summary Create a substitution or swap request
// @Tags CoverRequests
// @Accept json
// @Produce json
// @Param payload body dto.CreateCoverRequest true "Request payload"
// @Success 201 {object} response.Envelope
// @Router /cover-requests [post]
func (h *CoverRequestHandler) Create(c *gin.Context) {
	var req dto.CreateCoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid cover request payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	request, err := h.service.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		if deferToOutbox(c, h.outbox, err, models.ActionCreateRequest, "create cover request", claims.UserID, req) {
			return
		}
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// Respond godoc
// @Summary Accept or decline a pending request
// @Tags CoverRequests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.RespondCoverRequest true "Decision payload"
// @Success 200 {object} response.Envelope "Terminal status, or pending with a schedule conflict"
// @Router /cover-requests/{id}/respond [post]
func (h *CoverRequestHandler) Respond(c *gin.Context) {
	var req dto.RespondCoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid respond payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id := c.Param("id")
	outcome, err := h.service.Respond(c.Request.Context(), id, req, claims.UserID)
	if err != nil {
		if deferToOutbox(c, h.outbox, err, models.ActionRespondRequest, "respond to cover request", claims.UserID, dto.RespondRequestAction{ID: id, Request: req}) {
			return
		}
		response.Error(c, err)
		return
	}
	if outcome.Conflict != nil {
		response.JSON(c, http.StatusConflict, outcome, nil)
		return
	}
	response.JSON(c, http.StatusOK, outcome, nil)
}

// Cancel godoc
// @Summary Cancel a pending request (sender only)
// @Tags CoverRequests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /cover-requests/{id}/cancel [post]
func (h *CoverRequestHandler) Cancel(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id := c.Param("id")
	outcome, err := h.service.Cancel(c.Request.Context(), id, claims.UserID)
	if err != nil {
		if deferToOutbox(c, h.outbox, err, models.ActionCancelRequest, "cancel cover request", claims.UserID, dto.CancelRequestAction{ID: id}) {
			return
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, outcome, nil)
}

// Hide godoc
// @Summary Hide a request from the caller's view
// @Tags CoverRequests
// @Produce json
// @Param id path string true "Request ID"
// @Success 204
// @Router /cover-requests/{id}/hide [post]
func (h *CoverRequestHandler) Hide(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id := c.Param("id")
	if err := h.visibility.Hide(c.Request.Context(), claims.UserID, id, models.ItemTypeRequest); err != nil {
		if deferToOutbox(c, h.outbox, err, models.ActionHideItem, "hide cover request", claims.UserID, dto.HideItemAction{ItemID: id, ItemType: models.ItemTypeRequest}) {
			return
		}
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// List godoc
// @Summary List the caller's requests
// @Tags CoverRequests
// @Produce json
// @Param box query string false "inbox or outbox"
// @Param kind query string false "SUBSTITUTION or SWAP"
// @Param status query string false "Comma separated statuses"
// @Success 200 {object} response.Envelope
// @Router /cover-requests [get]
func (h *CoverRequestHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	query := dto.CoverRequestQuery{
		Box: strings.ToLower(strings.TrimSpace(c.Query("box"))),
	}
	if rawKind := c.Query("kind"); rawKind != "" {
		query.Kind = models.RequestKind(strings.ToUpper(rawKind))
	}
	if rawStatus := c.Query("status"); rawStatus != "" {
		parts := strings.Split(rawStatus, ",")
		statuses := make([]models.RequestStatus, 0, len(parts))
		for _, part := range parts {
			part = strings.ToUpper(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			statuses = append(statuses, models.RequestStatus(part))
		}
		query.Status = statuses
	}
	if from, ok := parseDateQuery(c, "date_from"); ok {
		query.DateFrom = from
	}
	if to, ok := parseDateQuery(c, "date_to"); ok {
		query.DateTo = to
	}
	query.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	query.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	requests, err := h.service.List(c.Request.Context(), query, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.visibility != nil {
		requests, err = h.visibility.FilterRequests(c.Request.Context(), claims.UserID, requests)
		if err != nil {
			response.Error(c, err)
			return
		}
	}
	response.JSON(c, http.StatusOK, requests, nil)
}
