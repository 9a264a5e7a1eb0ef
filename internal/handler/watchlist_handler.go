package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-faculty-api/internal/models"
	"github.com/noah-isme/sma-faculty-api/pkg/response"
)

type watchlistService interface {
	Current(ctx context.Context) (*models.Watchlist, error)
	Export(ctx context.Context, format string) ([]byte, string, error)
}

// WatchlistHandler serves the critical-student watchlist.
type WatchlistHandler struct {
	service watchlistService
}

// NewWatchlistHandler constructs the handler.
func NewWatchlistHandler(service watchlistService) *WatchlistHandler {
	return &WatchlistHandler{service: service}
}

// Current godoc
// @Summary Current critical-student watchlist
// @Tags Watchlist
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /watchlist [get]
func (h *WatchlistHandler) Current(c *gin.Context) {
	watchlist, err := h.service.Current(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, watchlist, nil)
}

// Export godoc
// @Summary Export the watchlist as CSV or PDF
// @Tags Watchlist
// @Produce octet-stream
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /watchlist/export [get]
func (h *WatchlistHandler) Export(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "csv"))
	data, contentType, err := h.service.Export(c.Request.Context(), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("watchlist-%s.%s", time.Now().UTC().Format("2006-01-02"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}
