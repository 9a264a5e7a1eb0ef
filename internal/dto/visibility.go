package dto

import "github.com/noah-isme/sma-faculty-api/internal/models"

// HideItemRequest tombstones a shared item for the calling user only.
type HideItemRequest struct {
	ItemType models.ItemType `json:"item_type" validate:"required,oneof=REQUEST NOTIFICATION"`
}
