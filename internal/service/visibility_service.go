package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-faculty-api/internal/models"
	appErrors "github.com/noah-isme/sma-faculty-api/pkg/errors"
)

type tombstoneStore interface {
	Upsert(ctx context.Context, tombstone *models.Tombstone) error
	Exists(ctx context.Context, userID, itemID string) (bool, error)
	HiddenIDs(ctx context.Context, userID string, candidateIDs []string) ([]string, error)
}

// VisibilityService overlays per-user tombstones on shared items. Hiding is
// the only "deletion" a user can apply to a shared request: the record itself
// and the counterparty's view are never touched.
type VisibilityService struct {
	repo   tombstoneStore
	logger *zap.Logger
}

// NewVisibilityService constructs the service.
func NewVisibilityService(repo tombstoneStore, logger *zap.Logger) *VisibilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VisibilityService{repo: repo, logger: logger}
}

// Hide tombstones the item for this user only. Idempotent.
func (s *VisibilityService) Hide(ctx context.Context, userID, itemID string, itemType models.ItemType) error {
	if !itemType.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "unsupported item type")
	}
	tombstone := &models.Tombstone{UserID: userID, ItemID: itemID, ItemType: itemType}
	if err := s.repo.Upsert(ctx, tombstone); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hide item")
	}
	return nil
}

// IsVisible reports whether the user has not hidden the item.
func (s *VisibilityService) IsVisible(ctx context.Context, userID, itemID string) (bool, error) {
	hidden, err := s.repo.Exists(ctx, userID, itemID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check visibility")
	}
	return !hidden, nil
}

// FilterRequests drops requests the user has hidden, in one pass.
func (s *VisibilityService) FilterRequests(ctx context.Context, userID string, requests []models.CoverRequest) ([]models.CoverRequest, error) {
	if len(requests) == 0 {
		return requests, nil
	}
	ids := make([]string, len(requests))
	for i, r := range requests {
		ids[i] = r.ID
	}
	hidden, err := s.hiddenSet(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	visible := make([]models.CoverRequest, 0, len(requests))
	for _, r := range requests {
		if _, ok := hidden[r.ID]; !ok {
			visible = append(visible, r)
		}
	}
	return visible, nil
}

// FilterNotifications drops notifications the user has hidden, in one pass.
func (s *VisibilityService) FilterNotifications(ctx context.Context, userID string, notifications []models.Notification) ([]models.Notification, error) {
	if len(notifications) == 0 {
		return notifications, nil
	}
	ids := make([]string, len(notifications))
	for i, n := range notifications {
		ids[i] = n.ID
	}
	hidden, err := s.hiddenSet(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	visible := make([]models.Notification, 0, len(notifications))
	for _, n := range notifications {
		if _, ok := hidden[n.ID]; !ok {
			visible = append(visible, n)
		}
	}
	return visible, nil
}

func (s *VisibilityService) hiddenSet(ctx context.Context, userID string, ids []string) (map[string]struct{}, error) {
	hiddenIDs, err := s.repo.HiddenIDs(ctx, userID, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to filter hidden items")
	}
	hidden := make(map[string]struct{}, len(hiddenIDs))
	for _, id := range hiddenIDs {
		hidden[id] = struct{}{}
	}
	return hidden, nil
}
