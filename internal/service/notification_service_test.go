package service

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-faculty-api/internal/models"
	"github.com/noah-isme/sma-faculty-api/pkg/jobs"
)

type notificationRepoStub struct {
	mu            sync.Mutex
	notifications []models.Notification
	nextID        int
}

func (n *notificationRepoStub) Create(ctx context.Context, notification *models.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextID++
	notification.ID = "ntf-" + strconv.Itoa(n.nextID)
	notification.CreatedAt = time.Now().UTC()
	n.notifications = append(n.notifications, *notification)
	return nil
}

func (n *notificationRepoStub) ListByRecipient(ctx context.Context, recipientID string, limit, offset int) ([]models.Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	var result []models.Notification
	for _, ntf := range n.notifications {
		if ntf.RecipientID == recipientID {
			result = append(result, ntf)
		}
	}
	return result, nil
}

func (n *notificationRepoStub) Delete(ctx context.Context, id, recipientID string) (int64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, ntf := range n.notifications {
		if ntf.ID == id && ntf.RecipientID == recipientID {
			n.notifications = append(n.notifications[:i], n.notifications[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func TestNotificationServiceEmitPersistsAndDispatches(t *testing.T) {
	repo := &notificationRepoStub{}
	var mu sync.Mutex
	var delivered []string
	dispatcher := DispatcherFunc(func(ctx context.Context, recipientID string, payload []byte) error {
		mu.Lock()
		defer mu.Unlock()
		delivered = append(delivered, recipientID)
		return nil
	})
	svc := NewNotificationService(repo, nil, dispatcher, jobs.QueueConfig{Workers: 1}, nil)
	svc.Start(context.Background())
	defer svc.Stop()

	svc.RequestCreated(context.Background(), &models.CoverRequest{
		Kind:       models.RequestKindSubstitution,
		SenderID:   "fac-1",
		ReceiverID: "fac-2",
		Date:       day("2026-03-05"),
	})

	// The row is written synchronously; delivery is asynchronous.
	notifications, err := svc.ListVisible(context.Background(), "fac-2", 50, 0)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	require.Equal(t, models.NotificationKindRequestCreated, notifications[0].Kind)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(delivered) == 1 && delivered[0] == "fac-2"
	}, time.Second, 10*time.Millisecond)
}

func TestNotificationServiceListVisibleFiltersHidden(t *testing.T) {
	repo := &notificationRepoStub{}
	tombstones := newTombstoneRepoStub()
	visibility := NewVisibilityService(tombstones, nil)
	svc := NewNotificationService(repo, visibility, nil, jobs.QueueConfig{}, nil)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Notification{RecipientID: "fac-1", Kind: models.NotificationKindRequestResolved}))
	require.NoError(t, repo.Create(ctx, &models.Notification{RecipientID: "fac-1", Kind: models.NotificationKindRequestResolved}))
	require.NoError(t, visibility.Hide(ctx, "fac-1", "ntf-1", models.ItemTypeNotification))

	notifications, err := svc.ListVisible(ctx, "fac-1", 50, 0)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	require.Equal(t, "ntf-2", notifications[0].ID)
}

func TestNotificationServiceDeleteOwnerOnly(t *testing.T) {
	repo := &notificationRepoStub{}
	svc := NewNotificationService(repo, nil, nil, jobs.QueueConfig{}, nil)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Notification{RecipientID: "fac-1"}))

	// Someone else's delete is a silent no-op; the row survives.
	require.NoError(t, svc.Delete(ctx, "ntf-1", "fac-2"))
	remaining, err := svc.ListVisible(ctx, "fac-1", 50, 0)
	require.NoError(t, err)
	require.Len(t, remaining, 1)

	require.NoError(t, svc.Delete(ctx, "ntf-1", "fac-1"))
	remaining, err = svc.ListVisible(ctx, "fac-1", 50, 0)
	require.NoError(t, err)
	require.Empty(t, remaining)

	// Deleting again stays idempotent.
	require.NoError(t, svc.Delete(ctx, "ntf-1", "fac-1"))
}
