package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-faculty-api/internal/models"
	appErrors "github.com/noah-isme/sma-faculty-api/pkg/errors"
	"github.com/noah-isme/sma-faculty-api/pkg/jobs"
)

type notificationStore interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByRecipient(ctx context.Context, recipientID string, limit, offset int) ([]models.Notification, error)
	Delete(ctx context.Context, id, recipientID string) (int64, error)
}

// Dispatcher pushes a payload to a recipient's device. Delivery is fire and
// forget: a failure must never roll back the business transaction that
// produced the notification.
type Dispatcher interface {
	Deliver(ctx context.Context, recipientID string, payload []byte) error
}

// DispatcherFunc allows using plain functions as dispatchers.
type DispatcherFunc func(ctx context.Context, recipientID string, payload []byte) error

// Deliver implements Dispatcher.
func (f DispatcherFunc) Deliver(ctx context.Context, recipientID string, payload []byte) error {
	return f(ctx, recipientID, payload)
}

// notificationEmitter is what the permission and request services see: typed
// events, no knowledge of persistence or delivery.
type notificationEmitter interface {
	RequestCreated(ctx context.Context, request *models.CoverRequest)
	RequestResolved(ctx context.Context, request *models.CoverRequest)
	PermissionGranted(ctx context.Context, permission *models.Permission)
}

type noopEmitter struct{}

func (noopEmitter) RequestCreated(context.Context, *models.CoverRequest)    {}
func (noopEmitter) RequestResolved(context.Context, *models.CoverRequest)   {}
func (noopEmitter) PermissionGranted(context.Context, *models.Permission)   {}

// NotificationService stores notification rows and hands delivery to the
// dispatch queue workers.
type NotificationService struct {
	repo       notificationStore
	visibility *VisibilityService
	queue      *jobs.Queue
	dispatcher Dispatcher
	logger     *zap.Logger
}

// NewNotificationService constructs the service and its dispatch queue. Call
// Start before use and Stop on shutdown.
func NewNotificationService(repo notificationStore, visibility *VisibilityService, dispatcher Dispatcher, cfg jobs.QueueConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dispatcher == nil {
		dispatcher = DispatcherFunc(func(ctx context.Context, recipientID string, payload []byte) error {
			logger.Debug("notification dispatched", zap.String("recipient_id", recipientID))
			return nil
		})
	}
	s := &NotificationService{
		repo:       repo,
		visibility: visibility,
		dispatcher: dispatcher,
		logger:     logger,
	}
	cfg.Logger = logger
	s.queue = jobs.NewQueue("notifications", s.deliver, cfg)
	return s
}

// Start launches the dispatch workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the dispatch workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// RequestCreated notifies the receiver about a new pending request.
func (s *NotificationService) RequestCreated(ctx context.Context, request *models.CoverRequest) {
	kind := "substitution"
	if request.Kind == models.RequestKindSwap {
		kind = "swap"
	}
	s.emit(ctx, &models.Notification{
		RecipientID: request.ReceiverID,
		Kind:        models.NotificationKindRequestCreated,
		Title:       fmt.Sprintf("New %s request", kind),
		Body:        fmt.Sprintf("You have a %s request for %s", kind, request.Date.Format("2006-01-02")),
	}, request)
}

// RequestResolved notifies the sender about the receiver's decision.
func (s *NotificationService) RequestResolved(ctx context.Context, request *models.CoverRequest) {
	verb := "declined"
	if request.Status == models.RequestStatusAccepted {
		verb = "accepted"
	}
	s.emit(ctx, &models.Notification{
		RecipientID: request.SenderID,
		Kind:        models.NotificationKindRequestResolved,
		Title:       fmt.Sprintf("Request %s", verb),
		Body:        fmt.Sprintf("Your request for %s was %s", request.Date.Format("2006-01-02"), verb),
	}, request)
}

// PermissionGranted notifies the student about a new permission.
func (s *NotificationService) PermissionGranted(ctx context.Context, permission *models.Permission) {
	s.emit(ctx, &models.Notification{
		RecipientID: permission.StudentID,
		Kind:        models.NotificationKindPermission,
		Title:       fmt.Sprintf("%s permission granted", permission.Type),
		Body: fmt.Sprintf("Approved from %s to %s",
			permission.StartDate.Format("2006-01-02"),
			permission.EndDate.Format("2006-01-02")),
	}, permission)
}

func (s *NotificationService) emit(ctx context.Context, notification *models.Notification, payload interface{}) {
	if raw, err := json.Marshal(payload); err == nil {
		notification.Payload = raw
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		s.logger.Warn("failed to persist notification", zap.Error(err))
		return
	}
	if s.dispatcher == nil {
		return
	}
	if err := s.queue.Enqueue(jobs.Job{
		ID:      notification.ID,
		Type:    string(notification.Kind),
		Payload: notification,
	}); err != nil {
		s.logger.Warn("failed to enqueue notification delivery", zap.Error(err))
	}
}

func (s *NotificationService) deliver(ctx context.Context, job jobs.Job) error {
	notification, ok := job.Payload.(*models.Notification)
	if !ok {
		return fmt.Errorf("unexpected notification payload type %T", job.Payload)
	}
	raw, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	return s.dispatcher.Deliver(ctx, notification.RecipientID, raw)
}

// ListVisible returns the recipient's notifications with hidden ones
// filtered out.
func (s *NotificationService) ListVisible(ctx context.Context, recipientID string, limit, offset int) ([]models.Notification, error) {
	notifications, err := s.repo.ListByRecipient(ctx, recipientID, limit, offset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	if s.visibility == nil {
		return notifications, nil
	}
	return s.visibility.FilterNotifications(ctx, recipientID, notifications)
}

// Delete hard-removes a notification the recipient owns. Removing a missing
// id is a successful no-op.
func (s *NotificationService) Delete(ctx context.Context, id, recipientID string) error {
	rows, err := s.repo.Delete(ctx, id, recipientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete notification")
	}
	if rows == 0 {
		s.logger.Debug("delete of missing notification ignored", zap.String("notification_id", id))
	}
	return nil
}
