package service

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-faculty-api/internal/dto"
	"github.com/noah-isme/sma-faculty-api/internal/models"
	appErrors "github.com/noah-isme/sma-faculty-api/pkg/errors"
)

type outboxStore interface {
	Append(ctx context.Context, action *models.QueuedAction) error
	Peek(ctx context.Context) (*models.QueuedAction, error)
	RemoveHead(ctx context.Context) error
	Len(ctx context.Context) (int, error)
	All(ctx context.Context) ([]models.QueuedAction, error)
}

// ActionExecutor replays one queued action against the live services.
type ActionExecutor func(ctx context.Context, action models.QueuedAction) error

// OutboxService is the durable FIFO outbox for actions attempted while the
// backing store was unreachable. Replay is strictly sequential: later actions
// may depend on earlier ones (grant then update the same permission).
//
// Failure policy: a business error (validation, conflict, not-found) is
// logged and the action dropped; a transient infrastructure error stops the
// flush and leaves the action and everything behind it queued for the next
// online edge.
type OutboxService struct {
	repo      outboxStore
	executors map[models.ActionType]ActionExecutor
	online    func() bool
	metrics   *MetricsService
	logger    *zap.Logger

	flushing atomic.Bool
}

// NewOutboxService constructs the service. The online func reports the
// current connectivity belief for status reporting; nil means always online.
func NewOutboxService(repo outboxStore, online func() bool, metrics *MetricsService, logger *zap.Logger) *OutboxService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if online == nil {
		online = func() bool { return true }
	}
	return &OutboxService{
		repo:      repo,
		executors: make(map[models.ActionType]ActionExecutor),
		online:    online,
		metrics:   metrics,
		logger:    logger,
	}
}

// Register binds an executor to an action type. Call during wiring, before
// any flush runs.
func (s *OutboxService) Register(actionType models.ActionType, executor ActionExecutor) {
	s.executors[actionType] = executor
}

// Enqueue appends an action to the tail. Never rejects for capacity: actions
// are small and user-issued.
func (s *OutboxService) Enqueue(ctx context.Context, actionType models.ActionType, description, actorID string, payload interface{}) (*models.QueuedAction, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unserialisable action payload")
	}
	action := &models.QueuedAction{
		Type:        actionType,
		Description: description,
		ActorID:     actorID,
		Payload:     raw,
	}
	if err := s.repo.Append(ctx, action); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue action")
	}
	s.logger.Info("action queued for replay",
		zap.String("action_id", action.ID),
		zap.String("type", string(actionType)),
		zap.String("description", description),
	)
	return action, nil
}

// Flush replays the queue head-to-tail. Re-entrant-safe: a second call while
// one is running returns immediately so a connectivity flicker cannot start
// overlapping replays.
func (s *OutboxService) Flush(ctx context.Context) (*dto.FlushReport, error) {
	if !s.flushing.CompareAndSwap(false, true) {
		return nil, nil
	}
	defer s.flushing.Store(false)

	report := &dto.FlushReport{StartedAt: time.Now().UTC()}
	if s.metrics != nil {
		s.metrics.ObserveOutboxFlush()
	}

	for {
		if err := ctx.Err(); err != nil {
			return report, nil
		}
		action, err := s.repo.Peek(ctx)
		if err != nil {
			return report, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "outbox unreadable")
		}
		if action == nil {
			break
		}

		executor, ok := s.executors[action.Type]
		if !ok {
			s.logger.Error("no executor for queued action, dropping",
				zap.String("action_id", action.ID),
				zap.String("type", string(action.Type)),
			)
			if err := s.repo.RemoveHead(ctx); err != nil {
				return report, err
			}
			report.Dropped++
			continue
		}

		if err := executor(ctx, *action); err != nil {
			if appErrors.IsTransient(err) {
				// Still offline or flaky; stop here and keep the rest queued.
				s.logger.Warn("queued action deferred",
					zap.String("action_id", action.ID),
					zap.String("type", string(action.Type)),
					zap.Error(err),
				)
				if remaining, lenErr := s.repo.Len(ctx); lenErr == nil {
					report.Deferred = remaining
				}
				if s.metrics != nil {
					s.metrics.ObserveOutboxActions(report.Applied, report.Dropped, report.Deferred)
				}
				return report, nil
			}
			// Business failure: retrying would fail the same way.
			s.logger.Warn("queued action failed, dropping",
				zap.String("action_id", action.ID),
				zap.String("type", string(action.Type)),
				zap.String("description", action.Description),
				zap.Error(err),
			)
			report.Dropped++
		} else {
			report.Applied++
		}

		if err := s.repo.RemoveHead(ctx); err != nil {
			return report, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "outbox head not removable")
		}
	}

	if s.metrics != nil {
		s.metrics.ObserveOutboxActions(report.Applied, report.Dropped, report.Deferred)
	}
	s.logger.Info("outbox flush complete",
		zap.Int("applied", report.Applied),
		zap.Int("dropped", report.Dropped),
	)
	return report, nil
}

// Status reports the queue contents for the debug surface.
func (s *OutboxService) Status(ctx context.Context, includeActions bool) (*dto.OutboxStatus, error) {
	pending, err := s.repo.Len(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read outbox")
	}
	status := &dto.OutboxStatus{
		Online:   s.online(),
		Flushing: s.flushing.Load(),
		Pending:  pending,
	}
	if includeActions {
		actions, err := s.repo.All(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read outbox")
		}
		status.Actions = actions
	}
	return status, nil
}
