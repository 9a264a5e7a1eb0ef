package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-faculty-api/internal/dto"
	"github.com/noah-isme/sma-faculty-api/internal/models"
	appErrors "github.com/noah-isme/sma-faculty-api/pkg/errors"
)

type coverRequestStore interface {
	Create(ctx context.Context, request *models.CoverRequest) error
	GetByID(ctx context.Context, id string) (*models.CoverRequest, error)
	List(ctx context.Context, filter models.CoverRequestFilter) ([]models.CoverRequest, error)
	TransitionIfPending(ctx context.Context, id string, status models.RequestStatus, respondedAt time.Time) error
}

type sessionReader interface {
	FindAt(ctx context.Context, facultyID string, date time.Time, slotID string) (*models.AttendanceSession, error)
}

// CoverRequestService owns the substitution/swap state machine. Transitions
// are written with an update-if-still-pending guard so duplicate or racing
// responses apply exactly once.
type CoverRequestService struct {
	repo      coverRequestStore
	sessions  sessionReader
	notifier  notificationEmitter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCoverRequestService constructs the service.
func NewCoverRequestService(repo coverRequestStore, sessions sessionReader, notifier notificationEmitter, validate *validator.Validate, logger *zap.Logger) *CoverRequestService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = noopEmitter{}
	}
	return &CoverRequestService{repo: repo, sessions: sessions, notifier: notifier, validator: validate, logger: logger}
}

// Create inserts a pending request. No conflict check happens here: the
// receiver's schedule may change between request and response, so conflicts
// are only meaningful at acceptance time.
func (s *CoverRequestService) Create(ctx context.Context, req dto.CreateCoverRequest, senderID string) (*models.CoverRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cover request payload")
	}
	if req.ReceiverID == senderID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot request cover from yourself")
	}
	switch req.Kind {
	case models.RequestKindSubstitution:
		if req.SlotID == nil || *req.SlotID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "slot_id is required for substitution requests")
		}
	case models.RequestKindSwap:
		if req.SenderSlotID == nil || *req.SenderSlotID == "" || req.ReceiverSlotID == nil || *req.ReceiverSlotID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "sender_slot_id and receiver_slot_id are required for swap requests")
		}
	}

	request := &models.CoverRequest{
		Kind:           req.Kind,
		SenderID:       senderID,
		ReceiverID:     req.ReceiverID,
		Date:           req.Date,
		SlotID:         req.SlotID,
		SenderSlotID:   req.SenderSlotID,
		ReceiverSlotID: req.ReceiverSlotID,
		Reason:         req.Reason,
		Status:         models.RequestStatusPending,
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create cover request")
	}

	s.notifier.RequestCreated(ctx, request)
	return request, nil
}

// Respond applies the receiver's decision.
//
// Decline transitions directly. Accept first checks whether the responder
// already holds a session at the target (date, slot); if so, and Override is
// false, the outcome carries the conflicting session and the request stays
// pending so the caller can confirm. A response landing on an already
// terminal request is reported as success with the terminal record, keeping
// duplicate taps and network retries idempotent.
func (s *CoverRequestService) Respond(ctx context.Context, id string, req dto.RespondCoverRequest, actorID string) (*dto.RespondOutcome, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid respond payload")
	}

	request, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.ReceiverID != actorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the receiver may respond to this request")
	}
	if request.Status.Terminal() {
		return &dto.RespondOutcome{Request: request}, nil
	}

	target := models.RequestStatusDeclined
	if req.Action == models.RespondActionAccept {
		target = models.RequestStatusAccepted
		if !req.Override {
			conflict, err := s.scheduleConflict(ctx, request, actorID)
			if err != nil {
				return nil, err
			}
			if conflict != nil {
				return &dto.RespondOutcome{Request: request, Conflict: conflict}, nil
			}
		}
	}

	return s.transition(ctx, request, target)
}

// Cancel is the sender withdrawing a pending request; it lands in DECLINED.
// Cancelling an already terminal request is a successful no-op.
func (s *CoverRequestService) Cancel(ctx context.Context, id, actorID string) (*dto.RespondOutcome, error) {
	request, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.SenderID != actorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the sender may cancel this request")
	}
	if request.Status.Terminal() {
		return &dto.RespondOutcome{Request: request}, nil
	}
	return s.transition(ctx, request, models.RequestStatusDeclined)
}

// List returns the actor's requests matching the query.
func (s *CoverRequestService) List(ctx context.Context, query dto.CoverRequestQuery, actorID string) ([]models.CoverRequest, error) {
	filter := models.CoverRequestFilter{
		UserID:   actorID,
		Kind:     query.Kind,
		Status:   query.Status,
		DateFrom: query.DateFrom,
		DateTo:   query.DateTo,
		Limit:    query.Limit,
		Offset:   query.Offset,
	}
	switch query.Box {
	case "inbox":
		filter.Role = "receiver"
	case "outbox":
		filter.Role = "sender"
	}
	requests, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cover requests")
	}
	return requests, nil
}

func (s *CoverRequestService) load(ctx context.Context, id string) (*models.CoverRequest, error) {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "cover request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cover request")
	}
	return request, nil
}

// scheduleConflict checks the responder's calendar at the slot acceptance
// would hand over: the request's own slot for a substitution, the sender's
// slot for a swap.
func (s *CoverRequestService) scheduleConflict(ctx context.Context, request *models.CoverRequest, responderID string) (*models.ScheduleConflictError, error) {
	slotID := request.TargetSlot()
	if slotID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "request has no target slot")
	}
	session, err := s.sessions.FindAt(ctx, responderID, request.Date, slotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check schedule conflict")
	}
	return &models.ScheduleConflictError{RequestID: request.ID, Session: *session}, nil
}

func (s *CoverRequestService) transition(ctx context.Context, request *models.CoverRequest, status models.RequestStatus) (*dto.RespondOutcome, error) {
	now := time.Now().UTC()
	if err := s.repo.TransitionIfPending(ctx, request.ID, status, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Lost the race: someone else resolved it first. Re-read and
			// report the terminal state as success.
			resolved, loadErr := s.load(ctx, request.ID)
			if loadErr != nil {
				return nil, loadErr
			}
			return &dto.RespondOutcome{Request: resolved}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update cover request")
	}

	request.Status = status
	request.RespondedAt = &now
	s.notifier.RequestResolved(ctx, request)
	return &dto.RespondOutcome{Request: request}, nil
}
