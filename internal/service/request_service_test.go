package service

import (
	"context"
	"database/sql"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-faculty-api/internal/dto"
	"github.com/noah-isme/sma-faculty-api/internal/models"
)

type requestRepoStub struct {
	requests         map[string]*models.CoverRequest
	nextID           int
	beforeTransition func()
}

func newRequestRepoStub() *requestRepoStub {
	return &requestRepoStub{requests: make(map[string]*models.CoverRequest)}
}

func (r *requestRepoStub) Create(ctx context.Context, request *models.CoverRequest) error {
	r.nextID++
	request.ID = "req-" + strconv.Itoa(r.nextID)
	request.RequestedAt = time.Now().UTC()
	copy := *request
	r.requests[request.ID] = &copy
	return nil
}

func (r *requestRepoStub) GetByID(ctx context.Context, id string) (*models.CoverRequest, error) {
	if req, ok := r.requests[id]; ok {
		copy := *req
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (r *requestRepoStub) List(ctx context.Context, filter models.CoverRequestFilter) ([]models.CoverRequest, error) {
	result := make([]models.CoverRequest, 0, len(r.requests))
	for _, req := range r.requests {
		switch filter.Role {
		case "sender":
			if req.SenderID != filter.UserID {
				continue
			}
		case "receiver":
			if req.ReceiverID != filter.UserID {
				continue
			}
		default:
			if req.SenderID != filter.UserID && req.ReceiverID != filter.UserID {
				continue
			}
		}
		result = append(result, *req)
	}
	return result, nil
}

func (r *requestRepoStub) TransitionIfPending(ctx context.Context, id string, status models.RequestStatus, respondedAt time.Time) error {
	if r.beforeTransition != nil {
		r.beforeTransition()
	}
	req, ok := r.requests[id]
	if !ok || req.Status != models.RequestStatusPending {
		return sql.ErrNoRows
	}
	req.Status = status
	req.RespondedAt = &respondedAt
	return nil
}

type sessionReaderStub struct {
	sessions map[string]models.AttendanceSession
}

func sessionKey(facultyID string, date time.Time, slotID string) string {
	return facultyID + "|" + date.Format("2006-01-02") + "|" + slotID
}

func (s *sessionReaderStub) FindAt(ctx context.Context, facultyID string, date time.Time, slotID string) (*models.AttendanceSession, error) {
	if session, ok := s.sessions[sessionKey(facultyID, date, slotID)]; ok {
		return &session, nil
	}
	return nil, sql.ErrNoRows
}

func strPtr(s string) *string { return &s }

func newRequestService(repo *requestRepoStub, sessions *sessionReaderStub, emitter *emitterStub) *CoverRequestService {
	if sessions == nil {
		sessions = &sessionReaderStub{}
	}
	var notifier notificationEmitter
	if emitter != nil {
		notifier = emitter
	}
	return NewCoverRequestService(repo, sessions, notifier, nil, nil)
}

func substitutionReq(receiverID, date, slotID string) dto.CreateCoverRequest {
	return dto.CreateCoverRequest{
		Kind:       models.RequestKindSubstitution,
		ReceiverID: receiverID,
		Date:       day(date),
		SlotID:     strPtr(slotID),
	}
}

func TestCoverRequestServiceCreate(t *testing.T) {
	repo := newRequestRepoStub()
	emitter := &emitterStub{}
	svc := newRequestService(repo, nil, emitter)

	request, err := svc.Create(context.Background(), substitutionReq("fac-2", "2026-03-05", "slot-3"), "fac-1")
	require.NoError(t, err)
	require.Equal(t, models.RequestStatusPending, request.Status)
	require.Len(t, emitter.created, 1)
	require.Equal(t, "fac-2", emitter.created[0].ReceiverID)
}

func TestCoverRequestServiceCreateValidation(t *testing.T) {
	svc := newRequestService(newRequestRepoStub(), nil, nil)
	ctx := context.Background()

	t.Run("self request", func(t *testing.T) {
		_, err := svc.Create(ctx, substitutionReq("fac-1", "2026-03-05", "slot-3"), "fac-1")
		require.Error(t, err)
	})

	t.Run("substitution without slot", func(t *testing.T) {
		req := substitutionReq("fac-2", "2026-03-05", "slot-3")
		req.SlotID = nil
		_, err := svc.Create(ctx, req, "fac-1")
		require.Error(t, err)
	})

	t.Run("swap without both slots", func(t *testing.T) {
		req := dto.CreateCoverRequest{
			Kind:         models.RequestKindSwap,
			ReceiverID:   "fac-2",
			Date:         day("2026-03-05"),
			SenderSlotID: strPtr("slot-1"),
		}
		_, err := svc.Create(ctx, req, "fac-1")
		require.Error(t, err)
	})
}

func TestCoverRequestServiceRespondDecline(t *testing.T) {
	repo := newRequestRepoStub()
	emitter := &emitterStub{}
	svc := newRequestService(repo, nil, emitter)
	ctx := context.Background()

	request, err := svc.Create(ctx, substitutionReq("fac-2", "2026-03-05", "slot-3"), "fac-1")
	require.NoError(t, err)

	outcome, err := svc.Respond(ctx, request.ID, dto.RespondCoverRequest{Action: models.RespondActionDecline}, "fac-2")
	require.NoError(t, err)
	require.Nil(t, outcome.Conflict)
	require.Equal(t, models.RequestStatusDeclined, outcome.Request.Status)
	require.NotNil(t, outcome.Request.RespondedAt)
	require.Len(t, emitter.resolved, 1)
}

func TestCoverRequestServiceRespondReceiverOnly(t *testing.T) {
	repo := newRequestRepoStub()
	svc := newRequestService(repo, nil, nil)
	ctx := context.Background()

	request, err := svc.Create(ctx, substitutionReq("fac-2", "2026-03-05", "slot-3"), "fac-1")
	require.NoError(t, err)

	_, err = svc.Respond(ctx, request.ID, dto.RespondCoverRequest{Action: models.RespondActionAccept}, "fac-1")
	require.Error(t, err)
	_, err = svc.Respond(ctx, request.ID, dto.RespondCoverRequest{Action: models.RespondActionAccept}, "fac-3")
	require.Error(t, err)
}

func TestCoverRequestServiceAcceptConflictThenOverride(t *testing.T) {
	repo := newRequestRepoStub()
	sessions := &sessionReaderStub{sessions: map[string]models.AttendanceSession{}}
	svc := newRequestService(repo, sessions, nil)
	ctx := context.Background()

	request, err := svc.Create(ctx, substitutionReq("fac-2", "2026-03-05", "slot-3"), "fac-1")
	require.NoError(t, err)

	// The receiver already teaches at the requested slot.
	sessions.sessions[sessionKey("fac-2", day("2026-03-05"), "slot-3")] = models.AttendanceSession{
		ID: "sess-9", FacultyID: "fac-2", Date: day("2026-03-05"), SlotID: "slot-3", ClassID: "10A",
	}

	outcome, err := svc.Respond(ctx, request.ID, dto.RespondCoverRequest{Action: models.RespondActionAccept}, "fac-2")
	require.NoError(t, err)
	require.NotNil(t, outcome.Conflict)
	require.Equal(t, "sess-9", outcome.Conflict.Session.ID)
	require.Equal(t, models.RequestStatusPending, outcome.Request.Status)

	// Still pending: the stored row must be untouched.
	stored, err := repo.GetByID(ctx, request.ID)
	require.NoError(t, err)
	require.Equal(t, models.RequestStatusPending, stored.Status)

	outcome, err = svc.Respond(ctx, request.ID, dto.RespondCoverRequest{Action: models.RespondActionAccept, Override: true}, "fac-2")
	require.NoError(t, err)
	require.Nil(t, outcome.Conflict)
	require.Equal(t, models.RequestStatusAccepted, outcome.Request.Status)
}

func TestCoverRequestServiceSwapConflictChecksSenderSlot(t *testing.T) {
	repo := newRequestRepoStub()
	sessions := &sessionReaderStub{sessions: map[string]models.AttendanceSession{}}
	svc := newRequestService(repo, sessions, nil)
	ctx := context.Background()

	req := dto.CreateCoverRequest{
		Kind:           models.RequestKindSwap,
		ReceiverID:     "fac-2",
		Date:           day("2026-03-05"),
		SenderSlotID:   strPtr("slot-1"),
		ReceiverSlotID: strPtr("slot-4"),
	}
	request, err := svc.Create(ctx, req, "fac-1")
	require.NoError(t, err)

	// Accepting a swap hands the receiver the sender's slot, so a session
	// at the receiver's own slot must not block it.
	sessions.sessions[sessionKey("fac-2", day("2026-03-05"), "slot-4")] = models.AttendanceSession{ID: "sess-own"}

	outcome, err := svc.Respond(ctx, request.ID, dto.RespondCoverRequest{Action: models.RespondActionAccept}, "fac-2")
	require.NoError(t, err)
	require.Nil(t, outcome.Conflict)
	require.Equal(t, models.RequestStatusAccepted, outcome.Request.Status)
}

func TestCoverRequestServiceRespondTerminalIsIdempotent(t *testing.T) {
	repo := newRequestRepoStub()
	emitter := &emitterStub{}
	svc := newRequestService(repo, nil, emitter)
	ctx := context.Background()

	request, err := svc.Create(ctx, substitutionReq("fac-2", "2026-03-05", "slot-3"), "fac-1")
	require.NoError(t, err)

	first, err := svc.Respond(ctx, request.ID, dto.RespondCoverRequest{Action: models.RespondActionDecline}, "fac-2")
	require.NoError(t, err)
	require.Equal(t, models.RequestStatusDeclined, first.Request.Status)

	// A duplicate tap must succeed and report the same terminal state
	// without emitting a second notification.
	second, err := svc.Respond(ctx, request.ID, dto.RespondCoverRequest{Action: models.RespondActionAccept}, "fac-2")
	require.NoError(t, err)
	require.Equal(t, models.RequestStatusDeclined, second.Request.Status)
	require.Len(t, emitter.resolved, 1)
}

func TestCoverRequestServiceRespondLostRace(t *testing.T) {
	repo := newRequestRepoStub()
	svc := newRequestService(repo, nil, nil)
	ctx := context.Background()

	request, err := svc.Create(ctx, substitutionReq("fac-2", "2026-03-05", "slot-3"), "fac-1")
	require.NoError(t, err)

	// Someone else resolves the request between our read and our write.
	repo.beforeTransition = func() {
		now := time.Now().UTC()
		repo.requests[request.ID].Status = models.RequestStatusAccepted
		repo.requests[request.ID].RespondedAt = &now
	}

	outcome, err := svc.Cancel(ctx, request.ID, "fac-1")
	require.NoError(t, err)
	require.Equal(t, models.RequestStatusAccepted, outcome.Request.Status)
}

func TestCoverRequestServiceCancel(t *testing.T) {
	repo := newRequestRepoStub()
	svc := newRequestService(repo, nil, nil)
	ctx := context.Background()

	request, err := svc.Create(ctx, substitutionReq("fac-2", "2026-03-05", "slot-3"), "fac-1")
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, request.ID, "fac-2")
	require.Error(t, err)

	outcome, err := svc.Cancel(ctx, request.ID, "fac-1")
	require.NoError(t, err)
	require.Equal(t, models.RequestStatusDeclined, outcome.Request.Status)
}

func TestCoverRequestServiceListBoxes(t *testing.T) {
	repo := newRequestRepoStub()
	svc := newRequestService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, substitutionReq("fac-2", "2026-03-05", "slot-3"), "fac-1")
	require.NoError(t, err)
	_, err = svc.Create(ctx, substitutionReq("fac-1", "2026-03-06", "slot-2"), "fac-3")
	require.NoError(t, err)

	inbox, err := svc.List(ctx, dto.CoverRequestQuery{Box: "inbox"}, "fac-1")
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	require.Equal(t, "fac-3", inbox[0].SenderID)

	outbox, err := svc.List(ctx, dto.CoverRequestQuery{Box: "outbox"}, "fac-1")
	require.NoError(t, err)
	require.Len(t, outbox, 1)
	require.Equal(t, "fac-2", outbox[0].ReceiverID)

	both, err := svc.List(ctx, dto.CoverRequestQuery{}, "fac-1")
	require.NoError(t, err)
	require.Len(t, both, 2)
}
