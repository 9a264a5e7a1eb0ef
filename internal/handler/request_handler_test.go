package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-faculty-api/internal/dto"
	"github.com/noah-isme/sma-faculty-api/internal/middleware"
	"github.com/noah-isme/sma-faculty-api/internal/models"
	appErrors "github.com/noah-isme/sma-faculty-api/pkg/errors"
)

type coverRequestServiceMock struct {
	createResp  *models.CoverRequest
	createErr   error
	respondResp *dto.RespondOutcome
	respondErr  error
	listResp    []models.CoverRequest
	lastQuery   dto.CoverRequestQuery
}

func (m *coverRequestServiceMock) Create(ctx context.Context, req dto.CreateCoverRequest, senderID string) (*models.CoverRequest, error) {
	return m.createResp, m.createErr
}

func (m *coverRequestServiceMock) Respond(ctx context.Context, id string, req dto.RespondCoverRequest, actorID string) (*dto.RespondOutcome, error) {
	return m.respondResp, m.respondErr
}

func (m *coverRequestServiceMock) Cancel(ctx context.Context, id, actorID string) (*dto.RespondOutcome, error) {
	return m.respondResp, m.respondErr
}

func (m *coverRequestServiceMock) List(ctx context.Context, query dto.CoverRequestQuery, actorID string) ([]models.CoverRequest, error) {
	m.lastQuery = query
	return m.listResp, nil
}

type visibilityMock struct {
	hidden  []string
	hideErr error
}

func (m *visibilityMock) Hide(ctx context.Context, userID, itemID string, itemType models.ItemType) error {
	if m.hideErr != nil {
		return m.hideErr
	}
	m.hidden = append(m.hidden, itemID)
	return nil
}

func (m *visibilityMock) FilterRequests(ctx context.Context, userID string, requests []models.CoverRequest) ([]models.CoverRequest, error) {
	return requests, nil
}

type queuerMock struct {
	enqueued []models.ActionType
	action   *models.QueuedAction
}

func (m *queuerMock) Enqueue(ctx context.Context, actionType models.ActionType, description, actorID string, payload interface{}) (*models.QueuedAction, error) {
	m.enqueued = append(m.enqueued, actionType)
	if m.action != nil {
		return m.action, nil
	}
	return &models.QueuedAction{ID: "act-1", Type: actionType, ActorID: actorID}, nil
}

func testContext(t *testing.T, method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *bytes.Buffer
	if body != nil {
		reader = bytes.NewBuffer(body)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "fac-2", Role: models.RoleFaculty})
	return c, w
}

func TestCoverRequestHandlerRespondConflict(t *testing.T) {
	conflict := &models.ScheduleConflictError{
		RequestID: "req-1",
		Session:   models.AttendanceSession{ID: "sess-1", SlotID: "slot-3"},
	}
	mockSvc := &coverRequestServiceMock{
		respondResp: &dto.RespondOutcome{
			Request:  &models.CoverRequest{ID: "req-1", Status: models.RequestStatusPending},
			Conflict: conflict,
		},
	}
	handler := NewCoverRequestHandler(mockSvc, &visibilityMock{}, &queuerMock{})

	body, _ := json.Marshal(dto.RespondCoverRequest{Action: models.RespondActionAccept})
	c, w := testContext(t, http.MethodPost, "/cover-requests/req-1/respond", body)
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}

	handler.Respond(c)
	require.Equal(t, http.StatusConflict, w.Code)

	var envelope struct {
		Data dto.RespondOutcome `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Data.Conflict)
	assert.Equal(t, "sess-1", envelope.Data.Conflict.Session.ID)
}

func TestCoverRequestHandlerRespondAccepted(t *testing.T) {
	now := time.Now().UTC()
	mockSvc := &coverRequestServiceMock{
		respondResp: &dto.RespondOutcome{
			Request: &models.CoverRequest{ID: "req-1", Status: models.RequestStatusAccepted, RespondedAt: &now},
		},
	}
	handler := NewCoverRequestHandler(mockSvc, &visibilityMock{}, &queuerMock{})

	body, _ := json.Marshal(dto.RespondCoverRequest{Action: models.RespondActionAccept, Override: true})
	c, w := testContext(t, http.MethodPost, "/cover-requests/req-1/respond", body)
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}

	handler.Respond(c)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestCoverRequestHandlerRespondTransientQueues(t *testing.T) {
	mockSvc := &coverRequestServiceMock{
		respondErr: appErrors.Clone(appErrors.ErrUnavailable, "store unreachable"),
	}
	queuer := &queuerMock{}
	handler := NewCoverRequestHandler(mockSvc, &visibilityMock{}, queuer)

	body, _ := json.Marshal(dto.RespondCoverRequest{Action: models.RespondActionDecline})
	c, w := testContext(t, http.MethodPost, "/cover-requests/req-1/respond", body)
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}

	handler.Respond(c)
	require.Equal(t, http.StatusAccepted, w.Code)
	require.Equal(t, []models.ActionType{models.ActionRespondRequest}, queuer.enqueued)
}

func TestCoverRequestHandlerRespondBusinessErrorNotQueued(t *testing.T) {
	mockSvc := &coverRequestServiceMock{
		respondErr: appErrors.Clone(appErrors.ErrForbidden, "only the receiver may respond to this request"),
	}
	queuer := &queuerMock{}
	handler := NewCoverRequestHandler(mockSvc, &visibilityMock{}, queuer)

	body, _ := json.Marshal(dto.RespondCoverRequest{Action: models.RespondActionDecline})
	c, w := testContext(t, http.MethodPost, "/cover-requests/req-1/respond", body)
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}

	handler.Respond(c)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, queuer.enqueued)
}

func TestCoverRequestHandlerListParsesQuery(t *testing.T) {
	mockSvc := &coverRequestServiceMock{}
	handler := NewCoverRequestHandler(mockSvc, &visibilityMock{}, &queuerMock{})

	c, w := testContext(t, http.MethodGet, "/cover-requests?box=inbox&kind=swap&status=pending,accepted", nil)

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "inbox", mockSvc.lastQuery.Box)
	assert.Equal(t, models.RequestKindSwap, mockSvc.lastQuery.Kind)
	assert.Equal(t, []models.RequestStatus{models.RequestStatusPending, models.RequestStatusAccepted}, mockSvc.lastQuery.Status)
}

func TestCoverRequestHandlerHide(t *testing.T) {
	visibility := &visibilityMock{}
	handler := NewCoverRequestHandler(&coverRequestServiceMock{}, visibility, &queuerMock{})

	c, w := testContext(t, http.MethodPost, "/cover-requests/req-9/hide", nil)
	c.Params = gin.Params{{Key: "id", Value: "req-9"}}

	handler.Hide(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, []string{"req-9"}, visibility.hidden)
}
