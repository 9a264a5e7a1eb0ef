package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-faculty-api/internal/models"
	appErrors "github.com/noah-isme/sma-faculty-api/pkg/errors"
)

type outboxRepoStub struct {
	actions []models.QueuedAction
}

func (o *outboxRepoStub) Append(ctx context.Context, action *models.QueuedAction) error {
	if action.ID == "" {
		action.ID = uuid.NewString()
	}
	o.actions = append(o.actions, *action)
	return nil
}

func (o *outboxRepoStub) Peek(ctx context.Context) (*models.QueuedAction, error) {
	if len(o.actions) == 0 {
		return nil, nil
	}
	head := o.actions[0]
	return &head, nil
}

func (o *outboxRepoStub) RemoveHead(ctx context.Context) error {
	if len(o.actions) == 0 {
		return errors.New("empty outbox")
	}
	o.actions = o.actions[1:]
	return nil
}

func (o *outboxRepoStub) Len(ctx context.Context) (int, error) {
	return len(o.actions), nil
}

func (o *outboxRepoStub) All(ctx context.Context) ([]models.QueuedAction, error) {
	return append([]models.QueuedAction(nil), o.actions...), nil
}

func TestOutboxServiceEnqueue(t *testing.T) {
	repo := &outboxRepoStub{}
	svc := NewOutboxService(repo, nil, nil, nil)

	action, err := svc.Enqueue(context.Background(), models.ActionCancelRequest, "cancel cover request", "fac-1", map[string]string{"id": "req-1"})
	require.NoError(t, err)
	require.NotEmpty(t, action.ID)
	require.Equal(t, "fac-1", action.ActorID)
	require.Len(t, repo.actions, 1)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(repo.actions[0].Payload, &payload))
	require.Equal(t, "req-1", payload["id"])
}

func TestOutboxServiceFlushAppliesInOrder(t *testing.T) {
	repo := &outboxRepoStub{}
	svc := NewOutboxService(repo, nil, nil, nil)
	ctx := context.Background()

	var applied []string
	svc.Register(models.ActionCancelRequest, func(ctx context.Context, action models.QueuedAction) error {
		applied = append(applied, action.Description)
		return nil
	})

	for _, desc := range []string{"first", "second", "third"} {
		_, err := svc.Enqueue(ctx, models.ActionCancelRequest, desc, "fac-1", nil)
		require.NoError(t, err)
	}

	report, err := svc.Flush(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, report.Applied)
	require.Equal(t, []string{"first", "second", "third"}, applied)
	require.Empty(t, repo.actions)
}

func TestOutboxServiceFlushDropsBusinessFailures(t *testing.T) {
	repo := &outboxRepoStub{}
	svc := NewOutboxService(repo, nil, nil, nil)
	ctx := context.Background()

	var applied []string
	svc.Register(models.ActionCancelRequest, func(ctx context.Context, action models.QueuedAction) error {
		if action.Description == "doomed" {
			return appErrors.Clone(appErrors.ErrConflict, "already resolved")
		}
		applied = append(applied, action.Description)
		return nil
	})

	for _, desc := range []string{"ok-1", "doomed", "ok-2"} {
		_, err := svc.Enqueue(ctx, models.ActionCancelRequest, desc, "fac-1", nil)
		require.NoError(t, err)
	}

	report, err := svc.Flush(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, report.Applied)
	require.Equal(t, 1, report.Dropped)
	require.Equal(t, []string{"ok-1", "ok-2"}, applied)
	require.Empty(t, repo.actions)
}

func TestOutboxServiceFlushDefersOnTransientFailure(t *testing.T) {
	repo := &outboxRepoStub{}
	svc := NewOutboxService(repo, nil, nil, nil)
	ctx := context.Background()

	calls := 0
	svc.Register(models.ActionCancelRequest, func(ctx context.Context, action models.QueuedAction) error {
		calls++
		if action.Description == "flaky" {
			return appErrors.Clone(appErrors.ErrUnavailable, "store unreachable")
		}
		return nil
	})

	for _, desc := range []string{"ok", "flaky", "never-reached"} {
		_, err := svc.Enqueue(ctx, models.ActionCancelRequest, desc, "fac-1", nil)
		require.NoError(t, err)
	}

	report, err := svc.Flush(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Applied)
	require.Equal(t, 0, report.Dropped)
	require.Equal(t, 2, report.Deferred)
	require.Equal(t, 2, calls)

	// The flaky action stays at the head for the next flush.
	require.Len(t, repo.actions, 2)
	require.Equal(t, "flaky", repo.actions[0].Description)
}

func TestOutboxServiceFlushDropsUnknownActionType(t *testing.T) {
	repo := &outboxRepoStub{}
	svc := NewOutboxService(repo, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Enqueue(ctx, models.ActionType("LEGACY_ACTION"), "from an old build", "fac-1", nil)
	require.NoError(t, err)

	report, err := svc.Flush(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Dropped)
	require.Empty(t, repo.actions)
}

func TestOutboxServiceFlushNotReentrant(t *testing.T) {
	repo := &outboxRepoStub{}
	svc := NewOutboxService(repo, nil, nil, nil)
	ctx := context.Background()

	svc.Register(models.ActionCancelRequest, func(ctx context.Context, action models.QueuedAction) error {
		// A flush triggered while one is running must bail out at once.
		report, err := svc.Flush(ctx)
		require.NoError(t, err)
		require.Nil(t, report)
		return nil
	})

	_, err := svc.Enqueue(ctx, models.ActionCancelRequest, "outer", "fac-1", nil)
	require.NoError(t, err)

	report, err := svc.Flush(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Applied)
}

func TestOutboxServiceStatus(t *testing.T) {
	repo := &outboxRepoStub{}
	online := false
	svc := NewOutboxService(repo, func() bool { return online }, nil, nil)
	ctx := context.Background()

	_, err := svc.Enqueue(ctx, models.ActionCancelRequest, "queued while offline", "fac-1", nil)
	require.NoError(t, err)

	status, err := svc.Status(ctx, false)
	require.NoError(t, err)
	require.False(t, status.Online)
	require.Equal(t, 1, status.Pending)
	require.Empty(t, status.Actions)

	online = true
	status, err = svc.Status(ctx, true)
	require.NoError(t, err)
	require.True(t, status.Online)
	require.Len(t, status.Actions, 1)
}
