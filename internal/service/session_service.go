package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-faculty-api/internal/models"
	appErrors "github.com/noah-isme/sma-faculty-api/pkg/errors"
)

type sessionLister interface {
	List(ctx context.Context, filter models.AttendanceSessionFilter) ([]models.AttendanceSession, error)
}

// SessionService exposes read-only access to attendance sessions for the
// faculty day view.
type SessionService struct {
	repo   sessionLister
	logger *zap.Logger
}

// NewSessionService constructs the service.
func NewSessionService(repo sessionLister, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{repo: repo, logger: logger}
}

// List returns the faculty member's sessions for the given window.
func (s *SessionService) List(ctx context.Context, filter models.AttendanceSessionFilter) ([]models.AttendanceSession, error) {
	sessions, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	return sessions, nil
}
