package triage

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Service gives read-only access to completed triage sessions.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetSessionResult loads a session and its result. When ownerID is not
// empty, sessions owned by someone else are reported as ErrSessionNotFound.
func (s *Service) GetSessionResult(ctx context.Context, sessionID uuid.UUID, ownerID string) (*Session, *Result, error) {
	sess, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if ownerID != "" && sess.UserID != ownerID {
		return nil, nil, ErrSessionNotFound
	}
	res, err := s.repo.GetResultBySession(ctx, sess.ID)
	if err != nil {
		return nil, nil, err
	}
	return sess, res, nil
}

// SessionOwnedBy reports whether sessionID exists and belongs to userID.
func (s *Service) SessionOwnedBy(ctx context.Context, sessionID uuid.UUID, userID string) (bool, error) {
	sess, err := s.repo.GetSession(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return sess.UserID == userID, nil
}
