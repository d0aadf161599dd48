package audit

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

const maxListLimit = 100

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger.With().Str("component", "audit").Logger()}
}

var validActions = map[string]bool{
	ActionCreate: true,
	ActionRead:   true,
	ActionUpdate: true,
	ActionDelete: true,
}

// LogAction persists e and mirrors it to the structured log.
func (s *Service) LogAction(ctx context.Context, e *Entry) error {
	if !validActions[e.Action] {
		return fmt.Errorf("invalid action: %q", e.Action)
	}
	if e.ResourceType == "" {
		return fmt.Errorf("resource_type is required")
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return err
	}

	s.logger.Info().
		Str("type", "audit").
		Str("audit_id", e.ID.String()).
		Str("user_id", e.UserID).
		Str("action", e.Action).
		Str("resource_type", e.ResourceType).
		Str("resource_id", e.ResourceID).
		Interface("changes", e.Changes).
		Str("ip_address", e.IPAddress).
		Msg("audit")
	return nil
}

// History returns the newest entries recorded for one resource.
func (s *Service) History(ctx context.Context, resourceType, resourceID string, limit int) ([]*Entry, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	return s.repo.ListByResource(ctx, resourceType, resourceID, limit)
}
