package triage

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// GetSession returns a session that is not soft-deleted.
	GetSession(ctx context.Context, id uuid.UUID) (*Session, error)
	GetResultBySession(ctx context.Context, sessionID uuid.UUID) (*Result, error)
}
