package audit

import (
	"context"
)

type Repository interface {
	Create(ctx context.Context, e *Entry) error
	ListByResource(ctx context.Context, resourceType, resourceID string, limit int) ([]*Entry, error)
}
