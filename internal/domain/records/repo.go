package records

import (
	"context"
)

type Repository interface {
	// ListByUser returns the user's records that are not soft-deleted.
	ListByUser(ctx context.Context, userID string) ([]*Record, error)
}
