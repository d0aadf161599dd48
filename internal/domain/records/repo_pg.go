package records

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/triagexai/triage/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) ListByUser(ctx context.Context, userID string) ([]*Record, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT id, user_id, record_type, title, status, is_deleted, created_at
		FROM medical_record
		WHERE user_id = $1 AND is_deleted = FALSE
		ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("query medical records: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.RecordType, &rec.Title,
			&rec.Status, &rec.IsDeleted, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan medical record: %w", err)
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}
