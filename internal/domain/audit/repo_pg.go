package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/triagexai/triage/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const entryCols = `id, user_id, action, resource_type, resource_id, changes,
	COALESCE(ip_address, ''), COALESCE(user_agent, ''), created_at`

func (r *repoPG) Create(ctx context.Context, e *Entry) error {
	changes := e.Changes
	if changes == nil {
		changes = map[string]any{}
	}
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO audit_log (user_id, action, resource_type, resource_id, changes, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''))
		RETURNING id, created_at`,
		e.UserID, e.Action, e.ResourceType, e.ResourceID, changes, e.IPAddress, e.UserAgent,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (r *repoPG) ListByResource(ctx context.Context, resourceType, resourceID string, limit int) ([]*Entry, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `SELECT `+entryCols+`
		FROM audit_log WHERE resource_type = $1 AND resource_id = $2
		ORDER BY created_at DESC LIMIT $3`, resourceType, resourceID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	var ip, ua *string
	if err := row.Scan(&e.ID, &e.UserID, &e.Action, &e.ResourceType, &e.ResourceID,
		&e.Changes, &ip, &ua, &e.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan audit entry: %w", err)
	}
	if ip != nil {
		e.IPAddress = *ip
	}
	if ua != nil {
		e.UserAgent = *ua
	}
	return &e, nil
}
