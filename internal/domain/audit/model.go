package audit

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreate = "CREATE"
	ActionRead   = "READ"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
)

// Entry maps to the audit_log table. Entries are append-only.
type Entry struct {
	ID           uuid.UUID      `db:"id" json:"id"`
	UserID       string         `db:"user_id" json:"user_id"`
	Action       string         `db:"action" json:"action"`
	ResourceType string         `db:"resource_type" json:"resource_type"`
	ResourceID   string         `db:"resource_id" json:"resource_id"`
	Changes      map[string]any `db:"changes" json:"changes,omitempty"`
	IPAddress    string         `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent    string         `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}
