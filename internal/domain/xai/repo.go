package xai

import (
	"context"

	"github.com/google/uuid"
)

type ExplanationRepository interface {
	// Create stores e and its contributions. It returns ErrAlreadyExists
	// when the triage result already has an explanation.
	Create(ctx context.Context, e *Explanation) error
	// GetByTriageResult returns ErrNotFound when there is no explanation.
	GetByTriageResult(ctx context.Context, resultID uuid.UUID) (*Explanation, error)
}

type PrescriptionRepository interface {
	Create(ctx context.Context, p *FirstAidPrescription) error
	// ListByUser returns the newest prescriptions first.
	ListByUser(ctx context.Context, userID string, limit int) ([]*FirstAidPrescription, error)
}

// TriageResultSource reads completed triage results.
type TriageResultSource interface {
	// ResultFactsForSession returns ErrSessionNotFound or ErrResultNotFound.
	// An empty ownerID matches any owner.
	ResultFactsForSession(ctx context.Context, sessionID uuid.UUID, ownerID string) (*TriageResultFacts, error)
	SessionOwnedBy(ctx context.Context, sessionID uuid.UUID, userID string) (bool, error)
}

// MedicalContextProvider looks up a patient's allergies and conditions.
type MedicalContextProvider interface {
	PatientFacts(ctx context.Context, userID string) (PatientFacts, error)
}

// AuditEvent is one entry for the audit log.
type AuditEvent struct {
	UserID       string
	Action       string
	ResourceType string
	ResourceID   string
	Changes      map[string]any
	IPAddress    string
	UserAgent    string
}

type AuditSink interface {
	LogAction(ctx context.Context, ev AuditEvent) error
}
