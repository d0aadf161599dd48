package triage

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
)

// Session maps to the triage_session table.
type Session struct {
	ID            uuid.UUID `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	SymptomsText  string    `db:"symptoms_text" json:"symptoms_text"`
	Source        string    `db:"source" json:"source"`
	Status        string    `db:"status" json:"status"`
	InferenceMode string    `db:"inference_mode" json:"inference_mode"`
	ModelVersion  string    `db:"model_version" json:"model_version"`
	IsDeleted     bool      `db:"is_deleted" json:"-"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Result maps to the triage_result table. A session has at most one.
type Result struct {
	ID                    uuid.UUID      `db:"id" json:"id"`
	SessionID             uuid.UUID      `db:"session_id" json:"session_id"`
	Diagnosis             string         `db:"diagnosis" json:"diagnosis"`
	Severity              string         `db:"severity" json:"severity"`
	ConfidenceScore       float64        `db:"confidence_score" json:"confidence_score"`
	Recommendations       []string       `db:"recommendations" json:"recommendations"`
	DifferentialDiagnoses []string       `db:"differential_diagnoses" json:"differential_diagnoses"`
	Explainability        map[string]any `db:"explainability" json:"explainability"`
	CreatedAt             time.Time      `db:"created_at" json:"created_at"`
}

// Factor is one string entry of explainability.contributing_factors with
// its position in the stored list.
type Factor struct {
	Index int
	Text  string
}

// ContributingFactors returns the string entries of
// explainability.contributing_factors, in order. Other entry types are
// skipped but still count towards the index of later entries.
func (r *Result) ContributingFactors() []Factor {
	var raw []any
	switch v := r.Explainability["contributing_factors"].(type) {
	case []any:
		raw = v
	case []string:
		for _, s := range v {
			raw = append(raw, s)
		}
	default:
		return nil
	}
	var out []Factor
	for i, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, Factor{Index: i, Text: s})
		}
	}
	return out
}
