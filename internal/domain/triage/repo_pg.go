package triage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
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

func (r *repoPG) GetSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	var s Session
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, user_id, symptoms_text, source, status, inference_mode, model_version, is_deleted, created_at
		FROM triage_session
		WHERE id = $1 AND is_deleted = FALSE`, id,
	).Scan(&s.ID, &s.UserID, &s.SymptomsText, &s.Source, &s.Status,
		&s.InferenceMode, &s.ModelVersion, &s.IsDeleted, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get triage session: %w", err)
	}
	return &s, nil
}

func (r *repoPG) GetResultBySession(ctx context.Context, sessionID uuid.UUID) (*Result, error) {
	var res Result
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, session_id, diagnosis, severity, confidence_score,
		       recommendations, differential_diagnoses, explainability, created_at
		FROM triage_result
		WHERE session_id = $1`, sessionID,
	).Scan(&res.ID, &res.SessionID, &res.Diagnosis, &res.Severity, &res.ConfidenceScore,
		&res.Recommendations, &res.DifferentialDiagnoses, &res.Explainability, &res.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get triage result: %w", err)
	}
	return &res, nil
}
