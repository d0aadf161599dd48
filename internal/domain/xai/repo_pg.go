package xai

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/triagexai/triage/internal/platform/db"
)

type explanationRepoPG struct {
	pool *pgxpool.Pool
}

func NewExplanationRepoPG(pool *pgxpool.Pool) ExplanationRepository {
	return &explanationRepoPG{pool: pool}
}

func (r *explanationRepoPG) Create(ctx context.Context, e *Explanation) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.GlobalFeatureImportance == nil {
		e.GlobalFeatureImportance = []GlobalImportance{}
	}
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		q := db.Conn(ctx, r.pool)
		err := q.QueryRow(ctx, `
			INSERT INTO xai_explanation (id, triage_result_id, method, summary, global_feature_importance,
				model_version, computation_time_ms, metadata, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (triage_result_id) DO NOTHING
			RETURNING created_at`,
			e.ID, e.TriageResultID, e.Method, e.Summary, e.GlobalFeatureImportance,
			e.ModelVersion, e.ComputationTimeMs, e.Metadata, e.CreatedBy,
		).Scan(&e.CreatedAt)
		if errors.Is(err, pgx.ErrNoRows) || db.IsUniqueViolation(err) {
			return ErrAlreadyExists
		}
		if err != nil {
			return fmt.Errorf("insert explanation: %w", err)
		}

		batch := &pgx.Batch{}
		for i := range e.FeatureContributions {
			fc := &e.FeatureContributions[i]
			if fc.ID == uuid.Nil {
				fc.ID = uuid.New()
			}
			fc.ExplanationID = e.ID
			batch.Queue(`
				INSERT INTO xai_feature_contribution (id, explanation_id, feature_name, feature_category,
					contribution_score, direction, display_name, display_value, description, rank)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
				fc.ID, fc.ExplanationID, fc.FeatureName, fc.Category, fc.ContributionScore,
				fc.Direction, fc.DisplayName, fc.DisplayValue, fc.Description, fc.Rank)
		}
		if batch.Len() == 0 {
			return nil
		}
		if err := q.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert feature contributions: %w", err)
		}
		return nil
	})
}

func (r *explanationRepoPG) GetByTriageResult(ctx context.Context, resultID uuid.UUID) (*Explanation, error) {
	q := db.Conn(ctx, r.pool)

	var e Explanation
	err := q.QueryRow(ctx, `
		SELECT id, triage_result_id, method, summary, global_feature_importance,
			model_version, computation_time_ms, metadata, created_by, created_at
		FROM xai_explanation WHERE triage_result_id = $1`, resultID,
	).Scan(&e.ID, &e.TriageResultID, &e.Method, &e.Summary, &e.GlobalFeatureImportance,
		&e.ModelVersion, &e.ComputationTimeMs, &e.Metadata, &e.CreatedBy, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get explanation: %w", err)
	}

	rows, err := q.Query(ctx, `
		SELECT id, explanation_id, feature_name, feature_category, contribution_score,
			direction, display_name, display_value, description, rank
		FROM xai_feature_contribution WHERE explanation_id = $1 ORDER BY rank`, e.ID)
	if err != nil {
		return nil, fmt.Errorf("query feature contributions: %w", err)
	}
	defer rows.Close()

	e.FeatureContributions = []FeatureContribution{}
	for rows.Next() {
		var fc FeatureContribution
		if err := rows.Scan(&fc.ID, &fc.ExplanationID, &fc.FeatureName, &fc.Category, &fc.ContributionScore,
			&fc.Direction, &fc.DisplayName, &fc.DisplayValue, &fc.Description, &fc.Rank); err != nil {
			return nil, fmt.Errorf("scan feature contribution: %w", err)
		}
		e.FeatureContributions = append(e.FeatureContributions, fc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &e, nil
}

type prescriptionRepoPG struct {
	pool *pgxpool.Pool
}

func NewPrescriptionRepoPG(pool *pgxpool.Pool) PrescriptionRepository {
	return &prescriptionRepoPG{pool: pool}
}

const prescriptionCols = `id, user_id, triage_session_id, symptoms_text, urgency, drugs, warnings,
	disclaimer, medical_context_used, created_at`

func (r *prescriptionRepoPG) Create(ctx context.Context, p *FirstAidPrescription) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Drugs == nil {
		p.Drugs = []PrescribedDrug{}
	}
	if p.Warnings == nil {
		p.Warnings = []string{}
	}
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO xai_first_aid_prescription (id, user_id, triage_session_id, symptoms_text, urgency,
			drugs, warnings, disclaimer, medical_context_used)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`,
		p.ID, p.UserID, p.TriageSessionID, p.SymptomsText, p.Urgency,
		p.Drugs, p.Warnings, p.Disclaimer, p.MedicalContextUsed,
	).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert prescription: %w", err)
	}
	return nil
}

func (r *prescriptionRepoPG) ListByUser(ctx context.Context, userID string, limit int) ([]*FirstAidPrescription, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `SELECT `+prescriptionCols+`
		FROM xai_first_aid_prescription
		WHERE user_id = $1 AND is_deleted = FALSE
		ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query prescriptions: %w", err)
	}
	defer rows.Close()

	out := []*FirstAidPrescription{}
	for rows.Next() {
		var p FirstAidPrescription
		if err := rows.Scan(&p.ID, &p.UserID, &p.TriageSessionID, &p.SymptomsText, &p.Urgency,
			&p.Drugs, &p.Warnings, &p.Disclaimer, &p.MedicalContextUsed, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan prescription: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
