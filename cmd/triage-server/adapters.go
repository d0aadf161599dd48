package main

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/triagexai/triage/internal/domain/audit"
	"github.com/triagexai/triage/internal/domain/records"
	"github.com/triagexai/triage/internal/domain/triage"
	"github.com/triagexai/triage/internal/domain/xai"
)

// triageSourceAdapter adapts triage.Service to xai.TriageResultSource,
// avoiding an import of the triage package from xai.
type triageSourceAdapter struct {
	svc *triage.Service
}

func (a *triageSourceAdapter) ResultFactsForSession(ctx context.Context, sessionID uuid.UUID, ownerID string) (*xai.TriageResultFacts, error) {
	sess, res, err := a.svc.GetSessionResult(ctx, sessionID, ownerID)
	switch {
	case errors.Is(err, triage.ErrSessionNotFound):
		return nil, xai.ErrSessionNotFound
	case errors.Is(err, triage.ErrResultNotFound):
		return nil, xai.ErrResultNotFound
	case err != nil:
		return nil, err
	}
	return factsFrom(sess, res), nil
}

func (a *triageSourceAdapter) SessionOwnedBy(ctx context.Context, sessionID uuid.UUID, userID string) (bool, error) {
	return a.svc.SessionOwnedBy(ctx, sessionID, userID)
}

func factsFrom(sess *triage.Session, res *triage.Result) *xai.TriageResultFacts {
	return &xai.TriageResultFacts{
		ResultID:              res.ID,
		SessionID:             sess.ID,
		UserID:                sess.UserID,
		Diagnosis:             res.Diagnosis,
		Severity:              xai.Severity(res.Severity),
		ConfidenceScore:       res.ConfidenceScore,
		SymptomsText:          sess.SymptomsText,
		ModelVersion:          sess.ModelVersion,
		Source:                sess.Source,
		InferenceMode:         sess.InferenceMode,
		Recommendations:       res.Recommendations,
		DifferentialDiagnoses: res.DifferentialDiagnoses,
		Hints: xai.ExplainabilityHints{
			ContributingFactors: hintsFrom(res.ContributingFactors()),
		},
	}
}

func hintsFrom(factors []triage.Factor) []xai.ContributingFactor {
	if len(factors) == 0 {
		return nil
	}
	out := make([]xai.ContributingFactor, len(factors))
	for i, f := range factors {
		out[i] = xai.ContributingFactor{Index: f.Index, Text: f.Text}
	}
	return out
}

// recordsContextAdapter adapts records.Service to xai.MedicalContextProvider.
type recordsContextAdapter struct {
	svc *records.Service
}

func (a *recordsContextAdapter) PatientFacts(ctx context.Context, userID string) (xai.PatientFacts, error) {
	mc, err := a.svc.GetPatientMedicalContext(ctx, userID)
	if err != nil {
		return xai.PatientFacts{}, err
	}
	return xai.PatientFacts{
		AllergyNames:         mc.Allergies,
		ActiveConditionNames: mc.Conditions,
		HasRecords:           mc.RecordCount > 0,
	}, nil
}

// auditSinkAdapter adapts audit.Service to xai.AuditSink.
type auditSinkAdapter struct {
	svc *audit.Service
}

func (a *auditSinkAdapter) LogAction(ctx context.Context, ev xai.AuditEvent) error {
	return a.svc.LogAction(ctx, &audit.Entry{
		UserID:       ev.UserID,
		Action:       ev.Action,
		ResourceType: ev.ResourceType,
		ResourceID:   ev.ResourceID,
		Changes:      ev.Changes,
		IPAddress:    ev.IPAddress,
		UserAgent:    ev.UserAgent,
	})
}
