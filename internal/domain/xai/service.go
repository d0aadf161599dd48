package xai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/triagexai/triage/internal/platform/cache"
)

const (
	maxSymptomsTextLen  = 5000
	defaultHistoryLimit = 10
	resourceExplanation = "Explanation"
	resourceFirstAid    = "FirstAidPrescription"
	actionCreate        = "CREATE"
)

// RequestInfo identifies who triggered an operation.
type RequestInfo struct {
	UserID    string
	IPAddress string
	UserAgent string
}

// PrescriptionRequest is the input of GeneratePrescription.
type PrescriptionRequest struct {
	RequestInfo
	SymptomsText string
	SessionID    *uuid.UUID
}

type Service struct {
	explanations  ExplanationRepository
	prescriptions PrescriptionRepository
	results       TriageResultSource
	records       MedicalContextProvider
	audit         AuditSink
	logger        zerolog.Logger

	cache        *cache.Memory[*Explanation]
	historyLimit int
}

func NewService(
	explanations ExplanationRepository,
	prescriptions PrescriptionRepository,
	results TriageResultSource,
	records MedicalContextProvider,
	audit AuditSink,
	logger zerolog.Logger,
) *Service {
	return &Service{
		explanations:  explanations,
		prescriptions: prescriptions,
		results:       results,
		records:       records,
		audit:         audit,
		logger:        logger.With().Str("component", "xai").Logger(),
		historyLimit:  defaultHistoryLimit,
	}
}

// SetCache attaches an optional read-through cache for explanations.
func (s *Service) SetCache(c *cache.Memory[*Explanation]) {
	s.cache = c
}

func (s *Service) HistoryLimit() int {
	return s.historyLimit
}

// SetHistoryLimit sets the default page size of GetUserPrescriptions.
func (s *Service) SetHistoryLimit(n int) {
	if n > 0 {
		s.historyLimit = n
	}
}

func validateFacts(facts *TriageResultFacts) error {
	if facts == nil {
		return invalid("triage_result", "is required")
	}
	if facts.ResultID == uuid.Nil {
		return invalid("triage_result_id", "is required")
	}
	if math.IsNaN(facts.ConfidenceScore) || facts.ConfidenceScore < 0 || facts.ConfidenceScore > 1 {
		return invalid("confidence_score", "must be between 0 and 1")
	}
	return nil
}

// GenerateExplanation returns the explanation for facts.ResultID, creating it
// on first use. Repeated or concurrent calls for the same result return the
// stored record.
func (s *Service) GenerateExplanation(ctx context.Context, facts *TriageResultFacts, method Method, req RequestInfo) (*Explanation, error) {
	if method == "" {
		method = MethodSHAP
	}
	if !method.Valid() {
		return nil, invalid("method", fmt.Sprintf("must be one of SHAP, LIME, ATTENTION, RULE_BASED (got %q)", method))
	}
	if err := validateFacts(facts); err != nil {
		return nil, err
	}

	existing, err := s.GetExplanation(ctx, facts.ResultID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	start := time.Now()
	e := Explain(facts, method)
	e.ID = uuid.New()
	e.CreatedBy = req.UserID
	e.ComputationTimeMs = int(time.Since(start).Milliseconds())

	if err := s.explanations.Create(ctx, e); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			s.logger.Debug().Str("triage_result_id", facts.ResultID.String()).Msg("explanation created concurrently, returning stored record")
			return s.GetExplanation(ctx, facts.ResultID)
		}
		return nil, fmt.Errorf("create explanation: %w", err)
	}

	s.logger.Debug().
		Str("explanation_id", e.ID.String()).
		Str("triage_result_id", facts.ResultID.String()).
		Int("features", len(e.FeatureContributions)).
		Msg("explanation generated")

	if s.cache != nil {
		s.cache.Set(facts.ResultID.String(), e)
	}

	s.logAudit(ctx, AuditEvent{
		UserID:       facts.UserID,
		Action:       actionCreate,
		ResourceType: resourceExplanation,
		ResourceID:   e.ID.String(),
		Changes: map[string]any{
			"method":              string(method),
			"features_count":      len(e.FeatureContributions),
			"computation_time_ms": e.ComputationTimeMs,
		},
		IPAddress: req.IPAddress,
		UserAgent: req.UserAgent,
	})
	return e, nil
}

// GetExplanation returns the stored explanation or ErrNotFound.
func (s *Service) GetExplanation(ctx context.Context, resultID uuid.UUID) (*Explanation, error) {
	key := resultID.String()
	if s.cache != nil {
		if e, ok := s.cache.Get(key); ok {
			return e, nil
		}
	}
	e, err := s.explanations.GetByTriageResult(ctx, resultID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(key, e)
	}
	return e, nil
}

// ExplanationForSession gets or generates the explanation of a session's
// triage result. An empty ownerID allows any session.
func (s *Service) ExplanationForSession(ctx context.Context, sessionID uuid.UUID, ownerID string, req RequestInfo) (*Explanation, *TriageResultFacts, error) {
	facts, err := s.results.ResultFactsForSession(ctx, sessionID, ownerID)
	if err != nil {
		return nil, nil, err
	}
	e, err := s.GenerateExplanation(ctx, facts, MethodSHAP, req)
	if err != nil {
		return nil, nil, err
	}
	return e, facts, nil
}

// GetClinicalSummary is the clinician projection of e.
func (s *Service) GetClinicalSummary(e *Explanation) *ClinicalSummary {
	return ClinicalSummaryOf(e)
}

// FilterContributions returns e's contributions in rank order, limited to
// category when it is not empty (case-insensitive).
func FilterContributions(e *Explanation, category string) []FeatureContribution {
	out := []FeatureContribution{}
	want := Category(strings.ToUpper(strings.TrimSpace(category)))
	for _, fc := range e.FeatureContributions {
		if want == "" || fc.Category == want {
			out = append(out, fc)
		}
	}
	return out
}

// GeneratePrescription builds and stores a first-aid prescription for the
// caller, filtered against their medical records.
func (s *Service) GeneratePrescription(ctx context.Context, req PrescriptionRequest) (*FirstAidPrescription, error) {
	if req.UserID == "" {
		return nil, invalid("user_id", "is required")
	}
	if strings.TrimSpace(req.SymptomsText) == "" {
		return nil, invalid("symptoms_text", "is required")
	}
	if utf8.RuneCountInString(req.SymptomsText) > maxSymptomsTextLen {
		return nil, invalid("symptoms_text", fmt.Sprintf("must be at most %d characters", maxSymptomsTextLen))
	}

	var sessionID *uuid.UUID
	if req.SessionID != nil {
		owned, err := s.results.SessionOwnedBy(ctx, *req.SessionID, req.UserID)
		if err != nil {
			return nil, fmt.Errorf("check triage session: %w", err)
		}
		if owned {
			id := *req.SessionID
			sessionID = &id
		}
	}

	patient, err := s.records.PatientFacts(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("load medical context: %w", err)
	}

	p, categories := BuildPrescription(req.SymptomsText, patient, patient.HasRecords)
	p.ID = uuid.New()
	p.UserID = req.UserID
	p.TriageSessionID = sessionID

	if err := s.prescriptions.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create prescription: %w", err)
	}

	s.logger.Debug().
		Str("prescription_id", p.ID.String()).
		Strs("categories", categories).
		Int("drugs", len(p.Drugs)).
		Int("excluded", len(p.Warnings)).
		Str("urgency", string(p.Urgency)).
		Msg("prescription generated")

	s.logAudit(ctx, AuditEvent{
		UserID:       req.UserID,
		Action:       actionCreate,
		ResourceType: resourceFirstAid,
		ResourceID:   p.ID.String(),
		Changes: map[string]any{
			"drugs_count":        len(p.Drugs),
			"warnings_count":     len(p.Warnings),
			"urgency":            string(p.Urgency),
			"categories_matched": categories,
		},
		IPAddress: req.IPAddress,
		UserAgent: req.UserAgent,
	})
	return p, nil
}

// GetUserPrescriptions returns the caller's newest prescriptions. A
// non-positive limit uses the configured history limit.
func (s *Service) GetUserPrescriptions(ctx context.Context, userID string, limit int) ([]*FirstAidPrescription, error) {
	if userID == "" {
		return nil, invalid("user_id", "is required")
	}
	if limit <= 0 {
		limit = s.historyLimit
	}
	return s.prescriptions.ListByUser(ctx, userID, limit)
}

// logAudit never fails the caller: the record is already committed.
func (s *Service) logAudit(ctx context.Context, ev AuditEvent) {
	if s.audit == nil {
		return
	}
	if err := s.audit.LogAction(ctx, ev); err != nil {
		s.logger.Error().Err(err).
			Str("resource_type", ev.ResourceType).
			Str("resource_id", ev.ResourceID).
			Msg("audit log write failed")
	}
}
