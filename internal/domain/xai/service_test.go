package xai

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/triagexai/triage/internal/platform/cache"
)

// -- Mock Repositories --

type mockExplanationRepo struct {
	mu      sync.Mutex
	store   map[uuid.UUID]*Explanation
	creates int
	// beforeCreate simulates a concurrent writer winning the insert.
	beforeCreate func(e *Explanation)
}

func newMockExplanationRepo() *mockExplanationRepo {
	return &mockExplanationRepo{store: make(map[uuid.UUID]*Explanation)}
}

func (m *mockExplanationRepo) Create(_ context.Context, e *Explanation) error {
	if m.beforeCreate != nil {
		m.beforeCreate(e)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[e.TriageResultID]; ok {
		return ErrAlreadyExists
	}
	e.CreatedAt = time.Now()
	m.store[e.TriageResultID] = e
	m.creates++
	return nil
}

func (m *mockExplanationRepo) GetByTriageResult(_ context.Context, resultID uuid.UUID) (*Explanation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.store[resultID]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

type mockPrescriptionRepo struct {
	items []*FirstAidPrescription
	err   error
}

func (m *mockPrescriptionRepo) Create(_ context.Context, p *FirstAidPrescription) error {
	if m.err != nil {
		return m.err
	}
	p.CreatedAt = time.Now()
	m.items = append(m.items, p)
	return nil
}

func (m *mockPrescriptionRepo) ListByUser(_ context.Context, userID string, limit int) ([]*FirstAidPrescription, error) {
	var out []*FirstAidPrescription
	for i := len(m.items) - 1; i >= 0 && len(out) < limit; i-- {
		if m.items[i].UserID == userID {
			out = append(out, m.items[i])
		}
	}
	return out, nil
}

type mockResultSource struct {
	bySession map[uuid.UUID]*TriageResultFacts
}

func newMockResultSource(facts ...*TriageResultFacts) *mockResultSource {
	m := &mockResultSource{bySession: make(map[uuid.UUID]*TriageResultFacts)}
	for _, f := range facts {
		m.bySession[f.SessionID] = f
	}
	return m
}

func (m *mockResultSource) ResultFactsForSession(_ context.Context, sessionID uuid.UUID, ownerID string) (*TriageResultFacts, error) {
	f, ok := m.bySession[sessionID]
	if !ok || (ownerID != "" && f.UserID != ownerID) {
		return nil, ErrSessionNotFound
	}
	return f, nil
}

func (m *mockResultSource) SessionOwnedBy(_ context.Context, sessionID uuid.UUID, userID string) (bool, error) {
	f, ok := m.bySession[sessionID]
	return ok && f.UserID == userID, nil
}

type mockMedicalContext struct {
	facts map[string]PatientFacts
	err   error
}

func (m *mockMedicalContext) PatientFacts(_ context.Context, userID string) (PatientFacts, error) {
	if m.err != nil {
		return PatientFacts{}, m.err
	}
	return m.facts[userID], nil
}

type mockAuditSink struct {
	mu     sync.Mutex
	events []AuditEvent
	err    error
}

func (m *mockAuditSink) LogAction(_ context.Context, ev AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return m.err
}

type testDeps struct {
	explanations  *mockExplanationRepo
	prescriptions *mockPrescriptionRepo
	results       *mockResultSource
	records       *mockMedicalContext
	audit         *mockAuditSink
}

func newTestService(facts ...*TriageResultFacts) (*Service, *testDeps) {
	d := &testDeps{
		explanations:  newMockExplanationRepo(),
		prescriptions: &mockPrescriptionRepo{},
		results:       newMockResultSource(facts...),
		records:       &mockMedicalContext{facts: make(map[string]PatientFacts)},
		audit:         &mockAuditSink{},
	}
	svc := NewService(d.explanations, d.prescriptions, d.results, d.records, d.audit, zerolog.Nop())
	return svc, d
}

// -- Explanation Tests --

func TestService_GenerateExplanation(t *testing.T) {
	facts := criticalChestFacts()
	svc, d := newTestService(facts)

	e, err := svc.GenerateExplanation(context.Background(), facts, "", RequestInfo{UserID: "clinician-7", IPAddress: "10.0.0.1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.ID == uuid.Nil {
		t.Error("expected ID to be set")
	}
	if e.Method != MethodSHAP {
		t.Errorf("expected default SHAP, got %s", e.Method)
	}
	if e.CreatedBy != "clinician-7" {
		t.Errorf("expected creator clinician-7, got %s", e.CreatedBy)
	}
	if e.ComputationTimeMs < 0 {
		t.Errorf("negative computation time %d", e.ComputationTimeMs)
	}

	if len(d.audit.events) != 1 {
		t.Fatalf("expected 1 audit event, got %d", len(d.audit.events))
	}
	ev := d.audit.events[0]
	if ev.UserID != facts.UserID {
		t.Errorf("audit actor should be the session owner, got %s", ev.UserID)
	}
	if ev.Action != "CREATE" || ev.ResourceType != "Explanation" || ev.ResourceID != e.ID.String() {
		t.Errorf("unexpected audit event %+v", ev)
	}
	if ev.Changes["features_count"] != 5 || ev.Changes["method"] != "SHAP" {
		t.Errorf("unexpected audit changes %v", ev.Changes)
	}
	if ev.IPAddress != "10.0.0.1" {
		t.Errorf("expected ip 10.0.0.1, got %s", ev.IPAddress)
	}
}

func TestService_GenerateExplanation_Idempotent(t *testing.T) {
	facts := criticalChestFacts()
	svc, d := newTestService(facts)
	ctx := context.Background()

	first, err := svc.GenerateExplanation(ctx, facts, MethodSHAP, RequestInfo{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.GenerateExplanation(ctx, facts, MethodLIME, RequestInfo{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.ID != second.ID {
		t.Error("second call should return the stored explanation")
	}
	if second.Method != MethodSHAP {
		t.Errorf("stored method should win, got %s", second.Method)
	}
	if d.explanations.creates != 1 {
		t.Errorf("expected 1 insert, got %d", d.explanations.creates)
	}
	if len(d.audit.events) != 1 {
		t.Errorf("expected 1 audit event, got %d", len(d.audit.events))
	}
}

func TestService_GenerateExplanation_LostRace(t *testing.T) {
	facts := criticalChestFacts()
	svc, d := newTestService(facts)

	winner := &Explanation{ID: uuid.New(), TriageResultID: facts.ResultID, Method: MethodSHAP}
	d.explanations.beforeCreate = func(*Explanation) {
		d.explanations.mu.Lock()
		d.explanations.store[facts.ResultID] = winner
		d.explanations.mu.Unlock()
	}

	e, err := svc.GenerateExplanation(context.Background(), facts, MethodSHAP, RequestInfo{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.ID != winner.ID {
		t.Error("expected the concurrently stored explanation")
	}
	if len(d.audit.events) != 0 {
		t.Errorf("losing writer should not audit, got %d events", len(d.audit.events))
	}
}

func TestService_GenerateExplanation_Concurrent(t *testing.T) {
	facts := criticalChestFacts()
	svc, d := newTestService(facts)

	const workers = 8
	ids := make([]uuid.UUID, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, err := svc.GenerateExplanation(context.Background(), facts, MethodSHAP, RequestInfo{})
			if err != nil {
				t.Errorf("worker %d: %v", i, err)
				return
			}
			ids[i] = e.ID
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("worker %d got a different explanation", i)
		}
	}
	if d.explanations.creates != 1 {
		t.Errorf("expected exactly 1 stored explanation, got %d", d.explanations.creates)
	}
}

func TestService_GenerateExplanation_Validation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	good := criticalChestFacts()
	noID := criticalChestFacts()
	noID.ResultID = uuid.Nil
	tooHigh := criticalChestFacts()
	tooHigh.ConfidenceScore = 1.5
	negative := criticalChestFacts()
	negative.ConfidenceScore = -0.1
	nan := criticalChestFacts()
	nan.ConfidenceScore = math.NaN()

	tests := []struct {
		name   string
		facts  *TriageResultFacts
		method Method
	}{
		{"unknown method", good, "GRADCAM"},
		{"nil facts", nil, MethodSHAP},
		{"missing result id", noID, MethodSHAP},
		{"confidence above one", tooHigh, MethodSHAP},
		{"negative confidence", negative, MethodSHAP},
		{"NaN confidence", nan, MethodSHAP},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GenerateExplanation(ctx, tt.facts, tt.method, RequestInfo{})
			if !IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestService_GenerateExplanation_AuditFailureTolerated(t *testing.T) {
	facts := criticalChestFacts()
	svc, d := newTestService(facts)
	d.audit.err = errors.New("audit store down")

	if _, err := svc.GenerateExplanation(context.Background(), facts, MethodSHAP, RequestInfo{}); err != nil {
		t.Fatalf("audit failure should not fail the call: %v", err)
	}
	if d.explanations.creates != 1 {
		t.Error("explanation should still be stored")
	}
}

func TestService_GetExplanation_NotFound(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.GetExplanation(context.Background(), uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_GetExplanation_UsesCache(t *testing.T) {
	facts := criticalChestFacts()
	svc, d := newTestService(facts)
	svc.SetCache(cache.NewMemory[*Explanation](time.Minute))
	ctx := context.Background()

	created, err := svc.GenerateExplanation(ctx, facts, MethodSHAP, RequestInfo{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d.explanations.mu.Lock()
	delete(d.explanations.store, facts.ResultID)
	d.explanations.mu.Unlock()

	got, err := svc.GetExplanation(ctx, facts.ResultID)
	if err != nil {
		t.Fatalf("expected cached explanation, got %v", err)
	}
	if got.ID != created.ID {
		t.Error("cache returned a different explanation")
	}
}

func TestService_ExplanationForSession(t *testing.T) {
	facts := criticalChestFacts()
	svc, _ := newTestService(facts)
	ctx := context.Background()

	e, got, err := svc.ExplanationForSession(ctx, facts.SessionID, facts.UserID, RequestInfo{UserID: facts.UserID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.TriageResultID != facts.ResultID || got.SessionID != facts.SessionID {
		t.Error("explanation should belong to the session's result")
	}

	_, _, err = svc.ExplanationForSession(ctx, facts.SessionID, "someone-else", RequestInfo{UserID: "someone-else"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected not found for another user's session, got %v", err)
	}

	if _, _, err := svc.ExplanationForSession(ctx, facts.SessionID, "", RequestInfo{UserID: "clinician"}); err != nil {
		t.Errorf("empty owner should allow any session: %v", err)
	}
}

func TestFilterContributions(t *testing.T) {
	e := Explain(criticalChestFacts(), MethodSHAP)

	if got := FilterContributions(e, ""); len(got) != len(e.FeatureContributions) {
		t.Errorf("expected all %d contributions, got %d", len(e.FeatureContributions), len(got))
	}
	bio := FilterContributions(e, "biomarker")
	if len(bio) != 2 {
		t.Fatalf("expected 2 biomarker contributions, got %d", len(bio))
	}
	if bio[0].Rank > bio[1].Rank {
		t.Error("filtered contributions should keep rank order")
	}
	if got := FilterContributions(e, "IMAGE"); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", got)
	}
}

// -- Prescription Tests --

func TestService_GeneratePrescription(t *testing.T) {
	svc, d := newTestService()

	p, err := svc.GeneratePrescription(context.Background(), PrescriptionRequest{
		RequestInfo:  RequestInfo{UserID: "patient-1", UserAgent: "test"},
		SymptomsText: "Severe headache and fever",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID == uuid.Nil || p.UserID != "patient-1" {
		t.Errorf("unexpected identity %s/%s", p.ID, p.UserID)
	}
	if p.Urgency != UrgencyHigh || len(p.Drugs) != 3 {
		t.Errorf("unexpected prescription %s with %d drugs", p.Urgency, len(p.Drugs))
	}
	if p.MedicalContextUsed {
		t.Error("patient without records should not use medical context")
	}
	if p.TriageSessionID != nil {
		t.Error("expected no session link")
	}
	if len(d.prescriptions.items) != 1 {
		t.Errorf("expected 1 stored prescription, got %d", len(d.prescriptions.items))
	}

	if len(d.audit.events) != 1 {
		t.Fatalf("expected 1 audit event, got %d", len(d.audit.events))
	}
	ev := d.audit.events[0]
	if ev.ResourceType != "FirstAidPrescription" || ev.ResourceID != p.ID.String() {
		t.Errorf("unexpected audit event %+v", ev)
	}
	cats, _ := ev.Changes["categories_matched"].([]string)
	if strings.Join(cats, ",") != "pain,fever,headache" {
		t.Errorf("unexpected categories in audit %v", ev.Changes["categories_matched"])
	}
	if ev.Changes["urgency"] != "HIGH" || ev.Changes["drugs_count"] != 3 || ev.Changes["warnings_count"] != 0 {
		t.Errorf("unexpected audit changes %v", ev.Changes)
	}
}

func TestService_GeneratePrescription_MedicalContext(t *testing.T) {
	svc, d := newTestService()
	d.records.facts["patient-1"] = PatientFacts{
		AllergyNames: []string{"Aspirin"},
		HasRecords:   true,
	}

	p, err := svc.GeneratePrescription(context.Background(), PrescriptionRequest{
		RequestInfo:  RequestInfo{UserID: "patient-1"},
		SymptomsText: "headache",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.MedicalContextUsed {
		t.Error("expected medical context to be used")
	}
	if len(p.Drugs) != 1 || p.Drugs[0].Name != "Paracetamol (Acetaminophen)" {
		t.Errorf("unexpected drugs %v", drugNames(p.Drugs))
	}
	if len(p.Warnings) != 2 {
		t.Errorf("expected 2 exclusion warnings, got %v", p.Warnings)
	}
}

func TestService_GeneratePrescription_RecordsWithoutMatches(t *testing.T) {
	svc, d := newTestService()
	d.records.facts["patient-1"] = PatientFacts{HasRecords: true}

	p, err := svc.GeneratePrescription(context.Background(), PrescriptionRequest{
		RequestInfo:  RequestInfo{UserID: "patient-1"},
		SymptomsText: "mild cough",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.MedicalContextUsed {
		t.Error("any medical record marks the context as used")
	}
}

func TestService_GeneratePrescription_SessionOwnership(t *testing.T) {
	facts := criticalChestFacts()
	svc, _ := newTestService(facts)
	ctx := context.Background()

	owned, err := svc.GeneratePrescription(ctx, PrescriptionRequest{
		RequestInfo:  RequestInfo{UserID: facts.UserID},
		SymptomsText: "chest pain",
		SessionID:    &facts.SessionID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if owned.TriageSessionID == nil || *owned.TriageSessionID != facts.SessionID {
		t.Error("owned session should be linked")
	}

	other, err := svc.GeneratePrescription(ctx, PrescriptionRequest{
		RequestInfo:  RequestInfo{UserID: "patient-2"},
		SymptomsText: "chest pain",
		SessionID:    &facts.SessionID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if other.TriageSessionID != nil {
		t.Error("another user's session should not be linked")
	}

	unknown := uuid.New()
	p, err := svc.GeneratePrescription(ctx, PrescriptionRequest{
		RequestInfo:  RequestInfo{UserID: facts.UserID},
		SymptomsText: "chest pain",
		SessionID:    &unknown,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.TriageSessionID != nil {
		t.Error("unknown session should not be linked")
	}
}

func TestService_GeneratePrescription_Validation(t *testing.T) {
	svc, d := newTestService()
	ctx := context.Background()

	tests := []struct {
		name string
		req  PrescriptionRequest
	}{
		{"missing user", PrescriptionRequest{SymptomsText: "headache"}},
		{"empty text", PrescriptionRequest{RequestInfo: RequestInfo{UserID: "u"}}},
		{"blank text", PrescriptionRequest{RequestInfo: RequestInfo{UserID: "u"}, SymptomsText: " \n\t"}},
		{"too long", PrescriptionRequest{RequestInfo: RequestInfo{UserID: "u"}, SymptomsText: strings.Repeat("a", 5001)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.GeneratePrescription(ctx, tt.req); !IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
	if len(d.prescriptions.items) != 0 {
		t.Error("invalid requests should not be stored")
	}
}

func TestService_GeneratePrescription_MaxLengthCountsRunes(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.GeneratePrescription(context.Background(), PrescriptionRequest{
		RequestInfo:  RequestInfo{UserID: "u"},
		SymptomsText: strings.Repeat("é", 5000),
	})
	if err != nil {
		t.Errorf("5000 characters should be accepted: %v", err)
	}
}

func TestService_GeneratePrescription_Errors(t *testing.T) {
	svc, d := newTestService()
	ctx := context.Background()
	req := PrescriptionRequest{RequestInfo: RequestInfo{UserID: "u"}, SymptomsText: "cough"}

	d.records.err = errors.New("records unavailable")
	if _, err := svc.GeneratePrescription(ctx, req); err == nil || IsValidation(err) {
		t.Errorf("expected internal error, got %v", err)
	}

	d.records.err = nil
	d.prescriptions.err = errors.New("insert failed")
	if _, err := svc.GeneratePrescription(ctx, req); err == nil {
		t.Error("expected store error")
	}
	if len(d.audit.events) != 0 {
		t.Error("failed writes should not be audited")
	}
}

func TestService_GetUserPrescriptions(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		if _, err := svc.GeneratePrescription(ctx, PrescriptionRequest{
			RequestInfo:  RequestInfo{UserID: "patient-1"},
			SymptomsText: "cough",
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if _, err := svc.GeneratePrescription(ctx, PrescriptionRequest{
		RequestInfo:  RequestInfo{UserID: "patient-2"},
		SymptomsText: "cough",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	items, err := svc.GetUserPrescriptions(ctx, "patient-1", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != defaultHistoryLimit {
		t.Errorf("expected default limit %d, got %d", defaultHistoryLimit, len(items))
	}
	for _, p := range items {
		if p.UserID != "patient-1" {
			t.Errorf("leaked prescription of %s", p.UserID)
		}
	}

	svc.SetHistoryLimit(3)
	items, _ = svc.GetUserPrescriptions(ctx, "patient-1", 0)
	if len(items) != 3 {
		t.Errorf("expected configured limit 3, got %d", len(items))
	}
	items, _ = svc.GetUserPrescriptions(ctx, "patient-1", 5)
	if len(items) != 5 {
		t.Errorf("expected explicit limit 5, got %d", len(items))
	}

	if _, err := svc.GetUserPrescriptions(ctx, "", 0); !IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestService_SetHistoryLimitIgnoresNonPositive(t *testing.T) {
	svc, _ := newTestService()
	svc.SetHistoryLimit(0)
	svc.SetHistoryLimit(-4)
	if svc.HistoryLimit() != defaultHistoryLimit {
		t.Errorf("expected %d, got %d", defaultHistoryLimit, svc.HistoryLimit())
	}
}
