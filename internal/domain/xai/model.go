package xai

import (
	"time"

	"github.com/google/uuid"
)

// Severity is the triage result's own severity label.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Method identifies the explanation technique recorded on an Explanation.
type Method string

const (
	MethodSHAP      Method = "SHAP"
	MethodLIME      Method = "LIME"
	MethodAttention Method = "ATTENTION"
	MethodRuleBased Method = "RULE_BASED"
)

var methodLabels = map[Method]string{
	MethodSHAP:      "SHAP (Shapley Additive Explanations)",
	MethodLIME:      "LIME (Local Interpretable Model-agnostic Explanations)",
	MethodAttention: "Attention-Based",
	MethodRuleBased: "Rule-Based Analysis",
}

// Label returns the human-readable method name, or the raw value if unknown.
func (m Method) Label() string {
	if l, ok := methodLabels[m]; ok {
		return l
	}
	return string(m)
}

// Valid reports whether m is one of the supported methods.
func (m Method) Valid() bool {
	_, ok := methodLabels[m]
	return ok
}

// Category classifies a feature contribution.
type Category string

const (
	CategorySymptom     Category = "SYMPTOM"
	CategoryVitalSign   Category = "VITAL_SIGN"
	CategoryBiomarker   Category = "BIOMARKER"
	CategoryHistory     Category = "HISTORY"
	CategoryImage       Category = "IMAGE"
	CategoryDemographic Category = "DEMOGRAPHIC"
)

var categoryLabels = map[Category]string{
	CategorySymptom:     "Symptom",
	CategoryVitalSign:   "Vital Sign",
	CategoryBiomarker:   "Biomarker",
	CategoryHistory:     "Medical History",
	CategoryImage:       "Image Feature",
	CategoryDemographic: "Demographic",
}

func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// Direction tells whether a feature pushes toward or away from the diagnosis.
type Direction string

const (
	DirectionPositive Direction = "POSITIVE"
	DirectionNegative Direction = "NEGATIVE"
	DirectionNeutral  Direction = "NEUTRAL"
)

// Urgency is the coarse priority attached to a first-aid prescription.
type Urgency string

const (
	UrgencyLow      Urgency = "LOW"
	UrgencyModerate Urgency = "MODERATE"
	UrgencyHigh     Urgency = "HIGH"
)

// ContributingFactor is a free-text note from the inference collaborator.
// Index is its position in the collaborator's list, counting entries that
// were not usable text.
type ContributingFactor struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// ExplainabilityHints carries the inference collaborator's own notes.
type ExplainabilityHints struct {
	ContributingFactors []ContributingFactor `json:"contributing_factors,omitempty"`
}

// TriageResultFacts is the read-only view of a completed triage result.
type TriageResultFacts struct {
	ResultID              uuid.UUID           `json:"result_id"`
	SessionID             uuid.UUID           `json:"session_id"`
	UserID                string              `json:"user_id"`
	Diagnosis             string              `json:"diagnosis"`
	Severity              Severity            `json:"severity"`
	ConfidenceScore       float64             `json:"confidence_score"`
	SymptomsText          string              `json:"symptoms_text"`
	ModelVersion          string              `json:"model_version"`
	Source                string              `json:"source,omitempty"`
	InferenceMode         string              `json:"inference_mode,omitempty"`
	Recommendations       []string            `json:"recommendations,omitempty"`
	DifferentialDiagnoses []string            `json:"differential_diagnoses,omitempty"`
	Hints                 ExplainabilityHints `json:"explainability"`
}

// FeatureContribution maps to the xai_feature_contribution table.
type FeatureContribution struct {
	ID                uuid.UUID `db:"id" json:"id"`
	ExplanationID     uuid.UUID `db:"explanation_id" json:"-"`
	FeatureName       string    `db:"feature_name" json:"feature_name"`
	Category          Category  `db:"feature_category" json:"feature_category"`
	ContributionScore float64   `db:"contribution_score" json:"contribution_score"`
	Direction         Direction `db:"direction" json:"direction"`
	DisplayName       string    `db:"display_name" json:"display_name"`
	DisplayValue      string    `db:"display_value" json:"display_value"`
	Description       string    `db:"description" json:"description"`
	Rank              int       `db:"rank" json:"rank"`
}

// Name returns the display name, falling back to the machine name.
func (f FeatureContribution) Name() string {
	if f.DisplayName != "" {
		return f.DisplayName
	}
	return f.FeatureName
}

// GlobalImportance is one entry of an explanation's top-10 ranking.
type GlobalImportance struct {
	Feature   string    `json:"feature"`
	Score     float64   `json:"score"`
	Rank      int       `json:"rank"`
	Direction Direction `json:"direction"`
}

// ExplanationMetadata records how an explanation was produced.
type ExplanationMetadata struct {
	SeverityMultiplier float64 `json:"severity_multiplier"`
	SymptomsAnalysed   string  `json:"symptoms_analysed"`
	TotalFeatures      int     `json:"total_features"`
	MethodDetails      string  `json:"method_details"`
}

// Explanation maps to the xai_explanation table. There is at most one per
// triage result.
type Explanation struct {
	ID                      uuid.UUID             `db:"id" json:"id"`
	TriageResultID          uuid.UUID             `db:"triage_result_id" json:"triage_result_id"`
	Method                  Method                `db:"method" json:"method"`
	Summary                 string                `db:"summary" json:"summary"`
	GlobalFeatureImportance []GlobalImportance    `db:"global_feature_importance" json:"global_feature_importance"`
	ModelVersion            string                `db:"model_version" json:"model_version"`
	ComputationTimeMs       int                   `db:"computation_time_ms" json:"computation_time_ms"`
	Metadata                ExplanationMetadata   `db:"metadata" json:"metadata"`
	CreatedBy               string                `db:"created_by" json:"-"`
	CreatedAt               time.Time             `db:"created_at" json:"created_at"`
	FeatureContributions    []FeatureContribution `json:"feature_contributions"`
}

// DrugCandidate is an entry of the OTC drug catalog.
type DrugCandidate struct {
	Name                      string   `yaml:"name"`
	Dosage                    string   `yaml:"dosage"`
	MaxDaily                  string   `yaml:"max_daily"`
	Purpose                   string   `yaml:"purpose"`
	Warnings                  []string `yaml:"warnings"`
	ContraindicatedAllergies  []string `yaml:"contraindicated_allergies"`
	ContraindicatedConditions []string `yaml:"contraindicated_conditions"`
}

// PrescribedDrug is a drug that survived contraindication filtering.
type PrescribedDrug struct {
	Name     string   `json:"name"`
	Dosage   string   `json:"dosage"`
	MaxDaily string   `json:"max_daily"`
	Purpose  string   `json:"purpose"`
	Warnings []string `json:"warnings"`
	Category string   `json:"category"`
}

// Disclaimer is attached to every first-aid prescription.
const Disclaimer = "⚠️ IMPORTANT: These recommendations are for TEMPORARY symptom relief only. " +
	"They are NOT a substitute for professional medical diagnosis or treatment. " +
	"You MUST visit a hospital or consult a healthcare professional as soon as possible. " +
	"Do NOT rely solely on these suggestions. If symptoms worsen, seek emergency care immediately."

// FirstAidPrescription maps to the xai_first_aid_prescription table.
type FirstAidPrescription struct {
	ID                 uuid.UUID        `db:"id" json:"id"`
	UserID             string           `db:"user_id" json:"user_id"`
	TriageSessionID    *uuid.UUID       `db:"triage_session_id" json:"triage_session_id,omitempty"`
	SymptomsText       string           `db:"symptoms_text" json:"symptoms_text"`
	Urgency            Urgency          `db:"urgency" json:"urgency"`
	Drugs              []PrescribedDrug `db:"drugs" json:"drugs"`
	Warnings           []string         `db:"warnings" json:"warnings"`
	Disclaimer         string           `db:"disclaimer" json:"disclaimer"`
	MedicalContextUsed bool             `db:"medical_context_used" json:"medical_context_used"`
	CreatedAt          time.Time        `db:"created_at" json:"created_at"`
}

// PatientFacts are the allergy and condition names recorded for a patient.
type PatientFacts struct {
	AllergyNames         []string
	ActiveConditionNames []string
	// HasRecords is true when the patient has any medical record at all.
	HasRecords bool
}

// CategoryFeature is one entry of ClinicalSummary.FeatureCategories.
type CategoryFeature struct {
	Feature     string    `json:"feature"`
	Value       string    `json:"value"`
	Score       float64   `json:"score"`
	Direction   Direction `json:"direction"`
	Description string    `json:"description"`
	Rank        int       `json:"rank"`
}

// TopContributor is one of the five highest-ranked features.
type TopContributor struct {
	Feature     string    `json:"feature"`
	Score       float64   `json:"score"`
	Direction   Direction `json:"direction"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
}

// ClinicalSummary is the clinician-facing projection of an Explanation.
type ClinicalSummary struct {
	ExplanationID     uuid.UUID                    `json:"explanation_id"`
	Method            string                       `json:"method"`
	ModelVersion      string                       `json:"model_version"`
	Summary           string                       `json:"summary"`
	TopContributors   []TopContributor             `json:"top_contributors"`
	RiskFactors       []string                     `json:"risk_factors"`
	ProtectiveFactors []string                     `json:"protective_factors"`
	FeatureCategories map[string][]CategoryFeature `json:"feature_categories"`
	ComputationTimeMs int                          `json:"computation_time_ms"`
	GeneratedAt       string                       `json:"generated_at"`
}
