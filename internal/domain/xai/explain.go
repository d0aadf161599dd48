package xai

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

const (
	maxGlobalImportance = 10
	summaryTopFeatures  = 3
	maxAnalysedSnippet  = 500
	defaultModelVersion = "medgemma-4b-v1"

	positiveThreshold    = 0.05
	confidenceWeight     = 0.3
	severityWeight       = 0.25
	hintBaseScore        = 0.1
	hintDecayPerPosition = 0.1
)

// DetectFeatures returns the catalog features whose keyword appears in text,
// in catalog order. text must already be lower-cased. Overlapping keys
// ("breathing", "shortness of breath") are reported independently.
func DetectFeatures(text string) []SymptomFeature {
	var out []SymptomFeature
	for _, f := range symptomFeatures {
		if strings.Contains(text, f.Keyword) {
			out = append(out, f)
		}
	}
	return out
}

// ScoreContributions builds the unranked contributions for a triage result:
// detected symptoms first, then model confidence, then severity, then any
// contributing factors from the inference hints.
func ScoreContributions(facts *TriageResultFacts) []FeatureContribution {
	text := strings.ToLower(facts.SymptomsText)
	confidence := facts.ConfidenceScore
	sevLower := strings.ToLower(string(facts.Severity))
	mult := SeverityMultiplier(facts.Severity)

	detected := DetectFeatures(text)
	out := make([]FeatureContribution, 0, len(detected)+2+len(facts.Hints.ContributingFactors))

	for _, f := range detected {
		score := round4(math.Min(f.BaseWeight*mult*confidence, 1.0))
		dir := DirectionNeutral
		if score > positiveThreshold {
			dir = DirectionPositive
		}
		out = append(out, FeatureContribution{
			FeatureName:       strings.ReplaceAll(f.Keyword, " ", "_"),
			Category:          f.Category,
			ContributionScore: score,
			Direction:         dir,
			DisplayName:       f.DisplayName,
			DisplayValue:      "Present in symptoms",
			Description: fmt.Sprintf(
				"%s was identified in the patient's description and contributed a SHAP value of %+.4f toward the %s-severity assessment.",
				f.DisplayName, score, sevLower),
		})
	}

	confDir := DirectionNeutral
	verb := "suggests uncertainty in"
	switch {
	case confidence >= 0.7:
		confDir = DirectionPositive
		verb = "supports"
	case confidence < 0.4:
		confDir = DirectionNegative
	}
	out = append(out, FeatureContribution{
		FeatureName:       "model_confidence",
		Category:          CategoryBiomarker,
		ContributionScore: round4(confidence * confidenceWeight),
		Direction:         confDir,
		DisplayName:       "Model Confidence Level",
		DisplayValue:      percent(confidence),
		Description: fmt.Sprintf("The AI model's confidence of %s %s the current assessment.",
			percent(confidence), verb),
	})

	sevDir := DirectionNeutral
	if facts.Severity == SeverityHigh || facts.Severity == SeverityCritical {
		sevDir = DirectionPositive
	}
	out = append(out, FeatureContribution{
		FeatureName:       "severity_assessment",
		Category:          CategoryBiomarker,
		ContributionScore: round4(mult * severityWeight),
		Direction:         sevDir,
		DisplayName:       "Overall Severity Assessment",
		DisplayValue:      titleCase(string(facts.Severity)),
		Description: fmt.Sprintf(
			"The combined symptom profile resulted in a %s-severity classification, which carries a weight multiplier of %s.",
			sevLower, formatMultiplier(mult)),
	})

	for _, factor := range facts.Hints.ContributingFactors {
		out = append(out, FeatureContribution{
			FeatureName:       fmt.Sprintf("contributing_factor_%d", factor.Index),
			Category:          CategoryHistory,
			ContributionScore: round4(hintBaseScore * (1 - float64(factor.Index)*hintDecayPerPosition)),
			Direction:         DirectionPositive,
			DisplayName:       factor.Text,
			DisplayValue:      "Noted",
			Description:       "Clinical analysis factor: " + factor.Text,
		})
	}

	return out
}

// RankContributions sorts contributions by descending absolute score and
// assigns ranks 1..N. Equal magnitudes keep their construction order.
func RankContributions(contribs []FeatureContribution) {
	sort.SliceStable(contribs, func(i, j int) bool {
		return math.Abs(contribs[i].ContributionScore) > math.Abs(contribs[j].ContributionScore)
	})
	for i := range contribs {
		contribs[i].Rank = i + 1
	}
}

// GlobalFeatureImportance projects the first ten ranked contributions.
func GlobalFeatureImportance(ranked []FeatureContribution) []GlobalImportance {
	n := len(ranked)
	if n > maxGlobalImportance {
		n = maxGlobalImportance
	}
	out := make([]GlobalImportance, 0, n)
	for _, c := range ranked[:n] {
		out = append(out, GlobalImportance{
			Feature:   c.DisplayName,
			Score:     c.ContributionScore,
			Rank:      c.Rank,
			Direction: c.Direction,
		})
	}
	return out
}

// BuildSummary renders the natural-language explanation for ranked
// contributions.
func BuildSummary(severity Severity, confidence float64, ranked []FeatureContribution) string {
	top := ranked
	if len(top) > summaryTopFeatures {
		top = top[:summaryTopFeatures]
	}
	names := make([]string, 0, len(top))
	for _, c := range top {
		names = append(names, c.DisplayName)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The AI assessed this case as %s severity with %s confidence (%s). ",
		strings.ToLower(string(severity)), confidenceDescriptor(confidence), percent(confidence))
	fmt.Fprintf(&b, "The primary factors driving this assessment were %s. ", joinNames(names))

	positive := 0
	for _, c := range ranked {
		if c.Direction == DirectionPositive {
			positive++
		}
	}
	if positive > 0 {
		plural := "s"
		if positive == 1 {
			plural = ""
		}
		fmt.Fprintf(&b, "%d feature%s contributed positively toward the diagnosis. ", positive, plural)
	}

	b.WriteString("This explanation was generated using SHAP (Shapley Additive Explanations) " +
		"to provide transparency into the model's decision-making process.")
	return b.String()
}

// Explain runs extraction, scoring, ranking and summarisation for a triage
// result. The returned explanation has no ID or timing yet.
func Explain(facts *TriageResultFacts, method Method) *Explanation {
	contribs := ScoreContributions(facts)
	RankContributions(contribs)

	modelVersion := facts.ModelVersion
	if modelVersion == "" {
		modelVersion = defaultModelVersion
	}

	snippet := strings.ToLower(facts.SymptomsText)
	if r := []rune(snippet); len(r) > maxAnalysedSnippet {
		snippet = string(r[:maxAnalysedSnippet])
	}

	return &Explanation{
		TriageResultID:          facts.ResultID,
		Method:                  method,
		Summary:                 BuildSummary(facts.Severity, facts.ConfidenceScore, contribs),
		GlobalFeatureImportance: GlobalFeatureImportance(contribs),
		ModelVersion:            modelVersion,
		Metadata: ExplanationMetadata{
			SeverityMultiplier: SeverityMultiplier(facts.Severity),
			SymptomsAnalysed:   snippet,
			TotalFeatures:      len(contribs),
			MethodDetails:      fmt.Sprintf("%s analysis of %d features", method, len(contribs)),
		},
		FeatureContributions: contribs,
	}
}

func confidenceDescriptor(c float64) string {
	switch {
	case c >= 0.8:
		return "high"
	case c >= 0.5:
		return "moderate"
	default:
		return "low"
	}
}

func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return "the overall clinical profile"
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

func percent(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}

// formatMultiplier always keeps one decimal place ("1.0", "0.85").
func formatMultiplier(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// titleCase upper-cases the first letter of each word and lower-cases the rest.
func titleCase(s string) string {
	out := []rune(strings.ToLower(s))
	start := true
	for i, r := range out {
		if unicode.IsLetter(r) {
			if start {
				out[i] = unicode.ToUpper(r)
			}
			start = false
		} else {
			start = true
		}
	}
	return string(out)
}
