package xai

import "time"

const topContributorCount = 5

// ClinicalSummaryOf groups an explanation's contributions for clinicians.
// Contributions are read in rank order.
func ClinicalSummaryOf(e *Explanation) *ClinicalSummary {
	cs := &ClinicalSummary{
		ExplanationID:     e.ID,
		Method:            e.Method.Label(),
		ModelVersion:      e.ModelVersion,
		Summary:           e.Summary,
		TopContributors:   []TopContributor{},
		RiskFactors:       []string{},
		ProtectiveFactors: []string{},
		FeatureCategories: map[string][]CategoryFeature{},
		ComputationTimeMs: e.ComputationTimeMs,
		GeneratedAt:       e.CreatedAt.UTC().Format(time.RFC3339Nano),
	}

	for i, fc := range e.FeatureContributions {
		label := fc.Category.Label()
		cs.FeatureCategories[label] = append(cs.FeatureCategories[label], CategoryFeature{
			Feature:     fc.Name(),
			Value:       fc.DisplayValue,
			Score:       fc.ContributionScore,
			Direction:   fc.Direction,
			Description: fc.Description,
			Rank:        fc.Rank,
		})

		if i < topContributorCount {
			cs.TopContributors = append(cs.TopContributors, TopContributor{
				Feature:     fc.Name(),
				Score:       fc.ContributionScore,
				Direction:   fc.Direction,
				Category:    label,
				Description: fc.Description,
			})
		}

		switch fc.Direction {
		case DirectionPositive:
			cs.RiskFactors = append(cs.RiskFactors, fc.Name())
		case DirectionNegative:
			cs.ProtectiveFactors = append(cs.ProtectiveFactors, fc.Name())
		}
	}
	return cs
}
