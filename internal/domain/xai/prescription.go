package xai

import (
	"fmt"
	"strings"
)

const minCategoriesForModerate = 3

// MatchCategories returns the drug categories selected by symptom text, in
// catalog order. text must already be lower-cased. When nothing matches the
// result is ["pain"].
func MatchCategories(text string) []string {
	var matched []string
	for _, cat := range drugCatalog {
		for _, kw := range cat.Keywords {
			if strings.Contains(text, kw) {
				matched = append(matched, cat.Name)
				break
			}
		}
	}
	if len(matched) == 0 {
		matched = []string{"pain"}
	}
	return matched
}

// AssessUrgency classifies text (lower-cased) given the matched categories.
// High keywords win over moderate keywords, which win over category count.
func AssessUrgency(text string, categories []string) Urgency {
	for _, kw := range highUrgencyKeywords {
		if strings.Contains(text, kw) {
			return UrgencyHigh
		}
	}
	for _, kw := range moderateUrgencyKeywords {
		if strings.Contains(text, kw) {
			return UrgencyModerate
		}
	}
	if len(categories) >= minCategoriesForModerate {
		return UrgencyModerate
	}
	return UrgencyLow
}

// FilterDrugs enumerates the drugs for the matched categories and drops the
// ones contraindicated by the patient's allergies or conditions. Each
// exclusion produces exactly one warning; allergies are checked first.
// A name is skipped only once it has been added, so a drug excluded under
// one category is evaluated again under the next.
func FilterDrugs(categories []string, patient PatientFacts) ([]PrescribedDrug, []string) {
	return filterDrugs(drugCatalog, categories, patient)
}

func filterDrugs(catalog []DrugCategory, categories []string, patient PatientFacts) ([]PrescribedDrug, []string) {
	drugs := []PrescribedDrug{}
	warnings := []string{}
	seen := make(map[string]bool)

	for _, name := range categories {
		cat, ok := categoryByName(catalog, name)
		if !ok {
			continue
		}
		for _, d := range cat.Drugs {
			if seen[d.Name] {
				continue
			}
			if allergy, hit := firstOverlap(patient.AllergyNames, d.ContraindicatedAllergies); hit {
				warnings = append(warnings, fmt.Sprintf(
					"⚠️ %s was EXCLUDED because you have a recorded allergy to %s.", d.Name, allergy))
				continue
			}
			if cond, hit := firstOverlap(patient.ActiveConditionNames, d.ContraindicatedConditions); hit {
				warnings = append(warnings, fmt.Sprintf(
					"⚠️ %s was EXCLUDED due to your existing condition: %s.", d.Name, cond))
				continue
			}
			drugs = append(drugs, PrescribedDrug{
				Name:     d.Name,
				Dosage:   d.Dosage,
				MaxDaily: d.MaxDaily,
				Purpose:  d.Purpose,
				Warnings: append([]string{}, d.Warnings...),
				Category: cat.Name,
			})
			seen[d.Name] = true
		}
	}
	return drugs, warnings
}

// BuildPrescription is the pure part of prescription generation: category
// matching, contraindication filtering and urgency assessment.
func BuildPrescription(symptomsText string, patient PatientFacts, medicalContextUsed bool) (*FirstAidPrescription, []string) {
	text := strings.ToLower(symptomsText)
	categories := MatchCategories(text)
	drugs, warnings := FilterDrugs(categories, patient)
	return &FirstAidPrescription{
		SymptomsText:       symptomsText,
		Urgency:            AssessUrgency(text, categories),
		Drugs:              drugs,
		Warnings:           warnings,
		Disclaimer:         Disclaimer,
		MedicalContextUsed: medicalContextUsed,
	}, categories
}

func categoryByName(catalog []DrugCategory, name string) (DrugCategory, bool) {
	for _, c := range catalog {
		if c.Name == name {
			return c, true
		}
	}
	return DrugCategory{}, false
}

// firstOverlap returns the first patient fact that contains, or is contained
// in, any contraindication (case-insensitive). Blank facts never match.
func firstOverlap(facts, contra []string) (string, bool) {
	for _, f := range facts {
		fl := strings.ToLower(strings.TrimSpace(f))
		if fl == "" {
			continue
		}
		for _, c := range contra {
			cl := strings.ToLower(c)
			if strings.Contains(fl, cl) || strings.Contains(cl, fl) {
				return f, true
			}
		}
	}
	return "", false
}
