package xai

// SymptomFeature is a keyword the extractor looks for in symptom text.
type SymptomFeature struct {
	Keyword     string   `yaml:"keyword"`
	DisplayName string   `yaml:"display_name"`
	Category    Category `yaml:"category"`
	BaseWeight  float64  `yaml:"base_weight"`
}

// symptomFeatures is scanned in order; emission order and stable-sort
// tie-breaking both follow it.
var symptomFeatures = []SymptomFeature{
	{Keyword: "headache", DisplayName: "Headache", Category: CategorySymptom, BaseWeight: 0.15},
	{Keyword: "fever", DisplayName: "Fever / Elevated Temperature", Category: CategoryVitalSign, BaseWeight: 0.20},
	{Keyword: "cough", DisplayName: "Cough", Category: CategorySymptom, BaseWeight: 0.12},
	{Keyword: "fatigue", DisplayName: "Fatigue / Tiredness", Category: CategorySymptom, BaseWeight: 0.10},
	{Keyword: "nausea", DisplayName: "Nausea / Vomiting", Category: CategorySymptom, BaseWeight: 0.13},
	{Keyword: "pain", DisplayName: "Pain", Category: CategorySymptom, BaseWeight: 0.18},
	{Keyword: "breathing", DisplayName: "Breathing Difficulty", Category: CategorySymptom, BaseWeight: 0.25},
	{Keyword: "shortness of breath", DisplayName: "Shortness of Breath", Category: CategorySymptom, BaseWeight: 0.25},
	{Keyword: "dizziness", DisplayName: "Dizziness / Lightheadedness", Category: CategorySymptom, BaseWeight: 0.14},
	{Keyword: "chest", DisplayName: "Chest Pain / Discomfort", Category: CategorySymptom, BaseWeight: 0.28},
	{Keyword: "rash", DisplayName: "Skin Rash", Category: CategorySymptom, BaseWeight: 0.08},
	{Keyword: "swelling", DisplayName: "Swelling", Category: CategorySymptom, BaseWeight: 0.11},
	{Keyword: "blood pressure", DisplayName: "Blood Pressure", Category: CategoryVitalSign, BaseWeight: 0.22},
	{Keyword: "heart rate", DisplayName: "Heart Rate", Category: CategoryVitalSign, BaseWeight: 0.18},
}

// SymptomFeatures returns a copy of the feature catalog in scan order.
func SymptomFeatures() []SymptomFeature {
	out := make([]SymptomFeature, len(symptomFeatures))
	copy(out, symptomFeatures)
	return out
}

var severityMultipliers = map[Severity]float64{
	SeverityLow:      0.3,
	SeverityMedium:   0.6,
	SeverityHigh:     0.85,
	SeverityCritical: 1.0,
}

const defaultSeverityMultiplier = 0.5

// SeverityMultiplier returns the weight multiplier for a severity label.
// Unrecognised labels get 0.5.
func SeverityMultiplier(s Severity) float64 {
	if m, ok := severityMultipliers[s]; ok {
		return m
	}
	return defaultSeverityMultiplier
}

// DrugCategory groups the OTC drugs offered for one symptom category
// together with the keywords that select it.
type DrugCategory struct {
	Name     string          `yaml:"name"`
	Keywords []string        `yaml:"keywords"`
	Drugs    []DrugCandidate `yaml:"drugs"`
}

var paracetamolAllergies = []string{"acetaminophen", "paracetamol"}

// drugCatalog is matched and enumerated in order.
var drugCatalog = []DrugCategory{
	{
		Name:     "pain",
		Keywords: []string{"pain", "ache", "hurt", "sore", "cramp", "throbbing"},
		Drugs: []DrugCandidate{
			{
				Name:                      "Paracetamol (Acetaminophen)",
				Dosage:                    "500mg–1000mg every 4–6 hours",
				MaxDaily:                  "4000mg (4g) per day",
				Purpose:                   "Pain relief and fever reduction",
				Warnings:                  []string{"Do not exceed recommended dose", "Avoid with liver disease"},
				ContraindicatedAllergies:  paracetamolAllergies,
				ContraindicatedConditions: []string{"liver disease", "hepatitis", "liver failure"},
			},
			{
				Name:                      "Ibuprofen",
				Dosage:                    "200mg–400mg every 4–6 hours",
				MaxDaily:                  "1200mg per day (OTC dose)",
				Purpose:                   "Pain, inflammation, and fever relief",
				Warnings:                  []string{"Take with food", "Avoid if pregnant", "Not for stomach ulcers"},
				ContraindicatedAllergies:  []string{"ibuprofen", "nsaid", "aspirin"},
				ContraindicatedConditions: []string{"stomach ulcer", "kidney disease", "asthma"},
			},
		},
	},
	{
		Name:     "fever",
		Keywords: []string{"fever", "temperature", "hot", "chills", "sweating"},
		Drugs: []DrugCandidate{
			{
				Name:                      "Paracetamol (Acetaminophen)",
				Dosage:                    "500mg–1000mg every 4–6 hours",
				MaxDaily:                  "4000mg (4g) per day",
				Purpose:                   "Fever reduction",
				Warnings:                  []string{"Stay hydrated", "Do not exceed dose"},
				ContraindicatedAllergies:  paracetamolAllergies,
				ContraindicatedConditions: []string{"liver disease"},
			},
		},
	},
	{
		Name:     "headache",
		Keywords: []string{"headache", "head pain", "migraine"},
		Drugs: []DrugCandidate{
			{
				Name:                      "Paracetamol (Acetaminophen)",
				Dosage:                    "500mg–1000mg",
				MaxDaily:                  "4000mg per day",
				Purpose:                   "Headache relief",
				Warnings:                  []string{"Avoid alcohol"},
				ContraindicatedAllergies:  paracetamolAllergies,
				ContraindicatedConditions: []string{"liver disease"},
			},
			{
				Name:                      "Aspirin",
				Dosage:                    "300mg–600mg every 4–6 hours",
				MaxDaily:                  "4000mg per day",
				Purpose:                   "Pain and headache relief",
				Warnings:                  []string{"Not for under 16", "Take with food", "Avoid if asthmatic"},
				ContraindicatedAllergies:  []string{"aspirin", "nsaid"},
				ContraindicatedConditions: []string{"stomach ulcer", "asthma", "bleeding disorder"},
			},
		},
	},
	{
		Name:     "cough",
		Keywords: []string{"cough", "coughing"},
		Drugs: []DrugCandidate{
			{
				Name:                     "Dextromethorphan (DM) Cough Syrup",
				Dosage:                   "10–20mg every 4–6 hours",
				MaxDaily:                 "120mg per day",
				Purpose:                  "Dry cough suppression",
				Warnings:                 []string{"Drowsiness possible", "Do not combine with other cough meds"},
				ContraindicatedAllergies: []string{"dextromethorphan"},
			},
			{
				Name:                     "Honey + Warm Water",
				Dosage:                   "1–2 teaspoons in warm water",
				MaxDaily:                 "As needed",
				Purpose:                  "Soothe throat and reduce cough",
				Warnings:                 []string{"Not for children under 1 year"},
				ContraindicatedAllergies: []string{"honey"},
			},
		},
	},
	{
		Name:     "nausea",
		Keywords: []string{"nausea", "vomit", "throwing up", "sick to stomach", "queasy"},
		Drugs: []DrugCandidate{
			{
				Name:     "Oral Rehydration Salts (ORS)",
				Dosage:   "1 sachet in 1 litre of clean water, sip frequently",
				MaxDaily: "As needed to prevent dehydration",
				Purpose:  "Prevent dehydration from nausea/vomiting",
				Warnings: []string{"Do not add sugar or salt beyond the sachet"},
			},
			{
				Name:                      "Dimenhydrinate",
				Dosage:                    "50mg every 4–6 hours",
				MaxDaily:                  "300mg per day",
				Purpose:                   "Anti-nausea and motion sickness",
				Warnings:                  []string{"Causes drowsiness", "Do not drive"},
				ContraindicatedAllergies:  []string{"dimenhydrinate"},
				ContraindicatedConditions: []string{"glaucoma"},
			},
		},
	},
	{
		Name:     "diarrhea",
		Keywords: []string{"diarrhea", "loose stool", "watery stool", "runs"},
		Drugs: []DrugCandidate{
			{
				Name:     "Oral Rehydration Salts (ORS)",
				Dosage:   "1 sachet in 1 litre of clean water",
				MaxDaily: "As needed",
				Purpose:  "Prevent dehydration",
				Warnings: []string{},
			},
			{
				Name:                      "Loperamide",
				Dosage:                    "4mg initially, then 2mg after each loose stool",
				MaxDaily:                  "16mg per day",
				Purpose:                   "Reduce diarrhea frequency",
				Warnings:                  []string{"Not for bloody diarrhea", "Not for children under 12"},
				ContraindicatedAllergies:  []string{"loperamide"},
				ContraindicatedConditions: []string{"bloody stool", "dysentery"},
			},
		},
	},
	{
		Name:     "allergy",
		Keywords: []string{"allergy", "allergic", "hives", "rash", "itching", "itchy", "sneezing"},
		Drugs: []DrugCandidate{
			{
				Name:                      "Cetirizine",
				Dosage:                    "10mg once daily",
				MaxDaily:                  "10mg per day",
				Purpose:                   "Allergy symptom relief (sneezing, itching, rash)",
				Warnings:                  []string{"May cause mild drowsiness"},
				ContraindicatedAllergies:  []string{"cetirizine"},
				ContraindicatedConditions: []string{"severe kidney disease"},
			},
			{
				Name:                     "Loratadine",
				Dosage:                   "10mg once daily",
				MaxDaily:                 "10mg per day",
				Purpose:                  "Non-drowsy allergy relief",
				Warnings:                 []string{},
				ContraindicatedAllergies: []string{"loratadine"},
			},
		},
	},
	{
		Name:     "stomach",
		Keywords: []string{"stomach", "heartburn", "indigestion", "acid", "bloating", "gas"},
		Drugs: []DrugCandidate{
			{
				Name:                      "Antacid (Aluminium/Magnesium Hydroxide)",
				Dosage:                    "10–20ml after meals",
				MaxDaily:                  "4 doses per day",
				Purpose:                   "Relieve heartburn, indigestion, acid reflux",
				Warnings:                  []string{"Do not take with other medicines within 2 hours"},
				ContraindicatedConditions: []string{"kidney disease"},
			},
		},
	},
	{
		Name:     "sore_throat",
		Keywords: []string{"sore throat", "throat pain", "scratchy throat"},
		Drugs: []DrugCandidate{
			{
				Name:                     "Throat Lozenges (Benzocaine/Menthol)",
				Dosage:                   "1 lozenge every 2–3 hours",
				MaxDaily:                 "8 per day",
				Purpose:                  "Soothe throat pain",
				Warnings:                 []string{"Not for children under 6"},
				ContraindicatedAllergies: []string{"benzocaine"},
			},
		},
	},
	{
		Name:     "congestion",
		Keywords: []string{"congestion", "stuffy nose", "blocked nose", "runny nose", "nasal"},
		Drugs: []DrugCandidate{
			{
				Name:                      "Pseudoephedrine",
				Dosage:                    "60mg every 4–6 hours",
				MaxDaily:                  "240mg per day",
				Purpose:                   "Nasal congestion relief",
				Warnings:                  []string{"May increase blood pressure", "Not for heart conditions"},
				ContraindicatedAllergies:  []string{"pseudoephedrine"},
				ContraindicatedConditions: []string{"hypertension", "high blood pressure", "heart disease"},
			},
			{
				Name:     "Saline Nasal Spray",
				Dosage:   "2–3 sprays per nostril as needed",
				MaxDaily: "As needed",
				Purpose:  "Moisturize and clear nasal passages",
				Warnings: []string{},
			},
		},
	},
}

// DrugCatalog returns the drug categories in match order. Callers must not
// modify the returned drugs.
func DrugCatalog() []DrugCategory {
	out := make([]DrugCategory, len(drugCatalog))
	copy(out, drugCatalog)
	return out
}

var (
	highUrgencyKeywords = []string{
		"severe", "intense", "unbearable", "emergency", "blood",
		"chest pain", "can't breathe", "collapse", "faint",
	}
	moderateUrgencyKeywords = []string{
		"moderate", "persistent", "constant", "worsening", "recurring",
	}
)

// UrgencyKeywords returns copies of the high and moderate keyword lists.
func UrgencyKeywords() (high, moderate []string) {
	return append([]string(nil), highUrgencyKeywords...), append([]string(nil), moderateUrgencyKeywords...)
}
