package advisory

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/opensource-health/heron/internal/domain"
)

// DefaultRules returns the built-in advisory rule set. Deployments can
// replace it with a rules file or via the advisory API.
func DefaultRules() []*domain.AdvisoryRule {
	return []*domain.AdvisoryRule{
		{
			ID:          "crisis-review",
			Name:        "Crisis-range reading",
			Description: "Either reading is in the hypertensive-crisis range",
			Expression:  "systolic > 180 || diastolic > 120",
			Message:     "Reading is in the hypertensive-crisis range: advise immediate clinical review",
			Enabled:     true,
		},
		{
			ID:          "stage2-followup",
			Name:        "Stage 2 follow-up",
			Description: "Stage 2 classification warrants a short-interval follow-up",
			Expression:  "bp_stage == 'stage2'",
			Message:     "Stage 2 hypertension: schedule follow-up within one month",
			Enabled:     true,
		},
		{
			ID:          "borderline-lifestyle",
			Name:        "Borderline risk",
			Description: "Sub-threshold but elevated overall risk",
			Expression:  "risk_score >= 25 && risk_score < 50",
			Message:     "Elevated overall risk: lifestyle modification counseling recommended",
			Enabled:     true,
		},
		{
			ID:          "metabolic-combo",
			Name:        "Metabolic combination",
			Description: "Obesity combined with high cholesterol",
			Expression:  "bmi >= 30.0 && cholesterol >= 240",
			Message:     "Obesity with high cholesterol: consider lipid panel and weight management referral",
			Enabled:     true,
		},
	}
}

// LoadRulesFile reads advisory rules from a JSON file (an array of rule
// objects).
func LoadRulesFile(path string) ([]*domain.AdvisoryRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read advisory rules file: %w", err)
	}

	var rules []*domain.AdvisoryRule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse advisory rules file: %w", err)
	}
	return rules, nil
}
