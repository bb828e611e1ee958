package scoring

import (
	"reflect"
	"testing"

	"github.com/opensource-health/heron/internal/domain"
)

func newTestEngine() *Engine {
	return NewEngine(DefaultWeightTable())
}

func TestAssessLowRiskRecord(t *testing.T) {
	engine := newTestEngine()

	got := engine.Assess(domain.PatientRecord{
		Age: 30, BMI: 22, Cholesterol: 180, Systolic: 110, Diastolic: 70,
	})

	if got.RiskScore != 0 {
		t.Errorf("expected riskScore 0, got %d", got.RiskScore)
	}
	if got.Prediction != 0 {
		t.Errorf("expected prediction 0, got %d", got.Prediction)
	}
	// Score 0 sits at maximum distance from the decision boundary, so
	// the engine is maximally confident in the negative prediction.
	if got.Confidence != 92 {
		t.Errorf("expected confidence 92, got %d", got.Confidence)
	}
	if got.ConfidenceBand != domain.BandHigh {
		t.Errorf("expected band High, got %s", got.ConfidenceBand)
	}
	if got.BPCategory != "Normal" || got.BPStage != domain.StageNormal || got.BPColor != "green" {
		t.Errorf("expected Normal/normal/green, got %s/%s/%s", got.BPCategory, got.BPStage, got.BPColor)
	}
	if len(got.RiskFactors) != 0 {
		t.Errorf("expected no risk factors, got %v", got.RiskFactors)
	}
}

func TestAssessExtremeRecordClampsAt100(t *testing.T) {
	engine := newTestEngine()

	// Raw sum is 42+30+14+12+10 = 108; the score clamps at 100.
	got := engine.Assess(domain.PatientRecord{
		Age: 75, BMI: 40, Cholesterol: 300, Systolic: 190, Diastolic: 130,
	})

	if got.RiskScore != 100 {
		t.Errorf("expected riskScore 100, got %d", got.RiskScore)
	}
	if got.Prediction != 1 {
		t.Errorf("expected prediction 1, got %d", got.Prediction)
	}
	if got.Confidence != 92 {
		t.Errorf("expected confidence 92, got %d", got.Confidence)
	}
	if got.ConfidenceBand != domain.BandHigh {
		t.Errorf("expected band High, got %s", got.ConfidenceBand)
	}
	// Stage 2 wins over crisis: the decision list checks it first.
	if got.BPStage != domain.StageTwo {
		t.Errorf("expected stage2, got %s", got.BPStage)
	}

	wantFactors := []string{
		"Hypertensive-crisis-level systolic BP",
		"Hypertensive-crisis-level diastolic BP",
		"Advanced age",
		"Severe obesity",
		"Very high cholesterol",
	}
	if !reflect.DeepEqual(got.RiskFactors, wantFactors) {
		t.Errorf("unexpected risk factors:\n got %v\nwant %v", got.RiskFactors, wantFactors)
	}
}

func TestRiskFactorOrderIsFixed(t *testing.T) {
	engine := newTestEngine()

	// Every block fires at its lowest band; order must stay
	// systolic, diastolic, age, bmi, cholesterol.
	got := engine.Assess(domain.PatientRecord{
		Age: 46, BMI: 26, Cholesterol: 205, Systolic: 125, Diastolic: 82,
	})

	wantFactors := []string{
		"Elevated systolic BP",
		"Stage 1 diastolic hypertension",
		"Middle age",
		"Overweight",
		"Borderline-high cholesterol",
	}
	if !reflect.DeepEqual(got.RiskFactors, wantFactors) {
		t.Errorf("unexpected risk factors:\n got %v\nwant %v", got.RiskFactors, wantFactors)
	}
	// 9 + 12 + 6 + 4 + 3
	if got.RiskScore != 34 {
		t.Errorf("expected riskScore 34, got %d", got.RiskScore)
	}
}

func TestLadderHighestThresholdWins(t *testing.T) {
	engine := newTestEngine()

	// systolic 185 reaches all four systolic bands; only the 180 band
	// may contribute.
	got := engine.Assess(domain.PatientRecord{
		Age: 30, BMI: 22, Cholesterol: 180, Systolic: 185, Diastolic: 70,
	})

	if got.RiskScore != 42 {
		t.Errorf("expected riskScore 42, got %d", got.RiskScore)
	}
	if len(got.RiskFactors) != 1 || got.RiskFactors[0] != "Hypertensive-crisis-level systolic BP" {
		t.Errorf("unexpected risk factors: %v", got.RiskFactors)
	}
}

func TestPredictionThresholdBoundary(t *testing.T) {
	engine := newTestEngine()

	// 35 (systolic 140) + 12 (diastolic 80) + 3 (cholesterol 200) = 50:
	// exactly at the boundary, prediction must be 1 and confidence 60.
	got := engine.Assess(domain.PatientRecord{
		Age: 30, BMI: 22, Cholesterol: 200, Systolic: 140, Diastolic: 80,
	})

	if got.RiskScore != 50 {
		t.Fatalf("expected riskScore 50, got %d", got.RiskScore)
	}
	if got.Prediction != 1 {
		t.Errorf("expected prediction 1 at the boundary, got %d", got.Prediction)
	}
	if got.Confidence != 60 {
		t.Errorf("expected confidence 60 at the boundary, got %d", got.Confidence)
	}
	if got.ConfidenceBand != domain.BandLow {
		t.Errorf("expected band Low, got %s", got.ConfidenceBand)
	}
}

func TestAssessIsIdempotent(t *testing.T) {
	engine := newTestEngine()

	rec := domain.PatientRecord{Age: 62, BMI: 31.5, Cholesterol: 245, Systolic: 145, Diastolic: 92}

	first := engine.Assess(rec)
	second := engine.Assess(rec)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical assessments:\n first %+v\nsecond %+v", first, second)
	}
}

func TestRiskScoreMonotonicInSystolic(t *testing.T) {
	engine := newTestEngine()

	prev := -1
	for systolic := 60; systolic <= 300; systolic++ {
		got := engine.Assess(domain.PatientRecord{
			Age: 50, BMI: 28, Cholesterol: 220, Systolic: systolic, Diastolic: 55,
		})
		if got.RiskScore < prev {
			t.Fatalf("riskScore decreased at systolic=%d: %d -> %d", systolic, prev, got.RiskScore)
		}
		prev = got.RiskScore
	}
}

func TestClassifyBP(t *testing.T) {
	tests := []struct {
		name      string
		systolic  int
		diastolic int
		stage     string
		category  string
		color     string
	}{
		{"normal", 110, 70, domain.StageNormal, "Normal", "green"},
		{"normal upper edge", 119, 79, domain.StageNormal, "Normal", "green"},
		{"elevated lower edge", 120, 70, domain.StageElevated, "Elevated", "yellow"},
		{"elevated upper edge", 129, 79, domain.StageElevated, "Elevated", "yellow"},
		{"stage1 by systolic", 130, 70, domain.StageOne, "High BP – Stage 1", "orange"},
		{"stage1 by diastolic", 110, 80, domain.StageOne, "High BP – Stage 1", "orange"},
		{"stage1 upper edge", 139, 89, domain.StageOne, "High BP – Stage 1", "orange"},
		{"stage2 by systolic", 140, 70, domain.StageTwo, "High BP – Stage 2", "red"},
		{"stage2 by diastolic", 110, 90, domain.StageTwo, "High BP – Stage 2", "red"},
		// Readings past the crisis thresholds still classify stage 2
		// because the decision list evaluates stage 2 first.
		{"crisis-range systolic", 190, 70, domain.StageTwo, "High BP – Stage 2", "red"},
		{"crisis-range diastolic", 150, 130, domain.StageTwo, "High BP – Stage 2", "red"},
		{"elevated systolic with stage1 diastolic", 125, 85, domain.StageOne, "High BP – Stage 1", "orange"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ClassifyBP(tc.systolic, tc.diastolic)
			if got.Stage != tc.stage {
				t.Errorf("stage: expected %s, got %s", tc.stage, got.Stage)
			}
			if got.Category != tc.category {
				t.Errorf("category: expected %q, got %q", tc.category, got.Category)
			}
			if got.Color != tc.color {
				t.Errorf("color: expected %s, got %s", tc.color, got.Color)
			}
		})
	}
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		score      int
		confidence int
		band       string
	}{
		{50, 60, domain.BandLow},
		{0, 92, domain.BandHigh},
		{100, 92, domain.BandHigh},
		{40, 66, domain.BandLow},      // distance 10 -> 60 + 6.4 rounds to 66
		{68, 72, domain.BandModerate}, // distance 18 -> 60 + 11.52 rounds to 72
		{15, 82, domain.BandModerate}, // distance 35 -> 60 + 22.4 rounds to 82
		{86, 83, domain.BandHigh},     // distance 36 -> 60 + 23.04 rounds to 83
	}

	for _, tc := range tests {
		if got := Confidence(tc.score); got != tc.confidence {
			t.Errorf("score %d: expected confidence %d, got %d", tc.score, tc.confidence, got)
		}
		if got := ConfidenceBand(tc.confidence); got != tc.band {
			t.Errorf("confidence %d: expected band %s, got %s", tc.confidence, tc.band, got)
		}
	}
}

func TestInvariantsAcrossScoreRange(t *testing.T) {
	engine := newTestEngine()

	for systolic := 60; systolic <= 299; systolic += 7 {
		for diastolic := 30; diastolic < systolic && diastolic <= 200; diastolic += 11 {
			got := engine.Assess(domain.PatientRecord{
				Age: 55, BMI: 33, Cholesterol: 250, Systolic: systolic, Diastolic: diastolic,
			})
			if got.RiskScore < 0 || got.RiskScore > 100 {
				t.Fatalf("riskScore out of range: %d", got.RiskScore)
			}
			if got.Confidence < 60 || got.Confidence > 92 {
				t.Fatalf("confidence out of range: %d", got.Confidence)
			}
			if (got.Prediction == 1) != (got.RiskScore >= 50) {
				t.Fatalf("prediction %d inconsistent with riskScore %d", got.Prediction, got.RiskScore)
			}
		}
	}
}

func TestAlternateWeightTable(t *testing.T) {
	// A substituted table changes scores without touching engine logic.
	table := WeightTable{
		Systolic: []ThresholdBand{
			{Threshold: 150, Points: 60, Factor: "High systolic"},
		},
		Cholesterol: []ThresholdBand{
			{Threshold: 300, Points: 40, Factor: "High cholesterol"},
		},
	}
	engine := NewEngine(table)

	got := engine.Assess(domain.PatientRecord{
		Age: 80, BMI: 45, Cholesterol: 320, Systolic: 160, Diastolic: 100,
	})

	if got.RiskScore != 100 {
		t.Errorf("expected riskScore 100, got %d", got.RiskScore)
	}
	wantFactors := []string{"High systolic", "High cholesterol"}
	if !reflect.DeepEqual(got.RiskFactors, wantFactors) {
		t.Errorf("unexpected risk factors: %v", got.RiskFactors)
	}
}
