// Package scoring implements the weighted clinical risk classifier:
// blood-pressure categorization, additive risk scoring, and confidence
// estimation over a validated patient record.
package scoring

import (
	"math"

	"github.com/opensource-health/heron/internal/domain"
)

// Score boundaries.
const (
	// PredictionThreshold is the risk score at or above which the
	// binary prediction flips to 1.
	PredictionThreshold = 50

	maxScore = 100

	confidenceFloor = 60
	confidenceSpan  = 32 // confidence range is [60, 92]
)

// ThresholdBand is one step of a descending threshold ladder: the first
// band whose threshold the value reaches contributes its points and its
// factor label, and the rest of the ladder is skipped.
type ThresholdBand struct {
	Threshold float64 `json:"threshold"`
	Points    int     `json:"points"`
	Factor    string  `json:"factor"`
}

// WeightTable holds the five feature ladders of the additive scorer, in
// the fixed contribution order systolic, diastolic, age, bmi,
// cholesterol. The table is immutable configuration: build one with
// DefaultWeightTable or substitute an alternate clinical table in tests.
type WeightTable struct {
	Systolic    []ThresholdBand `json:"systolic"`
	Diastolic   []ThresholdBand `json:"diastolic"`
	Age         []ThresholdBand `json:"age"`
	BMI         []ThresholdBand `json:"bmi"`
	Cholesterol []ThresholdBand `json:"cholesterol"`
}

// DefaultWeightTable returns the standard clinical weight table.
func DefaultWeightTable() WeightTable {
	return WeightTable{
		Systolic: []ThresholdBand{
			{Threshold: 180, Points: 42, Factor: "Hypertensive-crisis-level systolic BP"},
			{Threshold: 140, Points: 35, Factor: "Stage 2 systolic hypertension"},
			{Threshold: 130, Points: 22, Factor: "Stage 1 systolic hypertension"},
			{Threshold: 120, Points: 9, Factor: "Elevated systolic BP"},
		},
		Diastolic: []ThresholdBand{
			{Threshold: 120, Points: 30, Factor: "Hypertensive-crisis-level diastolic BP"},
			{Threshold: 90, Points: 22, Factor: "Stage 2 diastolic hypertension"},
			{Threshold: 80, Points: 12, Factor: "Stage 1 diastolic hypertension"},
		},
		Age: []ThresholdBand{
			{Threshold: 70, Points: 14, Factor: "Advanced age"},
			{Threshold: 60, Points: 10, Factor: "Senior age"},
			{Threshold: 45, Points: 6, Factor: "Middle age"},
		},
		BMI: []ThresholdBand{
			{Threshold: 35, Points: 12, Factor: "Severe obesity"},
			{Threshold: 30, Points: 8, Factor: "Obesity"},
			{Threshold: 25, Points: 4, Factor: "Overweight"},
		},
		Cholesterol: []ThresholdBand{
			{Threshold: 280, Points: 10, Factor: "Very high cholesterol"},
			{Threshold: 240, Points: 7, Factor: "High cholesterol"},
			{Threshold: 200, Points: 3, Factor: "Borderline-high cholesterol"},
		},
	}
}

// Engine computes risk assessments from validated patient records. It is
// stateless apart from its immutable weight table; Assess is a pure
// function safe for parallel invocation.
type Engine struct {
	weights WeightTable
}

// NewEngine creates a scoring engine with the given weight table.
func NewEngine(weights WeightTable) *Engine {
	return &Engine{weights: weights}
}

// Assess computes the full risk assessment for a validated record.
// Callers own the precondition: the record must already have passed the
// validation engine, including diastolic < systolic. The scorer does not
// re-validate.
func (e *Engine) Assess(rec domain.PatientRecord) domain.RiskAssessment {
	score := 0
	factors := []string{}

	ladders := []struct {
		value float64
		bands []ThresholdBand
	}{
		{float64(rec.Systolic), e.weights.Systolic},
		{float64(rec.Diastolic), e.weights.Diastolic},
		{float64(rec.Age), e.weights.Age},
		{rec.BMI, e.weights.BMI},
		{float64(rec.Cholesterol), e.weights.Cholesterol},
	}

	// Highest reached threshold wins within a ladder; no stacking.
	for _, l := range ladders {
		for _, band := range l.bands {
			if l.value >= band.Threshold {
				score += band.Points
				factors = append(factors, band.Factor)
				break
			}
		}
	}

	if score > maxScore {
		score = maxScore
	} else if score < 0 {
		score = 0
	}

	prediction := 0
	if score >= PredictionThreshold {
		prediction = 1
	}

	confidence := Confidence(score)
	bp := ClassifyBP(rec.Systolic, rec.Diastolic)

	return domain.RiskAssessment{
		Prediction:     prediction,
		Confidence:     confidence,
		ConfidenceBand: ConfidenceBand(confidence),
		RiskScore:      score,
		BPCategory:     bp.Category,
		BPStage:        bp.Stage,
		BPColor:        bp.Color,
		RiskFactors:    factors,
	}
}

// Weights returns the engine's weight table.
func (e *Engine) Weights() WeightTable {
	return e.weights
}

// ClassifyBP maps a blood-pressure pair to its AHA/ACC 2017 category.
// The conditions form an ordered decision list and the evaluation order
// is load-bearing: stage 2 is checked before crisis and its conditions
// subsume the crisis conditions, so crisis-range readings classify as
// stage 2. Callers depend on that ordering; do not reorder.
func ClassifyBP(systolic, diastolic int) domain.BPClassification {
	switch {
	case systolic < 120 && diastolic < 80:
		return domain.BPClassification{Category: "Normal", Stage: domain.StageNormal, Color: "green"}
	case systolic >= 120 && systolic <= 129 && diastolic < 80:
		return domain.BPClassification{Category: "Elevated", Stage: domain.StageElevated, Color: "yellow"}
	case (systolic >= 130 && systolic <= 139) || (diastolic >= 80 && diastolic <= 89):
		return domain.BPClassification{Category: "High BP – Stage 1", Stage: domain.StageOne, Color: "orange"}
	case systolic >= 140 || diastolic >= 90:
		return domain.BPClassification{Category: "High BP – Stage 2", Stage: domain.StageTwo, Color: "red"}
	case systolic > 180 || diastolic > 120:
		return domain.BPClassification{Category: "Hypertensive Crisis", Stage: domain.StageCrisis, Color: "darkred"}
	default:
		return domain.BPClassification{Category: "Unknown", Stage: domain.StageUnknown, Color: "gray"}
	}
}

// Confidence maps a risk score to a confidence percentage in [60, 92].
// Confidence grows with distance from the decision boundary in either
// direction; it is a certainty display, not a probability.
func Confidence(riskScore int) int {
	distance := math.Abs(float64(riskScore) - PredictionThreshold) // 0-50
	return confidenceFloor + int(math.Round(distance/50*confidenceSpan))
}

// ConfidenceBand buckets a confidence percentage into Low, Moderate, or
// High.
func ConfidenceBand(confidence int) string {
	switch {
	case confidence < 72:
		return domain.BandLow
	case confidence <= 82:
		return domain.BandModerate
	default:
		return domain.BandHigh
	}
}
