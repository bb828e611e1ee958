package domain

import (
	"time"
)

// BP stage identifiers (AHA/ACC 2017 categories).
const (
	StageNormal   = "normal"
	StageElevated = "elevated"
	StageOne      = "stage1"
	StageTwo      = "stage2"
	StageCrisis   = "crisis"
	StageUnknown  = "unknown"
)

// Confidence bands for the numeric confidence percentage.
const (
	BandLow      = "Low"
	BandModerate = "Moderate"
	BandHigh     = "High"
)

// BPClassification is the blood-pressure category derived from the
// systolic/diastolic pair. Stateless and deterministic.
type BPClassification struct {
	Category string `json:"category"`
	Stage    string `json:"stage"`
	Color    string `json:"color"`
}

// RiskAssessment is the scoring engine's sole output. Immutable once
// produced; ownership passes entirely to the caller.
type RiskAssessment struct {
	Prediction     int      `json:"prediction"` // 1 iff RiskScore >= 50
	Confidence     int      `json:"confidence"` // 60-92
	ConfidenceBand string   `json:"confidenceBand"`
	RiskScore      int      `json:"riskScore"` // 0-100
	BPCategory     string   `json:"bpCategory"`
	BPStage        string   `json:"bpStage"`
	BPColor        string   `json:"bpColor"`
	RiskFactors    []string `json:"riskFactors"`
}

// AdvisoryFinding is one advisory rule that fired for an assessment.
type AdvisoryFinding struct {
	RuleID  string `json:"ruleId"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// AssessmentRecord is the envelope stored in the session history and
// published on the event bus after each completed assessment.
type AssessmentRecord struct {
	ID         string            `json:"id"`
	TraceID    string            `json:"traceId,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
	Input      PatientRecord     `json:"input"`
	Result     RiskAssessment    `json:"result"`
	Advisories []AdvisoryFinding `json:"advisories,omitempty"`
}
