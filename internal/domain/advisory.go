package domain

// AdvisoryRule defines one clinician-facing follow-up rule evaluated over
// a finished assessment. Rules live beside the engine, never inside it:
// they read the assessment, they cannot change it.
type AdvisoryRule struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	// Expression is a CEL expression over the assessment variables
	// (risk_score, prediction, bp_stage, systolic, ...). It must
	// evaluate to a bool; true fires the advisory.
	Expression string `json:"expression"`

	// Message is the advisory text shown when the rule fires.
	Message string `json:"message"`

	// Whether the rule is active
	Enabled bool `json:"enabled"`
}
