package domain

// RawFields maps field names to untyped textual input values as received
// from a caller. Values may be empty, non-numeric, or out of range; the
// mapping exists only for the duration of one validation call.
type RawFields map[string]string

// PatientRecord holds the five validated, numeric patient measurements.
// A record must only be constructed from inputs that passed validation,
// including the diastolic < systolic constraint.
type PatientRecord struct {
	Age         int     `json:"age"`
	BMI         float64 `json:"bmi"`
	Cholesterol int     `json:"cholesterol"`
	Systolic    int     `json:"systolic"`
	Diastolic   int     `json:"diastolic"`
}

// ErrorCode identifies which validation check rejected a field.
type ErrorCode string

const (
	ErrMissingValue   ErrorCode = "missing_value"
	ErrNotNumeric     ErrorCode = "not_numeric"
	ErrNotInteger     ErrorCode = "not_integer"
	ErrNotPositive    ErrorCode = "not_positive"
	ErrBelowMinimum   ErrorCode = "below_minimum"
	ErrAboveMaximum   ErrorCode = "above_maximum"
	ErrBPRelationship ErrorCode = "bp_relationship"
	ErrUnknownField   ErrorCode = "unknown_field"
)

// FieldError describes why a single field was rejected.
type FieldError struct {
	Field   string    `json:"field"`
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// ValidationOutcome is the snapshot result of validating one set of raw
// inputs. It is produced fresh per call and never mutated afterward.
type ValidationOutcome struct {
	Valid  bool                 `json:"valid"`
	Errors map[string]string    `json:"errors,omitempty"`
	Codes  map[string]ErrorCode `json:"codes,omitempty"`
}
