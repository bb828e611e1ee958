// Package validation implements the rule-driven field validator for
// patient measurements.
package validation

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/opensource-health/heron/internal/domain"
)

// Engine validates raw field inputs against the rule table plus the one
// cross-field constraint (diastolic < systolic). It holds no mutable
// state: every call is a pure function of its arguments and the table,
// so a single engine is safe for concurrent use.
type Engine struct {
	rules domain.RuleTable
}

// NewEngine creates a validation engine over the given rule table.
func NewEngine(rules domain.RuleTable) *Engine {
	return &Engine{rules: rules}
}

// Rules returns the engine's rule table.
func (e *Engine) Rules() domain.RuleTable {
	return e.rules
}

// FieldNames returns the canonical field iteration order used by all
// other components.
func (e *Engine) FieldNames() []string {
	return e.rules.Names()
}

// Hint returns the input hint for a field, or "" for unknown fields.
func (e *Engine) Hint(name string) string {
	rule, ok := e.rules.Lookup(name)
	if !ok {
		return ""
	}
	return rule.Hint
}

// ValidateField checks one raw value against its field rule. Checks run
// in a fixed order and short-circuit: only the first failing check is
// reported. A nil result means the value passed.
func (e *Engine) ValidateField(name, raw string) *domain.FieldError {
	rule, ok := e.rules.Lookup(name)
	if !ok {
		return &domain.FieldError{
			Field:   name,
			Code:    domain.ErrUnknownField,
			Message: fmt.Sprintf("Unknown field: %s", name),
		}
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fieldError(rule, domain.ErrMissingValue, "%s is required")
	}

	value, err := parseNumber(raw)
	if err != nil {
		return fieldError(rule, domain.ErrNotNumeric, "%s must be a number")
	}

	if rule.IntegerOnly && value != math.Trunc(value) {
		return fieldError(rule, domain.ErrNotInteger, "%s must be a whole number")
	}

	if value <= 0 {
		return fieldError(rule, domain.ErrNotPositive, "%s must be greater than zero")
	}

	if value < rule.Min {
		fe := fieldError(rule, domain.ErrBelowMinimum, "")
		fe.Message = fmt.Sprintf("%s must be at least %s", rule.Label, formatBound(rule.Min))
		return fe
	}

	if value > rule.Max {
		fe := fieldError(rule, domain.ErrAboveMaximum, "")
		fe.Message = fmt.Sprintf("%s must be at most %s", rule.Label, formatBound(rule.Max))
		return fe
	}

	return nil
}

// ValidateBPRelationship checks the cross-field constraint that diastolic
// pressure is strictly lower than systolic. Non-numeric inputs are a
// skip, not a failure: the per-field checks own those. A failure is
// attached to the diastolic field.
func (e *Engine) ValidateBPRelationship(systolicRaw, diastolicRaw string) *domain.FieldError {
	systolic, err := parseNumber(strings.TrimSpace(systolicRaw))
	if err != nil {
		return nil
	}
	diastolic, err := parseNumber(strings.TrimSpace(diastolicRaw))
	if err != nil {
		return nil
	}

	if diastolic >= systolic {
		return &domain.FieldError{
			Field:   "diastolic",
			Code:    domain.ErrBPRelationship,
			Message: "Diastolic BP must be lower than systolic BP",
		}
	}
	return nil
}

// ValidateAll runs ValidateField over every rule in canonical order and
// collects failures per field. The cross-field relationship check runs
// only when both BP fields individually passed; its failure overwrites
// the diastolic entry (which is empty at that point by construction).
func (e *Engine) ValidateAll(raw domain.RawFields) domain.ValidationOutcome {
	errs := make(map[string]string)
	codes := make(map[string]domain.ErrorCode)

	for _, name := range e.rules.Names() {
		if fe := e.ValidateField(name, raw[name]); fe != nil {
			errs[name] = fe.Message
			codes[name] = fe.Code
		}
	}

	if _, sysFailed := errs["systolic"]; !sysFailed {
		if _, diaFailed := errs["diastolic"]; !diaFailed {
			if fe := e.ValidateBPRelationship(raw["systolic"], raw["diastolic"]); fe != nil {
				errs[fe.Field] = fe.Message
				codes[fe.Field] = fe.Code
			}
		}
	}

	if len(errs) == 0 {
		return domain.ValidationOutcome{Valid: true}
	}
	return domain.ValidationOutcome{Valid: false, Errors: errs, Codes: codes}
}

// ParseRecord validates all raw fields and, when valid, converts them
// into a typed patient record. This is the only constructor for records
// handed to the scoring engine.
func (e *Engine) ParseRecord(raw domain.RawFields) (*domain.PatientRecord, domain.ValidationOutcome) {
	outcome := e.ValidateAll(raw)
	if !outcome.Valid {
		return nil, outcome
	}

	// Values re-parse cleanly here: ValidateAll already accepted them.
	num := func(name string) float64 {
		v, _ := parseNumber(strings.TrimSpace(raw[name]))
		return v
	}

	return &domain.PatientRecord{
		Age:         int(num("age")),
		BMI:         num("bmi"),
		Cholesterol: int(num("cholesterol")),
		Systolic:    int(num("systolic")),
		Diastolic:   int(num("diastolic")),
	}, outcome
}

// parseNumber parses a finite decimal number. NaN and infinities are
// rejected along with non-numeric text.
func parseNumber(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number: %q", raw)
	}
	return v, nil
}

func fieldError(rule domain.FieldRule, code domain.ErrorCode, format string) *domain.FieldError {
	fe := &domain.FieldError{Field: rule.Name, Code: code}
	if format != "" {
		fe.Message = fmt.Sprintf(format, rule.Label)
	}
	return fe
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
