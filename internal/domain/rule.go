package domain

// FieldRule defines the validation constraints for one patient input field.
type FieldRule struct {
	Name        string  `json:"name"`
	Label       string  `json:"label"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	IntegerOnly bool    `json:"integerOnly"`
	Hint        string  `json:"hint"`
}

// RuleTable is the immutable set of field rules, in canonical field order.
// It is built once at startup and shared read-only by all validations.
type RuleTable struct {
	fields []FieldRule
	index  map[string]int
}

// NewRuleTable builds a rule table from an ordered list of field rules.
func NewRuleTable(fields []FieldRule) RuleTable {
	index := make(map[string]int, len(fields))
	for i, f := range fields {
		index[f.Name] = i
	}
	return RuleTable{fields: fields, index: index}
}

// DefaultRuleTable returns the five clinical input rules.
func DefaultRuleTable() RuleTable {
	return NewRuleTable([]FieldRule{
		{
			Name:        "age",
			Label:       "Age",
			Min:         1,
			Max:         120,
			IntegerOnly: true,
			Hint:        "Patient age in whole years (1-120)",
		},
		{
			Name:  "bmi",
			Label: "BMI",
			Min:   10,
			Max:   70,
			Hint:  "Body Mass Index in kg/m² (10-70)",
		},
		{
			Name:        "cholesterol",
			Label:       "Cholesterol",
			Min:         50,
			Max:         600,
			IntegerOnly: true,
			Hint:        "Total cholesterol in mg/dL (50-600)",
		},
		{
			Name:        "systolic",
			Label:       "Systolic BP",
			Min:         60,
			Max:         300,
			IntegerOnly: true,
			Hint:        "Systolic blood pressure in mmHg (60-300)",
		},
		{
			Name:        "diastolic",
			Label:       "Diastolic BP",
			Min:         30,
			Max:         200,
			IntegerOnly: true,
			Hint:        "Diastolic blood pressure in mmHg (30-200), must be lower than systolic",
		},
	})
}

// Lookup returns the rule for a field name.
func (t RuleTable) Lookup(name string) (FieldRule, bool) {
	i, ok := t.index[name]
	if !ok {
		return FieldRule{}, false
	}
	return t.fields[i], true
}

// Names returns the canonical field iteration order.
func (t RuleTable) Names() []string {
	names := make([]string, len(t.fields))
	for i, f := range t.fields {
		names[i] = f.Name
	}
	return names
}

// Fields returns a copy of the rules in canonical order.
func (t RuleTable) Fields() []FieldRule {
	out := make([]FieldRule, len(t.fields))
	copy(out, t.fields)
	return out
}

// Len returns the number of fields in the table.
func (t RuleTable) Len() int {
	return len(t.fields)
}
