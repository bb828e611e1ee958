// Package advisory provides the CEL-Go based follow-up rule engine.
// Advisory rules run over a finished assessment and produce clinician
// guidance; they never feed back into validation or scoring.
package advisory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/opensource-health/heron/internal/domain"
)

// Engine compiles and evaluates advisory rules.
type Engine struct {
	mu            sync.RWMutex
	env           *cel.Env
	compiledRules map[string]*CompiledRule
	maxWorkers    int
}

// CompiledRule holds a pre-compiled CEL program.
type CompiledRule struct {
	Config  *domain.AdvisoryRule
	Program cel.Program
}

// NewEngine creates a new advisory rule engine.
func NewEngine(maxWorkers int) (*Engine, error) {
	if maxWorkers <= 0 {
		maxWorkers = 10
	}

	// CEL environment exposing the patient record and assessment output
	env, err := cel.NewEnv(
		cel.Variable("age", cel.IntType),
		cel.Variable("bmi", cel.DoubleType),
		cel.Variable("cholesterol", cel.IntType),
		cel.Variable("systolic", cel.IntType),
		cel.Variable("diastolic", cel.IntType),
		cel.Variable("risk_score", cel.IntType),
		cel.Variable("prediction", cel.IntType),
		cel.Variable("confidence", cel.IntType),
		cel.Variable("confidence_band", cel.StringType),
		cel.Variable("bp_stage", cel.StringType),
		cel.Variable("bp_category", cel.StringType),
		cel.Variable("risk_factors", cel.ListType(cel.StringType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Engine{
		env:           env,
		compiledRules: make(map[string]*CompiledRule),
		maxWorkers:    maxWorkers,
	}, nil
}

// ValidateRule compiles a rule without loading it.
func (e *Engine) ValidateRule(cfg *domain.AdvisoryRule) error {
	if cfg == nil {
		return fmt.Errorf("advisory rule config is required")
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	_, err := e.compileRule(cfg)
	return err
}

// LoadRule compiles and loads a rule into the engine.
func (e *Engine) LoadRule(cfg *domain.AdvisoryRule) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	compiled, err := e.compileRule(cfg)
	if err != nil {
		return err
	}

	e.compiledRules[cfg.ID] = compiled
	return nil
}

// LoadRules compiles and loads all enabled rules.
func (e *Engine) LoadRules(configs []*domain.AdvisoryRule) error {
	for _, cfg := range configs {
		if cfg.Enabled {
			if err := e.LoadRule(cfg); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReloadRules replaces every loaded rule with the given set.
func (e *Engine) ReloadRules(configs []*domain.AdvisoryRule) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	newRules := make(map[string]*CompiledRule)
	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}
		compiled, err := e.compileRule(cfg)
		if err != nil {
			return err
		}
		newRules[cfg.ID] = compiled
	}

	e.compiledRules = newRules
	return nil
}

// Evaluate runs every loaded rule against the assessment and returns
// the findings of the rules that fired. Rules evaluate in parallel;
// findings are returned in no particular order.
func (e *Engine) Evaluate(ctx context.Context, rec domain.PatientRecord, result domain.RiskAssessment) []domain.AdvisoryFinding {
	e.mu.RLock()
	rules := make([]*CompiledRule, 0, len(e.compiledRules))
	for _, rule := range e.compiledRules {
		rules = append(rules, rule)
	}
	e.mu.RUnlock()

	if len(rules) == 0 {
		return nil
	}

	factors := make([]string, len(result.RiskFactors))
	copy(factors, result.RiskFactors)

	activation := map[string]any{
		"age":             rec.Age,
		"bmi":             rec.BMI,
		"cholesterol":     rec.Cholesterol,
		"systolic":        rec.Systolic,
		"diastolic":       rec.Diastolic,
		"risk_score":      result.RiskScore,
		"prediction":      result.Prediction,
		"confidence":      result.Confidence,
		"confidence_band": result.ConfidenceBand,
		"bp_stage":        result.BPStage,
		"bp_category":     result.BPCategory,
		"risk_factors":    factors,
	}

	fired := make([]bool, len(rules))
	var wg sync.WaitGroup

	// Limit concurrency with semaphore
	sem := make(chan struct{}, e.maxWorkers)

	for i, rule := range rules {
		wg.Add(1)
		go func(idx int, r *CompiledRule) {
			defer wg.Done()

			sem <- struct{}{}        // Acquire
			defer func() { <-sem }() // Release

			out, _, err := r.Program.Eval(activation)
			if err != nil {
				return
			}
			if b, ok := out.(types.Bool); ok && bool(b) {
				fired[idx] = true
			}
		}(i, rule)
	}

	wg.Wait()

	var findings []domain.AdvisoryFinding
	for i, rule := range rules {
		if fired[i] {
			findings = append(findings, domain.AdvisoryFinding{
				RuleID:  rule.Config.ID,
				Name:    rule.Config.Name,
				Message: rule.Config.Message,
			})
		}
	}
	return findings
}

// RulesCount returns the number of loaded rules.
func (e *Engine) RulesCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.compiledRules)
}

// LoadedRules returns the currently loaded rule configurations.
func (e *Engine) LoadedRules() []*domain.AdvisoryRule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rules := make([]*domain.AdvisoryRule, 0, len(e.compiledRules))
	for _, compiled := range e.compiledRules {
		rules = append(rules, compiled.Config)
	}
	return rules
}

// Close cleans up the engine.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.compiledRules = make(map[string]*CompiledRule)
	return nil
}

func (e *Engine) compileRule(cfg *domain.AdvisoryRule) (*CompiledRule, error) {
	ast, issues := e.env.Compile(cfg.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile advisory rule %s: %w", cfg.ID, issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("advisory rule %s: expression must return bool, got %s", cfg.ID, ast.OutputType())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for advisory rule %s: %w", cfg.ID, err)
	}

	return &CompiledRule{
		Config:  cfg,
		Program: program,
	}, nil
}
