// Package alerts provides the CEL-based attention rule engine.
//
// Rules are boolean expressions over a pet's attributes; a triggered rule
// flags the pet as needing attention. The builtin rule encodes the default
// care thresholds; custom rules can be added at runtime.
package alerts

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/happy-paws/petshop/internal/domain"
)

// Engine compiles and evaluates attention rules.
type Engine struct {
	mu       sync.RWMutex
	env      *cel.Env
	compiled map[string]*CompiledRule
}

// CompiledRule holds a pre-compiled CEL program.
type CompiledRule struct {
	Rule    *domain.AlertRule
	Program cel.Program
}

// NewEngine creates a rule engine with the pet attribute environment.
func NewEngine() (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("happiness", cel.DoubleType),
		cel.Variable("hunger", cel.DoubleType),
		cel.Variable("age", cel.IntType),
		cel.Variable("price", cel.DoubleType),
		cel.Variable("is_sold", cel.BoolType),
		cel.Variable("species", cel.StringType),
		cel.Variable("name", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Engine{
		env:      env,
		compiled: make(map[string]*CompiledRule),
	}, nil
}

// BuiltinRules returns the default rule set: the standard attention
// thresholds (strict inequalities, so hunger 80 and happiness 30 do not fire).
func BuiltinRules() []*domain.AlertRule {
	return []*domain.AlertRule{
		{
			ID:         "needs-attention",
			Name:       "Needs Attention",
			Expression: "hunger > 80.0 || happiness < 30.0",
			Enabled:    true,
		},
	}
}

// LoadRule compiles and loads a rule into the engine.
func (e *Engine) LoadRule(rule *domain.AlertRule) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	compiled, err := e.compile(rule)
	if err != nil {
		return err
	}
	e.compiled[rule.ID] = compiled
	return nil
}

// LoadRules compiles and loads multiple rules, skipping disabled ones.
func (e *Engine) LoadRules(rules []*domain.AlertRule) error {
	for _, rule := range rules {
		if rule.Enabled {
			if err := e.LoadRule(rule); err != nil {
				return err
			}
		}
	}
	return nil
}

// Rules returns the currently loaded rules.
func (e *Engine) Rules() []*domain.AlertRule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]*domain.AlertRule, 0, len(e.compiled))
	for _, c := range e.compiled {
		out = append(out, c.Rule)
	}
	return out
}

// RulesCount returns the number of loaded rules.
func (e *Engine) RulesCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.compiled)
}

// Evaluate runs every loaded rule against the pet. An expression that fails
// at evaluation time counts as not triggered.
func (e *Engine) Evaluate(p domain.Pet) []domain.AlertResult {
	e.mu.RLock()
	rules := make([]*CompiledRule, 0, len(e.compiled))
	for _, c := range e.compiled {
		rules = append(rules, c)
	}
	e.mu.RUnlock()

	if len(rules) == 0 {
		return nil
	}

	activation := map[string]any{
		"happiness": p.Happiness,
		"hunger":    p.Hunger,
		"age":       p.Age,
		"price":     p.Price,
		"is_sold":   p.IsSold,
		"species":   string(p.Species),
		"name":      p.Name,
	}

	results := make([]domain.AlertResult, 0, len(rules))
	for _, rule := range rules {
		result := domain.AlertResult{
			RuleID:   rule.Rule.ID,
			RuleName: rule.Rule.Name,
			PetID:    p.ID,
		}

		out, _, err := rule.Program.Eval(activation)
		if err == nil {
			if b, ok := out.(types.Bool); ok {
				result.Triggered = bool(b)
			}
		}
		results = append(results, result)
	}
	return results
}

// Triggered reports whether any loaded rule fires for the pet, with the name
// of the first rule that did.
func (e *Engine) Triggered(p domain.Pet) (bool, string) {
	for _, r := range e.Evaluate(p) {
		if r.Triggered {
			return true, r.RuleName
		}
	}
	return false, ""
}

func (e *Engine) compile(rule *domain.AlertRule) (*CompiledRule, error) {
	ast, issues := e.env.Compile(rule.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile rule %s: %w", rule.ID, issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("rule %s: expression must return bool, got %s", rule.ID, ast.OutputType())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for rule %s: %w", rule.ID, err)
	}

	return &CompiledRule{
		Rule:    rule,
		Program: program,
	}, nil
}
