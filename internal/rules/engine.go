package rules

import (
	"sync"

	"go-defect-analyzer/pkg/models"
)

// Engine holds the active rule list and evaluates it against statistics
// samples. Evaluation is pure: the same rule set and the same sample always
// produce the same matches in the same order.
type Engine struct {
	mu    sync.RWMutex
	rules []Rule
}

// NewEngine creates an engine with the built-in default rules installed.
func NewEngine() *Engine {
	e := &Engine{}
	_ = e.Install(nil) // built-ins always compile
	return e
}

// Install replaces the active rule list. Passing nil or an empty slice
// restores the built-in defaults. Specs are compiled once here, not per
// evaluation.
func (e *Engine) Install(specs []Spec) error {
	var compiled []Rule
	if len(specs) == 0 {
		compiled = BuiltinRules()
	} else {
		if err := ValidateSpecs(specs); err != nil {
			return err
		}
		compiled = make([]Rule, len(specs))
		for i, spec := range specs {
			compiled[i] = compileSpec(spec)
		}
	}

	e.mu.Lock()
	e.rules = compiled
	e.mu.Unlock()
	return nil
}

// Evaluate returns every rule whose condition holds for the sample, in
// install order. Multiple simultaneous matches are legal and expected.
func (e *Engine) Evaluate(stats models.ImageStatistics) []Rule {
	e.mu.RLock()
	active := e.rules
	e.mu.RUnlock()

	var matched []Rule
	for _, rule := range active {
		if rule.Matches(stats) {
			matched = append(matched, rule)
		}
	}
	return matched
}

// Len reports the number of installed rules.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.rules)
}
