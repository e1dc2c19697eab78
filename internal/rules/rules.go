package rules

import (
	"fmt"

	"go-defect-analyzer/pkg/models"
)

// Operator is the comparison applied by one declarative clause.
type Operator string

const (
	OpGreater     Operator = ">"
	OpGreaterEq   Operator = ">="
	OpLess        Operator = "<"
	OpLessEq      Operator = "<="
	OpBetween     Operator = "between"
	OpDiffGreater Operator = "difference-greater-than"
)

// Clause compares one statistic path against literal operands. Which operand
// fields are meaningful depends on the operator: Value for the ordering
// operators and difference-greater-than, Min/Max for between, OtherMetric
// for difference-greater-than.
type Clause struct {
	Metric      string   `json:"metric"`
	Operator    Operator `json:"operator"`
	Value       float64  `json:"value,omitempty"`
	Min         float64  `json:"min,omitempty"`
	Max         float64  `json:"max,omitempty"`
	OtherMetric string   `json:"other_metric,omitempty"`
}

// Spec is the serializable form of a rule: a named defect heuristic whose
// condition is the conjunction of its clauses.
type Spec struct {
	ID             string          `json:"id"`
	Label          string          `json:"label"`
	Severity       models.Severity `json:"severity"`
	Description    string          `json:"description,omitempty"`
	Recommendation string          `json:"recommendation,omitempty"`
	Clauses        []Clause        `json:"clauses"`
}

// Rule is an installed, executable rule. Built-in rules carry a native
// predicate; user-supplied rules carry one compiled from their clauses.
type Rule struct {
	ID             string
	Label          string
	Severity       models.Severity
	Description    string
	Recommendation string

	predicate func(models.ImageStatistics) bool
}

// Matches evaluates the rule's condition against a statistics sample.
func (r Rule) Matches(stats models.ImageStatistics) bool {
	return r.predicate(stats)
}

// ValidateSpecs rejects specs the compiler cannot turn into predicates.
// Unknown metric paths are deliberately NOT rejected here: a clause with an
// unknown path compiles fine and simply never matches.
func ValidateSpecs(specs []Spec) error {
	seen := make(map[string]struct{}, len(specs))
	for i, spec := range specs {
		if spec.ID == "" {
			return fmt.Errorf("rule %d: missing id", i)
		}
		if _, dup := seen[spec.ID]; dup {
			return fmt.Errorf("rule %q: duplicate id", spec.ID)
		}
		seen[spec.ID] = struct{}{}
		if spec.Label == "" {
			return fmt.Errorf("rule %q: missing label", spec.ID)
		}
		switch spec.Severity {
		case models.SeverityMinor, models.SeverityModerate, models.SeveritySevere:
		default:
			return fmt.Errorf("rule %q: unknown severity %q", spec.ID, spec.Severity)
		}
		if len(spec.Clauses) == 0 {
			return fmt.Errorf("rule %q: no clauses", spec.ID)
		}
		for j, clause := range spec.Clauses {
			if clause.Metric == "" {
				return fmt.Errorf("rule %q clause %d: missing metric", spec.ID, j)
			}
			switch clause.Operator {
			case OpGreater, OpGreaterEq, OpLess, OpLessEq:
			case OpBetween:
				if clause.Min > clause.Max {
					return fmt.Errorf("rule %q clause %d: between requires min <= max", spec.ID, j)
				}
			case OpDiffGreater:
				if clause.OtherMetric == "" {
					return fmt.Errorf("rule %q clause %d: difference-greater-than requires other_metric", spec.ID, j)
				}
			default:
				return fmt.Errorf("rule %q clause %d: unknown operator %q", spec.ID, j, clause.Operator)
			}
		}
	}
	return nil
}
