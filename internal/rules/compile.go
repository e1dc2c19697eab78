package rules

import "go-defect-analyzer/pkg/models"

// compileSpec turns a declarative spec into a Rule with an executable
// predicate. Compilation happens once per Install, so repeated evaluations
// of the same rule set never re-parse clauses.
func compileSpec(spec Spec) Rule {
	clauses := make([]func(models.ImageStatistics) bool, len(spec.Clauses))
	for i, clause := range spec.Clauses {
		clauses[i] = compileClause(clause)
	}

	return Rule{
		ID:             spec.ID,
		Label:          spec.Label,
		Severity:       spec.Severity,
		Description:    spec.Description,
		Recommendation: spec.Recommendation,
		predicate: func(stats models.ImageStatistics) bool {
			for _, holds := range clauses {
				if !holds(stats) {
					return false
				}
			}
			return true
		},
	}
}

// compileClause builds the closure for a single clause. A clause referencing
// an unknown metric path evaluates to a non-match: the closed-world default.
func compileClause(clause Clause) func(models.ImageStatistics) bool {
	switch clause.Operator {
	case OpGreater:
		return func(stats models.ImageStatistics) bool {
			v, ok := stats.Metric(clause.Metric)
			return ok && v > clause.Value
		}
	case OpGreaterEq:
		return func(stats models.ImageStatistics) bool {
			v, ok := stats.Metric(clause.Metric)
			return ok && v >= clause.Value
		}
	case OpLess:
		return func(stats models.ImageStatistics) bool {
			v, ok := stats.Metric(clause.Metric)
			return ok && v < clause.Value
		}
	case OpLessEq:
		return func(stats models.ImageStatistics) bool {
			v, ok := stats.Metric(clause.Metric)
			return ok && v <= clause.Value
		}
	case OpBetween:
		return func(stats models.ImageStatistics) bool {
			v, ok := stats.Metric(clause.Metric)
			return ok && v >= clause.Min && v <= clause.Max
		}
	case OpDiffGreater:
		return func(stats models.ImageStatistics) bool {
			v, ok := stats.Metric(clause.Metric)
			if !ok {
				return false
			}
			other, ok := stats.Metric(clause.OtherMetric)
			return ok && v-other > clause.Value
		}
	default:
		// Unknown operators are caught by ValidateSpecs; fail closed anyway.
		return func(models.ImageStatistics) bool { return false }
	}
}
