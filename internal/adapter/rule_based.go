package adapter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go-defect-analyzer/internal/imagestats"
	"go-defect-analyzer/internal/logger"
	"go-defect-analyzer/internal/rules"
	"go-defect-analyzer/pkg/models"
)

// RuleBasedAdapter is the fully offline backend: it extracts image
// statistics and evaluates the installed rule set against them. "No rule
// matched" is a successful empty result, distinct from "could not analyze".
type RuleBasedAdapter struct {
	extractor imagestats.Extractor
	engine    *rules.Engine

	mu          sync.Mutex
	installedAt time.Time
}

// NewRuleBasedAdapter creates the local adapter with the built-in rules
// installed until settings supply a custom set.
func NewRuleBasedAdapter(extractor imagestats.Extractor) *RuleBasedAdapter {
	return &RuleBasedAdapter{
		extractor: extractor,
		engine:    rules.NewEngine(),
	}
}

// Source identifies the local backend.
func (a *RuleBasedAdapter) Source() models.Source {
	return models.SourceLocal
}

// Analyze extracts statistics and converts matched rules into candidates at
// the configured base confidence.
func (a *RuleBasedAdapter) Analyze(ctx context.Context, req Request) models.AnalysisResult {
	start := time.Now()
	result := models.AnalysisResult{Source: models.SourceLocal}

	if err := ctx.Err(); err != nil {
		result.Error = fmt.Sprintf("request cancelled: %v", err)
		result.ElapsedSec = time.Since(start).Seconds()
		return result
	}

	a.ensureRuleSet(req.Settings.RuleSet, req.Settings.UpdatedAt)

	stats, err := a.extractor.Extract(req.Image)
	if err != nil {
		result.Error = fmt.Sprintf("statistics extraction failed: %v", err)
		result.ElapsedSec = time.Since(start).Seconds()
		return result
	}

	matched := a.engine.Evaluate(stats)
	confidence := clamp(req.Settings.LocalBaseConfidence)

	candidates := make([]models.DetectionCandidate, 0, len(matched))
	for _, rule := range matched {
		candidates = append(candidates, models.DetectionCandidate{
			Source:         models.SourceLocal,
			Label:          rule.ID,
			Confidence:     confidence,
			Severity:       rule.Severity,
			Description:    rule.Description,
			Recommendation: rule.Recommendation,
		})
	}

	result.Success = true
	result.Candidates = truncate(candidates, req.Settings.MaxDetections)
	if len(result.Candidates) == 0 {
		result.Summary = fmt.Sprintf(
			"no rule matched (evaluated %d rules; mean luminance %.1f, stddev %.1f)",
			a.engine.Len(), stats.Mean.Luminance, stats.StdDev.Luminance)
	} else {
		result.Summary = fmt.Sprintf("%d of %d rules matched", len(matched), a.engine.Len())
	}
	result.ElapsedSec = time.Since(start).Seconds()
	return result
}

// ensureRuleSet reinstalls the rule set when the settings record has moved
// since the last install, so compilation happens once per settings change,
// not per request.
func (a *RuleBasedAdapter) ensureRuleSet(specs []rules.Spec, version time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if version.Equal(a.installedAt) {
		return
	}
	if err := a.engine.Install(specs); err != nil {
		// Settings validation should have caught this; keep the previous
		// rule set rather than failing every local analysis.
		logger.WithSource(string(models.SourceLocal)).WithError(err).Warn("Rule set install failed, keeping previous rules")
		return
	}
	a.installedAt = version
}
