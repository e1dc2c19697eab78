package decision

import (
	"go-defect-analyzer/internal/settings"
	"go-defect-analyzer/pkg/models"
)

// ReasonNoResult is the reason attached to the unavailable sentinel when no
// backend produced a usable result.
const ReasonNoResult = "no analysis result available"

// selectionPriority is the explicit per-mode policy table: provider
// identifiers in the order they are considered during selection. Changing
// arbitration priority means editing this table, not control flow.
var selectionPriority = map[settings.Mode][]models.Source{
	settings.ModeSingleLocal:       {models.SourceLocal},
	settings.ModeSingleCloudVision: {models.SourceCloudVision},
	settings.ModeSingleInference:   {models.SourceInference},
	settings.ModeHybrid:            {models.SourceInference, models.SourceCloudVision, models.SourceLocal},
}

// Select deterministically picks the final decision from the collected
// adapter results. It is a pure function over the results bag plus the mode;
// results order does not matter. Single-provider modes never fall back to a
// different backend, even when one produced a usable result.
func Select(mode settings.Mode, results []models.AnalysisResult) models.FinalDecision {
	bySource := make(map[models.Source]models.AnalysisResult, len(results))
	for _, r := range results {
		bySource[r.Source] = r
	}

	for _, source := range selectionPriority[mode] {
		result, ok := bySource[source]
		if !ok || !qualifies(source, result) {
			continue
		}
		src := source
		candidates := result.Candidates
		if candidates == nil {
			candidates = []models.DetectionCandidate{}
		}
		return models.FinalDecision{Source: &src, Candidates: candidates}
	}

	return models.Unavailable(ReasonNoResult)
}

// qualifies decides whether a result can become final. The local backend's
// successful empty result qualifies ("no defect found" is a valid answer);
// remote backends must return at least one candidate.
func qualifies(source models.Source, result models.AnalysisResult) bool {
	if !result.Success {
		return false
	}
	if source == models.SourceLocal {
		return true
	}
	return len(result.Candidates) > 0
}
