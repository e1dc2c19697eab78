// Package adapter defines the uniform capability every analysis backend
// exposes to the decision engine. Adapters never return Go errors: any
// internal failure (auth, network, rate limit, malformed response) is
// captured in the AnalysisResult so orchestration can continue with the
// remaining backends.
package adapter

import (
	"context"

	"go-defect-analyzer/internal/settings"
	"go-defect-analyzer/pkg/models"
)

// Request carries everything an adapter needs for one invocation: the image
// bytes, the caller-declared photo type and a snapshot of the settings the
// orchestrator loaded for this request.
type Request struct {
	Image     []byte
	PhotoType string
	Settings  settings.Settings
}

// Adapter is the uniform contract over heterogeneous analysis backends.
type Adapter interface {
	// Source identifies the backend in results and logs.
	Source() models.Source

	// Analyze runs the backend against the image. The result's Success flag
	// distinguishes "analyzed, possibly found nothing" from "could not
	// analyze".
	Analyze(ctx context.Context, req Request) models.AnalysisResult
}

// clamp bounds a confidence value into [0,1].
func clamp(confidence float64) float64 {
	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}

// truncate caps a candidate list at the configured maximum.
func truncate(candidates []models.DetectionCandidate, max int) []models.DetectionCandidate {
	if max > 0 && len(candidates) > max {
		return candidates[:max]
	}
	return candidates
}
