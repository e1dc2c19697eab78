// Package decision orchestrates the analysis backends: it reads settings,
// decides which adapters to invoke, aggregates their outcomes including
// failures, and applies the deterministic selection policy.
package decision

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"

	"go-defect-analyzer/internal/adapter"
	apperrors "go-defect-analyzer/internal/errors"
	"go-defect-analyzer/internal/observer"
	"go-defect-analyzer/internal/settings"
	"go-defect-analyzer/pkg/models"
)

// Engine is the decision orchestrator. Adapters are registered only when
// their backend is configured; an enabled-but-unregistered backend surfaces
// as a configuration-missing failure in the results, never as an attempted
// call.
type Engine struct {
	store     settings.Store
	adapters  map[models.Source]adapter.Adapter
	publisher observer.Subject
}

// NewEngine creates the orchestrator over the given settings store and the
// configured adapters.
func NewEngine(store settings.Store, adapters []adapter.Adapter, publisher observer.Subject) *Engine {
	registry := make(map[models.Source]adapter.Adapter, len(adapters))
	for _, a := range adapters {
		registry[a.Source()] = a
	}
	return &Engine{
		store:     store,
		adapters:  registry,
		publisher: publisher,
	}
}

// Analyze runs one analysis request end to end. Only a validation failure on
// the input image returns an error; every backend failure is absorbed into
// the outcome, which always carries a final decision (possibly the
// unavailable sentinel).
func (e *Engine) Analyze(ctx context.Context, imageData []byte, photoType string) (*models.DecisionOutcome, error) {
	if _, _, err := image.DecodeConfig(bytes.NewReader(imageData)); err != nil {
		return nil, apperrors.NewValidationError("undecodable image data", err)
	}

	cfg := e.store.Get(ctx)
	requestID := uuid.NewString()
	start := time.Now()

	e.publish(ctx, observer.DecisionEvent{
		EventType: observer.AnalysisStarted,
		Timestamp: start,
		RequestID: requestID,
		Mode:      string(cfg.Mode),
	})

	req := adapter.Request{Image: imageData, PhotoType: photoType, Settings: cfg}
	var results []models.AnalysisResult

	// Local analysis is cheap and runs unconditionally when enabled; its
	// outcome is recorded regardless of what the remotes do.
	var localResult *models.AnalysisResult
	if cfg.LocalEnabled {
		r := e.invoke(ctx, requestID, cfg, models.SourceLocal, req)
		results = append(results, r)
		localResult = &r
	}

	if remote, ok := e.remoteToInvoke(cfg, localResult); ok {
		results = append(results, e.invoke(ctx, requestID, cfg, remote, req))
	}

	if err := ctx.Err(); err != nil {
		// Caller gave up; discard partial results with the whole request.
		return nil, apperrors.NewTimeoutError("analysis request cancelled", err)
	}

	final := Select(cfg.Mode, results)
	eventType := observer.DecisionMade
	if final.Source == nil {
		eventType = observer.DecisionUnavailable
	}
	event := observer.DecisionEvent{
		EventType: eventType,
		Timestamp: time.Now(),
		RequestID: requestID,
		Mode:      string(cfg.Mode),
		Success:   final.Source != nil,
		Duration:  time.Since(start),
	}
	if final.Source != nil {
		event.Source = *final.Source
	}
	e.publish(ctx, event)

	if results == nil {
		results = []models.AnalysisResult{}
	}
	return &models.DecisionOutcome{
		RequestID: requestID,
		Mode:      string(cfg.Mode),
		Provider:  string(cfg.ActiveProvider),
		Responses: results,
		Final:     final,
		Timestamp: start.UTC(),
	}, nil
}

// remoteToInvoke determines whether a remote backend should be called for
// this request, and which one. In single-provider modes the designated
// provider is invoked iff enabled; in hybrid mode the active provider is
// invoked iff the local adapter produced no usable result or its confidence
// sits below the fallback threshold.
func (e *Engine) remoteToInvoke(cfg settings.Settings, localResult *models.AnalysisResult) (models.Source, bool) {
	switch cfg.Mode {
	case settings.ModeSingleCloudVision:
		return models.SourceCloudVision, cfg.CloudVisionEnabled
	case settings.ModeSingleInference:
		return models.SourceInference, cfg.InferenceEnabled
	case settings.ModeHybrid:
		primary := cfg.ActiveProvider
		enabled := (primary == models.SourceCloudVision && cfg.CloudVisionEnabled) ||
			(primary == models.SourceInference && cfg.InferenceEnabled)
		if !enabled {
			return primary, false
		}
		noLocal := localResult == nil || !localResult.Success || len(localResult.Candidates) == 0
		return primary, noLocal || localResult.TopConfidence() < cfg.FallbackThreshold
	default:
		return "", false
	}
}

// invoke runs one adapter, translating an unregistered (unconfigured)
// backend into a failed result instead of attempting a call.
func (e *Engine) invoke(ctx context.Context, requestID string, cfg settings.Settings, source models.Source, req adapter.Request) models.AnalysisResult {
	a, ok := e.adapters[source]
	var result models.AnalysisResult
	if !ok {
		result = models.AnalysisResult{
			Source: source,
			Error:  fmt.Sprintf("%s backend is enabled but not configured", source),
		}
	} else {
		result = a.Analyze(ctx, req)
	}

	eventType := observer.AdapterSucceeded
	if !result.Success {
		eventType = observer.AdapterFailed
	}
	e.publish(ctx, observer.DecisionEvent{
		EventType:    eventType,
		Timestamp:    time.Now(),
		RequestID:    requestID,
		Mode:         string(cfg.Mode),
		Source:       source,
		Success:      result.Success,
		ErrorMessage: result.Error,
		Duration:     time.Duration(result.ElapsedSec * float64(time.Second)),
	})
	return result
}

func (e *Engine) publish(ctx context.Context, event observer.DecisionEvent) {
	if e.publisher != nil {
		e.publisher.NotifyObservers(ctx, event)
	}
}
