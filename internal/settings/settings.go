package settings

import (
	"encoding/json"
	"fmt"
	"time"

	"go-defect-analyzer/internal/repository"
	"go-defect-analyzer/internal/rules"
	"go-defect-analyzer/pkg/models"
)

// Mode selects which backend is authoritative, or whether several are
// arbitrated.
type Mode string

const (
	ModeSingleLocal       Mode = "single-local"
	ModeSingleCloudVision Mode = "single-cloud-vision"
	ModeSingleInference   Mode = "single-generic-inference"
	ModeHybrid            Mode = "hybrid"
)

// Settings is the single active analyzer configuration.
type Settings struct {
	Mode                Mode          `json:"mode"`
	ActiveProvider      models.Source `json:"provider"`
	LocalEnabled        bool          `json:"local_enabled"`
	CloudVisionEnabled  bool          `json:"cloud_vision_enabled"`
	InferenceEnabled    bool          `json:"generic_inference_enabled"`
	InferenceModelID    string        `json:"generic_inference_model_id"`
	FallbackThreshold   float64       `json:"fallback_threshold"`
	LocalBaseConfidence float64       `json:"local_base_confidence"`
	MaxDetections       int           `json:"max_detections"`
	RuleSet             []rules.Spec  `json:"rules"` // nil means built-in defaults
	UpdatedAt           time.Time     `json:"updated_at"`
}

// Patch carries a partial settings update. Nil fields are left unchanged.
// RuleSet distinguishes "absent" (nil pointer, unchanged) from "explicit
// null/empty" (restore built-in rules).
type Patch struct {
	Mode                *Mode          `json:"mode,omitempty"`
	ActiveProvider      *models.Source `json:"provider,omitempty"`
	LocalEnabled        *bool          `json:"local_enabled,omitempty"`
	CloudVisionEnabled  *bool          `json:"cloud_vision_enabled,omitempty"`
	InferenceEnabled    *bool          `json:"generic_inference_enabled,omitempty"`
	InferenceModelID    *string        `json:"generic_inference_model_id,omitempty"`
	FallbackThreshold   *float64       `json:"fallback_threshold,omitempty"`
	LocalBaseConfidence *float64       `json:"local_base_confidence,omitempty"`
	MaxDetections       *int           `json:"max_detections,omitempty"`
	RuleSet             *[]rules.Spec  `json:"rules,omitempty"`
}

// Defaults returns the built-in configuration used when no record has ever
// been saved.
func Defaults() Settings {
	return Settings{
		Mode:                ModeSingleLocal,
		ActiveProvider:      models.SourceCloudVision,
		LocalEnabled:        true,
		CloudVisionEnabled:  false,
		InferenceEnabled:    false,
		InferenceModelID:    "",
		FallbackThreshold:   0.8,
		LocalBaseConfidence: 0.65,
		MaxDetections:       5,
		RuleSet:             nil,
	}
}

// merge applies a patch over the current settings and returns the full
// merged value.
func merge(current Settings, patch Patch) Settings {
	next := current
	if patch.Mode != nil {
		next.Mode = *patch.Mode
	}
	if patch.ActiveProvider != nil {
		next.ActiveProvider = *patch.ActiveProvider
	}
	if patch.LocalEnabled != nil {
		next.LocalEnabled = *patch.LocalEnabled
	}
	if patch.CloudVisionEnabled != nil {
		next.CloudVisionEnabled = *patch.CloudVisionEnabled
	}
	if patch.InferenceEnabled != nil {
		next.InferenceEnabled = *patch.InferenceEnabled
	}
	if patch.InferenceModelID != nil {
		next.InferenceModelID = *patch.InferenceModelID
	}
	if patch.FallbackThreshold != nil {
		next.FallbackThreshold = *patch.FallbackThreshold
	}
	if patch.LocalBaseConfidence != nil {
		next.LocalBaseConfidence = *patch.LocalBaseConfidence
	}
	if patch.MaxDetections != nil {
		next.MaxDetections = *patch.MaxDetections
	}
	if patch.RuleSet != nil {
		if len(*patch.RuleSet) == 0 {
			next.RuleSet = nil // back to built-in rules
		} else {
			next.RuleSet = *patch.RuleSet
		}
	}
	return next
}

// Validate rejects settings values the decision engine cannot run with.
func (s Settings) Validate() error {
	switch s.Mode {
	case ModeSingleLocal, ModeSingleCloudVision, ModeSingleInference, ModeHybrid:
	default:
		return fmt.Errorf("unknown mode %q", s.Mode)
	}
	switch s.ActiveProvider {
	case models.SourceCloudVision, models.SourceInference:
	default:
		return fmt.Errorf("unknown provider %q", s.ActiveProvider)
	}
	if s.FallbackThreshold < 0 || s.FallbackThreshold > 1 {
		return fmt.Errorf("fallback_threshold must be in [0,1], got %g", s.FallbackThreshold)
	}
	if s.LocalBaseConfidence < 0 || s.LocalBaseConfidence > 1 {
		return fmt.Errorf("local_base_confidence must be in [0,1], got %g", s.LocalBaseConfidence)
	}
	if s.MaxDetections <= 0 {
		return fmt.Errorf("max_detections must be > 0, got %d", s.MaxDetections)
	}
	if s.RuleSet != nil {
		if err := rules.ValidateSpecs(s.RuleSet); err != nil {
			return fmt.Errorf("invalid rule set: %w", err)
		}
	}
	return nil
}

// toRecord serializes settings into the persisted record shape.
func toRecord(s Settings) (*repository.SettingsRecord, error) {
	rec := &repository.SettingsRecord{
		Mode:                string(s.Mode),
		Provider:            string(s.ActiveProvider),
		LocalEnabled:        s.LocalEnabled,
		CloudVisionEnabled:  s.CloudVisionEnabled,
		InferenceEnabled:    s.InferenceEnabled,
		InferenceModelID:    s.InferenceModelID,
		FallbackThreshold:   s.FallbackThreshold,
		LocalBaseConfidence: s.LocalBaseConfidence,
		MaxDetections:       s.MaxDetections,
		UpdatedAt:           s.UpdatedAt,
	}
	if s.RuleSet != nil {
		raw, err := json.Marshal(s.RuleSet)
		if err != nil {
			return nil, fmt.Errorf("serialize rule set: %w", err)
		}
		serialized := string(raw)
		rec.Rules = &serialized
	}
	return rec, nil
}

// fromRecord deserializes the persisted record back into settings. A rules
// column that fails to parse is treated as absent rather than poisoning
// every subsequent request.
func fromRecord(rec *repository.SettingsRecord) Settings {
	s := Settings{
		Mode:                Mode(rec.Mode),
		ActiveProvider:      models.Source(rec.Provider),
		LocalEnabled:        rec.LocalEnabled,
		CloudVisionEnabled:  rec.CloudVisionEnabled,
		InferenceEnabled:    rec.InferenceEnabled,
		InferenceModelID:    rec.InferenceModelID,
		FallbackThreshold:   rec.FallbackThreshold,
		LocalBaseConfidence: rec.LocalBaseConfidence,
		MaxDetections:       rec.MaxDetections,
		UpdatedAt:           rec.UpdatedAt,
	}
	if rec.Rules != nil {
		var specs []rules.Spec
		if err := json.Unmarshal([]byte(*rec.Rules), &specs); err == nil && len(specs) > 0 {
			s.RuleSet = specs
		}
	}
	return s
}
