package repository

import (
	"context"
	"time"
)

// SettingsRecord is the persisted shape of the analyzer configuration.
// Exactly one record is authoritative at any time; writers replace the whole
// record atomically.
type SettingsRecord struct {
	Mode                string
	Provider            string
	LocalEnabled        bool
	CloudVisionEnabled  bool
	InferenceEnabled    bool
	InferenceModelID    string
	FallbackThreshold   float64
	LocalBaseConfidence float64
	MaxDetections       int
	Rules               *string // serialized rule list, nil means built-in defaults
	UpdatedAt           time.Time
}

// SettingsRecordStore defines the persistence contract for the single
// authoritative settings record.
type SettingsRecordStore interface {
	// Load retrieves the current settings record. Returns
	// ErrSettingsNotFound when no record has ever been saved.
	Load(ctx context.Context) (*SettingsRecord, error)

	// Save replaces the settings record with the given one.
	Save(ctx context.Context, record *SettingsRecord) error

	// Close releases the underlying storage handle.
	Close() error
}
