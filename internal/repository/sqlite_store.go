package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteSettingsStore persists the settings record in a single-row SQLite
// table. The fixed id=1 constraint enforces the one-authoritative-record
// invariant at the schema level.
type SQLiteSettingsStore struct {
	db *sql.DB
}

// NewSQLiteSettingsStore opens (creating if necessary) the settings database
// at path. Use ":memory:" for tests.
func NewSQLiteSettingsStore(path string) (*SQLiteSettingsStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open settings db: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS analysis_settings (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			mode TEXT NOT NULL,
			provider TEXT NOT NULL,
			local_enabled INTEGER NOT NULL,
			cloud_vision_enabled INTEGER NOT NULL,
			generic_inference_enabled INTEGER NOT NULL,
			generic_inference_model_id TEXT NOT NULL DEFAULT '',
			fallback_threshold REAL NOT NULL,
			local_base_confidence REAL NOT NULL,
			max_detections INTEGER NOT NULL,
			rules TEXT,
			updated_at TIMESTAMP NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create settings schema: %w", err)
	}

	return &SQLiteSettingsStore{db: db}, nil
}

// Load retrieves the single settings record.
func (s *SQLiteSettingsStore) Load(ctx context.Context) (*SettingsRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT mode, provider, local_enabled, cloud_vision_enabled,
			generic_inference_enabled, generic_inference_model_id,
			fallback_threshold, local_base_confidence, max_detections,
			rules, updated_at
		FROM analysis_settings WHERE id = 1`)

	var rec SettingsRecord
	var rules sql.NullString
	var updatedAt string
	err := row.Scan(&rec.Mode, &rec.Provider, &rec.LocalEnabled,
		&rec.CloudVisionEnabled, &rec.InferenceEnabled, &rec.InferenceModelID,
		&rec.FallbackThreshold, &rec.LocalBaseConfidence, &rec.MaxDetections,
		&rules, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrSettingsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load settings record: %w", err)
	}

	if rules.Valid {
		rec.Rules = &rules.String
	}
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		rec.UpdatedAt = t
	}
	return &rec, nil
}

// Save replaces the settings record atomically via upsert on the fixed id.
func (s *SQLiteSettingsStore) Save(ctx context.Context, record *SettingsRecord) error {
	var rules interface{}
	if record.Rules != nil {
		rules = *record.Rules
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analysis_settings (
			id, mode, provider, local_enabled, cloud_vision_enabled,
			generic_inference_enabled, generic_inference_model_id,
			fallback_threshold, local_base_confidence, max_detections,
			rules, updated_at
		) VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			mode = excluded.mode,
			provider = excluded.provider,
			local_enabled = excluded.local_enabled,
			cloud_vision_enabled = excluded.cloud_vision_enabled,
			generic_inference_enabled = excluded.generic_inference_enabled,
			generic_inference_model_id = excluded.generic_inference_model_id,
			fallback_threshold = excluded.fallback_threshold,
			local_base_confidence = excluded.local_base_confidence,
			max_detections = excluded.max_detections,
			rules = excluded.rules,
			updated_at = excluded.updated_at`,
		record.Mode, record.Provider, record.LocalEnabled,
		record.CloudVisionEnabled, record.InferenceEnabled, record.InferenceModelID,
		record.FallbackThreshold, record.LocalBaseConfidence, record.MaxDetections,
		rules, record.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save settings record: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteSettingsStore) Close() error {
	return s.db.Close()
}
