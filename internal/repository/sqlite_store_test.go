package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *SQLiteSettingsStore {
	t.Helper()
	store, err := NewSQLiteSettingsStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLoadEmptyStore(t *testing.T) {
	store := newTestDB(t)

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ErrSettingsNotFound)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store := newTestDB(t)
	rules := `[{"id":"dark-patch","label":"Dark patch","severity":"moderate","clauses":[{"metric":"min.luminance","operator":"<","value":20}]}]`
	saved := &SettingsRecord{
		Mode:                "hybrid",
		Provider:            "generic-inference",
		LocalEnabled:        true,
		CloudVisionEnabled:  false,
		InferenceEnabled:    true,
		InferenceModelID:    "defect-classifier-v2",
		FallbackThreshold:   0.75,
		LocalBaseConfidence: 0.6,
		MaxDetections:       3,
		Rules:               &rules,
		UpdatedAt:           time.Date(2026, 3, 1, 12, 0, 0, 123456000, time.UTC),
	}

	require.NoError(t, store.Save(context.Background(), saved))

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, saved.Mode, loaded.Mode)
	assert.Equal(t, saved.Provider, loaded.Provider)
	assert.Equal(t, saved.LocalEnabled, loaded.LocalEnabled)
	assert.Equal(t, saved.InferenceEnabled, loaded.InferenceEnabled)
	assert.Equal(t, saved.InferenceModelID, loaded.InferenceModelID)
	assert.Equal(t, saved.FallbackThreshold, loaded.FallbackThreshold)
	assert.Equal(t, saved.LocalBaseConfidence, loaded.LocalBaseConfidence)
	assert.Equal(t, saved.MaxDetections, loaded.MaxDetections)
	require.NotNil(t, loaded.Rules)
	assert.JSONEq(t, rules, *loaded.Rules)
	assert.True(t, saved.UpdatedAt.Equal(loaded.UpdatedAt))
}

func TestSaveReplacesSingleRecord(t *testing.T) {
	store := newTestDB(t)

	first := &SettingsRecord{
		Mode: "single-local", Provider: "cloud-vision",
		LocalEnabled: true, FallbackThreshold: 0.8,
		LocalBaseConfidence: 0.65, MaxDetections: 5,
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Save(context.Background(), first))

	second := &SettingsRecord{
		Mode: "single-cloud-vision", Provider: "cloud-vision",
		CloudVisionEnabled: true, FallbackThreshold: 0.9,
		LocalBaseConfidence: 0.5, MaxDetections: 2,
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Save(context.Background(), second))

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "single-cloud-vision", loaded.Mode)
	assert.Equal(t, 2, loaded.MaxDetections)

	// Still exactly one row: the next save keeps overwriting it.
	var count int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM analysis_settings").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestNullRulesColumn(t *testing.T) {
	store := newTestDB(t)

	rec := &SettingsRecord{
		Mode: "single-local", Provider: "cloud-vision",
		LocalEnabled: true, FallbackThreshold: 0.8,
		LocalBaseConfidence: 0.65, MaxDetections: 5,
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Save(context.Background(), rec))

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, loaded.Rules, "absent rule set is stored as NULL, not an empty string")
}
