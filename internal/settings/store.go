package settings

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "go-defect-analyzer/internal/errors"
	"go-defect-analyzer/internal/logger"
	"go-defect-analyzer/internal/repository"
)

// Store provides cached access to the single active settings record.
type Store interface {
	// Get returns the current settings. It never fails visibly: an empty
	// store is seeded with defaults, and a transient storage failure falls
	// back to the last cached value.
	Get(ctx context.Context) Settings

	// Upsert merges the patch over the current settings, persists the full
	// merged record and updates the cache write-through, so the writer's own
	// next read observes the new value immediately.
	Upsert(ctx context.Context, patch Patch) (Settings, error)
}

// CachedStore is the process-wide settings cache over a record store. Reads
// within the TTL are served from memory; concurrent requests may observe
// settings versions at most one TTL apart, which is accepted.
type CachedStore struct {
	records repository.SettingsRecordStore
	ttl     time.Duration

	mu        sync.RWMutex
	cached    *Settings
	fetchedAt time.Time

	now func() time.Time // injectable for tests
}

// NewCachedStore creates a settings store caching reads for ttl.
func NewCachedStore(records repository.SettingsRecordStore, ttl time.Duration) *CachedStore {
	return &CachedStore{
		records: records,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the current settings, reloading from storage when the cache is
// stale.
func (s *CachedStore) Get(ctx context.Context) Settings {
	s.mu.RLock()
	if s.cached != nil && s.now().Sub(s.fetchedAt) < s.ttl {
		cached := *s.cached
		s.mu.RUnlock()
		return cached
	}
	s.mu.RUnlock()

	rec, err := s.records.Load(ctx)
	if errors.Is(err, repository.ErrSettingsNotFound) {
		seeded, upsertErr := s.Upsert(ctx, Patch{})
		if upsertErr != nil {
			logger.WithError(upsertErr).Warn("Failed to seed default settings, serving defaults unpersisted")
			return Defaults()
		}
		return seeded
	}
	if err != nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		if s.cached != nil {
			logger.WithError(err).Warn("Settings reload failed, serving stale cache")
			return *s.cached
		}
		logger.WithError(err).Warn("Settings load failed with empty cache, serving defaults")
		return Defaults()
	}

	current := fromRecord(rec)
	s.mu.Lock()
	s.cached = &current
	s.fetchedAt = s.now()
	s.mu.Unlock()
	return current
}

// Upsert merges, validates, persists and caches the full settings record.
func (s *CachedStore) Upsert(ctx context.Context, patch Patch) (Settings, error) {
	current := Defaults()
	if rec, err := s.records.Load(ctx); err == nil {
		current = fromRecord(rec)
	} else if !errors.Is(err, repository.ErrSettingsNotFound) {
		return Settings{}, apperrors.NewInternalError("failed to load settings for update", err)
	}

	next := merge(current, patch)
	next.UpdatedAt = s.now().UTC()
	if err := next.Validate(); err != nil {
		return Settings{}, apperrors.NewValidationError("invalid settings", err)
	}

	rec, err := toRecord(next)
	if err != nil {
		return Settings{}, apperrors.NewInternalError("failed to serialize settings", err)
	}
	if err := s.records.Save(ctx, rec); err != nil {
		return Settings{}, apperrors.NewInternalError("failed to persist settings", err)
	}

	s.mu.Lock()
	s.cached = &next
	s.fetchedAt = s.now()
	s.mu.Unlock()
	return next, nil
}

// Invalidate drops the cached value so the next read hits storage.
func (s *CachedStore) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}
