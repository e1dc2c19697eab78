package container

import (
	"fmt"
	"net/http"

	"go-defect-analyzer/internal/adapter"
	"go-defect-analyzer/internal/config"
	"go-defect-analyzer/internal/decision"
	"go-defect-analyzer/internal/factory"
	"go-defect-analyzer/internal/imagestats"
	"go-defect-analyzer/internal/logger"
	"go-defect-analyzer/internal/observer"
	"go-defect-analyzer/internal/repository"
	"go-defect-analyzer/internal/settings"
	"go-defect-analyzer/internal/transport"
)

// Container holds all application dependencies
type Container struct {
	config        *config.Config
	recordStore   *repository.SQLiteSettingsStore
	settingsStore settings.Store
	engine        *decision.Engine
	metrics       *observer.MetricsObserver
	handler       http.Handler
}

// NewContainer builds the dependency graph: record store -> settings store,
// statistics extractor -> adapters -> decision engine -> HTTP handler.
// Remote adapters are registered only when their credentials are configured;
// otherwise the backend is reported unavailable instead of attempted.
func NewContainer(cfg *config.Config) (*Container, error) {
	recordStore, err := repository.NewSQLiteSettingsStore(cfg.SettingsDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings store: %w", err)
	}
	settingsStore := settings.NewCachedStore(recordStore, cfg.SettingsCacheTTL)

	fetcher, err := factory.NewFetcherFactory().CreateFetcher(cfg)
	if err != nil {
		recordStore.Close()
		return nil, err
	}

	extractor := imagestats.NewExtractor()
	adapters := []adapter.Adapter{
		adapter.NewRuleBasedAdapter(extractor),
	}
	if cfg.CloudVisionConfigured() {
		adapters = append(adapters, adapter.NewCloudVisionAdapter(
			cfg.CloudVisionEndpoint, cfg.CloudVisionAPIKey, cfg.CloudVisionModel, cfg.AdapterTimeout))
	} else {
		logger.Warn("Cloud vision backend not configured, treating as disabled")
	}
	if cfg.InferenceConfigured() {
		adapters = append(adapters, adapter.NewInferenceAdapter(
			cfg.InferenceEndpoint, cfg.InferenceAPIKey, cfg.AdapterTimeout))
	} else {
		logger.Warn("Generic inference backend not configured, treating as disabled")
	}

	metrics := observer.NewMetricsObserver()
	publisher := observer.NewEventPublisher()
	publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))
	publisher.Subscribe(metrics)

	engine := decision.NewEngine(settingsStore, adapters, publisher)
	handler := transport.NewHandler(engine, settingsStore, fetcher, metrics, cfg)

	return &Container{
		config:        cfg,
		recordStore:   recordStore,
		settingsStore: settingsStore,
		engine:        engine,
		metrics:       metrics,
		handler:       handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Close releases held resources.
func (c *Container) Close() error {
	return c.recordStore.Close()
}
