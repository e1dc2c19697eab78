package factory

import (
	"fmt"

	"go-defect-analyzer/internal/config"
	"go-defect-analyzer/internal/storage"
)

// FetcherFactory creates image fetcher implementations
type FetcherFactory interface {
	CreateFetcher(cfg *config.Config) (storage.ImageFetcher, error)
}

// fetcherFactory implements FetcherFactory
type fetcherFactory struct{}

// NewFetcherFactory creates a new fetcher factory
func NewFetcherFactory() FetcherFactory {
	return &fetcherFactory{}
}

// CreateFetcher creates the image fetcher matching the configured source.
func (f *fetcherFactory) CreateFetcher(cfg *config.Config) (storage.ImageFetcher, error) {
	switch cfg.ImageSource {
	case config.ImageSourceHTTP:
		return storage.NewHTTPImageFetcher(cfg.ImageFetchTimeout, cfg.MaxRequestBodySize), nil
	case config.ImageSourceAzure:
		return storage.NewAzureImageFetcher(cfg.AzureStorageAccount, cfg.AzureStorageKey, cfg.MaxRequestBodySize)
	default:
		return nil, fmt.Errorf("unsupported image source: %s", cfg.ImageSource)
	}
}
