package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// ImageSource selects how analysis requests referencing a URL are fetched.
type ImageSource string

const (
	ImageSourceHTTP  ImageSource = "http"
	ImageSourceAzure ImageSource = "azure"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	AdapterTimeout     time.Duration
	MaxRequestBodySize int64

	// Settings persistence
	SettingsDBPath   string
	SettingsCacheTTL time.Duration

	// Image fetching
	ImageSource         ImageSource
	AzureStorageAccount string
	AzureStorageKey     string

	// Cloud vision-language provider. Empty credentials mean the backend is
	// unavailable, not that calls should be attempted and fail.
	CloudVisionEndpoint string
	CloudVisionAPIKey   string
	CloudVisionModel    string

	// Generic inference provider
	InferenceEndpoint string
	InferenceAPIKey   string
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// CloudVisionConfigured reports whether the cloud vision-language backend has
// everything it needs to be invoked.
func (c *Config) CloudVisionConfigured() bool {
	return c.CloudVisionEndpoint != "" && c.CloudVisionAPIKey != "" && c.CloudVisionModel != ""
}

// InferenceConfigured reports whether the generic inference backend has
// everything it needs to be invoked.
func (c *Config) InferenceConfigured() bool {
	return c.InferenceEndpoint != "" && c.InferenceAPIKey != ""
}

func LoadFromEnv() (*Config, error) {
	// Set defaults
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		ImageFetchTimeout:  parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		AdapterTimeout:     parseDurationOrDefault("ADAPTER_TIMEOUT", 20*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 10*1024*1024), // 10MB

		SettingsDBPath:   getEnvOrDefault("SETTINGS_DB_PATH", "defect-analyzer.db"),
		SettingsCacheTTL: parseDurationOrDefault("SETTINGS_CACHE_TTL", 60*time.Second),

		ImageSource:         ImageSource(getEnvOrDefault("IMAGE_SOURCE", string(ImageSourceHTTP))),
		AzureStorageAccount: os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureStorageKey:     os.Getenv("AZURE_STORAGE_KEY"),

		CloudVisionEndpoint: os.Getenv("CLOUD_VISION_ENDPOINT"),
		CloudVisionAPIKey:   os.Getenv("CLOUD_VISION_API_KEY"),
		CloudVisionModel:    getEnvOrDefault("CLOUD_VISION_MODEL", "gpt-4o-mini"),

		InferenceEndpoint: os.Getenv("INFERENCE_ENDPOINT"),
		InferenceAPIKey:   os.Getenv("INFERENCE_API_KEY"),
	}

	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.RequestTimeout <= 0 || cfg.ImageFetchTimeout <= 0 || cfg.AdapterTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, adapter=%s)",
			cfg.RequestTimeout, cfg.ImageFetchTimeout, cfg.AdapterTimeout)
	}
	if cfg.SettingsCacheTTL <= 0 {
		return nil, fmt.Errorf("SETTINGS_CACHE_TTL must be > 0 (got %s)", cfg.SettingsCacheTTL)
	}
	switch cfg.ImageSource {
	case ImageSourceHTTP:
	case ImageSourceAzure:
		if cfg.AzureStorageAccount == "" || cfg.AzureStorageKey == "" {
			return nil, fmt.Errorf("IMAGE_SOURCE=azure requires AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
		}
	default:
		return nil, fmt.Errorf("invalid IMAGE_SOURCE: %q", cfg.ImageSource)
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
