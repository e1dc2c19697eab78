package config

import (
	"testing"
	"time"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}

	if cfg.Host != "0.0.0.0" {
		t.Errorf("Expected default host 0.0.0.0, got %s", cfg.Host)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Port)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("Expected default request timeout 30s, got %s", cfg.RequestTimeout)
	}
	if cfg.AdapterTimeout != 20*time.Second {
		t.Errorf("Expected default adapter timeout 20s, got %s", cfg.AdapterTimeout)
	}
	if cfg.MaxRequestBodySize != 10*1024*1024 {
		t.Errorf("Expected default body size 10MB, got %d", cfg.MaxRequestBodySize)
	}
	if cfg.SettingsDBPath != "defect-analyzer.db" {
		t.Errorf("Expected default db path, got %s", cfg.SettingsDBPath)
	}
	if cfg.SettingsCacheTTL != 60*time.Second {
		t.Errorf("Expected default cache TTL 60s, got %s", cfg.SettingsCacheTTL)
	}
	if cfg.ImageSource != ImageSourceHTTP {
		t.Errorf("Expected default image source http, got %s", cfg.ImageSource)
	}
	if cfg.CloudVisionModel != "gpt-4o-mini" {
		t.Errorf("Expected default cloud vision model, got %s", cfg.CloudVisionModel)
	}
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ADAPTER_TIMEOUT", "5s")
	t.Setenv("SETTINGS_DB_PATH", "/tmp/test-settings.db")
	t.Setenv("SETTINGS_CACHE_TTL", "2m")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Port)
	}
	if cfg.AdapterTimeout != 5*time.Second {
		t.Errorf("Expected adapter timeout 5s, got %s", cfg.AdapterTimeout)
	}
	if cfg.SettingsDBPath != "/tmp/test-settings.db" {
		t.Errorf("Expected overridden db path, got %s", cfg.SettingsDBPath)
	}
	if cfg.SettingsCacheTTL != 2*time.Minute {
		t.Errorf("Expected TTL 2m, got %s", cfg.SettingsCacheTTL)
	}
}

func TestLoadFromEnvInvalidValues(t *testing.T) {
	testCases := []struct {
		name  string
		key   string
		value string
	}{
		{"Non-numeric port", "PORT", "not-a-port"},
		{"Port out of range", "PORT", "70000"},
		{"Unknown image source", "IMAGE_SOURCE", "ftp"},
		{"Negative body size", "MAX_REQUEST_BODY_SIZE", "-1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := LoadFromEnv(); err == nil {
				t.Error("Expected an error, got nil")
			}
		})
	}
}

func TestLoadFromEnvAzureRequiresCredentials(t *testing.T) {
	t.Setenv("IMAGE_SOURCE", "azure")
	if _, err := LoadFromEnv(); err == nil {
		t.Error("Expected an error without azure credentials")
	}

	t.Setenv("AZURE_STORAGE_ACCOUNT", "account")
	t.Setenv("AZURE_STORAGE_KEY", "a2V5")
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}
	if cfg.ImageSource != ImageSourceAzure {
		t.Errorf("Expected azure image source, got %s", cfg.ImageSource)
	}
}

func TestBackendConfigured(t *testing.T) {
	cfg := &Config{}
	if cfg.CloudVisionConfigured() {
		t.Error("Cloud vision should not be configured without credentials")
	}
	if cfg.InferenceConfigured() {
		t.Error("Inference should not be configured without credentials")
	}

	cfg.CloudVisionEndpoint = "https://api.example.com"
	cfg.CloudVisionAPIKey = "key"
	cfg.CloudVisionModel = "model"
	if !cfg.CloudVisionConfigured() {
		t.Error("Cloud vision should be configured")
	}

	cfg.InferenceEndpoint = "https://inference.example.com"
	if cfg.InferenceConfigured() {
		t.Error("Inference needs an API key as well")
	}
	cfg.InferenceAPIKey = "key"
	if !cfg.InferenceConfigured() {
		t.Error("Inference should be configured")
	}
}

func TestServerAddress(t *testing.T) {
	cfg := &Config{Host: " 127.0.0.1 ", Port: " 8080 "}
	if got := cfg.ServerAddress(); got != "127.0.0.1:8080" {
		t.Errorf("Expected 127.0.0.1:8080, got %s", got)
	}
}
