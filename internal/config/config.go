// Package config is the ambient, env-var-driven configuration loader used
// by the cmd/ entrypoint. Durable config storage (a file or DB-backed
// store) lives outside this module; this package defines the in-core
// shape (domain.IndexerConfig) plus a loader good enough to run the demo
// entrypoint from the process environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"shelfsearch/audiosearch/internal/domain"
)

// EngineConfig holds the service-level tunables that sit alongside the
// per-indexer configs: default timeouts, history size, and so on.
type EngineConfig struct {
	DefaultTimeoutMS int
	HistorySize      int
	LogLevel         string
	LogFormat        string
}

// LoadEngineConfig reads service-level tunables from the environment.
func LoadEngineConfig() EngineConfig {
	return EngineConfig{
		DefaultTimeoutMS: getEnvInt("AUDIOSEARCH_DEFAULT_TIMEOUT_MS", 30000),
		HistorySize:      getEnvInt("AUDIOSEARCH_HISTORY_SIZE", 50),
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:        strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}
}

// EnvLoader implements manager.ConfigLoader by reading a comma-separated
// list of indexer keys from AUDIOSEARCH_INDEXERS, then one "indexer:<key>"
// section per key from AUDIOSEARCH_INDEXER_<KEY>_* variables.
type EnvLoader struct{}

// LoadIndexerConfigs implements manager.ConfigLoader.
func (EnvLoader) LoadIndexerConfigs() ([]domain.IndexerConfig, error) {
	keysRaw := getEnv("AUDIOSEARCH_INDEXERS", "")
	if keysRaw == "" {
		return nil, nil
	}

	var configs []domain.IndexerConfig
	for _, key := range strings.Split(keysRaw, ",") {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		cfg, err := loadOne(key)
		if err != nil {
			return nil, fmt.Errorf("indexer %q: %w", key, err)
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

func loadOne(key string) (domain.IndexerConfig, error) {
	prefix := "AUDIOSEARCH_INDEXER_" + strings.ToUpper(key) + "_"

	baseURL := getEnv(prefix+"BASE_URL", "")
	if baseURL == "" {
		return domain.IndexerConfig{}, fmt.Errorf("%sBASE_URL is required", prefix)
	}

	indexerType := domain.IndexerType(strings.ToLower(getEnv(prefix+"TYPE", string(domain.IndexerTypeTorznab))))
	if indexerType != domain.IndexerTypeTorznab && indexerType != domain.IndexerTypeDirect {
		return domain.IndexerConfig{}, fmt.Errorf("%sTYPE must be %q or %q, got %q", prefix, domain.IndexerTypeTorznab, domain.IndexerTypeDirect, indexerType)
	}

	return domain.IndexerConfig{
		Key:         key,
		Name:        getEnv(prefix+"NAME", key),
		Enabled:     getEnvBool(prefix+"ENABLED", true),
		Type:        indexerType,
		BaseURL:     baseURL,
		APIKey:      getEnv(prefix+"API_KEY", ""),
		SessionID:   getEnv(prefix+"SESSION_ID", ""),
		Categories:  splitCSV(getEnv(prefix+"CATEGORIES", "")),
		Languages:   splitCSV(getEnv(prefix+"LANGUAGES", "")),
		Priority:    getEnvInt(prefix+"PRIORITY", 100),
		TimeoutMS:   getEnvInt(prefix+"TIMEOUT_MS", 30000),
		VerifyTLS:   getEnvBool(prefix+"VERIFY_TLS", true),
		ProviderKey: getEnv(prefix+"PROVIDER_KEY", ""),
		RateLimit: domain.RateLimitConfig{
			RequestsPerSecond: getEnvFloat(prefix+"RATE_LIMIT_RPS", 2),
			MaxConcurrent:     getEnvInt(prefix+"RATE_LIMIT_MAX_CONCURRENT", 4),
		},
	}, nil
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
