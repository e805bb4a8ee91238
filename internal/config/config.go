package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port          int               `json:"port"`
	CORSAllowlist []string          `json:"cors_allowlist"`
	RateLimitMs   int               `json:"rate_limit_ms"`
	LogConfig     logger.LogConfig  `json:"log_config"`
	Embedding     EmbeddingConfig   `json:"embedding"`
	VectorStore   VectorStoreConfig `json:"vector_store"`
	Generation    GenerationConfig  `json:"generation"`
	Prompt        PromptConfig      `json:"prompt"`
	Confidence    ConfidenceConfig  `json:"confidence"`
	Cache         CacheConfig       `json:"cache"`
}

// ProviderRef names a secondary provider tried when the one before it
// fails.
type ProviderRef struct {
	Provider string      `json:"provider"`
	Model    string      `json:"model"`
	Data     interface{} `json:"data"`
}

type EmbeddingConfig struct {
	Provider        string        `json:"provider"`
	Model           string        `json:"model"`
	Dimension       int           `json:"dimension"`
	TimeoutSeconds  int           `json:"timeout_seconds"`
	Attempts        int           `json:"attempts"`
	CacheSize       int           `json:"cache_size"`
	CacheTTLSeconds int           `json:"cache_ttl_seconds"`
	Fallbacks       []ProviderRef `json:"fallbacks"`
	Data            interface{}   `json:"data"`
}

type VectorStoreConfig struct {
	Type           string         `json:"type"`
	Collection     string         `json:"collection"`
	TimeoutSeconds int            `json:"timeout_seconds"`
	Chroma         ChromaConfig   `json:"chroma"`
	Database       DatabaseConfig `json:"database"`
}

type ChromaConfig struct {
	BaseURL string `json:"base_url"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
	Table    string `json:"table"`
}

type GenerationConfig struct {
	Provider       string        `json:"provider"`
	Model          string        `json:"model"`
	Temperature    float32       `json:"temperature"`
	MaxTokens      int           `json:"max_tokens"`
	TimeoutSeconds int           `json:"timeout_seconds"`
	Fallbacks      []ProviderRef `json:"fallbacks"`
	Data           interface{}   `json:"data"`
}

type PromptConfig struct {
	MaxPassages     int `json:"max_passages"`
	MaxPassageChars int `json:"max_passage_chars"`
}

type ConfidenceConfig struct {
	// Threshold gates whether a generated answer is returned. 0.5 is an
	// uncalibrated starting point, tune it against real traffic.
	Threshold float64 `json:"threshold"`
}

type CacheConfig struct {
	Disabled         bool   `json:"disabled"`
	AnswerCapacity   int    `json:"answer_capacity"`
	AnswerTTLSeconds int    `json:"answer_ttl_seconds"`
	SearchCapacity   int    `json:"search_capacity"`
	SearchTTLSeconds int    `json:"search_ttl_seconds"`
	StatsCron        string `json:"stats_cron"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Embedding.Provider == "" {
		return nil, fmt.Errorf("embedding.provider is required")
	}
	if cfg.Embedding.Dimension == 0 {
		cfg.Embedding.Dimension = 384
	}
	if cfg.Embedding.TimeoutSeconds == 0 {
		cfg.Embedding.TimeoutSeconds = 5
	}
	if cfg.Embedding.Attempts == 0 {
		cfg.Embedding.Attempts = 3
	}
	for i, ref := range cfg.Embedding.Fallbacks {
		if ref.Provider == "" {
			return nil, fmt.Errorf("embedding.fallbacks[%d].provider is required", i)
		}
	}
	switch cfg.VectorStore.Type {
	case "":
		return nil, fmt.Errorf("vector_store.type is required")
	case "chroma":
		if cfg.VectorStore.Chroma.BaseURL == "" {
			return nil, fmt.Errorf("vector_store.chroma.base_url is required")
		}
		if cfg.VectorStore.Collection == "" {
			return nil, fmt.Errorf("vector_store.collection is required")
		}
	case "pgvector":
		if cfg.VectorStore.Database.DSN == "" && cfg.VectorStore.Database.Host == "" {
			return nil, fmt.Errorf("vector_store.database is required for pgvector store")
		}
		if cfg.VectorStore.Database.Table == "" {
			cfg.VectorStore.Database.Table = "passages"
		}
	default:
		return nil, fmt.Errorf("vector_store.type must be chroma or pgvector")
	}
	if cfg.VectorStore.TimeoutSeconds == 0 {
		cfg.VectorStore.TimeoutSeconds = 5
	}
	if cfg.Generation.Provider == "" {
		return nil, fmt.Errorf("generation.provider is required")
	}
	if cfg.Generation.Model == "" {
		return nil, fmt.Errorf("generation.model is required")
	}
	for i, ref := range cfg.Generation.Fallbacks {
		if ref.Provider == "" || ref.Model == "" {
			return nil, fmt.Errorf("generation.fallbacks[%d] needs provider and model", i)
		}
	}
	if cfg.Generation.Temperature == 0 {
		cfg.Generation.Temperature = 0.1
	}
	if cfg.Generation.MaxTokens == 0 {
		cfg.Generation.MaxTokens = 1024
	}
	if cfg.Generation.TimeoutSeconds == 0 {
		cfg.Generation.TimeoutSeconds = 10
	}
	if cfg.Prompt.MaxPassages == 0 {
		cfg.Prompt.MaxPassages = 5
	}
	if cfg.Prompt.MaxPassageChars == 0 {
		cfg.Prompt.MaxPassageChars = 1200
	}
	if cfg.Confidence.Threshold == 0 {
		cfg.Confidence.Threshold = 0.5
	}
	if cfg.Cache.AnswerCapacity == 0 {
		cfg.Cache.AnswerCapacity = 100
	}
	if cfg.Cache.AnswerTTLSeconds == 0 {
		cfg.Cache.AnswerTTLSeconds = 3600
	}
	if cfg.Cache.SearchCapacity == 0 {
		cfg.Cache.SearchCapacity = 200
	}
	if cfg.Cache.SearchTTLSeconds == 0 {
		cfg.Cache.SearchTTLSeconds = 1800
	}
	if cfg.Cache.StatsCron == "" {
		cfg.Cache.StatsCron = "*/10 * * * *"
	}
	return &cfg, nil
}
