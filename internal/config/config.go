// Package config provides configuration loading and structs for the Nyaya server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Lookup    LookupConfig    `yaml:"lookup"`
	Session   SessionConfig   `yaml:"session"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the database and indices.
type StorageConfig struct {
	DatabasePath     string `yaml:"database_path"`
	VectorIndexPath  string `yaml:"vector_index_path"`
	KeywordIndexPath string `yaml:"keyword_index_path"`
}

// CorpusConfig holds corpus directory settings.
type CorpusConfig struct {
	Directory  string   `yaml:"directory"`
	Extensions []string `yaml:"extensions"`
	Watch      bool     `yaml:"watch"`
}

// EmbeddingConfig holds embedding service settings.
type EmbeddingConfig struct {
	// Provider selects the embedder: "openai" or "mock" (offline dev and tests).
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	CacheSize  int    `yaml:"cache_size"`
}

// LLMConfig holds chat completion service settings.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
}

// RetrievalConfig holds chunking and similarity search settings.
type RetrievalConfig struct {
	ChunkSize      int     `yaml:"chunk_size"`
	ChunkOverlap   int     `yaml:"chunk_overlap"`
	TopK           int     `yaml:"top_k"`
	ScoreThreshold float64 `yaml:"score_threshold"`
	CollectionName string  `yaml:"collection_name"`
}

// LookupConfig holds passage lookup settings.
type LookupConfig struct {
	KeywordWeight  float64 `yaml:"keyword_weight"`
	SemanticWeight float64 `yaml:"semantic_weight"`
	DefaultLimit   int     `yaml:"default_limit"`
	MaxLimit       int     `yaml:"max_limit"`
}

// SessionConfig holds session lifecycle settings.
type SessionConfig struct {
	TimeoutHours int `yaml:"timeout_hours"`
	// MaxSessions caps live sessions; 0 means unbounded. When the cap would be
	// exceeded, the oldest session by last activity is evicted first.
	MaxSessions int `yaml:"max_sessions"`
}

// Load reads and parses the config file at path, expands environment variables
// and paths, and applies defaults. Returns an error if the file cannot be read
// or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	// ${OPENAI_API_KEY} and friends are resolved before parsing so secrets
	// never need to live in the file itself.
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.VectorIndexPath = expandPath(cfg.Storage.VectorIndexPath, configDir)
	cfg.Storage.KeywordIndexPath = expandPath(cfg.Storage.KeywordIndexPath, configDir)
	cfg.Corpus.Directory = expandPath(cfg.Corpus.Directory, configDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the config to path. Used by "nyaya init" to write the starter config.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Retrieval.ChunkOverlap >= c.Retrieval.ChunkSize {
		return fmt.Errorf("chunk_overlap (%d) must be smaller than chunk_size (%d)",
			c.Retrieval.ChunkOverlap, c.Retrieval.ChunkSize)
	}
	if c.Retrieval.ScoreThreshold < 0 || c.Retrieval.ScoreThreshold > 1 {
		return fmt.Errorf("score_threshold must be in [0,1], got %f", c.Retrieval.ScoreThreshold)
	}
	if c.Lookup.KeywordWeight < 0 || c.Lookup.SemanticWeight < 0 {
		return fmt.Errorf("lookup weights must be non-negative")
	}
	if c.Lookup.KeywordWeight+c.Lookup.SemanticWeight == 0 {
		return fmt.Errorf("at least one lookup weight must be positive")
	}
	if c.Session.TimeoutHours <= 0 {
		return fmt.Errorf("session timeout_hours must be positive, got %d", c.Session.TimeoutHours)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
