// Package config provides configuration management for the VocaBuddy
// backend. It loads settings from environment variables with the
// VOCABUDDY_ prefix and provides sensible defaults for all options.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration settings for the application.
type Config struct {
	Server     ServerConfig
	Vocab      VocabConfig
	Difficulty DifficultyConfig
	LLM        LLMConfig
	Agent      AgentConfig
	Security   SecurityConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port int    // Server port (default: 8000)
	Host string // Server host (default: 127.0.0.1)
}

// VocabConfig selects and locates the vocabulary source.
type VocabConfig struct {
	Source         string // Vocabulary source: npy, sqlite, postgres (default: npy)
	EmbeddingsPath string // Path to the .npy embedding matrix
	WordsPath      string // Path to the word list file
	SQLitePath     string // Path to the SQLite vocabulary database
	PostgresDSN    string // DSN for the Postgres vocabulary database
	TopicsPath     string // Optional topics YAML override file
}

// DifficultyConfig locates the difficulty model artifacts.
type DifficultyConfig struct {
	ModelPath     string // Path to the decision-tree JSON artifact
	FrequencyPath string // Path to the word frequency table (optional)
	CacheSize     int    // Bounded word→tier cache size (default: 1024)
}

// LLMConfig contains the language model client configuration.
type LLMConfig struct {
	APIKey         string        // API key for the OpenAI-compatible endpoint
	Model          string        // Model name (default: gpt-4o-mini)
	BaseURL        string        // Endpoint base URL (default: https://api.openai.com)
	RequestTimeout time.Duration // Per-request timeout (default: 30s)
	MaxToolRounds  int           // Cap on tool-calling rounds (default: 4)
}

// AgentConfig tunes the tutoring orchestrator.
type AgentConfig struct {
	TurnTimeout  time.Duration // Whole-turn budget including tool calls (default: 60s)
	HistoryLimit int           // Prior turns replayed to the model (default: 20)
}

// SecurityConfig contains security and authentication settings.
type SecurityConfig struct {
	SecurityMode string // Security mode: development, production (default: development)
	APIToken     string // API authentication token (required in production)
}

// LoadConfig loads configuration from environment variables with sensible
// defaults. All environment variables use the VOCABUDDY_ prefix.
func LoadConfig() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port: getEnvInt("VOCABUDDY_PORT", 8000),
			Host: getEnv("VOCABUDDY_HOST", "127.0.0.1"),
		},
		Vocab: VocabConfig{
			Source:         getEnv("VOCABUDDY_VOCAB_SOURCE", "npy"),
			EmbeddingsPath: getEnv("VOCABUDDY_EMBEDDINGS_PATH", "./models/word_embeddings.npy"),
			WordsPath:      getEnv("VOCABUDDY_WORDS_PATH", "./models/all_vocab_words.txt"),
			SQLitePath:     getEnv("VOCABUDDY_VOCAB_SQLITE_PATH", "./models/vocabulary.db"),
			PostgresDSN:    getEnv("VOCABUDDY_VOCAB_POSTGRES_DSN", ""),
			TopicsPath:     getEnv("VOCABUDDY_TOPICS_PATH", ""),
		},
		Difficulty: DifficultyConfig{
			ModelPath:     getEnv("VOCABUDDY_DIFFICULTY_MODEL_PATH", "./models/difficulty_tree.json"),
			FrequencyPath: getEnv("VOCABUDDY_FREQUENCY_PATH", ""),
			CacheSize:     getEnvInt("VOCABUDDY_DIFFICULTY_CACHE_SIZE", 1024),
		},
		LLM: LLMConfig{
			APIKey:         getEnv("VOCABUDDY_LLM_API_KEY", ""),
			Model:          getEnv("VOCABUDDY_LLM_MODEL", "gpt-4o-mini"),
			BaseURL:        getEnv("VOCABUDDY_LLM_BASE_URL", "https://api.openai.com"),
			RequestTimeout: getEnvDuration("VOCABUDDY_LLM_TIMEOUT", 30*time.Second),
			MaxToolRounds:  getEnvInt("VOCABUDDY_LLM_MAX_TOOL_ROUNDS", 4),
		},
		Agent: AgentConfig{
			TurnTimeout:  getEnvDuration("VOCABUDDY_TURN_TIMEOUT", 60*time.Second),
			HistoryLimit: getEnvInt("VOCABUDDY_HISTORY_LIMIT", 20),
		},
		Security: SecurityConfig{
			SecurityMode: getEnv("VOCABUDDY_SECURITY_MODE", "development"),
			APIToken:     getEnv("VOCABUDDY_API_TOKEN", ""),
		},
	}, nil
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default
// value. Unparseable values fall back to the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable ("30s", "2m") or
// returns a default value. Unparseable values fall back to the default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
