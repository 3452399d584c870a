package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config aggregates all application configuration
type Config struct {
	Engine      EngineConfig      `yaml:"engine"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
}

// EngineConfig selects the SQL engine the query tools talk to
type EngineConfig struct {
	Driver       string `yaml:"driver" env:"ENGINE_DRIVER" env-default:"sqlite3"`
	DSN          string `yaml:"dsn" env:"ENGINE_DSN" env-default:"querytools.db"`
	ResultFormat string `yaml:"result_format" env:"QUERY_RESULT_FORMAT" env-default:"tuples"`
	MaxOpenConns int    `yaml:"max_open_conns" env:"ENGINE_MAX_OPEN_CONNS" env-default:"4"`
}

type EmbeddingConfig struct {
	Provider string       `yaml:"provider" env:"EMBEDDING_PROVIDER" env-default:"local"`
	Local    LocalConfig  `yaml:"local"`
	Ollama   OllamaConfig `yaml:"ollama"`
	OpenAI   OpenAIConfig `yaml:"openai"`
	Gemini   GeminiConfig `yaml:"gemini"`
}

type LocalConfig struct {
	Dim int `yaml:"dim" env:"EMBEDDING_LOCAL_DIM" env-default:"256"`
}

type OllamaConfig struct {
	Model   string `yaml:"model" env:"OLLAMA_EMBED_MODEL" env-default:"nomic-embed-text"`
	BaseURL string `yaml:"base_url" env:"OLLAMA_BASE_URL" env-default:"http://localhost:11434"`
	Dim     int    `yaml:"dim" env:"OLLAMA_EMBED_DIM" env-default:"768"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"api_key" env:"OPENAI_API_KEY"`
	BaseURL string `yaml:"base_url" env:"OPENAI_BASE_URL"`
	Model   string `yaml:"model" env:"OPENAI_EMBED_MODEL" env-default:"text-embedding-3-small"`
	Dim     int    `yaml:"dim" env:"OPENAI_EMBED_DIM" env-default:"1536"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key" env:"GEMINI_API_KEY"`
	Model  string `yaml:"model" env:"GEMINI_EMBED_MODEL" env-default:"text-embedding-004"`
	Dim    int    `yaml:"dim" env:"GEMINI_EMBED_DIM" env-default:"768"`
}

// VectorStoreConfig controls where similar_value keeps persisted indexes.
// LegacyDirBranch restores the older branch ordering, in which a
// configured directory disables the distinct-values lookup entirely.
type VectorStoreConfig struct {
	Dir             string `yaml:"dir" env:"VECTOR_STORE_DIR"`
	LegacyDirBranch bool   `yaml:"legacy_dir_branch" env:"VECTOR_STORE_LEGACY_BRANCH" env-default:"false"`
	CatalogDriver   string `yaml:"catalog_driver" env:"CATALOG_DRIVER" env-default:"sqlite"`
	CatalogDSN      string `yaml:"catalog_dsn" env:"CATALOG_DSN"`
}

type ServerConfig struct {
	Port string `yaml:"port" env:"PORT" env-default:"8000"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

// Load reads configuration from config.yaml and environment variables
// Priority: Env Vars > Config File > Defaults
func Load() (*Config, error) {
	var cfg Config

	// config.yaml is optional; without it only env vars and defaults apply.
	if err := cleanenv.ReadConfig("config.yaml", &cfg); err != nil {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read env config: %w", err)
		}
	}

	return &cfg, nil
}

// LoadFile reads configuration from an explicit file. Unlike Load, a
// missing or malformed file is an error.
func LoadFile(path string) (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return &cfg, nil
}
