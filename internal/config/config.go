package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/spf13/viper"
)

// Config holds the kpsyche server configuration.
type Config struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	// OllamaURL is the base URL of the Ollama instance serving both the
	// embedding and the generation models.
	OllamaURL string `mapstructure:"ollama_url"`

	EmbedModel string `mapstructure:"embed_model"`
	GenModel   string `mapstructure:"gen_model"`

	// EmbedTimeout bounds each embedding call.
	EmbedTimeout time.Duration `mapstructure:"embed_timeout"`

	// GenTimeout bounds each completion call. The backend processes one
	// completion at a time, so a stuck request would otherwise block the
	// whole pipeline.
	GenTimeout time.Duration `mapstructure:"gen_timeout"`

	// RAGEnabled toggles retrieval augmentation. When false the retrieval
	// engine behaves as if the memory store were permanently unavailable.
	RAGEnabled bool `mapstructure:"rag_enabled"`

	// RetrievalLimit is the default number of nearest neighbors requested
	// per search.
	RetrievalLimit int `mapstructure:"retrieval_limit"`

	// SimilarityThreshold is the minimum similarity (1 - cosine distance)
	// for a match to be admitted. Inclusive.
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`

	DataDir  string `mapstructure:"data_dir"`
	LogLevel string `mapstructure:"log_level"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:                "0.0.0.0",
		Port:                8080,
		OllamaURL:           "http://localhost:11434",
		EmbedModel:          "nomic-embed-text",
		GenModel:            "llama3.2",
		EmbedTimeout:        10 * time.Second,
		GenTimeout:          30 * time.Second,
		RAGEnabled:          true,
		RetrievalLimit:      3,
		SimilarityThreshold: 0.7,
		DataDir:             DataDir(),
		LogLevel:            "info",
	}
}

// Load reads configuration from an optional config.yaml and KPSYCHE_*
// environment variables layered over the defaults.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath(DataDir())

	v.SetEnvPrefix("KPSYCHE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("host", cfg.Host)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("ollama_url", cfg.OllamaURL)
	v.SetDefault("embed_model", cfg.EmbedModel)
	v.SetDefault("gen_model", cfg.GenModel)
	v.SetDefault("embed_timeout", cfg.EmbedTimeout)
	v.SetDefault("gen_timeout", cfg.GenTimeout)
	v.SetDefault("rag_enabled", cfg.RAGEnabled)
	v.SetDefault("retrieval_limit", cfg.RetrievalLimit)
	v.SetDefault("similarity_threshold", cfg.SimilarityThreshold)
	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("log_level", cfg.LogLevel)

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional; only a malformed file is an error.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, goerr.Wrap(err, "failed to read config file")
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Addr returns the host:port the HTTP server binds to.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.OllamaURL == "" {
		return goerr.New("ollama_url must not be empty")
	}
	if c.RetrievalLimit <= 0 {
		return goerr.New("retrieval_limit must be positive", goerr.V("limit", c.RetrievalLimit))
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return goerr.New("similarity_threshold must be in [0,1]", goerr.V("threshold", c.SimilarityThreshold))
	}
	if c.GenTimeout <= 0 {
		return goerr.New("gen_timeout must be positive", goerr.V("timeout", c.GenTimeout))
	}
	if c.EmbedTimeout <= 0 {
		return goerr.New("embed_timeout must be positive", goerr.V("timeout", c.EmbedTimeout))
	}
	return nil
}
