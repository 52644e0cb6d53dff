// Package config loads caremesh settings from a YAML file, CAREMESH_*
// environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/hupe1980/caremesh/agent"
	"github.com/hupe1980/caremesh/core"
	"github.com/hupe1980/caremesh/engine"
)

// EnvPrefix prefixes every environment override, e.g. CAREMESH_PROVIDER_API_KEY.
const EnvPrefix = "CAREMESH"

// Supported provider and index backend names.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"

	IndexMemory = "memory"
	IndexSQLite = "sqlite"
)

// Config is the full caremesh configuration.
type Config struct {
	Server            ServerConfig    `yaml:"server" mapstructure:"server"`
	Log               LogConfig       `yaml:"log" mapstructure:"log"`
	Provider          ProviderConfig  `yaml:"provider" mapstructure:"provider"`
	EmbeddingProvider string          `yaml:"embedding_provider" mapstructure:"embedding_provider"`
	Timeouts          engine.Timeouts `yaml:"timeouts" mapstructure:"timeouts"`
	Retrieval         RetrievalConfig `yaml:"retrieval" mapstructure:"retrieval"`
	Index             IndexConfig     `yaml:"index" mapstructure:"index"`
	Safety            SafetyConfig    `yaml:"safety" mapstructure:"safety"`
}

// ServerConfig configures the HTTP boundary.
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ProviderConfig selects the model backend.
type ProviderConfig struct {
	Name           string  `yaml:"name" mapstructure:"name"`
	BaseURL        string  `yaml:"base_url" mapstructure:"base_url"`
	APIKey         string  `yaml:"api_key" mapstructure:"api_key"`
	TextModel      string  `yaml:"text_model" mapstructure:"text_model"`
	VisionModel    string  `yaml:"vision_model" mapstructure:"vision_model"`
	EmbeddingModel string  `yaml:"embedding_model" mapstructure:"embedding_model"`
	Temperature    float64 `yaml:"temperature" mapstructure:"temperature"`
}

// RetrievalConfig tunes report retrieval.
type RetrievalConfig struct {
	TopK int `yaml:"top_k" mapstructure:"top_k"`
}

// IndexConfig selects the similarity index backend. An empty sqlite path
// keeps the database in memory.
type IndexConfig struct {
	Backend string `yaml:"backend" mapstructure:"backend"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// SafetyConfig adds rules on top of the default denylist.
type SafetyConfig struct {
	Terms    []string `yaml:"terms" mapstructure:"terms"`
	Patterns []string `yaml:"patterns" mapstructure:"patterns"`
}

// Defaults targets a local Ollama server through its OpenAI-compatible API.
func Defaults() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080"},
		Log:    LogConfig{Level: "info", Format: "json"},
		Provider: ProviderConfig{
			Name:           ProviderOpenAI,
			BaseURL:        "http://localhost:11434/v1",
			APIKey:         "ollama",
			TextModel:      "llama3",
			VisionModel:    "llava",
			EmbeddingModel: "nomic-embed-text",
			Temperature:    engine.DefaultConfig.Temperature,
		},
		EmbeddingProvider: ProviderOpenAI,
		Timeouts:          engine.DefaultConfig.Timeouts,
		Retrieval:         RetrievalConfig{TopK: engine.DefaultConfig.TopK},
		Index:             IndexConfig{Backend: IndexMemory},
	}
}

// Load reads configuration. With an empty path it looks for caremesh.yaml in
// the working directory and in ~/.config/caremesh; a missing file is not an
// error in that case. Environment variables override file values.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Defaults())

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("caremesh")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "caremesh"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys absent
// from the file.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("provider.name", d.Provider.Name)
	v.SetDefault("provider.base_url", d.Provider.BaseURL)
	v.SetDefault("provider.api_key", d.Provider.APIKey)
	v.SetDefault("provider.text_model", d.Provider.TextModel)
	v.SetDefault("provider.vision_model", d.Provider.VisionModel)
	v.SetDefault("provider.embedding_model", d.Provider.EmbeddingModel)
	v.SetDefault("provider.temperature", d.Provider.Temperature)
	v.SetDefault("embedding_provider", d.EmbeddingProvider)
	v.SetDefault("timeouts.generate", d.Timeouts.Generate)
	v.SetDefault("timeouts.vision", d.Timeouts.Vision)
	v.SetDefault("timeouts.embed", d.Timeouts.Embed)
	v.SetDefault("retrieval.top_k", d.Retrieval.TopK)
	v.SetDefault("index.backend", d.Index.Backend)
	v.SetDefault("index.path", d.Index.Path)
	v.SetDefault("safety.terms", d.Safety.Terms)
	v.SetDefault("safety.patterns", d.Safety.Patterns)
}

// Validate reports the first invalid setting as an ErrInput error.
func (c Config) Validate() error {
	switch c.Provider.Name {
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini:
	default:
		return fmt.Errorf("%w: unknown provider %q", core.ErrInput, c.Provider.Name)
	}
	switch c.EmbeddingProvider {
	case ProviderOpenAI, ProviderGemini:
	case ProviderAnthropic:
		return fmt.Errorf("%w: provider %q cannot embed", core.ErrInput, c.EmbeddingProvider)
	default:
		return fmt.Errorf("%w: unknown embedding provider %q", core.ErrInput, c.EmbeddingProvider)
	}
	switch c.Index.Backend {
	case IndexMemory, IndexSQLite:
	default:
		return fmt.Errorf("%w: unknown index backend %q", core.ErrInput, c.Index.Backend)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("%w: retrieval.top_k must be positive", core.ErrInput)
	}
	for name, d := range map[string]time.Duration{
		"generate": c.Timeouts.Generate,
		"vision":   c.Timeouts.Vision,
		"embed":    c.Timeouts.Embed,
	} {
		if d <= 0 {
			return fmt.Errorf("%w: timeouts.%s must be positive", core.ErrInput, name)
		}
	}
	if _, err := c.SafetyRules(); err != nil {
		return err
	}
	return nil
}

// EngineConfig projects the pipeline tuning parameters.
func (c Config) EngineConfig() engine.Config {
	return engine.Config{
		Timeouts:    c.Timeouts,
		TopK:        c.Retrieval.TopK,
		Temperature: c.Provider.Temperature,
	}
}

// SafetyRules returns the default denylist extended by the configured terms
// and patterns.
func (c Config) SafetyRules() ([]agent.Rule, error) {
	rules := agent.DefaultDenylist()
	for _, term := range c.Safety.Terms {
		if strings.TrimSpace(term) == "" {
			continue
		}
		rules = append(rules, agent.SubstringRule{Term: term})
	}
	for _, expr := range c.Safety.Patterns {
		r, err := agent.NewRegexRule(expr)
		if err != nil {
			return nil, fmt.Errorf("%w: safety pattern: %w", core.ErrInput, err)
		}
		rules = append(rules, r)
	}
	return rules, nil
}
