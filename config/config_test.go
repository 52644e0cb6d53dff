package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hupe1980/caremesh/agent"
	"github.com/hupe1980/caremesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "caremesh.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	d := Defaults()
	require.NoError(t, d.Validate())
	assert.Equal(t, ProviderOpenAI, d.Provider.Name)
	assert.Equal(t, "http://localhost:11434/v1", d.Provider.BaseURL)
	assert.Equal(t, 3, d.Retrieval.TopK)
	assert.Equal(t, 120*time.Second, d.Timeouts.Generate)
	assert.Equal(t, 180*time.Second, d.Timeouts.Vision)
	assert.Equal(t, 60*time.Second, d.Timeouts.Embed)
	assert.Equal(t, IndexMemory, d.Index.Backend)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
provider:
  name: gemini
  text_model: gemini-2.5-flash
  temperature: 0.1
embedding_provider: gemini
timeouts:
  generate: 30s
retrieval:
  top_k: 5
index:
  backend: sqlite
  path: /tmp/caremesh.db
safety:
  terms: ["overdose"]
  patterns: ["(?i)stop taking"]
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, ProviderGemini, cfg.Provider.Name)
	assert.Equal(t, "gemini-2.5-flash", cfg.Provider.TextModel)
	assert.Equal(t, 30*time.Second, cfg.Timeouts.Generate)
	assert.Equal(t, 180*time.Second, cfg.Timeouts.Vision)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.Equal(t, IndexSQLite, cfg.Index.Backend)
	assert.Equal(t, []string{"overdose"}, cfg.Safety.Terms)

	ec := cfg.EngineConfig()
	assert.Equal(t, 5, ec.TopK)
	assert.InDelta(t, 0.1, ec.Temperature, 1e-9)
	assert.Equal(t, 30*time.Second, ec.Timeouts.Generate)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, "provider:\n  name: openai\n")
	t.Setenv("CAREMESH_PROVIDER_API_KEY", "secret")
	t.Setenv("CAREMESH_RETRIEVAL_TOP_K", "7")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.Provider.APIKey)
	assert.Equal(t, 7, cfg.Retrieval.TopK)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	path := writeConfig(t, "provider:\n  name: ollama-native\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInput)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown provider", func(c *Config) { c.Provider.Name = "x" }},
		{"anthropic embeddings", func(c *Config) { c.EmbeddingProvider = ProviderAnthropic }},
		{"unknown embedding provider", func(c *Config) { c.EmbeddingProvider = "" }},
		{"unknown index", func(c *Config) { c.Index.Backend = "chroma" }},
		{"zero top_k", func(c *Config) { c.Retrieval.TopK = 0 }},
		{"zero timeout", func(c *Config) { c.Timeouts.Vision = 0 }},
		{"bad pattern", func(c *Config) { c.Safety.Patterns = []string{"("} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Defaults()
			tt.mutate(&c)
			assert.ErrorIs(t, c.Validate(), core.ErrInput)
		})
	}
}

func TestSafetyRules(t *testing.T) {
	c := Defaults()
	c.Safety.Terms = []string{"overdose", "  "}
	c.Safety.Patterns = []string{`(?i)\bdouble the dose\b`}

	rules, err := c.SafetyRules()
	require.NoError(t, err)
	assert.Len(t, rules, len(agent.DefaultDenylist())+2)
	assert.Equal(t, "overdose", rules[len(rules)-2].Name())
	assert.True(t, rules[len(rules)-1].Match("You could Double The Dose"))
}
