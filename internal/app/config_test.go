package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperifyio/goextract/internal/extract"
	"github.com/hyperifyio/goextract/internal/serialize"
)

func TestLoadConfigFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "goextract.yaml")
	content := `
output:
  format: json
  dir: out
include:
  comments: false
  images: true
min:
  extractedSize: 400
fallbackRatio: 3
focus: precision
dedup:
  enable: true
  maxRepetitions: 2
fetch:
  workers: 8
  timeout: 10s
  robots: true
urlBlacklist: [https://spam.example]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	fc, err := LoadConfigFile(path)
	require.NoError(t, err)

	cfg := DefaultConfig()
	ApplyFileConfig(&cfg, fc)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.False(t, cfg.IncludeComments)
	assert.True(t, cfg.IncludeImages)
	assert.True(t, cfg.IncludeTables, "unset keys keep defaults")
	assert.Equal(t, 400, cfg.MinExtractedSize)
	assert.Equal(t, 3.0, cfg.FallbackRatio)
	assert.Equal(t, "precision", cfg.Focus)
	assert.True(t, cfg.Deduplicate)
	assert.Equal(t, 2, cfg.MaxDuplicateCount)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.True(t, cfg.RespectRobots)
	assert.Equal(t, []string{"https://spam.example"}, cfg.URLBlacklist)
}

func TestLoadConfigFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "goextract.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"output":{"format":"xml"},"language":"de"}`), 0o600))
	fc, err := LoadConfigFile(path)
	require.NoError(t, err)

	cfg := DefaultConfig()
	ApplyFileConfig(&cfg, fc)
	assert.Equal(t, "xml", cfg.Format)
	assert.Equal(t, "de", cfg.TargetLanguage)
}

func TestLoadConfigFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("min: [1, 2"), 0o600))
	_, err := LoadConfigFile(path)
	assert.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("GOEXTRACT_FORMAT", "csv")
	t.Setenv("GOEXTRACT_FOCUS", "recall")
	var fc FileConfig
	fc.Output.Format = "json"
	fc.Focus = "precision"

	cfg := DefaultConfig()
	ApplyFileConfig(&cfg, fc)
	require.NoError(t, ApplyEnvToConfig(&cfg))
	assert.Equal(t, "csv", cfg.Format)
	assert.Equal(t, "recall", cfg.Focus)
}

func TestValidateConfig(t *testing.T) {
	valid := DefaultConfig()
	valid.Inputs = []string{"page.html"}
	require.NoError(t, ValidateConfig(valid))

	cases := map[string]func(*Config){
		"no inputs":      func(c *Config) { c.Inputs = nil },
		"bad format":     func(c *Config) { c.Format = "pdf" },
		"negative size":  func(c *Config) { c.MinOutputSize = -1 },
		"negative dedup": func(c *Config) { c.CacheSize = -5 },
		"ratio too low":  func(c *Config) { c.FallbackRatio = 0.5 },
		"unknown focus":  func(c *Config) { c.Focus = "everything" },
		"negative pool":  func(c *Config) { c.Workers = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid
			mutate(&cfg)
			assert.Error(t, ValidateConfig(cfg))
		})
	}
}

func TestPipelineOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Format = "xmltei"
	cfg.SkipFallback = true
	cfg.Focus = "recall"
	opts := cfg.PipelineOptions()
	assert.Equal(t, extract.FavorRecall, opts.Focus)
	assert.Equal(t, serialize.XMLTEI, opts.Format)
	assert.True(t, opts.SkipFallback)
	assert.True(t, opts.IncludeComments)
	assert.Equal(t, cfg.FallbackRatio, opts.FallbackRatio)
}
