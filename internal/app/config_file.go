package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/hyperifyio/goextract/internal/extract"
	"github.com/hyperifyio/goextract/internal/serialize"
)

// FileConfig is the single-file configuration schema. Pointer fields
// distinguish "unset" from an explicit false or zero.
type FileConfig struct {
	Output struct {
		Dir      string `yaml:"dir" json:"dir"`
		Format   string `yaml:"format" json:"format"`
		Manifest string `yaml:"manifest" json:"manifest"`
		Metrics  string `yaml:"metrics" json:"metrics"`
	} `yaml:"output" json:"output"`

	Include struct {
		Comments   *bool `yaml:"comments" json:"comments"`
		Tables     *bool `yaml:"tables" json:"tables"`
		Images     *bool `yaml:"images" json:"images"`
		Formatting *bool `yaml:"formatting" json:"formatting"`
		Links      *bool `yaml:"links" json:"links"`
	} `yaml:"include" json:"include"`

	Min struct {
		ExtractedSize        *int `yaml:"extractedSize" json:"extractedSize"`
		ExtractedCommentSize *int `yaml:"extractedCommentSize" json:"extractedCommentSize"`
		OutputSize           *int `yaml:"outputSize" json:"outputSize"`
		OutputCommentSize    *int `yaml:"outputCommentSize" json:"outputCommentSize"`
	} `yaml:"min" json:"min"`

	Focus         string   `yaml:"focus" json:"focus"`
	MaxTreeSize   *int     `yaml:"maxTreeSize" json:"maxTreeSize"`
	FallbackRatio *float64 `yaml:"fallbackRatio" json:"fallbackRatio"`
	NoFallback    *bool    `yaml:"noFallback" json:"noFallback"`
	Language      string   `yaml:"language" json:"language"`
	PruneSelector string   `yaml:"pruneSelector" json:"pruneSelector"`
	URLBlacklist  []string `yaml:"urlBlacklist" json:"urlBlacklist"`
	WithMetadata  *bool    `yaml:"withMetadata" json:"withMetadata"`

	Dedup struct {
		Enable         *bool `yaml:"enable" json:"enable"`
		CacheSize      *int  `yaml:"cacheSize" json:"cacheSize"`
		MaxRepetitions *int  `yaml:"maxRepetitions" json:"maxRepetitions"`
		MinCheckSize   *int  `yaml:"minCheckSize" json:"minCheckSize"`
	} `yaml:"dedup" json:"dedup"`

	Fetch struct {
		Workers   *int          `yaml:"workers" json:"workers"`
		UserAgent string        `yaml:"userAgent" json:"userAgent"`
		Timeout   time.Duration `yaml:"timeout" json:"timeout"`
		Robots    *bool         `yaml:"robots" json:"robots"`
	} `yaml:"fetch" json:"fetch"`

	Cache struct {
		Dir    string        `yaml:"dir" json:"dir"`
		MaxAge time.Duration `yaml:"maxAge" json:"maxAge"`
	} `yaml:"cache" json:"cache"`

	Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays every value set in fc onto cfg. It runs before
// environment and flag overrides.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	str := func(dst *string, v string) {
		if strings.TrimSpace(v) != "" {
			*dst = v
		}
	}
	str(&cfg.OutputDir, fc.Output.Dir)
	str(&cfg.Format, fc.Output.Format)
	str(&cfg.ManifestPath, fc.Output.Manifest)
	str(&cfg.MetricsPath, fc.Output.Metrics)
	str(&cfg.TargetLanguage, fc.Language)
	str(&cfg.PruneSelector, fc.PruneSelector)
	str(&cfg.Focus, fc.Focus)
	str(&cfg.UserAgent, fc.Fetch.UserAgent)
	str(&cfg.CacheDir, fc.Cache.Dir)

	overlay(&cfg.IncludeComments, fc.Include.Comments)
	overlay(&cfg.IncludeTables, fc.Include.Tables)
	overlay(&cfg.IncludeImages, fc.Include.Images)
	overlay(&cfg.IncludeFormatting, fc.Include.Formatting)
	overlay(&cfg.IncludeLinks, fc.Include.Links)
	overlay(&cfg.SkipFallback, fc.NoFallback)
	overlay(&cfg.WithMetadata, fc.WithMetadata)
	overlay(&cfg.Deduplicate, fc.Dedup.Enable)

	overlay(&cfg.MinExtractedSize, fc.Min.ExtractedSize)
	overlay(&cfg.MinExtractedCommentSize, fc.Min.ExtractedCommentSize)
	overlay(&cfg.MinOutputSize, fc.Min.OutputSize)
	overlay(&cfg.MinOutputCommentSize, fc.Min.OutputCommentSize)
	overlay(&cfg.MaxTreeSize, fc.MaxTreeSize)
	overlay(&cfg.FallbackRatio, fc.FallbackRatio)
	overlay(&cfg.CacheSize, fc.Dedup.CacheSize)
	overlay(&cfg.MaxDuplicateCount, fc.Dedup.MaxRepetitions)
	overlay(&cfg.MinDuplicateCheckSize, fc.Dedup.MinCheckSize)
	overlay(&cfg.Workers, fc.Fetch.Workers)
	overlay(&cfg.RespectRobots, fc.Fetch.Robots)

	if len(fc.URLBlacklist) > 0 {
		cfg.URLBlacklist = append([]string{}, fc.URLBlacklist...)
	}
	if fc.Fetch.Timeout > 0 {
		cfg.Timeout = fc.Fetch.Timeout
	}
	if fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = fc.Cache.MaxAge
	}
	if fc.Verbose {
		cfg.Verbose = true
	}
}

func overlay[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// ValidateConfig rejects configurations that cannot run.
func ValidateConfig(cfg Config) error {
	if len(cfg.Inputs) == 0 {
		return errors.New("config: at least one input is required")
	}
	if _, err := serialize.ParseFormat(cfg.Format); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := extract.ParseFocus(cfg.Focus); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if cfg.MinExtractedSize < 0 || cfg.MinExtractedCommentSize < 0 || cfg.MinOutputSize < 0 ||
		cfg.MinOutputCommentSize < 0 || cfg.MaxTreeSize < 0 {
		return errors.New("config: negative size thresholds are not allowed")
	}
	if cfg.CacheSize < 0 || cfg.MaxDuplicateCount < 0 || cfg.MinDuplicateCheckSize < 0 {
		return errors.New("config: negative dedup settings are not allowed")
	}
	if cfg.FallbackRatio != 0 && cfg.FallbackRatio <= 1 {
		return fmt.Errorf("config: fallback ratio must be greater than 1, got %g", cfg.FallbackRatio)
	}
	if cfg.Workers < 0 || cfg.Timeout < 0 || cfg.CacheMaxAge < 0 {
		return errors.New("config: negative workers or durations are not allowed")
	}
	return nil
}
