package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix namespaces every environment variable read by ApplyEnvToConfig.
const EnvPrefix = "GOEXTRACT_"

type envBinding struct {
	key string
	set func(string) error
}

func envBindings(cfg *Config) []envBinding {
	return []envBinding{
		{"FORMAT", setString(&cfg.Format)},
		{"OUTPUT_DIR", setString(&cfg.OutputDir)},
		{"MANIFEST", setString(&cfg.ManifestPath)},
		{"METRICS_OUT", setString(&cfg.MetricsPath)},
		{"COMMENTS", setBool(&cfg.IncludeComments)},
		{"TABLES", setBool(&cfg.IncludeTables)},
		{"IMAGES", setBool(&cfg.IncludeImages)},
		{"FORMATTING", setBool(&cfg.IncludeFormatting)},
		{"LINKS", setBool(&cfg.IncludeLinks)},
		{"FOCUS", setString(&cfg.Focus)},
		{"TARGET_LANGUAGE", setString(&cfg.TargetLanguage)},
		{"MIN_EXTRACTED_SIZE", setInt(&cfg.MinExtractedSize)},
		{"MIN_EXTRACTED_COMM_SIZE", setInt(&cfg.MinExtractedCommentSize)},
		{"MIN_OUTPUT_SIZE", setInt(&cfg.MinOutputSize)},
		{"MIN_OUTPUT_COMM_SIZE", setInt(&cfg.MinOutputCommentSize)},
		{"MAX_TREE_SIZE", setInt(&cfg.MaxTreeSize)},
		{"FALLBACK_RATIO", setFloat(&cfg.FallbackRatio)},
		{"NO_FALLBACK", setBool(&cfg.SkipFallback)},
		{"RECORD_ID", setString(&cfg.RecordID)},
		{"URL", setString(&cfg.OriginalURL)},
		{"PRUNE_SELECTOR", setString(&cfg.PruneSelector)},
		{"URL_BLACKLIST", setList(&cfg.URLBlacklist)},
		{"WITH_METADATA", setBool(&cfg.WithMetadata)},
		{"DEDUPLICATE", setBool(&cfg.Deduplicate)},
		{"CACHE_SIZE", setInt(&cfg.CacheSize)},
		{"MAX_REPETITIONS", setInt(&cfg.MaxDuplicateCount)},
		{"MIN_DUPLCHECK_SIZE", setInt(&cfg.MinDuplicateCheckSize)},
		{"WORKERS", setInt(&cfg.Workers)},
		{"USER_AGENT", setString(&cfg.UserAgent)},
		{"TIMEOUT", setDuration(&cfg.Timeout)},
		{"ROBOTS", setBool(&cfg.RespectRobots)},
		{"CACHE_DIR", setString(&cfg.CacheDir)},
		{"CACHE_MAX_AGE", setDuration(&cfg.CacheMaxAge)},
		{"VERBOSE", setBool(&cfg.Verbose)},
	}
}

// ApplyEnvToConfig overrides cfg with every GOEXTRACT_* variable that is set.
// Malformed numbers, booleans and durations are errors.
func ApplyEnvToConfig(cfg *Config) error {
	if cfg == nil {
		return nil
	}
	for _, b := range envBindings(cfg) {
		v, ok := os.LookupEnv(EnvPrefix + b.key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		if err := b.set(strings.TrimSpace(v)); err != nil {
			return fmt.Errorf("config: %s%s: %w", EnvPrefix, b.key, err)
		}
	}
	return nil
}

func setString(dst *string) func(string) error {
	return func(v string) error {
		*dst = v
		return nil
	}
}

func setInt(dst *int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}

func setFloat(dst *float64) func(string) error {
	return func(v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*dst = f
		return nil
	}
}

func setDuration(dst *time.Duration) func(string) error {
	return func(v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*dst = d
		return nil
	}
}

func setBool(dst *bool) func(string) error {
	return func(v string) error {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "on":
			*dst = true
		case "0", "false", "no", "off":
			*dst = false
		default:
			return fmt.Errorf("invalid boolean %q", v)
		}
		return nil
	}
}

func setList(dst *[]string) func(string) error {
	return func(v string) error {
		*dst = splitList(v)
		return nil
	}
}

// splitList splits a comma separated value and drops blanks.
func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
