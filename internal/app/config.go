package app

import (
	"time"

	"github.com/hyperifyio/goextract/internal/arbitrate"
	"github.com/hyperifyio/goextract/internal/cache"
	"github.com/hyperifyio/goextract/internal/extract"
	"github.com/hyperifyio/goextract/internal/pipeline"
	"github.com/hyperifyio/goextract/internal/serialize"
)

// Config holds runtime configuration for the application.
type Config struct {
	Inputs []string
	// OutputDir receives one file per document; empty writes to stdout.
	OutputDir    string
	Format       string
	ManifestPath string
	MetricsPath  string

	// Extraction
	IncludeComments   bool
	IncludeTables     bool
	IncludeImages     bool
	IncludeFormatting bool
	IncludeLinks      bool
	// Focus is balanced, precision or recall.
	Focus                   string
	TargetLanguage          string
	MinExtractedSize        int
	MinExtractedCommentSize int
	MinOutputSize           int
	MinOutputCommentSize    int
	MaxTreeSize             int
	FallbackRatio           float64
	SkipFallback            bool
	RecordID                string
	OriginalURL             string
	PruneSelector           string
	URLBlacklist            []string
	WithMetadata            bool

	// Deduplication
	Deduplicate           bool
	CacheSize             int
	MaxDuplicateCount     int
	MinDuplicateCheckSize int

	// Fetching
	Workers     int
	UserAgent   string
	Timeout     time.Duration
	CacheDir    string
	CacheMaxAge time.Duration
	// RespectRobots skips URL inputs that robots.txt disallows.
	RespectRobots bool

	Verbose bool
}

// DefaultUserAgent identifies the fetcher.
const DefaultUserAgent = "goextract/1.0 (+https://github.com/hyperifyio/goextract)"

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Format:                  string(serialize.Text),
		IncludeComments:         true,
		IncludeTables:           true,
		Focus:                   extract.Balanced.String(),
		MinExtractedSize:        arbitrate.DefaultMinExtractedSize,
		MinExtractedCommentSize: 1,
		MinOutputSize:           arbitrate.DefaultMinOutputSize,
		MinOutputCommentSize:    arbitrate.DefaultMinOutputCommentSize,
		FallbackRatio:           arbitrate.DefaultFallbackRatio,
		CacheSize:               cache.DefaultCapacity,
		MaxDuplicateCount:       cache.DefaultRepetitionLimit,
		MinDuplicateCheckSize:   cache.DefaultMinCheckSize,
		Workers:                 4,
		UserAgent:               DefaultUserAgent,
		Timeout:                 30 * time.Second,
	}
}

// PipelineOptions converts the configuration for the extraction pipeline.
// The format and focus must already be valid.
func (c Config) PipelineOptions() pipeline.Options {
	focus, _ := extract.ParseFocus(c.Focus)
	return pipeline.Options{
		Format:                  serialize.Format(c.Format),
		IncludeComments:         c.IncludeComments,
		IncludeTables:           c.IncludeTables,
		IncludeImages:           c.IncludeImages,
		IncludeFormatting:       c.IncludeFormatting,
		IncludeLinks:            c.IncludeLinks,
		Deduplicate:             c.Deduplicate,
		Focus:                   focus,
		TargetLanguage:          c.TargetLanguage,
		MinExtractedSize:        c.MinExtractedSize,
		MinExtractedCommentSize: c.MinExtractedCommentSize,
		MinOutputSize:           c.MinOutputSize,
		MinOutputCommentSize:    c.MinOutputCommentSize,
		MaxTreeSize:             c.MaxTreeSize,
		FallbackRatio:           c.FallbackRatio,
		SkipFallback:            c.SkipFallback,
		RecordID:                c.RecordID,
		OriginalURL:             c.OriginalURL,
		PruneSelector:           c.PruneSelector,
		URLBlacklist:            c.URLBlacklist,
		WithMetadata:            c.WithMetadata,
	}
}
