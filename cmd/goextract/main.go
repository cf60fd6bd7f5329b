package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hyperifyio/goextract/internal/app"
)

// configError marks failures that exit with status 2.
type configError struct{ err error }

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(err))
}

// exitCode maps run errors: 2 for configuration problems, 1 for any other
// failure including runs that extracted nothing.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ce *configError
	if errors.As(err, &ce) {
		log.Error().Err(err).Msg("invalid configuration")
		return 2
	}
	if errors.Is(err, app.ErrNoOutput) {
		log.Warn().Msg("no document extracted")
		return 1
	}
	log.Error().Err(err).Msg("run failed")
	return 1
}

func newRootCmd() *cobra.Command {
	cfg := app.DefaultConfig()
	var (
		configPath string
		envFiles   string
		blacklist  string
		precision  bool
		recall     bool
	)
	cmd := &cobra.Command{
		Use:   "goextract [inputs...]",
		Short: "Extract the main text and comments from web pages",
		Long: `goextract reads HTML files, directories of HTML files, standard input ("-")
or http(s) URLs, removes navigation and boilerplate and prints the main
content as text, csv, json, xml or xmltei.

Settings are read from defaults, then --config, then GOEXTRACT_* environment
variables, then flags.`,
		Version:       app.VersionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved, err := resolveConfig(cmd.Flags(), &cfg, configPath, envFiles)
			if err != nil {
				return &configError{err}
			}
			if blacklist != "" {
				resolved.URLBlacklist = splitList(blacklist)
			}
			switch {
			case precision && recall:
				return &configError{errors.New("--precision and --recall are mutually exclusive")}
			case precision:
				resolved.Focus = "precision"
			case recall:
				resolved.Focus = "recall"
			}
			resolved.Inputs = args
			if resolved.Verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			a, err := app.New(cmd.Context(), resolved)
			if err != nil {
				return &configError{err}
			}
			a.Stdin = cmd.InOrStdin()
			a.Stdout = cmd.OutOrStdout()
			return a.Run(cmd.Context())
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &configError{err}
	})

	f := cmd.Flags()
	f.StringVar(&configPath, "config", "", "YAML or JSON configuration file")
	f.StringVar(&envFiles, "env-file", ".env", "Comma-separated dotenv files loaded before reading GOEXTRACT_* variables")
	f.StringVarP(&cfg.Format, "output-format", "f", cfg.Format, "Output format: text, csv, json, xml or xmltei")
	f.StringVarP(&cfg.OutputDir, "output-dir", "o", cfg.OutputDir, "Write one file per document into this directory instead of stdout")
	f.StringVar(&cfg.ManifestPath, "manifest", cfg.ManifestPath, "Write a JSON manifest of all inputs and their outcome")
	f.StringVar(&cfg.MetricsPath, "metrics.out", cfg.MetricsPath, "Write Prometheus metrics in textfile format after the run")

	f.BoolVar(&cfg.IncludeComments, "comments", cfg.IncludeComments, "Extract comments along with the main text")
	f.BoolVar(&cfg.IncludeTables, "tables", cfg.IncludeTables, "Keep table content")
	f.BoolVar(&cfg.IncludeImages, "images", cfg.IncludeImages, "Keep images (experimental)")
	f.BoolVar(&cfg.IncludeFormatting, "formatting", cfg.IncludeFormatting, "Keep structural formatting such as bold and italics")
	f.BoolVar(&cfg.IncludeLinks, "links", cfg.IncludeLinks, "Keep links along with their targets")
	f.StringVar(&cfg.TargetLanguage, "target-language", cfg.TargetLanguage, "Only keep documents in this language (ISO 639-1)")
	f.StringVar(&cfg.Focus, "focus", cfg.Focus, "Extraction focus: balanced, precision or recall")
	f.BoolVar(&precision, "precision", false, "Favour precision: less text but fewer boilerplate leftovers")
	f.BoolVar(&recall, "recall", false, "Favour recall: more text even when unsure")
	f.BoolVar(&cfg.SkipFallback, "fast", cfg.SkipFallback, "Skip the fallback extractors and use the faster baseline rescue")
	f.Float64Var(&cfg.FallbackRatio, "fallback-ratio", cfg.FallbackRatio, "Length ratio above which a fallback result replaces the primary one")
	f.StringVar(&cfg.RecordID, "record-id", cfg.RecordID, "Record id added to the metadata")
	f.StringVar(&cfg.OriginalURL, "url", cfg.OriginalURL, "Source URL assumed for files and stdin")
	f.StringVar(&cfg.PruneSelector, "prune-selector", cfg.PruneSelector, "CSS selector group removed before extraction")
	f.StringVar(&blacklist, "url-blacklist", "", "Comma-separated URLs whose documents are discarded")
	f.BoolVar(&cfg.WithMetadata, "with-metadata", cfg.WithMetadata, "Only keep documents that have a title, date and URL")

	f.IntVar(&cfg.MinExtractedSize, "min-extracted-size", cfg.MinExtractedSize, "Text length below which fallbacks are tried")
	f.IntVar(&cfg.MinExtractedCommentSize, "min-extracted-comm-size", cfg.MinExtractedCommentSize, "Comment length below which comments are reported as insufficient")
	f.IntVar(&cfg.MinOutputSize, "min-output-size", cfg.MinOutputSize, "Minimum text length of an accepted document")
	f.IntVar(&cfg.MinOutputCommentSize, "min-output-comm-size", cfg.MinOutputCommentSize, "Minimum comment length that keeps a document with short text")
	f.IntVar(&cfg.MaxTreeSize, "max-tree-size", cfg.MaxTreeSize, "Discard documents with more output elements (0 disables)")

	f.BoolVar(&cfg.Deduplicate, "dedup", cfg.Deduplicate, "Drop repeated segments and documents")
	f.IntVar(&cfg.CacheSize, "cache-size", cfg.CacheSize, "Number of text hashes remembered for deduplication")
	f.IntVar(&cfg.MaxDuplicateCount, "max-repetitions", cfg.MaxDuplicateCount, "Sightings allowed before a segment counts as duplicate")
	f.IntVar(&cfg.MinDuplicateCheckSize, "min-duplcheck-size", cfg.MinDuplicateCheckSize, "Shortest segment checked for duplicates")

	f.IntVar(&cfg.Workers, "workers", cfg.Workers, "Documents processed in parallel")
	f.StringVar(&cfg.UserAgent, "user-agent", cfg.UserAgent, "User-Agent for URL inputs")
	f.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Per-request timeout for URL inputs")
	f.StringVar(&cfg.CacheDir, "cache.dir", cfg.CacheDir, "Directory caching fetched pages (empty disables)")
	f.DurationVar(&cfg.CacheMaxAge, "cache.maxAge", cfg.CacheMaxAge, "Purge cached pages older than this before the run (0 keeps all)")
	f.BoolVar(&cfg.RespectRobots, "robots", cfg.RespectRobots, "Skip URLs that robots.txt disallows for the user agent")
	f.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose logging")
	return cmd
}

// resolveConfig layers defaults, the config file and the environment under
// the flags the user set explicitly. cfg is the struct the flags are bound
// to; it receives the result.
func resolveConfig(fs *pflag.FlagSet, cfg *app.Config, configPath, envFiles string) (app.Config, error) {
	changed := map[string]string{}
	fs.Visit(func(f *pflag.Flag) {
		changed[f.Name] = f.Value.String()
	})

	if err := app.LoadEnvFiles(splitList(envFiles)...); err != nil {
		return app.Config{}, fmt.Errorf("load env files: %w", err)
	}
	base := app.DefaultConfig()
	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			return app.Config{}, fmt.Errorf("config file: %w", err)
		}
		app.ApplyFileConfig(&base, fc)
	}
	if err := app.ApplyEnvToConfig(&base); err != nil {
		return app.Config{}, err
	}
	*cfg = base
	for name, v := range changed {
		if err := fs.Set(name, v); err != nil {
			return app.Config{}, fmt.Errorf("flag --%s: %w", name, err)
		}
	}
	return *cfg, nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
