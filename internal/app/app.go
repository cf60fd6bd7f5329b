// Package app wires configuration, fetching, extraction and output for the
// command line.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goextract/internal/cache"
	"github.com/hyperifyio/goextract/internal/fetch"
	"github.com/hyperifyio/goextract/internal/metrics"
	"github.com/hyperifyio/goextract/internal/pipeline"
	"github.com/hyperifyio/goextract/internal/robots"
	"github.com/hyperifyio/goextract/internal/serialize"
)

// ErrNoOutput is returned when no input produced a document.
var ErrNoOutput = errors.New("no document extracted")

// App is one configured run.
type App struct {
	cfg    Config
	runner *Runner
	pages  *cache.PageCache
	// Stdin and Stdout default to the process streams.
	Stdin  io.Reader
	Stdout io.Writer
}

// New validates cfg and builds the pipeline and fetcher.
func New(_ context.Context, cfg Config) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	var dedup *cache.Dedup
	if cfg.Deduplicate {
		dedup = cache.NewDedup(cfg.CacheSize, cfg.MaxDuplicateCount, cfg.MinDuplicateCheckSize)
	}
	ex, err := pipeline.New(cfg.PipelineOptions(), pipeline.Deps{Dedup: dedup})
	if err != nil {
		return nil, fmt.Errorf("init pipeline: %w", err)
	}
	a := &App{cfg: cfg, Stdin: os.Stdin, Stdout: os.Stdout}
	if strings.TrimSpace(cfg.CacheDir) != "" {
		a.pages = &cache.PageCache{Dir: cfg.CacheDir}
	}
	httpClient := newHTTPClient(cfg.Timeout)
	fetcher := &fetch.Client{
		HTTPClient:        httpClient,
		UserAgent:         cfg.UserAgent,
		MaxAttempts:       2,
		PerRequestTimeout: cfg.Timeout,
		Cache:             a.pages,
		MaxConcurrent:     cfg.Workers,
	}
	if cfg.RespectRobots {
		fetcher.Robots = &robots.Manager{HTTPClient: httpClient, UserAgent: cfg.UserAgent}
	}
	a.runner = &Runner{
		Extractor: ex,
		Fetcher:   fetcher,
		Workers:   cfg.Workers,
		PageURL:   cfg.OriginalURL,
	}
	return a, nil
}

// Run processes every input, writes the outputs and the optional manifest
// and metrics files.
func (a *App) Run(ctx context.Context) error {
	inputs, err := ExpandInputs(a.cfg.Inputs)
	if err != nil {
		return err
	}
	if a.pages != nil && a.cfg.CacheMaxAge > 0 {
		if n, err := a.pages.Purge(a.cfg.CacheMaxAge); err != nil {
			log.Warn().Err(err).Msg("page cache purge failed")
		} else if n > 0 {
			log.Debug().Int("removed", n).Msg("purged page cache")
		}
	}

	a.runner.Stdin = a.Stdin
	start := time.Now()
	results, err := a.runner.Run(ctx, inputs)
	if err != nil {
		return err
	}
	accepted, err := a.writeOutputs(results)
	if err != nil {
		return err
	}
	log.Info().Int("inputs", len(results)).Int("accepted", accepted).
		Dur("elapsed", time.Since(start)).Msg("extraction finished")

	if a.cfg.ManifestPath != "" {
		meta := manifestMeta{
			Version:     BuildVersion,
			Format:      a.cfg.Format,
			Inputs:      len(results),
			Accepted:    accepted,
			Dedup:       a.cfg.Deduplicate,
			Fallback:    !a.cfg.SkipFallback,
			GeneratedAt: time.Now().UTC(),
		}
		if err := writeManifest(a.cfg.ManifestPath, meta, results); err != nil {
			return err
		}
	}
	if a.cfg.MetricsPath != "" {
		if err := metrics.WriteTextfile(a.cfg.MetricsPath); err != nil {
			return err
		}
	}
	if accepted == 0 {
		return ErrNoOutput
	}
	return nil
}

// writeOutputs writes accepted documents either as files under OutputDir or
// to Stdout in input order, and returns how many were written.
func (a *App) writeOutputs(results []Result) (int, error) {
	format := serialize.Format(a.cfg.Format)
	if a.cfg.OutputDir != "" {
		if err := os.MkdirAll(a.cfg.OutputDir, 0o755); err != nil {
			return 0, fmt.Errorf("create output dir: %w", err)
		}
	}
	n := 0
	for i := range results {
		r := &results[i]
		if !r.Accepted() {
			continue
		}
		out := r.Output
		if !strings.HasSuffix(out, "\n") {
			out += "\n"
		}
		if a.cfg.OutputDir == "" {
			if _, err := io.WriteString(a.Stdout, out); err != nil {
				return n, fmt.Errorf("write output: %w", err)
			}
		} else {
			r.Path = deriveOutputPath(a.cfg.OutputDir, r.Input, format)
			if err := os.WriteFile(r.Path, []byte(out), 0o644); err != nil {
				return n, fmt.Errorf("write %s: %w", r.Path, err)
			}
		}
		n++
	}
	return n, nil
}
