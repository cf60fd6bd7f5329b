package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/sync/errgroup"

	"github.com/hyperifyio/goextract/internal/fetch"
	"github.com/hyperifyio/goextract/internal/meta"
	"github.com/hyperifyio/goextract/internal/pipeline"
)

// StdinInput names standard input on the command line.
const StdinInput = "-"

// htmlExtensions are the files picked up when a directory is given.
var htmlExtensions = []string{".html", ".htm", ".xhtml"}

// Result is the outcome for one input.
type Result struct {
	Input string
	// Output is the rendered document, empty unless accepted.
	Output string
	// Outcome is "accepted", a rejection kind or "error".
	Outcome     string
	Err         error
	URL         string
	Fingerprint string
	Chars       int
	Source      string
	// Path is where Output was written, when written to a file.
	Path string
}

// Accepted reports whether the input produced output.
func (r Result) Accepted() bool { return r.Err == nil && r.Output != "" }

// Runner extracts many inputs concurrently through one pipeline, sharing
// its dedup cache.
type Runner struct {
	Extractor *pipeline.Extractor
	Fetcher   *fetch.Client
	Workers   int
	Stdin     io.Reader
	// PageURL is the URL assumed for local files.
	PageURL string
}

// Run processes inputs and returns one Result per input in input order.
// Per-input failures are reported in the results; the error is non-nil
// only when ctx is cancelled.
func (r *Runner) Run(ctx context.Context, inputs []string) ([]Result, error) {
	results := make([]Result, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.Workers, 1))
	for i, in := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = r.process(ctx, in)
			return nil
		})
	}
	err := g.Wait()
	return results, err
}

func (r *Runner) process(ctx context.Context, input string) Result {
	res := Result{Input: input}
	body, contentType, pageURL, err := r.load(ctx, input)
	if err != nil {
		return failed(res, err)
	}
	res.URL = pageURL
	doc, err := parseHTML(body, contentType)
	if err != nil {
		return failed(res, err)
	}
	d, err := r.Extractor.Extract(doc, meta.FromDocument(doc, pageURL))
	if err != nil {
		res.Err = err
		res.Outcome = pipeline.KindOf(err).String()
		if !errors.Is(err, pipeline.ErrRejected) {
			res.Outcome = "error"
		}
		return res
	}
	out, err := r.Extractor.Render(d)
	if err != nil {
		return failed(res, err)
	}
	res.Output = out
	res.Outcome = "accepted"
	res.Fingerprint = meta.Value(d.Metadata.Fingerprint)
	res.Chars = utf8.RuneCountInString(d.Text)
	res.Source = d.Source
	if u := meta.Value(d.Metadata.URL); u != "" {
		res.URL = u
	}
	return res
}

func failed(res Result, err error) Result {
	log.Warn().Err(err).Str("input", res.Input).Msg("input failed")
	res.Err = err
	res.Outcome = "error"
	return res
}

// load returns the raw bytes of an input with its content type and URL.
func (r *Runner) load(ctx context.Context, input string) ([]byte, string, string, error) {
	switch {
	case input == StdinInput:
		if r.Stdin == nil {
			return nil, "", "", errors.New("stdin not available")
		}
		b, err := io.ReadAll(r.Stdin)
		if err != nil {
			return nil, "", "", fmt.Errorf("read stdin: %w", err)
		}
		return b, "", r.PageURL, nil
	case isURL(input):
		if r.Fetcher == nil {
			return nil, "", "", fmt.Errorf("no fetcher configured for %s", input)
		}
		page, err := r.Fetcher.Get(ctx, input)
		if err != nil {
			return nil, "", "", err
		}
		return page.Body, page.ContentType, page.URL, nil
	default:
		b, err := os.ReadFile(input)
		if err != nil {
			return nil, "", "", fmt.Errorf("read input: %w", err)
		}
		return b, "", r.PageURL, nil
	}
}

// parseHTML decodes body to UTF-8 using the content type, BOM or meta
// declaration and parses it.
func parseHTML(body []byte, contentType string) (*html.Node, error) {
	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, fmt.Errorf("decode charset: %w", err)
	}
	doc, err := html.Parse(reader)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

func isURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// ExpandInputs replaces directories with the HTML files below them, sorted
// by path. Files, URLs and stdin pass through unchanged.
func ExpandInputs(inputs []string) ([]string, error) {
	var out []string
	for _, in := range inputs {
		if in == StdinInput || isURL(in) {
			out = append(out, in)
			continue
		}
		info, err := os.Stat(in)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", in, err)
		}
		if !info.IsDir() {
			out = append(out, in)
			continue
		}
		var files []string
		err = filepath.WalkDir(in, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && slices.Contains(htmlExtensions, strings.ToLower(filepath.Ext(path))) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", in, err)
		}
		slices.Sort(files)
		out = append(out, files...)
	}
	return out, nil
}
