package app

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// manifestEntry is a compact record of one processed input.
type manifestEntry struct {
	Index       int    `json:"index"`
	Input       string `json:"input"`
	URL         string `json:"url,omitempty"`
	Outcome     string `json:"outcome"`
	Source      string `json:"source,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	SHA256      string `json:"sha256,omitempty"`
	Chars       int    `json:"chars"`
	Path        string `json:"path,omitempty"`
	Error       string `json:"error,omitempty"`
}

// manifestMeta captures run details that aid reproducibility.
type manifestMeta struct {
	Version     string    `json:"version"`
	Format      string    `json:"format"`
	Inputs      int       `json:"inputs"`
	Accepted    int       `json:"accepted"`
	Dedup       bool      `json:"dedup"`
	Fallback    bool      `json:"fallback"`
	GeneratedAt time.Time `json:"generated_at"`
}

func computeSHA256Hex(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

func buildManifestEntries(results []Result) []manifestEntry {
	out := make([]manifestEntry, 0, len(results))
	for i, r := range results {
		e := manifestEntry{
			Index:       i + 1,
			Input:       r.Input,
			URL:         r.URL,
			Outcome:     r.Outcome,
			Source:      r.Source,
			Fingerprint: r.Fingerprint,
			Chars:       r.Chars,
			Path:        r.Path,
		}
		if r.Output != "" {
			e.SHA256 = computeSHA256Hex(r.Output)
		}
		if r.Err != nil {
			e.Error = r.Err.Error()
		}
		out = append(out, e)
	}
	return out
}

func marshalManifestJSON(meta manifestMeta, entries []manifestEntry) ([]byte, error) {
	payload := struct {
		Meta    manifestMeta    `json:"meta"`
		Results []manifestEntry `json:"results"`
	}{Meta: meta, Results: entries}
	return json.MarshalIndent(payload, "", "  ")
}

func writeManifest(path string, meta manifestMeta, results []Result) error {
	b, err := marshalManifestJSON(meta, buildManifestEntries(results))
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
