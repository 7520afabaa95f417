package dialogue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type transcriptDocument struct {
	Theme     string       `json:"theme"`
	Context   StoryContext `json:"context"`
	Dialogue  []TurnEntry  `json:"dialogue"`
	Analysis  Analysis     `json:"analysis"`
	Timestamp string       `json:"timestamp"`
}

// WriteTranscript serializes a run to dir/dialogue_<YYYYMMDD_HHMMSS>.json
// and returns the written path. The timestamp field carries the same compact
// stamp as the filename. Each run produces an independent file; there are no
// merge semantics. HTML escaping is off so Japanese text stays readable in
// the artifact.
func WriteTranscript(dir string, result *RunResult) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	stamp := result.StartedAt.Format("20060102_150405")
	doc := transcriptDocument{
		Theme:     result.Theme,
		Context:   result.Context,
		Dialogue:  result.Transcript,
		Analysis:  result.Analysis,
		Timestamp: stamp,
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("encoding transcript: %w", err)
	}

	name := fmt.Sprintf("dialogue_%s.json", stamp)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("writing transcript: %w", err)
	}
	return path, nil
}
