package dialogue

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"storyduet/internal/debug"
	"storyduet/internal/llm"
)

// Store resolves a theme to a story context: cached value first, then the
// keyword preset table, then model generation, then the generic fallback.
// Whatever is returned is cached under the exact theme string, so a theme
// resolves exactly once per run.
type Store struct {
	chat      Chatter
	presets   map[string]StoryContext
	generator llm.ModelParams
	prompts   PromptSet
	cache     map[string]Resolved
	debug     *debug.Logger
}

func NewStore(chat Chatter, presets map[string]StoryContext, generator llm.ModelParams, prompts PromptSet, dbg *debug.Logger) *Store {
	return &Store{
		chat:      chat,
		presets:   presets,
		generator: generator,
		prompts:   prompts,
		cache:     make(map[string]Resolved),
		debug:     dbg,
	}
}

// Resolve returns the story context for a theme. It never fails; generation
// or parse errors degrade to the generic fallback context.
func (s *Store) Resolve(ctx context.Context, theme string) Resolved {
	if res, ok := s.cache[theme]; ok {
		return res
	}

	// Preset keys are scanned in sorted order so overlapping keys resolve
	// deterministically.
	keys := make([]string, 0, len(s.presets))
	for key := range s.presets {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if strings.Contains(theme, key) {
			res := Resolved{Context: s.presets[key], Origin: OriginPreset}
			s.cache[theme] = res
			return res
		}
	}

	generated, err := s.generate(ctx, theme)
	if err != nil {
		if s.debug != nil {
			s.debug.Printf("context generation failed for %q: %v", theme, err)
		}
		res := Resolved{Context: FallbackContext(), Origin: OriginFallback}
		s.cache[theme] = res
		return res
	}

	res := Resolved{Context: generated, Origin: OriginGenerated}
	s.cache[theme] = res
	return res
}

func (s *Store) generate(ctx context.Context, theme string) (StoryContext, error) {
	reply, err := s.chat.Chat(ctx, llm.ChatRequest{
		Params:    s.generator,
		System:    s.prompts.GeneratorSystem,
		User:      s.prompts.GeneratorPrompt(theme),
		Operation: "context.generate",
	})
	if err != nil {
		return StoryContext{}, err
	}

	raw, ok := extractJSON(reply)
	if !ok {
		return StoryContext{}, fmt.Errorf("no JSON object in generator reply")
	}
	var sc StoryContext
	if err := json.Unmarshal([]byte(raw), &sc); err != nil {
		return StoryContext{}, fmt.Errorf("parsing generated context: %w", err)
	}
	return sc, nil
}

// extractJSON pulls the outermost {...} span out of a model reply, tolerating
// code fences and surrounding prose.
func extractJSON(text string) (string, bool) {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}
