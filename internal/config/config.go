// Package config assembles the immutable run configuration: compiled-in
// defaults, then an optional JSON document, then STORYDUET_* environment
// overrides, validated once at startup. Components receive the resulting
// value explicitly; nothing mutates it afterward.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"storyduet/internal/dialogue"
	"storyduet/internal/llm"
)

type Config struct {
	BaseURL       string                           `json:"base_url"`
	APIKey        string                           `json:"api_key"`
	Models        dialogue.RoleModels              `json:"models"`
	MaxTurns      int                              `json:"max_turns"`
	HistoryWindow int                              `json:"history_window"`
	OutputDir     string                           `json:"output_dir"`
	CallLogPath   string                           `json:"call_log_path"`
	DebugLogPath  string                           `json:"debug_log_path"`
	Prompts       dialogue.PromptSet               `json:"prompts"`
	ThemePresets  map[string]dialogue.StoryContext `json:"themes_presets"`
	ThemeList     []string                         `json:"theme_list"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BaseURL:       llm.DefaultBaseURL,
		APIKey:        llm.DefaultAPIKey,
		Models:        dialogue.DefaultModels(),
		MaxTurns:      8,
		HistoryWindow: 4,
		OutputDir:     "outputs",
		CallLogPath:   "generations.db",
		DebugLogPath:  "debug.log",
		Prompts:       dialogue.DefaultPrompts(),
		ThemePresets:  dialogue.DefaultPresets(),
		ThemeList:     dialogue.DefaultThemes(),
	}
}

// Load builds the configuration from defaults, the optional JSON file at
// path, and the environment, then validates it. An empty path skips the
// file layer.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.BaseURL = getEnv("STORYDUET_BASE_URL", cfg.BaseURL)
	cfg.APIKey = getEnv("STORYDUET_API_KEY", cfg.APIKey)
	cfg.OutputDir = getEnv("STORYDUET_OUTPUT_DIR", cfg.OutputDir)
	cfg.CallLogPath = getEnv("STORYDUET_CALL_LOG", cfg.CallLogPath)
	cfg.DebugLogPath = getEnv("STORYDUET_DEBUG_LOG", cfg.DebugLogPath)
	cfg.Models.Narrator.Model = getEnv("STORYDUET_NARRATOR_MODEL", cfg.Models.Narrator.Model)
	cfg.Models.Critic.Model = getEnv("STORYDUET_CRITIC_MODEL", cfg.Models.Critic.Model)
	cfg.Models.Generator.Model = getEnv("STORYDUET_GENERATOR_MODEL", cfg.Models.Generator.Model)
	cfg.MaxTurns = getEnvInt("STORYDUET_MAX_TURNS", cfg.MaxTurns)
	cfg.HistoryWindow = getEnvInt("STORYDUET_HISTORY_WINDOW", cfg.HistoryWindow)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// Validate checks the configuration for values the run loop cannot work
// with. It returns the first problem found.
func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("base_url must not be empty")
	}
	if c.MaxTurns < 2 {
		return fmt.Errorf("max_turns must be at least 2, got %d", c.MaxTurns)
	}
	if c.HistoryWindow < 0 {
		return fmt.Errorf("history_window must not be negative, got %d", c.HistoryWindow)
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return fmt.Errorf("output_dir must not be empty")
	}

	roles := map[string]llm.ModelParams{
		"narrator":  c.Models.Narrator,
		"critic":    c.Models.Critic,
		"generator": c.Models.Generator,
	}
	for _, role := range []string{"narrator", "critic", "generator"} {
		params := roles[role]
		if strings.TrimSpace(params.Model) == "" {
			return fmt.Errorf("models.%s.model must not be empty", role)
		}
		if params.MaxTokens <= 0 {
			return fmt.Errorf("models.%s.max_tokens must be positive, got %d", role, params.MaxTokens)
		}
		if params.Temperature < 0 || params.Temperature > 2 {
			return fmt.Errorf("models.%s.temperature must be between 0 and 2, got %v", role, params.Temperature)
		}
		if params.TopP < 0 || params.TopP > 1 {
			return fmt.Errorf("models.%s.top_p must be between 0 and 1, got %v", role, params.TopP)
		}
	}
	if strings.TrimSpace(c.Models.GeneratorFallback) == "" {
		return fmt.Errorf("models.generator_fallback must not be empty")
	}

	if len(c.ThemeList) == 0 {
		return fmt.Errorf("theme_list must not be empty")
	}

	return c.Prompts.Validate()
}
