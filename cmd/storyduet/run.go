package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"storyduet/cmd/storyduet/ui"
	"storyduet/internal/dialogue"
	"storyduet/internal/llm"
	"storyduet/internal/observability"
)

var (
	runTheme string
	runTurns int
	runSeed  int64
	runOut   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a narrator/critic dialogue and export the transcript",
	RunE:  runDialogue,
}

func init() {
	runCmd.Flags().StringVar(&runTheme, "theme", "", "story theme (skips the interactive picker)")
	runCmd.Flags().IntVar(&runTurns, "turns", 0, "turn budget for the dialogue")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "seed for reproducible phrasing choices (0 uses the clock)")
	runCmd.Flags().StringVar(&runOut, "out", "", "directory for exported transcripts")
	rootCmd.AddCommand(runCmd)
}

func runDialogue(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, cleanup, err := createApp(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	cfg := application.cfg
	if runTurns > 0 {
		cfg.MaxTurns = runTurns
	}
	if runOut != "" {
		cfg.OutputDir = runOut
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	catalog, err := probeBackend(ctx, application)
	if err != nil {
		return err
	}
	for _, model := range []string{cfg.Models.Narrator.Model, cfg.Models.Critic.Model} {
		if !catalogHas(catalog, model) {
			fmt.Println(errorStyle.Render("❌ モデル " + model + " が見つかりません。"))
			fmt.Println(dimStyle.Render("   取得: ollama pull " + model))
			return fmt.Errorf("required model %s is not available", model)
		}
	}
	generatorParams := cfg.Models.Generator
	if !catalogHas(catalog, generatorParams.Model) {
		fmt.Println(dimStyle.Render(fmt.Sprintf("設定生成モデル %s が見つからないため %s を使います",
			generatorParams.Model, cfg.Models.GeneratorFallback)))
		generatorParams.Model = cfg.Models.GeneratorFallback
	}

	theme := strings.TrimSpace(runTheme)
	if theme == "" {
		theme, err = ui.Choose(cfg.ThemeList)
		if errors.Is(err, ui.ErrAborted) {
			fmt.Println(dimStyle.Render("中断しました"))
			return nil
		}
		if err != nil {
			return err
		}
	}

	runID := uuid.New().String()
	ctx = llm.WithRunID(ctx, runID)

	tracer := otel.Tracer("storyduet")
	ctx, span := tracer.Start(ctx, "dialogue.run", trace.WithAttributes(
		observability.CreateLangfuseAttributes("dialogue.run", runID, "", []string{"storyduet"})...,
	))
	defer span.End()

	store := dialogue.NewStore(application.llm, cfg.ThemePresets, generatorParams, cfg.Prompts, application.debug)
	orchestrator := dialogue.NewOrchestrator(application.llm, store, dialogue.RunConfig{
		Models:   cfg.Models,
		Prompts:  cfg.Prompts,
		MaxTurns: cfg.MaxTurns,
		Window:   cfg.HistoryWindow,
		Seed:     runSeed,
	}, consoleObserver{}, application.debug)

	fmt.Println()
	fmt.Println(headerStyle.Render("テーマ: " + theme))

	result, err := orchestrator.Run(ctx, theme)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Println()
			fmt.Println(warnStyle.Render("中断しました"))
			return nil
		}
		return err
	}

	printAnalysis(result.Analysis)

	path, err := dialogue.WriteTranscript(cfg.OutputDir, result)
	if err != nil {
		return fmt.Errorf("failed to export transcript: %w", err)
	}
	fmt.Println(successStyle.Render("💾 保存しました: " + path))
	return nil
}

// probeBackend checks connectivity once at startup and returns the model
// catalog. Unreachable backends get remediation text and a fatal error.
func probeBackend(ctx context.Context, application *app) ([]string, error) {
	catalog, err := application.llm.ListModels(ctx)
	if err != nil {
		fmt.Println(errorStyle.Render("❌ Ollamaに接続できません"))
		fmt.Println(dimStyle.Render("   状態確認: sudo systemctl status ollama"))
		fmt.Println(dimStyle.Render("   起動:     sudo systemctl start ollama"))
		return nil, fmt.Errorf("backend unreachable at %s: %w", application.cfg.BaseURL, err)
	}
	return catalog, nil
}

// catalogHas reports whether any catalog entry matches the wanted model by
// substring, so tags like gemma3:4b-it-qat still satisfy gemma3:4b.
func catalogHas(catalog []string, model string) bool {
	for _, id := range catalog {
		if strings.Contains(id, model) {
			return true
		}
	}
	return false
}

// consoleObserver renders run progress as it happens.
type consoleObserver struct{}

func (consoleObserver) ContextResolved(theme string, res dialogue.Resolved) {
	switch res.Origin {
	case dialogue.OriginPreset:
		fmt.Println(dimStyle.Render("📚 プリセット設定を使用"))
	case dialogue.OriginGenerated:
		fmt.Println(dimStyle.Render("🔍 テーマから設定を生成しました"))
	default:
		fmt.Println(dimStyle.Render("⚠️ 汎用設定を使用"))
	}
}

func (consoleObserver) InstructionChosen(turn int, ins dialogue.Instruction) {
	fmt.Println(dimStyle.Render(strings.Repeat("─", 40)))
	fmt.Println(dimStyle.Render(fmt.Sprintf("[ターン %d] 進行→%s: %s", turn+1, ins.Target.Label(), ins.Note)))
}

func (consoleObserver) LineSpoken(entry dialogue.TurnEntry) {
	switch entry.Role {
	case dialogue.RoleNarrator:
		fmt.Println(narratorStyle.Render("語り: ") + entry.Content)
	case dialogue.RoleCritic:
		fmt.Println(criticStyle.Render("批評: ") + entry.Content)
		if entry.Pattern == dialogue.PatternContradiction {
			fmt.Println(warnStyle.Render("  ⚠️ 矛盾指摘！"))
		}
	}
}

func (consoleObserver) GenerationFailed(turn int, role dialogue.Role, err error) {
	fmt.Println(errorStyle.Render(fmt.Sprintf("⚠️ %sの生成に失敗しました: %v", role.Label(), err)))
}

func printAnalysis(a dialogue.Analysis) {
	patterns := make([]string, 0, len(a.Patterns))
	for pattern := range a.Patterns {
		patterns = append(patterns, pattern)
	}
	sort.Strings(patterns)
	parts := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		parts = append(parts, fmt.Sprintf("%s×%d", pattern, a.Patterns[pattern]))
	}
	patternSummary := strings.Join(parts, " ")
	if patternSummary == "" {
		patternSummary = "-"
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("分析", "値").
		Row("総ターン数", fmt.Sprintf("%d", a.TotalTurns)).
		Row("矛盾指摘数", fmt.Sprintf("%d", a.Contradictions)).
		Row("批評パターン", patternSummary).
		Row("平均文字数（語り）", fmt.Sprintf("%.1f", a.AvgLength.Narrator)).
		Row("平均文字数（批評）", fmt.Sprintf("%.1f", a.AvgLength.Critic))

	fmt.Println()
	fmt.Println(t)
}
