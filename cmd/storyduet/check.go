package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"storyduet/internal/llm"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the Ollama backend and the required models",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, cleanup, err := createApp(ctx)
	if err != nil {
		return err
	}
	defer cleanup()
	cfg := application.cfg

	fmt.Println(headerStyle.Render("storyduet 環境チェック"))
	fmt.Println(dimStyle.Render("接続先: " + cfg.BaseURL))
	fmt.Println()

	catalog, err := application.llm.ListModels(ctx)
	if err != nil {
		fmt.Println(errorStyle.Render("❌ Ollamaに接続できません"))
		fmt.Println(dimStyle.Render("   状態確認: sudo systemctl status ollama"))
		fmt.Println(dimStyle.Render("   起動:     sudo systemctl start ollama"))
		return fmt.Errorf("backend unreachable at %s: %w", cfg.BaseURL, err)
	}
	fmt.Println(successStyle.Render("✅ 接続OK"))
	fmt.Println(dimStyle.Render(fmt.Sprintf("   利用可能なモデル: %d件", len(catalog))))
	for _, id := range catalog {
		fmt.Println(dimStyle.Render("   - " + id))
	}
	fmt.Println()

	ok := true
	for _, check := range []struct {
		label    string
		model    string
		required bool
	}{
		{"語り手", cfg.Models.Narrator.Model, true},
		{"批評家", cfg.Models.Critic.Model, true},
		{"設定生成", cfg.Models.Generator.Model, false},
	} {
		if catalogHas(catalog, check.model) {
			fmt.Println(successStyle.Render(fmt.Sprintf("✅ %s: %s", check.label, check.model)))
			continue
		}
		if check.required {
			ok = false
			fmt.Println(errorStyle.Render(fmt.Sprintf("❌ %s: %s が見つかりません", check.label, check.model)))
			fmt.Println(dimStyle.Render("   取得: ollama pull " + check.model))
		} else {
			fmt.Println(warnStyle.Render(fmt.Sprintf("⚠️ %s: %s が見つかりません（%s で代替します）",
				check.label, check.model, cfg.Models.GeneratorFallback)))
		}
	}
	fmt.Println()

	if ok {
		trial := cfg.Models.Narrator
		trial.MaxTokens = 1
		start := time.Now()
		_, err := application.llm.Chat(ctx, llm.ChatRequest{
			Params:    trial,
			System:    "一言で答えてください。",
			User:      "こんにちは",
			Operation: "check.trial",
		})
		if err != nil {
			ok = false
			fmt.Println(errorStyle.Render(fmt.Sprintf("❌ 試し生成に失敗しました: %v", err)))
		} else {
			fmt.Println(successStyle.Render(fmt.Sprintf("✅ 試し生成OK (%.1fs)", time.Since(start).Seconds())))
		}
	}

	if !ok {
		return fmt.Errorf("environment check failed")
	}
	fmt.Println()
	fmt.Println(successStyle.Render("すべてのチェックを通過しました"))
	return nil
}
