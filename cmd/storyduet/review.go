package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"storyduet/internal/config"
	"storyduet/internal/logging"
)

var reviewCount int

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Show recent generations from the call log",
	RunE:  runReview,
}

func init() {
	reviewCmd.Flags().IntVarP(&reviewCount, "count", "n", 10, "number of generations to show")
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	calls, err := logging.Open(cfg.CallLogPath)
	if err != nil {
		return fmt.Errorf("failed to open call log: %w", err)
	}
	defer calls.Close()

	recent, err := calls.Recent(reviewCount)
	if err != nil {
		return err
	}
	if len(recent) == 0 {
		fmt.Println(dimStyle.Render("記録がありません"))
		return nil
	}

	for _, call := range recent {
		header := fmt.Sprintf("#%d  %s  %s  %s  %dms",
			call.ID, call.Timestamp.Format("2006-01-02 15:04:05"), call.Operation, call.Model, call.DurationMS)
		fmt.Println(headerStyle.Render(header))
		if call.RunID != "" {
			fmt.Println(dimStyle.Render("  run " + call.RunID))
		}
		if call.Error != "" {
			fmt.Println(errorStyle.Render("  error: " + call.Error))
		} else {
			fmt.Println("  " + truncate(call.Response, 80))
		}
		fmt.Println()
	}
	return nil
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
