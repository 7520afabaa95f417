package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	debugMode  bool
)

var rootCmd = &cobra.Command{
	Use:   "storyduet",
	Short: "Narrator/critic storytelling dialogues against a local LLM",
	Long: `storyduet drives a local Ollama model through a two-persona storytelling
dialogue: a narrator that tells the story and a critic that pushes back,
steered turn by turn by a rule-based director.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a JSON config file")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "write debug output to the debug log")
	rootCmd.SilenceErrors = true
}
