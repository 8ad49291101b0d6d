// Package main provides the arxreg CLI entry point.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// Persistent flags shared by every subcommand.
var (
	humanOutput bool
	dbFlag      string
	projectDir  string
	timeoutS    int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "arxreg",
	Short: "arXiv discovery and BibTeX registry",
	Long: `arxreg is a deduplicating registry for arXiv paper metadata.

Discovery queries and parsed records are persisted in a local SQLite
registry so citation data, BibTeX text, and stable citation keys can be
regenerated without repeated network calls. Commands output JSON by
default for easy integration with other tools.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	_ = godotenv.Load()

	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&dbFlag, "db", "", "Registry sqlite path (overrides --project-dir)")
	rootCmd.PersistentFlags().StringVar(&projectDir, "project-dir", "", "Paper/project directory; defaults DB to <project-dir>/notes/arxiv-registry.sqlite3")
	rootCmd.PersistentFlags().IntVar(&timeoutS, "timeout-s", 0, "Network timeout in seconds (default: 20)")
	rootCmd.Version = Version
}
