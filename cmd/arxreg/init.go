package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the registry schema",
	Long: `Initialize the registry schema.

Creates the SQLite registry (default: <project>/notes/arxiv-registry.sqlite3)
and its tables. Safe to run repeatedly.`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	store := mustOpenRegistry(false)
	defer store.Close()

	if err := store.Init(); err != nil {
		exitWithError(ExitError, "initializing registry: %v", err)
	}

	if humanOutput {
		fmt.Printf("Initialized registry: %s\n", store.Path())
	} else {
		outputJSON(StatusResponse{Status: "initialized", Path: store.Path()})
	}
	return nil
}
