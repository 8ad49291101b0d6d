package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print basic registry stats",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	store := mustOpenRegistry(true)
	defer store.Close()

	st, err := store.Stats()
	if err != nil {
		exitWithError(ExitError, "reading stats: %v", err)
	}

	if humanOutput {
		fmt.Printf("works=%d authors=%d searches=%d bibtex=%d citation_keys=%d\n",
			st.Works, st.Authors, st.Searches, st.BibTeX, st.CitationKeys)
	} else {
		outputJSON(st)
	}
	return nil
}
