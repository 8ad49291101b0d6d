package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/matsen/arxreg/internal/arxiv"
	"github.com/matsen/arxreg/internal/export"
	"github.com/spf13/cobra"
)

var (
	fetchBibRefresh bool
	fetchBibSleepS  float64
	fetchBibPrint   bool
	fetchBibOutBib  string
)

func init() {
	fetchBibtexCmd.Flags().BoolVar(&fetchBibRefresh, "refresh", false, "Force a network fetch (ignore cached BibTeX)")
	fetchBibtexCmd.Flags().Float64Var(&fetchBibSleepS, "sleep-s", 0, "Sleep between requests in seconds")
	fetchBibtexCmd.Flags().BoolVar(&fetchBibPrint, "print-bibtex", false, "Print the BibTeX entries to stdout")
	fetchBibtexCmd.Flags().StringVar(&fetchBibOutBib, "out-bib", "", "Append fetched BibTeX to this .bib file (no de-dup; the registry stays canonical)")
	rootCmd.AddCommand(fetchBibtexCmd)
}

var fetchBibtexCmd = &cobra.Command{
	Use:   "fetch-bibtex <arxiv-id>...",
	Short: "Fetch and cache arXiv BibTeX for one or more IDs",
	Long: `Fetch arXiv BibTeX for one or more arXiv IDs and cache it in the registry.

IDs may be bare ("2301.04104"), versioned, or full abs/pdf URLs. A failed
fetch is warned and the batch continues.

Examples:
  arxreg fetch-bibtex 2301.04104
  arxreg fetch-bibtex https://arxiv.org/abs/2301.04104v2 --print-bibtex`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFetchBibtex,
}

// FetchBibtexResponse is the fetch-bibtex command's JSON output.
type FetchBibtexResponse struct {
	Status  string `json:"status"`
	Fetched int    `json:"fetched"`
	Failed  int    `json:"failed"`
}

func runFetchBibtex(cmd *cobra.Command, args []string) error {
	ids := cleanIDArgs(args)
	if len(ids) == 0 {
		exitWithError(ExitUsage, "provide at least one arXiv id")
	}

	store := mustOpenRegistry(true)
	defer store.Close()
	resolver := newResolver(store)

	fetched, failed := 0, 0
	for _, raw := range ids {
		arxivID, _ := arxiv.NormalizeID(raw)

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout())
		workID, err := resolver.EnsureWork(ctx, arxivID)
		if err != nil {
			cancel()
			warnf("could not fetch metadata for %s: %v", arxivID, err)
			failed++
			continue
		}

		text, err := resolver.EnsureBibTeX(ctx, arxivID, workID, fetchBibRefresh)
		cancel()
		if err != nil {
			warnf("could not fetch BibTeX for %s: %v", arxivID, err)
			failed++
			continue
		}
		fetched++

		if fetchBibOutBib != "" {
			if err := export.Append(fetchBibOutBib, text); err != nil {
				exitWithError(ExitError, "%v", err)
			}
		}
		if fetchBibPrint {
			fmt.Println(strings.TrimRight(text, "\n"))
			fmt.Println()
		}

		sleepBetween(fetchBibSleepS)
	}

	if humanOutput {
		fmt.Printf("BibTeX fetch complete: fetched=%d failed=%d\n", fetched, failed)
	} else {
		outputJSON(FetchBibtexResponse{Status: "complete", Fetched: fetched, Failed: failed})
	}
	return nil
}

// cleanIDArgs trims argument whitespace and drops empty entries.
func cleanIDArgs(args []string) []string {
	var ids []string
	for _, a := range args {
		if s := strings.TrimSpace(a); s != "" {
			ids = append(ids, s)
		}
	}
	return ids
}
