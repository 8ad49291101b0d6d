package main

import (
	"context"

	"github.com/matsen/arxreg/internal/arxiv"
	"github.com/spf13/cobra"
)

var (
	getFetchMissing bool
	getEnsureKey    bool
)

func init() {
	getCmd.Flags().BoolVar(&getFetchMissing, "fetch-missing", false, "Fetch metadata from arXiv if missing from the registry")
	getCmd.Flags().BoolVar(&getEnsureKey, "ensure-key", false, "Ensure a citation key exists for each work (stored in the registry)")
	rootCmd.AddCommand(getCmd)
}

var getCmd = &cobra.Command{
	Use:   "get <arxiv-id>...",
	Short: "Get registry metadata for one or more arXiv IDs",
	Long: `Get registry metadata for one or more arXiv IDs, one JSON record per line.

An ID that is not in the registry emits an error record and the batch
continues.

Examples:
  arxreg get 2301.04104
  arxreg get 2301.04104 2210.03629 --fetch-missing --ensure-key`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGet,
}

// GetErrorLine is emitted for identifiers the registry cannot resolve.
type GetErrorLine struct {
	ArxivID string `json:"arxiv_id"`
	Error   string `json:"error"`
}

func runGet(cmd *cobra.Command, args []string) error {
	ids := cleanIDArgs(args)
	if len(ids) == 0 {
		exitWithError(ExitUsage, "provide at least one arXiv id")
	}

	store := mustOpenRegistry(true)
	defer store.Close()
	resolver := newResolver(store)

	for _, raw := range ids {
		arxivID, _ := arxiv.NormalizeID(raw)

		workID, ok, err := store.FindWork(arxivID)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		if !ok && getFetchMissing {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout())
			workID, err = resolver.EnsureWork(ctx, arxivID)
			cancel()
			if err != nil {
				warnf("could not fetch metadata for %s: %v", arxivID, err)
			} else {
				ok = true
			}
		}
		if !ok {
			outputJSONLine(GetErrorLine{ArxivID: arxivID, Error: "not found"})
			continue
		}

		rec, err := store.Work(workID)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		if getEnsureKey {
			key, err := store.EnsureCitationKey(workID)
			if err != nil {
				exitWithError(ExitError, "%v", err)
			}
			rec.CitationKey = key
		}
		outputJSONLine(rec)
	}
	return nil
}
