package main

import (
	"context"
	"fmt"
	"time"

	"github.com/matsen/arxreg/internal/arxiv"
	"github.com/matsen/arxreg/internal/registry"
	"github.com/spf13/cobra"
)

var (
	searchStart      int
	searchMaxResults int
	searchSortBy     string
	searchSortOrder  string
	searchCacheTTLS  int
	searchRefresh    bool
	searchPrint      int
)

func init() {
	searchCmd.Flags().IntVar(&searchStart, "start", 0, "Start offset")
	searchCmd.Flags().IntVar(&searchMaxResults, "max-results", arxiv.DefaultMaxResults, "Maximum results per page")
	searchCmd.Flags().StringVar(&searchSortBy, "sort-by", arxiv.SortRelevance, "Sort criterion (relevance, lastUpdatedDate, submittedDate)")
	searchCmd.Flags().StringVar(&searchSortOrder, "sort-order", arxiv.OrderDescending, "Sort order (ascending, descending)")
	searchCmd.Flags().IntVar(&searchCacheTTLS, "cache-ttl-s", -1, "Reuse a cached identical search younger than this many seconds (0 disables; default: 86400)")
	searchCmd.Flags().BoolVar(&searchRefresh, "refresh", false, "Force a network fetch (bypass the search cache)")
	searchCmd.Flags().IntVar(&searchPrint, "print", 5, "Include the first N results in the output (0 disables)")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run an arXiv API search and store results",
	Long: `Run an arXiv API search and store the results in the registry.

The raw response, the parsed works, and their rank order are all persisted.
An identical recent search is replayed from the registry instead of hitting
the network.

Examples:
  arxreg search 'all:"world models" AND cat:cs.LG' --max-results 5
  arxreg search 'ti:transformer' --sort-by submittedDate --refresh`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

// SearchResultSummary is one ranked result in search command output.
type SearchResultSummary struct {
	ArxivID string `json:"arxiv_id_versioned"`
	Title   string `json:"title"`
}

// SearchResponse is the search command's JSON output.
type SearchResponse struct {
	Status       string                `json:"status"` // stored, cache_hit
	SearchID     int64                 `json:"search_id"`
	ResultCount  int                   `json:"result_count"`
	TotalResults *int                  `json:"total_results"`
	Results      []SearchResultSummary `json:"results,omitempty"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	params := arxiv.SearchParams{
		Query:      args[0],
		Start:      searchStart,
		MaxResults: searchMaxResults,
		SortBy:     searchSortBy,
		SortOrder:  searchSortOrder,
	}
	if err := params.Validate(); err != nil {
		exitWithError(ExitUsage, "%v", err)
	}

	ttlS := searchCacheTTLS
	if ttlS < 0 {
		ttlS = defaultCacheTTL()
	}

	store := mustOpenRegistry(true)
	defer store.Close()

	if !searchRefresh {
		cached, err := store.FindCachedSearch(params, time.Duration(ttlS)*time.Second)
		if err != nil {
			exitWithError(ExitError, "checking search cache: %v", err)
		}
		if cached != nil {
			// Replay the stored raw response so a hit is byte-identical
			// to the original fetch.
			meta, entries, err := arxiv.ParseFeed(cached.RawXML)
			if err != nil {
				exitWithError(ExitError, "decoding cached search: %v", err)
			}
			emitSearch("cache_hit", cached.SearchID, meta, entries)
			return nil
		}
	}

	client := newClient()
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout())
	defer cancel()

	resp, err := client.Search(ctx, params)
	if err != nil {
		exitWithError(ExitError, "fetching search: %v", err)
	}
	if err := store.LogFetch(registry.FetchKindSearch, resp.URL, resp.Status, resp.Body); err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if len(resp.Body) == 0 {
		exitWithError(ExitUsage, "empty response (status=%d) from %s", resp.Status, resp.URL)
	}

	meta, entries, err := arxiv.ParseFeed(resp.Body)
	if err != nil {
		exitWithError(ExitError, "parsing search response: %v", err)
	}

	searchID, err := store.RecordSearch(params, resp.URL, meta, resp.Body, entries)
	if err != nil {
		exitWithError(ExitError, "storing search: %v", err)
	}

	emitSearch("stored", searchID, meta, entries)
	return nil
}

func emitSearch(status string, searchID int64, meta arxiv.Meta, entries []arxiv.Entry) {
	out := SearchResponse{
		Status:       status,
		SearchID:     searchID,
		ResultCount:  len(entries),
		TotalResults: meta.TotalResults,
	}
	shown := entries
	if searchPrint >= 0 && len(shown) > searchPrint {
		shown = shown[:searchPrint]
	}
	for _, e := range shown {
		out.Results = append(out.Results, SearchResultSummary{
			ArxivID: e.ArxivIDVersioned,
			Title:   e.Title,
		})
	}

	if humanOutput {
		total := "?"
		if meta.TotalResults != nil {
			total = fmt.Sprintf("%d", *meta.TotalResults)
		}
		verb := "stored"
		if status == "cache_hit" {
			verb = "cache hit"
		}
		fmt.Printf("Search %s: search_id=%d results=%d total=%s\n", verb, searchID, len(entries), total)
		for _, r := range out.Results {
			fmt.Printf("- %s | %s\n", r.ArxivID, truncateString(r.Title, 70))
		}
	} else {
		outputJSON(out)
	}
}
