package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/matsen/arxreg/internal/arxiv"
	"github.com/matsen/arxreg/internal/pdf"
	"github.com/matsen/arxreg/internal/registry"
	"github.com/spf13/cobra"
)

var addPdfFetchBibtex bool

func init() {
	addPdfCmd.Flags().BoolVar(&addPdfFetchBibtex, "fetch-bibtex", false, "Also fetch and cache the BibTeX entry")
	rootCmd.AddCommand(addPdfCmd)
}

var addPdfCmd = &cobra.Command{
	Use:   "add-pdf <pdf-path>",
	Short: "Register a paper by extracting its arXiv ID from a PDF",
	Long: `Register a paper by extracting its arXiv ID from a local PDF file.

First looks for the arXiv stamp printed in the margin. If no ID is found,
falls back to extracting the title and searching arXiv for it.

Examples:
  arxreg add-pdf ~/papers/world-models.pdf
  arxreg add-pdf paper.pdf --fetch-bibtex`,
	Args: cobra.ExactArgs(1),
	RunE: runAddPdf,
}

// AddPdfResponse is the add-pdf command's JSON output.
type AddPdfResponse struct {
	Status   string `json:"status"` // added
	ArxivID  string `json:"arxiv_id"`
	WorkID   int64  `json:"work_id"`
	IDSource string `json:"id_source"` // stamp, title_search
}

func runAddPdf(cmd *cobra.Command, args []string) error {
	absPath, err := filepath.Abs(args[0])
	if err != nil {
		exitWithError(ExitError, "resolving path: %v", err)
	}
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		exitWithError(ExitUsage, "PDF not found: %s", absPath)
	}

	store := mustOpenRegistry(true)
	defer store.Close()
	resolver := newResolver(store)

	arxivID, idSource, err := identifyPdf(store, absPath)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if arxivID == "" {
		exitWithError(ExitError, "could not identify %s: no arXiv ID stamp and no title match", absPath)
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout())
	defer cancel()

	workID, err := resolver.EnsureWork(ctx, arxivID)
	if err != nil {
		exitWithError(ExitError, "registering %s: %v", arxivID, err)
	}

	if addPdfFetchBibtex {
		if _, err := resolver.EnsureBibTeX(ctx, arxivID, workID, false); err != nil {
			warnf("could not fetch BibTeX for %s: %v", arxivID, err)
		}
	}

	if humanOutput {
		fmt.Printf("Added %s (work_id=%d, via %s)\n", arxivID, workID, idSource)
	} else {
		outputJSON(AddPdfResponse{Status: "added", ArxivID: arxivID, WorkID: workID, IDSource: idSource})
	}
	return nil
}

// identifyPdf resolves a PDF to a base arXiv ID: stamp first, then a title
// search against the API.
func identifyPdf(store *registry.Store, absPath string) (arxivID, idSource string, err error) {
	stamped, err := pdf.ExtractArxivID(absPath)
	if err != nil {
		warnf("could not read PDF text: %v", err)
	}
	if stamped != "" {
		base, _ := arxiv.NormalizeID(stamped)
		return base, "stamp", nil
	}

	title, err := pdf.ExtractTitle(absPath)
	if err != nil || title == "" {
		return "", "", fmt.Errorf("no arXiv stamp and no extractable title in %s", absPath)
	}

	client := newClient()
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout())
	defer cancel()

	params := arxiv.SearchParams{
		Query:      fmt.Sprintf("ti:%q", title),
		Start:      0,
		MaxResults: 1,
		SortBy:     arxiv.SortRelevance,
		SortOrder:  arxiv.OrderDescending,
	}
	resp, err := client.Search(ctx, params)
	if err != nil {
		return "", "", fmt.Errorf("title search: %w", err)
	}
	if logErr := store.LogFetch(registry.FetchKindSearch, resp.URL, resp.Status, resp.Body); logErr != nil {
		return "", "", logErr
	}
	if len(resp.Body) == 0 {
		return "", "", fmt.Errorf("title search: empty response")
	}

	_, entries, err := arxiv.ParseFeed(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("title search: %w", err)
	}
	if len(entries) == 0 {
		return "", "", nil
	}
	return entries[0].ArxivID, "title_search", nil
}
