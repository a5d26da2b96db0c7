package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/card-analyzer/internal/app"
	"github.com/jonathan/card-analyzer/internal/config"
	"github.com/jonathan/card-analyzer/internal/observability"
	"github.com/jonathan/card-analyzer/internal/search"
	"github.com/jonathan/card-analyzer/internal/types"
	"github.com/jonathan/card-analyzer/internal/vectorstore"
)

var (
	searchTopK        int
	searchTextWeight  float64
	searchImageWeight float64
	searchPlayer      string
	searchBrand       string
	searchMinGrade    float64
	searchJSON        bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search stored cards",
	Long: `Run a hybrid similarity search over the stored cards. The query is
matched in both the text and image vector spaces and the per-modality scores
are merged with the configured weights. A query that looks like a
certification number (six or more digits) becomes an exact cert lookup.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchTopK, "top-k", search.DefaultTopK, "Number of results")
	searchCmd.Flags().Float64Var(&searchTextWeight, "text-weight", 0, "Weight for text similarity (0-1)")
	searchCmd.Flags().Float64Var(&searchImageWeight, "image-weight", 0, "Weight for image similarity (0-1)")
	searchCmd.Flags().StringVar(&searchPlayer, "player", "", "Filter by exact player name")
	searchCmd.Flags().StringVar(&searchBrand, "brand", "", "Filter by exact brand")
	searchCmd.Flags().Float64Var(&searchMinGrade, "min-grade", 0, "Filter by minimum grade")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Print results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := config.FromEnv()
	if cfg.EmbeddingEndpoint == "" {
		return fmt.Errorf("config error: EMBEDDING_ENDPOINT is required")
	}

	application := app.New(cfg)
	defer application.Close()

	engine, err := application.SearchEngine(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to initialize search: %w", err)
	}

	query := ""
	if len(args) > 0 {
		query = args[0]
	}

	filters := types.SearchFilters{Player: searchPlayer, Brand: searchBrand}
	if searchMinGrade > 0 {
		filters.MinGrade = &searchMinGrade
	}

	params := search.Params{
		Query:       query,
		TextWeight:  searchTextWeight,
		ImageWeight: searchImageWeight,
		TopK:        searchTopK,
		Filters:     filters,
	}
	if searchTextWeight == 0 && searchImageWeight == 0 {
		params.TextWeight = cfg.TextWeight
		params.ImageWeight = cfg.ImageWeight
	}

	resp, err := engine.Search(cmd.Context(), params)
	if err != nil {
		return err
	}

	if searchJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	if resp.Verdict == search.NoMatches {
		fmt.Println("No relevant matches.")
		return nil
	}

	if cfg.Verbose {
		observability.NewPrinter(os.Stdout).PrintSearchResults(resp.Results)
		return nil
	}

	for i, r := range resp.Results {
		desc, _ := r.Metadata[vectorstore.KeyTextDesc].(string)
		fmt.Printf("%2d. %s  combined=%.3f (text=%.3f image=%.3f)\n    %s\n",
			i+1, r.CardID, r.Scores.Combined, r.Scores.Text, r.Scores.Image, desc)
	}
	return nil
}
