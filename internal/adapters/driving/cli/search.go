package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsearch/internal/core/domain"
)

var (
	searchLimit  int
	searchJSON   bool
	searchScope  string
	searchTags   []string
	searchAfter  string
	searchBefore string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Performs hybrid search across indexed documents.
Combines keyword (BM25) and semantic (vector) search, fused with reciprocal
rank fusion and reranked by a cross-encoder when one is configured.

Tag names must match exactly (case-insensitive); run "docsearch tags" to
see them. Unknown tags are ignored with a warning.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", domain.DefaultSearchLimit, "maximum number of results (max 50)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().StringVarP(&searchScope, "scope", "s", string(domain.ScopeDocument), "collections to search: document, message or all")
	searchCmd.Flags().StringSliceVarP(&searchTags, "tag", "t", nil, "filter by tag name (repeatable)")
	searchCmd.Flags().StringVar(&searchAfter, "after", "", "only results created on or after this date (YYYY-MM-DD)")
	searchCmd.Flags().StringVar(&searchBefore, "before", "", "only results created on or before this date (YYYY-MM-DD)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errNotConfigured("search service")
	}

	after, err := domain.ParseDate(searchAfter)
	if err != nil {
		return err
	}
	before, err := domain.ParseDate(searchBefore)
	if err != nil {
		return err
	}

	resp, err := searchService.Search(cmd.Context(), domain.SearchRequest{
		Query:      strings.Join(args, " "),
		Scope:      domain.Scope(searchScope),
		Tags:       searchTags,
		DateAfter:  after,
		DateBefore: before,
		Limit:      searchLimit,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, resp)
	}
	outputSearchText(cmd, resp)
	return nil
}

type searchResultJSON struct {
	Collection string         `json:"collection"`
	Score      float64        `json:"score"`
	Meta       string         `json:"meta"`
	Text       string         `json:"text"`
	Payload    map[string]any `json:"payload,omitempty"`
}

type searchResponseJSON struct {
	Tier     domain.SearchTier  `json:"tier"`
	Warnings []string           `json:"warnings,omitempty"`
	Results  []searchResultJSON `json:"results"`
}

func outputSearchJSON(cmd *cobra.Command, resp *domain.SearchResponse) error {
	out := searchResponseJSON{
		Tier:     resp.Tier,
		Warnings: resp.Warnings,
		Results:  make([]searchResultJSON, len(resp.Results)),
	}
	for i, r := range resp.Results {
		out.Results[i] = searchResultJSON{
			Collection: r.Collection,
			Score:      r.Score,
			Meta:       r.Meta,
			Text:       r.Text,
			Payload:    r.Payload,
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchText(cmd *cobra.Command, resp *domain.SearchResponse) {
	for _, w := range resp.Warnings {
		cmd.PrintErrf("Note: %s\n", w)
	}

	if len(resp.Results) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Printf("Found %d results (%s):\n\n", len(resp.Results), resp.Tier)
	for i, r := range resp.Results {
		cmd.Printf("  [%d] %s (%.3f)\n", i+1, r.Meta, r.Score)
		cmd.Printf("      %s\n\n", snippet(r.Text, 240))
	}
}

// snippet flattens whitespace and truncates to at most n runes.
func snippet(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
