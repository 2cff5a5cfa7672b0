package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/icodes/icds/internal/search"
)

var (
	searchRepo     string
	searchAuthor   string
	searchFile     string
	searchStart    string
	searchEnd      string
	searchLimit    int
	searchDetailed bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search stored commit analyses",
	Long: `Search the summaries and analyses of indexed commits.

The query matches case-insensitively. All filters are combined; without a
query every commit matching the filters is listed, oldest first.

Dates accept YYYY-MM-DD (UTC) or RFC3339. An --end given as a day covers
that whole day.

Examples:
  icds search "race condition"
  icds search login --repo myapp --author "Ada Lovelace"
  icds search --file internal/db/ --start 2024-01-01 --end 2024-03-31`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVarP(&searchRepo, "repo", "r", "", "Only commits from this repository name")
	searchCmd.Flags().StringVarP(&searchAuthor, "author", "a", "", "Only commits by this author")
	searchCmd.Flags().StringVarP(&searchFile, "file", "f", "", "Only commits touching a path containing this text")
	searchCmd.Flags().StringVar(&searchStart, "start", "", "Only commits on or after this date")
	searchCmd.Flags().StringVar(&searchEnd, "end", "", "Only commits on or before this date")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "Maximum results to show (0 for all)")
	searchCmd.Flags().BoolVar(&searchDetailed, "detailed", false, "Print the full analysis of each match")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	titleColor := color.New(color.FgHiCyan, color.Bold)
	commitColor := color.New(color.FgHiBlue)
	repoColor := color.New(color.FgHiMagenta)
	summaryColor := color.New(color.FgHiWhite)
	dimColor := color.New(color.FgHiBlack)

	q, err := buildSearchQuery(strings.Join(args, " "))
	if err != nil {
		return err
	}

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	results, err := search.NewService(store).Search(ctx, q)
	if err != nil {
		return err
	}

	fmt.Println()
	if q.Text != "" {
		titleColor.Printf("  Search Results for: %s\n", q.Text)
	} else {
		titleColor.Println("  Search Results")
	}
	if filters := describeFilters(q); filters != "" {
		dimColor.Printf("  Filters: %s\n", filters)
	}
	dimColor.Println("  " + strings.Repeat("─", 50))
	fmt.Println()

	if len(results) == 0 {
		dimColor.Println("  No matching commits")
		fmt.Println()
		return nil
	}
	for _, r := range results {
		commitColor.Printf("  %s ", shortHash(r.Hash))
		repoColor.Printf("%s ", r.RepositoryName)
		dimColor.Printf("%s  %s\n", r.CommittedAt.Format("2006-01-02"), r.Author)
		summaryColor.Printf("    %s\n", r.Summary)
		if searchDetailed {
			fmt.Println(renderMarkdown(r.Analysis))
		}
	}
	fmt.Println()
	dimColor.Printf("  %d results\n\n", len(results))
	return nil
}

func buildSearchQuery(text string) (search.Query, error) {
	q := search.Query{
		Text:       strings.TrimSpace(text),
		Repository: searchRepo,
		Author:     searchAuthor,
		FilePath:   searchFile,
		Limit:      searchLimit,
	}
	var err error
	if q.Start, err = parseDate(searchStart, false); err != nil {
		return q, fmt.Errorf("invalid --start: %w", err)
	}
	if q.End, err = parseDate(searchEnd, true); err != nil {
		return q, fmt.Errorf("invalid --end: %w", err)
	}
	return q, nil
}

// parseDate accepts RFC3339 or a bare YYYY-MM-DD day in UTC. With endOfDay a
// bare day is moved to its last second. An empty value yields nil.
func parseDate(s string, endOfDay bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%q is neither YYYY-MM-DD nor RFC3339", s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return &t, nil
}

func describeFilters(q search.Query) string {
	var filters []string
	if q.Repository != "" {
		filters = append(filters, "repo:"+q.Repository)
	}
	if q.Author != "" {
		filters = append(filters, "author:"+q.Author)
	}
	if q.FilePath != "" {
		filters = append(filters, "file:"+q.FilePath)
	}
	if q.Start != nil {
		filters = append(filters, "start:"+q.Start.Format(time.RFC3339))
	}
	if q.End != nil {
		filters = append(filters, "end:"+q.End.Format(time.RFC3339))
	}
	return strings.Join(filters, " ")
}
