package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/icodes/icds/internal/db"
	"github.com/icodes/icds/internal/search"
)

var (
	listLimit  int
	listOffset int
)

var reposCmd = &cobra.Command{
	Use:   "repos",
	Short: "List indexed repositories",
	Args:  cobra.NoArgs,
	RunE:  runRepos,
}

var commitsCmd = &cobra.Command{
	Use:   "commits <repo>",
	Short: "List the stored commits of a repository",
	Long: `List the stored commits of a repository in the order they were indexed.

Examples:
  icds commits myapp
  icds commits myapp --limit 20 --offset 40`,
	Args: cobra.ExactArgs(1),
	RunE: runCommits,
}

func init() {
	rootCmd.AddCommand(reposCmd)
	rootCmd.AddCommand(commitsCmd)

	for _, c := range []*cobra.Command{reposCmd, commitsCmd} {
		c.Flags().IntVarP(&listLimit, "limit", "n", 0, "Maximum rows to show (0 for all)")
		c.Flags().IntVar(&listOffset, "offset", 0, "Rows to skip")
	}
}

func runRepos(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	titleColor := color.New(color.FgHiCyan, color.Bold)
	nameColor := color.New(color.FgHiGreen)
	dimColor := color.New(color.FgHiBlack)

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	repos, err := store.ListRepositories(ctx, db.ListOptions{Limit: listLimit, Offset: listOffset})
	if err != nil {
		return err
	}

	fmt.Println()
	titleColor.Println("  Repositories")
	dimColor.Println("  " + strings.Repeat("─", 50))
	if len(repos) == 0 {
		dimColor.Println("  No repositories indexed yet. Run 'icds index' first.")
	}
	for _, r := range repos {
		nameColor.Printf("  %s\n", r.Name)
		dimColor.Printf("    %s\n", r.RemoteURL)
		if r.Path != "" && r.Path != r.RemoteURL {
			dimColor.Printf("    %s\n", r.Path)
		}
	}
	fmt.Println()
	return nil
}

func runCommits(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	titleColor := color.New(color.FgHiCyan, color.Bold)
	commitColor := color.New(color.FgHiBlue)
	summaryColor := color.New(color.FgHiWhite)
	dimColor := color.New(color.FgHiBlack)

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	repo, err := store.FindRepository(ctx, args[0])
	if err != nil {
		return err
	}
	if repo == nil {
		return fmt.Errorf("%w: %s", search.ErrRepositoryNotFound, args[0])
	}

	commits, err := store.ListCommits(ctx, repo.ID, db.ListOptions{Limit: listLimit, Offset: listOffset})
	if err != nil {
		return err
	}

	fmt.Println()
	titleColor.Printf("  %s\n", repo.Name)
	dimColor.Println("  " + strings.Repeat("─", 50))
	for _, c := range commits {
		commitColor.Printf("  %s ", shortHash(c.Hash))
		dimColor.Printf("%s  %s\n", c.CommittedAt.Format("2006-01-02"), c.Author)
		summaryColor.Printf("    %s\n", c.Summary)
	}
	fmt.Println()
	dimColor.Printf("  %d commits\n\n", len(commits))
	return nil
}
