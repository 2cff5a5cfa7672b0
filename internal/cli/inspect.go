package cli

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/icodes/icds/internal/indexer"
)

var (
	inspectBranch   string
	inspectCount    int
	inspectDetailed bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [path]",
	Short: "Preview commit analyses without storing them",
	Long: `Analyse the most recent commits of a branch and print the results.
Nothing is written to the database.

Examples:
  icds inspect
  icds inspect ~/projects/myapp --count 3 --detailed`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVarP(&inspectBranch, "branch", "b", "", "Branch to inspect (default: current branch)")
	inspectCmd.Flags().IntVarP(&inspectCount, "count", "n", indexer.DefaultCount, "Number of recent commits to analyse")
	inspectCmd.Flags().BoolVar(&inspectDetailed, "detailed", false, "Print the full analysis of each commit")
}

func runInspect(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	titleColor := color.New(color.FgHiCyan, color.Bold)
	hashColor := color.New(color.FgHiYellow)
	msgColor := color.New(color.FgHiWhite)
	dimColor := color.New(color.FgHiBlack)
	errColor := color.New(color.FgHiRed)

	repo, err := openRepo(args)
	if err != nil {
		return err
	}
	s, err := newSession(ctx, false)
	if err != nil {
		return err
	}
	defer s.Close()

	sp := newSpinner("")
	opts := indexer.Options{
		Branch:          inspectBranch,
		Count:           inspectCount,
		ContinueOnError: true,
		OnEvent: func(e indexer.Event) {
			if e.Kind == indexer.EventStarted {
				sp.Suffix = fmt.Sprintf(" [%d/%d] analysing %s...", e.Index, e.Total, shortHash(e.Hash))
				sp.Start()
				return
			}
			sp.Stop()
		},
	}

	inspections, err := s.indexer.Inspect(ctx, repo, opts)
	sp.Stop()
	if err != nil {
		return err
	}

	fmt.Println()
	titleColor.Printf("  %d commits in %s\n", len(inspections), repo.Path())
	dimColor.Println("  " + strings.Repeat("─", 50))
	for _, ins := range inspections {
		fmt.Println()
		hashColor.Printf("  %s ", shortHash(ins.Commit.Hash))
		dimColor.Printf("%s  %s\n", ins.Commit.When.Format("2006-01-02 15:04"), ins.Commit.Author)
		if ins.Err != nil {
			errColor.Printf("  failed: %v\n", ins.Err)
			continue
		}
		dimColor.Printf("  was: %s\n", ins.Commit.Summary)
		msgColor.Printf("  now: %s\n", ins.Summary)
		if inspectDetailed {
			fmt.Println()
			fmt.Println(renderMarkdown(ins.Analysis))
		}
	}
	fmt.Println()
	return nil
}
