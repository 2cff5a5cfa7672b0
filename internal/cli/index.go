package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/icodes/icds/internal/indexer"
)

var (
	indexBranch          string
	indexCount           int
	indexContinueOnError bool
	indexMetricsFile     string
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Analyse recent commits and store the results",
	Long: `Analyse the most recent commits of a branch and store each analysis.

Commits that are already stored for the repository are skipped, so running
index again only pays for new commits.

Examples:
  icds index
  icds index ~/projects/myapp --count 50
  icds index --branch main --continue-on-error
  icds index --metrics-file /var/lib/node_exporter/icds.prom`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)

	indexCmd.Flags().StringVarP(&indexBranch, "branch", "b", "", "Branch to index (default: current branch)")
	indexCmd.Flags().IntVarP(&indexCount, "count", "n", indexer.DefaultCount, "Number of recent commits to visit")
	indexCmd.Flags().BoolVar(&indexContinueOnError, "continue-on-error", false, "Record failed commits and keep going")
	indexCmd.Flags().StringVar(&indexMetricsFile, "metrics-file", "", "Write prometheus metrics to this file after the run")
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := openRepo(args)
	if err != nil {
		return err
	}
	s, err := newSession(ctx, true)
	if err != nil {
		return err
	}
	defer s.Close()

	_, err = indexOnce(ctx, s, repo, indexer.Options{
		Branch:          indexBranch,
		Count:           indexCount,
		ContinueOnError: indexContinueOnError,
	}, true)
	if indexMetricsFile != "" {
		if werr := s.metrics.WriteTextfile(indexMetricsFile); werr != nil && err == nil {
			err = werr
		}
	}
	return err
}

// indexOnce runs BuildIndex and prints progress. interactive shows a spinner
// while each commit is being analysed.
func indexOnce(ctx context.Context, s *session, src indexer.Source, opts indexer.Options, interactive bool) (indexer.Result, error) {
	titleColor := color.New(color.FgHiCyan, color.Bold)
	successColor := color.New(color.FgHiGreen)
	dimColor := color.New(color.FgHiBlack)
	errColor := color.New(color.FgHiRed)

	titleColor.Printf("  Indexing %s\n\n", src.Path())

	sp := newSpinner("")
	opts.OnEvent = func(e indexer.Event) {
		prefix := fmt.Sprintf("  [%d/%d] %s", e.Index, e.Total, shortHash(e.Hash))
		switch e.Kind {
		case indexer.EventStarted:
			if interactive {
				sp.Suffix = prefix + " analysing..."
				sp.Start()
			}
		case indexer.EventSkipped:
			sp.Stop()
			dimColor.Printf("%s already indexed\n", prefix)
		case indexer.EventIndexed:
			sp.Stop()
			successColor.Printf("%s %s\n", prefix, e.Summary)
		case indexer.EventFailed:
			sp.Stop()
			errColor.Printf("%s failed: %v\n", prefix, e.Err)
		}
	}

	res, err := s.indexer.BuildIndex(ctx, src, opts)
	sp.Stop()
	if err != nil {
		return res, err
	}

	fmt.Println()
	name := ""
	if res.Repository != nil {
		name = res.Repository.Name
	}
	successColor.Printf("  %s@%s: %d indexed, %d skipped", name, res.Branch, len(res.Indexed), len(res.Skipped))
	if len(res.Failures) > 0 {
		errColor.Printf(", %d failed", len(res.Failures))
	}
	fmt.Println()
	return res, nil
}
