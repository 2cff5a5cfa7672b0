package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/icodes/icds/internal/indexer"
)

var (
	watchSchedule    string
	watchBranch      string
	watchCount       int
	watchMetricsFile string
)

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Index new commits on a schedule",
	Long: `Run 'icds index' on a cron schedule until interrupted.

A run that is still going when the next one is due is skipped. Failed
commits are logged and retried on the next run.

Examples:
  icds watch
  icds watch ~/projects/myapp --schedule "*/15 * * * *"
  icds watch --schedule "@every 30m" --metrics-file /var/lib/node_exporter/icds.prom`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchSchedule, "schedule", "@hourly", "Cron expression or descriptor")
	watchCmd.Flags().StringVarP(&watchBranch, "branch", "b", "", "Branch to index (default: current branch)")
	watchCmd.Flags().IntVarP(&watchCount, "count", "n", indexer.DefaultCount, "Number of recent commits to visit per run")
	watchCmd.Flags().StringVar(&watchMetricsFile, "metrics-file", "", "Write prometheus metrics to this file after every run")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := cron.ParseStandard(watchSchedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", watchSchedule, err)
	}

	repo, err := openRepo(args)
	if err != nil {
		return err
	}
	s, err := newSession(ctx, true)
	if err != nil {
		return err
	}
	defer s.Close()

	logger := slog.Default().With("component", "watch", "repo", repo.Path())
	opts := indexer.Options{
		Branch:          watchBranch,
		Count:           watchCount,
		ContinueOnError: true,
	}
	job := func() {
		res, err := indexOnce(ctx, s, repo, opts, false)
		if err != nil {
			logger.Error("scheduled index failed", "error", err)
		} else if len(res.Failures) > 0 {
			logger.Warn("scheduled index finished with failures", "failed", len(res.Failures))
		}
		if watchMetricsFile != "" {
			if err := s.metrics.WriteTextfile(watchMetricsFile); err != nil {
				logger.Error("failed to write metrics", "error", err)
			}
		}
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(watchSchedule, job); err != nil {
		return fmt.Errorf("failed to schedule indexing: %w", err)
	}

	color.New(color.FgHiCyan, color.Bold).Printf("  Watching %s (%s), press Ctrl+C to stop\n\n", repo.Path(), watchSchedule)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
