package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/icodes/icds/internal/indexer"
)

var suggestDetailed bool

var suggestCmd = &cobra.Command{
	Use:   "suggest [path]",
	Short: "Suggest a commit message for the staged changes",
	Long: `Analyse the changes staged in the index and propose a one-line commit
message for them.

Examples:
  git add -p && icds suggest
  icds suggest --detailed`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSuggest,
}

func init() {
	rootCmd.AddCommand(suggestCmd)

	suggestCmd.Flags().BoolVar(&suggestDetailed, "detailed", false, "Also print the full analysis")
}

func runSuggest(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	titleColor := color.New(color.FgHiCyan, color.Bold)
	msgColor := color.New(color.FgHiWhite)
	dimColor := color.New(color.FgHiBlack)

	repo, err := openRepo(args)
	if err != nil {
		return err
	}
	s, err := newSession(ctx, false)
	if err != nil {
		return err
	}
	defer s.Close()

	sp := newSpinner(" Analysing staged changes...")
	sp.Start()
	sug, err := s.indexer.SuggestCommitMessage(ctx, repo)
	sp.Stop()
	if errors.Is(err, indexer.ErrNothingStaged) {
		fmt.Println("No staged changes found. Stage changes with 'git add' first.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to generate commit message: %w", err)
	}

	fmt.Println()
	titleColor.Printf("  Commit Message (%d files)\n", len(sug.Changes))
	dimColor.Println("  " + strings.Repeat("─", 50))
	if suggestDetailed {
		fmt.Println(renderMarkdown(sug.Analysis))
		dimColor.Println("  " + strings.Repeat("─", 50))
	}
	fmt.Println()
	msgColor.Printf("  %s\n", commitCommand(sug.Summary))
	fmt.Println()
	return nil
}

var doubleQuoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "$", `\$`, "`", "\\`")

// commitCommand returns a git invocation that can be pasted into a POSIX
// shell as is.
func commitCommand(summary string) string {
	return `git commit -m "` + doubleQuoteEscaper.Replace(summary) + `"`
}
