package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/icodes/icds/internal/constants"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Show the LLM configuration",
	Long: `Show the provider and model in use and the context window used to
truncate dossiers.

Examples:
  icds models          # Show current configuration
  icds models list     # List supported providers and their defaults`,
	Args: cobra.NoArgs,
	RunE: runModelsShow,
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List supported providers and default models",
	Args:  cobra.NoArgs,
	RunE:  runModelsList,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsListCmd)
}

func runModelsShow(cmd *cobra.Command, args []string) error {
	titleColor := color.New(color.FgHiCyan, color.Bold)
	infoColor := color.New(color.FgHiWhite)
	dimColor := color.New(color.FgHiBlack)
	successColor := color.New(color.FgHiGreen)
	warnColor := color.New(color.FgHiYellow)

	fmt.Println()
	titleColor.Println("  LLM Configuration")
	fmt.Println()

	dimColor.Print("  Provider:       ")
	infoColor.Printf("%s\n", cfg.Provider)
	dimColor.Print("  Model:          ")
	infoColor.Printf("%s\n", cfg.Model)
	dimColor.Print("  Context window: ")
	infoColor.Printf("%d tokens\n", cfg.ContextWindow())
	if u := cfg.BaseURL(cfg.Provider); u != "" {
		dimColor.Print("  Base URL:       ")
		infoColor.Printf("%s\n", u)
	}
	if cfg.CacheURL != "" {
		dimColor.Print("  Cache:          ")
		infoColor.Printf("%s (ttl %s)\n", cfg.CacheURL, cfg.CacheTTL)
	}
	if cfg.ConfigFile != "" {
		dimColor.Print("  Config file:    ")
		infoColor.Printf("%s\n", cfg.ConfigFile)
	}

	fmt.Println()
	if err := cfg.Validate(); err != nil {
		warnColor.Printf("  %v\n\n", err)
		return nil
	}
	successColor.Println("  Configuration is valid")
	fmt.Println()
	return nil
}

func runModelsList(cmd *cobra.Command, args []string) error {
	titleColor := color.New(color.FgHiCyan, color.Bold)
	nameColor := color.New(color.FgHiGreen)
	dimColor := color.New(color.FgHiBlack)

	fmt.Println()
	titleColor.Println("  Providers")
	fmt.Println()
	for _, p := range constants.AllProviders {
		nameColor.Printf("  %-12s", p.Name)
		fmt.Printf(" %s\n", p.Description)
		model := constants.GetDefaultModel(p.Name)
		dimColor.Printf("  %-12s default model %s (%d tokens)", "", model, constants.ContextWindow(model))
		if p.NeedsAPIKey {
			dimColor.Printf(", needs %s", p.EnvKey)
		}
		fmt.Println()
	}
	fmt.Println()
	return nil
}
