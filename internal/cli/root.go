package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/icodes/icds/internal/config"
)

var (
	dbURL      string
	configPath string
	debug      bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "icds",
	Short: "icds - Describe, index and search your commit history",
	Long: `icds walks the recent commits of a git repository, asks a language model
to explain each one and stores the explanations so they can be searched later.

Use 'icds index' to analyse and store commits, 'icds inspect' to preview
the analysis without storing it and 'icds search' to query what was stored.

Configuration is read from the environment (and a .env file in the working
directory). Set ICDS_CONFIG or pass --config to also read a YAML file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if dbURL != "" {
			loaded.DatabaseURL = dbURL
		}
		if debug {
			loaded.Debug = true
		}
		cfg = loaded

		level := slog.LevelWarn
		if cfg.Debug {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		VerboseLog("using %s/%s, database %s", cfg.Provider, cfg.Model, cfg.DatabaseURL)
		return nil
	},
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		color.New(color.FgHiRed).Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "Database URL (overrides DATABASE_URL)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (overrides ICDS_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
}

func IsVerbose() bool {
	return cfg != nil && cfg.Debug
}

func VerboseLog(format string, args ...interface{}) {
	if IsVerbose() {
		slog.Debug(fmt.Sprintf(format, args...))
	}
}
