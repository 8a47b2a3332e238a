package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sandeepkv93/dharmasync/internal/config"
	"github.com/sandeepkv93/dharmasync/internal/logging"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "dharmad",
	Short: "dharmad - daily task lifecycle and progress service",
	Long: `dharmad serves the DharmaSync task API: a per-user daily task list seeded
with defaults on first read, completion toggles and a derived per-day progress
record. It can also run migrations, mint development tokens and open a
terminal client against the configured store.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := loaded.Validate(); err != nil {
			return err
		}
		cfg = loaded

		// The terminal client owns the screen, so it only logs errors.
		logCfg := cfg.Log
		if cmd.Name() == tuiCmd.Name() && !verbose {
			logCfg.Level = "error"
		}
		l, err := logging.New(logCfg, verbose)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "dharmad.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd, migrateCmd, tokenCmd, tuiCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "dharmad failed: %v\n", err)
		os.Exit(1)
	}
}
