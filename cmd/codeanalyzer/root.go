package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Balfin/code-analysis-multi-agent/internal/config"
)

var (
	cfgPath   string
	ledgerDir string
	cfg       *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "codeanalyzer",
	Short: "Multi-pass code analysis with a persistent issue ledger",
	Long: `codeanalyzer walks a codebase file by file and runs security,
performance, and architecture analysis passes over each one.

Findings accumulate in a persistent on-disk ledger keyed by content,
so repeated runs converge instead of duplicating issues. Each run
ends with a health-scored markdown report.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		cfg = loaded
		if ledgerDir != "" {
			cfg.LedgerDir = ledgerDir
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Config file path (default codeanalyzer.yaml)")
	rootCmd.PersistentFlags().StringVar(&ledgerDir, "ledger-dir", "", "Issue ledger directory (overrides config)")
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
