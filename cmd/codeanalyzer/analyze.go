package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Balfin/code-analysis-multi-agent/internal/analyzer"
	"github.com/Balfin/code-analysis-multi-agent/internal/gen"
	"github.com/Balfin/code-analysis-multi-agent/internal/ledger"
	"github.com/Balfin/code-analysis-multi-agent/internal/orchestrator"
	"github.com/Balfin/code-analysis-multi-agent/internal/report"
	"github.com/Balfin/code-analysis-multi-agent/internal/source"
	"github.com/Balfin/code-analysis-multi-agent/internal/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Run all analysis passes over a file or directory",
	Long: `Analyze a codebase and record findings in the issue ledger.

Every file goes through the security, performance, and architecture
passes in order. Generation-backed analysis is used when an API key
is available and not disabled; otherwise analysis is rule-only.

Examples:
  # Analyze the current directory
  codeanalyzer analyze .

  # Analyze one file without generation
  codeanalyzer analyze app.py --no-generation

  # Write the report to a file
  codeanalyzer analyze ./src --output report.md`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		target := args[0]
		noGeneration, _ := cmd.Flags().GetBool("no-generation")
		model, _ := cmd.Flags().GetString("model")
		outputPath, _ := cmd.Flags().GetString("output")
		verbose, _ := cmd.Flags().GetBool("verbose")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		green := color.New(color.FgGreen).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()

		if model == "" {
			model = cfg.Model
		}

		var generator gen.Generator
		if cfg.UseGeneration && !noGeneration {
			client, err := gen.NewClient(gen.Options{
				Model:   model,
				Timeout: time.Duration(cfg.GenerationTimeout),
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: generation disabled: %v\n", err)
			} else {
				generator = client
			}
		}
		if generator == nil {
			fmt.Printf("%s Running in rule-only mode\n", yellow("!"))
		}

		analyzers := make([]orchestrator.FileAnalyzer, 0, len(types.Categories))
		for _, category := range types.Categories {
			analyzers = append(analyzers, analyzer.New(category, generator))
		}

		src := source.NewDirSource(target, cfg.IgnorePatterns, cfg.MaxFileSize)
		o := orchestrator.New(target, src, analyzers)

		fmt.Printf("%s Analyzing %s...\n\n", cyan("▶"), target)

		state, err := o.Run(ctx)
		if err != nil {
			fatalf("%v", err)
		}

		if verbose {
			for _, m := range state.Messages {
				fmt.Printf("  [%s] %s\n", m.Role, m.Content)
			}
			fmt.Println()
		}

		saved, failed := persistIssues(cfg.LedgerDir, state.Issues)
		if failed > 0 {
			fmt.Printf("%s %d issue(s) could not be saved\n", red("✗"), failed)
		}

		stats := report.Collect(state.Issues, len(state.ProcessedFiles))
		score := stats.HealthScore()

		fmt.Printf("%s Analyzed %d files, found %d issue(s), saved %d to %s\n",
			green("✓"), len(state.ProcessedFiles), len(state.Issues), saved, cfg.LedgerDir)
		fmt.Printf("%s Health score: %d/100 (%s)\n", cyan("⚕"), score, report.Grade(score))

		if outputPath != "" {
			if err := os.WriteFile(outputPath, []byte(state.Report), 0644); err != nil {
				fatalf("writing report: %v", err)
			}
			fmt.Printf("%s Report written to %s\n", green("✓"), outputPath)
		} else {
			fmt.Println()
			fmt.Print(state.Report)
		}

		if stats.Critical > 0 {
			os.Exit(1)
		}
	},
}

// persistIssues opens the ledger and saves the run's issues. An
// unavailable ledger (locked, unwritable) degrades to a zero-saved
// outcome; the run's results are still reported.
func persistIssues(dir string, issues []types.Issue) (saved, failed int) {
	l, err := ledger.Open(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: ledger unavailable, issues not saved: %v\n", err)
		return 0, len(issues)
	}
	defer l.Close()

	return report.Persist(l, issues)
}

func init() {
	analyzeCmd.Flags().Bool("no-generation", false, "Skip generation-backed analysis, use rules only")
	analyzeCmd.Flags().String("model", "", "Generation model override")
	analyzeCmd.Flags().StringP("output", "o", "", "Write the report to a file instead of stdout")
	analyzeCmd.Flags().BoolP("verbose", "v", false, "Show the run's message log")

	rootCmd.AddCommand(analyzeCmd)
}
