package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Balfin/code-analysis-multi-agent/internal/report"
	"github.com/Balfin/code-analysis-multi-agent/internal/types"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a report from the current ledger contents",
	Long: `Render a health-scored markdown report from the issues already
stored in the ledger, without running a new analysis.`,
	Run: func(cmd *cobra.Command, args []string) {
		outputPath, _ := cmd.Flags().GetString("output")

		l := openLedger()
		defer l.Close()

		entries := l.GetAll()
		issues := make([]types.Issue, 0, len(entries))
		for _, e := range entries {
			issues = append(issues, e.Issue)
		}

		// The ledger does not record how many clean files were
		// analyzed, so the file count here only covers files with
		// issues.
		files := distinctFiles(issues)
		doc := report.Render(cfg.LedgerDir, issues, files, time.Now())

		if outputPath != "" {
			if err := os.WriteFile(outputPath, []byte(doc), 0644); err != nil {
				fatalf("writing report: %v", err)
			}
			fmt.Printf("Report written to %s\n", outputPath)
			return
		}
		fmt.Print(doc)
	},
}

func distinctFiles(issues []types.Issue) []string {
	seen := make(map[string]bool)
	var files []string
	for i := range issues {
		file := issues[i].File()
		if !seen[file] {
			seen[file] = true
			files = append(files, file)
		}
	}
	return files
}

func init() {
	reportCmd.Flags().StringP("output", "o", "", "Write the report to a file instead of stdout")
	rootCmd.AddCommand(reportCmd)
}
