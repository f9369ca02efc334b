package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Balfin/code-analysis-multi-agent/internal/ledger"
	"github.com/Balfin/code-analysis-multi-agent/internal/types"
)

var issuesCmd = &cobra.Command{
	Use:   "issues",
	Short: "Inspect and manage the issue ledger",
}

var issuesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored issues",
	Long: `List issues in the ledger, most severe first.

Examples:
  codeanalyzer issues list
  codeanalyzer issues list --category security
  codeanalyzer issues list --risk critical`,
	Run: func(cmd *cobra.Command, args []string) {
		categoryFlag, _ := cmd.Flags().GetString("category")
		riskFlag, _ := cmd.Flags().GetString("risk")

		l := openLedger()
		defer l.Close()

		var entries []ledger.Entry
		switch {
		case categoryFlag != "":
			category := types.Category(categoryFlag)
			if !category.IsValid() {
				fatalf("invalid category %q", categoryFlag)
			}
			entries = l.GetByCategory(category)
		case riskFlag != "":
			risk := types.Risk(riskFlag)
			if !risk.IsValid() {
				fatalf("invalid risk %q", riskFlag)
			}
			entries = l.GetByRisk(risk)
		default:
			entries = l.GetAll()
		}

		if len(entries) == 0 {
			fmt.Println("No issues found.")
			return
		}

		for _, e := range entries {
			fmt.Printf("%s  %s  [%s/%s]  %s\n",
				e.ID, riskBadge(e.Risk), e.Category, e.Risk, e.Title)
			fmt.Printf("              %s\n", e.Location)
		}
		fmt.Printf("\n%d issue(s)\n", len(entries))
	},
}

var issuesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one issue's full markdown document",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		l := openLedger()
		defer l.Close()

		doc, err := l.Markdown(args[0])
		if err != nil {
			fatalf("%v", err)
		}
		fmt.Print(doc)
	},
}

var issuesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one issue from the ledger",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		l := openLedger()
		defer l.Close()

		ok, err := l.Delete(args[0])
		if err != nil {
			fatalf("%v", err)
		}
		if !ok {
			fatalf("issue not found: %s", args[0])
		}
		fmt.Printf("Deleted %s\n", args[0])
	},
}

var issuesClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every issue from the ledger",
	Run: func(cmd *cobra.Command, args []string) {
		force, _ := cmd.Flags().GetBool("force")
		if !force {
			fatalf("refusing to clear the ledger without --force")
		}

		l := openLedger()
		defer l.Close()

		n, err := l.Clear()
		if err != nil {
			fatalf("%v", err)
		}
		fmt.Printf("Removed %d issue(s)\n", n)
	},
}

var issuesSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show issue counts by category and risk",
	Run: func(cmd *cobra.Command, args []string) {
		l := openLedger()
		defer l.Close()

		s := l.Summarize()
		fmt.Printf("Total issues: %d\n\n", s.Total)

		fmt.Println("By category:")
		for _, category := range types.Categories {
			fmt.Printf("  %-14s %d\n", category, s.ByCategory[category])
		}

		fmt.Println("\nBy risk:")
		for _, risk := range types.Risks {
			fmt.Printf("  %s %-10s %d\n", riskBadge(risk), risk, s.ByRisk[risk])
		}
	},
}

func openLedger() *ledger.Ledger {
	l, err := ledger.Open(cfg.LedgerDir)
	if err != nil {
		fatalf("%v", err)
	}
	return l
}

func riskBadge(r types.Risk) string {
	switch r {
	case types.RiskCritical:
		return color.New(color.FgRed, color.Bold).Sprint("●")
	case types.RiskHigh:
		return color.New(color.FgRed).Sprint("●")
	case types.RiskMedium:
		return color.New(color.FgYellow).Sprint("●")
	default:
		return color.New(color.FgGreen).Sprint("●")
	}
}

func init() {
	issuesListCmd.Flags().StringP("category", "c", "", "Filter by category (security, performance, architecture)")
	issuesListCmd.Flags().StringP("risk", "r", "", "Filter by risk (critical, high, medium, low)")
	issuesClearCmd.Flags().Bool("force", false, "Confirm clearing the entire ledger")

	issuesCmd.AddCommand(issuesListCmd)
	issuesCmd.AddCommand(issuesShowCmd)
	issuesCmd.AddCommand(issuesDeleteCmd)
	issuesCmd.AddCommand(issuesClearCmd)
	issuesCmd.AddCommand(issuesSummaryCmd)
	rootCmd.AddCommand(issuesCmd)
}
