// Package report turns a finished run's issues into a health score and
// a markdown report document.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Balfin/code-analysis-multi-agent/internal/ledger"
	"github.com/Balfin/code-analysis-multi-agent/internal/types"
)

// Health score penalty weights and per-severity caps.
const (
	criticalPenalty = 15
	criticalCap     = 60
	highPenalty     = 8
	highCap         = 40
	mediumPenalty   = 3
	mediumCap       = 30
	lowPenalty      = 1
	lowCap          = 10

	cleanBonus = 5
	// cleanThreshold is the average issues-per-file below which the
	// bonus applies.
	cleanThreshold = 3.0
)

// Stats aggregates the issues of one run.
type Stats struct {
	FilesProcessed int
	Critical       int
	High           int
	Medium         int
	Low            int
}

// Collect computes run statistics from an issue list.
func Collect(issues []types.Issue, filesProcessed int) Stats {
	s := Stats{FilesProcessed: filesProcessed}
	for i := range issues {
		switch issues[i].Risk {
		case types.RiskCritical:
			s.Critical++
		case types.RiskHigh:
			s.High++
		case types.RiskMedium:
			s.Medium++
		case types.RiskLow:
			s.Low++
		}
	}
	return s
}

// Total returns the total issue count.
func (s Stats) Total() int {
	return s.Critical + s.High + s.Medium + s.Low
}

// HealthScore computes the 0-100 health score. Each severity tier
// deducts a capped penalty; a codebase averaging few issues per file
// earns a small bonus.
func (s Stats) HealthScore() int {
	score := 100
	score -= capped(s.Critical*criticalPenalty, criticalCap)
	score -= capped(s.High*highPenalty, highCap)
	score -= capped(s.Medium*mediumPenalty, mediumCap)
	score -= capped(s.Low*lowPenalty, lowCap)

	if s.FilesProcessed > 0 {
		avg := float64(s.Total()) / float64(s.FilesProcessed)
		if avg < cleanThreshold {
			score += cleanBonus
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// Grade maps a health score to its verdict band.
func Grade(score int) string {
	switch {
	case score >= 90:
		return "Excellent"
	case score >= 75:
		return "Good"
	case score >= 60:
		return "Needs Improvement"
	default:
		return "Critical"
	}
}

func capped(penalty, limit int) int {
	if penalty > limit {
		return limit
	}
	return penalty
}

// Render produces the markdown report for a finished run.
func Render(target string, issues []types.Issue, processedFiles []string, generatedAt time.Time) string {
	stats := Collect(issues, len(processedFiles))
	score := stats.HealthScore()

	var b strings.Builder
	b.WriteString("# Code Analysis Report\n\n")
	fmt.Fprintf(&b, "**Target:** `%s`\n", target)
	fmt.Fprintf(&b, "**Generated:** %s\n", generatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "**Files Analyzed:** %d\n\n", len(processedFiles))

	fmt.Fprintf(&b, "## Health Score: %d/100 (%s)\n\n", score, Grade(score))

	b.WriteString("## Issue Summary\n\n")
	b.WriteString("| Risk | Count |\n")
	b.WriteString("|------|-------|\n")
	fmt.Fprintf(&b, "| Critical | %d |\n", stats.Critical)
	fmt.Fprintf(&b, "| High | %d |\n", stats.High)
	fmt.Fprintf(&b, "| Medium | %d |\n", stats.Medium)
	fmt.Fprintf(&b, "| Low | %d |\n", stats.Low)
	fmt.Fprintf(&b, "| **Total** | **%d** |\n\n", stats.Total())

	b.WriteString("## Issues by Category\n\n")
	for _, category := range types.Categories {
		grouped := filterByCategory(issues, category)
		fmt.Fprintf(&b, "### %s (%d)\n\n", capitalize(string(category)), len(grouped))
		if len(grouped) == 0 {
			b.WriteString("No issues found.\n\n")
			continue
		}
		sortBySeverity(grouped)
		for i := range grouped {
			fmt.Fprintf(&b, "- **[%s]** %s — `%s`\n", grouped[i].Risk, grouped[i].Title, grouped[i].Location)
		}
		b.WriteString("\n")
	}

	top := topIssues(issues, maxTopIssues)
	if len(top) > 0 {
		b.WriteString("## Top Issues\n\n")
		for i := range top {
			fmt.Fprintf(&b, "%d. **[%s]** %s — `%s`\n", i+1, top[i].Risk, top[i].Title, top[i].Location)
		}
		b.WriteString("\n")
	}

	hotspots := rankFiles(issues)
	if len(hotspots) > 0 {
		b.WriteString("## Files With Most Issues\n\n")
		for i, h := range hotspots {
			fmt.Fprintf(&b, "%d. `%s` — %d issues\n", i+1, h.file, h.count)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Recommendations\n\n")
	for _, r := range recommendations(stats) {
		fmt.Fprintf(&b, "- %s\n", r)
	}
	b.WriteString("\n")

	return b.String()
}

// maxTopIssues caps the highlighted critical and high findings.
const maxTopIssues = 5

// topIssues returns the most severe critical and high findings.
func topIssues(issues []types.Issue, limit int) []types.Issue {
	var top []types.Issue
	for i := range issues {
		if issues[i].Risk == types.RiskCritical || issues[i].Risk == types.RiskHigh {
			top = append(top, issues[i])
		}
	}
	sortBySeverity(top)
	if len(top) > limit {
		top = top[:limit]
	}
	return top
}

func recommendations(stats Stats) []string {
	var recs []string
	if stats.Critical > 0 {
		recs = append(recs, fmt.Sprintf("Address the %d critical issue(s) immediately; they represent exploitable or data-loss risks.", stats.Critical))
	}
	if stats.High > 0 {
		recs = append(recs, fmt.Sprintf("Schedule fixes for the %d high-risk issue(s) in the current iteration.", stats.High))
	}
	if stats.Medium > 0 {
		recs = append(recs, fmt.Sprintf("Review the %d medium-risk issue(s) during regular refactoring.", stats.Medium))
	}
	if stats.Total() == 0 {
		recs = append(recs, "No issues detected. Keep running the analysis as the codebase evolves.")
	}
	return recs
}

// Persist writes every issue to the ledger. A single bad issue does
// not abort the batch; the caller gets counts of both outcomes.
func Persist(l *ledger.Ledger, issues []types.Issue) (saved, failed int) {
	for i := range issues {
		if _, err := l.Save(issues[i]); err != nil {
			failed++
			continue
		}
		saved++
	}
	return saved, failed
}

type fileCount struct {
	file  string
	count int
}

// rankFiles orders files by descending issue count, ties broken by
// path for stable output.
func rankFiles(issues []types.Issue) []fileCount {
	counts := make(map[string]int)
	for i := range issues {
		counts[issues[i].File()]++
	}

	out := make([]fileCount, 0, len(counts))
	for file, count := range counts {
		out = append(out, fileCount{file: file, count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].file < out[j].file
	})
	return out
}

func filterByCategory(issues []types.Issue, c types.Category) []types.Issue {
	var out []types.Issue
	for i := range issues {
		if issues[i].Category == c {
			out = append(out, issues[i])
		}
	}
	return out
}

func sortBySeverity(issues []types.Issue) {
	rank := func(r types.Risk) int {
		for i, known := range types.Risks {
			if r == known {
				return i
			}
		}
		return len(types.Risks)
	}
	sort.Slice(issues, func(i, j int) bool {
		if ri, rj := rank(issues[i].Risk), rank(issues[j].Risk); ri != rj {
			return ri < rj
		}
		return issues[i].Location < issues[j].Location
	})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
