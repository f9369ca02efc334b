// Package analyzer implements the three specialist analyzers. Each
// instance covers one category and combines collaborator findings,
// rule engine matches, and structural heuristics into a deduplicated
// issue list for the current file.
package analyzer

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Balfin/code-analysis-multi-agent/internal/gen"
	"github.com/Balfin/code-analysis-multi-agent/internal/rules"
	"github.com/Balfin/code-analysis-multi-agent/internal/structure"
	"github.com/Balfin/code-analysis-multi-agent/internal/types"
)

// dedupWindow is the line proximity within which a rule match is
// considered a duplicate of an already-accepted issue. Heuristic, not
// derived from a model.
const dedupWindow = 2

// structuralWindow is the wider proximity window used when checking
// whether a structural heuristic duplicates an accepted issue.
const structuralWindow = 5

// Thresholds for the structural heuristics.
const (
	complexityThreshold = 50
	longFunctionLines   = 50
	largeClassMethods   = 10
)

// Analyzer detects issues of a single category in one file at a time.
type Analyzer struct {
	category  types.Category
	rules     []rules.Rule
	generator gen.Generator // nil disables the generation pass
}

// New creates an analyzer for a category. A nil generator puts the
// analyzer in rule-only mode.
func New(category types.Category, generator gen.Generator) *Analyzer {
	return &Analyzer{
		category:  category,
		rules:     rules.ForCategory(category),
		generator: generator,
	}
}

// Name returns the analyzer's category name, used to mark completion
// in the run state.
func (a *Analyzer) Name() string {
	return string(a.category)
}

// Category returns the analyzer's fixed category.
func (a *Analyzer) Category() types.Category {
	return a.category
}

// Analyze produces the deduplicated issue list for one file.
//
// Collaborator findings are accepted first; rule matches are filtered
// against the growing accepted list; structural heuristics run last.
// A collaborator failure degrades to rule-only output and never
// propagates.
func (a *Analyzer) Analyze(ctx context.Context, filePath, content string) ([]types.Issue, types.Message) {
	if filePath == "" || content == "" {
		return nil, types.NewMessage(a.Name(), "No file content to analyze", map[string]any{
			"action": "skip",
		})
	}

	var issues []types.Issue
	generatedUsed := false

	if a.generator != nil {
		generated, err := a.generate(ctx, filePath, content)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %s generation failed for %s: %v\n", a.category, filePath, err)
		} else {
			issues = append(issues, generated...)
			generatedUsed = true
		}
	}

	for _, m := range rules.Evaluate(content, a.rules) {
		if nearAccepted(issues, m.Line, dedupWindow) {
			continue
		}
		issues = append(issues, types.Issue{
			Location:    fmt.Sprintf("%s:%d", filePath, m.Line),
			Category:    a.category,
			Risk:        m.Rule.Risk,
			Title:       m.Rule.Title,
			Description: m.Rule.Describe(m.Matched),
			CodeSnippet: m.LineText,
			Solution:    m.Rule.Solution,
			Author:      a.authorTag("Rules"),
			CreatedAt:   time.Now(),
		})
	}

	issues = append(issues, a.structuralIssues(filePath, content, issues)...)

	content2 := fmt.Sprintf("Found %d %s issues in %s", len(issues), a.category, filePath)
	if a.generator != nil && generatedUsed {
		content2 += fmt.Sprintf(" (generated: %d)", countByAuthor(issues, a.authorTag("Generated")))
	} else {
		content2 += " (rule-only)"
	}

	return issues, types.NewMessage(a.Name(), content2, map[string]any{
		"action":         "analyze",
		"file":           filePath,
		"issues_found":   len(issues),
		"generated_used": generatedUsed,
	})
}

// generate runs the collaborator pass and converts its findings into
// issues with generated provenance.
func (a *Analyzer) generate(ctx context.Context, filePath, content string) ([]types.Issue, error) {
	prompt := gen.BuildPrompt(a.category, filePath, content)
	text, err := a.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	findings := gen.ParseFindings(text)
	issues := make([]types.Issue, 0, len(findings))
	for _, f := range findings {
		issues = append(issues, types.Issue{
			Location:    fmt.Sprintf("%s:%d", filePath, f.Line),
			Category:    a.category,
			Risk:        f.Risk,
			Title:       f.Title,
			Description: f.Description,
			CodeSnippet: f.Snippet,
			Solution:    f.Solution,
			Author:      a.authorTag("Generated"),
			CreatedAt:   time.Now(),
		})
	}
	return issues, nil
}

// structuralIssues applies the per-category heuristics that cannot be
// expressed as single patterns.
func (a *Analyzer) structuralIssues(filePath, content string, accepted []types.Issue) []types.Issue {
	switch a.category {
	case types.CategoryPerformance:
		return a.complexityIssue(filePath, content, accepted)
	case types.CategoryArchitecture:
		return a.sizeIssues(filePath, content, accepted)
	}
	return nil
}

func (a *Analyzer) complexityIssue(filePath, content string, accepted []types.Issue) []types.Issue {
	metrics := structure.ComputeMetrics(content)
	if metrics.ComplexityEstimate <= complexityThreshold {
		return nil
	}
	if titleContains(accepted, "complexity") {
		return nil
	}

	return []types.Issue{{
		Location: fmt.Sprintf("%s:1", filePath),
		Category: types.CategoryPerformance,
		Risk:     types.RiskMedium,
		Title:    "High Code Complexity",
		Description: fmt.Sprintf("File has high complexity score (%d). Consider refactoring for better performance and maintainability.",
			metrics.ComplexityEstimate),
		CodeSnippet: fmt.Sprintf("# Metrics: %d functions, %d classes", metrics.FunctionCount, metrics.ClassCount),
		Solution:    "Break down complex functions into smaller units. Consider extracting types or modules.",
		Author:      a.authorTag("Metrics"),
		CreatedAt:   time.Now(),
	}}
}

func (a *Analyzer) sizeIssues(filePath, content string, accepted []types.Issue) []types.Issue {
	var out []types.Issue

	for _, f := range structure.ExtractFunctions(content) {
		span := f.LineEnd - f.LineStart
		if span <= longFunctionLines {
			continue
		}
		if nearAcceptedWithTitle(accepted, f.LineStart, structuralWindow, "long") {
			continue
		}
		args := f.Args
		if len(args) > 3 {
			args = args[:3]
		}
		out = append(out, types.Issue{
			Location:    fmt.Sprintf("%s:%d", filePath, f.LineStart),
			Category:    types.CategoryArchitecture,
			Risk:        types.RiskMedium,
			Title:       "Long Function",
			Description: fmt.Sprintf("Function `%s` is %d lines long. Long functions are harder to understand and test.", f.Name, span),
			CodeSnippet: fmt.Sprintf("%s(%s...)", f.Name, strings.Join(args, ", ")),
			Solution:    "Break down into smaller, focused functions with single responsibilities.",
			Author:      a.authorTag("Metrics"),
			CreatedAt:   time.Now(),
		})
		accepted = append(accepted, out[len(out)-1])
	}

	for _, c := range structure.ExtractClasses(content) {
		if len(c.Methods) <= largeClassMethods {
			continue
		}
		if nearAcceptedWithTitle(accepted, c.LineStart, structuralWindow, "god", "large") {
			continue
		}
		out = append(out, types.Issue{
			Location:    fmt.Sprintf("%s:%d", filePath, c.LineStart),
			Category:    types.CategoryArchitecture,
			Risk:        types.RiskMedium,
			Title:       "Large Class (God Object)",
			Description: fmt.Sprintf("Class `%s` has %d methods. Large classes often violate Single Responsibility Principle.", c.Name, len(c.Methods)),
			CodeSnippet: fmt.Sprintf("class %s: # %d methods", c.Name, len(c.Methods)),
			Solution:    "Consider splitting into smaller, focused classes. Extract related methods into separate classes.",
			Author:      a.authorTag("Metrics"),
			CreatedAt:   time.Now(),
		})
		accepted = append(accepted, out[len(out)-1])
	}

	return out
}

func (a *Analyzer) authorTag(method string) string {
	name := string(a.category)
	if name != "" {
		name = strings.ToUpper(name[:1]) + name[1:]
	}
	return fmt.Sprintf("%sAnalyzer (%s)", name, method)
}

// nearAccepted reports whether any accepted issue sits within window
// lines of the given line.
func nearAccepted(accepted []types.Issue, line, window int) bool {
	for i := range accepted {
		diff := accepted[i].Line() - line
		if diff < 0 {
			diff = -diff
		}
		if diff <= window {
			return true
		}
	}
	return false
}

func nearAcceptedWithTitle(accepted []types.Issue, line, window int, words ...string) bool {
	for i := range accepted {
		diff := accepted[i].Line() - line
		if diff < 0 {
			diff = -diff
		}
		if diff > window {
			continue
		}
		title := strings.ToLower(accepted[i].Title)
		for _, w := range words {
			if strings.Contains(title, w) {
				return true
			}
		}
	}
	return false
}

func titleContains(accepted []types.Issue, word string) bool {
	for i := range accepted {
		if strings.Contains(strings.ToLower(accepted[i].Title), word) {
			return true
		}
	}
	return false
}

func countByAuthor(issues []types.Issue, author string) int {
	n := 0
	for i := range issues {
		if issues[i].Author == author {
			n++
		}
	}
	return n
}
