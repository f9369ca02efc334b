// Package rules implements the data-driven detection engine. A rule is
// pure data: a compiled pattern plus risk and remediation metadata.
// Adding a detection requires a new table entry, never new evaluation
// logic.
package rules

import (
	"regexp"
	"strings"

	"github.com/Balfin/code-analysis-multi-agent/internal/types"
)

// Rule is one named detection pattern with its metadata.
type Rule struct {
	Name     string
	Category types.Category
	Risk     types.Risk
	Pattern  *regexp.Regexp

	// Group selects which capture group is reported as the matched
	// substring. Zero means the whole match.
	Group int

	Title       string
	Description string // may contain a {match} placeholder
	Solution    string
}

// matchPreview caps the matched substring interpolated into
// descriptions.
const matchPreview = 50

// Describe renders the rule description, substituting the matched
// substring for the {match} placeholder when present.
func (r *Rule) Describe(match string) string {
	if !strings.Contains(r.Description, "{match}") {
		return r.Description
	}
	if len(match) > matchPreview {
		match = match[:matchPreview] + "..."
	}
	return strings.ReplaceAll(r.Description, "{match}", match)
}

// Match is one raw detection emitted by Evaluate.
type Match struct {
	Rule     *Rule
	Line     int // 1-based line number of the match start
	LineText string
	Matched  string
}

// Evaluate scans file content against a rule set and returns every
// pattern match with its line number. Patterns may span lines; the
// reported line is where the match begins.
func Evaluate(content string, set []Rule) []Match {
	var matches []Match

	for i := range set {
		rule := &set[i]
		locs := rule.Pattern.FindAllStringSubmatchIndex(content, -1)
		for _, loc := range locs {
			start, end := loc[0], loc[1]
			if rule.Group > 0 && 2*rule.Group+1 < len(loc) && loc[2*rule.Group] >= 0 {
				start, end = loc[2*rule.Group], loc[2*rule.Group+1]
			}
			matches = append(matches, Match{
				Rule:     rule,
				Line:     lineAt(content, start),
				LineText: lineTextAt(content, start),
				Matched:  content[start:end],
			})
		}
	}

	return matches
}

// ForCategory returns the rule table for a category. Unknown categories
// yield an empty set.
func ForCategory(c types.Category) []Rule {
	switch c {
	case types.CategorySecurity:
		return SecurityRules
	case types.CategoryPerformance:
		return PerformanceRules
	case types.CategoryArchitecture:
		return ArchitectureRules
	}
	return nil
}

func lineAt(content string, offset int) int {
	return 1 + strings.Count(content[:offset], "\n")
}

func lineTextAt(content string, offset int) string {
	start := strings.LastIndexByte(content[:offset], '\n') + 1
	end := strings.IndexByte(content[offset:], '\n')
	if end < 0 {
		end = len(content)
	} else {
		end += offset
	}
	return strings.TrimSpace(content[start:end])
}
