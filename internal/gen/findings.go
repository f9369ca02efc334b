package gen

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Balfin/code-analysis-multi-agent/internal/types"
)

// Finding is one candidate issue extracted from collaborator output.
// Fields are already normalized: risk is valid, title is non-empty and
// capped, snippet is capped.
type Finding struct {
	Title       string
	Risk        types.Risk
	Line        int
	Description string
	Snippet     string
	Solution    string
}

const (
	fallbackTitle       = "Unnamed Issue"
	fallbackDescription = "No description provided"
	fallbackSolution    = "Review and fix the issue"
	maxTitleLen         = 200
	maxSnippetLen       = 500
)

// Pre-compiled regular expressions for performance.
var (
	codeFenceRegex = regexp.MustCompile("(?s)`{3}(?:json)?\\s*\n?([\\s\\S]*?)\n?`{3}")

	arrayRegex  = regexp.MustCompile(`(?s)\[[\s\S]*\]`)
	objectRegex = regexp.MustCompile(`(?s)\{[\s\S]*\}`)

	trailingCommaRegex = regexp.MustCompile(`,(\s*[}\]])`)
	controlCharRegex   = regexp.MustCompile(`[\x00-\x1f\x7f-\x9f]`)

	objectStartRegex = regexp.MustCompile(`\{\s*"title"`)

	fieldRegexes = map[string]*regexp.Regexp{
		"title":       regexp.MustCompile(`"title"\s*:\s*"([^"]+)"`),
		"risk_level":  regexp.MustCompile(`"risk_level"\s*:\s*"([^"]+)"`),
		"line_number": regexp.MustCompile(`"line_number"\s*:\s*(\d+)`),
		"description": regexp.MustCompile(`"description"\s*:\s*"((?:[^"\\]|\\.)*)"`),
		"solution":    regexp.MustCompile(`"solution"\s*:\s*"((?:[^"\\]|\\.)*)"`),
	}
	snippetRegex = regexp.MustCompile(`(?s)"code_snippet"\s*:\s*"(.+?)"\s*[,}]`)

	smartQuoteReplacer = strings.NewReplacer(
		"“", `"`, "”", `"`,
		"‘", "'", "’", "'",
	)
)

// rawFinding matches the JSON shape requested from the collaborator.
type rawFinding struct {
	Title       string          `json:"title"`
	RiskLevel   string          `json:"risk_level"`
	LineNumber  json.RawMessage `json:"line_number"`
	Line        json.RawMessage `json:"line"`
	Description string          `json:"description"`
	CodeSnippet string          `json:"code_snippet"`
	Solution    string          `json:"solution"`
}

// ParseFindings extracts candidate findings from untrusted collaborator
// output. It never returns an error: output that defeats every parsing
// tier yields an empty slice.
//
// Tier sequence:
//  1. Strict JSON parse of the extracted array or object
//  2. Sanitized parse after stripping trailing commas and control chars
//  3. Line-oriented field extraction by pattern
func ParseFindings(text string) []Finding {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	cleaned := smartQuoteReplacer.Replace(text)
	cleaned = codeFenceRegex.ReplaceAllString(cleaned, "$1")

	payload := extractJSON(cleaned)
	if payload != "" {
		// Tier 1: strict parse.
		if findings, ok := tryParse(payload); ok {
			return findings
		}

		// Tier 2: sanitize and retry.
		sanitized := trailingCommaRegex.ReplaceAllString(payload, "$1")
		sanitized = controlCharRegex.ReplaceAllString(sanitized, "")
		if findings, ok := tryParse(sanitized); ok {
			return findings
		}
	}

	slog.Debug("structured parse failed, falling back to field extraction",
		"textPreview", preview(text, 100))

	// Tier 3: pattern-based field extraction.
	return extractByPattern(cleaned)
}

func tryParse(payload string) ([]Finding, bool) {
	var raws []rawFinding

	if strings.HasPrefix(strings.TrimSpace(payload), "{") {
		var single rawFinding
		if err := json.Unmarshal([]byte(payload), &single); err != nil {
			return nil, false
		}
		raws = []rawFinding{single}
	} else {
		if err := json.Unmarshal([]byte(payload), &raws); err != nil {
			return nil, false
		}
	}

	findings := make([]Finding, 0, len(raws))
	for _, r := range raws {
		findings = append(findings, normalize(r))
	}
	return findings, true
}

// extractJSON pulls the JSON array or object out of mixed content.
// Arrays are preferred: the requested format is an array, and matching
// an object first would truncate multi-element responses.
func extractJSON(text string) string {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "[") || !strings.HasPrefix(trimmed, "{") {
		if m := arrayRegex.FindString(text); m != "" {
			return m
		}
	}
	return objectRegex.FindString(text)
}

func extractByPattern(text string) []Finding {
	starts := objectStartRegex.FindAllStringIndex(text, -1)
	if len(starts) == 0 {
		return nil
	}

	var findings []Finding
	for i, start := range starts {
		end := len(text)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		part := text[start[0]:end]

		var r rawFinding
		if m := fieldRegexes["title"].FindStringSubmatch(part); m != nil {
			r.Title = m[1]
		} else {
			continue
		}
		if m := fieldRegexes["risk_level"].FindStringSubmatch(part); m != nil {
			r.RiskLevel = m[1]
		}
		if m := fieldRegexes["line_number"].FindStringSubmatch(part); m != nil {
			r.LineNumber = json.RawMessage(m[1])
		}
		if m := fieldRegexes["description"].FindStringSubmatch(part); m != nil {
			r.Description = m[1]
		}
		if m := fieldRegexes["solution"].FindStringSubmatch(part); m != nil {
			r.Solution = m[1]
		}
		if m := snippetRegex.FindStringSubmatch(part); m != nil {
			r.CodeSnippet = m[1]
		}

		findings = append(findings, normalize(r))
	}

	return findings
}

// normalize applies defaults and caps so downstream code never sees an
// invalid risk or unbounded field.
func normalize(r rawFinding) Finding {
	f := Finding{
		Title:       strings.TrimSpace(r.Title),
		Description: strings.TrimSpace(r.Description),
		Snippet:     r.CodeSnippet,
		Solution:    strings.TrimSpace(r.Solution),
	}

	if f.Title == "" {
		f.Title = fallbackTitle
	}
	f.Title = truncateAtRune(f.Title, maxTitleLen)
	if f.Description == "" {
		f.Description = fallbackDescription
	}
	if f.Solution == "" {
		f.Solution = fallbackSolution
	}
	f.Snippet = truncateAtRune(f.Snippet, maxSnippetLen)

	risk := types.Risk(strings.ToLower(strings.TrimSpace(r.RiskLevel)))
	if !risk.IsValid() {
		risk = types.RiskMedium
	}
	f.Risk = risk

	f.Line = parseLine(r.LineNumber)
	if f.Line <= 0 {
		f.Line = parseLine(r.Line)
	}
	if f.Line <= 0 {
		f.Line = 1
	}

	return f
}

// parseLine accepts both numeric and quoted line numbers.
func parseLine(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// truncateAtRune caps s at limit bytes without splitting a rune.
func truncateAtRune(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

func preview(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
