package gen

import (
	"fmt"
	"strings"

	"github.com/Balfin/code-analysis-multi-agent/internal/structure"
	"github.com/Balfin/code-analysis-multi-agent/internal/types"
)

// maxPromptLines caps how much of a file is sent to the collaborator.
// Larger files are sampled as first half + last half with an elision
// marker.
const maxPromptLines = 200

const (
	maxFunctionsInPrompt = 10
	maxClassesInPrompt   = 10
	maxImportsInPrompt   = 15
)

var categoryFocus = map[types.Category]string{
	types.CategorySecurity: `You are a security expert reviewing code for vulnerabilities.
Look for: injection risks, unsafe dynamic execution, unsafe deserialization,
hardcoded credentials, weak cryptography, and missing input validation.`,
	types.CategoryPerformance: `You are a performance analyst reviewing code for bottlenecks.
Look for: N+1 query patterns, unbounded queries, quadratic loops,
repeated computation, and inefficient string building.`,
	types.CategoryArchitecture: `You are a software architect reviewing code for design problems.
Look for: oversized classes and functions, excessive parameters,
silent error handling, namespace pollution, and unclear structure.`,
}

// BuildPrompt assembles the generation prompt for one file and
// category: role framing, structural context, the (possibly truncated)
// code, and the required response format.
func BuildPrompt(category types.Category, filePath, content string) string {
	functions := structure.ExtractFunctions(content)
	classes := structure.ExtractClasses(content)
	imports := structure.ExtractImports(content)

	var b strings.Builder
	b.WriteString(categoryFocus[category])
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "File: %s\n\n", filePath)

	fmt.Fprintf(&b, "Functions:\n%s\n\n", formatFunctions(functions))
	fmt.Fprintf(&b, "Classes:\n%s\n\n", formatClasses(classes))
	fmt.Fprintf(&b, "Imports:\n%s\n\n", formatImports(imports))

	fmt.Fprintf(&b, "Code:\n```\n%s\n```\n\n", truncateCode(content, maxPromptLines))

	b.WriteString(`Respond with a JSON array of issues. Each issue must have these fields:
"title", "risk_level" (critical/high/medium/low), "line_number",
"description", "code_snippet", "solution".
Respond with [] if you find no issues. Output only JSON, no prose.`)

	return b.String()
}

// truncateCode bounds code to maxLines by keeping the first and last
// halves with an elision marker in between.
func truncateCode(content string, maxLines int) string {
	lines := strings.Split(content, "\n")
	if len(lines) <= maxLines {
		return content
	}

	half := maxLines / 2
	truncated := make([]string, 0, maxLines+1)
	truncated = append(truncated, lines[:half]...)
	truncated = append(truncated, fmt.Sprintf("... (%d lines truncated) ...", len(lines)-maxLines))
	truncated = append(truncated, lines[len(lines)-half:]...)
	return strings.Join(truncated, "\n")
}

func formatFunctions(functions []structure.Function) string {
	if len(functions) == 0 {
		return "None found"
	}

	var out []string
	for i, f := range functions {
		if i >= maxFunctionsInPrompt {
			out = append(out, fmt.Sprintf("... and %d more", len(functions)-maxFunctionsInPrompt))
			break
		}
		args := f.Args
		if len(args) > 5 {
			args = args[:5]
		}
		out = append(out, fmt.Sprintf("- %s(%s) at line %d", f.Name, strings.Join(args, ", "), f.LineStart))
	}
	return strings.Join(out, "\n")
}

func formatClasses(classes []structure.Class) string {
	if len(classes) == 0 {
		return "None found"
	}

	var out []string
	for i, c := range classes {
		if i >= maxClassesInPrompt {
			out = append(out, fmt.Sprintf("... and %d more", len(classes)-maxClassesInPrompt))
			break
		}
		methods := c.Methods
		if len(methods) > 5 {
			methods = methods[:5]
		}
		out = append(out, fmt.Sprintf("- %s (methods: %s) at line %d", c.Name, strings.Join(methods, ", "), c.LineStart))
	}
	return strings.Join(out, "\n")
}

func formatImports(imports []structure.Import) string {
	if len(imports) == 0 {
		return "None found"
	}

	var out []string
	for i, imp := range imports {
		if i >= maxImportsInPrompt {
			out = append(out, fmt.Sprintf("... and %d more", len(imports)-maxImportsInPrompt))
			break
		}
		if len(imp.Names) > 0 {
			names := imp.Names
			if len(names) > 3 {
				names = names[:3]
			}
			out = append(out, fmt.Sprintf("from %s import %s", imp.Module, strings.Join(names, ", ")))
		} else {
			out = append(out, fmt.Sprintf("import %s", imp.Module))
		}
	}
	return strings.Join(out, "\n")
}
