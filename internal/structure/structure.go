// Package structure extracts shallow structural facts from source text:
// function and class declarations, imports, and line-count metrics.
// Extraction is line-oriented pattern matching, not semantic parsing;
// it covers the declaration shapes of Python, Go, and JavaScript well
// enough for prompt context and size heuristics.
package structure

import (
	"regexp"
	"strings"
)

var (
	pyFuncRegex  = regexp.MustCompile(`^(\s*)(?:async\s+)?def\s+(\w+)\s*\(([^)]*)`)
	goFuncRegex  = regexp.MustCompile(`^func\s+(?:\([^)]+\)\s*)?(\w+)\s*\(([^)]*)`)
	jsFuncRegex  = regexp.MustCompile(`^\s*(?:export\s+)?(?:async\s+)?function\s+(\w+)\s*\(([^)]*)`)
	pyClassRegex = regexp.MustCompile(`^\s*class\s+(\w+)`)
	goTypeRegex  = regexp.MustCompile(`^type\s+(\w+)\s+struct\b`)
	jsClassRegex = regexp.MustCompile(`^\s*(?:export\s+)?class\s+(\w+)`)

	pyImportRegex   = regexp.MustCompile(`^\s*import\s+([\w.,\s]+)$`)
	pyFromRegex     = regexp.MustCompile(`^\s*from\s+([\w.]+)\s+import\s+(.+)$`)
	goImportRegex   = regexp.MustCompile(`^\s*import\s+(?:\w+\s+)?"([^"]+)"`)
	jsRequireRegex  = regexp.MustCompile(`require\s*\(\s*['"]([^'"]+)['"]`)
	branchKeywords  = regexp.MustCompile(`\b(if|for|while|try)\b`)
	commentPrefixes = []string{"#", "//"}
)

// Function is one extracted function declaration.
type Function struct {
	Name      string
	Args      []string
	LineStart int
	LineEnd   int
}

// Class is one extracted class or struct declaration.
type Class struct {
	Name      string
	Methods   []string
	LineStart int
	LineEnd   int
}

// Import is one extracted import statement.
type Import struct {
	Module string
	Names  []string
	Line   int
}

// Metrics summarizes the size and rough complexity of a file.
type Metrics struct {
	LinesTotal         int
	LinesCode          int
	LinesBlank         int
	LinesComment       int
	FunctionCount      int
	ClassCount         int
	ImportCount        int
	ComplexityEstimate int
}

// ExtractFunctions returns function declarations with estimated spans.
// A function is assumed to end where the next declaration at the same
// or shallower indentation begins.
func ExtractFunctions(content string) []Function {
	lines := strings.Split(content, "\n")
	var funcs []Function

	for num, line := range lines {
		var name, args string
		var indent int

		if m := pyFuncRegex.FindStringSubmatch(line); m != nil {
			indent, name, args = len(m[1]), m[2], m[3]
		} else if m := goFuncRegex.FindStringSubmatch(line); m != nil {
			name, args = m[1], m[2]
		} else if m := jsFuncRegex.FindStringSubmatch(line); m != nil {
			name, args = m[1], m[2]
		} else {
			continue
		}

		funcs = append(funcs, Function{
			Name:      name,
			Args:      splitArgs(args),
			LineStart: num + 1,
			LineEnd:   declEnd(lines, num, indent),
		})
	}

	return funcs
}

// ExtractClasses returns class declarations with the methods declared
// inside their span.
func ExtractClasses(content string) []Class {
	lines := strings.Split(content, "\n")
	funcs := ExtractFunctions(content)
	var classes []Class

	for num, line := range lines {
		var name string
		if m := pyClassRegex.FindStringSubmatch(line); m != nil {
			name = m[1]
		} else if m := goTypeRegex.FindStringSubmatch(line); m != nil {
			name = m[1]
		} else if m := jsClassRegex.FindStringSubmatch(line); m != nil {
			name = m[1]
		} else {
			continue
		}

		start := num + 1
		end := classEnd(lines, num)
		var methods []string
		for _, f := range funcs {
			if f.LineStart > start && f.LineStart <= end {
				methods = append(methods, f.Name)
			}
		}

		classes = append(classes, Class{
			Name:      name,
			Methods:   methods,
			LineStart: start,
			LineEnd:   end,
		})
	}

	return classes
}

// ExtractImports returns import statements across the supported
// declaration shapes.
func ExtractImports(content string) []Import {
	lines := strings.Split(content, "\n")
	var imports []Import

	for num, line := range lines {
		switch {
		case pyFromRegex.MatchString(line):
			m := pyFromRegex.FindStringSubmatch(line)
			imports = append(imports, Import{
				Module: m[1],
				Names:  splitArgs(m[2]),
				Line:   num + 1,
			})
		case pyImportRegex.MatchString(line):
			m := pyImportRegex.FindStringSubmatch(line)
			for _, mod := range splitArgs(m[1]) {
				imports = append(imports, Import{Module: mod, Line: num + 1})
			}
		case goImportRegex.MatchString(line):
			m := goImportRegex.FindStringSubmatch(line)
			imports = append(imports, Import{Module: m[1], Line: num + 1})
		case jsRequireRegex.MatchString(line):
			m := jsRequireRegex.FindStringSubmatch(line)
			imports = append(imports, Import{Module: m[1], Line: num + 1})
		}
	}

	return imports
}

// ComputeMetrics calculates line counts and a rough complexity
// estimate. The estimate weighs declarations and branch keywords; it is
// a size heuristic, not cyclomatic complexity.
func ComputeMetrics(content string) Metrics {
	lines := strings.Split(content, "\n")

	m := Metrics{LinesTotal: len(lines)}
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			m.LinesBlank++
		case isComment(trimmed):
			m.LinesComment++
		default:
			m.LinesCode++
		}
	}

	m.FunctionCount = len(ExtractFunctions(content))
	m.ClassCount = len(ExtractClasses(content))
	m.ImportCount = len(ExtractImports(content))

	m.ComplexityEstimate = m.FunctionCount*2 +
		m.ClassCount*3 +
		m.LinesCode/50 +
		len(branchKeywords.FindAllString(content, -1))

	return m
}

func isComment(trimmed string) bool {
	for _, p := range commentPrefixes {
		if strings.HasPrefix(trimmed, p) {
			return true
		}
	}
	return false
}

func splitArgs(args string) []string {
	var out []string
	for _, a := range strings.Split(args, ",") {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		// Drop type annotations and defaults.
		if idx := strings.IndexAny(a, ":="); idx >= 0 {
			a = strings.TrimSpace(a[:idx])
		}
		if idx := strings.IndexByte(a, ' '); idx >= 0 {
			a = a[:idx]
		}
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

// declEnd finds where a declaration starting at line idx ends: the line
// before the next declaration at the same or shallower indentation, or
// the last non-blank line of the file.
func declEnd(lines []string, idx, indent int) int {
	for i := idx + 1; i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			continue
		}
		cur := len(line) - len(strings.TrimLeft(line, " \t"))
		isDecl := pyFuncRegex.MatchString(line) || goFuncRegex.MatchString(line) ||
			pyClassRegex.MatchString(line) || goTypeRegex.MatchString(line) ||
			jsFuncRegex.MatchString(line) || jsClassRegex.MatchString(line)
		if isDecl && cur <= indent {
			return i
		}
		if cur < indent && indent > 0 {
			return i
		}
	}
	return lastNonBlank(lines)
}

// classEnd finds where a class body ends: the next declaration at the
// class's own indentation, or end of file.
func classEnd(lines []string, idx int) int {
	indent := len(lines[idx]) - len(strings.TrimLeft(lines[idx], " \t"))
	for i := idx + 1; i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			continue
		}
		cur := len(line) - len(strings.TrimLeft(line, " \t"))
		if cur > indent {
			continue
		}
		isDecl := pyClassRegex.MatchString(line) || goTypeRegex.MatchString(line) ||
			pyFuncRegex.MatchString(line) || goFuncRegex.MatchString(line)
		if isDecl {
			return i
		}
	}
	return lastNonBlank(lines)
}

func lastNonBlank(lines []string) int {
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			return i + 1
		}
	}
	return len(lines)
}
