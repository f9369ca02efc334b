package rules

import (
	"regexp"

	"github.com/Balfin/code-analysis-multi-agent/internal/types"
)

// SecurityRules detects common vulnerability shapes: injection,
// unsafe dynamic execution, unsafe deserialization, leaked credentials.
var SecurityRules = []Rule{
	{
		Name:        "sql_injection",
		Category:    types.CategorySecurity,
		Risk:        types.RiskCritical,
		Pattern:     regexp.MustCompile(`(execute|cursor\.execute|raw|RawSQL)\s*\([^)]*(["'].*%s|\+.*\+|\{.*\})`),
		Title:       "Potential SQL Injection",
		Description: "Detected potential SQL injection vulnerability. User input may be directly concatenated into SQL query: `{match}`",
		Solution:    "Use parameterized queries or an ORM with proper escaping. Never concatenate user input into SQL.",
	},
	{
		Name:        "hardcoded_secret",
		Category:    types.CategorySecurity,
		Risk:        types.RiskHigh,
		Pattern:     regexp.MustCompile(`(API_KEY|SECRET|PASSWORD|TOKEN|PRIVATE_KEY)\s*=\s*["'][^"']+["']`),
		Title:       "Hardcoded Secret/Credential",
		Description: "Found hardcoded secret or credential in source code: `{match}`. This exposes sensitive information.",
		Solution:    "Move secrets to environment variables or a secure secrets manager. Never commit secrets to source control.",
	},
	{
		Name:        "eval_usage",
		Category:    types.CategorySecurity,
		Risk:        types.RiskCritical,
		Pattern:     regexp.MustCompile(`\beval\s*\(`),
		Title:       "Unsafe eval() Usage",
		Description: "Using eval() with external input can execute arbitrary code and is a critical security risk.",
		Solution:    "Avoid eval(). If dynamic execution is needed, use a safe literal evaluator instead.",
	},
	{
		Name:        "exec_usage",
		Category:    types.CategorySecurity,
		Risk:        types.RiskCritical,
		Pattern:     regexp.MustCompile(`\bexec\s*\(`),
		Title:       "Unsafe exec() Usage",
		Description: "Using exec() with external input can execute arbitrary code and is a critical security risk.",
		Solution:    "Avoid exec(). Consider safer alternatives like explicit dispatch tables or dynamic imports.",
	},
	{
		Name:        "pickle_loads",
		Category:    types.CategorySecurity,
		Risk:        types.RiskCritical,
		Pattern:     regexp.MustCompile(`pickle\.(loads|load)\s*\(`),
		Title:       "Unsafe Pickle Deserialization",
		Description: "pickle.loads() can execute arbitrary code during deserialization. Never unpickle data from untrusted sources.",
		Solution:    "Use JSON or other safe serialization formats. If pickle is required, only unpickle trusted data.",
	},
	{
		Name:        "shell_injection",
		Category:    types.CategorySecurity,
		Risk:        types.RiskCritical,
		Pattern:     regexp.MustCompile(`(os\.system|subprocess\.call|subprocess\.run|subprocess\.Popen)\s*\([^)]*(["'].*\+|\{|\$)`),
		Title:       "Potential Shell Injection",
		Description: "Shell command appears to include external input: `{match}`. This could allow command injection.",
		Solution:    "Invoke subprocesses without a shell and pass arguments as a list. Validate and sanitize all inputs.",
	},
	{
		Name:        "unsafe_yaml",
		Category:    types.CategorySecurity,
		Risk:        types.RiskHigh,
		Pattern:     regexp.MustCompile(`yaml\.(load|unsafe_load)\s*\(`),
		Title:       "Unsafe YAML Loading",
		Description: "yaml.load() without a safe loader can execute arbitrary code. Use yaml.safe_load() instead.",
		Solution:    "Replace yaml.load() with yaml.safe_load() or specify a safe loader explicitly.",
	},
	{
		Name:        "hardcoded_ip",
		Category:    types.CategorySecurity,
		Risk:        types.RiskLow,
		Pattern:     regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`),
		Title:       "Hardcoded IP Address",
		Description: "Hardcoded IP address found: `{match}`. Consider using configuration or environment variables.",
		Solution:    "Use environment variables or configuration files for IP addresses to support different environments.",
	},
	{
		Name:        "debug_true",
		Category:    types.CategorySecurity,
		Risk:        types.RiskMedium,
		Pattern:     regexp.MustCompile(`DEBUG\s*=\s*True`),
		Title:       "Debug Mode Enabled",
		Description: "Debug mode is enabled in code. Ensure this is disabled in production.",
		Solution:    "Use environment variables to control debug mode. Set DEBUG=False for production.",
	},
	{
		Name:        "insecure_hash",
		Category:    types.CategorySecurity,
		Risk:        types.RiskMedium,
		Pattern:     regexp.MustCompile(`\b(md5|sha1)\s*\(`),
		Title:       "Insecure Hash Algorithm",
		Description: "MD5 or SHA1 are cryptographically weak. Use SHA-256 or stronger for security purposes.",
		Solution:    "Use SHA-256 or SHA-3 family hashes for security-sensitive hashing.",
	},
}

// PerformanceRules detects query and loop shapes that degrade at scale.
var PerformanceRules = []Rule{
	{
		Name:        "n_plus_one",
		Category:    types.CategoryPerformance,
		Risk:        types.RiskHigh,
		Pattern:     regexp.MustCompile(`for\s+\w+\s+in\s+\w+[^\n]*:\s*\n\s+[^\n]*\.(query|execute|get|filter)\s*\(`),
		Title:       "N+1 Query Pattern",
		Description: "Detected N+1 query pattern where database queries are made inside a loop: `{match}`",
		Solution:    "Use eager loading or batch queries to reduce database round trips.",
	},
	{
		Name:        "select_all",
		Category:    types.CategoryPerformance,
		Risk:        types.RiskMedium,
		Pattern:     regexp.MustCompile(`SELECT\s+\*\s+FROM`),
		Title:       "SELECT * Query",
		Description: "Using SELECT * retrieves all columns, which can be inefficient. Select only needed columns.",
		Solution:    "Specify only the columns you need: SELECT col1, col2 FROM table instead of SELECT *.",
	},
	{
		Name:        "no_limit_query",
		Category:    types.CategoryPerformance,
		Risk:        types.RiskMedium,
		Pattern:     regexp.MustCompile(`(?m)\.(all|filter)\s*\(\s*\)\s*$`),
		Title:       "Query Without Limit",
		Description: "Query retrieves all records without limit, which can cause memory issues with large datasets.",
		Solution:    "Add a LIMIT clause or use pagination to avoid loading entire tables.",
	},
	{
		Name:        "string_concat_loop",
		Category:    types.CategoryPerformance,
		Risk:        types.RiskMedium,
		Pattern:     regexp.MustCompile(`for\s+[^\n]*:\s*\n\s+\w+\s*\+=\s*["']`),
		Title:       "String Concatenation in Loop",
		Description: "String concatenation in a loop creates many intermediate strings.",
		Solution:    "Build a list of fragments and join once at the end, or use a string builder.",
	},
	{
		Name:        "global_variable",
		Category:    types.CategoryPerformance,
		Risk:        types.RiskLow,
		Pattern:     regexp.MustCompile(`(?m)^global\s+\w+`),
		Title:       "Global Variable Usage",
		Description: "Global variables can cause performance issues in multi-threaded environments and make code harder to optimize.",
		Solution:    "Pass values as function parameters or use dependency injection. Consider encapsulating state in a type.",
	},
	{
		Name:        "nested_loops",
		Category:    types.CategoryPerformance,
		Risk:        types.RiskHigh,
		Pattern:     regexp.MustCompile(`for\s+\w+\s+in\s+\w+[^\n]*:\s*\n\s+for\s+\w+\s+in\s+\w+`),
		Title:       "Nested Loop (O(n²) complexity)",
		Description: "Nested loops detected: `{match}`. This has O(n²) complexity and can be slow for large inputs.",
		Solution:    "Consider using sets or maps for O(1) lookups, or algorithmic optimizations.",
	},
	{
		Name:        "sleep_in_loop",
		Category:    types.CategoryPerformance,
		Risk:        types.RiskLow,
		Pattern:     regexp.MustCompile(`for\s+[^\n]*:\s*\n\s+[^\n]*(time\.sleep|time\.Sleep)\s*\(`),
		Title:       "Sleep Inside Loop",
		Description: "Sleeping inside a loop serializes work and inflates total latency: `{match}`",
		Solution:    "Replace polling sleeps with event-driven waits, timers, or batched delays outside the loop.",
	},
}

// ArchitectureRules detects structural and code quality smells.
var ArchitectureRules = []Rule{
	{
		Name:        "god_class",
		Category:    types.CategoryArchitecture,
		Risk:        types.RiskHigh,
		Pattern:     regexp.MustCompile(`class\s+\w+[^:\n]*:\s*\n(?:[^\n]*\n){100,}`),
		Title:       "God Class (Too Large)",
		Description: "Class is very large and likely handles too many responsibilities.",
		Solution:    "Apply Single Responsibility Principle. Split into smaller classes with focused responsibilities.",
	},
	{
		Name:        "long_function",
		Category:    types.CategoryArchitecture,
		Risk:        types.RiskMedium,
		Pattern:     regexp.MustCompile(`def\s+\w+[^:\n]*:\s*\n(?:[^\n]*\n){50,}`),
		Title:       "Long Function",
		Description: "Function is very long and may be doing too much.",
		Solution:    "Extract smaller functions. Each function should do one thing well.",
	},
	{
		Name:        "too_many_params",
		Category:    types.CategoryArchitecture,
		Risk:        types.RiskMedium,
		Pattern:     regexp.MustCompile(`def\s+\w+\s*\([^)\n]{100,}\)`),
		Title:       "Too Many Parameters",
		Description: "Function has many parameters: `{match}`. This makes it hard to use and test.",
		Solution:    "Consider using a configuration object or builder pattern to reduce parameters.",
	},
	{
		Name:        "magic_number",
		Category:    types.CategoryArchitecture,
		Risk:        types.RiskLow,
		Pattern:     regexp.MustCompile(`(?m)(?:^|[^"'\w])(\d\d+)(?:[^"'\w]|$)`),
		Group:       1,
		Title:       "Magic Number",
		Description: "Magic number detected: `{match}`. Unnamed numbers make code harder to understand.",
		Solution:    "Define named constants with meaningful names: MAX_RETRIES = 3 instead of just 3.",
	},
	{
		Name:        "todo_fixme",
		Category:    types.CategoryArchitecture,
		Risk:        types.RiskLow,
		Pattern:     regexp.MustCompile(`#\s*(TODO|FIXME|XXX|HACK|BUG)`),
		Title:       "TODO/FIXME Comment",
		Description: "Found incomplete work marker: `{match}`. This should be addressed or tracked.",
		Solution:    "Create a proper issue/ticket to track this work. Include context for future developers.",
	},
	{
		Name:        "bare_except",
		Category:    types.CategoryArchitecture,
		Risk:        types.RiskMedium,
		Pattern:     regexp.MustCompile(`except\s*:`),
		Title:       "Bare Except Clause",
		Description: "Bare except catches all exceptions including interpreter shutdown signals.",
		Solution:    "Catch specific exception types instead of using a bare except clause.",
	},
	{
		Name:        "pass_in_except",
		Category:    types.CategoryArchitecture,
		Risk:        types.RiskMedium,
		Pattern:     regexp.MustCompile(`except[^:\n]*:\s*\n\s+pass\b`),
		Title:       "Empty Exception Handler",
		Description: "Empty exception handler silently ignores errors, making debugging difficult.",
		Solution:    "Log the exception or re-raise it. Silent failure hides real defects.",
	},
	{
		Name:        "unused_import",
		Category:    types.CategoryArchitecture,
		Risk:        types.RiskLow,
		Pattern:     regexp.MustCompile(`(?m)^import\s+\w+\s*$|^from\s+\w+\s+import\s+\w+\s*$`),
		Title:       "Potentially Unused Import",
		Description: "Import may be unused: `{match}`. Unused imports add clutter.",
		Solution:    "Remove unused imports to keep code clean.",
	},
	{
		Name:        "wildcard_import",
		Category:    types.CategoryArchitecture,
		Risk:        types.RiskHigh,
		Pattern:     regexp.MustCompile(`from\s+[\w.]+\s+import\s+\*`),
		Title:       "Wildcard Import",
		Description: "Wildcard import: `{match}`. This pollutes the namespace and makes code harder to understand.",
		Solution:    "Import specific names instead of using wildcard imports.",
	},
}
