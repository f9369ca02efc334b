package report

import (
	"strings"
	"testing"
	"time"

	"github.com/Balfin/code-analysis-multi-agent/internal/ledger"
	"github.com/Balfin/code-analysis-multi-agent/internal/types"
)

func issueAt(location string, category types.Category, risk types.Risk, title string) types.Issue {
	return types.Issue{
		Location:    location,
		Category:    category,
		Risk:        risk,
		Title:       title,
		Description: "description",
		CodeSnippet: "x = 1",
		Solution:    "fix it",
		CreatedAt:   time.Now(),
	}
}

func TestHealthScore(t *testing.T) {
	tests := []struct {
		name  string
		stats Stats
		want  int
	}{
		{
			name:  "clean codebase gets bonus",
			stats: Stats{FilesProcessed: 10},
			want:  100,
		},
		{
			name:  "mixed issues across clean codebase",
			stats: Stats{FilesProcessed: 5, Critical: 1, High: 1, Medium: 1},
			want:  79,
		},
		{
			name:  "penalties are capped per severity",
			stats: Stats{FilesProcessed: 2, Critical: 100, High: 100, Medium: 100, Low: 100},
			want:  0,
		},
		{
			name:  "no files means no bonus",
			stats: Stats{FilesProcessed: 0},
			want:  100,
		},
		{
			name:  "dense issues forfeit the bonus",
			stats: Stats{FilesProcessed: 1, Low: 4},
			want:  96,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.stats.HealthScore(); got != tt.want {
				t.Errorf("HealthScore() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestHealthScoreMonotonicInCriticals(t *testing.T) {
	// Adding a critical issue must never raise the score, including at
	// and past the penalty cap.
	for criticals := 0; criticals < 10; criticals++ {
		before := Stats{FilesProcessed: 100, Critical: criticals}.HealthScore()
		after := Stats{FilesProcessed: 100, Critical: criticals + 1}.HealthScore()
		if after > before {
			t.Errorf("score rose from %d to %d when criticals went %d -> %d",
				before, after, criticals, criticals+1)
		}
	}
}

func TestHealthScoreNeverExceedsBounds(t *testing.T) {
	s := Stats{FilesProcessed: 1000}
	if got := s.HealthScore(); got > 100 {
		t.Errorf("score above 100: %d", got)
	}
	s = Stats{FilesProcessed: 1, Critical: 50, High: 50, Medium: 50, Low: 50}
	if got := s.HealthScore(); got < 0 {
		t.Errorf("score below 0: %d", got)
	}
}

func TestGrade(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{100, "Excellent"},
		{90, "Excellent"},
		{89, "Good"},
		{75, "Good"},
		{74, "Needs Improvement"},
		{60, "Needs Improvement"},
		{59, "Critical"},
		{0, "Critical"},
	}
	for _, tt := range tests {
		if got := Grade(tt.score); got != tt.want {
			t.Errorf("Grade(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestCollect(t *testing.T) {
	issues := []types.Issue{
		issueAt("a.py:1", types.CategorySecurity, types.RiskCritical, "A"),
		issueAt("a.py:2", types.CategorySecurity, types.RiskHigh, "B"),
		issueAt("b.py:3", types.CategoryPerformance, types.RiskLow, "C"),
	}

	s := Collect(issues, 4)
	if s.Critical != 1 || s.High != 1 || s.Medium != 0 || s.Low != 1 {
		t.Errorf("stats = %+v", s)
	}
	if s.Total() != 3 || s.FilesProcessed != 4 {
		t.Errorf("total = %d, files = %d", s.Total(), s.FilesProcessed)
	}
}

func TestRender(t *testing.T) {
	issues := []types.Issue{
		issueAt("hot.py:1", types.CategorySecurity, types.RiskCritical, "Injection"),
		issueAt("hot.py:9", types.CategorySecurity, types.RiskLow, "Hardcoded IP"),
		issueAt("cold.py:2", types.CategoryPerformance, types.RiskMedium, "Nested Loop"),
	}
	files := []string{"hot.py", "cold.py", "fine.py"}

	doc := Render("./src", issues, files, time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC))

	for _, want := range []string{
		"# Code Analysis Report",
		"**Target:** `./src`",
		"**Files Analyzed:** 3",
		"## Health Score:",
		"### Security (2)",
		"### Performance (1)",
		"### Architecture (0)",
		"No issues found.",
		"## Top Issues",
		"1. **[critical]** Injection — `hot.py:1`",
		"## Files With Most Issues",
		"## Recommendations",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("report missing %q", want)
		}
	}

	// Hotspots are ordered by descending issue count.
	hot := strings.Index(doc, "1. `hot.py` — 2 issues")
	cold := strings.Index(doc, "2. `cold.py` — 1 issues")
	if hot < 0 || cold < 0 || hot > cold {
		t.Errorf("hotspot ordering wrong:\n%s", doc)
	}
}

func TestPersistToleratesBadIssues(t *testing.T) {
	l, err := ledger.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer l.Close()

	issues := []types.Issue{
		issueAt("a.py:1", types.CategorySecurity, types.RiskHigh, "Good"),
		{Location: "b.py:2"}, // fails validation
		issueAt("c.py:3", types.CategoryPerformance, types.RiskLow, "Also good"),
	}

	saved, failed := Persist(l, issues)
	if saved != 2 || failed != 1 {
		t.Errorf("saved = %d, failed = %d", saved, failed)
	}
	if l.Count() != 2 {
		t.Errorf("ledger count = %d", l.Count())
	}
}
