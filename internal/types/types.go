// Package types defines the core data model shared by the analyzers,
// the orchestrator, and the issue ledger.
package types

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Category identifies which analyzer produced an issue.
type Category string

const (
	CategorySecurity     Category = "security"
	CategoryPerformance  Category = "performance"
	CategoryArchitecture Category = "architecture"
)

// Categories lists all categories in the fixed analysis order.
var Categories = []Category{CategorySecurity, CategoryPerformance, CategoryArchitecture}

// IsValid checks if the category value is valid.
func (c Category) IsValid() bool {
	switch c {
	case CategorySecurity, CategoryPerformance, CategoryArchitecture:
		return true
	}
	return false
}

// Risk is the severity classification for an issue.
type Risk string

const (
	RiskCritical Risk = "critical"
	RiskHigh     Risk = "high"
	RiskMedium   Risk = "medium"
	RiskLow      Risk = "low"
)

// Risks lists all risk levels from most to least severe.
var Risks = []Risk{RiskCritical, RiskHigh, RiskMedium, RiskLow}

// IsValid checks if the risk value is valid.
func (r Risk) IsValid() bool {
	switch r {
	case RiskCritical, RiskHigh, RiskMedium, RiskLow:
		return true
	}
	return false
}

// Issue represents a single detected defect.
//
// Identity is a pure function of content: two issues with the same
// location, title, and code snippet are the same issue. Changing any of
// those fields produces a different issue, never an update.
type Issue struct {
	Location    string    `json:"location"` // file path plus line, e.g. "auth.py:15"
	Category    Category  `json:"category"`
	Risk        Risk      `json:"risk"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CodeSnippet string    `json:"code_snippet"`
	Solution    string    `json:"solution"`
	Author      string    `json:"author,omitempty"`
	Related     []string  `json:"related_issues,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ID returns the deterministic 12-character identifier for the issue,
// derived from the SHA-256 hash of location, title, and code snippet.
func (i *Issue) ID() string {
	sum := sha256.Sum256([]byte(i.Location + "|" + i.Title + "|" + i.CodeSnippet))
	return hex.EncodeToString(sum[:])[:12]
}

// Validate checks if the issue has valid field values.
func (i *Issue) Validate() error {
	if len(i.Title) == 0 {
		return fmt.Errorf("title is required")
	}
	if len(i.Title) > 200 {
		return fmt.Errorf("title must be 200 characters or less (got %d)", len(i.Title))
	}
	if i.Location == "" {
		return fmt.Errorf("location is required")
	}
	if !i.Category.IsValid() {
		return fmt.Errorf("invalid category: %s", i.Category)
	}
	if !i.Risk.IsValid() {
		return fmt.Errorf("invalid risk: %s", i.Risk)
	}
	if strings.TrimSpace(i.Description) == "" {
		return fmt.Errorf("description is required")
	}
	if strings.TrimSpace(i.Solution) == "" {
		return fmt.Errorf("solution is required")
	}
	return nil
}

// File returns the file portion of the issue location.
func (i *Issue) File() string {
	if idx := strings.LastIndex(i.Location, ":"); idx >= 0 {
		return i.Location[:idx]
	}
	return i.Location
}

// Line returns the line number portion of the issue location, or 0 if
// the location carries no line number.
func (i *Issue) Line() int {
	idx := strings.LastIndex(i.Location, ":")
	if idx < 0 {
		return 0
	}
	var line int
	if _, err := fmt.Sscanf(i.Location[idx+1:], "%d", &line); err != nil {
		return 0
	}
	return line
}

// ToMarkdown renders the issue as a standalone markdown document,
// the format stored in the ledger's per-issue files.
func (i *Issue) ToMarkdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", i.Title)
	b.WriteString("## Overview\n\n")
	b.WriteString("| Property | Value |\n")
	b.WriteString("|----------|-------|\n")
	fmt.Fprintf(&b, "| **ID** | `%s` |\n", i.ID())
	fmt.Fprintf(&b, "| **Category** | %s |\n", capitalize(string(i.Category)))
	fmt.Fprintf(&b, "| **Risk** | %s |\n", capitalize(string(i.Risk)))
	fmt.Fprintf(&b, "| **Location** | `%s` |\n", i.Location)
	fmt.Fprintf(&b, "| **Created** | %s |\n", i.CreatedAt.Format("2006-01-02 15:04:05"))
	if i.Author != "" {
		fmt.Fprintf(&b, "| **Author** | %s |\n", i.Author)
	}

	fmt.Fprintf(&b, "\n## Description\n\n%s\n", i.Description)
	fmt.Fprintf(&b, "\n## Code Snippet\n\n```\n%s\n```\n", i.CodeSnippet)
	fmt.Fprintf(&b, "\n## Recommended Solution\n\n%s\n", i.Solution)

	if len(i.Related) > 0 {
		b.WriteString("\n## Related Issues\n\n")
		for _, id := range i.Related {
			fmt.Fprintf(&b, "- `%s`\n", id)
		}
	}

	return b.String()
}

// Message is one entry in a run's append-only audit log.
type Message struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewMessage creates a message stamped with the current time.
func NewMessage(role, content string, metadata map[string]any) Message {
	return Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
