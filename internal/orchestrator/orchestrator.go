// Package orchestrator drives an analysis run: discover files, walk
// them one at a time through every analyzer in fixed order, then
// compile the report.
//
// A run is a small state machine. Each Step performs one transition;
// Run loops Step until the run reaches a terminal status. All issue
// and message accumulation flows through the state's append helpers,
// so the logs are strictly append-only.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Balfin/code-analysis-multi-agent/internal/report"
	"github.com/Balfin/code-analysis-multi-agent/internal/source"
	"github.com/Balfin/code-analysis-multi-agent/internal/types"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusScanning  Status = "scanning"
	StatusCompiling Status = "compiling"
	StatusDone      Status = "done"
	StatusError     Status = "error"
)

// Terminal reports whether the status ends the run.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusError
}

// FileAnalyzer analyzes one file and reports its findings.
type FileAnalyzer interface {
	Name() string
	Analyze(ctx context.Context, filePath, content string) ([]types.Issue, types.Message)
}

// State is the accumulated result of one run.
type State struct {
	RunID          string
	Target         string
	Status         Status
	Files          []string
	ProcessedFiles []string
	Issues         []types.Issue
	Messages       []types.Message
	Report         string
	Error          string
	StartedAt      time.Time
	FinishedAt     time.Time

	// Walk cursor.
	fileIndex  int
	content    string
	analyzedBy []string
}

func (s *State) appendIssues(issues []types.Issue) {
	s.Issues = append(s.Issues, issues...)
}

func (s *State) appendMessage(m types.Message) {
	s.Messages = append(s.Messages, m)
}

func (s *State) fail(reason string) {
	s.Status = StatusError
	s.Error = reason
	s.FinishedAt = time.Now()
	s.appendMessage(types.NewMessage("orchestrator", reason, map[string]any{"action": "fail"}))
}

// Orchestrator runs the fixed analyzer sequence over a file source.
type Orchestrator struct {
	target    string
	source    source.FileSource
	analyzers []FileAnalyzer
}

// New creates an orchestrator. Analyzers run in the given order for
// every file.
func New(target string, src source.FileSource, analyzers []FileAnalyzer) *Orchestrator {
	return &Orchestrator{
		target:    target,
		source:    src,
		analyzers: analyzers,
	}
}

// NewState creates a pending run state with a fresh run id.
func (o *Orchestrator) NewState() *State {
	return &State{
		RunID:     uuid.NewString(),
		Target:    o.target,
		Status:    StatusPending,
		StartedAt: time.Now(),
	}
}

// Step performs one state transition. Calling Step on a terminal state
// is an error.
func (o *Orchestrator) Step(ctx context.Context, s *State) error {
	switch s.Status {
	case StatusPending:
		return o.discover(s)
	case StatusScanning:
		return o.scanOne(ctx, s)
	case StatusCompiling:
		o.compile(s)
		return nil
	case StatusDone, StatusError:
		return fmt.Errorf("run %s already finished with status %s", s.RunID, s.Status)
	default:
		return fmt.Errorf("unknown run status: %s", s.Status)
	}
}

// Run executes a full run, stopping at file boundaries if the context
// is cancelled.
func (o *Orchestrator) Run(ctx context.Context) (*State, error) {
	s := o.NewState()

	for !s.Status.Terminal() {
		// Cancellation takes effect at file boundaries only: a file in
		// flight finishes all its passes before the run aborts.
		if len(s.analyzedBy) == 0 {
			if err := ctx.Err(); err != nil {
				s.fail(fmt.Sprintf("run cancelled: %v", err))
				return s, err
			}
		}
		if err := o.Step(ctx, s); err != nil {
			return s, err
		}
	}

	if s.Status == StatusError {
		return s, fmt.Errorf("run failed: %s", s.Error)
	}
	return s, nil
}

// discover lists candidate files and moves the run into scanning. A
// target with no analyzable files fails the run.
func (o *Orchestrator) discover(s *State) error {
	files, err := o.source.Files()
	if err != nil {
		s.fail(fmt.Sprintf("file discovery failed: %v", err))
		return nil
	}
	if len(files) == 0 {
		s.fail("no analyzable files found")
		return nil
	}

	s.Files = files
	s.Status = StatusScanning
	s.appendMessage(types.NewMessage("orchestrator",
		fmt.Sprintf("Discovered %d files to analyze", len(files)),
		map[string]any{"action": "discover", "file_count": len(files)}))
	return nil
}

// scanOne advances the walk by a single analyzer pass, or by a whole
// file when the file cannot be read.
func (o *Orchestrator) scanOne(ctx context.Context, s *State) error {
	if s.fileIndex >= len(s.Files) {
		s.Status = StatusCompiling
		return nil
	}

	file := s.Files[s.fileIndex]

	if len(s.analyzedBy) == 0 {
		data, err := o.source.Read(file)
		if err != nil {
			// Unreadable files are recorded as processed and skipped.
			s.appendMessage(types.NewMessage("orchestrator",
				fmt.Sprintf("Skipping unreadable file %s: %v", file, err),
				map[string]any{"action": "skip", "file": file}))
			s.finishFile(file)
			return nil
		}
		s.content = string(data)
	}

	analyzer := o.analyzers[len(s.analyzedBy)]
	issues, msg := analyzer.Analyze(ctx, file, s.content)
	s.appendIssues(issues)
	s.appendMessage(msg)
	s.analyzedBy = append(s.analyzedBy, analyzer.Name())

	if len(s.analyzedBy) == len(o.analyzers) {
		s.finishFile(file)
	}
	return nil
}

func (s *State) finishFile(file string) {
	s.ProcessedFiles = append(s.ProcessedFiles, file)
	s.fileIndex++
	s.content = ""
	s.analyzedBy = nil
}

// compile renders the final report and finishes the run.
func (o *Orchestrator) compile(s *State) {
	s.FinishedAt = time.Now()
	s.Report = report.Render(o.target, s.Issues, s.ProcessedFiles, s.FinishedAt)
	s.Status = StatusDone
	s.appendMessage(types.NewMessage("orchestrator",
		fmt.Sprintf("Analysis complete: %d issues across %d files", len(s.Issues), len(s.ProcessedFiles)),
		map[string]any{"action": "compile", "issue_count": len(s.Issues)}))
}
