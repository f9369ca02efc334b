package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Balfin/code-analysis-multi-agent/internal/types"
)

type fakeSource struct {
	files    []string
	contents map[string]string
	filesErr error
}

func (f *fakeSource) Files() ([]string, error) {
	return f.files, f.filesErr
}

func (f *fakeSource) Read(path string) ([]byte, error) {
	content, ok := f.contents[path]
	if !ok {
		return nil, errors.New("permission denied")
	}
	return []byte(content), nil
}

type fakeAnalyzer struct {
	name     string
	perFile  int
	callLog  *[]string
	category types.Category
}

func (f *fakeAnalyzer) Name() string { return f.name }

func (f *fakeAnalyzer) Analyze(_ context.Context, filePath, _ string) ([]types.Issue, types.Message) {
	*f.callLog = append(*f.callLog, f.name+":"+filePath)

	issues := make([]types.Issue, 0, f.perFile)
	for i := 0; i < f.perFile; i++ {
		issues = append(issues, types.Issue{
			Location:    fmt.Sprintf("%s:%d", filePath, i+1),
			Category:    f.category,
			Risk:        types.RiskLow,
			Title:       "Finding",
			Description: "d",
			CodeSnippet: "x",
			Solution:    "s",
			CreatedAt:   time.Now(),
		})
	}
	return issues, types.NewMessage(f.name, "analyzed "+filePath, nil)
}

func testOrchestrator(src *fakeSource, callLog *[]string, perFile int) *Orchestrator {
	analyzers := []FileAnalyzer{
		&fakeAnalyzer{name: "security", perFile: perFile, callLog: callLog, category: types.CategorySecurity},
		&fakeAnalyzer{name: "performance", perFile: perFile, callLog: callLog, category: types.CategoryPerformance},
		&fakeAnalyzer{name: "architecture", perFile: perFile, callLog: callLog, category: types.CategoryArchitecture},
	}
	return New("./src", src, analyzers)
}

func TestRunHappyPath(t *testing.T) {
	src := &fakeSource{
		files: []string{"a.py", "b.py"},
		contents: map[string]string{
			"a.py": "x = 1\n",
			"b.py": "y = 2\n",
		},
	}
	var callLog []string
	o := testOrchestrator(src, &callLog, 1)

	state, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if state.Status != StatusDone {
		t.Errorf("status = %s", state.Status)
	}
	if state.RunID == "" {
		t.Errorf("empty run id")
	}
	if len(state.ProcessedFiles) != 2 {
		t.Errorf("processed = %v", state.ProcessedFiles)
	}
	if len(state.Issues) != 6 {
		t.Errorf("issues = %d", len(state.Issues))
	}
	if state.Report == "" {
		t.Errorf("empty report")
	}
	if state.FinishedAt.IsZero() {
		t.Errorf("finished time not set")
	}

	// Every analyzer runs for every file, in fixed order.
	want := []string{
		"security:a.py", "performance:a.py", "architecture:a.py",
		"security:b.py", "performance:b.py", "architecture:b.py",
	}
	if len(callLog) != len(want) {
		t.Fatalf("call log = %v", callLog)
	}
	for i := range want {
		if callLog[i] != want[i] {
			t.Errorf("call %d = %s, want %s", i, callLog[i], want[i])
		}
	}
}

func TestRunSkipsUnreadableFile(t *testing.T) {
	src := &fakeSource{
		files: []string{"bad.py", "good.py"},
		contents: map[string]string{
			"good.py": "x = 1\n",
		},
	}
	var callLog []string
	o := testOrchestrator(src, &callLog, 1)

	state, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if state.Status != StatusDone {
		t.Errorf("status = %s", state.Status)
	}
	// The unreadable file still counts as processed.
	if len(state.ProcessedFiles) != 2 {
		t.Errorf("processed = %v", state.ProcessedFiles)
	}
	if len(state.Issues) != 3 {
		t.Errorf("issues = %d", len(state.Issues))
	}
	for _, call := range callLog {
		if strings.Contains(call, "bad.py") {
			t.Errorf("analyzer ran on unreadable file: %s", call)
		}
	}

	found := false
	for _, m := range state.Messages {
		if strings.Contains(m.Content, "Skipping unreadable file bad.py") {
			found = true
		}
	}
	if !found {
		t.Errorf("no skip message in log")
	}
}

func TestRunNoFiles(t *testing.T) {
	var callLog []string
	o := testOrchestrator(&fakeSource{}, &callLog, 1)

	state, err := o.Run(context.Background())
	if err == nil {
		t.Fatalf("expected error for empty target")
	}
	if state.Status != StatusError {
		t.Errorf("status = %s", state.Status)
	}
	if !strings.Contains(state.Error, "no analyzable files") {
		t.Errorf("error = %q", state.Error)
	}
}

func TestRunDiscoveryFailure(t *testing.T) {
	var callLog []string
	o := testOrchestrator(&fakeSource{filesErr: errors.New("boom")}, &callLog, 1)

	state, err := o.Run(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
	if state.Status != StatusError {
		t.Errorf("status = %s", state.Status)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var callLog []string
	src := &fakeSource{files: []string{"a.py"}, contents: map[string]string{"a.py": "x\n"}}
	o := testOrchestrator(src, &callLog, 1)

	state, err := o.Run(ctx)
	if err == nil {
		t.Fatalf("expected cancellation error")
	}
	if state.Status != StatusError {
		t.Errorf("status = %s", state.Status)
	}
}

type cancellingAnalyzer struct {
	name    string
	callLog *[]string
	cancel  context.CancelFunc
}

func (c *cancellingAnalyzer) Name() string { return c.name }

func (c *cancellingAnalyzer) Analyze(_ context.Context, filePath, _ string) ([]types.Issue, types.Message) {
	*c.callLog = append(*c.callLog, c.name+":"+filePath)
	c.cancel()
	return nil, types.NewMessage(c.name, "analyzed "+filePath, nil)
}

func TestRunCancelMidFileFinishesCurrentFile(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &fakeSource{
		files: []string{"a.py", "b.py"},
		contents: map[string]string{
			"a.py": "x = 1\n",
			"b.py": "y = 2\n",
		},
	}
	var callLog []string
	analyzers := []FileAnalyzer{
		&cancellingAnalyzer{name: "security", callLog: &callLog, cancel: cancel},
		&fakeAnalyzer{name: "performance", perFile: 1, callLog: &callLog, category: types.CategoryPerformance},
		&fakeAnalyzer{name: "architecture", perFile: 1, callLog: &callLog, category: types.CategoryArchitecture},
	}
	o := New("./src", src, analyzers)

	state, err := o.Run(ctx)
	if err == nil {
		t.Fatalf("expected cancellation error")
	}
	if state.Status != StatusError {
		t.Errorf("status = %s", state.Status)
	}

	// The in-flight file completes every pass; the next file is never
	// picked up.
	want := []string{"security:a.py", "performance:a.py", "architecture:a.py"}
	if len(callLog) != len(want) {
		t.Fatalf("call log = %v", callLog)
	}
	for i := range want {
		if callLog[i] != want[i] {
			t.Errorf("call %d = %s, want %s", i, callLog[i], want[i])
		}
	}
	if len(state.ProcessedFiles) != 1 || state.ProcessedFiles[0] != "a.py" {
		t.Errorf("processed = %v", state.ProcessedFiles)
	}
}

func TestStepTransitions(t *testing.T) {
	src := &fakeSource{files: []string{"a.py"}, contents: map[string]string{"a.py": "x\n"}}
	var callLog []string
	o := testOrchestrator(src, &callLog, 0)
	ctx := context.Background()

	s := o.NewState()
	if s.Status != StatusPending {
		t.Fatalf("initial status = %s", s.Status)
	}

	if err := o.Step(ctx, s); err != nil {
		t.Fatalf("discover: %v", err)
	}
	if s.Status != StatusScanning {
		t.Fatalf("status after discover = %s", s.Status)
	}

	// Three analyzer passes for the single file.
	for i := 0; i < 3; i++ {
		if err := o.Step(ctx, s); err != nil {
			t.Fatalf("scan step %d: %v", i, err)
		}
	}
	if s.Status != StatusScanning {
		t.Fatalf("status mid-walk = %s", s.Status)
	}

	// The walk is exhausted; next step moves to compiling, then done.
	if err := o.Step(ctx, s); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if s.Status != StatusCompiling {
		t.Fatalf("status = %s", s.Status)
	}
	if err := o.Step(ctx, s); err != nil {
		t.Fatalf("compile: %v", err)
	}
	if s.Status != StatusDone {
		t.Fatalf("status = %s", s.Status)
	}

	if err := o.Step(ctx, s); err == nil {
		t.Errorf("expected error stepping a finished run")
	}
}
