// Package ledger persists issues on disk as a JSON index plus one
// markdown document per issue, laid out by category and risk:
//
//	<dir>/index.json
//	<dir>/<category>/<risk>/<id>.md
//
// Saving is idempotent: an issue's identity is content-derived, so
// re-saving the same issue rewrites the same files. A single lock file
// guards the directory against concurrent writers.
package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/natefinch/atomic"

	"github.com/Balfin/code-analysis-multi-agent/internal/types"
)

const indexFileName = "index.json"

// Entry is one persisted issue together with its derived identifier.
type Entry struct {
	ID string `json:"id"`
	types.Issue
}

// Ledger is an on-disk issue store rooted at a single directory.
type Ledger struct {
	dir      string
	lockPath string
	entries  map[string]Entry
}

// Open creates or loads the ledger at dir and acquires its write lock.
// Callers must Close the ledger to release the lock.
func Open(dir string) (*Ledger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	lockPath, err := acquireLock(dir)
	if err != nil {
		return nil, err
	}

	l := &Ledger{
		dir:      dir,
		lockPath: lockPath,
		entries:  make(map[string]Entry),
	}

	if err := l.loadIndex(); err != nil {
		releaseLock(lockPath)
		return nil, err
	}

	return l, nil
}

// Close releases the ledger's write lock.
func (l *Ledger) Close() error {
	return releaseLock(l.lockPath)
}

// Dir returns the ledger's root directory.
func (l *Ledger) Dir() string {
	return l.dir
}

// Save persists an issue, writing its markdown document and updating
// the index. If the issue already exists under a different category or
// risk, the old document is relocated.
func (l *Ledger) Save(issue types.Issue) (Entry, error) {
	if err := issue.Validate(); err != nil {
		return Entry{}, fmt.Errorf("invalid issue: %w", err)
	}

	entry := Entry{ID: issue.ID(), Issue: issue}

	if prev, ok := l.entries[entry.ID]; ok {
		prevPath := l.documentPath(prev)
		if prevPath != l.documentPath(entry) {
			if err := os.Remove(prevPath); err != nil && !os.IsNotExist(err) {
				return Entry{}, fmt.Errorf("relocating issue %s: %w", entry.ID, err)
			}
			l.pruneDirs(prev)
		}
	}

	docPath := l.documentPath(entry)
	if err := os.MkdirAll(filepath.Dir(docPath), 0755); err != nil {
		return Entry{}, fmt.Errorf("creating issue directory: %w", err)
	}
	doc := entry.ToMarkdown()
	if err := atomic.WriteFile(docPath, bytes.NewReader([]byte(doc))); err != nil {
		return Entry{}, fmt.Errorf("writing issue document: %w", err)
	}

	l.entries[entry.ID] = entry
	if err := l.writeIndex(); err != nil {
		return Entry{}, err
	}

	return entry, nil
}

// Get returns one entry by id.
func (l *Ledger) Get(id string) (Entry, bool) {
	e, ok := l.entries[id]
	return e, ok
}

// GetAll returns every entry ordered by severity, then location.
func (l *Ledger) GetAll() []Entry {
	out := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e)
	}
	sortEntries(out)
	return out
}

// GetByCategory returns entries of one category ordered by severity.
func (l *Ledger) GetByCategory(c types.Category) []Entry {
	var out []Entry
	for _, e := range l.entries {
		if e.Category == c {
			out = append(out, e)
		}
	}
	sortEntries(out)
	return out
}

// GetByRisk returns entries of one risk level ordered by location.
func (l *Ledger) GetByRisk(r types.Risk) []Entry {
	var out []Entry
	for _, e := range l.entries {
		if e.Risk == r {
			out = append(out, e)
		}
	}
	sortEntries(out)
	return out
}

// Markdown returns the stored markdown document for one issue.
func (l *Ledger) Markdown(id string) (string, error) {
	e, ok := l.entries[id]
	if !ok {
		return "", fmt.Errorf("issue not found: %s", id)
	}
	data, err := os.ReadFile(l.documentPath(e))
	if err != nil {
		return "", fmt.Errorf("reading issue document: %w", err)
	}
	return string(data), nil
}

// Delete removes one issue and its document. Returns false if the id
// is unknown.
func (l *Ledger) Delete(id string) (bool, error) {
	e, ok := l.entries[id]
	if !ok {
		return false, nil
	}

	if err := os.Remove(l.documentPath(e)); err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("removing issue document: %w", err)
	}
	l.pruneDirs(e)

	delete(l.entries, id)
	if err := l.writeIndex(); err != nil {
		return false, err
	}
	return true, nil
}

// Clear removes every issue from the ledger. Returns the number of
// issues removed.
func (l *Ledger) Clear() (int, error) {
	n := len(l.entries)
	for id, e := range l.entries {
		if err := os.Remove(l.documentPath(e)); err != nil && !os.IsNotExist(err) {
			return 0, fmt.Errorf("removing issue document: %w", err)
		}
		l.pruneDirs(e)
		delete(l.entries, id)
	}
	if err := l.writeIndex(); err != nil {
		return 0, err
	}
	return n, nil
}

// Count returns the number of stored issues.
func (l *Ledger) Count() int {
	return len(l.entries)
}

// Summary aggregates stored issues by category and risk.
type Summary struct {
	Total      int
	ByCategory map[types.Category]int
	ByRisk     map[types.Risk]int
}

// Summarize returns issue counts by category and risk.
func (l *Ledger) Summarize() Summary {
	s := Summary{
		Total:      len(l.entries),
		ByCategory: make(map[types.Category]int),
		ByRisk:     make(map[types.Risk]int),
	}
	for _, e := range l.entries {
		s.ByCategory[e.Category]++
		s.ByRisk[e.Risk]++
	}
	return s
}

// documentPath is <dir>/<category>/<risk>/<id>.md.
func (l *Ledger) documentPath(e Entry) string {
	return filepath.Join(l.dir, string(e.Category), string(e.Risk), e.ID+".md")
}

// pruneDirs removes the issue's risk and category directories if they
// are now empty. Non-empty directories are left alone.
func (l *Ledger) pruneDirs(e Entry) {
	riskDir := filepath.Join(l.dir, string(e.Category), string(e.Risk))
	os.Remove(riskDir)
	os.Remove(filepath.Join(l.dir, string(e.Category)))
}

func (l *Ledger) loadIndex() error {
	data, err := os.ReadFile(filepath.Join(l.dir, indexFileName))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading ledger index: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parsing ledger index: %w", err)
	}
	for _, e := range entries {
		l.entries[e.ID] = e
	}
	return nil
}

// writeIndex persists the index as an ordered array, most severe
// entries first.
func (l *Ledger) writeIndex() error {
	data, err := json.MarshalIndent(l.GetAll(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling ledger index: %w", err)
	}
	path := filepath.Join(l.dir, indexFileName)
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing ledger index: %w", err)
	}
	return nil
}

// riskRank orders risks from most to least severe.
func riskRank(r types.Risk) int {
	for i, known := range types.Risks {
		if r == known {
			return i
		}
	}
	return len(types.Risks)
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if ra, rb := riskRank(a.Risk), riskRank(b.Risk); ra != rb {
			return ra < rb
		}
		if a.Location != b.Location {
			return a.Location < b.Location
		}
		return a.ID < b.ID
	})
}
