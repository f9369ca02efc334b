// Package source supplies candidate files to a run. The orchestrator
// only sees the FileSource interface; read failures surface as errors
// and become skip events, never run failures.
package source

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// FileSource enumerates candidate files and reads their content.
type FileSource interface {
	// Files returns the ordered list of candidate file paths.
	Files() ([]string, error)

	// Read returns the content of one candidate file. An error marks
	// the file as unreadable; the caller skips it.
	Read(path string) ([]byte, error)
}

// DefaultMaxFileSize caps readable files at 1 MiB.
const DefaultMaxFileSize = 1024 * 1024

// DefaultIgnorePatterns excludes dependency trees, build output, and
// tool caches from discovery.
var DefaultIgnorePatterns = []string{
	"__pycache__",
	"*.pyc",
	".git",
	"node_modules",
	"vendor",
	"venv",
	".venv",
	"env",
	".env",
	"dist",
	"build",
	"*.egg-info",
	".pytest_cache",
	".mypy_cache",
	"*.so",
	"*.egg",
}

// analyzableExtensions lists the source file types discovery accepts.
var analyzableExtensions = []string{".py", ".go", ".js", ".ts"}

// DirSource is a FileSource over a directory tree.
type DirSource struct {
	Root           string
	IgnorePatterns []string
	MaxFileSize    int64
}

// NewDirSource creates a directory source with default ignore patterns
// and size cap. Extra patterns extend the defaults.
func NewDirSource(root string, extraIgnore []string, maxFileSize int64) *DirSource {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	patterns := make([]string, 0, len(DefaultIgnorePatterns)+len(extraIgnore))
	patterns = append(patterns, DefaultIgnorePatterns...)
	patterns = append(patterns, extraIgnore...)

	return &DirSource{
		Root:           root,
		IgnorePatterns: patterns,
		MaxFileSize:    maxFileSize,
	}
}

// Files walks the root and returns analyzable files in sorted order,
// excluding anything matching an ignore pattern.
func (s *DirSource) Files() ([]string, error) {
	info, err := os.Stat(s.Root)
	if err != nil {
		return nil, fmt.Errorf("target path: %w", err)
	}
	if !info.IsDir() {
		if s.analyzable(s.Root) {
			return []string{s.Root}, nil
		}
		return nil, nil
	}

	var files []string
	err = filepath.WalkDir(s.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped, not fatal.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(s.Root, p)
		if relErr != nil {
			rel = p
		}

		if d.IsDir() {
			if p != s.Root && s.ignored(rel, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if s.ignored(rel, d.Name()) {
			return nil
		}
		if s.analyzable(p) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", s.Root, err)
	}

	sort.Strings(files)
	return files, nil
}

// Read returns file content, rejecting files over the size cap.
func (s *DirSource) Read(p string) ([]byte, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", p, err)
	}
	if info.Size() > s.MaxFileSize {
		return nil, fmt.Errorf("file too large (%d bytes > %d bytes): %s", info.Size(), s.MaxFileSize, p)
	}

	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", p, err)
	}
	return data, nil
}

func (s *DirSource) analyzable(p string) bool {
	ext := strings.ToLower(filepath.Ext(p))
	for _, want := range analyzableExtensions {
		if ext == want {
			return true
		}
	}
	return false
}

// ignored checks the relative path and every path component against
// the ignore patterns.
func (s *DirSource) ignored(rel, name string) bool {
	rel = filepath.ToSlash(rel)
	for _, pattern := range s.IgnorePatterns {
		if ok, _ := path.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := path.Match(pattern, name); ok {
			return true
		}
		for _, part := range strings.Split(rel, "/") {
			if ok, _ := path.Match(pattern, part); ok {
				return true
			}
		}
	}
	return false
}
