package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	p := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestDirSourceFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app.py", "x = 1\n")
	writeFile(t, root, "sub/handler.go", "package sub\n")
	writeFile(t, root, "notes.txt", "not source\n")
	writeFile(t, root, "__pycache__/app.cpython-312.pyc", "binary")
	writeFile(t, root, "node_modules/lib/index.js", "ignored")

	src := NewDirSource(root, nil, 0)
	files, err := src.Files()
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d: %v", len(files), files)
	}
	if filepath.Base(files[0]) != "app.py" {
		t.Errorf("files[0] = %s", files[0])
	}
	if filepath.Base(files[1]) != "handler.go" {
		t.Errorf("files[1] = %s", files[1])
	}
}

func TestDirSourceExtraIgnorePatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "keep.py", "x = 1\n")
	writeFile(t, root, "skip_test.py", "x = 1\n")
	writeFile(t, root, "generated/code.py", "x = 1\n")

	src := NewDirSource(root, []string{"*_test.py", "generated"}, 0)
	files, err := src.Files()
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "keep.py" {
		t.Errorf("files = %v", files)
	}
}

func TestDirSourceReadSizeCap(t *testing.T) {
	root := t.TempDir()
	small := writeFile(t, root, "small.py", "x = 1\n")
	big := writeFile(t, root, "big.py", strings.Repeat("y", 200))

	src := NewDirSource(root, nil, 100)

	if _, err := src.Read(small); err != nil {
		t.Errorf("small file read failed: %v", err)
	}
	if _, err := src.Read(big); err == nil {
		t.Errorf("expected size cap error for big file")
	} else if !strings.Contains(err.Error(), "too large") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDirSourceReadMissingFile(t *testing.T) {
	src := NewDirSource(t.TempDir(), nil, 0)
	if _, err := src.Read(filepath.Join(src.Root, "missing.py")); err == nil {
		t.Errorf("expected error for missing file")
	}
}

func TestDirSourceSingleFileRoot(t *testing.T) {
	root := t.TempDir()
	p := writeFile(t, root, "only.py", "x = 1\n")

	src := NewDirSource(p, nil, 0)
	files, err := src.Files()
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(files) != 1 || files[0] != p {
		t.Errorf("files = %v", files)
	}
}

func TestDirSourceMissingRoot(t *testing.T) {
	src := NewDirSource(filepath.Join(t.TempDir(), "nope"), nil, 0)
	if _, err := src.Files(); err == nil {
		t.Errorf("expected error for missing root")
	}
}
