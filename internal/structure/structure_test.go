package structure

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pySample = `import os
from collections import defaultdict

class Store:
    def save(self, item):
        if item:
            self.items.append(item)

    def load(self):
        return self.items

def main():
    for i in range(10):
        print(i)
`

func TestExtractFunctionsPython(t *testing.T) {
	funcs := ExtractFunctions(pySample)
	require.Len(t, funcs, 3)

	assert.Equal(t, "save", funcs[0].Name)
	assert.Equal(t, []string{"self", "item"}, funcs[0].Args)
	assert.Equal(t, 5, funcs[0].LineStart)

	assert.Equal(t, "load", funcs[1].Name)
	assert.Equal(t, "main", funcs[2].Name)
	assert.Equal(t, 12, funcs[2].LineStart)
}

func TestExtractFunctionsGo(t *testing.T) {
	src := "package main\n\nfunc run(ctx context.Context) error {\n\treturn nil\n}\n\nfunc (s *Server) handle(w http.ResponseWriter, r *http.Request) {\n}\n"
	funcs := ExtractFunctions(src)
	require.Len(t, funcs, 2)
	assert.Equal(t, "run", funcs[0].Name)
	assert.Equal(t, "handle", funcs[1].Name)
}

func TestExtractClassesPython(t *testing.T) {
	classes := ExtractClasses(pySample)
	require.Len(t, classes, 1)
	assert.Equal(t, "Store", classes[0].Name)
	assert.Equal(t, []string{"save", "load"}, classes[0].Methods)
	assert.Equal(t, 4, classes[0].LineStart)
}

func TestExtractImports(t *testing.T) {
	imports := ExtractImports(pySample)
	require.Len(t, imports, 2)
	assert.Equal(t, "os", imports[0].Module)
	assert.Equal(t, "collections", imports[1].Module)
	assert.Equal(t, []string{"defaultdict"}, imports[1].Names)

	goImports := ExtractImports("import \"fmt\"\nimport x \"example.com/pkg\"\n")
	require.Len(t, goImports, 2)
	assert.Equal(t, "fmt", goImports[0].Module)
	assert.Equal(t, "example.com/pkg", goImports[1].Module)
}

func TestComputeMetrics(t *testing.T) {
	m := ComputeMetrics(pySample)

	assert.Equal(t, 3, m.FunctionCount)
	assert.Equal(t, 1, m.ClassCount)
	assert.Equal(t, 2, m.ImportCount)
	assert.Greater(t, m.LinesCode, 0)
	assert.Greater(t, m.LinesBlank, 0)

	// 3 functions * 2 + 1 class * 3 + branch keywords (if, for).
	assert.GreaterOrEqual(t, m.ComplexityEstimate, 11)
}

func TestComputeMetricsCommentAndBlankLines(t *testing.T) {
	src := "# header comment\n\n// another style\nx = 1\n"
	m := ComputeMetrics(src)
	assert.Equal(t, 2, m.LinesComment)
	assert.Equal(t, 1, m.LinesCode)
}

func TestComplexityGrowsWithBranches(t *testing.T) {
	flat := "x = 1\ny = 2\n"
	branchy := strings.Repeat("if x:\n    pass\nfor i in y:\n    pass\n", 10)

	assert.Greater(t, ComputeMetrics(branchy).ComplexityEstimate, ComputeMetrics(flat).ComplexityEstimate)
}
