package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWorkflowFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLintFile_Valid(t *testing.T) {
	path := writeWorkflowFile(t, "valid.json", `{
		"name": "Product photos",
		"components": [
			{"type": "import", "settings": {"source": "s3://raw"}},
			{"type": "crop", "settings": {"width": 800}},
			{"type": "export", "settings": {"format": "jpeg"}}
		]
	}`)

	assert.Empty(t, lintFile(path))
}

func TestLintFile_NameOnly(t *testing.T) {
	path := writeWorkflowFile(t, "bare.json", `{"name": "W"}`)

	assert.Empty(t, lintFile(path))
}

func TestLintFile_ReportsEveryViolation(t *testing.T) {
	path := writeWorkflowFile(t, "backwards.json", `{
		"name": "Backwards",
		"components": [
			{"type": "export"},
			{"type": "import"}
		]
	}`)

	problems := lintFile(path)
	require.Len(t, problems, 2)
	assert.Contains(t, problems[0], "import_not_first")
	assert.Contains(t, problems[1], "export_not_last")
}

func TestLintFile_ShapeProblems(t *testing.T) {
	path := writeWorkflowFile(t, "unnamed.json", `{
		"components": [{"type": "resize"}]
	}`)

	problems := lintFile(path)
	require.NotEmpty(t, problems)

	joined := ""
	for _, problem := range problems {
		joined += problem + "\n"
	}

	assert.Contains(t, joined, "name")
	assert.Contains(t, joined, "components.0.type")
}

func TestLintFile_NotJSON(t *testing.T) {
	path := writeWorkflowFile(t, "garbage.json", "not json at all")

	problems := lintFile(path)
	require.Len(t, problems, 1)
	assert.Equal(t, "not valid JSON", problems[0])
}

func TestLintFile_MissingFile(t *testing.T) {
	problems := lintFile(filepath.Join(t.TempDir(), "absent.json"))
	require.Len(t, problems, 1)
	assert.Contains(t, problems[0], "cannot read file")
}

func TestLintFiles_FailsWhenAnyFileInvalid(t *testing.T) {
	valid := writeWorkflowFile(t, "valid.json", `{"name": "W"}`)
	invalid := writeWorkflowFile(t, "invalid.json", `{
		"name": "Dup",
		"components": [
			{"type": "import"},
			{"type": "import"}
		]
	}`)

	require.NoError(t, lintFiles([]string{valid}))

	err := lintFiles([]string{valid, invalid})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 invalid workflow file")
}
