package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFiles(t *testing.T, root string, tree map[string]string) []string {
	t.Helper()
	paths := make([]string, 0, len(tree))
	for rel, content := range tree {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, abs)
	}
	return paths
}

func TestBuild_Deterministic(t *testing.T) {
	root := t.TempDir()
	paths := writeFiles(t, root, map[string]string{
		"b.py":       "import os\n",
		"a/mod.ts":   "export const x = 1;\n",
		"c/index.js": "module.exports = {};\n",
	})

	b := NewBuilder(root, "Context files:")
	first := b.Build(paths)

	reversed := []string{paths[len(paths)-1]}
	for i := len(paths) - 2; i >= 0; i-- {
		reversed = append(reversed, paths[i])
	}
	second := b.Build(reversed)

	if first.Text != second.Text {
		t.Error("prompt must not depend on input order")
	}
	if !strings.HasPrefix(first.Text, "Context files:") {
		t.Errorf("missing header: %q", first.Text[:40])
	}
}

func TestBuild_FencesAndPaths(t *testing.T) {
	root := t.TempDir()
	paths := writeFiles(t, root, map[string]string{
		"src/app.py": "x = 1",
		"src/ui.tsx": "export const App = () => null;\n",
		"notes.txt":  "plain\n",
	})

	a := NewBuilder(root, "").Build(paths)

	for _, want := range []string{
		"## src/app.py\n\n```python\n",
		"## src/ui.tsx\n\n```tsx\n",
		"## notes.txt\n\n```\n",
	} {
		if !strings.Contains(a.Text, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	// Content without trailing newline still closes its fence cleanly.
	if !strings.Contains(a.Text, "x = 1\n```") {
		t.Error("expected newline inserted before closing fence")
	}
	if a.EstimatedToken != len(a.Text)/4 {
		t.Errorf("EstimatedToken = %d, expected %d", a.EstimatedToken, len(a.Text)/4)
	}
}

func TestBuild_SkipsUnreadable(t *testing.T) {
	root := t.TempDir()
	paths := writeFiles(t, root, map[string]string{"a.py": "x = 1\n"})
	paths = append(paths, filepath.Join(root, "missing.py"))

	a := NewBuilder(root, "").Build(paths)

	if len(a.Files) != 1 {
		t.Errorf("Files = %v, expected only a.py", a.Files)
	}
	if len(a.SkippedFiles) != 1 {
		t.Errorf("SkippedFiles = %v, expected missing.py", a.SkippedFiles)
	}
}
