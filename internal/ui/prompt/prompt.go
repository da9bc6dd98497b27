// # internal/ui/prompt/prompt.go
package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/atotto/clipboard"

	"related/internal/engine/index"
)

// fence languages by detected language; unknown files get a plain fence.
var fenceTags = map[index.Language]string{
	index.LangPython:     "python",
	index.LangJavaScript: "javascript",
	index.LangJSX:        "jsx",
	index.LangTypeScript: "typescript",
	index.LangTSX:        "tsx",
}

// Assembly is one rendered prompt plus its bookkeeping.
type Assembly struct {
	Text           string
	Files          []string
	SkippedFiles   []string
	EstimatedToken int
}

// Builder renders selected and related files into a single prompt.
// Output is deterministic: files are sorted by root-relative path, so
// the same selection always produces the same text.
type Builder struct {
	root   string
	header string
}

func NewBuilder(root, header string) *Builder {
	return &Builder{root: root, header: header}
}

// Build reads every path and renders a fenced block per file. Unreadable
// files are listed in SkippedFiles and left out of the text; a partial
// prompt with a note beats no prompt.
func (b *Builder) Build(paths []string) Assembly {
	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.Strings(sorted)

	var sb strings.Builder
	if b.header != "" {
		sb.WriteString(b.header)
		sb.WriteString("\n\n")
	}

	assembly := Assembly{}
	for _, path := range sorted {
		content, err := os.ReadFile(path)
		if err != nil {
			assembly.SkippedFiles = append(assembly.SkippedFiles, path)
			continue
		}

		rel := b.displayPath(path)
		lang := fenceTags[index.DetectLanguage(path)]

		sb.WriteString(fmt.Sprintf("## %s\n\n```%s\n", rel, lang))
		sb.Write(content)
		if len(content) > 0 && content[len(content)-1] != '\n' {
			sb.WriteByte('\n')
		}
		sb.WriteString("```\n\n")
		assembly.Files = append(assembly.Files, path)
	}

	assembly.Text = sb.String()
	assembly.EstimatedToken = EstimateTokens(assembly.Text)
	return assembly
}

func (b *Builder) displayPath(path string) string {
	if rel, err := filepath.Rel(b.root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(path)
}

// EstimateTokens is the usual rough chars/4 heuristic, good enough to
// warn before pasting something enormous into a model context.
func EstimateTokens(text string) int {
	return len(text) / 4
}

// CopyToClipboard places the assembled prompt on the system clipboard.
func CopyToClipboard(a Assembly) error {
	return clipboard.WriteAll(a.Text)
}
