// # internal/engine/extract/treesitter.go
package extract

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// treeSitterExtractor parses content with a real grammar and walks the
// tree for import nodes. It honors the same contract as the regex
// extractors: no errors, unparseable content yields nil.
type treeSitterExtractor struct {
	grammar *sitter.Language
	walk    func(node *sitter.Node, source []byte, specs *[]string)
}

func newTreeSitterRegistry() (*Registry, error) {
	js := &treeSitterExtractor{
		grammar: sitter.NewLanguage(tree_sitter_javascript.Language()),
		walk:    walkScriptImports,
	}
	return &Registry{
		python: &treeSitterExtractor{
			grammar: sitter.NewLanguage(tree_sitter_python.Language()),
			walk:    walkPythonImports,
		},
		script: js,
		ts: &treeSitterExtractor{
			grammar: sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
			walk:    walkScriptImports,
		},
		tsx: &treeSitterExtractor{
			grammar: sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()),
			walk:    walkScriptImports,
		},
	}, nil
}

func (e *treeSitterExtractor) Extract(content []byte) []string {
	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(e.grammar); err != nil {
		return nil
	}

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil
	}
	defer tree.Close()

	var specs []string
	e.walk(tree.RootNode(), content, &specs)
	return specs
}

func walkPythonImports(node *sitter.Node, source []byte, specs *[]string) {
	switch node.Kind() {
	case "import_statement":
		// import a.b as x, c
		for i := uint(0); i < node.ChildCount(); i++ {
			ch := node.Child(i)
			switch ch.Kind() {
			case "dotted_name":
				appendSpec(specs, nodeText(ch, source))
			case "aliased_import":
				appendSpec(specs, nodeText(ch.ChildByFieldName("name"), source))
			}
		}
		return
	case "import_from_statement":
		extractPythonFromImport(node, source, specs)
		return
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		walkPythonImports(node.Child(i), source, specs)
	}
}

// extractPythonFromImport emits the base module first, then one dotted
// specifier per imported name, matching the regex extractor's scheme.
func extractPythonFromImport(node *sitter.Node, source []byte, specs *[]string) {
	base := nodeText(node.ChildByFieldName("module_name"), source)
	if base == "" {
		return
	}
	appendSpec(specs, base)

	sawImport := false
	for i := uint(0); i < node.ChildCount(); i++ {
		ch := node.Child(i)
		if ch.Kind() == "import" {
			sawImport = true
			continue
		}
		if !sawImport {
			continue
		}
		var name string
		switch ch.Kind() {
		case "dotted_name":
			name = nodeText(ch, source)
		case "aliased_import":
			name = nodeText(ch.ChildByFieldName("name"), source)
		}
		if name == "" {
			continue
		}
		if strings.HasSuffix(base, ".") {
			appendSpec(specs, base+name)
		} else {
			appendSpec(specs, base+"."+name)
		}
	}
}

func walkScriptImports(node *sitter.Node, source []byte, specs *[]string) {
	switch node.Kind() {
	case "import_statement", "export_statement":
		// Only re-exports carry a source; plain exports are skipped.
		if src := node.ChildByFieldName("source"); src != nil {
			appendSpec(specs, stringLiteralText(src, source))
		}
	case "call_expression":
		extractScriptCallImport(node, source, specs)
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		walkScriptImports(node.Child(i), source, specs)
	}
}

// extractScriptCallImport handles dynamic import("s") and require("s").
// Only string-literal arguments are taken; computed specifiers are
// invisible to static analysis.
func extractScriptCallImport(node *sitter.Node, source []byte, specs *[]string) {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return
	}
	callee := nodeText(fn, source)
	if callee != "import" && callee != "require" {
		return
	}

	args := node.ChildByFieldName("arguments")
	if args == nil {
		return
	}
	for i := uint(0); i < args.ChildCount(); i++ {
		ch := args.Child(i)
		if ch.Kind() == "string" {
			appendSpec(specs, stringLiteralText(ch, source))
			return
		}
	}
}

func appendSpec(specs *[]string, spec string) {
	spec = strings.TrimSpace(spec)
	if spec != "" {
		*specs = append(*specs, spec)
	}
}

func stringLiteralText(node *sitter.Node, source []byte) string {
	return strings.Trim(nodeText(node, source), `"'`)
}

func nodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start := node.StartByte()
	end := node.EndByte()
	if start >= end || end > uint(len(source)) {
		return ""
	}
	return string(source[start:end])
}
