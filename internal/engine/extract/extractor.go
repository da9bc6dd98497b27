package extract

import (
	"fmt"

	"related/internal/core/errors"
	"related/internal/engine/index"
)

// Extractor produces raw import specifiers from one file's content, in
// first-occurrence order. Duplicates are permitted; the resolver
// deduplicates through its visited set. Extractors never fail: malformed
// or binary input yields whatever specifiers could be recognized,
// possibly none.
type Extractor interface {
	Extract(content []byte) []string
}

const (
	EngineRegex      = "regex"
	EngineTreeSitter = "treesitter"
)

// Registry dispatches extractors by language. Unknown-language files
// have no extractor and are never parsed.
type Registry struct {
	python Extractor
	script Extractor // javascript / jsx
	ts     Extractor
	tsx    Extractor
}

// NewRegistry builds the extractor set for the configured engine. The
// regex engine is the default trade-off (lexical scan, no grammar
// loading); the tree-sitter engine trades startup cost for precision.
func NewRegistry(engine string) (*Registry, error) {
	switch engine {
	case "", EngineRegex:
		script := &ScriptExtractor{}
		return &Registry{
			python: &PythonExtractor{},
			script: script,
			ts:     script,
			tsx:    script,
		}, nil
	case EngineTreeSitter:
		return newTreeSitterRegistry()
	default:
		return nil, errors.New(errors.CodeNotSupported,
			fmt.Sprintf("unknown extract engine: %s", engine))
	}
}

// ForLanguage returns the extractor for a language, or nil when the
// language is never parsed.
func (r *Registry) ForLanguage(lang index.Language) Extractor {
	switch {
	case lang == index.LangPython:
		return r.python
	case lang == index.LangTypeScript:
		return r.ts
	case lang == index.LangTSX:
		return r.tsx
	case lang.IsScript():
		return r.script
	}
	return nil
}
