package index

import (
	"path/filepath"
	"sort"
	"strings"
)

// Language identifies how a file's module keys are derived and which
// extractor may parse it. Unknown files are indexed but never parsed.
type Language string

const (
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangJSX        Language = "jsx"
	LangTSX        Language = "tsx"
	LangUnknown    Language = "unknown"
)

var extensionLanguages = map[string]Language{
	".py":  LangPython,
	".js":  LangJavaScript,
	".mjs": LangJavaScript,
	".cjs": LangJavaScript,
	".jsx": LangJSX,
	".ts":  LangTypeScript,
	".mts": LangTypeScript,
	".cts": LangTypeScript,
	".tsx": LangTSX,
}

func DetectLanguage(path string) Language {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := extensionLanguages[ext]; ok {
		return lang
	}
	return LangUnknown
}

// IsScript reports whether the language belongs to the JS/TS family,
// which shares one set of import-resolution rules.
func (l Language) IsScript() bool {
	switch l {
	case LangJavaScript, LangTypeScript, LangJSX, LangTSX:
		return true
	}
	return false
}

// SupportedExtensions returns the extensions the index derives module
// keys for, sorted for stable presentation.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(extensionLanguages))
	for ext := range extensionLanguages {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
