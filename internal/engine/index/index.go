package index

import (
	"path/filepath"
	"sort"
	"strings"

	"related/internal/core/errors"
)

// SourceFile is one file eligible for indexing. Paths are absolute and
// already filtered by the caller (ignore rules are not applied here).
type SourceFile struct {
	AbsolutePath string
	Language     Language
}

// NewSourceFile classifies a path by extension.
func NewSourceFile(absolutePath string) SourceFile {
	return SourceFile{
		AbsolutePath: filepath.Clean(absolutePath),
		Language:     DetectLanguage(absolutePath),
	}
}

// FileIndex maps module keys (the strings an import statement could use
// to name a file) to absolute paths. It is built once per resolution
// request and never mutated afterwards, so concurrent reads need no
// locking.
type FileIndex struct {
	root    string
	keys    map[string]string     // module key -> absolute path, first write wins
	paths   map[string]SourceFile // slashed absolute path -> file
	aliases []aliasRule
}

type aliasRule struct {
	prefix string
	target string // root-relative directory
}

// Candidate suffixes for extension-less script imports, tried in order.
// "" first so specifiers written with an extension match directly.
var scriptSuffixes = []string{
	"", ".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs",
	"/index.js", "/index.jsx", "/index.ts", "/index.tsx",
}

// Python relative and package candidates, tried in order.
var pythonSuffixes = []string{".py", "/__init__.py"}

// Build constructs the index for one resolution request. root and every
// file path must be absolute; a malformed input fails the whole build
// rather than producing a silently incomplete index.
func Build(root string, files []SourceFile, aliases map[string]string) (*FileIndex, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New(errors.CodeValidationError, "index root must not be empty")
	}
	if !filepath.IsAbs(root) {
		return nil, errors.AddContext(
			errors.New(errors.CodeValidationError, "index root must be absolute"),
			errors.CtxPath, root)
	}
	root = filepath.Clean(root)

	idx := &FileIndex{
		root:  root,
		keys:  make(map[string]string, len(files)*2),
		paths: make(map[string]SourceFile, len(files)),
	}

	for prefix, target := range aliases {
		prefix = strings.TrimSpace(prefix)
		if prefix == "" {
			return nil, errors.New(errors.CodeValidationError, "alias prefix must not be empty")
		}
		idx.aliases = append(idx.aliases, aliasRule{prefix: prefix, target: strings.TrimSpace(target)})
	}
	// Longest prefix first so "@app/" beats "@".
	sort.Slice(idx.aliases, func(i, j int) bool {
		return len(idx.aliases[i].prefix) > len(idx.aliases[j].prefix)
	})

	for _, file := range files {
		if !filepath.IsAbs(file.AbsolutePath) {
			return nil, errors.AddContext(
				errors.New(errors.CodeValidationError, "indexed paths must be absolute"),
				errors.CtxPath, file.AbsolutePath)
		}
		file.AbsolutePath = filepath.Clean(file.AbsolutePath)
		if file.Language == "" {
			file.Language = DetectLanguage(file.AbsolutePath)
		}

		slashed := filepath.ToSlash(file.AbsolutePath)
		if _, seen := idx.paths[slashed]; !seen {
			idx.paths[slashed] = file
		}

		switch {
		case file.Language == LangPython:
			idx.registerPythonKeys(file)
		case file.Language.IsScript():
			idx.registerScriptKeys(file)
		default:
			// Unknown files are addressable by absolute path only.
			idx.registerKey(slashed, file.AbsolutePath)
		}
	}

	return idx, nil
}

func (idx *FileIndex) registerKey(key, path string) {
	if key == "" {
		return
	}
	if _, taken := idx.keys[key]; !taken {
		idx.keys[key] = path
	}
}

// Python keys: the dotted path relative to the root with the extension
// stripped; for __init__.py the parent package's dotted path; plus the
// bare module name for single-segment imports.
func (idx *FileIndex) registerPythonKeys(file SourceFile) {
	rel, err := filepath.Rel(idx.root, file.AbsolutePath)
	if err != nil || strings.HasPrefix(rel, "..") {
		// Outside the root: only the absolute path is addressable.
		idx.registerKey(filepath.ToSlash(file.AbsolutePath), file.AbsolutePath)
		return
	}

	parts := strings.Split(filepath.ToSlash(rel), "/")
	last := strings.TrimSuffix(parts[len(parts)-1], ".py")
	if last == "__init__" {
		parts = parts[:len(parts)-1]
	} else {
		parts[len(parts)-1] = last
	}
	if len(parts) == 0 {
		return
	}

	idx.registerKey(strings.Join(parts, "."), file.AbsolutePath)
	idx.registerKey(parts[len(parts)-1], file.AbsolutePath)
}

// Script keys: the absolute path, the path without its extension, the
// root-relative equivalents, and the parent directory for index files.
func (idx *FileIndex) registerScriptKeys(file SourceFile) {
	slashed := filepath.ToSlash(file.AbsolutePath)
	ext := filepath.Ext(slashed)
	stem := strings.TrimSuffix(slashed, ext)

	idx.registerKey(slashed, file.AbsolutePath)
	idx.registerKey(stem, file.AbsolutePath)
	if filepath.Base(stem) == "index" {
		idx.registerKey(filepath.ToSlash(filepath.Dir(file.AbsolutePath)), file.AbsolutePath)
	}

	if rel, err := filepath.Rel(idx.root, file.AbsolutePath); err == nil && !strings.HasPrefix(rel, "..") {
		relSlashed := filepath.ToSlash(rel)
		relStem := strings.TrimSuffix(relSlashed, ext)
		idx.registerKey(relSlashed, file.AbsolutePath)
		idx.registerKey(relStem, file.AbsolutePath)
		if filepath.Base(relStem) == "index" {
			idx.registerKey(filepath.ToSlash(filepath.Dir(relSlashed)), file.AbsolutePath)
		}
	}
}

// Resolve maps a raw import specifier to the absolute path of an
// indexed file. A miss returns false: most specifiers name third-party
// libraries that are deliberately absent from a project-local index.
func (idx *FileIndex) Resolve(specifier string, from SourceFile) (string, bool) {
	specifier = strings.TrimSpace(specifier)
	if specifier == "" {
		return "", false
	}

	if from.Language == LangPython {
		return idx.resolvePython(specifier, from)
	}
	if from.Language.IsScript() {
		return idx.resolveScript(specifier, from)
	}

	path, ok := idx.keys[specifier]
	return path, ok
}

func (idx *FileIndex) resolvePython(specifier string, from SourceFile) (string, bool) {
	if !strings.HasPrefix(specifier, ".") {
		path, ok := idx.keys[specifier]
		return path, ok
	}

	// Relative import: one dot is the importing file's package, each
	// further dot climbs one directory.
	level := 0
	for level < len(specifier) && specifier[level] == '.' {
		level++
	}
	rest := specifier[level:]

	base := filepath.Dir(from.AbsolutePath)
	for i := 1; i < level; i++ {
		base = filepath.Dir(base)
	}

	if rest == "" {
		return idx.lookupPath(filepath.Join(base, "__init__.py"))
	}

	target := filepath.Join(base, filepath.FromSlash(strings.ReplaceAll(rest, ".", "/")))
	for _, suffix := range pythonSuffixes {
		if path, ok := idx.lookupPath(target + filepath.FromSlash(suffix)); ok {
			return path, true
		}
	}
	return "", false
}

func (idx *FileIndex) resolveScript(specifier string, from SourceFile) (string, bool) {
	specifier = strings.TrimPrefix(specifier, "node:")

	if strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../") || specifier == "." || specifier == ".." {
		target := filepath.Join(filepath.Dir(from.AbsolutePath), filepath.FromSlash(specifier))
		return idx.lookupScriptCandidates(target)
	}

	for _, alias := range idx.aliases {
		if !strings.HasPrefix(specifier, alias.prefix) {
			continue
		}
		rest := strings.TrimPrefix(specifier, alias.prefix)
		rest = strings.TrimPrefix(rest, "/")
		target := filepath.Join(idx.root, filepath.FromSlash(alias.target), filepath.FromSlash(rest))
		if path, ok := idx.lookupScriptCandidates(target); ok {
			return path, true
		}
	}

	// Bare specifier: direct key lookup. Third-party package names miss
	// here, which is the expected outcome.
	if path, ok := idx.keys[specifier]; ok {
		return path, true
	}
	ext := filepath.Ext(specifier)
	if ext != "" {
		if path, ok := idx.keys[strings.TrimSuffix(specifier, ext)]; ok {
			return path, true
		}
	}
	return "", false
}

func (idx *FileIndex) lookupScriptCandidates(target string) (string, bool) {
	for _, suffix := range scriptSuffixes {
		if path, ok := idx.lookupPath(target + filepath.FromSlash(suffix)); ok {
			return path, true
		}
	}
	return "", false
}

func (idx *FileIndex) lookupPath(path string) (string, bool) {
	file, ok := idx.paths[filepath.ToSlash(filepath.Clean(path))]
	if !ok {
		return "", false
	}
	return file.AbsolutePath, true
}

// Lookup returns the indexed file for an absolute path.
func (idx *FileIndex) Lookup(absolutePath string) (SourceFile, bool) {
	file, ok := idx.paths[filepath.ToSlash(filepath.Clean(absolutePath))]
	return file, ok
}

func (idx *FileIndex) Root() string {
	return idx.root
}

func (idx *FileIndex) Len() int {
	return len(idx.paths)
}

// Files returns the indexed files sorted by path.
func (idx *FileIndex) Files() []SourceFile {
	files := make([]SourceFile, 0, len(idx.paths))
	for _, file := range idx.paths {
		files = append(files, file)
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].AbsolutePath < files[j].AbsolutePath
	})
	return files
}
