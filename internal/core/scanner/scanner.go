// # internal/core/scanner/scanner.go
package scanner

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/gobwas/glob"

	"related/internal/core/errors"
	"related/internal/engine/index"
)

// Scanner walks the workspace root and produces the filtered file list
// the index is built from. Ignore rules live here; the index and
// resolver apply none of their own. Files with unrecognized extensions
// are still listed so they remain addressable, they are just never
// parsed for imports.
type Scanner struct {
	root      string
	dirGlobs  []glob.Glob
	fileGlobs []glob.Glob
}

func New(root string, excludeDirs, excludeFiles []string) (*Scanner, error) {
	if !filepath.IsAbs(root) {
		return nil, errors.AddContext(
			errors.New(errors.CodeValidationError, "scan root must be absolute"),
			errors.CtxPath, root)
	}

	dirGlobs, err := compilePatterns(excludeDirs)
	if err != nil {
		return nil, err
	}
	fileGlobs, err := compilePatterns(excludeFiles)
	if err != nil {
		return nil, err
	}

	return &Scanner{
		root:      filepath.Clean(root),
		dirGlobs:  dirGlobs,
		fileGlobs: fileGlobs,
	}, nil
}

func compilePatterns(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeValidationError,
				fmt.Sprintf("invalid exclude pattern %q", pattern))
		}
		globs = append(globs, g)
	}
	return globs, nil
}

func (s *Scanner) Root() string {
	return s.root
}

// Scan walks the root and returns every non-excluded file, classified
// by language. Walk errors on individual entries are skipped; an
// unreadable subtree should not abort the whole scan.
func (s *Scanner) Scan() ([]index.SourceFile, error) {
	var files []index.SourceFile

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		base := filepath.Base(path)
		if d.IsDir() {
			if path != s.root && matchesAny(s.dirGlobs, base) {
				return filepath.SkipDir
			}
			return nil
		}

		if matchesAny(s.fileGlobs, base) {
			return nil
		}

		files = append(files, index.NewSourceFile(path))
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "workspace scan failed")
	}

	return files, nil
}

// Excluded reports whether a path would be filtered by the scan rules,
// used by the watcher to drop events for ignored files.
func (s *Scanner) Excluded(path string) bool {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return true
	}

	for dir := filepath.Dir(rel); dir != "." && dir != "/"; dir = filepath.Dir(dir) {
		if matchesAny(s.dirGlobs, filepath.Base(dir)) {
			return true
		}
	}
	return matchesAny(s.fileGlobs, filepath.Base(path))
}

func matchesAny(globs []glob.Glob, name string) bool {
	for _, g := range globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}
