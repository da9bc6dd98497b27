// # internal/engine/resolve/resolver.go
package resolve

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"

	"related/internal/core/errors"
	"related/internal/engine/extract"
	"related/internal/engine/index"
)

// ContentReader supplies file contents during traversal. The default
// reads straight from disk; the session layer swaps in a cached reader.
type ContentReader func(path string) ([]byte, error)

// Options tune a Resolver beyond the baseline contract.
type Options struct {
	// MaxFiles caps the size of the visited set; 0 means unbounded.
	// When the cap is hit the traversal stops and returns what it has.
	MaxFiles int
	Reader   ContentReader
	Logger   *slog.Logger
}

// Resolver owns a FileIndex and answers related-file queries over it.
// Each index is immutable once built; Rebuild swaps the pointer
// atomically and every traversal snapshots it once, so queries may run
// concurrently with rebuilds and never mix two index generations.
type Resolver struct {
	idx      atomic.Pointer[index.FileIndex]
	registry *extract.Registry
	maxFiles int
	reader   ContentReader
	logger   *slog.Logger
}

func New(idx *index.FileIndex, registry *extract.Registry, opts Options) (*Resolver, error) {
	if idx == nil {
		return nil, errors.New(errors.CodeValidationError, "resolver requires a file index")
	}
	if registry == nil {
		return nil, errors.New(errors.CodeValidationError, "resolver requires an extractor registry")
	}

	reader := opts.Reader
	if reader == nil {
		reader = os.ReadFile
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &Resolver{
		registry: registry,
		maxFiles: opts.MaxFiles,
		reader:   reader,
		logger:   logger,
	}
	r.idx.Store(idx)
	return r, nil
}

// Rebuild fully replaces the index. There is no incremental merge:
// rebuild-on-change keeps the index consistent with the tree snapshot.
// Traversals already in flight keep the index they started with.
func (r *Resolver) Rebuild(idx *index.FileIndex) error {
	if idx == nil {
		return errors.New(errors.CodeValidationError, "resolver requires a file index")
	}
	r.idx.Store(idx)
	return nil
}

func (r *Resolver) Index() *index.FileIndex {
	return r.idx.Load()
}

// RelatedFiles runs a breadth-first traversal of the import graph from
// seed. maxDepth 1 returns the seed's direct imports; each further
// level adds one hop. The seed itself is never in the result. Files
// that cannot be read contribute no imports and the traversal
// continues. An empty result is a normal outcome, not an error.
func (r *Resolver) RelatedFiles(ctx context.Context, seed string, maxDepth int) (map[string]struct{}, error) {
	idx := r.idx.Load()
	seedFile, ok := idx.Lookup(seed)
	if !ok {
		return nil, errors.AddContext(
			errors.New(errors.CodeNotFound, "seed file is not in the index"),
			errors.CtxPath, seed)
	}
	if maxDepth < 1 {
		return nil, errors.New(errors.CodeValidationError, "max depth must be at least 1")
	}

	visited := map[string]struct{}{seedFile.AbsolutePath: {}}
	frontier := []index.SourceFile{seedFile}

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []index.SourceFile

		for _, file := range frontier {
			if err := ctx.Err(); err != nil {
				return nil, errors.Wrap(err, errors.CodeInternal, "traversal canceled")
			}

			for _, resolved := range r.expand(idx, file) {
				if _, seen := visited[resolved]; seen {
					continue
				}
				if r.maxFiles > 0 && len(visited) >= r.maxFiles {
					r.logger.Warn("related-file cap reached, returning partial result",
						"cap", r.maxFiles, "seed", seed)
					return withoutSeed(visited, seedFile.AbsolutePath), nil
				}
				visited[resolved] = struct{}{}
				if target, ok := idx.Lookup(resolved); ok {
					next = append(next, target)
				}
			}
		}

		frontier = next
	}

	return withoutSeed(visited, seedFile.AbsolutePath), nil
}

// expand reads one file and resolves its import specifiers against the
// traversal's index snapshot. Read failures and unresolvable specifiers
// are both normal: the file is simply a leaf.
func (r *Resolver) expand(idx *index.FileIndex, file index.SourceFile) []string {
	extractor := r.registry.ForLanguage(file.Language)
	if extractor == nil {
		return nil
	}

	content, err := r.reader(file.AbsolutePath)
	if err != nil {
		r.logger.Debug("skipping unreadable file", "path", file.AbsolutePath, "error", err)
		return nil
	}

	var resolved []string
	for _, specifier := range extractor.Extract(content) {
		if path, ok := idx.Resolve(specifier, file); ok {
			resolved = append(resolved, path)
		}
	}
	return resolved
}

func withoutSeed(visited map[string]struct{}, seed string) map[string]struct{} {
	delete(visited, seed)
	return visited
}
