// # internal/core/app/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"related/internal/core/config"
	"related/internal/core/errors"
	"related/internal/core/ports"
	"related/internal/core/scanner"
	"related/internal/data/history"
	"related/internal/engine/extract"
	"related/internal/engine/index"
	"related/internal/engine/resolve"
	"related/internal/shared/observability"
	"related/internal/shared/util"
)

const contentCacheSize = 512

// Session wires scanner, index, and resolver into one resolution
// session over a workspace root. Index rebuilds are serialized behind
// a mutex; expansions between rebuilds share the immutable index.
type Session struct {
	cfg      *config.Config
	scanner  *scanner.Scanner
	registry *extract.Registry
	history  ports.HistoryStore
	cache    *lru.Cache[string, []byte]
	limiter  *util.Limiter
	logger   *slog.Logger

	mu       sync.Mutex
	resolver *resolve.Resolver
}

func NewSession(cfg *config.Config, store ports.HistoryStore, logger *slog.Logger) (*Session, error) {
	if cfg == nil {
		return nil, errors.New(errors.CodeValidationError, "session requires a config")
	}
	if logger == nil {
		logger = slog.Default()
	}

	sc, err := scanner.New(cfg.Root, cfg.Scan.ExcludeDirs, cfg.Scan.ExcludeFiles)
	if err != nil {
		return nil, err
	}

	registry, err := extract.NewRegistry(cfg.Extract.Engine)
	if err != nil {
		return nil, err
	}

	cache, err := lru.New[string, []byte](contentCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "content cache init failed")
	}

	return &Session{
		cfg:      cfg,
		scanner:  sc,
		registry: registry,
		history:  store,
		cache:    cache,
		limiter:  util.NewLimiter(cfg.Watch.RatePerSecond, 1),
		logger:   logger,
	}, nil
}

var _ ports.SessionService = (*Session)(nil)

// RefreshIndex rescans the workspace and fully replaces the index.
func (s *Session) RefreshIndex(ctx context.Context) (ports.RefreshResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "session.RefreshIndex")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return ports.RefreshResult{}, err
	}

	start := time.Now()

	files, err := s.scanner.Scan()
	if err != nil {
		return ports.RefreshResult{}, err
	}
	idx, err := index.Build(s.cfg.Root, files, s.cfg.Aliases)
	if err != nil {
		return ports.RefreshResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.resolver == nil {
		s.resolver, err = resolve.New(idx, s.registry, resolve.Options{
			MaxFiles: s.cfg.Resolve.MaxFiles,
			Reader:   s.readContent,
			Logger:   s.logger,
		})
		if err != nil {
			return ports.RefreshResult{}, err
		}
	} else if err := s.resolver.Rebuild(idx); err != nil {
		return ports.RefreshResult{}, err
	}

	elapsed := time.Since(start)
	observability.IndexBuildDuration.Observe(elapsed.Seconds())
	observability.IndexedFiles.Set(float64(idx.Len()))
	s.logger.Debug("index refreshed", "files", idx.Len(), "duration", elapsed)

	return ports.RefreshResult{FilesIndexed: idx.Len(), Duration: elapsed}, nil
}

// ExpandSelection unions the related files of every seed. Seeds that
// are not in the index are skipped with a debug log rather than
// failing the whole expansion; a stale UI selection is routine.
func (s *Session) ExpandSelection(ctx context.Context, req ports.ExpandRequest) (ports.ExpandResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "session.ExpandSelection")
	defer span.End()

	resolver, err := s.currentResolver()
	if err != nil {
		return ports.ExpandResult{}, err
	}
	depth := req.Depth
	if depth < 1 || depth > s.cfg.Resolve.MaxDepth {
		return ports.ExpandResult{}, errors.New(errors.CodeValidationError,
			fmt.Sprintf("depth must be in [1, %d], got %d", s.cfg.Resolve.MaxDepth, depth))
	}

	start := time.Now()
	union := make(map[string]struct{})
	perSeed := make(map[string]int, len(req.Seeds))

	for _, seed := range req.Seeds {
		related, err := resolver.RelatedFiles(ctx, seed, depth)
		if err != nil {
			if errors.IsCode(err, errors.CodeNotFound) {
				s.logger.Debug("seed not in index, skipping", "seed", seed)
				continue
			}
			return ports.ExpandResult{}, err
		}
		perSeed[seed] = len(related)
		for path := range related {
			union[path] = struct{}{}
		}
	}

	// A seed that is itself related to another seed stays in the
	// selection, not in the expansion.
	for _, seed := range req.Seeds {
		if file, ok := resolver.Index().Lookup(seed); ok {
			delete(union, file.AbsolutePath)
		}
	}

	elapsed := time.Since(start)
	observability.ResolutionDuration.WithLabelValues(fmt.Sprint(depth)).Observe(elapsed.Seconds())
	observability.RelatedFilesFound.Observe(float64(len(union)))

	s.recordHistory(req.Seeds, depth, len(union), elapsed)

	return ports.ExpandResult{
		Related:  util.SortedSet(union),
		PerSeed:  perSeed,
		Depth:    depth,
		Duration: elapsed,
	}, nil
}

// HandleChanges reacts to a watcher batch: drop stale cache entries and
// rebuild the index. Rebuilds are rate limited so storms of change
// batches collapse into the next permitted refresh.
func (s *Session) HandleChanges(ctx context.Context, paths []string) (ports.RefreshResult, error) {
	for _, path := range paths {
		s.cache.Remove(path)
	}

	if !s.limiter.Allow(1) {
		if err := s.limiter.Wait(ctx, 1); err != nil {
			return ports.RefreshResult{}, err
		}
	}

	observability.RebuildsTotal.Inc()
	return s.RefreshIndex(ctx)
}

func (s *Session) Files() []index.SourceFile {
	resolver, err := s.currentResolver()
	if err != nil {
		return nil
	}
	return resolver.Index().Files()
}

func (s *Session) Root() string {
	return s.cfg.Root
}

func (s *Session) Close(ctx context.Context) error {
	if s.history != nil {
		return s.history.Close()
	}
	return nil
}

func (s *Session) currentResolver() (*resolve.Resolver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resolver == nil {
		return nil, errors.New(errors.CodeValidationError, "index not built, call RefreshIndex first")
	}
	return s.resolver, nil
}

func (s *Session) readContent(path string) ([]byte, error) {
	if content, ok := s.cache.Get(path); ok {
		return content, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s.cache.Add(path, content)
	return content, nil
}

func (s *Session) recordHistory(seeds []string, depth, relatedCount int, elapsed time.Duration) {
	if s.history == nil {
		return
	}
	for _, seed := range seeds {
		err := s.history.Save(history.Record{
			Root:         s.cfg.Root,
			Seed:         seed,
			Depth:        depth,
			RelatedCount: relatedCount,
			Duration:     elapsed,
		})
		if err != nil {
			observability.HistoryWriteErrorsTotal.Inc()
			s.logger.Warn("failed to record expansion", "seed", seed, "error", err)
		}
	}
}
