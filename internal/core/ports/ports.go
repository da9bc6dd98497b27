package ports

import (
	"context"
	"time"

	"related/internal/data/history"
	"related/internal/engine/index"
)

// ExpandRequest asks for the files related to a set of selected seeds.
type ExpandRequest struct {
	Seeds []string
	Depth int
}

// ExpandResult is the union of per-seed expansions. PerSeed carries the
// individual counts the UI surfaces next to each selected file.
type ExpandResult struct {
	Related  []string
	PerSeed  map[string]int
	Depth    int
	Duration time.Duration
}

// RefreshResult summarizes an index rebuild.
type RefreshResult struct {
	FilesIndexed int
	Duration     time.Duration
}

// SessionService is the surface the UI layers drive. Implementations
// serialize index rebuilds internally; expansion calls are safe to run
// concurrently between rebuilds.
type SessionService interface {
	RefreshIndex(ctx context.Context) (RefreshResult, error)
	ExpandSelection(ctx context.Context, req ExpandRequest) (ExpandResult, error)
	Files() []index.SourceFile
	Root() string
	Close(ctx context.Context) error
}

// HistoryStore abstracts expansion persistence.
type HistoryStore interface {
	Save(record history.Record) error
	Recent(n int) ([]history.Record, error)
	Close() error
}
