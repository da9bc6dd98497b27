package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"related/internal/core/config"
	"related/internal/core/errors"
	"related/internal/core/ports"
	"related/internal/data/history"
)

func writeWorkspace(t *testing.T, root string, tree map[string]string) {
	t.Helper()
	for rel, content := range tree {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func newSession(t *testing.T, root string, store ports.HistoryStore) *Session {
	t.Helper()
	cfg := config.Default()
	cfg.Root = root
	s, err := NewSession(cfg, store, nil)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSession_RefreshAndExpand(t *testing.T) {
	root := t.TempDir()
	writeWorkspace(t, root, map[string]string{
		"main.py":         "from lib.helper import run\n",
		"lib/__init__.py": "",
		"lib/helper.py":   "import util\n",
		"util.py":         "",
	})

	s := newSession(t, root, nil)
	ctx := context.Background()

	refresh, err := s.RefreshIndex(ctx)
	if err != nil {
		t.Fatalf("RefreshIndex failed: %v", err)
	}
	if refresh.FilesIndexed != 4 {
		t.Errorf("FilesIndexed = %d, expected 4", refresh.FilesIndexed)
	}

	result, err := s.ExpandSelection(ctx, ports.ExpandRequest{
		Seeds: []string{filepath.Join(root, "main.py")},
		Depth: 2,
	})
	if err != nil {
		t.Fatalf("ExpandSelection failed: %v", err)
	}

	expected := map[string]bool{
		filepath.Join(root, "lib", "helper.py"): true,
		filepath.Join(root, "util.py"):          true,
	}
	if len(result.Related) != len(expected) {
		t.Fatalf("Related = %v, expected %d files", result.Related, len(expected))
	}
	for _, path := range result.Related {
		if !expected[path] {
			t.Errorf("unexpected related file %s", path)
		}
	}
	if result.PerSeed[filepath.Join(root, "main.py")] != 2 {
		t.Errorf("PerSeed = %v, expected 2 for main.py", result.PerSeed)
	}
}

func TestSession_MultiSeedUnionExcludesSeeds(t *testing.T) {
	root := t.TempDir()
	writeWorkspace(t, root, map[string]string{
		"a.py":      "import b\nimport shared\n",
		"b.py":      "import shared\n",
		"shared.py": "",
	})

	s := newSession(t, root, nil)
	ctx := context.Background()
	if _, err := s.RefreshIndex(ctx); err != nil {
		t.Fatal(err)
	}

	result, err := s.ExpandSelection(ctx, ports.ExpandRequest{
		Seeds: []string{filepath.Join(root, "a.py"), filepath.Join(root, "b.py")},
		Depth: 1,
	})
	if err != nil {
		t.Fatal(err)
	}

	// b.py is related to a.py but is itself a seed, so only shared.py
	// remains in the union.
	if len(result.Related) != 1 || result.Related[0] != filepath.Join(root, "shared.py") {
		t.Errorf("Related = %v, expected only shared.py", result.Related)
	}
}

func TestSession_UnknownSeedSkipped(t *testing.T) {
	root := t.TempDir()
	writeWorkspace(t, root, map[string]string{"a.py": ""})

	s := newSession(t, root, nil)
	ctx := context.Background()
	if _, err := s.RefreshIndex(ctx); err != nil {
		t.Fatal(err)
	}

	result, err := s.ExpandSelection(ctx, ports.ExpandRequest{
		Seeds: []string{filepath.Join(root, "ghost.py")},
		Depth: 1,
	})
	if err != nil {
		t.Fatalf("stale seed must not fail the expansion: %v", err)
	}
	if len(result.Related) != 0 {
		t.Errorf("Related = %v, expected empty", result.Related)
	}
}

func TestSession_ExpandBeforeRefreshFails(t *testing.T) {
	root := t.TempDir()
	s := newSession(t, root, nil)

	_, err := s.ExpandSelection(context.Background(), ports.ExpandRequest{
		Seeds: []string{filepath.Join(root, "a.py")},
		Depth: 1,
	})
	if !errors.IsCode(err, errors.CodeValidationError) {
		t.Fatalf("expected validation error before first refresh, got %v", err)
	}
}

func TestSession_DepthValidation(t *testing.T) {
	root := t.TempDir()
	writeWorkspace(t, root, map[string]string{"a.py": ""})

	s := newSession(t, root, nil)
	ctx := context.Background()
	if _, err := s.RefreshIndex(ctx); err != nil {
		t.Fatal(err)
	}

	for _, depth := range []int{0, 6} {
		_, err := s.ExpandSelection(ctx, ports.ExpandRequest{
			Seeds: []string{filepath.Join(root, "a.py")},
			Depth: depth,
		})
		if !errors.IsCode(err, errors.CodeValidationError) {
			t.Errorf("depth %d: expected validation error, got %v", depth, err)
		}
	}
}

func TestSession_HandleChangesRebuilds(t *testing.T) {
	root := t.TempDir()
	writeWorkspace(t, root, map[string]string{
		"a.py": "import b\n",
		"b.py": "",
	})

	s := newSession(t, root, nil)
	ctx := context.Background()
	if _, err := s.RefreshIndex(ctx); err != nil {
		t.Fatal(err)
	}

	// New file appears; the change batch must make it resolvable.
	writeWorkspace(t, root, map[string]string{
		"c.py": "",
		"a.py": "import b\nimport c\n",
	})
	refresh, err := s.HandleChanges(ctx, []string{
		filepath.Join(root, "a.py"),
		filepath.Join(root, "c.py"),
	})
	if err != nil {
		t.Fatalf("HandleChanges failed: %v", err)
	}
	if refresh.FilesIndexed != 3 {
		t.Errorf("FilesIndexed = %d, expected 3", refresh.FilesIndexed)
	}

	result, err := s.ExpandSelection(ctx, ports.ExpandRequest{
		Seeds: []string{filepath.Join(root, "a.py")},
		Depth: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Related) != 2 {
		t.Errorf("Related = %v, expected b.py and c.py", result.Related)
	}
}

func TestSession_RecordsHistory(t *testing.T) {
	root := t.TempDir()
	writeWorkspace(t, root, map[string]string{
		"a.py": "import b\n",
		"b.py": "",
	})

	store, err := history.Open(filepath.Join(t.TempDir(), "related.db"))
	if err != nil {
		t.Fatal(err)
	}
	s := newSession(t, root, store)
	ctx := context.Background()
	defer s.Close(ctx)

	if _, err := s.RefreshIndex(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ExpandSelection(ctx, ports.ExpandRequest{
		Seeds: []string{filepath.Join(root, "a.py")},
		Depth: 1,
	}); err != nil {
		t.Fatal(err)
	}

	records, err := store.Recent(5)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 history record, got %d", len(records))
	}
	if records[0].Depth != 1 || records[0].RelatedCount != 1 {
		t.Errorf("record fields = %+v", records[0])
	}
}
