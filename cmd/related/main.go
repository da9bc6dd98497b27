// # cmd/related/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"related/internal/core/app"
	"related/internal/core/config"
	"related/internal/core/ports"
	"related/internal/core/watcher"
	"related/internal/data/history"
	"related/internal/shared/observability"
	"related/internal/ui/cliapp"
)

var (
	configPath  = flag.String("config", "./related.toml", "Path to config file")
	rootFlag    = flag.String("root", "", "Workspace root (overrides config)")
	depthFlag   = flag.Int("depth", 0, "Resolution depth 1-5 (overrides config)")
	once        = flag.Bool("once", false, "Print related files for the seed arguments and exit")
	ui          = flag.Bool("ui", false, "Enable terminal UI mode")
	watch       = flag.Bool("watch", false, "Rebuild the index on file changes")
	historyFlag = flag.Bool("history", false, "Print recent expansions and exit")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
	version     = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "1.0.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("related v%s\n", VERSION)
		os.Exit(0)
	}

	setupLogging()

	cfg := loadConfig()
	if *rootFlag != "" {
		abs, err := filepath.Abs(*rootFlag)
		if err != nil {
			slog.Error("invalid root", "root", *rootFlag, "error", err)
			os.Exit(1)
		}
		cfg.Root = abs
	}
	if *depthFlag != 0 {
		if *depthFlag < 1 || *depthFlag > cfg.Resolve.MaxDepth {
			fmt.Fprintf(os.Stderr, "depth must be in [1, %d]\n", cfg.Resolve.MaxDepth)
			os.Exit(1)
		}
		cfg.Resolve.Depth = *depthFlag
	}

	ctx := context.Background()

	var store ports.HistoryStore
	if cfg.DB.Enabled || *historyFlag {
		s, err := history.Open(cfg.DB.Path)
		if err != nil {
			slog.Error("failed to open history store", "error", err)
			os.Exit(1)
		}
		store = s
	}

	if *historyFlag {
		printHistory(store)
		if err := store.Close(); err != nil {
			slog.Warn("failed to close history store", "error", err)
		}
		return
	}

	session, err := app.NewSession(cfg, store, slog.Default())
	if err != nil {
		slog.Error("failed to initialize session", "error", err)
		os.Exit(1)
	}
	defer session.Close(ctx)

	if cfg.Observability.Enabled {
		startObservability(ctx, cfg, session)
	}

	refresh, err := session.RefreshIndex(ctx)
	if err != nil {
		slog.Error("index build failed", "error", err)
		os.Exit(1)
	}
	slog.Info("index built", "files", refresh.FilesIndexed, "duration", refresh.Duration)

	if *once {
		runOnce(ctx, session, cfg)
		return
	}

	if *watch || cfg.Watch.Enabled {
		if err := startWatcher(ctx, session, cfg); err != nil {
			slog.Error("failed to start watcher", "error", err)
			os.Exit(1)
		}
	}

	if *ui {
		if err := cliapp.RunUI(session, store, cfg.Prompt.Header, cfg.Resolve.Depth, cfg.Resolve.MaxDepth); err != nil {
			slog.Error("failed to run UI", "error", err)
			os.Exit(1)
		}
		return
	}

	if *watch || cfg.Watch.Enabled {
		// Block forever
		select {}
	}

	// Bare seed arguments behave like --once.
	if flag.NArg() > 0 {
		runOnce(ctx, session, cfg)
		return
	}
	flag.Usage()
}

func setupLogging() {
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}

	output := os.Stdout
	if *ui {
		// In UI mode, avoid stdout logs corrupting the TUI.
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else if f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600); err == nil {
			output = f
		} else {
			fmt.Fprintf(os.Stderr, "warning: failed to open log file %s: %v\n", logPath, err)
		}
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
}

func loadConfig() *config.Config {
	cfg, err := config.Load(*configPath)
	if err != nil {
		if os.IsNotExist(err) && *configPath == "./related.toml" {
			return config.Default()
		}
		slog.Error("failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}
	return cfg
}

func runOnce(ctx context.Context, session *app.Session, cfg *config.Config) {
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "once mode requires at least one seed file argument")
		os.Exit(1)
	}

	seeds := make([]string, 0, flag.NArg())
	for _, arg := range flag.Args() {
		abs, err := filepath.Abs(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid seed path %q: %v\n", arg, err)
			os.Exit(1)
		}
		seeds = append(seeds, abs)
	}

	result, err := session.ExpandSelection(ctx, ports.ExpandRequest{
		Seeds: seeds,
		Depth: cfg.Resolve.Depth,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	if len(result.Related) == 0 {
		fmt.Println("No related files found")
		return
	}
	for _, path := range result.Related {
		fmt.Println(path)
	}
}

func printHistory(store ports.HistoryStore) {
	records, err := store.Recent(20)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	if len(records) == 0 {
		fmt.Println("No expansion history yet")
		return
	}
	for _, rec := range records {
		fmt.Printf("%s  depth=%d  related=%d  %s\n",
			rec.Timestamp.Local().Format(time.DateTime), rec.Depth, rec.RelatedCount, rec.Seed)
	}
}

func startWatcher(ctx context.Context, session *app.Session, cfg *config.Config) error {
	w, err := watcher.New(cfg.Watch.Debounce, cfg.Scan.ExcludeDirs, cfg.Scan.ExcludeFiles, func(paths []string) {
		if _, err := session.HandleChanges(ctx, paths); err != nil {
			slog.Warn("rebuild after change failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	return w.Watch(cfg.Root)
}

func startObservability(ctx context.Context, cfg *config.Config, session *app.Session) {
	server := observability.NewServer(cfg.Observability.Listen, func(ctx context.Context) observability.HealthStatus {
		return observability.HealthStatus{Status: "up", IndexedFiles: len(session.Files())}
	})
	if err := server.Start(ctx); err != nil {
		slog.Warn("observability server failed to start", "error", err)
	}

	if cfg.Observability.OTLPEndpoint != "" {
		if _, err := observability.InitTracing(ctx, cfg.Observability.OTLPEndpoint); err != nil {
			slog.Warn("tracing init failed", "error", err)
		}
	}
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "related", "related.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "related", "related.log")
	}

	return "related.log"
}
