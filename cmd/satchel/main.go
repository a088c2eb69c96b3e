package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hpungsan/satchel/internal/archive"
	"github.com/hpungsan/satchel/internal/config"
	"github.com/hpungsan/satchel/internal/db"
	"github.com/hpungsan/satchel/internal/objectstore"
	"github.com/hpungsan/satchel/internal/ops"
	"github.com/hpungsan/satchel/internal/repofetch"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return true
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// resolveBaseDir picks the data directory: $SATCHEL_DIR when set,
// otherwise ~/.satchel.
func resolveBaseDir() (string, error) {
	if dir := os.Getenv("SATCHEL_DIR"); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".satchel"), nil
}

// buildEnv wires the full operation environment rooted at baseDir.
func buildEnv(baseDir string, logger *slog.Logger) (*ops.Env, func(), error) {
	database, err := db.Init(baseDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	cfg, err := config.Load(baseDir)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	db.ConfigurePool(database, cfg)

	store, err := objectstore.New(filepath.Join(baseDir, "storage"))
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to open object store: %w", err)
	}

	env := &ops.Env{
		DB:        database,
		Store:     store,
		Fetcher:   repofetch.New(repofetch.GitCloner{}, cfg, logger),
		Extractor: archive.New(cfg, logger),
		Config:    cfg,
		Logger:    logger,
	}
	return env, func() { database.Close() }, nil
}

func main() {
	// Handle --help/--version before touching the data directory.
	if isHelpOrVersion() {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	baseDir, err := resolveBaseDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// MCP speaks JSON-RPC on stdout, so logs go to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	env, cleanup, err := buildEnv(baseDir, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	app := newCLIApp(env)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
