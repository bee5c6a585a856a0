package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"

	"github.com/hpungsan/tabshelf/internal/config"
	"github.com/hpungsan/tabshelf/internal/db"
	"github.com/hpungsan/tabshelf/internal/kv"
	"github.com/hpungsan/tabshelf/internal/mcp"
	"github.com/hpungsan/tabshelf/internal/ops"
	"github.com/hpungsan/tabshelf/internal/persist"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"list": true, "search": true, "get": true,
	"create": true, "rename": true, "delete": true, "move": true,
	"add-tab": true, "remove-tab": true, "rename-tab": true,
	"export": true, "import": true, "serve": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   _        _          _          _  __
  | |_ __ _| |__   ___| |__   ___| |/ _|
  | __/ _' | '_ \ / __| '_ \ / _ \ | |_
  | || (_| | |_) |\__ \ | | |  __/ |  _|
   \__\__,_|_.__/ |___/_| |_|\___|_|_|

  Saved tab collections for your new-tab page

  Usage: tabshelf <command> [options]
         tabshelf serve
         tabshelf --help

  MCP server mode requires piped input.`)
}

// baseDir returns $TABSHELF_HOME, or ~/.tabshelf.
func baseDir() (string, error) {
	if dir := os.Getenv("TABSHELF_HOME"); dir != "" {
		return homedir.Expand(dir)
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".tabshelf"), nil
}

// openStore opens the configured document backend and loads the collections.
func openStore(dir string, cfg *config.Config) (*ops.Store, func(), error) {
	backend, err := kv.Open(cfg.StorageDSN, dir)
	if err != nil {
		return nil, nil, err
	}
	if s, ok := backend.(*kv.SQLite); ok {
		db.ConfigurePool(s.DB(), cfg)
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)
	gw := persist.New(backend, persist.WithLogger(logger))
	store := ops.NewStore(gw, ops.WithLogger(logger))
	store.Reload(context.Background())
	return store, func() { _ = gw.Close() }, nil
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before storage init
	if isHelpOrVersion() {
		app := newCLIApp(nil, nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	dir, err := baseDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}
	ops.SetBaseDir(dir)

	if err := db.EnsureBaseDir(dir); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	wd, _ := os.Getwd()
	cfg, err := config.LoadWithRepo(dir, wd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	store, closeStore, err := openStore(dir, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to open storage: %v\n", err)
		os.Exit(1)
	}
	defer closeStore()

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(store, cfg)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			closeStore()
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'tabshelf --help' for usage.\n")
		closeStore()
		os.Exit(1)
	}

	// MCP server mode (default)
	if err := mcp.Run(store, cfg, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		closeStore()
		os.Exit(1)
	}
}
