package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/remind/internal/clock"
	"github.com/hpungsan/remind/internal/config"
	"github.com/hpungsan/remind/internal/db"
	"github.com/hpungsan/remind/internal/logger"
	"github.com/hpungsan/remind/internal/mcp"
	"github.com/hpungsan/remind/internal/ops"
)

// Version is set via -ldflags at build time.
var Version = "dev"

var cliCommands = map[string]bool{
	"parse": true, "add": true, "record": true,
	"list": true, "latest": true, "fetch": true, "play": true,
	"export": true, "import": true,
}

var helpArgs = map[string]bool{
	"help": true, "--help": true, "-h": true, "--version": true, "-v": true,
}

type mode int

const (
	modeServer mode = iota
	modeCLI
	modeHelp
	modeBanner
	modeUnknown
)

// detectMode picks what to run from argv. Without a known subcommand the
// binary is an MCP server, unless a person is at the terminal.
func detectMode(args []string, tty bool) mode {
	if len(args) < 2 {
		if tty {
			return modeBanner
		}
		return modeServer
	}
	switch arg := args[1]; {
	case helpArgs[arg]:
		return modeHelp
	case cliCommands[arg]:
		return modeCLI
	case tty:
		return modeUnknown
	default:
		return modeServer
	}
}

func isTerminal() bool {
	stat, err := os.Stdin.Stat()
	return err == nil && stat.Mode()&os.ModeCharDevice != 0
}

func printBanner() {
	fmt.Println(`
                 _           _
   _ _ ___ _ __ (_)_ _  __| |
  | '_/ -_) '  \| | ' \/ _' |
  |_| \___|_|_|_|_|_||_\__,_|

  Voice reminders with natural-language times

  Usage: remind <command> [options]
         remind --help

  MCP server mode requires piped input.`)
}

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	m := detectMode(args, isTerminal())
	switch m {
	case modeBanner:
		printBanner()
		return 0
	case modeUnknown:
		fmt.Fprintf(os.Stderr, "error: unknown command %q\nRun 'remind --help' for usage.\n", args[1])
		return 1
	case modeHelp:
		// No database needed.
		return runApp(newCLIApp(nil), args)
	}

	e, closeDB, err := setup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer closeDB()

	if m == modeCLI {
		return runApp(newCLIApp(e), args)
	}

	e.log.WithField("version", Version).Info("mcp server starting")
	if err := mcp.Run(e.ledger, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func runApp(app *cli.App, args []string) int {
	if err := app.Run(args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// setup loads ~/.remind config (merged with the nearest repo .remind/),
// opens the database and builds the shared environment.
func setup() (*env, func(), error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, nil, fmt.Errorf("could not determine home directory: %w", err)
	}
	baseDir := filepath.Join(home, ".remind")

	cwd, _ := os.Getwd()
	cfg, err := config.LoadWithRepo(baseDir, cwd)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.New(cfg.LogLevel, os.Stderr)
	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		log.WithField("tools", unknown).Warn("unknown tools in disabled_tools")
	}

	database, err := db.Init(baseDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	db.ConfigurePool(database, cfg)

	clk := clock.Real{}
	e := &env{
		ledger:   ops.NewLedger(database, cfg, clk, log),
		log:      log,
		clock:    clk,
		audioDir: filepath.Join(baseDir, "audio"),
	}
	return e, func() { database.Close() }, nil
}
