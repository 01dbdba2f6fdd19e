package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"strconv"

	"github.com/tasklist-cli/tasklist/internal/board"
	"github.com/tasklist-cli/tasklist/internal/config"
	"github.com/tasklist-cli/tasklist/internal/db"
	"github.com/tasklist-cli/tasklist/internal/logging"
	"github.com/tasklist-cli/tasklist/internal/probe"
	"github.com/tasklist-cli/tasklist/internal/sync"
	"github.com/tasklist-cli/tasklist/internal/types"
	"github.com/tasklist-cli/tasklist/internal/ui"
)

type globalFlags struct {
	configPath string
	output     string
	verbose    bool
	offline    bool
	noColor    bool
}

// app holds what a single command run opens: configuration, logs, the
// pending store and the board. Everything is opened on first use and
// closed when the run ends.
type app struct {
	stdout io.Writer
	stderr io.Writer
	deps   *Deps
	flags  globalFlags

	format ui.Format
	cfg    *config.Config
	logs   *logging.Logs

	store  *db.DB
	board  board.Board
	syncer sync.Syncer
}

func newApp(stdout, stderr io.Writer, deps *Deps) *app {
	return &app{stdout: stdout, stderr: stderr, deps: deps, logs: logging.Discard()}
}

// setup runs before every command: output format, colours, configuration
// and logging.
func (a *app) setup() error {
	format, err := ui.ParseFormat(a.flags.output)
	if err != nil {
		return &usageError{err: err}
	}
	a.format = format
	ui.Init(a.flags.noColor)

	cfg, err := config.Load(a.flags.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logs, err := logging.New(logging.Options{
		File:       cfg.LogPath(),
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Verbose:    a.flags.verbose,
		Stderr:     a.stderr,
	})
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	a.logs = logs
	a.logs.Logger("cli").Printf("tasklist %s, config %s", Version, cfg.Path())
	return nil
}

func (a *app) close() {
	if a.store != nil {
		_ = a.store.Close()
	}
	_ = a.logs.Close()
}

// openStore opens and migrates the pending store.
func (a *app) openStore(ctx context.Context) (*db.DB, error) {
	if a.store != nil {
		return a.store, nil
	}
	store, err := db.Open(a.cfg.DBPath())
	if err != nil {
		return nil, err
	}
	if err := store.InitSchemaContext(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	a.store = store
	return store, nil
}

// openBoard builds the board client. It fails with types.ErrNotConfigured
// when credentials are missing.
func (a *app) openBoard() (board.Board, error) {
	if a.board != nil {
		return a.board, nil
	}
	if err := a.cfg.RequireBoard(); err != nil {
		return nil, err
	}
	b, err := a.deps.NewBoard(a.cfg, a.logs.Logger("board"))
	if err != nil {
		return nil, err
	}
	a.board = b
	return b, nil
}

// boardConfigured reports whether openBoard can succeed.
func (a *app) boardConfigured() bool {
	return a.cfg.RequireBoard() == nil
}

// openSyncer wires the orchestrator. Without board credentials, or with
// --offline, it runs against no board and every add is queued locally.
func (a *app) openSyncer(ctx context.Context) (sync.Syncer, error) {
	if a.syncer != nil {
		return a.syncer, nil
	}
	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}

	var b board.Board
	var p probe.Prober = probe.Always(false)
	if !a.flags.offline && a.boardConfigured() {
		b, err = a.openBoard()
		if err != nil {
			return nil, err
		}
		p = probe.New(b, a.cfg.Probe.Timeout)
	}

	a.syncer = sync.New(store, b, p, sync.Options{
		DefaultListID:   a.cfg.Trello.ListID,
		BoardID:         a.cfg.Trello.BoardID,
		DefaultPriority: a.cfg.Defaults.Priority,
		DefaultCategory: a.cfg.Defaults.Category,
		Logger:          a.logs.Logger("sync"),
	})
	return a.syncer, nil
}

// offline reports whether board access is off for this run, either by flag
// or because the board is not configured.
func (a *app) offline() bool {
	return a.flags.offline || !a.boardConfigured()
}

// structured reports whether results are encoded as JSON or YAML. The
// format is unset until setup has parsed --output.
func (a *app) structured() bool {
	return a.format == ui.FormatJSON || a.format == ui.FormatYAML
}

func (a *app) encode(v interface{}) error {
	return ui.Encode(a.stdout, a.format, v)
}

func (a *app) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(a.stdout, format, args...)
}

func (a *app) warnf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(a.stderr, ui.RenderWarn("Warning:")+" "+format, args...)
}

func newTrelloBoard(cfg *config.Config, logger *log.Logger) (board.Board, error) {
	trello := board.NewTrello(board.TrelloConfig{
		APIKey:  cfg.Trello.APIKey,
		Token:   cfg.Trello.Token,
		BoardID: cfg.Trello.BoardID,
		Timeout: cfg.Remote.Timeout,
	})
	return board.NewRetrying(trello, board.RetryConfig{
		MaxRetries: uint64(cfg.Remote.Retries),
		Logger:     logger,
	}), nil
}

// parseID parses a task or sub-task id argument.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q is not a valid id", types.ErrInvalidInput, s)
	}
	return id, nil
}
