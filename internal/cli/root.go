// Package cli implements the tasklist command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/tasklist-cli/tasklist/internal/board"
	"github.com/tasklist-cli/tasklist/internal/config"
	"github.com/tasklist-cli/tasklist/internal/types"
	"github.com/tasklist-cli/tasklist/internal/ui"
)

// Version is set at build time
var Version = "dev"

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// Deps are the collaborators a command run can replace, mainly for tests.
type Deps struct {
	// NewBoard builds the board client once the configuration is known.
	// Defaults to the Trello adapter behind the retry decorator.
	NewBoard func(cfg *config.Config, logger *log.Logger) (board.Board, error)
	// Prompter asks interactive questions. Defaults to huh prompts.
	Prompter ui.Prompter
	// Interactive reports whether prompting is possible. Defaults to
	// checking that stdin and stdout are terminals.
	Interactive func() bool
	// Now is the clock used for natural language due dates.
	Now func() time.Time
}

func (d *Deps) withDefaults(stdout io.Writer) *Deps {
	out := Deps{}
	if d != nil {
		out = *d
	}
	if out.NewBoard == nil {
		out.NewBoard = newTrelloBoard
	}
	if out.Prompter == nil {
		out.Prompter = ui.HuhPrompter{}
	}
	if out.Interactive == nil {
		out.Interactive = func() bool { return ui.IsInteractive(stdout) }
	}
	if out.Now == nil {
		out.Now = time.Now
	}
	return &out
}

// usageError marks errors in how a command was invoked.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// ExitCode maps a command error to the process exit code. Board outages and
// invalid-state errors are reported but do not fail the command.
func ExitCode(err error) int {
	var ue *usageError
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &ue):
		return ExitUsage
	case types.IsFatal(err):
		return ExitError
	}
	return ExitOK
}

// Execute runs the CLI with the given arguments and IO writers and returns
// the exit code.
func Execute(args []string, stdout, stderr io.Writer, deps *Deps) int {
	a := newApp(stdout, stderr, deps.withDefaults(stdout))
	defer a.close()

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err != nil {
		a.reportError(err)
	}
	return ExitCode(err)
}

// errorOutput is the structured form of a failed run, written to stderr
// so stdout keeps only command results.
type errorOutput struct {
	Error     string `json:"error" yaml:"error"`
	ErrorKind string `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	Fatal     bool   `json:"fatal" yaml:"fatal"`
	ExitCode  int    `json:"exit_code" yaml:"exit_code"`
}

func (a *app) reportError(err error) {
	fatal := types.IsFatal(err)
	if a.structured() {
		out := errorOutput{
			Error:     err.Error(),
			ErrorKind: types.Kind(err),
			Fatal:     fatal,
			ExitCode:  ExitCode(err),
		}
		var ue *usageError
		if errors.As(err, &ue) && out.ErrorKind == "" {
			out.ErrorKind = "usage"
		}
		if ui.Encode(a.stderr, a.format, out) == nil {
			return
		}
	}
	label := "Error:"
	if !fatal {
		label = "Warning:"
	}
	_, _ = fmt.Fprintln(a.stderr, label, err)
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasklist",
		Short: "Offline-first task manager for a Trello board",
		Long: `tasklist adds tasks to a Trello board, or queues them locally when the
board cannot be reached, and uploads the queue once it is back.

Queued tasks can be listed, edited, removed and given sub-tasks until they
are uploaded.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.flags.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	pf.StringVarP(&a.flags.output, "output", "o", "text", "output format: text, json or yaml")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "show more detail and log to stderr")
	pf.BoolVar(&a.flags.offline, "offline", false, "do not contact the board")
	pf.BoolVar(&a.flags.noColor, "no-color", false, "disable colored output")

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return &usageError{err: fmt.Errorf("%w\nSee '%s --help'", err, c.CommandPath())}
	})

	cmd.AddGroup(
		&cobra.Group{ID: "tasks", Title: "Pending tasks:"},
		&cobra.Group{ID: "board", Title: "Board:"},
		&cobra.Group{ID: "setup", Title: "Setup:"},
	)

	cmd.AddCommand(
		newAddCmd(a),
		newImportCmd(a),
		newListCmd(a),
		newViewCmd(a),
		newEditCmd(a),
		newRemoveCmd(a),
		newSubCmd(a),
		newUploadCmd(a),
		newSearchCmd(a),
		newShowCmd(a),
		newDoneCmd(a),
		newReportsCmd(a),
		newWatchCmd(a),
		newStatusCmd(a),
		newConfigureCmd(a),
	)
	return cmd
}

// args wraps a cobra argument validator so its failures count as usage
// errors.
func args(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, a []string) error {
		if err := v(cmd, a); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}
