package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tasklist-cli/tasklist/internal/config"
	"github.com/tasklist-cli/tasklist/internal/daemon"
	"github.com/tasklist-cli/tasklist/internal/probe"
	"github.com/tasklist-cli/tasklist/internal/sync"
	"github.com/tasklist-cli/tasklist/internal/types"
	"github.com/tasklist-cli/tasklist/internal/ui"
)

// requireOnline rejects --offline for commands that exist to talk to the
// board.
func (a *app) requireOnline(cmd *cobra.Command) error {
	if a.flags.offline {
		return &usageError{err: fmt.Errorf("%s needs the board; drop --offline", cmd.CommandPath())}
	}
	return nil
}

func newUploadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "upload",
		GroupID: "board",
		Short:   "Upload queued tasks to the board",
		Long: `Upload queued tasks to the board, oldest first.

A task the board rejects stays queued as failed and the upload moves on. If
the board becomes unreachable the upload stops and the remaining tasks stay
queued for the next run.`,
		Args: args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, argv []string) error {
			ctx := cmd.Context()
			if err := a.requireOnline(cmd); err != nil {
				return err
			}
			if _, err := a.openBoard(); err != nil {
				return err
			}
			s, err := a.openSyncer(ctx)
			if err != nil {
				return err
			}

			res, err := s.Upload(ctx)
			if err != nil {
				return err
			}
			if a.structured() {
				if err := a.encode(drainView(res)); err != nil {
					return err
				}
			} else {
				a.printDrain(res)
			}
			if res.Aborted != nil {
				return fmt.Errorf("upload stopped: %w", res.Aborted)
			}
			return nil
		},
	}
}

// drainOutput is the structured form of a drain result.
type drainOutput struct {
	Succeeded []sync.Uploaded `json:"succeeded" yaml:"succeeded"`
	Rejected  []rejectionView `json:"rejected" yaml:"rejected"`
	Remaining []int64         `json:"remaining" yaml:"remaining"`
	Aborted   string          `json:"aborted,omitempty" yaml:"aborted,omitempty"`
}

type rejectionView struct {
	TaskID      int64  `json:"task_id" yaml:"task_id"`
	Description string `json:"description" yaml:"description"`
	Error       string `json:"error" yaml:"error"`
}

func drainView(res *sync.DrainResult) drainOutput {
	out := drainOutput{
		Succeeded: res.Succeeded,
		Rejected:  []rejectionView{},
		Remaining: res.Remaining,
	}
	if out.Succeeded == nil {
		out.Succeeded = []sync.Uploaded{}
	}
	if out.Remaining == nil {
		out.Remaining = []int64{}
	}
	for _, r := range res.Rejected {
		out.Rejected = append(out.Rejected, rejectionView{TaskID: r.TaskID, Description: r.Description, Error: r.Err.Error()})
	}
	if res.Aborted != nil {
		out.Aborted = res.Aborted.Error()
	}
	return out
}

func (a *app) printDrain(res *sync.DrainResult) {
	for _, u := range res.Succeeded {
		a.printf("%s Uploaded task %d: %s\n", ui.RenderPass("✓"), u.TaskID, u.Description)
	}
	for _, r := range res.Rejected {
		a.printf("%s Board rejected task %d: %s (%v)\n", ui.RenderFail("✗"), r.TaskID, r.Description, r.Err)
	}
	switch {
	case len(res.Succeeded) == 0 && len(res.Rejected) == 0 && len(res.Remaining) == 0 && res.Aborted == nil:
		a.printf("Nothing to upload.\n")
	case len(res.Remaining) > 0:
		a.printf("%s %d uploaded, %d still queued\n", ui.RenderWarn("⚠"), len(res.Succeeded), len(res.Remaining))
	default:
		a.printf("%d uploaded, %d rejected\n", len(res.Succeeded), len(res.Rejected))
	}
}

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "watch",
		GroupID: "board",
		Short:   "Upload queued tasks automatically",
		Long: `Run in the foreground and upload tasks as soon as they are queued and the
board is reachable. Failed tasks are retried every watch.interval.

Stop with Ctrl-C.`,
		Args: args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, argv []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := a.requireOnline(cmd); err != nil {
				return err
			}
			b, err := a.openBoard()
			if err != nil {
				return err
			}
			s, err := a.openSyncer(ctx)
			if err != nil {
				return err
			}

			logger := a.logs.Logger("daemon")
			d, err := daemon.New(a.store, s, probe.New(b, a.cfg.Probe.Timeout), &daemon.Config{
				Interval: a.cfg.Watch.Interval,
				Debounce: a.cfg.Watch.Debounce,
				Logger:   logger,
				OnDrain: func(res *sync.DrainResult, err error) {
					if err != nil {
						a.warnf("%v\n", err)
						return
					}
					if !a.structured() {
						a.printDrain(res)
					}
				},
			})
			if err != nil {
				return err
			}

			a.printf("Watching %s (Ctrl-C to stop)\n", a.cfg.DBPath())
			return d.Start(ctx)
		},
	}
}

// statusOutput is the result of the status command.
type statusOutput struct {
	Pending    int    `json:"pending" yaml:"pending"`
	Failed     int    `json:"failed" yaml:"failed"`
	Uploading  int    `json:"uploading" yaml:"uploading"`
	Config     string `json:"config" yaml:"config"`
	Database   string `json:"database" yaml:"database"`
	Configured bool   `json:"configured" yaml:"configured"`
	Online     bool   `json:"online" yaml:"online"`
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		GroupID: "setup",
		Short:   "Show queue counts, paths and board reachability",
		Args:    args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, argv []string) error {
			ctx := cmd.Context()
			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}

			out := statusOutput{
				Config:     a.configPath(),
				Database:   a.cfg.DBPath(),
				Configured: a.boardConfigured(),
			}
			counts := []struct {
				status types.Status
				dst    *int
			}{
				{types.StatusPending, &out.Pending},
				{types.StatusFailed, &out.Failed},
				{types.StatusUploading, &out.Uploading},
			}
			for _, c := range counts {
				if *c.dst, err = store.CountTasksContext(ctx, c.status); err != nil {
					return err
				}
			}
			if !a.offline() {
				b, err := a.openBoard()
				if err != nil {
					return err
				}
				out.Online = probe.New(b, a.cfg.Probe.Timeout).IsOnline(ctx)
			}

			if a.structured() {
				return a.encode(out)
			}
			a.printStatus(out)
			return nil
		},
	}
}

func (a *app) printStatus(out statusOutput) {
	a.printf("%s\n", ui.RenderHeader("Queue"))
	a.printf("  Pending:   %d\n", out.Pending)
	a.printf("  Failed:    %d\n", out.Failed)
	if out.Uploading > 0 {
		a.printf("  Uploading: %d %s\n", out.Uploading, ui.RenderMuted("(interrupted; recovered by the next upload)"))
	}
	a.printf("%s\n", ui.RenderHeader("Paths"))
	a.printf("  Config:    %s\n", out.Config)
	a.printf("  Database:  %s\n", out.Database)
	a.printf("%s\n", ui.RenderHeader("Board"))
	switch {
	case !out.Configured:
		a.printf("  %s not configured (run 'tasklist configure')\n", ui.RenderWarn("⚠"))
	case a.flags.offline:
		a.printf("  offline mode\n")
	case out.Online:
		a.printf("  %s reachable\n", ui.RenderPass("✓"))
	default:
		a.printf("  %s unreachable\n", ui.RenderFail("✗"))
	}
}

// configPath names the configuration file in use, or where it would be.
func (a *app) configPath() string {
	if p := a.cfg.Path(); p != "" {
		return p
	}
	if a.flags.configPath != "" {
		return a.flags.configPath + " (not found)"
	}
	return config.DefaultPath() + " (not found)"
}
