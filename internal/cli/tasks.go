package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tasklist-cli/tasklist/internal/board"
	"github.com/tasklist-cli/tasklist/internal/dates"
	"github.com/tasklist-cli/tasklist/internal/db"
	"github.com/tasklist-cli/tasklist/internal/importer"
	"github.com/tasklist-cli/tasklist/internal/sync"
	"github.com/tasklist-cli/tasklist/internal/types"
	"github.com/tasklist-cli/tasklist/internal/ui"
)

// addOutput is the structured form of an add result.
type addOutput struct {
	Origin   sync.Origin       `json:"origin" yaml:"origin"`
	Card     *board.Card       `json:"card,omitempty" yaml:"card,omitempty"`
	Task     *types.Task       `json:"task,omitempty" yaml:"task,omitempty"`
	Fallback string            `json:"fallback,omitempty" yaml:"fallback,omitempty"`
	Cause    string            `json:"cause,omitempty" yaml:"cause,omitempty"`
	Drain    *sync.DrainResult `json:"drain,omitempty" yaml:"drain,omitempty"`
}

func newAddCmd(a *app) *cobra.Command {
	var (
		due         string
		priority    int
		category    string
		listName    string
		uploadFirst bool
	)

	cmd := &cobra.Command{
		Use:     "add <description>",
		GroupID: "tasks",
		Short:   "Add a task to the board, or queue it when offline",
		Long: `Add a task. When the board answers, a card is created right away.
Otherwise the task is stored locally and uploaded later with 'tasklist upload'.

Due dates accept YYYY-MM-DD or phrases like "tomorrow" or "next friday".`,
		Args: args(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			ctx := cmd.Context()
			dueDate, err := dates.Parse(due, a.deps.Now())
			if err != nil {
				return err
			}

			s, err := a.openSyncer(ctx)
			if err != nil {
				return err
			}

			req := sync.AddRequest{
				Description: strings.Join(argv, " "),
				DueDate:     dueDate,
				Priority:    priority,
				Category:    category,
				ListName:    listName,
				Offline:     a.offline(),
				DrainFirst:  uploadFirst,
			}
			if !req.Offline && !req.DrainFirst {
				req.DrainFirst, err = a.offerUpload(ctx, s)
				if err != nil {
					return err
				}
			}

			res, err := s.Add(ctx, req)
			if err != nil {
				return err
			}
			return a.printAdd(res)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&due, "due", "d", "", "due date (YYYY-MM-DD or natural language)")
	f.IntVarP(&priority, "priority", "p", 0, "priority: 1 low, 2 medium, 3 high (default from config)")
	f.StringVarP(&category, "category", "c", "", "category label (default from config)")
	f.StringVarP(&listName, "list-name", "l", "", "board list to add the card to")
	f.BoolVar(&uploadFirst, "upload-first", false, "upload queued tasks before adding this one")
	return cmd
}

// offerUpload asks whether to drain queued tasks first so the board keeps
// creation order. It only asks on a terminal.
func (a *app) offerUpload(ctx context.Context, s sync.Syncer) (bool, error) {
	if !a.deps.Interactive() || a.structured() {
		return false, nil
	}
	n, err := s.Pending(ctx)
	if err != nil || n == 0 {
		return false, err
	}
	ok, err := a.deps.Prompter.Confirm(fmt.Sprintf("%d task(s) are queued locally. Upload them first?", n))
	if errors.Is(err, ui.ErrAborted) {
		return false, nil
	}
	return ok, err
}

func (a *app) printAdd(res *sync.AddResult) error {
	if a.structured() {
		out := addOutput{
			Origin:   res.Origin,
			Card:     res.Card,
			Task:     res.Task,
			Fallback: string(res.Fallback),
			Drain:    res.Drain,
		}
		if res.Cause != nil {
			out.Cause = res.Cause.Error()
		}
		return a.encode(out)
	}

	if res.Drain != nil {
		a.printDrain(res.Drain)
	}
	switch res.Origin {
	case sync.OriginRemote:
		a.printf("%s Added to board: %s\n", ui.RenderPass("✓"), res.Card.Name)
		if res.Card.URL != "" {
			a.printf("   %s\n", ui.RenderMuted(res.Card.URL))
		}
	default:
		a.printf("%s Queued locally as task %d (%s)\n", ui.RenderWarn("⚠"), res.Task.ID, res.Fallback)
		if res.Cause != nil {
			a.printf("   %s\n", ui.RenderMuted(res.Cause.Error()))
		}
		a.printf("   Run 'tasklist upload' once the board is reachable.\n")
	}
	return nil
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "import <file>",
		GroupID: "tasks",
		Short:   "Add every task in a file",
		Long: `Add one task per line of a text file, or one JSON object per line of a
.jsonl file:

  {"description": "Buy milk", "due_date": "2024-05-01", "priority": 2,
   "category": "Home", "list_name": "To Do"}

Each task goes through the same board-or-queue decision as 'tasklist add'.`,
		Args: args(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			ctx := cmd.Context()
			records, err := importer.ReadFile(argv[0], a.deps.Now())
			if err != nil {
				return err
			}
			s, err := a.openSyncer(ctx)
			if err != nil {
				return err
			}

			result, err := importer.Run(ctx, s, records, importer.Options{
				Offline: a.offline(),
				Progress: func(rec importer.Record, res *sync.AddResult, err error) {
					if a.structured() {
						return
					}
					switch {
					case err != nil:
						a.printf("%s line %d: %v\n", ui.RenderFail("✗"), rec.Line, err)
					case res.Origin == sync.OriginRemote:
						a.printf("%s %s\n", ui.RenderPass("✓"), rec.Description)
					default:
						a.printf("%s %s (queued as task %d)\n", ui.RenderWarn("⚠"), rec.Description, res.Task.ID)
					}
				},
			})
			if err != nil {
				return err
			}

			if a.structured() {
				failed := make([]map[string]interface{}, 0, len(result.Failures))
				for _, f := range result.Failures {
					failed = append(failed, map[string]interface{}{"line": f.Record.Line, "error": f.Err.Error()})
				}
				if err := a.encode(map[string]interface{}{
					"remote": result.Remote,
					"local":  result.Local,
					"failed": failed,
				}); err != nil {
					return err
				}
			} else {
				a.printf("\nImported %d task(s): %d to the board, %d queued locally, %d failed\n",
					result.Remote+result.Local, result.Remote, result.Local, len(result.Failures))
			}
			if len(result.Failures) > 0 {
				return fmt.Errorf("%d line(s) could not be imported: %w", len(result.Failures), result.Failures[0].Err)
			}
			return nil
		},
	}
}

// taskView adds the sub-task count to a task in structured output.
type taskView struct {
	types.Task `yaml:",inline"`
	SubTasks   int `json:"sub_tasks" yaml:"sub_tasks"`
}

func newListCmd(a *app) *cobra.Command {
	var (
		category string
		priority int
		sortBy   string
	)

	cmd := &cobra.Command{
		Use:     "list",
		GroupID: "tasks",
		Short:   "List tasks queued locally",
		Long: `List tasks waiting for upload. Tasks marked [+] have sub-tasks.

Use --verbose to show the target list, upload status and creation time.`,
		Args: args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, argv []string) error {
			ctx := cmd.Context()
			sortField, err := parseSort(sortBy)
			if err != nil {
				return err
			}
			if priority != 0 {
				if err := types.ValidatePriority(priority); err != nil {
					return err
				}
			}

			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			tasks, err := store.ListTasksContext(ctx, db.ListTasksFilter{
				Category: category,
				Priority: priority,
				SortBy:   sortField,
			})
			if err != nil {
				return err
			}
			counts, err := store.SubTaskCountsContext(ctx)
			if err != nil {
				return err
			}

			if a.structured() {
				views := make([]taskView, 0, len(tasks))
				for _, t := range tasks {
					views = append(views, taskView{Task: *t, SubTasks: counts[t.ID]})
				}
				return a.encode(views)
			}
			ui.RenderTasks(a.stdout, tasks, counts, a.flags.verbose)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&category, "category", "c", "", "only tasks in this category")
	f.IntVarP(&priority, "priority", "p", 0, "only tasks with this priority")
	f.StringVarP(&sortBy, "sort", "s", "created", "sort by: created, priority or due")
	return cmd
}

func parseSort(s string) (db.SortField, error) {
	switch strings.ToLower(s) {
	case "", "created":
		return db.SortCreated, nil
	case "priority":
		return db.SortPriority, nil
	case "due", "due_date":
		return db.SortDueDate, nil
	}
	return "", fmt.Errorf("%w: unknown sort %q (want created, priority or due)", types.ErrInvalidInput, s)
}

func newViewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "view <id>",
		GroupID: "tasks",
		Short:   "Show a queued task and its sub-tasks",
		Args:    args(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			ctx := cmd.Context()
			id, err := parseID(argv[0])
			if err != nil {
				return err
			}
			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			task, err := store.GetTaskContext(ctx, id)
			if err != nil {
				return err
			}
			subs, err := store.ListSubTasksContext(ctx, id)
			if err != nil {
				return err
			}

			if a.structured() {
				if subs == nil {
					subs = []*types.SubTask{}
				}
				return a.encode(struct {
					Task     *types.Task      `json:"task" yaml:"task"`
					SubTasks []*types.SubTask `json:"sub_tasks" yaml:"sub_tasks"`
				}{task, subs})
			}
			ui.RenderTask(a.stdout, task, subs)
			return nil
		},
	}
}

func newEditCmd(a *app) *cobra.Command {
	var (
		description string
		due         string
		clearDue    bool
		priority    int
		category    string
		listName    string
	)

	cmd := &cobra.Command{
		Use:     "edit <id>",
		GroupID: "tasks",
		Short:   "Change a queued task",
		Long: `Change fields of a task that has not been uploaded yet. Only the flags
given are changed.`,
		Args: args(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			ctx := cmd.Context()
			id, err := parseID(argv[0])
			if err != nil {
				return err
			}

			var update types.TaskUpdate
			f := cmd.Flags()
			if f.Changed("description") {
				update.Description = &description
			}
			if f.Changed("due") {
				update.DueDate, err = dates.Parse(due, a.deps.Now())
				if err != nil {
					return err
				}
				if update.DueDate == nil {
					update.ClearDue = true
				}
			}
			if clearDue {
				update.ClearDue = true
			}
			if f.Changed("priority") {
				update.Priority = &priority
			}
			if f.Changed("category") {
				update.Category = &category
			}
			if f.Changed("list-name") {
				update.ListName = &listName
			}
			if update.Empty() {
				return &usageError{err: errors.New("nothing to change; pass at least one flag")}
			}

			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			task, err := store.UpdateTaskContext(ctx, id, update)
			if err != nil {
				return err
			}

			if a.structured() {
				return a.encode(task)
			}
			a.printf("%s Updated task %d\n", ui.RenderPass("✓"), task.ID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&description, "description", "", "new description")
	f.StringVarP(&due, "due", "d", "", "new due date (empty clears it)")
	f.BoolVar(&clearDue, "clear-due", false, "remove the due date")
	f.IntVarP(&priority, "priority", "p", 0, "new priority (1-3)")
	f.StringVarP(&category, "category", "c", "", "new category")
	f.StringVarP(&listName, "list-name", "l", "", "new target list (empty uses the default list)")
	return cmd
}

func newRemoveCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "remove <id>...",
		Aliases: []string{"rm"},
		GroupID: "tasks",
		Short:   "Delete queued tasks and their sub-tasks",
		Args:    args(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			ctx := cmd.Context()
			ids := make([]int64, 0, len(argv))
			for _, arg := range argv {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}

			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			for _, id := range ids {
				task, err := store.GetTaskContext(ctx, id)
				if err != nil {
					return err
				}
				if !yes {
					ok, err := a.confirm(fmt.Sprintf("Remove task %d %q and its sub-tasks?", id, task.Description))
					if err != nil {
						return err
					}
					if !ok {
						a.printf("Skipped task %d\n", id)
						continue
					}
				}
				if err := store.DeleteTaskContext(ctx, id); err != nil {
					return err
				}
				a.printf("%s Removed task %d\n", ui.RenderPass("✓"), id)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

// confirm asks a yes/no question, or fails when no terminal is attached.
func (a *app) confirm(question string) (bool, error) {
	if !a.deps.Interactive() {
		return false, &usageError{err: errors.New("confirmation required; rerun with --yes")}
	}
	ok, err := a.deps.Prompter.Confirm(question)
	if errors.Is(err, ui.ErrAborted) {
		return false, nil
	}
	return ok, err
}
