package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/tasklist-cli/tasklist/internal/types"
	"github.com/tasklist-cli/tasklist/internal/ui"
)

func newSubCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sub",
		GroupID: "tasks",
		Short:   "Manage sub-tasks of queued tasks",
		Long: `Sub-tasks are local notes attached to a queued task. They are discarded
when the task is uploaded.`,
	}
	cmd.AddCommand(newSubAddCmd(a), newSubListCmd(a), newSubRemoveCmd(a))
	return cmd
}

func newSubAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <task-id> <description>",
		Short: "Attach a sub-task to a queued task",
		Args:  args(cobra.MinimumNArgs(2)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			ctx := cmd.Context()
			parentID, err := parseID(argv[0])
			if err != nil {
				return err
			}
			s, err := a.openSyncer(ctx)
			if err != nil {
				return err
			}
			id, err := s.AddSubTask(ctx, parentID, strings.Join(argv[1:], " "))
			if err != nil {
				return err
			}

			if a.structured() {
				return a.encode(map[string]int64{"id": id, "parent_id": parentID})
			}
			a.printf("%s Added sub-task %d to task %d\n", ui.RenderPass("✓"), id, parentID)
			return nil
		},
	}
}

func newSubListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list <task-id>",
		Short: "List the sub-tasks of a queued task",
		Args:  args(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			ctx := cmd.Context()
			parentID, err := parseID(argv[0])
			if err != nil {
				return err
			}
			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			if _, err := store.GetTaskContext(ctx, parentID); err != nil {
				return err
			}
			subs, err := store.ListSubTasksContext(ctx, parentID)
			if err != nil {
				return err
			}

			if a.structured() {
				if subs == nil {
					subs = []*types.SubTask{}
				}
				return a.encode(subs)
			}
			ui.RenderSubTasks(a.stdout, subs)
			return nil
		},
	}
}

func newSubRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <sub-task-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a sub-task",
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
			if err := store.DeleteSubTaskContext(ctx, id); err != nil {
				return err
			}
			a.printf("%s Removed sub-task %d\n", ui.RenderPass("✓"), id)
			return nil
		},
	}
}
