package cli

import (
	"dequeue/internal/depgraph"

	"github.com/spf13/cobra"
)

func newDepsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Task dependency commands",
	}
	cmd.AddCommand(newDepsAddCmd(app))
	cmd.AddCommand(newDepsRemoveCmd(app))
	cmd.AddCommand(newDepsListCmd(app))
	cmd.AddCommand(newDepsCyclesCmd(app))
	return cmd
}

func newDepsAddCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <task-id> <blocker-id>",
		Short: "Record that a task is blocked by another; cycles are rejected",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			added, err := sess.tasks.AddDependency(args[0], args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			task, _ := sess.db.FindTask(args[0])
			return writeOut(cmd, app, map[string]any{
				"added": added,
				"task":  task,
			})
		},
	}
	return cmd
}

func newDepsRemoveCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <task-id> <blocker-id>",
		Short: "Remove a dependency edge",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := sess.tasks.RemoveDependency(args[0], args[1]); err != nil {
				return writeErr(cmd, err)
			}
			task, _ := sess.db.FindTask(args[0])
			return writeOut(cmd, app, task)
		},
	}
	return cmd
}

func newDepsListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <task-id>",
		Short: "List a task's blockers and dependents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			task, ok := sess.db.FindTask(args[0])
			if !ok {
				return writeErr(cmd, errNotFound("task", args[0]))
			}
			return writeOut(cmd, app, map[string]any{
				"blockers":   task.DependencyIDs,
				"dependents": depgraph.Dependents(sess.db.Tasks, task.ID),
				"satisfied":  sess.tasks.DependenciesSatisfied(task.ID),
			})
		},
	}
	return cmd
}

func newDepsCyclesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cycles",
		Short: "Report dependency cycles (diagnostics; mutations never create them)",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			cycles := depgraph.Build(sess.db.Tasks).Cycles()
			return writeOut(cmd, app, map[string]any{"cycles": cycles})
		},
	}
	return cmd
}
