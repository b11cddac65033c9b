package cli

import (
	"dequeue/internal/model"
	"dequeue/internal/mutate"

	"github.com/spf13/cobra"
)

func newStacksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stacks",
		Short: "Stack commands (ordered queues of tasks)",
	}
	cmd.AddCommand(newStacksCreateCmd(app))
	cmd.AddCommand(newStacksListCmd(app))
	cmd.AddCommand(newStacksShowCmd(app))
	cmd.AddCommand(newStacksUpdateCmd(app))
	cmd.AddCommand(newStacksActivateCmd(app))
	cmd.AddCommand(newStacksCompleteCmd(app))
	cmd.AddCommand(newStacksCloseCmd(app))
	cmd.AddCommand(newStacksDeleteCmd(app))
	cmd.AddCommand(newStacksReorderCmd(app))
	cmd.AddCommand(newStacksPublishCmd(app))
	cmd.AddCommand(newStacksDiscardCmd(app))
	cmd.AddCommand(newStacksRevertCmd(app))
	cmd.AddCommand(newStacksMigrateCmd(app))
	return cmd
}

func newStacksCreateCmd(app *App) *cobra.Command {
	var description string
	var draft bool

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a stack (the first live stack becomes the focused one)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			st, err := sess.stacks.Create(args[0], description, draft)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, st)
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "Stack description")
	cmd.Flags().BoolVar(&draft, "draft", false, "Create as a draft (excluded from focus until published)")
	return cmd
}

func newStacksListCmd(app *App) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List live stacks in sort order",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if all {
				var out []model.Stack
				for _, st := range sess.db.Stacks {
					if !st.IsDeleted {
						out = append(out, st)
					}
				}
				return writeOut(cmd, app, out)
			}
			return writeOut(cmd, app, sess.db.LiveStacks())
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Include drafts and non-active stacks")
	return cmd
}

func newStacksShowCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <stack-id>",
		Short: "Show one stack with its task queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			st, ok := sess.db.FindStack(args[0])
			if !ok {
				return writeErr(cmd, errNotFound("stack", args[0]))
			}
			return writeOut(cmd, app, map[string]any{
				"stack": st,
				"tasks": sess.db.TasksInStack(st.ID),
			})
		},
	}
	return cmd
}

func newStacksUpdateCmd(app *App) *cobra.Command {
	var title, description string
	var clearDescription, draft bool

	cmd := &cobra.Command{
		Use:   "update <stack-id>",
		Short: "Update stack fields (unset flags leave fields unchanged)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			titleF := mutate.Keep[string]()
			if cmd.Flags().Changed("title") {
				titleF = mutate.Set(title)
			}
			descF := stringField(cmd.Flags().Changed("description"), description, clearDescription)

			var st *model.Stack
			if draft {
				st, err = sess.stacks.UpdateDraft(args[0], titleF, descF)
			} else {
				st, err = sess.stacks.Update(args[0], titleF, descF)
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, st)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().BoolVar(&clearDescription, "clear-description", false, "Clear the description")
	cmd.Flags().BoolVar(&draft, "draft", false, "Require the stack to be a draft")
	return cmd
}

func newStacksActivateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activate <stack-id>",
		Short: "Make the stack the single focused one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := sess.stacks.SetActive(args[0]); err != nil {
				return writeErr(cmd, err)
			}
			st, _ := sess.db.FindStack(args[0])
			return writeOut(cmd, app, st)
		},
	}
	return cmd
}

func newStacksCompleteCmd(app *App) *cobra.Command {
	var completeTasks bool

	cmd := &cobra.Command{
		Use:   "complete <stack-id>",
		Short: "Mark a stack completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := sess.stacks.MarkCompleted(args[0], completeTasks); err != nil {
				return writeErr(cmd, err)
			}
			st, _ := sess.db.FindStack(args[0])
			return writeOut(cmd, app, st)
		},
	}
	cmd.Flags().BoolVar(&completeTasks, "complete-tasks", false, "Also complete every pending task in the stack")
	return cmd
}

func newStacksCloseCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "close <stack-id>",
		Short: "Close a stack without completing its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := sess.stacks.Close(args[0]); err != nil {
				return writeErr(cmd, err)
			}
			st, _ := sess.db.FindStack(args[0])
			return writeOut(cmd, app, st)
		},
	}
	return cmd
}

func newStacksDeleteCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <stack-id>",
		Short: "Soft-delete a stack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := sess.stacks.Delete(args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"id": args[0], "deleted": true})
		},
	}
	return cmd
}

func newStacksReorderCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reorder <stack-id>...",
		Short: "Reorder live stacks; unlisted stacks keep their relative order at the end",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := sess.stacks.Reorder(args); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"order": args})
		},
	}
	return cmd
}

func newStacksPublishCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish <stack-id>",
		Short: "Publish a draft stack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			st, err := sess.stacks.PublishDraft(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, st)
		},
	}
	return cmd
}

func newStacksDiscardCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discard <stack-id>",
		Short: "Discard a draft stack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := sess.stacks.DiscardDraft(args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"id": args[0], "discarded": true})
		},
	}
	return cmd
}

func newStacksRevertCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revert <stack-id> <event-id>",
		Short: "Revert a stack to the state captured by a historical event",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			evs, err := sess.store.ReadEventsForEntity(args[0], 0)
			if err != nil {
				return writeErr(cmd, err)
			}
			var source *model.Event
			for i := range evs {
				if evs[i].ID == args[1] {
					source = &evs[i]
					break
				}
			}
			if source == nil {
				return writeErr(cmd, errNotFound("event", args[1]))
			}
			st, err := sess.stacks.RevertToHistoricalState(args[0], *source)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, st)
		},
	}
	return cmd
}

func newStacksMigrateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate-active",
		Short: "Reconcile the focus flag for stores predating it",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			changed, err := sess.stacks.MigrateActiveState()
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"changed": changed})
		},
	}
	return cmd
}
