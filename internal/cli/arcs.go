package cli

import (
	"sort"
	"time"

	"dequeue/internal/model"
	"dequeue/internal/mutate"

	"github.com/spf13/cobra"
)

func newArcsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "arcs",
		Short: "Arc commands (top-level grouping of stacks)",
	}
	cmd.AddCommand(newArcsCreateCmd(app))
	cmd.AddCommand(newArcsListCmd(app))
	cmd.AddCommand(newArcsShowCmd(app))
	cmd.AddCommand(newArcsUpdateCmd(app))
	cmd.AddCommand(newArcsDeleteCmd(app))
	cmd.AddCommand(newArcsStatusCmds(app)...)
	cmd.AddCommand(newArcsReorderCmd(app))
	cmd.AddCommand(newArcsAssignCmd(app))
	cmd.AddCommand(newArcsRemoveCmd(app))
	return cmd
}

func newArcsCreateCmd(app *App) *cobra.Command {
	var description, color, status, startAt, dueAt string

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create an arc",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			start, err := parseTimeFlag(startAt)
			if err != nil {
				return writeErr(cmd, err)
			}
			due, err := parseTimeFlag(dueAt)
			if err != nil {
				return writeErr(cmd, err)
			}

			arc, err := sess.arcs.Create(mutate.CreateArcParams{
				Title:       args[0],
				Description: description,
				ColorHex:    color,
				Status:      model.ArcStatus(status),
				StartAt:     start,
				DueAt:       due,
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, arc)
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "Arc description")
	cmd.Flags().StringVar(&color, "color", "", "Hex color, e.g. #3366ff")
	cmd.Flags().StringVar(&status, "status", "", "Initial status (active|paused|completed|archived; default active)")
	cmd.Flags().StringVar(&startAt, "start", "", "Start time")
	cmd.Flags().StringVar(&dueAt, "due", "", "Due time")
	return cmd
}

func newArcsListCmd(app *App) *cobra.Command {
	var includeDeleted bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List arcs in sort order",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			var arcs []model.Arc
			for _, a := range sess.db.Arcs {
				if a.IsDeleted && !includeDeleted {
					continue
				}
				arcs = append(arcs, a)
			}
			sort.SliceStable(arcs, func(i, j int) bool { return arcs[i].SortOrder < arcs[j].SortOrder })
			return writeOut(cmd, app, arcs)
		},
	}
	cmd.Flags().BoolVar(&includeDeleted, "deleted", false, "Include soft-deleted arcs")
	return cmd
}

func newArcsShowCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <arc-id>",
		Short: "Show one arc with its stacks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			arc, ok := sess.db.FindArc(args[0])
			if !ok {
				return writeErr(cmd, errNotFound("arc", args[0]))
			}
			return writeOut(cmd, app, map[string]any{
				"arc":    arc,
				"stacks": sess.db.StacksInArc(arc.ID),
			})
		},
	}
	return cmd
}

func newArcsUpdateCmd(app *App) *cobra.Command {
	var title, description, color, startAt, dueAt string
	var clearDescription, clearColor, clearStart, clearDue bool

	cmd := &cobra.Command{
		Use:   "update <arc-id>",
		Short: "Update arc fields (unset flags leave fields unchanged)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(app)
			if err != nil {
				return writeErr(cmd, err)
			}

			patch := mutate.ArcPatch{}
			if cmd.Flags().Changed("title") {
				patch.Title = mutate.Set(title)
			}
			patch.Description = stringField(cmd.Flags().Changed("description"), description, clearDescription)
			patch.ColorHex = stringField(cmd.Flags().Changed("color"), color, clearColor)
			patch.StartAt, err = timeField(cmd.Flags().Changed("start"), startAt, clearStart)
			if err != nil {
				return writeErr(cmd, err)
			}
			patch.DueAt, err = timeField(cmd.Flags().Changed("due"), dueAt, clearDue)
			if err != nil {
				return writeErr(cmd, err)
			}

			arc, err := sess.arcs.Update(args[0], patch)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, arc)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&color, "color", "", "New hex color")
	cmd.Flags().StringVar(&startAt, "start", "", "New start time")
	cmd.Flags().StringVar(&dueAt, "due", "", "New due time")
	cmd.Flags().BoolVar(&clearDescription, "clear-description", false, "Clear the description")
	cmd.Flags().BoolVar(&clearColor, "clear-color", false, "Clear the color")
	cmd.Flags().BoolVar(&clearStart, "clear-start", false, "Clear the start time")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "Clear the due time")
	return cmd
}

func stringField(set bool, v string, clear bool) mutate.Field[string] {
	switch {
	case clear:
		return mutate.Clear[string]()
	case set:
		return mutate.Set(v)
	default:
		return mutate.Keep[string]()
	}
}

func timeField(set bool, v string, clear bool) (mutate.Field[time.Time], error) {
	switch {
	case clear:
		return mutate.Clear[time.Time](), nil
	case set:
		t, err := parseTimeFlag(v)
		if err != nil {
			return mutate.Keep[time.Time](), err
		}
		return mutate.Set(*t), nil
	default:
		return mutate.Keep[time.Time](), nil
	}
}

func newArcsDeleteCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <arc-id>",
		Short: "Soft-delete an arc; its stacks are detached but survive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := sess.arcs.Delete(args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"id": args[0], "deleted": true})
		},
	}
	return cmd
}

func newArcsStatusCmds(app *App) []*cobra.Command {
	mk := func(use, short string, run func(*session, string) error) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <arc-id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				sess, err := loadSession(app)
				if err != nil {
					return writeErr(cmd, err)
				}
				if err := run(sess, args[0]); err != nil {
					return writeErr(cmd, err)
				}
				arc, _ := sess.db.FindArc(args[0])
				return writeOut(cmd, app, arc)
			},
		}
	}
	return []*cobra.Command{
		mk("complete", "Mark an arc completed", func(s *session, id string) error { return s.arcs.MarkCompleted(id) }),
		mk("pause", "Pause an arc", func(s *session, id string) error { return s.arcs.Pause(id) }),
		mk("resume", "Resume a paused arc", func(s *session, id string) error { return s.arcs.Resume(id) }),
		mk("archive", "Archive an arc", func(s *session, id string) error { return s.arcs.Archive(id) }),
	}
}

func newArcsReorderCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reorder <arc-id>...",
		Short: "Reorder arcs; unlisted arcs keep their relative order at the end",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := sess.arcs.Reorder(args); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"order": args})
		},
	}
	return cmd
}

func newArcsAssignCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assign <stack-id> <arc-id>",
		Short: "Assign a stack to an arc (moves it if assigned elsewhere)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := sess.arcs.AssignStack(args[0], args[1]); err != nil {
				return writeErr(cmd, err)
			}
			st, _ := sess.db.FindStack(args[0])
			return writeOut(cmd, app, st)
		},
	}
	return cmd
}

func newArcsRemoveCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <stack-id> <arc-id>",
		Short: "Detach a stack from an arc",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := sess.arcs.RemoveStack(args[0], args[1]); err != nil {
				return writeErr(cmd, err)
			}
			st, _ := sess.db.FindStack(args[0])
			return writeOut(cmd, app, st)
		},
	}
	return cmd
}
