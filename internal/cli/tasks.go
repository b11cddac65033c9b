package cli

import (
	"strconv"
	"time"

	"dequeue/internal/model"
	"dequeue/internal/mutate"

	"github.com/spf13/cobra"
)

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Task commands",
	}
	cmd.AddCommand(newTasksAddCmd(app))
	cmd.AddCommand(newTasksListCmd(app))
	cmd.AddCommand(newTasksShowCmd(app))
	cmd.AddCommand(newTasksUpdateCmd(app))
	cmd.AddCommand(newTasksCompleteCmd(app))
	cmd.AddCommand(newTasksBlockCmd(app))
	cmd.AddCommand(newTasksUnblockCmd(app))
	cmd.AddCommand(newTasksCloseCmd(app))
	cmd.AddCommand(newTasksDeleteCmd(app))
	cmd.AddCommand(newTasksActivateCmd(app))
	cmd.AddCommand(newTasksReorderCmd(app))
	return cmd
}

func newTasksAddCmd(app *App) *cobra.Command {
	var title, description, startAt, dueAt, recurEvery, recurDays, recurEnd string
	var priority, recurInterval, recurDay, recurCount int
	var tags []string

	cmd := &cobra.Command{
		Use:   "add <stack-id>",
		Short: "Add a task to the end of a stack's queue",
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
			rule, err := parseRecurrenceFlags(recurEvery, recurInterval, recurDays, recurDay, recurEnd, recurCount)
			if err != nil {
				return writeErr(cmd, err)
			}

			task, err := sess.tasks.Create(args[0], mutate.CreateTaskParams{
				Title:       title,
				Description: description,
				Priority:    priority,
				Tags:        tags,
				StartAt:     start,
				DueAt:       due,
				Recurrence:  rule,
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, task)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Task title (required)")
	cmd.Flags().StringVar(&description, "description", "", "Task description")
	cmd.Flags().IntVar(&priority, "priority", 0, "Priority (higher = more important)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tags (repeatable)")
	cmd.Flags().StringVar(&startAt, "start", "", "Start time")
	cmd.Flags().StringVar(&dueAt, "due", "", "Due time")
	cmd.Flags().StringVar(&recurEvery, "recur", "", "Recurrence frequency (daily|weekly|monthly|yearly)")
	cmd.Flags().IntVar(&recurInterval, "recur-interval", 1, "Recurrence interval")
	cmd.Flags().StringVar(&recurDays, "recur-days", "", "Weekdays for weekly recurrence, e.g. 1,3,5 (Sunday = 0)")
	cmd.Flags().IntVar(&recurDay, "recur-day", 0, "Day of month for monthly recurrence (1-31)")
	cmd.Flags().StringVar(&recurEnd, "recur-end", "", "End condition: never (default), a count like 'after:10', or a date")
	cmd.Flags().IntVar(&recurCount, "recur-count", 0, "Occurrence count when --recur-end is 'after'")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func parseRecurrenceFlags(every string, interval int, days string, dayOfMonth int, end string, count int) (*model.RecurrenceRule, error) {
	if every == "" {
		return nil, nil
	}
	freq, err := model.ParseFrequency(every)
	if err != nil {
		return nil, err
	}
	if interval < 1 {
		interval = 1
	}
	rule := &model.RecurrenceRule{
		Frequency:  freq,
		Interval:   interval,
		DayOfMonth: dayOfMonth,
		End:        model.RecurrenceEnd{Kind: model.EndNever},
	}
	if days != "" {
		for _, part := range splitCSV(days) {
			n, err := strconv.Atoi(part)
			if err != nil || n < 0 || n > 6 {
				return nil, errInvalidWeekday(part)
			}
			rule.DaysOfWeek = append(rule.DaysOfWeek, time.Weekday(n))
		}
	}
	switch {
	case end == "" || end == "never":
	case end == "after":
		rule.End = model.RecurrenceEnd{Kind: model.EndAfterOccurrences, Count: count}
	default:
		t, err := parseTimeFlag(end)
		if err != nil {
			return nil, err
		}
		rule.End = model.RecurrenceEnd{Kind: model.EndOnDate, Date: t}
	}
	return rule, nil
}

func newTasksListCmd(app *App) *cobra.Command {
	var pendingOnly bool

	cmd := &cobra.Command{
		Use:   "list <stack-id>",
		Short: "List a stack's tasks in queue order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if pendingOnly {
				return writeOut(cmd, app, sess.db.PendingTasksInStack(args[0]))
			}
			return writeOut(cmd, app, sess.db.TasksInStack(args[0]))
		},
	}
	cmd.Flags().BoolVar(&pendingOnly, "pending", false, "Only pending tasks")
	return cmd
}

func newTasksShowCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show one task",
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
			return writeOut(cmd, app, task)
		},
	}
	return cmd
}

func newTasksUpdateCmd(app *App) *cobra.Command {
	var title, description, startAt, dueAt string
	var priority int
	var clearDescription, clearStart, clearDue bool

	cmd := &cobra.Command{
		Use:   "update <task-id>",
		Short: "Update task fields (unset flags leave fields unchanged)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(app)
			if err != nil {
				return writeErr(cmd, err)
			}

			patch := mutate.TaskPatch{}
			if cmd.Flags().Changed("title") {
				patch.Title = mutate.Set(title)
			}
			if cmd.Flags().Changed("priority") {
				patch.Priority = mutate.Set(priority)
			}
			patch.Description = stringField(cmd.Flags().Changed("description"), description, clearDescription)
			patch.StartAt, err = timeField(cmd.Flags().Changed("start"), startAt, clearStart)
			if err != nil {
				return writeErr(cmd, err)
			}
			patch.DueAt, err = timeField(cmd.Flags().Changed("due"), dueAt, clearDue)
			if err != nil {
				return writeErr(cmd, err)
			}

			task, err := sess.tasks.Update(args[0], patch)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, task)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().IntVar(&priority, "priority", 0, "New priority")
	cmd.Flags().StringVar(&startAt, "start", "", "New start time")
	cmd.Flags().StringVar(&dueAt, "due", "", "New due time")
	cmd.Flags().BoolVar(&clearDescription, "clear-description", false, "Clear the description")
	cmd.Flags().BoolVar(&clearStart, "clear-start", false, "Clear the start time")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "Clear the due time")
	return cmd
}

// newTasksCompleteCmd is the coordinator for completion: complete the task,
// cascade auto-unblocks through its dependents, then spawn the next
// recurrence occurrence if the rule calls for one.
func newTasksCompleteCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "complete <task-id>",
		Short: "Complete a task, unblocking dependents and scheduling recurrence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := sess.tasks.MarkCompleted(args[0]); err != nil {
				return writeErr(cmd, err)
			}
			unblocked, err := sess.tasks.OnTaskCompleted(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			next, err := sess.tasks.CreateNextOccurrence(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}

			task, _ := sess.db.FindTask(args[0])
			return writeOut(cmd, app, map[string]any{
				"task":      task,
				"unblocked": unblocked,
				"next":      next,
			})
		},
	}
	return cmd
}

func newTasksBlockCmd(app *App) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "block <task-id>",
		Short: "Mark a task blocked",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := sess.tasks.MarkBlocked(args[0], reason); err != nil {
				return writeErr(cmd, err)
			}
			task, _ := sess.db.FindTask(args[0])
			return writeOut(cmd, app, task)
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "Why the task is blocked")
	return cmd
}

func newTasksUnblockCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unblock <task-id>",
		Short: "Return a blocked task to pending",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := sess.tasks.Unblock(args[0]); err != nil {
				return writeErr(cmd, err)
			}
			task, _ := sess.db.FindTask(args[0])
			return writeOut(cmd, app, task)
		},
	}
	return cmd
}

func newTasksCloseCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "close <task-id>",
		Short: "Close a task without completing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := sess.tasks.Close(args[0]); err != nil {
				return writeErr(cmd, err)
			}
			task, _ := sess.db.FindTask(args[0])
			return writeOut(cmd, app, task)
		},
	}
	return cmd
}

func newTasksDeleteCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Soft-delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := sess.tasks.Delete(args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"id": args[0], "deleted": true})
		},
	}
	return cmd
}

func newTasksActivateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activate <task-id>",
		Short: "Focus a task: move it to the front of its stack's queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := sess.tasks.Activate(args[0]); err != nil {
				return writeErr(cmd, err)
			}
			task, _ := sess.db.FindTask(args[0])
			return writeOut(cmd, app, task)
		},
	}
	return cmd
}

func newTasksReorderCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reorder <stack-id> <task-id>...",
		Short: "Reorder a stack's tasks; unlisted tasks keep their relative order at the end",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := sess.tasks.Reorder(args[0], args[1:]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"stackId": args[0], "order": args[1:]})
		},
	}
	return cmd
}
