package cli

import (
	"github.com/spf13/cobra"
)

func newEventsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect the append-only change log",
	}
	cmd.AddCommand(newEventsListCmd(app))
	cmd.AddCommand(newEventsTailCmd(app))
	cmd.AddCommand(newEventsEntityCmd(app))
	cmd.AddCommand(newEventsCountCmd(app))
	return cmd
}

func newEventsListCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List events (oldest-first)",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			evs, err := sess.store.ReadEvents(limit)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, evs)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 200, "Max events to return (0 = all)")
	return cmd
}

func newEventsTailCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "List the most recent events (oldest-first within the window)",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			evs, err := sess.store.ReadEventsTail(limit)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, evs)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Max events to return")
	return cmd
}

func newEventsEntityCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "entity <entity-id>",
		Short: "List one entity's events in its own sequence order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			evs, err := sess.store.ReadEventsForEntity(args[0], limit)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, evs)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Max events to return (0 = all)")
	return cmd
}

func newEventsCountCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count events in the log",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			n, err := sess.store.CountEvents()
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"count": n})
		},
	}
	return cmd
}
