package cli

import (
	"dequeue/internal/model"

	"github.com/spf13/cobra"
)

func newSyncCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync bookkeeping",
	}
	cmd.AddCommand(newSyncStatusCmd(app))
	cmd.AddCommand(newSyncMarkCmd(app))
	return cmd
}

func newSyncStatusCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Count entities waiting to be pushed",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			pending := map[string]int{"arcs": 0, "stacks": 0, "tasks": 0}
			for _, a := range sess.db.Arcs {
				if a.SyncState == model.SyncPending {
					pending["arcs"]++
				}
			}
			for _, st := range sess.db.Stacks {
				if st.SyncState == model.SyncPending {
					pending["stacks"]++
				}
			}
			for _, t := range sess.db.Tasks {
				if t.SyncState == model.SyncPending {
					pending["tasks"]++
				}
			}
			return writeOut(cmd, app, map[string]any{"pending": pending})
		},
	}
	return cmd
}

// newSyncMarkCmd flips pending entities to synced after an external push has
// confirmed them. Transport is out of scope here; this is the bookkeeping
// half only.
func newSyncMarkCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mark-synced",
		Short: "Mark all pending entities as synced",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := loadSession(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			n, err := sess.env.MarkSynced()
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"marked": n})
		},
	}
	return cmd
}
