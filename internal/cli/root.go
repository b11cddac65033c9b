package cli

import (
	"fmt"
	"os"
	"strings"

	"dequeue/internal/config"
	"dequeue/internal/format"
	"dequeue/internal/mutate"
	"dequeue/internal/store"

	"github.com/spf13/cobra"
)

type App struct {
	Dir        string
	Actor      string
	Device     string
	PrettyJSON bool
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "dequeue",
		Short:        "Local-first arcs, stacks and tasks",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Initialize a workspace in the current directory
  dequeue init

  # Scriptable commands
  dequeue stacks list
  dequeue tasks add <stack-id> --title "Write report"

  # Switch focus to another stack
  dequeue stacks activate <stack-id>
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("DEQUEUE_DIR", ""), "Path to workspace dir (default: discover .dequeue upward from cwd)")
	cmd.PersistentFlags().StringVar(&app.Actor, "actor", envOr("DEQUEUE_ACTOR", ""), "Actor id (overrides config)")
	cmd.PersistentFlags().StringVar(&app.Device, "device", envOr("DEQUEUE_DEVICE", ""), "Device id (overrides config)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")

	cmd.AddCommand(newInitCmd(app))
	cmd.AddCommand(newArcsCmd(app))
	cmd.AddCommand(newStacksCmd(app))
	cmd.AddCommand(newTasksCmd(app))
	cmd.AddCommand(newDepsCmd(app))
	cmd.AddCommand(newEventsCmd(app))
	cmd.AddCommand(newSyncCmd(app))

	return cmd
}

// session bundles everything one command invocation needs: loaded state, the
// persistence handles and the configured mutation environment.
type session struct {
	db     *store.DB
	store  store.Store
	cfg    config.Config
	env    *mutate.Env
	arcs   *mutate.Arcs
	stacks *mutate.Stacks
	tasks  *mutate.Tasks
}

func loadSession(app *App) (*session, error) {
	dir := app.Dir
	if dir == "" {
		d, err := store.DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
		app.Dir = dir
	}

	s := store.Store{Dir: dir}
	db, err := s.Load()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	if app.Actor != "" {
		cfg.Actor = app.Actor
	}
	if app.Device != "" {
		cfg.Device = app.Device
	}

	env := &mutate.Env{
		DB:     db,
		Log:    s,
		Saver:  s,
		Actor:  cfg.Actor,
		Device: cfg.Device,
	}
	return &session{
		db:     db,
		store:  s,
		cfg:    cfg,
		env:    env,
		arcs:   mutate.NewArcs(env, cfg.MaxActiveArcs),
		stacks: mutate.NewStacks(env),
		tasks:  mutate.NewTasks(env),
	}, nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), map[string]any{"data": v}, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
