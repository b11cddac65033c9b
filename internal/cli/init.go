package cli

import (
	"os"
	"path/filepath"

	"dequeue/internal/config"
	"dequeue/internal/store"

	"github.com/spf13/cobra"
)

func newInitCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a workspace in the current directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := app.Dir
			if dir == "" {
				cwd, err := os.Getwd()
				if err != nil {
					return writeErr(cmd, err)
				}
				dir = filepath.Join(cwd, ".dequeue")
				app.Dir = dir
			}

			s := store.Store{Dir: dir}
			db, err := s.Load()
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := s.Save(db); err != nil {
				return writeErr(cmd, err)
			}
			if _, statErr := os.Stat(filepath.Join(dir, config.FileName)); os.IsNotExist(statErr) {
				if err := config.Save(dir, config.Default()); err != nil {
					return writeErr(cmd, err)
				}
			}

			return writeOut(cmd, app, map[string]any{
				"dir":        dir,
				"sqlitePath": filepath.Join(dir, "index.sqlite"),
				"configPath": filepath.Join(dir, config.FileName),
			})
		},
	}
	return cmd
}
